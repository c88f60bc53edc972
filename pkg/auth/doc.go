// Package auth implements the authentication core of the platform.
//
// Three pieces cooperate per request: the token service (subpackage
// token) issues and verifies signed session tokens, the session
// transport (subpackage session) carries them via bearer header or
// cookie pair, and the tenant isolation guard (Middleware in this
// package) walks a request from unauthenticated to authorized:
//
//	Unauthenticated -> TokenPresent -> TokenVerified -> TenantResolved -> Authorized
//
// Any failed transition terminates the request with a structured 401;
// an authenticated caller targeting a foreign tenant gets a 403. The
// guard injects the verified identity and the token-derived tenant id
// into the request context; handlers and stores scope all data access
// by that tenant id and never by tenant ids from request input.
package auth
