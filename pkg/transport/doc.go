// Package transport implements the HTTP surface of the platform: the
// auth and restaurant route handlers, the middleware stack (request ID,
// logging, recovery, metrics), the error-to-status mapping, and the
// server lifecycle with graceful shutdown.
package transport
