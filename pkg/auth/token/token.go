// Package token implements the credential and token service: issuing
// and verifying the signed session tokens that bind a user identity and
// (optionally) a restaurant tenant.
//
// Tokens are stateless HMAC-SHA256 JWTs. Issuance writes nothing to the
// database; expiry is the only server-side invalidation mechanism.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/menuqr/menuqr/pkg/debug"
)

// Claim constants shared by access and refresh tokens.
const (
	DefaultIssuer   = "qr-menu-platform"
	DefaultAudience = "qr-menu-users"

	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Verification failures, distinguishable per the error taxonomy. Any
// failure not covered by the first three reports as ErrVerificationFailed;
// raw jwt library errors never cross this package's boundary.
var (
	ErrExpired            = errors.New("token expired")
	ErrNotYetValid        = errors.New("token not yet valid")
	ErrMalformed          = errors.New("token malformed or signature invalid")
	ErrVerificationFailed = errors.New("token verification failed")
)

// Claims is the decoded payload of a session token.
type Claims struct {
	UserID       string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	SessionID    string `json:"session_id"`
	jwtlib.RegisteredClaims
}

// Subject is the user identity a token is issued for.
type Subject struct {
	ID    string
	Email string
	Role  string
}

// Session couples the access and refresh tokens minted by one login.
// Both share a session id; each carries its own unique jti.
type Session struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresAt    time.Time // access token expiry
}

// Config holds the token service configuration. The signing secret is
// loaded once at startup and immutable thereafter.
type Config struct {
	// Secret is the HMAC signing secret (required).
	Secret []byte

	// Issuer is the iss claim. Default: "qr-menu-platform".
	Issuer string

	// Audience is the aud claim. Default: "qr-menu-users".
	Audience string

	// AccessTTL is the access token lifetime. Default: 7 days.
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime. Default: 30 days.
	RefreshTTL time.Duration

	// Clock allows injecting a time source (useful for testing).
	// If nil, time.Now is used.
	Clock func() time.Time
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.Audience == "" {
		c.Audience = DefaultAudience
	}
	if c.AccessTTL == 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Service issues and verifies session tokens. It holds no mutable state
// beyond the read-only configuration, so concurrent use needs no locking.
type Service struct {
	cfg Config
}

// New creates a token service with the given configuration.
func New(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	cfg.applyDefaults()
	return &Service{cfg: cfg}, nil
}

// IssueSession mints an access/refresh token pair for a login or
// registration. Each call produces a fresh session id, so concurrent
// logins for the same user never share one. Issuance is logged for
// audit traceability; there is no other side effect.
func (s *Service) IssueSession(sub Subject, restaurantID string) (*Session, error) {
	now := s.cfg.Clock()
	sessionID := newUniqueID(sub.ID, now)

	access, claims, err := s.sign(sub, restaurantID, sessionID, s.cfg.AccessTTL, now)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.sign(sub, restaurantID, sessionID, s.cfg.RefreshTTL, now)
	if err != nil {
		return nil, err
	}

	slog.Info("session issued", "user_id", sub.ID, "session_id", sessionID)
	debug.Log("tokens", "token pair minted",
		"session_id", sessionID,
		"access_expires_at", claims.ExpiresAt.Time,
	)

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sessionID,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

// IssueAccess mints a single access token within an existing session,
// used by the refresh flow. The session id is preserved; the jti is new.
func (s *Service) IssueAccess(sub Subject, restaurantID, sessionID string) (string, *Claims, error) {
	now := s.cfg.Clock()
	access, claims, err := s.sign(sub, restaurantID, sessionID, s.cfg.AccessTTL, now)
	if err != nil {
		return "", nil, err
	}

	slog.Info("access token refreshed", "user_id", sub.ID, "session_id", sessionID)
	return access, claims, nil
}

// sign builds and signs one token. The jti is unique per token even
// within a session.
func (s *Service) sign(sub Subject, restaurantID, sessionID string, ttl time.Duration, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		UserID:       sub.ID,
		Email:        sub.Email,
		Role:         sub.Role,
		RestaurantID: restaurantID,
		SessionID:    sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Audience:  jwtlib.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			ID:        newUniqueID(sub.ID, now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}

	return signed, claims, nil
}

// Verify validates signature, issuer, audience, and expiry, and returns
// the decoded claims. Failures map to exactly one of the four sentinel
// errors above.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, s.parserOptions()...)

	if err != nil {
		slog.Debug("token verification failed", "error", err)
		return nil, classify(err)
	}

	debug.Log("tokens", "token verified",
		"user_id", claims.UserID,
		"session_id", claims.SessionID,
		"jti", claims.ID,
	)
	return claims, nil
}

// parserOptions builds the jwt parser options from the configuration.
func (s *Service) parserOptions() []jwtlib.ParserOption {
	return []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(s.cfg.Issuer),
		jwtlib.WithAudience(s.cfg.Audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
		jwtlib.WithTimeFunc(s.cfg.Clock),
	}
}

// classify maps a jwt library error to the package's error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwtlib.ErrTokenNotValidYet),
		errors.Is(err, jwtlib.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwtlib.ErrTokenMalformed),
		errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return ErrMalformed
	default:
		return ErrVerificationFailed
	}
}

// newUniqueID builds a collision-free identifier from the user id, the
// current timestamp, and a random suffix. Two tokens minted in the same
// nanosecond still differ.
func newUniqueID(userID string, now time.Time) string {
	suffix := make([]byte, 4)
	rand.Read(suffix)

	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s.%d.%s", short, now.UnixNano(), hex.EncodeToString(suffix))
}
