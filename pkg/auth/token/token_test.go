package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-secret-at-least-32-bytes-long")

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t, Config{})

	sub := Subject{ID: "user-123", Email: "owner@example.com", Role: "owner"}
	sess, err := svc.IssueSession(sub, "rest-456")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if sess.AccessToken == sess.RefreshToken {
		t.Error("access and refresh tokens must differ")
	}

	claims, err := svc.Verify(sess.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claims.UserID != "user-123" {
		t.Errorf("user id = %q, want user-123", claims.UserID)
	}
	if claims.Email != "owner@example.com" {
		t.Errorf("email = %q, want owner@example.com", claims.Email)
	}
	if claims.Role != "owner" {
		t.Errorf("role = %q, want owner", claims.Role)
	}
	if claims.RestaurantID != "rest-456" {
		t.Errorf("restaurant id = %q, want rest-456", claims.RestaurantID)
	}
	if claims.SessionID != sess.SessionID {
		t.Errorf("session id = %q, want %q", claims.SessionID, sess.SessionID)
	}
	if claims.Issuer != DefaultIssuer {
		t.Errorf("issuer = %q, want %q", claims.Issuer, DefaultIssuer)
	}
	if claims.ID == "" {
		t.Error("jti must not be empty")
	}
}

func TestIssueSessionWithoutTenant(t *testing.T) {
	svc := newTestService(t, Config{})

	sess, err := svc.IssueSession(Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}, "")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	claims, err := svc.Verify(sess.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.RestaurantID != "" {
		t.Errorf("restaurant id = %q, want empty", claims.RestaurantID)
	}
}

func TestConcurrentSessionsAreDistinct(t *testing.T) {
	svc := newTestService(t, Config{})
	sub := Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}

	seenSessions := make(map[string]bool)
	seenJTIs := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sess, err := svc.IssueSession(sub, "")
		if err != nil {
			t.Fatalf("IssueSession: %v", err)
		}
		if seenSessions[sess.SessionID] {
			t.Fatalf("duplicate session id %q", sess.SessionID)
		}
		seenSessions[sess.SessionID] = true

		claims, err := svc.Verify(sess.AccessToken)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if seenJTIs[claims.ID] {
			t.Fatalf("duplicate jti %q", claims.ID)
		}
		seenJTIs[claims.ID] = true
	}
}

func TestIssueAccessPreservesSession(t *testing.T) {
	svc := newTestService(t, Config{})
	sub := Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}

	sess, err := svc.IssueSession(sub, "rest-1")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	access, claims, err := svc.IssueAccess(sub, "rest-1", sess.SessionID)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == sess.AccessToken {
		t.Error("refreshed access token must differ from the original")
	}
	if claims.SessionID != sess.SessionID {
		t.Errorf("session id = %q, want %q", claims.SessionID, sess.SessionID)
	}

	verified, err := svc.Verify(access)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.SessionID != sess.SessionID {
		t.Errorf("verified session id = %q, want %q", verified.SessionID, sess.SessionID)
	}
}

func TestVerifyExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt

	svc := newTestService(t, Config{
		AccessTTL: time.Hour,
		Clock:     func() time.Time { return now },
	})

	sess, err := svc.IssueSession(Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}, "")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	// Just inside the lifetime.
	now = issuedAt.Add(time.Hour - time.Second)
	if _, err := svc.Verify(sess.AccessToken); err != nil {
		t.Errorf("token should still verify one second before expiry: %v", err)
	}

	// Exactly at the expiry timestamp the token is already dead.
	now = issuedAt.Add(time.Hour)
	if _, err := svc.Verify(sess.AccessToken); !errors.Is(err, ErrExpired) {
		t.Errorf("at expiry: err = %v, want ErrExpired", err)
	}

	// Just past the lifetime.
	now = issuedAt.Add(time.Hour + time.Second)
	_, err = svc.Verify(sess.AccessToken)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestVerifyNotYetValid(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt

	svc := newTestService(t, Config{
		Clock: func() time.Time { return now },
	})

	sess, err := svc.IssueSession(Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}, "")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	// Verify from "before" issuance.
	now = issuedAt.Add(-time.Minute)
	_, err = svc.Verify(sess.AccessToken)
	if !errors.Is(err, ErrNotYetValid) {
		t.Errorf("err = %v, want ErrNotYetValid", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	svc := newTestService(t, Config{})
	other := newTestService(t, Config{Secret: []byte("a-completely-different-signing-key")})
	badIssuer := newTestService(t, Config{Issuer: "someone-else"})
	badAudience := newTestService(t, Config{Audience: "other-users"})

	sess, err := svc.IssueSession(Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}, "")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	wrongKey, err := other.IssueSession(Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}, "")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	wrongIssuer, err := badIssuer.IssueSession(Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}, "")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	wrongAudience, err := badAudience.IssueSession(Subject{ID: "user-1", Email: "a@b.com", Role: "owner"}, "")
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	// Tampered payload keeps the structure but breaks the signature.
	parts := strings.Split(sess.AccessToken, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", ErrMalformed},
		{"empty", "", ErrMalformed},
		{"two segments", "abc.def", ErrMalformed},
		{"wrong key", wrongKey.AccessToken, ErrMalformed},
		{"tampered", tampered, ErrMalformed},
		{"wrong issuer", wrongIssuer.AccessToken, ErrVerificationFailed},
		{"wrong audience", wrongAudience.AccessToken, ErrVerificationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUniqueIDShape(t *testing.T) {
	now := time.Now()
	id := newUniqueID("0123456789abcdef", now)

	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		t.Fatalf("id %q has %d parts, want 3", id, len(parts))
	}
	if parts[0] != "01234567" {
		t.Errorf("prefix = %q, want truncated user id", parts[0])
	}
}
