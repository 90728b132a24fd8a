// Package session holds the admin bearer token consumed by the backend
// client. The token is issued by the platform backend; this side never
// verifies its signature, it only inspects claims for logging and local
// expiry checks.
package session

import (
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Session is the authenticated admin context. Invalidate fires the
// registered auth-required callback (the login redirect of the UI)
// exactly once per installed token, no matter how many concurrent
// fetches fail with 401 at the same time.
type Session struct {
	logger *zap.Logger

	mu             sync.Mutex
	token          string
	invalidated    bool
	onAuthRequired func()
}

// New creates a session holding the given bearer token.
func New(token string, logger *zap.Logger) *Session {
	return &Session{token: token, logger: logger}
}

// Token returns the current bearer token, false when the session has
// been invalidated.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated || s.token == "" {
		return "", false
	}
	return s.token, true
}

// SetToken installs a fresh token and re-arms the auth-required callback.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.invalidated = false
}

// OnAuthRequired registers the fatal-auth-failure side effect.
func (s *Session) OnAuthRequired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAuthRequired = fn
}

// Invalidate clears credentials and fires the auth-required callback.
// Idempotent until a new token is installed.
func (s *Session) Invalidate(reason string) {
	s.mu.Lock()
	if s.invalidated {
		s.mu.Unlock()
		return
	}
	s.invalidated = true
	s.token = ""
	callback := s.onAuthRequired
	s.mu.Unlock()

	s.logger.Warn("session invalidated", zap.String("reason", reason))
	if callback != nil {
		callback()
	}
}

// Subject returns the token's subject claim, if parseable.
func (s *Session) Subject() string {
	claims := s.claims()
	if claims == nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// ExpiresAt returns the token's expiry, zero when absent or unparseable.
func (s *Session) ExpiresAt() time.Time {
	claims := s.claims()
	if claims == nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Expired reports whether the token carries an expiry in the past.
// Fetches still go out when true; the backend remains the authority and
// its 401 drives invalidation.
func (s *Session) Expired() bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && exp.Before(time.Now())
}

func (s *Session) claims() jwt.MapClaims {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}
