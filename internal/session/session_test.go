package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestInvalidateFiresCallbackExactlyOnce(t *testing.T) {
	s := New("token", zap.NewNop())
	redirects := 0
	s.OnAuthRequired(func() { redirects++ })

	s.Invalidate("401 on users")
	s.Invalidate("401 on posts")
	s.Invalidate("401 on reports")

	assert.Equal(t, 1, redirects)

	_, ok := s.Token()
	assert.False(t, ok, "credentials must be cleared")
}

func TestSetTokenRearmsCallback(t *testing.T) {
	s := New("token", zap.NewNop())
	redirects := 0
	s.OnAuthRequired(func() { redirects++ })

	s.Invalidate("expired")
	s.SetToken("fresh")

	token, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "fresh", token)

	s.Invalidate("expired again")
	assert.Equal(t, 2, redirects, "a fresh token gets its own redirect")
}

func TestEmptyTokenIsNotUsable(t *testing.T) {
	s := New("", zap.NewNop())
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestClaimsInspection(t *testing.T) {
	// header {"alg":"none"}, claims {"sub":"admin-1","exp":1000000000}.
	token := "eyJhbGciOiJub25lIn0." +
		"eyJzdWIiOiJhZG1pbi0xIiwiZXhwIjoxMDAwMDAwMDAwfQ."
	s := New(token, zap.NewNop())

	assert.Equal(t, "admin-1", s.Subject())
	assert.True(t, s.Expired(), "exp of 2001 is long past")
}

func TestGarbageTokenYieldsZeroClaims(t *testing.T) {
	s := New("not-a-jwt", zap.NewNop())
	assert.Empty(t, s.Subject())
	assert.True(t, s.ExpiresAt().IsZero())
	assert.False(t, s.Expired())
}
