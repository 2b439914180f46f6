package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("secret", time.Hour)

	token, err := s.Issue("h-1")
	require.NoError(t, err)

	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "h-1", id)
}

func TestTokenService_Rejects(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	token, err := s.Issue("h-1")
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue("h-1")
	require.NoError(t, err)
	_, err = s.Verify(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
