package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminAuthPlainToken(t *testing.T) {
	auth := NewAdminAuth("change-me", "")

	assert.NoError(t, auth.Check("change-me"))
	assert.ErrorIs(t, auth.Check("change-me "), ErrForbidden)
	assert.ErrorIs(t, auth.Check(""), ErrForbidden)
	assert.ErrorIs(t, auth.Check("c"), ErrForbidden)
}

func TestAdminAuthBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	auth := NewAdminAuth("ignored", string(hash))

	assert.NoError(t, auth.Check("hashed-secret"))
	assert.ErrorIs(t, auth.Check("ignored"), ErrForbidden)
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("jwt-secret", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := issuer.GenerateToken()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
	assert.NoError(t, issuer.ValidateToken(token))
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer, err := NewTokenIssuer("jwt-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("another-secret", time.Hour)
	require.NoError(t, err)

	foreign, _, err := other.GenerateToken()
	require.NoError(t, err)
	assert.ErrorIs(t, issuer.ValidateToken(foreign), ErrUnauthorized)
	assert.ErrorIs(t, issuer.ValidateToken("not-a-token"), ErrUnauthorized)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := issuer.GenerateToken()
	require.NoError(t, err)
	assert.ErrorIs(t, issuer.ValidateToken(expired), ErrUnauthorized)
}

func TestTokenIssuerRandomSecret(t *testing.T) {
	a, err := NewTokenIssuer("", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenIssuer("", time.Hour)
	require.NoError(t, err)

	token, _, err := a.GenerateToken()
	require.NoError(t, err)
	assert.NoError(t, a.ValidateToken(token))
	assert.ErrorIs(t, b.ValidateToken(token), ErrUnauthorized)
}

func TestGenerateKey(t *testing.T) {
	a, b := GenerateKey(), GenerateKey()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[0-9A-F]{8}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{12}$`, a)
}
