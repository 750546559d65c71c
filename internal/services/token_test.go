package services

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("s3cret", 0)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	other, err := issuer.Issue(42)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestTokenIssuerRejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer("s3cret", 0)
	token, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", 0).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify(token[:strings.LastIndex(token, ".")] + ".AAAA")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRejectsOtherAlgorithms(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("s3cret", 0).Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerExpiry(t *testing.T) {
	issuer := NewTokenIssuer("s3cret", time.Hour)
	now := time.Now()
	issuer.now = func() time.Time { return now }

	token, err := issuer.Issue(3)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
