package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Issue(clientAddr)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, clientAddr.String(), token.Address)
	assert.Equal(t, time.Hour, token.ExpiresIn)

	addr, err := tm.ParseAccess(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, clientAddr, addr)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	token, err := NewTokenManager("other-secret", time.Hour).Issue(clientAddr)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).ParseAccess(token.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Issue(clientAddr)
	require.NoError(t, err)

	_, err = tm.ParseAccess(token.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"sub": clientAddr.String(), "exp": time.Now().Add(time.Hour).Unix()}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).ParseAccess(unsigned)
	assert.Error(t, err)
}

func TestTokenManager_RejectsMalformedSubject(t *testing.T) {
	claims := jwt.MapClaims{"sub": "not-an-address", "exp": time.Now().Add(time.Hour).Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).ParseAccess(signed)
	assert.Error(t, err)
}
