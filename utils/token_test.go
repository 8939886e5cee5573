package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "unit-test-secret")

	token, err := JwtGenerate(12, "asha", "auditor", "session-1", time.Hour)
	require.NoError(t, err)

	parsed, err := JwtValidate(token)
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(*JwtCustomClaim)
	require.True(t, ok)
	assert.Equal(t, 12, claims.ID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "auditor", claims.Role)
	assert.Equal(t, "session-1", claims.Id)
}

func TestJwtRejectsBadInput(t *testing.T) {
	t.Setenv("API_SECRET", "unit-test-secret")

	_, err := JwtGenerate(1, "asha", "admin", "session-1", 0)
	assert.Error(t, err)

	_, err = JwtGenerate(1, "asha", "admin", "", time.Hour)
	assert.Error(t, err)

	_, err = JwtValidate("not-a-token")
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{ID: 1, Username: "asha"})
	signed, err := foreign.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	_, err = JwtValidate(signed)
	assert.Error(t, err)
}

func TestJwtRequiresSecret(t *testing.T) {
	t.Setenv("API_SECRET", "")

	_, err := JwtGenerate(1, "admin", "admin", "session-1", time.Hour)
	assert.ErrorIs(t, err, ErrMissingJwtSecret)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{ID: 1, Username: "admin", Role: "admin"})
	signed, err := forged.SignedString([]byte("dp-compass-secret"))
	require.NoError(t, err)
	_, err = JwtValidate(signed)
	assert.ErrorIs(t, err, ErrMissingJwtSecret)
}
