package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("user-1", "owner@greengrocer.test", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "owner@greengrocer.test", claims.Email)
}

func TestValidateJWT_Rejects(t *testing.T) {
	expired, err := GenerateJWT("user-1", "", secret, -time.Minute)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{}).SignedString([]byte(secret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	valid, err := GenerateJWT("user-1", "", secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"expired", expired, secret},
		{"wrong secret", valid, "other"},
		{"no subject", noSubject, secret},
		{"other hmac algorithm", wrongAlg, secret},
		{"garbage", "not.a.token", secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJWT(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}
