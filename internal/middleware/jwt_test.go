package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, userID int, role string, expiry time.Duration) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestParseToken_Valid(t *testing.T) {
	token := signToken(t, 42, RoleStudent, time.Hour)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, RoleStudent, claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token := signToken(t, 42, RoleStudent, time.Hour)

	_, err := ParseToken(token, "a-different-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token := signToken(t, 42, RoleFaculty, -time.Minute)

	_, err := ParseToken(token, testSecret)
	assert.Error(t, err)
}
