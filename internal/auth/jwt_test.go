package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestJWT_RoundTrip(t *testing.T) {
	token, err := GenerateJWT("agent-1", "agent1@example.com", "Alex", "Agent", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", claims.AgentID())
	assert.Equal(t, "agent1@example.com", claims.Email)
	assert.Equal(t, "Alex", claims.FirstName)
	assert.Equal(t, "Agent", claims.LastName)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("agent-1", "agent1@example.com", "Alex", "Agent", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("agent-1", "agent1@example.com", "Alex", "Agent", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}

func TestValidateJWT_MissingSubject(t *testing.T) {
	claims := &Claims{
		Email: "agent1@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.ErrorContains(t, err, "subject")
}

func TestValidateJWT_RejectsUnsignedToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "agent-1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateJWT(token, testSecret)
	assert.Error(t, err)
}
