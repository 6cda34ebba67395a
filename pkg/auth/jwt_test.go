package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = JWTConfig{
	SecretKey: "test-secret",
	Issuer:    "kryoon-backend",
}

func TestValidateTokenRoundTrip(t *testing.T) {
	gen, err := NewJWTGenerator(testConfig, time.Hour)
	require.NoError(t, err)
	validator, err := NewJWTValidator(testConfig)
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "u@example.com", []string{"authenticated"})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, []string{"authenticated"}, claims.Roles)
}

func TestValidateTokenExpired(t *testing.T) {
	gen, err := NewJWTGenerator(testConfig, time.Nanosecond)
	require.NoError(t, err)
	validator, err := NewJWTValidator(testConfig)
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	gen, err := NewJWTGenerator(JWTConfig{SecretKey: "other-secret", Issuer: testConfig.Issuer}, time.Hour)
	require.NoError(t, err)
	validator, err := NewJWTValidator(testConfig)
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	gen, err := NewJWTGenerator(JWTConfig{SecretKey: testConfig.SecretKey, Issuer: "someone-else"}, time.Hour)
	require.NoError(t, err)
	validator, err := NewJWTValidator(testConfig)
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	_, err = validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenSubjectFallback(t *testing.T) {
	// Tokens minted elsewhere may carry only the registered subject.
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "subject-user",
		Issuer:    testConfig.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testConfig.SecretKey))
	require.NoError(t, err)

	validator, err := NewJWTValidator(testConfig)
	require.NoError(t, err)

	claims, err := validator.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "subject-user", claims.UserID)
}

func TestValidateTokenGarbage(t *testing.T) {
	validator, err := NewJWTValidator(testConfig)
	require.NoError(t, err)

	_, err = validator.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTValidatorRequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}
