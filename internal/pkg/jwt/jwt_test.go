package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(42, "Ama Mensah", "ama@example.com", "farmer", "Kumasi", testSecret, 15)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "Ama Mensah", claims.Name)
	assert.Equal(t, "ama@example.com", claims.Email)
	assert.Equal(t, "farmer", claims.Role)
	assert.Equal(t, "Kumasi", claims.Location)
	assert.Equal(t, "agrofresh-gh", claims.Issuer)
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "Kofi", "kofi@example.com", "buyer", "Accra", testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "different-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(1, "Kofi", "kofi@example.com", "buyer", "Accra", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccessTokenGarbage(t *testing.T) {
	_, err := ValidateAccessToken("not-a-jwt", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGenerateAndValidateRefreshToken(t *testing.T) {
	token, err := GenerateRefreshToken(7, "token-id-123", testSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "token-id-123", claims.TokenID)
}

func TestAccessTokenIsNotARefreshToken(t *testing.T) {
	access, err := GenerateAccessToken(1, "Kofi", "kofi@example.com", "buyer", "Accra", testSecret, 15)
	require.NoError(t, err)

	// Parses as refresh claims but carries no token_id
	claims, err := ValidateRefreshToken(access, testSecret)
	require.NoError(t, err)
	assert.Empty(t, claims.TokenID)
}
