package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "")
	token, err := tm.GenerateToken("user-1", "a@example.com", domain.RoleLandlord, time.Minute)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{UserID: "user-1", Role: domain.RoleLandlord}, claims.Actor())
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestValidateTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := NewTokenManager("one", "").GenerateToken("u", "", domain.RoleTenant, time.Minute)
	require.NoError(t, err)
	_, err = NewTokenManager("two", "").ValidateToken(token)
	assert.Error(t, err)

	tm := NewTokenManager("one", "")
	expired, err := tm.GenerateToken("u", "", domain.RoleTenant, -time.Minute)
	require.NoError(t, err)
	_, err = tm.ValidateToken(expired)
	assert.Error(t, err)
}

func TestGenerateTokenRequiresRole(t *testing.T) {
	_, err := NewTokenManager("s", "").GenerateToken("u", "", domain.Role("owner"), time.Minute)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = ExtractToken("Basic abc")
	assert.Error(t, err)
	_, err = ExtractToken("Bearer")
	assert.Error(t, err)
}
