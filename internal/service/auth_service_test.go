package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/repository/memory"
	"github.com/aryan0dhankhar/rentdesk/internal/security/auth"
)

func newAuthService(t *testing.T) (*AuthService, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret-key-for-jwt-signing", "rentdesk-test")
	return NewAuthService(memory.NewStore().Users(), tokens, 30*time.Minute, quietLogger()), tokens
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newAuthService(t)

	res, err := svc.Register(ctx, RegisterInput{Email: " Ada@Example.com ", Name: "Ada", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, domain.RoleTenant, res.User.Role)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, 1800, res.ExpiresIn)
	assert.NotEqual(t, "correct horse", res.User.PasswordHash)

	claims, err := tokens.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, domain.RoleTenant, claims.Role)

	login, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, domain.ErrAuthentication)

	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrAuthentication)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, err := svc.Register(ctx, RegisterInput{Email: "lee@example.com", Name: "Lee", Password: "password1", Role: domain.RoleLandlord})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"duplicate email", RegisterInput{Email: "LEE@example.com", Name: "Lee", Password: "password1"}, domain.ErrConflict},
		{"bad email", RegisterInput{Email: "not-an-email", Name: "X", Password: "password1"}, domain.ErrValidation},
		{"missing name", RegisterInput{Email: "x@example.com", Password: "password1"}, domain.ErrValidation},
		{"short password", RegisterInput{Email: "y@example.com", Name: "Y", Password: "short"}, domain.ErrValidation},
		{"unknown role", RegisterInput{Email: "z@example.com", Name: "Z", Password: "password1", Role: "owner"}, domain.ErrValidation},
		{"admin self registration", RegisterInput{Email: "root@example.com", Name: "Root", Password: "password1", Role: domain.RoleAdmin}, domain.ErrAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// operators can still provision admins directly
	u, err := svc.CreateUser(ctx, RegisterInput{Email: "root@example.com", Name: "Root", Password: "password1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestAuthServiceChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)
	res, err := svc.Register(ctx, RegisterInput{Email: "kim@example.com", Name: "Kim", Password: "first-pass"})
	require.NoError(t, err)
	actor := domain.Actor{UserID: res.User.ID, Role: res.User.Role}

	assert.ErrorIs(t, svc.ChangePassword(ctx, actor, "wrong", "second-pass"), domain.ErrAuthentication)
	assert.ErrorIs(t, svc.ChangePassword(ctx, actor, "first-pass", "tiny"), domain.ErrValidation)
	require.NoError(t, svc.ChangePassword(ctx, actor, "first-pass", "second-pass"))

	_, err = svc.Login(ctx, "kim@example.com", "first-pass")
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	_, err = svc.Login(ctx, "kim@example.com", "second-pass")
	assert.NoError(t, err)
}
