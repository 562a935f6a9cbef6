package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/security/auth"
)

// AuthService handles registration and login
type AuthService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	ttl    time.Duration
	logger *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(users domain.UserRepository, tokens *auth.TokenManager, ttl time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{users: users, tokens: tokens, ttl: ttl, logger: logger}
}

// RegisterInput is a new account request
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresIn int // seconds
	TokenType string
}

// Register creates a tenant or landlord account. Admin accounts are
// provisioned by operators with CreateUser.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Role == domain.RoleAdmin {
		return nil, domain.Forbidden("admin accounts cannot be self-registered")
	}
	user, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateUser validates and stores an account of any role
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.Validation("a valid email is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("name is required")
	}
	if in.Role == "" {
		in.Role = domain.RoleTenant
	}
	if !in.Role.Valid() {
		return nil, domain.Validation("role must be tenant or landlord")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if len(in.Password) < auth.MinPasswordLength {
			return nil, domain.Validation("password must be at least %d characters", auth.MinPasswordLength)
		}
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, domain.Internal("failed to register user", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict("email already registered")
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt with unknown email")
			return nil, domain.Unauthenticated("invalid credentials")
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, domain.Unauthenticated("invalid credentials")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issue(user)
}

// ChangePassword replaces the actor's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(user.PasswordHash, oldPassword); err != nil {
		return domain.Unauthenticated("current password is incorrect")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return domain.Validation("new password must be at least %d characters", auth.MinPasswordLength)
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Role, s.ttl)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, domain.Internal("failed to generate token", err)
	}
	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresIn: int(s.ttl.Seconds()),
		TokenType: "Bearer",
	}, nil
}
