package domain

import (
	"context"
	"time"
)

// Role is the capability a user acts with
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleLandlord, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated identity an operation runs as.
// It is established by the transport layer and trusted verbatim.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsLandlord() bool { return a.Role == RoleLandlord }
func (a Actor) IsTenant() bool   { return a.Role == RoleTenant }

// User represents a system user
type User struct {
	ID           string // UUID
	Email        string // Unique email address
	Name         string
	PasswordHash string // Bcrypt hashed password (not returned in API)
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}
