package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// HouseStatus is the occupancy state of a house
type HouseStatus string

const (
	HouseAvailable HouseStatus = "available"
	HouseRented    HouseStatus = "rented"
)

// Valid reports whether s is a known house status
func (s HouseStatus) Valid() bool {
	return s == HouseAvailable || s == HouseRented
}

// House is a rental listing owned by one landlord.
// Status is rented exactly when TenantID is set.
type House struct {
	ID              string
	LandlordID      string
	TenantID        *string
	Title           string
	Description     string
	Address         string
	City            string
	Rent            decimal.Decimal
	Bedrooms        int
	Bathrooms       int
	Status          HouseStatus
	IsActive        bool
	RentalStartDate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAvailable reports whether the house can take a new tenant
func (h *House) IsAvailable() bool {
	return h.Status == HouseAvailable && h.TenantID == nil
}

// ValidateOccupancy enforces rented exactly when a tenant is set
func ValidateOccupancy(status HouseStatus, tenantID *string) error {
	if !status.Valid() {
		return Validation("invalid house status %q", status)
	}
	if (status == HouseRented) != (tenantID != nil && *tenantID != "") {
		return Internal("house occupancy invariant violated", fmt.Errorf("status %s with tenant set=%v", status, tenantID != nil))
	}
	return nil
}

// HasTenant reports whether userID is the current tenant
func (h *House) HasTenant(userID string) bool {
	return h.TenantID != nil && *h.TenantID == userID
}

// HouseAttributes are the fields supplied when listing a house
type HouseAttributes struct {
	Title           string
	Description     string
	Address         string
	City            string
	Rent            decimal.Decimal
	Bedrooms        int
	Bathrooms       int
	RentalStartDate *time.Time
}

// HouseUpdate is a partial update. Nil fields are left unchanged.
// TenantID and Status are carried only so that attempts to set them
// through the generic update path can be refused.
type HouseUpdate struct {
	Title           *string
	Description     *string
	Address         *string
	City            *string
	Rent            *decimal.Decimal
	Bedrooms        *int
	Bathrooms       *int
	IsActive        *bool
	RentalStartDate *time.Time

	TenantID *string
	Status   *HouseStatus
}

// Empty reports whether no updatable field is set
func (u HouseUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Address == nil && u.City == nil &&
		u.Rent == nil && u.Bedrooms == nil && u.Bathrooms == nil && u.IsActive == nil &&
		u.RentalStartDate == nil
}

// HouseFilter narrows a house listing
type HouseFilter struct {
	LandlordID string
	Status     *HouseStatus
	MinRent    *decimal.Decimal
	MaxRent    *decimal.Decimal
	Bedrooms   *int
	Bathrooms  *int
	IsActive   *bool
}

// HouseRepository defines data access for houses.
// Update writes listing fields only; occupancy changes go through UpdateStatusAndTenant.
type HouseRepository interface {
	Create(ctx context.Context, house *House) error
	GetByID(ctx context.Context, id string) (*House, error)
	// GetCurrent reads the house past any read cache. Use it where the
	// current tenant decides the outcome.
	GetCurrent(ctx context.Context, id string) (*House, error)
	// GetForUpdate reads the house and locks it for the enclosing transaction
	GetForUpdate(ctx context.Context, id string) (*House, error)
	List(ctx context.Context, filter HouseFilter, page Page) ([]*House, int, error)
	Update(ctx context.Context, house *House) error
	UpdateStatusAndTenant(ctx context.Context, id string, status HouseStatus, tenantID *string) error
	Delete(ctx context.Context, id string) error
}
