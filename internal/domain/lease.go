package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LeaseStatus is the state of a lease agreement
type LeaseStatus string

const (
	LeasePending    LeaseStatus = "pending"
	LeaseActive     LeaseStatus = "active"
	LeaseTerminated LeaseStatus = "terminated"
	LeaseExpired    LeaseStatus = "expired"
)

// Valid reports whether s is a known lease status
func (s LeaseStatus) Valid() bool {
	switch s {
	case LeasePending, LeaseActive, LeaseTerminated, LeaseExpired:
		return true
	}
	return false
}

// Lease records binding terms between a landlord and tenant for a house.
// LandlordID is always copied from the house.
type Lease struct {
	ID            string
	HouseID       string
	TenantID      string
	LandlordID    string
	StartDate     time.Time
	EndDate       time.Time
	RentAmount    decimal.Decimal
	DepositAmount decimal.Decimal
	Terms         string
	Status        LeaseStatus
	DocumentURL   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks dates and amounts
func (l *Lease) Validate() error {
	if l.HouseID == "" || l.TenantID == "" {
		return Validation("house and tenant are required")
	}
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		return Validation("start and end dates are required")
	}
	if !l.StartDate.Before(l.EndDate) {
		return Validation("start date must be before end date")
	}
	if !l.RentAmount.IsPositive() {
		return Validation("rent amount must be positive")
	}
	if l.DepositAmount.IsNegative() {
		return Validation("deposit amount cannot be negative")
	}
	if err := CheckMoneyScale("rent amount", l.RentAmount); err != nil {
		return err
	}
	if err := CheckMoneyScale("deposit amount", l.DepositAmount); err != nil {
		return err
	}
	if !l.Status.Valid() {
		return Validation("invalid lease status %q", l.Status)
	}
	return nil
}

// LeaseUpdate is a partial update of a lease
type LeaseUpdate struct {
	StartDate     *time.Time
	EndDate       *time.Time
	RentAmount    *decimal.Decimal
	DepositAmount *decimal.Decimal
	Terms         *string
	Status        *LeaseStatus
	DocumentURL   *string
}

// Empty reports whether no field is set
func (u LeaseUpdate) Empty() bool {
	return u.StartDate == nil && u.EndDate == nil && u.RentAmount == nil &&
		u.DepositAmount == nil && u.Terms == nil && u.Status == nil && u.DocumentURL == nil
}

// LeaseFilter narrows a lease listing
type LeaseFilter struct {
	HouseID    string
	TenantID   string
	LandlordID string
	Status     *LeaseStatus
}

// LeaseRepository defines data access for leases
type LeaseRepository interface {
	Create(ctx context.Context, lease *Lease) error
	GetByID(ctx context.Context, id string) (*Lease, error)
	List(ctx context.Context, filter LeaseFilter, page Page) ([]*Lease, int, error)
	Update(ctx context.Context, lease *Lease) error
	Delete(ctx context.Context, id string) error
}
