package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
)

// CreateLeaseInput carries the terms of a new lease. The landlord is taken
// from the house, never from the caller.
type CreateLeaseInput struct {
	HouseID       string
	TenantID      string
	StartDate     time.Time
	EndDate       time.Time
	RentAmount    decimal.Decimal
	DepositAmount decimal.Decimal
	Terms         string
	Status        domain.LeaseStatus
	DocumentURL   *string
}

// LeaseService records lease agreements. Leases are created explicitly by
// the landlord after acceptance, never as a side effect of it.
type LeaseService struct {
	leases domain.LeaseRepository
	houses domain.HouseRepository
	policy *security.Policy
	logger *slog.Logger
}

// NewLeaseService creates the lease ledger
func NewLeaseService(leases domain.LeaseRepository, houses domain.HouseRepository, policy *security.Policy, logger *slog.Logger) *LeaseService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = security.NewPolicy(logger)
	}
	return &LeaseService{leases: leases, houses: houses, policy: policy, logger: logger}
}

// Create records a lease for a house. The landlord is copied from the
// house; leases are never created by rent request transitions.
func (s *LeaseService) Create(ctx context.Context, actor domain.Actor, in CreateLeaseInput) (*domain.Lease, error) {
	if in.HouseID == "" {
		return nil, domain.Validation("house_id is required")
	}
	house, err := s.houses.GetByID(ctx, in.HouseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageLease(actor, house); err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = domain.LeasePending
	}
	lease := &domain.Lease{
		HouseID:       house.ID,
		TenantID:      in.TenantID,
		LandlordID:    house.LandlordID,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		RentAmount:    in.RentAmount,
		DepositAmount: in.DepositAmount,
		Terms:         in.Terms,
		Status:        in.Status,
		DocumentURL:   in.DocumentURL,
	}
	if err := lease.Validate(); err != nil {
		return nil, err
	}
	if err := s.leases.Create(ctx, lease); err != nil {
		return nil, err
	}

	s.logger.Info("lease created",
		slog.String("lease_id", lease.ID),
		slog.String("house_id", lease.HouseID),
		slog.String("tenant_id", lease.TenantID),
	)
	return lease, nil
}

// Get returns a lease visible to actor
func (s *LeaseService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Lease, error) {
	lease, err := s.leases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ViewLease(actor, lease); err != nil {
		return nil, err
	}
	return lease, nil
}

// List returns the leases actor is a party to; admins see all
func (s *LeaseService) List(ctx context.Context, actor domain.Actor, filter domain.LeaseFilter, page domain.Page) (*domain.ListResult[*domain.Lease], error) {
	switch actor.Role {
	case domain.RoleTenant:
		filter.TenantID = actor.UserID
	case domain.RoleLandlord:
		filter.LandlordID = actor.UserID
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.Validation("invalid lease status %q", *filter.Status)
	}
	page = page.Normalize()
	items, total, err := s.leases.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[*domain.Lease]{Items: items, Total: total, Page: page}, nil
}

// authorizeManage checks actor against the landlord of the lease's house
func (s *LeaseService) authorizeManage(ctx context.Context, actor domain.Actor, lease *domain.Lease) error {
	house, err := s.houses.GetByID(ctx, lease.HouseID)
	if err != nil {
		return err
	}
	return s.policy.ManageLease(actor, house)
}

// Update applies upd and re-validates dates, amounts and status
func (s *LeaseService) Update(ctx context.Context, actor domain.Actor, id string, upd domain.LeaseUpdate) (*domain.Lease, error) {
	if upd.Empty() {
		return nil, domain.Validation("no updatable fields provided")
	}
	lease, err := s.leases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, actor, lease); err != nil {
		return nil, err
	}

	if upd.StartDate != nil {
		lease.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		lease.EndDate = *upd.EndDate
	}
	if upd.RentAmount != nil {
		lease.RentAmount = *upd.RentAmount
	}
	if upd.DepositAmount != nil {
		lease.DepositAmount = *upd.DepositAmount
	}
	if upd.Terms != nil {
		lease.Terms = *upd.Terms
	}
	if upd.Status != nil {
		lease.Status = *upd.Status
	}
	if upd.DocumentURL != nil {
		lease.DocumentURL = upd.DocumentURL
	}
	if err := lease.Validate(); err != nil {
		return nil, err
	}
	if err := s.leases.Update(ctx, lease); err != nil {
		return nil, err
	}
	return lease, nil
}

// Delete removes a lease; only the house landlord or an admin may
func (s *LeaseService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	lease, err := s.leases.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeManage(ctx, actor, lease); err != nil {
		return err
	}
	return s.leases.Delete(ctx, id)
}
