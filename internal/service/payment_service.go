package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
)

type CreatePaymentInput struct {
	HouseID  string
	TenantID string // defaults to the house's current tenant
	DueDate  time.Time
	Amount   decimal.Decimal
}

type ApplyPaymentInput struct {
	Amount     decimal.Decimal
	Method     string
	ReceiptURL string
}

// PaymentService is the rent payment ledger. It records money; it does not move it.
type PaymentService struct {
	payments domain.PaymentRepository
	houses   domain.HouseRepository
	policy   *security.Policy
	logger   *slog.Logger
	now      func() time.Time
}

// NewPaymentService creates the payment ledger
func NewPaymentService(payments domain.PaymentRepository, houses domain.HouseRepository, policy *security.Policy, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = security.NewPolicy(logger)
	}
	return &PaymentService{payments: payments, houses: houses, policy: policy, logger: logger, now: time.Now}
}

// houseOf loads the payment's house. A payment whose house is gone is a
// data integrity failure, not a missing resource.
func (s *PaymentService) houseOf(ctx context.Context, p *domain.RentPayment) (*domain.House, error) {
	house, err := s.houses.GetByID(ctx, p.HouseID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("payment references a missing house",
			slog.String("payment_id", p.ID),
			slog.String("house_id", p.HouseID),
		)
		return nil, domain.Internal("associated house not found for payment", err)
	}
	return house, err
}

// Create schedules a payment for the current tenant of a house
func (s *PaymentService) Create(ctx context.Context, actor domain.Actor, in CreatePaymentInput) (*domain.RentPayment, error) {
	if in.HouseID == "" {
		return nil, domain.Validation("house_id is required")
	}
	if !in.Amount.IsPositive() {
		return nil, domain.Validation("amount must be greater than zero")
	}
	if err := domain.CheckMoneyScale("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.DueDate.IsZero() {
		return nil, domain.Validation("due_date is required")
	}

	house, err := s.houses.GetCurrent(ctx, in.HouseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManagePayment(actor, house); err != nil {
		return nil, err
	}
	if house.TenantID == nil {
		return nil, domain.InvalidState("house has no tenant to charge")
	}
	if in.TenantID == "" {
		in.TenantID = *house.TenantID
	}
	if !house.HasTenant(in.TenantID) {
		return nil, domain.Validation("tenant is not the current tenant of this house")
	}

	p := &domain.RentPayment{
		TenantID:   in.TenantID,
		HouseID:    house.ID,
		DueDate:    in.DueDate,
		Amount:     in.Amount,
		PaidAmount: decimal.Zero,
		Status:     domain.PaymentPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a payment visible to actor
func (s *PaymentService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.RentPayment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	house, err := s.houseOf(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ViewPayment(actor, p, house); err != nil {
		return nil, err
	}
	return p, nil
}

// List scopes the listing by actor's role
func (s *PaymentService) List(ctx context.Context, actor domain.Actor, filter domain.PaymentFilter, page domain.Page) (*domain.ListResult[*domain.RentPayment], error) {
	switch actor.Role {
	case domain.RoleTenant:
		filter.TenantID = actor.UserID
	case domain.RoleLandlord:
		filter.LandlordID = actor.UserID
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.Validation("invalid payment status %q", *filter.Status)
	}
	page = page.Normalize()
	items, total, err := s.payments.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[*domain.RentPayment]{Items: items, Total: total, Page: page}, nil
}

// ApplyPayment adds in.Amount to what has been paid and flips the payment to
// paid once the full amount is covered. The increment is applied atomically
// by the repository.
func (s *PaymentService) ApplyPayment(ctx context.Context, actor domain.Actor, id string, in ApplyPaymentInput) (*domain.RentPayment, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.Validation("payment amount must be positive")
	}
	if err := domain.CheckMoneyScale("payment amount", in.Amount); err != nil {
		return nil, err
	}

	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	house, err := s.houseOf(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ApplyPayment(actor, p, house); err != nil {
		return nil, err
	}
	if p.Status == domain.PaymentPaid {
		return nil, domain.InvalidState("payment is already fully paid")
	}

	p, err = s.payments.ApplyAmount(ctx, id, in.Amount, optional(in.Method), optional(in.ReceiptURL), s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment applied",
		slog.String("payment_id", p.ID),
		slog.String("amount", in.Amount.String()),
		slog.String("status", string(p.Status)),
	)
	return p, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Delete removes a payment; only the landlord or an admin may
func (s *PaymentService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	house, err := s.houseOf(ctx, p)
	if err != nil {
		return err
	}
	if err := s.policy.ManagePayment(actor, house); err != nil {
		return err
	}
	return s.payments.Delete(ctx, id)
}

// SweepOverdue marks pending payments due before now as overdue
func (s *PaymentService) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.payments.MarkOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	metrics.ObserveOverdue(n)
	if n > 0 {
		s.logger.Info("payments marked overdue", slog.Int64("count", n))
	}
	return n, nil
}
