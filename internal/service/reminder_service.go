package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
)

type CreateReminderInput struct {
	HouseID      string
	TenantID     string // defaults to the house's current tenant
	PaymentID    *string
	Type         domain.ReminderType
	Message      string
	ReminderDate time.Time
}

// ReminderService keeps reminder records. Sending is driven by the
// dispatcher worker through DispatchDue.
type ReminderService struct {
	reminders domain.ReminderRepository
	houses    domain.HouseRepository
	payments  domain.PaymentRepository
	notifier  Notifier
	policy    *security.Policy
	logger    *slog.Logger
	now       func() time.Time
}

// NewReminderService creates the reminder scheduler. notifier receives
// dispatched reminders.
func NewReminderService(
	reminders domain.ReminderRepository,
	houses domain.HouseRepository,
	payments domain.PaymentRepository,
	notifier Notifier,
	policy *security.Policy,
	logger *slog.Logger,
) *ReminderService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = security.NewPolicy(logger)
	}
	return &ReminderService{
		reminders: reminders,
		houses:    houses,
		payments:  payments,
		notifier:  notifier,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ReminderService) checkPayment(ctx context.Context, paymentID *string, houseID string) error {
	if paymentID == nil {
		return nil
	}
	p, err := s.payments.GetByID(ctx, *paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Validation("payment %s does not exist", *paymentID)
	}
	if err != nil {
		return err
	}
	if p.HouseID != houseID {
		return domain.Validation("payment belongs to a different house")
	}
	return nil
}

// Create schedules a reminder. The tenant defaults to the current tenant
// and a linked payment must belong to the same house.
func (s *ReminderService) Create(ctx context.Context, actor domain.Actor, in CreateReminderInput) (*domain.RentReminder, error) {
	if in.HouseID == "" {
		return nil, domain.Validation("house_id is required")
	}
	if !in.Type.Valid() {
		return nil, domain.Validation("reminder type must be payment_due or payment_overdue")
	}
	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" {
		return nil, domain.Validation("message is required")
	}
	if in.ReminderDate.IsZero() {
		return nil, domain.Validation("reminder_date is required")
	}

	house, err := s.houses.GetCurrent(ctx, in.HouseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageReminder(actor, house.ID, house.LandlordID); err != nil {
		return nil, err
	}
	if in.TenantID == "" && house.TenantID != nil {
		in.TenantID = *house.TenantID
	}
	if in.TenantID == "" {
		return nil, domain.Validation("tenant_id is required for a house without a tenant")
	}
	if err := s.checkPayment(ctx, in.PaymentID, house.ID); err != nil {
		return nil, err
	}

	rem := &domain.RentReminder{
		LandlordID:   house.LandlordID,
		TenantID:     in.TenantID,
		HouseID:      house.ID,
		PaymentID:    in.PaymentID,
		Type:         in.Type,
		Message:      in.Message,
		ReminderDate: in.ReminderDate.UTC(),
	}
	if err := s.reminders.Create(ctx, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

// Get returns a reminder visible to actor
func (s *ReminderService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.RentReminder, error) {
	rem, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ViewReminder(actor, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

// List scopes the listing by actor's role
func (s *ReminderService) List(ctx context.Context, actor domain.Actor, filter domain.ReminderFilter, page domain.Page) (*domain.ListResult[*domain.RentReminder], error) {
	switch actor.Role {
	case domain.RoleTenant:
		filter.TenantID = actor.UserID
	case domain.RoleLandlord:
		filter.LandlordID = actor.UserID
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.Validation("from cannot be after to")
	}
	page = page.Normalize()
	items, total, err := s.reminders.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[*domain.RentReminder]{Items: items, Total: total, Page: page}, nil
}

// Update changes an unsent reminder
func (s *ReminderService) Update(ctx context.Context, actor domain.Actor, id string, upd domain.ReminderUpdate) (*domain.RentReminder, error) {
	if upd.Empty() {
		return nil, domain.Validation("no updatable fields provided")
	}
	rem, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageReminder(actor, rem.ID, rem.LandlordID); err != nil {
		return nil, err
	}
	if rem.IsSent {
		return nil, domain.InvalidState("reminder has already been sent")
	}

	if upd.Type != nil {
		if !upd.Type.Valid() {
			return nil, domain.Validation("reminder type must be payment_due or payment_overdue")
		}
		rem.Type = *upd.Type
	}
	if upd.Message != nil {
		msg := strings.TrimSpace(*upd.Message)
		if msg == "" {
			return nil, domain.Validation("message cannot be empty")
		}
		rem.Message = msg
	}
	if upd.ReminderDate != nil {
		rem.ReminderDate = upd.ReminderDate.UTC()
	}
	if upd.PaymentID != nil {
		if err := s.checkPayment(ctx, upd.PaymentID, rem.HouseID); err != nil {
			return nil, err
		}
		rem.PaymentID = upd.PaymentID
	}
	if err := s.reminders.Update(ctx, rem); err != nil {
		return nil, err
	}
	return rem, nil
}

// Delete removes a reminder
func (s *ReminderService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	rem, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.ManageReminder(actor, rem.ID, rem.LandlordID); err != nil {
		return err
	}
	return s.reminders.Delete(ctx, id)
}

// MarkSent records that a reminder went out. A second call fails with
// InvalidState and changes nothing.
func (s *ReminderService) MarkSent(ctx context.Context, actor domain.Actor, id string) (*domain.RentReminder, error) {
	rem, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageReminder(actor, rem.ID, rem.LandlordID); err != nil {
		return nil, err
	}
	if err := s.reminders.MarkSent(ctx, id, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.reminders.GetByID(ctx, id)
}

// Due lists reminders ready to go out
func (s *ReminderService) Due(ctx context.Context, now time.Time, limit int) ([]*domain.RentReminder, error) {
	if limit < 1 {
		limit = domain.MaxPageLimit
	}
	return s.reminders.Due(ctx, now, limit)
}

// DispatchResult counts what one dispatch pass did
type DispatchResult struct {
	Sent    int
	Skipped int
	Failed  int
}

// DispatchDue claims each due reminder by marking it sent, then delivers it
// to the tenant's inbox. Claiming first means two dispatchers never send the
// same reminder twice; a failed delivery is logged and not retried.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time, limit int) (DispatchResult, error) {
	var res DispatchResult
	due, err := s.Due(ctx, now, limit)
	if err != nil {
		return res, err
	}

	for _, rem := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := s.reminders.MarkSent(ctx, rem.ID, s.now().UTC())
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
			metrics.ObserveReminderDispatch("skipped")
			res.Skipped++
			continue
		}
		if err != nil {
			metrics.ObserveReminderDispatch("error")
			return res, err
		}

		entity := rem.ID
		if rem.PaymentID != nil {
			entity = *rem.PaymentID
		}
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, notification(rem.TenantID, domain.NotifPaymentReminder, entity, rem.Message)); err != nil {
				s.logger.Warn("failed to deliver reminder",
					slog.String("reminder_id", rem.ID),
					slog.String("error", err.Error()),
				)
				metrics.ObserveReminderDispatch("error")
				res.Failed++
				continue
			}
		}
		metrics.ObserveReminderDispatch("sent")
		res.Sent++
	}
	return res, nil
}
