package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

func (f *fixture) newReminder(t *testing.T, houseID string, at time.Time, paymentID *string) *domain.RentReminder {
	t.Helper()
	rem, err := f.reminders.Create(context.Background(), landlord, CreateReminderInput{
		HouseID:      houseID,
		PaymentID:    paymentID,
		Type:         domain.ReminderPaymentDue,
		Message:      "Rent is due on the 1st",
		ReminderDate: at,
	})
	require.NoError(t, err)
	return rem
}

func TestReminderCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	rem := f.newReminder(t, h.ID, at, nil)
	assert.Equal(t, tenant1.UserID, rem.TenantID)
	assert.Equal(t, landlord.UserID, rem.LandlordID)
	assert.False(t, rem.IsSent)

	base := CreateReminderInput{HouseID: h.ID, Type: domain.ReminderPaymentDue, Message: "pay", ReminderDate: at}

	bad := base
	bad.Type = "nag"
	_, err := f.reminders.Create(ctx, landlord, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad = base
	bad.Message = "   "
	_, err = f.reminders.Create(ctx, landlord, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.reminders.Create(ctx, landlord2, base)
	assert.ErrorIs(t, err, domain.ErrAuthorization)
	_, err = f.reminders.Create(ctx, tenant1, base)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	// a payment from another house cannot be attached
	other, _ := f.rentedTo(t, tenant2)
	foreign := f.newPayment(t, other.ID, at)
	bad = base
	bad.PaymentID = &foreign.ID
	_, err = f.reminders.Create(ctx, landlord, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	vacant := f.newHouse(t, landlord)
	bad = base
	bad.HouseID = vacant.ID
	_, err = f.reminders.Create(ctx, landlord, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReminderMarkSentOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	rem := f.newReminder(t, h.ID, time.Now(), nil)

	sent, err := f.reminders.MarkSent(ctx, landlord, rem.ID)
	require.NoError(t, err)
	assert.True(t, sent.IsSent)
	require.NotNil(t, sent.SentAt)

	_, err = f.reminders.MarkSent(ctx, landlord, rem.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	again, err := f.reminders.Get(ctx, tenant1, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, *sent.SentAt, *again.SentAt)

	msg := "changed"
	_, err = f.reminders.Update(ctx, landlord, rem.ID, domain.ReminderUpdate{Message: &msg})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestReminderListRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f.newReminder(t, h.ID, base, nil)
	f.newReminder(t, h.ID, base.AddDate(0, 1, 0), nil)

	from, to := base.AddDate(0, 0, 15), base.AddDate(0, 2, 0)
	res, err := f.reminders.List(ctx, tenant1, domain.ReminderFilter{From: &from, To: &to}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = f.reminders.List(ctx, landlord, domain.ReminderFilter{From: &to, To: &from}, domain.Page{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDispatchDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	p := f.newPayment(t, h.ID, now)

	due := f.newReminder(t, h.ID, now.Add(-time.Hour), &p.ID)
	f.newReminder(t, h.ID, now.Add(time.Hour), nil)

	res, err := f.reminders.DispatchDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Sent: 1}, res)

	got, err := f.reminders.Get(ctx, landlord, due.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSent)

	var delivered *domain.Notification
	for _, n := range f.inbox(t, tenant1) {
		if n.Type == domain.NotifPaymentReminder {
			delivered = n
		}
	}
	require.NotNil(t, delivered)
	require.NotNil(t, delivered.EntityID)
	assert.Equal(t, p.ID, *delivered.EntityID)

	// a second pass finds nothing left to send
	res, err = f.reminders.DispatchDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, res)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, *domain.Notification) error {
	return errors.New("inbox down")
}

func TestDispatchDueCountsFailedDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	now := time.Now()
	rem := f.newReminder(t, h.ID, now.Add(-time.Minute), nil)

	svc := NewReminderService(f.store.Reminders(), f.store.Houses(), f.store.Payments(), failingNotifier{}, nil, quietLogger())
	res, err := svc.DispatchDue(ctx, now, 0)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Failed: 1}, res)

	// claimed before delivery, so it is not retried
	got, err := f.store.Reminders().GetByID(ctx, rem.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSent)
}
