package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

func (f *fixture) newPayment(t *testing.T, houseID string, due time.Time) *domain.RentPayment {
	t.Helper()
	p, err := f.payments.Create(context.Background(), landlord, CreatePaymentInput{
		HouseID: houseID,
		DueDate: due,
		Amount:  decimal.NewFromInt(1200),
	})
	require.NoError(t, err)
	return p
}

func TestPaymentCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	vacant := f.newHouse(t, landlord)
	_, err := f.payments.Create(ctx, landlord, CreatePaymentInput{HouseID: vacant.ID, DueDate: due, Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	h, _ := f.rentedTo(t, tenant1)
	p := f.newPayment(t, h.ID, due)
	assert.Equal(t, tenant1.UserID, p.TenantID)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.True(t, p.PaidAmount.IsZero())

	_, err = f.payments.Create(ctx, landlord, CreatePaymentInput{HouseID: h.ID, TenantID: tenant2.UserID, DueDate: due, Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.payments.Create(ctx, landlord, CreatePaymentInput{HouseID: h.ID, DueDate: due, Amount: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.payments.Create(ctx, landlord, CreatePaymentInput{HouseID: h.ID, DueDate: due, Amount: decimal.RequireFromString("99.999")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.payments.Create(ctx, tenant1, CreatePaymentInput{HouseID: h.ID, DueDate: due, Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrAuthorization)
}

func TestApplyPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	p := f.newPayment(t, h.ID, time.Now().AddDate(0, 1, 0))

	partial, err := f.payments.ApplyPayment(ctx, tenant1, p.ID, ApplyPaymentInput{Amount: decimal.NewFromInt(500), Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, partial.Status)
	assert.True(t, decimal.NewFromInt(700).Equal(partial.Outstanding()))
	require.NotNil(t, partial.PaymentMethod)
	assert.Equal(t, "card", *partial.PaymentMethod)

	_, err = f.payments.ApplyPayment(ctx, tenant2, p.ID, ApplyPaymentInput{Amount: decimal.NewFromInt(700)})
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	paid, err := f.payments.ApplyPayment(ctx, landlord, p.ID, ApplyPaymentInput{Amount: decimal.NewFromInt(700)})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, paid.Status)
	assert.True(t, paid.Outstanding().IsZero())

	_, err = f.payments.ApplyPayment(ctx, tenant1, p.ID, ApplyPaymentInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestApplyPaymentConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	p := f.newPayment(t, h.ID, time.Now().AddDate(0, 1, 0))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payments.ApplyPayment(ctx, tenant1, p.ID, ApplyPaymentInput{Amount: decimal.NewFromInt(50)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.payments.Get(ctx, tenant1, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(got.PaidAmount), got.PaidAmount.String())
	assert.Equal(t, domain.PaymentPending, got.Status)
}

func TestApplyPaymentRejectsSubCentAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	p := f.newPayment(t, h.ID, time.Now().AddDate(0, 1, 0))

	_, err := f.payments.ApplyPayment(ctx, tenant1, p.ID, ApplyPaymentInput{Amount: decimal.RequireFromString("0.005")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.payments.Get(ctx, tenant1, p.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestPaymentVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	p := f.newPayment(t, h.ID, time.Now())

	_, err := f.payments.Get(ctx, tenant1, p.ID)
	require.NoError(t, err)
	_, err = f.payments.Get(ctx, tenant2, p.ID)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	res, err := f.payments.List(ctx, landlord, domain.PaymentFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	res, err = f.payments.List(ctx, tenant2, domain.PaymentFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	assert.ErrorIs(t, f.payments.Delete(ctx, tenant1, p.ID), domain.ErrAuthorization)
	require.NoError(t, f.payments.Delete(ctx, landlord, p.ID))
}

// orphanHouses reports every house as missing
type orphanHouses struct {
	domain.HouseRepository
}

func (orphanHouses) GetByID(context.Context, string) (*domain.House, error) {
	return nil, domain.NotFound("house")
}

// staleHouses serves every house as it looked before it was rented
type staleHouses struct {
	domain.HouseRepository
}

func (s staleHouses) GetByID(ctx context.Context, id string) (*domain.House, error) {
	h, err := s.HouseRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	h.TenantID, h.Status = nil, domain.HouseAvailable
	return h, nil
}

func TestPaymentCreateReadsCurrentTenant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)

	svc := NewPaymentService(f.store.Payments(), staleHouses{f.store.Houses()}, nil, quietLogger())
	p, err := svc.Create(ctx, landlord, CreatePaymentInput{
		HouseID: h.ID,
		DueDate: time.Now().AddDate(0, 1, 0),
		Amount:  decimal.NewFromInt(1200),
	})
	require.NoError(t, err)
	assert.Equal(t, tenant1.UserID, p.TenantID)
}

func TestPaymentWithMissingHouseIsServerError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	p := f.newPayment(t, h.ID, time.Now())

	svc := NewPaymentService(f.store.Payments(), orphanHouses{f.store.Houses()}, nil, quietLogger())
	_, err := svc.Get(ctx, tenant1, p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServer)
	assert.Equal(t, domain.KindServer, domain.KindOf(err))
}

func TestSweepOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	late := f.newPayment(t, h.ID, now.AddDate(0, 0, -3))
	upcoming := f.newPayment(t, h.ID, now.AddDate(0, 0, 3))

	n, err := f.payments.SweepOverdue(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.payments.Get(ctx, landlord, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOverdue, got.Status)
	got, err = f.payments.Get(ctx, landlord, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, got.Status)

	n, err = f.payments.SweepOverdue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}
