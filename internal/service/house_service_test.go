package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

func TestHouseCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	h := f.newHouse(t, landlord)
	assert.Equal(t, landlord.UserID, h.LandlordID)
	assert.Equal(t, domain.HouseAvailable, h.Status)
	assert.True(t, h.IsActive)
	assert.Nil(t, h.TenantID)

	tests := []struct {
		name  string
		actor domain.Actor
		attrs domain.HouseAttributes
		want  error
	}{
		{"tenant", tenant1, domain.HouseAttributes{Title: "x", Rent: decimal.NewFromInt(1)}, domain.ErrAuthorization},
		{"missing title", landlord, domain.HouseAttributes{Rent: decimal.NewFromInt(1)}, domain.ErrValidation},
		{"zero rent", landlord, domain.HouseAttributes{Title: "x"}, domain.ErrValidation},
		{"negative rooms", landlord, domain.HouseAttributes{Title: "x", Rent: decimal.NewFromInt(1), Bedrooms: -1}, domain.ErrValidation},
		{"sub-cent rent", landlord, domain.HouseAttributes{Title: "x", Rent: decimal.RequireFromString("950.005")}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.houses.Create(ctx, tt.actor, tt.attrs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHouseUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)

	title := "  Renovated flat "
	rent := decimal.NewFromInt(1500)
	updated, err := f.houses.Update(ctx, landlord, h.ID, domain.HouseUpdate{Title: &title, Rent: &rent})
	require.NoError(t, err)
	assert.Equal(t, "Renovated flat", updated.Title)
	assert.True(t, rent.Equal(updated.Rent))

	rented := domain.HouseRented
	_, err = f.houses.Update(ctx, landlord, h.ID, domain.HouseUpdate{Status: &rented})
	assert.ErrorIs(t, err, domain.ErrValidation)

	someone := tenant1.UserID
	_, err = f.houses.Update(ctx, landlord, h.ID, domain.HouseUpdate{TenantID: &someone})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, f.house(t, h.ID).TenantID)

	_, err = f.houses.Update(ctx, landlord, h.ID, domain.HouseUpdate{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.houses.Update(ctx, landlord2, h.ID, domain.HouseUpdate{Title: &title})
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	// admins can edit any house
	_, err = f.houses.Update(ctx, admin, h.ID, domain.HouseUpdate{Title: &title})
	assert.NoError(t, err)
}

func TestHouseListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.newHouse(t, landlord)
	f.newHouse(t, landlord)
	f.newHouse(t, landlord2)

	res, err := f.houses.ListByLandlord(ctx, landlord.UserID, domain.HouseFilter{}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, domain.DefaultPageLimit, res.Page.Limit)

	lo, hi := decimal.NewFromInt(2000), decimal.NewFromInt(1000)
	_, err = f.houses.List(ctx, domain.HouseFilter{MinRent: &lo, MaxRent: &hi}, domain.Page{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHouseDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)
	req, err := f.requests.Create(ctx, tenant1, h.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.houses.Delete(ctx, landlord2, h.ID), domain.ErrAuthorization)
	require.NoError(t, f.houses.Delete(ctx, landlord, h.ID))

	_, err = f.houses.Get(ctx, h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.RentRequests().GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
