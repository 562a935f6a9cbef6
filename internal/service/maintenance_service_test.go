package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

func TestMaintenanceCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)

	m, err := f.maintenance.Create(ctx, tenant1, CreateMaintenanceInput{HouseID: h.ID, Title: "Leaking tap"})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceNew, m.Status)
	assert.Equal(t, domain.PriorityMedium, m.Priority)
	assert.Equal(t, landlord.UserID, m.LandlordID)

	var notified bool
	for _, n := range f.inbox(t, landlord) {
		if n.Type == domain.NotifMaintenanceUpdate {
			notified = true
		}
	}
	assert.True(t, notified)

	_, err = f.maintenance.Create(ctx, tenant2, CreateMaintenanceInput{HouseID: h.ID, Title: "Not my house"})
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = f.maintenance.Create(ctx, tenant1, CreateMaintenanceInput{HouseID: h.ID, Title: "x", Priority: "Whenever"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	byAdmin, err := f.maintenance.Create(ctx, admin, CreateMaintenanceInput{HouseID: h.ID, Title: "Inspection"})
	require.NoError(t, err)
	assert.Equal(t, tenant1.UserID, byAdmin.TenantID)
}

func TestMaintenanceTenantEdits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	m, err := f.maintenance.Create(ctx, tenant1, CreateMaintenanceInput{HouseID: h.ID, Title: "Broken heater"})
	require.NoError(t, err)

	desc := "No heat in the bedroom"
	updated, err := f.maintenance.Update(ctx, tenant1, m.ID, domain.MaintenanceUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	urgent := domain.PriorityUrgent
	_, err = f.maintenance.Update(ctx, tenant1, m.ID, domain.MaintenanceUpdate{Priority: &urgent})
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	inProgress := domain.MaintenanceInProgress
	_, err = f.maintenance.Update(ctx, landlord, m.ID, domain.MaintenanceUpdate{Status: &inProgress})
	require.NoError(t, err)

	_, err = f.maintenance.Update(ctx, tenant1, m.ID, domain.MaintenanceUpdate{Description: &desc})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.maintenance.Update(ctx, tenant2, m.ID, domain.MaintenanceUpdate{Description: &desc})
	assert.ErrorIs(t, err, domain.ErrAuthorization)
}

func TestMaintenanceCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, _ := f.rentedTo(t, tenant1)
	m, err := f.maintenance.Create(ctx, tenant1, CreateMaintenanceInput{HouseID: h.ID, Title: "Window"})
	require.NoError(t, err)

	done := domain.MaintenanceCompleted
	completed, err := f.maintenance.Update(ctx, landlord, m.ID, domain.MaintenanceUpdate{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	var told bool
	for _, n := range f.inbox(t, tenant1) {
		if n.Type == domain.NotifMaintenanceUpdate {
			told = true
		}
	}
	assert.True(t, told)

	reopened := domain.MaintenanceInProgress
	back, err := f.maintenance.Update(ctx, landlord, m.ID, domain.MaintenanceUpdate{Status: &reopened})
	require.NoError(t, err)
	assert.Nil(t, back.CompletedAt)

	res, err := f.maintenance.List(ctx, tenant1, domain.MaintenanceFilter{Status: &reopened}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	assert.ErrorIs(t, f.maintenance.Delete(ctx, tenant1, m.ID), domain.ErrAuthorization)
	require.NoError(t, f.maintenance.Delete(ctx, landlord, m.ID))
	_, err = f.maintenance.Get(ctx, landlord, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
