package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/featureflags"
	"github.com/aryan0dhankhar/rentdesk/internal/repository/memory"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
	"github.com/aryan0dhankhar/rentdesk/internal/security/audit"
)

var (
	admin     = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	landlord  = domain.Actor{UserID: "landlord-1", Role: domain.RoleLandlord}
	landlord2 = domain.Actor{UserID: "landlord-2", Role: domain.RoleLandlord}
	tenant1   = domain.Actor{UserID: "tenant-1", Role: domain.RoleTenant}
	tenant2   = domain.Actor{UserID: "tenant-2", Role: domain.RoleTenant}
)

type fixture struct {
	store         *memory.Store
	flags         featureflags.Static
	notifications *NotificationService
	houses        *HouseService
	requests      *RentRequestService
	leases        *LeaseService
	payments      *PaymentService
	reminders     *ReminderService
	maintenance   *MaintenanceService
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := quietLogger()
	store := memory.NewStore()
	policy := security.NewPolicy(log)
	auditLog := audit.NewLogger(log)
	flags := featureflags.Static{featureflags.TransitionNotifications: true}
	notes := NewNotificationService(store.Notifications(), NewHub(8), log)

	return &fixture{
		store:         store,
		flags:         flags,
		notifications: notes,
		houses:        NewHouseService(store.Houses(), policy, auditLog, log),
		requests:      NewRentRequestService(store, store.Houses(), store.RentRequests(), notes, flags, policy, auditLog, log),
		leases:        NewLeaseService(store.Leases(), store.Houses(), policy, log),
		payments:      NewPaymentService(store.Payments(), store.Houses(), policy, log),
		reminders:     NewReminderService(store.Reminders(), store.Houses(), store.Payments(), notes, policy, log),
		maintenance:   NewMaintenanceService(store.Maintenance(), store.Houses(), notes, policy, log),
	}
}

func (f *fixture) newHouse(t *testing.T, owner domain.Actor) *domain.House {
	t.Helper()
	h, err := f.houses.Create(context.Background(), owner, domain.HouseAttributes{
		Title:    "Flat " + owner.UserID,
		Address:  "1 Main St",
		City:     "Springfield",
		Rent:     decimal.NewFromInt(1200),
		Bedrooms: 2, Bathrooms: 1,
	})
	require.NoError(t, err)
	return h
}

func (f *fixture) house(t *testing.T, id string) *domain.House {
	t.Helper()
	h, err := f.store.Houses().GetByID(context.Background(), id)
	require.NoError(t, err)
	return h
}

func (f *fixture) request(t *testing.T, id string) *domain.RentRequest {
	t.Helper()
	r, err := f.store.RentRequests().GetByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

// rentedTo creates, then accepts, a request by tenant for a fresh house
func (f *fixture) rentedTo(t *testing.T, tenant domain.Actor) (*domain.House, *domain.RentRequest) {
	t.Helper()
	ctx := context.Background()
	h := f.newHouse(t, landlord)
	req, err := f.requests.Create(ctx, tenant, h.ID, "")
	require.NoError(t, err)
	_, err = f.requests.TransitionStatus(ctx, landlord, req.ID, domain.RentRequestAccepted)
	require.NoError(t, err)
	return f.house(t, h.ID), f.request(t, req.ID)
}

func (f *fixture) inbox(t *testing.T, user domain.Actor) []*domain.Notification {
	t.Helper()
	res, err := f.notifications.List(context.Background(), user, nil, domain.Page{Limit: 100})
	require.NoError(t, err)
	return res.Items
}

func assertOccupancyConsistent(t *testing.T, h *domain.House) {
	t.Helper()
	require.NoError(t, domain.ValidateOccupancy(h.Status, h.TenantID), "house %s", h.ID)
}
