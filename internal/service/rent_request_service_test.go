package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/featureflags"
	"github.com/aryan0dhankhar/rentdesk/internal/repository/memory"
)

func TestCreateRentRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)

	req, err := f.requests.Create(ctx, tenant1, h.ID, "  we have a dog  ")
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, domain.RentRequestPending, req.Status)
	assert.Equal(t, "we have a dog", req.Message)
	assert.Equal(t, tenant1.UserID, req.UserID)

	inbox := f.inbox(t, landlord)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotifRentRequestCreated, inbox[0].Type)
}

func TestCreateRentRequestRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate pending", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		_, err := f.requests.Create(ctx, tenant1, h.ID, "")
		require.NoError(t, err)
		_, err = f.requests.Create(ctx, tenant1, h.ID, "again")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("rented house", func(t *testing.T) {
		f := newFixture(t)
		h, _ := f.rentedTo(t, tenant1)
		_, err := f.requests.Create(ctx, tenant2, h.ID, "")
		assert.ErrorIs(t, err, domain.ErrHouseNotAvailable)

		res, err := f.requests.ListForUser(ctx, tenant2.UserID, domain.RentRequestFilter{}, domain.Page{})
		require.NoError(t, err)
		assert.Zero(t, res.Total)
	})

	t.Run("inactive house", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		inactive := false
		_, err := f.houses.Update(ctx, landlord, h.ID, domain.HouseUpdate{IsActive: &inactive})
		require.NoError(t, err)
		_, err = f.requests.Create(ctx, tenant1, h.ID, "")
		assert.ErrorIs(t, err, domain.ErrHouseNotAvailable)
	})

	t.Run("unknown house", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.requests.Create(ctx, tenant1, "missing", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("own house", func(t *testing.T) {
		f := newFixture(t)
		h := &domain.House{LandlordID: tenant1.UserID, Title: "Loft", Status: domain.HouseAvailable, IsActive: true}
		require.NoError(t, f.store.Houses().Create(ctx, h))
		_, err := f.requests.Create(ctx, tenant1, h.ID, "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("landlord role", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		_, err := f.requests.Create(ctx, landlord2, h.ID, "")
		assert.ErrorIs(t, err, domain.ErrAuthorization)
	})

	t.Run("message too long", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		_, err := f.requests.Create(ctx, tenant1, h.ID, strings.Repeat("a", MaxRentRequestMessage+1))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("message length counts characters", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		msg := strings.Repeat("é", MaxRentRequestMessage)
		req, err := f.requests.Create(ctx, tenant1, h.ID, msg)
		require.NoError(t, err)
		assert.Equal(t, msg, req.Message)
	})

	t.Run("missing house id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.requests.Create(ctx, tenant1, " ", "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestAcceptRejectsSiblings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)

	p1, err := f.requests.Create(ctx, tenant1, h.ID, "")
	require.NoError(t, err)
	p2, err := f.requests.Create(ctx, tenant2, h.ID, "")
	require.NoError(t, err)

	res, err := f.requests.TransitionStatus(ctx, landlord, p1.ID, domain.RentRequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.RentRequestPending, res.From)
	assert.Equal(t, domain.RentRequestAccepted, res.Request.Status)
	require.Len(t, res.RejectedSiblings, 1)
	assert.Equal(t, p2.ID, res.RejectedSiblings[0].ID)

	house := f.house(t, h.ID)
	assert.Equal(t, domain.HouseRented, house.Status)
	require.NotNil(t, house.TenantID)
	assert.Equal(t, tenant1.UserID, *house.TenantID)
	assertOccupancyConsistent(t, house)

	assert.Equal(t, domain.RentRequestRejected, f.request(t, p2.ID).Status)

	// the rejected sibling cannot be accepted afterwards
	_, err = f.requests.TransitionStatus(ctx, landlord, p2.ID, domain.RentRequestAccepted)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, tenant1.UserID, *f.house(t, h.ID).TenantID)

	accepted := f.inbox(t, tenant1)
	require.NotEmpty(t, accepted)
	assert.Equal(t, domain.NotifRentRequestAccepted, accepted[0].Type)
	rejected := f.inbox(t, tenant2)
	require.NotEmpty(t, rejected)
	assert.Equal(t, domain.NotifRentRequestRejected, rejected[0].Type)
}

func TestCancelAcceptedReleasesHouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h, req := f.rentedTo(t, tenant1)

	res, err := f.requests.TransitionStatus(ctx, tenant1, req.ID, domain.RentRequestCancelled)
	require.NoError(t, err)
	assert.True(t, res.HouseReleased)

	house := f.house(t, h.ID)
	assert.Equal(t, domain.HouseAvailable, house.Status)
	assert.Nil(t, house.TenantID)
	assertOccupancyConsistent(t, house)

	// the house can be requested again
	_, err = f.requests.Create(ctx, tenant2, h.ID, "")
	require.NoError(t, err)

	var released bool
	for _, n := range f.inbox(t, landlord) {
		if n.Type == domain.NotifHouseReleased {
			released = true
		}
	}
	assert.True(t, released)
}

func TestCancelPendingLeavesHouseAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)
	req, err := f.requests.Create(ctx, tenant1, h.ID, "")
	require.NoError(t, err)

	res, err := f.requests.TransitionStatus(ctx, tenant1, req.ID, domain.RentRequestCancelled)
	require.NoError(t, err)
	assert.False(t, res.HouseReleased)

	house := f.house(t, h.ID)
	assert.Equal(t, domain.HouseAvailable, house.Status)
	assert.Nil(t, house.TenantID)
}

func TestRejectAccepted(t *testing.T) {
	ctx := context.Background()

	t.Run("admin releases the house", func(t *testing.T) {
		f := newFixture(t)
		h, req := f.rentedTo(t, tenant1)
		res, err := f.requests.TransitionStatus(ctx, admin, req.ID, domain.RentRequestRejected)
		require.NoError(t, err)
		assert.True(t, res.HouseReleased)
		assert.Equal(t, domain.HouseAvailable, f.house(t, h.ID).Status)
	})

	t.Run("landlord cannot", func(t *testing.T) {
		f := newFixture(t)
		h, req := f.rentedTo(t, tenant1)
		_, err := f.requests.TransitionStatus(ctx, landlord, req.ID, domain.RentRequestRejected)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, domain.HouseRented, f.house(t, h.ID).Status)
		assert.Equal(t, domain.RentRequestAccepted, f.request(t, req.ID).Status)
	})
}

func TestTransitionAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)
	req, err := f.requests.Create(ctx, tenant1, h.ID, "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor domain.Actor
		to    domain.RentRequestStatus
		want  error
	}{
		{"tenant cannot accept own request", tenant1, domain.RentRequestAccepted, domain.ErrAuthorization},
		{"other landlord cannot accept", landlord2, domain.RentRequestAccepted, domain.ErrAuthorization},
		{"stranger cannot cancel", tenant2, domain.RentRequestCancelled, domain.ErrAuthorization},
		{"landlord cannot cancel", landlord, domain.RentRequestCancelled, domain.ErrAuthorization},
		{"unknown status", landlord, domain.RentRequestStatus("archived"), domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.requests.TransitionStatus(ctx, tt.actor, req.ID, tt.to)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, domain.RentRequestPending, f.request(t, req.ID).Status)
		})
	}

	_, err = f.requests.TransitionStatus(ctx, landlord, "missing", domain.RentRequestAccepted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevertToPending(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled by default", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		req, err := f.requests.Create(ctx, tenant1, h.ID, "")
		require.NoError(t, err)
		_, err = f.requests.TransitionStatus(ctx, landlord, req.ID, domain.RentRequestRejected)
		require.NoError(t, err)

		_, err = f.requests.TransitionStatus(ctx, admin, req.ID, domain.RentRequestPending)
		assert.ErrorIs(t, err, domain.ErrAuthorization)
		assert.Equal(t, domain.RentRequestRejected, f.request(t, req.ID).Status)
	})

	t.Run("enabled", func(t *testing.T) {
		f := newFixture(t)
		f.flags[featureflags.AdminRevert] = true
		h := f.newHouse(t, landlord)
		req, err := f.requests.Create(ctx, tenant1, h.ID, "")
		require.NoError(t, err)
		_, err = f.requests.TransitionStatus(ctx, landlord, req.ID, domain.RentRequestRejected)
		require.NoError(t, err)

		_, err = f.requests.TransitionStatus(ctx, landlord, req.ID, domain.RentRequestPending)
		assert.ErrorIs(t, err, domain.ErrAuthorization)

		res, err := f.requests.TransitionStatus(ctx, admin, req.ID, domain.RentRequestPending)
		require.NoError(t, err)
		assert.Equal(t, domain.RentRequestPending, res.Request.Status)
	})

	t.Run("conflicts with another pending request", func(t *testing.T) {
		f := newFixture(t)
		f.flags[featureflags.AdminRevert] = true
		h := f.newHouse(t, landlord)
		first, err := f.requests.Create(ctx, tenant1, h.ID, "")
		require.NoError(t, err)
		_, err = f.requests.TransitionStatus(ctx, tenant1, first.ID, domain.RentRequestCancelled)
		require.NoError(t, err)
		_, err = f.requests.Create(ctx, tenant1, h.ID, "second try")
		require.NoError(t, err)

		_, err = f.requests.TransitionStatus(ctx, admin, first.ID, domain.RentRequestPending)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, domain.RentRequestCancelled, f.request(t, first.ID).Status)
	})
}

func TestTransitionNotificationsFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.flags[featureflags.TransitionNotifications] = false

	h := f.newHouse(t, landlord)
	req, err := f.requests.Create(ctx, tenant1, h.ID, "")
	require.NoError(t, err)
	_, err = f.requests.TransitionStatus(ctx, landlord, req.ID, domain.RentRequestAccepted)
	require.NoError(t, err)

	assert.Empty(t, f.inbox(t, landlord))
	assert.Empty(t, f.inbox(t, tenant1))
}

func TestDeleteRentRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("tenant deletes own pending", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		req, err := f.requests.Create(ctx, tenant1, h.ID, "")
		require.NoError(t, err)
		require.NoError(t, f.requests.Delete(ctx, tenant1, req.ID))
		_, err = f.requests.Get(ctx, tenant1, req.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("tenant cannot delete decided", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		req, err := f.requests.Create(ctx, tenant1, h.ID, "")
		require.NoError(t, err)
		_, err = f.requests.TransitionStatus(ctx, landlord, req.ID, domain.RentRequestRejected)
		require.NoError(t, err)
		assert.ErrorIs(t, f.requests.Delete(ctx, tenant1, req.ID), domain.ErrInvalidState)

		// the landlord can clean it up
		require.NoError(t, f.requests.Delete(ctx, landlord, req.ID))
	})

	t.Run("accepted must be cancelled first", func(t *testing.T) {
		f := newFixture(t)
		h, req := f.rentedTo(t, tenant1)
		assert.ErrorIs(t, f.requests.Delete(ctx, admin, req.ID), domain.ErrInvalidState)
		assert.Equal(t, domain.HouseRented, f.house(t, h.ID).Status)
	})

	t.Run("stranger", func(t *testing.T) {
		f := newFixture(t)
		h := f.newHouse(t, landlord)
		req, err := f.requests.Create(ctx, tenant1, h.ID, "")
		require.NoError(t, err)
		assert.ErrorIs(t, f.requests.Delete(ctx, tenant2, req.ID), domain.ErrAuthorization)
	})
}

func TestListRentRequestsScopedByRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h1 := f.newHouse(t, landlord)
	h2 := f.newHouse(t, landlord2)

	_, err := f.requests.Create(ctx, tenant1, h1.ID, "")
	require.NoError(t, err)
	_, err = f.requests.Create(ctx, tenant2, h1.ID, "")
	require.NoError(t, err)
	_, err = f.requests.Create(ctx, tenant1, h2.ID, "")
	require.NoError(t, err)

	count := func(actor domain.Actor) int {
		res, err := f.requests.List(ctx, actor, domain.RentRequestFilter{}, domain.Page{})
		require.NoError(t, err)
		return res.Total
	}
	assert.Equal(t, 3, count(admin))
	assert.Equal(t, 2, count(landlord))
	assert.Equal(t, 1, count(landlord2))
	assert.Equal(t, 2, count(tenant1))
	assert.Equal(t, 1, count(tenant2))

	bad := domain.RentRequestStatus("bogus")
	_, err = f.requests.List(ctx, admin, domain.RentRequestFilter{Status: &bad}, domain.Page{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// a stranger cannot read someone else's request
	res, err := f.requests.List(ctx, tenant2, domain.RentRequestFilter{}, domain.Page{})
	require.NoError(t, err)
	_, err = f.requests.Get(ctx, tenant1, res.Items[0].ID)
	assert.ErrorIs(t, err, domain.ErrAuthorization)
}

func TestConcurrentAcceptsRentHouseOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		tenant := domain.Actor{UserID: "tenant-c" + string(rune('a'+i)), Role: domain.RoleTenant}
		req, err := f.requests.Create(ctx, tenant, h.ID, "")
		require.NoError(t, err)
		ids[i] = req.ID
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.requests.TransitionStatus(ctx, landlord, id, domain.RentRequestAccepted)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, domain.ErrInvalidState), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	house := f.house(t, h.ID)
	assert.Equal(t, domain.HouseRented, house.Status)
	assertOccupancyConsistent(t, house)

	var acceptedRows, pendingRows int
	for _, id := range ids {
		switch f.request(t, id).Status {
		case domain.RentRequestAccepted:
			acceptedRows++
			assert.Equal(t, f.request(t, id).UserID, *house.TenantID)
		case domain.RentRequestPending:
			pendingRows++
		}
	}
	assert.Equal(t, 1, acceptedRows)
	assert.Zero(t, pendingRows)
}

func TestConcurrentDuplicateCreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		errs []error
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.requests.Create(ctx, tenant1, h.ID, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
}

// failingTransactor runs units on the memory store but makes
// RentRequests.UpdateStatus fail after the side effects have been applied
type failingTransactor struct {
	store *memory.Store
}

type failingRequests struct {
	domain.RentRequestRepository
}

var errInjected = errors.New("injected failure")

func (r failingRequests) UpdateStatus(context.Context, string, domain.RentRequestStatus) error {
	return errInjected
}

func (t failingTransactor) InTx(ctx context.Context, fn func(context.Context, domain.TxRepositories) error) error {
	return t.store.InTx(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
		repos.RentRequests = failingRequests{repos.RentRequests}
		return fn(ctx, repos)
	})
}

func TestTransitionIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := f.newHouse(t, landlord)
	p1, err := f.requests.Create(ctx, tenant1, h.ID, "")
	require.NoError(t, err)
	p2, err := f.requests.Create(ctx, tenant2, h.ID, "")
	require.NoError(t, err)

	broken := NewRentRequestService(failingTransactor{f.store}, f.store.Houses(), f.store.RentRequests(),
		f.notifications, f.flags, nil, nil, quietLogger())
	_, err = broken.TransitionStatus(ctx, landlord, p1.ID, domain.RentRequestAccepted)
	require.ErrorIs(t, err, errInjected)

	house := f.house(t, h.ID)
	assert.Equal(t, domain.HouseAvailable, house.Status)
	assert.Nil(t, house.TenantID)
	assert.Equal(t, domain.RentRequestPending, f.request(t, p1.ID).Status)
	assert.Equal(t, domain.RentRequestPending, f.request(t, p2.ID).Status)
}
