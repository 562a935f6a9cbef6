package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// RentRequestRepository implements domain.RentRequestRepository in memory.
// Like the partial unique index in the schema, it refuses a second pending
// request for the same user and house.
type RentRequestRepository struct {
	store *Store
	tx    *state
}

func pendingDuplicate(st *state, userID, houseID, excludeID string) bool {
	for id, rr := range st.requests {
		if id != excludeID && rr.UserID == userID && rr.HouseID == houseID && rr.Status == domain.RentRequestPending {
			return true
		}
	}
	return false
}

func (r *RentRequestRepository) Create(_ context.Context, req *domain.RentRequest) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.houses[req.HouseID]; !ok {
			return domain.Validation("rent request references a missing record")
		}
		if req.Status == domain.RentRequestPending && pendingDuplicate(st, req.UserID, req.HouseID, "") {
			return domain.Conflict("rent request already exists")
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		now := r.store.now()
		req.CreatedAt = now
		req.UpdatedAt = now
		st.requests[req.ID] = *req
		st.stamp(req.ID)
		return nil
	})
}

func (r *RentRequestRepository) GetByID(_ context.Context, id string) (*domain.RentRequest, error) {
	var out *domain.RentRequest
	err := r.store.with(r.tx, func(st *state) error {
		rr, ok := st.requests[id]
		if !ok {
			return domain.NotFound("rent request")
		}
		out = &rr
		return nil
	})
	return out, err
}

// HasPending reports another pending request for the same user and house
func (r *RentRequestRepository) HasPending(_ context.Context, userID, houseID, excludeID string) (bool, error) {
	var exists bool
	err := r.store.with(r.tx, func(st *state) error {
		exists = pendingDuplicate(st, userID, houseID, excludeID)
		return nil
	})
	return exists, err
}

// UpdateStatus sets the status and stamps updatedAt
func (r *RentRequestRepository) UpdateStatus(_ context.Context, id string, status domain.RentRequestStatus) error {
	return r.store.with(r.tx, func(st *state) error {
		rr, ok := st.requests[id]
		if !ok {
			return domain.NotFound("rent request")
		}
		if status == domain.RentRequestPending && pendingDuplicate(st, rr.UserID, rr.HouseID, id) {
			return domain.Conflict("rent request already exists")
		}
		rr.Status = status
		rr.UpdatedAt = r.store.now()
		st.requests[id] = rr
		return nil
	})
}

// RejectPendingSiblings rejects every other pending request on the house
// and returns them as they are after the update
func (r *RentRequestRepository) RejectPendingSiblings(_ context.Context, houseID, exceptID string) ([]*domain.RentRequest, error) {
	var changed []*domain.RentRequest
	err := r.store.with(r.tx, func(st *state) error {
		now := r.store.now()
		for id, rr := range st.requests {
			if id == exceptID || rr.HouseID != houseID || rr.Status != domain.RentRequestPending {
				continue
			}
			rr.Status = domain.RentRequestRejected
			rr.UpdatedAt = now
			st.requests[id] = rr
			out := rr
			changed = append(changed, &out)
		}
		return nil
	})
	return changed, err
}

func (r *RentRequestRepository) List(_ context.Context, f domain.RentRequestFilter, page domain.Page) ([]*domain.RentRequest, int, error) {
	var matched []*domain.RentRequest
	err := r.store.with(r.tx, func(st *state) error {
		for _, rr := range st.requests {
			if f.UserID != "" && rr.UserID != f.UserID {
				continue
			}
			if f.HouseID != "" && rr.HouseID != f.HouseID {
				continue
			}
			if f.Status != nil && rr.Status != *f.Status {
				continue
			}
			if f.LandlordID != "" {
				house, ok := st.houses[rr.HouseID]
				if !ok || house.LandlordID != f.LandlordID {
					continue
				}
			}
			rr := rr
			matched = append(matched, &rr)
		}
		newestFirst(st, matched,
			func(rr *domain.RentRequest) string { return rr.ID },
			func(rr *domain.RentRequest) time.Time { return rr.CreatedAt })
		return nil
	})
	return window(matched, page), len(matched), err
}

func (r *RentRequestRepository) Delete(_ context.Context, id string) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.requests[id]; !ok {
			return domain.NotFound("rent request")
		}
		delete(st.requests, id)
		return nil
	})
}
