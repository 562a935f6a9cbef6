package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// HouseRepository implements domain.HouseRepository in memory
type HouseRepository struct {
	store *Store
	tx    *state
}

func (r *HouseRepository) Create(_ context.Context, house *domain.House) error {
	return r.store.with(r.tx, func(st *state) error {
		if house.ID == "" {
			house.ID = uuid.NewString()
		}
		if _, exists := st.houses[house.ID]; exists {
			return domain.Conflict("house already exists")
		}
		now := r.store.now()
		house.CreatedAt = now
		house.UpdatedAt = now
		st.houses[house.ID] = *house
		st.stamp(house.ID)
		return nil
	})
}

func (r *HouseRepository) GetByID(_ context.Context, id string) (*domain.House, error) {
	var out *domain.House
	err := r.store.with(r.tx, func(st *state) error {
		h, ok := st.houses[id]
		if !ok {
			return domain.NotFound("house")
		}
		out = &h
		return nil
	})
	return out, err
}

func (r *HouseRepository) GetCurrent(ctx context.Context, id string) (*domain.House, error) {
	return r.GetByID(ctx, id)
}

// GetForUpdate is GetByID; the store lock already serializes transactions
func (r *HouseRepository) GetForUpdate(ctx context.Context, id string) (*domain.House, error) {
	return r.GetByID(ctx, id)
}

func (r *HouseRepository) List(_ context.Context, f domain.HouseFilter, page domain.Page) ([]*domain.House, int, error) {
	var matched []*domain.House
	err := r.store.with(r.tx, func(st *state) error {
		for _, h := range st.houses {
			if !houseMatches(h, f) {
				continue
			}
			h := h
			matched = append(matched, &h)
		}
		newestFirst(st, matched,
			func(h *domain.House) string { return h.ID },
			func(h *domain.House) time.Time { return h.CreatedAt })
		return nil
	})
	return window(matched, page), len(matched), err
}

func houseMatches(h domain.House, f domain.HouseFilter) bool {
	switch {
	case f.LandlordID != "" && h.LandlordID != f.LandlordID:
		return false
	case f.Status != nil && h.Status != *f.Status:
		return false
	case f.MinRent != nil && h.Rent.LessThan(*f.MinRent):
		return false
	case f.MaxRent != nil && h.Rent.GreaterThan(*f.MaxRent):
		return false
	case f.Bedrooms != nil && h.Bedrooms != *f.Bedrooms:
		return false
	case f.Bathrooms != nil && h.Bathrooms != *f.Bathrooms:
		return false
	case f.IsActive != nil && h.IsActive != *f.IsActive:
		return false
	}
	return true
}

// Update writes listing fields only, leaving occupancy untouched
func (r *HouseRepository) Update(_ context.Context, house *domain.House) error {
	return r.store.with(r.tx, func(st *state) error {
		cur, ok := st.houses[house.ID]
		if !ok {
			return domain.NotFound("house")
		}
		cur.Title = house.Title
		cur.Description = house.Description
		cur.Address = house.Address
		cur.City = house.City
		cur.Rent = house.Rent
		cur.Bedrooms = house.Bedrooms
		cur.Bathrooms = house.Bathrooms
		cur.IsActive = house.IsActive
		cur.RentalStartDate = house.RentalStartDate
		cur.UpdatedAt = r.store.now()
		house.UpdatedAt = cur.UpdatedAt
		st.houses[house.ID] = cur
		return nil
	})
}

// UpdateStatusAndTenant is the only write that touches occupancy
func (r *HouseRepository) UpdateStatusAndTenant(_ context.Context, id string, status domain.HouseStatus, tenantID *string) error {
	if err := domain.ValidateOccupancy(status, tenantID); err != nil {
		return err
	}
	return r.store.with(r.tx, func(st *state) error {
		cur, ok := st.houses[id]
		if !ok {
			return domain.NotFound("house")
		}
		cur.Status = status
		cur.TenantID = nil
		if tenantID != nil {
			cur.TenantID = ptr(*tenantID)
		}
		cur.UpdatedAt = r.store.now()
		st.houses[id] = cur
		return nil
	})
}

// Delete removes the house and cascades like the relational schema does
func (r *HouseRepository) Delete(_ context.Context, id string) error {
	return r.store.with(r.tx, func(st *state) error {
		if _, ok := st.houses[id]; !ok {
			return domain.NotFound("house")
		}
		delete(st.houses, id)
		for k, v := range st.requests {
			if v.HouseID == id {
				delete(st.requests, k)
			}
		}
		for k, v := range st.leases {
			if v.HouseID == id {
				delete(st.leases, k)
			}
		}
		for k, v := range st.payments {
			if v.HouseID == id {
				delete(st.payments, k)
			}
		}
		for k, v := range st.reminders {
			if v.HouseID == id {
				delete(st.reminders, k)
			}
		}
		for k, v := range st.maintenance {
			if v.HouseID == id {
				delete(st.maintenance, k)
			}
		}
		return nil
	})
}
