package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// MaintenanceRepository implements domain.MaintenanceRepository in memory
type MaintenanceRepository struct {
	store *Store
}

func (r *MaintenanceRepository) Create(_ context.Context, m *domain.MaintenanceRequest) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.houses[m.HouseID]; !ok {
			return domain.Validation("maintenance request references a missing record")
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		now := r.store.now()
		m.CreatedAt = now
		m.UpdatedAt = now
		stored := *m
		stored.Media = slices.Clone(m.Media)
		st.maintenance[m.ID] = stored
		st.stamp(m.ID)
		return nil
	})
}

func (r *MaintenanceRepository) GetByID(_ context.Context, id string) (*domain.MaintenanceRequest, error) {
	var out *domain.MaintenanceRequest
	err := r.store.with(nil, func(st *state) error {
		m, ok := st.maintenance[id]
		if !ok {
			return domain.NotFound("maintenance request")
		}
		m.Media = slices.Clone(m.Media)
		out = &m
		return nil
	})
	return out, err
}

func (r *MaintenanceRepository) List(_ context.Context, f domain.MaintenanceFilter, page domain.Page) ([]*domain.MaintenanceRequest, int, error) {
	var matched []*domain.MaintenanceRequest
	err := r.store.with(nil, func(st *state) error {
		for _, m := range st.maintenance {
			if (f.HouseID != "" && m.HouseID != f.HouseID) ||
				(f.TenantID != "" && m.TenantID != f.TenantID) ||
				(f.LandlordID != "" && m.LandlordID != f.LandlordID) ||
				(f.Status != nil && m.Status != *f.Status) ||
				(f.Priority != nil && m.Priority != *f.Priority) {
				continue
			}
			m := m
			m.Media = slices.Clone(m.Media)
			matched = append(matched, &m)
		}
		newestFirst(st, matched,
			func(m *domain.MaintenanceRequest) string { return m.ID },
			func(m *domain.MaintenanceRequest) time.Time { return m.CreatedAt })
		return nil
	})
	return window(matched, page), len(matched), err
}

func (r *MaintenanceRepository) Update(_ context.Context, m *domain.MaintenanceRequest) error {
	return r.store.with(nil, func(st *state) error {
		cur, ok := st.maintenance[m.ID]
		if !ok {
			return domain.NotFound("maintenance request")
		}
		m.HouseID, m.TenantID, m.LandlordID, m.CreatedAt = cur.HouseID, cur.TenantID, cur.LandlordID, cur.CreatedAt
		m.UpdatedAt = r.store.now()
		stored := *m
		stored.Media = slices.Clone(m.Media)
		st.maintenance[m.ID] = stored
		return nil
	})
}

func (r *MaintenanceRepository) Delete(_ context.Context, id string) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.maintenance[id]; !ok {
			return domain.NotFound("maintenance request")
		}
		delete(st.maintenance, id)
		return nil
	})
}
