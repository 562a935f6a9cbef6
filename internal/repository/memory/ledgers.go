package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// LeaseRepository implements domain.LeaseRepository in memory
type LeaseRepository struct {
	store *Store
}

func (r *LeaseRepository) Create(_ context.Context, lease *domain.Lease) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.houses[lease.HouseID]; !ok {
			return domain.Validation("lease references a missing record")
		}
		if lease.ID == "" {
			lease.ID = uuid.NewString()
		}
		now := r.store.now()
		lease.CreatedAt = now
		lease.UpdatedAt = now
		st.leases[lease.ID] = *lease
		st.stamp(lease.ID)
		return nil
	})
}

func (r *LeaseRepository) GetByID(_ context.Context, id string) (*domain.Lease, error) {
	var out *domain.Lease
	err := r.store.with(nil, func(st *state) error {
		l, ok := st.leases[id]
		if !ok {
			return domain.NotFound("lease")
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *LeaseRepository) List(_ context.Context, f domain.LeaseFilter, page domain.Page) ([]*domain.Lease, int, error) {
	var matched []*domain.Lease
	err := r.store.with(nil, func(st *state) error {
		for _, l := range st.leases {
			if (f.HouseID != "" && l.HouseID != f.HouseID) ||
				(f.TenantID != "" && l.TenantID != f.TenantID) ||
				(f.LandlordID != "" && l.LandlordID != f.LandlordID) ||
				(f.Status != nil && l.Status != *f.Status) {
				continue
			}
			l := l
			matched = append(matched, &l)
		}
		newestFirst(st, matched,
			func(l *domain.Lease) string { return l.ID },
			func(l *domain.Lease) time.Time { return l.CreatedAt })
		return nil
	})
	return window(matched, page), len(matched), err
}

func (r *LeaseRepository) Update(_ context.Context, lease *domain.Lease) error {
	return r.store.with(nil, func(st *state) error {
		cur, ok := st.leases[lease.ID]
		if !ok {
			return domain.NotFound("lease")
		}
		lease.HouseID, lease.TenantID, lease.LandlordID = cur.HouseID, cur.TenantID, cur.LandlordID
		lease.CreatedAt = cur.CreatedAt
		lease.UpdatedAt = r.store.now()
		st.leases[lease.ID] = *lease
		return nil
	})
}

func (r *LeaseRepository) Delete(_ context.Context, id string) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.leases[id]; !ok {
			return domain.NotFound("lease")
		}
		delete(st.leases, id)
		return nil
	})
}

// PaymentRepository implements domain.PaymentRepository in memory
type PaymentRepository struct {
	store *Store
}

func (r *PaymentRepository) Create(_ context.Context, p *domain.RentPayment) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.houses[p.HouseID]; !ok {
			return domain.Validation("payment references a missing record")
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		now := r.store.now()
		p.CreatedAt = now
		p.UpdatedAt = now
		st.payments[p.ID] = *p
		st.stamp(p.ID)
		return nil
	})
}

func (r *PaymentRepository) GetByID(_ context.Context, id string) (*domain.RentPayment, error) {
	var out *domain.RentPayment
	err := r.store.with(nil, func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return domain.NotFound("payment")
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *PaymentRepository) List(_ context.Context, f domain.PaymentFilter, page domain.Page) ([]*domain.RentPayment, int, error) {
	var matched []*domain.RentPayment
	err := r.store.with(nil, func(st *state) error {
		for _, p := range st.payments {
			if (f.TenantID != "" && p.TenantID != f.TenantID) ||
				(f.HouseID != "" && p.HouseID != f.HouseID) ||
				(f.Status != nil && p.Status != *f.Status) {
				continue
			}
			if f.LandlordID != "" {
				house, ok := st.houses[p.HouseID]
				if !ok || house.LandlordID != f.LandlordID {
					continue
				}
			}
			p := p
			matched = append(matched, &p)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			if !matched[i].DueDate.Equal(matched[j].DueDate) {
				return matched[i].DueDate.After(matched[j].DueDate)
			}
			return st.seq[matched[i].ID] > st.seq[matched[j].ID]
		})
		return nil
	})
	return window(matched, page), len(matched), err
}

// ApplyAmount runs RentPayment.Apply under the store lock
func (r *PaymentRepository) ApplyAmount(_ context.Context, id string, amount decimal.Decimal, method, receiptURL *string, at time.Time) (*domain.RentPayment, error) {
	var out *domain.RentPayment
	err := r.store.with(nil, func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return domain.NotFound("payment")
		}
		var m, receipt string
		if method != nil {
			m = *method
		}
		if receiptURL != nil {
			receipt = *receiptURL
		}
		if err := p.Apply(amount, m, receipt, at); err != nil {
			return err
		}
		p.UpdatedAt = r.store.now()
		st.payments[id] = p
		out = &p
		return nil
	})
	return out, err
}

func (r *PaymentRepository) Delete(_ context.Context, id string) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.payments[id]; !ok {
			return domain.NotFound("payment")
		}
		delete(st.payments, id)
		return nil
	})
}

// MarkOverdue flips pending payments due before the cutoff to overdue
func (r *PaymentRepository) MarkOverdue(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.store.with(nil, func(st *state) error {
		now := r.store.now()
		for id, p := range st.payments {
			if p.Status == domain.PaymentPending && p.DueDate.Before(before) {
				p.Status = domain.PaymentOverdue
				p.UpdatedAt = now
				st.payments[id] = p
				n++
			}
		}
		return nil
	})
	return n, err
}

// ReminderRepository implements domain.ReminderRepository in memory
type ReminderRepository struct {
	store *Store
}

func (r *ReminderRepository) Create(_ context.Context, rem *domain.RentReminder) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.houses[rem.HouseID]; !ok {
			return domain.Validation("reminder references a missing record")
		}
		if rem.ID == "" {
			rem.ID = uuid.NewString()
		}
		now := r.store.now()
		rem.CreatedAt = now
		rem.UpdatedAt = now
		st.reminders[rem.ID] = *rem
		st.stamp(rem.ID)
		return nil
	})
}

func (r *ReminderRepository) GetByID(_ context.Context, id string) (*domain.RentReminder, error) {
	var out *domain.RentReminder
	err := r.store.with(nil, func(st *state) error {
		rem, ok := st.reminders[id]
		if !ok {
			return domain.NotFound("reminder")
		}
		out = &rem
		return nil
	})
	return out, err
}

func reminderMatches(rem domain.RentReminder, f domain.ReminderFilter) bool {
	switch {
	case f.LandlordID != "" && rem.LandlordID != f.LandlordID:
		return false
	case f.TenantID != "" && rem.TenantID != f.TenantID:
		return false
	case f.HouseID != "" && rem.HouseID != f.HouseID:
		return false
	case f.IsSent != nil && rem.IsSent != *f.IsSent:
		return false
	case f.From != nil && rem.ReminderDate.Before(*f.From):
		return false
	case f.To != nil && rem.ReminderDate.After(*f.To):
		return false
	}
	return true
}

func sortByReminderDate(st *state, items []*domain.RentReminder) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ReminderDate.Equal(items[j].ReminderDate) {
			return items[i].ReminderDate.Before(items[j].ReminderDate)
		}
		return st.seq[items[i].ID] < st.seq[items[j].ID]
	})
}

func (r *ReminderRepository) List(_ context.Context, f domain.ReminderFilter, page domain.Page) ([]*domain.RentReminder, int, error) {
	var matched []*domain.RentReminder
	err := r.store.with(nil, func(st *state) error {
		for _, rem := range st.reminders {
			if !reminderMatches(rem, f) {
				continue
			}
			rem := rem
			matched = append(matched, &rem)
		}
		sortByReminderDate(st, matched)
		return nil
	})
	return window(matched, page), len(matched), err
}

func (r *ReminderRepository) Update(_ context.Context, rem *domain.RentReminder) error {
	return r.store.with(nil, func(st *state) error {
		cur, ok := st.reminders[rem.ID]
		if !ok {
			return domain.NotFound("reminder")
		}
		cur.PaymentID = rem.PaymentID
		cur.Type = rem.Type
		cur.Message = rem.Message
		cur.ReminderDate = rem.ReminderDate
		cur.UpdatedAt = r.store.now()
		st.reminders[rem.ID] = cur
		*rem = cur
		return nil
	})
}

func (r *ReminderRepository) Delete(_ context.Context, id string) error {
	return r.store.with(nil, func(st *state) error {
		if _, ok := st.reminders[id]; !ok {
			return domain.NotFound("reminder")
		}
		delete(st.reminders, id)
		return nil
	})
}

// MarkSent refuses a reminder that is already sent, which makes it usable as a claim
func (r *ReminderRepository) MarkSent(_ context.Context, id string, at time.Time) error {
	return r.store.with(nil, func(st *state) error {
		rem, ok := st.reminders[id]
		if !ok {
			return domain.NotFound("reminder")
		}
		if rem.IsSent {
			return domain.InvalidState("reminder has already been sent")
		}
		rem.IsSent = true
		rem.SentAt = ptr(at)
		rem.UpdatedAt = at
		st.reminders[id] = rem
		return nil
	})
}

// Due returns unsent reminders scheduled at or before now, oldest first
func (r *ReminderRepository) Due(_ context.Context, now time.Time, limit int) ([]*domain.RentReminder, error) {
	var due []*domain.RentReminder
	err := r.store.with(nil, func(st *state) error {
		for _, rem := range st.reminders {
			if rem.IsSent || rem.ReminderDate.After(now) {
				continue
			}
			rem := rem
			due = append(due, &rem)
		}
		sortByReminderDate(st, due)
		return nil
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, err
}
