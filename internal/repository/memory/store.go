// Package memory is an in-process implementation of the domain repositories.
// It backs service tests and STORAGE_DRIVER=memory development runs.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// state is everything the store holds. Entities are stored by value so a
// clone of the maps is a full snapshot.
type state struct {
	houses        map[string]domain.House
	requests      map[string]domain.RentRequest
	leases        map[string]domain.Lease
	payments      map[string]domain.RentPayment
	reminders     map[string]domain.RentReminder
	maintenance   map[string]domain.MaintenanceRequest
	notifications map[string]domain.Notification
	users         map[string]domain.User

	// seq orders rows created within the same clock tick
	seq  map[string]int64
	next int64
}

func newState() *state {
	return &state{
		houses:        map[string]domain.House{},
		requests:      map[string]domain.RentRequest{},
		leases:        map[string]domain.Lease{},
		payments:      map[string]domain.RentPayment{},
		reminders:     map[string]domain.RentReminder{},
		maintenance:   map[string]domain.MaintenanceRequest{},
		notifications: map[string]domain.Notification{},
		users:         map[string]domain.User{},
		seq:           map[string]int64{},
	}
}

func (s *state) clone() *state {
	return &state{
		houses:        maps.Clone(s.houses),
		requests:      maps.Clone(s.requests),
		leases:        maps.Clone(s.leases),
		payments:      maps.Clone(s.payments),
		reminders:     maps.Clone(s.reminders),
		maintenance:   maps.Clone(s.maintenance),
		notifications: maps.Clone(s.notifications),
		users:         maps.Clone(s.users),
		seq:           maps.Clone(s.seq),
		next:          s.next,
	}
}

func (s *state) stamp(id string) {
	s.next++
	s.seq[id] = s.next
}

// Store is a mutex-guarded in-memory database. InTx holds the mutex for the
// whole callback and works on a copy, so a failing callback leaves no trace.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// with runs fn against the transaction snapshot when tx is set, otherwise
// against the live state under the store lock
func (s *Store) with(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// InTx implements domain.Transactor. Calling non-transactional repositories
// of the same store from inside fn deadlocks.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos domain.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.st.clone()
	repos := domain.TxRepositories{
		Houses:       &HouseRepository{store: s, tx: snapshot},
		RentRequests: &RentRequestRepository{store: s, tx: snapshot},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	s.st = snapshot
	return nil
}

// Repository accessors share the store lock
func (s *Store) Houses() domain.HouseRepository             { return &HouseRepository{store: s} }
func (s *Store) RentRequests() domain.RentRequestRepository { return &RentRequestRepository{store: s} }
func (s *Store) Leases() domain.LeaseRepository             { return &LeaseRepository{store: s} }
func (s *Store) Payments() domain.PaymentRepository         { return &PaymentRepository{store: s} }
func (s *Store) Reminders() domain.ReminderRepository       { return &ReminderRepository{store: s} }
func (s *Store) Maintenance() domain.MaintenanceRepository  { return &MaintenanceRepository{store: s} }
func (s *Store) Notifications() domain.NotificationRepository {
	return &NotificationRepository{store: s}
}
func (s *Store) Users() domain.UserRepository { return &UserRepository{store: s} }

// newestFirst sorts by creation time, then insertion order, descending
func newestFirst[T any](st *state, items []T, id func(T) string, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return st.seq[id(items[i])] > st.seq[id(items[j])]
	})
}

// window applies pagination to a fully filtered, sorted slice
func window[T any](items []T, page domain.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func ptr[T any](v T) *T { return &v }
