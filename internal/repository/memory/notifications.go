package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// NotificationRepository implements domain.NotificationRepository in memory
type NotificationRepository struct {
	store *Store
}

func (r *NotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	return r.store.with(nil, func(st *state) error {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = r.store.now()
		}
		st.notifications[n.ID] = *n
		st.stamp(n.ID)
		return nil
	})
}

func (r *NotificationRepository) List(_ context.Context, f domain.NotificationFilter, page domain.Page) ([]*domain.Notification, int, error) {
	var matched []*domain.Notification
	err := r.store.with(nil, func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID != f.UserID ||
				(f.IsRead != nil && n.IsRead != *f.IsRead) ||
				(f.Since != nil && !n.CreatedAt.After(*f.Since)) {
				continue
			}
			n := n
			matched = append(matched, &n)
		}
		newestFirst(st, matched,
			func(n *domain.Notification) string { return n.ID },
			func(n *domain.Notification) time.Time { return n.CreatedAt })
		return nil
	})
	return window(matched, page), len(matched), err
}

// update applies fn to every notification of userID selected by keep
func (r *NotificationRepository) update(userID string, keep func(domain.Notification) bool, fn func(st *state, n domain.Notification)) (int64, error) {
	var count int64
	err := r.store.with(nil, func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID && keep(n) {
				fn(st, n)
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *NotificationRepository) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	return r.update(userID,
		func(n domain.Notification) bool { return slices.Contains(ids, n.ID) },
		func(st *state, n domain.Notification) {
			n.IsRead = true
			st.notifications[n.ID] = n
		})
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, userID string) (int64, error) {
	return r.update(userID,
		func(n domain.Notification) bool { return !n.IsRead },
		func(st *state, n domain.Notification) {
			n.IsRead = true
			st.notifications[n.ID] = n
		})
}

func (r *NotificationRepository) Delete(_ context.Context, userID string, ids []string) (int64, error) {
	return r.update(userID,
		func(n domain.Notification) bool { return slices.Contains(ids, n.ID) },
		func(st *state, n domain.Notification) { delete(st.notifications, n.ID) })
}

func (r *NotificationRepository) DeleteAll(_ context.Context, userID string) (int64, error) {
	return r.update(userID,
		func(domain.Notification) bool { return true },
		func(st *state, n domain.Notification) { delete(st.notifications, n.ID) })
}

func (r *NotificationRepository) CountUnread(_ context.Context, userID string) (int, error) {
	var count int
	err := r.store.with(nil, func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}
