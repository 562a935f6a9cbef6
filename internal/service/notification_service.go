package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// Notifier receives best-effort inbox messages from other services
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}

// Hub fans new notifications out to live subscribers (websocket clients).
// Slow subscribers miss messages rather than block the publisher; the
// inbox in the database stays authoritative.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan *domain.Notification]struct{}
	size int
}

// NewHub creates a hub whose subscribers buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{subs: make(map[string]map[chan *domain.Notification]struct{}), size: buffer}
}

// Subscribe registers a listener for userID. Call the returned func to stop.
func (h *Hub) Subscribe(userID string) (<-chan *domain.Notification, func()) {
	ch := make(chan *domain.Notification, h.size)
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan *domain.Notification]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers n to every subscriber of n.UserID and reports how many received it
func (h *Hub) Publish(n *domain.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
			delivered++
		default:
		}
	}
	return delivered
}

// NotificationService is the per-user inbox
type NotificationService struct {
	repo   domain.NotificationRepository
	hub    *Hub
	logger *slog.Logger
}

// NewNotificationService creates the inbox. hub may be nil to disable live delivery.
func NewNotificationService(repo domain.NotificationRepository, hub *Hub, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{repo: repo, hub: hub, logger: logger}
}

// Notify stores n and pushes it to live subscribers
func (s *NotificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if n.UserID == "" {
		return domain.Validation("notification user is required")
	}
	n.Message = strings.TrimSpace(n.Message)
	if n.Message == "" {
		return domain.Validation("notification message is required")
	}
	if n.Type == "" {
		n.Type = domain.NotifGeneral
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.Publish(n)
	}
	return nil
}

// Subscribe exposes the live feed for actor
func (s *NotificationService) Subscribe(actor domain.Actor) (<-chan *domain.Notification, func()) {
	return s.hub.Subscribe(actor.UserID)
}

// List returns actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor domain.Actor, isRead *bool, page domain.Page) (*domain.ListResult[*domain.Notification], error) {
	page = page.Normalize()
	items, total, err := s.repo.List(ctx, domain.NotificationFilter{UserID: actor.UserID, IsRead: isRead}, page)
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[*domain.Notification]{Items: items, Total: total, Page: page}, nil
}

// MarkRead flags ids as read and returns how many changed
func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, domain.Validation("at least one notification id is required")
	}
	return s.repo.MarkRead(ctx, actor.UserID, ids)
}

// MarkAllRead marks every unread notification of actor as read
func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.UserID)
}

// Delete removes the given notifications. Ids owned by other users are skipped.
func (s *NotificationService) Delete(ctx context.Context, actor domain.Actor, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, domain.Validation("at least one notification id is required")
	}
	return s.repo.Delete(ctx, actor.UserID, ids)
}

func (s *NotificationService) DeleteAll(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.repo.DeleteAll(ctx, actor.UserID)
}

// UnreadCount returns the badge count for actor
func (s *NotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int, error) {
	return s.repo.CountUnread(ctx, actor.UserID)
}

// notifyAll sends each notification, logging failures. Used for side effects
// that must never fail the operation that caused them.
func notifyAll(ctx context.Context, n Notifier, logger *slog.Logger, items ...*domain.Notification) {
	if n == nil {
		return
	}
	for _, item := range items {
		if err := n.Notify(ctx, item); err != nil {
			logger.Warn("failed to send notification",
				slog.String("user_id", item.UserID),
				slog.String("type", string(item.Type)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func notification(userID string, typ domain.NotificationType, entityID, message string) *domain.Notification {
	n := &domain.Notification{UserID: userID, Type: typ, Message: message}
	if entityID != "" {
		n.EntityID = &entityID
	}
	return n
}
