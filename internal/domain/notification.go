package domain

import (
	"context"
	"time"
)

// NotificationType tags the event a notification describes
type NotificationType string

const (
	NotifRentRequestCreated   NotificationType = "rent_request_created"
	NotifRentRequestAccepted  NotificationType = "rent_request_accepted"
	NotifRentRequestRejected  NotificationType = "rent_request_rejected"
	NotifRentRequestCancelled NotificationType = "rent_request_cancelled"
	NotifHouseReleased        NotificationType = "house_released"
	NotifPaymentReminder      NotificationType = "payment_reminder"
	NotifMaintenanceUpdate    NotificationType = "maintenance_update"
	NotifGeneral              NotificationType = "general"
)

// Notification is one message in a user's inbox
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	EntityID  *string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// NotificationFilter narrows an inbox listing
type NotificationFilter struct {
	UserID string
	IsRead *bool
	Since  *time.Time
}

// NotificationRepository defines data access for notifications.
// Bulk operations are always scoped to one user.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, filter NotificationFilter, page Page) ([]*Notification, int, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID string, ids []string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}
