package domain

import (
	"context"
	"time"
)

// ReminderType tags what a reminder is about
type ReminderType string

const (
	ReminderPaymentDue     ReminderType = "payment_due"
	ReminderPaymentOverdue ReminderType = "payment_overdue"
)

// Valid reports whether t is a known reminder type
func (t ReminderType) Valid() bool {
	return t == ReminderPaymentDue || t == ReminderPaymentOverdue
}

// RentReminder records an intended or sent nudge about a payment
type RentReminder struct {
	ID           string
	LandlordID   string
	TenantID     string
	HouseID      string
	PaymentID    *string
	Type         ReminderType
	Message      string
	ReminderDate time.Time
	IsSent       bool
	SentAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReminderUpdate is a partial update of an unsent reminder
type ReminderUpdate struct {
	Type         *ReminderType
	Message      *string
	ReminderDate *time.Time
	PaymentID    *string
}

// Empty is true when the update sets no field
func (u ReminderUpdate) Empty() bool {
	return u.Type == nil && u.Message == nil && u.ReminderDate == nil && u.PaymentID == nil
}

// ReminderFilter narrows a reminder listing
type ReminderFilter struct {
	LandlordID string
	TenantID   string
	HouseID    string
	IsSent     *bool
	From       *time.Time
	To         *time.Time
}

// ReminderRepository defines data access for reminders
type ReminderRepository interface {
	Create(ctx context.Context, reminder *RentReminder) error
	GetByID(ctx context.Context, id string) (*RentReminder, error)
	List(ctx context.Context, filter ReminderFilter, page Page) ([]*RentReminder, int, error)
	Update(ctx context.Context, reminder *RentReminder) error
	Delete(ctx context.Context, id string) error
	// MarkSent flips is_sent only if it is still false; it returns ErrInvalidState otherwise
	MarkSent(ctx context.Context, id string, at time.Time) error
	// Due lists unsent reminders scheduled at or before now, oldest first
	Due(ctx context.Context, now time.Time, limit int) ([]*RentReminder, error)
}
