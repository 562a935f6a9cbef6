package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of a rent payment
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentOverdue
}

// RentPayment is one scheduled rent obligation
type RentPayment struct {
	ID            string
	TenantID      string
	HouseID       string
	DueDate       time.Time
	Amount        decimal.Decimal
	PaidAmount    decimal.Decimal
	Status        PaymentStatus
	PaymentMethod *string
	PaymentDate   *time.Time
	ReceiptURL    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Outstanding returns the amount still owed, never negative
func (p *RentPayment) Outstanding() decimal.Decimal {
	rest := p.Amount.Sub(p.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Apply accumulates a payment. The payment flips to paid once the paid
// amount covers the amount owed; a partial payment leaves the status as is.
func (p *RentPayment) Apply(amount decimal.Decimal, method, receiptURL string, at time.Time) error {
	if p.Status == PaymentPaid {
		return InvalidState("payment is already fully paid")
	}
	if !amount.IsPositive() {
		return Validation("payment amount must be positive")
	}
	if err := CheckMoneyScale("payment amount", amount); err != nil {
		return err
	}
	p.PaidAmount = p.PaidAmount.Add(amount)
	if p.PaidAmount.GreaterThanOrEqual(p.Amount) {
		p.Status = PaymentPaid
	}
	if method != "" {
		p.PaymentMethod = &method
	}
	if receiptURL != "" {
		p.ReceiptURL = &receiptURL
	}
	p.PaymentDate = &at
	return nil
}

// PaymentFilter narrows a payment listing
type PaymentFilter struct {
	TenantID   string
	HouseID    string
	LandlordID string
	Status     *PaymentStatus
}

// PaymentRepository defines data access for rent payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *RentPayment) error
	GetByID(ctx context.Context, id string) (*RentPayment, error)
	List(ctx context.Context, filter PaymentFilter, page Page) ([]*RentPayment, int, error)
	// ApplyAmount adds amount to what has been paid in one atomic step and
	// flips the payment to paid once covered. A paid payment yields InvalidState.
	ApplyAmount(ctx context.Context, id string, amount decimal.Decimal, method, receiptURL *string, at time.Time) (*RentPayment, error)
	Delete(ctx context.Context, id string) error
	// MarkOverdue flips pending payments due before the cutoff to overdue
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}
