package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

const paymentColumns = `p.id, p.tenant_id, p.house_id, p.due_date, p.amount, p.paid_amount, p.status,
	p.payment_method, p.payment_date, p.receipt_url, p.created_at, p.updated_at`

// PostgresPaymentRepository implements domain.PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db     Queryer
	logger *slog.Logger
}

// NewPostgresPaymentRepository creates a new payment repository
func NewPostgresPaymentRepository(db Queryer, logger *slog.Logger) *PostgresPaymentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPaymentRepository{db: db, logger: logger}
}

// Create inserts a scheduled payment
func (r *PostgresPaymentRepository) Create(ctx context.Context, p *domain.RentPayment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO rent_payments (id, tenant_id, house_id, due_date, amount, paid_amount, status,
			payment_method, payment_date, receipt_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.TenantID,
		p.HouseID,
		p.DueDate,
		p.Amount,
		p.PaidAmount,
		p.Status,
		nullString(p.PaymentMethod),
		p.PaymentDate,
		nullString(p.ReceiptURL),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create payment",
			slog.String("tenant_id", p.TenantID),
			slog.String("house_id", p.HouseID),
			slog.String("error", err.Error()),
		)
		return translate(err, "payment", "create")
	}
	return nil
}

// GetByID retrieves a payment by ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.RentPayment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM rent_payments p WHERE p.id = $1`, id))
	if err != nil {
		return nil, translate(err, "payment", "get")
	}
	return p, nil
}

// List returns payments matching filter ordered by due date, latest first
func (r *PostgresPaymentRepository) List(ctx context.Context, filter domain.PaymentFilter, page domain.Page) ([]*domain.RentPayment, int, error) {
	var c conditions
	if filter.TenantID != "" {
		c.add("p.tenant_id = $%d", filter.TenantID)
	}
	if filter.HouseID != "" {
		c.add("p.house_id = $%d", filter.HouseID)
	}
	if filter.LandlordID != "" {
		c.add("h.landlord_id = $%d", filter.LandlordID)
	}
	if filter.Status != nil {
		c.add("p.status = $%d", *filter.Status)
	}

	from := ` FROM rent_payments p JOIN houses h ON h.id = p.house_id`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "payments", "count")
	}

	suffix, args := c.paginate(page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+from+c.where()+` ORDER BY p.due_date DESC`+suffix, args...)
	if err != nil {
		return nil, 0, translate(err, "payments", "list")
	}
	defer rows.Close()

	var out []*domain.RentPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, translate(err, "payment", "scan")
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// ApplyAmount accumulates a payment in a single statement so concurrent
// applies never lose an increment
func (r *PostgresPaymentRepository) ApplyAmount(ctx context.Context, id string, amount decimal.Decimal, method, receiptURL *string, at time.Time) (*domain.RentPayment, error) {
	query := `
		UPDATE rent_payments p
		SET paid_amount = p.paid_amount + $2,
			status = CASE WHEN p.paid_amount + $2 >= p.amount THEN $3 ELSE p.status END,
			payment_method = COALESCE($4, p.payment_method),
			receipt_url = COALESCE($5, p.receipt_url),
			payment_date = $6,
			updated_at = $6
		WHERE p.id = $1 AND p.status <> $3
		RETURNING ` + paymentColumns
	p, err := scanPayment(r.db.QueryRowContext(ctx, query,
		id,
		amount,
		domain.PaymentPaid,
		nullString(method),
		nullString(receiptURL),
		at,
	))
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.InvalidState("payment is already fully paid")
	}
	if err != nil {
		return nil, translate(err, "payment", "apply")
	}
	return p, nil
}

// Delete removes a payment
func (r *PostgresPaymentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rent_payments WHERE id = $1`, id)
	if err != nil {
		return translate(err, "payment", "delete")
	}
	return expectAffected(res, "payment")
}

// MarkOverdue flips pending payments whose due date has passed
func (r *PostgresPaymentRepository) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE rent_payments SET status = $1, updated_at = $2 WHERE status = $3 AND due_date < $4`
	res, err := r.db.ExecContext(ctx, query, domain.PaymentOverdue, time.Now().UTC(), domain.PaymentPending, before)
	if err != nil {
		return 0, translate(err, "payments", "mark overdue")
	}
	return res.RowsAffected()
}

func scanPayment(row rowScanner) (*domain.RentPayment, error) {
	var (
		p       domain.RentPayment
		method  sql.NullString
		paidAt  sql.NullTime
		receipt sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.HouseID,
		&p.DueDate,
		&p.Amount,
		&p.PaidAmount,
		&p.Status,
		&method,
		&paidAt,
		&receipt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.PaymentMethod = stringPtr(method)
	p.ReceiptURL = stringPtr(receipt)
	if paidAt.Valid {
		t := paidAt.Time
		p.PaymentDate = &t
	}
	return &p, nil
}
