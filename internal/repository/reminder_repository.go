package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

const reminderColumns = `id, landlord_id, tenant_id, house_id, payment_id, reminder_type, message,
	reminder_date, is_sent, sent_at, created_at, updated_at`

// PostgresReminderRepository implements domain.ReminderRepository using PostgreSQL
type PostgresReminderRepository struct {
	db     Queryer
	logger *slog.Logger
}

// NewPostgresReminderRepository creates a new reminder repository
func NewPostgresReminderRepository(db Queryer, logger *slog.Logger) *PostgresReminderRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReminderRepository{db: db, logger: logger}
}

// Create inserts a reminder
func (r *PostgresReminderRepository) Create(ctx context.Context, rem *domain.RentReminder) error {
	if rem.ID == "" {
		rem.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rem.CreatedAt = now
	rem.UpdatedAt = now

	query := `
		INSERT INTO rent_reminders (` + reminderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		rem.ID,
		rem.LandlordID,
		rem.TenantID,
		rem.HouseID,
		nullString(rem.PaymentID),
		rem.Type,
		rem.Message,
		rem.ReminderDate,
		rem.IsSent,
		rem.SentAt,
		rem.CreatedAt,
		rem.UpdatedAt,
	)
	if err != nil {
		return translate(err, "reminder", "create")
	}
	return nil
}

// GetByID retrieves a reminder by ID
func (r *PostgresReminderRepository) GetByID(ctx context.Context, id string) (*domain.RentReminder, error) {
	rem, err := scanReminder(r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM rent_reminders WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "reminder", "get")
	}
	return rem, nil
}

// List returns reminders matching filter ordered by reminder date
func (r *PostgresReminderRepository) List(ctx context.Context, filter domain.ReminderFilter, page domain.Page) ([]*domain.RentReminder, int, error) {
	var c conditions
	if filter.LandlordID != "" {
		c.add("landlord_id = $%d", filter.LandlordID)
	}
	if filter.TenantID != "" {
		c.add("tenant_id = $%d", filter.TenantID)
	}
	if filter.HouseID != "" {
		c.add("house_id = $%d", filter.HouseID)
	}
	if filter.IsSent != nil {
		c.add("is_sent = $%d", *filter.IsSent)
	}
	if filter.From != nil {
		c.add("reminder_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		c.add("reminder_date <= $%d", *filter.To)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rent_reminders`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "reminders", "count")
	}

	suffix, args := c.paginate(page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM rent_reminders`+c.where()+` ORDER BY reminder_date ASC`+suffix, args...)
	if err != nil {
		return nil, 0, translate(err, "reminders", "list")
	}
	defer rows.Close()

	out, err := collectReminders(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update rewrites the schedule, message and links of a reminder
func (r *PostgresReminderRepository) Update(ctx context.Context, rem *domain.RentReminder) error {
	rem.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE rent_reminders
		SET payment_id = $2, reminder_type = $3, message = $4, reminder_date = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		rem.ID, nullString(rem.PaymentID), rem.Type, rem.Message, rem.ReminderDate, rem.UpdatedAt,
	)
	if err != nil {
		return translate(err, "reminder", "update")
	}
	return expectAffected(res, "reminder")
}

// Delete removes a reminder
func (r *PostgresReminderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rent_reminders WHERE id = $1`, id)
	if err != nil {
		return translate(err, "reminder", "delete")
	}
	return expectAffected(res, "reminder")
}

// MarkSent is a conditional update so that two dispatchers racing on the
// same reminder cannot both succeed
func (r *PostgresReminderRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE rent_reminders SET is_sent = TRUE, sent_at = $2, updated_at = $2 WHERE id = $1 AND is_sent = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return translate(err, "reminder", "mark sent")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Internal("failed to check rows affected", err)
	}
	if rows > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.InvalidState("reminder has already been sent")
}

// Due lists unsent reminders whose time has come
func (r *PostgresReminderRepository) Due(ctx context.Context, now time.Time, limit int) ([]*domain.RentReminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM rent_reminders
		WHERE is_sent = FALSE AND reminder_date <= $1
		ORDER BY reminder_date ASC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, translate(err, "reminders", "list due")
	}
	defer rows.Close()
	return collectReminders(rows)
}

func collectReminders(rows *sql.Rows) ([]*domain.RentReminder, error) {
	var out []*domain.RentReminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, translate(err, "reminder", "scan")
		}
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "reminders", "list")
	}
	return out, nil
}

func scanReminder(row rowScanner) (*domain.RentReminder, error) {
	var (
		rem       domain.RentReminder
		paymentID sql.NullString
		sentAt    sql.NullTime
	)
	err := row.Scan(
		&rem.ID,
		&rem.LandlordID,
		&rem.TenantID,
		&rem.HouseID,
		&paymentID,
		&rem.Type,
		&rem.Message,
		&rem.ReminderDate,
		&rem.IsSent,
		&sentAt,
		&rem.CreatedAt,
		&rem.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rem.PaymentID = stringPtr(paymentID)
	if sentAt.Valid {
		t := sentAt.Time
		rem.SentAt = &t
	}
	return &rem, nil
}
