package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

const notificationColumns = `id, user_id, type, entity_id, message, is_read, created_at`

// PostgresNotificationRepository implements domain.NotificationRepository using PostgreSQL
type PostgresNotificationRepository struct {
	db     Queryer
	logger *slog.Logger
}

// NewPostgresNotificationRepository creates a new notification repository
func NewPostgresNotificationRepository(db Queryer, logger *slog.Logger) *PostgresNotificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationRepository{db: db, logger: logger}
}

// Create inserts a notification
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, nullString(n.EntityID), n.Message, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return translate(err, "notification", "create")
	}
	return nil
}

// List returns a user's notifications, newest first
func (r *PostgresNotificationRepository) List(ctx context.Context, filter domain.NotificationFilter, page domain.Page) ([]*domain.Notification, int, error) {
	var c conditions
	c.add("user_id = $%d", filter.UserID)
	if filter.IsRead != nil {
		c.add("is_read = $%d", *filter.IsRead)
	}
	if filter.Since != nil {
		c.add("created_at > $%d", *filter.Since)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "notifications", "count")
	}

	suffix, args := c.paginate(page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+notificationColumns+` FROM notifications`+c.where()+` ORDER BY created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, translate(err, "notifications", "list")
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var (
			n        domain.Notification
			entityID sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &entityID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, translate(err, "notification", "scan")
		}
		n.EntityID = stringPtr(entityID)
		out = append(out, &n)
	}
	return out, total, rows.Err()
}

// MarkRead flags ids as read. Ids owned by another user are ignored.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = ANY($2)`,
		userID, pq.Array(ids),
	)
	if err != nil {
		return 0, translate(err, "notifications", "mark read")
	}
	return res.RowsAffected()
}

// MarkAllRead flags every unread notification of userID
func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, translate(err, "notifications", "mark read")
	}
	return res.RowsAffected()
}

// Delete removes ids owned by userID
func (r *PostgresNotificationRepository) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE user_id = $1 AND id = ANY($2)`, userID, pq.Array(ids))
	if err != nil {
		return 0, translate(err, "notifications", "delete")
	}
	return res.RowsAffected()
}

// DeleteAll empties userID's inbox
func (r *PostgresNotificationRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, translate(err, "notifications", "delete")
	}
	return res.RowsAffected()
}

// CountUnread returns the number of unread notifications for userID
func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	if err != nil {
		return 0, translate(err, "notifications", "count")
	}
	return n, nil
}
