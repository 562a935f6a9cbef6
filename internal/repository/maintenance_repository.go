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

const maintenanceColumns = `id, house_id, tenant_id, landlord_id, title, description, category, priority,
	status, scheduled_date, completed_at, resolution_notes, media, created_at, updated_at`

// PostgresMaintenanceRepository implements domain.MaintenanceRepository using PostgreSQL.
// Media references are stored as a text[] column.
type PostgresMaintenanceRepository struct {
	db     Queryer
	logger *slog.Logger
}

// NewPostgresMaintenanceRepository creates a new maintenance repository
func NewPostgresMaintenanceRepository(db Queryer, logger *slog.Logger) *PostgresMaintenanceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMaintenanceRepository{db: db, logger: logger}
}

// Create inserts a maintenance request with its media list
func (r *PostgresMaintenanceRepository) Create(ctx context.Context, m *domain.MaintenanceRequest) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	query := `
		INSERT INTO maintenance_requests (` + maintenanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.HouseID,
		m.TenantID,
		m.LandlordID,
		m.Title,
		m.Description,
		m.Category,
		m.Priority,
		m.Status,
		m.ScheduledDate,
		m.CompletedAt,
		m.ResolutionNotes,
		pq.Array(m.Media),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create maintenance request",
			slog.String("house_id", m.HouseID),
			slog.String("error", err.Error()),
		)
		return translate(err, "maintenance request", "create")
	}
	return nil
}

// GetByID retrieves a maintenance request by ID
func (r *PostgresMaintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	m, err := scanMaintenance(r.db.QueryRowContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "maintenance request", "get")
	}
	return m, nil
}

// List returns requests matching filter, newest first
func (r *PostgresMaintenanceRepository) List(ctx context.Context, filter domain.MaintenanceFilter, page domain.Page) ([]*domain.MaintenanceRequest, int, error) {
	var c conditions
	if filter.HouseID != "" {
		c.add("house_id = $%d", filter.HouseID)
	}
	if filter.TenantID != "" {
		c.add("tenant_id = $%d", filter.TenantID)
	}
	if filter.LandlordID != "" {
		c.add("landlord_id = $%d", filter.LandlordID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.Priority != nil {
		c.add("priority = $%d", *filter.Priority)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM maintenance_requests`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "maintenance requests", "count")
	}

	suffix, args := c.paginate(page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_requests`+c.where()+` ORDER BY created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, translate(err, "maintenance requests", "list")
	}
	defer rows.Close()

	var out []*domain.MaintenanceRequest
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, 0, translate(err, "maintenance request", "scan")
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Update rewrites the mutable fields of a request
func (r *PostgresMaintenanceRepository) Update(ctx context.Context, m *domain.MaintenanceRequest) error {
	m.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE maintenance_requests
		SET title = $2, description = $3, category = $4, priority = $5, status = $6,
			scheduled_date = $7, completed_at = $8, resolution_notes = $9, media = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.Title,
		m.Description,
		m.Category,
		m.Priority,
		m.Status,
		m.ScheduledDate,
		m.CompletedAt,
		m.ResolutionNotes,
		pq.Array(m.Media),
		m.UpdatedAt,
	)
	if err != nil {
		return translate(err, "maintenance request", "update")
	}
	return expectAffected(res, "maintenance request")
}

// Delete removes a maintenance request
func (r *PostgresMaintenanceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_requests WHERE id = $1`, id)
	if err != nil {
		return translate(err, "maintenance request", "delete")
	}
	return expectAffected(res, "maintenance request")
}

func scanMaintenance(row rowScanner) (*domain.MaintenanceRequest, error) {
	var (
		m           domain.MaintenanceRequest
		scheduled   sql.NullTime
		completedAt sql.NullTime
		media       pq.StringArray
	)
	err := row.Scan(
		&m.ID,
		&m.HouseID,
		&m.TenantID,
		&m.LandlordID,
		&m.Title,
		&m.Description,
		&m.Category,
		&m.Priority,
		&m.Status,
		&scheduled,
		&completedAt,
		&m.ResolutionNotes,
		&media,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if scheduled.Valid {
		t := scheduled.Time
		m.ScheduledDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		m.CompletedAt = &t
	}
	m.Media = []string(media)
	return &m, nil
}
