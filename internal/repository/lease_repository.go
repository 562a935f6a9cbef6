package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

const leaseColumns = `id, house_id, tenant_id, landlord_id, start_date, end_date, rent_amount,
	deposit_amount, terms, status, document_url, created_at, updated_at`

// PostgresLeaseRepository implements domain.LeaseRepository using PostgreSQL
type PostgresLeaseRepository struct {
	db     Queryer
	logger *slog.Logger
}

// NewPostgresLeaseRepository creates a new lease repository
func NewPostgresLeaseRepository(db Queryer, logger *slog.Logger) *PostgresLeaseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLeaseRepository{db: db, logger: logger}
}

// Create inserts a lease agreement
func (r *PostgresLeaseRepository) Create(ctx context.Context, lease *domain.Lease) error {
	if lease.ID == "" {
		lease.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lease.CreatedAt = now
	lease.UpdatedAt = now

	query := `
		INSERT INTO lease_agreements (` + leaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		lease.ID,
		lease.HouseID,
		lease.TenantID,
		lease.LandlordID,
		lease.StartDate,
		lease.EndDate,
		lease.RentAmount,
		lease.DepositAmount,
		lease.Terms,
		lease.Status,
		nullString(lease.DocumentURL),
		lease.CreatedAt,
		lease.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create lease",
			slog.String("house_id", lease.HouseID),
			slog.String("error", err.Error()),
		)
		return translate(err, "lease", "create")
	}
	return nil
}

// GetByID retrieves a lease by ID
func (r *PostgresLeaseRepository) GetByID(ctx context.Context, id string) (*domain.Lease, error) {
	lease, err := scanLease(r.db.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM lease_agreements WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "lease", "get")
	}
	return lease, nil
}

// List returns leases matching filter, newest first
func (r *PostgresLeaseRepository) List(ctx context.Context, filter domain.LeaseFilter, page domain.Page) ([]*domain.Lease, int, error) {
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

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lease_agreements`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "leases", "count")
	}

	suffix, args := c.paginate(page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+leaseColumns+` FROM lease_agreements`+c.where()+` ORDER BY created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, translate(err, "leases", "list")
	}
	defer rows.Close()

	var out []*domain.Lease
	for rows.Next() {
		lease, err := scanLease(rows)
		if err != nil {
			return nil, 0, translate(err, "lease", "scan")
		}
		out = append(out, lease)
	}
	return out, total, rows.Err()
}

// Update rewrites the mutable lease fields
func (r *PostgresLeaseRepository) Update(ctx context.Context, lease *domain.Lease) error {
	lease.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE lease_agreements
		SET start_date = $2, end_date = $3, rent_amount = $4, deposit_amount = $5,
			terms = $6, status = $7, document_url = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		lease.ID,
		lease.StartDate,
		lease.EndDate,
		lease.RentAmount,
		lease.DepositAmount,
		lease.Terms,
		lease.Status,
		nullString(lease.DocumentURL),
		lease.UpdatedAt,
	)
	if err != nil {
		return translate(err, "lease", "update")
	}
	return expectAffected(res, "lease")
}

// Delete removes a lease
func (r *PostgresLeaseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lease_agreements WHERE id = $1`, id)
	if err != nil {
		return translate(err, "lease", "delete")
	}
	return expectAffected(res, "lease")
}

func scanLease(row rowScanner) (*domain.Lease, error) {
	var (
		l   domain.Lease
		doc sql.NullString
	)
	err := row.Scan(
		&l.ID,
		&l.HouseID,
		&l.TenantID,
		&l.LandlordID,
		&l.StartDate,
		&l.EndDate,
		&l.RentAmount,
		&l.DepositAmount,
		&l.Terms,
		&l.Status,
		&doc,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.DocumentURL = stringPtr(doc)
	return &l, nil
}
