package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

const houseColumns = `id, landlord_id, tenant_id, title, description, address, city, rent,
	bedrooms, bathrooms, status, is_active, rental_start_date, created_at, updated_at`

// PostgresHouseRepository implements domain.HouseRepository using PostgreSQL
type PostgresHouseRepository struct {
	db     Queryer
	logger *slog.Logger
}

// NewPostgresHouseRepository creates a new house repository
func NewPostgresHouseRepository(db Queryer, logger *slog.Logger) *PostgresHouseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHouseRepository{db: db, logger: logger}
}

// Create inserts a new house
func (r *PostgresHouseRepository) Create(ctx context.Context, house *domain.House) error {
	if house.ID == "" {
		house.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	house.CreatedAt = now
	house.UpdatedAt = now

	query := `
		INSERT INTO houses (` + houseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		house.ID,
		house.LandlordID,
		nullString(house.TenantID),
		house.Title,
		house.Description,
		house.Address,
		house.City,
		house.Rent,
		house.Bedrooms,
		house.Bathrooms,
		house.Status,
		house.IsActive,
		house.RentalStartDate,
		house.CreatedAt,
		house.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create house",
			slog.String("landlord_id", house.LandlordID),
			slog.String("error", err.Error()),
		)
		return translate(err, "house", "create")
	}
	return nil
}

// GetByID retrieves a house by ID
func (r *PostgresHouseRepository) GetByID(ctx context.Context, id string) (*domain.House, error) {
	query := `SELECT ` + houseColumns + ` FROM houses WHERE id = $1`
	house, err := scanHouse(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "house", "get")
	}
	return house, nil
}

// GetCurrent is GetByID; the repository itself never caches
func (r *PostgresHouseRepository) GetCurrent(ctx context.Context, id string) (*domain.House, error) {
	return r.GetByID(ctx, id)
}

// GetForUpdate retrieves a house and holds a row lock until the transaction ends
func (r *PostgresHouseRepository) GetForUpdate(ctx context.Context, id string) (*domain.House, error) {
	query := `SELECT ` + houseColumns + ` FROM houses WHERE id = $1 FOR UPDATE`
	house, err := scanHouse(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "house", "lock")
	}
	return house, nil
}

// List returns houses matching filter, newest first, with the total match count
func (r *PostgresHouseRepository) List(ctx context.Context, filter domain.HouseFilter, page domain.Page) ([]*domain.House, int, error) {
	var c conditions
	if filter.LandlordID != "" {
		c.add("landlord_id = $%d", filter.LandlordID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.MinRent != nil {
		c.add("rent >= $%d", *filter.MinRent)
	}
	if filter.MaxRent != nil {
		c.add("rent <= $%d", *filter.MaxRent)
	}
	if filter.Bedrooms != nil {
		c.add("bedrooms = $%d", *filter.Bedrooms)
	}
	if filter.Bathrooms != nil {
		c.add("bathrooms = $%d", *filter.Bathrooms)
	}
	if filter.IsActive != nil {
		c.add("is_active = $%d", *filter.IsActive)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM houses`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "houses", "count")
	}

	suffix, args := c.paginate(page)
	query := `SELECT ` + houseColumns + ` FROM houses` + c.where() + ` ORDER BY created_at DESC` + suffix
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list houses", slog.String("error", err.Error()))
		return nil, 0, translate(err, "houses", "list")
	}
	defer rows.Close()

	var out []*domain.House
	for rows.Next() {
		house, err := scanHouse(rows)
		if err != nil {
			return nil, 0, translate(err, "house", "scan")
		}
		out = append(out, house)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err, "houses", "list")
	}
	return out, total, nil
}

// Update writes the listing fields of a house. Status and tenant are never
// written here.
func (r *PostgresHouseRepository) Update(ctx context.Context, house *domain.House) error {
	house.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE houses
		SET title = $2, description = $3, address = $4, city = $5, rent = $6,
			bedrooms = $7, bathrooms = $8, is_active = $9, rental_start_date = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		house.ID,
		house.Title,
		house.Description,
		house.Address,
		house.City,
		house.Rent,
		house.Bedrooms,
		house.Bathrooms,
		house.IsActive,
		house.RentalStartDate,
		house.UpdatedAt,
	)
	if err != nil {
		return translate(err, "house", "update")
	}
	return expectAffected(res, "house")
}

// UpdateStatusAndTenant sets occupancy in a single statement
func (r *PostgresHouseRepository) UpdateStatusAndTenant(ctx context.Context, id string, status domain.HouseStatus, tenantID *string) error {
	query := `UPDATE houses SET status = $2, tenant_id = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, nullString(tenantID), time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to update house occupancy",
			slog.String("house_id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return translate(err, "house", "update")
	}
	return expectAffected(res, "house")
}

// Delete removes a house; dependent rows cascade in the schema
func (r *PostgresHouseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM houses WHERE id = $1`, id)
	if err != nil {
		return translate(err, "house", "delete")
	}
	return expectAffected(res, "house")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHouse(row rowScanner) (*domain.House, error) {
	var (
		h         domain.House
		tenantID  sql.NullString
		startDate sql.NullTime
	)
	err := row.Scan(
		&h.ID,
		&h.LandlordID,
		&tenantID,
		&h.Title,
		&h.Description,
		&h.Address,
		&h.City,
		&h.Rent,
		&h.Bedrooms,
		&h.Bathrooms,
		&h.Status,
		&h.IsActive,
		&startDate,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.TenantID = stringPtr(tenantID)
	if startDate.Valid {
		t := startDate.Time
		h.RentalStartDate = &t
	}
	return &h, nil
}
