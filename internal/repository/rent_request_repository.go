package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

const rentRequestColumns = `rr.id, rr.user_id, rr.house_id, rr.message, rr.status, rr.created_at, rr.updated_at`

// PostgresRentRequestRepository implements domain.RentRequestRepository using PostgreSQL
type PostgresRentRequestRepository struct {
	db     Queryer
	logger *slog.Logger
}

// NewPostgresRentRequestRepository creates a new rent request repository
func NewPostgresRentRequestRepository(db Queryer, logger *slog.Logger) *PostgresRentRequestRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRentRequestRepository{db: db, logger: logger}
}

// Create inserts a new rent request
func (r *PostgresRentRequestRepository) Create(ctx context.Context, req *domain.RentRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	query := `
		INSERT INTO rent_requests (id, user_id, house_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.UserID, req.HouseID, req.Message, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create rent request",
			slog.String("user_id", req.UserID),
			slog.String("house_id", req.HouseID),
			slog.String("error", err.Error()),
		)
		return translate(err, "rent request", "create")
	}
	return nil
}

// GetByID retrieves a rent request by ID
func (r *PostgresRentRequestRepository) GetByID(ctx context.Context, id string) (*domain.RentRequest, error) {
	query := `SELECT ` + rentRequestColumns + ` FROM rent_requests rr WHERE rr.id = $1`
	req, err := scanRentRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "rent request", "get")
	}
	return req, nil
}

// HasPending reports whether the user already has a pending request for the house
func (r *PostgresRentRequestRepository) HasPending(ctx context.Context, userID, houseID, excludeID string) (bool, error) {
	var c conditions
	c.add("user_id = $%d", userID)
	c.add("house_id = $%d", houseID)
	c.add("status = $%d", domain.RentRequestPending)
	if excludeID != "" {
		c.add("id <> $%d", excludeID)
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM rent_requests` + c.where() + `)`
	if err := r.db.QueryRowContext(ctx, query, c.args...).Scan(&exists); err != nil {
		return false, translate(err, "rent request", "check")
	}
	return exists, nil
}

// UpdateStatus persists a new status
func (r *PostgresRentRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RentRequestStatus) error {
	query := `UPDATE rent_requests SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return translate(err, "rent request", "update")
	}
	return expectAffected(res, "rent request")
}

// RejectPendingSiblings rejects every other pending request for the house in one statement
func (r *PostgresRentRequestRepository) RejectPendingSiblings(ctx context.Context, houseID, exceptID string) ([]*domain.RentRequest, error) {
	query := `
		UPDATE rent_requests rr
		SET status = $3, updated_at = $4
		WHERE rr.house_id = $1 AND rr.id <> $2 AND rr.status = $5
		RETURNING ` + rentRequestColumns
	rows, err := r.db.QueryContext(ctx, query,
		houseID, exceptID, domain.RentRequestRejected, time.Now().UTC(), domain.RentRequestPending,
	)
	if err != nil {
		r.logger.Error("failed to reject sibling rent requests",
			slog.String("house_id", houseID),
			slog.String("error", err.Error()),
		)
		return nil, translate(err, "rent requests", "reject")
	}
	defer rows.Close()

	var out []*domain.RentRequest
	for rows.Next() {
		req, err := scanRentRequest(rows)
		if err != nil {
			return nil, translate(err, "rent request", "scan")
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "rent requests", "reject")
	}
	return out, nil
}

// List returns rent requests matching filter, newest first
func (r *PostgresRentRequestRepository) List(ctx context.Context, filter domain.RentRequestFilter, page domain.Page) ([]*domain.RentRequest, int, error) {
	var c conditions
	if filter.UserID != "" {
		c.add("rr.user_id = $%d", filter.UserID)
	}
	if filter.HouseID != "" {
		c.add("rr.house_id = $%d", filter.HouseID)
	}
	if filter.LandlordID != "" {
		c.add("h.landlord_id = $%d", filter.LandlordID)
	}
	if filter.Status != nil {
		c.add("rr.status = $%d", *filter.Status)
	}

	from := ` FROM rent_requests rr JOIN houses h ON h.id = rr.house_id`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "rent requests", "count")
	}

	suffix, args := c.paginate(page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+rentRequestColumns+from+c.where()+` ORDER BY rr.created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, translate(err, "rent requests", "list")
	}
	defer rows.Close()

	var out []*domain.RentRequest
	for rows.Next() {
		req, err := scanRentRequest(rows)
		if err != nil {
			return nil, 0, translate(err, "rent request", "scan")
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err, "rent requests", "list")
	}
	return out, total, nil
}

// Delete removes a rent request
func (r *PostgresRentRequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rent_requests WHERE id = $1`, id)
	if err != nil {
		return translate(err, "rent request", "delete")
	}
	return expectAffected(res, "rent request")
}

func scanRentRequest(row rowScanner) (*domain.RentRequest, error) {
	var req domain.RentRequest
	if err := row.Scan(&req.ID, &req.UserID, &req.HouseID, &req.Message, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}
