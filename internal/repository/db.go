package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const pqUniqueViolation = "23505"
const pqForeignKeyViolation = "23503"

// pqInvalidText is raised when an id is not a valid UUID; no row can match it
const pqInvalidText = "22P02"

// translate maps driver errors onto domain error kinds
func translate(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return domain.Conflict("%s already exists", entity)
		case pqForeignKeyViolation:
			return domain.Validation("%s references a missing record", entity)
		case pqInvalidText:
			return domain.NotFound(entity)
		}
	}
	return domain.Internal(fmt.Sprintf("failed to %s %s", op, entity), err)
}

// expectAffected turns a zero-row write into not-found
func expectAffected(res sql.Result, entity string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Internal("failed to check rows affected", err)
	}
	if rows == 0 {
		return domain.NotFound(entity)
	}
	return nil
}

// conditions accumulates WHERE clauses with positional placeholders
type conditions struct {
	clauses []string
	args    []any
}

// add appends a clause; format must contain one %d for the placeholder index
func (c *conditions) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// paginate appends LIMIT/OFFSET placeholders and returns the suffix and args
func (c *conditions) paginate(page domain.Page) (string, []any) {
	page = page.Normalize()
	n := len(c.args)
	args := append(append([]any{}, c.args...), page.Limit, page.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Store owns the connection pool and hands out repositories bound to it
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	cache  HouseCache
}

// NewStore creates a Store. cache may be nil.
func NewStore(db *sql.DB, cache HouseCache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, cache: cache, logger: logger}
}

// Houses returns the house repository, read-through cached when a cache is configured
func (s *Store) Houses() domain.HouseRepository {
	repo := NewPostgresHouseRepository(s.db, s.logger)
	if s.cache == nil {
		return repo
	}
	return NewCachedHouseRepository(repo, s.cache, s.logger)
}

// RentRequests returns the rent request repository
func (s *Store) RentRequests() domain.RentRequestRepository {
	return NewPostgresRentRequestRepository(s.db, s.logger)
}

// Leases returns the lease repository
func (s *Store) Leases() domain.LeaseRepository {
	return NewPostgresLeaseRepository(s.db, s.logger)
}

// Payments returns the payment repository
func (s *Store) Payments() domain.PaymentRepository {
	return NewPostgresPaymentRepository(s.db, s.logger)
}

// Reminders returns the reminder repository
func (s *Store) Reminders() domain.ReminderRepository {
	return NewPostgresReminderRepository(s.db, s.logger)
}

// Maintenance returns the maintenance repository
func (s *Store) Maintenance() domain.MaintenanceRepository {
	return NewPostgresMaintenanceRepository(s.db, s.logger)
}

// Notifications returns the notification repository
func (s *Store) Notifications() domain.NotificationRepository {
	return NewPostgresNotificationRepository(s.db, s.logger)
}

// Users returns the user repository
func (s *Store) Users() domain.UserRepository {
	return NewPostgresUserRepository(s.db, s.logger)
}

// InTx runs fn inside one database transaction. Houses locked with
// GetForUpdate stay locked until commit or rollback, which serializes
// concurrent transitions on the same house. Cached houses touched by the
// transaction are evicted after commit.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repos domain.TxRepositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return domain.Internal("failed to begin transaction", err)
	}

	touched := &touchedHouses{inner: NewPostgresHouseRepository(tx, s.logger)}
	repos := domain.TxRepositories{
		Houses:       touched,
		RentRequests: NewPostgresRentRequestRepository(tx, s.logger),
	}

	if err := fn(ctx, repos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("failed to roll back transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.Internal("failed to commit transaction", err)
	}

	if s.cache != nil && len(touched.ids) > 0 {
		s.cache.Invalidate(ctx, touched.ids...)
	}
	return nil
}

// touchedHouses records which houses a transaction read for update or wrote
type touchedHouses struct {
	inner domain.HouseRepository
	ids   []string
}

func (t *touchedHouses) mark(id string) {
	for _, existing := range t.ids {
		if existing == id {
			return
		}
	}
	t.ids = append(t.ids, id)
}

func (t *touchedHouses) Create(ctx context.Context, house *domain.House) error {
	return t.inner.Create(ctx, house)
}

func (t *touchedHouses) GetByID(ctx context.Context, id string) (*domain.House, error) {
	return t.inner.GetByID(ctx, id)
}

func (t *touchedHouses) GetCurrent(ctx context.Context, id string) (*domain.House, error) {
	return t.inner.GetCurrent(ctx, id)
}

// GetForUpdate marks the house so the cache entry is evicted on commit
func (t *touchedHouses) GetForUpdate(ctx context.Context, id string) (*domain.House, error) {
	t.mark(id)
	return t.inner.GetForUpdate(ctx, id)
}

func (t *touchedHouses) List(ctx context.Context, filter domain.HouseFilter, page domain.Page) ([]*domain.House, int, error) {
	return t.inner.List(ctx, filter, page)
}

func (t *touchedHouses) Update(ctx context.Context, house *domain.House) error {
	t.mark(house.ID)
	return t.inner.Update(ctx, house)
}

func (t *touchedHouses) UpdateStatusAndTenant(ctx context.Context, id string, status domain.HouseStatus, tenantID *string) error {
	t.mark(id)
	return t.inner.UpdateStatusAndTenant(ctx, id, status, tenantID)
}

func (t *touchedHouses) Delete(ctx context.Context, id string) error {
	t.mark(id)
	return t.inner.Delete(ctx, id)
}
