// Package app assembles the storage backend and services shared by the
// HTTP server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/featureflags"
	"github.com/aryan0dhankhar/rentdesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/rentdesk/internal/platform/migrations"
	"github.com/aryan0dhankhar/rentdesk/internal/repository"
	"github.com/aryan0dhankhar/rentdesk/internal/repository/memory"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
	"github.com/aryan0dhankhar/rentdesk/internal/security/audit"
	"github.com/aryan0dhankhar/rentdesk/internal/security/auth"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
	"github.com/aryan0dhankhar/rentdesk/pkg/config"
	"github.com/aryan0dhankhar/rentdesk/pkg/database"
)

// Store is implemented by both the Postgres and the in-memory backends
type Store interface {
	domain.Transactor
	Houses() domain.HouseRepository
	RentRequests() domain.RentRequestRepository
	Leases() domain.LeaseRepository
	Payments() domain.PaymentRepository
	Reminders() domain.ReminderRepository
	Maintenance() domain.MaintenanceRepository
	Notifications() domain.NotificationRepository
	Users() domain.UserRepository
}

// Pinger is a dependency that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is an opened store plus the connections behind it
type Backend struct {
	Store Store
	// DB and Redis are nil when the backend does not use them
	DB    Pinger
	Redis Pinger

	closers []func() error
}

// Close releases every connection the backend opened
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

type poolPinger struct{ pool *database.ConnectionPool }

func (p poolPinger) Ping(ctx context.Context) error { return p.pool.Health(ctx) }

// Open connects the configured storage driver. With Postgres, pending
// migrations are applied when migrate is set, and houses are cached in
// Redis when REDIS_URL is set or in process memory otherwise.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*Backend, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return &Backend{Store: memory.NewStore()}, nil
	}

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:          cfg.DatabaseURL,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Database:     cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	b := &Backend{DB: poolPinger{pool}, closers: []func() error{pool.Close}}

	if migrate {
		if err := migrations.Apply(ctx, pool.GetDB()); err != nil {
			b.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("migrations applied", slog.Int("count", migrations.Count()))
	}

	var cache repository.HouseCache
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Redis = client
		b.closers = append(b.closers, client.Close)
		cache = repository.NewRedisHouseCache(client, cfg.HouseCacheTTL, logger)
	} else if cfg.HouseCacheTTL > 0 {
		cache = repository.NewLocalHouseCache(cfg.HouseCacheTTL)
	}

	b.Store = repository.NewStore(pool.GetDB(), cache, logger)
	return b, nil
}

// Services bundles every domain service
type Services struct {
	Tokens        *auth.TokenManager
	Auth          *service.AuthService
	Houses        *service.HouseService
	RentRequests  *service.RentRequestService
	Leases        *service.LeaseService
	Payments      *service.PaymentService
	Reminders     *service.ReminderService
	Maintenance   *service.MaintenanceService
	Notifications *service.NotificationService
	Audit         *audit.Logger
}

// notificationBuffer is the per-subscriber queue of the live stream
const notificationBuffer = 32

// NewServices wires the services over store
func NewServices(store Store, cfg *config.Config, flags featureflags.Source, logger *slog.Logger) *Services {
	policy := security.NewPolicy(logger)
	auditLog := audit.NewLogger(logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret, "rentdesk")
	notes := service.NewNotificationService(store.Notifications(), service.NewHub(notificationBuffer), logger)

	return &Services{
		Tokens:        tokens,
		Auth:          service.NewAuthService(store.Users(), tokens, cfg.JWTTTL, logger),
		Houses:        service.NewHouseService(store.Houses(), policy, auditLog, logger),
		RentRequests:  service.NewRentRequestService(store, store.Houses(), store.RentRequests(), notes, flags, policy, auditLog, logger),
		Leases:        service.NewLeaseService(store.Leases(), store.Houses(), policy, logger),
		Payments:      service.NewPaymentService(store.Payments(), store.Houses(), policy, logger),
		Reminders:     service.NewReminderService(store.Reminders(), store.Houses(), store.Payments(), notes, policy, logger),
		Maintenance:   service.NewMaintenanceService(store.Maintenance(), store.Houses(), notes, policy, logger),
		Notifications: notes,
		Audit:         auditLog,
	}
}
