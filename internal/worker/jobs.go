package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/reliability/retry"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

// DefaultDispatchBatch bounds how many due reminders one pass claims
const DefaultDispatchBatch = 100

// ReminderDispatching is satisfied by service.ReminderService
type ReminderDispatching interface {
	DispatchDue(ctx context.Context, now time.Time, limit int) (service.DispatchResult, error)
}

// OverdueSweeping is satisfied by service.PaymentService
type OverdueSweeping interface {
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)
}

// transient reports whether a failed pass is worth repeating. Domain
// failures other than server errors will fail the same way again.
func transient(err error) bool {
	return domain.KindOf(err) == domain.KindServer
}

func retryConfig() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.ShouldRetry = transient
	return cfg
}

// ReminderDispatcher delivers reminders whose date has arrived. Each
// reminder is claimed before delivery, so a retried pass never sends one twice.
type ReminderDispatcher struct {
	reminders ReminderDispatching
	batch     int
	retry     *retry.Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewReminderDispatcher creates a dispatcher handling up to batch reminders per run
func NewReminderDispatcher(reminders ReminderDispatching, batch int, logger *slog.Logger) *ReminderDispatcher {
	if batch <= 0 {
		batch = DefaultDispatchBatch
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderDispatcher{
		reminders: reminders,
		batch:     batch,
		retry:     retryConfig(),
		logger:    logger,
		now:       time.Now,
	}
}

func (d *ReminderDispatcher) Name() string { return "reminder-dispatch" }

// Run dispatches one batch; the counts are logged by RunOnce
func (d *ReminderDispatcher) Run(ctx context.Context) error {
	_, err := d.RunOnce(ctx)
	return err
}

// RunOnce dispatches one batch and reports how many reminders were sent,
// skipped and failed
func (d *ReminderDispatcher) RunOnce(ctx context.Context) (service.DispatchResult, error) {
	now := d.now().UTC()
	res, err := retry.Do(ctx, d.retry, d.logger, d.Name(), func(ctx context.Context) (service.DispatchResult, error) {
		return d.reminders.DispatchDue(ctx, now, d.batch)
	})
	if err != nil {
		return res, err
	}
	if res.Sent+res.Failed+res.Skipped > 0 {
		d.logger.Info("reminders dispatched",
			slog.Int("sent", res.Sent),
			slog.Int("skipped", res.Skipped),
			slog.Int("failed", res.Failed),
		)
	}
	return res, nil
}

// OverdueSweeper marks pending payments past their due date as overdue
type OverdueSweeper struct {
	payments OverdueSweeping
	retry    *retry.Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewOverdueSweeper creates the overdue payment sweeper
func NewOverdueSweeper(payments OverdueSweeping, logger *slog.Logger) *OverdueSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueSweeper{payments: payments, retry: retryConfig(), logger: logger, now: time.Now}
}

func (s *OverdueSweeper) Name() string { return "overdue-sweep" }

// Run sweeps once; the count is logged by RunOnce
func (s *OverdueSweeper) Run(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	return err
}

// RunOnce sweeps once and returns how many payments were marked overdue
func (s *OverdueSweeper) RunOnce(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	n, err := retry.Do(ctx, s.retry, s.logger, s.Name(), func(ctx context.Context) (int64, error) {
		return s.payments.SweepOverdue(ctx, now)
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("payments marked overdue", slog.Int64("count", n))
	}
	return n, nil
}
