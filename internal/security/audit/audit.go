package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

type requestIDKey struct{}

// WithRequestID stores the request id used to correlate audit lines
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLogger creates an audit logger writing through logger
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("log", "audit")), now: time.Now}
}

// LogAction records one audited action with the request id from ctx
func (al *Logger) LogAction(ctx context.Context, actor domain.Actor, action, resource, resourceID, status, details string) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", actor.UserID),
		slog.String("role", string(actor.Role)),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", al.now().UTC()),
	)
}

// LogTransition records a rent request status change attempt
func (al *Logger) LogTransition(ctx context.Context, actor domain.Actor, requestID string, from, to domain.RentRequestStatus, err error) {
	status, details := "success", string(from)+" -> "+string(to)
	if err != nil {
		status = string(domain.KindOf(err))
		details += ": " + err.Error()
	}
	al.LogAction(ctx, actor, "transition", "rent_request", requestID, status, details)
}

// LogDeletion records a delete and its outcome
func (al *Logger) LogDeletion(ctx context.Context, actor domain.Actor, resource, resourceID string, err error) {
	status, details := "success", ""
	if err != nil {
		status, details = string(domain.KindOf(err)), err.Error()
	}
	al.LogAction(ctx, actor, "delete", resource, resourceID, status, details)
}
