package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/rentdesk/internal/app"
	"github.com/aryan0dhankhar/rentdesk/internal/featureflags"
	"github.com/aryan0dhankhar/rentdesk/internal/handler"
	"github.com/aryan0dhankhar/rentdesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/rentdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/rentdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/rentdesk/internal/security/ratelimit"
	"github.com/aryan0dhankhar/rentdesk/internal/worker"
	"github.com/aryan0dhankhar/rentdesk/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting rentdesk server",
		slog.String("environment", cfg.Environment),
		slog.String("storage", cfg.StorageDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (no-op when no OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "rentdesk", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Storage, migrations and house cache
	backend, err := app.Open(ctx, cfg, log, true)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()

	// 5. Services
	svc := app.NewServices(backend.Store, cfg, featureflags.NewEnv(), log)

	// 6. Handlers and routes
	pages := handler.Pagination{DefaultLimit: cfg.DefaultPageSize, MaxLimit: cfg.MaxPageSize}
	mux := handler.NewRouter(handler.Handlers{
		Auth: handler.NewAuthHandler(svc.Auth, log),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": backend.DB,
			"redis":    backend.Redis,
		}, log),
		Houses:        handler.NewHouseHandler(svc.Houses, pages, log),
		RentRequests:  handler.NewRentRequestHandler(svc.RentRequests, pages, log),
		Leases:        handler.NewLeaseHandler(svc.Leases, pages, log),
		Payments:      handler.NewPaymentHandler(svc.Payments, pages, log),
		Reminders:     handler.NewReminderHandler(svc.Reminders, pages, log),
		Maintenance:   handler.NewMaintenanceHandler(svc.Maintenance, pages, log),
		Notifications: handler.NewNotificationHandler(svc.Notifications, pages, cfg.CORSAllowedOrigins, log),
	})

	// 7. Middleware chain: request id -> logging -> sanitize -> JWT -> rate limit -> audit -> content type
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	var root http.Handler = mux
	root = middleware.ValidateJSONContentType(log)(root)
	root = middleware.AuditMiddleware(svc.Audit)(root)
	root = middleware.RateLimitMiddleware(rateLimiter, log)(root)
	root = middleware.JWTMiddleware(svc.Tokens, log)(root)
	root = middleware.SanitizeInputs(log)(root)
	root = middleware.RequestLogger(log)(root)
	root = middleware.RequestID(root)
	root = otelhttp.NewHandler(root, "rentdesk",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	)
	root = withCORS(cfg.CORSAllowedOrigins, root)

	// 8. Background jobs
	scheduler := worker.NewScheduler(log, 5*time.Minute)
	jobs := []struct {
		spec string
		job  worker.Job
	}{
		{cfg.ReminderDispatchSchedule, worker.NewReminderDispatcher(svc.Reminders, worker.DefaultDispatchBatch, log)},
		{cfg.OverdueSweepSchedule, worker.NewOverdueSweeper(svc.Payments, log)},
	}
	for _, j := range jobs {
		if err := scheduler.Add(j.spec, j.job); err != nil {
			log.Error("failed to schedule job", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	scheduler.Start()

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Float64("rate_limit_rps", cfg.RateLimitRPS),
		slog.Int("rate_limit_burst", cfg.RateLimitBurst),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("server error", slog.String("error", err.Error()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error("scheduler did not stop in time", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	log.Info("server stopped")
}

// withCORS answers preflight requests and echoes allowed origins
func withCORS(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(allowed) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", allowed[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}, ", "))
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
