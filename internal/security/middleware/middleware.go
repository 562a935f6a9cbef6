package middleware

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/security/audit"
	"github.com/aryan0dhankhar/rentdesk/internal/security/auth"
	"github.com/aryan0dhankhar/rentdesk/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// isPublic lists the endpoints that skip authentication
func isPublic(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics" ||
		strings.HasPrefix(path, "/api/auth/")
}

func writeError(w http.ResponseWriter, status int, kind domain.Kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": string(kind), "message": message},
	})
}

// RequestID tags every request with an id, reusing X-Request-ID when the caller sent one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(audit.WithRequestID(r.Context(), id)))
	})
}

// JWTMiddleware authenticates the bearer token and stores its claims in the context.
// Websocket upgrades cannot set headers from browsers, so /ws/ also accepts ?token=.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			var tokenString string
			authHeader := r.Header.Get("Authorization")
			switch {
			case authHeader != "":
				t, err := auth.ExtractToken(authHeader)
				if err != nil {
					writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "invalid auth")
					return
				}
				tokenString = t
			case strings.HasPrefix(r.URL.Path, "/ws/"):
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "missing auth")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, domain.KindAuthentication, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware limits per user, falling back to the client address
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			key := clientIP(r)
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				key = "user:" + claims.UserID
			}

			allowed := limiter.Allow(key)
			if allowed && r.URL.Path == "/api/auth/login" {
				allowed = limiter.AllowStrict(clientIP(r), 1, 5)
			}
			if !allowed {
				log.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, domain.KindValidation, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records every state-changing API call with its outcome
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions ||
				!strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			var actor domain.Actor
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				actor = claims.Actor()
			}
			status := "success"
			if rec.status >= 400 {
				status = http.StatusText(rec.status)
			}
			auditLog.LogAction(r.Context(), actor, strings.ToLower(r.Method), r.URL.Path, r.PathValue("id"), status,
				time.Since(start).String())
		})
	}
}

// RequestLogger writes one line per request
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			log.Info("http request",
				slog.String("request_id", audit.RequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// GetClaimsFromContext returns the JWT claims, or nil on public routes
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}

// ActorFromContext returns the authenticated actor, or false for anonymous requests
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	claims := GetClaimsFromContext(ctx)
	if claims == nil {
		return domain.Actor{}, false
	}
	return claims.Actor(), true
}

// WithActor is used by tests and internal callers to inject an identity
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ClaimsContextKey{}, &auth.Claims{UserID: actor.UserID, Role: actor.Role})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack lets websocket upgrades pass through the recorder
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
