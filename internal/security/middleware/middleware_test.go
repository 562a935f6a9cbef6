package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/security/audit"
	"github.com/aryan0dhankhar/rentdesk/internal/security/auth"
	"github.com/aryan0dhankhar/rentdesk/internal/security/ratelimit"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoActor writes the authenticated user id, or "anonymous"
var echoActor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(actor.UserID + "/" + string(actor.Role)))
})

func TestJWTMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("secret", "")
	token, err := tm.GenerateToken("tenant-1", "t@example.com", domain.RoleTenant, time.Minute)
	require.NoError(t, err)
	h := JWTMiddleware(tm, quietLogger())(echoActor)

	cases := []struct {
		name       string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"public auth path", "/api/auth/login", "", http.StatusOK, "anonymous"},
		{"health", "/healthz", "", http.StatusOK, "anonymous"},
		{"missing header", "/api/houses", "", http.StatusUnauthorized, ""},
		{"malformed header", "/api/houses", "Token abc", http.StatusUnauthorized, ""},
		{"bad token", "/api/houses", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid bearer", "/api/houses", "Bearer " + token, http.StatusOK, "tenant-1/tenant"},
		{"websocket query token", "/ws/notifications?token=" + token, "", http.StatusOK, "tenant-1/tenant"},
		{"query token ignored outside ws", "/api/houses?token=" + token, "", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantStatus == http.StatusUnauthorized {
				var body struct {
					Success bool `json:"success"`
					Error   struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.False(t, body.Success)
				assert.Equal(t, string(domain.KindAuthentication), body.Error.Code)
			}
		})
	}
}

func TestRateLimitMiddlewareKeysByUser(t *testing.T) {
	limiter := ratelimit.NewLimiter(0.001, 1)
	defer limiter.Stop()
	h := RateLimitMiddleware(limiter, quietLogger())(echoActor)

	call := func(ctx context.Context) int {
		req := httptest.NewRequest(http.MethodGet, "/api/houses", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	alice := WithActor(context.Background(), domain.Actor{UserID: "alice", Role: domain.RoleTenant})
	bob := WithActor(context.Background(), domain.Actor{UserID: "bob", Role: domain.RoleTenant})
	assert.Equal(t, http.StatusOK, call(alice))
	assert.Equal(t, http.StatusTooManyRequests, call(alice))
	assert.Equal(t, http.StatusOK, call(bob))
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = audit.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc", seen)
}

func TestAuditMiddlewareLogsWrites(t *testing.T) {
	var buf bytes.Buffer
	al := audit.NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	h := AuditMiddleware(al)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/houses", nil))
	assert.Zero(t, buf.Len(), "reads are not audited")

	req := httptest.NewRequest(http.MethodPost, "/api/rent-requests", nil)
	req = req.WithContext(WithActor(req.Context(), domain.Actor{UserID: "t1", Role: domain.RoleTenant}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "post", line["action"])
	assert.Equal(t, "t1", line["user_id"])
	assert.Equal(t, "Conflict", line["status"])
}

func TestValidateJSONContentType(t *testing.T) {
	h := ValidateJSONContentType(quietLogger())(echoActor)

	req := httptest.NewRequest(http.MethodPost, "/api/houses", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/houses", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSanitizeInputs(t *testing.T) {
	h := SanitizeInputs(quietLogger())(echoActor)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/houses?status=%3Cscript%3E", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/houses?status=available", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
