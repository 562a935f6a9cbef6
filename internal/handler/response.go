package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/security/middleware"
)

// SuccessResponse wraps every successful payload
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorBody describes a failure
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps every failure
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ListResponse is the data of a paginated listing
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func newList[E, T any](res *domain.ListResult[E], conv func(E) T) ListResponse[T] {
	items := make([]T, 0, len(res.Items))
	for _, e := range res.Items {
		items = append(items, conv(e))
	}
	return ListResponse[T]{Items: items, Total: res.Total, Page: res.Page.Number, Limit: res.Page.Limit}
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{Success: true, Data: data})
}

// writeError renders err in the error envelope. Server errors are logged
// and their detail is withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorBody{Code: string(kind), Message: msg}})
}

// decodeJSON reads a JSON body into v. An empty body decodes to the zero value.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.Validation("invalid request body: %v", err)
	}
	return nil
}

// actor extracts the authenticated caller, failing with Unauthenticated
func actor(r *http.Request) (domain.Actor, error) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return domain.Actor{}, domain.Unauthenticated("authentication required")
	}
	return a, nil
}

// Pagination holds the configured page bounds
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// page parses ?page=&limit= against the configured bounds
func (p Pagination) page(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	pg := domain.Page{Number: 1, Limit: p.DefaultLimit}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return pg, domain.Validation("page must be a positive integer")
		}
		pg.Number = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return pg, domain.Validation("limit must be a positive integer")
		}
		pg.Limit = min(n, p.MaxLimit)
	}
	if pg.Limit < 1 {
		pg.Limit = domain.DefaultPageLimit
	}
	return pg.Normalize(), nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, domain.Validation("%s must be true or false", key)
	}
	return &b, nil
}

func queryInt(r *http.Request, key string) (*int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, domain.Validation("%s must be an integer", key)
	}
	return &n, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates
func queryTime(r *http.Request, key string) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := parseTime(v)
	if err != nil {
		return nil, domain.Validation("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", key)
	}
	return &t, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, v)
}

// Date accepts "2006-01-02" or RFC 3339 in request bodies
type Date struct {
	time.Time
}

// UnmarshalJSON accepts YYYY-MM-DD or RFC 3339
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
