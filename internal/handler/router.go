package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryan0dhankhar/rentdesk/internal/observability/metrics"
)

// Handlers groups every HTTP handler mounted by the router
type Handlers struct {
	Auth          *AuthHandler
	Health        *HealthHandler
	Houses        *HouseHandler
	RentRequests  *RentRequestHandler
	Leases        *LeaseHandler
	Payments      *PaymentHandler
	Reminders     *ReminderHandler
	Maintenance   *MaintenanceHandler
	Notifications *NotificationHandler
}

// NewRouter registers every route on a fresh ServeMux. Each route is
// instrumented under its pattern so metric labels stay bounded.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, metrics.InstrumentRoute(pattern, fn))
	}

	handle("GET /healthz", h.Health.Health)
	handle("GET /readyz", h.Health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	handle("POST /api/auth/register", h.Auth.Register)
	handle("POST /api/auth/login", h.Auth.Login)
	handle("POST /api/account/password", h.Auth.ChangePassword)

	handle("GET /api/houses", h.Houses.List)
	handle("POST /api/houses", h.Houses.Create)
	handle("GET /api/houses/mine", h.Houses.Mine)
	handle("GET /api/houses/{id}", h.Houses.Get)
	handle("PATCH /api/houses/{id}", h.Houses.Update)
	handle("DELETE /api/houses/{id}", h.Houses.Delete)

	handle("POST /api/rent-requests", h.RentRequests.Create)
	handle("GET /api/rent-requests", h.RentRequests.List)
	handle("GET /api/rent-requests/{id}", h.RentRequests.Get)
	handle("PATCH /api/rent-requests/{id}/status", h.RentRequests.UpdateStatus)
	handle("DELETE /api/rent-requests/{id}", h.RentRequests.Delete)

	handle("POST /api/leases", h.Leases.Create)
	handle("GET /api/leases", h.Leases.List)
	handle("GET /api/leases/{id}", h.Leases.Get)
	handle("PATCH /api/leases/{id}", h.Leases.Update)
	handle("DELETE /api/leases/{id}", h.Leases.Delete)

	handle("POST /api/payments", h.Payments.Create)
	handle("GET /api/payments", h.Payments.List)
	handle("GET /api/payments/{id}", h.Payments.Get)
	handle("POST /api/payments/{id}/apply", h.Payments.Apply)
	handle("DELETE /api/payments/{id}", h.Payments.Delete)

	handle("POST /api/reminders", h.Reminders.Create)
	handle("GET /api/reminders", h.Reminders.List)
	handle("GET /api/reminders/{id}", h.Reminders.Get)
	handle("PATCH /api/reminders/{id}", h.Reminders.Update)
	handle("POST /api/reminders/{id}/sent", h.Reminders.MarkSent)
	handle("DELETE /api/reminders/{id}", h.Reminders.Delete)

	handle("POST /api/maintenance", h.Maintenance.Create)
	handle("GET /api/maintenance", h.Maintenance.List)
	handle("GET /api/maintenance/{id}", h.Maintenance.Get)
	handle("PATCH /api/maintenance/{id}", h.Maintenance.Update)
	handle("DELETE /api/maintenance/{id}", h.Maintenance.Delete)

	handle("GET /api/notifications", h.Notifications.List)
	handle("GET /api/notifications/unread-count", h.Notifications.UnreadCount)
	handle("POST /api/notifications/read", h.Notifications.MarkRead)
	handle("POST /api/notifications/read-all", h.Notifications.MarkAllRead)
	handle("DELETE /api/notifications", h.Notifications.Delete)
	handle("GET /ws/notifications", h.Notifications.Stream)

	return mux
}
