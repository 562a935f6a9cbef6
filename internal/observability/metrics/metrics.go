package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentdesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentdesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	rentRequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentdesk_rent_request_transitions_total",
		Help: "Rent request status transitions by source, target and outcome",
	}, []string{"from", "to", "result"})

	siblingsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentdesk_siblings_rejected_total",
		Help: "Pending rent requests rejected because a sibling was accepted",
	})

	housesRented = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentdesk_houses_rented",
		Help: "Net change in rented houses since process start",
	})

	remindersDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentdesk_reminders_dispatched_total",
		Help: "Reminders processed by the dispatcher by result",
	}, []string{"result"})

	paymentsOverdue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentdesk_payments_overdue_total",
		Help: "Payments flipped to overdue by the sweeper",
	})

	houseCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentdesk_house_cache_total",
		Help: "House read cache lookups by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveTransition records a rent request transition attempt.
// result is "ok" or an error kind.
func ObserveTransition(from, to, result string) {
	rentRequestTransitions.WithLabelValues(from, to, result).Inc()
}

// ObserveSiblingsRejected counts requests auto-rejected by an acceptance
func ObserveSiblingsRejected(n int) {
	if n > 0 {
		siblingsRejected.Add(float64(n))
	}
}

// HouseRented moves the rented gauge up
func HouseRented() {
	housesRented.Inc()
}

// HouseReleased moves the rented gauge down
func HouseReleased() {
	housesRented.Dec()
}

// ObserveReminderDispatch records one dispatcher outcome ("sent", "failed", "skipped")
func ObserveReminderDispatch(result string) {
	remindersDispatched.WithLabelValues(result).Inc()
}

// ObserveOverdue counts payments marked overdue in one sweep
func ObserveOverdue(n int64) {
	if n > 0 {
		paymentsOverdue.Add(float64(n))
	}
}

// ObserveHouseCache records a cache lookup ("hit", "miss", "error")
func ObserveHouseCache(result string) {
	houseCache.WithLabelValues(result).Inc()
}
