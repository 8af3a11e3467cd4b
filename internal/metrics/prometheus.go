package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "canteen"

var (
	registerOnce sync.Once

	placements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "placements_total",
			Help:      "Dishes placed into the weekly grid.",
		},
		[]string{"day", "meal"},
	)
	removals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "removals_total",
			Help:      "Entries removed from the weekly grid.",
		},
	)
	cancelledDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "cancelled_drops_total",
			Help:      "Drags that ended without a placement.",
		},
		[]string{"reason"},
	)
	savedPlans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "saved_plans_total",
			Help:      "Plan snapshots saved.",
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Planner sessions currently held in memory.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Cancel reasons.
const (
	ReasonUser      = "user"
	ReasonMalformed = "malformed_payload"
	ReasonTarget    = "invalid_target"
	ReasonIdle      = "not_dragging"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			placements, removals, cancelledDrops, savedPlans,
			activeSessions, httpRequests, httpDuration,
		)
	})
}

func RecordPlacement(day, meal string) {
	RegisterMetrics()
	placements.WithLabelValues(day, meal).Inc()
}

func RecordRemoval() {
	RegisterMetrics()
	removals.Inc()
}

func RecordCancelledDrop(reason string) {
	RegisterMetrics()
	cancelledDrops.WithLabelValues(reason).Inc()
}

func RecordSavedPlan() {
	RegisterMetrics()
	savedPlans.Inc()
}

func SetActiveSessions(n int) {
	RegisterMetrics()
	activeSessions.Set(float64(n))
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
