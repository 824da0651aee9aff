package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks requests by method, route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// Report lifecycle metrics
var (
	// ReportsSubmittedTotal tracks report submissions per event
	ReportsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "Total number of incident reports submitted",
		},
		[]string{"event_id"},
	)

	// ReportTransitionsTotal tracks lifecycle transitions by from/to state
	ReportTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_transitions_total",
			Help: "Total number of report state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	// ReportTransitionConflictsTotal tracks optimistic concurrency conflicts
	ReportTransitionConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_transition_conflicts_total",
			Help: "Total number of report transitions rejected due to concurrent updates",
		},
	)

	// ReportTransitionDeniedTotal tracks transitions rejected by guards
	ReportTransitionDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_transitions_denied_total",
			Help: "Total number of report transitions denied by lifecycle guards",
		},
		[]string{"reason"},
	)
)

// Notification metrics
var (
	// NotificationsCreatedTotal tracks notification records created by type
	NotificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification records created",
		},
		[]string{"type"},
	)

	// NotificationEmailsEnqueuedTotal tracks emails enqueued for delivery
	NotificationEmailsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_emails_enqueued_total",
			Help: "Total number of notification emails enqueued",
		},
		[]string{"type"},
	)

	// NotificationLegacyTypeTotal tracks legacy notification type aliases seen
	NotificationLegacyTypeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_legacy_type_total",
			Help: "Total number of notifications dispatched with a legacy type alias",
		},
		[]string{"alias"},
	)

	// NotificationsPurgedTotal tracks read notifications purged by retention
	NotificationsPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_purged_total",
			Help: "Total number of read notifications purged",
		},
	)
)

// Auth metrics
var (
	// LoginAttemptsTotal tracks login attempts by outcome
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// PasswordResetRequestsTotal tracks password reset requests by outcome
	PasswordResetRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_reset_requests_total",
			Help: "Total number of password reset requests",
		},
		[]string{"outcome"},
	)
)
