// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the QR menu platform.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for CRUD/auth request
// latencies, ranging from 1ms to 5s.
var APIBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuqr_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menuqr_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method"},
	)

	// LoginsTotal counts login attempts by outcome (success, invalid_credentials, error).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuqr_logins_total",
			Help: "Login attempts",
		},
		[]string{"result"},
	)

	// RegistrationsTotal counts registration attempts by outcome (success, duplicate, error).
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuqr_registrations_total",
			Help: "Registration attempts",
		},
		[]string{"result"},
	)

	// TokensIssuedTotal counts issued tokens by type (access, refresh).
	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuqr_tokens_issued_total",
			Help: "Issued session tokens",
		},
		[]string{"type"},
	)

	// TokenVerificationsTotal counts token verifications by result
	// (success, or the guard rejection reason).
	TokenVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuqr_token_verifications_total",
			Help: "Token verifications",
		},
		[]string{"result"},
	)

	// TenantRejectionsTotal counts requests rejected by the tenant
	// isolation guard, by reason.
	TenantRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuqr_tenant_rejections_total",
			Help: "Guard rejections",
		},
		[]string{"reason"},
	)

	// RateLimitRejectedTotal counts credential attempts rejected by the
	// login rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuqr_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		LoginsTotal,
		RegistrationsTotal,
		TokensIssuedTotal,
		TokenVerificationsTotal,
		TenantRejectionsTotal,
		RateLimitRejectedTotal,
	)
}
