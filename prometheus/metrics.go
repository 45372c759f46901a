package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login attempts by result ("success", "failure")
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Total number of login attempts",
		},
		[]string{"method", "result"}, // method is "credentials" or an oauth provider
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_register_total",
			Help: "Total number of tenant registrations",
		},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // user_not_found, invalid_password, tenant_deleted, invalid_token...
	)

	// Tenants created by source
	TenantProvisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_provisioned_total",
			Help: "Total number of tenants created",
		},
		[]string{"source"}, // "register" or "oauth"
	)

	// Session refresh keys dropped because they are not client refreshable
	SessionRefreshRejectedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_refresh_rejected_keys_total",
			Help: "Claim keys rejected during session refresh",
		},
		[]string{"key"},
	)

	// Rate limit decisions
	RateLimitDecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Total number of rate limit decisions",
		},
		[]string{"action", "decision"}, // decision is "allowed" or "rejected"
	)

	// Checks that failed open because the store was unavailable
	RateLimitDegradedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_degraded_total",
			Help: "Rate limit checks allowed because the backing store was unavailable",
		},
		[]string{"action"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Rate limit store round trip
	RateLimitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratelimit_check_duration_seconds",
			Help:    "Duration of rate limit store round trips in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"action"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tenantguard_info",
			Help: "Information about the service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantProvisionCounter)
	prometheus.MustRegister(SessionRefreshRejectedCounter)
	prometheus.MustRegister(RateLimitDecisionCounter)
	prometheus.MustRegister(RateLimitDegradedCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(RateLimitDuration)

	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations. Call the returned func when done.
func TrackDBOperation(operation string) func() {
	startTime := time.Now()
	return func() {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// RecordLogin records a login attempt
func RecordLogin(method string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	LoginCounter.With(prometheus.Labels{"method": method, "result": result}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantProvisioned records a created tenant
func RecordTenantProvisioned(source string) {
	TenantProvisionCounter.With(prometheus.Labels{"source": source}).Inc()
}

// RecordRefreshRejected records a claim key dropped during refresh
func RecordRefreshRejected(key string) {
	SessionRefreshRejectedCounter.With(prometheus.Labels{"key": key}).Inc()
}

// RecordRateLimit records a rate limit decision and how long the store took
func RecordRateLimit(action string, allowed bool, took time.Duration) {
	decision := "rejected"
	if allowed {
		decision = "allowed"
	}
	RateLimitDecisionCounter.With(prometheus.Labels{"action": action, "decision": decision}).Inc()
	RateLimitDuration.With(prometheus.Labels{"action": action}).Observe(took.Seconds())
}

// RecordRateLimitDegraded records a check that failed open
func RecordRateLimitDegraded(action string) {
	RateLimitDegradedCounter.With(prometheus.Labels{"action": action}).Inc()
}
