package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayDurationSeconds *prometheus.HistogramVec

	// Deployment metrics
	DeploymentsTotal   *prometheus.CounterVec
	DeploymentDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive       prometheus.Gauge
	SessionsCreatedTotal prometheus.Counter

	// Layout metrics
	ValidationsTotal *prometheus.CounterVec
	AutofixTotal     *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped  *prometheus.CounterVec
	LLMRateLimiterUsers prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Gateway metrics
		GatewayRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "richmenu_gateway_requests_total",
				Help: "Total number of studio gateway requests by path and status",
			},
			[]string{"path", "status"}, // status: success, error
		),

		GatewayDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "richmenu_gateway_duration_seconds",
				Help:    "Studio gateway request duration in seconds by path",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}, // Matches 30s gateway timeout
			},
			[]string{"path"}, // path: verifyLineLogin, verifyToken, verifyToken2, bankAccounts, verifySlip, setupRichMenu
		),

		// Deployment metrics
		DeploymentsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "richmenu_deployments_total",
				Help: "Total number of rich menu deployments by mode and status",
			},
			[]string{"mode", "status"}, // mode: gateway, direct; status: success, error
		),

		DeploymentDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "richmenu_deployment_duration_seconds",
				Help:    "Rich menu deployment duration in seconds by mode",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60}, // Image upload dominates
			},
			[]string{"mode"},
		),

		// Session metrics
		SessionsActive: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "richmenu_sessions_active",
				Help: "Number of live wizard sessions",
			},
		),

		SessionsCreatedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "richmenu_sessions_created_total",
				Help: "Total number of wizard sessions created",
			},
		),

		// Layout metrics
		ValidationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "richmenu_validations_total",
				Help: "Total number of layout validations by result",
			},
			[]string{"result"}, // result: valid, invalid
		),

		AutofixTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "richmenu_autofix_total",
				Help: "Total number of LLM layout autofix attempts by provider and status",
			},
			[]string{"provider", "status"}, // provider: gemini, groq; status: success, error, rejected
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "richmenu_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: rate_limit, bad_request, not_found, etc.
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "richmenu_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, llm
		),

		LLMRateLimiterUsers: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "richmenu_llm_rate_limiter_users",
				Help: "Number of users currently tracked by the LLM rate limiter",
			},
		),
	}

	return m
}

// RecordGatewayRequest records a studio gateway request with status
func (m *Metrics) RecordGatewayRequest(path, status string, duration float64) {
	m.GatewayRequestsTotal.WithLabelValues(path, status).Inc()
	m.GatewayDurationSeconds.WithLabelValues(path).Observe(duration)
}

// RecordDeployment records a rich menu deployment attempt
func (m *Metrics) RecordDeployment(mode, status string, duration float64) {
	m.DeploymentsTotal.WithLabelValues(mode, status).Inc()
	m.DeploymentDuration.WithLabelValues(mode).Observe(duration)
}

// RecordSessionCreated records a new wizard session
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreatedTotal.Inc()
}

// SetSessionsActive updates the live session gauge
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
}

// RecordValidation records a layout validation result
func (m *Metrics) RecordValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.ValidationsTotal.WithLabelValues(result).Inc()
}

// RecordAutofix records an LLM autofix attempt
func (m *Metrics) RecordAutofix(provider, status string) {
	m.AutofixTotal.WithLabelValues(provider, status).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetLLMRateLimiterUsers updates the LLM limiter user gauge
func (m *Metrics) SetLLMRateLimiterUsers(count int) {
	m.LLMRateLimiterUsers.Set(float64(count))
}
