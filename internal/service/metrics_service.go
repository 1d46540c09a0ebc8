package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the storefront:
// HTTP request metrics plus the checkout poller's lifecycle counters.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	checkoutStarted  prometheus.Counter
	checkoutOutcomes *prometheus.CounterVec
	pollsPerAttempt  prometheus.Histogram
	verifyCalls      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	checkoutStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_attempts_started_total",
		Help: "Checkout attempts initiated",
	})

	checkoutOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_finished_total",
		Help: "Checkout attempts by terminal state",
	}, []string{"state"})

	pollsPerAttempt := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_polls_per_attempt",
		Help:    "Verification polls consumed per finished attempt",
		Buckets: []float64{1, 2, 5, 10, 20, 45, 90},
	})

	verifyCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_verify_calls_total",
		Help: "Payment verification calls by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, checkoutStarted, checkoutOutcomes, pollsPerAttempt, verifyCalls, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		checkoutStarted:  checkoutStarted,
		checkoutOutcomes: checkoutOutcomes,
		pollsPerAttempt:  pollsPerAttempt,
		verifyCalls:      verifyCalls,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveCheckoutStarted counts a newly initiated attempt.
func (m *MetricsService) ObserveCheckoutStarted() {
	if m == nil {
		return
	}
	m.checkoutStarted.Inc()
}

// ObserveCheckoutOutcome records a terminal attempt state and the polls it used.
func (m *MetricsService) ObserveCheckoutOutcome(state models.AttemptState, attemptsMade int) {
	if m == nil {
		return
	}
	m.checkoutOutcomes.WithLabelValues(string(state)).Inc()
	m.pollsPerAttempt.Observe(float64(attemptsMade))
}

// ObserveVerifyCall counts one verification round-trip.
func (m *MetricsService) ObserveVerifyCall(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.verifyCalls.WithLabelValues(result).Inc()
}
