package metric

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every application metric.
const Namespace = "healthqr"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// QR code metrics
	TokensIssued  *prometheus.CounterVec
	Verifications *prometheus.CounterVec
	Scans         *prometheus.CounterVec

	// Patient metrics
	PatientsRegistered prometheus.Counter
	ReportsAdded       prometheus.Counter

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Storage metrics
	StorageErrors *prometheus.CounterVec
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus all application metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "qr_tokens_issued_total",
			Help:      "QR codes issued, by token shape.",
		}, []string{"shape"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "qr_verifications_total",
			Help:      "QR code verifications, by result and reason.",
		}, []string{"result", "reason"}),
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "qr_scans_total",
			Help:      "Resolved QR scans, by outcome.",
		}, []string{"status"}),
		PatientsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "patients_registered_total",
			Help:      "Patients registered since start.",
		}),
		ReportsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "medical_reports_added_total",
			Help:      "Medical reports added since start.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "storage_errors_total",
			Help:      "Storage operations that failed, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		r.TokensIssued,
		r.Verifications,
		r.Scans,
		r.PatientsRegistered,
		r.ReportsAdded,
		r.RequestsTotal,
		r.RequestDuration,
		r.StorageErrors,
	)
	return r
}

// Prometheus returns the underlying registry for components that register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// IncTokenIssued counts an issued code of the given shape ("extended" or "minimal").
func (r *Registry) IncTokenIssued(shape string) {
	r.TokensIssued.WithLabelValues(shape).Inc()
}

// ObserveVerification counts a verification outcome.
func (r *Registry) ObserveVerification(valid bool, reason string) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	if reason == "" {
		reason = "none"
	}
	r.Verifications.WithLabelValues(result, reason).Inc()
}

// IncScan counts a resolved scan.
func (r *Registry) IncScan(status string) {
	r.Scans.WithLabelValues(status).Inc()
}

// IncPatientRegistered counts a registration.
func (r *Registry) IncPatientRegistered() {
	r.PatientsRegistered.Inc()
}

// IncReportAdded counts an added medical report.
func (r *Registry) IncReportAdded() {
	r.ReportsAdded.Inc()
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncStorageError counts a failed storage operation.
func (r *Registry) IncStorageError(op string) {
	r.StorageErrors.WithLabelValues(op).Inc()
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns an HTTP handler for the /metrics endpoint of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}
