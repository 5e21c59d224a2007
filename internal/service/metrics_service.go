package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the onboarding
// service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	sessionsLive     prometheus.GaugeFunc
	submissionsTotal *prometheus.CounterVec
	draftWrites      prometheus.Counter
	uploadRejects    *prometheus.CounterVec
	pdfDuration      prometheus.Histogram
	pdfTotal         *prometheus.CounterVec
}

// NewMetricsService registers the collectors. sessionCount feeds the live
// session gauge and may be nil.
func NewMetricsService(sessionCount func() int) *MetricsService {
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

	sessionsLive := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "form_sessions_live",
		Help: "Number of in-memory form sessions",
	}, func() float64 {
		if sessionCount == nil {
			return 0
		}
		return float64(sessionCount())
	})

	submissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "form_submissions_total",
		Help: "Form submission outcomes",
	}, []string{"outcome"})

	draftWrites := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "form_draft_writes_total",
		Help: "Total draft autosave writes",
	})

	uploadRejects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "form_upload_rejects_total",
		Help: "Document uploads rejected by policy",
	}, []string{"reason"})

	pdfDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdf_generation_seconds",
		Help:    "Duration of joining form summary generation",
		Buckets: prometheus.DefBuckets,
	})

	pdfTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdf_generation_total",
		Help: "Summary generation outcomes",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, sessionsLive, submissionsTotal, draftWrites, uploadRejects, pdfDuration, pdfTotal, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		sessionsLive:     sessionsLive,
		submissionsTotal: submissionsTotal,
		draftWrites:      draftWrites,
		uploadRejects:    uploadRejects,
		pdfDuration:      pdfDuration,
		pdfTotal:         pdfTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveSubmission counts a pipeline outcome ("success", "validation",
// "upload", "persistence", "not_configured").
func (m *MetricsService) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDraftWrite counts one autosave write.
func (m *MetricsService) ObserveDraftWrite() {
	if m == nil {
		return
	}
	m.draftWrites.Inc()
}

// ObserveUploadReject counts a policy rejection ("size", "type", "count").
func (m *MetricsService) ObserveUploadReject(reason string) {
	if m == nil {
		return
	}
	m.uploadRejects.WithLabelValues(reason).Inc()
}

// ObservePDFGeneration records one summary generation attempt.
func (m *MetricsService) ObservePDFGeneration(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pdfTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.pdfDuration.Observe(duration.Seconds())
	}
}
