package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	questionsTotal         *prometheus.CounterVec
	evidenceItems          *prometheus.HistogramVec
	caveatsTotal           *prometheus.CounterVec
	degradedTotal          *prometheus.CounterVec
	synthesisFailuresTotal *prometheus.CounterVec
	askDuration            *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litgraph",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "litgraph",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "litgraph",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	questionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litgraph",
			Subsystem: "ask",
			Name:      "questions_total",
			Help:      "Total answered questions by classified intent.",
		},
		[]string{"service", "intent"},
	)
	evidenceItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "litgraph",
			Subsystem: "ask",
			Name:      "evidence_items",
			Help:      "Distribution of evidence items per answered question.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	caveatsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litgraph",
			Subsystem: "ask",
			Name:      "caveats_total",
			Help:      "Total emitted evidence caveats by kind.",
		},
		[]string{"service", "caveat"},
	)
	degradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litgraph",
			Subsystem: "ask",
			Name:      "degraded_retrievals_total",
			Help:      "Total questions answered with one retrieval source down.",
		},
		[]string{"service", "source"},
	)
	synthesisFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "litgraph",
			Subsystem: "ask",
			Name:      "synthesis_failures_total",
			Help:      "Total questions where answer synthesis failed after retry.",
		},
		[]string{"service"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "litgraph",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Ask pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "intent"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		questionsTotal,
		evidenceItems,
		caveatsTotal,
		degradedTotal,
		synthesisFailuresTotal,
		askDuration,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		questionsTotal:         questionsTotal,
		evidenceItems:          evidenceItems,
		caveatsTotal:           caveatsTotal,
		degradedTotal:          degradedTotal,
		synthesisFailuresTotal: synthesisFailuresTotal,
		askDuration:            askDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/corpus/"):
		return "/v1/corpus/{corpus_id}"
	default:
		return path
	}
}

// RecordQuestion tracks one completed ask request: the classified intent,
// how much evidence backed the answer, and how long the pipeline took.
func (m *HTTPServerMetrics) RecordQuestion(service, intent string, evidenceCount int, duration time.Duration) {
	if intent == "" {
		intent = "unknown"
	}
	m.questionsTotal.WithLabelValues(service, intent).Inc()
	m.evidenceItems.WithLabelValues(service).Observe(float64(evidenceCount))
	m.askDuration.WithLabelValues(service, intent).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordCaveats(service string, caveats []string) {
	for _, caveat := range caveats {
		tag := caveat
		if idx := strings.Index(tag, ":"); idx > 0 {
			tag = tag[:idx]
		}
		m.caveatsTotal.WithLabelValues(service, tag).Inc()
	}
}

func (m *HTTPServerMetrics) RecordDegradedRetrieval(service, source string) {
	if source == "" {
		source = "unknown"
	}
	m.degradedTotal.WithLabelValues(service, source).Inc()
}

func (m *HTTPServerMetrics) RecordSynthesisFailure(service string) {
	m.synthesisFailuresTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
