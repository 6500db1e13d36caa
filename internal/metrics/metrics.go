package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the try-on service collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tryon",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tryon",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tryon",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		[]string{"method", "path"},
	)

	// GenerationsInFlight counts try-on generations currently holding a slot.
	GenerationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tryon",
			Subsystem: "generation",
			Name:      "inflight",
			Help:      "Current number of try-on generations in progress.",
		},
	)

	tryOnTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tryon",
			Subsystem: "generation",
			Name:      "total",
			Help:      "Total number of try-on generations by outcome.",
		},
		[]string{"outcome"},
	)

	tryOnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tryon",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of try-on generations including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
		[]string{"outcome"},
	)

	upstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tryon",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total number of image model calls.",
		},
		[]string{"model", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tryon",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Duration of single image model calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"model"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		GenerationsInFlight,
		tryOnTotal,
		tryOnDuration,
		upstreamCalls,
		upstreamDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveTryOn records one orchestrated try-on run.
func ObserveTryOn(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	tryOnTotal.WithLabelValues(outcome).Inc()
	tryOnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveUpstreamCall records a single call to the image model.
func ObserveUpstreamCall(model, outcome string, duration time.Duration) {
	if model == "" {
		model = "unknown"
	}
	upstreamCalls.WithLabelValues(model, outcome).Inc()
	upstreamDuration.WithLabelValues(model).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

var knownPaths = map[string]struct{}{
	"/api/tryon":                {},
	"/api/generate":             {},
	"/api/products":             {},
	"/api/shopify-products":     {},
	"/api/test-ai":              {},
	"/.netlify/functions/tryon": {},
	"/healthz":                  {},
}

// canonicalPath keeps label cardinality bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	path := "/" + strings.Trim(raw, "/")
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return "/other"
}
