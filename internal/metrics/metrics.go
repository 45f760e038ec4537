// Package metrics exposes Prometheus collectors for HTTP traffic and pet activity.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "virtualpet"

// Metrics holds the application collectors and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	petActions   *prometheus.CounterVec
	levelUps     prometheus.Counter
	conflicts    prometheus.Counter
	decayedPets  prometheus.Counter
	distressPets prometheus.Counter
	decaySweeps  prometheus.Counter
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		petActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pets",
			Name:      "actions_total",
			Help:      "Total number of applied pet interactions.",
		}, []string{"action"}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pets",
			Name:      "level_ups_total",
			Help:      "Total number of pet level ups.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pets",
			Name:      "version_conflicts_total",
			Help:      "Total number of concurrent update conflicts retried.",
		}),
		decayedPets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "pets_total",
			Help:      "Total number of pets decayed by the scheduler.",
		}),
		distressPets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "distressed_total",
			Help:      "Total number of decayed pets found in distress.",
		}),
		decaySweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decay",
			Name:      "sweeps_total",
			Help:      "Total number of decay sweeps run.",
		}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.petActions,
		m.levelUps,
		m.conflicts,
		m.decayedPets,
		m.distressPets,
		m.decaySweeps,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// TrackActiveUsers exposes count as a gauge read on every scrape
func (m *Metrics) TrackActiveUsers(count func() float64) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "active_users",
		Help:      "Number of users holding a live session.",
	}, count))
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveAction counts an applied interaction
func (m *Metrics) ObserveAction(action string, leveledUp bool) {
	m.petActions.WithLabelValues(action).Inc()
	if leveledUp {
		m.levelUps.Inc()
	}
}

// ObserveConflict counts a retried version conflict
func (m *Metrics) ObserveConflict() {
	m.conflicts.Inc()
}

// ObserveDecay counts one finished decay sweep
func (m *Metrics) ObserveDecay(decayed, distressed int) {
	m.decaySweeps.Inc()
	m.decayedPets.Add(float64(decayed))
	m.distressPets.Add(float64(distressed))
}

// Instrument wraps the handler with HTTP metrics collection. Requests are
// labelled with the chi route pattern so path parameters do not explode
// cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
