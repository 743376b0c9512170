package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planner", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status", "outcome"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "planner", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planner", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "planner", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planner", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	DragEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planner", Name: "drag_events_total", Help: "Drag state machine transitions."},
		[]string{"event"}, // begin|hover|deferred|drop|cancel:<reason>
	)
	DropOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planner", Name: "drop_outcomes_total", Help: "Resolved drops and inserts."},
		[]string{"outcome"}, // moved|noop|error|inserted
	)
	PersistCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "planner", Name: "persist_calls_total", Help: "Background persistence calls."},
		[]string{"op", "result"}, // result: ok|error|dropped
	)
	ResolveLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "planner", Name: "resolve_duration_seconds",
			Help:    "Reorder resolution duration seconds.",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)
)

// MetricsServer serves reg on its own listener at addr.
func MetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve starts MetricsServer in the background; empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	srv := MetricsServer(addr, reg)
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		DragEvents, DropOutcomes, PersistCalls, ResolveLatency)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Outcome buckets a response status the way planner clients act on it.
func Outcome(status int) string {
	switch {
	case status < 400:
		return "ok"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "conflict" // drag not active or drop in flight
	case status < 500:
		return "invalid"
	default:
		return "error"
	}
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status), Outcome(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveDrag(event string) { DragEvents.WithLabelValues(event).Inc() }

func ObserveDrop(outcome string, dur time.Duration) {
	DropOutcomes.WithLabelValues(outcome).Inc()
	if dur > 0 {
		ResolveLatency.Observe(dur.Seconds())
	}
}

func ObservePersist(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PersistCalls.WithLabelValues(op, result).Inc()
}

func ObservePersistDropped(op string) { PersistCalls.WithLabelValues(op, "dropped").Inc() }

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}
