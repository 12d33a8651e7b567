package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	ordersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcourt",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Order drafts submitted at checkout, by result.",
		},
		[]string{"result"},
	)

	catalogRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcourt",
			Subsystem: "catalog",
			Name:      "refreshes_total",
			Help:      "Catalog refreshes, by result.",
		},
		[]string{"result"},
	)

	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "foodcourt",
			Subsystem: "catalog",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of full catalog refreshes.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcourt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	Registry.MustRegister(ordersPlaced, catalogRefreshes, refreshDuration, httpRequests)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordOrderPlaced(ok bool) {
	ordersPlaced.WithLabelValues(result(ok)).Inc()
}

func RecordRefresh(ok bool, elapsed time.Duration) {
	catalogRefreshes.WithLabelValues(result(ok)).Inc()
	refreshDuration.Observe(elapsed.Seconds())
}

// InstrumentHandler counts requests by route template so ids do not
// explode label cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
