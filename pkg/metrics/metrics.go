// Package metrics exposes Prometheus collectors for the timesheet service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts requests by method, route pattern and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tms_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration tracks request latency by route pattern
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tms_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"method", "route"})

	// TimesheetsCreated counts timesheet rows actually inserted
	TimesheetsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tms_timesheets_created_total",
		Help: "Timesheets inserted by find-or-create",
	})

	// HierarchyCycles counts manager cycles met while walking the hierarchy
	HierarchyCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tms_hierarchy_cycles_total",
		Help: "Manager cycles detected during hierarchy traversal",
	}, []string{"operation"})

	// DailyLogsSaved counts daily log writes by mode (create, update, bulk)
	DailyLogsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tms_daily_logs_saved_total",
		Help: "Daily logs written by mode",
	}, []string{"mode"})
)

// Middleware records HTTPRequests and HTTPDuration. It must run inside a chi
// router so the matched route pattern is known.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
