package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector tracks request and error totals for the metrics
// endpoint. Counters are process-lifetime and monotonic.
type MetricsCollector struct {
	requests atomic.Int64
	errors   atomic.Int64
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// Requests returns the total number of requests served.
func (mc *MetricsCollector) Requests() int64 { return mc.requests.Load() }

// Errors returns the number of responses with a 4xx or 5xx status.
func (mc *MetricsCollector) Errors() int64 { return mc.errors.Load() }

// Middleware counts every request and every error response.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= http.StatusBadRequest {
			mc.errors.Add(1)
		}
	})
}
