// Package telemetry provides minimal, low-overhead request instrumentation:
// a duration histogram per method/path plus a log line for slow
// requests. Full tracing is deliberately out of scope for this service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chatsync/pkg/logger"
)

var slowThreshold = 200 * time.Millisecond

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "chatsync_request_duration_seconds",
	Help:    "HTTP request latency.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware records request timing and logs requests slower than the
// threshold.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		dur := time.Since(start)

		requestDuration.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(srw.status)).Observe(dur.Seconds())

		if dur > slowThreshold {
			logger.Warn("slow_request", "method", r.Method, "path", r.URL.Path,
				"status", srw.status, "duration_ms", dur.Milliseconds())
		}
	})
}
