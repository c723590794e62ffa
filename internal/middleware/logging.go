package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"course-matcher/internal/common/logging"
)

// statusRecorder captures what the handler chain sent back
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(p []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}

// routeName returns the matched route template, so /matches/17 and
// /matches/18 log under the same name.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// LoggingMiddleware logs one line per request. Comparisons and
// invalidations carry the rate limit they were checked against; rejected
// ones are flagged so throttled clients are easy to find.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		fields := []logging.Field{
			{"method", r.Method},
			{"route", routeName(r)},
			{"status", rec.statusCode},
			{"bytes", rec.bytes},
			{"duration_ms", time.Since(start).Milliseconds()},
			{"remote_addr", r.RemoteAddr},
		}
		if limit := rec.Header().Get("X-RateLimit-Limit"); limit != "" {
			fields = append(fields, logging.Field{"rate_limit", limit})
		}
		if rec.statusCode == http.StatusTooManyRequests {
			fields = append(fields, logging.Field{"rate_limited", true})
		}
		if r.URL.RawQuery != "" {
			fields = append(fields, logging.Field{"query", r.URL.RawQuery})
		}

		logger := logging.WithContext(r.Context())
		switch {
		case rec.statusCode >= 500:
			logger.Error("HTTP request completed", nil, fields...)
		case rec.statusCode >= 400:
			logger.Warn("HTTP request completed", fields...)
		default:
			logger.Info("HTTP request completed", fields...)
		}
	})
}
