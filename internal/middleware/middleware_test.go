package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-matcher/internal/common/logging"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(RequestIDHeader, "req-42.a_b")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "req-42.a_b", seen)
		assert.Equal(t, "req-42.a_b", rr.Header().Get(RequestIDHeader))
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set(RequestIDHeader, "bad id\nInjected: yes")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.NotEqual(t, "bad id\nInjected: yes", seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"ok", http.StatusOK},
		{"client error", http.StatusUnprocessableEntity},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("POST", "/compare-courses?debug=1", nil))
			assert.Equal(t, tt.status, rr.Code)
		})
	}

	t.Run("status defaults to 200", func(t *testing.T) {
		wrapped := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		_, _ = wrapped.Write([]byte("ok"))
		assert.Equal(t, http.StatusOK, wrapped.statusCode)
		assert.Equal(t, 2, wrapped.bytes)
	})
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger, err := logging.NewZapLogger(logging.LogConfig{Level: logging.DebugLevel, Output: &buf})
	require.NoError(t, err)

	previous := logging.GetGlobalLogger()
	logging.SetGlobalLogger(logger)
	t.Cleanup(func() { logging.SetGlobalLogger(previous) })
	return &buf
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	t.Run("logs route template", func(t *testing.T) {
		buf := captureLogs(t)

		router := mux.NewRouter()
		router.Use(LoggingMiddleware)
		router.HandleFunc("/matches/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":17}`))
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/matches/17", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		out := buf.String()
		assert.Contains(t, out, "/matches/{id:[0-9]+}")
		assert.NotContains(t, out, "/matches/17")
		assert.Contains(t, out, `"bytes": 9`)
		assert.NotContains(t, out, "rate_limit")
	})

	t.Run("flags throttled requests", func(t *testing.T) {
		buf := captureLogs(t)

		handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "10")
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/compare-courses", nil))
		require.Equal(t, http.StatusTooManyRequests, rr.Code)

		out := buf.String()
		assert.Contains(t, out, "WARN")
		assert.Contains(t, out, `"rate_limit": "10"`)
		assert.Contains(t, out, `"rate_limited": true`)
		assert.Contains(t, out, `"route": "/compare-courses"`)
	})
}
