package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"course-matcher/internal/common/logging"
)

// Middleware rejects requests over policy with 429 before they reach the
// handler. A limiter failure is answered with 500 rather than letting the
// request through.
func Middleware(limiter Limiter, policy Policy, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := keyFunc(r)

			allowed, err := policy.Allow(r.Context(), limiter, identity)
			if err != nil {
				logging.WithContext(r.Context()).Error("Rate limit check failed", err,
					logging.Field{"policy", policy.Name},
					logging.Field{"identity", identity},
				)
				writeDetail(w, http.StatusInternalServerError, "rate limit check failed")
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", policy.Limit))

			if !allowed {
				logging.WithContext(r.Context()).Warn("Rate limit exceeded",
					logging.Field{"policy", policy.Name},
					logging.Field{"identity", identity},
				)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(policy.Window.Seconds())))
				writeDetail(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKey identifies the caller by client address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then the connection's remote host.
func IPKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
