// Package handlers implements the HTTP API of the course matcher.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"course-matcher/internal/circuitbreaker"
	"course-matcher/internal/common/errors"
	"course-matcher/internal/common/logging"
	"course-matcher/internal/matcher"
	"course-matcher/internal/storage"
)

// Comparer runs comparisons and cache invalidations. *matcher.Service
// satisfies it.
type Comparer interface {
	Compare(ctx context.Context, req matcher.CompareRequest) (*matcher.Result, error)
	Invalidate(ctx context.Context, url string) (bool, error)
}

// HealthChecker is implemented by the cache stores
type HealthChecker interface {
	Health(ctx context.Context) error
}

// BreakerReporter exposes the oracle circuit breaker. A nil snapshot means
// the breaker is disabled.
type BreakerReporter interface {
	BreakerStats() *circuitbreaker.Stats
}

type Handlers struct {
	comparer Comparer
	records  storage.Store
	cache    HealthChecker
	breaker  BreakerReporter
	version  string
}

// DetailResponse is the body of every error and of informational replies
type DetailResponse struct {
	Detail string `json:"detail"`
}

// New wires the handlers. records and breaker may be nil.
func New(comparer Comparer, records storage.Store, cache HealthChecker, breaker BreakerReporter, version string) *Handlers {
	return &Handlers{
		comparer: comparer,
		records:  records,
		cache:    cache,
		breaker:  breaker,
		version:  version,
	}
}

func (h *Handlers) sendJSONResponse(w http.ResponseWriter, data interface{}) {
	h.sendJSONStatus(w, http.StatusOK, data)
}

func (h *Handlers) sendJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error("Failed to encode response", err)
	}
}

// sendError writes err as {"detail": ...} with the status its type maps to.
// Internal causes are logged, not returned to the client.
func (h *Handlers) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	detail := err.Error()
	if appErr, ok := errors.As(err); ok {
		detail = appErr.Message
		if appErr.Type == errors.ErrTypeFetch || appErr.Type == errors.ErrTypeCache || appErr.Type == errors.ErrTypeComparison {
			if appErr.Cause != nil {
				detail = appErr.Message + ": " + appErr.Cause.Error()
			}
		}
	} else {
		detail = "internal server error"
	}

	logger := logging.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, logging.Field{"path", r.URL.Path}, logging.Field{"status", status})
	} else {
		logger.Warn("Request rejected", logging.Field{"path", r.URL.Path}, logging.Field{"status", status}, logging.Field{"error", err.Error()})
	}

	h.sendJSONStatus(w, status, DetailResponse{Detail: detail})
}

func (h *Handlers) sendDetail(w http.ResponseWriter, status int, detail string) {
	h.sendJSONStatus(w, status, DetailResponse{Detail: detail})
}
