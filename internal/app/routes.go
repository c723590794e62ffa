package app

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"course-matcher/internal/handlers"
	"course-matcher/internal/middleware"
	"course-matcher/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes for the application. A nil limiter
// disables rate limiting.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, limiter ratelimit.Limiter) {
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)

	limited := func(policy ratelimit.Policy, handler http.HandlerFunc) http.Handler {
		if limiter == nil {
			return handler
		}
		return ratelimit.Middleware(limiter, policy, ratelimit.IPKey)(handler)
	}

	router.Handle("/compare-courses", limited(ratelimit.ComparePolicy, h.CompareCourses)).Methods("POST")
	router.Handle("/invalidate-cache", limited(ratelimit.InvalidatePolicy, h.InvalidateCache)).Methods("POST")

	router.HandleFunc("/matches", h.GetMatches).Methods("GET")
	router.HandleFunc("/matches/{id:[0-9]+}", h.GetMatch).Methods("GET")
	router.HandleFunc("/matches/{id:[0-9]+}", h.UpdateMatch).Methods("PUT")
	router.HandleFunc("/matches/{id:[0-9]+}", h.DeleteMatch).Methods("DELETE")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
}

// Handler builds the HTTP handler for the application
func (app *App) Handler() http.Handler {
	h := handlers.New(app.Matcher, app.Records, app.Cache, app.Oracle, Version)

	router := mux.NewRouter()
	SetupRoutes(router, h, app.Limiter)
	return router
}
