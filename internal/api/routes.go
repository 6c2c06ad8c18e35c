package api

import (
	"time"

	"github.com/gorilla/mux"
)

// RegisterRoutes wires the optimizer's HTTP surface onto router.
func RegisterRoutes(router *mux.Router, config OptimizerAPIConfig) *Handler {
	handler := NewHandler(config)

	rateLimiter := NewRequestLimiter(config.RateLimit, time.Minute)

	router.Use(RequestIDMiddleware())
	router.Use(SecurityMiddleware())
	router.Use(RateLimitMiddleware(rateLimiter))
	router.Use(APIKeyMiddleware())

	router.HandleFunc("/api/optimize", handler.Optimize).Methods("POST")
	router.HandleFunc("/api/objectives", handler.ListObjectives).Methods("GET")

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.HandleFunc("/healthz", handler.HealthCheck).Methods("GET")

	return handler
}
