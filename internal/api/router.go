// Package api wires the HTTP routes and middleware chain.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/GleristonCastro/dio-gesinfopro/internal/api/handlers"
	"github.com/GleristonCastro/dio-gesinfopro/internal/api/middleware"
	"github.com/GleristonCastro/dio-gesinfopro/internal/assistant"
)

// NewRouter builds the HTTP router with all routes registered.
func NewRouter(a *assistant.Assistant, log zerolog.Logger) http.Handler {
	h := handlers.New(a)

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS)

	r.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(middleware.Owner)
	authed.HandleFunc("/chat", h.Chat).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/reports/insights", h.Insights).Methods(http.MethodGet, http.MethodOptions)

	return r
}
