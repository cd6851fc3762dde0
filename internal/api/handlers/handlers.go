// Package handlers implements the HTTP API surface.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/GleristonCastro/dio-gesinfopro/internal/api/middleware"
	"github.com/GleristonCastro/dio-gesinfopro/internal/assistant"
	"github.com/GleristonCastro/dio-gesinfopro/internal/logger"
)

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	assistant *assistant.Assistant
}

// New creates a handler set.
func New(a *assistant.Assistant) *Handler {
	return &Handler{assistant: a}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat handles POST /api/chat: one conversational turn for the owner.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Mensagem vazia")
		return
	}

	reply, err := h.assistant.HandleMessage(r.Context(), ownerID, req.Message)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("user_id", ownerID).Msg("chat turn failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Erro ao processar mensagem")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reply)
}

// Insights handles GET /api/reports/insights: the monthly financial report.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	insights, err := h.assistant.MonthlyInsights(r.Context(), ownerID)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("user_id", ownerID).Msg("insights failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Erro ao gerar relatório")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, insights)
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
