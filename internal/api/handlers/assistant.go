package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/equilibra/equilibra/internal/api/middleware"
	"github.com/equilibra/equilibra/internal/assistant"
	"github.com/equilibra/equilibra/internal/export"
)

// AssistantHandler handles the conversational assistant endpoint.
type AssistantHandler struct {
	assistant *assistant.Assistant
	log       zerolog.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(a *assistant.Assistant, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: a, log: log}
}

// Chat handles POST /api/chat
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.assistant == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	var req struct {
		Message             string              `json:"message"`
		ConversationHistory []assistant.Message `json:"conversation_history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := h.assistant.Chat(ctx, req.ConversationHistory, req.Message)
	if err != nil {
		h.log.Error().Err(err).Msg("Assistant request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Assistant request failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": reply,
	})
}

// ReportsHandler handles monthly report export endpoints.
type ReportsHandler struct {
	service *export.Service
	log     zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(service *export.Service, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{service: service, log: log}
}

// Generate handles POST /api/reports. It builds the monthly summary and,
// when upload is requested, writes it to Cloud Storage.
func (h *ReportsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.Owner(ctx)

	mode, ok := parseMode(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid mode")
		return
	}

	var req struct {
		Month  string `json:"month"`
		Upload bool   `json:"upload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	month := time.Now().UTC()
	if req.Month != "" {
		parsed, err := time.Parse("2006-01", req.Month)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid month format, expected YYYY-MM")
			return
		}
		month = parsed
	}

	report, err := h.service.Build(ctx, owner, mode, month)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	resp := map[string]interface{}{
		"report": report,
	}

	if req.Upload {
		object, err := h.service.Upload(ctx, report)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to upload report")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload report")
			return
		}
		resp["object"] = object
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
