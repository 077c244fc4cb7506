package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidrag-backend/internal/models"
	"vidrag-backend/internal/services"
)

type chatAnswerer interface {
	Answer(ctx context.Context, videoID, question string) models.ChatResult
}

type videoSummarizer interface {
	Summarize(ctx context.Context, videoID string) models.SummaryResult
}

type ChatHandler struct {
	chat    chatAnswerer
	summary videoSummarizer
}

func NewChatHandler(chat chatAnswerer, summary videoSummarizer) *ChatHandler {
	return &ChatHandler{chat: chat, summary: summary}
}

// Query answers a question against one processed video. Retrieval outcomes
// (not_found, processing, no_results, success, error) travel in the response
// body with a 200 status.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.VideoID) == "" {
		fields["video_id"] = "Video ID is required"
	}
	if strings.TrimSpace(req.Query) == "" {
		fields["query"] = "Query is required"
	}
	if len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	result := h.chat.Answer(r.Context(), strings.TrimSpace(req.VideoID), strings.TrimSpace(req.Query))
	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) Summary(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	result := h.summary.Summarize(r.Context(), videoID)
	writeJSON(w, http.StatusOK, result)
}
