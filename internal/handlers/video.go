package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vidrag-backend/internal/models"
	"vidrag-backend/internal/services"
)

type videoIngester interface {
	ProcessVideos(ctx context.Context, urls []string) []models.VideoProcessResult
}

type statusRepository interface {
	Get(ctx context.Context, videoID string) (string, error)
	List(ctx context.Context) ([]models.VideoStatusRecord, error)
	Delete(ctx context.Context, videoID string) error
}

type embeddingRepository interface {
	Stats(ctx context.Context, videoID string) (int, *time.Time, error)
	DeleteVideo(ctx context.Context, videoID string) error
}

type VideoHandler struct {
	ingest     videoIngester
	statuses   statusRepository
	embeddings embeddingRepository
}

func NewVideoHandler(ingest videoIngester, statuses statusRepository, embeddings embeddingRepository) *VideoHandler {
	return &VideoHandler{ingest: ingest, statuses: statuses, embeddings: embeddings}
}

// Process ingests a batch of video URLs. Each URL is reported independently;
// the endpoint itself only fails on malformed input.
func (h *VideoHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req models.VideoProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		if strings.TrimSpace(u) != "" {
			urls = append(urls, strings.TrimSpace(u))
		}
	}
	if len(urls) == 0 {
		handleServiceError(w, r, &services.ValidationError{
			Fields: map[string]string{"urls": "At least one video URL is required"},
		})
		return
	}

	results := h.ingest.ProcessVideos(r.Context(), urls)
	writeJSON(w, http.StatusOK, models.VideoProcessResponse{Results: results})
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.statuses.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": records})
}

func (h *VideoHandler) Status(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	status, err := h.statuses.Get(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if status == "" {
		handleServiceError(w, r, &services.NotFoundError{Message: "Video not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"video_id": videoID, "status": status})
}

func (h *VideoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	status, err := h.statuses.Get(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if status == "" {
		handleServiceError(w, r, &services.NotFoundError{Message: "Video not found"})
		return
	}

	count, expiry, err := h.embeddings.Stats(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.VideoStats{
		VideoID:    videoID,
		Status:     status,
		ChunkCount: count,
		ExpiryDate: expiry,
	})
}

// Delete removes a video's chunks first, then its status row. If the second
// step fails the video is left active with no chunks, which the cleanup
// scheduler retires.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	status, err := h.statuses.Get(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if status == "" {
		handleServiceError(w, r, &services.NotFoundError{Message: "Video not found"})
		return
	}
	if status == models.StatusProcessing {
		// Deleting mid-ingestion would race the chunk writes.
		handleServiceError(w, r, &services.InFlightError{Message: "Video is still being processed"})
		return
	}

	if err := h.embeddings.DeleteVideo(r.Context(), videoID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.statuses.Delete(r.Context(), videoID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted", "video_id": videoID})
}
