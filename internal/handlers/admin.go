package handlers

import (
	"context"
	"net/http"
)

type cleanupRunner interface {
	RunOnce(ctx context.Context) (chunksRemoved, videosRetired int64)
}

type AdminHandler struct {
	cleanup cleanupRunner
}

func NewAdminHandler(cleanup cleanupRunner) *AdminHandler {
	return &AdminHandler{cleanup: cleanup}
}

// Cleanup runs an expiry sweep immediately instead of waiting for the
// scheduler's next tick.
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	chunks, videos := h.cleanup.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, map[string]int64{
		"chunks_removed": chunks,
		"videos_retired": videos,
	})
}
