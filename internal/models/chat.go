package models

// Retrieval outcome statuses. The three empty-ish outcomes (not_found,
// processing, no_results) stay distinguishable to the caller.
const (
	OutcomeSuccess    = "success"
	OutcomeNotFound   = "not_found"
	OutcomeProcessing = "processing"
	OutcomeNoResults  = "no_results"
	OutcomeError      = "error"
)

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	VideoID string `json:"video_id"`
	Query   string `json:"query"`
}

// ChatSource is one evidence chunk cited by an answer.
type ChatSource struct {
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity,omitempty"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	URL        string  `json:"url"`
	VideoID    string  `json:"video_id"`
}

// ChatResult is the outcome of a RAG chat query.
type ChatResult struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources"`
	Status  string       `json:"status"`
	VideoID string       `json:"video_id,omitempty"`
}

// SummaryResult is the outcome of a whole-video summary request.
type SummaryResult struct {
	VideoID string       `json:"video_id"`
	Summary string       `json:"summary"`
	Sources []ChatSource `json:"sources"`
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
}
