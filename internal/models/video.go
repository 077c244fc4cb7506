package models

import "time"

// Video ingestion statuses persisted in video_status. Absence of a row means
// the video was never ingested (or was rolled back / expired).
const (
	StatusProcessing = "processing"
	StatusActive     = "active"
)

// TimedSnippet is one caption line as returned by the transcript fetcher.
type TimedSnippet struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// TimedTranscript is the full ordered caption track for a video.
type TimedTranscript struct {
	Snippets     []TimedSnippet `json:"snippets"`
	Language     string         `json:"language"`
	LanguageCode string         `json:"language_code"`
	IsGenerated  bool           `json:"is_generated"`
}

// SnippetTiming is the (start, duration) pair retained per overlapping snippet
// in chunk metadata.
type SnippetTiming struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// ChunkMetadata travels with every persisted chunk (JSONB column).
type ChunkMetadata struct {
	URL          string          `json:"url"`
	VideoID      string          `json:"video_id"`
	Language     string          `json:"language"`
	LanguageCode string          `json:"language_code"`
	IsGenerated  bool            `json:"is_generated"`
	StartTime    float64         `json:"start_time"`
	EndTime      float64         `json:"end_time"`
	Timings      []SnippetTiming `json:"timings"`
}

// ChunkRecord is one embedded transcript chunk as stored in video_embeddings.
// The embedding is opaque to everything except the similarity engine; the
// pgvector encoding is a storage detail of the repository layer.
type ChunkRecord struct {
	VideoID    string        `json:"video_id"`
	ChunkIndex int           `json:"chunk_index"`
	ChunkText  string        `json:"chunk_text"`
	Embedding  []float32     `json:"-"`
	ExpiryDate time.Time     `json:"expiry_date"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// VideoStatusRecord is a row of video_status, used by the admin listing.
type VideoStatusRecord struct {
	VideoID   string    `json:"video_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VideoStats reports per-video chunk counts for the admin stats endpoint.
type VideoStats struct {
	VideoID    string     `json:"video_id"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// SearchResult is one ranked hit from the similarity engine.
type SearchResult struct {
	ChunkIndex int           `json:"chunk_index"`
	ChunkText  string        `json:"chunk_text"`
	Similarity float64       `json:"similarity"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// VideoProcessRequest is the payload of POST /videos/process.
type VideoProcessRequest struct {
	URLs []string `json:"urls"`
}

// VideoProcessResult reports the outcome of ingesting a single URL. Each URL
// in a batch succeeds or fails independently.
type VideoProcessResult struct {
	VideoID     string `json:"video_id"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	ChunksCount int    `json:"chunks_count,omitempty"`
	Message     string `json:"message"`
}

type VideoProcessResponse struct {
	Results []VideoProcessResult `json:"results"`
}
