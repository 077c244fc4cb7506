package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"vidrag-backend/internal/models"
	"vidrag-backend/internal/transcript"
)

const ingestLockTTL = 10 * time.Minute

type transcriptFetcher interface {
	ExtractVideoID(videoURL string) (string, error)
	FetchTimedTranscript(videoID string) (*models.TimedTranscript, error)
}

type batchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type statusStore interface {
	Get(ctx context.Context, videoID string) (string, error)
	TryMarkProcessing(ctx context.Context, videoID string) (bool, error)
	MarkActive(ctx context.Context, videoID string) error
	Delete(ctx context.Context, videoID string) error
}

type chunkWriter interface {
	InsertChunks(ctx context.Context, records []models.ChunkRecord) error
	DeleteVideo(ctx context.Context, videoID string) error
}

// IngestService runs the transcript → timed chunks → vectors pipeline and
// owns the video status transitions around it.
type IngestService struct {
	youtube    transcriptFetcher
	embedder   batchEmbedder
	statuses   statusStore
	chunks     chunkWriter
	redis      *redis.Client // optional ingest lock, skipped when nil
	windowSize int
	step       int
	chunkTTL   time.Duration
}

func NewIngestService(
	youtube transcriptFetcher,
	embedder batchEmbedder,
	statuses statusStore,
	chunks chunkWriter,
	redisClient *redis.Client,
	windowSize, step int,
	chunkTTL time.Duration,
) *IngestService {
	return &IngestService{
		youtube:    youtube,
		embedder:   embedder,
		statuses:   statuses,
		chunks:     chunks,
		redis:      redisClient,
		windowSize: windowSize,
		step:       step,
		chunkTTL:   chunkTTL,
	}
}

// ProcessVideos ingests a batch of video URLs one at a time. Every URL is
// processed and failed independently; the batch itself never fails for a
// single item.
func (s *IngestService) ProcessVideos(ctx context.Context, urls []string) []models.VideoProcessResult {
	results := make([]models.VideoProcessResult, 0, len(urls))
	for _, url := range urls {
		results = append(results, s.processOne(ctx, url))
	}
	return results
}

func (s *IngestService) processOne(ctx context.Context, url string) models.VideoProcessResult {
	videoID, err := s.youtube.ExtractVideoID(url)
	if err != nil {
		return models.VideoProcessResult{
			URL:     url,
			Status:  models.OutcomeError,
			Message: err.Error(),
		}
	}

	if s.redis != nil {
		lockKey := fmt.Sprintf("ingest_lock:%s", videoID)
		locked, lockErr := s.redis.SetNX(ctx, lockKey, "1", ingestLockTTL).Result()
		if lockErr == nil && !locked {
			return models.VideoProcessResult{
				VideoID: videoID,
				URL:     url,
				Status:  models.StatusProcessing,
				Message: "Video is already processing",
			}
		}
		if lockErr == nil {
			defer s.redis.Del(context.Background(), lockKey)
		}
	}

	// Check if video already exists
	status, err := s.statuses.Get(ctx, videoID)
	if err != nil {
		return errorResult(videoID, url, &StoreError{Err: err})
	}
	if status == models.StatusProcessing || status == models.StatusActive {
		return models.VideoProcessResult{
			VideoID: videoID,
			URL:     url,
			Status:  status,
			Message: fmt.Sprintf("Video is already %s", status),
		}
	}

	// Claim the video. The conditional insert is atomic, so a concurrent
	// request for the same video loses here instead of double-ingesting.
	claimed, err := s.statuses.TryMarkProcessing(ctx, videoID)
	if err != nil {
		return errorResult(videoID, url, &StoreError{Err: err})
	}
	if !claimed {
		current, _ := s.statuses.Get(ctx, videoID)
		if current == "" {
			current = models.StatusProcessing
		}
		return models.VideoProcessResult{
			VideoID: videoID,
			URL:     url,
			Status:  current,
			Message: fmt.Sprintf("Video is already %s", current),
		}
	}

	chunkCount, err := s.ingest(ctx, videoID, url)
	if err != nil {
		// Roll back any persisted chunks and the status row so the video reads
		// as absent and a retry is always possible. Leftover chunks would hit
		// the (video_id, chunk_index) unique constraint on the next attempt.
		if delErr := s.chunks.DeleteVideo(context.Background(), videoID); delErr != nil {
			log.Printf("Failed to roll back chunks for %s: %v", videoID, delErr)
		}
		if delErr := s.statuses.Delete(context.Background(), videoID); delErr != nil {
			log.Printf("Failed to roll back status for %s: %v", videoID, delErr)
		}
		return errorResult(videoID, url, err)
	}

	log.Printf("Ingested video %s (%d chunks)", videoID, chunkCount)
	return models.VideoProcessResult{
		VideoID:     videoID,
		URL:         url,
		Status:      models.StatusActive,
		ChunksCount: chunkCount,
		Message:     "Successfully processed",
	}
}

// ingest runs fetch → chunk+align → embed → persist and flips the video to
// active. Callers roll the status back on any error.
func (s *IngestService) ingest(ctx context.Context, videoID, url string) (int, error) {
	timed, err := s.youtube.FetchTimedTranscript(videoID)
	if err != nil {
		return 0, &FetchError{VideoID: videoID, Err: err}
	}

	doc := transcript.BuildDocument(timed.Snippets)
	windows, err := transcript.Split(doc.Text, s.windowSize, s.step)
	if err != nil {
		return 0, err
	}
	chunks := transcript.Align(doc, windows)

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return 0, err
		}

		expiry := time.Now().UTC().Add(s.chunkTTL)
		records := make([]models.ChunkRecord, len(chunks))
		for i, c := range chunks {
			records[i] = models.ChunkRecord{
				VideoID:    videoID,
				ChunkIndex: c.Index,
				ChunkText:  c.Text,
				Embedding:  vectors[i],
				ExpiryDate: expiry,
				Metadata: models.ChunkMetadata{
					URL:          url,
					VideoID:      videoID,
					Language:     timed.Language,
					LanguageCode: timed.LanguageCode,
					IsGenerated:  timed.IsGenerated,
					StartTime:    c.StartTime,
					EndTime:      c.EndTime,
					Timings:      c.Timings,
				},
			}
		}

		if err := s.chunks.InsertChunks(ctx, records); err != nil {
			return 0, &StoreError{Err: err}
		}
	}

	if err := s.statuses.MarkActive(ctx, videoID); err != nil {
		return 0, &StoreError{Err: err}
	}

	return len(chunks), nil
}

func errorResult(videoID, url string, err error) models.VideoProcessResult {
	return models.VideoProcessResult{
		VideoID: videoID,
		URL:     url,
		Status:  models.OutcomeError,
		Message: err.Error(),
	}
}
