package services

import (
	"context"
	"log"
	"time"
)

const (
	cleanupPollInterval = 1 * time.Hour
	staleProcessingAge  = "1 hour"
)

type expiryStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type statusJanitor interface {
	DeleteExpiredActive(ctx context.Context) (int64, error)
	DeleteStaleProcessing(ctx context.Context, maxAge string) (int64, error)
}

// CleanupScheduler periodically removes expired chunk records, retires active
// videos whose chunks have all expired, and unsticks processing rows left
// behind by a crashed ingestion.
type CleanupScheduler struct {
	embeddings expiryStore
	statuses   statusJanitor
	stopChan   chan struct{}
}

func NewCleanupScheduler(embeddings expiryStore, statuses statusJanitor) *CleanupScheduler {
	return &CleanupScheduler{
		embeddings: embeddings,
		statuses:   statuses,
		stopChan:   make(chan struct{}),
	}
}

func (s *CleanupScheduler) Start() {
	if s.embeddings == nil || s.statuses == nil {
		return
	}

	go s.loop()
	log.Printf("Cleanup scheduler started")
}

func (s *CleanupScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *CleanupScheduler) loop() {
	// Run on startup as well as by interval.
	s.RunOnce(context.Background())

	ticker := time.NewTicker(cleanupPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce(context.Background())
		}
	}
}

// RunOnce performs a single cleanup sweep and reports what it removed. Also
// invoked on demand from the admin endpoint.
func (s *CleanupScheduler) RunOnce(ctx context.Context) (chunksRemoved, videosRetired int64) {
	chunksRemoved, err := s.embeddings.DeleteExpired(ctx)
	if err != nil {
		log.Printf("Cleanup: failed to delete expired chunks: %v", err)
	}

	videosRetired, err = s.statuses.DeleteExpiredActive(ctx)
	if err != nil {
		log.Printf("Cleanup: failed to retire expired videos: %v", err)
	}

	stale, err := s.statuses.DeleteStaleProcessing(ctx, staleProcessingAge)
	if err != nil {
		log.Printf("Cleanup: failed to clear stale processing rows: %v", err)
	} else if stale > 0 {
		log.Printf("Cleanup: cleared %d stale processing row(s)", stale)
	}

	if chunksRemoved > 0 || videosRetired > 0 {
		log.Printf("Cleanup: removed %d expired chunk(s), retired %d video(s)", chunksRemoved, videosRetired)
	}

	return chunksRemoved, videosRetired
}
