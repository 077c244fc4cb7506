package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"vidrag-backend/internal/models"
)

type fakeChunkLister struct {
	records []models.ChunkRecord
	err     error
}

func (f *fakeChunkLister) ListByVideo(ctx context.Context, videoID string) ([]models.ChunkRecord, error) {
	return f.records, f.err
}

func record(index int, text string, embedding []float32) models.ChunkRecord {
	return models.ChunkRecord{
		VideoID:    "vid123",
		ChunkIndex: index,
		ChunkText:  text,
		Embedding:  embedding,
		ExpiryDate: time.Now().Add(time.Hour),
	}
}

func TestSearch_OrthogonalUnitVectors(t *testing.T) {
	lister := &fakeChunkLister{records: []models.ChunkRecord{
		record(0, "first", []float32{1, 0, 0}),
		record(1, "second", []float32{0, 1, 0}),
		record(2, "third", []float32{0, 0, 1}),
	}}
	svc := NewSearchService(lister)

	results, err := svc.Search(context.Background(), "vid123", []float32{0, 1, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	if results[0].ChunkIndex != 1 {
		t.Errorf("Expected matching chunk first, got chunk %d", results[0].ChunkIndex)
	}
	if math.Abs(results[0].Similarity-1.0) > 1e-9 {
		t.Errorf("Expected similarity 1.0 for matching vector, got %v", results[0].Similarity)
	}
	for _, r := range results[1:] {
		if math.Abs(r.Similarity) > 1e-9 {
			t.Errorf("Expected similarity 0.0 for orthogonal chunk %d, got %v", r.ChunkIndex, r.Similarity)
		}
	}
}

func TestSearch_ZeroMagnitudeQuery(t *testing.T) {
	lister := &fakeChunkLister{records: []models.ChunkRecord{
		record(0, "first", []float32{1, 0, 0}),
	}}
	svc := NewSearchService(lister)

	results, err := svc.Search(context.Background(), "vid123", []float32{0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Expected no error for zero query, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result for zero-magnitude query, got %d hits", len(results))
	}
}

func TestSearch_ZeroStoredVectorExcluded(t *testing.T) {
	lister := &fakeChunkLister{records: []models.ChunkRecord{
		record(0, "zero", []float32{0, 0, 0}),
		record(1, "valid", []float32{1, 0, 0}),
	}}
	svc := NewSearchService(lister)

	results, err := svc.Search(context.Background(), "vid123", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].ChunkIndex != 1 {
		t.Errorf("Expected the zero vector to be excluded, got chunk %d ranked", results[0].ChunkIndex)
	}
}

func TestSearch_TopKTruncation(t *testing.T) {
	var records []models.ChunkRecord
	for i := 0; i < 10; i++ {
		records = append(records, record(i, "chunk", []float32{1, float32(i) * 0.1}))
	}
	svc := NewSearchService(&fakeChunkLister{records: records})

	results, err := svc.Search(context.Background(), "vid123", []float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected topK=3 results, got %d", len(results))
	}

	// Fewer valid records than topK returns all of them, no padding.
	svc = NewSearchService(&fakeChunkLister{records: records[:2]})
	results, err = svc.Search(context.Background(), "vid123", []float32{1, 1}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected all 2 results when fewer than topK, got %d", len(results))
	}
}

func TestSearch_TiesKeepStoreOrder(t *testing.T) {
	lister := &fakeChunkLister{records: []models.ChunkRecord{
		record(0, "a", []float32{1, 0}),
		record(1, "b", []float32{2, 0}), // same direction, same cosine
		record(2, "c", []float32{0, 1}),
	}}
	svc := NewSearchService(lister)

	results, err := svc.Search(context.Background(), "vid123", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results[0].ChunkIndex != 0 || results[1].ChunkIndex != 1 {
		t.Errorf("Expected tied results in store order (0 then 1), got %d then %d",
			results[0].ChunkIndex, results[1].ChunkIndex)
	}
}

func TestSearch_DimensionMismatchFailsClosed(t *testing.T) {
	lister := &fakeChunkLister{records: []models.ChunkRecord{
		record(0, "good", []float32{1, 0, 0}),
		record(1, "bad", []float32{1, 0}),
	}}
	svc := NewSearchService(lister)

	results, err := svc.Search(context.Background(), "vid123", []float32{1, 0, 0}, 5)
	if err == nil {
		t.Fatal("Expected error for malformed stored vector")
	}
	if results != nil {
		t.Errorf("Expected no partial results on failure, got %d", len(results))
	}
}

func TestSearch_StoreError(t *testing.T) {
	svc := NewSearchService(&fakeChunkLister{err: errors.New("connection refused")})

	_, err := svc.Search(context.Background(), "vid123", []float32{1}, 5)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("Expected StoreError, got %v", err)
	}
}

func TestSearch_NoRecords(t *testing.T) {
	svc := NewSearchService(&fakeChunkLister{})

	results, err := svc.Search(context.Background(), "vid123", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result for video with no records, got %d", len(results))
	}
}
