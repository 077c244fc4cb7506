package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"vidrag-backend/internal/models"
)

// DefaultTopK is the number of evidence chunks returned when the caller does
// not say otherwise.
const DefaultTopK = 5

type chunkLister interface {
	ListByVideo(ctx context.Context, videoID string) ([]models.ChunkRecord, error)
}

// SearchService ranks a video's stored chunks against a query vector by cosine
// similarity. This is a full scan over one video's chunks (hundreds at most),
// not an index.
type SearchService struct {
	chunks chunkLister
}

func NewSearchService(chunks chunkLister) *SearchService {
	return &SearchService{chunks: chunks}
}

// Search returns the topK most similar non-expired chunks, best first. Ties
// keep store order (ascending chunk index). A zero-magnitude query matches
// nothing; stored zero vectors are excluded from ranking since their cosine
// similarity is undefined. Any store or vector-shape failure returns an error
// with no partial ranking.
func (s *SearchService) Search(ctx context.Context, videoID string, query []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	records, err := s.chunks.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}

	queryNorm := vectorNorm(query)
	if queryNorm == 0 {
		return nil, nil
	}

	results := make([]models.SearchResult, 0, len(records))
	for _, rec := range records {
		if len(rec.Embedding) != len(query) {
			return nil, fmt.Errorf("stored vector for chunk %d has dimension %d, query has %d",
				rec.ChunkIndex, len(rec.Embedding), len(query))
		}

		storedNorm := vectorNorm(rec.Embedding)
		if storedNorm == 0 {
			continue
		}

		results = append(results, models.SearchResult{
			ChunkIndex: rec.ChunkIndex,
			ChunkText:  rec.ChunkText,
			Similarity: dotProduct(query, rec.Embedding) / (queryNorm * storedNorm),
			Metadata:   rec.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
