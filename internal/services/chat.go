package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"vidrag-backend/internal/models"
)

// sourceExcerptLimit caps the cited chunk text returned with an answer, in
// bytes.
const sourceExcerptLimit = 200

type statusReader interface {
	Get(ctx context.Context, videoID string) (string, error)
}

type queryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type evidenceSearcher interface {
	Search(ctx context.Context, videoID string, query []float32, topK int) ([]models.SearchResult, error)
}

// ChatService answers questions about a video with retrieval-augmented
// generation: gate on status, embed the question, rank stored chunks, prompt
// the generator with timestamped evidence.
type ChatService struct {
	statuses statusReader
	embedder queryEmbedder
	search   evidenceSearcher
	gen      generator
	topK     int
}

func NewChatService(statuses statusReader, embedder queryEmbedder, search evidenceSearcher, gen generator, topK int) *ChatService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ChatService{
		statuses: statuses,
		embedder: embedder,
		search:   search,
		gen:      gen,
		topK:     topK,
	}
}

// Answer resolves a question against one video. The not_found, processing and
// no_results outcomes stay distinct; no vector work runs unless the video is
// active.
func (s *ChatService) Answer(ctx context.Context, videoID, question string) models.ChatResult {
	status, err := s.statuses.Get(ctx, videoID)
	if err != nil {
		return chatError(err)
	}

	switch status {
	case "":
		return models.ChatResult{
			Answer:  "Video not found. Please process the video first.",
			Sources: []models.ChatSource{},
			Status:  models.OutcomeNotFound,
		}
	case models.StatusProcessing:
		return models.ChatResult{
			Answer:  "Video is still being processed. Please try again in a moment.",
			Sources: []models.ChatSource{},
			Status:  models.OutcomeProcessing,
		}
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return chatError(err)
	}

	hits, err := s.search.Search(ctx, videoID, queryVec, s.topK)
	if err != nil {
		return chatError(err)
	}
	if len(hits) == 0 {
		return models.ChatResult{
			Answer:  "No relevant information found in the video.",
			Sources: []models.ChatSource{},
			Status:  models.OutcomeNoResults,
		}
	}

	answer, err := s.gen.Generate(ctx, buildChatPrompt(question, hits))
	if err != nil {
		return chatError(err)
	}

	sources := make([]models.ChatSource, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, models.ChatSource{
			ChunkIndex: hit.ChunkIndex,
			Text:       excerpt(hit.ChunkText),
			Similarity: hit.Similarity,
			StartTime:  hit.Metadata.StartTime,
			EndTime:    hit.Metadata.EndTime,
			URL:        hit.Metadata.URL,
			VideoID:    videoID,
		})
	}

	return models.ChatResult{
		Answer:  answer,
		Sources: sources,
		Status:  models.OutcomeSuccess,
		VideoID: videoID,
	}
}

func chatError(err error) models.ChatResult {
	return models.ChatResult{
		Answer:  fmt.Sprintf("An error occurred: %v", err),
		Sources: []models.ChatSource{},
		Status:  models.OutcomeError,
	}
}

func buildChatPrompt(question string, hits []models.SearchResult) string {
	contextParts := make([]string, 0, len(hits))
	for _, hit := range hits {
		contextParts = append(contextParts, fmt.Sprintf(
			"[Chunk %d - Timestamp %s to %s]:\n%s",
			hit.ChunkIndex,
			formatTimestamp(hit.Metadata.StartTime),
			formatTimestamp(hit.Metadata.EndTime),
			hit.ChunkText,
		))
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant answering questions about a YouTube video based on its transcript.\n\n")
	b.WriteString("Context from the video transcript (with timestamps):\n")
	b.WriteString(strings.Join(contextParts, "\n\n"))
	b.WriteString("\n\nUser Question: ")
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a comprehensive answer based on the context above. ")
	b.WriteString("If the context doesn't contain enough information to fully answer the question, ")
	b.WriteString("acknowledge that and provide what information is available. ")
	b.WriteString("When citing information, mention both the chunk numbers and timestamps.")

	return b.String()
}

// excerpt truncates source text to the excerpt limit, backing off to a rune
// boundary so a multi-byte character is never split.
func excerpt(text string) string {
	if len(text) <= sourceExcerptLimit {
		return text
	}
	cut := sourceExcerptLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// formatTimestamp renders seconds as mm:ss.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
