package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"vidrag-backend/internal/models"
)

type fakeQueryEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

type fakeSearcher struct {
	hits  []models.SearchResult
	err   error
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, videoID string, query []float32, topK int) ([]models.SearchResult, error) {
	f.calls++
	return f.hits, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
	// last prompt seen, for assertions on context assembly
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func hit(index int, text string, similarity float64) models.SearchResult {
	return models.SearchResult{
		ChunkIndex: index,
		ChunkText:  text,
		Similarity: similarity,
		Metadata: models.ChunkMetadata{
			URL:       "https://youtu.be/vid123",
			VideoID:   "vid123",
			StartTime: 65,
			EndTime:   125,
		},
	}
}

func TestAnswer_NotFoundGate(t *testing.T) {
	statuses := newMemStatusStore()
	embedder := &fakeQueryEmbedder{vec: []float32{1, 0}}
	search := &fakeSearcher{}
	svc := NewChatService(statuses, embedder, search, &fakeGenerator{reply: "hi"}, 5)

	result := svc.Answer(context.Background(), "vid123", "what is this about?")

	if result.Status != models.OutcomeNotFound {
		t.Errorf("Expected not_found, got %q", result.Status)
	}
	if embedder.calls != 0 || search.calls != 0 {
		t.Error("Expected no vector work for an absent video")
	}
}

func TestAnswer_ProcessingGate(t *testing.T) {
	statuses := newMemStatusStore()
	statuses.statuses["vid123"] = models.StatusProcessing
	embedder := &fakeQueryEmbedder{vec: []float32{1, 0}}
	search := &fakeSearcher{}
	svc := NewChatService(statuses, embedder, search, &fakeGenerator{reply: "hi"}, 5)

	result := svc.Answer(context.Background(), "vid123", "anything?")

	if result.Status != models.OutcomeProcessing {
		t.Errorf("Expected processing, got %q", result.Status)
	}
	if embedder.calls != 0 || search.calls != 0 {
		t.Error("Expected no vector work for an in-flight video")
	}
}

func TestAnswer_NoResultsDistinct(t *testing.T) {
	statuses := newMemStatusStore()
	statuses.statuses["vid123"] = models.StatusActive
	gen := &fakeGenerator{reply: "unused"}
	svc := NewChatService(statuses, &fakeQueryEmbedder{vec: []float32{1, 0}}, &fakeSearcher{}, gen, 5)

	result := svc.Answer(context.Background(), "vid123", "anything?")

	if result.Status != models.OutcomeNoResults {
		t.Errorf("Expected no_results, got %q", result.Status)
	}
	if gen.calls != 0 {
		t.Error("Expected no generation without evidence")
	}
}

func TestAnswer_Success(t *testing.T) {
	statuses := newMemStatusStore()
	statuses.statuses["vid123"] = models.StatusActive
	longText := strings.Repeat("evidence ", 40) // > 200 chars
	search := &fakeSearcher{hits: []models.SearchResult{
		hit(3, longText, 0.91),
		hit(7, "short chunk", 0.42),
	}}
	gen := &fakeGenerator{reply: "Because the speaker says so."}
	svc := NewChatService(statuses, &fakeQueryEmbedder{vec: []float32{1, 0}}, search, gen, 5)

	result := svc.Answer(context.Background(), "vid123", "why?")

	if result.Status != models.OutcomeSuccess {
		t.Fatalf("Expected success, got %q", result.Status)
	}
	if result.Answer != "Because the speaker says so." {
		t.Errorf("Unexpected answer %q", result.Answer)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(result.Sources))
	}
	if !strings.HasSuffix(result.Sources[0].Text, "...") || len(result.Sources[0].Text) != 203 {
		t.Errorf("Expected long source excerpt truncated to 200 chars + ellipsis, got %d chars", len(result.Sources[0].Text))
	}
	if result.Sources[1].Text != "short chunk" {
		t.Errorf("Expected short source untruncated, got %q", result.Sources[1].Text)
	}
	if result.Sources[0].Similarity != 0.91 {
		t.Errorf("Expected similarity carried into source, got %v", result.Sources[0].Similarity)
	}

	// Prompt carries chunk numbers and mm:ss timestamps.
	if !strings.Contains(gen.prompt, "[Chunk 3 - Timestamp 01:05 to 02:05]") {
		t.Errorf("Expected timestamped context in prompt, got:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "User Question: why?") {
		t.Error("Expected question in prompt")
	}
}

func TestAnswer_SourceTruncationKeepsRunesIntact(t *testing.T) {
	statuses := newMemStatusStore()
	statuses.statuses["vid123"] = models.StatusActive
	// 100 three-byte runes: the 200-byte cut lands mid-rune.
	multiByte := strings.Repeat("世", 100)
	search := &fakeSearcher{hits: []models.SearchResult{hit(0, multiByte, 0.9)}}
	svc := NewChatService(statuses, &fakeQueryEmbedder{vec: []float32{1, 0}}, search, &fakeGenerator{reply: "ok"}, 5)

	result := svc.Answer(context.Background(), "vid123", "why?")

	if result.Status != models.OutcomeSuccess {
		t.Fatalf("Expected success, got %q", result.Status)
	}
	text := result.Sources[0].Text
	if !utf8.ValidString(text) {
		t.Errorf("Expected valid UTF-8 after truncation, got %q", text)
	}
	if !strings.HasSuffix(text, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", text)
	}
	// 66 whole runes (198 bytes) survive; the 67th would straddle the limit.
	if got := utf8.RuneCountInString(strings.TrimSuffix(text, "...")); got != 66 {
		t.Errorf("Expected 66 whole runes kept, got %d", got)
	}
}

func TestAnswer_GenerationErrorOutcome(t *testing.T) {
	statuses := newMemStatusStore()
	statuses.statuses["vid123"] = models.StatusActive
	search := &fakeSearcher{hits: []models.SearchResult{hit(0, "text", 0.8)}}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	svc := NewChatService(statuses, &fakeQueryEmbedder{vec: []float32{1, 0}}, search, gen, 5)

	result := svc.Answer(context.Background(), "vid123", "why?")

	if result.Status != models.OutcomeError {
		t.Errorf("Expected error outcome, got %q", result.Status)
	}
	if len(result.Sources) != 0 {
		t.Errorf("Expected no partial sources on failure, got %d", len(result.Sources))
	}
}

func TestSummarize_Gates(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"absent video", "", models.OutcomeNotFound},
		{"processing video", models.StatusProcessing, models.OutcomeProcessing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			statuses := newMemStatusStore()
			if tc.status != "" {
				statuses.statuses["vid123"] = tc.status
			}
			gen := &fakeGenerator{reply: "unused"}
			svc := NewSummaryService(statuses, &fakeChunkLister{}, gen)

			result := svc.Summarize(context.Background(), "vid123")
			if result.Status != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result.Status)
			}
			if gen.calls != 0 {
				t.Error("Expected no generation before the status gate passes")
			}
		})
	}
}

func TestSummarize_ExpiredChunksDistinctError(t *testing.T) {
	statuses := newMemStatusStore()
	statuses.statuses["vid123"] = models.StatusActive
	svc := NewSummaryService(statuses, &fakeChunkLister{}, &fakeGenerator{reply: "unused"})

	result := svc.Summarize(context.Background(), "vid123")

	if result.Status != models.OutcomeError {
		t.Errorf("Expected error for active video with no surviving chunks, got %q", result.Status)
	}
	if result.Message == "" {
		t.Error("Expected a user-legible message")
	}
}

func TestSummarize_Success(t *testing.T) {
	statuses := newMemStatusStore()
	statuses.statuses["vid123"] = models.StatusActive
	rec := record(0, "chunk zero text", []float32{1})
	rec.Metadata.StartTime = 30
	rec.Metadata.EndTime = 90
	gen := &fakeGenerator{reply: "## Overview\nA video."}
	svc := NewSummaryService(statuses, &fakeChunkLister{records: []models.ChunkRecord{rec}}, gen)

	result := svc.Summarize(context.Background(), "vid123")

	if result.Status != models.OutcomeSuccess {
		t.Fatalf("Expected success, got %q (%s)", result.Status, result.Message)
	}
	if result.Summary != "## Overview\nA video." {
		t.Errorf("Unexpected summary %q", result.Summary)
	}
	if len(result.Sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(result.Sources))
	}
	if result.Sources[0].URL != "https://www.youtube.com/watch?v=vid123&t=30s" {
		t.Errorf("Expected deep link with start offset, got %q", result.Sources[0].URL)
	}
	if !strings.Contains(gen.prompt, "[Chunk 0 - Timestamp 00:30 to 01:30]") {
		t.Errorf("Expected timestamped transcript in prompt, got:\n%s", gen.prompt)
	}
}
