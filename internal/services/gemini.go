package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	generativeModelName = "gemini-2.0-flash-exp"
	embeddingModelName  = "gemini-embedding-001"

	embedTimeout    = 2 * time.Minute
	generateTimeout = 2 * time.Minute
)

type GeminiService struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	embedModel *genai.EmbeddingModel
	rateChan   chan struct{} // Token bucket
}

func NewGeminiService(apiKey string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(generativeModelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	embedModel := client.EmbeddingModel(embeddingModelName)
	embedModel.TaskType = genai.TaskTypeRetrievalDocument

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:     client,
		model:      model,
		embedModel: embedModel,
		rateChan:   rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// EmbedTexts vectorizes a batch of chunk texts in one call. The response is
// order- and length-aligned with the input; any batch failure fails the whole
// batch.
func (s *GeminiService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	batch := s.embedModel.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := s.embedModel.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &EmbeddingError{Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))}
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}

	return vectors, nil
}

// EmbedQuery vectorizes a single question for retrieval.
func (s *GeminiService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	resp, err := s.embedModel.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if resp.Embedding == nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("empty embedding response")}
	}

	return resp.Embedding.Values, nil
}

// Generate runs a prompt through the generative model and returns the text.
func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("empty generation response")
	}

	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
