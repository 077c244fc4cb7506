package services

import (
	"context"
	"fmt"
	"strings"

	"vidrag-backend/internal/models"
)

// SummaryService turns a video's full set of stored chunks into a markdown
// summary with timestamped source attribution.
type SummaryService struct {
	statuses statusReader
	chunks   chunkLister
	gen      generator
}

func NewSummaryService(statuses statusReader, chunks chunkLister, gen generator) *SummaryService {
	return &SummaryService{statuses: statuses, chunks: chunks, gen: gen}
}

func (s *SummaryService) Summarize(ctx context.Context, videoID string) models.SummaryResult {
	status, err := s.statuses.Get(ctx, videoID)
	if err != nil {
		return summaryError(videoID, err)
	}

	switch status {
	case "":
		return models.SummaryResult{
			VideoID: videoID,
			Sources: []models.ChatSource{},
			Status:  models.OutcomeNotFound,
			Message: "Video not found. Please process the video first.",
		}
	case models.StatusProcessing:
		return models.SummaryResult{
			VideoID: videoID,
			Sources: []models.ChatSource{},
			Status:  models.OutcomeProcessing,
			Message: "Video is still being processed. Please try again in a moment.",
		}
	}

	records, err := s.chunks.ListByVideo(ctx, videoID)
	if err != nil {
		return summaryError(videoID, &StoreError{Err: err})
	}
	if len(records) == 0 {
		// Active status with no surviving chunks: everything expired.
		return models.SummaryResult{
			VideoID: videoID,
			Sources: []models.ChatSource{},
			Status:  models.OutcomeError,
			Message: "No transcript data found for this video.",
		}
	}

	summary, err := s.gen.Generate(ctx, buildSummaryPrompt(records))
	if err != nil {
		return summaryError(videoID, err)
	}

	sources := make([]models.ChatSource, 0, len(records))
	for _, rec := range records {
		sources = append(sources, models.ChatSource{
			ChunkIndex: rec.ChunkIndex,
			Text:       rec.ChunkText,
			StartTime:  rec.Metadata.StartTime,
			EndTime:    rec.Metadata.EndTime,
			URL:        fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", videoID, int(rec.Metadata.StartTime)),
			VideoID:    videoID,
		})
	}

	return models.SummaryResult{
		VideoID: videoID,
		Summary: summary,
		Sources: sources,
		Status:  models.OutcomeSuccess,
	}
}

func summaryError(videoID string, err error) models.SummaryResult {
	return models.SummaryResult{
		VideoID: videoID,
		Sources: []models.ChatSource{},
		Status:  models.OutcomeError,
		Message: fmt.Sprintf("An error occurred while generating summary: %v", err),
	}
}

func buildSummaryPrompt(records []models.ChunkRecord) string {
	transcriptParts := make([]string, 0, len(records))
	for _, rec := range records {
		transcriptParts = append(transcriptParts, fmt.Sprintf(
			"[Chunk %d - Timestamp %s to %s]:\n%s",
			rec.ChunkIndex,
			formatTimestamp(rec.Metadata.StartTime),
			formatTimestamp(rec.Metadata.EndTime),
			rec.ChunkText,
		))
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant that creates comprehensive video summaries in markdown format.\n\n")
	b.WriteString("Based on the following video transcript (with timestamps), create a well-structured markdown summary that includes:\n\n")
	b.WriteString("1. **Overview**: A brief 2-3 sentence overview of the video\n")
	b.WriteString("2. **Key Topics**: Main topics covered (as bullet points)\n")
	b.WriteString("3. **Detailed Summary**: A comprehensive summary broken into logical sections with headers\n")
	b.WriteString("4. **Key Takeaways**: Important points or conclusions (as bullet points)\n\n")
	b.WriteString("When referencing specific information, mention the chunk numbers to help with source attribution.\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(strings.Join(transcriptParts, "\n\n"))
	b.WriteString("\n\nPlease format your response in clean markdown with proper headers (##, ###), bullet points, and emphasis where appropriate. Make it informative and easy to scan.")

	return b.String()
}
