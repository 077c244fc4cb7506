package transcript

import (
	"strings"

	"vidrag-backend/internal/models"
)

// SnippetSpan is a timed snippet plus the half-open [StartPos, EndPos)
// character interval it occupies in the concatenated transcript text. EndPos
// excludes the separator space appended after the snippet.
type SnippetSpan struct {
	models.TimedSnippet
	StartPos int
	EndPos   int
}

// Document is the full transcript text with its offset table, built once per
// ingestion.
type Document struct {
	Text  string
	Spans []SnippetSpan
}

// Chunk is a window joined with the timing bounds of the snippets it overlaps.
// Index is dense (0..N-1) per video and keys the chunk to its embedding.
type Chunk struct {
	Index     int
	Text      string
	Start     int
	End       int
	StartTime float64
	EndTime   float64
	Timings   []models.SnippetTiming
}

// BuildDocument concatenates snippet texts with a single-space separator and
// records each snippet's character range in the result.
func BuildDocument(snippets []models.TimedSnippet) Document {
	var b strings.Builder
	spans := make([]SnippetSpan, 0, len(snippets))

	for _, sn := range snippets {
		start := b.Len()
		b.WriteString(sn.Text)
		b.WriteString(" ")
		spans = append(spans, SnippetSpan{
			TimedSnippet: sn,
			StartPos:     start,
			EndPos:       b.Len() - 1,
		})
	}

	return Document{Text: b.String(), Spans: spans}
}

// Align maps every window to the ordered snippets whose character range
// intersects it (span.StartPos < win.End && span.EndPos > win.Start). A chunk's
// StartTime is the start of its first overlapping snippet and EndTime the
// start+duration of its last; both stay 0.0 when nothing overlaps.
//
// Windows and spans are both offset-ordered, so a single sweep with a lower
// pointer covers all windows in O(windows + spans + overlaps) instead of the
// naive O(windows × spans) rescan.
func Align(doc Document, windows []Window) []Chunk {
	chunks := make([]Chunk, 0, len(windows))

	lo := 0
	for i, win := range windows {
		// Skip spans that end at or before this window; window starts only
		// grow, so lo never has to move backwards.
		for lo < len(doc.Spans) && doc.Spans[lo].EndPos <= win.Start {
			lo++
		}

		c := Chunk{Index: i, Text: win.Text, Start: win.Start, End: win.End}
		for j := lo; j < len(doc.Spans) && doc.Spans[j].StartPos < win.End; j++ {
			c.Timings = append(c.Timings, models.SnippetTiming{
				Start:    doc.Spans[j].Start,
				Duration: doc.Spans[j].Duration,
			})
		}

		if n := len(c.Timings); n > 0 {
			c.StartTime = c.Timings[0].Start
			c.EndTime = c.Timings[n-1].Start + c.Timings[n-1].Duration
		}

		chunks = append(chunks, c)
	}

	return chunks
}
