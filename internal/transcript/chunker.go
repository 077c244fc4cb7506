package transcript

import "fmt"

const (
	// DefaultWindowSize is the chunk width in characters.
	DefaultWindowSize = 1000
	// DefaultStep is the distance between consecutive window starts, leaving a
	// 200-character overlap at the defaults.
	DefaultStep = 800
)

// Window is one character slice of the full transcript text. Start and End are
// the half-open [Start, End) offsets of Text within the source string.
type Window struct {
	Text  string
	Start int
	End   int
}

// Split cuts text into fixed-size overlapping windows starting at offsets
// 0, step, 2*step, ... for every offset below len(text). The final window is
// clipped to the remaining text and always emitted, even when shorter than the
// overlap; a text shorter than windowSize yields exactly one window containing
// the whole text. Empty text yields no windows.
//
// windowSize must exceed step: equal or smaller windows would leave gaps in
// coverage, which is a caller error rather than something to paper over.
func Split(text string, windowSize, step int) ([]Window, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d", step)
	}
	if windowSize <= step {
		return nil, fmt.Errorf("window size %d must exceed step %d to keep windows overlapping", windowSize, step)
	}

	var windows []Window
	for start := 0; start < len(text); start += step {
		end := start + windowSize
		if end > len(text) {
			end = len(text)
		}
		windows = append(windows, Window{
			Text:  text[start:end],
			Start: start,
			End:   end,
		})
	}

	return windows, nil
}
