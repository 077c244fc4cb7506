package services

import (
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"

	"vidrag-backend/internal/models"
)

type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
	}
}

// ExtractVideoID resolves a watch/share/embed URL (or a bare 11-char ID) to
// the canonical video ID.
func (s *YouTubeService) ExtractVideoID(videoURL string) (string, error) {
	id, err := yt.ExtractVideoID(videoURL)
	if err != nil {
		return "", fmt.Errorf("not a recognizable YouTube URL or video ID: %w", err)
	}
	return id, nil
}

// FetchTimedTranscript fetches the caption track for a video with per-snippet
// timing preserved. English tracks are preferred, then any available language,
// then the legacy timedtext endpoint.
func (s *YouTubeService) FetchTimedTranscript(videoID string) (*models.TimedTranscript, error) {
	languageCode := "en"
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		// Fallback: request any available language
		languageCode = ""
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacy, legacyErr := s.fetchViaTimedText(videoID)
			if legacyErr == nil {
				return legacy, nil
			}
			return nil, fmt.Errorf("no subtitles available via transcript API (%v) and timedtext fallback failed (%v)", err, legacyErr)
		}
	}

	if len(transcript.Entries) == 0 {
		return nil, fmt.Errorf("subtitle track is empty")
	}

	snippets := make([]models.TimedSnippet, 0, len(transcript.Entries))
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		snippets = append(snippets, models.TimedSnippet{
			Text:     text,
			Start:    entry.Start,
			Duration: entry.Duration,
		})
	}

	if len(snippets) == 0 {
		return nil, fmt.Errorf("subtitle track resolved to empty content")
	}

	return &models.TimedTranscript{
		Snippets:     snippets,
		Language:     languageCode,
		LanguageCode: languageCode,
		IsGenerated:  true,
	}, nil
}

func (s *YouTubeService) fetchViaTimedText(videoID string) (*models.TimedTranscript, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, _ := http.NewRequest("GET", pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read YouTube page: %w", err)
	}

	pageHTML := string(body)
	log.Printf("TimedText fallback: fetched YouTube page for %s (%d bytes)", videoID, len(pageHTML))

	captionURL, err := extractCaptionURL(pageHTML)
	if err != nil {
		return nil, err
	}

	captionResp, err := s.httpClient.Get(captionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer captionResp.Body.Close()

	captionBody, err := io.ReadAll(captionResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read captions: %w", err)
	}

	snippets, err := parseCaptionsXML(captionBody)
	if err != nil {
		return nil, fmt.Errorf("failed to parse captions XML: %w", err)
	}

	return &models.TimedTranscript{
		Snippets:    snippets,
		IsGenerated: true,
	}, nil
}

func extractCaptionURL(pageHTML string) (string, error) {
	re := regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	matches := re.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		re2 := regexp.MustCompile(`"playerCaptionsTracklistRenderer"\s*:\s*\{(?:.*?,)?\s*"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
		matches = re2.FindStringSubmatch(pageHTML)
		if len(matches) < 2 {
			return "", fmt.Errorf("no captions available for this video")
		}
	}

	tracksJSON := matches[1]
	reURL := regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
	urlMatches := reURL.FindStringSubmatch(tracksJSON)
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := urlMatches[1]
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")

	return u, nil
}

func parseCaptionsXML(data []byte) ([]models.TimedSnippet, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, err
	}

	var snippets []models.TimedSnippet
	for _, t := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Text))
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(t.Start, 64)
		dur, _ := strconv.ParseFloat(t.Dur, 64)
		snippets = append(snippets, models.TimedSnippet{Text: text, Start: start, Duration: dur})
	}

	if len(snippets) == 0 {
		return nil, fmt.Errorf("captions XML empty")
	}

	return snippets, nil
}
