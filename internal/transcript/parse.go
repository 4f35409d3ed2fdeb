package transcript

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
)

const (
	captionsMarker     = `"captions":`
	videoDetailsMarker = `,"videoDetails"`
)

var timedTextPattern = regexp.MustCompile(`<text start="([^"]*)" dur="([^"]*)"[^>]*>([^<]*)</text>`)

type captionTrackMeta struct {
	BaseURL string `json:"baseUrl"`
	Name    struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	IsTranslatable bool   `json:"isTranslatable"`
}

type captionsPayload struct {
	PlayerCaptionsTracklistRenderer struct {
		CaptionTracks []captionTrackMeta `json:"captionTracks"`
	} `json:"playerCaptionsTracklistRenderer"`
}

// parseCaptionTracks extracts the caption track metadata embedded in a watch
// page. Pages without a captions block are classified: a captcha wall means
// too many requests, a page without playabilityStatus means the video is
// gone, anything else means captions are disabled.
func parseCaptionTracks(body []byte, videoID string) ([]captionTrackMeta, error) {
	page := string(body)

	parts := strings.SplitN(page, captionsMarker, 2)
	if len(parts) <= 1 {
		if strings.Contains(page, `class="g-recaptcha"`) {
			return nil, videoErr(videoID, ErrTooManyRequests)
		}
		if !strings.Contains(page, `"playabilityStatus":`) {
			return nil, videoErr(videoID, ErrVideoUnavailable)
		}
		return nil, videoErr(videoID, ErrTranscriptsDisabled)
	}

	end := strings.Index(parts[1], videoDetailsMarker)
	if end < 0 {
		return nil, videoErr(videoID, ErrTranscriptsDisabled)
	}

	var payload captionsPayload
	if err := json.Unmarshal([]byte(parts[1][:end]), &payload); err != nil {
		return nil, videoErr(videoID, ErrTranscriptsDisabled)
	}

	tracks := payload.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, videoErr(videoID, ErrNoTranscriptFound)
	}
	return tracks, nil
}

// parseTimedText decodes the timedtext XML body into segments.
func parseTimedText(body []byte) []Segment {
	matches := timedTextPattern.FindAllStringSubmatch(string(body), -1)
	segments := make([]Segment, 0, len(matches))
	for _, match := range matches {
		start, _ := strconv.ParseFloat(match[1], 64)
		duration, _ := strconv.ParseFloat(match[2], 64)
		text := strings.TrimSpace(html.UnescapeString(match[3]))
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     text,
			Start:    start,
			Duration: duration,
		})
	}
	return segments
}
