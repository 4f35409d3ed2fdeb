package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/MimeLyc/yt-transcript-service/pkg/log"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

const defaultBaseURL = "https://www.youtube.com"

// Client retrieves caption tracks from YouTube's watch-page / timedtext
// surface. It implements Fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTranscripts fetches the watch page for videoID and enumerates the
// caption tracks it offers. Failure pages are classified into the typed
// errors in errors.go.
func (c *Client) ListTranscripts(ctx context.Context, videoID string) (*TrackList, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/watch?v=%s", c.baseURL, url.QueryEscape(videoID)))
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	metas, err := parseCaptionTracks(body, videoID)
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(metas))
	for _, meta := range metas {
		tracks = append(tracks, &httpTrack{
			client:       c,
			videoID:      videoID,
			baseURL:      meta.BaseURL,
			languageCode: meta.LanguageCode,
			name:         meta.Name.SimpleText,
			generated:    meta.Kind == "asr",
			translatable: meta.IsTranslatable,
		})
	}
	return &TrackList{VideoID: videoID, Tracks: tracks}, nil
}

// FetchTranscript is the list-find-fetch shorthand over ListTranscripts.
func (c *Client) FetchTranscript(ctx context.Context, videoID string, languages []string) ([]Segment, string, error) {
	list, err := c.ListTranscripts(ctx, videoID)
	if err != nil {
		return nil, "", err
	}

	track, ok := list.FindTranscript(languages)
	if !ok {
		return nil, "", videoErr(videoID, ErrNoTranscriptFound)
	}

	segments, err := track.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}
	return segments, track.LanguageCode(), nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

// httpTrack is a caption track bound to the client that discovered it.
type httpTrack struct {
	client       *Client
	videoID      string
	baseURL      string
	languageCode string
	name         string
	generated    bool
	translatable bool
}

func (t *httpTrack) LanguageCode() string {
	return t.languageCode
}

func (t *httpTrack) Name() string {
	return t.name
}

func (t *httpTrack) IsGenerated() bool {
	return t.generated
}

func (t *httpTrack) IsTranslatable() bool {
	return t.translatable
}

// Translate returns a copy of the track whose timedtext URL carries the
// tlang parameter, so Fetch serves captions in the target language.
func (t *httpTrack) Translate(target string) (Track, error) {
	if !t.translatable {
		return nil, videoErr(t.videoID, ErrNotTranslatable)
	}
	translated := *t
	translated.baseURL = t.baseURL + "&tlang=" + url.QueryEscape(target)
	translated.languageCode = target
	return &translated, nil
}

func (t *httpTrack) Fetch(ctx context.Context) ([]Segment, error) {
	body, err := t.client.get(ctx, t.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext for video %s: %w", t.videoID, err)
	}
	segments := parseTimedText(body)
	log.Debug("Fetched %d caption segments for video %s (%s)", len(segments), t.videoID, t.languageCode)
	return segments, nil
}
