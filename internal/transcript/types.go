package transcript

import "context"

// Segment is a single caption entry: its text and timing in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Track is one caption track offered for a video. Translate returns a new
// track that serves the same captions in the target language; it never
// mutates the receiver.
type Track interface {
	LanguageCode() string
	Name() string
	IsGenerated() bool
	IsTranslatable() bool
	Translate(target string) (Track, error)
	Fetch(ctx context.Context) ([]Segment, error)
}

// TrackList is the enumeration of caption tracks offered for one video.
type TrackList struct {
	VideoID string
	Tracks  []Track
}

// FindTranscript returns the first track matching the language codes, in the
// order given. A miss is reported with ok=false, not an error.
func (l *TrackList) FindTranscript(languages []string) (Track, bool) {
	for _, lang := range languages {
		for _, track := range l.Tracks {
			if track.LanguageCode() == lang {
				return track, true
			}
		}
	}
	return nil, false
}

// FindManuallyCreated is FindTranscript restricted to human-authored tracks.
func (l *TrackList) FindManuallyCreated(languages []string) (Track, bool) {
	for _, lang := range languages {
		for _, track := range l.Tracks {
			if track.LanguageCode() == lang && !track.IsGenerated() {
				return track, true
			}
		}
	}
	return nil, false
}

// Fetcher is the transcript-fetching capability consumed by the resolver.
type Fetcher interface {
	// FetchTranscript lists the tracks for videoID, picks the first one
	// matching languages and fetches it. It returns the segments and the
	// language code the transcript was served in.
	FetchTranscript(ctx context.Context, videoID string, languages []string) ([]Segment, string, error)
	ListTranscripts(ctx context.Context, videoID string) (*TrackList, error)
}
