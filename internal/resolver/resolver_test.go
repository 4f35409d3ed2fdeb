package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/yt-transcript-service/internal/transcript"
)

type fakeTrack struct {
	lang         string
	generated    bool
	translatable bool
	segments     []transcript.Segment
	translations map[string][]transcript.Segment
	fetchErr     error
}

func (t *fakeTrack) LanguageCode() string { return t.lang }
func (t *fakeTrack) Name() string         { return t.lang }
func (t *fakeTrack) IsGenerated() bool    { return t.generated }
func (t *fakeTrack) IsTranslatable() bool { return t.translatable }

func (t *fakeTrack) Translate(target string) (transcript.Track, error) {
	if !t.translatable {
		return nil, &transcript.VideoError{VideoID: "fake", Err: transcript.ErrNotTranslatable}
	}
	return &fakeTrack{
		lang:     target,
		segments: t.translations[target],
	}, nil
}

func (t *fakeTrack) Fetch(context.Context) ([]transcript.Segment, error) {
	if t.fetchErr != nil {
		return nil, t.fetchErr
	}
	return t.segments, nil
}

type fakeFetcher struct {
	tracks  []transcript.Track
	listErr error
}

func (f *fakeFetcher) ListTranscripts(_ context.Context, videoID string) (*transcript.TrackList, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &transcript.TrackList{VideoID: videoID, Tracks: f.tracks}, nil
}

func (f *fakeFetcher) FetchTranscript(ctx context.Context, videoID string, languages []string) ([]transcript.Segment, string, error) {
	list, err := f.ListTranscripts(ctx, videoID)
	if err != nil {
		return nil, "", err
	}
	track, ok := list.FindTranscript(languages)
	if !ok {
		return nil, "", &transcript.VideoError{VideoID: videoID, Err: transcript.ErrNoTranscriptFound}
	}
	segments, err := track.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}
	return segments, track.LanguageCode(), nil
}

func defaultPolicy() LanguagePolicy {
	return LanguagePolicy{
		Primary:   "en",
		Secondary: "hi",
		Fallbacks: []string{"es", "fr", "de", "zh", "ja", "ar"},
	}
}

func TestResolve_PrimaryLanguageDirect(t *testing.T) {
	fetcher := &fakeFetcher{
		tracks: []transcript.Track{
			&fakeTrack{
				lang: "en",
				segments: []transcript.Segment{
					{Text: "never gonna", Start: 0, Duration: 2},
					{Text: "give you up", Start: 2, Duration: 2},
				},
			},
		},
	}

	res := New(fetcher, defaultPolicy())
	resolved, err := res.Resolve(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", resolved.VideoID)
	assert.Equal(t, "en", resolved.Language)
	assert.Equal(t, "never gonna give you up", resolved.Text())
}

func TestResolve_HindiOnlyIsTranslatedToEnglish(t *testing.T) {
	fetcher := &fakeFetcher{
		tracks: []transcript.Track{
			&fakeTrack{
				lang:         "hi",
				generated:    true,
				translatable: true,
				segments: []transcript.Segment{
					{Text: "नमस्ते दुनिया", Start: 0, Duration: 2},
				},
				translations: map[string][]transcript.Segment{
					"en": {
						{Text: "hello world", Start: 0, Duration: 2},
					},
				},
			},
		},
	}

	res := New(fetcher, defaultPolicy())
	resolved, err := res.Resolve(context.Background(), "vid00000001")
	require.NoError(t, err)

	assert.Equal(t, "en", resolved.Language)
	assert.Equal(t, "hello world", resolved.Text())
}

func TestResolve_ManualFallbackRespectsOrder(t *testing.T) {
	deTrack := &fakeTrack{
		lang:     "de",
		segments: []transcript.Segment{{Text: "hallo welt"}},
	}
	frTrack := &fakeTrack{
		lang:         "fr",
		translatable: true,
		segments:     []transcript.Segment{{Text: "bonjour le monde"}},
		translations: map[string][]transcript.Segment{
			"en": {{Text: "hello world from french"}},
		},
	}
	fetcher := &fakeFetcher{
		// es is auto-generated, so the manual search must skip it.
		tracks: []transcript.Track{
			&fakeTrack{lang: "es", generated: true, segments: []transcript.Segment{{Text: "hola"}}},
			deTrack,
			frTrack,
		},
	}

	res := New(fetcher, defaultPolicy())
	resolved, err := res.Resolve(context.Background(), "vid00000002")
	require.NoError(t, err)

	// fr precedes de in the fallback order; the candidate is then translated.
	assert.Equal(t, "en", resolved.Language)
	assert.Equal(t, "hello world from french", resolved.Text())
}

func TestResolve_NoTranscriptAnywhere(t *testing.T) {
	fetcher := &fakeFetcher{
		tracks: []transcript.Track{
			// A generated track outside every configured language.
			&fakeTrack{lang: "ko", generated: true, segments: []transcript.Segment{{Text: "안녕"}}},
		},
	}

	res := New(fetcher, defaultPolicy())
	_, err := res.Resolve(context.Background(), "vid00000003")
	require.Error(t, err)
	assert.Equal(t, KindNoTranscript, KindOf(err))

	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "vid00000003", resErr.VideoID)
}

func TestResolve_CaptionsDisabled(t *testing.T) {
	fetcher := &fakeFetcher{
		listErr: &transcript.VideoError{VideoID: "vid00000004", Err: transcript.ErrTranscriptsDisabled},
	}

	res := New(fetcher, defaultPolicy())
	_, err := res.Resolve(context.Background(), "vid00000004")
	require.Error(t, err)
	assert.Equal(t, KindCaptionsDisabled, KindOf(err))
}

func TestResolve_VideoUnavailable(t *testing.T) {
	fetcher := &fakeFetcher{
		listErr: &transcript.VideoError{VideoID: "vid00000005", Err: transcript.ErrVideoUnavailable},
	}

	res := New(fetcher, defaultPolicy())
	_, err := res.Resolve(context.Background(), "vid00000005")
	require.Error(t, err)
	assert.Equal(t, KindVideoUnavailable, KindOf(err))
}

func TestResolve_UpstreamFailureCarriesMessage(t *testing.T) {
	fetcher := &fakeFetcher{
		listErr: errors.New("connection reset by peer"),
	}

	res := New(fetcher, defaultPolicy())
	_, err := res.Resolve(context.Background(), "vid00000006")
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))

	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, resErr.Message, "connection reset by peer")
}

func TestResolve_RegionalPrimaryVariantIsNotTranslated(t *testing.T) {
	fetcher := &fakeFetcher{
		tracks: []transcript.Track{
			&fakeTrack{
				lang:         "en-GB",
				translatable: true,
				segments:     []transcript.Segment{{Text: "colour of magic"}},
			},
		},
	}

	// en-GB is not matched by the direct en fetch or the secondary search,
	// but FindManuallyCreated with en-GB in fallbacks serves it untranslated.
	policy := defaultPolicy()
	policy.Fallbacks = []string{"en-GB"}

	res := New(fetcher, policy)
	resolved, err := res.Resolve(context.Background(), "vid00000007")
	require.NoError(t, err)
	assert.Equal(t, "en-GB", resolved.Language)
	assert.Equal(t, "colour of magic", resolved.Text())
}

func TestSetPolicy_SwapsAtomically(t *testing.T) {
	fetcher := &fakeFetcher{
		tracks: []transcript.Track{
			&fakeTrack{lang: "fr", segments: []transcript.Segment{{Text: "bonjour"}}},
		},
	}

	res := New(fetcher, defaultPolicy())
	res.SetPolicy(LanguagePolicy{Primary: "fr", Secondary: "de"})

	resolved, err := res.Resolve(context.Background(), "vid00000008")
	require.NoError(t, err)
	assert.Equal(t, "fr", resolved.Language)

	got := res.Policy()
	assert.Equal(t, "fr", got.Primary)
	assert.Empty(t, got.Fallbacks)
}
