package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/abadojack/whatlanggo"

	"github.com/MimeLyc/yt-transcript-service/internal/transcript"
	"github.com/MimeLyc/yt-transcript-service/pkg/log"
)

// LanguagePolicy is the ordered language preference used when resolving a
// transcript: Primary is fetched directly, Secondary is searched in the track
// listing, Fallbacks are searched among manually-created tracks only.
type LanguagePolicy struct {
	Primary   string   `json:"primary"`
	Secondary string   `json:"secondary"`
	Fallbacks []string `json:"fallbacks"`
}

// ResolvedTranscript is one successful resolution for one video. Language is
// the code the transcript was ultimately served in (possibly translated);
// DetectedLanguage is a best-effort classification of the served text, kept
// for diagnostics only.
type ResolvedTranscript struct {
	VideoID          string
	Language         string
	DetectedLanguage string
	Segments         []transcript.Segment
}

// Text returns the space-joined segment texts.
func (t ResolvedTranscript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, segment := range t.Segments {
		parts = append(parts, segment.Text)
	}
	return strings.Join(parts, " ")
}

// Resolver locates a usable transcript for a video through an ordered
// fallback and translation chain. It holds no per-request state; the policy
// snapshot is guarded so it can be swapped at runtime.
type Resolver struct {
	client transcript.Fetcher

	mu     sync.RWMutex
	policy LanguagePolicy
}

func New(client transcript.Fetcher, policy LanguagePolicy) *Resolver {
	return &Resolver{
		client: client,
		policy: policy,
	}
}

func (r *Resolver) Policy() LanguagePolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := r.policy
	ret.Fallbacks = append([]string(nil), r.policy.Fallbacks...)
	return ret
}

func (r *Resolver) SetPolicy(policy LanguagePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy.Fallbacks = append([]string(nil), policy.Fallbacks...)
	r.policy = policy
}

// Resolve runs the ordered resolution policy, stopping at the first success:
// direct fetch in the primary language, then the secondary language from the
// track listing, then a manually-created track in one of the fallback
// languages. A candidate not already in the primary language is translated
// into it. Each upstream call is attempted at most once.
func (r *Resolver) Resolve(ctx context.Context, videoID string) (ResolvedTranscript, error) {
	policy := r.Policy()

	log.Info("Trying to fetch %s transcript for video %s", policy.Primary, videoID)
	segments, lang, err := r.client.FetchTranscript(ctx, videoID, []string{policy.Primary})
	if err == nil {
		return r.materialize(videoID, lang, segments), nil
	}
	if !errors.Is(err, transcript.ErrNoTranscriptFound) {
		log.Error("Failed to fetch %s transcript for video %s: %v", policy.Primary, videoID, err)
		return ResolvedTranscript{}, classify(videoID, err)
	}

	log.Info("%s transcript not found, trying other languages for video %s", policy.Primary, videoID)
	list, err := r.client.ListTranscripts(ctx, videoID)
	if err != nil {
		log.Error("Failed to list transcripts for video %s: %v", videoID, err)
		return ResolvedTranscript{}, classify(videoID, err)
	}

	track, ok := list.FindTranscript([]string{policy.Secondary})
	if !ok {
		log.Info("%s transcript not found, trying manually created fallbacks for video %s", policy.Secondary, videoID)
		track, ok = list.FindManuallyCreated(policy.Fallbacks)
	}
	if !ok {
		return ResolvedTranscript{}, &Error{
			Kind:    KindNoTranscript,
			VideoID: videoID,
			Message: fmt.Sprintf("no transcript available in any configured language for video %s", videoID),
		}
	}

	if !strings.Contains(track.LanguageCode(), policy.Primary) {
		log.Info("Translating transcript from %s to %s for video %s", track.LanguageCode(), policy.Primary, videoID)
		translated, err := track.Translate(policy.Primary)
		if err != nil {
			log.Error("Failed to translate transcript for video %s: %v", videoID, err)
			return ResolvedTranscript{}, classify(videoID, err)
		}
		track = translated
	}

	segments, err = track.Fetch(ctx)
	if err != nil {
		log.Error("Failed to fetch %s transcript for video %s: %v", track.LanguageCode(), videoID, err)
		return ResolvedTranscript{}, classify(videoID, err)
	}
	return r.materialize(videoID, track.LanguageCode(), segments), nil
}

func (r *Resolver) materialize(videoID, lang string, segments []transcript.Segment) ResolvedTranscript {
	ret := ResolvedTranscript{
		VideoID:  videoID,
		Language: lang,
		Segments: segments,
	}
	ret.DetectedLanguage = detectLanguage(segments)
	if ret.DetectedLanguage != "" && !strings.HasPrefix(lang, ret.DetectedLanguage) {
		log.Debug("Detected language %s differs from served language %s for video %s",
			ret.DetectedLanguage, lang, videoID)
	}
	return ret
}

// Sampling more segments than this adds latency without improving the vote.
const detectSampleSize = 50

// detectLanguage runs a majority vote over the segment texts.
func detectLanguage(segments []transcript.Segment) string {
	if len(segments) == 0 {
		return ""
	}

	langMap := make(map[string]int)
	for i, segment := range segments {
		if i >= detectSampleSize {
			break
		}
		lang := whatlanggo.DetectLang(segment.Text).Iso6391()
		if lang == "" {
			continue
		}
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}
	return topLang
}
