package resolver

import (
	"errors"
	"fmt"

	"github.com/MimeLyc/yt-transcript-service/internal/transcript"
)

type Kind int

const (
	KindUpstream Kind = iota
	KindCaptionsDisabled
	KindVideoUnavailable
	KindNoTranscript
)

func (k Kind) String() string {
	switch k {
	case KindCaptionsDisabled:
		return "CaptionsDisabled"
	case KindVideoUnavailable:
		return "VideoUnavailable"
	case KindNoTranscript:
		return "NoTranscript"
	case KindUpstream:
		return "Upstream"
	default:
		return "Upstream"
	}
}

// Error is a classified resolution failure. Message is the user-facing
// diagnostic; Cause carries the upstream error when there is one.
type Error struct {
	Kind    Kind
	VideoID string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.VideoID == "" {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("[%s] %s (video %s)", e.Kind, e.Message, e.VideoID)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf reports the classification of err. Unclassified errors count as
// upstream failures.
func KindOf(err error) Kind {
	var resErr *Error
	if errors.As(err, &resErr) {
		return resErr.Kind
	}
	return KindUpstream
}

// classify maps an upstream client error to a resolver Error.
func classify(videoID string, err error) *Error {
	switch {
	case errors.Is(err, transcript.ErrTranscriptsDisabled):
		return &Error{
			Kind:    KindCaptionsDisabled,
			VideoID: videoID,
			Message: "transcripts are disabled for this video",
			Cause:   err,
		}
	case errors.Is(err, transcript.ErrVideoUnavailable):
		return &Error{
			Kind:    KindVideoUnavailable,
			VideoID: videoID,
			Message: "video is unavailable",
			Cause:   err,
		}
	case errors.Is(err, transcript.ErrNoTranscriptFound):
		return &Error{
			Kind:    KindNoTranscript,
			VideoID: videoID,
			Message: fmt.Sprintf("no transcript available for video %s", videoID),
			Cause:   err,
		}
	default:
		return &Error{
			Kind:    KindUpstream,
			VideoID: videoID,
			Message: err.Error(),
			Cause:   err,
		}
	}
}
