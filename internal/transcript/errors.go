package transcript

import (
	"errors"
	"fmt"
)

var (
	// ErrTranscriptsDisabled means captions are administratively disabled for the video.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	// ErrVideoUnavailable means the video does not exist, is private or was removed.
	ErrVideoUnavailable = errors.New("video is unavailable")
	// ErrNoTranscriptFound means no track matched the requested languages.
	ErrNoTranscriptFound = errors.New("no transcript found")
	// ErrTooManyRequests means the upstream is demanding a captcha from this IP.
	ErrTooManyRequests = errors.New("upstream requires solving a captcha to continue")
	// ErrNotTranslatable means the track does not offer translation.
	ErrNotTranslatable = errors.New("track is not translatable")
)

// VideoError tags an upstream failure with the video it belongs to.
type VideoError struct {
	VideoID string
	Err     error
}

func (e *VideoError) Error() string {
	return fmt.Sprintf("%v (video %s)", e.Err, e.VideoID)
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

func videoErr(videoID string, err error) error {
	return &VideoError{VideoID: videoID, Err: err}
}
