package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/MimeLyc/yt-transcript-service/internal/config"
	"github.com/MimeLyc/yt-transcript-service/internal/probe"
	"github.com/MimeLyc/yt-transcript-service/internal/resolver"
	"github.com/MimeLyc/yt-transcript-service/pkg/icron"
	"github.com/MimeLyc/yt-transcript-service/pkg/log"
)

type transcriptResponse struct {
	Transcript string `json:"transcript"`
	VideoID    string `json:"video_id"`
	Length     int    `json:"length"`
}

type errorResponse struct {
	Error   string `json:"error"`
	VideoID string `json:"video_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Unexpected error handling %s: %v", r.URL.Path, rec)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error: fmt.Sprintf("Internal server error: %v", rec),
			})
		}
	}()

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	videoURL := r.URL.Query().Get("url")
	if videoURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "You must provide a YouTube video URL.",
		})
		return
	}

	videoID, ok := resolver.ExtractVideoID(videoURL)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "Invalid YouTube URL format.",
		})
		return
	}

	log.Info("Attempting to fetch transcript for video %s", videoID)
	resolved, err := s.resolver.Resolve(r.Context(), videoID)
	if err != nil {
		switch resolver.KindOf(err) {
		case resolver.KindCaptionsDisabled:
			writeJSON(w, http.StatusForbidden, errorResponse{
				Error:   "Transcripts are disabled for this video.",
				VideoID: videoID,
			})
		case resolver.KindVideoUnavailable:
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error:   "Video is unavailable.",
				VideoID: videoID,
			})
		default:
			log.Error("Error processing video %s: %v", videoID, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   fmt.Sprintf("Failed to retrieve transcript: %s", resolveMessage(err)),
				VideoID: videoID,
			})
		}
		return
	}

	text := resolved.Text()
	writeJSON(w, http.StatusOK, transcriptResponse{
		Transcript: text,
		VideoID:    videoID,
		// Length counts characters, not bytes, so multi-byte scripts report
		// the same value the caller sees.
		Length: utf8.RuneCountInString(text),
	})
}

func resolveMessage(err error) string {
	var resErr *resolver.Error
	if errors.As(err, &resErr) {
		return resErr.Message
	}
	return err.Error()
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Policy        resolver.LanguagePolicy `json:"policy"`
	Upstream      *probe.Snapshot         `json:"upstream,omitempty"`
	NextProbeAt   *time.Time              `json:"next_probe_at,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ret := statusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Policy:        s.resolver.Policy(),
	}
	if s.upstream != nil {
		snapshot := s.upstream.Snapshot()
		ret.Upstream = &snapshot
		if info, err := icron.GetTriggerInfo(snapshot.CronExpr, time.Now()); err == nil {
			ret.NextProbeAt = &info.Next
		}
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.GetRuntimeSettings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var req config.RuntimeSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := s.settings.UpdateRuntimeSettings(req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.apply != nil {
			if err := s.apply(saved); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// writeJSON encodes data without HTML escaping so non-ASCII transcript text
// goes out literally.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
