package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MimeLyc/yt-transcript-service/pkg/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with a uuid, echoes it in X-Request-Id and
// logs the outcome.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		log.Info("%s %s -> %d (%s) request_id=%s",
			r.Method, r.URL.Path, rec.status, time.Since(started).Round(time.Millisecond), requestID)
	})
}
