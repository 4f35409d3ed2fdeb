package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/MimeLyc/yt-transcript-service/internal/config"
	"github.com/MimeLyc/yt-transcript-service/internal/probe"
	"github.com/MimeLyc/yt-transcript-service/internal/resolver"
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() (config.RuntimeSettings, error)
	UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

type runtimeSettingsApplier func(next config.RuntimeSettings) error

type upstreamReporter interface {
	Snapshot() probe.Snapshot
}

type Server struct {
	resolver *resolver.Resolver
	settings runtimeSettingsStore
	apply    runtimeSettingsApplier
	upstream upstreamReporter
	started  time.Time

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithSettingsApplier(apply runtimeSettingsApplier) Option {
	return func(s *Server) {
		s.apply = apply
	}
}

func WithUpstreamReporter(reporter upstreamReporter) Option {
	return func(s *Server) {
		s.upstream = reporter
	}
}

func NewServer(res *resolver.Resolver, opts ...Option) *Server {
	s := &Server{
		resolver: res,
		started:  time.Now(),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/get_transcript", s.handleGetTranscript)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
}
