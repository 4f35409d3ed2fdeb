package probe

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/yt-transcript-service/internal/config"
	"github.com/MimeLyc/yt-transcript-service/pkg/log"
)

// Snapshot is the last observed upstream reachability state.
type Snapshot struct {
	OK         bool      `json:"ok"`
	StatusCode int       `json:"status_code,omitempty"`
	LatencyMS  int64     `json:"latency_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	CronExpr   string    `json:"cron_expr"`
	URL        string    `json:"url"`
}

// Service periodically checks that the upstream origin answers at all. The
// result is advisory: it is surfaced on /api/status and never gates request
// handling.
type Service struct {
	url        string
	httpClient *http.Client
	cron       *cron.Cron
	group      singleflight.Group

	mu       sync.RWMutex
	cronExpr string
	entryID  cron.EntryID
	last     Snapshot
}

func New(cfg config.ProbeConfig, cronEngine *cron.Cron) *Service {
	return &Service{
		url:        cfg.URL,
		cronExpr:   cfg.CronExpr,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cron:       cronEngine,
	}
}

// Schedule registers the probe with the cron engine and runs one immediate
// check so /api/status has data before the first tick.
func (s *Service) Schedule(ctx context.Context) error {
	log.Info("Scheduling upstream probe for %s (%s)", s.url, s.cronExpr)

	runFunc := func() {
		_, _, _ = s.group.Do("probe", func() (any, error) {
			s.run(ctx)
			return nil, nil
		})
	}

	entryID, err := s.cron.AddFunc(s.cronExpr, runFunc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entryID = entryID
	s.mu.Unlock()

	go runFunc()
	return nil
}

// SetCronExpr reschedules the probe. Used when runtime settings change.
func (s *Service) SetCronExpr(ctx context.Context, expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return err
	}

	s.mu.Lock()
	if expr == s.cronExpr {
		s.mu.Unlock()
		return nil
	}
	oldEntry := s.entryID
	s.cronExpr = expr
	s.mu.Unlock()

	s.cron.Remove(oldEntry)
	entryID, err := s.cron.AddFunc(expr, func() {
		_, _, _ = s.group.Do("probe", func() (any, error) {
			s.run(ctx)
			return nil, nil
		})
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entryID = entryID
	s.mu.Unlock()
	log.Info("Rescheduled upstream probe to %s", expr)
	return nil
}

func (s *Service) run(ctx context.Context) {
	started := time.Now()
	snapshot := Snapshot{
		CheckedAt: started.UTC(),
		URL:       s.url,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		snapshot.Error = err.Error()
		s.store(snapshot)
		return
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Warn("Upstream probe failed: %v", err)
		snapshot.Error = err.Error()
		s.store(snapshot)
		return
	}
	defer resp.Body.Close()

	snapshot.StatusCode = resp.StatusCode
	snapshot.LatencyMS = time.Since(started).Milliseconds()
	snapshot.OK = resp.StatusCode < http.StatusInternalServerError
	if !snapshot.OK {
		log.Warn("Upstream probe got status %d from %s", resp.StatusCode, s.url)
	}
	s.store(snapshot)
}

func (s *Service) store(snapshot Snapshot) {
	s.mu.Lock()
	snapshot.CronExpr = s.cronExpr
	s.last = snapshot
	s.mu.Unlock()
}

// Snapshot returns the last probe result. CheckedAt is zero until the first
// run completes.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := s.last
	if ret.CronExpr == "" {
		ret.CronExpr = s.cronExpr
	}
	if ret.URL == "" {
		ret.URL = s.url
	}
	return ret
}
