package main

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/yt-transcript-service/internal/config"
)

type fakeScheduler struct {
	scheduled atomic.Bool
	err       error
}

func (f *fakeScheduler) Schedule(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled.Store(true)
	return nil
}

type fakeCron struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (f *fakeCron) Start() { f.started.Store(true) }

func (f *fakeCron) Stop() context.Context {
	f.stopped.Store(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

type fakeHTTP struct {
	listening atomic.Bool
	shutdown  atomic.Bool
	serveErr  error
	done      chan struct{}
}

func newFakeHTTP() *fakeHTTP {
	return &fakeHTTP{done: make(chan struct{})}
}

func (f *fakeHTTP) ListenAndServe(string) error {
	f.listening.Store(true)
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.done
	return http.ErrServerClosed
}

func (f *fakeHTTP) Shutdown(context.Context) error {
	f.shutdown.Store(true)
	close(f.done)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{HTTP: config.HTTPConfig{Addr: "127.0.0.1:0"}}
}

func TestRunWithComponents_StartsAndShutsDownCleanly(t *testing.T) {
	sched := &fakeScheduler{}
	cronEng := &fakeCron{}
	httpSrv := newFakeHTTP()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWithComponents(ctx, testConfig(), sched, cronEng, httpSrv)
	}()

	require.Eventually(t, func() bool {
		return httpSrv.listening.Load()
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, sched.scheduled.Load())
	assert.True(t, cronEng.started.Load())

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runWithComponents did not return after context cancellation")
	}
	assert.True(t, httpSrv.shutdown.Load())
	assert.True(t, cronEng.stopped.Load())
}

func TestRunWithComponents_SchedulerFailureAborts(t *testing.T) {
	sched := &fakeScheduler{err: errors.New("bad cron expression")}
	cronEng := &fakeCron{}
	httpSrv := newFakeHTTP()

	err := runWithComponents(context.Background(), testConfig(), sched, cronEng, httpSrv)
	require.Error(t, err)
	assert.False(t, cronEng.started.Load())
	assert.False(t, httpSrv.listening.Load())
}

func TestRunWithComponents_NilSchedulerIsAllowed(t *testing.T) {
	cronEng := &fakeCron{}
	httpSrv := newFakeHTTP()
	httpSrv.serveErr = http.ErrServerClosed

	err := runWithComponents(context.Background(), testConfig(), nil, cronEng, httpSrv)
	require.NoError(t, err)
	assert.True(t, cronEng.started.Load())
}

func TestRunWithComponents_ServeErrorPropagates(t *testing.T) {
	cronEng := &fakeCron{}
	httpSrv := newFakeHTTP()
	httpSrv.serveErr = errors.New("listen tcp: address already in use")

	err := runWithComponents(context.Background(), testConfig(), &fakeScheduler{}, cronEng, httpSrv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
}

func TestPolicyFromConfig(t *testing.T) {
	cfg, err := config.NewFromEnv()
	require.NoError(t, err)

	policy := policyFromConfig(cfg)
	assert.Equal(t, "en", policy.Primary)
	assert.Equal(t, "hi", policy.Secondary)
	assert.Equal(t, []string{"es", "fr", "de", "zh", "ja", "ar"}, policy.Fallbacks)
}
