package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/yt-transcript-service/internal/config"
	"github.com/MimeLyc/yt-transcript-service/internal/httpapi"
	"github.com/MimeLyc/yt-transcript-service/internal/persistence"
	"github.com/MimeLyc/yt-transcript-service/internal/probe"
	"github.com/MimeLyc/yt-transcript-service/internal/resolver"
	"github.com/MimeLyc/yt-transcript-service/internal/transcript"
	"github.com/MimeLyc/yt-transcript-service/pkg/log"
)

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	opts := []config.Option{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		opt, err := config.LoadYAMLFile(path)
		if err != nil {
			log.Fatal("Failed to load config file: %v", err)
		}
		opts = append(opts, opt)
	}

	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	initLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *persistence.SQLiteStore
	if cfg.Storage.SettingsFromDB {
		store, err = persistence.NewSQLiteStore(cfg.Storage.DBPath, cfg.RuntimeSettings())
		if err != nil {
			log.Fatal("Failed to open settings store: %v", err)
		}
		defer store.Close()

		settings, err := store.GetRuntimeSettings()
		if err != nil {
			log.Fatal("Failed to load runtime settings: %v", err)
		}
		config.WithRuntimeSettings(settings)(cfg)
	}

	client := transcript.NewClient(
		transcript.WithBaseURL(cfg.Upstream.BaseURL),
		transcript.WithUserAgent(cfg.Upstream.UserAgent),
		transcript.WithTimeout(time.Duration(cfg.Upstream.Timeout)*time.Second),
	)
	res := resolver.New(client, policyFromConfig(cfg))

	cronInstance := cron.New()
	probeSvc := probe.New(cfg.Probe, cronInstance)

	serverOpts := []httpapi.Option{
		httpapi.WithUpstreamReporter(probeSvc),
	}
	if store != nil {
		serverOpts = append(serverOpts,
			httpapi.WithSettingsStore(store),
			httpapi.WithSettingsApplier(func(next config.RuntimeSettings) error {
				res.SetPolicy(resolver.LanguagePolicy{
					Primary:   next.PrimaryLanguage,
					Secondary: next.SecondaryLanguage,
					Fallbacks: next.FallbackLanguages,
				})
				return probeSvc.SetCronExpr(ctx, next.ProbeCronExpr)
			}),
		)
	}
	srv := httpapi.NewServer(res, serverOpts...)

	if err := runWithComponents(ctx, cfg, probeSvc, cronInstance, srv); err != nil {
		log.Fatal("Server exited: %v", err)
	}
}

func runWithComponents(ctx context.Context, cfg *config.Config, sched scheduler, cronEng cronEngine, httpSrv httpServer) error {
	if sched != nil {
		if err := sched.Schedule(ctx); err != nil {
			return err
		}
	}

	cronEng.Start()
	defer cronEng.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		errCh <- httpSrv.ListenAndServe(cfg.HTTP.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func policyFromConfig(cfg *config.Config) resolver.LanguagePolicy {
	return resolver.LanguagePolicy{
		Primary:   cfg.Resolve.PrimaryLanguage,
		Secondary: cfg.Resolve.SecondaryLanguage,
		Fallbacks: cfg.Resolve.FallbackLanguages,
	}
}

func initLogging(cfg config.LogConfig) {
	level := log.ParseLevel(cfg.Level)
	if cfg.File != "" {
		if err := log.InitFileLogger(cfg.File, level); err == nil {
			return
		}
		// Fall through to stdout when the log file cannot be opened.
	}
	log.InitLogger(level)
}
