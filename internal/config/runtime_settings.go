package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// RuntimeSettings is the subset of configuration that can be changed while the
// service is running, via PUT /api/settings. It is persisted in the settings
// store and applied live to the resolver and the probe.
type RuntimeSettings struct {
	PrimaryLanguage   string   `json:"primary_language"`
	SecondaryLanguage string   `json:"secondary_language"`
	FallbackLanguages []string `json:"fallback_languages"`
	ProbeCronExpr     string   `json:"probe_cron_expr"`
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.PrimaryLanguage) == "" {
		return fmt.Errorf("primary_language is required")
	}
	if _, err := language.Parse(s.PrimaryLanguage); err != nil {
		return fmt.Errorf("invalid primary_language: %w", err)
	}
	if strings.TrimSpace(s.SecondaryLanguage) == "" {
		return fmt.Errorf("secondary_language is required")
	}
	if _, err := language.Parse(s.SecondaryLanguage); err != nil {
		return fmt.Errorf("invalid secondary_language: %w", err)
	}
	for _, lang := range s.FallbackLanguages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("invalid fallback_languages entry %q: %w", lang, err)
		}
	}
	if strings.TrimSpace(s.ProbeCronExpr) == "" {
		return fmt.Errorf("probe_cron_expr is required")
	}
	if _, err := cron.ParseStandard(s.ProbeCronExpr); err != nil {
		return fmt.Errorf("invalid probe_cron_expr: %w", err)
	}
	return nil
}

func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		PrimaryLanguage:   c.Resolve.PrimaryLanguage,
		SecondaryLanguage: c.Resolve.SecondaryLanguage,
		FallbackLanguages: c.Resolve.FallbackLanguages,
		ProbeCronExpr:     c.Probe.CronExpr,
	}
}

func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.PrimaryLanguage) != "" {
			c.Resolve.PrimaryLanguage = settings.PrimaryLanguage
		}
		if strings.TrimSpace(settings.SecondaryLanguage) != "" {
			c.Resolve.SecondaryLanguage = settings.SecondaryLanguage
		}
		if len(settings.FallbackLanguages) > 0 {
			c.Resolve.FallbackLanguages = settings.FallbackLanguages
		}
		if strings.TrimSpace(settings.ProbeCronExpr) != "" {
			c.Probe.CronExpr = settings.ProbeCronExpr
		}
	}
}
