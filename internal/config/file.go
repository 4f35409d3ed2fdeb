package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileOverlay mirrors Config with optional fields so that a YAML config file
// only overrides what it actually sets.
type fileOverlay struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Resolve struct {
		PrimaryLanguage   string   `yaml:"primary_language"`
		SecondaryLanguage string   `yaml:"secondary_language"`
		FallbackLanguages []string `yaml:"fallback_languages"`
	} `yaml:"resolve"`
	Upstream struct {
		Timeout   int    `yaml:"timeout"`
		BaseURL   string `yaml:"base_url"`
		UserAgent string `yaml:"user_agent"`
	} `yaml:"upstream"`
	Storage struct {
		DBPath         string `yaml:"db_path"`
		SettingsFromDB *bool  `yaml:"settings_from_db"`
	} `yaml:"storage"`
	Probe struct {
		CronExpr string `yaml:"cron_expr"`
		URL      string `yaml:"url"`
	} `yaml:"probe"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// LoadYAMLFile reads a YAML config file and returns an Option that overlays
// its non-empty values onto a Config.
func LoadYAMLFile(path string) (Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return func(c *Config) {
		setString(&c.HTTP.Addr, overlay.HTTP.Addr)
		setString(&c.Resolve.PrimaryLanguage, overlay.Resolve.PrimaryLanguage)
		setString(&c.Resolve.SecondaryLanguage, overlay.Resolve.SecondaryLanguage)
		if len(overlay.Resolve.FallbackLanguages) > 0 {
			c.Resolve.FallbackLanguages = overlay.Resolve.FallbackLanguages
		}
		if overlay.Upstream.Timeout > 0 {
			c.Upstream.Timeout = overlay.Upstream.Timeout
		}
		setString(&c.Upstream.BaseURL, overlay.Upstream.BaseURL)
		setString(&c.Upstream.UserAgent, overlay.Upstream.UserAgent)
		setString(&c.Storage.DBPath, overlay.Storage.DBPath)
		if overlay.Storage.SettingsFromDB != nil {
			c.Storage.SettingsFromDB = *overlay.Storage.SettingsFromDB
		}
		setString(&c.Probe.CronExpr, overlay.Probe.CronExpr)
		setString(&c.Probe.URL, overlay.Probe.URL)
		setString(&c.Log.Level, overlay.Log.Level)
		setString(&c.Log.File, overlay.Log.File)
	}, nil
}

func setString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}
