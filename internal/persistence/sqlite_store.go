package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MimeLyc/yt-transcript-service/internal/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists runtime settings across restarts. Transcript results
// are never stored here.
type SQLiteStore struct {
	db       *sql.DB
	defaults config.RuntimeSettings
}

// NewSQLiteStore opens (or creates) the database at path and applies pending
// migrations. defaults are returned by GetRuntimeSettings until the first
// update is saved.
func NewSQLiteStore(path string, defaults config.RuntimeSettings) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, defaults: defaults}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// GetRuntimeSettings returns the stored settings, or the construction-time
// defaults when nothing has been saved yet.
func (s *SQLiteStore) GetRuntimeSettings() (config.RuntimeSettings, error) {
	row := s.db.QueryRowContext(
		context.Background(),
		`SELECT primary_lang, secondary_lang, fallback_langs_json, probe_cron_expr
		 FROM runtime_settings
		 WHERE id = 1`,
	)

	var settings config.RuntimeSettings
	var fallbackJSON string
	if err := row.Scan(
		&settings.PrimaryLanguage,
		&settings.SecondaryLanguage,
		&fallbackJSON,
		&settings.ProbeCronExpr,
	); err != nil {
		if err == sql.ErrNoRows {
			return s.defaults, nil
		}
		return config.RuntimeSettings{}, err
	}
	if err := json.Unmarshal([]byte(fallbackJSON), &settings.FallbackLanguages); err != nil {
		return config.RuntimeSettings{}, fmt.Errorf("invalid fallback_langs_json: %w", err)
	}
	return settings, nil
}

// UpdateRuntimeSettings validates and persists next, replacing any previous row.
func (s *SQLiteStore) UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return config.RuntimeSettings{}, err
	}

	fallbackJSON, err := json.Marshal(next.FallbackLanguages)
	if err != nil {
		return config.RuntimeSettings{}, err
	}

	_, err = s.db.ExecContext(
		context.Background(),
		`INSERT INTO runtime_settings (id, primary_lang, secondary_lang, fallback_langs_json, probe_cron_expr, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			primary_lang=excluded.primary_lang,
			secondary_lang=excluded.secondary_lang,
			fallback_langs_json=excluded.fallback_langs_json,
			probe_cron_expr=excluded.probe_cron_expr,
			updated_at=excluded.updated_at`,
		next.PrimaryLanguage,
		next.SecondaryLanguage,
		string(fallbackJSON),
		next.ProbeCronExpr,
		time.Now().UTC(),
	)
	if err != nil {
		return config.RuntimeSettings{}, err
	}
	return next, nil
}
