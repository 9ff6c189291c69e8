package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime settings read from the environment.
type Config struct {
	DataDir        string
	DBPath         string
	HTTPAddr       string
	ExportDir      string
	ImportDir      string
	ExportSchedule string // cron expression; empty disables scheduled export
	LogMode        string
	FailurePath    string
}

// Load reads an optional .env file from the working directory and then the
// BLOCKNOTES_* variables. Unset variables fall back to defaults rooted at
// ~/.local/share/blocknotes.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	dataDir := str("BLOCKNOTES_DATA_DIR", "")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share", "blocknotes")
	}

	cfg := &Config{
		DataDir:        dataDir,
		DBPath:         str("BLOCKNOTES_DB_PATH", filepath.Join(dataDir, "blocknotes.db")),
		HTTPAddr:       str("BLOCKNOTES_HTTP_ADDR", ":8080"),
		ExportDir:      str("BLOCKNOTES_EXPORT_DIR", filepath.Join(dataDir, "exports")),
		ImportDir:      str("BLOCKNOTES_IMPORT_DIR", filepath.Join(dataDir, "imports")),
		ExportSchedule: "@every 1h",
		LogMode:        str("BLOCKNOTES_LOG_MODE", "dev"),
		FailurePath:    str("BLOCKNOTES_FAILURE_PATH", "/500"),
	}
	// an explicitly empty schedule turns the exporter off
	if v, ok := os.LookupEnv("BLOCKNOTES_EXPORT_SCHEDULE"); ok {
		cfg.ExportSchedule = strings.TrimSpace(v)
	}
	if !strings.HasPrefix(cfg.FailurePath, "/") {
		return nil, fmt.Errorf("BLOCKNOTES_FAILURE_PATH must start with /: %q", cfg.FailurePath)
	}
	return cfg, nil
}

func str(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}
