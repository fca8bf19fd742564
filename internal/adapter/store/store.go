// Package store persists conversation threads.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scout/internal/domain"
	"scout/internal/infra/config"
)

// New opens the thread store selected by cfg.Store.
func New(cfg config.ThreadsConfig) (domain.ThreadStore, error) {
	switch cfg.Store {
	case "memory", "":
		return NewMemoryStore(), nil
	case "sqlite":
		path, err := expandHome(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown thread store %q", cfg.Store)
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
