package config

import (
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	ListenAddr      string
	BaseURL         string
	DBPath          string
	DefaultPageSize int
	MaxPageSize     int
	RequestTimeout  time.Duration
	NotifyTTL       time.Duration
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:7420",
		BaseURL:         "http://127.0.0.1:7420",
		DBPath:          defaultDBPath(),
		DefaultPageSize: 2,
		MaxPageSize:     50,
		RequestTimeout:  10 * time.Second,
		NotifyTTL:       3 * time.Second,
	}
}

func defaultDBPath() string {
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		return filepath.Join(stateDir, "eventline", "catalog.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "eventline.db"
	}
	return filepath.Join(home, ".local", "state", "eventline", "catalog.db")
}
