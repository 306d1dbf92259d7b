package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	HTTPAddr      string
	SpectatorAddr string

	RedisURL    string
	DatabaseURL string

	GameTTL         time.Duration
	DefaultMaxTurns int

	LayoutFile  string
	MessagesDir string
}

// Load reads the environment, after merging an optional .env file (or the
// file named by ENV_FILE). Variables already set win over file values.
func Load() (*AppConfig, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &AppConfig{
		HTTPAddr:        ":8080",
		SpectatorAddr:   ":8081",
		GameTTL:         24 * time.Hour,
		DefaultMaxTurns: 60,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("SPECTATOR_ADDR")); v != "" {
		cfg.SpectatorAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("GAME_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GameTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_MAX_TURNS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultMaxTurns = n
		}
	}

	cfg.LayoutFile = strings.TrimSpace(os.Getenv("LAYOUT_FILE"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if cfg.HTTPAddr == cfg.SpectatorAddr {
		return nil, errors.New("HTTP_ADDR and SPECTATOR_ADDR must differ")
	}
	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return nil, errors.New("REDIS_URL must use redis:// or rediss://")
	}
	return cfg, nil
}
