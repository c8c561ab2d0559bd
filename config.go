package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr      string        `env:"DUPEGUARD_ADDR"`
	DBPath          string        `env:"DUPEGUARD_DB" envDefault:"dupeguard.db"`
	DuplicateWindow time.Duration `env:"DUPEGUARD_DUPLICATE_WINDOW" envDefault:"30s"`
	Moderators      []string      `env:"DUPEGUARD_MODERATORS" envSeparator:","`
	LogLevel        slog.Level    `env:"DUPEGUARD_LOG_LEVEL" envDefault:"INFO"`
}

// LoadConfig reads the environment, then lets flags in args override it.
func LoadConfig(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultAddr()
	}

	fs := flag.NewFlagSet("dupeguard", flag.ContinueOnError)
	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.DurationVar(&cfg.DuplicateWindow, "duplicate-window", cfg.DuplicateWindow, "Reject identical messages sent within this window (0 disables)")
	mods := fs.String("moderators", strings.Join(cfg.Moderators, ","), "Comma-separated usernames with the moderator badge")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Moderators = splitList(*mods)
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultAddr() string {
	// Railway, Render, etc. set PORT
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8090"
}
