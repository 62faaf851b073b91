// Package config loads ctxkeeper settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// the project's .ctxkeeper/config.yaml, and CTXKEEPER_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/tracker"
)

// FileName is the config file inside the project's .ctxkeeper directory.
const FileName = "config.yaml"

// Config is the full ctxkeeper configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Tracker  TrackerConfig `yaml:"tracker"`
	Memory   MemoryConfig  `yaml:"memory"`
	Server   ServerConfig  `yaml:"server"`
}

// TrackerConfig tunes the in-session context tracker.
type TrackerConfig struct {
	MaxTokens            int     `yaml:"max_tokens"`
	CompactionThreshold  float64 `yaml:"compaction_threshold"`
	DecayRate            float64 `yaml:"decay_rate"`
	PruneThreshold       float64 `yaml:"prune_threshold"`
	ExactPruneAccounting bool    `yaml:"exact_prune_accounting"`
}

// MemoryConfig tunes durable memory.
type MemoryConfig struct {
	// File is the memory JSON path. Relative paths resolve against the
	// project root; empty means .ctxkeeper/memory.json.
	File string `yaml:"file"`
	// Index enables the SQLite full-text index.
	Index              bool    `yaml:"index"`
	RetentionDays      int     `yaml:"retention_days"`
	ImportantThreshold float64 `yaml:"important_threshold"`
	RecentLimit        int     `yaml:"recent_limit"`
	RecallMaxTokens    int     `yaml:"recall_max_tokens"`
	CompressOnEnd      bool    `yaml:"compress_on_end"`
	PruneOnEnd         bool    `yaml:"prune_on_end"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	APIKey   string `yaml:"api_key"`
}

// Default returns the built-in configuration.
func Default() Config {
	tc := tracker.DefaultConfig()
	return Config{
		LogLevel: "info",
		Tracker: TrackerConfig{
			MaxTokens:           tc.MaxTokens,
			CompactionThreshold: tc.CompactionThreshold,
			DecayRate:           tc.DecayRate,
			PruneThreshold:      tracker.DefaultPruneThreshold,
		},
		Memory: MemoryConfig{
			Index:              true,
			RetentionDays:      memory.DefaultMaxAgeDays,
			ImportantThreshold: memory.DefaultImportantThreshold,
			RecentLimit:        20,
			RecallMaxTokens:    memory.DefaultContextTokens,
			CompressOnEnd:      true,
			PruneOnEnd:         true,
		},
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:7717",
		},
	}
}

// Load builds the configuration for a project root: defaults, then the
// YAML file if present, then environment overrides.
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	path := filepath.Join(projectRoot, memory.DefaultDir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Tracker.MaxTokens = envInt("CTXKEEPER_MAX_TOKENS", c.Tracker.MaxTokens)
	c.Tracker.CompactionThreshold = envFloat("CTXKEEPER_COMPACTION_THRESHOLD", c.Tracker.CompactionThreshold)
	c.Tracker.DecayRate = envFloat("CTXKEEPER_DECAY_RATE", c.Tracker.DecayRate)
	c.Memory.RetentionDays = envInt("CTXKEEPER_RETENTION_DAYS", c.Memory.RetentionDays)
	c.Memory.Index = envBool("CTXKEEPER_INDEX", c.Memory.Index)
	c.Server.HTTPAddr = envStr("CTXKEEPER_HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.APIKey = envStr("CTXKEEPER_API_KEY", c.Server.APIKey)
	c.LogLevel = envStr("CTXKEEPER_LOG_LEVEL", c.LogLevel)
}

func (c *Config) validate() error {
	if c.Tracker.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.Tracker.MaxTokens)
	}
	if c.Tracker.CompactionThreshold <= 0 || c.Tracker.CompactionThreshold > 1 {
		return fmt.Errorf("compaction_threshold must be in (0,1], got %v", c.Tracker.CompactionThreshold)
	}
	if c.Tracker.DecayRate <= 0 || c.Tracker.DecayRate > 1 {
		return fmt.Errorf("decay_rate must be in (0,1], got %v", c.Tracker.DecayRate)
	}
	if c.Tracker.PruneThreshold < 0 || c.Tracker.PruneThreshold >= 1 {
		return fmt.Errorf("prune_threshold must be in [0,1), got %v", c.Tracker.PruneThreshold)
	}
	if c.Memory.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be positive, got %d", c.Memory.RetentionDays)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// TrackerOptions converts the tracker section for tracker.New.
func (c Config) TrackerOptions() tracker.Config {
	return tracker.Config{
		MaxTokens:            c.Tracker.MaxTokens,
		CompactionThreshold:  c.Tracker.CompactionThreshold,
		DecayRate:            c.Tracker.DecayRate,
		ExactPruneAccounting: c.Tracker.ExactPruneAccounting,
	}
}

// RecallOptions converts the memory section for memory.Recall.
func (c Config) RecallOptions() memory.RecallOptions {
	return memory.RecallOptions{
		ImportantThreshold: c.Memory.ImportantThreshold,
		RecentLimit:        c.Memory.RecentLimit,
		MaxTokens:          c.Memory.RecallMaxTokens,
	}
}

// MemoryPath resolves the memory file for a project root.
func (c Config) MemoryPath(projectRoot string) string {
	switch {
	case c.Memory.File == "":
		return memory.DefaultPath(projectRoot)
	case filepath.IsAbs(c.Memory.File):
		return c.Memory.File
	default:
		return filepath.Join(projectRoot, c.Memory.File)
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// FindProjectRoot walks up from start looking for a .ctxkeeper directory
// or a .git entry. If neither is found it returns start.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	current := dir
	for {
		for _, marker := range []string{memory.DefaultDir, ".git"} {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current, nil
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
