// Package config holds the application configuration: cue synthesis tuning,
// transcriber settings, and cache location, with optional overrides from a
// TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Subtitles holds the cue synthesis tuning knobs.
type Subtitles struct {
	// MaxChars is the upper bound on cue text length before splitting.
	MaxChars int `toml:"max_chars"`
	// MinDuration (seconds): cues shorter than this merge forward.
	MinDuration float64 `toml:"min_dur"`
	// MaxDuration (seconds): cues longer than this are split.
	MaxDuration float64 `toml:"max_dur"`
	// JoinGap (seconds): maximum silence between merge candidates.
	JoinGap float64 `toml:"join_gap"`
}

// Transcriber configures the external speech-to-text stage.
type Transcriber struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	// APIKey authenticates against the transcription API; when empty the
	// MISTRAL_API_KEY environment variable is used instead.
	APIKey          string `toml:"api_key"`
	ChunkSec        int    `toml:"chunk_sec"`
	StrideSec       int    `toml:"stride_sec"`
	MaxConcurrent   int    `toml:"max_concurrent"`
	MaxRetries      int    `toml:"max_retries"`
	RateLimitPerMin int    `toml:"rate_limit_per_min"`
}

// Cache configures the on-disk transcript cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config is the full application configuration.
type Config struct {
	Subtitles   Subtitles   `toml:"subtitles"`
	Transcriber Transcriber `toml:"transcriber"`
	Cache       Cache       `toml:"cache"`
}

// Default returns the repository defaults.
func Default() Config {
	return Config{
		Subtitles: Subtitles{
			MaxChars:    84,
			MinDuration: 0.8,
			MaxDuration: 6.0,
			JoinGap:     0.25,
		},
		Transcriber: Transcriber{
			Model:           "voxtral-mini-latest",
			ChunkSec:        30,
			StrideSec:       5,
			MaxConcurrent:   3,
			MaxRetries:      3,
			RateLimitPerMin: 30,
		},
		Cache: Cache{
			Enabled: true,
			Path:    DefaultCachePath(),
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "voxsub.toml"
	}
	return filepath.Join(dir, "voxsub", "config.toml")
}

// DefaultCachePath returns the standard transcript cache location.
func DefaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "voxsub-transcripts.db"
	}
	return filepath.Join(dir, "voxsub", "transcripts.db")
}

// Load merges a TOML file over the defaults. A missing file at the default
// location is not an error; a missing file named explicitly is.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for inconsistent values.
func (c Config) Validate() error {
	if c.Subtitles.MaxChars <= 0 {
		return fmt.Errorf("subtitles.max_chars must be positive, got %d", c.Subtitles.MaxChars)
	}
	if c.Subtitles.MinDuration < 0 || c.Subtitles.MaxDuration <= 0 {
		return errors.New("subtitles durations must be non-negative")
	}
	if c.Subtitles.MinDuration > c.Subtitles.MaxDuration {
		return fmt.Errorf("subtitles.min_dur %.2f exceeds max_dur %.2f",
			c.Subtitles.MinDuration, c.Subtitles.MaxDuration)
	}
	if c.Transcriber.ChunkSec <= 0 {
		return fmt.Errorf("transcriber.chunk_sec must be positive, got %d", c.Transcriber.ChunkSec)
	}
	if c.Transcriber.StrideSec < 0 || c.Transcriber.StrideSec >= c.Transcriber.ChunkSec {
		return fmt.Errorf("transcriber.stride_sec must be in [0, chunk_sec), got %d", c.Transcriber.StrideSec)
	}
	return nil
}
