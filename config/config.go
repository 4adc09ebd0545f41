// Package config loads runtime settings from a YAML file. Everything has
// a sensible default so the engine runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the player-facing runtime settings. Game content is never
// configured here; this is machine-local state like paths and seeds.
type Config struct {
	// SaveDir is where /save and /load read and write snapshots.
	SaveDir string `yaml:"save_dir"`
	// Transcript is the SQLite database recording play sessions. Empty
	// disables recording.
	Transcript string `yaml:"transcript"`
	// Seed fixes the message-variant RNG for reproducible sessions. Zero
	// keeps the default seed.
	Seed int64 `yaml:"seed"`
	// Plain forces the line-oriented interface even on a terminal.
	Plain bool `yaml:"plain"`
}

// Default returns the built-in settings: saves and the transcript under
// ~/.fablecore.
func Default() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".fablecore")
	return Config{
		SaveDir:    filepath.Join(base, "saves"),
		Transcript: filepath.Join(base, "transcript.db"),
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fablecore", "config.yaml")
}

// Load reads a config file over the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
