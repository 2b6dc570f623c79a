package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig is the TOML settings file. Pointer fields distinguish "absent"
// from a zero value, since a tolerance of 0 cents is legal.
type FileConfig struct {
	ToleranceCents *int          `toml:"tolerance_cents"`
	Sensitivity    *float64      `toml:"sensitivity"`
	DefaultTuning  string        `toml:"default_tuning"`
	Tunings        []TuningEntry `toml:"tunings"`
}

// TuningEntry is a custom tuning declared in the settings file. Notes and
// Frequencies are parallel lists, one entry per string.
type TuningEntry struct {
	Name        string    `toml:"name"`
	Notes       []string  `toml:"notes"`
	Frequencies []float64 `toml:"frequencies"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	fc, err := ParseFileConfig(b)
	if err != nil {
		return FileConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// ParseFileConfig parses TOML settings from memory.
func ParseFileConfig(b []byte) (FileConfig, error) {
	var fc FileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.sonido-tuner/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".sonido-tuner", "config.toml")
	}
	return ""
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// SessionConfig returns the defaults overlaid with the values present in the
// file, validated.
func (fc FileConfig) SessionConfig() (SessionConfig, error) {
	cfg := DefaultSessionConfig()
	ApplyFileConfig(&cfg, fc, nil)
	if err := cfg.Validate(); err != nil {
		return SessionConfig{}, err
	}
	return cfg, nil
}

// ApplyFileConfig copies the values present in the file into cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *SessionConfig, fc FileConfig, changed map[string]bool) {
	if fc.ToleranceCents != nil && !changed["tolerance"] {
		cfg.ToleranceCents = *fc.ToleranceCents
	}
	if fc.Sensitivity != nil && !changed["sensitivity"] {
		cfg.Sensitivity = *fc.Sensitivity
	}
}
