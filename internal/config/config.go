// Package config loads CLI-level defaults for sx from an optional TOML
// file, distinct from the Index Store's own persisted tokenizer
// options (internal/store). Precedence: CLI flags > config file >
// built-in defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the defaults a user may override per-invocation with flags.
type Config struct {
	IndexPath   string  `toml:"index_path"`
	Workers     int     `toml:"workers"`
	K           int     `toml:"k"`
	K1          float64 `toml:"k1"`
	B           float64 `toml:"b"`
	PathBoost   float64 `toml:"path_boost"`
	Stem        bool    `toml:"stem"`
	NoStopwords bool    `toml:"no_stopwords"`
	Color       bool    `toml:"color"`
}

// Default returns sx's built-in defaults.
func Default() Config {
	return Config{
		IndexPath: "bm25.sqlite",
		Workers:   0, // 0 => runtime.NumCPU() at the indexer
		K:         10,
		K1:        1.2,
		B:         0.75,
		PathBoost: 1.5,
		Color:     true,
	}
}

// Path returns the default config file location, ~/.config/sx/config.toml.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sx", "config.toml"), nil
}

// Load reads the config file at path, overlaying it onto the built-in
// defaults. A missing file is not an error — Default() is returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
