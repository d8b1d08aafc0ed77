package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the global ~/.mesa/config.toml.
type Config struct {
	DefaultTable string    `toml:"default_table"`
	Listen       string    `toml:"listen"`
	Backend      string    `toml:"backend"` // "firestore" or "memory"
	Firestore    Firestore `toml:"firestore"`
}

// Firestore holds the hosted backend connection settings. The credentials
// file falls back to GOOGLE_APPLICATION_CREDENTIALS when unset.
type Firestore struct {
	ProjectID       string `toml:"project_id"`
	CredentialsFile string `toml:"credentials_file"`
}

// Load reads config from the given path and applies environment overrides.
// A missing file yields defaults rather than an error; a malformed file does not.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Backend: "firestore",
		Listen:  "127.0.0.1:8643",
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	// Credentials live in the environment, optionally seeded from a .env
	// file next to the config. Ignore a missing .env.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	if v := os.Getenv("MESA_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("MESA_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("MESA_FIRESTORE_PROJECT"); v != "" {
		cfg.Firestore.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Firestore.CredentialsFile == "" {
		cfg.Firestore.CredentialsFile = v
	}

	if cfg.Backend != "firestore" && cfg.Backend != "memory" {
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
