package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the terminal client configuration, loaded from a TOML
// file.
type Config struct {
	ServerURL string `toml:"server_url"`
	CachePath string `toml:"cache_path"`
}

// DefaultConfigPath returns the well-known config file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "taskline.toml"
	}
	return filepath.Join(dir, "taskline", "config.toml")
}

// LoadConfig reads the TOML config at path. A missing file yields the
// defaults rather than an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServerURL: "http://localhost:8080",
		CachePath: defaultCachePath(),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.ServerURL == "" {
		return Config{}, fmt.Errorf("config %s: server_url must not be empty", path)
	}
	return cfg, nil
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskline", "tasks.json")
}
