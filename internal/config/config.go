package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

var validBackends = map[string]bool{
	"file":     true,
	"s3":       true,
	"postgres": true,
	"memory":   true,
}

type Config struct {
	ServerPort string
	AppEnv     string
	LogLevel   string
	Store      StoreConfig
	DB         DBConfig
	S3         S3Config
}

type StoreConfig struct {
	// Backend selects where the task document lives: file, s3,
	// postgres, or memory.
	Backend string
	// FilePath is the document location for the file backend.
	FilePath string
	// Serialized opts into a per-document mutex around each
	// load-mutate-save cycle. Off by default: the stock behavior is
	// last-writer-wins between concurrent requests.
	Serialized bool
	// Strict additionally validates loaded documents against the
	// embedded JSON Schema.
	Strict bool
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid STORE_BACKEND %q: must be one of file, s3, postgres, memory", c.Store.Backend)
	}
	if c.Store.Backend == "memory" && c.AppEnv != "local" {
		return fmt.Errorf("STORE_BACKEND=memory must not be used in %s environment", c.AppEnv)
	}
	if c.Store.Backend == "file" && c.Store.FilePath == "" {
		return fmt.Errorf("STORE_FILE_PATH is required for the file backend")
	}
	if c.Store.Backend == "s3" && c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required for the s3 backend")
	}
	return nil
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type S3Config struct {
	Region string
	Bucket string
	Key    string
}

func Load() Config {
	return Config{
		ServerPort: envOrDefault("SERVER_PORT", "8080"),
		AppEnv:     envOrDefault("APP_ENV", "local"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		Store: StoreConfig{
			Backend:    envOrDefault("STORE_BACKEND", "file"),
			FilePath:   envOrDefault("STORE_FILE_PATH", "data/tasks.json"),
			Serialized: strings.EqualFold(envOrDefault("STORE_SERIALIZED", "false"), "true"),
			Strict:     strings.EqualFold(envOrDefault("STORE_STRICT", "false"), "true"),
		},
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "taskline"),
			Password: envOrDefault("DB_PASSWORD", "taskline"),
			Name:     envOrDefault("DB_NAME", "taskline"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
		S3: S3Config{
			Region: envOrDefault("AWS_REGION", "ap-northeast-1"),
			Bucket: os.Getenv("S3_BUCKET"),
			Key:    envOrDefault("S3_KEY", "tasks/tasks.json"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
