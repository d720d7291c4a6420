package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr     string
	Env      string
	Database DatabaseConfig
	Redis    RedisConfig
	OCR      OCRConfig
	Log      LogConfig
}

// DatabaseConfig selects and tunes the relational store.
type DatabaseConfig struct {
	Driver    string
	Path      string
	URL       string
	TxTimeout time.Duration
}

// RedisConfig enables cross-replica change fan-out when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// OCRConfig selects the text recognition engine.
type OCRConfig struct {
	Engine          string
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

const (
	OCREngineNone   = "none"
	OCREngineVertex = "vertex"
)

// LoadDotEnv reads .env.local when APP_ENV is "local". Missing files are not
// an error; real environment variables always win.
func LoadDotEnv() error {
	if os.Getenv("APP_ENV") != "local" {
		return nil
	}
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr: getEnv("LISTSNAP_ADDR", ":8080"),
		Env:  getEnv("APP_ENV", "development"),
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			Path:   getEnv("DB_PATH", "listsnap.db"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		OCR: OCRConfig{
			Engine:          getEnv("OCR_ENGINE", OCREngineNone),
			ProjectID:       os.Getenv("GOOGLE_PROJECT_ID"),
			Location:        getEnv("GOOGLE_LOCATION", "us-central1"),
			Model:           getEnv("VERTEX_MODEL", "gemini-1.5-flash"),
			CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		},
		Log: LogConfig{Format: getEnv("LOG_FORMAT", "text")},
	}

	timeout, err := time.ParseDuration(getEnv("DB_TX_TIMEOUT", "5s"))
	if err != nil || timeout <= 0 {
		return Server{}, fmt.Errorf("invalid DB_TX_TIMEOUT %q", os.Getenv("DB_TX_TIMEOUT"))
	}
	cfg.Database.TxTimeout = timeout

	if err := cfg.Log.Level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return Server{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if pool := os.Getenv("REDIS_POOL_SIZE"); pool != "" {
		n, err := strconv.Atoi(pool)
		if err != nil || n <= 0 {
			return Server{}, fmt.Errorf("invalid REDIS_POOL_SIZE %q", pool)
		}
		cfg.Redis.PoolSize = n
	}

	switch cfg.Database.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Database.URL == "" {
			return Server{}, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return Server{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	switch cfg.OCR.Engine {
	case OCREngineNone:
	case OCREngineVertex:
		if cfg.OCR.ProjectID == "" {
			return Server{}, fmt.Errorf("GOOGLE_PROJECT_ID is required when OCR_ENGINE=vertex")
		}
	default:
		return Server{}, fmt.Errorf("unsupported OCR_ENGINE %q", cfg.OCR.Engine)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
