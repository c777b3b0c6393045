package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config はサーバーとCLIが使う環境変数の設定です。
type Config struct {
	AppEnv         string
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	BypassAuth     bool
	LogLevel       string
	TickRate       int
	AllowedOrigins []string
}

// IsProduction は本番環境かどうかを返します。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load は環境変数から設定を読み込みます。
// 本番環境以外では先に .env ファイルを読み込みます（なくても警告だけで続行します）。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromEnv()
}

// FromEnv は現在の環境変数だけから設定を作ります。
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TickRate:       60,
	}

	switch cfg.DatabaseDriver {
	case "memory":
	case "postgres", "sqlite3":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_DRIVER=%s には DATABASE_URL が必要です", cfg.DatabaseDriver)
		}
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER が不正です: %q", cfg.DatabaseDriver)
	}

	if v := os.Getenv("BYPASS_AUTH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("BYPASS_AUTH が不正です: %w", err)
		}
		cfg.BypassAuth = b
	}

	if v := os.Getenv("TICK_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TICK_RATE が不正です: %w", err)
		}
		if n < 1 || n > 240 {
			return nil, fmt.Errorf("TICK_RATE は 1〜240 で指定してください: %d", n)
		}
		cfg.TickRate = n
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.JWTSecret == "" && !cfg.BypassAuth {
		log.Printf("warning: JWT_SECRET is not set; authenticated endpoints will reject every request")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
