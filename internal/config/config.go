package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string
	SiteURL  string // sitemap 与 RSS 中的绝对地址前缀

	DatabaseURL   string
	SessionSecret string

	TemplatesDir string
	StaticDir    string
	MediaDir     string

	// local | cloudinary
	StorageDriver string
	CloudinaryURL string
}

// Load 读取 .env 与环境变量，缺省值面向本地开发
func Load() (*Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		SiteURL:  strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),

		DatabaseURL:   getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=tieba port=5432 sslmode=disable TimeZone=Asia/Shanghai"),
		SessionSecret: os.Getenv("SESSION_SECRET"),

		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		StaticDir:    getEnv("STATIC_DIR", "./web/static"),
		MediaDir:     getEnv("MEDIA_DIR", "./media"),

		StorageDriver: getEnv("STORAGE_DRIVER", "local"),
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET must be set in production")
		}
		cfg.SessionSecret = "secret_key_change_me"
	}

	switch cfg.StorageDriver {
	case "local":
	case "cloudinary":
		if cfg.CloudinaryURL == "" {
			return nil, fmt.Errorf("STORAGE_DRIVER=cloudinary requires CLOUDINARY_URL")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SlogLevel 将 LOG_LEVEL 转换为 slog 级别，无法识别时使用 info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
