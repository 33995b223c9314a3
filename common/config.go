package common

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds every setting read from the environment (or .env).
type Config struct {
	Port        string
	SqliteDB    string
	AnalyticsDB string
	JWTSecret   string
	JWTTTL      time.Duration
	UploadDir   string
	PublicURL   string
	CacheDir    string
	CacheTTL    time.Duration

	AdminEmail    string
	AdminPassword string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	LogMode  string
	LogFile  string
	LogLevel string // empty keeps the mode's default

	APIURL     string
	APITimeout time.Duration
	ClientDB   string

	// GeminiAPIKey enables AI blog drafts in the shop shell.
	GeminiAPIKey string
	GeminiModel  string
}

// LoadConfig reads .env when present; real environment variables win.
func LoadConfig() *Config {
	envFile, _ := godotenv.Read(".env")

	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v, ok := envFile[key]; ok && v != "" {
			return v
		}
		return def
	}

	return &Config{
		Port:          get("PORT", "8080"),
		SqliteDB:      get("sqlite_db", "cookiq.db"),
		AnalyticsDB:   get("analytics_db", ""),
		JWTSecret:     get("JWT_SECRET", ""),
		JWTTTL:        cast.ToDuration(get("JWT_TTL", "24h")),
		UploadDir:     get("UPLOAD_DIR", "uploads"),
		PublicURL:     get("PUBLIC_URL", "http://localhost:8080"),
		CacheDir:      get("CACHE_DIR", "cache"),
		CacheTTL:      cast.ToDuration(get("CACHE_TTL", "1m")),
		AdminEmail:    get("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: get("ADMIN_PASSWORD", ""),
		SMTPHost:      get("SMTP_HOST", ""),
		SMTPPort:      get("SMTP_PORT", "587"),
		SMTPUser:      get("SMTP_USER", ""),
		SMTPPassword:  get("SMTP_PASSWORD", ""),
		SMTPFrom:      get("SMTP_FROM", ""),
		LogMode:       get("LOG_MODE", "development"),
		LogFile:       get("LOG_FILE", ""),
		LogLevel:      get("LOG_LEVEL", ""),
		APIURL:        get("API_URL", "http://localhost:8080/api"),
		APITimeout:    cast.ToDuration(get("API_TIMEOUT", "15s")),
		ClientDB:      get("CLIENT_DB", "storefront.db"),
		GeminiAPIKey:  get("GEMINI_API_KEY", ""),
		GeminiModel:   get("GEMINI_MODEL", "gemini-2.5-flash"),
	}
}
