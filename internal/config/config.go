package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string // dev|prod
	HTTPAddr string

	DBDriver string
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	BlobBasePath string

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		AppEnv:       envOr("APP_ENV", "dev"),
		HTTPAddr:     envOr("HTTP_ADDR", ":8080"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", "file:learngate.db?cache=shared"),
		JWTSecret:    envOr("JWT_SECRET", "supersecret-dev-key"),
		TokenTTL:     envDuration("TOKEN_TTL", 8*time.Hour),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),
		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
