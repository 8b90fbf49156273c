package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	JWTTTLMinutes int
	RedisAddr     string

	AdminBootstrapSecret string
}

// Load reads configuration from the environment and validates the required
// values. DATABASE_URL wins over the discrete DB_* variables.
func Load() (Config, error) {
	cfg := Config{
		Port:                 getenv("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTTTLMinutes:        getenvInt("JWT_TTL_MINUTES", 72*60),
		RedisAddr:            getenv("REDIS_ADDR", "127.0.0.1:6379"),
		AdminBootstrapSecret: os.Getenv("ADMIN_BOOTSTRAP_SECRET"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			getenv("DB_HOST", "localhost"),
			getenv("DB_PORT", "5432"),
			os.Getenv("DB_NAME"),
		)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
