package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port                string
	DBURL               string
	MigrationsDir       string
	JWTSecret           string
	SessionTTLSecs      int
	IdentityURL         string
	IdentityAPIKey      string
	IdentityTimeoutSecs int
	StorageEndpoint     string
	StorageAccessKey    string
	StorageSecretKey    string
	StorageBucket       string
	StoragePublicURL    string
	StorageUseSSL       bool
	StreakTimezone      string
	ProfileCacheTTLSecs int
	WriteRatePerMin     int
	WriteRateBurst      int
	ReadTimeoutSecs     int
	WriteTimeoutSecs    int
	IdleTimeoutSecs     int
	DBMaxConns          int
	DBMinConns          int
	DBMaxIdleSecs       int
	DBMaxLifeSecs       int
	DBConnTimeoutSecs   int
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		DBURL:               os.Getenv("DB_URL"),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTTLSecs:      getEnvInt("SESSION_TTL_SECS", 86400),
		IdentityURL:         os.Getenv("IDENTITY_URL"),
		IdentityAPIKey:      os.Getenv("IDENTITY_API_KEY"),
		IdentityTimeoutSecs: getEnvInt("IDENTITY_TIMEOUT_SECS", 5),
		StorageEndpoint:     os.Getenv("STORAGE_ENDPOINT"),
		StorageAccessKey:    os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:    os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:       getEnv("STORAGE_BUCKET", "fridges"),
		StoragePublicURL:    os.Getenv("STORAGE_PUBLIC_URL"),
		StorageUseSSL:       getEnvBool("STORAGE_USE_SSL", false),
		StreakTimezone:      getEnv("STREAK_TIMEZONE", "Local"),
		ProfileCacheTTLSecs: getEnvInt("PROFILE_CACHE_TTL_SECS", 0),
		WriteRatePerMin:     getEnvInt("WRITE_RATE_PER_MIN", 30),
		WriteRateBurst:      getEnvInt("WRITE_RATE_BURST", 10),
		ReadTimeoutSecs:     getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:    getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:     getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:       getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:       getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:   getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SessionTTLSecs <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_SECS must be positive")
	}
	if cfg.IdentityURL == "" {
		return Config{}, fmt.Errorf("IDENTITY_URL is required")
	}
	if cfg.IdentityTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("IDENTITY_TIMEOUT_SECS must be positive")
	}
	if cfg.StorageEndpoint == "" {
		return Config{}, fmt.Errorf("STORAGE_ENDPOINT is required")
	}
	if cfg.StoragePublicURL == "" {
		return Config{}, fmt.Errorf("STORAGE_PUBLIC_URL is required")
	}
	if cfg.ProfileCacheTTLSecs < 0 {
		return Config{}, fmt.Errorf("PROFILE_CACHE_TTL_SECS must be non-negative")
	}
	if cfg.WriteRatePerMin <= 0 {
		return Config{}, fmt.Errorf("WRITE_RATE_PER_MIN must be positive")
	}
	if cfg.WriteRateBurst <= 0 {
		return Config{}, fmt.Errorf("WRITE_RATE_BURST must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
