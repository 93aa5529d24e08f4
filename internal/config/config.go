package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 개발용 기본값. production에서는 거부한다.
const defaultJWTSecret = "your-secret-key"

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string
	DBDebug     bool

	// Redis (비어 있으면 락/큐/분산 rate limit 비활성화)
	RedisURL string

	// JWT (검증만 수행, 발급은 외부 인증 서비스 담당)
	JWTSecret string

	// CORS
	CORSAllowedOrigins []string

	// Live result / undo
	UndoWindow    time.Duration
	UndoScanLimit int

	// Generation
	GenerationLockTTL time.Duration

	// Integrity reconciliation
	IntegrityCron string

	// Rate limit (사용자별, 분당)
	ResultRateLimit int
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBDebug:            getEnv("DB_DEBUG", "false") == "true",
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		UndoWindow:         parseDuration(getEnv("UNDO_WINDOW", "60s"), 60*time.Second),
		UndoScanLimit:      parseInt(getEnv("UNDO_SCAN_LIMIT", "20"), 20),
		GenerationLockTTL:  parseDuration(getEnv("GENERATION_LOCK_TTL", "30s"), 30*time.Second),
		IntegrityCron:      getEnv("INTEGRITY_CRON", "@every 15m"),
		ResultRateLimit:    parseInt(getEnv("RESULT_RATE_LIMIT", "30"), 30),
	}

	if cfg.Env == "production" && cfg.UsesDefaultJWTSecret() {
		return nil, ErrDefaultJWTSecret
	}
	return cfg, nil
}

// UsesDefaultJWTSecret JWT_SECRET이 설정되지 않아 개발용 기본값을 쓰는 중인지
func (c *Config) UsesDefaultJWTSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
