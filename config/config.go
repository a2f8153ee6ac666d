package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Record sink (Supabase-style PostgREST endpoint)
	SupabaseURL    string
	SupabaseKey    string
	SupabaseSchema string

	// Optional local Postgres mirror — disabled when the host is empty
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Source feed
	PageSize           int
	MaxConsecutiveErrs int
	MaxRetries         int
	RequestsPerSecond  float64
	SectionPauseMs     int

	// Sink batching
	BatchSize    int
	BatchDelayMs int

	// Telemetry
	ServiceName      string
	HeartbeatEnabled bool

	JSONOutputDir string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SupabaseURL:    getEnv("SUPABASE_URL", ""),
		SupabaseKey:    getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseSchema: getEnv("SUPABASE_SCHEMA", "auctions"),

		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "auctions"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		PageSize:           getEnvInt("PAGE_SIZE", 100),
		MaxConsecutiveErrs: getEnvInt("MAX_CONSECUTIVE_ERRORS", 3),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		RequestsPerSecond:  getEnvFloat("REQUESTS_PER_SECOND", 2),
		SectionPauseMs:     getEnvInt("SECTION_PAUSE_MS", 2000),

		BatchSize:    getEnvInt("BATCH_SIZE", 500),
		BatchDelayMs: getEnvInt("BATCH_DELAY_MS", 500),

		ServiceName:      getEnv("SERVICE_NAME", "superbid-scraper"),
		HeartbeatEnabled: getEnvBool("HEARTBEAT_ENABLED", true),

		JSONOutputDir: getEnv("JSON_OUTPUT_DIR", "./data/normalized"),
	}
}

// MirrorEnabled reports whether the optional Postgres mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.PostgresHost != ""
}

// DSN returns the PostgreSQL connection string for the mirror.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
