package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Request pacing, in milliseconds. The min/max pair bounds the random
	// pause before ordinary requests; page and station pauses are fixed.
	DelayMinMs     int
	DelayMaxMs     int
	PageDelayMs    int
	StationDelayMs int

	MaxRetries         int
	RetryBaseMs        int
	MaxPagesPerStation int
	RequestTimeoutMs   int

	DataDir   string
	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "suumo_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DelayMinMs:     getEnvInt("DELAY_MIN_MS", 3000),
		DelayMaxMs:     getEnvInt("DELAY_MAX_MS", 8000),
		PageDelayMs:    getEnvInt("PAGE_DELAY_MS", 5000),
		StationDelayMs: getEnvInt("STATION_DELAY_MS", 10000),

		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		RetryBaseMs:        getEnvInt("RETRY_BASE_MS", 5000),
		MaxPagesPerStation: getEnvInt("MAX_PAGES_PER_STATION", 10),
		RequestTimeoutMs:   getEnvInt("REQUEST_TIMEOUT_MS", 30000),

		DataDir:   getEnv("DATA_DIR", "data"),
		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// Polite returns a copy of the config with slower pacing applied. The values
// mirror what a careful human browsing session looks like to the site.
func (c *Config) Polite() *Config {
	out := *c
	out.DelayMinMs = 5000
	out.DelayMaxMs = 12000
	out.PageDelayMs = 8000
	out.StationDelayMs = 15000
	out.RetryBaseMs = 10000
	return &out
}

// DSN returns the PostgreSQL connection string.
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
