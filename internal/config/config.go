package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the map server
type Config struct {
	// HTTP
	Port           string
	AllowedOrigins []string

	// Station source
	StationSourceURL       string
	StationRefreshSchedule string
	HTTPTimeout            time.Duration

	// Climate API
	ClimateAPIBase string
	ClimateYear    int
	ClimateTimeout time.Duration

	// Panel sessions
	SessionTTL time.Duration

	// Station catalog (optional). DatabaseURL wins over SQLitePath.
	SQLitePath  string
	DatabaseURL string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// HTTP
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		// Station source
		StationSourceURL:       getEnv("STATION_SOURCE_URL", "https://api.weather.gc.ca/collections/climate-stations/items?f=json&limit=10000"),
		StationRefreshSchedule: getEnvAllowEmpty("STATION_REFRESH_SCHEDULE", "@daily"),
		HTTPTimeout:            getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		// Climate API
		ClimateAPIBase: strings.TrimRight(getEnv("CLIMATE_API_BASE", "https://api.weather.gc.ca/collections/climate-daily"), "/"),
		ClimateYear:    getEnvInt("CLIMATE_YEAR", 2025),
		ClimateTimeout: getEnvDuration("CLIMATE_TIMEOUT", 15*time.Second),

		// Panel sessions
		SessionTTL: getEnvDuration("SESSION_TTL", 2*time.Hour),

		// Station catalog
		SQLitePath:  getEnv("SQLITE_DATABASE", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty keeps an explicitly empty value, so a key set to ""
// can switch a feature off
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("20s") or plain seconds ("20")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
