package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv pulls in .env if present. Real deployments set env vars directly,
// so a missing file is not an error.
func LoadEnv() {
	godotenv.Load()
}

func EnvOrDefault(key string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func EnvIntOrDefault(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// GeocoderConfig holds the external geocoding service settings. An empty
// APIKey disables enrichment entirely.
type GeocoderConfig struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	RatePerSec   int
	BatchSize    int
	BatchDelay   time.Duration
}

func GetGeocoderConfig() GeocoderConfig {
	return GeocoderConfig{
		BaseURL:      EnvOrDefault("GEOCODE_API_BASE_URL", "https://nominatim.openstreetmap.org"),
		APIKey:       strings.TrimSpace(os.Getenv("GEOCODE_API_KEY")),
		APIKeyHeader: EnvOrDefault("GEOCODE_API_KEY_HEADER", "X-API-Key"),
		RatePerSec:   EnvIntOrDefault("GEOCODE_RATE_LIMIT_PER_SEC", 10),
		BatchSize:    EnvIntOrDefault("GEOCODE_BATCH_SIZE", 10),
		BatchDelay:   time.Duration(EnvIntOrDefault("GEOCODE_BATCH_DELAY_MS", 1000)) * time.Millisecond,
	}
}
