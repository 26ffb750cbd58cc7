package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/cuacakota/weather-sampler/internal/region"
)

// AppConfig carries all configuration for the weather sampler. It is built
// once at startup and passed explicitly into components; nothing reads the
// environment after Load returns.
type AppConfig struct {
	// Region dataset.
	DBPath string

	// Upstream forecast service.
	BMKGBaseURL string

	// City selection quotas. Invariant: WIB+WITA+WIT == Total.
	TotalCities int
	WIBCities   int
	WITACities  int
	WITCities   int

	// Fetch batch tuning.
	FetchConcurrency int
	FetchTimeout     time.Duration
	TargetHour       int
	AutoReplace      bool
	MaxReplacements  int

	// Daily bulletin schedule, local time "HH:MM".
	BulletinSchedule string

	// AI narrative enhancement.
	UseAIEnhancement bool
	OpenAIAPIKey     string
	OpenAIModel      string

	// Bulletin history retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		DBPath:      getenvDefault("WILAYAH_DB_PATH", "wilayah.db"),
		BMKGBaseURL: getenvDefault("BMKG_BASE_URL", "https://api.bmkg.go.id/publik/prakiraan-cuaca"),

		TotalCities: getenvInt("TOTAL_CITIES", 4),
		WIBCities:   getenvInt("WIB_CITIES", 2),
		WITACities:  getenvInt("WITA_CITIES", 1),
		WITCities:   getenvInt("WIT_CITIES", 1),

		FetchConcurrency: getenvInt("FETCH_CONCURRENCY", 4),
		TargetHour:       getenvInt("TARGET_HOUR", 6),
		AutoReplace:      getenvBool("AUTO_REPLACE_FAILED", true),
		MaxReplacements:  getenvInt("MAX_REPLACEMENTS", 5),

		BulletinSchedule: getenvDefault("BULLETIN_SCHEDULE", "04:00"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),

		StoreMaxHistory: getenvInt("STORE_MAX_HISTORY", 30),

		Port: getenvDefault("PORT", "8080"),
	}

	timeoutStr := getenvDefault("FETCH_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	cfg.FetchTimeout = timeout

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "168h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	if cfg.WIBCities+cfg.WITACities+cfg.WITCities != cfg.TotalCities {
		return nil, fmt.Errorf("WIB_CITIES+WITA_CITIES+WIT_CITIES = %d, must equal TOTAL_CITIES = %d",
			cfg.WIBCities+cfg.WITACities+cfg.WITCities, cfg.TotalCities)
	}

	cfg.UseAIEnhancement = getenvBool("USE_AI_ENHANCEMENT", false)
	if cfg.UseAIEnhancement && cfg.OpenAIAPIKey == "" {
		log.Printf("WARN: USE_AI_ENHANCEMENT is set but OPENAI_API_KEY is empty; enhancement disabled")
		cfg.UseAIEnhancement = false
	}

	return cfg, nil
}

// SelectionRequest builds the default selection request from the configured
// quotas.
func (c *AppConfig) SelectionRequest() region.SelectionRequest {
	return region.NewSelectionRequest(c.TotalCities).
		WithQuota(region.WIB, c.WIBCities).
		WithQuota(region.WITA, c.WITACities).
		WithQuota(region.WIT, c.WITCities)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
