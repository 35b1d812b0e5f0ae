package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
//
// DatabaseURL and RedisURL are optional: without Redis the risk ledger and
// review queue fall back to in-process implementations, and without a
// database the risk scorer runs with no purchase history backfill.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// Logistics
	RatePerKm        int64
	BaseShippingFee  int64
	FuelSurchargePct float64
	ColdChainPremium int64
	VoidFillRatio    float64
	MinShippingCost  int64
	AvgFleetSpeedKmh float64
	HandlingMinutes  int
	MaxBoxesPerOrder int

	// Pricing
	BalanceWeight         float64
	ReferralEntropyWeight float64
	MaxDiscount           float64
	MarginFloorRatio      float64
	PriceRoundingUnit     int64
	TierCacheTTL          time.Duration
	TierCacheMaxEntries   int

	// Risk
	VelocityWindow      time.Duration
	VelocityThreshold   int
	ZScoreLimit         float64
	EntropyMinThreshold float64
	HighValueLimit      int64
	HistoryKeep         int

	// Rate limiting
	RateLimitMax    int64
	RateLimitWindow time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		RatePerKm:        parseInt64(k.String("LOGISTICS_RATE_PER_KM"), 1200),
		BaseShippingFee:  parseInt64(k.String("LOGISTICS_BASE_FEE"), 8500),
		FuelSurchargePct: parseFloat(k.String("LOGISTICS_FUEL_SURCHARGE"), 1.12),
		ColdChainPremium: parseInt64(k.String("LOGISTICS_COLD_CHAIN_PREMIUM"), 5000),
		VoidFillRatio:    parseFloat(k.String("LOGISTICS_VOID_FILL_RATIO"), 0.15),
		MinShippingCost:  parseInt64(k.String("LOGISTICS_MIN_SHIPPING_COST"), 15000),
		AvgFleetSpeedKmh: parseFloat(k.String("LOGISTICS_AVG_SPEED_KMH"), 40),
		HandlingMinutes:  parseIntValue(k.String("LOGISTICS_HANDLING_MINUTES"), 60),
		MaxBoxesPerOrder: parseIntValue(k.String("LOGISTICS_MAX_BOXES"), 20),

		BalanceWeight:         parseFloat(k.String("PRICING_BALANCE_WEIGHT"), 0.0001),
		ReferralEntropyWeight: parseFloat(k.String("PRICING_REFERRAL_WEIGHT"), 1.05),
		MaxDiscount:           parseFloat(k.String("PRICING_MAX_DISCOUNT"), 0.35),
		MarginFloorRatio:      parseFloat(k.String("PRICING_MARGIN_FLOOR_RATIO"), 0.5),
		PriceRoundingUnit:     parseInt64(k.String("PRICING_ROUNDING_UNIT"), 100),
		TierCacheTTL:          parseDuration(k.String("PRICING_TIER_CACHE_TTL"), "15m"),
		TierCacheMaxEntries:   parseIntValue(k.String("PRICING_TIER_CACHE_MAX"), 10000),

		VelocityWindow:      parseDuration(k.String("RISK_VELOCITY_WINDOW"), "5m"),
		VelocityThreshold:   parseIntValue(k.String("RISK_VELOCITY_THRESHOLD"), 3),
		ZScoreLimit:         parseFloat(k.String("RISK_ZSCORE_LIMIT"), 3.5),
		EntropyMinThreshold: parseFloat(k.String("RISK_ENTROPY_MIN"), 1.5),
		HighValueLimit:      parseInt64(k.String("RISK_HIGH_VALUE_LIMIT"), 5000000),
		HistoryKeep:         parseIntValue(k.String("RISK_HISTORY_KEEP"), 20),

		RateLimitMax:    parseInt64(k.String("RATE_LIMIT_MAX"), 120),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseIntValue(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
