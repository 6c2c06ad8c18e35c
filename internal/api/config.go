package api

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/runeforge/optimizer/internal/log"
)

// OptimizerAPIConfig holds configurable parameters for the optimize
// endpoint's resilience and performance characteristics.
type OptimizerAPIConfig struct {
	// Circuit breaker settings. CBResetTimeoutSecs is sent as Retry-After on
	// a 503; the breaker itself runs on cache.DefaultCircuitBreakerConfig,
	// so these values do not change when it trips or recovers.
	CBMaxFails         int `json:"cb_max_fails"`
	CBResetTimeoutSecs int `json:"cb_reset_timeout_secs"`
	CBHalfOpenRequests int `json:"cb_half_open_requests"`

	// Per-request wall-clock budget for one search_builds call.
	SearchTimeoutSecs  int `json:"search_timeout_secs"`
	OverallTimeoutSecs int `json:"overall_timeout_secs"`

	// Rate limiting.
	RateLimit  int `json:"rate_limit"`
	BurstLimit int `json:"burst_limit"`

	// Request shape limits.
	MaxInventorySize int `json:"max_inventory_size"`
	MaxTopN          int `json:"max_top_n"`

	// Computed fields for convenience.
	CBResetTimeout  time.Duration `json:"-"`
	SearchTimeout   time.Duration `json:"-"`
	OverallTimeout  time.Duration `json:"-"`
}

// DefaultAPIConfig returns sensible production defaults.
func DefaultAPIConfig() OptimizerAPIConfig {
	config := OptimizerAPIConfig{
		CBMaxFails:         5,
		CBResetTimeoutSecs: 30,
		CBHalfOpenRequests: 3,

		SearchTimeoutSecs:  10,
		OverallTimeoutSecs: 15,

		RateLimit:  60,
		BurstLimit: 10,

		MaxInventorySize: 2000,
		MaxTopN:          200,
	}

	config.CBResetTimeout = time.Duration(config.CBResetTimeoutSecs) * time.Second
	config.SearchTimeout = time.Duration(config.SearchTimeoutSecs) * time.Second
	config.OverallTimeout = time.Duration(config.OverallTimeoutSecs) * time.Second

	return config
}

// LoadAPIConfigFromEnv loads configuration from environment variables with fallbacks.
func LoadAPIConfigFromEnv() OptimizerAPIConfig {
	config := DefaultAPIConfig()

	config.CBMaxFails = getEnvInt("CB_MAX_FAILS", config.CBMaxFails)
	config.CBResetTimeoutSecs = getEnvInt("CB_RESET_TIMEOUT_SECS", config.CBResetTimeoutSecs)
	config.CBHalfOpenRequests = getEnvInt("CB_HALF_OPEN_REQUESTS", config.CBHalfOpenRequests)

	config.SearchTimeoutSecs = getEnvInt("SEARCH_TIMEOUT_SECS", config.SearchTimeoutSecs)
	config.OverallTimeoutSecs = getEnvInt("OVERALL_TIMEOUT_SECS", config.OverallTimeoutSecs)

	config.RateLimit = getEnvInt("RATE_LIMIT_PER_MIN", config.RateLimit)
	config.BurstLimit = getEnvInt("BURST_LIMIT", config.BurstLimit)

	config.MaxInventorySize = getEnvInt("MAX_INVENTORY_SIZE", config.MaxInventorySize)
	config.MaxTopN = getEnvInt("MAX_TOP_N", config.MaxTopN)

	if config.CBMaxFails <= 0 {
		config.CBMaxFails = 5
	}
	if config.CBResetTimeoutSecs <= 0 {
		config.CBResetTimeoutSecs = 30
	}
	if config.SearchTimeoutSecs <= 0 {
		config.SearchTimeoutSecs = 10
	}
	if config.OverallTimeoutSecs < config.SearchTimeoutSecs {
		config.OverallTimeoutSecs = config.SearchTimeoutSecs + 5
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 60
	}
	if config.MaxInventorySize <= 0 {
		config.MaxInventorySize = 2000
	}
	if config.MaxTopN <= 0 {
		config.MaxTopN = 200
	}

	config.CBResetTimeout = time.Duration(config.CBResetTimeoutSecs) * time.Second
	config.SearchTimeout = time.Duration(config.SearchTimeoutSecs) * time.Second
	config.OverallTimeout = time.Duration(config.OverallTimeoutSecs) * time.Second

	log.Info("api configuration loaded",
		"cb_max_fails", config.CBMaxFails,
		"cb_reset_timeout", config.CBResetTimeout,
		"search_timeout", config.SearchTimeout,
		"rate_limit", config.RateLimit,
		"max_inventory_size", config.MaxInventorySize,
		"max_top_n", config.MaxTopN,
		"source", "environment_with_defaults")

	return config
}

// getEnvInt safely parses an integer from an environment variable with a fallback.
func getEnvInt(envKey string, fallback int) int {
	if value := os.Getenv(envKey); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			log.Debug("configuration loaded from environment", "env_key", envKey, "value", parsed)
			return parsed
		}
		log.Warn("invalid integer in environment variable, using fallback",
			"env_key", envKey, "value", value, "fallback", fallback)
	}
	return fallback
}

// Validate performs basic validation on configuration values.
func (c *OptimizerAPIConfig) Validate() error {
	if c.CBMaxFails <= 0 {
		return fmt.Errorf("CB_MAX_FAILS must be positive, got %d", c.CBMaxFails)
	}
	if c.SearchTimeoutSecs <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT_SECS must be positive, got %d", c.SearchTimeoutSecs)
	}
	if c.OverallTimeoutSecs < c.SearchTimeoutSecs {
		return fmt.Errorf("OVERALL_TIMEOUT_SECS (%d) must be >= SEARCH_TIMEOUT_SECS (%d)", c.OverallTimeoutSecs, c.SearchTimeoutSecs)
	}
	if c.MaxTopN <= 0 {
		return fmt.Errorf("MAX_TOP_N must be positive, got %d", c.MaxTopN)
	}
	return nil
}
