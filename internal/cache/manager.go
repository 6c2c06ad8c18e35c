package cache

import (
	"fmt"
	"log"
	"os"
	"time"
)

// CacheType represents the type of cache implementation.
type CacheType string

const (
	MemoryCacheType CacheType = "memory"
	RedisCacheType  CacheType = "redis"
)

type Config struct {
	Type   CacheType         `json:"type"`
	Memory MemoryCacheConfig `json:"memory"`
	Redis  RedisConfig       `json:"redis"`
	TTL    TTLConfig         `json:"ttl"`
}

// RedisConfig holds Redis-specific configuration for a future distributed
// deployment of the result cache.
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	Database     int           `json:"database"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns a sensible default configuration for production.
func DefaultConfig() Config {
	ttlConfig := GetTTLFromEnv()
	return Config{
		Type: MemoryCacheType,
		Memory: MemoryCacheConfig{
			MaxEntries:      1000,
			DefaultTTL:      ttlConfig.DefaultTTL,
			CleanupInterval: 30 * time.Second,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Database:     0,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		TTL: ttlConfig,
	}
}

// OptimizerResultConfig returns cache configuration tuned for memoized
// search_builds responses: a longer TTL than the default and more headroom
// for the wider key space a large rune inventory produces.
func OptimizerResultConfig() Config {
	config := DefaultConfig()
	config.Memory.DefaultTTL = config.TTL.SearchResult
	config.Memory.MaxEntries = 2000
	config.Memory.CleanupInterval = 20 * time.Second
	return config
}

// DevelopmentConfig returns a configuration suitable for development/testing.
func DevelopmentConfig() Config {
	config := DefaultConfig()
	config.Memory.MaxEntries = 100
	config.Memory.DefaultTTL = 30 * time.Second
	config.Memory.CleanupInterval = 5 * time.Second
	config.TTL = TTLConfig{
		SearchResult:    30 * time.Second,
		ObjectiveList:   1 * time.Minute,
		InventoryDigest: 30 * time.Second,
		DefaultTTL:      30 * time.Second,
	}
	return config
}

// Manager provides a factory and management layer for different cache
// implementations, wrapping one Cache with a CircuitBreaker guarding the
// search driver.
type Manager struct {
	config         Config
	cache          Cache
	circuitBreaker *CircuitBreaker
}

// NewManager creates a new cache manager with the specified configuration.
func NewManager(config Config) (*Manager, error) {
	manager := &Manager{
		config: config,
	}

	cache, err := manager.createCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	manager.cache = cache

	circuitConfig := DefaultCircuitBreakerConfig()
	manager.circuitBreaker = NewCircuitBreaker(circuitConfig, cache)

	return manager, nil
}

// GetCache returns the underlying cache implementation.
func (m *Manager) GetCache() Cache {
	return m.cache
}

// GetConfig returns the current cache configuration.
func (m *Manager) GetConfig() Config {
	return m.config
}

// GetCircuitBreaker returns the circuit breaker guarding the search driver.
func (m *Manager) GetCircuitBreaker() *CircuitBreaker {
	return m.circuitBreaker
}

// ExecuteWithFallback executes fn with circuit breaker and stale-cache
// fallback, keyed by the request's optimizer.CacheKey digest.
func (m *Manager) ExecuteWithFallback(key string, fn func() (interface{}, error)) (interface{}, error) {
	return m.circuitBreaker.ExecuteWithStaleCache(key, fn)
}

// GetCacheStatus returns comprehensive cache and circuit breaker status.
func (m *Manager) GetCacheStatus() map[string]interface{} {
	status := map[string]interface{}{
		"cache_type": m.config.Type,
		"config":     m.config,
	}

	if m.circuitBreaker != nil {
		status["circuit_breaker"] = m.circuitBreaker.GetDetailedStatus()
	}

	if memCache, ok := m.cache.(*MemoryCache); ok {
		status["cache_stats"] = memCache.GetStats()
	}

	return status
}

// Close gracefully shuts down the cache.
func (m *Manager) Close() error {
	if memCache, ok := m.cache.(*MemoryCache); ok {
		memCache.Close()
	}
	return nil
}

// createCache creates the appropriate cache implementation based on configuration.
func (m *Manager) createCache() (Cache, error) {
	switch m.config.Type {
	case MemoryCacheType:
		return NewMemoryCache(m.config.Memory), nil
	case RedisCacheType:
		return nil, fmt.Errorf("redis cache not yet implemented - use memory cache for now. " +
			"consider redis when you need: distributed caching across multiple optimizer " +
			"instances, persistence across restarts, or a key space beyond what one " +
			"process's memory cache can hold")
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", m.config.Type)
	}
}

// GenerateKey creates a consistent cache key for the given prefix and parts.
func GenerateKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}

	key := prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// TTLConfig holds configurable TTL values for different cached payload kinds.
type TTLConfig struct {
	SearchResult    time.Duration `json:"search_result_ttl"`
	ObjectiveList   time.Duration `json:"objective_list_ttl"`
	InventoryDigest time.Duration `json:"inventory_digest_ttl"`
	DefaultTTL      time.Duration `json:"default_ttl"`
}

// GetTTLFromEnv returns TTL configuration from environment variables with fallbacks.
func GetTTLFromEnv() TTLConfig {
	return TTLConfig{
		SearchResult:    getEnvDuration("CACHE_SEARCH_RESULT_TTL", 5*time.Minute),
		ObjectiveList:   getEnvDuration("CACHE_OBJECTIVE_LIST_TTL", 10*time.Minute),
		InventoryDigest: getEnvDuration("CACHE_INVENTORY_DIGEST_TTL", 3*time.Minute),
		DefaultTTL:      getEnvDuration("CACHE_DEFAULT_TTL", 3*time.Minute),
	}
}

// getEnvDuration parses a duration from an environment variable with a fallback.
func getEnvDuration(envKey string, fallback time.Duration) time.Duration {
	if value := os.Getenv(envKey); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("warning: invalid duration format for %s: %s, using fallback %v", envKey, value, fallback)
	}
	return fallback
}
