package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/runeforge/optimizer/internal/log"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation
	CircuitOpen                         // Tripping, blocking new searches
	CircuitHalfOpen                     // Probing whether searches have recovered
)

// CircuitBreakerConfig defines circuit breaker behavior. The breaker guards
// search.Search itself, not an upstream API: it trips when a sliding window
// of recent search_builds calls is dominated by failures — calls whose fn
// returns an error, which the /api/optimize handler does when a search is
// cancelled, including one that ran past its wall-clock budget — and
// serves the last good cached result instead of launching another one.
type CircuitBreakerConfig struct {
	MaxFailures            int           `json:"max_failures"`
	ResetTimeout           time.Duration `json:"reset_timeout"`
	SuccessReset           int           `json:"success_reset"`
	FailureThreshold       float64       `json:"failure_threshold"`
	RequestVolumeThreshold int           `json:"request_volume_threshold"`
	SlidingWindowSize      time.Duration `json:"sliding_window_size"`
}

// DefaultCircuitBreakerConfig returns production-safe circuit breaker settings.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:            5,
		ResetTimeout:           30 * time.Second,
		SuccessReset:           3,
		FailureThreshold:       0.5,
		RequestVolumeThreshold: 10,
		SlidingWindowSize:      60 * time.Second,
	}
}

// CircuitBreakerMetrics tracks circuit breaker performance.
type CircuitBreakerMetrics struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	CircuitOpenCount   int64     `json:"circuit_open_count"`
	LastFailure        time.Time `json:"last_failure"`
	LastSuccess        time.Time `json:"last_success"`
}

// RequestResult represents the outcome of one search_builds attempt.
type RequestResult struct {
	Success   bool
	Timestamp time.Time
	Error     error
}

// CircuitBreaker implements the circuit breaker pattern around the search
// driver, with a fallback cache for serving stale results while tripped.
type CircuitBreaker struct {
	config          CircuitBreakerConfig
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
	lastSuccessTime time.Time
	requestHistory  []RequestResult
	metrics         CircuitBreakerMetrics
	fallbackCache   Cache
	mu              sync.RWMutex
}

// NewCircuitBreaker creates a new circuit breaker backed by fallbackCache.
func NewCircuitBreaker(config CircuitBreakerConfig, fallbackCache Cache) *CircuitBreaker {
	return &CircuitBreaker{
		config:         config,
		state:          CircuitClosed,
		fallbackCache:  fallbackCache,
		requestHistory: make([]RequestResult, 0),
	}
}

// Execute runs fn with circuit breaker protection, falling back to a
// generic placeholder when the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.executeWithOptions(fn, true)
}

// ExecuteWithStaleCache runs fn with circuit breaker protection, preferring
// to serve the last cached search.Result under key over a generic fallback
// once the circuit has tripped.
func (cb *CircuitBreaker) ExecuteWithStaleCache(key string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cb.executeWithOptions(fn, false)
	if err != nil {
		log.Warn("circuit breaker triggered for key",
			"key", key,
			"error", err,
			"circuit_state", cb.getStateString(),
			"failure_count", cb.failures,
			"last_failure", cb.lastFailureTime)

		if staleData, exists := cb.getStaleData(key); exists {
			log.Info("serving stale search result from fallback cache",
				"key", key,
				"circuit_state", cb.getStateString())
			return staleData, nil
		}

		log.Warn("no stale result available for key",
			"key", key,
			"circuit_state", cb.getStateString())
	}
	return result, err
}

// executeWithOptions is the internal execution method.
func (cb *CircuitBreaker) executeWithOptions(fn func() (interface{}, error), useGenericFallback bool) (interface{}, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.cleanOldRequests()

	if cb.state == CircuitClosed && cb.shouldOpenCircuit() {
		cb.openCircuit()
	}

	switch state := cb.state; state {
	case CircuitOpen:
		timeoutWithJitter := addJitter(cb.config.ResetTimeout, 0.2)
		if time.Since(cb.lastFailureTime) > timeoutWithJitter {
			cb.state = CircuitHalfOpen
			cb.successes = 0
			log.Info("circuit breaker entering half-open state with jitter",
				"base_timeout", cb.config.ResetTimeout,
				"actual_timeout", timeoutWithJitter)
		} else {
			if useGenericFallback {
				return cb.getFallbackData()
			}
			return nil, errors.New("circuit breaker open")
		}

	case CircuitHalfOpen:
		// Allow limited requests to test if the search driver has recovered.

	case CircuitClosed:
		// Normal operation.

	default:
		log.Warn("circuit breaker in unknown state, treating as closed")
	}

	result, err := fn()
	cb.recordRequest(err == nil)

	if err != nil {
		cb.handleFailure(err)

		if cb.state == CircuitClosed && cb.shouldOpenCircuit() {
			cb.openCircuit()
		}

		if useGenericFallback {
			if fallback, fallbackErr := cb.getFallbackData(); fallbackErr == nil {
				log.Warn("using fallback data after search failure",
					"original_error", err,
					"circuit_state", cb.getStateString())
				return fallback, nil
			}
		}
		return nil, err
	}

	cb.handleSuccess()
	return result, nil
}

// recordRequest adds a request result to the sliding window.
func (cb *CircuitBreaker) recordRequest(success bool) {
	now := time.Now()
	result := RequestResult{
		Success:   success,
		Timestamp: now,
	}

	cb.requestHistory = append(cb.requestHistory, result)
	cb.metrics.TotalRequests++

	if success {
		cb.metrics.SuccessfulRequests++
		cb.metrics.LastSuccess = now
	} else {
		cb.metrics.FailedRequests++
		cb.metrics.LastFailure = now
	}
}

// cleanOldRequests removes requests outside the sliding window.
func (cb *CircuitBreaker) cleanOldRequests() {
	cutoff := time.Now().Add(-cb.config.SlidingWindowSize)
	newHistory := make([]RequestResult, 0, len(cb.requestHistory))

	for _, req := range cb.requestHistory {
		if req.Timestamp.After(cutoff) {
			newHistory = append(newHistory, req)
		}
	}

	cb.requestHistory = newHistory
}

// shouldOpenCircuit determines if the circuit should be opened.
func (cb *CircuitBreaker) shouldOpenCircuit() bool {
	if len(cb.requestHistory) < cb.config.RequestVolumeThreshold {
		return false
	}

	failures := 0
	for _, req := range cb.requestHistory {
		if !req.Success {
			failures++
		}
	}

	failureRate := float64(failures) / float64(len(cb.requestHistory))
	return failureRate >= cb.config.FailureThreshold
}

// openCircuit transitions to the open state.
func (cb *CircuitBreaker) openCircuit() {
	if cb.state != CircuitOpen {
		cb.state = CircuitOpen
		cb.metrics.CircuitOpenCount++
		cb.lastFailureTime = time.Now()

		log.Warn("circuit breaker opened due to high search failure rate",
			"failure_rate", cb.getFailureRate(),
			"failures", cb.failures,
			"total_requests", len(cb.requestHistory))
	}
}

// handleFailure processes a failed request.
func (cb *CircuitBreaker) handleFailure(err error) {
	cb.failures++
	cb.lastFailureTime = time.Now()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		cb.successes = 0
		log.Warn("circuit breaker returned to open state after half-open failure",
			"error", err)
	}
}

// handleSuccess processes a successful request.
func (cb *CircuitBreaker) handleSuccess() {
	cb.lastSuccessTime = time.Now()

	if cb.state == CircuitHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessReset {
			cb.state = CircuitClosed
			cb.failures = 0
			cb.successes = 0
			log.Info("circuit breaker recovered and closed",
				"recovery_successes", cb.config.SuccessReset,
				"downtime_duration", time.Since(cb.lastFailureTime),
				"recovery_time", time.Now())
		}
	} else if cb.state == CircuitClosed {
		cb.failures = 0
	}
}

// getFallbackData returns a generic placeholder used when the circuit is
// open and the caller didn't ask for stale-cache semantics.
func (cb *CircuitBreaker) getFallbackData() (interface{}, error) {
	if cb.fallbackCache == nil {
		return nil, errors.New("circuit breaker open and no fallback cache available")
	}

	return map[string]interface{}{
		"status":    "fallback",
		"message":   "search temporarily unavailable, degraded mode",
		"timestamp": time.Now(),
	}, nil
}

// getStaleData attempts to retrieve stale data from the fallback cache
// regardless of its TTL.
func (cb *CircuitBreaker) getStaleData(key string) (interface{}, bool) {
	if cb.fallbackCache == nil {
		return nil, false
	}

	if memCache, ok := cb.fallbackCache.(*MemoryCache); ok {
		memCache.mu.RLock()
		defer memCache.mu.RUnlock()

		if entry, exists := memCache.data[key]; exists {
			entry.AccessedAt = time.Now()
			return entry.Value, true
		}
	}

	return nil, false
}

// GetState returns the current circuit breaker state.
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// getStateString returns a human-readable state.
func (cb *CircuitBreaker) getStateString() string {
	switch state := cb.state; state {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// getFailureRate calculates the current failure rate.
func (cb *CircuitBreaker) getFailureRate() float64 {
	if len(cb.requestHistory) == 0 {
		return 0.0
	}

	failures := 0
	for _, req := range cb.requestHistory {
		if !req.Success {
			failures++
		}
	}

	return float64(failures) / float64(len(cb.requestHistory))
}

// GetMetrics returns circuit breaker metrics.
func (cb *CircuitBreaker) GetMetrics() CircuitBreakerMetrics {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	metrics := cb.metrics
	return metrics
}

// GetDetailedStatus returns comprehensive status information.
func (cb *CircuitBreaker) GetDetailedStatus() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return map[string]interface{}{
		"state":              cb.getStateString(),
		"failures":           cb.failures,
		"successes":          cb.successes,
		"failure_rate":       cb.getFailureRate(),
		"requests_in_window": len(cb.requestHistory),
		"last_failure":       cb.lastFailureTime,
		"last_success":       cb.lastSuccessTime,
		"config":             cb.config,
		"metrics":            cb.metrics,
	}
}

// Reset manually resets the circuit breaker to the closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.requestHistory = make([]RequestResult, 0)

	cb.metrics = CircuitBreakerMetrics{}

	log.Info("circuit breaker manually reset to closed state")
}
