package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/runeforge/optimizer/internal/cache"
	"github.com/runeforge/optimizer/internal/engine"
	"github.com/runeforge/optimizer/internal/log"
	"github.com/runeforge/optimizer/internal/optimizer"
	"github.com/runeforge/optimizer/internal/runes"
	"github.com/runeforge/optimizer/internal/search"
)

// Handler wires a resolved optimizer.Request through search.Search,
// memoizing successful responses in cacheManager and tripping its circuit
// breaker on repeated search failures (SPEC_FULL.md §4.9, §6, §7).
type Handler struct {
	cacheManager *cache.Manager
	registry     *engine.ObjectiveRegistry
	config       OptimizerAPIConfig
}

// NewHandler builds a Handler with a fresh objective registry and a memory
// result cache tuned for search_builds payloads.
func NewHandler(config OptimizerAPIConfig) *Handler {
	cacheManager, err := cache.NewManager(cache.OptimizerResultConfig())
	if err != nil {
		log.Error("failed to initialize result cache, proceeding uncached",
			"error", err, "fallback", "direct_search_calls")
		return &Handler{
			registry: engine.NewObjectiveRegistry(),
			config:   config,
		}
	}

	log.Info("optimizer handler initialized with caching enabled",
		"cache_type", string(cacheManager.GetConfig().Type),
		"max_entries", cacheManager.GetConfig().Memory.MaxEntries,
		"default_ttl", cacheManager.GetConfig().Memory.DefaultTTL)

	return &Handler{
		cacheManager: cacheManager,
		registry:     engine.NewObjectiveRegistry(),
		config:       config,
	}
}

// Close releases the handler's cache resources.
func (h *Handler) Close() error {
	if h.cacheManager != nil {
		return h.cacheManager.Close()
	}
	return nil
}

// Optimize serves POST /api/optimize: decode the wire request, resolve it
// against the rune/engine domain, run (or replay from cache) search.Search,
// and render the result as the SPEC_FULL.md §6 wire envelope.
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var wireReq optimizer.Request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&wireReq); err != nil {
		writeMalformedBodyError(w, r, err.Error())
		return
	}

	if len(wireReq.Runes) > h.config.MaxInventorySize {
		writeStandardErrorResponse(w, r, "INVENTORY_TOO_LARGE",
			fmt.Sprintf("inventory of %d runes exceeds max_inventory_size %d", len(wireReq.Runes), h.config.MaxInventorySize),
			http.StatusRequestEntityTooLarge, nil, nil)
		return
	}

	resolved, diagnostics := optimizer.Resolve(wireReq, h.registry)
	if resolved.TopN > h.config.MaxTopN {
		resolved.TopN = h.config.MaxTopN
	}
	resolved.BonusTable = runes.DefaultSetBonusTable()

	cacheKey := optimizer.CacheKey(resolved)

	ctx, cancel := context.WithTimeout(r.Context(), h.config.OverallTimeout)
	defer cancel()

	runSearch := func() (interface{}, error) {
		searchCtx, searchCancel := context.WithTimeout(ctx, h.config.SearchTimeout)
		defer searchCancel()
		result := search.Search(searchCtx, resolved)
		for _, tag := range result.Diagnostics {
			if tag == search.TagCancelled {
				return result, fmt.Errorf("search_builds cancelled: %s", searchCtx.Err())
			}
		}
		return result, nil
	}

	var result search.Result
	fromCache := false

	if h.cacheManager != nil && !wireReq.CacheBust {
		if cached, hit := h.cacheManager.GetCache().Get(cacheKey); hit {
			if cachedResult, ok := cached.(search.Result); ok {
				result = cachedResult
				fromCache = true
			}
		}
	}

	if !fromCache {
		var raw interface{}
		var err error
		if h.cacheManager != nil {
			raw, err = h.cacheManager.ExecuteWithFallback(cacheKey, runSearch)
		} else {
			raw, err = runSearch()
		}

		if err != nil {
			writeSearchUnavailableError(w, r, h.config.CBResetTimeoutSecs)
			return
		}

		switch v := raw.(type) {
		case search.Result:
			result = v
			if h.cacheManager != nil {
				h.cacheManager.GetCache().Set(cacheKey, result, h.cacheManager.GetConfig().Memory.DefaultTTL)
			}
		default:
			writeSearchUnavailableError(w, r, h.config.CBResetTimeoutSecs)
			return
		}
	}

	for _, tag := range result.Diagnostics {
		diagnostics = append(diagnostics, optimizer.Diagnostic{Tag: optimizer.Tag(tag)})
	}

	builds := make([]optimizer.BuildWire, 0, len(result.Builds))
	for _, b := range result.Builds {
		builds = append(builds, optimizer.EncodeBuild(b))
	}

	response := optimizer.Response{
		Builds:      builds,
		Diagnostics: diagnostics,
		Cache:       optimizer.CacheInfo{Hit: fromCache, Key: cacheKey},
		TookMs:      time.Since(started).Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestIDFromContext(r.Context()))
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed to encode optimize response", "error", err.Error())
	}
}

// ListObjectives serves GET /api/objectives for client discovery of the
// registered objective names (SPEC_FULL.md §4.11).
func (h *Handler) ListObjectives(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"objectives": h.registry.Names(),
		"default":    engine.ScoreObjectiveName,
	})
}

// HealthCheck serves GET /health and /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
		"services": map[string]string{
			"search": "available",
			"cache":  "available",
		},
	}

	if h.cacheManager != nil {
		status["cache_status"] = h.cacheManager.GetCacheStatus()
		if cb := h.cacheManager.GetCircuitBreaker(); cb != nil && cb.GetState() == cache.CircuitOpen {
			status["services"].(map[string]string)["search"] = "degraded"
		}
	} else {
		status["services"].(map[string]string)["cache"] = "disabled"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}
