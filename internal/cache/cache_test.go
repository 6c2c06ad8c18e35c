package cache

import (
	"testing"
	"time"
)

func TestMemoryCacheBasicOperations(t *testing.T) {
	config := MemoryCacheConfig{
		MaxEntries:      10,
		DefaultTTL:      1 * time.Second,
		CleanupInterval: 100 * time.Millisecond,
	}

	cache := NewMemoryCache(config)
	defer cache.Close()

	key := GenerateKey(SearchResultPrefix, "deadbeef")
	value := "serialized_search_result"

	if err := cache.Set(key, value, 1*time.Second); err != nil {
		t.Fatalf("failed to set cache entry: %v", err)
	}

	retrieved, found := cache.Get(key)
	if !found {
		t.Fatal("expected to find cached search result")
	}
	if retrieved != value {
		t.Fatalf("expected %v, got %v", value, retrieved)
	}

	_, found = cache.Get(GenerateKey(SearchResultPrefix, "nonexistent"))
	if found {
		t.Fatal("expected cache miss for unseen search key")
	}
}

func TestMemoryCacheTTLExpiration(t *testing.T) {
	config := MemoryCacheConfig{
		MaxEntries:      10,
		DefaultTTL:      50 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	}

	cache := NewMemoryCache(config)
	defer cache.Close()

	key := "expire_test"
	if err := cache.Set(key, "will_expire", 50*time.Millisecond); err != nil {
		t.Fatalf("failed to set cache entry: %v", err)
	}

	if _, found := cache.Get(key); !found {
		t.Fatal("expected to find cached value immediately after set")
	}

	time.Sleep(100 * time.Millisecond)

	if _, found := cache.Get(key); found {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	config := MemoryCacheConfig{
		MaxEntries:      3,
		DefaultTTL:      10 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	cache := NewMemoryCache(config)
	defer cache.Close()

	cache.Set("key1", "value1", 10*time.Second)
	time.Sleep(1 * time.Millisecond)
	cache.Set("key2", "value2", 10*time.Second)
	time.Sleep(1 * time.Millisecond)
	cache.Set("key3", "value3", 10*time.Second)
	time.Sleep(1 * time.Millisecond)

	if _, found := cache.Get("key1"); !found {
		t.Fatal("expected key1 to be accessible before eviction")
	}
	time.Sleep(1 * time.Millisecond)

	if _, found := cache.Get("key3"); !found {
		t.Fatal("expected key3 to be accessible before eviction")
	}
	time.Sleep(1 * time.Millisecond)

	cache.Set("key4", "value4", 10*time.Second)

	stats := cache.Stats()
	if stats.Entries != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", stats.Entries)
	}

	if _, found := cache.Get("key1"); !found {
		t.Fatal("expected key1 to still be cached (recently accessed)")
	}
	if _, found := cache.Get("key2"); found {
		t.Fatal("expected key2 to be evicted by LRU")
	}
	if _, found := cache.Get("key3"); !found {
		t.Fatal("expected key3 to still be cached")
	}
	if _, found := cache.Get("key4"); !found {
		t.Fatal("expected key4 to still be cached")
	}
}

func TestMemoryCacheStats(t *testing.T) {
	config := MemoryCacheConfig{
		MaxEntries:      10,
		DefaultTTL:      1 * time.Second,
		CleanupInterval: 100 * time.Millisecond,
	}

	cache := NewMemoryCache(config)
	defer cache.Close()

	stats := cache.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Entries != 0 {
		t.Fatal("expected initial stats to be zero")
	}

	cache.Set("key1", "value1", 1*time.Second)
	cache.Set("key2", "value2", 1*time.Second)

	cache.Get("key1")
	cache.Get("key1")
	cache.Get("non_existent")

	stats = cache.Stats()
	if stats.Hits != 2 {
		t.Fatalf("expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Fatalf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", stats.Entries)
	}

	expectedHitRate := float64(2) / float64(3) * 100
	if stats.HitRate < expectedHitRate-0.1 || stats.HitRate > expectedHitRate+0.1 {
		t.Fatalf("expected hit rate around %.2f%%, got %.2f%%", expectedHitRate, stats.HitRate)
	}
}

func TestCacheKeyGeneration(t *testing.T) {
	tests := []struct {
		prefix   string
		parts    []string
		expected string
	}{
		{"prefix", []string{}, "prefix"},
		{"prefix", []string{"part1"}, "prefix:part1"},
		{"prefix", []string{"part1", "part2"}, "prefix:part1:part2"},
		{SearchResultPrefix, []string{"deadbeef"}, SearchResultPrefix + ":deadbeef"},
	}

	for _, test := range tests {
		result := GenerateKey(test.prefix, test.parts...)
		if result != test.expected {
			t.Fatalf("expected %s, got %s", test.expected, result)
		}
	}
}

func TestCacheManager(t *testing.T) {
	config := OptimizerResultConfig()
	config.Memory.MaxEntries = 5
	config.Memory.DefaultTTL = 1 * time.Second

	manager, err := NewManager(config)
	if err != nil {
		t.Fatalf("failed to create cache manager: %v", err)
	}
	defer manager.Close()

	cache := manager.GetCache()
	if cache == nil {
		t.Fatal("expected cache to be available")
	}

	key := GenerateKey(SearchResultPrefix, "test")
	if err := cache.Set(key, "value", 1*time.Second); err != nil {
		t.Fatalf("failed to set through manager: %v", err)
	}

	value, found := cache.Get(key)
	if !found || value != "value" {
		t.Fatal("failed to get value through manager")
	}
}
