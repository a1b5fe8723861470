package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
)

func TestResultCache_GetSet(t *testing.T) {
	cache := NewResultCache(time.Minute)
	result := wordpress.AnalyzePlugin("<?php function a() {}", "a.php")

	assert.Nil(t, cache.Get("a.php", "<?php function a() {}"))

	cache.Set("a.php", "<?php function a() {}", result)
	assert.Same(t, result, cache.Get("a.php", "<?php function a() {}"))
	assert.Equal(t, 1, cache.Size())

	// same content under another name is a different entry
	assert.Nil(t, cache.Get("b.php", "<?php function a() {}"))
	assert.Nil(t, cache.Get("a.php", "<?php function b() {}"))
}

func TestResultCache_Expiry(t *testing.T) {
	cache := NewResultCache(20 * time.Millisecond)
	result := wordpress.AnalyzePlugin("<?php", "a.php")

	cache.Set("a.php", "<?php", result)
	require.NotNil(t, cache.Get("a.php", "<?php"))

	time.Sleep(40 * time.Millisecond)
	assert.Nil(t, cache.Get("a.php", "<?php"))
	assert.Equal(t, 1, cache.Size(), "expired entries stay until cleaned")

	assert.Equal(t, 1, cache.CleanExpired())
	assert.Equal(t, 0, cache.Size())
}

func TestResultCache_Disabled(t *testing.T) {
	cache := NewResultCache(0)
	cache.Set("a.php", "a", wordpress.AnalyzePlugin("a", "a.php"))
	assert.Nil(t, cache.Get("a.php", "a"))
	assert.Equal(t, 0, cache.Size())

	var nilCache *ResultCache
	assert.NotPanics(t, func() {
		nilCache.Set("a.php", "a", nil)
		assert.Nil(t, nilCache.Get("a.php", "a"))
		assert.Equal(t, 0, nilCache.CleanExpired())
		assert.Equal(t, 0, nilCache.Size())
	})
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("a.php", "x"), CacheKey("a.php", "x"))
	assert.NotEqual(t, CacheKey("a.php", "x"), CacheKey("a.phpx", ""))
}
