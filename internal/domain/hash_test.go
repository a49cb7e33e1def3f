package domain

import "testing"

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("hello", "zh", "p1")
	b := CacheKey("hello", "zh", "p1")
	if a != b {
		t.Errorf("same inputs produced %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestCacheKeySensitivity(t *testing.T) {
	base := CacheKey("hello", "zh", "p1")
	variants := []string{
		CacheKey("hello!", "zh", "p1"),
		CacheKey("hello", "ja", "p1"),
		CacheKey("hello", "zh", "p2"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base key", i)
		}
	}
}

func TestCacheKeyFieldBoundaries(t *testing.T) {
	// Length prefixing must keep adjacent fields from bleeding into each
	// other: ("ab","c") and ("a","bc") concatenate identically.
	if CacheKey("ab", "c", "p") == CacheKey("a", "bc", "p") {
		t.Error("field boundary ambiguity in cache key")
	}
}
