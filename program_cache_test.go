package controls

import "testing"

func TestBoundedProgramCacheEvictsOldest(t *testing.T) {
	cache := NewBoundedProgramCache(2)
	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("a", 10)
	cache.Set("c", 3)

	if cache.Len() != 2 {
		t.Fatalf("expected two programs, got %d", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Fatalf("expected oldest entry evicted")
	}
	if got, _ := cache.Get("b"); got != 2 {
		t.Fatalf("expected b kept, got %v", got)
	}

	unbounded := NewBoundedProgramCache(0)
	for _, key := range []string{"a", "b", "c"} {
		unbounded.Set(key, key)
	}
	if unbounded.Len() != 3 {
		t.Fatalf("expected unbounded cache, got %d", unbounded.Len())
	}
}

func TestManagerSharesDefaultProgramCache(t *testing.T) {
	manager := NewManager()
	cache, ok := manager.cfg.programCache.(*MemoryProgramCache)
	if !ok || cache.limit != DefaultProgramCacheSize {
		t.Fatalf("expected bounded default cache, got %#v", manager.cfg.programCache)
	}

	custom := NewMemoryProgramCache()
	if NewManager(WithProgramCache(custom)).cfg.programCache != custom {
		t.Fatalf("explicit cache should win")
	}
}
