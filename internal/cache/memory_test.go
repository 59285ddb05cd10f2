package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "plan:u1:2025-11", `{"total":100}`, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, ok := c.Get(ctx, "plan:u1:2025-11")
	if !ok {
		t.Fatal("expected hit")
	}
	if val != `{"total":100}` {
		t.Fatalf("unexpected value: %s", val)
	}

	if _, ok := c.Get(ctx, "plan:u2:2025-11"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "plan:u1:2025-11", "v", time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "plan:u1:2025-11"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "plan:u1:2025-10", "a", 0)
	c.Set(ctx, "plan:u1:2025-11", "b", 0)
	c.Set(ctx, "plan:u2:2025-11", "c", 0)

	if err := c.DeletePrefix(ctx, "plan:u1:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}

	if _, ok := c.Get(ctx, "plan:u1:2025-10"); ok {
		t.Fatal("expected plan:u1:2025-10 deleted")
	}
	if _, ok := c.Get(ctx, "plan:u1:2025-11"); ok {
		t.Fatal("expected plan:u1:2025-11 deleted")
	}
	if _, ok := c.Get(ctx, "plan:u2:2025-11"); !ok {
		t.Fatal("expected plan:u2:2025-11 kept")
	}
}
