package ai

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryEmbedCacheRoundTrip(t *testing.T) {
	c := NewMemoryEmbedCache(4)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set(ctx, "hello", []float32{0.1, 0.2})
	vec, ok := c.Get(ctx, "hello")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if len(vec) != 2 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestMemoryEmbedCacheCopiesVector(t *testing.T) {
	c := NewMemoryEmbedCache(4)
	ctx := context.Background()

	src := []float32{1, 2, 3}
	c.Set(ctx, "k", src)
	src[0] = 99

	vec, _ := c.Get(ctx, "k")
	if vec[0] != 1 {
		t.Fatalf("cache must not alias the caller's slice, got %v", vec)
	}
}

func TestMemoryEmbedCacheEvictsWhenFull(t *testing.T) {
	c := NewMemoryEmbedCache(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), []float32{float32(i)})
	}
	// touch k0 so k1 becomes the oldest
	c.Get(ctx, "k0")
	c.Set(ctx, "k3", []float32{3})

	if _, ok := c.Get(ctx, "k1"); ok {
		t.Fatal("expected the oldest entry to be evicted")
	}
	if _, ok := c.Get(ctx, "k0"); !ok {
		t.Fatal("recently used entry must survive")
	}
	if _, ok := c.Get(ctx, "k3"); !ok {
		t.Fatal("newly set entry must be present")
	}
}
