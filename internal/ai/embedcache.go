package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryEmbedCache is a size-bounded in-process cache. The least recently
// used entry is evicted when full.
type MemoryEmbedCache struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	accessTime map[string]time.Time
	maxSize    int
}

func NewMemoryEmbedCache(maxSize int) *MemoryEmbedCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryEmbedCache{
		vectors:    make(map[string][]float32),
		accessTime: make(map[string]time.Time),
		maxSize:    maxSize,
	}
}

func (c *MemoryEmbedCache) Get(_ context.Context, text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := embedKey(text)
	vec, ok := c.vectors[key]
	if ok {
		c.accessTime[key] = time.Now()
	}
	return vec, ok
}

func (c *MemoryEmbedCache) Set(_ context.Context, text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.vectors) >= c.maxSize {
		c.evictOldest()
	}

	key := embedKey(text)
	cp := make([]float32, len(vector))
	copy(cp, vector)
	c.vectors[key] = cp
	c.accessTime[key] = time.Now()
}

func (c *MemoryEmbedCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, at := range c.accessTime {
		if oldestKey == "" || at.Before(oldestTime) {
			oldestKey = key
			oldestTime = at
		}
	}
	if oldestKey != "" {
		delete(c.vectors, oldestKey)
		delete(c.accessTime, oldestKey)
	}
}

// RedisEmbedCache shares embeddings across processes (server and worker).
// Failures degrade to cache misses; they never fail the caller.
type RedisEmbedCache struct {
	client *redis.Client
	model  string
	ttl    time.Duration
}

func NewRedisEmbedCache(client *redis.Client, model string, ttl time.Duration) *RedisEmbedCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisEmbedCache{client: client, model: model, ttl: ttl}
}

func (c *RedisEmbedCache) key(text string) string {
	return "emb:" + c.model + ":" + embedKey(text)
}

func (c *RedisEmbedCache) Get(ctx context.Context, text string) ([]float32, bool) {
	val, err := c.client.Get(ctx, c.key(text)).Result()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal([]byte(val), &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (c *RedisEmbedCache) Set(ctx context.Context, text string, vector []float32) {
	b, err := json.Marshal(vector)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(text), b, c.ttl).Err()
}

func embedKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
