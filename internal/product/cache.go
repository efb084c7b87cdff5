package product

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through cache over product rows. Implementations must treat
// every failure as a miss; the database stays the source of truth.
type Cache interface {
	Get(id int) (Product, bool)
	Set(p Product)
	Invalidate(id int)
}

// NoopCache disables caching when no Redis address is configured.
type NoopCache struct{}

func (NoopCache) Get(int) (Product, bool) { return Product{}, false }
func (NoopCache) Set(Product)             {}
func (NoopCache) Invalidate(int)          {}

// RedisCache keeps product rows in Redis with a short TTL. Stock-mutating
// operations invalidate entries so enriched cart reads never serve stale
// availability for long.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(id int) string { return fmt.Sprintf("product:%d", id) }

func (c *RedisCache) Get(id int) (Product, bool) {
	raw, err := c.client.Get(context.Background(), cacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("product cache get %d: %v", id, err)
		}
		return Product{}, false
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, false
	}
	return p, true
}

func (c *RedisCache) Set(p Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(context.Background(), cacheKey(p.ID), raw, c.ttl).Err(); err != nil {
		log.Printf("product cache set %d: %v", p.ID, err)
	}
}

func (c *RedisCache) Invalidate(id int) {
	if err := c.client.Del(context.Background(), cacheKey(id)).Err(); err != nil {
		log.Printf("product cache invalidate %d: %v", id, err)
	}
}
