// Package aggcache caches the derived "most-blocked terms" view in Redis
// so the reporting endpoint does not hit PostgreSQL on every read. The
// cache is best-effort: Redis failures degrade to a recompute, never to
// an error on the read path. Staleness is bounded by the TTL and by
// explicit invalidation on every audit log mutation.
package aggcache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/searchguard/search-protection/internal/auditlog"
)

const (
	// ViewKey is the single well-known Redis key for the aggregate view.
	ViewKey = "agg:top_blocked_terms"

	// ViewTTL bounds staleness when no invalidation arrives. Operator-
	// invisible by design.
	ViewTTL = 15 * time.Minute

	// Aggregation parameters for the reporting view.
	ReportWindow = 24 * time.Hour
	ReportLimit  = 20
)

// View is the cached aggregate: blocked terms over the trailing window,
// ordered by count descending.
type View struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Terms       []auditlog.TermCount `json:"terms"`
}

// Cache stores the aggregate view in Redis.
type Cache struct {
	client *redis.Client
}

// New creates a cache using the provided Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached view, or ok=false on a miss. Redis errors are
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context) (*View, bool) {
	data, err := c.client.Get(ctx, ViewKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Printf("[aggcache] redis GET error: %v (treating as miss)", err)
		return nil, false
	}

	var view View
	if err := json.Unmarshal(data, &view); err != nil {
		log.Printf("[aggcache] corrupt cached view: %v (treating as miss)", err)
		return nil, false
	}
	return &view, true
}

// Set stores the view with the fixed TTL. Failures are logged and
// swallowed; the next read simply recomputes.
func (c *Cache) Set(ctx context.Context, view *View) {
	data, err := json.Marshal(view)
	if err != nil {
		log.Printf("[aggcache] encode view: %v", err)
		return
	}
	if err := c.client.Set(ctx, ViewKey, data, ViewTTL).Err(); err != nil {
		log.Printf("[aggcache] redis SET error: %v", err)
	}
}

// Invalidate drops the cached view. Called after every audit log insert
// and purge. Failures are logged and swallowed: the TTL still bounds
// staleness.
func (c *Cache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, ViewKey).Err(); err != nil {
		log.Printf("[aggcache] redis DEL error: %v", err)
	}
}
