package aggcache

import (
	"context"
	"fmt"
	"time"

	"github.com/searchguard/search-protection/internal/auditlog"
	"github.com/searchguard/search-protection/internal/metrics"
)

// TermSource is the authoritative aggregation query, satisfied by the
// audit log store.
type TermSource interface {
	RecentTopTerms(ctx context.Context, window time.Duration, limit int) ([]auditlog.TermCount, error)
}

// Report serves the aggregate view, recomputing from the audit log on a
// cache miss. Concurrent misses may race to recompute and overwrite the
// same key; last write wins, which is acceptable for a derived
// approximation.
type Report struct {
	cache  *Cache
	source TermSource
}

// NewReport wires the cache in front of the aggregation source.
func NewReport(cache *Cache, source TermSource) *Report {
	return &Report{cache: cache, source: source}
}

// TopTerms returns the 24h most-blocked-terms view, from cache when
// fresh, otherwise recomputed and repopulated.
func (r *Report) TopTerms(ctx context.Context) (*View, error) {
	if view, ok := r.cache.Get(ctx); ok {
		metrics.CacheReads.WithLabelValues("hit").Inc()
		return view, nil
	}
	metrics.CacheReads.WithLabelValues("miss").Inc()

	terms, err := r.source.RecentTopTerms(ctx, ReportWindow, ReportLimit)
	if err != nil {
		return nil, fmt.Errorf("aggcache: recompute: %w", err)
	}

	view := &View{GeneratedAt: time.Now().UTC(), Terms: terms}
	r.cache.Set(ctx, view)
	return view, nil
}
