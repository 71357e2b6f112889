package aggcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/searchguard/search-protection/internal/auditlog"
)

// newTestCache connects to a local Redis instance and clears the view
// key before and after the test. Requires Redis on localhost:6379;
// skips otherwise.
func newTestCache(t *testing.T) *Cache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	client.Del(ctx, ViewKey)
	t.Cleanup(func() {
		client.Del(ctx, ViewKey)
		client.Close()
	})
	return New(client)
}

// fakeSource serves canned aggregation rows and counts queries.
type fakeSource struct {
	terms   []auditlog.TermCount
	err     error
	queries int
}

func (f *fakeSource) RecentTopTerms(ctx context.Context, window time.Duration, limit int) ([]auditlog.TermCount, error) {
	f.queries++
	return f.terms, f.err
}

func TestCache_MissThenHit(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if _, ok := cache.Get(ctx); ok {
		t.Fatal("expected miss on empty cache")
	}

	view := &View{
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Terms:       []auditlog.TermCount{{Term: "spam", Count: 3}},
	}
	cache.Set(ctx, view)

	got, ok := cache.Get(ctx)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if len(got.Terms) != 1 || got.Terms[0] != view.Terms[0] {
		t.Errorf("cached terms = %+v, want %+v", got.Terms, view.Terms)
	}
}

func TestCache_Invalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, &View{GeneratedAt: time.Now(), Terms: nil})
	cache.Invalidate(ctx)

	if _, ok := cache.Get(ctx); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestReport_RecomputesOnMissOnly(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	source := &fakeSource{terms: []auditlog.TermCount{{Term: "judi", Count: 2}}}
	report := NewReport(cache, source)

	view, err := report.TopTerms(ctx)
	if err != nil {
		t.Fatalf("TopTerms() error: %v", err)
	}
	if len(view.Terms) != 1 || view.Terms[0].Term != "judi" {
		t.Errorf("view terms = %+v", view.Terms)
	}
	if source.queries != 1 {
		t.Fatalf("queries = %d, want 1", source.queries)
	}

	// Second read is served from cache.
	if _, err := report.TopTerms(ctx); err != nil {
		t.Fatalf("TopTerms() error: %v", err)
	}
	if source.queries != 1 {
		t.Errorf("queries = %d, want 1 (second read must hit the cache)", source.queries)
	}

	// Invalidation forces a recompute that sees fresh data.
	source.terms = []auditlog.TermCount{{Term: "judi", Count: 3}}
	cache.Invalidate(ctx)

	view, err = report.TopTerms(ctx)
	if err != nil {
		t.Fatalf("TopTerms() error: %v", err)
	}
	if source.queries != 2 {
		t.Errorf("queries = %d, want 2 after invalidation", source.queries)
	}
	if view.Terms[0].Count != 3 {
		t.Errorf("view not refreshed: %+v", view.Terms)
	}
}

func TestReport_SourceErrorPropagates(t *testing.T) {
	cache := newTestCache(t)
	source := &fakeSource{err: errors.New("db down")}
	report := NewReport(cache, source)

	if _, err := report.TopTerms(context.Background()); err == nil {
		t.Error("expected error when recompute fails on a cold cache")
	}
}
