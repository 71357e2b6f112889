package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Invalidator is notified after every successful mutation so a derived
// cache can drop its copy of the aggregate view. A nil Invalidator is
// allowed and means no cache is attached.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Store manages blocked search events in PostgreSQL.
type Store struct {
	db    *sql.DB
	cache Invalidator
}

// NewStore creates a new audit log store backed by the given database
// handle. When cache is non-nil, every successful Record and
// PurgeOlderThan invalidates it.
func NewStore(db *sql.DB, cache Invalidator) *Store {
	return &Store{db: db, cache: cache}
}

// Record inserts one block event. The reason is validated against the
// allowed set before insertion. The assigned id and timestamp are
// written back into event. A successful insert invalidates the attached
// aggregate cache so the next read reflects the new event.
func (s *Store) Record(ctx context.Context, event *BlockEvent) error {
	if !validReasons[event.Reason] {
		return fmt.Errorf("auditlog: invalid reason %q", event.Reason)
	}

	const query = `
		INSERT INTO blocked_searches (search_term, blocked_reason, user_ip)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		event.SearchTerm,
		event.Reason,
		event.ClientIP,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("auditlog: insert: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

// RecentTopTerms returns the most frequently blocked search terms within
// the trailing window, ordered by count descending and truncated to
// limit. Ties keep the store's natural row order.
func (s *Store) RecentTopTerms(ctx context.Context, window time.Duration, limit int) ([]TermCount, error) {
	const query = `
		SELECT search_term, COUNT(*) AS n
		FROM blocked_searches
		WHERE created_at >= NOW() - make_interval(secs => $1)
		GROUP BY search_term
		ORDER BY n DESC, MIN(id)
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, window.Seconds(), limit)
	if err != nil {
		return nil, fmt.Errorf("auditlog: top terms: %w", err)
	}
	defer rows.Close()

	var terms []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("auditlog: scan: %w", err)
		}
		terms = append(terms, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditlog: rows: %w", err)
	}
	return terms, nil
}

// PurgeOlderThan bulk-deletes events older than the retention window and
// returns the number of rows removed. Used only by the cleanup job. A
// successful purge invalidates the attached aggregate cache.
func (s *Store) PurgeOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	const query = `
		DELETE FROM blocked_searches
		WHERE created_at < NOW() - make_interval(secs => $1)`

	res, err := s.db.ExecContext(ctx, query, window.Seconds())
	if err != nil {
		return 0, fmt.Errorf("auditlog: purge: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("auditlog: purge rows affected: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return deleted, nil
}

// CountSince returns the number of events recorded within the window.
// Useful for health reporting and tests.
func (s *Store) CountSince(ctx context.Context, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM blocked_searches
		WHERE created_at >= NOW() - make_interval(secs => $1)`

	var count int
	if err := s.db.QueryRowContext(ctx, query, window.Seconds()).Scan(&count); err != nil {
		return 0, fmt.Errorf("auditlog: count since: %w", err)
	}
	return count, nil
}
