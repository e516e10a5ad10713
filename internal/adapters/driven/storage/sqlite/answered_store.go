package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

// answeredStore implements driven.AnsweredStore.
type answeredStore struct {
	store *Store
	now   func() time.Time
}

var _ driven.AnsweredStore = (*answeredStore)(nil)

// Contains reports whether the post has a ledger row.
func (s *answeredStore) Contains(ctx context.Context, postID string) (bool, error) {
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM answered_posts WHERE post_id = ?)`, postID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking answered post %s: %w", postID, err)
	}
	return exists == 1, nil
}

// Mark inserts the post if absent. An existing row is left untouched.
func (s *answeredStore) Mark(ctx context.Context, postID string, postNumber int) error {
	if postID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO answered_posts (post_id, post_nr, answered_at)
		VALUES (?, ?, ?)
		ON CONFLICT(post_id) DO NOTHING
	`, postID, postNumber, formatTime(now()))
	if err != nil {
		return fmt.Errorf("marking post %s: %w", postID, err)
	}
	return nil
}

// List returns records newest first. A limit of 0 or less returns all.
func (s *answeredStore) List(ctx context.Context, limit int) ([]domain.AnsweredRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT post_id, post_nr, answered_at
		FROM answered_posts
		ORDER BY answered_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying answered posts: %w", err)
	}
	defer rows.Close()

	var records []domain.AnsweredRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec domain.AnsweredRecord
			at  string
		)
		if err := rows.Scan(&rec.PostID, &rec.PostNumber, &at); err != nil {
			return nil, fmt.Errorf("scanning answered post: %w", err)
		}
		if rec.AnsweredAt, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("parsing answered_at of %s: %w", rec.PostID, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating answered posts: %w", err)
	}

	return records, nil
}

// Count returns the number of ledger rows.
func (s *answeredStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answered_posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting answered posts: %w", err)
	}
	return n, nil
}
