package driven

import (
	"context"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// AnsweredStore is the durable dedup ledger.
// A post present in the ledger is never processed again.
type AnsweredStore interface {
	// Contains reports whether the post has been handled.
	Contains(ctx context.Context, postID string) (bool, error)

	// Mark records the post as handled. Marking an existing post is a no-op
	// and keeps the original timestamp.
	Mark(ctx context.Context, postID string, postNumber int) error

	// List returns the most recent records first, at most limit (0 = all).
	List(ctx context.Context, limit int) ([]domain.AnsweredRecord, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)
}
