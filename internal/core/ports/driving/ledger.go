package driving

import (
	"context"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// LedgerService exposes the dedup ledger to operators.
type LedgerService interface {
	// Recent returns the latest handled posts, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AnsweredRecord, error)

	// IsHandled reports whether a post is in the ledger.
	IsHandled(ctx context.Context, postID string) (bool, error)

	// Total returns the number of handled posts.
	Total(ctx context.Context) (int, error)
}
