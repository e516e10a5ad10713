package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
)

// Ensure LedgerService implements the interface.
var _ driving.LedgerService = (*LedgerService)(nil)

// DefaultLedgerLimit is used by Recent when limit is not positive.
const DefaultLedgerLimit = 20

// LedgerService exposes the dedup ledger read-only.
type LedgerService struct {
	store driven.AnsweredStore
}

// NewLedgerService creates a ledger service.
func NewLedgerService(store driven.AnsweredStore) *LedgerService {
	return &LedgerService{store: store}
}

// Recent returns the latest handled posts, newest first.
func (s *LedgerService) Recent(ctx context.Context, limit int) ([]domain.AnsweredRecord, error) {
	if limit <= 0 {
		limit = DefaultLedgerLimit
	}
	records, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return records, nil
}

// IsHandled reports whether a post is in the ledger.
func (s *LedgerService) IsHandled(ctx context.Context, postID string) (bool, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return false, fmt.Errorf("%w: empty post id", domain.ErrInvalidInput)
	}
	return s.store.Contains(ctx, postID)
}

// Total returns the number of handled posts.
func (s *LedgerService) Total(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
