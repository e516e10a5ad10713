package driven

import (
	"context"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// ForumClient talks to the Q&A platform on behalf of the bot account.
type ForumClient interface {
	// Login establishes an authenticated session.
	Login(ctx context.Context) error

	// ListUnread returns the unread feed entries for the course.
	ListUnread(ctx context.Context) ([]domain.FeedItem, error)

	// ListAll returns every feed entry for the course, paging as needed.
	ListAll(ctx context.Context) ([]domain.FeedItem, error)

	// FetchPost returns the full post, or domain.ErrNotFound when it is gone.
	FetchPost(ctx context.Context, postID string) (*domain.Post, error)

	// PostInstructorAnswer submits the instructor answer of a question.
	// Fails with domain.ErrPermissionDenied when the account lacks instructor rights.
	PostInstructorAnswer(ctx context.Context, postID, text string) error

	// PostFollowup adds a follow-up discussion to the post.
	PostFollowup(ctx context.Context, postID, text string) error
}
