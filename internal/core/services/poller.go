package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
	"github.com/custodia-labs/tutorbot/internal/logger"
	"github.com/custodia-labs/tutorbot/internal/normalisers/markup"
)

// Ensure PollService implements the interface.
var _ driving.Poller = (*PollService)(nil)

// Post outcomes, used as metric labels.
const (
	OutcomeDuplicate        = "duplicate"
	OutcomeMissing          = "missing"
	OutcomeIneligible       = "ineligible"
	OutcomeEmpty            = "empty"
	OutcomeAnswered         = "answered"
	OutcomeFollowup         = "followup"
	OutcomeDrafted          = "drafted"
	OutcomeGenerationFailed = "generation_failed"
	OutcomePostFailed       = "post_failed"
	OutcomeError            = "error"
)

// PollService answers unread forum questions, one cycle at a time.
// It is not safe for concurrent RunCycle calls.
type PollService struct {
	forum     driven.ForumClient
	ledger    driven.AnsweredStore
	drafter   AnswerDrafter
	retriever ContextRetriever
	metrics   driven.MetricsRecorder

	poll   domain.PollSettings
	answer domain.AnswerSettings
	topK   int
	dryRun bool

	cycle int
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPollService creates the poll loop. Retrieval is off until SetRetriever is called.
func NewPollService(
	forum driven.ForumClient,
	ledger driven.AnsweredStore,
	drafter AnswerDrafter,
	settings *domain.Settings,
) *PollService {
	return &PollService{
		forum:   forum,
		ledger:  ledger,
		drafter: drafter,
		poll:    settings.Poll,
		answer:  settings.Answer,
		topK:    settings.RAG.TopK,
		sleep:   sleepContext,
	}
}

// SetRetriever enables context retrieval.
func (p *PollService) SetRetriever(r ContextRetriever) {
	p.retriever = r
}

// SetMetrics sets the recorder for cycle and post outcomes.
func (p *PollService) SetMetrics(m driven.MetricsRecorder) {
	p.metrics = m
}

// SetDryRun makes the loop log drafted answers instead of posting them.
// Drafted posts are not marked.
func (p *PollService) SetDryRun(dryRun bool) {
	p.dryRun = dryRun
}

// Run executes a cycle immediately and then every poll interval until ctx is cancelled.
func (p *PollService) Run(ctx context.Context) error {
	logger.Info("Polling every %s", p.poll.Interval)
	for {
		if _, err := p.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Poll cycle failed: %v", err)
		}

		logger.Info("Poll cycle complete, sleeping for %s", p.poll.Interval)
		if err := p.sleep(ctx, p.poll.Interval); err != nil {
			return err
		}
	}
}

// RunCycle processes the current unread feed once.
func (p *PollService) RunCycle(ctx context.Context) (stats driving.CycleStats, err error) {
	start := time.Now()
	p.cycle++
	stats.Cycle = p.cycle
	logger.Section(fmt.Sprintf("Poll Cycle #%d", p.cycle))

	defer func() {
		stats.Duration = time.Since(start)
		if p.metrics != nil {
			p.metrics.ObserveCycle(stats.Duration)
		}
	}()

	items, err := p.listUnread(ctx)
	if err != nil {
		return stats, fmt.Errorf("list unread posts: %w", err)
	}
	stats.Listed = len(items)
	if len(items) == 0 {
		logger.Info("No unread posts found")
		return stats, nil
	}
	logger.Info("Processing %d unread post(s)", len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		outcome := p.handleSafe(ctx, item)
		if p.metrics != nil {
			p.metrics.CountPost(outcome)
		}
		switch outcome {
		case OutcomeDuplicate, OutcomeMissing:
			stats.Skipped++
		case OutcomeIneligible, OutcomeEmpty:
			stats.Ineligible++
		case OutcomeAnswered, OutcomeFollowup:
			stats.Answered++
		case OutcomeDrafted:
			stats.Drafted++
		default:
			stats.Failed++
		}
	}

	logger.Info("Cycle #%d: %d answered, %d drafted, %d ineligible, %d skipped, %d failed",
		stats.Cycle, stats.Answered, stats.Drafted, stats.Ineligible, stats.Skipped, stats.Failed)
	return stats, nil
}

// listUnread logs in again once when the session has expired.
func (p *PollService) listUnread(ctx context.Context) ([]domain.FeedItem, error) {
	items, err := p.forum.ListUnread(ctx)
	if !errors.Is(err, domain.ErrAuthRequired) {
		return items, err
	}

	logger.Warn("Forum session expired, logging in again")
	if loginErr := p.forum.Login(ctx); loginErr != nil {
		return nil, fmt.Errorf("re-login: %w", loginErr)
	}
	return p.forum.ListUnread(ctx)
}

// handleSafe isolates one post: errors and panics are logged, never propagated.
func (p *PollService) handleSafe(ctx context.Context, item domain.FeedItem) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Post #%d (%s): unexpected panic: %v", item.Number, item.ID, r)
			outcome = OutcomeError
		}
	}()

	outcome, err := p.handle(ctx, item)
	if err != nil {
		logger.Error("Post #%d (%s): %v", item.Number, item.ID, err)
	}
	return outcome
}

func (p *PollService) handle(ctx context.Context, item domain.FeedItem) (string, error) {
	handled, err := p.ledger.Contains(ctx, item.ID)
	if err != nil {
		return OutcomeError, fmt.Errorf("check ledger: %w", err)
	}
	if handled {
		logger.Info("Post #%d (%s) already answered, skipping", item.Number, item.ID)
		return OutcomeDuplicate, nil
	}

	if err := p.sleep(ctx, p.poll.CallDelay); err != nil {
		return OutcomeError, err
	}

	post, err := p.forum.FetchPost(ctx, item.ID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Could not fetch post %s", item.ID)
		return OutcomeMissing, nil
	}
	if err != nil {
		return OutcomeError, fmt.Errorf("fetch post: %w", err)
	}

	if !domain.IsEligible(post) {
		logger.Info("Post #%d does not meet criteria for answering, marking as skipped", post.Number)
		return OutcomeIneligible, p.mark(ctx, post)
	}

	subject, text, ok := markup.ExtractQuestion(post)
	if !ok {
		logger.Warn("Post #%d has no content, skipping", post.Number)
		return OutcomeEmpty, p.mark(ctx, post)
	}

	if err := ctx.Err(); err != nil {
		return OutcomeError, err
	}

	contextBlock := p.retrieve(ctx, subject, text)

	logger.Info("Generating answer for post #%d: %s", post.Number, truncate(subject, 50))
	result := p.drafter.Generate(ctx, Question{Subject: subject, Text: text}, p.answer.CourseName, contextBlock)
	if !result.OK() {
		logger.Warn("Failed to generate answer for post #%d (%s), will retry next cycle", post.Number, result.Kind)
		return OutcomeGenerationFailed, nil
	}

	answer := result.Text + p.answer.Disclaimer
	if p.dryRun {
		logger.Info("Dry run, drafted answer for post #%d:\n%s", post.Number, answer)
		return OutcomeDrafted, nil
	}

	if err := p.sleep(ctx, p.poll.CallDelay); err != nil {
		return OutcomeError, err
	}

	outcome, err := p.publish(ctx, post.ID, answer)
	if err != nil {
		logger.Warn("Failed to post answer to post #%d: %v", post.Number, err)
		return OutcomePostFailed, nil
	}
	if err := p.mark(ctx, post); err != nil {
		return OutcomeError, err
	}
	logger.Info("Successfully posted answer to post #%d", post.Number)
	return outcome, nil
}

// retrieve returns an empty block when retrieval is off or fails.
func (p *PollService) retrieve(ctx context.Context, subject, text string) string {
	if p.retriever == nil {
		return ""
	}
	block, err := p.retriever.Retrieve(ctx, subject+"\n"+text, p.topK)
	if err != nil {
		logger.Warn("Context retrieval failed, answering without context: %v", err)
		return ""
	}
	return block
}

// publish posts the instructor answer, falling back to a follow-up when the
// account lacks instructor rights.
func (p *PollService) publish(ctx context.Context, postID, answer string) (string, error) {
	err := p.forum.PostInstructorAnswer(ctx, postID, answer)
	if err == nil {
		return OutcomeAnswered, nil
	}
	if !errors.Is(err, domain.ErrPermissionDenied) {
		return "", err
	}

	logger.Warn("No permission to post instructor answer, posting as follow-up")
	if err := p.forum.PostFollowup(ctx, postID, p.answer.FollowupPrefix+answer); err != nil {
		return "", fmt.Errorf("post follow-up: %w", err)
	}
	return OutcomeFollowup, nil
}

func (p *PollService) mark(ctx context.Context, post *domain.Post) error {
	if err := p.ledger.Mark(ctx, post.ID, post.Number); err != nil {
		return fmt.Errorf("mark post: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
