package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/logger"
)

// GenerationKind tags the outcome of one generation attempt.
type GenerationKind int

// Generation outcomes.
const (
	// GenerationAnswer carries a drafted answer.
	GenerationAnswer GenerationKind = iota

	// GenerationRateLimited means the provider throttled the call.
	GenerationRateLimited

	// GenerationUnreachable means the provider could not be reached or failed server side.
	GenerationUnreachable

	// GenerationRejected means the provider refused the request.
	GenerationRejected

	// GenerationUnclassified covers every other failure, recovered panics included.
	GenerationUnclassified
)

// String returns the label used in logs and metrics.
func (k GenerationKind) String() string {
	switch k {
	case GenerationAnswer:
		return "answer"
	case GenerationRateLimited:
		return "rate_limited"
	case GenerationUnreachable:
		return "unreachable"
	case GenerationRejected:
		return "provider_rejected"
	default:
		return "unclassified"
	}
}

// Question is the cleaned question handed to the generator.
type Question struct {
	Subject string
	Text    string
}

// GenerationResult is the tagged outcome of Generate.
// Text is set only for GenerationAnswer, Err only for failures.
type GenerationResult struct {
	Kind GenerationKind
	Text string
	Err  error
}

// OK reports whether an answer was drafted.
func (r GenerationResult) OK() bool {
	return r.Kind == GenerationAnswer
}

// AnswerDrafter drafts answers for the poll loop.
type AnswerDrafter interface {
	Generate(ctx context.Context, q Question, courseName, contextBlock string) GenerationResult
}

// Ensure AnswerGenerator implements the interface.
var _ AnswerDrafter = (*AnswerGenerator)(nil)

// AnswerGenerator prompts the LLM with the tutor persona and optional context.
type AnswerGenerator struct {
	llm       driven.LLMService
	prompts   driven.PromptStore
	maxTokens int
	cooldown  time.Duration
	metrics   driven.MetricsRecorder
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewAnswerGenerator creates a generator. cooldown is how long Generate
// waits before returning a rate-limited result.
func NewAnswerGenerator(
	llm driven.LLMService,
	prompts driven.PromptStore,
	maxTokens int,
	cooldown time.Duration,
) *AnswerGenerator {
	return &AnswerGenerator{
		llm:       llm,
		prompts:   prompts,
		maxTokens: maxTokens,
		cooldown:  cooldown,
		sleep:     sleepContext,
	}
}

// SetMetrics sets the recorder for generation failures.
func (g *AnswerGenerator) SetMetrics(m driven.MetricsRecorder) {
	g.metrics = m
}

// Generate makes exactly one LLM call and never panics.
func (g *AnswerGenerator) Generate(
	ctx context.Context, q Question, courseName, contextBlock string,
) (result GenerationResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Answer generation panicked: %v", r)
			result = GenerationResult{
				Kind: GenerationUnclassified,
				Err:  fmt.Errorf("generation panic: %v", r),
			}
		}
		if !result.OK() && g.metrics != nil {
			g.metrics.CountGenerationFailure(result.Kind.String())
		}
	}()

	if g.llm == nil {
		return GenerationResult{Kind: GenerationUnclassified, Err: domain.ErrLLMUnavailable}
	}

	system, err := g.systemPrompt(courseName, contextBlock)
	if err != nil {
		return GenerationResult{Kind: GenerationUnclassified, Err: err}
	}

	text, err := g.llm.Complete(ctx, driven.CompletionRequest{
		System:    system,
		User:      UserPrompt(q),
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		kind := classifyGeneration(err)
		logger.Warn("Answer generation failed (%s): %v", kind, err)
		if kind == GenerationRateLimited && g.cooldown > 0 {
			logger.Info("Rate limited, cooling down for %s", g.cooldown)
			if sleepErr := g.sleep(ctx, g.cooldown); sleepErr != nil {
				logger.Debug("Cooldown interrupted: %v", sleepErr)
			}
		}
		return GenerationResult{Kind: kind, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return GenerationResult{Kind: GenerationUnclassified, Err: errors.New("empty answer")}
	}
	return GenerationResult{Kind: GenerationAnswer, Text: text}
}

// systemPrompt renders the persona for the course and appends the context block.
func (g *AnswerGenerator) systemPrompt(courseName, contextBlock string) (string, error) {
	if g.prompts == nil {
		return "", fmt.Errorf("%w: no prompt store", domain.ErrInvalidConfig)
	}
	tmpl, err := g.prompts.Load(driven.PromptTutorSystem)
	if err != nil {
		return "", fmt.Errorf("load persona prompt: %w", err)
	}
	return SystemPrompt(tmpl, courseName, contextBlock), nil
}

// SystemPrompt fills the persona template with the course name and, when
// contextBlock is not empty, appends it as a delimited context section.
func SystemPrompt(tmpl, courseName, contextBlock string) string {
	system := tmpl
	if strings.Contains(tmpl, "%s") {
		system = fmt.Sprintf(tmpl, courseName)
	}
	if strings.TrimSpace(contextBlock) == "" {
		return system
	}
	return system + "\n\n[RELEVANT CONTEXT]\n" + contextBlock + "\n[/RELEVANT CONTEXT]\n\n" +
		"Use the above context if relevant to answering the question. " +
		"If the context doesn't help, use general knowledge."
}

// UserPrompt renders the question as the user message.
func UserPrompt(q Question) string {
	return fmt.Sprintf("Subject: %s\n\nQuestion: %s", q.Subject, q.Text)
}

func classifyGeneration(err error) GenerationKind {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return GenerationRateLimited
	case errors.Is(err, domain.ErrProviderUnreachable):
		return GenerationUnreachable
	case errors.Is(err, domain.ErrProviderRejected):
		return GenerationRejected
	default:
		return GenerationUnclassified
	}
}
