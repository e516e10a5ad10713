package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Every text maps to a vector of its length, so results are deterministic.
type mockEmbeddingService struct {
	dims     int
	embedErr error
	calls    int
	closed   bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, m.Dimensions())
		v[0] = float32(len(t))
		result[i] = v
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 4
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
// Query returns the canned hits, or the upserted chunks at distance 0.
type mockVectorIndex struct {
	name     string
	hits     []domain.RetrievalResult
	queryErr error
	upserted []domain.Chunk
	queries  int
}

func (m *mockVectorIndex) Name() string {
	return m.name
}

func (m *mockVectorIndex) Upsert(_ context.Context, chunks []domain.Chunk) (int, error) {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return 0, errors.New("chunk without embedding")
		}
	}
	m.upserted = append(m.upserted, chunks...)
	return len(chunks), nil
}

func (m *mockVectorIndex) Query(_ context.Context, _ []float32, topK int) ([]domain.RetrievalResult, error) {
	m.queries++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	hits := append([]domain.RetrievalResult(nil), m.hits...)
	domain.SortResults(hits)
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int, error) {
	return len(m.upserted), nil
}

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	indexes   map[string]*mockVectorIndex
	openErr   error
	dimension map[string]int
}

func newMockVectorStore(indexes ...*mockVectorIndex) *mockVectorStore {
	s := &mockVectorStore{
		indexes:   make(map[string]*mockVectorIndex),
		dimension: make(map[string]int),
	}
	for _, idx := range indexes {
		s.indexes[idx.name] = idx
	}
	return s
}

func (m *mockVectorStore) Collection(_ context.Context, name string, dimension int) (driven.VectorIndex, error) {
	if d, ok := m.dimension[name]; ok && d != dimension {
		return nil, domain.ErrDimensionMismatch
	}
	m.dimension[name] = dimension
	idx, ok := m.indexes[name]
	if !ok {
		idx = &mockVectorIndex{name: name}
		m.indexes[name] = idx
	}
	return idx, nil
}

func (m *mockVectorStore) OpenCollection(_ context.Context, name string) (driven.VectorIndex, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	idx, ok := m.indexes[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return idx, nil
}

func (m *mockVectorStore) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	answer   string
	err      error
	panicMsg string
	requests []driven.CompletionRequest
}

func (m *mockLLMService) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompt string
	err    error
}

func (m *mockPromptStore) Load(_ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompt, nil
}

func (m *mockPromptStore) Reload() {}

// mockLedger implements driven.AnsweredStore in memory.
type mockLedger struct {
	records     map[string]domain.AnsweredRecord
	containsErr error
	markErr     error
	listErr     error
	lastLimit   int
}

func newMockLedger(ids ...string) *mockLedger {
	l := &mockLedger{records: make(map[string]domain.AnsweredRecord)}
	for _, id := range ids {
		l.records[id] = domain.AnsweredRecord{PostID: id, AnsweredAt: time.Now().UTC()}
	}
	return l
}

func (m *mockLedger) Contains(_ context.Context, postID string) (bool, error) {
	if m.containsErr != nil {
		return false, m.containsErr
	}
	_, ok := m.records[postID]
	return ok, nil
}

func (m *mockLedger) Mark(_ context.Context, postID string, postNumber int) error {
	if m.markErr != nil {
		return m.markErr
	}
	if _, ok := m.records[postID]; ok {
		return nil
	}
	m.records[postID] = domain.AnsweredRecord{
		PostID:     postID,
		PostNumber: postNumber,
		AnsweredAt: time.Now().UTC(),
	}
	return nil
}

func (m *mockLedger) List(_ context.Context, limit int) ([]domain.AnsweredRecord, error) {
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.AnsweredRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostID > out[j].PostID })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockLedger) Count(_ context.Context) (int, error) {
	return len(m.records), nil
}

// mockForum implements driven.ForumClient for testing.
type mockForum struct {
	mu sync.Mutex

	unread    []domain.FeedItem
	all       []domain.FeedItem
	posts     map[string]*domain.Post
	listErrs  []error
	fetchErr  map[string]error
	answerErr error
	followErr error
	loginErr  error

	logins    int
	fetched   []string
	answers   map[string]string
	followups map[string]string
}

func newMockForum() *mockForum {
	return &mockForum{
		posts:     make(map[string]*domain.Post),
		fetchErr:  make(map[string]error),
		answers:   make(map[string]string),
		followups: make(map[string]string),
	}
}

func (m *mockForum) addPost(p *domain.Post) {
	m.posts[p.ID] = p
	m.unread = append(m.unread, domain.FeedItem{ID: p.ID, Number: p.Number})
	m.all = append(m.all, domain.FeedItem{ID: p.ID, Number: p.Number})
}

func (m *mockForum) Login(_ context.Context) error {
	m.logins++
	return m.loginErr
}

func (m *mockForum) ListUnread(_ context.Context) ([]domain.FeedItem, error) {
	if len(m.listErrs) > 0 {
		err := m.listErrs[0]
		m.listErrs = m.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.unread, nil
}

func (m *mockForum) ListAll(_ context.Context) ([]domain.FeedItem, error) {
	return m.all, nil
}

func (m *mockForum) FetchPost(_ context.Context, postID string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, postID)
	if err := m.fetchErr[postID]; err != nil {
		return nil, err
	}
	p, ok := m.posts[postID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockForum) PostInstructorAnswer(_ context.Context, postID, text string) error {
	if m.answerErr != nil {
		return m.answerErr
	}
	m.answers[postID] = text
	return nil
}

func (m *mockForum) PostFollowup(_ context.Context, postID, text string) error {
	if m.followErr != nil {
		return m.followErr
	}
	m.followups[postID] = text
	return nil
}

// mockRetriever implements ContextRetriever for testing.
type mockRetriever struct {
	block     string
	err       error
	questions []string
}

func (m *mockRetriever) Retrieve(_ context.Context, question string, _ int) (string, error) {
	m.questions = append(m.questions, question)
	return m.block, m.err
}

// mockMetrics implements driven.MetricsRecorder for testing.
type mockMetrics struct {
	mu         sync.Mutex
	cycles     int
	outcomes   map[string]int
	failures   map[string]int
	retrievals int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{outcomes: make(map[string]int), failures: make(map[string]int)}
}

func (m *mockMetrics) ObserveCycle(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
}

func (m *mockMetrics) CountPost(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *mockMetrics) CountGenerationFailure(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind]++
}

func (m *mockMetrics) ObserveRetrieval(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievals++
}

// mockLoader implements driven.MaterialLoader for testing.
type mockLoader struct {
	exts  []string
	texts map[string]string
	errs  map[string]error
}

func (m *mockLoader) Extensions() []string {
	return m.exts
}

func (m *mockLoader) Load(_ context.Context, path string) (string, error) {
	if err := m.errs[path]; err != nil {
		return "", err
	}
	return m.texts[path], nil
}

// mockLoaderRegistry implements driven.LoaderRegistry for testing.
type mockLoaderRegistry map[string]driven.MaterialLoader

func (m mockLoaderRegistry) ForExtension(ext string) (driven.MaterialLoader, bool) {
	l, ok := m[normaliseExt(ext)]
	return l, ok
}

// --- Fixtures ---

func question(id string, nr int, subject, content string) *domain.Post {
	return &domain.Post{
		ID:      id,
		Number:  nr,
		Type:    domain.PostTypeQuestion,
		History: []domain.PostVersion{{Subject: subject, Content: content}},
	}
}

// noSleep replaces sleepContext and records requested delays.
type noSleep struct {
	delays []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.delays = append(n.delays, d)
	return ctx.Err()
}
