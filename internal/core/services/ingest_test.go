package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/postprocessors/chunker"
)

type ingestFixture struct {
	dir     string
	loader  *mockLoader
	store   *mockVectorStore
	embed   *mockEmbeddingService
	forum   *mockForum
	sleeps  *noSleep
	service *IngestService
}

func newIngestFixture(t *testing.T, files ...string) *ingestFixture {
	t.Helper()

	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	proc, err := chunker.New(chunker.WithChunkSize(4), chunker.WithOverlap(1))
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	f := &ingestFixture{
		dir:    dir,
		loader: &mockLoader{texts: map[string]string{}, errs: map[string]error{}},
		store:  newMockVectorStore(),
		embed:  &mockEmbeddingService{dims: 3},
		forum:  newMockForum(),
		sleeps: &noSleep{},
	}
	registry := mockLoaderRegistry{"md": f.loader, "txt": f.loader, "pdf": f.loader}
	f.service = NewIngestService(NewEmbedderFrom(f.embed), f.store, registry, proc, f.forum, &settings)
	f.service.sleep = f.sleeps.sleep
	return f
}

func (f *ingestFixture) text(name, text string) {
	f.loader.texts[filepath.Join(f.dir, name)] = text
}

func (f *ingestFixture) materials() *mockVectorIndex {
	return f.store.indexes[domain.DefaultMaterialsCollection]
}

func TestIngestMaterials(t *testing.T) {
	f := newIngestFixture(t, "b.md", "a.txt", "c.pdf", "notes.doc")
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "nested.md"), 0o700))

	f.text("a.txt", "one two three")
	f.text("b.md", "w1 w2 w3 w4 w5 w6")
	f.loader.errs[filepath.Join(f.dir, "c.pdf")] = errors.New("encrypted pdf")

	stats, err := f.service.IngestMaterials(context.Background(), f.dir, []string{".MD", "txt", "pdf"})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 3, stats.Chunks)

	idx := f.materials()
	require.NotNil(t, idx)
	require.Len(t, idx.upserted, 3)

	// Files are processed in name order; chunk IDs come from the file stem.
	assert.Equal(t, "a_0", idx.upserted[0].ID)
	assert.Equal(t, "one two three", idx.upserted[0].Text)
	assert.Equal(t, "a.txt", idx.upserted[0].Metadata[domain.MetaSource])
	assert.Equal(t, "a.txt", idx.upserted[0].Metadata[domain.MetaFilename])
	assert.Equal(t, "b_0", idx.upserted[1].ID)
	assert.Equal(t, "w1 w2 w3 w4", idx.upserted[1].Text)
	assert.Equal(t, "b_1", idx.upserted[2].ID)
	assert.Equal(t, "w4 w5 w6", idx.upserted[2].Text)
	assert.Equal(t, 1, idx.upserted[2].Metadata[domain.MetaChunkIndex])

	for _, c := range idx.upserted {
		assert.Len(t, c.Embedding, 3)
	}
	assert.Equal(t, 3, f.store.dimension[domain.DefaultMaterialsCollection])
}

func TestIngestMaterials_ReingestOverwritesSameIDs(t *testing.T) {
	f := newIngestFixture(t, "a.txt")
	f.text("a.txt", "one two three four five")

	_, err := f.service.IngestMaterials(context.Background(), f.dir, []string{"txt"})
	require.NoError(t, err)
	first := append([]domain.Chunk(nil), f.materials().upserted...)

	f.materials().upserted = nil
	_, err = f.service.IngestMaterials(context.Background(), f.dir, []string{"txt"})
	require.NoError(t, err)

	require.Len(t, f.materials().upserted, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, f.materials().upserted[i].ID)
	}
}

func TestIngestMaterials_EmptyTextSkipped(t *testing.T) {
	f := newIngestFixture(t, "blank.md")
	f.text("blank.md", "   \n ")

	stats, err := f.service.IngestMaterials(context.Background(), f.dir, []string{"md"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Nil(t, f.materials(), "no collection is created without chunks")
}

func TestIngestMaterials_UnsupportedExtension(t *testing.T) {
	f := newIngestFixture(t, "slides.pptx")

	stats, err := f.service.IngestMaterials(context.Background(), f.dir, []string{"pptx"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
}

func TestIngestMaterials_Errors(t *testing.T) {
	t.Run("no extensions", func(t *testing.T) {
		f := newIngestFixture(t)
		_, err := f.service.IngestMaterials(context.Background(), f.dir, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing directory", func(t *testing.T) {
		f := newIngestFixture(t)
		_, err := f.service.IngestMaterials(context.Background(), filepath.Join(f.dir, "nope"), []string{"md"})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		f := newIngestFixture(t, "a.md")
		f.text("a.md", "text")
		f.store.dimension[domain.DefaultMaterialsCollection] = 768

		_, err := f.service.IngestMaterials(context.Background(), f.dir, []string{"md"})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("embedding unavailable", func(t *testing.T) {
		f := newIngestFixture(t, "a.md")
		f.text("a.md", "text")
		f.service.embedder = NewEmbedder(func(context.Context) (driven.EmbeddingService, error) {
			return nil, errors.New("ollama not running")
		})

		_, err := f.service.IngestMaterials(context.Background(), f.dir, []string{"md"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestIngestHistory(t *testing.T) {
	f := newIngestFixture(t)

	answered := question("p1", 10, "Big O", "<p>Is n log n fast?</p>")
	answered.Tags = []string{"hw1", "lectures"}
	answered.Children = []domain.PostChild{
		{Type: domain.ChildStudentAnswer, Content: "maybe"},
		{Type: domain.ChildInstructorAnswer, Content: "<b>Yes</b>"},
	}
	unanswered := question("p2", 11, "Open", "No replies yet")
	note := question("p3", 12, "Note", "Announcement")
	note.Type = domain.PostTypeNote
	note.Children = []domain.PostChild{{Type: domain.ChildInstructorAnswer, Content: "x"}}

	for _, p := range []*domain.Post{answered, unanswered, note} {
		f.forum.addPost(p)
	}
	f.forum.all = append(f.forum.all, domain.FeedItem{ID: "deleted", Number: 13})

	stats, err := f.service.IngestHistory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Files)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 1, stats.Chunks)
	assert.Len(t, f.sleeps.delays, 4, "one call delay per fetch")

	idx := f.store.indexes[domain.DefaultHistoryCollection]
	require.NotNil(t, idx)
	require.Len(t, idx.upserted, 1)

	c := idx.upserted[0]
	assert.Equal(t, "p1", c.ID)
	assert.Equal(t, "Q: Big O\nIs n log n fast?\n\nA: Yes", c.Text)
	assert.Equal(t, 10, c.Metadata[domain.MetaPostNumber])
	assert.Equal(t, "hw1,lectures", c.Metadata[domain.MetaTags])
}

func TestIngestHistory_FetchFailureContinues(t *testing.T) {
	f := newIngestFixture(t)
	ok := question("p1", 1, "s", "q")
	ok.Children = []domain.PostChild{{Type: domain.ChildStudentAnswer, Content: "a"}}
	f.forum.addPost(ok)
	f.forum.addPost(question("p2", 2, "s", "q"))
	f.forum.fetchErr["p2"] = errors.New("timeout")

	stats, err := f.service.IngestHistory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Chunks)
}

func TestIngestHistory_NothingAnswered(t *testing.T) {
	f := newIngestFixture(t)
	f.forum.addPost(question("p1", 1, "s", "q"))

	stats, err := f.service.IngestHistory(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
	assert.Nil(t, f.store.indexes[domain.DefaultHistoryCollection])
}

func TestIngestHistory_Cancelled(t *testing.T) {
	f := newIngestFixture(t)
	f.forum.addPost(question("p1", 1, "s", "q"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.IngestHistory(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestHistory_NoForum(t *testing.T) {
	f := newIngestFixture(t)
	f.service.forum = nil

	_, err := f.service.IngestHistory(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
