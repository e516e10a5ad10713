package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

// metricCosine is the only metric collections are created with.
const metricCosine = "cosine"

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Collection returns the named collection, creating it if absent.
func (s *vectorStore) Collection(ctx context.Context, name string, dimension int) (driven.VectorIndex, error) {
	if name == "" || dimension <= 0 {
		return nil, fmt.Errorf("%w: collection %q with dimension %d", domain.ErrInvalidInput, name, dimension)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO collections (name, dimension, metric, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, dimension, metricCosine, formatTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}

	c, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	if c.dimension != dimension {
		return nil, fmt.Errorf("%w: collection %s has dimension %d, embedder produces %d",
			domain.ErrDimensionMismatch, name, c.dimension, dimension)
	}
	return c, nil
}

// OpenCollection returns an existing collection or domain.ErrNotFound.
func (s *vectorStore) OpenCollection(ctx context.Context, name string) (driven.VectorIndex, error) {
	return s.open(ctx, name)
}

func (s *vectorStore) open(ctx context.Context, name string) (*collection, error) {
	c := &collection{store: s.store, name: name}
	var metric string
	err := s.store.db.QueryRowContext(ctx,
		`SELECT dimension, metric FROM collections WHERE name = ?`, name,
	).Scan(&c.dimension, &metric)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection %s: %w", name, err)
	}
	if metric != metricCosine {
		return nil, fmt.Errorf("%w: collection %s uses metric %q", domain.ErrUnsupportedType, name, metric)
	}
	return c, nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}

// collection implements driven.VectorIndex over the vectors table.
type collection struct {
	store     *Store
	name      string
	dimension int
}

var _ driven.VectorIndex = (*collection)(nil)

// Name returns the collection name.
func (c *collection) Name() string {
	return c.name
}

// Upsert writes all chunks in one transaction, overwriting existing IDs.
func (c *collection) Upsert(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	for _, ch := range chunks {
		if ch.ID == "" {
			return 0, fmt.Errorf("%w: chunk without id", domain.ErrInvalidInput)
		}
		if len(ch.Embedding) != c.dimension {
			return 0, fmt.Errorf("%w: chunk %s has %d dimensions, collection %s expects %d",
				domain.ErrDimensionMismatch, ch.ID, len(ch.Embedding), c.name, c.dimension)
		}
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (collection, id, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chunks {
		metadata, err := json.Marshal(ch.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshalling metadata of %s: %w", ch.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.name, ch.ID, ch.Text, string(metadata),
			float32SliceToBytes(ch.Embedding)); err != nil {
			return 0, fmt.Errorf("upserting chunk %s: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert: %w", err)
	}
	return len(chunks), nil
}

// Query scores every vector in the collection and returns the topK closest.
func (c *collection) Query(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		return []domain.RetrievalResult{}, nil
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			domain.ErrDimensionMismatch, len(vector), c.name, c.dimension)
	}

	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id, text, metadata, embedding FROM vectors WHERE collection = ?`, c.name)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", c.name, err)
	}
	defer rows.Close()

	results := []domain.RetrievalResult{}
	for rows.Next() {
		var (
			r        domain.RetrievalResult
			metadata sql.NullString
			blob     []byte
		)
		if err := rows.Scan(&r.ID, &r.Text, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if metadata.Valid && metadata.String != "" && metadata.String != "null" {
			if err := json.Unmarshal([]byte(metadata.String), &r.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata of %s: %w", r.ID, err)
			}
		}
		r.Distance = cosineDistance(vector, bytesToFloat32Slice(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	domain.SortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of vectors in the collection.
func (c *collection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vectors WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting collection %s: %w", c.name, err)
	}
	return n, nil
}

// cosineDistance returns 1 - cos(a, b). Zero vectors are treated as
// orthogonal to everything.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
