// Package weaviate provides a driven.VectorStore backed by a Weaviate server.
//
// Each collection maps to a Weaviate class with no vectoriser; vectors are
// supplied by the embedder. Chunk IDs are mapped onto deterministic UUIDs so
// re-ingestion overwrites instead of duplicating.
package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

// batchSize is the number of objects sent per batch request.
const batchSize = 200

// Property names on every class.
const (
	propText     = "text"
	propChunkID  = "chunkId"
	propMetadata = "metadata"
)

// descriptionPrefix marks classes created by this store and records their dimension.
const descriptionPrefix = "tutorbot collection dim="

// idNamespace seeds the UUIDv5 object IDs.
var idNamespace = uuid.MustParse("6f1c2a8e-3b5d-4c7f-9a0e-1d2b3c4d5e6f")

// Config holds connection settings.
type Config struct {
	Host   string
	Scheme string
	APIKey string
}

// Store implements driven.VectorStore.
type Store struct {
	client *weaviate.Client
}

var _ driven.VectorStore = (*Store)(nil)

// NewStore creates a client for the given Weaviate server.
func NewStore(cfg Config) (*Store, error) {
	scheme := cfg.Scheme
	host := cfg.Host
	if strings.HasPrefix(host, "https://") {
		scheme = "https"
	}
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	if scheme == "" {
		scheme = "http"
	}
	if host == "" {
		return nil, fmt.Errorf("%w: weaviate host is required", domain.ErrInvalidConfig)
	}

	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: creating weaviate client: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return &Store{client: client}, nil
}

// Collection returns the named collection, creating its class if absent.
func (s *Store) Collection(ctx context.Context, name string, dimension int) (driven.VectorIndex, error) {
	if name == "" || dimension <= 0 {
		return nil, fmt.Errorf("%w: collection %q with dimension %d", domain.ErrInvalidInput, name, dimension)
	}
	class, err := className(name)
	if err != nil {
		return nil, err
	}

	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: checking class %s: %w", domain.ErrVectorIndexUnavailable, class, err)
	}
	if !exists {
		err := s.client.Schema().ClassCreator().WithClass(classDefinition(class, dimension)).Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: creating class %s: %w", domain.ErrVectorIndexUnavailable, class, err)
		}
		return &collection{client: s.client, name: name, class: class, dimension: dimension}, nil
	}

	c, err := s.open(ctx, name, class)
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
func (s *Store) OpenCollection(ctx context.Context, name string) (driven.VectorIndex, error) {
	class, err := className(name)
	if err != nil {
		return nil, err
	}
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: checking class %s: %w", domain.ErrVectorIndexUnavailable, class, err)
	}
	if !exists {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	return s.open(ctx, name, class)
}

func (s *Store) open(ctx context.Context, name, class string) (*collection, error) {
	def, err := s.client.Schema().ClassGetter().WithClassName(class).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading class %s: %w", domain.ErrVectorIndexUnavailable, class, err)
	}
	dimension, ok := parseDimension(def.Description)
	if !ok {
		return nil, fmt.Errorf("%w: class %s was not created by tutorbot", domain.ErrUnsupportedType, class)
	}
	return &collection{client: s.client, name: name, class: class, dimension: dimension}, nil
}

// Close releases resources. The weaviate client holds no open connections.
func (s *Store) Close() error {
	return nil
}

// collection implements driven.VectorIndex for one Weaviate class.
type collection struct {
	client    *weaviate.Client
	name      string
	class     string
	dimension int
}

// Name returns the collection name.
func (c *collection) Name() string {
	return c.name
}

// Upsert writes chunks in batches. Objects with an existing ID are replaced.
func (c *collection) Upsert(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	objects := make([]*models.Object, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) != c.dimension {
			return 0, fmt.Errorf("%w: chunk %s has %d dimensions, collection %s expects %d",
				domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), c.name, c.dimension)
		}
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return 0, fmt.Errorf("encoding metadata for %s: %w", chunk.ID, err)
		}
		objects = append(objects, &models.Object{
			Class: c.class,
			ID:    objectID(c.name, chunk.ID),
			Properties: map[string]interface{}{
				propText:     chunk.Text,
				propChunkID:  chunk.ID,
				propMetadata: string(meta),
			},
			Vector: chunk.Embedding,
		})
	}

	written := 0
	for start := 0; start < len(objects); start += batchSize {
		end := start + batchSize
		if end > len(objects) {
			end = len(objects)
		}

		resp, err := c.client.Batch().ObjectsBatcher().WithObjects(objects[start:end]...).Do(ctx)
		if err != nil {
			return written, fmt.Errorf("%w: batch %d-%d: %w", domain.ErrVectorIndexUnavailable, start, end, err)
		}
		for _, r := range resp {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return written, fmt.Errorf("%w: object %s: %s",
					domain.ErrVectorIndexUnavailable, r.ID, r.Result.Errors.Error[0].Message)
			}
		}
		written += end - start
	}

	return written, nil
}

// Query runs a nearVector search.
func (c *collection) Query(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		return []domain.RetrievalResult{}, nil
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			domain.ErrDimensionMismatch, len(vector), c.name, c.dimension)
	}

	nearVector := c.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	resp, err := c.client.GraphQL().Get().
		WithClassName(c.class).
		WithFields(
			graphql.Field{Name: propText},
			graphql.Field{Name: propChunkID},
			graphql.Field{Name: propMetadata},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
		).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %w", domain.ErrVectorIndexUnavailable, c.name, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: querying %s: %s", domain.ErrVectorIndexUnavailable, c.name, resp.Errors[0].Message)
	}

	results := parseGetResults(resp.Data, c.class)
	domain.SortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of objects in the class.
func (c *collection) Count(ctx context.Context) (int, error) {
	resp, err := c.client.GraphQL().Aggregate().
		WithClassName(c.class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: counting %s: %w", domain.ErrVectorIndexUnavailable, c.name, err)
	}
	if len(resp.Errors) > 0 {
		return 0, fmt.Errorf("%w: counting %s: %s", domain.ErrVectorIndexUnavailable, c.name, resp.Errors[0].Message)
	}
	return parseCount(resp.Data, c.class), nil
}

// className converts a collection name such as "course_materials" into a
// valid Weaviate class name ("CourseMaterials").
func className(name string) (string, error) {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	class := b.String()
	if class == "" || !unicode.IsLetter([]rune(class)[0]) {
		return "", fmt.Errorf("%w: collection name %q cannot be used as a weaviate class", domain.ErrInvalidInput, name)
	}
	return class, nil
}

func classDefinition(class string, dimension int) *models.Class {
	return &models.Class{
		Class:       class,
		Description: fmt.Sprintf("%s%d", descriptionPrefix, dimension),
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: propText, DataType: []string{"text"}},
			{Name: propChunkID, DataType: []string{"text"}},
			{Name: propMetadata, DataType: []string{"text"}},
		},
		VectorIndexType:   "hnsw",
		VectorIndexConfig: map[string]interface{}{"distance": "cosine"},
	}
}

func parseDimension(description string) (int, bool) {
	if !strings.HasPrefix(description, descriptionPrefix) {
		return 0, false
	}
	var dim int
	if _, err := fmt.Sscanf(strings.TrimPrefix(description, descriptionPrefix), "%d", &dim); err != nil || dim <= 0 {
		return 0, false
	}
	return dim, true
}

// objectID derives a stable object UUID from the collection and chunk ID.
func objectID(collection, chunkID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(idNamespace, []byte(collection+"/"+chunkID)).String())
}

// parseGetResults extracts results from a GraphQL Get response.
func parseGetResults(data map[string]models.JSONObject, class string) []domain.RetrievalResult {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return []domain.RetrievalResult{}
	}
	items, ok := get[class].([]interface{})
	if !ok {
		return []domain.RetrievalResult{}
	}

	results := make([]domain.RetrievalResult, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		r := domain.RetrievalResult{Metadata: map[string]any{}}
		r.ID, _ = obj[propChunkID].(string)
		r.Text, _ = obj[propText].(string)
		if raw, ok := obj[propMetadata].(string); ok && raw != "" {
			var meta map[string]any
			if json.Unmarshal([]byte(raw), &meta) == nil && meta != nil {
				r.Metadata = meta
			}
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				r.Distance = d
			}
		}
		results = append(results, r)
	}
	return results
}

// parseCount extracts meta.count from a GraphQL Aggregate response.
func parseCount(data map[string]models.JSONObject, class string) int {
	agg, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	groups, ok := agg[class].([]interface{})
	if !ok || len(groups) == 0 {
		return 0
	}
	group, ok := groups[0].(map[string]interface{})
	if !ok {
		return 0
	}
	meta, ok := group["meta"].(map[string]interface{})
	if !ok {
		return 0
	}
	count, _ := meta["count"].(float64)
	return int(count)
}
