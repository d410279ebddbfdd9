// Package redis provides a vector index on Redis Stack using RediSearch
// HNSW vector fields.
//
// Each collection is a RediSearch index over hashes sharing a key prefix.
// Collection dimensions are recorded in a registry hash so they can be
// checked without parsing FT.INFO.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const (
	// KeyPrefix namespaces every key written by the index.
	KeyPrefix = "ragchat:"

	// RegistryKey is the hash mapping collection names to dimensions.
	RegistryKey = KeyPrefix + "collections"

	// DefaultBatchSize bounds commands per pipeline.
	DefaultBatchSize = 500

	defaultEFConstruction = 200
	defaultM              = 16

	fieldVector = "vector"
	fieldScore  = "score"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Index is a RediSearch-backed driven.VectorIndex.
type Index struct {
	client    *goredis.Client
	batchSize int
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}

	// RESP2 keeps FT.SEARCH replies as flat arrays.
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: connecting to redis at %s: %v", domain.ErrVectorIndex, cfg.Addr, err)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client, which is closed on Close.
func NewWithClient(client *goredis.Client) *Index {
	return &Index{client: client, batchSize: DefaultBatchSize}
}

// EnsureCollection creates the search index if absent.
func (i *Index) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if name == "" || dimension <= 0 {
		return fmt.Errorf("%w: collection %q dimension %d", domain.ErrInvalidInput, name, dimension)
	}

	existing, err := i.dimension(ctx, name)
	switch {
	case err == nil:
		if existing != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, embeddings have %d",
				domain.ErrDimensionMismatch, name, existing, dimension)
		}
		return nil
	case !errors.Is(err, domain.ErrCollectionNotFound):
		return err
	}

	err = i.client.Do(ctx, createIndexArgs(name, dimension)...).Err()
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "index already exists") {
		return fmt.Errorf("%w: creating index for %q: %v", domain.ErrVectorIndex, name, err)
	}
	if err := i.client.HSet(ctx, RegistryKey, name, dimension).Err(); err != nil {
		return fmt.Errorf("%w: registering %q: %v", domain.ErrVectorIndex, name, err)
	}
	return nil
}

// Upsert writes each point as a hash, one pipeline per batchSize points.
func (i *Index) Upsert(ctx context.Context, name string, points []domain.IndexedPoint) error {
	if len(points) == 0 {
		return nil
	}
	dim, err := i.dimension(ctx, name)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != dim {
			return fmt.Errorf("%w: point %s has dimension %d, collection %q has %d",
				domain.ErrDimensionMismatch, p.ID, len(p.Vector), name, dim)
		}
	}

	prefix := docPrefix(name)
	for start := 0; start < len(points); start += i.batchSize {
		end := min(start+i.batchSize, len(points))
		pipe := i.client.Pipeline()
		for _, p := range points[start:end] {
			pipe.HSet(ctx, prefix+p.ID,
				domain.PayloadText, p.Payload.Text,
				domain.PayloadSource, p.Payload.Source,
				domain.PayloadChunkIndex, p.Payload.Index,
				domain.PayloadEmbeddingModel, p.Payload.EmbeddingModel,
				fieldVector, EncodeVector(p.Vector),
			)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("%w: upserting into %q: %v", domain.ErrVectorIndex, name, err)
		}
	}
	return nil
}

// Query runs a KNN search and converts cosine distance to similarity.
func (i *Index) Query(
	ctx context.Context, name string, vector []float32, topK int, filter domain.QueryFilter,
) (domain.RetrievalResult, error) {
	dim, err := i.dimension(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query has dimension %d, collection %q has %d",
			domain.ErrDimensionMismatch, len(vector), name, dim)
	}
	if topK <= 0 {
		return domain.RetrievalResult{}, nil
	}

	reply, err := i.client.Do(ctx, searchArgs(name, vector, topK, filter)...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: searching %q: %v", domain.ErrVectorIndex, name, err)
	}
	result, err := parseSearchReply(reply, docPrefix(name))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing search reply: %v", domain.ErrVectorIndex, err)
	}
	return result, nil
}

// Collections lists registered collection names.
func (i *Index) Collections(ctx context.Context) ([]string, error) {
	names, err := i.client.HKeys(ctx, RegistryKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: listing collections: %v", domain.ErrVectorIndex, err)
	}
	sort.Strings(names)
	return names, nil
}

// Info reports the dimension and document count of a collection.
func (i *Index) Info(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	dim, err := i.dimension(ctx, name)
	if err != nil {
		return nil, err
	}

	reply, err := i.client.Do(ctx, "FT.INFO", indexName(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: reading info for %q: %v", domain.ErrVectorIndex, name, err)
	}

	return &domain.CollectionInfo{Name: name, Dimension: dim, Points: parseNumDocs(reply)}, nil
}

// DeleteCollection drops the index with its documents and the registry entry.
func (i *Index) DeleteCollection(ctx context.Context, name string) error {
	err := i.client.Do(ctx, "FT.DROPINDEX", indexName(name), "DD").Err()
	if err != nil && !isUnknownIndex(err) {
		return fmt.Errorf("%w: dropping %q: %v", domain.ErrVectorIndex, name, err)
	}
	if err := i.client.HDel(ctx, RegistryKey, name).Err(); err != nil {
		return fmt.Errorf("%w: unregistering %q: %v", domain.ErrVectorIndex, name, err)
	}
	return nil
}

// Close closes the Redis client.
func (i *Index) Close() error {
	return i.client.Close()
}

func (i *Index) dimension(ctx context.Context, name string) (int, error) {
	dim, err := i.client.HGet(ctx, RegistryKey, name).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading collection %q: %v", domain.ErrVectorIndex, name, err)
	}
	return dim, nil
}

func indexName(collection string) string {
	return KeyPrefix + "idx:" + collection
}

func docPrefix(collection string) string {
	return KeyPrefix + "doc:" + collection + ":"
}

func isUnknownIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}

func createIndexArgs(collection string, dimension int) []any {
	return []any{
		"FT.CREATE", indexName(collection),
		"ON", "HASH",
		"PREFIX", "1", docPrefix(collection),
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dimension),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(defaultEFConstruction),
		"M", strconv.Itoa(defaultM),
		domain.PayloadText, "TEXT",
		domain.PayloadSource, "TAG",
		domain.PayloadEmbeddingModel, "TAG",
		domain.PayloadChunkIndex, "NUMERIC",
	}
}

func searchArgs(collection string, vector []float32, topK int, filter domain.QueryFilter) []any {
	query := fmt.Sprintf("%s=>[KNN %d @%s $vec AS %s]", filterExpr(filter), topK, fieldVector, fieldScore)
	return []any{
		"FT.SEARCH", indexName(collection), query,
		"PARAMS", "2", "vec", EncodeVector(vector),
		"SORTBY", fieldScore, "ASC",
		"RETURN", "5",
		domain.PayloadText, domain.PayloadSource, domain.PayloadChunkIndex, domain.PayloadEmbeddingModel, fieldScore,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}
}

// filterExpr builds the pre-filter for the KNN clause.
func filterExpr(filter domain.QueryFilter) string {
	var parts []string
	if filter.EmbeddingModel != "" {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", domain.PayloadEmbeddingModel, EscapeTag(filter.EmbeddingModel)))
	}
	if filter.Source != "" {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", domain.PayloadSource, EscapeTag(filter.Source)))
	}
	if len(parts) == 0 {
		return "*"
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// EscapeTag backslash-escapes every rune that RediSearch treats as tag
// punctuation, leaving letters, digits and underscores as they are.
func EscapeTag(s string) string {
	var b strings.Builder
	for _, r := range s {
		isWord := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127
		if !isWord {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
