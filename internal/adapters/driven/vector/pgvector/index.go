// Package pgvector provides a Postgres vector index using the pgvector extension.
//
// Each collection is stored in its own table with a fixed-size vector column.
// A registry table records every collection with its dimension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const (
	// TablePrefix is prepended to sanitised collection names.
	TablePrefix = "ragchat_"

	// DefaultBatchSize bounds rows queued per pgx batch.
	DefaultBatchSize = 500

	registryTable = "ragchat_collections"
)

const setupSQL = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS ragchat_collections (
    name       TEXT PRIMARY KEY,
    table_name TEXT NOT NULL UNIQUE,
    dimension  INT  NOT NULL CHECK (dimension > 0)
);
`

// Index is a pgvector-backed driven.VectorIndex.
type Index struct {
	pool      *pgxpool.Pool
	owned     bool
	batchSize int
}

// New connects to dsn and prepares the extension and registry table.
func New(ctx context.Context, dsn string) (*Index, error) {
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndex, err)
	}
	idx, err := NewWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	idx.owned = true
	return idx, nil
}

// NewWithPool uses an existing pool, which stays open on Close.
func NewWithPool(ctx context.Context, pool *pgxpool.Pool) (*Index, error) {
	if _, err := pool.Exec(ctx, setupSQL); err != nil {
		return nil, fmt.Errorf("%w: preparing pgvector: %v", domain.ErrVectorIndex, err)
	}
	return &Index{pool: pool, batchSize: DefaultBatchSize}, nil
}

// EnsureCollection creates the collection table if absent.
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

	table := TableName(name)
	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrVectorIndex, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, stmt := range createTableSQL(table, dimension) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: creating collection %q: %v", domain.ErrVectorIndex, name, err)
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO `+registryTable+` (name, table_name, dimension) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		name, table, dimension,
	); err != nil {
		return fmt.Errorf("%w: registering collection %q: %v", domain.ErrVectorIndex, name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing collection %q: %v", domain.ErrVectorIndex, name, err)
	}
	return nil
}

// Upsert inserts or replaces points by ID, one pgx batch per batchSize points.
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

	stmt := upsertSQL(TableName(name))
	for start := 0; start < len(points); start += i.batchSize {
		end := min(start+i.batchSize, len(points))
		if err := i.sendBatch(ctx, stmt, points[start:end]); err != nil {
			return fmt.Errorf("%w: upserting into %q: %v", domain.ErrVectorIndex, name, err)
		}
	}
	return nil
}

func (i *Index) sendBatch(ctx context.Context, stmt string, points []domain.IndexedPoint) error {
	batch := &pgx.Batch{}
	for _, p := range points {
		vec := pgvector.NewVector(p.Vector)
		batch.Queue(stmt,
			p.ID, p.Payload.Source, p.Payload.Index, p.Payload.Text, p.Payload.EmbeddingModel, &vec,
		)
	}

	br := i.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range points {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Query returns the topK nearest points by cosine similarity.
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

	vec := pgvector.NewVector(vector)
	sql, args := querySQL(TableName(name), &vec, topK, filter)
	rows, err := i.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %q: %v", domain.ErrVectorIndex, name, err)
	}
	defer rows.Close()

	result := domain.RetrievalResult{}
	for rows.Next() {
		var hit domain.ScoredChunk
		if err := rows.Scan(
			&hit.Chunk.ID, &hit.Chunk.Source, &hit.Chunk.Index, &hit.Chunk.Text,
			&hit.Chunk.EmbeddingModel, &hit.Score,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning hit: %v", domain.ErrVectorIndex, err)
		}
		result = append(result, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating hits: %v", domain.ErrVectorIndex, err)
	}
	return result, nil
}

// Collections lists registered collection names.
func (i *Index) Collections(ctx context.Context) ([]string, error) {
	rows, err := i.pool.Query(ctx, `SELECT name FROM `+registryTable+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing collections: %v", domain.ErrVectorIndex, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: listing collections: %v", domain.ErrVectorIndex, err)
	}
	return names, nil
}

// Info returns the dimension and row count of a collection.
func (i *Index) Info(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	dim, err := i.dimension(ctx, name)
	if err != nil {
		return nil, err
	}

	var count int64
	table := pgx.Identifier{TableName(name)}.Sanitize()
	if err := i.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
		return nil, fmt.Errorf("%w: counting %q: %v", domain.ErrVectorIndex, name, err)
	}

	return &domain.CollectionInfo{Name: name, Dimension: dim, Points: count}, nil
}

// DeleteCollection drops the collection table and its registry entry.
func (i *Index) DeleteCollection(ctx context.Context, name string) error {
	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrVectorIndex, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	table := pgx.Identifier{TableName(name)}.Sanitize()
	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return fmt.Errorf("%w: dropping %q: %v", domain.ErrVectorIndex, name, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM `+registryTable+` WHERE name = $1`, name); err != nil {
		return fmt.Errorf("%w: unregistering %q: %v", domain.ErrVectorIndex, name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing delete of %q: %v", domain.ErrVectorIndex, name, err)
	}
	return nil
}

// Close releases the pool when the index opened it.
func (i *Index) Close() error {
	if i.owned {
		i.pool.Close()
	}
	return nil
}

func (i *Index) dimension(ctx context.Context, name string) (int, error) {
	var dim int
	err := i.pool.QueryRow(ctx,
		`SELECT dimension FROM `+registryTable+` WHERE name = $1`, name,
	).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading collection %q: %v", domain.ErrVectorIndex, name, err)
	}
	return dim, nil
}

// TableName maps a collection name to its table name. Characters outside
// [a-z0-9_] become underscores and the result is lower case.
func TableName(collection string) string {
	var b strings.Builder
	b.WriteString(TablePrefix)
	for _, r := range strings.ToLower(collection) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func createTableSQL(table string, dimension int) []string {
	ident := pgx.Identifier{table}.Sanitize()
	index := pgx.Identifier{table + "_embedding_idx"}.Sanitize()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id              TEXT PRIMARY KEY,
    source          TEXT NOT NULL,
    chunk_idx       INT  NOT NULL,
    content         TEXT NOT NULL,
    embedding_model TEXT NOT NULL,
    embedding       vector(%d) NOT NULL
)`, ident, dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, index, ident),
	}
}

func upsertSQL(table string) string {
	return `INSERT INTO ` + pgx.Identifier{table}.Sanitize() +
		` (id, source, chunk_idx, content, embedding_model, embedding)
 VALUES ($1, $2, $3, $4, $5, $6)
 ON CONFLICT (id) DO UPDATE SET
     source = EXCLUDED.source,
     chunk_idx = EXCLUDED.chunk_idx,
     content = EXCLUDED.content,
     embedding_model = EXCLUDED.embedding_model,
     embedding = EXCLUDED.embedding`
}

// querySQL builds the nearest neighbour query. The vector is always $1 and
// the limit is always the last argument.
func querySQL(table string, vec *pgvector.Vector, topK int, filter domain.QueryFilter) (string, []any) {
	args := []any{vec}
	var where []string
	if filter.EmbeddingModel != "" {
		args = append(args, filter.EmbeddingModel)
		where = append(where, fmt.Sprintf("embedding_model = $%d", len(args)))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		where = append(where, fmt.Sprintf("source = $%d", len(args)))
	}
	args = append(args, topK)

	var b strings.Builder
	b.WriteString(`SELECT id, source, chunk_idx, content, embedding_model, 1 - (embedding <=> $1) AS score FROM `)
	b.WriteString(pgx.Identifier{table}.Sanitize())
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY embedding <=> $1 LIMIT $%d", len(args))
	return b.String(), args
}
