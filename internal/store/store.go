package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/sairenchristianbuerano/ai-powered-search/pkg/models"
)

// ChunkIndex is the nearest-neighbor index the pipeline runs against. Both
// backends store (id, vector, payload) records; re-upserting an id replaces
// the prior record. Query returns up to k neighbors, best first, and an
// empty slice (not an error) when the index holds nothing.
type ChunkIndex interface {
	Upsert(ctx context.Context, c models.Chunk, vec []float32) error
	Query(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	Close()
}

// Store is the Postgres/pgvector-backed ChunkIndex.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store instance connected to the given database URL.
func New(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Migrate sets up the schema lazily; reopening an existing database reuses
// the existing structure.
func (s *Store) Migrate(ctx context.Context, dim int) error {
	q := `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS chunks (
  id          TEXT PRIMARY KEY,
  source_file TEXT NOT NULL,
  heading     TEXT NOT NULL,
  content     TEXT NOT NULL,
  embedding   vector(%d) NOT NULL,
  created_at  TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE INDEX IF NOT EXISTS chunks_source_file_idx
  ON chunks (source_file);

CREATE INDEX IF NOT EXISTS chunks_embedding_idx
  ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(q, dim))
	return err
}

// Upsert inserts or replaces the record for c.ID.
func (s *Store) Upsert(ctx context.Context, c models.Chunk, vec []float32) error {
	const q = `
		INSERT INTO chunks (id, source_file, heading, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			source_file = EXCLUDED.source_file,
			heading     = EXCLUDED.heading,
			content     = EXCLUDED.content,
			embedding   = EXCLUDED.embedding;`

	_, err := s.pool.Exec(ctx, q, c.ID, c.SourceFile, c.Heading, c.Text, pgvector.NewVector(vec))
	return err
}

// Query returns the k nearest chunks by cosine similarity, best first. The
// reported score is 1 - cosine_distance, the same scale the local index
// reports.
func (s *Store) Query(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
	const q = `
		SELECT id, source_file, heading, content,
		       1 - (embedding <=> $1) AS score
		FROM chunks
		ORDER BY embedding <=> $1
		LIMIT $2;`

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ScoredChunk{}
	for rows.Next() {
		var c models.Chunk
		var score float64
		if err := rows.Scan(&c.ID, &c.SourceFile, &c.Heading, &c.Text, &score); err != nil {
			return nil, err
		}
		out = append(out, models.ScoredChunk{Chunk: c, Score: score})
	}
	return out, rows.Err()
}

// Count returns the number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&n)
	return n, err
}

// Ping checks the database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
