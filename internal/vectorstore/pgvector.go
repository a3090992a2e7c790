package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/josinaldojr/book-rag/internal/rag"
	"github.com/pgvector/pgvector-go"
)

// PgStore keeps points in a Postgres table with a pgvector column. The
// collection name is the table name.
type PgStore struct {
	db    *pgxpool.Pool
	name  string
	table string
}

func NewPgStore(db *pgxpool.Pool, collection string) *PgStore {
	name := tableName(collection)
	return &PgStore{db: db, name: name, table: pgx.Identifier{name}.Sanitize()}
}

func (r *PgStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	if _, err := r.db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         uuid PRIMARY KEY,
			content    text NOT NULL,
			embedding  vector(%d) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)
	`, r.table, vectorSize))
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	_, err = r.db.Exec(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)
	`, pgx.Identifier{r.name + "_embedding_idx"}.Sanitize(), r.table))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *PgStore) Upsert(ctx context.Context, points []rag.Point) error {
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (id, content, embedding)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
		`, r.table), p.ID, p.Text, pgvector.NewVector(p.Vector))
	}

	return r.db.SendBatch(ctx, batch).Close()
}

// Search orders by cosine distance and reports similarity as the score.
func (r *PgStore) Search(ctx context.Context, vector []float32, limit int) ([]rag.Hit, error) {
	if limit <= 0 {
		limit = 4
	}

	vec := pgvector.NewVector(vector)

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT content, (1 - (embedding <=> $1))::real AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, r.table), vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []rag.Hit
	for rows.Next() {
		var h rag.Hit
		if err := rows.Scan(&h.Text, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

// tableName maps a collection name onto a lower-case SQL identifier.
func tableName(collection string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(collection) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "book_chunk"
	}
	return b.String()
}

var _ rag.VectorStore = (*PgStore)(nil)
