package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/astra"
)

// Table is the edge table written by PGStore.
const Table = "astra_edges"

var edgeColumns = []string{"source_file", "source_type", "source_id", "target_type", "target_id", "relationship"}

// Sink receives the edges of one translated input.
type Sink interface {
	WriteEdges(ctx context.Context, sourceFile string, edges []astra.Edge) error
	Close() error
}

// conn is the part of pgxpool.Pool the store uses.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PGStore loads edges into PostgreSQL.
type PGStore struct {
	db      conn
	closeFn func()
}

// NewPGStore connects to databaseURL and creates the edge table if needed.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 8
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{db: pool, closeFn: pool.Close}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS astra_edges (
		id BIGSERIAL PRIMARY KEY,
		source_file TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		relationship TEXT NOT NULL,
		loaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_astra_edges_source_file ON astra_edges(source_file);
	CREATE INDEX IF NOT EXISTS idx_astra_edges_relationship ON astra_edges(relationship);
	`
	_, err := s.db.Exec(ctx, schema)
	return err
}

// WriteEdges replaces the rows previously loaded from sourceFile. The
// delete and the copy share one transaction, so a failed copy leaves the
// old rows in place.
func (s *PGStore) WriteEdges(ctx context.Context, sourceFile string, edges []astra.Edge) error {
	rows := make([][]any, len(edges))
	for i, e := range edges {
		rows[i] = []any{sourceFile, string(e.SourceType), e.SourceID, string(e.TargetType), e.TargetID, string(e.Relation)}
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM astra_edges WHERE source_file = $1`, sourceFile); err != nil {
			return fmt.Errorf("failed to clear edges of %s: %w", sourceFile, err)
		}
		if len(rows) == 0 {
			return nil
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{Table}, edgeColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy edges of %s: %w", sourceFile, err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copied %d of %d edges of %s", n, len(rows), sourceFile)
		}
		return nil
	})
}

// Ping checks database connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the connection pool.
func (s *PGStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
