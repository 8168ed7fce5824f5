package blob

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by the Postgres object store.
// Narrow so pgxmock can stand in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements ObjectStore on a single objects table.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres connects a Postgres-backed object store and ensures its schema.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	s := &PostgresStore{pool: pool, closeFn: pool.Close}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS objects (
			key          TEXT PRIMARY KEY,
			data         BYTEA NOT NULL,
			content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) ReadObject(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM objects WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read %s", key)
	}
	return data, nil
}

func (s *PostgresStore) WriteObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO objects (key, data, content_type, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data,
			content_type = EXCLUDED.content_type, updated_at = now()`,
		key, data, contentType)
	return eris.Wrapf(err, "postgres: write %s", key)
}

func (s *PostgresStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM objects WHERE key LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "postgres: scan key")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate keys")
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *PostgresStore) ObjectExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM objects WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: exists %s", key)
	}
	return exists, nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
