package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-scenario-gen/internal/dataset"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrUnknownTable is returned for tables without a schema.
	ErrUnknownTable = errors.New("storage: unknown table")
)

const (
	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// TableSummary is the loaded state of one table.
type TableSummary struct {
	Table string
	Rows  int64
	First *time.Time
	Last  *time.Time
}

// TableStore loads and inspects scenario tables.
type TableStore interface {
	EnsureSchema(ctx context.Context) error
	ReplaceTable(ctx context.Context, table dataset.Table) (int64, error)
	Summaries(ctx context.Context) ([]TableSummary, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store persists scenario tables in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Closing the session releases the lock even if this fails.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

// EnsureSchema creates every scenario table that does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	for _, name := range TableNames {
		if _, err := pool.Exec(ctx, tableDDL[name]); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}

// ReplaceTable truncates the target and bulk loads every row with COPY in a
// single transaction, so readers see either the old or the new table.
func (s *Store) ReplaceTable(ctx context.Context, table dataset.Table) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	if _, ok := tableDDL[table.Name()]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table.Name())
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ident := pgx.Identifier{table.Name()}
	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+ident.Sanitize()); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", table.Name(), err)
	}

	source := pgx.CopyFromSlice(table.Len(), func(i int) ([]any, error) {
		return table.Values(i), nil
	})
	copied, err := tx.CopyFrom(ctx, ident, table.Columns(), source)
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", table.Name(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table.Name(), err)
	}
	return copied, nil
}

// Summaries reports row counts and date bounds of every scenario table.
func (s *Store) Summaries(ctx context.Context) ([]TableSummary, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	out := make([]TableSummary, 0, len(TableNames))
	for _, name := range TableNames {
		col := pgx.Identifier{dateColumn[name]}.Sanitize()
		query := fmt.Sprintf(`SELECT COUNT(*), MIN(%s), MAX(%s) FROM %s;`, col, col, pgx.Identifier{name}.Sanitize())

		summary := TableSummary{Table: name}
		if err := pool.QueryRow(ctx, query).Scan(&summary.Rows, &summary.First, &summary.Last); err != nil {
			return nil, fmt.Errorf("summarise %s: %w", name, err)
		}
		out = append(out, summary)
	}
	return out, nil
}

var (
	_ TableStore     = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
