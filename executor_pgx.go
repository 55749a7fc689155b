package waffles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolExecutor runs statements on a pgx connection pool.
type PoolExecutor struct {
	pool *pgxpool.Pool
}

// NewPoolExecutor wraps an existing pool. The caller keeps ownership of it.
func NewPoolExecutor(pool *pgxpool.Pool) *PoolExecutor {
	return &PoolExecutor{pool: pool}
}

// ConnectPool opens a pool for dsn and verifies it with a ping.
func ConnectPool(ctx context.Context, dsn string) (*PoolExecutor, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PoolExecutor{pool: pool}, nil
}

// Pool returns the underlying pool.
func (e *PoolExecutor) Pool() *pgxpool.Pool { return e.pool }

// Close closes the underlying pool.
func (e *PoolExecutor) Close() { e.pool.Close() }

// Execute sends sql in a single call. Without arguments pgx uses the simple
// query protocol, and PostgreSQL runs a multi-statement script as one
// implicit transaction: a failing CREATE INDEX also rolls back its table.
func (e *PoolExecutor) Execute(ctx context.Context, sql string) error {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return &ExecutorError{Op: "acquire connection", SQL: sql, Err: err}
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, sql); err != nil {
		return &ExecutorError{Op: "execute", SQL: sql, Err: err}
	}
	return nil
}

// FetchRow runs sql with params and returns its only record.
func (e *PoolExecutor) FetchRow(ctx context.Context, sql string, params ...any) (Record, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return Record{}, &ExecutorError{Op: "acquire connection", SQL: sql, Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, params...)
	if err != nil {
		return Record{}, &ExecutorError{Op: "fetch row", SQL: sql, Err: err}
	}
	rec, err := collectPgxRecord(rows)
	if err != nil {
		return Record{}, &ExecutorError{Op: "fetch row", SQL: sql, Err: err}
	}
	return rec, nil
}

// collectPgxRecord reads the first row of rows and closes them.
func collectPgxRecord(rows pgx.Rows) (Record, error) {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, ErrNoRows
	}

	values, err := rows.Values()
	if err != nil {
		return Record{}, err
	}
	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	rows.Close()
	if err := rows.Err(); err != nil {
		return Record{}, err
	}
	return Record{Columns: cols, Values: values}, nil
}
