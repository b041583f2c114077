// Package repository provides database helpers shared by the domain stores:
// transactions, typed row scanning and paged listings.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/query"
)

// Querier is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Conn is implemented by *sql.DB and *sql.Tx.
type Conn interface {
	Querier
	Executor
}

// ScanFunc converts one row into T.
type ScanFunc[T any] func(Scanner) (T, error)

type txKey struct{}

// Atomic runs fn with a transaction bound to the context it receives.
// Repository calls made with that context join the transaction, so every
// write fn performs commits or rolls back together. Nested calls reuse the
// enclosing transaction.
func Atomic(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	_, err := WithTx(ctx, db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(context.WithValue(ctx, txKey{}, tx))
	})
	return err
}

// InTx reports whether ctx carries a transaction started by Atomic.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// Using returns the transaction bound to ctx, or db when there is none.
func Using(ctx context.Context, db *sql.DB) Conn {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// Transactor exposes Atomic for callers that should not hold the *sql.DB.
type Transactor struct {
	DB *sql.DB
}

func (t Transactor) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return Atomic(ctx, t.DB, fn)
}

// maxTxAttempts bounds how often WithTx reruns fn after a serialization
// failure or deadlock.
const maxTxAttempts = 3

// WithTx runs fn in a transaction and commits when it returns nil. When
// Postgres aborts the transaction with a serialization failure or deadlock,
// fn is run again in a fresh transaction, so fn must not have side effects
// outside tx. When ctx already carries a transaction from Atomic, fn runs in
// it and the outermost caller commits.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(tx)
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		result, err = runTx(ctx, db, fn)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return result, err
}

func runTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return result, nil
}

func QueryOne[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryMany returns every row of query. No rows yields an empty, non-nil slice.
func QueryMany[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// Page counts the rows matching qb and fetches the requested page. The
// request is expected to be normalized; an explicit sort overrides the
// builder's default.
func Page[T any](
	ctx context.Context,
	q Querier,
	qb *query.Builder,
	page pagination.PageRequest,
	scan ScanFunc[T],
) (*pagination.PageResult[T], error) {
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := q.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	var items []T
	if total > page.Offset() {
		pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
		list, err := QueryMany(ctx, q, pageSQL, pageArgs, scan)
		if err != nil {
			return nil, fmt.Errorf("page: %w", err)
		}
		items = list
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

// ExecExpectOne runs a statement that must touch exactly one row. Zero rows
// affected is reported as sql.ErrNoRows.
func ExecExpectOne(ctx context.Context, e Executor, query string, args ...any) error {
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func retryable(err error) bool {
	code := pgCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}
