// Package postgres implements the storage gateway (S) against
// PostgreSQL using pgx/v5, raw SQL throughout (no ORM), following the
// teacher repository's adapter style.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repository
// methods can run either standalone or inside a caller-supplied
// transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a pgxpool.Pool and provides the request/job-scoped unit of
// work described in §4.S: all mutations in one WithTx call commit or
// roll back together.
type DB struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *DB {
	return &DB{Pool: pool}
}

// txKey is unexported; WithTx stores the active transaction in the
// context so nested repository calls reuse it instead of opening a
// second one.
type txKey struct{}

// WithTx runs fn inside a transaction, committing on a nil return and
// rolling back otherwise. Nested calls to WithTx (fn itself calling
// WithTx again with the same ctx) reuse the outer transaction.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// q resolves the querier to use for this call: the ambient transaction
// if WithTx is active on ctx, else the pool directly.
func (d *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return d.Pool
}

// isUniqueViolation reports whether err is a Postgres unique
// constraint violation (SQLSTATE 23505), used by get-or-create flows
// that retry with a read per §7's integrity-violation policy.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isUndefinedTable reports whether err is Postgres "undefined table"
// (SQLSTATE 42P01), raised when an article insert targets a monthly
// partition that does not exist yet.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}
