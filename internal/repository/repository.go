package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by every repository when the requested row does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrStockConflict is returned when a conditional stock decrement matched no
// row, meaning available stock fell below the requested quantity after the
// optimistic checkout-time check.
var ErrStockConflict = errors.New("stock conflict")

// DB matches the *pgxpool.Pool methods the repositories use, so tests can
// substitute a fake.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// validUUID reports whether s can address a uuid-keyed row. Ids arrive from
// the wire as free text; anything that does not parse reads as not-found
// rather than failing parameter encoding mid-query.
func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
