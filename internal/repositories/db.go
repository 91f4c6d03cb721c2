package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock's
// pool mock satisfies it too, so repository tests run against the
// same constructors as production code.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	// ErrDuplicateExtension is returned when an insert or update loses
	// the race against the partial unique index on (company_id, extension).
	ErrDuplicateExtension = errors.New("extension already in use")

	// ErrDuplicateAccount is returned when a second login account is
	// inserted for the same user.
	ErrDuplicateAccount = errors.New("account already exists for user")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
