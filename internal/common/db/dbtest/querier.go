// Package dbtest provides a scripted db.Querier for repository tests.
package dbtest

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
)

// Querier answers each call with the matching func. Unset funcs fail the
// call so unexpected statements surface in the test.
type Querier struct {
	ExecFunc     func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var errUnexpected = errors.New("dbtest: unexpected statement")

func (q *Querier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if q.ExecFunc == nil {
		return nil, errUnexpected
	}
	return q.ExecFunc(ctx, sql, args...)
}

func (q *Querier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if q.QueryFunc == nil {
		return nil, errUnexpected
	}
	return q.QueryFunc(ctx, sql, args...)
}

func (q *Querier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	if q.QueryRowFunc == nil {
		return ErrRow{Err: errUnexpected}
	}
	return q.QueryRowFunc(ctx, sql, args...)
}

// ErrRow is a pgx.Row whose Scan returns Err.
type ErrRow struct {
	Err error
}

func (r ErrRow) Scan(...interface{}) error {
	return r.Err
}

// PgError builds the server error pgx returns for a failed statement.
func PgError(code, constraint string) error {
	return &pgconn.PgError{Severity: "ERROR", Code: code, ConstraintName: constraint}
}

// ExecError returns a Querier whose Exec fails with err.
func ExecError(err error) *Querier {
	return &Querier{
		ExecFunc: func(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
			return nil, err
		},
	}
}

// ExecResult returns a Querier whose Exec succeeds with tag, e.g. "DELETE 1".
func ExecResult(tag string) *Querier {
	return &Querier{
		ExecFunc: func(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
			return pgconn.CommandTag(tag), nil
		},
	}
}

// RowError returns a Querier whose QueryRow scans to err.
func RowError(err error) *Querier {
	return &Querier{
		QueryRowFunc: func(context.Context, string, ...interface{}) pgx.Row {
			return ErrRow{Err: err}
		},
	}
}
