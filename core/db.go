package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// DBExecutor runs queries; *sqlx.DB and *sqlx.Tx both qualify.
	DBExecutor interface {
		sqlx.ExtContext
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	}

	// DB can open transactions.
	DB interface {
		DBExecutor
		BeginTxx(context.Context, *sql.TxOptions) (*sqlx.Tx, error)
	}

	DBTransactor interface {
		DBExecutor
		Commit() error
		Rollback() error
	}
)

// RunInTx runs fn in a new transaction when exec can open one, and directly on exec otherwise
// (an executor that already is a transaction). The transaction is rolled back if fn fails.
func RunInTx(ctx context.Context, exec DBExecutor, fn func(DBExecutor) error) error {
	db, ok := exec.(DB)
	if !ok {
		return fn(exec)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	var txn DBTransactor = tx
	if err = fn(txn); err != nil {
		_ = txn.Rollback()
		return err
	}
	return errors.Wrap(txn.Commit(), "committing transaction")
}

// DBOrdering is one "field ASC|DESC" term of an ORDER BY clause.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field + " ASC"
	}
	return ord.Field + " DESC"
}
