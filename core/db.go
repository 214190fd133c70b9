package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is the subset of *sqlx.DB / *sqlx.Tx the repositories need.
	// Repository methods take an optional DBExecutor override so a service
	// can compose several calls inside one transaction.
	DBExecutor interface {
		sqlx.ExtContext

		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}

	// Transactor runs fn inside a transaction; the transaction is rolled back
	// if fn returns an error and committed otherwise. Implementations that do
	// not support transactions (in-memory test stores) call fn with a nil
	// executor, which repositories treat as "use your own handle".
	Transactor interface {
		InTransaction(ctx context.Context, fn func(exec DBExecutor) error) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
