package dialect

import (
	"context"

	"github.com/rs/zerolog"
)

// Dialect names the databases the storage layer can create schemas on.
const (
	// MySQL is the mysql dialect.
	MySQL = "mysql"
	// SQLite is the sqlite dialect.
	SQLite = "sqlite"
	// Postgres is the postgres dialect.
	Postgres = "postgres"
)

// ExecQuerier wraps the two standard database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example,
	// in SQL, INSERT or UPDATE. It scans the result into the pointer v
	// for database drivers that support it.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in
	// SQL. It scans the result into the pointer v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface every database driver of the storage layer
// implements.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transaction behavior on top of ExecQuerier.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit / Rollback.
func NopTx(d Driver) Tx {
	return nopTx{d}
}

// DebugDriver is a driver that logs all driver operations.
type DebugDriver struct {
	Driver
	logger zerolog.Logger
}

// Debug gets a driver and a logger, and returns a new debugged driver
// that prints every operation before running it.
func Debug(d Driver, logger zerolog.Logger) Driver {
	return &DebugDriver{d, logger}
}

// Exec logs its params and calls the underlying driver Exec method.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.Debug().Str("query", query).Interface("args", args).Msg("driver.Exec")
	return d.Driver.Exec(ctx, query, args, v)
}

// Query logs its params and calls the underlying driver Query method.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.logger.Debug().Str("query", query).Interface("args", args).Msg("driver.Query")
	return d.Driver.Query(ctx, query, args, v)
}

// Tx adds a log-id for the transaction and calls the underlying driver
// Tx command.
func (d *DebugDriver) Tx(ctx context.Context) (Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.logger.Debug().Msg("driver.Tx started")
	return &DebugTx{tx, d.logger}, nil
}

// DebugTx is a transaction implementation that logs all transaction
// operations.
type DebugTx struct {
	Tx
	logger zerolog.Logger
}

// Exec logs its params and calls the underlying transaction Exec method.
func (d *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.Debug().Str("query", query).Interface("args", args).Msg("tx.Exec")
	return d.Tx.Exec(ctx, query, args, v)
}

// Query logs its params and calls the underlying transaction Query method.
func (d *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	d.logger.Debug().Str("query", query).Interface("args", args).Msg("tx.Query")
	return d.Tx.Query(ctx, query, args, v)
}

// Commit logs this step and calls the underlying transaction Commit.
func (d *DebugTx) Commit() error {
	d.logger.Debug().Msg("tx.Commit")
	return d.Tx.Commit()
}

// Rollback logs this step and calls the underlying transaction Rollback.
func (d *DebugTx) Rollback() error {
	d.logger.Debug().Msg("tx.Rollback")
	return d.Tx.Rollback()
}
