// Package sql implements the dialect.Driver interface on top of the
// standard database/sql package.
//
// The driver carries no query-building logic of its own; generated
// models and the schema creation layer hand it finished statements.
//
// # Opening a Driver
//
//	import (
//	    "github.com/mosaicorm/mosaic/dialect"
//	    "github.com/mosaicorm/mosaic/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?cache=shared")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// An existing *sql.DB can be wrapped instead:
//
//	drv := sql.OpenDB(dialect.Postgres, db)
//
// # Executing Statements
//
// Exec and Query follow the dialect.ExecQuerier contract: args is an
// []any of bind parameters, and v receives the result (*sql.Result for
// Exec, *sql.Rows for Query, or nil to discard):
//
//	var rows sql.Rows
//	err := drv.Query(ctx, "SELECT name FROM users WHERE id = $1", []any{1}, &rows)
//
// Transactions come from Driver.Tx and satisfy dialect.Tx.
package sql
