// Package dialect provides the database abstraction the generated
// storage layer runs on.
//
// It defines the interfaces used for database-specific operations,
// allowing one generated model to target multiple backends.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
// The Driver interface is the entry point for database operations:
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface extends ExecQuerier with Commit and Rollback, and
// ExecQuerier carries the two standard operations every connection and
// transaction shares:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/mosaicorm/mosaic/dialect"
//	    "github.com/mosaicorm/mosaic/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// Generated models expose Open and Create helpers wrapping this
// package, so most applications never touch it directly.
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver implementation
//   - dialect/sql/schema: schema descriptors and table creation
package dialect
