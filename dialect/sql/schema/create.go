package schema

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mosaicorm/mosaic/dialect"
	"github.com/mosaicorm/mosaic/dialect/sql"
)

// Create creates all missing tables, indexes, and foreign keys on the
// connected database. It is additive: existing objects are left as they
// are, columns are never altered, and nothing is dropped.
func Create(ctx context.Context, drv dialect.Driver, tables ...*Table) error {
	c, err := NewCreator(drv)
	if err != nil {
		return err
	}
	return c.Create(ctx, tables...)
}

// Creator applies table descriptors to a database using the DDL of the
// driver's dialect.
type Creator struct {
	drv     dialect.Driver
	b       builder
	logger  zerolog.Logger
	withFKs bool
}

// CreateOption configures a Creator.
type CreateOption func(*Creator)

// WithLogger logs every executed statement at debug level.
func WithLogger(logger zerolog.Logger) CreateOption {
	return func(c *Creator) { c.logger = logger }
}

// WithForeignKeys controls whether foreign-key constraints are created.
// Defaults to true.
func WithForeignKeys(b bool) CreateOption {
	return func(c *Creator) { c.withFKs = b }
}

// NewCreator returns a Creator for the driver's dialect.
func NewCreator(drv dialect.Driver, opts ...CreateOption) (*Creator, error) {
	c := &Creator{drv: drv, logger: zerolog.Nop(), withFKs: true}
	for _, opt := range opts {
		opt(c)
	}
	switch drv.Dialect() {
	case dialect.MySQL:
		c.b = mysqlBuilder{}
	case dialect.Postgres:
		c.b = postgresBuilder{}
	case dialect.SQLite:
		c.b = sqliteBuilder{}
	default:
		return nil, fmt.Errorf("schema: unsupported dialect %q", drv.Dialect())
	}
	return c, nil
}

// Create validates the descriptors and applies them inside a single
// transaction. Tables are created first, then indexes, then foreign
// keys; on dialects without ALTER TABLE ADD CONSTRAINT the foreign
// keys are declared inline at table creation instead.
func (c *Creator) Create(ctx context.Context, tables ...*Table) error {
	if result := ValidateSchema(tables); result.HasErrors() {
		return fmt.Errorf("schema: invalid schema: %s", result)
	}
	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := c.create(ctx, tx, tables); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back: %v", err, rerr)
		}
		return err
	}
	return tx.Commit()
}

func (c *Creator) create(ctx context.Context, conn dialect.ExecQuerier, tables []*Table) error {
	inline := c.withFKs && c.b.inlineForeignKeys()
	for _, t := range tables {
		stmt, err := c.b.createTable(t, inline)
		if err != nil {
			return err
		}
		if err := c.exec(ctx, conn, stmt); err != nil {
			return fmt.Errorf("schema: create table %q: %w", t.Name, err)
		}
	}
	for _, t := range tables {
		for _, idx := range t.Indexes {
			if query, args, ok := c.b.indexExists(t.Name, idx.Name); ok {
				n, err := c.count(ctx, conn, query, args)
				if err != nil {
					return fmt.Errorf("schema: check index %q: %w", idx.Name, err)
				}
				if n > 0 {
					continue
				}
			}
			if err := c.exec(ctx, conn, c.b.createIndex(t.Name, idx)); err != nil {
				return fmt.Errorf("schema: create index %q: %w", idx.Name, err)
			}
		}
	}
	if c.withFKs && !inline {
		for _, t := range tables {
			for _, fk := range t.ForeignKeys {
				query, args := c.b.fkExists(t.Name, fk.Symbol)
				n, err := c.count(ctx, conn, query, args)
				if err != nil {
					return fmt.Errorf("schema: check constraint %q: %w", fk.Symbol, err)
				}
				if n > 0 {
					continue
				}
				stmt, err := c.b.addForeignKey(t.Name, fk)
				if err != nil {
					return err
				}
				if err := c.exec(ctx, conn, stmt); err != nil {
					return fmt.Errorf("schema: add constraint %q: %w", fk.Symbol, err)
				}
			}
		}
	}
	return nil
}

func (c *Creator) exec(ctx context.Context, conn dialect.ExecQuerier, stmt string) error {
	c.logger.Debug().Str("statement", stmt).Msg("schema: exec")
	return conn.Exec(ctx, stmt, []any{}, nil)
}

// count runs an existence query and scans its single integer result.
func (c *Creator) count(ctx context.Context, conn dialect.ExecQuerier, query string, args []any) (int, error) {
	rows := &sql.Rows{}
	if err := conn.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("schema: no rows returned for %q", query)
	}
	var n int
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// builder translates descriptors into the SQL of one dialect.
type builder interface {
	// createTable returns the CREATE TABLE statement for t. Foreign
	// keys are declared inline when inlineFKs is set.
	createTable(t *Table, inlineFKs bool) (string, error)
	// inlineForeignKeys reports whether foreign keys must be declared
	// at table creation because the dialect cannot add them later.
	inlineForeignKeys() bool
	// addForeignKey returns the ALTER TABLE statement adding fk.
	addForeignKey(table string, fk *ForeignKey) (string, error)
	// fkExists returns the query guarding constraint creation.
	fkExists(table, symbol string) (string, []any)
	// createIndex returns the CREATE INDEX statement.
	createIndex(table string, idx *Index) string
	// indexExists returns a guard query for index creation, or
	// ok=false when createIndex is itself idempotent.
	indexExists(table, index string) (string, []any, bool)
}

// identList quotes and joins identifiers.
func identList(quote func(string) string, names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = quote(name)
	}
	return strings.Join(parts, ", ")
}

// fkClause renders the FOREIGN KEY body shared by the inline and ALTER
// TABLE forms.
func fkClause(quote func(string) string, fk *ForeignKey) (string, error) {
	var sb strings.Builder
	sb.WriteString("FOREIGN KEY (")
	sb.WriteString(identList(quote, fk.Columns))
	sb.WriteString(") REFERENCES ")
	sb.WriteString(quote(fk.RefTable))
	sb.WriteString(" (")
	sb.WriteString(identList(quote, fk.RefColumns))
	sb.WriteString(")")
	if fk.OnUpdate != "" {
		action, err := validAction(fk.OnUpdate)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ON UPDATE ")
		sb.WriteString(action)
	}
	if fk.OnDelete != "" {
		action, err := validAction(fk.OnDelete)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ON DELETE ")
		sb.WriteString(action)
	}
	return sb.String(), nil
}

// sqlExprs are string defaults emitted verbatim instead of quoted.
var sqlExprs = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
}

// defaultLiteral renders a column default. Strings become quoted
// literals unless they name a SQL expression such as CURRENT_TIMESTAMP
// or a function call.
func defaultLiteral(v any) (string, error) {
	switch v := v.(type) {
	case string:
		if sqlExprs[strings.ToUpper(v)] || strings.HasSuffix(v, "()") {
			return v, nil
		}
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("schema: unsupported default value %v (%T)", v, v)
}
