package schema

import (
	"fmt"
	"strings"
)

// sqliteBuilder emits SQLite DDL. SQLite cannot add constraints to an
// existing table, so foreign keys are declared inline at creation. An
// auto-increment column must be the table's single primary key and is
// declared with the INTEGER PRIMARY KEY AUTOINCREMENT form.
type sqliteBuilder struct{}

func (sqliteBuilder) quote(ident string) string { return `"` + ident + `"` }

func (sqliteBuilder) inlineForeignKeys() bool { return true }

func (b sqliteBuilder) createTable(t *Table, inlineFKs bool) (string, error) {
	defs := make([]string, 0, len(t.Columns)+1)
	pk := t.PrimaryKey
	for _, c := range t.Columns {
		def, err := b.column(c)
		if err != nil {
			return "", err
		}
		if c.Increment {
			if len(t.PrimaryKey) != 1 || t.PrimaryKey[0] != c.Name {
				return "", fmt.Errorf("schema: sqlite: auto-increment column %q must be the single primary key of table %q", c.Name, t.Name)
			}
			def += " PRIMARY KEY AUTOINCREMENT"
			pk = nil
		}
		defs = append(defs, def)
	}
	if len(pk) > 0 {
		defs = append(defs, "PRIMARY KEY ("+identList(b.quote, pk)+")")
	}
	if inlineFKs {
		for _, fk := range t.ForeignKeys {
			clause, err := fkClause(b.quote, fk)
			if err != nil {
				return "", err
			}
			defs = append(defs, "CONSTRAINT "+b.quote(fk.Symbol)+" "+clause)
		}
	}
	return "CREATE TABLE IF NOT EXISTS " + b.quote(t.Name) + " (" + strings.Join(defs, ", ") + ")", nil
}

func (b sqliteBuilder) column(c *Column) (string, error) {
	typ, err := b.columnType(c)
	if err != nil {
		return "", err
	}
	parts := []string{b.quote(c.Name), typ}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != nil {
		lit, err := defaultLiteral(c.Default)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT", lit)
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " "), nil
}

func (sqliteBuilder) columnType(c *Column) (string, error) {
	switch c.Type {
	case "BigInteger", "Integer", "SmallInteger":
		return "integer", nil
	case "Boolean":
		return "bool", nil
	case "Date":
		return "date", nil
	case "DateTime":
		return "datetime", nil
	case "Double", "Float":
		return "real", nil
	case "Interval":
		// Durations are stored as nanoseconds.
		return "integer", nil
	case "JSON":
		return "json", nil
	case "LargeBinary":
		return "blob", nil
	case "Numeric":
		return "numeric", nil
	case "String", "Unicode":
		if c.Size > 0 {
			return fmt.Sprintf("varchar(%d)", c.Size), nil
		}
		return "varchar", nil
	case "Text", "UnicodeText":
		return "text", nil
	case "Time":
		return "time", nil
	case "UUID":
		return "uuid", nil
	}
	return "", fmt.Errorf("schema: sqlite: no column type for %q (column %q)", c.Type, c.Name)
}

func (sqliteBuilder) addForeignKey(table string, fk *ForeignKey) (string, error) {
	return "", fmt.Errorf("schema: sqlite: cannot add constraint %q to existing table %q", fk.Symbol, table)
}

func (sqliteBuilder) fkExists(table, symbol string) (string, []any) {
	// Never consulted: foreign keys are always inlined on this dialect.
	return "SELECT 0", nil
}

func (b sqliteBuilder) createIndex(table string, idx *Index) string {
	stmt := "CREATE INDEX IF NOT EXISTS "
	if idx.Unique {
		stmt = "CREATE UNIQUE INDEX IF NOT EXISTS "
	}
	return stmt + b.quote(idx.Name) + " ON " + b.quote(table) + " (" + identList(b.quote, idx.Columns) + ")"
}

func (sqliteBuilder) indexExists(table, index string) (string, []any, bool) {
	return "", nil, false
}
