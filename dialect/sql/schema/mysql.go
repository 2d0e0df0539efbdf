package schema

import (
	"fmt"
	"strings"
)

// DefaultStringLen is the varchar length used on dialects that require
// one when the column declares no size.
const DefaultStringLen = 255

// mysqlBuilder emits MySQL DDL. Index and constraint creation is
// guarded by INFORMATION_SCHEMA lookups because MySQL supports IF NOT
// EXISTS on neither.
type mysqlBuilder struct{}

func (mysqlBuilder) quote(ident string) string { return "`" + ident + "`" }

func (mysqlBuilder) inlineForeignKeys() bool { return false }

func (b mysqlBuilder) createTable(t *Table, inlineFKs bool) (string, error) {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		def, err := b.column(c)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	if len(t.PrimaryKey) > 0 {
		defs = append(defs, "PRIMARY KEY ("+identList(b.quote, t.PrimaryKey)+")")
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

func (b mysqlBuilder) column(c *Column) (string, error) {
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
	if c.Increment {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " "), nil
}

func (mysqlBuilder) columnType(c *Column) (string, error) {
	switch c.Type {
	case "BigInteger":
		return "bigint", nil
	case "Boolean":
		return "boolean", nil
	case "Date":
		return "date", nil
	case "DateTime":
		return "datetime", nil
	case "Double":
		return "double", nil
	case "Float":
		return "float", nil
	case "Integer":
		return "int", nil
	case "Interval":
		// Durations are stored as nanoseconds.
		return "bigint", nil
	case "JSON":
		return "json", nil
	case "LargeBinary":
		switch {
		case c.Size == 0 || c.Size < 1<<16:
			return "blob", nil
		case c.Size < 1<<24:
			return "mediumblob", nil
		default:
			return "longblob", nil
		}
	case "Numeric":
		return "decimal", nil
	case "SmallInteger":
		return "smallint", nil
	case "String", "Unicode":
		size := c.Size
		if size == 0 {
			size = DefaultStringLen
		}
		return fmt.Sprintf("varchar(%d)", size), nil
	case "Text", "UnicodeText":
		return "longtext", nil
	case "Time":
		return "time", nil
	case "UUID":
		return "char(36)", nil
	}
	return "", fmt.Errorf("schema: mysql: no column type for %q (column %q)", c.Type, c.Name)
}

func (b mysqlBuilder) addForeignKey(table string, fk *ForeignKey) (string, error) {
	clause, err := fkClause(b.quote, fk)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + b.quote(table) + " ADD CONSTRAINT " + b.quote(fk.Symbol) + " " + clause, nil
}

func (mysqlBuilder) fkExists(table, symbol string) (string, []any) {
	query := "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS " +
		"WHERE CONSTRAINT_SCHEMA = (SELECT DATABASE()) AND TABLE_NAME = ? AND CONSTRAINT_NAME = ? AND CONSTRAINT_TYPE = 'FOREIGN KEY'"
	return query, []any{table, symbol}
}

func (b mysqlBuilder) createIndex(table string, idx *Index) string {
	stmt := "CREATE INDEX "
	if idx.Unique {
		stmt = "CREATE UNIQUE INDEX "
	}
	return stmt + b.quote(idx.Name) + " ON " + b.quote(table) + " (" + identList(b.quote, idx.Columns) + ")"
}

func (mysqlBuilder) indexExists(table, index string) (string, []any, bool) {
	query := "SELECT COUNT(*) FROM INFORMATION_SCHEMA.STATISTICS " +
		"WHERE TABLE_SCHEMA = (SELECT DATABASE()) AND TABLE_NAME = ? AND INDEX_NAME = ?"
	return query, []any{table, index}, true
}
