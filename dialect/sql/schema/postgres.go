package schema

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/postgres"
)

// postgresBuilder emits PostgreSQL DDL. Auto-increment columns become
// serial types, and foreign keys are added with ALTER TABLE guarded by
// an information_schema lookup because ADD CONSTRAINT has no IF NOT
// EXISTS form.
type postgresBuilder struct{}

func (postgresBuilder) quote(ident string) string { return `"` + ident + `"` }

func (postgresBuilder) inlineForeignKeys() bool { return false }

func (b postgresBuilder) createTable(t *Table, inlineFKs bool) (string, error) {
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

func (b postgresBuilder) column(c *Column) (string, error) {
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

func (b postgresBuilder) columnType(c *Column) (string, error) {
	if c.Increment {
		switch c.Type {
		case "SmallInteger":
			return postgres.TypeSmallSerial, nil
		case "Integer":
			return postgres.TypeSerial, nil
		case "BigInteger":
			return postgres.TypeBigSerial, nil
		}
		return "", fmt.Errorf("schema: postgres: auto-increment column %q must be an integer type, got %q", c.Name, c.Type)
	}
	switch c.Type {
	case "BigInteger":
		return postgres.TypeBigInt, nil
	case "Boolean":
		return postgres.TypeBoolean, nil
	case "Date":
		return postgres.TypeDate, nil
	case "DateTime":
		return postgres.TypeTimestamp, nil
	case "Double":
		return postgres.TypeDouble, nil
	case "Float":
		return postgres.TypeReal, nil
	case "Integer":
		return postgres.TypeInteger, nil
	case "Interval":
		// Durations are stored as nanoseconds.
		return postgres.TypeBigInt, nil
	case "JSON":
		return postgres.TypeJSONB, nil
	case "LargeBinary":
		return postgres.TypeBytea, nil
	case "Numeric":
		return postgres.TypeNumeric, nil
	case "SmallInteger":
		return postgres.TypeSmallInt, nil
	case "String", "Unicode":
		if c.Size > 0 {
			return fmt.Sprintf("%s(%d)", postgres.TypeVarChar, c.Size), nil
		}
		return postgres.TypeVarChar, nil
	case "Text", "UnicodeText":
		return postgres.TypeText, nil
	case "Time":
		return postgres.TypeTime, nil
	case "UUID":
		return postgres.TypeUUID, nil
	}
	return "", fmt.Errorf("schema: postgres: no column type for %q (column %q)", c.Type, c.Name)
}

func (b postgresBuilder) addForeignKey(table string, fk *ForeignKey) (string, error) {
	clause, err := fkClause(b.quote, fk)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + b.quote(table) + " ADD CONSTRAINT " + b.quote(fk.Symbol) + " " + clause, nil
}

func (postgresBuilder) fkExists(table, symbol string) (string, []any) {
	query := "SELECT COUNT(*) FROM information_schema.table_constraints " +
		"WHERE table_schema = CURRENT_SCHEMA() AND table_name = $1 AND constraint_name = $2 AND constraint_type = 'FOREIGN KEY'"
	return query, []any{table, symbol}
}

func (b postgresBuilder) createIndex(table string, idx *Index) string {
	stmt := "CREATE INDEX IF NOT EXISTS "
	if idx.Unique {
		stmt = "CREATE UNIQUE INDEX IF NOT EXISTS "
	}
	return stmt + b.quote(idx.Name) + " ON " + b.quote(table) + " (" + identList(b.quote, idx.Columns) + ")"
}

func (postgresBuilder) indexExists(table, index string) (string, []any, bool) {
	return "", nil, false
}
