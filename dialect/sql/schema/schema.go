// Package schema holds the table descriptors embedded in generated
// models and creates the described tables on a live database.
//
// Descriptors are plain values: generated code declares them as
// composite literals, and Create turns them into dialect-specific DDL.
// There is no diffing or migration here; Create only adds what is
// missing.
package schema

import (
	"fmt"
	"strings"
)

// Table describes one database table.
type Table struct {
	// Name is the physical table name.
	Name string
	// Columns are the table's columns, in declaration order.
	Columns []*Column
	// PrimaryKey names the primary-key columns, in key order.
	PrimaryKey []string
	// ForeignKeys are the table's outgoing references.
	ForeignKeys []*ForeignKey
	// Indexes are the table's secondary indexes.
	Indexes []*Index
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Column describes one table column. Type carries the engine type name
// the composition pass resolved, BigInteger or String for example; the
// dialect builders map it to concrete SQL.
type Column struct {
	// Name is the physical column name.
	Name string
	// Type is the resolved engine type name.
	Type string
	// Nullable reports whether the column accepts NULL.
	Nullable bool
	// Unique adds a UNIQUE constraint on the column.
	Unique bool
	// Increment makes the column auto-incrementing.
	Increment bool
	// Size is the declared length for sized types, 0 when unset.
	Size int
	// Default is the database-side default value, nil when unset.
	Default any
}

// ForeignKey describes a reference from Columns to RefColumns on
// RefTable.
type ForeignKey struct {
	// Symbol is the constraint name.
	Symbol string
	// Columns are the referencing columns.
	Columns []string
	// RefTable is the referenced table's physical name.
	RefTable string
	// RefColumns are the referenced columns.
	RefColumns []string
	// OnUpdate is the referential action on update, empty for the
	// database default.
	OnUpdate string
	// OnDelete is the referential action on delete.
	OnDelete string
}

// Index describes a secondary index.
type Index struct {
	// Name is the index name, unique per table.
	Name string
	// Unique makes it a unique index.
	Unique bool
	// Columns are the indexed columns, in index order.
	Columns []string
}

// referentialActions are the actions accepted on foreign keys.
var referentialActions = map[string]bool{
	"":            true,
	"NO ACTION":   true,
	"RESTRICT":    true,
	"CASCADE":     true,
	"SET NULL":    true,
	"SET DEFAULT": true,
}

// validAction normalizes a referential action and reports whether the
// supported databases accept it. Declarations write actions in any
// casing; DDL is emitted uppercased.
func validAction(action string) (string, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(action), " "))
	if !referentialActions[normalized] {
		return "", fmt.Errorf("schema: unsupported referential action %q", action)
	}
	return normalized, nil
}
