package gen

import (
	"fmt"
	"strings"

	"github.com/mosaicorm/mosaic/dialect/sql/schema"
)

// TableDescriptors converts the resolved tables into the runtime
// descriptors consumed by schema creation. The generator embeds the
// same values as literals in the generated source; tooling that holds a
// live Schema can feed these straight to schema.Create or
// schema.ValidateDiff instead.
func (s *Schema) TableDescriptors() []*schema.Table {
	tables := make([]*schema.Table, 0, len(s.Tables))
	for _, t := range s.Tables {
		tables = append(tables, descriptorTable(t))
	}
	return tables
}

func descriptorTable(t *Table) *schema.Table {
	dt := &schema.Table{Name: t.PhysicalName}
	for _, col := range t.Columns {
		c := &schema.Column{
			Name:      col.Name,
			Type:      typeName(col),
			Nullable:  col.Nullable(),
			Unique:    col.Unique(),
			Increment: col.AutoIncrement(),
		}
		if size, ok := col.Size(); ok {
			c.Size = size
		}
		if v, ok := col.Default(); ok {
			c.Default = v
		}
		dt.Columns = append(dt.Columns, c)
		if col.PrimaryKey() {
			dt.PrimaryKey = append(dt.PrimaryKey, col.Name)
		}
	}
	for _, col := range t.Columns {
		if col.ForeignKey == nil || !col.ForeignKey.Resolved() {
			continue
		}
		fk := &schema.ForeignKey{
			Symbol:     fmt.Sprintf("%s_%s_fkey", t.PhysicalName, col.Name),
			Columns:    []string{col.Name},
			RefTable:   col.ForeignKey.Target.PhysicalName,
			RefColumns: []string{col.ForeignKey.TargetColumn.Name},
		}
		if v, ok := col.RelationParams["on_update"].(string); ok {
			fk.OnUpdate = v
		}
		if v, ok := col.RelationParams["on_delete"].(string); ok {
			fk.OnDelete = v
		}
		dt.ForeignKeys = append(dt.ForeignKeys, fk)
	}
	for _, col := range t.Columns {
		if col.Indexed() {
			dt.Indexes = append(dt.Indexes, &schema.Index{
				Name:    t.PhysicalName + "_" + col.Name,
				Columns: []string{col.Name},
			})
		}
	}
	for _, idx := range t.Indexes {
		dt.Indexes = append(dt.Indexes, &schema.Index{
			Name:    idx.Name,
			Unique:  idx.Unique,
			Columns: idx.Columns,
		})
	}
	return dt
}

// TableDescriptors converts a snapshot back into runtime descriptors,
// so the schema deployed by an earlier generation can be diffed against
// a freshly composed one.
func (s *Snapshot) TableDescriptors() []*schema.Table {
	physical := make(map[string]string, len(s.Tables))
	for _, t := range s.Tables {
		physical[t.Name] = t.PhysicalName
	}
	tables := make([]*schema.Table, 0, len(s.Tables))
	for _, t := range s.Tables {
		dt := &schema.Table{Name: t.PhysicalName}
		for _, c := range t.Columns {
			dt.Columns = append(dt.Columns, &schema.Column{
				Name:      c.Name,
				Type:      c.Type,
				Nullable:  c.Nullable,
				Unique:    c.Unique,
				Increment: c.Increment,
				Size:      c.Size,
			})
			if c.PrimaryKey {
				dt.PrimaryKey = append(dt.PrimaryKey, c.Name)
			}
			if c.ForeignKey == "" {
				continue
			}
			table, column, ok := strings.Cut(c.ForeignKey, ".")
			if !ok {
				continue
			}
			refTable, ok := physical[table]
			if !ok {
				refTable = table
			}
			dt.ForeignKeys = append(dt.ForeignKeys, &schema.ForeignKey{
				Symbol:     fmt.Sprintf("%s_%s_fkey", t.PhysicalName, c.Name),
				Columns:    []string{c.Name},
				RefTable:   refTable,
				RefColumns: []string{column},
			})
		}
		for _, idx := range t.Indexes {
			dt.Indexes = append(dt.Indexes, &schema.Index{
				Name:    idx.Name,
				Unique:  idx.Unique,
				Columns: idx.Columns,
			})
		}
		tables = append(tables, dt)
	}
	return tables
}
