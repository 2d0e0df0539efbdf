package gen

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is a compact serialized view of a resolved schema, written
// next to the generated module so inspection tooling can read the
// model without re-running composition.
type Snapshot struct {
	GeneratedAt time.Time        `msgpack:"generated_at"`
	Plugins     []PluginSnapshot `msgpack:"plugins"`
	Types       []TypeSnapshot   `msgpack:"types,omitempty"`
	Tables      []TableSnapshot  `msgpack:"tables"`
}

// PluginSnapshot records one composed plugin.
type PluginSnapshot struct {
	Name      string   `msgpack:"name"`
	Version   string   `msgpack:"version"`
	DependsOn []string `msgpack:"depends_on,omitempty"`
}

// TypeSnapshot records one plugin-declared column type.
type TypeSnapshot struct {
	Name   string `msgpack:"name"`
	Plugin string `msgpack:"plugin"`
	Base   string `msgpack:"base,omitempty"`
	Native string `msgpack:"native,omitempty"`
}

// TableSnapshot records one resolved table.
type TableSnapshot struct {
	Name         string           `msgpack:"name"`
	PhysicalName string           `msgpack:"physical_name"`
	Plugins      []string         `msgpack:"plugins,omitempty"`
	Columns      []ColumnSnapshot `msgpack:"columns"`
	Indexes      []IndexSnapshot  `msgpack:"indexes,omitempty"`
}

// ColumnSnapshot records one resolved column.
type ColumnSnapshot struct {
	Name       string `msgpack:"name"`
	Type       string `msgpack:"type"`
	Native     string `msgpack:"native,omitempty"`
	Nullable   bool   `msgpack:"nullable,omitempty"`
	Unique     bool   `msgpack:"unique,omitempty"`
	Increment  bool   `msgpack:"increment,omitempty"`
	Size       int    `msgpack:"size,omitempty"`
	PrimaryKey bool   `msgpack:"primary_key,omitempty"`
	ForeignKey string `msgpack:"foreign_key,omitempty"`
	Plugin     string `msgpack:"plugin,omitempty"`
}

// IndexSnapshot records one table index, derived or declared.
type IndexSnapshot struct {
	Name    string   `msgpack:"name"`
	Unique  bool     `msgpack:"unique,omitempty"`
	Columns []string `msgpack:"columns"`
}

// NewSnapshot captures the resolved schema.
func NewSnapshot(s *Schema) *Snapshot {
	snap := &Snapshot{GeneratedAt: time.Now().UTC()}
	if s.Plugins != nil {
		for _, p := range s.Plugins.Sorted() {
			snap.Plugins = append(snap.Plugins, PluginSnapshot{
				Name:      p.Name,
				Version:   p.Manifest.Version,
				DependsOn: p.DependsOn(),
			})
		}
	}
	if s.Catalog != nil {
		for _, td := range s.Catalog.Types() {
			if td.Plugin == BuiltInPlugin {
				continue
			}
			snap.Types = append(snap.Types, TypeSnapshot{
				Name:   td.Name,
				Plugin: td.Plugin,
				Base:   td.Base,
				Native: td.Native.String(),
			})
		}
	}
	for _, t := range s.Tables {
		ts := TableSnapshot{
			Name:         t.Name,
			PhysicalName: t.PhysicalName,
			Plugins:      t.Plugins,
		}
		for _, col := range t.Columns {
			cs := ColumnSnapshot{
				Name:       col.Name,
				Type:       typeName(col),
				Nullable:   col.Nullable(),
				Unique:     col.Unique(),
				Increment:  col.AutoIncrement(),
				PrimaryKey: col.PrimaryKey(),
				Plugin:     col.Plugin,
			}
			if size, ok := col.Size(); ok {
				cs.Size = size
			}
			if col.Type != nil {
				cs.Native = col.Type.Native.String()
			}
			if col.ForeignKey != nil {
				cs.ForeignKey = col.ForeignKey.Ref()
			}
			ts.Columns = append(ts.Columns, cs)
		}
		for _, col := range t.Columns {
			if col.Indexed() {
				ts.Indexes = append(ts.Indexes, IndexSnapshot{
					Name:    t.PhysicalName + "_" + col.Name,
					Columns: []string{col.Name},
				})
			}
		}
		for _, idx := range t.Indexes {
			ts.Indexes = append(ts.Indexes, IndexSnapshot{
				Name:    idx.Name,
				Unique:  idx.Unique,
				Columns: idx.Columns,
			})
		}
		snap.Tables = append(snap.Tables, ts)
	}
	return snap
}

// SaveSnapshot writes the schema's snapshot to path.
func SaveSnapshot(path string, s *Schema) error {
	data, err := msgpack.Marshal(NewSnapshot(s))
	if err != nil {
		return fmt.Errorf("mosaic: encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("mosaic: write snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mosaic: read snapshot %s: %w", path, err)
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("mosaic: decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}
