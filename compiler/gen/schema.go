package gen

import (
	"github.com/mosaicorm/mosaic/compiler/load"
	"github.com/mosaicorm/mosaic/document"
)

// Schema is the fully resolved data model produced by one composition
// pass. It is built once, handed to collaborators by value or
// reference, and never mutated afterwards; a schema change requires a
// new pass.
type Schema struct {
	// Plugins is the discovered, dependency-sorted plugin set.
	Plugins *load.Set
	// Document is the composed declaration tree.
	Document *document.Node
	// History records which plugins contributed to every path.
	History *document.History
	// Catalog holds the built-in and plugin-declared column types.
	Catalog *Catalog
	// Tables are the resolved tables in first-declaration order.
	Tables []*Table
}

// Compose folds the set's declarations into one document in dependency
// order, resolves types, tables, columns and cross-references, and
// returns the schema. Any declaration error aborts the pass; there is
// no partial-schema mode.
func Compose(set *load.Set, opts ...Option) (*Schema, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return ComposeConfig(set, cfg)
}

// ComposeConfig is Compose with a prepared Config.
func ComposeConfig(set *load.Set, cfg *Config) (*Schema, error) {
	if err := set.Sort(); err != nil {
		return nil, err
	}
	merger := document.NewMerger(
		document.WithLogger(cfg.Logger),
		document.WithStrict(cfg.Strict),
	)
	for _, p := range set.Sorted() {
		for _, doc := range p.Declarations {
			if err := merger.Merge(p.Name, doc); err != nil {
				return nil, err
			}
		}
	}

	cat := NewCatalog()
	for _, p := range set.Sorted() {
		if err := cat.AddPlugin(p); err != nil {
			return nil, err
		}
	}
	if err := cat.Resolve(); err != nil {
		return nil, err
	}

	tables, err := buildTables(merger.Document(), merger.History(), cat)
	if err != nil {
		return nil, err
	}
	if err := resolveReferences(tables, cat); err != nil {
		return nil, err
	}

	cfg.Logger.Debug().
		Int("plugins", set.Len()).
		Int("types", cat.Len()).
		Int("tables", len(tables)).
		Msg("schema composed")
	return &Schema{
		Plugins:  set,
		Document: merger.Document(),
		History:  merger.History(),
		Catalog:  cat,
		Tables:   tables,
	}, nil
}

// Table returns the named table.
func (s *Schema) Table(name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TableNames returns the table names in first-declaration order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// MixinTypes returns the composite types, in catalog order, that at
// least one table embeds through its mixins list.
func (s *Schema) MixinTypes() []*TypeDef {
	used := make(map[string]bool)
	for _, t := range s.Tables {
		for _, m := range t.Mixins {
			used[m] = true
		}
	}
	var out []*TypeDef
	for _, td := range s.Catalog.Types() {
		if used[td.Name] && len(td.Columns) > 0 {
			out = append(out, td)
		}
	}
	return out
}
