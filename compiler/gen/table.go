package gen

import (
	"fmt"
	"maps"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/mosaicorm/mosaic/document"
)

// Attribute keys recognized on columns. Everything else lands in
// Column.Other.
var (
	fieldConstraintAttrs = map[string]bool{
		"primary_key":   true,
		"autoincrement": true,
		"unique":        true,
		"nullable":      true,
		"index":         true,
		"default":       true,
	}
	typeParameterAttrs = map[string]bool{
		"length":    true,
		"precision": true,
		"scale":     true,
		"timezone":  true,
	}
	relationParameterAttrs = map[string]bool{
		"on_update": true,
		"on_delete": true,
	}
	structuralAttrs = map[string]bool{
		"name":         true,
		"type":         true,
		"prefix":       true,
		"columns":      true,
		"inherits":     true,
		"base":         true,
		"mixins":       true,
		"many_to_many": true,
		"indexes":      true,
		"_plugin":      true,
	}
)

// Table is one resolved table.
type Table struct {
	// Name is the logical (class) name.
	Name string
	// PhysicalName is the database table name.
	PhysicalName string
	// Plugins lists every plugin that contributed to the table, in
	// contribution order.
	Plugins []string
	// Attributes are the table's merged attributes with the
	// structural keys stripped.
	Attributes map[string]any
	// Mixins are the composite type names the table embeds.
	Mixins []string
	// Columns are the final columns after mixin expansion, in
	// first-declared order. Many-to-many join columns are prepended
	// during reference resolution.
	Columns []*Column
	// Indexes are the table's declared indexes.
	Indexes []*Index
	// ManyToMany links two tables through this one.
	ManyToMany *ManyToMany
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

// ForeignKeys returns the table's foreign-key columns in column order.
func (t *Table) ForeignKeys() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.ForeignKey != nil {
			out = append(out, c)
		}
	}
	return out
}

// HasRelations reports whether the table declares any foreign key or
// many-to-many link.
func (t *Table) HasRelations() bool {
	return t.ManyToMany != nil || len(t.ForeignKeys()) > 0
}

// JoinTable reports whether the table is a many-to-many join table.
func (t *Table) JoinTable() bool { return t.ManyToMany != nil }

// Index is one declared table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// ForeignKey references a column on another table. Table and Column
// are set at parse time; Target and TargetColumn only after the
// deferred resolution pass.
type ForeignKey struct {
	Table        string
	Column       string
	Target       *Table
	TargetColumn *Column
}

// Ref returns the reference in declaration form.
func (fk *ForeignKey) Ref() string { return fk.Table + "." + fk.Column }

// Resolved reports whether the deferred pass has run for this key.
func (fk *ForeignKey) Resolved() bool { return fk.Target != nil && fk.TargetColumn != nil }

// ManyToMany links two tables through a join table carrying one
// foreign-key column per target.
type ManyToMany struct {
	Targets [2]*ManyToManyTarget
}

// ManyToManyTarget is one side of a many-to-many link.
type ManyToManyTarget struct {
	// Tag names the side; it prefixes the join column and is taken
	// from the declaration key or derived from the target table.
	Tag          string
	Table        string
	Column       string
	Target       *Table
	TargetColumn *Column
}

// Ref returns the target in declaration form.
func (t *ManyToManyTarget) Ref() string { return t.Table + "." + t.Column }

// Column is one resolved table column.
type Column struct {
	// Name is the physical column name, after any mixin prefix.
	Name string
	// Plugin contributed the column.
	Plugin string
	// TypeName is the type reference as declared.
	TypeName string
	// Type is the resolved type. For foreign-key columns it is copied
	// from the target column by the deferred resolution pass.
	Type *TypeDef
	// Raw holds the column's attributes after type-attribute merging.
	Raw map[string]any
	// Constraints holds primary_key, autoincrement, unique, nullable,
	// index and default.
	Constraints map[string]any
	// TypeParams holds length, precision, scale and timezone.
	TypeParams map[string]any
	// RelationParams holds on_update and on_delete.
	RelationParams map[string]any
	// Other holds every remaining attribute.
	Other map[string]any
	// ForeignKey is set when the column references another table.
	ForeignKey *ForeignKey
	// ManyToManyTag marks join columns with the link side they serve.
	ManyToManyTag string
	// Mixin names the composite type the column was expanded from.
	Mixin string
	// Embedded is true when the column entered the table through a
	// table-level mixin, so the generated struct inherits the field
	// from the mixin struct instead of redeclaring it.
	Embedded bool
}

func newColumn(name, plugin, typeName string) *Column {
	return &Column{
		Name:           name,
		Plugin:         plugin,
		TypeName:       typeName,
		Raw:            map[string]any{},
		Constraints:    map[string]any{},
		TypeParams:     map[string]any{},
		RelationParams: map[string]any{},
		Other:          map[string]any{},
	}
}

// bucket distributes attrs into the column's attribute groups.
func (c *Column) bucket(attrs map[string]any) {
	c.Raw = attrs
	for k, v := range attrs {
		switch {
		case k == "many_to_many":
			if s, ok := v.(string); ok {
				c.ManyToManyTag = s
			}
		case structuralAttrs[k]:
		case fieldConstraintAttrs[k]:
			c.Constraints[k] = v
		case typeParameterAttrs[k]:
			c.TypeParams[k] = v
		case relationParameterAttrs[k]:
			c.RelationParams[k] = v
		default:
			c.Other[k] = v
		}
	}
}

// PrimaryKey reports whether the column is part of the primary key.
func (c *Column) PrimaryKey() bool {
	b, _ := c.Constraints["primary_key"].(bool)
	return b
}

// AutoIncrement reports whether the column auto-increments.
func (c *Column) AutoIncrement() bool {
	b, _ := c.Constraints["autoincrement"].(bool)
	return b
}

// Unique reports whether the column carries a unique constraint.
func (c *Column) Unique() bool {
	b, _ := c.Constraints["unique"].(bool)
	return b
}

// Nullable reports whether the column accepts NULL.
func (c *Column) Nullable() bool {
	b, _ := c.Constraints["nullable"].(bool)
	return b
}

// Indexed reports whether the column asks for a single-column index.
func (c *Column) Indexed() bool {
	b, _ := c.Constraints["index"].(bool)
	return b
}

// Default returns the declared default value.
func (c *Column) Default() (any, bool) {
	v, ok := c.Constraints["default"]
	return v, ok
}

// Size returns the declared length type parameter.
func (c *Column) Size() (int, bool) {
	switch v := c.TypeParams["length"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// Clone returns a copy the caller may resolve independently.
func (c *Column) Clone() *Column {
	cc := *c
	cc.Raw = maps.Clone(c.Raw)
	cc.Constraints = maps.Clone(c.Constraints)
	cc.TypeParams = maps.Clone(c.TypeParams)
	cc.RelationParams = maps.Clone(c.RelationParams)
	cc.Other = maps.Clone(c.Other)
	if c.ForeignKey != nil {
		fk := *c.ForeignKey
		cc.ForeignKey = &fk
	}
	return &cc
}

// buildTables builds every table from the composed document, in
// first-declared order. Foreign keys stay unresolved stubs until
// resolveReferences runs.
func buildTables(doc *document.Node, hist *document.History, cat *Catalog) ([]*Table, error) {
	tablesNode, ok := doc.Get("tables")
	if !ok {
		return nil, nil
	}
	if tablesNode.Kind() != document.Map {
		return nil, NewSchemaError("", "", `top-level "tables" is not a map`, nil)
	}
	tables := make([]*Table, 0, len(tablesNode.Keys()))
	for _, name := range tablesNode.Keys() {
		node, _ := tablesNode.Get(name)
		t, err := newTable(name, node, hist, cat)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func newTable(name string, node *document.Node, hist *document.History, cat *Catalog) (*Table, error) {
	if node.Kind() != document.Map {
		return nil, NewSchemaError(name, "", "table declaration is not a map", nil)
	}
	t := &Table{Name: name, Attributes: map[string]any{}}
	if hist != nil {
		t.Plugins = hist.Contributors("tables/" + name)
	}
	if len(t.Plugins) == 0 && node.Plugin() != "" {
		t.Plugins = []string{node.Plugin()}
	}

	var specs []ColumnSpec
	for _, key := range node.Keys() {
		child, _ := node.Get(key)
		switch key {
		case "name":
			s, ok := child.Value().(string)
			if !ok {
				return nil, NewSchemaError(name, "", `"name" must be a string`, nil)
			}
			t.PhysicalName = s
		case "columns":
			if child.Kind() != document.List {
				return nil, NewSchemaError(name, "", `"columns" is not a list`, nil)
			}
			for _, item := range child.Items() {
				spec, err := newColumnSpec(name, item)
				if err != nil {
					return nil, err
				}
				specs = append(specs, spec)
			}
		case "mixins":
			names, err := stringListValue(child)
			if err != nil {
				return nil, NewSchemaError(name, "", `"mixins" must be a type name or a list of type names`, err)
			}
			t.Mixins = names
		case "many_to_many":
			m2m, err := parseManyToMany(name, child)
			if err != nil {
				return nil, err
			}
			t.ManyToMany = m2m
		case "indexes":
			idxs, err := parseIndexes(name, child)
			if err != nil {
				return nil, err
			}
			t.Indexes = idxs
		default:
			t.Attributes[key] = child.Interface()
		}
	}
	if t.PhysicalName == "" {
		t.PhysicalName = inflect.Underscore(name)
	}

	// Table-level mixins contribute their columns ahead of the
	// table's own.
	for _, mixin := range t.Mixins {
		td, ok := cat.Get(mixin)
		if !ok {
			return nil, NewUnknownBaseTypeError(name, mixin, firstPlugin(t.Plugins))
		}
		if len(td.Columns) == 0 {
			return nil, NewSchemaError(name, "", fmt.Sprintf("mixin %q declares no columns", mixin), nil)
		}
		for _, mc := range td.Columns {
			cc := mc.Clone()
			cc.Mixin = mixin
			cc.Embedded = true
			t.Columns = append(t.Columns, cc)
		}
	}

	declared, err := expandColumns(cat, name, "", specs, nil)
	if err != nil {
		return nil, err
	}
	t.Columns = append(t.Columns, declared...)

	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if seen[col.Name] {
			return nil, NewDuplicateColumnError(name, col.Name, col.Plugin)
		}
		seen[col.Name] = true
	}
	return t, nil
}

// newColumnSpec parses one raw column entry. owner names the table or
// composite type for error context.
func newColumnSpec(owner string, item *document.Node) (ColumnSpec, error) {
	if item.Kind() != document.Map {
		return ColumnSpec{}, NewSchemaError(owner, "", "column entry is not a map", nil)
	}
	spec := ColumnSpec{Attributes: map[string]any{}, Plugin: item.Plugin()}
	for _, key := range item.Keys() {
		child, _ := item.Get(key)
		if key == "name" {
			s, ok := child.Value().(string)
			if !ok {
				return ColumnSpec{}, NewSchemaError(owner, "", "column name must be a string", nil)
			}
			spec.Name = s
			continue
		}
		spec.Attributes[key] = child.Interface()
	}
	if spec.Name == "" {
		return ColumnSpec{}, NewSchemaError(owner, "", "column entry without a name", nil)
	}
	return spec, nil
}

// expandColumns resolves raw column specs into columns, expanding
// composite types recursively. owner names the table or composite for
// error context; prefix is prepended to every resulting column name;
// stack guards against composite self-reference.
func expandColumns(cat *Catalog, owner, prefix string, specs []ColumnSpec, stack []string) ([]*Column, error) {
	var cols []*Column
	for _, spec := range specs {
		expanded, err := buildColumn(cat, owner, prefix, spec, stack)
		if err != nil {
			return nil, err
		}
		cols = append(cols, expanded...)
	}
	return cols, nil
}

func buildColumn(cat *Catalog, owner, prefix string, spec ColumnSpec, stack []string) ([]*Column, error) {
	name := prefix + spec.Name
	typeName, _ := spec.Attributes["type"].(string)
	if typeName == "" {
		return nil, NewInvalidForeignReferenceError(owner, name, "", "column declares no type")
	}

	if td, ok := cat.Get(typeName); ok {
		if td.Composite() {
			for _, s := range stack {
				if s == typeName {
					return nil, NewInheritanceCycleError(append(stack, typeName))
				}
			}
			usePrefix, _ := spec.Attributes["prefix"].(string)
			var cols []*Column
			if len(td.specs) > 0 {
				var err error
				cols, err = expandColumns(cat, owner, prefix+usePrefix, td.specs, append(stack, typeName))
				if err != nil {
					return nil, err
				}
			} else {
				for _, mc := range td.Columns {
					cc := mc.Clone()
					cc.Name = prefix + usePrefix + cc.Name
					cols = append(cols, cc)
				}
			}
			for _, col := range cols {
				col.Mixin = typeName
			}
			return cols, nil
		}
		col := newColumn(name, spec.Plugin, typeName)
		col.Type = td
		attrs := maps.Clone(spec.Attributes)
		for k, v := range td.Attributes {
			if structuralAttrs[k] {
				continue
			}
			if _, ok := attrs[k]; !ok {
				attrs[k] = v
			}
		}
		col.bucket(attrs)
		return []*Column{col}, nil
	}

	table, column, ok := strings.Cut(typeName, ".")
	if !ok || table == "" || column == "" {
		return nil, NewInvalidForeignReferenceError(owner, name, typeName,
			"neither a known type nor a table.column reference")
	}
	col := newColumn(name, spec.Plugin, typeName)
	col.ForeignKey = &ForeignKey{Table: table, Column: column}
	col.bucket(maps.Clone(spec.Attributes))
	return []*Column{col}, nil
}

func parseManyToMany(table string, node *document.Node) (*ManyToMany, error) {
	var targets []*ManyToManyTarget
	switch node.Kind() {
	case document.Map:
		for _, tag := range node.Keys() {
			child, _ := node.Get(tag)
			tgt, err := parseManyToManyTarget(table, tag, child)
			if err != nil {
				return nil, err
			}
			targets = append(targets, tgt)
		}
	case document.List:
		for _, item := range node.Items() {
			tgt, err := parseManyToManyTarget(table, "", item)
			if err != nil {
				return nil, err
			}
			targets = append(targets, tgt)
		}
	default:
		return nil, NewInvalidManyToManyError(table, "", "expects a map or list of two table.column targets")
	}
	if len(targets) != 2 {
		return nil, NewInvalidManyToManyError(table, "",
			fmt.Sprintf("expects exactly two targets, got %d", len(targets)))
	}
	return &ManyToMany{Targets: [2]*ManyToManyTarget{targets[0], targets[1]}}, nil
}

func parseManyToManyTarget(table, tag string, node *document.Node) (*ManyToManyTarget, error) {
	var ref string
	switch node.Kind() {
	case document.Scalar:
		s, ok := node.Value().(string)
		if !ok {
			return nil, NewInvalidManyToManyError(table, "", "target must be a table.column string")
		}
		ref = s
	case document.Map:
		tbl, _ := node.Get("table")
		col, _ := node.Get("column")
		if tbl == nil || col == nil {
			return nil, NewInvalidManyToManyError(table, "", `map target needs "table" and "column"`)
		}
		ts, _ := tbl.Value().(string)
		cs, _ := col.Value().(string)
		if ts == "" || cs == "" {
			return nil, NewInvalidManyToManyError(table, "", `map target needs "table" and "column"`)
		}
		ref = ts + "." + cs
	default:
		return nil, NewInvalidManyToManyError(table, "", "target must be a table.column string")
	}
	tbl, col, ok := strings.Cut(ref, ".")
	if !ok || tbl == "" || col == "" {
		return nil, NewInvalidManyToManyError(table, ref, "target must be table.column")
	}
	if tag == "" {
		tag = inflect.Underscore(tbl)
	}
	return &ManyToManyTarget{Tag: tag, Table: tbl, Column: col}, nil
}

func parseIndexes(table string, node *document.Node) ([]*Index, error) {
	if node.Kind() != document.List {
		return nil, NewSchemaError(table, "", `"indexes" is not a list`, nil)
	}
	var idxs []*Index
	for _, item := range node.Items() {
		if item.Kind() != document.Map {
			return nil, NewSchemaError(table, "", "index entry is not a map", nil)
		}
		idx := &Index{}
		if v, ok := item.Get("name"); ok {
			idx.Name, _ = v.Value().(string)
		}
		if v, ok := item.Get("unique"); ok {
			idx.Unique, _ = v.Value().(bool)
		}
		cols, ok := item.Get("columns")
		if !ok {
			return nil, NewSchemaError(table, "", "index entry without columns", nil)
		}
		names, err := stringListValue(cols)
		if err != nil {
			return nil, NewSchemaError(table, "", "index columns must be column names", err)
		}
		idx.Columns = names
		if idx.Name == "" {
			idx.Name = inflect.Underscore(table) + "_" + strings.Join(names, "_")
		}
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

// stringListValue accepts a scalar string or a list of scalar strings.
func stringListValue(node *document.Node) ([]string, error) {
	switch node.Kind() {
	case document.Scalar:
		s, ok := node.Value().(string)
		if !ok {
			return nil, fmt.Errorf("mosaic: expected a string, got %v", node.Value())
		}
		return []string{s}, nil
	case document.List:
		out := make([]string, 0, node.Len())
		for _, item := range node.Items() {
			s, ok := item.Value().(string)
			if !ok {
				return nil, fmt.Errorf("mosaic: expected a string list item, got %v", item.Value())
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("mosaic: expected a string or list of strings, got %s", node.Kind())
}

func firstPlugin(plugins []string) string {
	if len(plugins) == 0 {
		return ""
	}
	return plugins[0]
}
