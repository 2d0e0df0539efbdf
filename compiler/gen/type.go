package gen

import (
	"fmt"

	"github.com/mosaicorm/mosaic/compiler/load"
	"github.com/mosaicorm/mosaic/document"
	"github.com/mosaicorm/mosaic/schema/coltype"
)

// BuiltInPlugin is the owning-plugin sentinel for types seeded from
// the engine's built-in table rather than declared by a plugin.
const BuiltInPlugin = "built-in"

// TypeDef is one column type: a built-in, a plugin-declared scalar
// type deriving from one, or a composite column group (mixin).
type TypeDef struct {
	// Name identifies the type; unique across built-ins and plugins.
	Name string
	// Plugin is the declaring plugin, BuiltInPlugin for built-ins.
	Plugin string
	// Attributes are the type's declared attributes. After Resolve
	// they include inherited attributes, with the type's own values
	// winning over ancestors'.
	Attributes map[string]any
	// Base is the declared base type name, empty for terminal types.
	Base string
	// Chain lists the resolved ancestors, nearest first.
	Chain []string
	// Native is the Go type the chain terminates at.
	Native coltype.Native
	// Columns are the resolved embedded columns when the type is a
	// composite column group. Set by Resolve.
	Columns []*Column

	specs    []ColumnSpec
	resolved bool
}

// Composite reports whether the type is a reusable column group.
func (t *TypeDef) Composite() bool {
	return len(t.specs) > 0 || len(t.Columns) > 0
}

// Terminal returns the name of the type at the far end of the
// inheritance chain, i.e. the built-in the type ultimately maps to.
func (t *TypeDef) Terminal() string {
	if len(t.Chain) > 0 {
		return t.Chain[len(t.Chain)-1]
	}
	return t.Name
}

// ColumnSpec is a raw embedded-column declaration carried by a
// composite type before expansion.
type ColumnSpec struct {
	Name       string
	Attributes map[string]any
	Plugin     string
}

// Catalog holds every known column type: engine built-ins plus
// plugin-declared types, in registration order.
type Catalog struct {
	order []string
	types map[string]*TypeDef
}

// NewCatalog returns a catalog seeded with the built-in column types.
func NewCatalog() *Catalog {
	c := &Catalog{types: make(map[string]*TypeDef)}
	for _, bi := range coltype.BuiltIns() {
		c.mustAdd(&TypeDef{
			Name:       bi.Name,
			Plugin:     BuiltInPlugin,
			Attributes: map[string]any{},
			Native:     bi.Native,
			resolved:   true,
		})
	}
	return c
}

// Len returns the number of registered types.
func (c *Catalog) Len() int { return len(c.order) }

// Get returns the named type.
func (c *Catalog) Get(name string) (*TypeDef, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Types returns all types in registration order.
func (c *Catalog) Types() []*TypeDef {
	out := make([]*TypeDef, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.types[name])
	}
	return out
}

// Add registers a type. Type names share one namespace across all
// plugins and the built-ins.
func (c *Catalog) Add(t *TypeDef) error {
	if existing, ok := c.types[t.Name]; ok {
		return NewDuplicateTypeError(t.Name, t.Plugin, existing.Plugin)
	}
	if t.Attributes == nil {
		t.Attributes = map[string]any{}
	}
	c.mustAdd(t)
	return nil
}

func (c *Catalog) mustAdd(t *TypeDef) {
	c.types[t.Name] = t
	c.order = append(c.order, t.Name)
}

// AddPlugin registers every type the plugin declares. Plugins are
// added in dependency order, so the first declarer of a name wins and
// later declarers fail with DuplicateTypeError.
func (c *Catalog) AddPlugin(p *load.Plugin) error {
	for _, doc := range p.Declarations {
		types, ok := doc.Get("types")
		if !ok {
			continue
		}
		if types.Kind() != document.Map {
			return NewSchemaError("", "", fmt.Sprintf(`plugin %q: top-level "types" is not a map`, p.Name), nil)
		}
		for _, name := range types.Keys() {
			node, _ := types.Get(name)
			td, err := newTypeDef(name, p.Name, node)
			if err != nil {
				return err
			}
			if err := c.Add(td); err != nil {
				return err
			}
		}
	}
	return nil
}

func newTypeDef(name, plugin string, node *document.Node) (*TypeDef, error) {
	if node.Kind() != document.Map {
		return nil, NewSchemaError("", "", fmt.Sprintf("type %q declared by plugin %q is not a map", name, plugin), nil)
	}
	td := &TypeDef{
		Name:       name,
		Plugin:     plugin,
		Attributes: map[string]any{},
	}
	for _, key := range node.Keys() {
		child, _ := node.Get(key)
		switch key {
		case "inherits", "base":
			s, ok := child.Value().(string)
			if !ok {
				return nil, NewSchemaError("", "", fmt.Sprintf("type %q: %q must be a type name", name, key), nil)
			}
			td.Base = s
		case "columns":
			if child.Kind() != document.List {
				return nil, NewSchemaError("", "", fmt.Sprintf(`type %q: "columns" is not a list`, name), nil)
			}
			for _, item := range child.Items() {
				spec, err := newColumnSpec(name, item)
				if err != nil {
					return nil, err
				}
				td.specs = append(td.specs, spec)
			}
		case "name":
			// structural, never inherited by columns
		default:
			td.Attributes[key] = child.Interface()
		}
	}
	return td, nil
}

// Resolve walks every type's inheritance chain, merges inherited
// attributes under the type's own, sets the native type from the
// chain's terminal, and expands composite types' embedded columns.
// Resolving twice is a no-op: chains and attribute sets are built
// exactly once per type.
func (c *Catalog) Resolve() error {
	for _, name := range c.order {
		if err := c.resolveType(c.types[name], nil); err != nil {
			return err
		}
	}
	for _, name := range c.order {
		t := c.types[name]
		if len(t.specs) == 0 || t.Columns != nil {
			continue
		}
		cols, err := expandColumns(c, t.Name, "", t.specs, []string{t.Name})
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(cols))
		for _, col := range cols {
			if seen[col.Name] {
				return NewDuplicateColumnError(t.Name, col.Name, col.Plugin)
			}
			seen[col.Name] = true
		}
		t.Columns = cols
	}
	return nil
}

func (c *Catalog) resolveType(t *TypeDef, path []string) error {
	if t.resolved {
		return nil
	}
	for _, seen := range path {
		if seen == t.Name {
			return NewInheritanceCycleError(append(path, t.Name))
		}
	}
	if t.Base == "" {
		if t.Native.IsZero() && len(t.specs) == 0 {
			return NewUnknownBaseTypeError(t.Name, "", t.Plugin)
		}
		t.resolved = true
		return nil
	}
	base, ok := c.types[t.Base]
	if !ok {
		return NewUnknownBaseTypeError(t.Name, t.Base, t.Plugin)
	}
	if err := c.resolveType(base, append(path, t.Name)); err != nil {
		return err
	}
	t.Chain = append([]string{base.Name}, base.Chain...)
	for k, v := range base.Attributes {
		if _, ok := t.Attributes[k]; !ok {
			t.Attributes[k] = v
		}
	}
	if t.Native.IsZero() {
		t.Native = base.Native
	}
	t.resolved = true
	return nil
}
