package gen

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/mosaicorm/mosaic/dialect/sql/schema"
)

// Import paths stitched into the generated module.
const (
	dialectPkg = "github.com/mosaicorm/mosaic/dialect"
	sqlPkg     = "github.com/mosaicorm/mosaic/dialect/sql"
	schemaPkg  = "github.com/mosaicorm/mosaic/dialect/sql/schema"
)

// Generator renders a resolved schema into one Go source module: a
// struct per table, a struct per embedded mixin, relationship fields
// for every foreign key and many-to-many link, schema descriptors for
// table creation, and Open/Create entry points.
type Generator struct {
	schema *Schema
	cfg    *Config
}

// NewGenerator creates a generator for the schema.
func NewGenerator(s *Schema, cfg *Config) *Generator {
	if cfg == nil {
		cfg = MustNewConfig()
	}
	return &Generator{schema: s, cfg: cfg}
}

// Generate renders the schema with the given options and writes the
// module to the target directory. Generation is unconditional; callers
// gate regeneration with ShouldRegenerate.
func Generate(s *Schema, opts ...Option) error {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}
	return NewGenerator(s, cfg).Generate()
}

// Generate renders the module and writes it to the output path.
func (g *Generator) Generate() error {
	src, err := g.Render()
	if err != nil {
		return err
	}
	path := g.OutputPath()
	if err := writeSource(path, src); err != nil {
		return err
	}
	g.cfg.Logger.Info().Str("path", path).Int("tables", len(g.schema.Tables)).Msg("module generated")
	return nil
}

// OutputPath returns the file the module is written to.
func (g *Generator) OutputPath() string {
	return filepath.Join(g.cfg.Target, g.cfg.Package+".go")
}

// Render produces the module source without writing it. The result is
// unformatted; writeSource runs it through goimports.
func (g *Generator) Render() ([]byte, error) {
	f := jen.NewFile(g.cfg.Package)
	f.HeaderComment(g.cfg.Header)

	for _, path := range g.sourceImports() {
		f.Anon(path)
	}

	for _, td := range g.schema.MixinTypes() {
		g.genMixin(f, td)
	}

	rels := g.relations()
	for _, t := range g.schema.Tables {
		g.genTable(f, t, rels[t.Name])
	}

	g.genDescriptors(f)
	g.genRuntime(f)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("mosaic: render module: %w", err)
	}
	out := buf.Bytes()
	if trailer := g.sourceAdd(); trailer != "" {
		out = append(out, '\n')
		out = append(out, trailer...)
		if !strings.HasSuffix(trailer, "\n") {
			out = append(out, '\n')
		}
	}
	return out, nil
}

// sourceImports merges the import paths declared by every plugin's
// manifest with the configured extras, deduplicated and sorted.
func (g *Generator) sourceImports() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	if g.schema.Plugins != nil {
		for _, p := range g.schema.Plugins.Sorted() {
			for _, path := range p.Manifest.SourceImports {
				add(path)
			}
		}
	}
	for _, path := range g.cfg.SourceImports {
		add(path)
	}
	sort.Strings(out)
	return out
}

// sourceAdd concatenates the raw source trailers: each plugin's
// source_add in dependency order, then the configured one.
func (g *Generator) sourceAdd() string {
	var parts []string
	if g.schema.Plugins != nil {
		for _, p := range g.schema.Plugins.Sorted() {
			if s := strings.TrimSpace(p.Manifest.SourceAdd); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if s := strings.TrimSpace(g.cfg.SourceAdd); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}

// relation is one relationship field, collected per table and appended
// after the table's own fields so the target table does not need to
// exist at declaration time.
type relation struct {
	field  string // Go field name
	target string // target struct name
	single bool   // pointer when true, slice otherwise
}

// relations collects the forward and backward relationship fields for
// every resolved foreign key, including the synthesized many-to-many
// join columns.
func (g *Generator) relations() map[string][]relation {
	rels := make(map[string][]relation)
	add := func(table string, r relation) {
		for _, existing := range rels[table] {
			if existing.field == r.field {
				return
			}
		}
		rels[table] = append(rels[table], r)
	}
	for _, t := range g.schema.Tables {
		for _, col := range t.Columns {
			if col.ForeignKey == nil || !col.ForeignKey.Resolved() {
				continue
			}
			if !col.Embedded {
				add(t.Name, relation{
					field:  relationName(col),
					target: structName(col.ForeignKey.Table),
					single: true,
				})
			}
			add(col.ForeignKey.Table, relation{
				field:  backRelationName(t, col),
				target: structName(t.Name),
				single: false,
			})
		}
	}
	return rels
}

func (g *Generator) genMixin(f *jen.File, td *TypeDef) {
	name := mixinStructName(td.Name)
	fields := make([]jen.Code, 0, len(td.Columns))
	for _, col := range td.Columns {
		fields = append(fields, g.genField(col))
	}
	for _, col := range td.Columns {
		if col.ForeignKey == nil || !col.ForeignKey.Resolved() {
			continue
		}
		fields = append(fields, jen.Id(relationName(col)).
			Op("*").Id(structName(col.ForeignKey.Table)).
			Tag(map[string]string{"db": "-"}))
	}
	f.Commentf("%s holds the columns of the %s mixin.", name, td.Name)
	f.Type().Id(name).Struct(fields...)
	f.Line()
}

func (g *Generator) genTable(f *jen.File, t *Table, rels []relation) {
	name := structName(t.Name)
	used := make(map[string]bool)
	fields := make([]jen.Code, 0, len(t.Columns)+len(rels)+len(t.Mixins))
	for _, m := range t.Mixins {
		fields = append(fields, jen.Id(mixinStructName(m)))
		used[mixinStructName(m)] = true
	}
	for _, col := range t.Columns {
		if col.Embedded {
			continue
		}
		fields = append(fields, g.genField(col))
		used[fieldName(col.Name)] = true
	}
	for _, r := range rels {
		if used[r.field] {
			g.cfg.Logger.Warn().
				Str("table", t.Name).
				Str("field", r.field).
				Msg("relationship field collides with a column; skipped")
			continue
		}
		used[r.field] = true
		typ := jen.Op("*").Id(r.target)
		if !r.single {
			typ = jen.Index().Op("*").Id(r.target)
		}
		fields = append(fields, jen.Id(r.field).Add(typ).Tag(map[string]string{"db": "-"}))
	}
	f.Commentf("%s is the model for the %q table.", name, t.PhysicalName)
	f.Type().Id(name).Struct(fields...)
	f.Line()
	f.Commentf("TableName returns the physical name of the %s table.", name)
	f.Func().Params(jen.Id(name)).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(t.PhysicalName)),
	)
	f.Line()
}

func (g *Generator) genField(col *Column) jen.Code {
	return jen.Id(fieldName(col.Name)).Add(g.goType(col)).Tag(map[string]string{"db": col.Name})
}

// goType returns the field's Go type, a pointer when the column is
// nullable. Pointers to predeclared types use Id("*type") so struct
// rendering stays gofmt-clean.
func (g *Generator) goType(col *Column) jen.Code {
	if col.Type == nil || col.Type.Native.IsZero() {
		return jen.Any()
	}
	n := col.Type.Native
	if !col.Nullable() || n.Ident == "[]byte" {
		return nativeType(col.Type)
	}
	if n.PkgPath != "" {
		return jen.Op("*").Qual(n.PkgPath, n.Ident)
	}
	return jen.Id("*" + n.Ident)
}

// nativeType maps a resolved type's native Go type to jennifer code.
func nativeType(td *TypeDef) jen.Code {
	if td == nil || td.Native.IsZero() {
		return jen.Any()
	}
	n := td.Native
	if n.PkgPath != "" {
		return jen.Qual(n.PkgPath, n.Ident)
	}
	if n.Ident == "[]byte" {
		return jen.Index().Byte()
	}
	return jen.Id(n.Ident)
}

// genDescriptors emits the Tables variable consumed by schema creation.
// The literals mirror Schema.TableDescriptors so runtime creation and
// generated code agree on the schema.
func (g *Generator) genDescriptors(f *jen.File) {
	tables := g.schema.TableDescriptors()
	vals := make([]jen.Code, 0, len(tables))
	for _, t := range tables {
		vals = append(vals, descriptorLiteral(t))
	}
	f.Comment("Tables holds the schema descriptors of the composed model.")
	f.Var().Id("Tables").Op("=").Index().Op("*").Qual(schemaPkg, "Table").Values(vals...)
	f.Line()
}

func descriptorLiteral(t *schema.Table) jen.Code {
	cols := make([]jen.Code, 0, len(t.Columns))
	for _, c := range t.Columns {
		d := jen.Dict{
			jen.Id("Name"): jen.Lit(c.Name),
			jen.Id("Type"): jen.Lit(c.Type),
		}
		if c.Nullable {
			d[jen.Id("Nullable")] = jen.True()
		}
		if c.Unique {
			d[jen.Id("Unique")] = jen.True()
		}
		if c.Increment {
			d[jen.Id("Increment")] = jen.True()
		}
		if c.Size > 0 {
			d[jen.Id("Size")] = jen.Lit(c.Size)
		}
		if c.Default != nil {
			if lit, ok := literal(c.Default); ok {
				d[jen.Id("Default")] = lit
			}
		}
		cols = append(cols, jen.Values(d))
	}

	var fks []jen.Code
	for _, fk := range t.ForeignKeys {
		d := jen.Dict{
			jen.Id("Symbol"):     jen.Lit(fk.Symbol),
			jen.Id("Columns"):    stringsLit(fk.Columns),
			jen.Id("RefTable"):   jen.Lit(fk.RefTable),
			jen.Id("RefColumns"): stringsLit(fk.RefColumns),
		}
		if fk.OnUpdate != "" {
			d[jen.Id("OnUpdate")] = jen.Lit(fk.OnUpdate)
		}
		if fk.OnDelete != "" {
			d[jen.Id("OnDelete")] = jen.Lit(fk.OnDelete)
		}
		fks = append(fks, jen.Values(d))
	}

	var idxs []jen.Code
	for _, idx := range t.Indexes {
		d := jen.Dict{
			jen.Id("Name"):    jen.Lit(idx.Name),
			jen.Id("Columns"): stringsLit(idx.Columns),
		}
		if idx.Unique {
			d[jen.Id("Unique")] = jen.True()
		}
		idxs = append(idxs, jen.Values(d))
	}

	d := jen.Dict{
		jen.Id("Name"):    jen.Lit(t.Name),
		jen.Id("Columns"): jen.Index().Op("*").Qual(schemaPkg, "Column").Values(cols...),
	}
	if len(t.PrimaryKey) > 0 {
		d[jen.Id("PrimaryKey")] = stringsLit(t.PrimaryKey)
	}
	if len(fks) > 0 {
		d[jen.Id("ForeignKeys")] = jen.Index().Op("*").Qual(schemaPkg, "ForeignKey").Values(fks...)
	}
	if len(idxs) > 0 {
		d[jen.Id("Indexes")] = jen.Index().Op("*").Qual(schemaPkg, "Index").Values(idxs...)
	}
	return jen.Values(d)
}

func stringsLit(vals []string) jen.Code {
	return jen.Index().String().ValuesFunc(func(v *jen.Group) {
		for _, s := range vals {
			v.Lit(s)
		}
	})
}

// typeName returns the built-in type name recorded in descriptors; the
// schema creation layer maps it to dialect SQL.
func typeName(col *Column) string {
	if col.Type != nil {
		return col.Type.Terminal()
	}
	return col.TypeName
}

// literal turns a declaration scalar into a Go literal where possible.
func literal(v any) (jen.Code, bool) {
	switch v := v.(type) {
	case string, bool, int, int64, float64:
		return jen.Lit(v), true
	}
	return nil, false
}

// genRuntime emits the database entry points.
func (g *Generator) genRuntime(f *jen.File) {
	f.Comment("Open opens a database connection and returns a driver for the model.")
	f.Func().Id("Open").Params(jen.Id("driver"), jen.Id("dsn").String()).
		Params(jen.Op("*").Qual(sqlPkg, "Driver"), jen.Error()).
		Block(jen.Return(jen.Qual(sqlPkg, "Open").Call(jen.Id("driver"), jen.Id("dsn"))))
	f.Line()
	f.Comment("Create creates all schema resources on the connected database.")
	f.Func().Id("Create").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("drv").Qual(dialectPkg, "Driver"),
	).Error().Block(
		jen.Return(jen.Qual(schemaPkg, "Create").Call(jen.Id("ctx"), jen.Id("drv"), jen.Id("Tables").Op("..."))),
	)
	f.Line()
}
