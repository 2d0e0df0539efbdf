package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicorm/mosaic/compiler/load"
	"github.com/mosaicorm/mosaic/document"
)

func decodeDoc(t *testing.T, src string) *document.Node {
	t.Helper()
	doc, err := document.Decode([]byte(src))
	require.NoError(t, err)
	return doc
}

// testPlugin builds an in-memory plugin from declaration documents.
func testPlugin(t *testing.T, name string, deps []string, docs ...string) *load.Plugin {
	t.Helper()
	p := &load.Plugin{
		Name: name,
		Manifest: load.Manifest{
			Name:      name,
			Version:   load.DefaultVersion,
			DependsOn: deps,
		},
	}
	for _, src := range docs {
		p.Declarations = append(p.Declarations, decodeDoc(t, src))
	}
	return p
}

func testSet(t *testing.T, plugins ...*load.Plugin) *load.Set {
	t.Helper()
	set, err := load.NewSet(plugins)
	require.NoError(t, err)
	return set
}

func columnNames(t *Table) []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func TestComposeEndToEnd(t *testing.T) {
	core := testPlugin(t, "core", nil, `
tables:
  User:
    columns:
      - name: id
        type: Integer
        primary_key: true
        autoincrement: true
      - name: name
        type: String
        length: 120
`)
	audit := testPlugin(t, "audit", []string{"core"}, `
tables:
  User:
    columns:
      - name: created_at
        type: DateTime
`)
	// Discovery order deliberately reversed; the sorter must put core
	// first anyway.
	set := testSet(t, audit, core)
	s, err := Compose(set)
	require.NoError(t, err)

	user, ok := s.Table("User")
	require.True(t, ok)
	assert.Equal(t, []string{"core", "audit"}, user.Plugins)
	assert.Equal(t, []string{"id", "name", "created_at"}, columnNames(user))
	assert.Equal(t, "user", user.PhysicalName)

	created, ok := user.Column("created_at")
	require.True(t, ok)
	assert.Equal(t, "audit", created.Plugin)
	require.NotNil(t, created.Type)
	assert.Equal(t, "DateTime", created.Type.Name)

	id, ok := user.Column("id")
	require.True(t, ok)
	assert.Equal(t, "core", id.Plugin)
	assert.True(t, id.PrimaryKey())
	assert.True(t, id.AutoIncrement())
}

func TestComposeColumnExtension(t *testing.T) {
	core := testPlugin(t, "core", nil, `
tables:
  Account:
    columns:
      - name: status
        type: String
        length: 16
`)
	billing := testPlugin(t, "billing", []string{"core"}, `
tables:
  Account:
    columns:
      - name: status
        default: active
`)
	s, err := Compose(testSet(t, core, billing))
	require.NoError(t, err)

	account, ok := s.Table("Account")
	require.True(t, ok)
	require.Len(t, account.Columns, 1)

	status := account.Columns[0]
	assert.Equal(t, "billing", status.Plugin, "provenance moves to the extending plugin")
	assert.Equal(t, "String", status.Type.Name, "earlier attributes survive")
	size, ok := status.Size()
	require.True(t, ok)
	assert.Equal(t, 16, size)
	def, ok := status.Default()
	require.True(t, ok)
	assert.Equal(t, "active", def)
}

func TestComposeStrictScalarOverride(t *testing.T) {
	core := testPlugin(t, "core", nil, `
tables:
  User:
    engine: innodb
    columns:
      - name: id
        type: Integer
`)
	tuning := testPlugin(t, "tuning", []string{"core"}, `
tables:
  User:
    engine: rocksdb
`)

	t.Run("default warns and overrides", func(t *testing.T) {
		s, err := Compose(testSet(t, core, tuning))
		require.NoError(t, err)
		user, ok := s.Table("User")
		require.True(t, ok)
		assert.Equal(t, "rocksdb", user.Attributes["engine"])
	})

	t.Run("strict fails", func(t *testing.T) {
		core := testPlugin(t, "core", nil, `
tables:
  User:
    engine: innodb
    columns:
      - name: id
        type: Integer
`)
		tuning := testPlugin(t, "tuning", []string{"core"}, `
tables:
  User:
    engine: rocksdb
`)
		_, err := Compose(testSet(t, core, tuning), WithStrict(true))
		require.Error(t, err)
		assert.True(t, errors.Is(err, document.ErrScalarOverride))
	})
}

func TestComposeSortFailurePropagates(t *testing.T) {
	p := testPlugin(t, "orphan", []string{"missing"}, `
tables:
  T:
    columns:
      - name: id
        type: Integer
`)
	_, err := Compose(testSet(t, p))
	require.Error(t, err)
	assert.True(t, errors.Is(err, load.ErrUnknownDependency))
}

func TestSchemaTableNames(t *testing.T) {
	core := testPlugin(t, "core", nil, `
tables:
  Zebra:
    columns:
      - name: id
        type: Integer
  Alpha:
    columns:
      - name: id
        type: Integer
`)
	s, err := Compose(testSet(t, core))
	require.NoError(t, err)
	assert.Equal(t, []string{"Zebra", "Alpha"}, s.TableNames(), "first-declaration order, not alphabetical")
}

func TestSchemaMixinTypes(t *testing.T) {
	core := testPlugin(t, "core", nil, `
types:
  Timestamps:
    columns:
      - name: created_at
        type: DateTime
      - name: updated_at
        type: DateTime
  Unused:
    columns:
      - name: note
        type: Text
tables:
  Post:
    mixins: Timestamps
    columns:
      - name: id
        type: Integer
        primary_key: true
`)
	s, err := Compose(testSet(t, core))
	require.NoError(t, err)

	mixins := s.MixinTypes()
	require.Len(t, mixins, 1, "only embedded composites are mixin classes")
	assert.Equal(t, "Timestamps", mixins[0].Name)

	post, ok := s.Table("Post")
	require.True(t, ok)
	assert.Equal(t, []string{"created_at", "updated_at", "id"}, columnNames(post))
	for _, name := range []string{"created_at", "updated_at"} {
		col, ok := post.Column(name)
		require.True(t, ok)
		assert.True(t, col.Embedded)
		assert.Equal(t, "Timestamps", col.Mixin)
	}
}
