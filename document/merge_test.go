package document_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicorm/mosaic/document"
)

func decode(t *testing.T, src string) *document.Node {
	t.Helper()
	n, err := document.Decode([]byte(src))
	require.NoError(t, err)
	return n
}

// TestMergeAddsNewKeys tests that keys only present in the incoming
// document are added and tagged with the contributing plugin.
func TestMergeAddsNewKeys(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, `
tables:
  User:
    columns:
      - name: id
        type: Integer
`)))

	doc := m.Document()
	tables, ok := doc.Get("tables")
	require.True(t, ok)
	assert.Equal(t, "core", tables.Plugin())

	user, ok := tables.Get("User")
	require.True(t, ok)
	assert.Equal(t, "core", user.Plugin())

	columns, _ := user.Get("columns")
	require.Len(t, columns.Items(), 1)
	assert.Equal(t, "core", columns.Items()[0].Plugin())
}

// TestMergeKeepsFirstDefinerProvenance tests that merging into an
// existing map keeps the original definer's tag on the map node while
// new children are tagged with the later plugin.
func TestMergeKeepsFirstDefinerProvenance(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, "tables:\n  User:\n    label: user\n")))
	require.NoError(t, m.Merge("audit", decode(t, "tables:\n  User:\n    audited: true\n  Event:\n    label: event\n")))

	tables, _ := m.Document().Get("tables")
	assert.Equal(t, "core", tables.Plugin())

	user, _ := tables.Get("User")
	assert.Equal(t, "core", user.Plugin())
	_, ok := user.Get("audited")
	assert.True(t, ok)

	event, _ := tables.Get("Event")
	assert.Equal(t, "audit", event.Plugin())

	// Tables stay in first-declaration order.
	assert.Equal(t, []string{"User", "Event"}, tables.Keys())
}

// TestMergeScalarOverride tests that a differing scalar is replaced by
// the incoming value by default and rejected in strict mode.
func TestMergeScalarOverride(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, "settings:\n  page_size: 10\n")))
	require.NoError(t, m.Merge("tuning", decode(t, "settings:\n  page_size: 50\n")))

	settings, _ := m.Document().Get("settings")
	size, _ := settings.Get("page_size")
	assert.Equal(t, 50, size.Value())

	strict := document.NewMerger(document.WithStrict(true))
	require.NoError(t, strict.Merge("core", decode(t, "settings:\n  page_size: 10\n")))
	err := strict.Merge("tuning", decode(t, "settings:\n  page_size: 50\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, document.ErrScalarOverride))

	var oe *document.ScalarOverrideError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "settings/page_size", oe.Path)
	assert.Equal(t, "tuning", oe.Plugin)
	assert.Equal(t, "core", oe.Previous)
	assert.Equal(t, 10, oe.Old)
	assert.Equal(t, 50, oe.New)
}

// TestMergeEqualScalarIsNoop tests that re-declaring the same scalar
// value is not treated as an override.
func TestMergeEqualScalarIsNoop(t *testing.T) {
	t.Parallel()

	m := document.NewMerger(document.WithStrict(true))
	require.NoError(t, m.Merge("core", decode(t, "settings:\n  page_size: 10\n")))
	require.NoError(t, m.Merge("other", decode(t, "settings:\n  page_size: 10\n")))
}

// TestMergeTypeConflict tests that mismatched shapes at one path fail
// with a TypeConflictError naming the path and both plugins.
func TestMergeTypeConflict(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, "tables:\n  User:\n    label: user\n")))
	err := m.Merge("broken", decode(t, "tables:\n  User:\n    - nope\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, document.ErrTypeConflict))

	var ce *document.TypeConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "tables/User", ce.Path)
	assert.Equal(t, document.Map, ce.ExistingKind)
	assert.Equal(t, document.List, ce.IncomingKind)
	assert.Equal(t, "core", ce.ExistingPlugin)
	assert.Equal(t, "broken", ce.IncomingPlugin)
}

// TestMergeRootMustBeMap tests that non-map declaration roots are
// rejected.
func TestMergeRootMustBeMap(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	err := m.Merge("core", document.NewList())
	assert.Error(t, err)
	assert.NoError(t, m.Merge("core", nil))
}

// TestMergeDefaultList tests the default list rule: structural dedup
// and provenance tags on appended map elements.
func TestMergeDefaultList(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, "features:\n  - base\n  - name: hooks\n    enabled: true\n")))
	require.NoError(t, m.Merge("extra", decode(t, "features:\n  - base\n  - extra\n  - name: hooks\n    enabled: true\n")))

	features, _ := m.Document().Get("features")
	items := features.Items()
	// "base" and the hooks entry are deduplicated structurally.
	require.Len(t, items, 3)
	assert.Equal(t, "base", items[0].Value())
	assert.Equal(t, "core", items[1].Plugin())
	assert.Equal(t, "extra", items[2].Value())
}

// TestMergeColumnsByName tests the built-in by-name handler on
// tables/*/columns: a later plugin redeclaring a column with one new
// attribute preserves the earlier attributes and moves provenance to
// the later plugin.
func TestMergeColumnsByName(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, `
tables:
  User:
    columns:
      - name: id
        type: Integer
        primary_key: true
      - name: email
        type: String
`)))
	require.NoError(t, m.Merge("audit", decode(t, `
tables:
  User:
    columns:
      - name: email
        default: ""
      - name: created_at
        type: DateTime
`)))

	tables, _ := m.Document().Get("tables")
	user, _ := tables.Get("User")
	columns, _ := user.Get("columns")
	items := columns.Items()
	require.Len(t, items, 3)

	// id untouched.
	assert.Equal(t, "core", items[0].Plugin())

	// email extended in place: earlier attributes preserved, new
	// attribute added, provenance moved to the later plugin.
	email := items[1]
	typ, ok := email.Get("type")
	require.True(t, ok)
	assert.Equal(t, "String", typ.Value())
	def, ok := email.Get("default")
	require.True(t, ok)
	assert.Equal(t, "", def.Value())
	assert.Equal(t, "audit", email.Plugin())

	// created_at appended by audit.
	assert.Equal(t, "audit", items[2].Plugin())

	assert.Equal(t, []string{"core", "audit"}, m.History().Contributors("tables/User/columns/email"))
}

// TestMergeTypeColumnsByName tests that the by-name handler is also
// registered for types/*/columns.
func TestMergeTypeColumnsByName(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, "types:\n  Address:\n    columns:\n      - name: street\n        type: String\n")))
	require.NoError(t, m.Merge("geo", decode(t, "types:\n  Address:\n    columns:\n      - name: street\n        length: 120\n")))

	types, _ := m.Document().Get("types")
	address, _ := types.Get("Address")
	columns, _ := address.Get("columns")
	require.Len(t, columns.Items(), 1)

	street := columns.Items()[0]
	typ, _ := street.Get("type")
	assert.Equal(t, "String", typ.Value())
	length, _ := street.Get("length")
	assert.Equal(t, 120, length.Value())
	assert.Equal(t, "geo", street.Plugin())
}

// TestHandleListExactBeatsPattern tests handler precedence: an exact
// path registration wins over a glob pattern.
func TestHandleListExactBeatsPattern(t *testing.T) {
	t.Parallel()

	var called string
	m := document.NewMerger()
	m.HandleList("hooks/**", func(_ *document.Merger, _ document.Path, existing, _ *document.Node, _ string) (*document.Node, error) {
		called = "pattern"
		return existing, nil
	})
	m.HandleList("hooks/before", func(_ *document.Merger, _ document.Path, existing, _ *document.Node, _ string) (*document.Node, error) {
		called = "exact"
		return existing, nil
	})

	require.NoError(t, m.Merge("core", decode(t, "hooks:\n  before: [a]\n")))
	require.NoError(t, m.Merge("extra", decode(t, "hooks:\n  before: [b]\n")))
	assert.Equal(t, "exact", called)

	require.NoError(t, m.Merge("extra", decode(t, "hooks:\n  after: [c]\n")))
	require.NoError(t, m.Merge("late", decode(t, "hooks:\n  after: [d]\n")))
	assert.Equal(t, "pattern", called)
}

// TestHistory tests the path contribution log.
func TestHistory(t *testing.T) {
	t.Parallel()

	m := document.NewMerger()
	require.NoError(t, m.Merge("core", decode(t, "tables:\n  User:\n    label: user\n")))
	require.NoError(t, m.Merge("audit", decode(t, "tables:\n  User:\n    audited: true\n")))

	h := m.History()
	assert.Equal(t, []string{"core", "audit"}, h.Contributors("tables/User"))
	assert.Equal(t, "audit", h.Last("tables/User"))
	assert.Equal(t, []string{"core"}, h.Contributors("tables/User/label"))
	assert.Empty(t, h.Contributors("tables/Unknown"))
	assert.Equal(t, "", h.Last("tables/Unknown"))

	// Duplicate contributions keep the original position.
	require.NoError(t, m.Merge("core", decode(t, "tables:\n  User:\n    label: user\n")))
	assert.Equal(t, []string{"core", "audit"}, h.Contributors("tables/User"))

	filtered := h.Filter("tables/User/*")
	assert.Contains(t, filtered, "tables/User/label")
	assert.Contains(t, filtered, "tables/User/audited")
	assert.NotContains(t, filtered, "tables/User")
}
