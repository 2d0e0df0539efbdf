package gen

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	core := testPlugin(t, "core", nil, `
tables:
  User:
    columns:
      - name: id
        type: Integer
        primary_key: true
`)
	audit := testPlugin(t, "audit", []string{"core"}, `
types:
  Money:
    base: Numeric
tables:
  User:
    columns:
      - name: created_at
        type: DateTime
        nullable: true
  Event:
    columns:
      - name: id
        type: Integer
        primary_key: true
      - name: user_id
        type: User.id
`)
	s, err := Compose(testSet(t, core, audit))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "schema.snapshot")
	require.NoError(t, SaveSnapshot(path, s))

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.False(t, snap.GeneratedAt.IsZero())

	require.Len(t, snap.Plugins, 2)
	assert.Equal(t, "core", snap.Plugins[0].Name, "plugins recorded in dependency order")
	assert.Equal(t, "audit", snap.Plugins[1].Name)
	assert.Equal(t, []string{"core"}, snap.Plugins[1].DependsOn)

	// Built-ins are left out; only plugin-declared types are recorded.
	require.Len(t, snap.Types, 1)
	assert.Equal(t, TypeSnapshot{Name: "Money", Plugin: "audit", Base: "Numeric", Native: "float64"}, snap.Types[0])

	require.Len(t, snap.Tables, 2)
	user := snap.Tables[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, "user", user.PhysicalName)
	assert.Equal(t, []string{"core", "audit"}, user.Plugins)
	require.Len(t, user.Columns, 2)
	assert.Equal(t, "Integer", user.Columns[0].Type)
	assert.Equal(t, "int", user.Columns[0].Native)
	assert.True(t, user.Columns[0].PrimaryKey)
	assert.Equal(t, "time.Time", user.Columns[1].Native)
	assert.True(t, user.Columns[1].Nullable)
	assert.Equal(t, "audit", user.Columns[1].Plugin)

	event := snap.Tables[1]
	require.Len(t, event.Columns, 2)
	assert.Equal(t, "User.id", event.Columns[1].ForeignKey)
	assert.Equal(t, "Integer", event.Columns[1].Type, "foreign keys snapshot the resolved type")
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.snapshot"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read snapshot")
}
