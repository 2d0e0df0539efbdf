package load_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicorm/mosaic/compiler/load"
)

// writePlugin creates a plugin directory under root with the given
// manifest body and extra files.
func writePlugin(t *testing.T, root, name, manifest string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, load.ManifestFile), []byte(manifest), 0o644))
	for fname, body := range files {
		path := filepath.Join(dir, fname)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

// TestLoadPlugin tests reading a single plugin directory.
func TestLoadPlugin(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := writePlugin(t, root, "core", `
name: core
version: 1.2.0
description: base entities
author: mosaic
license: MIT
depends_on: []
source_imports:
  - modernc.org/sqlite
`, map[string]string{
		"entities.yaml":     "tables:\n  User:\n    columns:\n      - name: id\n        type: Integer\n",
		"types.yml":         "types:\n  Money:\n    base: Numeric\n",
		"hooks.go":          "package core\n",
		"sub/extra.yaml":    "tables:\n  Extra:\n    columns: []\n",
		"notes.txt":         "ignored\n",
		"sub/config.yaml.x": "not a manifest\n",
	})

	p, err := load.LoadPlugin(dir)
	require.NoError(t, err)
	assert.Equal(t, "core", p.Name)
	assert.Equal(t, dir, p.Dir)
	assert.Equal(t, "1.2.0", p.Manifest.Version)
	assert.Equal(t, "base entities", p.Manifest.Description)
	assert.Equal(t, []string{"modernc.org/sqlite"}, p.Manifest.SourceImports)

	// Declarations come from every *.yaml/*.yml except the manifest,
	// including nested directories.
	assert.Len(t, p.Declarations, 3)
	assert.Equal(t, []string{filepath.Join(dir, "hooks.go")}, p.SourceRefs)
	assert.False(t, p.LastModified.IsZero())
}

// TestLoadPluginDefaults tests the manifest name and version defaults.
func TestLoadPluginDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := writePlugin(t, root, "audit", "description: bare\n", nil)

	p, err := load.LoadPlugin(dir)
	require.NoError(t, err)
	assert.Equal(t, "audit", p.Name)
	assert.Equal(t, load.DefaultVersion, p.Manifest.Version)
	assert.Empty(t, p.Declarations)
}

// TestLoadPluginDependsOnScalar tests that depends_on accepts both a
// single string and a list.
func TestLoadPluginDependsOnScalar(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	scalar := writePlugin(t, root, "a", "depends_on: core\n", nil)
	list := writePlugin(t, root, "b", "depends_on: [core, auth, core]\n", nil)

	p, err := load.LoadPlugin(scalar)
	require.NoError(t, err)
	assert.Equal(t, []string{"core"}, p.DependsOn())

	p, err = load.LoadPlugin(list)
	require.NoError(t, err)
	// Duplicates are normalized away.
	assert.Equal(t, []string{"core", "auth"}, p.DependsOn())
}

// TestLoadPluginErrors tests manifest failure modes.
func TestLoadPluginErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	_, err := load.LoadPlugin(filepath.Join(root, "missing"))
	assert.Error(t, err)

	bad := writePlugin(t, root, "bad", "depends_on:\n  core: true\n", nil)
	_, err = load.LoadPlugin(bad)
	assert.Error(t, err)

	broken := writePlugin(t, root, "broken", "name: broken\n", map[string]string{
		"model.yaml": "tables: [unclosed",
	})
	_, err = load.LoadPlugin(broken)
	assert.Error(t, err)
}

// TestDiscover tests plugin discovery across multiple root
// directories.
func TestDiscover(t *testing.T) {
	t.Parallel()

	rootA := t.TempDir()
	rootB := t.TempDir()
	writePlugin(t, rootA, "core", "name: core\n", nil)
	writePlugin(t, rootA, "auth", "name: auth\ndepends_on: core\n", nil)
	writePlugin(t, rootB, "billing", "name: billing\n", nil)
	// A directory without a manifest is not a plugin.
	require.NoError(t, os.MkdirAll(filepath.Join(rootA, "docs"), 0o755))
	// Loose files in a root are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "README.md"), []byte("x"), 0o644))

	set, err := load.Discover([]string{rootA, rootB})
	require.NoError(t, err)
	require.Equal(t, 3, set.Len())

	// Roots are scanned in order, subdirectories lexically.
	var names []string
	for _, p := range set.Plugins() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"auth", "core", "billing"}, names)

	core, ok := set.Get("core")
	require.True(t, ok)
	assert.Equal(t, "core", core.Name)
	_, ok = set.Get("nope")
	assert.False(t, ok)
}

// TestDiscoverDuplicate tests that two plugins sharing a name fail
// with DuplicatePluginError.
func TestDiscoverDuplicate(t *testing.T) {
	t.Parallel()

	rootA := t.TempDir()
	rootB := t.TempDir()
	writePlugin(t, rootA, "core", "name: core\n", nil)
	writePlugin(t, rootB, "core-fork", "name: core\n", nil)

	_, err := load.Discover([]string{rootA, rootB})
	require.Error(t, err)
	assert.True(t, errors.Is(err, load.ErrDuplicatePlugin))

	var de *load.DuplicatePluginError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "core", de.Name)
}

// TestDiscoverMissingRoot tests that a missing root directory is an
// error rather than a silent skip.
func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := load.Discover([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

// TestLatestModified tests the freshness input for the regeneration
// check.
func TestLatestModified(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writePlugin(t, root, "core", "name: core\n", map[string]string{"a.yaml": "tables: {}\n"})
	dir := writePlugin(t, root, "extra", "name: extra\n", map[string]string{"b.yaml": "tables: {}\n"})

	newest := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "b.yaml"), newest, newest))

	set, err := load.Discover([]string{root})
	require.NoError(t, err)
	assert.WithinDuration(t, newest, set.LatestModified(), time.Second)
}

// TestSourceRefs tests that plugin-owned source files are exported in
// dependency order once sorted.
func TestSourceRefs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writePlugin(t, root, "alpha", "name: alpha\ndepends_on: beta\n", map[string]string{"alpha.go": "package alpha\n"})
	writePlugin(t, root, "beta", "name: beta\n", map[string]string{"beta.go": "package beta\n"})

	set, err := load.Discover([]string{root})
	require.NoError(t, err)
	require.NoError(t, set.Sort())

	refs := set.SourceRefs()
	require.Len(t, refs, 2)
	assert.Equal(t, "beta.go", filepath.Base(refs[0]))
	assert.Equal(t, "alpha.go", filepath.Base(refs[1]))
}
