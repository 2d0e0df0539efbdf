package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreEntities = `
tables:
  User:
    columns:
      - name: id
        type: Integer
        primary_key: true
        autoincrement: true
      - name: name
        type: String
        length: 80
  Book:
    columns:
      - name: id
        type: Integer
        primary_key: true
        autoincrement: true
      - name: title
        type: String
      - name: owner_id
        type: User.id
        nullable: true
`

const auditEntities = `
tables:
  User:
    columns:
      - name: created_at
        type: DateTime
        nullable: true
`

// writeProject lays out a two-plugin project in dir and returns the
// path of core's declaration file for later edits.
func writeProject(t *testing.T, dir string) string {
	t.Helper()
	cfg := "plugins:\n  paths: [plugins]\ngenerate:\n  target: model\n  package: model\nlog:\n  level: warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mosaic.yaml"), []byte(cfg), 0o644))

	core := filepath.Join(dir, "plugins", "core")
	require.NoError(t, os.MkdirAll(core, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(core, "config.yaml"), []byte("name: core\nversion: 1.0.0\n"), 0o644))
	decl := filepath.Join(core, "entities.yaml")
	require.NoError(t, os.WriteFile(decl, []byte(coreEntities), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(core, "hooks.go"), []byte("package core\n"), 0o644))

	audit := filepath.Join(dir, "plugins", "audit")
	require.NoError(t, os.MkdirAll(audit, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(audit, "config.yaml"), []byte("name: audit\ndepends_on: core\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(audit, "audit.yaml"), []byte(auditEntities), 0o644))
	return decl
}

// runCmd executes the root command in-process and captures its output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// chdir moves the test into dir and restores the original working
// directory on cleanup. testing.T.Chdir needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

// touchFuture bumps a file's modification time past any artifact
// written in the same test, sidestepping filesystem mtime granularity.
func touchFuture(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	decl := writeProject(t, dir)
	chdir(t, dir)

	out, err := runCmd(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+filepath.Join("model", "model.go"))
	assert.Contains(t, out, "2 tables from 2 plugins")

	src, err := os.ReadFile(filepath.Join(dir, "model", "model.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package model")
	assert.Contains(t, string(src), "type User struct")
	assert.Contains(t, string(src), "type Book struct")
	assert.FileExists(t, filepath.Join(dir, "model", "model.snap"))

	// A second run hits the freshness check.
	out, err = runCmd(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	// Newer plugin files regenerate.
	touchFuture(t, decl)
	out, err = runCmd(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
}

func TestGenerateGuardsBreakingChanges(t *testing.T) {
	dir := t.TempDir()
	decl := writeProject(t, dir)
	chdir(t, dir)

	_, err := runCmd(t, "generate")
	require.NoError(t, err)

	// Drop the name column from core's declaration.
	dropped := `
tables:
  User:
    columns:
      - name: id
        type: Integer
        primary_key: true
        autoincrement: true
  Book:
    columns:
      - name: id
        type: Integer
        primary_key: true
        autoincrement: true
      - name: title
        type: String
      - name: owner_id
        type: User.id
        nullable: true
`
	require.NoError(t, os.WriteFile(decl, []byte(dropped), 0o644))
	touchFuture(t, decl)

	_, err = runCmd(t, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "breaks the previous run")
	assert.Contains(t, err.Error(), "will be dropped")

	out, err := runCmd(t, "generate", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdir(t, dir)

	// Without a snapshot the schema is composed in memory.
	out, err := runCmd(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "Plugins:")
	assert.Contains(t, out, "core 1.0.0")
	assert.Contains(t, out, `User (table "user", plugins core, audit)`)
	assert.Contains(t, out, "-> User.id")
	assert.NoFileExists(t, filepath.Join(dir, "model", "model.snap"), "inspect never writes")

	// After generate the snapshot is reused.
	_, err = runCmd(t, "generate")
	require.NoError(t, err)
	fromSnap, err := runCmd(t, "inspect")
	require.NoError(t, err)
	assert.Equal(t, out, fromSnap)
}

func TestInspectHistory(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdir(t, dir)

	out, err := runCmd(t, "inspect", "--path", "tables/User")
	require.NoError(t, err)
	assert.Contains(t, out, "tables/User: core, audit")

	_, err = runCmd(t, "inspect", "--path", "nothing/**")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document paths match")
}

func TestPluginsCommand(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdir(t, dir)

	out, err := runCmd(t, "plugins")
	require.NoError(t, err)
	core := "core 1.0.0"
	audit := "audit 0.0.1 (depends on core)"
	assert.Contains(t, out, core)
	assert.Contains(t, out, audit)
	assert.Less(t, bytes.Index([]byte(out), []byte(core)), bytes.Index([]byte(out), []byte(audit)), "dependency order")
	assert.NotContains(t, out, "hooks.go")

	out, err = runCmd(t, "plugins", "--sources")
	require.NoError(t, err)
	assert.Contains(t, out, "hooks.go")
}

func TestCreateCommand(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdir(t, dir)

	dsn := filepath.Join(dir, "library.db")
	out, err := runCmd(t, "create", "--dialect", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "applied 2 tables to sqlite")

	// Creation is additive and safe to repeat.
	_, err = runCmd(t, "create", "--dialect", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
}

func TestCreateCommandUnknownDialect(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdir(t, dir)

	_, err := runCmd(t, "create", "--dialect", "oracle", "--dsn", "x")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mosaic version")
}
