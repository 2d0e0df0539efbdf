package load

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for plugin discovery and ordering. Use errors.Is to
// match them regardless of the concrete error type.
var (
	// ErrDuplicatePlugin is returned when two directories declare the
	// same plugin name.
	ErrDuplicatePlugin = errors.New("mosaic: duplicate plugin")

	// ErrUnknownDependency is returned when a plugin depends on a
	// name no discovered plugin carries.
	ErrUnknownDependency = errors.New("mosaic: unknown dependency")

	// ErrCircularDependency is returned when the dependency graph
	// contains a cycle.
	ErrCircularDependency = errors.New("mosaic: circular dependency")
)

// DuplicatePluginError reports two plugin directories sharing a name.
type DuplicatePluginError struct {
	Name        string
	Dir         string
	ExistingDir string
}

// NewDuplicatePluginError creates a DuplicatePluginError.
func NewDuplicatePluginError(name, dir, existingDir string) *DuplicatePluginError {
	return &DuplicatePluginError{Name: name, Dir: dir, ExistingDir: existingDir}
}

// Error implements the error interface.
func (e *DuplicatePluginError) Error() string {
	return fmt.Sprintf("mosaic: plugin %q in %s already loaded from %s", e.Name, e.Dir, e.ExistingDir)
}

// Is enables errors.Is(err, ErrDuplicatePlugin).
func (e *DuplicatePluginError) Is(target error) bool {
	return target == ErrDuplicatePlugin
}

// UnknownDependencyError reports dependency names a plugin declared
// that no discovered plugin provides.
type UnknownDependencyError struct {
	Plugin  string
	Missing []string
}

// NewUnknownDependencyError creates an UnknownDependencyError.
func NewUnknownDependencyError(plugin string, missing []string) *UnknownDependencyError {
	return &UnknownDependencyError{Plugin: plugin, Missing: missing}
}

// Error implements the error interface.
func (e *UnknownDependencyError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mosaic: plugin %q depends on unknown plugin", e.Plugin)
	if len(e.Missing) > 1 {
		sb.WriteString("s")
	}
	sb.WriteString(" ")
	for i, m := range e.Missing {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", m)
	}
	return sb.String()
}

// Is enables errors.Is(err, ErrUnknownDependency).
func (e *UnknownDependencyError) Is(target error) bool {
	return target == ErrUnknownDependency
}

// CircularDependencyError reports the plugins left unordered after
// Kahn's algorithm exhausted every dependency-free plugin; together
// they contain at least one cycle.
type CircularDependencyError struct {
	Plugins []string
}

// NewCircularDependencyError creates a CircularDependencyError.
func NewCircularDependencyError(plugins []string) *CircularDependencyError {
	return &CircularDependencyError{Plugins: plugins}
}

// Error implements the error interface.
func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("mosaic: circular dependency between plugins: %s", strings.Join(e.Plugins, ", "))
}

// Is enables errors.Is(err, ErrCircularDependency).
func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}
