package document

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for merge failures. Use errors.Is to match them
// regardless of the concrete error type.
var (
	// ErrTypeConflict is returned when two plugins declare values of
	// different shapes at the same path.
	ErrTypeConflict = errors.New("mosaic: merge type conflict")

	// ErrScalarOverride is returned in strict mode when a plugin
	// overrides another plugin's scalar value.
	ErrScalarOverride = errors.New("mosaic: scalar override")
)

// TypeConflictError reports a shape mismatch (map vs list vs scalar)
// between two plugins at one document path.
type TypeConflictError struct {
	Path           string
	ExistingKind   Kind
	IncomingKind   Kind
	ExistingPlugin string
	IncomingPlugin string
}

// NewTypeConflictError creates a TypeConflictError.
func NewTypeConflictError(path string, existing, incoming Kind, existingPlugin, incomingPlugin string) *TypeConflictError {
	return &TypeConflictError{
		Path:           path,
		ExistingKind:   existing,
		IncomingKind:   incoming,
		ExistingPlugin: existingPlugin,
		IncomingPlugin: incomingPlugin,
	}
}

// Error implements the error interface.
func (e *TypeConflictError) Error() string {
	var sb strings.Builder
	sb.WriteString("mosaic: merge conflict at ")
	fmt.Fprintf(&sb, "%q: plugin %q provides %s", e.Path, e.IncomingPlugin, e.IncomingKind)
	if e.ExistingPlugin != "" {
		fmt.Fprintf(&sb, ", plugin %q declared %s", e.ExistingPlugin, e.ExistingKind)
	} else {
		fmt.Fprintf(&sb, ", previously declared as %s", e.ExistingKind)
	}
	return sb.String()
}

// Is enables errors.Is(err, ErrTypeConflict).
func (e *TypeConflictError) Is(target error) bool {
	return target == ErrTypeConflict
}

// ScalarOverrideError reports a scalar value silently replaced by a
// later plugin. It is fatal only when the merger runs in strict mode.
type ScalarOverrideError struct {
	Path     string
	Plugin   string
	Previous string
	Old      any
	New      any
}

// NewScalarOverrideError creates a ScalarOverrideError.
func NewScalarOverrideError(path, plugin, previous string, old, new any) *ScalarOverrideError {
	return &ScalarOverrideError{
		Path:     path,
		Plugin:   plugin,
		Previous: previous,
		Old:      old,
		New:      new,
	}
}

// Error implements the error interface.
func (e *ScalarOverrideError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mosaic: plugin %q overrides %q: %v -> %v", e.Plugin, e.Path, e.Old, e.New)
	if e.Previous != "" {
		fmt.Fprintf(&sb, " (declared by %q)", e.Previous)
	}
	return sb.String()
}

// Is enables errors.Is(err, ErrScalarOverride).
func (e *ScalarOverrideError) Is(target error) bool {
	return target == ErrScalarOverride
}
