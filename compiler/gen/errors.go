// Package gen resolves composed plugin declarations into a Schema and
// generates the storage-layer source module for it.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution and generation failures.
var (
	// ErrInvalidSchema indicates a malformed declaration document.
	ErrInvalidSchema = errors.New("mosaic: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("mosaic: missing configuration")
	// ErrDuplicateType indicates that two plugins declared the same type name.
	ErrDuplicateType = errors.New("mosaic: duplicate type")
	// ErrUnknownBaseType indicates a reference to a type that does not exist.
	ErrUnknownBaseType = errors.New("mosaic: unknown base type")
	// ErrInheritanceCycle indicates a cyclic type inheritance chain.
	ErrInheritanceCycle = errors.New("mosaic: inheritance cycle")
	// ErrDuplicateColumn indicates two columns with the same name on one table.
	ErrDuplicateColumn = errors.New("mosaic: duplicate column")
	// ErrUnknownForeignTable indicates a foreign key to a table that does not exist.
	ErrUnknownForeignTable = errors.New("mosaic: unknown foreign table")
	// ErrInvalidForeignReference indicates a foreign key that cannot be resolved.
	ErrInvalidForeignReference = errors.New("mosaic: invalid foreign reference")
	// ErrInvalidManyToMany indicates a malformed or unresolvable many-to-many link.
	ErrInvalidManyToMany = errors.New("mosaic: invalid many-to-many")
)

// SchemaError represents a malformed declaration that does not fall
// under a more specific error type.
type SchemaError struct {
	Table   string // table name (if applicable)
	Column  string // column name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("mosaic: schema error")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(table, column, message string, cause error) *SchemaError {
	return &SchemaError{
		Table:   table,
		Column:  column,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("mosaic: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("mosaic: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// DuplicateTypeError reports a type name declared by more than one
// plugin. Type names share one namespace across the whole plugin set.
type DuplicateTypeError struct {
	Name           string // type name
	Plugin         string // plugin attempting the redeclaration
	ExistingPlugin string // plugin (or BuiltInPlugin) that declared it first
}

// Error implements the error interface.
func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("mosaic: duplicate type %q: declared by plugin %q, already declared by %q",
		e.Name, e.Plugin, e.ExistingPlugin)
}

// Is reports whether the target matches the sentinel error for DuplicateTypeError.
func (e *DuplicateTypeError) Is(target error) bool {
	return target == ErrDuplicateType
}

// NewDuplicateTypeError creates a new DuplicateTypeError.
func NewDuplicateTypeError(name, plugin, existing string) *DuplicateTypeError {
	return &DuplicateTypeError{
		Name:           name,
		Plugin:         plugin,
		ExistingPlugin: existing,
	}
}

// UnknownBaseTypeError reports an inherits/base reference, or a table
// mixin reference, naming a type that is not in the catalog.
type UnknownBaseTypeError struct {
	Type   string // declaring type or table name
	Base   string // missing type name, empty when the type declares no base at all
	Plugin string // declaring plugin
}

// Error implements the error interface.
func (e *UnknownBaseTypeError) Error() string {
	var b strings.Builder
	b.WriteString("mosaic: ")
	if e.Base == "" {
		fmt.Fprintf(&b, "type %q declares neither a base type nor columns", e.Type)
	} else {
		fmt.Fprintf(&b, "unknown base type %q for %q", e.Base, e.Type)
	}
	if e.Plugin != "" {
		fmt.Fprintf(&b, " (plugin %q)", e.Plugin)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnknownBaseTypeError.
func (e *UnknownBaseTypeError) Is(target error) bool {
	return target == ErrUnknownBaseType
}

// NewUnknownBaseTypeError creates a new UnknownBaseTypeError.
func NewUnknownBaseTypeError(typeName, base, plugin string) *UnknownBaseTypeError {
	return &UnknownBaseTypeError{
		Type:   typeName,
		Base:   base,
		Plugin: plugin,
	}
}

// InheritanceCycleError reports a cycle in type inheritance or in
// nested composite-column expansion.
type InheritanceCycleError struct {
	Types []string // the cycle, in walk order
}

// Error implements the error interface.
func (e *InheritanceCycleError) Error() string {
	return fmt.Sprintf("mosaic: inheritance cycle through types [%s]", strings.Join(e.Types, " -> "))
}

// Is reports whether the target matches the sentinel error for InheritanceCycleError.
func (e *InheritanceCycleError) Is(target error) bool {
	return target == ErrInheritanceCycle
}

// NewInheritanceCycleError creates a new InheritanceCycleError.
func NewInheritanceCycleError(types []string) *InheritanceCycleError {
	return &InheritanceCycleError{Types: types}
}

// DuplicateColumnError reports two columns resolving to the same name
// on one table, including collisions introduced by mixin expansion.
type DuplicateColumnError struct {
	Table  string
	Column string
	Plugin string // plugin contributing the colliding column, if known
}

// Error implements the error interface.
func (e *DuplicateColumnError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mosaic: duplicate column %q on table %q", e.Column, e.Table)
	if e.Plugin != "" {
		fmt.Fprintf(&b, " (plugin %q)", e.Plugin)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for DuplicateColumnError.
func (e *DuplicateColumnError) Is(target error) bool {
	return target == ErrDuplicateColumn
}

// NewDuplicateColumnError creates a new DuplicateColumnError.
func NewDuplicateColumnError(table, column, plugin string) *DuplicateColumnError {
	return &DuplicateColumnError{
		Table:  table,
		Column: column,
		Plugin: plugin,
	}
}

// UnknownForeignTableError reports a foreign key whose target table is
// not part of the resolved schema.
type UnknownForeignTableError struct {
	Table  string // referencing table
	Column string // referencing column
	Target string // missing table name
}

// Error implements the error interface.
func (e *UnknownForeignTableError) Error() string {
	return fmt.Sprintf("mosaic: unknown foreign table %q referenced by %s.%s",
		e.Target, e.Table, e.Column)
}

// Is reports whether the target matches the sentinel error for UnknownForeignTableError.
func (e *UnknownForeignTableError) Is(target error) bool {
	return target == ErrUnknownForeignTable
}

// NewUnknownForeignTableError creates a new UnknownForeignTableError.
func NewUnknownForeignTableError(table, column, target string) *UnknownForeignTableError {
	return &UnknownForeignTableError{
		Table:  table,
		Column: column,
		Target: target,
	}
}

// InvalidForeignReferenceError reports a foreign key that names an
// existing table but cannot be resolved against it, or a type string
// that is neither a known type nor a table.column reference.
type InvalidForeignReferenceError struct {
	Table   string // referencing table
	Column  string // referencing column
	Ref     string // the reference as declared
	Message string
}

// Error implements the error interface.
func (e *InvalidForeignReferenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mosaic: invalid foreign reference %q on %s.%s", e.Ref, e.Table, e.Column)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for InvalidForeignReferenceError.
func (e *InvalidForeignReferenceError) Is(target error) bool {
	return target == ErrInvalidForeignReference
}

// NewInvalidForeignReferenceError creates a new InvalidForeignReferenceError.
func NewInvalidForeignReferenceError(table, column, ref, message string) *InvalidForeignReferenceError {
	return &InvalidForeignReferenceError{
		Table:   table,
		Column:  column,
		Ref:     ref,
		Message: message,
	}
}

// InvalidManyToManyError reports a malformed many_to_many declaration
// or a many-to-many target that cannot be resolved.
type InvalidManyToManyError struct {
	Table   string // the join table
	Ref     string // offending target reference, if any
	Message string
}

// Error implements the error interface.
func (e *InvalidManyToManyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mosaic: invalid many-to-many on table %q", e.Table)
	if e.Ref != "" {
		fmt.Fprintf(&b, " (target %q)", e.Ref)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for InvalidManyToManyError.
func (e *InvalidManyToManyError) Is(target error) bool {
	return target == ErrInvalidManyToMany
}

// NewInvalidManyToManyError creates a new InvalidManyToManyError.
func NewInvalidManyToManyError(table, ref, message string) *InvalidManyToManyError {
	return &InvalidManyToManyError{
		Table:   table,
		Ref:     ref,
		Message: message,
	}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsResolutionError reports whether the error belongs to the schema
// resolution taxonomy, i.e. it was produced while turning composed
// declarations into a Schema rather than while reading or merging
// documents.
func IsResolutionError(err error) bool {
	for _, sentinel := range []error{
		ErrDuplicateType,
		ErrUnknownBaseType,
		ErrInheritanceCycle,
		ErrDuplicateColumn,
		ErrUnknownForeignTable,
		ErrInvalidForeignReference,
		ErrInvalidManyToMany,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
