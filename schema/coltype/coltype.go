// Package coltype enumerates the column types the storage layer
// supports out of the box. The set is a fixed registration table built
// at compile time; plugins derive their own types from these by
// inheritance.
package coltype

// Native describes the Go value a column type maps to in generated
// code.
type Native struct {
	// Ident is the Go type literal, e.g. "string" or "Time".
	Ident string
	// PkgPath is the import path qualifying Ident, empty for
	// predeclared types.
	PkgPath string
}

// IsZero reports whether the native type is unset.
func (n Native) IsZero() bool { return n.Ident == "" }

// String returns the type as it appears in Go source.
func (n Native) String() string {
	if n.PkgPath == "" {
		return n.Ident
	}
	// Qualify with the package's base name.
	base := n.PkgPath
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	return base + "." + n.Ident
}

// Type is one built-in column type.
type Type struct {
	Name   string
	Native Native
}

// BuiltIns returns the built-in column types in a stable order. The
// slice is freshly allocated on each call; callers may keep it.
func BuiltIns() []Type {
	return []Type{
		{Name: "BigInteger", Native: Native{Ident: "int64"}},
		{Name: "Boolean", Native: Native{Ident: "bool"}},
		{Name: "Date", Native: Native{Ident: "Time", PkgPath: "time"}},
		{Name: "DateTime", Native: Native{Ident: "Time", PkgPath: "time"}},
		{Name: "Double", Native: Native{Ident: "float64"}},
		{Name: "Float", Native: Native{Ident: "float64"}},
		{Name: "Integer", Native: Native{Ident: "int"}},
		{Name: "Interval", Native: Native{Ident: "Duration", PkgPath: "time"}},
		{Name: "JSON", Native: Native{Ident: "RawMessage", PkgPath: "encoding/json"}},
		{Name: "LargeBinary", Native: Native{Ident: "[]byte"}},
		{Name: "Numeric", Native: Native{Ident: "float64"}},
		{Name: "SmallInteger", Native: Native{Ident: "int16"}},
		{Name: "String", Native: Native{Ident: "string"}},
		{Name: "Text", Native: Native{Ident: "string"}},
		{Name: "Time", Native: Native{Ident: "Time", PkgPath: "time"}},
		{Name: "Unicode", Native: Native{Ident: "string"}},
		{Name: "UnicodeText", Native: Native{Ident: "string"}},
		{Name: "UUID", Native: Native{Ident: "UUID", PkgPath: "github.com/google/uuid"}},
	}
}
