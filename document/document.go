// Package document models plugin declaration documents as trees of
// map, list, and scalar nodes, and merges trees from multiple plugins
// into one composed document with per-node plugin provenance.
package document

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind reports the shape of a Node.
type Kind uint8

const (
	// Invalid is the zero Kind.
	Invalid Kind = iota
	// Map is a mapping node with ordered keys.
	Map
	// List is a sequence node.
	List
	// Scalar is a leaf node holding a Go value.
	Scalar
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Map:
		return "map"
	case List:
		return "list"
	case Scalar:
		return "scalar"
	default:
		return "invalid"
	}
}

// Path locates a node in a document. Segments are map keys, joined
// with "/" in messages and handler patterns.
type Path []string

// Child returns a new path extended with the given key. The returned
// path never aliases the receiver's backing array.
func (p Path) Child(key string) Path {
	c := make(Path, len(p), len(p)+1)
	copy(c, p)
	return append(c, key)
}

// String returns the slash-joined form of the path.
func (p Path) String() string { return strings.Join(p, "/") }

// Node is one value in a declaration document. A node is exactly one
// of map, list, or scalar; map nodes preserve key declaration order.
// Map nodes (and map-shaped list items) carry the name of the plugin
// that contributed them.
type Node struct {
	kind   Kind
	keys   []string
	fields map[string]*Node
	items  []*Node
	value  any
	plugin string
}

// NewMap returns an empty map node.
func NewMap() *Node {
	return &Node{kind: Map, fields: make(map[string]*Node)}
}

// NewList returns a list node holding the given items.
func NewList(items ...*Node) *Node {
	return &Node{kind: List, items: items}
}

// NewScalar returns a scalar node holding v.
func NewScalar(v any) *Node {
	return &Node{kind: Scalar, value: v}
}

// Kind reports the node's shape.
func (n *Node) Kind() Kind { return n.kind }

// Plugin returns the provenance tag, or "" when untagged.
func (n *Node) Plugin() string { return n.plugin }

// SetPlugin records the contributing plugin.
func (n *Node) SetPlugin(name string) { n.plugin = name }

// Value returns the scalar value. It is nil for non-scalar nodes.
func (n *Node) Value() any {
	if n.kind != Scalar {
		return nil
	}
	return n.value
}

// Keys returns the map keys in declaration order.
func (n *Node) Keys() []string { return n.keys }

// Get returns the child node stored under key.
func (n *Node) Get(key string) (*Node, bool) {
	if n.kind != Map {
		return nil, false
	}
	c, ok := n.fields[key]
	return c, ok
}

// Set stores child under key, preserving the position of an existing
// key and appending new keys at the end.
func (n *Node) Set(key string, child *Node) {
	if n.kind != Map {
		return
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
}

// Delete removes key from a map node.
func (n *Node) Delete(key string) {
	if n.kind != Map {
		return
	}
	if _, ok := n.fields[key]; !ok {
		return
	}
	delete(n.fields, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

// Items returns the elements of a list node.
func (n *Node) Items() []*Node {
	if n.kind != List {
		return nil
	}
	return n.items
}

// Append adds items to a list node.
func (n *Node) Append(items ...*Node) {
	if n.kind != List {
		return
	}
	n.items = append(n.items, items...)
}

// Len returns the number of map keys or list items.
func (n *Node) Len() int {
	switch n.kind {
	case Map:
		return len(n.keys)
	case List:
		return len(n.items)
	default:
		return 0
	}
}

// Clone returns a deep copy of the node, provenance tags included.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{kind: n.kind, value: n.value, plugin: n.plugin}
	switch n.kind {
	case Map:
		c.fields = make(map[string]*Node, len(n.fields))
		c.keys = make([]string, len(n.keys))
		copy(c.keys, n.keys)
		for k, v := range n.fields {
			c.fields[k] = v.Clone()
		}
	case List:
		c.items = make([]*Node, len(n.items))
		for i, it := range n.items {
			c.items[i] = it.Clone()
		}
	}
	return c
}

// Equal reports structural equality of two nodes. Provenance tags are
// not structure and do not participate in the comparison.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Map:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for k, av := range a.fields {
			bv, ok := b.fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case List:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a.value, b.value)
	}
}

// Interface converts the node back to plain Go values: map[string]any
// for maps (key order is lost), []any for lists, and the held value
// for scalars.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case Map:
		m := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			m[k] = n.fields[k].Interface()
		}
		return m
	case List:
		s := make([]any, len(n.items))
		for i, it := range n.items {
			s[i] = it.Interface()
		}
		return s
	default:
		return n.value
	}
}

// Parse reads a single YAML document from r.
func Parse(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mosaic: read document: %w", err)
	}
	return Decode(data)
}

// ParseFile reads a single YAML document from the file at path.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mosaic: read document %s: %w", path, err)
	}
	n, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("mosaic: parse %s: %w", path, err)
	}
	return n, nil
}

// Decode unmarshals YAML data into a node tree. Mapping key order is
// preserved, which later keeps composed tables in declaration order.
func Decode(data []byte) (*Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("mosaic: decode document: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return NewMap(), nil
	}
	return fromYAML(root.Content[0])
}

func fromYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.MappingNode:
		n := NewMap()
		for i := 0; i+1 < len(y.Content); i += 2 {
			var key string
			if err := y.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("mosaic: decode map key at line %d: %w", y.Content[i].Line, err)
			}
			child, err := fromYAML(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			n.Set(key, child)
		}
		return n, nil
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			child, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return NewList(items...), nil
	case yaml.ScalarNode:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("mosaic: decode scalar at line %d: %w", y.Line, err)
		}
		return NewScalar(v), nil
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	default:
		return nil, fmt.Errorf("mosaic: unsupported YAML node kind %d at line %d", y.Kind, y.Line)
	}
}
