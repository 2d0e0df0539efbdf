package document

import (
	"fmt"

	"github.com/bmatcuk/doublestar"
	"github.com/rs/zerolog"
)

// ListMergeFunc merges an incoming list into an existing one at the
// given path and returns the merged list. Implementations may mutate
// and return existing.
type ListMergeFunc func(m *Merger, path Path, existing, incoming *Node, plugin string) (*Node, error)

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger used for non-fatal merge diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Merger) { m.logger = logger }
}

// WithStrict turns scalar overrides between plugins into errors
// instead of warnings.
func WithStrict(strict bool) Option {
	return func(m *Merger) { m.strict = strict }
}

// Merger folds plugin declaration documents, one plugin at a time,
// into a single composed document. It is a single-writer structure:
// the composed document must be treated as read-only once merging is
// done.
type Merger struct {
	doc      *Node
	history  *History
	handlers map[string]ListMergeFunc
	patterns []string
	strict   bool
	logger   zerolog.Logger
}

// NewMerger returns a Merger with an empty composed document. The
// by-name column handler is pre-registered for "tables/*/columns" and
// "types/*/columns".
func NewMerger(opts ...Option) *Merger {
	m := &Merger{
		doc:      NewMap(),
		history:  NewHistory(),
		handlers: make(map[string]ListMergeFunc),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.HandleList("tables/*/columns", MergeListByName)
	m.HandleList("types/*/columns", MergeListByName)
	return m
}

// HandleList registers fn for list nodes whose path matches pattern.
// A pattern equal to the full path wins over glob matches; remaining
// patterns are tried in registration order using doublestar syntax
// ("tables/*/columns", "tables/**").
func (m *Merger) HandleList(pattern string, fn ListMergeFunc) {
	if _, ok := m.handlers[pattern]; !ok {
		m.patterns = append(m.patterns, pattern)
	}
	m.handlers[pattern] = fn
}

// Document returns the composed document.
func (m *Merger) Document() *Node { return m.doc }

// History returns the path contribution log.
func (m *Merger) History() *History { return m.history }

// Merge folds one declaration document contributed by plugin into the
// composed document.
func (m *Merger) Merge(plugin string, doc *Node) error {
	if doc == nil {
		return nil
	}
	if doc.Kind() != Map {
		return fmt.Errorf("mosaic: plugin %q: root of a declaration document must be a map, got %s", plugin, doc.Kind())
	}
	return m.mergeMap(nil, m.doc, doc, plugin)
}

func (m *Merger) mergeMap(path Path, dst, src *Node, plugin string) error {
	for _, key := range src.Keys() {
		incoming, _ := src.Get(key)
		p := path.Child(key)
		prev := m.history.Last(p.String())
		m.history.Add(p.String(), plugin)
		existing, ok := dst.Get(key)
		if !ok {
			c := incoming.Clone()
			tagTree(c, plugin)
			dst.Set(key, c)
			m.recordTree(p, c, plugin)
			continue
		}
		merged, err := m.mergeValue(p, existing, incoming, plugin, prev)
		if err != nil {
			return err
		}
		dst.Set(key, merged)
	}
	return nil
}

func (m *Merger) mergeValue(path Path, existing, incoming *Node, plugin, prev string) (*Node, error) {
	switch {
	case existing.Kind() == Map && incoming.Kind() == Map:
		// The first definer keeps the node's provenance; children
		// record their own.
		if err := m.mergeMap(path, existing, incoming, plugin); err != nil {
			return nil, err
		}
		return existing, nil
	case existing.Kind() == List && incoming.Kind() == List:
		if fn := m.listHandler(path); fn != nil {
			return fn(m, path, existing, incoming, plugin)
		}
		return m.mergeList(path, existing, incoming, plugin)
	case existing.Kind() == Scalar && incoming.Kind() == Scalar:
		if Equal(existing, incoming) {
			return existing, nil
		}
		if m.strict {
			return nil, NewScalarOverrideError(path.String(), plugin, prev, existing.Value(), incoming.Value())
		}
		m.logger.Warn().
			Str("path", path.String()).
			Str("plugin", plugin).
			Str("declared_by", prev).
			Interface("old", existing.Value()).
			Interface("new", incoming.Value()).
			Msg("scalar override")
		return incoming.Clone(), nil
	default:
		if existing.Kind() == Map && prev == "" {
			prev = existing.Plugin()
		}
		return nil, NewTypeConflictError(path.String(), existing.Kind(), incoming.Kind(), prev, plugin)
	}
}

// listHandler returns the handler for path: an exact pattern match
// first, then the registered glob patterns in registration order.
func (m *Merger) listHandler(path Path) ListMergeFunc {
	s := path.String()
	if fn, ok := m.handlers[s]; ok {
		return fn
	}
	for _, pattern := range m.patterns {
		if pattern == s {
			continue
		}
		if ok, err := doublestar.Match(pattern, s); err == nil && ok {
			return m.handlers[pattern]
		}
	}
	return nil
}

// mergeList is the default list rule: keep existing elements, append
// incoming elements not already present by structural equality, and
// tag appended map-shaped elements with the contributing plugin.
func (m *Merger) mergeList(_ Path, existing, incoming *Node, plugin string) (*Node, error) {
next:
	for _, in := range incoming.Items() {
		for _, ex := range existing.Items() {
			if Equal(in, ex) {
				continue next
			}
		}
		c := in.Clone()
		tagTree(c, plugin)
		existing.Append(c)
	}
	return existing, nil
}

// MergeListByName merges lists of named map entries by their "name"
// value rather than structural equality: an entry whose name already
// exists has its attributes deep-merged into the existing entry
// (later values win per field) and its provenance moved to the later
// plugin. This is what lets one plugin extend a column declared by
// another without duplicating it. Unnamed entries fall back to the
// default list rule.
func MergeListByName(m *Merger, path Path, existing, incoming *Node, plugin string) (*Node, error) {
	for _, in := range incoming.Items() {
		name, ok := itemName(in)
		if !ok {
			found := false
			for _, ex := range existing.Items() {
				if Equal(in, ex) {
					found = true
					break
				}
			}
			if !found {
				c := in.Clone()
				tagTree(c, plugin)
				existing.Append(c)
			}
			continue
		}
		p := path.Child(name)
		ex := namedItem(existing, name)
		if ex == nil {
			c := in.Clone()
			tagTree(c, plugin)
			existing.Append(c)
			m.history.Add(p.String(), plugin)
			m.recordTree(p, c, plugin)
			continue
		}
		if err := m.mergeMap(p, ex, in, plugin); err != nil {
			return nil, err
		}
		ex.SetPlugin(plugin)
		m.history.Add(p.String(), plugin)
	}
	return existing, nil
}

// itemName extracts the scalar "name" value of a map-shaped list item.
func itemName(n *Node) (string, bool) {
	if n.Kind() != Map {
		return "", false
	}
	v, ok := n.Get("name")
	if !ok || v.Kind() != Scalar {
		return "", false
	}
	s, ok := v.Value().(string)
	return s, ok && s != ""
}

// namedItem returns the list item with the given "name", if any.
func namedItem(list *Node, name string) *Node {
	for _, it := range list.Items() {
		if n, ok := itemName(it); ok && n == name {
			return it
		}
	}
	return nil
}

// recordTree records history entries for every map key in a freshly
// contributed subtree, so later contributor queries (for example a
// table's owning plugins) see the plugin that introduced the subtree,
// not only the plugins that extended it. Named list items are recorded
// under the same path convention the by-name handler uses.
func (m *Merger) recordTree(path Path, n *Node, plugin string) {
	switch n.Kind() {
	case Map:
		for _, k := range n.Keys() {
			c, _ := n.Get(k)
			p := path.Child(k)
			m.history.Add(p.String(), plugin)
			m.recordTree(p, c, plugin)
		}
	case List:
		for _, it := range n.Items() {
			if name, ok := itemName(it); ok {
				p := path.Child(name)
				m.history.Add(p.String(), plugin)
				m.recordTree(p, it, plugin)
			}
		}
	}
}

// tagTree tags every untagged map node in the subtree with plugin.
func tagTree(n *Node, plugin string) {
	switch n.Kind() {
	case Map:
		if n.Plugin() == "" {
			n.SetPlugin(plugin)
		}
		for _, k := range n.Keys() {
			c, _ := n.Get(k)
			tagTree(c, plugin)
		}
	case List:
		for _, it := range n.Items() {
			tagTree(it, plugin)
		}
	}
}

// History records, for every merged path, the plugins that contributed
// to it in contribution order.
type History struct {
	paths   []string
	entries map[string][]string
}

// NewHistory returns an empty history log.
func NewHistory() *History {
	return &History{entries: make(map[string][]string)}
}

// Add records plugin as a contributor to path. A plugin already
// present for the path keeps its original position.
func (h *History) Add(path, plugin string) {
	plugins, ok := h.entries[path]
	if !ok {
		h.paths = append(h.paths, path)
	}
	for _, p := range plugins {
		if p == plugin {
			return
		}
	}
	h.entries[path] = append(plugins, plugin)
}

// Contributors returns the plugins that touched path, in order.
func (h *History) Contributors(path string) []string {
	return h.entries[path]
}

// Last returns the latest contributor to path, or "".
func (h *History) Last(path string) string {
	plugins := h.entries[path]
	if len(plugins) == 0 {
		return ""
	}
	return plugins[len(plugins)-1]
}

// Paths returns every recorded path in first-touch order.
func (h *History) Paths() []string { return h.paths }

// Filter returns the recorded paths matching a doublestar pattern, in
// first-touch order.
func (h *History) Filter(pattern string) []string {
	var out []string
	for _, p := range h.paths {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			out = append(out, p)
		}
	}
	return out
}
