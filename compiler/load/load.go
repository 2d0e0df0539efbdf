package load

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Option configures plugin discovery.
type Option func(*Set)

// WithLogger sets the logger used during discovery.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Set) { s.logger = logger }
}

// Set holds every discovered plugin, in discovery order, and the
// dependency-sorted order once Sort has run.
type Set struct {
	plugins map[string]*Plugin
	order   []*Plugin
	sorted  []*Plugin
	logger  zerolog.Logger
}

// Discover scans the given root directories, in order, and loads every
// immediate subdirectory carrying a manifest file. Subdirectories of a
// root are visited in lexical order, so discovery order is stable.
func Discover(dirs []string, opts ...Option) (*Set, error) {
	s := &Set{
		plugins: make(map[string]*Plugin),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("mosaic: read plugin root %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			pdir := filepath.Join(dir, entry.Name())
			if _, err := os.Stat(filepath.Join(pdir, ManifestFile)); err != nil {
				s.logger.Debug().Str("dir", pdir).Msg("skipping directory without manifest")
				continue
			}
			p, err := LoadPlugin(pdir)
			if err != nil {
				return nil, err
			}
			if err := s.add(p); err != nil {
				return nil, err
			}
			s.logger.Debug().
				Str("plugin", p.Name).
				Str("version", p.Manifest.Version).
				Int("declarations", len(p.Declarations)).
				Msg("discovered plugin")
		}
	}
	return s, nil
}

// NewSet assembles a set from already-loaded plugins, preserving the
// given order as discovery order. Hosts that build plugins in memory
// use this instead of Discover.
func NewSet(plugins []*Plugin, opts ...Option) (*Set, error) {
	s := &Set{
		plugins: make(map[string]*Plugin, len(plugins)),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range plugins {
		if err := s.add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) add(p *Plugin) error {
	if existing, ok := s.plugins[p.Name]; ok {
		return NewDuplicatePluginError(p.Name, p.Dir, existing.Dir)
	}
	s.plugins[p.Name] = p
	s.order = append(s.order, p)
	return nil
}

// Len returns the number of discovered plugins.
func (s *Set) Len() int { return len(s.order) }

// Get returns the plugin with the given name.
func (s *Set) Get(name string) (*Plugin, bool) {
	p, ok := s.plugins[name]
	return p, ok
}

// Plugins returns the plugins in discovery order.
func (s *Set) Plugins() []*Plugin { return s.order }

// Sorted returns the plugins in dependency order. It returns nil
// before Sort has run.
func (s *Set) Sorted() []*Plugin { return s.sorted }

// LatestModified returns the newest modification time across every
// plugin's files. The regeneration check compares generated artifacts
// against this value.
func (s *Set) LatestModified() time.Time {
	var latest time.Time
	for _, p := range s.order {
		if p.LastModified.After(latest) {
			latest = p.LastModified
		}
	}
	return latest
}

// SourceRefs returns every plugin-owned source file, in dependency
// order when sorted, otherwise in discovery order.
func (s *Set) SourceRefs() []string {
	plugins := s.sorted
	if plugins == nil {
		plugins = s.order
	}
	var refs []string
	for _, p := range plugins {
		refs = append(refs, p.SourceRefs...)
	}
	return refs
}
