// Package load discovers schema plugins on disk and orders them by
// their declared dependencies. A plugin is a directory holding a
// config.yaml manifest, any number of YAML declaration documents, and
// optional Go source files owned by the plugin.
package load

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mosaicorm/mosaic/document"
)

// ManifestFile is the file name that marks a directory as a plugin.
const ManifestFile = "config.yaml"

// DefaultVersion is assumed when a manifest omits its version.
const DefaultVersion = "0.0.1"

// StringList decodes a YAML scalar or sequence into a list of strings,
// so manifests may write `depends_on: core` as well as a full list.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := value.Decode(&ss); err != nil {
			return err
		}
		*l = StringList(ss)
		return nil
	default:
		return fmt.Errorf("mosaic: depends_on must be a string or a list of strings (line %d)", value.Line)
	}
}

// Manifest is the parsed plugin manifest.
type Manifest struct {
	Name          string     `yaml:"name"`
	Version       string     `yaml:"version"`
	Description   string     `yaml:"description"`
	Author        string     `yaml:"author"`
	License       string     `yaml:"license"`
	DependsOn     StringList `yaml:"depends_on"`
	SourceImports []string   `yaml:"source_imports"`
	SourceAdd     string     `yaml:"source_add"`
}

// Plugin is one discovered plugin. It is immutable after discovery:
// later pipeline stages read it but never write it.
type Plugin struct {
	// Name identifies the plugin; unique across the whole set.
	Name string
	// Dir is the plugin's directory.
	Dir string
	// Manifest holds the parsed manifest fields.
	Manifest Manifest
	// Declarations are the plugin's parsed declaration documents, in
	// file-name order.
	Declarations []*document.Node
	// SourceRefs are plugin-owned Go source files, exported so the
	// host can wire them into builds.
	SourceRefs []string
	// LastModified is the newest modification time across all files
	// in the plugin directory.
	LastModified time.Time
}

// DependsOn returns the plugin's dependency names, deduplicated and
// in declaration order.
func (p *Plugin) DependsOn() []string {
	seen := make(map[string]struct{}, len(p.Manifest.DependsOn))
	deps := make([]string, 0, len(p.Manifest.DependsOn))
	for _, d := range p.Manifest.DependsOn {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		deps = append(deps, d)
	}
	return deps
}

// LoadPlugin reads one plugin directory: the manifest, every
// declaration document, and the plugin's source refs. The manifest
// name defaults to the directory name and the version to
// DefaultVersion.
func LoadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("mosaic: read manifest in %s: %w", dir, err)
	}
	var mf Manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("mosaic: parse manifest in %s: %w", dir, err)
	}
	if mf.Name == "" {
		mf.Name = filepath.Base(dir)
	}
	if mf.Version == "" {
		mf.Version = DefaultVersion
	}
	p := &Plugin{Name: mf.Name, Dir: dir, Manifest: mf}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if mt := info.ModTime(); mt.After(p.LastModified) {
			p.LastModified = mt
		}
		switch {
		case d.Name() == ManifestFile:
		case filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml":
			doc, err := document.ParseFile(path)
			if err != nil {
				return err
			}
			p.Declarations = append(p.Declarations, doc)
		case filepath.Ext(path) == ".go":
			p.SourceRefs = append(p.SourceRefs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mosaic: scan plugin %q: %w", mf.Name, err)
	}
	return p, nil
}
