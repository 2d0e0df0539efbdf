package gen

import (
	"errors"

	"github.com/rs/zerolog"
)

// DefaultHeader is the comment placed at the top of generated files.
const DefaultHeader = "Code generated by mosaic. DO NOT EDIT."

// Config holds the settings for schema resolution and code generation.
type Config struct {
	// Package is the name of the generated package.
	Package string
	// Target is the directory the generated source is written to.
	Target string
	// Header is the file header comment.
	Header string
	// SourceImports are extra import paths added to the generated
	// module, on top of the imports plugins declare themselves.
	SourceImports []string
	// SourceAdd is raw source text appended verbatim at the end of the
	// generated module.
	SourceAdd string
	// Strict turns scalar override warnings during document merging
	// into hard errors.
	Strict bool
	// Logger receives warnings and progress events.
	Logger zerolog.Logger
}

// Option configures schema resolution and code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the generated package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithSourceImports appends extra import paths for the generated module.
func WithSourceImports(paths ...string) Option {
	return func(c *Config) error {
		c.SourceImports = append(c.SourceImports, paths...)
		return nil
	}
}

// WithSourceAdd sets raw source text appended to the generated module.
func WithSourceAdd(src string) Option {
	return func(c *Config) error {
		c.SourceAdd = src
		return nil
	}
}

// WithStrict makes scalar overrides during merging fatal instead of
// warnings.
func WithStrict(strict bool) Option {
	return func(c *Config) error {
		c.Strict = strict
		return nil
	}
}

// WithLogger sets the logger used for warnings and progress events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Package: "model",
		Target:  "model",
		Header:  DefaultHeader,
		Logger:  zerolog.Nop(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
