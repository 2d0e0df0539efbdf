// Package mosaic composes independent feature plugins into one
// relational data model. Plugins declare fragments of the model in
// YAML; the engine orders them by dependency, merges every fragment
// into a single document with per-node provenance, resolves column
// types and cross-table references, and generates the Go storage
// package the host application builds against.
//
// Compose and Generate are the embedding entry points; the mosaic
// command wraps the same pipeline for use from a terminal. Command
// dispatch and dynamic query compilation stay on the host side: mosaic
// defines the Dispatcher and QueryCompiler contracts and hands both a
// resolved schema to operate on, but ships no implementation.
package mosaic

import (
	"context"

	"github.com/google/uuid"

	"github.com/mosaicorm/mosaic/compiler/gen"
	"github.com/mosaicorm/mosaic/compiler/load"
)

// Version is the engine version, reported by the mosaic command.
const Version = "0.4.1"

// Compose discovers plugins under the given root directories, orders
// them by dependency, merges their declarations and resolves the full
// schema. It is the one-call form of load.Discover followed by
// gen.Compose; hosts that assemble plugins in memory use those
// directly.
func Compose(dirs []string, opts ...gen.Option) (*gen.Schema, error) {
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return compose(dirs, cfg)
}

// Generate composes the schema and writes the generated storage module
// to the configured target directory. It returns the schema the module
// was rendered from.
func Generate(dirs []string, opts ...gen.Option) (*gen.Schema, error) {
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	s, err := compose(dirs, cfg)
	if err != nil {
		return nil, err
	}
	if err := gen.NewGenerator(s, cfg).Generate(); err != nil {
		return nil, err
	}
	return s, nil
}

func compose(dirs []string, cfg *gen.Config) (*gen.Schema, error) {
	set, err := load.Discover(dirs, load.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}
	return gen.ComposeConfig(set, cfg)
}

// Value is the payload produced by a dispatched command or an executed
// query.
type Value = any

// Command is one named operation a host routes through a Dispatcher.
type Command struct {
	// Operation names the handler in plugin-qualified form, such as
	// "books.borrow".
	Operation string
	// Parameters carries the decoded operation arguments.
	Parameters map[string]any
	// RequestID correlates the command with its result in logs and
	// asynchronous transports.
	RequestID uuid.UUID
}

// NewCommand builds a command with a fresh request ID.
func NewCommand(operation string, parameters map[string]any) Command {
	return Command{
		Operation:  operation,
		Parameters: parameters,
		RequestID:  uuid.New(),
	}
}

// Dispatcher routes commands to operation handlers registered by
// plugins. Implementations own the handler registry and transport;
// mosaic supplies the schema the handlers operate on.
type Dispatcher interface {
	// Dispatch executes the command and returns its result. A command
	// naming an unregistered operation fails with an error matching
	// ErrUnknownOperation.
	Dispatch(ctx context.Context, cmd Command) (Value, error)
}

// DispatchFunc is a function adapter for Dispatcher.
type DispatchFunc func(context.Context, Command) (Value, error)

// Dispatch calls f(ctx, cmd).
func (f DispatchFunc) Dispatch(ctx context.Context, cmd Command) (Value, error) {
	return f(ctx, cmd)
}

// QueryCompiler translates one declarative query definition into an
// executable SQL statement, resolving logical table and column names
// through the schema bound at construction.
type QueryCompiler interface {
	// Compile returns the statement and its bind arguments. Definitions
	// the compiler cannot translate fail with an InvalidQueryError.
	Compile(def map[string]any) (stmt string, args []any, err error)
}

// CompileFunc is a function adapter for QueryCompiler.
type CompileFunc func(map[string]any) (string, []any, error)

// Compile calls f(def).
func (f CompileFunc) Compile(def map[string]any) (string, []any, error) {
	return f(def)
}
