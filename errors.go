package mosaic

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the collaborator contracts.
var (
	// ErrUnknownOperation is returned by dispatchers when a command
	// names an operation no plugin registered.
	ErrUnknownOperation = errors.New("mosaic: operation not found")

	// ErrInvalidQuery is returned by query compilers when a definition
	// cannot be translated into a statement.
	ErrInvalidQuery = errors.New("mosaic: invalid query definition")
)

// UnknownOperationError reports a dispatched command whose operation
// has no registered handler.
type UnknownOperationError struct {
	operation string
}

// Error returns the error string.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("mosaic: operation %q not found", e.operation)
}

// Is reports whether the target error matches ErrUnknownOperation.
// This allows errors.Is(err, ErrUnknownOperation) to return true for
// typed values as well.
func (e *UnknownOperationError) Is(err error) bool {
	return err == ErrUnknownOperation
}

// Operation returns the operation name the command carried.
func (e *UnknownOperationError) Operation() string {
	return e.operation
}

// NewUnknownOperationError returns a new UnknownOperationError for the
// given operation name.
func NewUnknownOperationError(operation string) *UnknownOperationError {
	return &UnknownOperationError{operation: operation}
}

// IsUnknownOperation returns true if the error is an UnknownOperationError.
func IsUnknownOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownOperationError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownOperation)
}

// DispatchError wraps a handler failure with the command that caused
// it.
type DispatchError struct {
	Operation string    // Operation the command named
	RequestID uuid.UUID // Request the failure belongs to
	Err       error     // Underlying handler error
}

// Error returns the error string.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("mosaic: dispatch %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NewDispatchError returns a new DispatchError for the given command.
func NewDispatchError(cmd Command, err error) *DispatchError {
	return &DispatchError{Operation: cmd.Operation, RequestID: cmd.RequestID, Err: err}
}

// IsDispatchError returns true if the error is a DispatchError.
func IsDispatchError(err error) bool {
	if err == nil {
		return false
	}
	var e *DispatchError
	return errors.As(err, &e)
}

// InvalidQueryError reports a query definition a compiler cannot
// translate.
type InvalidQueryError struct {
	Clause string // Offending clause, such as "from" or "join"
	Reason string // What made the clause invalid
}

// Error returns the error string.
func (e *InvalidQueryError) Error() string {
	if e.Clause != "" {
		return fmt.Sprintf("mosaic: invalid query definition (%s): %s", e.Clause, e.Reason)
	}
	return fmt.Sprintf("mosaic: invalid query definition: %s", e.Reason)
}

// Is reports whether the target error matches ErrInvalidQuery.
func (e *InvalidQueryError) Is(err error) bool {
	return err == ErrInvalidQuery
}

// NewInvalidQueryError returns a new InvalidQueryError for the given
// clause.
func NewInvalidQueryError(clause, reason string) *InvalidQueryError {
	return &InvalidQueryError{Clause: clause, Reason: reason}
}

// IsInvalidQuery returns true if the error is an InvalidQueryError.
func IsInvalidQuery(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidQueryError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidQuery)
}
