package querytree

import (
	"errors"
	"fmt"
)

// SchemaErrorCode categorizes selection tree build failures.
type SchemaErrorCode string

const (
	// ErrCodeUnknownField indicates a selected field is not declared on its parent type.
	ErrCodeUnknownField SchemaErrorCode = "UNKNOWN_FIELD"

	// ErrCodeUnknownFragment indicates a fragment spread names no fragment definition.
	ErrCodeUnknownFragment SchemaErrorCode = "UNKNOWN_FRAGMENT"

	// ErrCodeFragmentCycle indicates fragments spread each other recursively.
	ErrCodeFragmentCycle SchemaErrorCode = "FRAGMENT_CYCLE"

	// ErrCodeEmptyRelation indicates a relation was selected without any sub-field.
	ErrCodeEmptyRelation SchemaErrorCode = "EMPTY_RELATION"

	// ErrCodeScalarSelection indicates a selection set was given on a scalar field.
	ErrCodeScalarSelection SchemaErrorCode = "SCALAR_SELECTION"

	// ErrCodeInvalidArgument indicates an argument could not be resolved.
	ErrCodeInvalidArgument SchemaErrorCode = "INVALID_ARGUMENT"

	// ErrCodeConflictingArguments indicates one field was selected twice,
	// usually under different aliases, with different arguments.
	ErrCodeConflictingArguments SchemaErrorCode = "CONFLICTING_ARGUMENTS"
)

// SchemaError reports a request that does not resolve against the schema.
// It is a caller error and is surfaced to the transport unchanged.
type SchemaError struct {
	Code    SchemaErrorCode
	Message string

	// Path is the dotted response path of the offending field.
	Path string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

func newSchemaError(code SchemaErrorCode, path, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Message: fmt.Sprintf(format, args...), Path: path}
}
