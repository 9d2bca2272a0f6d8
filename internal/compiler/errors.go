package compiler

import (
	"errors"
	"fmt"
)

// CompileErrorCode categorizes compile failures.
type CompileErrorCode string

const (
	// ErrCodeUnknownEntity indicates the entity marker names no catalog entity.
	ErrCodeUnknownEntity CompileErrorCode = "UNKNOWN_ENTITY"

	// ErrCodeUnknownColumn indicates a leaf, argument or order key has no column on its entity.
	ErrCodeUnknownColumn CompileErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeNotARelation indicates the tree root carries no selection.
	ErrCodeNotARelation CompileErrorCode = "NOT_A_RELATION"

	// ErrCodeInvalidPlan indicates the compiled plan failed structural validation.
	ErrCodeInvalidPlan CompileErrorCode = "INVALID_PLAN"
)

// CompileError reports a selection tree that cannot be mapped onto the catalog.
type CompileError struct {
	Code    CompileErrorCode
	Message string

	// Path is the dotted tree path of the offending node.
	Path string
}

func (e *CompileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCompileError reports whether err is or wraps a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

func newCompileError(code CompileErrorCode, path, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...), Path: path}
}
