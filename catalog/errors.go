package catalog

import (
	"errors"
	"fmt"

	"github.com/satishbabariya/dataql/query/statement"
)

var (
	// ErrUnknownTable is returned when a table is absent from the catalog.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned when a column is absent from a table.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrJoinResolution is returned when a declared join cannot be validated.
	ErrJoinResolution = errors.New("join resolution failed")

	// ErrEmptyCatalog is returned when metadata yields no tables.
	ErrEmptyCatalog = errors.New("catalog is empty")
)

// UnknownTableError names the missing table.
type UnknownTableError struct {
	Schema string
	Table  string
}

// Error implements the error interface.
func (e *UnknownTableError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("unknown table %q", e.Table)
	}
	return fmt.Sprintf("unknown table %q in schema %q", e.Table, e.Schema)
}

// Is matches ErrUnknownTable.
func (e *UnknownTableError) Is(target error) bool {
	return target == ErrUnknownTable
}

// UnknownColumnError names the missing column and where it was looked up.
type UnknownColumnError struct {
	Table  string
	Column string
}

// Error implements the error interface.
func (e *UnknownColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("unknown column %q", e.Column)
	}
	return fmt.Sprintf("unknown column %q on table %q", e.Column, e.Table)
}

// Is matches ErrUnknownColumn.
func (e *UnknownColumnError) Is(target error) bool {
	return target == ErrUnknownColumn
}

// JoinResolutionError wraps the reason a join failed validation.
type JoinResolutionError struct {
	Join  statement.Join
	Cause error
}

// Error implements the error interface.
func (e *JoinResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve join %s: %v", e.Join, e.Cause)
}

// Unwrap returns the underlying error.
func (e *JoinResolutionError) Unwrap() error {
	return e.Cause
}

// Is matches ErrJoinResolution.
func (e *JoinResolutionError) Is(target error) bool {
	return target == ErrJoinResolution
}
