package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/dataql/query/sqlgen"
)

var (
	ErrMissingTarget           = errors.New("missing target table")
	ErrEmptyStatement          = errors.New("empty statement")
	ErrEmptyProjection         = errors.New("empty projection")
	ErrAmbiguousColumn         = errors.New("ambiguous column")
	ErrUnsupportedArgumentType = errors.New("unsupported argument type")
	ErrInvalidArgumentValue    = errors.New("invalid argument value")
	ErrArgumentTypeMismatch    = errors.New("argument type mismatch")
	ErrInvalidOption           = errors.New("invalid option")
	ErrInvalidField            = errors.New("invalid field")
	ErrNoCatalog               = errors.New("no catalog snapshot")
)

// MissingTargetError is returned when a statement names no table.
type MissingTargetError struct {
	Command string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("%s: metadata.table is required", e.Command)
}

func (e *MissingTargetError) Is(target error) bool { return target == ErrMissingTarget }

// EmptyStatementError is returned when a write has nothing to do.
type EmptyStatementError struct {
	Command string
	Table   string
	Reason  string
}

func (e *EmptyStatementError) Error() string {
	return fmt.Sprintf("%s on %q: %s", e.Command, e.Table, e.Reason)
}

func (e *EmptyStatementError) Is(target error) bool { return target == ErrEmptyStatement }

// EmptyProjectionError is returned when a read selects no columns and
// SELECT * is not allowed.
type EmptyProjectionError struct {
	Table string
}

func (e *EmptyProjectionError) Error() string {
	return fmt.Sprintf("no columns selected from %q", e.Table)
}

func (e *EmptyProjectionError) Is(target error) bool { return target == ErrEmptyProjection }

// AmbiguousColumnError is returned when an unqualified name matches more than
// one table in scope.
type AmbiguousColumnError struct {
	Column string
	Tables []string
}

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("column %q is ambiguous between tables %s; qualify it as table.column",
		e.Column, strings.Join(e.Tables, ", "))
}

func (e *AmbiguousColumnError) Is(target error) bool { return target == ErrAmbiguousColumn }

// UnsupportedArgumentTypeError is returned for an unknown valueType.
type UnsupportedArgumentTypeError struct {
	Argument  string
	ValueType string
}

func (e *UnsupportedArgumentTypeError) Error() string {
	return fmt.Sprintf("argument %q: unsupported value type %q", e.Argument, e.ValueType)
}

func (e *UnsupportedArgumentTypeError) Is(target error) bool {
	return target == ErrUnsupportedArgumentType
}

// InvalidArgumentValueError is returned when a value does not parse as its
// declared type.
type InvalidArgumentValueError struct {
	Argument  string
	ValueType string
	Value     string
	Cause     error
}

func (e *InvalidArgumentValueError) Error() string {
	return fmt.Sprintf("argument %q: %q is not a valid %s", e.Argument, e.Value, e.ValueType)
}

func (e *InvalidArgumentValueError) Unwrap() error { return e.Cause }

func (e *InvalidArgumentValueError) Is(target error) bool { return target == ErrInvalidArgumentValue }

// ArgumentTypeMismatchError is returned when a literal cannot bind to the
// column it targets.
type ArgumentTypeMismatchError struct {
	Argument   string
	Column     string
	ColumnType string
	Kind       sqlgen.LiteralKind
}

func (e *ArgumentTypeMismatchError) Error() string {
	return fmt.Sprintf("argument %q: %s value cannot be compared with column %q of type %s",
		e.Argument, e.Kind, e.Column, e.ColumnType)
}

func (e *ArgumentTypeMismatchError) Is(target error) bool { return target == ErrArgumentTypeMismatch }

// InvalidOptionError is returned for out-of-range or unsupported options.
type InvalidOptionError struct {
	Option string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("option %s: %s", e.Option, e.Reason)
}

func (e *InvalidOptionError) Is(target error) bool { return target == ErrInvalidOption }

// InvalidFieldError is returned when a field cannot be used by a command.
type InvalidFieldError struct {
	Field   string
	Command string
	Reason  string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %q in %s: %s", e.Field, e.Command, e.Reason)
}

func (e *InvalidFieldError) Is(target error) bool { return target == ErrInvalidField }
