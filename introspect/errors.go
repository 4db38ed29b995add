package introspect

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported database provider")
	ErrIntrospectionFailed = errors.New("database introspection failed")
)

// IntrospectionError reports which stage of a catalog rebuild failed.
type IntrospectionError struct {
	Stage string
	Table string
	Cause error
}

func (e *IntrospectionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("introspection failed at %s for %q: %v", e.Stage, e.Table, e.Cause)
	}
	return fmt.Sprintf("introspection failed at %s: %v", e.Stage, e.Cause)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Cause
}

func (e *IntrospectionError) Is(target error) bool {
	return target == ErrIntrospectionFailed
}
