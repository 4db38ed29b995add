// Package executor runs compiled SQL and returns typed rows.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/dataql/query/sqlgen"
)

// ErrExecution is matched by every ExecutionError.
var ErrExecution = errors.New("statement execution failed")

// Executor runs one SQL statement with bound parameters. Implementations do
// not retry.
type Executor interface {
	Execute(ctx context.Context, sql string, params []sqlgen.Param) (*RowSet, error)
}

// RowSet is the typed result of one statement. Columns is empty when the
// statement produced no result set.
type RowSet struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

// HasResultSet reports whether the statement returned columns.
func (r *RowSet) HasResultSet() bool {
	return r != nil && len(r.Columns) > 0
}

// Len returns the number of rows.
func (r *RowSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Truncate drops rows beyond n and reports whether any were dropped.
func (r *RowSet) Truncate(n int64) bool {
	if r == nil || n < 0 || int64(len(r.Rows)) <= n {
		return false
	}
	r.Rows = r.Rows[:n]
	return true
}

// Records returns the rows as column-name maps. When a name repeats, the
// later column wins.
func (r *RowSet) Records() []map[string]any {
	if r == nil {
		return nil
	}
	records := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		record := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			if j < len(row) {
				record[col] = row[j]
			}
		}
		records[i] = record
	}
	return records
}

// ExecutionError is raised by an executor when the database rejects or
// fails a statement. It is returned to callers unchanged.
type ExecutionError struct {
	SQL string
	// Code is the remote error code, when the backend reports one.
	Code  string
	Cause error
}

// NewExecutionError wraps cause for sql.
func NewExecutionError(sql, code string, cause error) *ExecutionError {
	return &ExecutionError{SQL: sql, Code: code, Cause: cause}
}

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("execution failed (%s): %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("execution failed: %v", e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}
