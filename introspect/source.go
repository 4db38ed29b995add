package introspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/sqlgen"
)

// Source provides raw metadata rows for a catalog build.
type Source interface {
	// Schema is the namespace the metadata is read from.
	Schema() string
	FetchSchemaMetadata(ctx context.Context) ([]catalog.RawColumn, error)
	FetchForeignKeyMetadata(ctx context.Context, table string) ([]catalog.RawForeignKey, error)
}

// ExecutorSource reads metadata by running catalog queries through an
// executor.
type ExecutorSource struct {
	exec    executor.Executor
	dialect *sqlgen.Dialect
	schema  string
	queries *queries
}

// NewExecutorSource returns a Source for dialect. SQLite always reads the
// "main" schema; an empty MySQL schema means the connection's database.
func NewExecutorSource(exec executor.Executor, dialect *sqlgen.Dialect, schema string) (*ExecutorSource, error) {
	q, err := queriesFor(dialect)
	if err != nil {
		return nil, err
	}
	if q.fixedSchema != "" {
		schema = q.fixedSchema
	}
	return &ExecutorSource{exec: exec, dialect: dialect, schema: schema, queries: q}, nil
}

func (s *ExecutorSource) Schema() string {
	return s.schema
}

// FetchSchemaMetadata returns every column of every table in the schema.
func (s *ExecutorSource) FetchSchemaMetadata(ctx context.Context) ([]catalog.RawColumn, error) {
	set, err := s.run(ctx, s.queries.columns, s.queries.columnArgs(s.schema))
	if err != nil {
		return nil, &IntrospectionError{Stage: "columns", Cause: err}
	}

	columns := make([]catalog.RawColumn, 0, set.Len())
	for i, row := range set.Rows {
		if len(row) < 7 {
			return nil, &IntrospectionError{
				Stage: "columns",
				Cause: fmt.Errorf("row %d: expected 7 values, got %d", i, len(row)),
			}
		}
		position, err := asInt(row[5])
		if err != nil {
			return nil, &IntrospectionError{Stage: "columns", Cause: fmt.Errorf("row %d position: %w", i, err)}
		}
		columns = append(columns, catalog.RawColumn{
			Schema:     asString(row[0]),
			Table:      asString(row[1]),
			Column:     asString(row[2]),
			DataType:   asString(row[3]),
			Nullable:   asBool(row[4]),
			Position:   position,
			PrimaryKey: asBool(row[6]),
		})
	}
	return columns, nil
}

// FetchForeignKeyMetadata returns the outgoing foreign-key column pairs of
// table.
func (s *ExecutorSource) FetchForeignKeyMetadata(ctx context.Context, table string) ([]catalog.RawForeignKey, error) {
	set, err := s.run(ctx, s.queries.foreignKeys, s.queries.foreignKeyArgs(s.schema, table))
	if err != nil {
		return nil, &IntrospectionError{Stage: "foreign keys", Table: table, Cause: err}
	}

	keys := make([]catalog.RawForeignKey, 0, set.Len())
	for i, row := range set.Rows {
		if len(row) < 7 {
			return nil, &IntrospectionError{
				Stage: "foreign keys",
				Table: table,
				Cause: fmt.Errorf("row %d: expected 7 values, got %d", i, len(row)),
			}
		}
		keys = append(keys, catalog.RawForeignKey{
			Name:             asString(row[0]),
			Schema:           asString(row[1]),
			Table:            asString(row[2]),
			Column:           asString(row[3]),
			ReferencedSchema: asString(row[4]),
			ReferencedTable:  asString(row[5]),
			ReferencedColumn: asString(row[6]),
		})
	}
	return keys, nil
}

func (s *ExecutorSource) run(ctx context.Context, query string, args []sqlgen.Literal) (*executor.RowSet, error) {
	params := make([]sqlgen.Param, len(args))
	for i, arg := range args {
		params[i] = sqlgen.Param{Name: sqlgen.ParamName(i + 1), Value: arg}
	}
	return s.exec.Execute(ctx, strings.TrimSpace(query), params)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		return int(t), nil
	default:
		return strconv.Atoi(strings.TrimSpace(asString(v)))
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	default:
		switch strings.ToUpper(strings.TrimSpace(asString(v))) {
		case "YES", "Y", "TRUE", "T", "1":
			return true
		}
		return false
	}
}
