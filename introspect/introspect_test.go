package introspect

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/sqlgen"
)

type call struct {
	sql    string
	params []sqlgen.Param
}

// fakeExecutor answers column queries with columns and foreign-key queries
// with the edges of the table bound as the last parameter.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []call
	columns [][]any
	fks     map[string][][]any
	err     error
	fkErr   error
}

func (f *fakeExecutor) Execute(_ context.Context, sql string, params []sqlgen.Param) (*executor.RowSet, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{sql: sql, params: params})
	f.mu.Unlock()

	if f.err != nil {
		return nil, executor.NewExecutionError(sql, "", f.err)
	}
	if isForeignKeyQuery(sql) {
		if f.fkErr != nil {
			return nil, executor.NewExecutionError(sql, "", f.fkErr)
		}
		table := params[len(params)-1].Value.Text()
		return &executor.RowSet{Columns: make([]string, 7), Rows: f.fks[table]}, nil
	}
	return &executor.RowSet{Columns: make([]string, 7), Rows: f.columns}, nil
}

func isForeignKeyQuery(sql string) bool {
	return strings.Contains(sql, "FOREIGN KEY") ||
		strings.Contains(sql, "REFERENCED_TABLE_NAME IS NOT NULL") ||
		strings.Contains(sql, "pragma_foreign_key_list")
}

func shopExecutor() *fakeExecutor {
	return &fakeExecutor{
		columns: [][]any{
			{"public", "users", "id", "integer", "NO", int64(1), "YES"},
			{"public", "users", "email", "text", "NO", int64(2), "NO"},
			{"public", "orders", "id", "integer", "NO", int64(1), "YES"},
			{"public", "orders", "user_id", "integer", "YES", int64(2), "NO"},
			{"public", "orders", "total", "numeric", "YES", int64(3), "NO"},
		},
		fks: map[string][][]any{
			"orders": {{"orders_user_id_fkey", "public", "orders", "user_id", "public", "users", "id"}},
		},
	}
}

func TestIntrospect_Postgres(t *testing.T) {
	exec := shopExecutor()
	source, err := NewExecutorSource(exec, sqlgen.PostgreSQL, "public")
	require.NoError(t, err)

	snap, err := New(source).Introspect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "public", snap.DefaultSchema)
	assert.Equal(t, []string{"public.orders", "public.users"}, snap.TableNames())

	users, err := snap.Table("public", "users")
	require.NoError(t, err)
	require.Len(t, users.Columns, 2)
	assert.True(t, users.Columns[0].PrimaryKey)
	assert.False(t, users.Columns[1].Nullable)

	fks, err := snap.ForeignKeysOf("public", "users")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "public.orders.user_id -> public.users.id", fks[0].String())

	// one column query plus one foreign-key query per table
	require.Len(t, exec.calls, 3)
	assert.Contains(t, exec.calls[0].sql, "information_schema.columns")
	assert.Contains(t, exec.calls[0].sql, "$1")
	require.Len(t, exec.calls[0].params, 1)
	assert.Equal(t, "public", exec.calls[0].params[0].Value.Text())
}

func TestIntrospect_DataAPIUsesNamedParameters(t *testing.T) {
	exec := shopExecutor()
	source, err := NewExecutorSource(exec, sqlgen.DataAPI, "public")
	require.NoError(t, err)

	_, err = New(source).WithConcurrency(1).Introspect(context.Background())
	require.NoError(t, err)

	assert.Contains(t, exec.calls[0].sql, "c.table_schema = :p1")
	assert.Equal(t, "p1", exec.calls[0].params[0].Name)
	for _, c := range exec.calls[1:] {
		assert.Contains(t, c.sql, "tc.table_name = :p2")
		require.Len(t, c.params, 2)
	}
}

func TestIntrospect_SQLiteReadsMainSchema(t *testing.T) {
	exec := &fakeExecutor{
		columns: [][]any{
			{"main", "notes", "id", "INTEGER", "NO", int64(1), "YES"},
			{"main", "notes", "body", "TEXT", "YES", int64(2), "NO"},
		},
	}
	source, err := NewExecutorSource(exec, sqlgen.SQLite, "public")
	require.NoError(t, err)
	assert.Equal(t, "main", source.Schema())

	snap, err := New(source).Introspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", snap.DefaultSchema)
	assert.True(t, snap.HasTable("", "notes"))

	assert.Empty(t, exec.calls[0].params)
	assert.Contains(t, exec.calls[1].sql, "pragma_foreign_key_list(?)")
	require.Len(t, exec.calls[1].params, 3)
}

func TestIntrospect_MySQLDefaultsToCurrentDatabase(t *testing.T) {
	exec := shopExecutor()
	source, err := NewExecutorSource(exec, sqlgen.MySQL, "")
	require.NoError(t, err)

	_, err = New(source).Introspect(context.Background())
	require.NoError(t, err)
	assert.Contains(t, exec.calls[0].sql, "COALESCE(NULLIF(?, ''), DATABASE())")
	assert.Equal(t, "", exec.calls[0].params[0].Value.Text())
}

func TestIntrospect_Errors(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name  string
		exec  *fakeExecutor
		stage string
	}{
		{name: "columns query fails", exec: &fakeExecutor{err: boom}, stage: "columns"},
		{name: "empty schema", exec: &fakeExecutor{}, stage: "columns"},
		{
			name:  "foreign key query fails",
			exec:  func() *fakeExecutor { e := shopExecutor(); e.fkErr = boom; return e }(),
			stage: "foreign keys",
		},
		{
			name:  "short row",
			exec:  &fakeExecutor{columns: [][]any{{"public", "users"}}},
			stage: "columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewExecutorSource(tt.exec, sqlgen.PostgreSQL, "public")
			require.NoError(t, err)

			snap, err := New(source).Introspect(context.Background())
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, ErrIntrospectionFailed)

			var ie *IntrospectionError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.stage, ie.Stage)
		})
	}
}

func TestIntrospect_FailedRebuildKeepsStoreSnapshot(t *testing.T) {
	exec := shopExecutor()
	source, err := NewExecutorSource(exec, sqlgen.PostgreSQL, "public")
	require.NoError(t, err)
	in := New(source)

	store := catalog.NewStore()
	first, err := store.Refresh(context.Background(), in.Introspect)
	require.NoError(t, err)

	exec.err = errors.New("timeout")
	_, err = store.Refresh(context.Background(), in.Introspect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntrospectionFailed)
	assert.Equal(t, first.Version, store.Current().Version)
}

func TestIntrospector_ForeignKeys(t *testing.T) {
	exec := shopExecutor()
	source, err := NewExecutorSource(exec, sqlgen.PostgreSQL, "public")
	require.NoError(t, err)
	in := New(source)

	snap, err := in.Introspect(context.Background())
	require.NoError(t, err)

	exec.fks["orders"] = nil
	next, fks, err := in.ForeignKeys(context.Background(), snap, "orders")
	require.NoError(t, err)
	assert.Empty(t, fks)
	assert.Empty(t, next.ForeignKeys)
	assert.Len(t, snap.ForeignKeys, 1)

	_, _, err = in.ForeignKeys(context.Background(), snap, "ghosts")
	assert.ErrorIs(t, err, catalog.ErrUnknownTable)
}

func TestUnsupportedDialect(t *testing.T) {
	_, err := NewExecutorSource(&fakeExecutor{}, &sqlgen.Dialect{}, "public")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestValueHelpers(t *testing.T) {
	assert.Equal(t, "abc", asString([]byte("abc")))
	assert.Equal(t, "", asString(nil))

	n, err := asInt("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	n, err = asInt(float64(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = asInt("x")
	assert.Error(t, err)

	assert.True(t, asBool("YES"))
	assert.True(t, asBool(int64(1)))
	assert.False(t, asBool("NO"))
	assert.False(t, asBool(nil))
}
