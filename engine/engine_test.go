package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/query/cache"
	"github.com/satishbabariya/dataql/query/compiler"
	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

// fakeExecutor serves catalog queries from fixed metadata and answers every
// other statement with result.
type fakeExecutor struct {
	mu         sync.Mutex
	statements []string
	params     [][]sqlgen.Param
	result     *executor.RowSet
	err        error
	metaErr    error
	metaCalls  int
	closed     bool
	// extra rows are served by the columns query after the fixed metadata.
	extra [][]any
	// fkHook runs before a foreign key query for table, outside the lock.
	fkHook func(table string)
}

func (f *fakeExecutor) Execute(_ context.Context, sql string, params []sqlgen.Param) (*executor.RowSet, error) {
	if f.fkHook != nil && strings.Contains(sql, "FOREIGN KEY") {
		f.fkHook(params[len(params)-1].Value.Text())
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.Contains(sql, "information_schema.columns"):
		f.metaCalls++
		if f.metaErr != nil {
			return nil, executor.NewExecutionError(sql, "", f.metaErr)
		}
		rows := [][]any{
			{"public", "users", "id", "integer", "NO", int64(1), "YES"},
			{"public", "users", "email", "text", "NO", int64(2), "NO"},
			{"public", "users", "first_name", "text", "YES", int64(3), "NO"},
			{"public", "orders", "id", "integer", "NO", int64(1), "YES"},
			{"public", "orders", "user_id", "integer", "YES", int64(2), "NO"},
			{"public", "orders", "total", "numeric", "YES", int64(3), "NO"},
		}
		return &executor.RowSet{Columns: make([]string, 7), Rows: append(rows, f.extra...)}, nil
	case strings.Contains(sql, "FOREIGN KEY"):
		if params[len(params)-1].Value.Text() != "orders" {
			return &executor.RowSet{Columns: make([]string, 7)}, nil
		}
		return &executor.RowSet{Columns: make([]string, 7), Rows: [][]any{
			{"orders_user_id_fkey", "public", "orders", "user_id", "public", "users", "id"},
		}}, nil
	}

	f.statements = append(f.statements, sql)
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, executor.NewExecutionError(sql, "BadRequestException", f.err)
	}
	return f.result, nil
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

func newEngine(t *testing.T, exec *fakeExecutor, cfg Config) *Engine {
	t.Helper()
	e, err := New(exec, sqlgen.DataAPI, cfg)
	require.NoError(t, err)
	return e
}

func readOrders() *statement.Statement {
	return &statement.Statement{
		Metadata: statement.Metadata{Command: "read", Table: "orders", Schema: "public"},
		Fields:   []statement.Field{{Name: "id"}, {Name: "total"}},
		Options: statement.Options{
			Limit:   statement.Int64(5),
			OrderBy: []statement.OrderBy{{Field: "id", Order: statement.Desc}},
		},
	}
}

func TestEngine_QueryEncodesCamelCaseJSON(t *testing.T) {
	exec := &fakeExecutor{result: &executor.RowSet{
		Columns: []string{"id", "first_name"},
		Rows:    [][]any{{int64(1), "Ada"}},
	}}
	e := newEngine(t, exec, Config{})

	stmt := &statement.Statement{
		Metadata: statement.Metadata{Command: "read", Table: "users"},
		Fields:   []statement.Field{{Name: "id"}, {Name: "firstName"}},
	}
	out, err := e.Query(context.Background(), stmt)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"firstName":"Ada"}]`, string(out))
	require.Len(t, exec.statements, 1)
	assert.Equal(t, `SELECT "id", "first_name" FROM "public"."users"`, exec.statements[0])
}

func TestEngine_QueryIntrospectsOnce(t *testing.T) {
	exec := &fakeExecutor{result: &executor.RowSet{Columns: []string{"id", "total"}}}
	e := newEngine(t, exec, Config{})

	for i := 0; i < 3; i++ {
		out, err := e.Query(context.Background(), readOrders())
		require.NoError(t, err)
		assert.Nil(t, out)
	}
	assert.Equal(t, 1, exec.metaCalls)
	assert.Equal(t, `SELECT "id", "total" FROM "public"."orders" ORDER BY "id" DESC LIMIT 5`, exec.statements[0])
}

func TestEngine_NumOfRowsCapsResult(t *testing.T) {
	exec := &fakeExecutor{result: &executor.RowSet{
		Columns: []string{"id"},
		Rows:    [][]any{{int64(1)}, {int64(2)}, {int64(3)}},
	}}
	e := newEngine(t, exec, Config{})

	stmt := readOrders()
	stmt.Options.NumOfRows = statement.Int64(2)
	set, err := e.QueryRows(context.Background(), stmt)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	// the SQL limit stays at 5; numOfRows only caps the result
	assert.True(t, strings.HasSuffix(exec.statements[0], "LIMIT 5"))
}

func TestEngine_CompileCachesPerCatalogVersion(t *testing.T) {
	e := newEngine(t, &fakeExecutor{}, Config{})
	ctx := context.Background()

	first, err := e.Compile(ctx, readOrders())
	require.NoError(t, err)
	second, err := e.Compile(ctx, readOrders())
	require.NoError(t, err)
	assert.Same(t, first, second)

	stats := e.PlanCacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	_, err = e.Introspect(ctx)
	require.NoError(t, err)
	third, err := e.Compile(ctx, readOrders())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Greater(t, third.CatalogVersion, first.CatalogVersion)
	assert.Equal(t, first.SQL, third.SQL)
}

func TestEngine_PlanCacheDisabled(t *testing.T) {
	e := newEngine(t, &fakeExecutor{}, Config{PlanCacheSize: -1})

	first, err := e.Compile(context.Background(), readOrders())
	require.NoError(t, err)
	second, err := e.Compile(context.Background(), readOrders())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, cache.Stats{}, e.PlanCacheStats())
}

func TestEngine_CompileErrorsSendNothing(t *testing.T) {
	exec := &fakeExecutor{}
	e := newEngine(t, exec, Config{})

	stmt := readOrders()
	stmt.Options.Include = &statement.IncludeField{Joins: []statement.Join{
		{Table: "orders", Key: "user_id", JoiningTable: "ghosts", JoiningKey: "id"},
	}}
	_, err := e.Query(context.Background(), stmt)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrJoinResolution)
	assert.Empty(t, exec.statements)

	stmt = readOrders()
	stmt.Metadata.Table = ""
	_, err = e.Query(context.Background(), stmt)
	assert.ErrorIs(t, err, compiler.ErrMissingTarget)
	assert.Empty(t, exec.statements)
}

func TestEngine_ExecutionErrorPassesThrough(t *testing.T) {
	boom := errors.New("deadlock detected")
	exec := &fakeExecutor{err: boom}
	e := newEngine(t, exec, Config{})

	_, err := e.Query(context.Background(), readOrders())
	require.Error(t, err)

	var execErr *executor.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "BadRequestException", execErr.Code)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_IntrospectFailureKeepsCatalog(t *testing.T) {
	exec := &fakeExecutor{}
	e := newEngine(t, exec, Config{})

	first, err := e.Introspect(context.Background())
	require.NoError(t, err)

	exec.metaErr = errors.New("throttled")
	_, err = e.Introspect(context.Background())
	require.Error(t, err)

	current, err := e.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Version, current.Version)
}

func TestEngine_ForeignKeys(t *testing.T) {
	e := newEngine(t, &fakeExecutor{}, Config{})

	fks, err := e.ForeignKeys(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "orders", fks[0].Table)
	assert.Equal(t, "user_id", fks[0].Key)

	_, err = e.ForeignKeys(context.Background(), "ghosts")
	assert.ErrorIs(t, err, catalog.ErrUnknownTable)
}

func TestEngine_ForeignKeysKeepsConcurrentRebuild(t *testing.T) {
	ctx := context.Background()
	exec := &fakeExecutor{}
	e := newEngine(t, exec, Config{})
	_, err := e.Catalog(ctx)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var gated atomic.Bool
	exec.fkHook = func(table string) {
		if table == "users" && gated.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
	}

	type result struct {
		fks []catalog.ForeignKey
		err error
	}
	done := make(chan result, 1)
	go func() {
		fks, err := e.ForeignKeys(ctx, "users")
		done <- result{fks, err}
	}()
	<-started

	exec.mu.Lock()
	exec.extra = [][]any{{"public", "invoices", "id", "integer", "NO", int64(1), "YES"}}
	exec.mu.Unlock()
	rebuilt, err := e.Introspect(ctx)
	require.NoError(t, err)
	require.True(t, rebuilt.HasTable("public", "invoices"))

	close(release)
	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.fks, 1)
	assert.Equal(t, "orders", res.fks[0].Table)

	current, err := e.Catalog(ctx)
	require.NoError(t, err)
	assert.Greater(t, current.Version, rebuilt.Version)
	assert.True(t, current.HasTable("public", "invoices"))

	_, err = e.Compile(ctx, &statement.Statement{
		Metadata: statement.Metadata{Command: "read", Table: "invoices"},
		Fields:   []statement.Field{{Name: "id"}},
	})
	assert.NoError(t, err)
}

func TestEngine_CustomCommands(t *testing.T) {
	exec := &fakeExecutor{result: &executor.RowSet{Columns: []string{"id"}, Rows: [][]any{{int64(1)}}}}
	e := newEngine(t, exec, Config{Commands: map[string]string{"fetch": "read"}})

	stmt := readOrders()
	stmt.Metadata.Command = "Fetch"
	out, err := e.Query(context.Background(), stmt)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(out))

	_, err = New(exec, sqlgen.DataAPI, Config{Commands: map[string]string{"x": "explode"}})
	assert.Error(t, err)
}

func TestEngine_QueryRaw(t *testing.T) {
	exec := &fakeExecutor{result: &executor.RowSet{
		Columns: []string{"user_count"},
		Rows:    [][]any{{int64(4)}},
	}}
	e := newEngine(t, exec, Config{})

	out, err := e.QueryRaw(context.Background(), "SELECT count(*) AS user_count FROM users WHERE id > :p1",
		[]sqlgen.Param{{Name: "p1", Value: sqlgen.IntLiteral(0)}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"userCount":4}]`, string(out))
	assert.Zero(t, exec.metaCalls)
	require.Len(t, exec.params, 1)
	assert.Equal(t, "p1", exec.params[0][0].Name)
}

func TestEngine_Middleware(t *testing.T) {
	exec := &fakeExecutor{result: &executor.RowSet{Columns: []string{"id"}}}
	e := newEngine(t, exec, Config{})

	var order []string
	e.Use(func(ctx context.Context, event *QueryEvent, next func() error) error {
		order = append(order, "outer")
		return next()
	})
	e.Use(func(ctx context.Context, event *QueryEvent, next func() error) error {
		order = append(order, "inner")
		return next()
	})
	var slow []string
	e.Use(SlowQueryMiddleware(-time.Second, func(event *QueryEvent) {
		slow = append(slow, event.SQL)
	}))
	e.Use(LoggingMiddleware())

	require.NoError(t, e.Ping(context.Background()))
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, []string{"SELECT 1"}, slow)
}

func TestEngine_UseWhileQuerying(t *testing.T) {
	exec := &fakeExecutor{result: &executor.RowSet{Columns: []string{"id"}}}
	e := newEngine(t, exec, Config{})

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.Use(func(ctx context.Context, event *QueryEvent, next func() error) error {
				calls.Add(1)
				return next()
			})
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Ping(context.Background()))
		}()
	}
	wg.Wait()

	calls.Store(0)
	require.NoError(t, e.Ping(context.Background()))
	assert.Equal(t, int32(8), calls.Load())
}

func TestEngine_Close(t *testing.T) {
	exec := &fakeExecutor{}
	e := newEngine(t, exec, Config{})

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, exec.closed)

	_, err := e.QueryRaw(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEncodeJSON(t *testing.T) {
	out, err := EncodeJSON(&executor.RowSet{RowsAffected: 3})
	require.NoError(t, err)
	assert.Nil(t, out)

	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	out, err = EncodeJSON(&executor.RowSet{
		Columns: []string{"created_at", "orders.user_id", "raw"},
		Rows:    [][]any{{ts, int64(2), []byte("x")}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"createdAt":"2024-05-06T07:08:09Z","orders.userId":2,"raw":"x"}]`, string(out))

	out, err = EncodeJSON(&executor.RowSet{
		Columns: []string{"id", "email", "id", "id2", "id"},
		Rows:    [][]any{{int64(1), "a@b.com", int64(2), int64(3), int64(4)}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"email":"a@b.com","id2":2,"id22":3,"id3":4}]`, string(out))
}
