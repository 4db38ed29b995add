// Package engine ties the catalog, compiler and an executor together.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/internal/debug"
	"github.com/satishbabariya/dataql/introspect"
	"github.com/satishbabariya/dataql/query/cache"
	"github.com/satishbabariya/dataql/query/compiler"
	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/executor/dataapi"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

// ErrClosed is returned by an engine after Close.
var ErrClosed = errors.New("engine is closed")

// DefaultPlanCacheSize is the number of compiled statements kept when
// Config.PlanCacheSize is zero.
const DefaultPlanCacheSize = 256

// Config selects the backend and compile behavior of an engine.
type Config struct {
	// Driver is "dataapi" or a registered database/sql driver name.
	Driver string
	DSN    string
	// Schema is the default namespace for statements without one.
	Schema  string
	DataAPI dataapi.ConnectionOptions
	Pool    executor.PoolOptions
	// Commands overrides the command vocabulary, name to kind.
	Commands       map[string]string
	AllowSelectAll bool
	// PlanCacheSize bounds the compiled statement cache. Zero uses
	// DefaultPlanCacheSize and a negative value disables caching.
	PlanCacheSize int
}

// Engine compiles statements against the latest catalog snapshot and runs
// them through one executor. It is safe for concurrent use.
type Engine struct {
	exec         executor.Executor
	dialect      *sqlgen.Dialect
	compiler     *compiler.Compiler
	introspector *introspect.Introspector
	store        *catalog.Store
	plans        *cache.LRU[*compiler.Compiled]
	mwMu         sync.RWMutex
	middlewares  []Middleware
	closed       atomic.Bool
}

// Connect builds the executor described by cfg and returns an engine over
// it. No query is sent until the first Introspect or Query.
func Connect(ctx context.Context, cfg Config) (*Engine, error) {
	dialect, err := sqlgen.NewDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var exec executor.Executor
	if dialect == sqlgen.DataAPI {
		exec, err = dataapi.Connect(ctx, cfg.DataAPI)
	} else {
		exec, err = executor.Open(cfg.Driver, cfg.DSN, cfg.Pool)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	e, err := New(exec, dialect, cfg)
	if err != nil {
		if c, ok := exec.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}
	debug.Info("Engine connected", "driver", dialect.Name(), "schema", e.introspector.Schema())
	return e, nil
}

// New returns an engine over an existing executor.
func New(exec executor.Executor, dialect *sqlgen.Dialect, cfg Config) (*Engine, error) {
	vocabulary, err := statement.DefaultVocabulary().With(cfg.Commands)
	if err != nil {
		return nil, err
	}

	schema := cfg.Schema
	if schema == "" && dialect != sqlgen.MySQL {
		schema = "public"
	}
	source, err := introspect.NewExecutorSource(exec, dialect, schema)
	if err != nil {
		return nil, err
	}

	var plans *cache.LRU[*compiler.Compiled]
	switch {
	case cfg.PlanCacheSize == 0:
		plans = cache.NewLRU[*compiler.Compiled](DefaultPlanCacheSize, 0)
	case cfg.PlanCacheSize > 0:
		plans = cache.NewLRU[*compiler.Compiled](cfg.PlanCacheSize, 0)
	}

	return &Engine{
		exec:    exec,
		dialect: dialect,
		compiler: compiler.New(compiler.Options{
			Dialect:        dialect,
			Vocabulary:     vocabulary,
			AllowSelectAll: cfg.AllowSelectAll,
		}),
		introspector: introspect.New(source),
		store:        catalog.NewStore(),
		plans:        plans,
	}, nil
}

// Dialect returns the SQL dialect of the backend.
func (e *Engine) Dialect() *sqlgen.Dialect {
	return e.dialect
}

// Executor returns the underlying executor.
func (e *Engine) Executor() executor.Executor {
	return e.exec
}

// Use appends a middleware to the execution chain.
func (e *Engine) Use(mw Middleware) {
	e.mwMu.Lock()
	defer e.mwMu.Unlock()
	e.middlewares = append(e.middlewares, mw)
}

// Ping runs a trivial statement to verify the connection.
func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.execute(ctx, "SELECT 1", nil)
	return err
}

// Close releases the executor's resources.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c, ok := e.exec.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Introspect rebuilds the catalog and installs it. On failure the previous
// snapshot stays current.
func (e *Engine) Introspect(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := e.store.Refresh(ctx, e.introspector.Introspect)
	if err != nil {
		return nil, err
	}
	e.clearPlans()
	return snap, nil
}

func (e *Engine) clearPlans() {
	if e.plans != nil {
		e.plans.Clear()
	}
}

// Catalog returns the current snapshot, introspecting on first use.
func (e *Engine) Catalog(ctx context.Context) (*catalog.Snapshot, error) {
	return e.store.Ensure(ctx, e.introspector.Introspect)
}

// ForeignKeys re-reads the foreign keys of table, installs them into the
// current snapshot and returns the edges where table is either side. A
// rebuild that lands while the keys are being read is kept.
func (e *Engine) ForeignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error) {
	snap, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	t, edges, err := e.introspector.TableForeignKeys(ctx, snap, table)
	if err != nil {
		return nil, err
	}

	next, err := e.store.Update(func(current *catalog.Snapshot) (*catalog.Snapshot, error) {
		if !current.HasTable(t.Schema, t.Name) {
			return nil, &catalog.UnknownTableError{Schema: t.Schema, Table: t.Name}
		}
		return current.WithForeignKeys(t.Schema, t.Name, edges), nil
	})
	if err != nil {
		return nil, err
	}
	e.clearPlans()
	return next.ForeignKeysOf(t.Schema, t.Name)
}

// Compile compiles stmt against the current snapshot without executing it.
// Results are cached per catalog version and must not be modified.
func (e *Engine) Compile(ctx context.Context, stmt *statement.Statement) (*compiler.Compiled, error) {
	snap, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if e.plans == nil {
		return e.compiler.Compile(stmt, snap)
	}

	encoded, err := json.Marshal(stmt)
	if err != nil {
		return e.compiler.Compile(stmt, snap)
	}
	key := cache.Key(strconv.AppendUint(nil, snap.Version, 10), encoded)
	if compiled, ok := e.plans.Get(key); ok {
		return compiled, nil
	}

	compiled, err := e.compiler.Compile(stmt, snap)
	if err != nil {
		return nil, err
	}
	e.plans.Set(key, compiled)
	return compiled, nil
}

// PlanCacheStats reports the compiled statement cache counters.
func (e *Engine) PlanCacheStats() cache.Stats {
	if e.plans == nil {
		return cache.Stats{}
	}
	return e.plans.Stats()
}

// QueryRows compiles and runs stmt. Read results are truncated to the
// statement's numOfRows.
func (e *Engine) QueryRows(ctx context.Context, stmt *statement.Statement) (*executor.RowSet, error) {
	compiled, err := e.Compile(ctx, stmt)
	if err != nil {
		return nil, err
	}

	set, err := e.execute(ctx, compiled.SQL, compiled.Params)
	if err != nil {
		return nil, err
	}
	if compiled.RowCap != nil && set.Truncate(*compiled.RowCap) {
		debug.Debug("Result truncated to row cap", "table", compiled.Table, "cap", *compiled.RowCap)
	}
	return set, nil
}

// Query compiles and runs stmt and returns the rows as a JSON array with
// camelCase keys, or nil when the statement produced no rows.
func (e *Engine) Query(ctx context.Context, stmt *statement.Statement) ([]byte, error) {
	set, err := e.QueryRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return EncodeJSON(set)
}

// QueryRaw runs sql as given, bypassing the compiler.
func (e *Engine) QueryRaw(ctx context.Context, sql string, params []sqlgen.Param) ([]byte, error) {
	set, err := e.execute(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	return EncodeJSON(set)
}

func (e *Engine) execute(ctx context.Context, sql string, params []sqlgen.Param) (*executor.RowSet, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	return e.executeWithMiddleware(ctx, sql, params)
}
