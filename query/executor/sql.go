package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/satishbabariya/dataql/internal/debug"
	"github.com/satishbabariya/dataql/query/sqlgen"
)

// PoolOptions tune the database/sql connection pool. Zero values keep the
// driver defaults.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLExecutor runs statements through database/sql.
type SQLExecutor struct {
	db        *sql.DB
	dialect   *sqlgen.Dialect
	stmtCache map[string]*sql.Stmt
	cacheMu   sync.RWMutex
}

// NewSQLExecutor wraps an open database handle.
func NewSQLExecutor(db *sql.DB, dialect *sqlgen.Dialect) *SQLExecutor {
	return &SQLExecutor{
		db:        db,
		dialect:   dialect,
		stmtCache: make(map[string]*sql.Stmt),
	}
}

// Open opens a database handle for a registered driver and applies pool
// options. The driver name also selects the dialect; "postgresql" and
// "sqlite" open the "postgres" and "sqlite3" drivers.
func Open(driver, dsn string, pool PoolOptions) (*SQLExecutor, error) {
	dialect, err := sqlgen.NewDialect(driver)
	if err != nil {
		return nil, err
	}
	if dialect == sqlgen.DataAPI {
		return nil, fmt.Errorf("driver %q is not a database/sql driver", driver)
	}

	db, err := sql.Open(DriverName(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return NewSQLExecutor(db, dialect), nil
}

// driverAliases maps dialect spellings to the names the drivers register.
var driverAliases = map[string]string{
	"postgresql": "postgres",
	"sqlite":     "sqlite3",
}

// DriverName returns the registered database/sql driver name for a driver
// or dialect name.
func DriverName(driver string) string {
	name := strings.ToLower(driver)
	if alias, ok := driverAliases[name]; ok {
		return alias
	}
	return name
}

// Dialect returns the SQL dialect of the underlying database.
func (e *SQLExecutor) Dialect() *sqlgen.Dialect {
	return e.dialect
}

// DB returns the underlying handle.
func (e *SQLExecutor) DB() *sql.DB {
	return e.db
}

// Ping verifies the connection.
func (e *SQLExecutor) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return NewExecutionError("", "", err)
	}
	return nil
}

// Close releases cached statements and the handle.
func (e *SQLExecutor) Close() error {
	e.ClearStmtCache()
	return e.db.Close()
}

// getCachedStmt gets a cached prepared statement or creates a new one
func (e *SQLExecutor) getCachedStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	e.cacheMu.RLock()
	stmt, ok := e.stmtCache[query]
	e.cacheMu.RUnlock()

	if ok && stmt != nil {
		return stmt, nil
	}

	stmt, err := e.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	e.cacheMu.Lock()
	if cached, ok := e.stmtCache[query]; ok {
		e.cacheMu.Unlock()
		stmt.Close()
		return cached, nil
	}
	e.stmtCache[query] = stmt
	e.cacheMu.Unlock()

	return stmt, nil
}

// ClearStmtCache clears the prepared statement cache
func (e *SQLExecutor) ClearStmtCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	for _, stmt := range e.stmtCache {
		stmt.Close()
	}
	e.stmtCache = make(map[string]*sql.Stmt)
}

// Execute runs query. Statements that produce rows are queried; everything
// else is executed and reports the affected row count.
func (e *SQLExecutor) Execute(ctx context.Context, query string, params []sqlgen.Param) (*RowSet, error) {
	debug.Debug("Executing statement", "dialect", e.dialect.Name(), "sql", query, "params", len(params))

	stmt, err := e.getCachedStmt(ctx, query)
	if err != nil {
		return nil, NewExecutionError(query, "", err)
	}
	args := sqlgen.Args(params)

	if !returnsRows(query) {
		result, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return nil, NewExecutionError(query, "", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, NewExecutionError(query, "", fmt.Errorf("failed to get rows affected: %w", err))
		}
		return &RowSet{RowsAffected: affected}, nil
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, NewExecutionError(query, "", err)
	}
	defer rows.Close()

	set, err := scanRows(rows)
	if err != nil {
		return nil, NewExecutionError(query, "", err)
	}
	return set, nil
}

// scanRows reads every row into a RowSet.
func scanRows(rows *sql.Rows) (*RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	set := &RowSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		set.Rows = append(set.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	set.RowsAffected = int64(len(set.Rows))
	return set, nil
}

var rowKeywords = []string{"SELECT", "WITH", "SHOW", "PRAGMA", "VALUES", "EXPLAIN", "DESCRIBE", "TABLE"}

// returnsRows reports whether query yields a result set.
func returnsRows(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	for _, kw := range rowKeywords {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return strings.Contains(upper, " RETURNING ")
}
