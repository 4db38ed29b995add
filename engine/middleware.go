package engine

import (
	"context"
	"time"

	"github.com/satishbabariya/dataql/internal/debug"
	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/sqlgen"
)

// QueryEvent describes one statement execution.
type QueryEvent struct {
	SQL      string
	Params   []sqlgen.Param
	Result   *executor.RowSet
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// Middleware intercepts statement execution. It must call next to run the
// statement.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// executeWithMiddleware runs the statement through the middleware chain.
func (e *Engine) executeWithMiddleware(ctx context.Context, sql string, params []sqlgen.Param) (*executor.RowSet, error) {
	event := &QueryEvent{
		SQL:    sql,
		Params: params,
		Start:  time.Now(),
	}

	run := func() error {
		event.Result, event.Error = e.exec.Execute(ctx, sql, params)
		event.End = time.Now()
		event.Duration = event.End.Sub(event.Start)
		return event.Error
	}

	e.mwMu.RLock()
	chain := e.middlewares
	e.mwMu.RUnlock()

	if len(chain) == 0 {
		err := run()
		return event.Result, err
	}

	var next func() error
	index := 0
	next = func() error {
		if index >= len(chain) {
			return run()
		}
		mw := chain[index]
		index++
		return mw(ctx, event, next)
	}

	if err := next(); err != nil {
		return nil, err
	}
	return event.Result, nil
}

// LoggingMiddleware logs every statement with its duration.
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil {
			debug.Warn("Statement failed", "sql", event.SQL, "duration", event.Duration, "error", err)
			return err
		}
		debug.Debug("Statement executed", "sql", event.SQL, "params", len(event.Params),
			"rows", event.Result.Len(), "duration", event.Duration)
		return nil
	}
}

// SlowQueryMiddleware calls report for statements slower than threshold.
func SlowQueryMiddleware(threshold time.Duration, report func(event *QueryEvent)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if event.Duration > threshold {
			report(event)
		}
		return err
	}
}
