// Package introspect reflects a database schema into a catalog snapshot.
package introspect

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/internal/debug"
)

// DefaultConcurrency bounds the parallel foreign-key queries of one rebuild.
const DefaultConcurrency = 4

// Introspector builds catalog snapshots from a Source.
type Introspector struct {
	source      Source
	concurrency int
}

// New returns an introspector reading from source.
func New(source Source) *Introspector {
	return &Introspector{source: source, concurrency: DefaultConcurrency}
}

// WithConcurrency sets how many foreign-key queries run at once.
func (i *Introspector) WithConcurrency(n int) *Introspector {
	if n > 0 {
		i.concurrency = n
	}
	return i
}

// Schema returns the namespace the snapshot is built for.
func (i *Introspector) Schema() string {
	return i.source.Schema()
}

// Introspect reads columns of every table, then the foreign keys of each
// table, and builds a snapshot.
func (i *Introspector) Introspect(ctx context.Context) (*catalog.Snapshot, error) {
	columns, err := i.source.FetchSchemaMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &IntrospectionError{Stage: "columns", Cause: catalog.ErrEmptyCatalog}
	}

	tables := tableNames(columns)
	debug.Debug("Introspected columns", "schema", i.source.Schema(), "tables", len(tables), "columns", len(columns))

	var (
		mu  sync.Mutex
		fks []catalog.RawForeignKey
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for _, table := range tables {
		table := table // per-iteration copy; go.mod targets go 1.21 loop semantics
		g.Go(func() error {
			edges, err := i.source.FetchForeignKeyMetadata(gctx, table)
			if err != nil {
				return err
			}
			mu.Lock()
			fks = append(fks, edges...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap, err := catalog.Build(i.source.Schema(), columns, fks)
	if err != nil {
		return nil, &IntrospectionError{Stage: "build", Cause: err}
	}
	debug.Debug("Catalog built", "tables", len(snap.Tables), "foreign_keys", len(snap.ForeignKeys))
	return snap, nil
}

// ForeignKeys re-reads the edges of one table and returns a snapshot with
// them replaced, along with the table's edges in either direction.
func (i *Introspector) ForeignKeys(ctx context.Context, snap *catalog.Snapshot, table string) (*catalog.Snapshot, []catalog.ForeignKey, error) {
	t, edges, err := i.TableForeignKeys(ctx, snap, table)
	if err != nil {
		return nil, nil, err
	}
	next := snap.WithForeignKeys(t.Schema, t.Name, edges)
	fks, err := next.ForeignKeysOf(t.Schema, t.Name)
	if err != nil {
		return nil, nil, err
	}
	return next, fks, nil
}

// TableForeignKeys resolves table in snap and reads the edges it declares.
func (i *Introspector) TableForeignKeys(ctx context.Context, snap *catalog.Snapshot, table string) (*catalog.Table, []catalog.ForeignKey, error) {
	t, err := snap.Table(i.source.Schema(), table)
	if err != nil {
		return nil, nil, err
	}

	raw, err := i.source.FetchForeignKeyMetadata(ctx, t.Name)
	if err != nil {
		return nil, nil, err
	}
	edges := make([]catalog.ForeignKey, 0, len(raw))
	for _, r := range raw {
		edges = append(edges, catalog.ForeignKey{
			Name:             r.Name,
			Schema:           orDefault(r.Schema, t.Schema),
			Table:            r.Table,
			Key:              r.Column,
			ReferencedSchema: orDefault(r.ReferencedSchema, t.Schema),
			ReferencedTable:  r.ReferencedTable,
			ReferencedKey:    r.ReferencedColumn,
		})
	}

	return t, edges, nil
}

func tableNames(columns []catalog.RawColumn) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range columns {
		if !seen[c.Table] {
			seen[c.Table] = true
			names = append(names, c.Table)
		}
	}
	return names
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
