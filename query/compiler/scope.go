package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

// scope is the set of tables a statement may reference: the target first,
// then every joined table in declaration order.
type scope struct {
	dialect *sqlgen.Dialect
	snap    *catalog.Snapshot
	schema  string
	tables  []*catalog.Table
	joins   []catalog.ValidatedJoin
}

func newScope(dialect *sqlgen.Dialect, snap *catalog.Snapshot, schema string, target *catalog.Table) *scope {
	return &scope{dialect: dialect, snap: snap, schema: schema, tables: []*catalog.Table{target}}
}

func (s *scope) target() *catalog.Table {
	return s.tables[0]
}

func (s *scope) lookupTable(name string) *catalog.Table {
	for _, t := range s.tables {
		if t.Name == name || strings.EqualFold(t.Name, name) || t.Name == statement.ToSnakeCase(name) {
			return t
		}
	}
	return nil
}

// join validates j and brings the side that is not yet in scope into it.
// Either side may be the one already in scope, so an edge can be written
// from the foreign key side or the referenced side.
func (s *scope) join(j statement.Join) (catalog.ValidatedJoin, *catalog.Table, error) {
	vj, err := s.snap.ResolveJoin(s.schema, j)
	if err != nil {
		return catalog.ValidatedJoin{}, nil, err
	}

	var joined *catalog.Table
	switch left, right := s.inScope(vj.Left), s.inScope(vj.Right); {
	case left && right:
		return catalog.ValidatedJoin{}, nil, &catalog.JoinResolutionError{Join: j, Cause: errAlreadyJoined(vj.Right.Name)}
	case left:
		joined = vj.Right
	case right:
		joined = vj.Left
	default:
		return catalog.ValidatedJoin{}, nil, &catalog.JoinResolutionError{Join: j, Cause: errNotInScope(vj.Left.Name, vj.Right.Name)}
	}
	s.tables = append(s.tables, joined)
	s.joins = append(s.joins, vj)
	return vj, joined, nil
}

func (s *scope) inScope(t *catalog.Table) bool {
	for _, in := range s.tables {
		if in == t {
			return true
		}
	}
	return false
}

// resolve finds a column by "column" or "table.column".
func (s *scope) resolve(name string) (*catalog.Table, catalog.Column, error) {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		tableName, columnName := name[:i], name[i+1:]
		table := s.lookupTable(tableName)
		if table == nil {
			return nil, catalog.Column{}, &catalog.UnknownTableError{Schema: s.schema, Table: tableName}
		}
		col, err := s.snap.ResolveColumn(table, columnName)
		if err != nil {
			return nil, catalog.Column{}, err
		}
		return table, col, nil
	}

	var (
		found     *catalog.Table
		foundCol  catalog.Column
		conflicts []string
	)
	for _, t := range s.tables {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		if found == nil {
			found, foundCol = t, col
			continue
		}
		if conflicts == nil {
			conflicts = []string{found.Name}
		}
		conflicts = append(conflicts, t.Name)
	}
	if conflicts != nil {
		return nil, catalog.Column{}, &AmbiguousColumnError{Column: name, Tables: conflicts}
	}
	if found == nil {
		return nil, catalog.Column{}, &catalog.UnknownColumnError{Table: s.target().Name, Column: name}
	}
	return found, foundCol, nil
}

// ref renders a quoted column reference, qualified only when joins are
// in scope.
func (s *scope) ref(table *catalog.Table, column catalog.Column) string {
	if len(s.tables) > 1 {
		return s.dialect.ColumnRef(table.Name, column.Name)
	}
	return s.dialect.Quote(column.Name)
}

func (s *scope) resolveRef(name string) (string, catalog.Column, error) {
	table, col, err := s.resolve(name)
	if err != nil {
		return "", catalog.Column{}, err
	}
	return s.ref(table, col), col, nil
}

func errNotInScope(left, right string) error {
	return fmt.Errorf("neither %q nor %q is the target or an earlier joined table", left, right)
}

func errAlreadyJoined(table string) error {
	return fmt.Errorf("table %q is already in the query", table)
}
