package catalog

import (
	"fmt"

	"github.com/satishbabariya/dataql/query/statement"
)

// ValidatedJoin is a join whose tables and key columns exist in the catalog.
type ValidatedJoin struct {
	Join        statement.Join
	Left        *Table
	LeftColumn  Column
	Right       *Table
	RightColumn Column

	// ForeignKey is the matching edge, when one was reflected. Joins without
	// a backing foreign key are still valid.
	ForeignKey *ForeignKey

	// TypeMismatch is set when the key columns belong to different type
	// families. It is advisory only.
	TypeMismatch bool
}

// ForeignKeysOf returns every edge where the table is either side.
func (s *Snapshot) ForeignKeysOf(schema, table string) ([]ForeignKey, error) {
	t, err := s.Table(schema, table)
	if err != nil {
		return nil, err
	}

	var edges []ForeignKey
	for _, fk := range s.ForeignKeys {
		outgoing := fk.Schema == t.Schema && fk.Table == t.Name
		incoming := fk.ReferencedSchema == t.Schema && fk.ReferencedTable == t.Name
		if outgoing || incoming {
			edges = append(edges, fk)
		}
	}
	return edges, nil
}

// ResolveJoin checks that both sides of a join exist. Foreign-key presence
// and type compatibility are reported but never required.
func (s *Snapshot) ResolveJoin(schema string, join statement.Join) (ValidatedJoin, error) {
	fail := func(err error) (ValidatedJoin, error) {
		return ValidatedJoin{}, &JoinResolutionError{Join: join, Cause: err}
	}

	if join.Table == "" || join.JoiningTable == "" {
		return fail(fmt.Errorf("both tables are required"))
	}
	if join.Key == "" || join.JoiningKey == "" {
		return fail(fmt.Errorf("both keys are required"))
	}

	left, err := s.Table(schema, join.Table)
	if err != nil {
		return fail(err)
	}
	right, err := s.Table(schema, join.JoiningTable)
	if err != nil {
		return fail(err)
	}
	leftCol, err := s.ResolveColumn(left, join.Key)
	if err != nil {
		return fail(err)
	}
	rightCol, err := s.ResolveColumn(right, join.JoiningKey)
	if err != nil {
		return fail(err)
	}

	vj := ValidatedJoin{
		Join:         join,
		Left:         left,
		LeftColumn:   leftCol,
		Right:        right,
		RightColumn:  rightCol,
		TypeMismatch: leftCol.Family() != rightCol.Family(),
	}
	vj.ForeignKey = s.matchEdge(left, leftCol, right, rightCol)
	return vj, nil
}

func (s *Snapshot) matchEdge(left *Table, leftCol Column, right *Table, rightCol Column) *ForeignKey {
	for i := range s.ForeignKeys {
		fk := &s.ForeignKeys[i]
		forward := fk.Schema == left.Schema && fk.Table == left.Name && fk.Key == leftCol.Name &&
			fk.ReferencedSchema == right.Schema && fk.ReferencedTable == right.Name && fk.ReferencedKey == rightCol.Name
		backward := fk.Schema == right.Schema && fk.Table == right.Name && fk.Key == rightCol.Name &&
			fk.ReferencedSchema == left.Schema && fk.ReferencedTable == left.Name && fk.ReferencedKey == leftCol.Name
		if forward || backward {
			edge := *fk
			return &edge
		}
	}
	return nil
}
