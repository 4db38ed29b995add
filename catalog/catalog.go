// Package catalog holds the reflected schema (tables, columns and foreign
// keys) as immutable, versioned snapshots that the compiler reads.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/satishbabariya/dataql/query/statement"
)

// Column is a reflected table column.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
	Position   int    `json:"position"`
}

// Family returns the column's type family.
func (c Column) Family() TypeFamily {
	return FamilyOf(c.Type)
}

// Table is a reflected table.
type Table struct {
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`

	columns map[string]int
}

// QualifiedName returns schema.name.
func (t *Table) QualifiedName() string {
	return qualify(t.Schema, t.Name)
}

// Column looks a column up by exact name, then lower-cased, then snake_cased.
func (t *Table) Column(name string) (Column, bool) {
	for _, candidate := range lookupKeys(name) {
		if i, ok := t.columns[candidate]; ok {
			return t.Columns[i], true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// ForeignKey is a single-column foreign-key edge.
type ForeignKey struct {
	Name             string `json:"name"`
	Schema           string `json:"schema"`
	Table            string `json:"table"`
	Key              string `json:"key"`
	ReferencedSchema string `json:"referencedSchema"`
	ReferencedTable  string `json:"referencedTable"`
	ReferencedKey    string `json:"referencedKey"`
}

// String renders the edge.
func (fk ForeignKey) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", qualify(fk.Schema, fk.Table), fk.Key,
		qualify(fk.ReferencedSchema, fk.ReferencedTable), fk.ReferencedKey)
}

// RawColumn is one metadata row describing a column.
type RawColumn struct {
	Schema     string
	Table      string
	Column     string
	DataType   string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// RawForeignKey is one metadata row describing a foreign-key column pair.
type RawForeignKey struct {
	Name             string
	Schema           string
	Table            string
	Column           string
	ReferencedSchema string
	ReferencedTable  string
	ReferencedColumn string
}

// Snapshot is an immutable reflection of the database schema. A snapshot is
// never modified after it has been built; rebuilds produce a new one.
type Snapshot struct {
	Version       uint64       `json:"version"`
	BuiltAt       time.Time    `json:"builtAt"`
	DefaultSchema string       `json:"defaultSchema"`
	Tables        []*Table     `json:"tables"`
	ForeignKeys   []ForeignKey `json:"foreignKeys"`

	tables map[string]*Table
}

// Build assembles a snapshot from raw metadata rows.
func Build(defaultSchema string, columns []RawColumn, foreignKeys []RawForeignKey) (*Snapshot, error) {
	if len(columns) == 0 {
		return nil, ErrEmptyCatalog
	}

	snap := &Snapshot{
		BuiltAt:       time.Now().UTC(),
		DefaultSchema: defaultSchema,
		tables:        make(map[string]*Table),
	}

	for i, raw := range columns {
		if raw.Table == "" || raw.Column == "" {
			return nil, fmt.Errorf("metadata row %d: table and column names are required", i)
		}
		schema := raw.Schema
		if schema == "" {
			schema = defaultSchema
		}

		key := qualify(schema, raw.Table)
		table, ok := snap.tables[key]
		if !ok {
			table = &Table{Schema: schema, Name: raw.Table, columns: make(map[string]int)}
			snap.tables[key] = table
			snap.Tables = append(snap.Tables, table)
		}
		if _, dup := table.columns[raw.Column]; dup {
			// information_schema repeats a column once per matching constraint
			if raw.PrimaryKey {
				table.Columns[table.columns[raw.Column]].PrimaryKey = true
			}
			continue
		}

		position := raw.Position
		if position == 0 {
			position = len(table.Columns) + 1
		}
		table.columns[raw.Column] = len(table.Columns)
		table.Columns = append(table.Columns, Column{
			Name:       raw.Column,
			Type:       raw.DataType,
			Nullable:   raw.Nullable,
			PrimaryKey: raw.PrimaryKey,
			Position:   position,
		})
	}

	sort.Slice(snap.Tables, func(i, j int) bool {
		return snap.Tables[i].QualifiedName() < snap.Tables[j].QualifiedName()
	})
	for _, table := range snap.Tables {
		sort.SliceStable(table.Columns, func(i, j int) bool {
			return table.Columns[i].Position < table.Columns[j].Position
		})
		for i, col := range table.Columns {
			table.columns[col.Name] = i
		}
	}

	seen := make(map[ForeignKey]bool)
	for _, raw := range foreignKeys {
		fk := ForeignKey{
			Name:             raw.Name,
			Schema:           orDefault(raw.Schema, defaultSchema),
			Table:            raw.Table,
			Key:              raw.Column,
			ReferencedSchema: orDefault(raw.ReferencedSchema, orDefault(raw.Schema, defaultSchema)),
			ReferencedTable:  raw.ReferencedTable,
			ReferencedKey:    raw.ReferencedColumn,
		}
		if seen[fk] {
			continue
		}
		seen[fk] = true
		snap.ForeignKeys = append(snap.ForeignKeys, fk)
	}
	sort.SliceStable(snap.ForeignKeys, func(i, j int) bool {
		return snap.ForeignKeys[i].String() < snap.ForeignKeys[j].String()
	})

	return snap, nil
}

// WithForeignKeys returns a copy of the snapshot with the edges of one table
// replaced. The receiver is left untouched.
func (s *Snapshot) WithForeignKeys(schema, table string, edges []ForeignKey) *Snapshot {
	schema = orDefault(schema, s.DefaultSchema)
	next := *s
	next.ForeignKeys = make([]ForeignKey, 0, len(s.ForeignKeys)+len(edges))
	for _, fk := range s.ForeignKeys {
		if fk.Schema == schema && fk.Table == table {
			continue
		}
		next.ForeignKeys = append(next.ForeignKeys, fk)
	}
	next.ForeignKeys = append(next.ForeignKeys, edges...)
	sort.SliceStable(next.ForeignKeys, func(i, j int) bool {
		return next.ForeignKeys[i].String() < next.ForeignKeys[j].String()
	})
	return &next
}

// Table returns the named table. An empty schema means the default schema.
func (s *Snapshot) Table(schema, name string) (*Table, error) {
	schema = orDefault(schema, s.DefaultSchema)
	for _, candidate := range lookupKeys(name) {
		if table, ok := s.tables[qualify(schema, candidate)]; ok {
			return table, nil
		}
	}
	return nil, &UnknownTableError{Schema: schema, Table: name}
}

// HasTable reports whether the named table exists.
func (s *Snapshot) HasTable(schema, name string) bool {
	_, err := s.Table(schema, name)
	return err == nil
}

// ResolveColumn returns the named column of a table.
func (s *Snapshot) ResolveColumn(table *Table, name string) (Column, error) {
	col, ok := table.Column(name)
	if !ok {
		return Column{}, &UnknownColumnError{Table: table.Name, Column: name}
	}
	return col, nil
}

// TableNames returns the qualified names of all tables, sorted.
func (s *Snapshot) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.QualifiedName()
	}
	return names
}

// Join is re-exported for callers that only import catalog.
type Join = statement.Join

func qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// lookupKeys returns the exact name followed by its lower-cased and
// snake_cased forms, without duplicates.
func lookupKeys(name string) []string {
	keys := []string{name}
	if lower := strings.ToLower(name); lower != name {
		keys = append(keys, lower)
	}
	if snake := statement.ToSnakeCase(name); snake != name && snake != keys[len(keys)-1] {
		keys = append(keys, snake)
	}
	return keys
}
