// Package compiler compiles structured statements into SQL text and bound
// parameters against a catalog snapshot.
package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/internal/debug"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

// Options configure a Compiler.
type Options struct {
	// Dialect defaults to sqlgen.DataAPI.
	Dialect *sqlgen.Dialect
	// Vocabulary defaults to statement.DefaultVocabulary.
	Vocabulary statement.Vocabulary
	// AllowSelectAll compiles a read with no projected columns to SELECT *
	// instead of failing with EmptyProjectionError.
	AllowSelectAll bool
}

// Compiler turns statements into SQL. It holds no mutable state and is safe
// for concurrent use.
type Compiler struct {
	dialect        *sqlgen.Dialect
	vocabulary     statement.Vocabulary
	allowSelectAll bool
}

// New creates a compiler.
func New(opts Options) *Compiler {
	if opts.Dialect == nil {
		opts.Dialect = sqlgen.DataAPI
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = statement.DefaultVocabulary()
	}
	return &Compiler{
		dialect:        opts.Dialect,
		vocabulary:     opts.Vocabulary,
		allowSelectAll: opts.AllowSelectAll,
	}
}

// Dialect returns the dialect the compiler emits.
func (c *Compiler) Dialect() *sqlgen.Dialect {
	return c.dialect
}

// Compiled is the output of a compile.
type Compiled struct {
	Command statement.Command
	// Table is the qualified target relation.
	Table  string
	SQL    string
	Params []sqlgen.Param
	// RowCap is numOfRows for reads; callers truncate results to it.
	RowCap *int64
	Joins  []catalog.ValidatedJoin
	// Returning reports whether the statement produces a result set.
	Returning bool
	// CatalogVersion is the version of the snapshot compiled against.
	CatalogVersion uint64
}

// Args returns the parameter values in placeholder order.
func (c *Compiled) Args() []any {
	return sqlgen.Args(c.Params)
}

// Compile compiles stmt against snap. Identical inputs always produce
// identical output.
func (c *Compiler) Compile(stmt *statement.Statement, snap *catalog.Snapshot) (*Compiled, error) {
	if stmt == nil {
		return nil, fmt.Errorf("%w: nil statement", ErrEmptyStatement)
	}
	if strings.TrimSpace(stmt.Metadata.Table) == "" {
		return nil, &MissingTargetError{Command: stmt.Metadata.Command}
	}
	cmd, err := c.vocabulary.Resolve(stmt.Metadata.Command)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoCatalog
	}
	if err := validateOptions(cmd, stmt.Options); err != nil {
		return nil, err
	}

	schema := stmt.Metadata.Schema
	if schema == "" {
		schema = snap.DefaultSchema
	}
	target, err := snap.Table(schema, stmt.Metadata.Table)
	if err != nil {
		return nil, err
	}

	b := &build{
		compiler: c,
		cmd:      cmd,
		stmt:     stmt,
		scope:    newScope(c.dialect, snap, schema, target),
		binder:   sqlgen.NewBinder(c.dialect),
	}

	var sql string
	switch cmd.Kind {
	case statement.KindRead:
		sql, err = b.read()
	case statement.KindCount:
		sql, err = b.count()
	case statement.KindAverage:
		sql, err = b.average()
	case statement.KindInsert:
		sql, err = b.insert()
	case statement.KindUpdate:
		sql, err = b.update()
	case statement.KindDelete:
		sql, err = b.delete()
	default:
		err = &statement.UnknownCommandError{Command: stmt.Metadata.Command}
	}
	if err != nil {
		return nil, err
	}

	out := &Compiled{
		Command:        cmd,
		Table:          target.QualifiedName(),
		SQL:            sql,
		Params:         b.binder.Params(),
		Joins:          b.scope.joins,
		Returning:      !cmd.Kind.IsWrite() || b.returns,
		CatalogVersion: snap.Version,
	}
	if cmd.Kind == statement.KindRead && stmt.Options.NumOfRows != nil {
		rowCap := *stmt.Options.NumOfRows
		out.RowCap = &rowCap
	}

	debug.Debug("Compiled statement", "command", cmd.Name, "table", out.Table, "sql", out.SQL, "params", len(out.Params))
	return out, nil
}

func validateOptions(cmd statement.Command, opts statement.Options) error {
	for _, o := range []struct {
		name  string
		value *int64
	}{
		{"limit", opts.Limit},
		{"offset", opts.Offset},
		{"numOfRows", opts.NumOfRows},
	} {
		if o.value != nil && *o.value < 0 {
			return &InvalidOptionError{Option: o.name, Reason: fmt.Sprintf("must not be negative, got %d", *o.value)}
		}
	}
	for i, ob := range opts.OrderBy {
		if ob.Field == "" {
			return &InvalidOptionError{Option: fmt.Sprintf("orderBy[%d]", i), Reason: "field is required"}
		}
	}

	if !cmd.Kind.IsWrite() {
		return nil
	}
	unsupported := func(option string) error {
		return &InvalidOptionError{Option: option, Reason: fmt.Sprintf("not supported by %s", cmd.Kind)}
	}
	switch {
	case len(opts.Joins()) > 0:
		return unsupported("include.joins")
	case len(opts.GroupBy) > 0:
		return unsupported("groupBy")
	case len(opts.OrderBy) > 0:
		return unsupported("orderBy")
	case opts.Limit != nil:
		return unsupported("limit")
	case opts.Offset != nil:
		return unsupported("offset")
	}
	return nil
}

type directive string

const (
	dirSelect   directive = "select"
	dirWhere    directive = "where"
	dirData     directive = "data"
	dirSet      directive = "set"
	dirReturn   directive = "return"
	dirNoReturn directive = "no_return"
)

// predicate is a filter recorded while walking fields and bound when the
// WHERE clause is rendered, so that placeholders follow text order.
type predicate struct {
	ref    string
	column catalog.Column
	arg    statement.Argument
}

// build is the state of one compile.
type build struct {
	compiler   *Compiler
	cmd        statement.Command
	stmt       *statement.Statement
	scope      *scope
	binder     *sqlgen.Binder
	predicates []predicate
	returns    bool
}

func (b *build) dialect() *sqlgen.Dialect {
	return b.compiler.dialect
}

// directiveOf reports whether the field is a clause directive rather than a
// column. A real column of the same name always wins.
func (b *build) directiveOf(f statement.Field) (directive, bool) {
	name := directive(strings.ToLower(statement.ToSnakeCase(strings.TrimSpace(f.Name))))
	switch name {
	case dirSelect, dirWhere, dirData, dirSet, dirReturn, dirNoReturn:
		if b.scope.target().HasColumn(f.Name) {
			return "", false
		}
		return name, true
	}
	return "", false
}

func (b *build) invalidField(f statement.Field, reason string) error {
	return &InvalidFieldError{Field: f.Name, Command: b.cmd.Name, Reason: reason}
}

// addPredicate records arg as a filter on the column it names, or on
// fallback when the argument is unnamed.
func (b *build) addPredicate(arg statement.Argument, fallback string) error {
	name := arg.Name
	if name == "" {
		name = fallback
	}
	if name == "" {
		return &InvalidFieldError{Field: string(dirWhere), Command: b.cmd.Name, Reason: "argument name is required"}
	}
	ref, col, err := b.scope.resolveRef(name)
	if err != nil {
		return err
	}
	b.predicates = append(b.predicates, predicate{ref: ref, column: col, arg: arg})
	return nil
}

// where renders the WHERE clause, binding predicate values in order.
func (b *build) where() (string, error) {
	var clause sqlgen.WhereClause
	for _, p := range b.predicates {
		frag, err := Translate(p.arg, p.ref, p.column, b.binder)
		if err != nil {
			return "", err
		}
		if !frag.Structural {
			clause.AddCondition(frag.Condition)
		}
	}
	if clause.IsEmpty() {
		return "", nil
	}
	return " WHERE " + clause.String(), nil
}

// joins validates every declared join and renders the join clauses. It must
// run before any column is resolved so references are qualified.
func (b *build) joins() (string, error) {
	var sb strings.Builder
	for _, j := range b.stmt.Options.Joins() {
		vj, joined, err := b.scope.join(j)
		if err != nil {
			return "", err
		}
		if vj.ForeignKey == nil {
			debug.Debug("Join has no backing foreign key", "join", j.String())
		}
		if vj.TypeMismatch {
			debug.Warn("Join keys have different types", "join", j.String(),
				"left", vj.LeftColumn.Type, "right", vj.RightColumn.Type)
		}
		d := b.dialect()
		sb.WriteString(" INNER JOIN ")
		sb.WriteString(d.QualifiedName(joined.Schema, joined.Name))
		sb.WriteString(" ON ")
		sb.WriteString(d.ColumnRef(vj.Left.Name, vj.LeftColumn.Name))
		sb.WriteString(" = ")
		sb.WriteString(d.ColumnRef(vj.Right.Name, vj.RightColumn.Name))
	}
	return sb.String(), nil
}

func (b *build) from() string {
	t := b.scope.target()
	return b.dialect().QualifiedName(t.Schema, t.Name)
}
