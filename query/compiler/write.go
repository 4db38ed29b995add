package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/internal/debug"
	"github.com/satishbabariya/dataql/query/statement"
)

// assigned collects the values of one target column. Each argument is one
// row for an insert; an update holds exactly one.
type assigned struct {
	field  string
	column catalog.Column
	args   []statement.Argument
	// fromData marks columns filled by the data directive, where repeated
	// names append rows.
	fromData bool
}

// writeState is shared by the write paths.
type writeState struct {
	columns   []*assigned
	byName    map[string]*assigned
	returning []string
	noReturn  bool
}

func newWriteState() *writeState {
	return &writeState{byName: make(map[string]*assigned)}
}

func (b *build) requireFields() error {
	if len(b.stmt.Fields) == 0 {
		return &EmptyStatementError{Command: b.cmd.Name, Table: b.scope.target().Name, Reason: "no fields"}
	}
	return nil
}

// returnDirective handles return and no_return, reporting whether f was one.
func (b *build) returnDirective(ws *writeState, d directive, f statement.Field) (bool, error) {
	switch d {
	case dirReturn:
		for _, arg := range f.Arguments {
			if arg.Name == "" {
				return true, b.invalidField(f, "return arguments must name a column")
			}
			ref, _, err := b.scope.resolveRef(arg.Name)
			if err != nil {
				return true, err
			}
			ws.returning = append(ws.returning, ref)
		}
		return true, nil
	case dirNoReturn:
		ws.noReturn = true
		return true, nil
	}
	return false, nil
}

// returningClause renders RETURNING for dialects that support it.
func (b *build) returningClause(ws *writeState) (string, error) {
	if ws.noReturn {
		return "", nil
	}
	if !b.dialect().SupportsReturning() {
		if len(ws.returning) > 0 {
			return "", &InvalidFieldError{Field: string(dirReturn), Command: b.cmd.Name,
				Reason: "RETURNING is not supported by " + b.dialect().Name()}
		}
		return "", nil
	}
	b.returns = true
	if len(ws.returning) == 0 {
		return " RETURNING *", nil
	}
	return " RETURNING " + strings.Join(ws.returning, ", "), nil
}

// insert compiles INSERT INTO <table> (<columns>) VALUES (...), ...
func (b *build) insert() (string, error) {
	if err := b.requireFields(); err != nil {
		return "", err
	}

	ws := newWriteState()
	for _, f := range b.stmt.Fields {
		if d, ok := b.directiveOf(f); ok {
			if handled, err := b.returnDirective(ws, d, f); handled {
				if err != nil {
					return "", err
				}
				continue
			}
			if d != dirData {
				return "", b.invalidField(f, "not valid in an insert")
			}
			for _, arg := range f.Arguments {
				if arg.Name == "" {
					return "", b.invalidField(f, "data arguments must name a column")
				}
				if err := b.assignInsert(ws, f, arg.Name, []statement.Argument{arg}, true); err != nil {
					return "", err
				}
			}
			continue
		}

		if len(f.Arguments) == 0 {
			return "", b.invalidField(f, "no values to insert")
		}
		if err := b.assignInsert(ws, f, f.Name, f.Arguments, false); err != nil {
			return "", err
		}
	}

	if len(ws.columns) == 0 {
		return "", &EmptyStatementError{Command: b.cmd.Name, Table: b.scope.target().Name, Reason: "no columns to insert"}
	}

	rows := len(ws.columns[0].args)
	for _, a := range ws.columns[1:] {
		if len(a.args) != rows {
			return "", &InvalidFieldError{Field: a.field, Command: b.cmd.Name,
				Reason: fmt.Sprintf("column %q has %d values, expected %d", a.column.Name, len(a.args), rows)}
		}
	}
	if n := b.stmt.Options.NumOfRows; n != nil && *n != int64(rows) {
		return "", &InvalidOptionError{Option: "numOfRows", Reason: fmt.Sprintf("statement carries %d rows, not %d", rows, *n)}
	}

	d := b.dialect()
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.from())
	sb.WriteString(" (")
	for i, a := range ws.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.Quote(a.column.Name))
	}
	sb.WriteString(") VALUES ")
	for row := 0; row < rows; row++ {
		if row > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for i, a := range ws.columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			value, err := assignmentValue(a.args[row], a.column, b.binder)
			if err != nil {
				return "", err
			}
			sb.WriteString(value)
		}
		sb.WriteString(")")
	}

	ret, err := b.returningClause(ws)
	if err != nil {
		return "", err
	}
	sb.WriteString(ret)
	return sb.String(), nil
}

func (b *build) assignInsert(ws *writeState, f statement.Field, name string, args []statement.Argument, fromData bool) error {
	_, col, err := b.scope.resolve(name)
	if err != nil {
		return err
	}
	if existing, ok := ws.byName[col.Name]; ok {
		if fromData && existing.fromData {
			existing.args = append(existing.args, args...)
			return nil
		}
		return b.invalidField(f, fmt.Sprintf("column %q is assigned more than once", col.Name))
	}
	a := &assigned{field: f.Name, column: col, args: append([]statement.Argument(nil), args...), fromData: fromData}
	ws.columns = append(ws.columns, a)
	ws.byName[col.Name] = a
	return nil
}

// update compiles UPDATE <table> SET ... [WHERE ...].
func (b *build) update() (string, error) {
	if err := b.requireFields(); err != nil {
		return "", err
	}

	ws := newWriteState()
	assign := func(f statement.Field, col catalog.Column, arg statement.Argument) error {
		if _, ok := ws.byName[col.Name]; ok {
			return b.invalidField(f, fmt.Sprintf("column %q is assigned more than once", col.Name))
		}
		a := &assigned{field: f.Name, column: col, args: []statement.Argument{arg}}
		ws.columns = append(ws.columns, a)
		ws.byName[col.Name] = a
		return nil
	}

	for _, f := range b.stmt.Fields {
		if d, ok := b.directiveOf(f); ok {
			if handled, err := b.returnDirective(ws, d, f); handled {
				if err != nil {
					return "", err
				}
				continue
			}
			switch d {
			case dirSet, dirData:
				for _, arg := range f.Arguments {
					if arg.Name == "" {
						return "", b.invalidField(f, "assignments must name a column")
					}
					_, col, err := b.scope.resolve(arg.Name)
					if err != nil {
						return "", err
					}
					if err := assign(f, col, arg); err != nil {
						return "", err
					}
				}
			case dirWhere:
				for _, arg := range f.Arguments {
					if err := b.addPredicate(arg, ""); err != nil {
						return "", err
					}
				}
			default:
				return "", b.invalidField(f, "not valid in an update")
			}
			continue
		}

		_, fieldCol, err := b.scope.resolve(f.Name)
		if err != nil {
			return "", err
		}
		for _, arg := range f.Arguments {
			if arg.Name != "" {
				if _, argCol, err := b.scope.resolve(arg.Name); err != nil {
					return "", err
				} else if argCol.Name != fieldCol.Name {
					if err := b.addPredicate(arg, ""); err != nil {
						return "", err
					}
					continue
				}
			}
			if err := assign(f, fieldCol, arg); err != nil {
				return "", err
			}
		}
	}

	if len(ws.columns) == 0 {
		return "", &EmptyStatementError{Command: b.cmd.Name, Table: b.scope.target().Name, Reason: "no columns to update"}
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.from())
	sb.WriteString(" SET ")
	for i, a := range ws.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		value, err := assignmentValue(a.args[0], a.column, b.binder)
		if err != nil {
			return "", err
		}
		sb.WriteString(b.dialect().Quote(a.column.Name))
		sb.WriteString(" = ")
		sb.WriteString(value)
	}

	if err := b.writeTail(&sb, ws); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// delete compiles DELETE FROM <table> [WHERE ...].
func (b *build) delete() (string, error) {
	if err := b.requireFields(); err != nil {
		return "", err
	}

	ws := newWriteState()
	for _, f := range b.stmt.Fields {
		if d, ok := b.directiveOf(f); ok {
			if handled, err := b.returnDirective(ws, d, f); handled {
				if err != nil {
					return "", err
				}
				continue
			}
			if d != dirWhere {
				return "", b.invalidField(f, "not valid in a delete")
			}
			for _, arg := range f.Arguments {
				if err := b.addPredicate(arg, ""); err != nil {
					return "", err
				}
			}
			continue
		}

		if _, _, err := b.scope.resolve(f.Name); err != nil {
			return "", err
		}
		for _, arg := range f.Arguments {
			if err := b.addPredicate(arg, f.Name); err != nil {
				return "", err
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.from())
	if err := b.writeTail(&sb, ws); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writeTail appends WHERE and RETURNING to an update or delete.
func (b *build) writeTail(sb *strings.Builder, ws *writeState) error {
	where, err := b.where()
	if err != nil {
		return err
	}
	if where == "" {
		debug.Warn("Statement has no filter and affects every row", "command", b.cmd.Name, "table", b.scope.target().QualifiedName())
	}
	sb.WriteString(where)

	ret, err := b.returningClause(ws)
	if err != nil {
		return err
	}
	sb.WriteString(ret)
	return nil
}
