package compiler

import (
	"strings"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/query/statement"
)

// read compiles SELECT <fields> FROM <table> [joins] [where] [group]
// [order] [limit].
func (b *build) read() (string, error) {
	joins, err := b.joins()
	if err != nil {
		return "", err
	}

	var projection []string
	for _, f := range b.stmt.Fields {
		if d, ok := b.directiveOf(f); ok {
			switch d {
			case dirSelect:
				for _, arg := range f.Arguments {
					if arg.Name == "" {
						return "", b.invalidField(f, "select arguments must name a column")
					}
					expr, err := b.projectColumn(arg.Name)
					if err != nil {
						return "", err
					}
					projection = append(projection, expr)
					if err := b.addPredicate(arg, ""); err != nil {
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
				return "", b.invalidField(f, "not valid in a read")
			}
			continue
		}

		expr, err := b.projectColumn(f.Name)
		if err != nil {
			return "", err
		}
		projection = append(projection, expr)
		for _, arg := range f.Arguments {
			if err := b.addPredicate(arg, f.Name); err != nil {
				return "", err
			}
		}
	}

	if len(projection) == 0 {
		if !b.compiler.allowSelectAll {
			return "", &EmptyProjectionError{Table: b.scope.target().Name}
		}
		projection = []string{"*"}
	}

	return b.selectSQL(projection, joins)
}

// projectColumn renders one projected column. Qualified names keep their
// spelling as the result column name so joined columns do not collide.
func (b *build) projectColumn(name string) (string, error) {
	ref, _, err := b.scope.resolveRef(name)
	if err != nil {
		return "", err
	}
	if strings.Contains(name, ".") && len(b.scope.tables) > 1 {
		return ref + " AS " + b.dialect().Quote(name), nil
	}
	return ref, nil
}

// count compiles SELECT [group columns,] COUNT(*).
func (b *build) count() (string, error) {
	joins, err := b.joins()
	if err != nil {
		return "", err
	}
	if err := b.filtersOnly(); err != nil {
		return "", err
	}

	projection, err := b.groupColumns()
	if err != nil {
		return "", err
	}
	projection = append(projection, "COUNT(*) AS "+b.dialect().Quote("count"))
	return b.selectSQL(projection, joins)
}

// filtersOnly walks fields whose only role is filtering: column fields are
// validated and their arguments become predicates.
func (b *build) filtersOnly() error {
	for _, f := range b.stmt.Fields {
		if d, ok := b.directiveOf(f); ok {
			if d != dirWhere {
				return b.invalidField(f, "not valid in a "+string(b.cmd.Kind))
			}
			for _, arg := range f.Arguments {
				if err := b.addPredicate(arg, ""); err != nil {
					return err
				}
			}
			continue
		}
		if _, _, err := b.scope.resolve(f.Name); err != nil {
			return err
		}
		for _, arg := range f.Arguments {
			if err := b.addPredicate(arg, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// average compiles SELECT [group columns,] AVG(column) over the single
// projected column.
func (b *build) average() (string, error) {
	joins, err := b.joins()
	if err != nil {
		return "", err
	}

	var (
		target     string
		targetCol  catalog.Column
		targetName string
	)
	setTarget := func(f statement.Field, name string) error {
		ref, col, err := b.scope.resolveRef(name)
		if err != nil {
			return err
		}
		if target != "" {
			return b.invalidField(f, "average takes exactly one column, already averaging "+targetName)
		}
		target, targetCol, targetName = ref, col, name
		return nil
	}

	for _, f := range b.stmt.Fields {
		if d, ok := b.directiveOf(f); ok {
			switch d {
			case dirSelect:
				for _, arg := range f.Arguments {
					if err := setTarget(f, arg.Name); err != nil {
						return "", err
					}
					if err := b.addPredicate(arg, ""); err != nil {
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
				return "", b.invalidField(f, "not valid in an average")
			}
			continue
		}
		if err := setTarget(f, f.Name); err != nil {
			return "", err
		}
		for _, arg := range f.Arguments {
			if err := b.addPredicate(arg, f.Name); err != nil {
				return "", err
			}
		}
	}

	if target == "" {
		return "", &EmptyProjectionError{Table: b.scope.target().Name}
	}
	if fam := targetCol.Family(); fam != catalog.FamilyNumeric && fam != catalog.FamilyOther {
		return "", &InvalidFieldError{Field: targetName, Command: b.cmd.Name, Reason: "cannot average a column of type " + targetCol.Type}
	}

	projection, err := b.groupColumns()
	if err != nil {
		return "", err
	}
	projection = append(projection, "AVG("+target+") AS "+b.dialect().Quote("average"))
	return b.selectSQL(projection, joins)
}

func (b *build) groupColumns() ([]string, error) {
	var cols []string
	for _, name := range b.stmt.Options.GroupBy {
		ref, _, err := b.scope.resolveRef(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, ref)
	}
	return cols, nil
}

// selectSQL assembles the shared SELECT tail.
func (b *build) selectSQL(projection []string, joins string) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(projection, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from())
	sb.WriteString(joins)

	where, err := b.where()
	if err != nil {
		return "", err
	}
	sb.WriteString(where)

	group, err := b.groupColumns()
	if err != nil {
		return "", err
	}
	if len(group) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(group, ", "))
	}

	order, err := b.orderBy()
	if err != nil {
		return "", err
	}
	sb.WriteString(order)

	if page := b.dialect().Pagination(b.limit(), b.stmt.Options.Offset); page != "" {
		sb.WriteString(" ")
		sb.WriteString(page)
	}
	return sb.String(), nil
}

func (b *build) orderBy() (string, error) {
	if len(b.stmt.Options.OrderBy) == 0 {
		return "", nil
	}
	parts := make([]string, len(b.stmt.Options.OrderBy))
	for i, ob := range b.stmt.Options.OrderBy {
		ref, _, err := b.scope.resolveRef(ob.Field)
		if err != nil {
			return "", err
		}
		parts[i] = ref + " " + ob.Order.String()
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// limit is the SQL-level cap: limit when given, else numOfRows, and at most
// one row for single-row commands without an explicit limit.
func (b *build) limit() *int64 {
	opts := b.stmt.Options
	if opts.Limit != nil {
		return opts.Limit
	}
	limit := opts.NumOfRows
	if b.cmd.Single && (limit == nil || *limit > 1) {
		return statement.Int64(1)
	}
	return limit
}
