package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dataql/cli/internal/shorthand"
	"github.com/satishbabariya/dataql/cli/internal/ui"
	"github.com/satishbabariya/dataql/query/compiler"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

// queryFlags build a statement without a JSON file.
type queryFlags struct {
	command string
	table   string
	fields  string
	orderBy string
	groupBy string
	joins   []string
	limit   int64
	offset  int64
	numRows int64
}

func newQueryCommand() *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "query [statement.json]",
		Short: "Compile and run a statement",
		Long: `Compile and run a statement given as a JSON file ("-" for stdin) or built
from flags. Fields use the shorthand syntax:

  id, total, status(status: "paid"), where(age: 30 number, deletedAt: null)`,
		Example: `  dataql query stmt.json
  dataql query --table orders --fields 'id, total' --order-by 'id desc' --limit 5
  dataql query --table orders --fields 'orders.id, users.email' --join orders.user_id=users.id`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				stmt *statement.Statement
				err  error
			)
			if len(args) == 1 {
				if qf.table != "" {
					return fmt.Errorf("give either a statement file or --table, not both")
				}
				stmt, err = readStatement(args[0])
			} else {
				stmt, err = qf.statement(cmd)
			}
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := e.Query(ctx, stmt)
			if err != nil {
				return err
			}
			return ui.PrintJSON(out)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&qf.command, "command", "c", "read", "command name")
	f.StringVarP(&qf.table, "table", "t", "", "target table")
	f.StringVarP(&qf.fields, "fields", "f", "", "fields in shorthand syntax")
	f.StringVar(&qf.orderBy, "order-by", "", "ordering, e.g. 'created_at desc, id'")
	f.StringVar(&qf.groupBy, "group-by", "", "comma-separated group columns")
	f.StringArrayVarP(&qf.joins, "join", "j", nil, "join as table.key=joiningTable.joiningKey (repeatable)")
	f.Int64Var(&qf.limit, "limit", 0, "LIMIT")
	f.Int64Var(&qf.offset, "offset", 0, "OFFSET")
	f.Int64Var(&qf.numRows, "num-rows", 0, "row count cap")
	return cmd
}

// statement builds a statement from the flags that were set.
func (qf *queryFlags) statement(cmd *cobra.Command) (*statement.Statement, error) {
	if qf.table == "" {
		return nil, fmt.Errorf("a statement file or --table is required")
	}
	fields, err := shorthand.Parse(qf.fields)
	if err != nil {
		return nil, err
	}

	stmt := &statement.Statement{
		Metadata: statement.Metadata{Command: qf.command, Table: qf.table, Schema: opts.schema},
		Fields:   fields,
	}

	if qf.orderBy != "" {
		orders, err := parseOrderBy(qf.orderBy)
		if err != nil {
			return nil, err
		}
		stmt.Options.OrderBy = orders
	}
	stmt.Options.GroupBy = splitList(qf.groupBy)

	for _, spec := range qf.joins {
		join, err := parseJoin(spec)
		if err != nil {
			return nil, err
		}
		if stmt.Options.Include == nil {
			stmt.Options.Include = &statement.IncludeField{}
		}
		stmt.Options.Include.Joins = append(stmt.Options.Include.Joins, join)
	}

	flags := cmd.Flags()
	if flags.Changed("limit") {
		stmt.Options.Limit = statement.Int64(qf.limit)
	}
	if flags.Changed("offset") {
		stmt.Options.Offset = statement.Int64(qf.offset)
	}
	if flags.Changed("num-rows") {
		stmt.Options.NumOfRows = statement.Int64(qf.numRows)
	}
	return stmt, nil
}

// parseOrderBy parses "field [asc|desc], ...".
func parseOrderBy(s string) ([]statement.OrderBy, error) {
	var orders []statement.OrderBy
	for _, part := range splitList(s) {
		words := strings.Fields(part)
		ob := statement.OrderBy{Field: words[0], Order: statement.Asc}
		switch len(words) {
		case 1:
		case 2:
			order, err := statement.ParseOrder(words[1])
			if err != nil {
				return nil, err
			}
			ob.Order = order
		default:
			return nil, fmt.Errorf("invalid order-by term %q", part)
		}
		orders = append(orders, ob)
	}
	return orders, nil
}

// parseJoin parses "table.key=joiningTable.joiningKey".
func parseJoin(s string) (statement.Join, error) {
	left, right, ok := strings.Cut(s, "=")
	if !ok {
		return statement.Join{}, fmt.Errorf("invalid join %q: expected table.key=table.key", s)
	}
	lt, lk, ok1 := strings.Cut(strings.TrimSpace(left), ".")
	rt, rk, ok2 := strings.Cut(strings.TrimSpace(right), ".")
	if !ok1 || !ok2 || lt == "" || lk == "" || rt == "" || rk == "" {
		return statement.Join{}, fmt.Errorf("invalid join %q: expected table.key=table.key", s)
	}
	return statement.Join{Table: lt, Key: lk, JoiningTable: rt, JoiningKey: rk}, nil
}

func newRawCommand() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "raw <sql>",
		Short: "Run SQL as given, bypassing the compiler",
		Long: `Run SQL as given. Parameters are bound in order as p1, p2, ... and use the
backend's placeholder syntax (:p1 for the Data API, $1 for postgres, ? otherwise).`,
		Example: `  dataql raw 'SELECT * FROM users WHERE age > :p1' --param number=30`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bound, err := parseParams(params)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			out, err := e.QueryRaw(ctx, args[0], bound)
			if err != nil {
				return err
			}
			return ui.PrintJSON(out)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter as [type=]value (repeatable)")
	return cmd
}

// parseParams turns "[type=]value" flags into parameters named p1, p2, ...
func parseParams(specs []string) ([]sqlgen.Param, error) {
	binder := sqlgen.NewBinder(sqlgen.DataAPI)
	for i, spec := range specs {
		valueType, value, ok := strings.Cut(spec, "=")
		if !ok {
			valueType, value = "string", spec
		}

		name := sqlgen.ParamName(i + 1)
		arg := statement.Arg(name, value, valueType)
		if valueType == "null" {
			arg = statement.Argument{Name: name, ValueType: statement.String("null")}
		}
		lit, err := compiler.ParseLiteral(arg)
		if err != nil {
			return nil, err
		}
		binder.Bind(lit)
	}
	return binder.Params(), nil
}
