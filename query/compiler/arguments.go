package compiler

import (
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	sqlgen.DateTimeLayout,
}

// ParseLiteral converts an argument into a typed literal.
func ParseLiteral(arg statement.Argument) (sqlgen.Literal, error) {
	valueType := ""
	if arg.ValueType != nil {
		valueType = strings.ToLower(strings.TrimSpace(*arg.ValueType))
	}

	switch valueType {
	case "", "string", "text":
		if arg.Value == nil {
			return sqlgen.Literal{}, nil
		}
		return sqlgen.StringLiteral(*arg.Value), nil
	case "null":
		return sqlgen.NullLiteral(), nil
	case "number", "integer", "float", "decimal", "boolean", "bool", "date", "datetime", "timestamp":
	default:
		return sqlgen.Literal{}, &UnsupportedArgumentTypeError{Argument: arg.Name, ValueType: valueType}
	}

	if arg.Value == nil {
		return sqlgen.Literal{}, nil
	}
	value := strings.TrimSpace(*arg.Value)
	invalid := func(err error) (sqlgen.Literal, error) {
		return sqlgen.Literal{}, &InvalidArgumentValueError{Argument: arg.Name, ValueType: valueType, Value: *arg.Value, Cause: err}
	}

	switch valueType {
	case "integer":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return invalid(err)
		}
		return sqlgen.IntLiteral(n), nil
	case "number":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return sqlgen.IntLiteral(n), nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid(err)
		}
		return sqlgen.FloatLiteral(f), nil
	case "float", "decimal":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid(err)
		}
		return sqlgen.FloatLiteral(f), nil
	case "boolean", "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalid(err)
		}
		return sqlgen.BoolLiteral(b), nil
	case "date":
		t, err := time.Parse(sqlgen.DateLayout, value)
		if err != nil {
			return invalid(err)
		}
		return sqlgen.DateLiteral(t), nil
	default:
		var lastErr error
		for _, layout := range dateTimeLayouts {
			t, err := time.Parse(layout, value)
			if err == nil {
				return sqlgen.DateTimeLiteral(t), nil
			}
			lastErr = err
		}
		return invalid(lastErr)
	}
}

// Fragment is the rendered form of one argument. A structural argument (no
// value) renders no condition.
type Fragment struct {
	Condition  sqlgen.Condition
	Structural bool
}

// Translate renders arg as a predicate on the column referenced by ref. The
// value is always bound through binder; it never appears in the SQL text.
func Translate(arg statement.Argument, ref string, column catalog.Column, binder *sqlgen.Binder) (Fragment, error) {
	lit, err := ParseLiteral(arg)
	if err != nil {
		return Fragment{}, err
	}
	if err := checkColumn(arg, lit, column); err != nil {
		return Fragment{}, err
	}

	switch lit.Kind() {
	case sqlgen.Absent:
		return Fragment{Structural: true}, nil
	case sqlgen.Null:
		return Fragment{Condition: sqlgen.Condition{Left: ref, Operator: "IS NULL"}}, nil
	default:
		return Fragment{Condition: sqlgen.Condition{Left: ref, Operator: "=", Right: bind(binder, lit, column)}}, nil
	}
}

// assignmentValue renders the right-hand side of an assignment or an
// INSERT value.
func assignmentValue(arg statement.Argument, column catalog.Column, binder *sqlgen.Binder) (string, error) {
	lit, err := ParseLiteral(arg)
	if err != nil {
		return "", err
	}
	if err := checkColumn(arg, lit, column); err != nil {
		return "", err
	}

	switch lit.Kind() {
	case sqlgen.Absent:
		return "DEFAULT", nil
	case sqlgen.Null:
		return "NULL", nil
	default:
		return bind(binder, lit, column), nil
	}
}

// checkColumn rejects literals that cannot bind to the column's type family.
// Strings and nulls bind to anything and are left to the database.
func checkColumn(arg statement.Argument, lit sqlgen.Literal, column catalog.Column) error {
	family := column.Family()
	ok := true
	switch lit.Kind() {
	case sqlgen.Number:
		ok = family == catalog.FamilyNumeric || family == catalog.FamilyOther
	case sqlgen.Boolean:
		ok = family == catalog.FamilyBoolean || family == catalog.FamilyNumeric || family == catalog.FamilyOther
	case sqlgen.Date, sqlgen.DateTime:
		ok = family == catalog.FamilyTemporal || family == catalog.FamilyText || family == catalog.FamilyOther
	}
	if ok {
		return nil
	}
	return &ArgumentTypeMismatchError{Argument: arg.Name, Column: column.Name, ColumnType: column.Type, Kind: lit.Kind()}
}

func bind(binder *sqlgen.Binder, lit sqlgen.Literal, column catalog.Column) string {
	return binder.BindHinted(lit, typeHint(lit, column))
}

// typeHint tells the Data API how to cast a value whose JSON form is a string.
func typeHint(lit sqlgen.Literal, column catalog.Column) string {
	switch lit.Kind() {
	case sqlgen.Date:
		return sqlgen.HintDate
	case sqlgen.DateTime:
		return sqlgen.HintTimestamp
	case sqlgen.Number:
		if lit.IsFloat() && catalog.IsExactNumeric(column.Type) {
			return sqlgen.HintDecimal
		}
		return sqlgen.HintNone
	case sqlgen.String:
	default:
		return sqlgen.HintNone
	}

	t := strings.ToLower(column.Type)
	switch column.Family() {
	case catalog.FamilyUUID:
		return sqlgen.HintUUID
	case catalog.FamilyJSON:
		return sqlgen.HintJSON
	case catalog.FamilyNumeric:
		if catalog.IsExactNumeric(t) {
			return sqlgen.HintDecimal
		}
	case catalog.FamilyTemporal:
		switch {
		case strings.Contains(t, "timestamp") || strings.Contains(t, "datetime"):
			return sqlgen.HintTimestamp
		case strings.Contains(t, "date"):
			return sqlgen.HintDate
		case strings.HasPrefix(t, "time"):
			return sqlgen.HintTime
		}
	}
	return sqlgen.HintNone
}
