package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dataql/catalog"
	"github.com/satishbabariya/dataql/query/sqlgen"
	"github.com/satishbabariya/dataql/query/statement"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name string
		arg  statement.Argument
		kind sqlgen.LiteralKind
		text string
	}{
		{"no value no type", statement.Argument{Name: "a"}, sqlgen.Absent, ""},
		{"value without type", statement.Argument{Name: "a", Value: statement.String("x")}, sqlgen.String, "x"},
		{"string", statement.Arg("a", "x", "String"), sqlgen.String, "x"},
		{"integer number", statement.Arg("a", "42", "number"), sqlgen.Number, "42"},
		{"fractional number", statement.Arg("a", "4.5", "number"), sqlgen.Number, "4.5"},
		{"float", statement.Arg("a", "3", "float"), sqlgen.Number, "3"},
		{"boolean", statement.Arg("a", "TRUE", "boolean"), sqlgen.Boolean, "true"},
		{"null ignores value", statement.Arg("a", "x", "null"), sqlgen.Null, ""},
		{"typed without value", statement.Argument{Name: "a", ValueType: statement.String("number")}, sqlgen.Absent, ""},
		{"date", statement.Arg("a", "2024-02-29", "date"), sqlgen.Date, "2024-02-29"},
		{"datetime", statement.Arg("a", "2024-02-29 10:11:12", "datetime"), sqlgen.DateTime, "2024-02-29 10:11:12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit, err := ParseLiteral(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, lit.Kind())
			assert.Equal(t, tt.text, lit.Text())
		})
	}
}

func TestParseLiteral_Float(t *testing.T) {
	lit, err := ParseLiteral(statement.Arg("price", "9.99", "number"))
	require.NoError(t, err)
	assert.True(t, lit.IsFloat())
	assert.InDelta(t, 9.99, lit.Float(), 1e-9)
	assert.Equal(t, 9.99, lit.Value())
}

func TestParseLiteral_DateTimeIsUTC(t *testing.T) {
	lit, err := ParseLiteral(statement.Arg("at", "2024-01-01T12:00:00+02:00", "datetime"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 10:00:00", lit.Text())
	assert.True(t, lit.Time().Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
}

func TestParseLiteral_Errors(t *testing.T) {
	_, err := ParseLiteral(statement.Arg("a", "1", "custom"))
	var unsupported *UnsupportedArgumentTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "custom", unsupported.ValueType)

	_, err = ParseLiteral(statement.Arg("a", "1.5", "integer"))
	var invalid *InvalidArgumentValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "1.5", invalid.Value)
	assert.Error(t, invalid.Unwrap())
}

func TestTranslate(t *testing.T) {
	binder := sqlgen.NewBinder(sqlgen.PostgreSQL)
	col := catalog.Column{Name: "age", Type: "integer"}

	frag, err := Translate(statement.Arg("age", "3", "number"), `"age"`, col, binder)
	require.NoError(t, err)
	assert.False(t, frag.Structural)
	assert.Equal(t, `"age" = $1`, frag.Condition.String())

	frag, err = Translate(statement.Argument{Name: "age"}, `"age"`, col, binder)
	require.NoError(t, err)
	assert.True(t, frag.Structural)

	frag, err = Translate(statement.Argument{Name: "age", ValueType: statement.String("null")}, `"age"`, col, binder)
	require.NoError(t, err)
	assert.Equal(t, `"age" IS NULL`, frag.Condition.String())

	assert.Len(t, binder.Params(), 1)
}

func TestTypeHint(t *testing.T) {
	tests := []struct {
		name   string
		lit    sqlgen.Literal
		column catalog.Column
		hint   string
	}{
		{"string into uuid", sqlgen.StringLiteral("x"), catalog.Column{Type: "uuid"}, sqlgen.HintUUID},
		{"string into jsonb", sqlgen.StringLiteral("{}"), catalog.Column{Type: "jsonb"}, sqlgen.HintJSON},
		{"string into numeric", sqlgen.StringLiteral("1.10"), catalog.Column{Type: "numeric(10,2)"}, sqlgen.HintDecimal},
		{"float into numeric", sqlgen.FloatLiteral(1.1), catalog.Column{Type: "numeric"}, sqlgen.HintDecimal},
		{"int into numeric", sqlgen.IntLiteral(1), catalog.Column{Type: "numeric"}, sqlgen.HintNone},
		{"string into timestamp", sqlgen.StringLiteral("2024-01-01 00:00:00"), catalog.Column{Type: "timestamp"}, sqlgen.HintTimestamp},
		{"string into date", sqlgen.StringLiteral("2024-01-01"), catalog.Column{Type: "date"}, sqlgen.HintDate},
		{"string into time", sqlgen.StringLiteral("10:00"), catalog.Column{Type: "time without time zone"}, sqlgen.HintTime},
		{"string into text", sqlgen.StringLiteral("x"), catalog.Column{Type: "text"}, sqlgen.HintNone},
		{"boolean", sqlgen.BoolLiteral(true), catalog.Column{Type: "boolean"}, sqlgen.HintNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hint, typeHint(tt.lit, tt.column))
		})
	}
}
