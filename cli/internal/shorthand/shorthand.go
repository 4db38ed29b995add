// Package shorthand parses the compact field syntax accepted by the query
// command, for example:
//
//	id, total, status(status: "paid"), where(age: 30 number, deletedAt: null)
package shorthand

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/dataql/query/statement"
)

var fieldLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Punct", Pattern: `[(),:.]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// FieldList is the parse tree of a field list.
type FieldList struct {
	Pos    lexer.Position
	Fields []*Field `(@@ ("," @@)*)? ","?`
}

// Field is a field name with optional arguments.
type Field struct {
	Pos       lexer.Position
	Name      string      `@Ident (@"." @Ident)*`
	Arguments []*Argument `("(" (@@ ("," @@)*)? ")")?`
}

// Argument is name[: value [type]].
type Argument struct {
	Pos   lexer.Position
	Name  string `@Ident (@"." @Ident)*`
	Value *Value `(":" @@`
	Type  string `@Ident?)?`
}

// Value is a literal argument value.
type Value struct {
	Pos    lexer.Position
	String *string `  @String`
	Number *string `| @Number`
	Ident  *string `| @Ident`
}

var parser = participle.MustBuild[FieldList](
	participle.Lexer(fieldLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a field list into statement fields.
func Parse(input string) ([]statement.Field, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	list, err := parser.ParseString("fields", input)
	if err != nil {
		return nil, fmt.Errorf("invalid field list: %w", err)
	}

	fields := make([]statement.Field, 0, len(list.Fields))
	for _, f := range list.Fields {
		field := statement.Field{Name: f.Name}
		for _, a := range f.Arguments {
			field.Arguments = append(field.Arguments, a.argument())
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (a *Argument) argument() statement.Argument {
	arg := statement.Argument{Name: a.Name}
	if a.Value == nil {
		return arg
	}

	value, valueType := a.Value.literal()
	if a.Type != "" {
		valueType = a.Type
	}
	if valueType == "null" {
		arg.ValueType = statement.String("null")
		return arg
	}
	arg.Value = statement.String(value)
	arg.ValueType = statement.String(valueType)
	return arg
}

// literal returns the text of the value and the type it implies.
func (v *Value) literal() (string, string) {
	switch {
	case v.String != nil:
		return *v.String, "string"
	case v.Number != nil:
		return *v.Number, "number"
	}
	switch ident := *v.Ident; ident {
	case "true", "false":
		return ident, "boolean"
	case "null":
		return "", "null"
	default:
		return ident, "string"
	}
}
