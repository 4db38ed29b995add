package shorthand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dataql/query/statement"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []statement.Field
	}{
		{
			name:  "plain fields",
			input: "id, total",
			want:  []statement.Field{{Name: "id"}, {Name: "total"}},
		},
		{
			name:  "qualified field",
			input: "orders.id,users.email",
			want:  []statement.Field{{Name: "orders.id"}, {Name: "users.email"}},
		},
		{
			name:  "string argument",
			input: `status(status: "paid")`,
			want: []statement.Field{{Name: "status", Arguments: []statement.Argument{
				statement.Arg("status", "paid", "string"),
			}}},
		},
		{
			name:  "typed number and boolean",
			input: `where(age: 30, active: true, price: 9.5 decimal)`,
			want: []statement.Field{{Name: "where", Arguments: []statement.Argument{
				statement.Arg("age", "30", "number"),
				statement.Arg("active", "true", "boolean"),
				statement.Arg("price", "9.5", "decimal"),
			}}},
		},
		{
			name:  "explicit type on string",
			input: `createdAt(createdAt: '2024-01-02' date)`,
			want: []statement.Field{{Name: "createdAt", Arguments: []statement.Argument{
				statement.Arg("createdAt", "2024-01-02", "date"),
			}}},
		},
		{
			name:  "null and structural",
			input: `note(deletedAt: null, note)`,
			want: []statement.Field{{Name: "note", Arguments: []statement.Argument{
				{Name: "deletedAt", ValueType: statement.String("null")},
				{Name: "note"},
			}}},
		},
		{
			name:  "empty parens",
			input: "id()",
			want:  []statement.Field{{Name: "id"}},
		},
		{
			name:  "empty input",
			input: "  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{"id(", "id(a: )", "(x)", "a,,b"} {
		_, err := Parse(input)
		assert.Error(t, err, input)
	}
}
