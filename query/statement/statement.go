// Package statement defines the structured query representation accepted by
// the compiler: a command, a target relation, requested fields and modifiers.
package statement

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Statement is a single structured database operation.
type Statement struct {
	Metadata Metadata `json:"metadata"`
	Fields   []Field  `json:"fields"`
	Options  Options  `json:"options"`
}

// Metadata selects the compiler dispatch path and the target relation.
type Metadata struct {
	Command string `json:"command"`
	Table   string `json:"table"`
	Schema  string `json:"schema"`
}

// Field is a requested column or clause, optionally parameterized.
type Field struct {
	Name      string     `json:"name"`
	Arguments []Argument `json:"arguments"`
}

// Argument is a named parameter attached to a field.
// A nil Value means the argument is structural only.
type Argument struct {
	Name      string  `json:"name"`
	Value     *string `json:"value,omitempty"`
	ValueType *string `json:"valueType,omitempty"`
}

// IncludeField holds the relationship traversals of a statement.
type IncludeField struct {
	Joins []Join `json:"joins"`
}

// Join is the explicit edge Table.Key = JoiningTable.JoiningKey.
type Join struct {
	Table        string `json:"table"`
	Key          string `json:"key"`
	JoiningTable string `json:"joiningTable"`
	JoiningKey   string `json:"joiningKey"`
}

// String renders the join edge for error messages.
func (j Join) String() string {
	return fmt.Sprintf("%s.%s = %s.%s", j.Table, j.Key, j.JoiningTable, j.JoiningKey)
}

// OrderBy is a single ordering directive.
type OrderBy struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// Options are the statement modifiers. Every member is optional.
type Options struct {
	OrderBy   []OrderBy     `json:"orderBy,omitempty"`
	Limit     *int64        `json:"limit,omitempty"`
	Offset    *int64        `json:"offset,omitempty"`
	NumOfRows *int64        `json:"numOfRows,omitempty"`
	Include   *IncludeField `json:"include,omitempty"`
	GroupBy   []string      `json:"groupBy,omitempty"`
}

// Joins returns the declared joins, or nil when none are present.
func (o Options) Joins() []Join {
	if o.Include == nil {
		return nil
	}
	return o.Include.Joins
}

// Order is the direction of an ORDER BY directive.
type Order int

const (
	// Asc sorts ascending.
	Asc Order = iota
	// Desc sorts descending.
	Desc
)

// String returns the SQL keyword for the order.
func (o Order) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

// MarshalJSON encodes the order by name.
func (o Order) MarshalJSON() ([]byte, error) {
	if o == Desc {
		return []byte(`"Desc"`), nil
	}
	return []byte(`"Asc"`), nil
}

// UnmarshalJSON accepts 0/1 as well as "Asc"/"Desc" in any case.
func (o *Order) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		switch Order(n) {
		case Asc, Desc:
			*o = Order(n)
			return nil
		}
		return fmt.Errorf("invalid order: %d", n)
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid order: %s", string(data))
	}
	parsed, err := ParseOrder(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOrder parses "asc"/"desc" case-insensitively.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return Asc, fmt.Errorf("invalid order: %q", s)
	}
}

// Decode reads a JSON-encoded statement.
func Decode(r io.Reader) (*Statement, error) {
	var stmt Statement
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&stmt); err != nil {
		return nil, fmt.Errorf("failed to decode statement: %w", err)
	}
	return &stmt, nil
}

// Int64 returns a pointer to n, for building Options literals.
func Int64(n int64) *int64 {
	return &n
}

// String returns a pointer to s, for building Argument literals.
func String(s string) *string {
	return &s
}

// Arg builds a valued argument.
func Arg(name, value, valueType string) Argument {
	return Argument{Name: name, Value: String(value), ValueType: String(valueType)}
}
