package sqlgen

import "strings"

// Condition is a single rendered predicate. Right is a placeholder or empty
// for unary operators such as IS NULL.
type Condition struct {
	Left     string
	Operator string
	Right    string
}

// String renders the condition.
func (c Condition) String() string {
	if c.Right == "" {
		return c.Left + " " + c.Operator
	}
	return c.Left + " " + c.Operator + " " + c.Right
}

// WhereClause is a conjunction of conditions.
type WhereClause struct {
	Conditions []Condition
}

// AddCondition adds a condition to the clause.
func (w *WhereClause) AddCondition(condition Condition) {
	w.Conditions = append(w.Conditions, condition)
}

// IsEmpty returns true if the clause has no conditions.
func (w *WhereClause) IsEmpty() bool {
	return w == nil || len(w.Conditions) == 0
}

// String renders the conditions joined with AND, without the WHERE keyword.
func (w *WhereClause) String() string {
	if w.IsEmpty() {
		return ""
	}
	parts := make([]string, len(w.Conditions))
	for i, c := range w.Conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}
