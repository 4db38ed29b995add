package sqlgen

import (
	"fmt"
	"strconv"
	"time"
)

// LiteralKind enumerates the supported literal kinds.
type LiteralKind int

const (
	// Absent marks a structural argument with no value.
	Absent LiteralKind = iota
	String
	Number
	Boolean
	Null
	Date
	DateTime
)

// String returns the kind name.
func (k LiteralKind) String() string {
	switch k {
	case Absent:
		return "absent"
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Null:
		return "null"
	case Date:
		return "date"
	case DateTime:
		return "datetime"
	default:
		return fmt.Sprintf("LiteralKind(%d)", int(k))
	}
}

// DateLayout and DateTimeLayout are the wire formats for temporal literals.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05.999999"
)

// Literal is a typed argument value. The zero value is Absent.
type Literal struct {
	kind    LiteralKind
	text    string
	integer int64
	float   float64
	isFloat bool
	boolean bool
	time    time.Time
}

// StringLiteral returns a string literal.
func StringLiteral(s string) Literal {
	return Literal{kind: String, text: s}
}

// IntLiteral returns an integral number literal.
func IntLiteral(n int64) Literal {
	return Literal{kind: Number, integer: n, text: strconv.FormatInt(n, 10)}
}

// FloatLiteral returns a fractional number literal.
func FloatLiteral(f float64) Literal {
	return Literal{kind: Number, float: f, isFloat: true, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// BoolLiteral returns a boolean literal.
func BoolLiteral(b bool) Literal {
	return Literal{kind: Boolean, boolean: b, text: strconv.FormatBool(b)}
}

// NullLiteral returns the SQL NULL literal.
func NullLiteral() Literal {
	return Literal{kind: Null}
}

// DateLiteral returns a calendar date literal.
func DateLiteral(t time.Time) Literal {
	return Literal{kind: Date, time: t, text: t.Format(DateLayout)}
}

// DateTimeLiteral returns a timestamp literal.
func DateTimeLiteral(t time.Time) Literal {
	return Literal{kind: DateTime, time: t, text: t.UTC().Format(DateTimeLayout)}
}

// Kind returns the literal kind.
func (l Literal) Kind() LiteralKind {
	return l.kind
}

// Text returns the canonical text of the value.
func (l Literal) Text() string {
	return l.text
}

// IsFloat reports whether a number literal is fractional.
func (l Literal) IsFloat() bool {
	return l.isFloat
}

// Int returns the integral value of a number literal.
func (l Literal) Int() int64 {
	return l.integer
}

// Float returns the value of a number literal as float64.
func (l Literal) Float() float64 {
	if l.isFloat {
		return l.float
	}
	return float64(l.integer)
}

// Bool returns the value of a boolean literal.
func (l Literal) Bool() bool {
	return l.boolean
}

// Time returns the value of a temporal literal.
func (l Literal) Time() time.Time {
	return l.time
}

// Value returns the Go value handed to database/sql drivers.
func (l Literal) Value() any {
	switch l.kind {
	case String:
		return l.text
	case Number:
		if l.isFloat {
			return l.float
		}
		return l.integer
	case Boolean:
		return l.boolean
	case Date, DateTime:
		return l.time
	default:
		return nil
	}
}

// String renders the literal for logs.
func (l Literal) String() string {
	switch l.kind {
	case Absent:
		return "<absent>"
	case Null:
		return "NULL"
	case String, Date, DateTime:
		return strconv.Quote(l.text)
	default:
		return l.text
	}
}

// Type hints understood by the RDS Data API.
const (
	HintNone      = ""
	HintDate      = "DATE"
	HintTime      = "TIME"
	HintTimestamp = "TIMESTAMP"
	HintDecimal   = "DECIMAL"
	HintUUID      = "UUID"
	HintJSON      = "JSON"
)

// Param is a bound statement parameter. TypeHint tells remote executors how
// to cast a textual value; database/sql drivers ignore it.
type Param struct {
	Name     string
	Value    Literal
	TypeHint string
}

// Binder hands out placeholders and collects the bound parameters in order.
type Binder struct {
	dialect *Dialect
	params  []Param
}

// NewBinder creates a binder for a dialect.
func NewBinder(dialect *Dialect) *Binder {
	return &Binder{dialect: dialect}
}

// Bind records value and returns its placeholder.
func (b *Binder) Bind(value Literal) string {
	return b.BindHinted(value, defaultHint(value))
}

// BindHinted records value with an explicit type hint.
func (b *Binder) BindHinted(value Literal, hint string) string {
	n := len(b.params) + 1
	b.params = append(b.params, Param{Name: ParamName(n), Value: value, TypeHint: hint})
	return b.dialect.Placeholder(n)
}

func defaultHint(value Literal) string {
	switch value.Kind() {
	case Date:
		return HintDate
	case DateTime:
		return HintTimestamp
	default:
		return HintNone
	}
}

// Params returns the bound parameters in placeholder order.
func (b *Binder) Params() []Param {
	return b.params
}

// Args returns the parameter values for positional database/sql execution.
func Args(params []Param) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Value.Value()
	}
	return args
}
