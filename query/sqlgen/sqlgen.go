// Package sqlgen provides the SQL dialects and typed parameters shared by the
// compiler and the executors.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderStyle is how a dialect spells a bound parameter.
type PlaceholderStyle int

const (
	// Named renders ":p1" (RDS Data API).
	Named PlaceholderStyle = iota
	// Dollar renders "$1" (PostgreSQL wire protocol).
	Dollar
	// Question renders "?" (MySQL, SQLite).
	Question
)

// Dialect describes the SQL flavour emitted for a provider.
type Dialect struct {
	name        string
	placeholder PlaceholderStyle
	quoteOpen   string
	quoteClose  string
	returning   bool
	// unbounded is the LIMIT value used when only OFFSET is requested, for
	// engines that reject a bare OFFSET.
	unbounded string
}

var (
	// DataAPI is PostgreSQL behind the RDS Data API.
	DataAPI = &Dialect{name: "dataapi", placeholder: Named, quoteOpen: `"`, quoteClose: `"`, returning: true}
	// PostgreSQL is PostgreSQL over database/sql.
	PostgreSQL = &Dialect{name: "postgresql", placeholder: Dollar, quoteOpen: `"`, quoteClose: `"`, returning: true}
	// MySQL is MySQL over database/sql.
	MySQL = &Dialect{name: "mysql", placeholder: Question, quoteOpen: "`", quoteClose: "`", unbounded: "18446744073709551615"}
	// SQLite is SQLite over database/sql.
	SQLite = &Dialect{name: "sqlite", placeholder: Question, quoteOpen: `"`, quoteClose: `"`, returning: true, unbounded: "-1"}
)

// NewDialect returns the dialect for a provider or driver name.
func NewDialect(provider string) (*Dialect, error) {
	switch strings.ToLower(provider) {
	case "dataapi", "rdsdata", "":
		return DataAPI, nil
	case "postgresql", "postgres", "pgx":
		return PostgreSQL, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return d.name
}

// Style returns the placeholder style.
func (d *Dialect) Style() PlaceholderStyle {
	return d.placeholder
}

// SupportsReturning reports whether writes can carry a RETURNING clause.
func (d *Dialect) SupportsReturning() bool {
	return d.returning
}

// Pagination renders the LIMIT/OFFSET tail. Nil values are omitted.
func (d *Dialect) Pagination(limit, offset *int64) string {
	var parts []string
	switch {
	case limit != nil:
		parts = append(parts, "LIMIT "+strconv.FormatInt(*limit, 10))
	case offset != nil && d.unbounded != "":
		parts = append(parts, "LIMIT "+d.unbounded)
	}
	if offset != nil {
		parts = append(parts, "OFFSET "+strconv.FormatInt(*offset, 10))
	}
	return strings.Join(parts, " ")
}

// Placeholder renders the placeholder for the n-th (1-based) parameter.
func (d *Dialect) Placeholder(n int) string {
	switch d.placeholder {
	case Named:
		return ":" + ParamName(n)
	case Dollar:
		return "$" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// Quote quotes an identifier, doubling any embedded quote character.
func (d *Dialect) Quote(name string) string {
	escaped := strings.ReplaceAll(name, d.quoteClose, d.quoteClose+d.quoteClose)
	return d.quoteOpen + escaped + d.quoteClose
}

// QualifiedName quotes schema.table; an empty schema yields just the table.
func (d *Dialect) QualifiedName(schema, table string) string {
	if schema == "" {
		return d.Quote(table)
	}
	return d.Quote(schema) + "." + d.Quote(table)
}

// ColumnRef quotes table.column; an empty table yields just the column.
func (d *Dialect) ColumnRef(table, column string) string {
	if table == "" {
		return d.Quote(column)
	}
	return d.Quote(table) + "." + d.Quote(column)
}

// ParamName returns the name of the n-th (1-based) parameter.
func ParamName(n int) string {
	return "p" + strconv.Itoa(n)
}
