package introspect

import (
	"fmt"

	"github.com/satishbabariya/dataql/query/sqlgen"
)

// queries holds the metadata statements of one dialect. Each column query
// yields (schema, table, column, data_type, is_nullable, position,
// is_primary); each foreign-key query yields (name, schema, table, column,
// referenced schema, referenced table, referenced column).
type queries struct {
	columns     string
	foreignKeys string
	// fixedSchema overrides the configured schema when the engine has only
	// one namespace.
	fixedSchema string
	// columnArgs and foreignKeyArgs build the parameters of each query.
	columnArgs     func(schema string) []sqlgen.Literal
	foreignKeyArgs func(schema, table string) []sqlgen.Literal
}

func queriesFor(dialect *sqlgen.Dialect) (*queries, error) {
	switch dialect {
	case sqlgen.DataAPI, sqlgen.PostgreSQL:
		return postgresQueries(dialect), nil
	case sqlgen.MySQL:
		return mysqlQueries(), nil
	case sqlgen.SQLite:
		return sqliteQueries(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, dialect.Name())
	}
}

func postgresQueries(dialect *sqlgen.Dialect) *queries {
	p1, p2 := dialect.Placeholder(1), dialect.Placeholder(2)
	return &queries{
		columns: `
		SELECT
			c.table_schema,
			c.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.ordinal_position,
			CASE WHEN pk.column_name IS NULL THEN 'NO' ELSE 'YES' END AS is_primary
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON t.table_schema = c.table_schema
			AND t.table_name = c.table_name
			AND t.table_type IN ('BASE TABLE', 'VIEW')
		LEFT JOIN (
			SELECT kcu.table_schema, kcu.table_name, kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
		) pk
			ON pk.table_schema = c.table_schema
			AND pk.table_name = c.table_name
			AND pk.column_name = c.column_name
		WHERE c.table_schema = ` + p1 + `
		ORDER BY c.table_name, c.ordinal_position`,
		foreignKeys: `
		SELECT
			tc.constraint_name,
			kcu.table_schema,
			kcu.table_name,
			kcu.column_name,
			ccu.table_schema AS referenced_schema,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = ` + p1 + `
		  AND tc.table_name = ` + p2 + `
		ORDER BY tc.constraint_name, kcu.ordinal_position`,
		columnArgs: func(schema string) []sqlgen.Literal {
			return []sqlgen.Literal{sqlgen.StringLiteral(schema)}
		},
		foreignKeyArgs: func(schema, table string) []sqlgen.Literal {
			return []sqlgen.Literal{sqlgen.StringLiteral(schema), sqlgen.StringLiteral(table)}
		},
	}
}

func mysqlQueries() *queries {
	return &queries{
		columns: `
		SELECT
			c.TABLE_SCHEMA,
			c.TABLE_NAME,
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.ORDINAL_POSITION,
			CASE WHEN c.COLUMN_KEY = 'PRI' THEN 'YES' ELSE 'NO' END AS IS_PRIMARY
		FROM information_schema.COLUMNS c
		WHERE c.TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
		ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`,
		foreignKeys: `
		SELECT
			CONSTRAINT_NAME,
			TABLE_SCHEMA,
			TABLE_NAME,
			COLUMN_NAME,
			REFERENCED_TABLE_SCHEMA,
			REFERENCED_TABLE_NAME,
			REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
		  AND TABLE_NAME = ?
		  AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`,
		columnArgs: func(schema string) []sqlgen.Literal {
			return []sqlgen.Literal{sqlgen.StringLiteral(schema)}
		},
		foreignKeyArgs: func(schema, table string) []sqlgen.Literal {
			return []sqlgen.Literal{sqlgen.StringLiteral(schema), sqlgen.StringLiteral(table)}
		},
	}
}

func sqliteQueries() *queries {
	return &queries{
		fixedSchema: "main",
		columns: `
		SELECT
			'main' AS table_schema,
			m.name AS table_name,
			p.name AS column_name,
			p.type AS data_type,
			CASE WHEN p."notnull" = 0 THEN 'YES' ELSE 'NO' END AS is_nullable,
			p.cid + 1 AS ordinal_position,
			CASE WHEN p.pk > 0 THEN 'YES' ELSE 'NO' END AS is_primary
		FROM sqlite_master m
		JOIN pragma_table_info(m.name) p
		WHERE m.type IN ('table', 'view')
		  AND m.name NOT LIKE 'sqlite_%'
		ORDER BY m.name, p.cid`,
		foreignKeys: `
		SELECT
			'fk_' || ? || '_' || f.id AS constraint_name,
			'main' AS table_schema,
			? AS table_name,
			f."from" AS column_name,
			'main' AS referenced_schema,
			f."table" AS referenced_table,
			f."to" AS referenced_column
		FROM pragma_foreign_key_list(?) f
		ORDER BY f.id, f.seq`,
		columnArgs: func(string) []sqlgen.Literal {
			return nil
		},
		foreignKeyArgs: func(_, table string) []sqlgen.Literal {
			t := sqlgen.StringLiteral(table)
			return []sqlgen.Literal{t, t, t}
		},
	}
}
