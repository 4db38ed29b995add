//go:build cgo

package engine

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/statement"
)

func TestEngine_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "shop.db") + "?_foreign_keys=on"

	e, err := Connect(ctx, Config{Driver: "sqlite3", DSN: dsn, Pool: executor.PoolOptions{MaxOpenConns: 1}})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	for _, ddl := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL, first_name TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id), total NUMERIC)`,
	} {
		_, err := e.QueryRaw(ctx, ddl, nil)
		require.NoError(t, err)
	}

	snap, err := e.Introspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", snap.DefaultSchema)
	assert.Equal(t, []string{"main.orders", "main.users"}, snap.TableNames())

	fks, err := e.ForeignKeys(ctx, "users")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "orders", fks[0].Table)

	insert := &statement.Statement{
		Metadata: statement.Metadata{Command: "insert", Table: "users"},
		Fields: []statement.Field{
			{Name: "email", Arguments: []statement.Argument{statement.Arg("email", "a@b.com", "string")}},
			{Name: "firstName", Arguments: []statement.Argument{statement.Arg("firstName", "Ada", "string")}},
		},
	}
	out, err := e.Query(ctx, insert)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"email":"a@b.com","firstName":"Ada"}]`, string(out))

	_, err = e.QueryRaw(ctx, `INSERT INTO orders (user_id, total) VALUES (1, 10), (1, 25), (1, 40)`, nil)
	require.NoError(t, err)

	read := &statement.Statement{
		Metadata: statement.Metadata{Command: "read", Table: "orders"},
		Fields: []statement.Field{
			{Name: "orders.id"},
			{Name: "users.email"},
			{Name: "where", Arguments: []statement.Argument{statement.Arg("orders.userId", "1", "number")}},
		},
		Options: statement.Options{
			Include: &statement.IncludeField{Joins: []statement.Join{
				{Table: "orders", Key: "user_id", JoiningTable: "users", JoiningKey: "id"},
			}},
			OrderBy:   []statement.OrderBy{{Field: "orders.id", Order: statement.Desc}},
			NumOfRows: statement.Int64(2),
		},
	}
	set, err := e.QueryRows(ctx, read)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"orders.id", "users.email"}, set.Columns)
	assert.Equal(t, []any{int64(3), "a@b.com"}, set.Rows[0])
}
