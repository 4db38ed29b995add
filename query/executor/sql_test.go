package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dataql/query/sqlgen"
)

func newMockExecutor(t *testing.T) (*SQLExecutor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLExecutor(db, sqlgen.PostgreSQL), mock
}

func TestSQLExecutor_Query(t *testing.T) {
	exec, mock := newMockExecutor(t)
	query := `SELECT "id", "email" FROM "public"."users" WHERE "age" = $1`

	mock.ExpectPrepare(query).
		ExpectQuery().
		WithArgs(int64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(int64(1), []byte("a@b.com")).
			AddRow(int64(2), nil))

	set, err := exec.Execute(context.Background(), query, []sqlgen.Param{{Name: "p1", Value: sqlgen.IntLiteral(30)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, set.Columns)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "a@b.com", set.Rows[0][1])
	assert.Nil(t, set.Rows[1][1])
	assert.Equal(t, map[string]any{"id": int64(1), "email": "a@b.com"}, set.Records()[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLExecutor_ExecWithoutResultSet(t *testing.T) {
	exec, mock := newMockExecutor(t)
	query := "INSERT INTO `public`.`users` (`email`) VALUES (?)"

	mock.ExpectPrepare(query).
		ExpectExec().
		WithArgs("a@b.com").
		WillReturnResult(sqlmock.NewResult(7, 1))

	set, err := exec.Execute(context.Background(), query, []sqlgen.Param{{Name: "p1", Value: sqlgen.StringLiteral("a@b.com")}})
	require.NoError(t, err)
	assert.False(t, set.HasResultSet())
	assert.Equal(t, int64(1), set.RowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLExecutor_ReusesPreparedStatements(t *testing.T) {
	exec, mock := newMockExecutor(t)
	query := "SELECT 1"

	prep := mock.ExpectPrepare(query)
	prep.ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(int64(1)))
	prep.ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(int64(1)))

	for i := 0; i < 2; i++ {
		_, err := exec.Execute(context.Background(), query, nil)
		require.NoError(t, err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLExecutor_ErrorsAreExecutionErrors(t *testing.T) {
	exec, mock := newMockExecutor(t)
	query := `DELETE FROM "public"."users" WHERE "id" = $1 RETURNING *`
	boom := errors.New("permission denied")

	mock.ExpectPrepare(query).ExpectQuery().WillReturnError(boom)

	_, err := exec.Execute(context.Background(), query, []sqlgen.Param{{Name: "p1", Value: sqlgen.IntLiteral(1)}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)
	assert.ErrorIs(t, err, boom)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, query, execErr.SQL)
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", true},
		{"  with x as (select 1) select * from x", true},
		{"PRAGMA table_info('users')", true},
		{`INSERT INTO "t" ("a") VALUES ($1) RETURNING *`, true},
		{`INSERT INTO "t" ("a") VALUES ($1)`, false},
		{`UPDATE "t" SET "a" = $1`, false},
		{"DELETE FROM t", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, returnsRows(tt.query), tt.query)
	}
}

func TestRowSet_Truncate(t *testing.T) {
	set := &RowSet{Columns: []string{"id"}, Rows: [][]any{{1}, {2}, {3}}}

	assert.False(t, set.Truncate(5))
	assert.True(t, set.Truncate(2))
	assert.Equal(t, 2, set.Len())

	var empty *RowSet
	assert.False(t, empty.Truncate(1))
	assert.Nil(t, empty.Records())
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgresql", "postgres"},
		{"Postgres", "postgres"},
		{"pgx", "pgx"},
		{"sqlite", "sqlite3"},
		{"sqlite3", "sqlite3"},
		{"mysql", "mysql"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DriverName(tt.driver), tt.driver)
	}
}

func TestOpen_DialectAlias(t *testing.T) {
	exec, err := Open("postgresql", "postgres://localhost:5432/app?sslmode=disable", PoolOptions{MaxOpenConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { exec.Close() })
	assert.Equal(t, sqlgen.PostgreSQL, exec.Dialect())
	assert.Equal(t, 2, exec.DB().Stats().MaxOpenConnections)

	_, err = Open("dataapi", "", PoolOptions{})
	assert.Error(t, err)
}
