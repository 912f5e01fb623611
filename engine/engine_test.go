package engine_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect"
	dsql "github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/engine"
)

func newMockEngine(t *testing.T) (*engine.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	drv := dsql.OpenDB(dialect.Postgres, db)
	e, err := engine.OpenWithDriver(drv, newUserRegistry())
	require.NoError(t, err)
	return e, mock
}

func TestEngine_Build_FindMany_IsPure(t *testing.T) {
	e, mock := newMockEngine(t)

	built, err := e.Build("User", "findMany", engine.Args{
		Where: build.Fields{{Key: "name", Value: build.Fields{{Key: "equals", Value: "alice"}}}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, built.SQL)
	require.Equal(t, []any{"alice"}, built.Params)
	require.NoError(t, mock.ExpectationsWereMet(), "Build must never touch the driver")
}

func TestEngine_Execute_FindMany(t *testing.T) {
	e, mock := newMockEngine(t)

	mock.ExpectQuery(".*").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(int64(1), "alice", "alice@example.com").
			AddRow(int64(2), "bob", "bob@example.com"),
	)

	result, err := e.Execute(context.Background(), "User", "findMany", engine.Args{})
	require.NoError(t, err)

	rows, ok := result.([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	require.Equal(t, "alice", rows[0]["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Execute_Create_PostgresReturning(t *testing.T) {
	e, mock := newMockEngine(t)

	mock.ExpectQuery(".*").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(int64(7), "carol", "carol@example.com"),
	)

	result, err := e.Execute(context.Background(), "User", "create", engine.Args{
		Data: build.Fields{{Key: "name", Value: "carol"}, {Key: "email", Value: "carol@example.com"}},
	})
	require.NoError(t, err)

	row, ok := result.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "carol", row["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Execute_DeleteMany_ReportsAffectedRows(t *testing.T) {
	e, mock := newMockEngine(t)

	mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 3))

	result, err := e.Execute(context.Background(), "User", "deleteMany", engine.Args{
		Where: build.Fields{{Key: "email", Value: build.Fields{{Key: "contains", Value: "@spam"}}}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.(map[string]any)["count"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Execute_UnknownModel(t *testing.T) {
	e, _ := newMockEngine(t)
	_, err := e.Execute(context.Background(), "Nope", "findMany", engine.Args{})
	require.Error(t, err)
}
