package sql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beynar/relquery/dialect/sql"
)

func TestPostgres_Identifiers(t *testing.T) {
	a := sql.NewPostgres()
	assert.Equal(t, `"user"`, a.Identifiers().Escape("user"))
	col := a.Identifiers().Column("t0", "name")
	text, _ := col.Render(a.Style())
	assert.Equal(t, `"t0"."name"`, text)
}

func TestPostgres_ILike(t *testing.T) {
	a := sql.NewPostgres()
	f := a.Operators().ILike(sql.Raw(`"t0"."name"`), "%alice%")
	text, args := f.Render(a.Style())
	assert.Equal(t, `"t0"."name" ILIKE $1`, text)
	assert.Equal(t, []any{"%alice%"}, args)
}

func TestPostgres_JSONAgg(t *testing.T) {
	a := sql.NewPostgres()
	f := a.JSON().Agg(sql.Raw("sub._json"))
	text, _ := f.Render(a.Style())
	assert.Equal(t, "COALESCE(json_agg(sub._json), '[]'::json)", text)
}

func TestPostgres_OnConflictDoNothing(t *testing.T) {
	a := sql.NewPostgres()
	f := a.Mutations().OnConflict([]string{"email"}, nil, true)
	text, _ := f.Render(a.Style())
	assert.Equal(t, `ON CONFLICT ("email") DO NOTHING`, text)
}

func TestPostgres_Capabilities(t *testing.T) {
	caps := sql.NewPostgres().Capabilities()
	assert.True(t, caps.SupportsReturning)
	assert.True(t, caps.SupportsLateralJoins)
	assert.True(t, caps.SupportsVector)
}

func TestMySQL_Identifiers(t *testing.T) {
	a := sql.NewMySQL()
	assert.Equal(t, "`user`", a.Identifiers().Escape("user"))
}

func TestMySQL_PlaceholdersAreAlwaysQuestion(t *testing.T) {
	a := sql.NewMySQL()
	f := sql.Join(" AND ",
		sql.Concat(sql.Raw("a = "), sql.Param(1)),
		sql.Concat(sql.Raw("b = "), sql.Param(2)),
	)
	text, args := f.Render(a.Style())
	assert.Equal(t, "a = ? AND b = ?", text)
	assert.Equal(t, []any{1, 2}, args)
}

func TestMySQL_ILikeDegradesToLower(t *testing.T) {
	a := sql.NewMySQL()
	f := a.Operators().ILike(sql.Raw("name"), "%bob%")
	text, args := f.Render(a.Style())
	assert.Equal(t, "lower(name) LIKE ?", text)
	assert.Equal(t, []any{"%bob%"}, args)
}

func TestMySQL_JSONArrayAgg(t *testing.T) {
	a := sql.NewMySQL()
	f := a.JSON().Agg(sql.Raw("sub._json"))
	text, _ := f.Render(a.Style())
	assert.Equal(t, "COALESCE(JSON_ARRAYAGG(sub._json), JSON_ARRAY())", text)
}

func TestMySQL_LastInsertID(t *testing.T) {
	a := sql.NewMySQL()
	f := a.Mutations().LastInsertID()
	text, _ := f.Render(a.Style())
	assert.Equal(t, "SELECT LAST_INSERT_ID()", text)
}

func TestMySQL_NoReturning(t *testing.T) {
	a := sql.NewMySQL()
	assert.False(t, a.Capabilities().SupportsReturning)
	f := a.Mutations().Returning([]string{"id"})
	assert.True(t, f.IsEmpty())
}

func TestSQLite_Placeholders(t *testing.T) {
	a := sql.NewSQLite()
	f := sql.Join(" AND ",
		sql.Concat(sql.Raw("a = "), sql.Param(1)),
		sql.Concat(sql.Raw("b = "), sql.Param(2)),
	)
	text, _ := f.Render(a.Style())
	assert.Equal(t, "a = ?1 AND b = ?2", text)
}

func TestSQLite_JSONGroupArray(t *testing.T) {
	a := sql.NewSQLite()
	f := a.JSON().Agg(sql.Raw("sub._json"))
	text, _ := f.Render(a.Style())
	assert.Equal(t, "COALESCE(json_group_array(sub._json), json_array())", text)
}

func TestSQLite_LastInsertRowid(t *testing.T) {
	a := sql.NewSQLite()
	assert.False(t, a.Capabilities().SupportsReturning)
	f := a.Mutations().LastInsertID()
	text, _ := f.Render(a.Style())
	assert.Equal(t, "SELECT last_insert_rowid()", text)
}

func TestSQLite_ArrayHasUsesJsonEach(t *testing.T) {
	a := sql.NewSQLite()
	f := a.Arrays().Has(sql.Raw("tags"), "go")
	text, args := f.Render(a.Style())
	assert.Equal(t, "EXISTS (SELECT 1 FROM json_each(tags) WHERE json_each.value = ?1)", text)
	assert.Equal(t, []any{"go"}, args)
}

func TestAllDialects_InsertShape(t *testing.T) {
	for _, a := range []sql.Adapter{sql.NewPostgres(), sql.NewMySQL(), sql.NewSQLite()} {
		rows := [][]sql.Fragment{{sql.Param("alice"), sql.Param(30)}}
		f := a.Mutations().Insert("users", []string{"name", "age"}, rows)
		text, args := f.Render(a.Style())
		assert.Contains(t, text, "INSERT INTO")
		assert.Contains(t, text, "VALUES")
		assert.Equal(t, []any{"alice", 30}, args)
	}
}
