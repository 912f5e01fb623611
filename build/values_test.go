package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

func TestBuildValues_SingleRecord(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	records := []build.Fields{
		{
			{Key: "id", Value: "P1"},
			{Key: "title", Value: "Hi"},
			{Key: "authorId", Value: "A1"},
		},
	}
	columns, rows, err := build.BuildValues(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "authorId"}, columns)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], 3)

	insert := postgres().Mutations().Insert("posts", columns, rows)
	text, args := insert.Render(sql.DollarStyle{})
	assert.Equal(t, `INSERT INTO "posts" ("id", "title", "authorId") VALUES ($1, $2, $3)`, text)
	assert.Equal(t, []any{"P1", "Hi", "A1"}, args)
}

func TestBuildValues_UnionOfKeysAcrossRecords(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	records := []build.Fields{
		{{Key: "id", Value: "P1"}, {Key: "title", Value: "Hi"}},
		{{Key: "id", Value: "P2"}, {Key: "title", Value: "Yo"}, {Key: "authorId", Value: "A1"}},
	}
	columns, rows, err := build.BuildValues(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "authorId"}, columns)

	text, args := rows[0][2].Render(sql.DollarStyle{})
	assert.Equal(t, "NULL", text)
	assert.Empty(t, args)

	text2, args2 := rows[1][2].Render(sql.DollarStyle{})
	assert.Equal(t, "$1", text2)
	assert.Equal(t, []any{"A1"}, args2)
}

func TestBuildValues_SplicedFragmentPassesThrough(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	connectSubquery := sql.Wrap(sql.Concat(sql.Raw("SELECT id FROM "), sql.Raw(`"Author"`), sql.Raw(" WHERE email = "), sql.Param("a@x")))
	records := []build.Fields{
		{{Key: "id", Value: "P1"}, {Key: "title", Value: "Hi"}, {Key: "authorId", Value: connectSubquery}},
	}
	_, rows, err := build.BuildValues(ctx, records)
	require.NoError(t, err)

	text, args := rows[0][2].Render(sql.DollarStyle{})
	assert.Equal(t, `(SELECT id FROM "Author" WHERE email = $1)`, text)
	assert.Equal(t, []any{"a@x"}, args)
}

func TestBuildValues_EmptyDataFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	_, _, err := build.BuildValues(ctx, []build.Fields{{}})
	require.Error(t, err)
}

func TestBuildValues_RequiresCallerSuppliedNonAutoincrementID(t *testing.T) {
	model := schema.NewModel("Widget", "widgets")
	model.AddField(&schema.Field{Name: "id", Type: schema.TypeUUID, IsID: true, AutoGenerate: "uuid"})
	model.AddField(&schema.Field{Name: "name", Type: schema.TypeString})
	reg, err := schema.NewRegistry(map[string]*schema.Model{"Widget": model})
	require.NoError(t, err)

	ctx := build.NewContext(postgres(), reg, model)
	_, _, err = build.BuildValues(ctx, []build.Fields{
		{{Key: "name", Value: "Box"}},
	})
	require.Error(t, err)
}

func TestBuildValues_JSONFieldEncoded(t *testing.T) {
	model := schema.NewModel("Widget", "widgets")
	model.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	model.AddField(&schema.Field{Name: "meta", Type: schema.TypeJSON})
	reg, err := schema.NewRegistry(map[string]*schema.Model{"Widget": model})
	require.NoError(t, err)

	ctx := build.NewContext(postgres(), reg, model)
	_, rows, err := build.BuildValues(ctx, []build.Fields{
		{{Key: "id", Value: "W1"}, {Key: "meta", Value: map[string]any{"a": 1}}},
	})
	require.NoError(t, err)

	_, args := rows[0][1].Render(sql.DollarStyle{})
	assert.Equal(t, []any{`{"a":1}`}, args)
}
