package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

// TestE1_FindWithToOneInclude reproduces spec.md's worked example E1:
// findMany(Post, { select: { id: true, title: true, author: { select:
// { id: true, name: true } } } }).
func TestE1_FindWithToOneInclude(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	sel := build.Fields{
		{Key: "id", Value: true},
		{Key: "title", Value: true},
		{Key: "author", Value: build.Fields{
			{Key: "select", Value: build.Fields{
				{Key: "id", Value: true},
				{Key: "name", Value: true},
			}},
		}},
	}
	pairs, err := build.BuildSelectInclude(ctx, sel, nil)
	require.NoError(t, err)

	list := build.RenderSelectList(ctx, pairs)
	query := sql.Concat(sql.Raw("SELECT "), list, sql.Raw(" FROM "), ctx.Table())

	text, args := query.Render(sql.DollarStyle{})
	assert.Equal(t,
		`SELECT "t0"."id" AS "id", "t0"."title" AS "title", (SELECT json_build_object('id', "t1"."id", 'name', "t1"."name") FROM "Author" "t1" WHERE "t0"."authorId" = "t1"."id" LIMIT 1) AS "author" FROM "posts" "t0"`,
		text)
	assert.Empty(t, args)
}

// TestE2_FilterWithToManySome reproduces E2: findMany(Post, { where: {
// tags: { some: { name: "typescript" } } } }).
func TestE2_FilterWithToManySome(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	where := build.Fields{
		{Key: "tags", Value: build.Fields{
			{Key: "some", Value: build.Fields{
				{Key: "name", Value: build.Fields{{Key: "equals", Value: "typescript"}}},
			}},
		}},
	}
	frag, err := build.BuildWhere(ctx, where)
	require.NoError(t, err)

	text, args := frag.Render(sql.DollarStyle{})
	assert.Equal(t,
		`EXISTS (SELECT 1 FROM "_PostTag" "t1", "tags" "t2" WHERE "t1"."A" = "t0"."id" AND "t2"."id" = "t1"."B" AND "t2"."name" = $1)`,
		text)
	assert.Equal(t, []any{"typescript"}, args)
}

// TestE3_CountWithFilter reproduces E3: findMany(Author, { select: { id:
// true, _count: { select: { posts: { where: { published: true } } } } } }).
func TestE3_CountWithFilter(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	sel := build.Fields{
		{Key: "id", Value: true},
		{Key: "_count", Value: build.Fields{
			{Key: "select", Value: build.Fields{
				{Key: "posts", Value: build.Fields{
					{Key: "where", Value: build.Fields{
						{Key: "published", Value: build.Fields{{Key: "equals", Value: true}}},
					}},
				}},
			}},
		}},
	}
	pairs, err := build.BuildSelectInclude(ctx, sel, nil)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	countPair := pairs[1]
	assert.Equal(t, "_count_posts", countPair.Name)

	text, args := countPair.Expr.Render(sql.DollarStyle{})
	assert.Equal(t,
		`(SELECT COUNT(*) FROM "posts" "t1" WHERE "t0"."id" = "t1"."authorId" AND "t1"."published" = $1)`,
		text)
	assert.Equal(t, []any{true}, args)
}

// TestE6_GroupByWithHaving reproduces E6: groupBy(Post, { by:
// ["authorId"], _count: { id: true }, having: { authorId: { equals: "A1"
// }, id: { _count: { gt: 5 } } } }).
func TestE6_GroupByWithHaving(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	authorID, ok := ctx.Model.Field("authorId")
	require.True(t, ok)

	aggArgs := build.Fields{
		{Key: "_count", Value: build.Fields{{Key: "id", Value: true}}},
	}
	aggPairs, err := build.BuildAggregateSelect(ctx, aggArgs)
	require.NoError(t, err)
	require.Len(t, aggPairs, 1)

	selectList := build.RenderSelectList(ctx, append(
		[]build.ColumnPair{{Name: "authorId", Expr: ctx.Column(authorID)}},
		aggPairs...,
	))

	having := build.Fields{
		{Key: "authorId", Value: build.Fields{{Key: "equals", Value: "A1"}}},
		{Key: "id", Value: build.Fields{
			{Key: "_count", Value: build.Fields{{Key: "gt", Value: 5}}},
		}},
	}
	havingFrag, err := build.BuildHaving(ctx, having, map[string]bool{"authorId": true, "id": true})
	require.NoError(t, err)

	query := sql.Concat(
		sql.Raw("SELECT "), selectList,
		sql.Raw(" FROM "), ctx.Table(),
		sql.Raw(" GROUP BY "), ctx.Column(authorID),
		sql.Raw(" HAVING "), havingFrag,
	)

	text, args := query.Render(sql.DollarStyle{})
	assert.Equal(t,
		`SELECT "t0"."authorId" AS "authorId", json_build_object('id', COUNT("t0"."id")) AS "_count" FROM "posts" "t0" GROUP BY "t0"."authorId" HAVING "t0"."authorId" = $1 AND COUNT("t0"."id") > $2`,
		text)
	assert.Equal(t, []any{"A1", 5}, args)
}

// TestE6_HavingRejectsUnknownField ensures a HAVING reference to a field
// that is neither a `by` column nor an aggregate key fails CompileError.
func TestE6_HavingRejectsUnknownField(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	having := build.Fields{
		{Key: "title", Value: build.Fields{{Key: "equals", Value: "x"}}},
	}
	_, err := build.BuildHaving(ctx, having, map[string]bool{"authorId": true, "id": true})
	require.Error(t, err)
}
