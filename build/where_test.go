package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

func TestBuildWhere_ScalarOperators(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	cases := []struct {
		name   string
		where  build.Fields
		expect string
		args   []any
	}{
		{
			name:   "equals",
			where:  build.Fields{{Key: "title", Value: build.Fields{{Key: "equals", Value: "Hi"}}}},
			expect: `"t0"."title" = $1`,
			args:   []any{"Hi"},
		},
		{
			name:   "equals nil becomes IS NULL",
			where:  build.Fields{{Key: "title", Value: build.Fields{{Key: "equals", Value: nil}}}},
			expect: `"t0"."title" IS NULL`,
			args:   nil,
		},
		{
			name: "not wraps NOT(...)",
			where: build.Fields{{Key: "title", Value: build.Fields{
				{Key: "not", Value: build.Fields{{Key: "equals", Value: "Hi"}}},
			}}},
			expect: `NOT ("t0"."title" = $1)`,
			args:   []any{"Hi"},
		},
		{
			name:   "in",
			where:  build.Fields{{Key: "id", Value: build.Fields{{Key: "in", Value: []any{"P1", "P2"}}}}},
			expect: `"t0"."id" IN ($1, $2)`,
			args:   []any{"P1", "P2"},
		},
		{
			name:   "contains case-insensitive uses native ILIKE on postgres",
			where:  build.Fields{{Key: "title", Value: build.Fields{{Key: "contains", Value: "hi"}, {Key: "mode", Value: "insensitive"}}}},
			expect: `"t0"."title" ILIKE $1`,
			args:   []any{"%hi%"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := build.NewContext(postgres(), reg, post)
			frag, err := build.BuildWhere(ctx, tc.where)
			require.NoError(t, err)
			text, args := frag.Render(sql.DollarStyle{})
			assert.Equal(t, tc.expect, text)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestBuildWhere_LogicalGroups(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	where := build.Fields{
		{Key: "OR", Value: []any{
			build.Fields{{Key: "title", Value: build.Fields{{Key: "equals", Value: "Hi"}}}},
			build.Fields{{Key: "published", Value: build.Fields{{Key: "equals", Value: true}}}},
		}},
	}
	frag, err := build.BuildWhere(ctx, where)
	require.NoError(t, err)
	text, args := frag.Render(sql.DollarStyle{})
	assert.Equal(t, `"t0"."title" = $1 OR "t0"."published" = $2`, text)
	assert.Equal(t, []any{"Hi", true}, args)
}

func TestBuildWhere_UnknownKeyFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	_, err := build.BuildWhere(ctx, build.Fields{{Key: "bogus", Value: build.Fields{{Key: "equals", Value: 1}}}})
	require.Error(t, err)
}

func TestBuildWhere_ToOneRelationNullShortcut(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	frag, err := build.BuildWhere(ctx, build.Fields{{Key: "author", Value: nil}})
	require.NoError(t, err)
	text, args := frag.Render(sql.DollarStyle{})
	assert.Equal(t, `"t0"."authorId" IS NULL`, text)
	assert.Empty(t, args)
}

func TestBuildWhereUnique_SingleField(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	frag, err := build.BuildWhereUnique(ctx, build.Fields{{Key: "email", Value: "a@x"}})
	require.NoError(t, err)
	text, args := frag.Render(sql.DollarStyle{})
	assert.Equal(t, `"t0"."email" = $1`, text)
	assert.Equal(t, []any{"a@x"}, args)
}

func TestBuildWhereUnique_NoMatchFails(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	_, err := build.BuildWhereUnique(ctx, build.Fields{{Key: "name", Value: "Alice"}})
	require.Error(t, err)
}
