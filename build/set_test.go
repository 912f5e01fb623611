package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
)

func TestBuildSet_BareValue(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	kv, err := build.BuildSet(ctx, build.Fields{{Key: "title", Value: "New title"}})
	require.NoError(t, err)
	require.Len(t, kv, 1)
	assert.Equal(t, "title", kv[0].Key)
	text, args := kv[0].Value.Render(sql.DollarStyle{})
	assert.Equal(t, "$1", text)
	assert.Equal(t, []any{"New title"}, args)
}

func TestBuildSet_OperationObjects(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	cases := []struct {
		name   string
		field  string
		value  build.Fields
		expect string
		args   []any
	}{
		{"set", "title", build.Fields{{Key: "set", Value: "X"}}, "$1", []any{"X"}},
		{"increment", "title", build.Fields{{Key: "increment", Value: 1}}, `"title" + $1`, []any{1}},
		{"decrement", "title", build.Fields{{Key: "decrement", Value: 2}}, `"title" - $1`, []any{2}},
		{"multiply", "title", build.Fields{{Key: "multiply", Value: 3}}, `"title" * $1`, []any{3}},
		{"divide", "title", build.Fields{{Key: "divide", Value: 4}}, `"title" / $1`, []any{4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := build.NewContext(postgres(), reg, post)
			kv, err := build.BuildSet(ctx, build.Fields{{Key: tc.field, Value: tc.value}})
			require.NoError(t, err)
			require.Len(t, kv, 1)
			text, args := kv[0].Value.Render(sql.DollarStyle{})
			assert.Equal(t, tc.expect, text)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestBuildSet_RelationKeySkipped(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	kv, err := build.BuildSet(ctx, build.Fields{
		{Key: "title", Value: "X"},
		{Key: "author", Value: build.Fields{{Key: "connect", Value: build.Fields{{Key: "id", Value: "A1"}}}}},
	})
	require.NoError(t, err)
	require.Len(t, kv, 1)
	assert.Equal(t, "title", kv[0].Key)
}

func TestBuildSet_UnknownKeyFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	_, err := build.BuildSet(ctx, build.Fields{{Key: "bogus", Value: "X"}})
	require.Error(t, err)
}

func TestBuildSet_UnknownOperatorFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	_, err := build.BuildSet(ctx, build.Fields{{Key: "title", Value: build.Fields{{Key: "frobnicate", Value: 1}}}})
	require.Error(t, err)
}
