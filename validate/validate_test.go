package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery"
	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/schema"
	"github.com/beynar/relquery/validate"
)

// newBlogRegistry mirrors the build package's fixture (Author/Post/Tag),
// adding an optional Post.editor to-one relation so the null-shortcut
// normalization path has something to exercise.
func newBlogRegistry() *schema.Registry {
	author := schema.NewModel("Author", "Author")
	author.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	author.AddField(&schema.Field{Name: "name", Type: schema.TypeString})
	author.AddField(&schema.Field{Name: "email", Type: schema.TypeString, IsUnique: true})

	post := schema.NewModel("Post", "posts")
	post.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	post.AddField(&schema.Field{Name: "title", Type: schema.TypeString})
	post.AddField(&schema.Field{Name: "authorId", Type: schema.TypeString})
	post.AddField(&schema.Field{Name: "editorId", Type: schema.TypeString, Nullable: true})
	post.AddField(&schema.Field{Name: "published", Type: schema.TypeBoolean})

	tag := schema.NewModel("Tag", "tags")
	tag.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	tag.AddField(&schema.Field{Name: "name", Type: schema.TypeString})

	reg, err := schema.NewRegistry(map[string]*schema.Model{
		"Author": author, "Post": post, "Tag": tag,
	})
	if err != nil {
		panic(err)
	}

	post.AddRelation(&schema.Relation{
		Name: "author", Type: schema.ManyToOne,
		Target:     func() *schema.Model { return reg.MustModel("Author") },
		Fields:     []string{"authorId"},
		References: []string{"id"},
	})
	post.AddRelation(&schema.Relation{
		Name: "editor", Type: schema.ManyToOne, Optional: true,
		Target:     func() *schema.Model { return reg.MustModel("Author") },
		Fields:     []string{"editorId"},
		References: []string{"id"},
	})
	author.AddRelation(&schema.Relation{
		Name:   "posts",
		Type:   schema.OneToMany,
		Target: func() *schema.Model { return reg.MustModel("Post") },
	})
	post.AddRelation(&schema.Relation{
		Name:   "tags",
		Type:   schema.ManyToMany,
		Target: func() *schema.Model { return reg.MustModel("Tag") },
	})
	tag.AddRelation(&schema.Relation{
		Name:   "posts",
		Type:   schema.ManyToMany,
		Target: func() *schema.Model { return reg.MustModel("Post") },
	})

	return reg
}

func TestWhere_ScalarBareValueBecomesEquals(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.Where(post, "findMany", build.Fields{{Key: "title", Value: "Hello"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "title", out[0].Key)
	assert.Equal(t, build.Fields{{Key: "equals", Value: "Hello"}}, out[0].Value)
}

func TestWhere_ScalarNilBecomesEqualsNil(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.Where(post, "findMany", build.Fields{{Key: "editorId", Value: nil}})
	require.NoError(t, err)
	assert.Equal(t, build.Fields{{Key: "equals", Value: nil}}, out[0].Value)
}

func TestWhere_ScalarOperatorObjectPassesThrough(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	in := build.Fields{{Key: "gte", Value: 5}}
	out, err := validate.Where(post, "findMany", build.Fields{{Key: "title", Value: in}})
	require.NoError(t, err)
	assert.Equal(t, in, out[0].Value)
}

func TestWhere_UnknownScalarOperatorFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	_, err := validate.Where(post, "findMany", build.Fields{
		{Key: "title", Value: build.Fields{{Key: "bogus", Value: 1}}},
	})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestWhere_NotNormalizesBareNestedValue(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.Where(post, "findMany", build.Fields{
		{Key: "title", Value: build.Fields{{Key: "not", Value: "Hello"}}},
	})
	require.NoError(t, err)
	ops := out[0].Value.(build.Fields)
	require.Len(t, ops, 1)
	assert.Equal(t, "not", ops[0].Key)
	assert.Equal(t, build.Fields{{Key: "equals", Value: "Hello"}}, ops[0].Value)
}

func TestWhere_UnknownKeyFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	_, err := validate.Where(post, "findMany", build.Fields{{Key: "bogus", Value: 1}})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestWhere_OrRequiresArray(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	_, err := validate.Where(post, "findMany", build.Fields{
		{Key: "OR", Value: build.Fields{{Key: "title", Value: "x"}}},
	})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestWhere_AndAcceptsBareObject(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.Where(post, "findMany", build.Fields{
		{Key: "AND", Value: build.Fields{{Key: "title", Value: "x"}}},
	})
	require.NoError(t, err)
	items := out[0].Value.([]any)
	require.Len(t, items, 1)
	normalized := items[0].(build.Fields)
	assert.Equal(t, build.Fields{{Key: "equals", Value: "x"}}, normalized[0].Value)
}

func TestWhere_ToOneBareObjectBecomesIs(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.Where(post, "findMany", build.Fields{
		{Key: "author", Value: build.Fields{{Key: "name", Value: "Alice"}}},
	})
	require.NoError(t, err)
	wrapped := out[0].Value.(build.Fields)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "is", wrapped[0].Key)
}

func TestWhere_ToOneNilOnOptionalBecomesIsNull(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.Where(post, "findMany", build.Fields{{Key: "editor", Value: nil}})
	require.NoError(t, err)
	wrapped := out[0].Value.(build.Fields)
	assert.Equal(t, build.Fields{{Key: "is", Value: nil}}, wrapped)
}

func TestWhere_ToOneNilOnRequiredRelationFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	_, err := validate.Where(post, "findMany", build.Fields{{Key: "author", Value: nil}})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestWhere_ToManyBareObjectFails(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")

	_, err := validate.Where(author, "findMany", build.Fields{
		{Key: "posts", Value: build.Fields{{Key: "title", Value: "x"}}},
	})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestWhere_ToManySomeNormalizesInner(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")

	out, err := validate.Where(author, "findMany", build.Fields{
		{Key: "posts", Value: build.Fields{
			{Key: "some", Value: build.Fields{{Key: "published", Value: true}}},
		}},
	})
	require.NoError(t, err)
	wrapped := out[0].Value.(build.Fields)
	some := wrapped[0].Value.(build.Fields)
	assert.Equal(t, build.Fields{{Key: "equals", Value: true}}, some[0].Value)
}

func TestUpdateData_BareValueBecomesSet(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.UpdateData(post, "update", build.Fields{{Key: "title", Value: "New"}})
	require.NoError(t, err)
	assert.Equal(t, build.Fields{{Key: "set", Value: "New"}}, out[0].Value)
}

func TestUpdateData_NilBecomesSetNil(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	out, err := validate.UpdateData(post, "update", build.Fields{{Key: "editorId", Value: nil}})
	require.NoError(t, err)
	assert.Equal(t, build.Fields{{Key: "set", Value: nil}}, out[0].Value)
}

func TestUpdateData_OperationObjectPassesThrough(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	in := build.Fields{{Key: "increment", Value: 1}}
	out, err := validate.UpdateData(post, "update", build.Fields{{Key: "title", Value: in}})
	require.NoError(t, err)
	assert.Equal(t, in, out[0].Value)
}

func TestUpdateData_UnknownOperatorFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	_, err := validate.UpdateData(post, "update", build.Fields{
		{Key: "title", Value: build.Fields{{Key: "bogus", Value: 1}}},
	})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestUpdateData_RelationKeyPassesThrough(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")

	in := build.Fields{{Key: "create", Value: build.Fields{{Key: "title", Value: "x"}}}}
	out, err := validate.UpdateData(author, "update", build.Fields{{Key: "posts", Value: in}})
	require.NoError(t, err)
	assert.Equal(t, in, out[0].Value)
}

func TestCreateData_UnknownKeyFails(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")

	_, err := validate.CreateData(post, "create", build.Fields{{Key: "bogus", Value: 1}})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestWhereUnique_SingleUniqueField(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")

	out, err := validate.WhereUnique(author, "findUnique", build.Fields{{Key: "email", Value: "a@x"}})
	require.NoError(t, err)
	assert.Equal(t, "email", out[0].Key)
}

func TestWhereUnique_NoMatchFails(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")

	_, err := validate.WhereUnique(author, "findUnique", build.Fields{{Key: "name", Value: "Alice"}})
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}

func TestWhereUnique_Empty(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")

	_, err := validate.WhereUnique(author, "findUnique", nil)
	require.Error(t, err)
	assert.True(t, relquery.IsInvalidInput(err))
}
