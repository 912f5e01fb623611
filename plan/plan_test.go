package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery/build"
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/plan"
	"github.com/beynar/relquery/schema"
)

// newBlogRegistry mirrors the Author/Post/Tag fixture shared across this
// module's test packages (E1-E6): Post.author is a manyToOne holding
// authorId; Author.posts is its oneToMany inverse; Post.tags is a
// manyToMany through the default "_PostTag" junction.
func newBlogRegistry() *schema.Registry {
	author := schema.NewModel("Author", "Author")
	author.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	author.AddField(&schema.Field{Name: "name", Type: schema.TypeString})
	author.AddField(&schema.Field{Name: "email", Type: schema.TypeString, IsUnique: true})

	post := schema.NewModel("Post", "posts")
	post.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	post.AddField(&schema.Field{Name: "title", Type: schema.TypeString})
	post.AddField(&schema.Field{Name: "authorId", Type: schema.TypeString})

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
	author.AddRelation(&schema.Relation{
		Name: "posts", Type: schema.OneToMany,
		Target: func() *schema.Model { return reg.MustModel("Post") },
	})
	post.AddRelation(&schema.Relation{
		Name: "tags", Type: schema.ManyToMany,
		Target: func() *schema.Model { return reg.MustModel("Tag") },
	})
	tag.AddRelation(&schema.Relation{
		Name: "posts", Type: schema.ManyToMany,
		Target: func() *schema.Model { return reg.MustModel("Post") },
	})

	return reg
}

func postgres() sql.Adapter { return sql.NewPostgres() }

// TestCreate_NestedCreateIsTransactionalWithCapturedFK reproduces E4: a
// create with a nested `posts.create` (target holds the FK) must yield a
// transactional plan whose parent step runs before the children, and
// whose children read the parent's captured id binding.
func TestCreate_NestedCreateIsTransactionalWithCapturedFK(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	data := build.Fields{
		{Key: "id", Value: "A1"},
		{Key: "name", Value: "Alice"},
		{Key: "email", Value: "a@x"},
		{Key: "posts", Value: build.Fields{{Key: "create", Value: []any{
			build.Fields{{Key: "id", Value: "P1"}, {Key: "title", Value: "Hi"}},
			build.Fields{{Key: "id", Value: "P2"}, {Key: "title", Value: "Yo"}},
		}}}},
	}

	p, err := plan.Create(ctx, data, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.Transactional, p.Mode)
	require.Len(t, p.Steps, 3)

	bindings := plan.Bindings{}
	for i, step := range p.Steps {
		frag, err := step.Build(bindings)
		require.NoError(t, err, "step %d", i)
		text, args := frag.Render(sql.DollarStyle{})
		assert.NotEmpty(t, text)
		assert.NotEmpty(t, args)
		if step.CaptureAs != "" {
			if step.CaptureColumn == "" {
				bindings[step.CaptureAs] = step.Literal
			} else {
				bindings[step.CaptureAs] = "captured-pk"
			}
		}
	}

	selfBindings := plan.Bindings{"__self__": "A1"}

	authorSQL, authorArgs := mustRender(t, p.Steps[0], plan.Bindings{})
	assert.Contains(t, authorSQL, `"Author"`)
	assert.Contains(t, authorArgs, "A1")

	post1SQL, post1Args := mustRender(t, p.Steps[1], selfBindings)
	assert.Contains(t, post1SQL, `"posts"`)
	assert.Contains(t, post1Args, "P1")

	post2SQL, post2Args := mustRender(t, p.Steps[2], selfBindings)
	assert.Contains(t, post2SQL, `"posts"`)
	assert.Contains(t, post2Args, "P2")
}

func mustRender(t *testing.T, step plan.Step, bindings plan.Bindings) (string, []any) {
	t.Helper()
	frag, err := step.Build(bindings)
	require.NoError(t, err)
	return frag.Render(sql.DollarStyle{})
}

// TestCreate_SimpleConnectIsSingleStatement reproduces Invariant #6: a
// create with only scalars plus a to-one connect on the FK-holding side
// emits a single INSERT, no transaction.
func TestCreate_SimpleConnectIsSingleStatement(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	data := build.Fields{
		{Key: "id", Value: "P1"},
		{Key: "title", Value: "Hi"},
		{Key: "author", Value: build.Fields{{Key: "connect", Value: build.Fields{{Key: "email", Value: "a@x"}}}}},
	}

	p, err := plan.Create(ctx, data, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.SingleStatement, p.Mode)
	require.Len(t, p.Steps, 1)

	frag, err := p.Steps[0].Build(plan.Bindings{})
	require.NoError(t, err)
	text, args := frag.Render(sql.DollarStyle{})
	assert.Contains(t, text, "INSERT INTO")
	assert.Contains(t, text, "SELECT")
	assert.Contains(t, args, "a@x")
}

// TestCreate_SecondLevelNestedCreateFails confirms the one-level nesting
// scope limit: a nested create whose own data carries a further relation
// key is rejected with a CompileError rather than silently dropped.
func TestCreate_SecondLevelNestedCreateFails(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	data := build.Fields{
		{Key: "id", Value: "A1"},
		{Key: "posts", Value: build.Fields{{Key: "create", Value: build.Fields{
			{Key: "id", Value: "P1"},
			{Key: "tags", Value: build.Fields{{Key: "connect", Value: build.Fields{{Key: "id", Value: "T1"}}}}},
		}}}},
	}

	_, err := plan.Create(ctx, data, nil, nil)
	require.Error(t, err)
}

// TestUpdate_SimpleDisconnectIsSingleStatement mirrors §4.10's inlining
// note for update: a simple to-one disconnect in the same data is
// inlined as a NULL FK assignment in a single UPDATE.
func TestUpdate_SimpleDisconnectIsSingleStatement(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	whereUnique := build.Fields{{Key: "id", Value: "P1"}}
	data := build.Fields{
		{Key: "title", Value: "New title"},
		{Key: "author", Value: build.Fields{{Key: "disconnect", Value: nil}}},
	}

	p, err := plan.Update(ctx, whereUnique, data, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.SingleStatement, p.Mode)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "P1", p.Steps[0].Literal)

	frag, err := p.Steps[0].Build(plan.Bindings{})
	require.NoError(t, err)
	text, args := frag.Render(sql.DollarStyle{})
	assert.Contains(t, text, "UPDATE")
	assert.Contains(t, args, "New title")
}

// TestUpsert_WithWorkedExample reproduces E5's upsert shape through the
// planner: a single INSERT ... ON CONFLICT ... DO UPDATE statement, no
// transaction.
func TestUpsert_WithWorkedExample(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	whereUnique := build.Fields{{Key: "email", Value: "x@y"}}
	create := build.Fields{
		{Key: "id", Value: "U1"},
		{Key: "email", Value: "x@y"},
		{Key: "name", Value: "X"},
	}
	update := build.Fields{{Key: "name", Value: build.Fields{{Key: "set", Value: "Y"}}}}

	p, err := plan.Upsert(ctx, whereUnique, create, update, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.SingleStatement, p.Mode)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "U1", p.Steps[0].Literal)

	frag, err := p.Steps[0].Build(plan.Bindings{})
	require.NoError(t, err)
	text, args := frag.Render(sql.DollarStyle{})
	assert.Contains(t, text, "ON CONFLICT")
	assert.Equal(t, []any{"U1", "x@y", "X", "Y"}, args)
}

// TestUpsert_NestedCreateInUpdateDataFails confirms upsert's scope limit:
// anything beyond a simple to-one connect/disconnect relation write in
// either payload is rejected.
func TestUpsert_NestedCreateInUpdateDataFails(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	whereUnique := build.Fields{{Key: "email", Value: "x@y"}}
	create := build.Fields{{Key: "id", Value: "U1"}, {Key: "email", Value: "x@y"}, {Key: "name", Value: "X"}}
	update := build.Fields{
		{Key: "posts", Value: build.Fields{{Key: "create", Value: build.Fields{
			{Key: "id", Value: "P1"}, {Key: "title", Value: "Hi"},
		}}}},
	}

	_, err := plan.Upsert(ctx, whereUnique, create, update, nil, nil)
	require.Error(t, err)
}

// TestCreate_ManyToManyConnectProducesJunctionStep confirms a manyToMany
// connect bucket always routes through the transactional plan and emits
// a junction-table INSERT after the parent's own create step.
func TestCreate_ManyToManyConnectProducesJunctionStep(t *testing.T) {
	reg := newBlogRegistry()
	post, _ := reg.Model("Post")
	ctx := build.NewContext(postgres(), reg, post)

	data := build.Fields{
		{Key: "id", Value: "P1"},
		{Key: "title", Value: "Hi"},
		{Key: "authorId", Value: "A1"},
		{Key: "tags", Value: build.Fields{{Key: "connect", Value: build.Fields{{Key: "id", Value: "T1"}}}}},
	}

	p, err := plan.Create(ctx, data, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.Transactional, p.Mode)
	require.Len(t, p.Steps, 2)

	bindings := plan.Bindings{"__self__": "P1"}
	frag, err := p.Steps[1].Build(bindings)
	require.NoError(t, err)
	text, args := frag.Render(sql.DollarStyle{})
	assert.Contains(t, text, "_PostTag")
	assert.Contains(t, args, "P1")
	assert.Contains(t, text, "SELECT")
}

// TestCreate_MissingCapturedBindingErrors confirms a transactional plan's
// child step fails loudly if the parent's captured PK binding was never
// populated, rather than silently emitting a NULL FK.
func TestCreate_MissingCapturedBindingErrors(t *testing.T) {
	reg := newBlogRegistry()
	author, _ := reg.Model("Author")
	ctx := build.NewContext(postgres(), reg, author)

	data := build.Fields{
		{Key: "id", Value: "A1"},
		{Key: "posts", Value: build.Fields{{Key: "create", Value: []any{
			build.Fields{{Key: "id", Value: "P1"}, {Key: "title", Value: "Hi"}},
		}}}},
	}

	p, err := plan.Create(ctx, data, nil, nil)
	require.NoError(t, err)
	// The parent step (index 0) needs no binding. The child step (index
	// 1) reads the parent's PK from the "__self__" binding, which is
	// absent here, so building it must fail.
	_, err = p.Steps[0].Build(plan.Bindings{})
	require.NoError(t, err)
	_, err = p.Steps[1].Build(plan.Bindings{})
	require.Error(t, err)
}
