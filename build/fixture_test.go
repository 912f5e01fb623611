package build_test

import (
	"github.com/beynar/relquery/dialect/sql"
	"github.com/beynar/relquery/schema"
)

// newBlogRegistry builds the Author/Post/Tag fixture used throughout this
// package's tests, matching spec.md's worked end-to-end examples (E1-E3,
// E6): Post.author is a manyToOne holding authorId; Author.posts is its
// oneToMany inverse; Post.tags is a manyToMany through the default
// "_PostTag" junction (fields A/B).
func newBlogRegistry() *schema.Registry {
	author := schema.NewModel("Author", "Author")
	author.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	author.AddField(&schema.Field{Name: "name", Type: schema.TypeString})
	author.AddField(&schema.Field{Name: "email", Type: schema.TypeString, IsUnique: true})

	post := schema.NewModel("Post", "posts")
	post.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	post.AddField(&schema.Field{Name: "title", Type: schema.TypeString})
	post.AddField(&schema.Field{Name: "authorId", Type: schema.TypeString})
	post.AddField(&schema.Field{Name: "published", Type: schema.TypeBoolean})

	tag := schema.NewModel("Tag", "tags")
	tag.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	tag.AddField(&schema.Field{Name: "name", Type: schema.TypeString})

	reg, err := schema.NewRegistry(map[string]*schema.Model{
		"Author": author,
		"Post":   post,
		"Tag":    tag,
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

func postgres() sql.Adapter { return sql.NewPostgres() }
