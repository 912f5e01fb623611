package parse_test

import "github.com/beynar/relquery/schema"

// newBlogRegistry mirrors the Author/Post/Tag fixture used across the
// build/assemble/plan test suites, extended with one field per scalar
// type §4.12 gives special conversion treatment (datetime, bigint,
// decimal, json, blob) so a single model exercises every branch.
func newBlogRegistry() *schema.Registry {
	author := schema.NewModel("Author", "Author")
	author.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	author.AddField(&schema.Field{Name: "name", Type: schema.TypeString})

	post := schema.NewModel("Post", "posts")
	post.AddField(&schema.Field{Name: "id", Type: schema.TypeString, IsID: true})
	post.AddField(&schema.Field{Name: "title", Type: schema.TypeString})
	post.AddField(&schema.Field{Name: "authorId", Type: schema.TypeString})
	post.AddField(&schema.Field{Name: "createdAt", Type: schema.TypeDateTime})
	post.AddField(&schema.Field{Name: "views", Type: schema.TypeBigInt})
	post.AddField(&schema.Field{Name: "rating", Type: schema.TypeDecimal})
	post.AddField(&schema.Field{Name: "metadata", Type: schema.TypeJSON})
	post.AddField(&schema.Field{Name: "thumbnail", Type: schema.TypeBlob, Nullable: true})
	post.AddField(&schema.Field{Name: "tagIds", Type: schema.TypeString, Array: true})

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

	return reg
}
