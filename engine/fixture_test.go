package engine_test

import (
	"github.com/beynar/relquery/schema"
)

func newUserRegistry() *schema.Registry {
	user := schema.NewModel("User", "users")
	user.AddField(&schema.Field{Name: "id", Column: "id", Type: schema.TypeInt, IsID: true, AutoGenerate: "autoincrement"})
	user.AddField(&schema.Field{Name: "name", Column: "name", Type: schema.TypeString})
	user.AddField(&schema.Field{Name: "email", Column: "email", Type: schema.TypeString, IsUnique: true})

	registry, err := schema.NewRegistry(map[string]*schema.Model{"User": user})
	if err != nil {
		panic(err)
	}
	return registry
}
