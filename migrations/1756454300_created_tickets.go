package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		categories, err := app.FindCollectionByNameOrId("ticket_categories")
		if err != nil {
			return err
		}
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "category",
				CollectionId: categories.Id,
				Required:     true,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "user",
				CollectionId: users.Id,
				Required:     true,
				MaxSelect:    1,
			},
			&core.TextField{Name: "code", Required: true},
			&core.NumberField{
				Name: "price",
				Min:  types.Pointer(0.0),
			},
			&core.SelectField{
				Name:      "status",
				Values:    []string{"active", "cancelled"},
				MaxSelect: 1,
			},
			&core.DateField{Name: "purchased_at"},
			&core.DateField{Name: "cancelled_at"},
			&core.BoolField{Name: "active"},
		)

		collection.AddIndex("idx_tickets_category", false, "category", "")
		collection.AddIndex("idx_tickets_user", false, "user", "")
		collection.AddIndex("idx_tickets_code", true, "code", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
