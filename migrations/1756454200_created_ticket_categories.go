package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("ticket_categories")

		collection.Fields.Add(
			&core.RelationField{
				Name:         "event",
				CollectionId: events.Id,
				Required:     true,
				MaxSelect:    1,
			},
			&core.TextField{Name: "name", Required: true},
			&core.NumberField{
				Name: "price",
				Min:  types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "total_tickets",
				Min:     types.Pointer(0.0),
				OnlyInt: true,
			},
			&core.NumberField{
				Name:    "tickets_sold",
				Min:     types.Pointer(0.0),
				OnlyInt: true,
			},
			&core.BoolField{Name: "active"},
		)

		collection.AddIndex("idx_ticket_categories_event", false, "event", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("ticket_categories")
		if err != nil {
			return nil
		}
		return app.Delete(collection)
	})
}
