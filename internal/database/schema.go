package database

import (
	"context"
	"fmt"

	"gala-ticketing/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Models lists every table in creation order. Referenced tables come first.
var Models = []interface{}{
	(*models.Product)(nil),
	(*models.Order)(nil),
	(*models.OrderItem)(nil),
	(*models.Table)(nil),
	(*models.Attendee)(nil),
	(*models.RaffleEntry)(nil),
	(*models.Donor)(nil),
	(*models.EmailLog)(nil),
	(*models.AdminUser)(nil),
}

// constraints mirrors the CHECK and REFERENCES clauses of
// migrations/000001_init_schema.up.sql for schemas built from the models.
type constraints struct {
	checks []string
	fks    []string
}

var tableConstraints = map[interface{}]constraints{
	(*models.Product)(nil): {checks: []string{
		"CHECK (category IN ('ticket', 'sponsorship', 'raffle', 'donation'))",
		"CHECK (price_cents >= 0)",
		"CHECK (quantity_available IS NULL OR quantity_available >= 0)",
	}},
	(*models.Order)(nil): {checks: []string{
		"CHECK (payment_method IN ('card', 'check'))",
		"CHECK (status IN ('pending', 'pending_check', 'paid', 'cancelled', 'refunded'))",
		"CHECK (donation_cents >= 0)",
	}},
	(*models.OrderItem)(nil): {
		checks: []string{"CHECK (quantity > 0)"},
		fks: []string{
			"(order_id) REFERENCES orders (id)",
			"(product_id) REFERENCES products (id)",
		},
	},
	(*models.Table)(nil): {checks: []string{"CHECK (capacity > 0)"}},
	(*models.Attendee)(nil): {fks: []string{
		"(order_id) REFERENCES orders (id)",
		"(table_id) REFERENCES tables (id)",
	}},
	(*models.RaffleEntry)(nil): {fks: []string{
		"(order_id) REFERENCES orders (id)",
		"(attendee_id) REFERENCES attendees (id)",
		"(product_id) REFERENCES products (id)",
	}},
	(*models.EmailLog)(nil):  {checks: []string{"CHECK (status IN ('sent', 'failed'))"}},
	(*models.AdminUser)(nil): {checks: []string{"CHECK (role IN ('edit', 'view'))"}},
}

type index struct {
	name    string
	model   interface{}
	columns []string
}

var indexes = []index{
	{"idx_orders_status", (*models.Order)(nil), []string{"status"}},
	{"idx_orders_email", (*models.Order)(nil), []string{"customer_email"}},
	{"idx_attendees_order", (*models.Attendee)(nil), []string{"order_id"}},
	{"idx_attendees_table", (*models.Attendee)(nil), []string{"table_id"}},
	{"idx_order_items_order", (*models.OrderItem)(nil), []string{"order_id"}},
	{"idx_raffle_entries_order", (*models.RaffleEntry)(nil), []string{"order_id"}},
	{"idx_email_log_order", (*models.EmailLog)(nil), []string{"order_id"}},
}

// CreateSchema builds the tables from the bun models with the same value and
// referential constraints as the SQL migrations. Postgres deployments use the
// migrations instead.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range Models {
		q := db.NewCreateTable().Model(model).IfNotExists()
		c := tableConstraints[model]
		for _, check := range c.checks {
			q = q.ColumnExpr(check)
		}
		for _, fk := range c.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// DropSchema removes every table, for the seed tool's reset flag.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(Models) - 1; i >= 0; i-- {
		q := db.NewDropTable().Model(Models[i]).IfExists()
		if db.Dialect().Name() == dialect.PG {
			q = q.Cascade()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", Models[i], err)
		}
	}
	return nil
}
