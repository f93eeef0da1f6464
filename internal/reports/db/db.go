package db

import (
	"context"

	"gala-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

type OrderStats struct {
	Total          int   `bun:"total"`
	Paid           int   `bun:"paid"`
	Pending        int   `bun:"pending"`
	PendingCheck   int   `bun:"pending_check"`
	RevenueCents   int64 `bun:"revenue"`
	DonationsCents int64 `bun:"donations"`
}

type CategoryRevenue struct {
	Category models.Category `bun:"category"`
	Cents    int64           `bun:"revenue"`
}

type AttendeeStats struct {
	Total          int `bun:"total"`
	NamesCollected int `bun:"names_collected"`
	CheckedIn      int `bun:"checked_in"`
	Assigned       int `bun:"assigned"`
}

type ProductSales struct {
	models.Product `bun:",extend"`

	Sold int `bun:"sold,scanonly" json:"sold"`
}

func (d *DB) OrderStats(ctx context.Context) (OrderStats, error) {
	var s OrderStats
	err := d.Bun.NewSelect().
		TableExpr("orders AS o").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN 1 ELSE 0 END), 0) AS paid", models.StatusPaid).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN 1 ELSE 0 END), 0) AS pending", models.StatusPending).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN 1 ELSE 0 END), 0) AS pending_check", models.StatusPendingCheck).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN o.total_cents ELSE 0 END), 0) AS revenue", models.StatusPaid).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN o.donation_cents ELSE 0 END), 0) AS donations", models.StatusPaid).
		Scan(ctx, &s)
	return s, err
}

func (d *DB) RevenueByCategory(ctx context.Context) ([]CategoryRevenue, error) {
	var rows []CategoryRevenue
	err := d.Bun.NewSelect().
		TableExpr("order_items AS oi").
		ColumnExpr("p.category AS category").
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN oi.total_cents ELSE 0 END), 0) AS revenue", models.StatusPaid).
		Join("JOIN products AS p ON p.id = oi.product_id").
		Join("JOIN orders AS o ON o.id = oi.order_id").
		GroupExpr("p.category").
		Scan(ctx, &rows)
	return rows, err
}

// AttendeeStats covers attendees of paid and check orders.
func (d *DB) AttendeeStats(ctx context.Context) (AttendeeStats, error) {
	var s AttendeeStats
	err := d.Bun.NewSelect().
		TableExpr("attendees AS a").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COALESCE(SUM(CASE WHEN a.name IS NOT NULL AND a.name != '' THEN 1 ELSE 0 END), 0) AS names_collected").
		ColumnExpr("COALESCE(SUM(CASE WHEN a.checked_in = ? THEN 1 ELSE 0 END), 0) AS checked_in", true).
		ColumnExpr("COALESCE(SUM(CASE WHEN a.table_id IS NOT NULL THEN 1 ELSE 0 END), 0) AS assigned").
		Join("JOIN orders AS o ON o.id = a.order_id").
		Where("o.status IN (?)", bun.In([]models.OrderStatus{models.StatusPaid, models.StatusPendingCheck})).
		Scan(ctx, &s)
	return s, err
}

func (d *DB) PaidRaffleEntries(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.RaffleEntry)(nil)).
		Join("JOIN orders AS o ON o.id = re.order_id").
		Where("o.status = ?", models.StatusPaid).
		Count(ctx)
}

// ProductSales lists active products with units sold on paid orders.
func (d *DB) ProductSales(ctx context.Context) ([]ProductSales, error) {
	var rows []ProductSales
	err := d.Bun.NewSelect().
		Model(&rows).
		ColumnExpr("p.*").
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN oi.quantity ELSE 0 END), 0) AS sold", models.StatusPaid).
		Join("LEFT JOIN order_items AS oi ON oi.product_id = p.id").
		Join("LEFT JOIN orders AS o ON o.id = oi.order_id").
		Where("p.is_active = ?", true).
		GroupExpr("p.id").
		OrderExpr("p.category, p.sort_order").
		Scan(ctx)
	return rows, err
}

type AttendeeExportRow struct {
	Name       *string `bun:"name"`
	Email      *string `bun:"email"`
	Dietary    *string `bun:"dietary"`
	Table      *string `bun:"table_name"`
	CheckedIn  bool    `bun:"checked_in"`
	OrderName  *string `bun:"order_name"`
	OrderEmail string  `bun:"order_email"`
}

func (d *DB) ExportAttendees(ctx context.Context) ([]AttendeeExportRow, error) {
	var rows []AttendeeExportRow
	err := d.Bun.NewSelect().
		TableExpr("attendees AS a").
		ColumnExpr("a.name AS name").
		ColumnExpr("a.email AS email").
		ColumnExpr("a.dietary_restrictions AS dietary").
		ColumnExpr("t.name AS table_name").
		ColumnExpr("a.checked_in AS checked_in").
		ColumnExpr("o.customer_name AS order_name").
		ColumnExpr("o.customer_email AS order_email").
		Join("JOIN orders AS o ON o.id = a.order_id").
		Join("LEFT JOIN tables AS t ON t.id = a.table_id").
		Where("o.status = ?", models.StatusPaid).
		OrderExpr("t.name, a.name, a.id").
		Scan(ctx, &rows)
	return rows, err
}

func (d *DB) ExportOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().Model(&orders).Order("o.created_at DESC").Scan(ctx)
	return orders, err
}

type RaffleExportRow struct {
	EntryNumber    int     `bun:"entry_number"`
	RaffleType     string  `bun:"raffle_type"`
	PurchaserName  *string `bun:"purchaser_name"`
	PurchaserEmail string  `bun:"purchaser_email"`
}

func (d *DB) ExportRaffle(ctx context.Context) ([]RaffleExportRow, error) {
	var rows []RaffleExportRow
	err := d.Bun.NewSelect().
		TableExpr("raffle_entries AS re").
		ColumnExpr("re.entry_number AS entry_number").
		ColumnExpr("p.name AS raffle_type").
		ColumnExpr("o.customer_name AS purchaser_name").
		ColumnExpr("o.customer_email AS purchaser_email").
		Join("JOIN orders AS o ON o.id = re.order_id").
		Join("JOIN products AS p ON p.id = re.product_id").
		Where("o.status = ?", models.StatusPaid).
		OrderExpr("re.entry_number").
		Scan(ctx, &rows)
	return rows, err
}

func (d *DB) ExportDonors(ctx context.Context) ([]models.Donor, error) {
	var donors []models.Donor
	err := d.Bun.NewSelect().Model(&donors).Order("total_donated_cents DESC", "email").Scan(ctx)
	return donors, err
}
