package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Category string

const (
	CategoryTicket      Category = "ticket"
	CategorySponsorship Category = "sponsorship"
	CategoryRaffle      Category = "raffle"
	CategoryDonation    Category = "donation"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTicket, CategorySponsorship, CategoryRaffle, CategoryDonation:
		return true
	}
	return false
}

// Seated reports whether purchases in this category materialize attendees.
func (c Category) Seated() bool {
	return c == CategoryTicket || c == CategorySponsorship
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID                string    `bun:"id,pk" json:"id"`
	Name              string    `bun:"name,notnull" json:"name"`
	Description       string    `bun:"description,nullzero" json:"description"`
	Category          Category  `bun:"category,notnull" json:"category"`
	PriceCents        int64     `bun:"price_cents,notnull" json:"price_cents"`
	QuantityAvailable *int      `bun:"quantity_available" json:"quantity_available"`
	QuantitySold      int       `bun:"quantity_sold,notnull,default:0" json:"quantity_sold"`
	TableSize         *int      `bun:"table_size" json:"table_size"`
	IsActive          bool      `bun:"is_active,notnull" json:"is_active"`
	SortOrder         int       `bun:"sort_order,notnull,default:0" json:"sort_order"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Remaining returns the unsold stock and false when the product is unlimited.
func (p *Product) Remaining() (int, bool) {
	if p.QuantityAvailable == nil {
		return 0, false
	}
	return *p.QuantityAvailable - p.QuantitySold, true
}

// SeatsPerUnit is table_size, defaulting to one seat.
func (p *Product) SeatsPerUnit() int {
	return SeatsPerUnit(p.TableSize)
}

func SeatsPerUnit(tableSize *int) int {
	if tableSize == nil || *tableSize < 1 {
		return 1
	}
	return *tableSize
}
