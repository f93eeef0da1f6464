package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Donor is the giving ledger for one customer email.
type Donor struct {
	bun.BaseModel `bun:"table:donors,alias:d"`

	ID                string     `bun:"id,pk" json:"id"`
	Email             string     `bun:"email,notnull,unique" json:"email"`
	Name              string     `bun:"name,nullzero" json:"name"`
	Phone             string     `bun:"phone,nullzero" json:"phone"`
	Address           string     `bun:"address,nullzero" json:"address"`
	TotalDonatedCents int64      `bun:"total_donated_cents,notnull,default:0" json:"total_donated_cents"`
	OrderCount        int        `bun:"order_count,notnull,default:0" json:"order_count"`
	FirstOrderAt      *time.Time `bun:"first_order_at" json:"first_order_at"`
	LastOrderAt       *time.Time `bun:"last_order_at" json:"last_order_at"`
	Notes             string     `bun:"notes,nullzero" json:"notes"`
	ImportedFrom      string     `bun:"imported_from,nullzero" json:"imported_from"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
