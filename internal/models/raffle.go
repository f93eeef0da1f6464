package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RaffleEntry struct {
	bun.BaseModel `bun:"table:raffle_entries,alias:re"`

	ID          string    `bun:"id,pk" json:"id"`
	OrderID     string    `bun:"order_id,notnull" json:"order_id"`
	AttendeeID  string    `bun:"attendee_id,nullzero" json:"attendee_id,omitempty"`
	ProductID   string    `bun:"product_id,notnull" json:"product_id"`
	EntryNumber int       `bun:"entry_number,notnull,unique" json:"entry_number"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type RaffleEntryView struct {
	RaffleEntry `bun:",extend"`

	ProductName string `bun:"product_name,scanonly" json:"product_name"`
}
