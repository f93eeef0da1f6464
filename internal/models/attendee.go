package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Attendee struct {
	bun.BaseModel `bun:"table:attendees,alias:a"`

	ID                  string     `bun:"id,pk" json:"id"`
	OrderID             string     `bun:"order_id,notnull" json:"order_id"`
	Name                string     `bun:"name,nullzero" json:"name"`
	Email               string     `bun:"email,nullzero" json:"email"`
	DietaryRestrictions string     `bun:"dietary_restrictions,nullzero" json:"dietary_restrictions"`
	TableID             string     `bun:"table_id,nullzero" json:"table_id"`
	CheckedIn           bool       `bun:"checked_in,notnull" json:"checked_in"`
	CheckedInAt         *time.Time `bun:"checked_in_at" json:"checked_in_at"`
	CreatedAt           time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// AttendeeView adds the owning order's contact and the table name.
type AttendeeView struct {
	Attendee `bun:",extend"`

	OrderEmail string `bun:"order_email,scanonly" json:"order_email,omitempty"`
	OrderName  string `bun:"order_name,scanonly" json:"order_name,omitempty"`
	TableName  string `bun:"table_name,scanonly" json:"table_name,omitempty"`
}
