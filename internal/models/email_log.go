package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EmailSent   = "sent"
	EmailFailed = "failed"
)

type EmailLog struct {
	bun.BaseModel `bun:"table:email_log,alias:el"`

	ID         string    `bun:"id,pk" json:"id"`
	OrderID    string    `bun:"order_id,nullzero" json:"order_id,omitempty"`
	Recipient  string    `bun:"recipient,notnull" json:"recipient"`
	EmailType  string    `bun:"email_type,notnull" json:"email_type"`
	Subject    string    `bun:"subject,notnull" json:"subject"`
	ProviderID string    `bun:"provider_id,nullzero" json:"provider_id,omitempty"`
	Status     string    `bun:"status,notnull" json:"status"`
	Error      string    `bun:"error,nullzero" json:"error,omitempty"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
