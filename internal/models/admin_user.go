package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleEdit Role = "edit"
	RoleView Role = "view"
)

func (r Role) Valid() bool {
	return r == RoleEdit || r == RoleView
}

func (r Role) CanEdit() bool {
	return r == RoleEdit
}

type AdminUser struct {
	bun.BaseModel `bun:"table:admin_users,alias:u"`

	ID                string     `bun:"id,pk" json:"id"`
	Email             string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"-"`
	Role              Role       `bun:"role,notnull" json:"role"`
	ResetToken        string     `bun:"reset_token,nullzero" json:"-"`
	ResetTokenExpires *time.Time `bun:"reset_token_expires" json:"-"`
	LastLogin         *time.Time `bun:"last_login" json:"last_login"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
