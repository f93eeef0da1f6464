package models

import "github.com/uptrace/bun"

const DefaultTableCapacity = 8

type Table struct {
	bun.BaseModel `bun:"table:tables,alias:t"`

	ID         string `bun:"id,pk" json:"id"`
	Name       string `bun:"name,notnull" json:"name"`
	Capacity   int    `bun:"capacity,notnull,default:8" json:"capacity"`
	IsReserved bool   `bun:"is_reserved,notnull" json:"is_reserved"`
	Notes      string `bun:"notes,nullzero" json:"notes"`
}

type TableWithCount struct {
	Table `bun:",extend"`

	CurrentCount int `bun:"current_count,scanonly" json:"current_count"`
}
