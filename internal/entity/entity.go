package entity

import (
	"errors"
	"time"
)

// BasicEntity holds the audit columns every admin managed table carries.
type BasicEntity struct {
	ID        int        `json:"id"         bun:"id,pk,autoincrement"`
	CreatedAt time.Time  `json:"created_at" bun:"created_at,nullzero,default:now()"`
	CreatedBy *int       `json:"-"          bun:"created_by"`
	UpdatedAt *time.Time `json:"-"          bun:"updated_at"`
	UpdatedBy *int       `json:"-"          bun:"updated_by"`
	DeletedAt *time.Time `json:"-"          bun:"deleted_at,soft_delete,nullzero"`
	DeletedBy *int       `json:"-"          bun:"deleted_by"`
}

// ErrNotFound is the cause of every "row not found" error the stores return.
var ErrNotFound = errors.New("not found")
