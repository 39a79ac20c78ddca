package entities

import (
	"audit-desk/pkg/types"
)

type User struct {
	ID           uint64 `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	FullName     string `json:"full_name" db:"full_name"`
	PasswordHash string `json:"-" db:"password_hash"`
	IsAdmin      bool   `json:"is_admin" db:"is_admin"`

	types.BaseEntity
}
