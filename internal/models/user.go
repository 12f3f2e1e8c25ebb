package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleCustomer
}

// IsStaff : accès à la console d'administration
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

type User struct {
	ID           gocql.UUID `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Phone        string     `json:"phone"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
}
