package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Category struct {
	ID          gocql.UUID  `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	ImageURL    string      `json:"imageUrl"`
	ParentID    *gocql.UUID `json:"parentId"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type Brand struct {
	ID          gocql.UUID `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	LogoURL     string     `json:"logoUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
}
