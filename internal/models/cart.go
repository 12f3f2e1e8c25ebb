package models

import "github.com/gocql/gocql"

// CartItem est la forme persistée dans Redis (cart:<userID>)
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartLine est la vue enrichie renvoyée au client
type CartLine struct {
	ProductID gocql.UUID `json:"productId"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Price     int64      `json:"price"`
	Image     string     `json:"image"`
	Stock     int        `json:"stock"`
	Quantity  int        `json:"quantity"`
	LineTotal int64      `json:"lineTotal"`
}

type Cart struct {
	Items         []CartLine `json:"items"`
	TotalQuantity int        `json:"totalQuantity"`
	Subtotal      int64      `json:"subtotal"`
}
