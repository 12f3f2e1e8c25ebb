package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Les montants sont en VND entiers
type Product struct {
	ID            gocql.UUID `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	Price         int64      `json:"price"`
	OriginalPrice int64      `json:"originalPrice"`
	Stock         int        `json:"stock"`
	CategoryID    gocql.UUID `json:"categoryId"`
	BrandID       gocql.UUID `json:"brandId"`
	Images        []string   `json:"images"`
	IsFeatured    bool       `json:"isFeatured"`
	IsActive      bool       `json:"isActive"`
	RatingAverage float64    `json:"ratingAverage"`
	ReviewCount   int        `json:"reviewCount"`
	SoldCount     int        `json:"soldCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (p Product) FirstImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// DiscountPercent : remise affichée par rapport au prix d'origine
func (p Product) DiscountPercent() int {
	if p.OriginalPrice <= p.Price || p.OriginalPrice == 0 {
		return 0
	}
	return int((p.OriginalPrice - p.Price) * 100 / p.OriginalPrice)
}

type ProductFilter struct {
	Search          string
	CategoryID      *gocql.UUID
	BrandID         *gocql.UUID
	MinPrice        *int64
	MaxPrice        *int64
	IsFeatured      *bool
	InStock         *bool
	IncludeInactive bool
}

type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}
