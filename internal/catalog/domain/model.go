package domain

import (
	"time"

	"github.com/lib/pq"
)

type Category struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:text;not null;uniqueIndex:ux_categories_name"`
	Slug      string    `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_categories_slug"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	ID           int64          `json:"id" gorm:"primaryKey"`
	CategoryID   int64          `json:"category_id" gorm:"not null;index:ix_products_category"`
	Name         string         `json:"name" gorm:"type:text;not null;uniqueIndex:ux_products_name"`
	Slug         string         `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_products_slug"`
	Description  *string        `json:"description,omitempty" gorm:"type:text"`
	PriceMinor   int64          `json:"price_minor" gorm:"not null"`
	SoldByWeight bool           `json:"sold_by_weight" gorm:"not null;default:false"`
	Tags         pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	ImageURL     string         `json:"image_url,omitempty" gorm:"type:text"`
	Active       bool           `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// PricedProduct is the checkout-facing view of a product: the catalog price
// joined with its category. Checkout never reads prices from the client.
type PricedProduct struct {
	ID           int64
	Name         string
	CategoryID   int64
	CategoryName string
	PriceMinor   int64
	SoldByWeight bool
}
