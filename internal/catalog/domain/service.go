package domain

import (
	"context"
	"errors"
	"time"

	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
)

type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error)
	ListCategories(ctx context.Context, req ListCategoriesRequest) ([]CategoryResponse, error)
	UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (*CategoryResponse, error)
	DeactivateCategory(ctx context.Context, id string) (*CategoryResponse, error)

	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)
	ListProducts(ctx context.Context, req ListProductsRequest) (*ListProductsResponse, error)
	UpdateProduct(ctx context.Context, req UpdateProductRequest) (*ProductResponse, error)
	DeactivateProduct(ctx context.Context, id string) (*ProductResponse, error)

	// PricedProduct resolves an active product for checkout re-pricing.
	PricedProduct(ctx context.Context, id int64) (*PricedProduct, error)
}

type CreateCategoryRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

type UpdateCategoryRequest struct {
	ID     string  `json:"-"`
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

type ListCategoriesRequest struct {
	Active *bool
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	CategoryID   string   `json:"category_id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Price        float64  `json:"price"`
	SoldByWeight bool     `json:"sold_by_weight"`
	Tags         []string `json:"tags"`
	ImageURL     string   `json:"image_url"`
	Active       *bool    `json:"active"`
}

type UpdateProductRequest struct {
	ID           string    `json:"-"`
	CategoryID   *string   `json:"category_id"`
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Price        *float64  `json:"price"`
	SoldByWeight *bool     `json:"sold_by_weight"`
	Tags         *[]string `json:"tags"`
	ImageURL     *string   `json:"image_url"`
	Active       *bool     `json:"active"`
}

type ListProductsRequest struct {
	CategoryID   string
	CategorySlug string
	Name         string
	Tag          string
	Active       *bool
	SoldByWeight *bool
	SortBy       string
	OrderBy      string
	Page         pagination.Pagination
}

// ListProductsFilter is the repository-level filter with parsed identifiers.
type ListProductsFilter struct {
	CategoryID   int64
	CategorySlug string
	Name         string
	Tag          string
	Active       *bool
	SoldByWeight *bool
	SortBy       string
	OrderBy      string
}

type ProductResponse struct {
	ID           string    `json:"id"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	Price        float64   `json:"price"`
	SoldByWeight bool      `json:"sold_by_weight"`
	Tags         []string  `json:"tags,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
	pagination.PageInfo
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrDuplicateName   = errors.New("duplicate_name")
	ErrCategoryInUse   = errors.New("category_in_use")
)
