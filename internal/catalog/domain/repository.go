package domain

import (
	"context"

	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	CreateCategory(ctx context.Context, db *gorm.DB, category *Category) error
	FindCategoryByID(ctx context.Context, db *gorm.DB, id int64) (*Category, error)
	FindCategoryByName(ctx context.Context, db *gorm.DB, name string) (*Category, error)
	ListCategories(ctx context.Context, db *gorm.DB, filter ListCategoriesRequest) ([]Category, error)
	UpdateCategory(ctx context.Context, db *gorm.DB, category *Category) error
	CountActiveProducts(ctx context.Context, db *gorm.DB, categoryID int64) (int64, error)

	CreateProduct(ctx context.Context, db *gorm.DB, product *Product) error
	FindProductByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindProductByName(ctx context.Context, db *gorm.DB, name string) (*Product, error)
	ListProducts(ctx context.Context, db *gorm.DB, filter ListProductsFilter, page pagination.Pagination) ([]*Product, error)
	UpdateProduct(ctx context.Context, db *gorm.DB, product *Product) error

	FindPricedProduct(ctx context.Context, db *gorm.DB, id int64) (*PricedProduct, error)
}
