package repository

import (
	"context"
	"strings"

	"github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/option"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO categories (id, name, slug, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Slug,
		category.Active,
		category.CreatedAt,
		category.UpdatedAt,
	).Error
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, active, created_at, updated_at
		 FROM categories WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindCategoryByName(ctx context.Context, db *gorm.DB, name string) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, active, created_at, updated_at
		 FROM categories WHERE LOWER(name) = LOWER(?)`,
		name,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB, filter domain.ListCategoriesRequest) ([]domain.Category, error) {
	var items []domain.Category
	stmt := db.WithContext(ctx).Model(&domain.Category{})
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	if err := stmt.Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	if category == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE categories
		 SET name = ?, slug = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		category.Name,
		category.Slug,
		category.Active,
		category.UpdatedAt,
		category.ID,
	).Error
}

func (r *repo) CountActiveProducts(ctx context.Context, db *gorm.DB, categoryID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM products WHERE category_id = ? AND active = ?`,
		categoryID,
		true,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CreateProduct(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, category_id, name, slug, description, price_minor, sold_by_weight, tags, image_url, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.PriceMinor,
		product.SoldByWeight,
		product.Tags,
		product.ImageURL,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindProductByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, category_id, name, slug, description, price_minor, sold_by_weight, tags, image_url, active, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindProductByName(ctx context.Context, db *gorm.DB, name string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, category_id, name, slug, description, price_minor, sold_by_weight, tags, image_url, active, created_at, updated_at
		 FROM products WHERE LOWER(name) = LOWER(?)`,
		name,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListProducts(ctx context.Context, db *gorm.DB, filter domain.ListProductsFilter, page pagination.Pagination) ([]*domain.Product, error) {
	var items []*domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})

	if filter.CategoryID != 0 {
		stmt = stmt.Where("category_id = ?", filter.CategoryID)
	}
	if filter.CategorySlug != "" {
		stmt = stmt.Where("category_id IN (SELECT id FROM categories WHERE slug = ?)", filter.CategorySlug)
	}
	if filter.Name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Tag != "" {
		// sqlite stores the pq array literal as text, so ANY() is postgres-only.
		if db.Dialector.Name() == "postgres" {
			stmt = stmt.Where("? = ANY(tags)", filter.Tag)
		} else {
			stmt = stmt.Where("tags LIKE ?", "%"+filter.Tag+"%")
		}
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	if filter.SoldByWeight != nil {
		stmt = stmt.Where("sold_by_weight = ?", *filter.SoldByWeight)
	}

	if strings.TrimSpace(filter.SortBy) != "" {
		stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
			"created_at": true,
			"updated_at": true,
			"name":       true,
		})).Apply(stmt)
		stmt = stmt.Limit(page.Limit() + 1)
	} else {
		stmt = option.ApplyPagination(page).Apply(stmt)
		stmt = stmt.Order("created_at desc, id desc")
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateProduct(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET category_id = ?, name = ?, slug = ?, description = ?, price_minor = ?, sold_by_weight = ?, tags = ?, image_url = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		product.CategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.PriceMinor,
		product.SoldByWeight,
		product.Tags,
		product.ImageURL,
		product.Active,
		product.UpdatedAt,
		product.ID,
	).Error
}

func (r *repo) FindPricedProduct(ctx context.Context, db *gorm.DB, id int64) (*domain.PricedProduct, error) {
	var p domain.PricedProduct
	err := db.WithContext(ctx).Raw(
		`SELECT p.id, p.name, p.category_id, c.name AS category_name, p.price_minor, p.sold_by_weight
		 FROM products p
		 JOIN categories c ON c.id = p.category_id
		 WHERE p.id = ? AND p.active = ?`,
		id,
		true,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}
