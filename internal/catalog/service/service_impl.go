package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	existing, err := s.repo.FindCategoryByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		Slug:      slug.Make(name),
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCategory(ctx, s.db, category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *Service) ListCategories(ctx context.Context, req domain.ListCategoriesRequest) ([]domain.CategoryResponse, error) {
	items, err := s.repo.ListCategories(ctx, s.db, req)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.CategoryResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toCategoryResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) UpdateCategory(ctx context.Context, req domain.UpdateCategoryRequest) (*domain.CategoryResponse, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID.Int64())
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		if !strings.EqualFold(name, category.Name) {
			existing, err := s.repo.FindCategoryByName(ctx, s.db, name)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != category.ID {
				return nil, domain.ErrDuplicateName
			}
		}
		category.Name = name
		category.Slug = slug.Make(name)
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	category.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateCategory(ctx, s.db, category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *Service) DeactivateCategory(ctx context.Context, id string) (*domain.CategoryResponse, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID.Int64())
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrNotFound
	}

	inUse, err := s.repo.CountActiveProducts(ctx, s.db, category.ID)
	if err != nil {
		return nil, err
	}
	if inUse > 0 {
		return nil, domain.ErrCategoryInUse
	}

	category.Active = false
	category.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateCategory(ctx, s.db, category); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.ProductResponse, error) {
	categoryID, err := snowflake.ParseString(strings.TrimSpace(req.CategoryID))
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}
	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID.Int64())
	if err != nil {
		return nil, err
	}
	if category == nil || !category.Active {
		return nil, domain.ErrInvalidCategory
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	priceMinor := money.ToMinor(req.Price)
	if priceMinor <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	existing, err := s.repo.FindProductByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:           s.genID.Generate().Int64(),
		CategoryID:   category.ID,
		Name:         name,
		Slug:         slug.Make(name),
		Description:  descriptionPtr,
		PriceMinor:   priceMinor,
		SoldByWeight: req.SoldByWeight,
		Tags:         normalizeTags(req.Tags),
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateProduct(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	resp := toProductResponse(product, category.Name)
	return &resp, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.ProductResponse, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.repo.FindProductByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	categoryName := ""
	if category, err := s.repo.FindCategoryByID(ctx, s.db, product.CategoryID); err == nil && category != nil {
		categoryName = category.Name
	}

	resp := toProductResponse(product, categoryName)
	return &resp, nil
}

func (s *Service) ListProducts(ctx context.Context, req domain.ListProductsRequest) (*domain.ListProductsResponse, error) {
	filter := domain.ListProductsFilter{
		CategorySlug: strings.TrimSpace(req.CategorySlug),
		Name:         strings.TrimSpace(req.Name),
		Tag:          strings.TrimSpace(req.Tag),
		Active:       req.Active,
		SoldByWeight: req.SoldByWeight,
		SortBy:       strings.TrimSpace(req.SortBy),
		OrderBy:      strings.TrimSpace(req.OrderBy),
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		categoryID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidCategory
		}
		filter.CategoryID = categoryID.Int64()
	}

	items, err := s.repo.ListProducts(ctx, s.db, filter, req.Page)
	if err != nil {
		return nil, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, req.Page.Limit(), func(p *domain.Product) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(p.ID).String(),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	products := make([]domain.ProductResponse, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		products = append(products, toProductResponse(item, ""))
	}

	return &domain.ListProductsResponse{
		Products: products,
		PageInfo: *pageInfo,
	}, nil
}

func (s *Service) UpdateProduct(ctx context.Context, req domain.UpdateProductRequest) (*domain.ProductResponse, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.repo.FindProductByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	if req.CategoryID != nil {
		categoryID, err := snowflake.ParseString(strings.TrimSpace(*req.CategoryID))
		if err != nil {
			return nil, domain.ErrInvalidCategory
		}
		category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID.Int64())
		if err != nil {
			return nil, err
		}
		if category == nil || !category.Active {
			return nil, domain.ErrInvalidCategory
		}
		product.CategoryID = category.ID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		if !strings.EqualFold(name, product.Name) {
			existing, err := s.repo.FindProductByName(ctx, s.db, name)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != product.ID {
				return nil, domain.ErrDuplicateName
			}
		}
		product.Name = name
		product.Slug = slug.Make(name)
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			product.Description = nil
		} else {
			product.Description = &description
		}
	}
	if req.Price != nil {
		priceMinor := money.ToMinor(*req.Price)
		if priceMinor <= 0 {
			return nil, domain.ErrInvalidPrice
		}
		product.PriceMinor = priceMinor
	}
	if req.SoldByWeight != nil {
		product.SoldByWeight = *req.SoldByWeight
	}
	if req.Tags != nil {
		product.Tags = normalizeTags(*req.Tags)
	}
	if req.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	product.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateProduct(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	resp := toProductResponse(product, "")
	return &resp, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, id string) (*domain.ProductResponse, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.repo.FindProductByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	product.Active = false
	product.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateProduct(ctx, s.db, product); err != nil {
		return nil, err
	}

	resp := toProductResponse(product, "")
	return &resp, nil
}

func (s *Service) PricedProduct(ctx context.Context, id int64) (*domain.PricedProduct, error) {
	priced, err := s.repo.FindPricedProduct(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if priced == nil {
		return nil, domain.ErrNotFound
	}
	return priced, nil
}

func toCategoryResponse(c *domain.Category) domain.CategoryResponse {
	return domain.CategoryResponse{
		ID:        snowflake.ID(c.ID).String(),
		Name:      c.Name,
		Slug:      c.Slug,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toProductResponse(p *domain.Product, categoryName string) domain.ProductResponse {
	return domain.ProductResponse{
		ID:           snowflake.ID(p.ID).String(),
		CategoryID:   snowflake.ID(p.CategoryID).String(),
		CategoryName: categoryName,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        money.ToRupees(p.PriceMinor),
		SoldByWeight: p.SoldByWeight,
		Tags:         p.Tags,
		ImageURL:     p.ImageURL,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
