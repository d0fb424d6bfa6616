package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/repository"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) catalogdomain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&catalogdomain.Category{}, &catalogdomain.Product{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func mustCreateCategory(t *testing.T, svc catalogdomain.Service, name string) *catalogdomain.CategoryResponse {
	t.Helper()
	category, err := svc.CreateCategory(context.Background(), catalogdomain.CreateCategoryRequest{Name: name})
	if err != nil {
		t.Fatalf("failed to create category %q: %v", name, err)
	}
	return category
}

func TestCreateCategorySlugAndDuplicate(t *testing.T) {
	svc := newTestService(t)

	category := mustCreateCategory(t, svc, "  Birthday Cakes ")
	if category.Name != "Birthday Cakes" {
		t.Fatalf("expected trimmed name, got %q", category.Name)
	}
	if category.Slug != "birthday-cakes" {
		t.Fatalf("expected slug birthday-cakes, got %q", category.Slug)
	}

	_, err := svc.CreateCategory(context.Background(), catalogdomain.CreateCategoryRequest{Name: "birthday cakes"})
	if err != catalogdomain.ErrDuplicateName {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestDeactivateCategoryInUse(t *testing.T) {
	svc := newTestService(t)

	category := mustCreateCategory(t, svc, "Cakes")
	_, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: category.ID,
		Name:       "Chocolate Cake",
		Price:      500,
	})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	_, err = svc.DeactivateCategory(context.Background(), category.ID)
	if err != catalogdomain.ErrCategoryInUse {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
}

func TestDeactivateCategoryAfterProductsRetired(t *testing.T) {
	svc := newTestService(t)

	category := mustCreateCategory(t, svc, "Seasonal")
	product, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: category.ID,
		Name:       "Mango Cake",
		Price:      650,
	})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	if _, err := svc.DeactivateProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("failed to deactivate product: %v", err)
	}

	deactivated, err := svc.DeactivateCategory(context.Background(), category.ID)
	if err != nil {
		t.Fatalf("expected category deactivation to succeed, got %v", err)
	}
	if deactivated.Active {
		t.Fatal("expected category inactive")
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)
	category := mustCreateCategory(t, svc, "Cakes")

	_, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: category.ID,
		Name:       "   ",
		Price:      100,
	})
	if err != catalogdomain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	_, err = svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: category.ID,
		Name:       "Free Cake",
		Price:      0,
	})
	if err != catalogdomain.ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	_, err = svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: "not-an-id",
		Name:       "Plum Cake",
		Price:      450,
	})
	if err != catalogdomain.ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestCreateProductNormalizesTags(t *testing.T) {
	svc := newTestService(t)
	category := mustCreateCategory(t, svc, "Cakes")

	product, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: category.ID,
		Name:       "Red Velvet",
		Price:      750,
		Tags:       []string{" Premium ", "premium", "", "EGGLESS"},
	})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if len(product.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", product.Tags)
	}
	if product.Tags[0] != "premium" || product.Tags[1] != "eggless" {
		t.Fatalf("unexpected tags: %v", product.Tags)
	}
}

func TestPricedProductSkipsInactive(t *testing.T) {
	svc := newTestService(t)
	category := mustCreateCategory(t, svc, "Cakes")

	product, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID:   category.ID,
		Name:         "Chocolate Cake",
		Price:        500,
		SoldByWeight: false,
	})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	productID, err := snowflake.ParseString(product.ID)
	if err != nil {
		t.Fatalf("failed to parse product id: %v", err)
	}

	priced, err := svc.PricedProduct(context.Background(), productID.Int64())
	if err != nil {
		t.Fatalf("expected priced product, got %v", err)
	}
	if priced.PriceMinor != 50000 {
		t.Fatalf("expected 50000 paise, got %d", priced.PriceMinor)
	}
	if priced.CategoryName != "Cakes" {
		t.Fatalf("expected category name Cakes, got %q", priced.CategoryName)
	}

	if _, err := svc.DeactivateProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("failed to deactivate product: %v", err)
	}

	_, err = svc.PricedProduct(context.Background(), productID.Int64())
	if err != catalogdomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for inactive product, got %v", err)
	}
}

func TestUpdateProductRenameReslugs(t *testing.T) {
	svc := newTestService(t)
	category := mustCreateCategory(t, svc, "Cakes")

	product, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: category.ID,
		Name:       "Plain Cake",
		Price:      300,
	})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	name := "Vanilla Sponge Cake"
	updated, err := svc.UpdateProduct(context.Background(), catalogdomain.UpdateProductRequest{
		ID:   product.ID,
		Name: &name,
	})
	if err != nil {
		t.Fatalf("failed to update product: %v", err)
	}
	if updated.Slug != "vanilla-sponge-cake" {
		t.Fatalf("expected re-slugged product, got %q", updated.Slug)
	}
}

func TestListProductsFilters(t *testing.T) {
	svc := newTestService(t)
	cakes := mustCreateCategory(t, svc, "Cakes")
	snacks := mustCreateCategory(t, svc, "Snacks")

	if _, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: cakes.ID,
		Name:       "Chocolate Cake",
		Price:      500,
	}); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if _, err := svc.CreateProduct(context.Background(), catalogdomain.CreateProductRequest{
		CategoryID: snacks.ID,
		Name:       "Cookie Jar",
		Price:      200,
	}); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	resp, err := svc.ListProducts(context.Background(), catalogdomain.ListProductsRequest{
		CategoryID: cakes.ID,
	})
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(resp.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(resp.Products))
	}
	if resp.Products[0].Name != "Chocolate Cake" {
		t.Fatalf("unexpected product: %s", resp.Products[0].Name)
	}
	if resp.HasMore {
		t.Fatal("expected no further pages")
	}

	byName, err := svc.ListProducts(context.Background(), catalogdomain.ListProductsRequest{
		Name: "cookie",
	})
	if err != nil {
		t.Fatalf("failed to list products by name: %v", err)
	}
	if len(byName.Products) != 1 || byName.Products[0].Name != "Cookie Jar" {
		t.Fatalf("expected Cookie Jar, got %+v", byName.Products)
	}
}
