package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
)

type createCategoryRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

type updateCategoryRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreateCategory(c.Request.Context(), catalogdomain.CreateCategoryRequest{
		Name:   strings.TrimSpace(req.Name),
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCategories(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.catalogSvc.ListCategories(c.Request.Context(), catalogdomain.ListCategoriesRequest{
		Active: active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCategory(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.UpdateCategory(c.Request.Context(), catalogdomain.UpdateCategoryRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Name:   req.Name,
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateCategory(c *gin.Context) {
	resp, err := s.catalogSvc.DeactivateCategory(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createProductRequest struct {
	CategoryID   string   `json:"category_id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Price        float64  `json:"price"`
	SoldByWeight bool     `json:"sold_by_weight"`
	Tags         []string `json:"tags"`
	ImageURL     string   `json:"image_url"`
	Active       *bool    `json:"active"`
}

type updateProductRequest struct {
	CategoryID   *string   `json:"category_id"`
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Price        *float64  `json:"price"`
	SoldByWeight *bool     `json:"sold_by_weight"`
	Tags         *[]string `json:"tags"`
	ImageURL     *string   `json:"image_url"`
	Active       *bool     `json:"active"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreateProduct(c.Request.Context(), catalogdomain.CreateProductRequest{
		CategoryID:   strings.TrimSpace(req.CategoryID),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price,
		SoldByWeight: req.SoldByWeight,
		Tags:         req.Tags,
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Active:       req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListProducts(c *gin.Context) {
	var query struct {
		CategoryID   string `form:"category_id"`
		Category     string `form:"category"`
		Name         string `form:"name"`
		Tag          string `form:"tag"`
		Active       string `form:"active"`
		SoldByWeight string `form:"sold_by_weight"`
		SortBy       string `form:"sort_by"`
		OrderBy      string `form:"order_by"`
		Page         pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}
	soldByWeight, err := parseOptionalBool(query.SoldByWeight)
	if err != nil {
		AbortWithError(c, newValidationError("sold_by_weight", "invalid_sold_by_weight", "invalid sold_by_weight"))
		return
	}

	resp, err := s.catalogSvc.ListProducts(c.Request.Context(), catalogdomain.ListProductsRequest{
		CategoryID:   strings.TrimSpace(query.CategoryID),
		CategorySlug: strings.TrimSpace(query.Category),
		Name:         strings.TrimSpace(query.Name),
		Tag:          strings.TrimSpace(query.Tag),
		Active:       active,
		SoldByWeight: soldByWeight,
		SortBy:       strings.TrimSpace(query.SortBy),
		OrderBy:      strings.TrimSpace(query.OrderBy),
		Page:         query.Page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductByID(c *gin.Context) {
	resp, err := s.catalogSvc.GetProduct(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.UpdateProduct(c.Request.Context(), catalogdomain.UpdateProductRequest{
		ID:           strings.TrimSpace(c.Param("id")),
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		SoldByWeight: req.SoldByWeight,
		Tags:         req.Tags,
		ImageURL:     req.ImageURL,
		Active:       req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateProduct(c *gin.Context) {
	resp, err := s.catalogSvc.DeactivateProduct(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
