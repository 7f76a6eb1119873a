package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

func init() {
	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// UpdateProductRequest replaces the editable fields of a product
type UpdateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	IsDeleted  bool            `json:"isDeleted"`
	CreateDate time.Time       `json:"createDate"`
	CreatedBy  *string         `json:"createdBy"`
	UpdateDate *time.Time      `json:"updateDate"`
	UpdateBy   *string         `json:"updateBy"`
}

// ProductPage is one page of products with the unpaged total
type ProductPage struct {
	Items      []*ProductResponse `json:"items"`
	TotalCount int                `json:"totalCount"`
	Skip       int                `json:"skip"`
	Take       int                `json:"take"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:         p.GetID(),
		Name:       p.Name,
		Price:      p.Price,
		Stock:      p.Stock,
		IsDeleted:  p.IsDeleted(),
		CreateDate: p.CreateDate(),
		CreatedBy:  p.CreatedBy(),
		UpdateDate: p.UpdateDate(),
		UpdateBy:   p.UpdateBy(),
	}
}
