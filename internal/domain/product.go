package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrops-br/product-catalog-api/internal/domain/specification"
)

var (
	ErrInvalidProductName  = errors.New("product name is required")
	ErrInvalidProductPrice = errors.New("product price must not be negative")
	ErrInvalidProductStock = errors.New("product stock must not be negative")
)

// Product columns usable in specifications
var (
	ProductFieldID         = specification.NewField[*Product]("id")
	ProductFieldName       = specification.NewField[*Product]("name")
	ProductFieldPrice      = specification.NewField[*Product]("price")
	ProductFieldStock      = specification.NewField[*Product]("stock")
	ProductFieldIsDeleted  = specification.NewField[*Product]("is_deleted")
	ProductFieldCreateDate = specification.NewField[*Product]("create_date")
	ProductFieldCreatedBy  = specification.NewField[*Product]("created_by")
	ProductFieldUpdateDate = specification.NewField[*Product]("update_date")
	ProductFieldUpdateBy   = specification.NewField[*Product]("update_by")
)

// Product represents the product entity
type Product struct {
	AuditEntity
	Name  string
	Price decimal.Decimal
	Stock int
}

// NewProduct creates a new product created at the given time
func NewProduct(name string, price decimal.Decimal, stock int, createdAt time.Time) *Product {
	return &Product{
		AuditEntity: NewAuditEntity(createdAt),
		Name:        name,
		Price:       price,
		Stock:       stock,
	}
}

// RestoreProduct rebuilds a stored product
func RestoreProduct(id uuid.UUID, name string, price decimal.Decimal, stock int, audit AuditState) *Product {
	return &Product{
		AuditEntity: RestoreAuditEntity(id, audit),
		Name:        name,
		Price:       price,
		Stock:       stock,
	}
}

// Validate performs business validation on the product
func (p *Product) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		verr.add("name", ErrInvalidProductName)
	}
	if p.Price.IsNegative() {
		verr.add("price", ErrInvalidProductPrice)
	}
	if p.Stock < 0 {
		verr.add("stock", ErrInvalidProductStock)
	}
	if len(verr.causes) == 0 {
		return nil
	}
	return verr
}

// ValidationError collects field level validation failures.
type ValidationError struct {
	Fields map[string][]string
	causes []error
}

func (e *ValidationError) add(field string, cause error) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], cause.Error())
	e.causes = append(e.causes, cause)
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual sentinel errors to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return e.causes
}
