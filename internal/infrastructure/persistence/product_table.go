package persistence

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

const productsTable = "products"

// ProductTable maps domain.Product onto the products table.
func ProductTable() Table[*domain.Product] {
	return Table[*domain.Product]{
		Name: productsTable,
		Columns: []string{
			domain.ProductFieldID.Name(),
			domain.ProductFieldName.Name(),
			domain.ProductFieldPrice.Name(),
			domain.ProductFieldStock.Name(),
			domain.ProductFieldIsDeleted.Name(),
			domain.ProductFieldCreateDate.Name(),
			domain.ProductFieldCreatedBy.Name(),
			domain.ProductFieldUpdateDate.Name(),
			domain.ProductFieldUpdateBy.Name(),
		},
		Scan:   scanProduct,
		Values: productValues,
	}
}

func scanProduct(s Scanner) (*domain.Product, error) {
	var (
		id         uuid.UUID
		name       string
		price      decimal.Decimal
		stock      int
		audit      domain.AuditState
		createdBy  sql.NullString
		updateDate sql.NullTime
		updateBy   sql.NullString
	)
	if err := s.Scan(&id, &name, &price, &stock, &audit.IsDeleted, &audit.CreateDate, &createdBy, &updateDate, &updateBy); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		audit.CreatedBy = &createdBy.String
	}
	if updateDate.Valid {
		at := updateDate.Time.UTC()
		audit.UpdateDate = &at
	}
	if updateBy.Valid {
		audit.UpdateBy = &updateBy.String
	}
	audit.CreateDate = audit.CreateDate.UTC()
	return domain.RestoreProduct(id, name, price, stock, audit), nil
}

func productValues(p *domain.Product) []any {
	audit := p.AuditState()
	return []any{
		p.GetID(),
		p.Name,
		p.Price,
		p.Stock,
		audit.IsDeleted,
		audit.CreateDate,
		nullString(audit.CreatedBy),
		nullTime(audit.UpdateDate),
		nullString(audit.UpdateBy),
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
