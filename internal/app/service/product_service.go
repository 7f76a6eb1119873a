package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/app/specs"
	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// Paging bounds for product listings
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductService handles product use cases
type ProductService struct {
	uowFactory            domain.UnitOfWorkFactory
	tracer                trace.Tracer
	logger                *slog.Logger
	now                   func() time.Time
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	uowFactory domain.UnitOfWorkFactory,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	// Initialize metrics
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		uowFactory:            uowFactory,
		tracer:                tracer,
		logger:                logger,
		now:                   time.Now,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

func (s *ProductService) recordOperation(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// fail marks the span, logs and counts a failed operation.
func (s *ProductService) fail(ctx context.Context, span trace.Span, operation, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.logger.WarnContext(ctx, msg, slog.String("error", err.Error()))
		s.recordOperation(ctx, operation, "invalid")
		return
	}
	if errors.Is(err, domain.ErrNotDeleted) {
		s.logger.WarnContext(ctx, msg, slog.String("error", err.Error()))
		s.recordOperation(ctx, operation, "conflict")
		return
	}

	s.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
	s.recordOperation(ctx, operation, "failure")
}

// CreateProduct validates and stores a new product and returns its identifier
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (uuid.UUID, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", req.Name),
		attribute.String("product.price", req.Price.String()),
		attribute.Int("product.stock", req.Stock),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", req.Name),
		slog.String("price", req.Price.String()),
	)

	product := domain.NewProduct(req.Name, req.Price, req.Stock, s.now().UTC())
	if err := product.Validate(); err != nil {
		s.fail(ctx, span, "create", "Validation failed", err)
		return uuid.Nil, err
	}

	span.SetAttributes(attribute.String("product.id", product.GetID().String()))

	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		s.fail(ctx, span, "create", "Failed to open unit of work", err)
		return uuid.Nil, err
	}
	defer uow.Close()

	if _, err := uow.Products().Add(product); err != nil {
		s.fail(ctx, span, "create", "Failed to stage product", err)
		return uuid.Nil, err
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		s.fail(ctx, span, "create", "Failed to store product", err)
		return uuid.Nil, err
	}

	// Record metrics
	s.productCreatedCounter.Add(ctx, 1)
	s.recordOperation(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", product.GetID().String()),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return product.GetID(), nil
}

// GetProductByID retrieves a live product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (mo.Option[*dto.ProductResponse], error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	s.logger.InfoContext(ctx, "Getting product by ID",
		slog.String("product_id", id.String()),
	)

	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		s.fail(ctx, span, "read", "Failed to open unit of work", err)
		return mo.None[*dto.ProductResponse](), err
	}
	defer uow.Close()

	found, err := uow.Products().FirstOrDefault(ctx, specs.ProductByID(id))
	if err != nil {
		s.fail(ctx, span, "read", "Failed to read product", err)
		return mo.None[*dto.ProductResponse](), err
	}

	product, ok := found.Get()
	if !ok {
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id.String()),
		)
		s.recordOperation(ctx, "read", "not_found")
		return mo.None[*dto.ProductResponse](), nil
	}

	s.recordOperation(ctx, "read", "success")

	s.logger.InfoContext(ctx, "Product retrieved successfully",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return mo.Some(dto.ToProductResponse(product)), nil
}

// ListProducts retrieves one page of live products
func (s *ProductService) ListProducts(ctx context.Context, skip, take int) (*dto.ProductPage, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	skip, take = normalizePage(skip, take)
	span.SetAttributes(
		attribute.Int("page.skip", skip),
		attribute.Int("page.take", take),
	)

	s.logger.InfoContext(ctx, "Listing products",
		slog.Int("skip", skip),
		slog.Int("take", take),
	)

	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		s.fail(ctx, span, "list", "Failed to open unit of work", err)
		return nil, err
	}
	defer uow.Close()

	items, total, err := domain.ListWithTotalCountProjected[*domain.Product, *dto.ProductResponse](ctx, uow.Products(), specs.ProductsPage(skip, take), dto.ToProductResponse)
	if err != nil {
		s.fail(ctx, span, "list", "Failed to list products", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("product.count", len(items)),
		attribute.Int("product.total", total),
	)

	s.recordOperation(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(items)),
		slog.Int("total", total),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return &dto.ProductPage{Items: items, TotalCount: total, Skip: skip, Take: take}, nil
}

// UpdateProduct replaces the editable fields of a live product
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *dto.UpdateProductRequest) (mo.Option[*dto.ProductResponse], error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	s.logger.InfoContext(ctx, "Updating product",
		slog.String("product_id", id.String()),
	)

	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		s.fail(ctx, span, "update", "Failed to open unit of work", err)
		return mo.None[*dto.ProductResponse](), err
	}
	defer uow.Close()

	updated, err := domain.ExecuteTransactionResult(ctx, uow, func(ctx context.Context) (mo.Option[*domain.Product], error) {
		found, err := uow.Products().FirstOrDefault(ctx, specs.ProductByID(id, specs.Tracked()))
		if err != nil {
			return mo.None[*domain.Product](), err
		}
		product, ok := found.Get()
		if !ok {
			return mo.None[*domain.Product](), nil
		}

		product.Name = req.Name
		product.Price = req.Price
		product.Stock = req.Stock
		if err := product.Validate(); err != nil {
			return mo.None[*domain.Product](), err
		}

		if _, err := uow.Products().Update(product); err != nil {
			return mo.None[*domain.Product](), err
		}
		return mo.Some(product), nil
	})
	if err != nil {
		s.fail(ctx, span, "update", "Failed to update product", err)
		return mo.None[*dto.ProductResponse](), err
	}

	product, ok := updated.Get()
	if !ok {
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id.String()),
		)
		s.recordOperation(ctx, "update", "not_found")
		return mo.None[*dto.ProductResponse](), nil
	}

	s.recordOperation(ctx, "update", "success")

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return mo.Some(dto.ToProductResponse(product)), nil
}

// DeleteProduct soft-deletes a live product. It reports false when no live
// product has the identifier.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	s.logger.InfoContext(ctx, "Deleting product",
		slog.String("product_id", id.String()),
	)

	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		s.fail(ctx, span, "delete", "Failed to open unit of work", err)
		return false, err
	}
	defer uow.Close()

	deleted, err := domain.ExecuteTransactionResult(ctx, uow, func(ctx context.Context) (bool, error) {
		found, err := uow.Products().FirstOrDefault(ctx, specs.ProductByID(id, specs.Tracked()))
		if err != nil {
			return false, err
		}
		product, ok := found.Get()
		if !ok {
			return false, nil
		}
		if err := product.SoftDelete(); err != nil {
			return false, err
		}
		if _, err := uow.Products().Update(product); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		s.fail(ctx, span, "delete", "Failed to delete product", err)
		return false, err
	}

	if !deleted {
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id.String()),
		)
		s.recordOperation(ctx, "delete", "not_found")
		return false, nil
	}

	s.recordOperation(ctx, "delete", "success")

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return true, nil
}

// RestoreProduct brings a soft-deleted product back. Restoring a product that
// is not deleted fails with domain.ErrNotDeleted.
func (s *ProductService) RestoreProduct(ctx context.Context, id uuid.UUID) (mo.Option[*dto.ProductResponse], error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.RestoreProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id.String()))

	s.logger.InfoContext(ctx, "Restoring product",
		slog.String("product_id", id.String()),
	)

	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		s.fail(ctx, span, "restore", "Failed to open unit of work", err)
		return mo.None[*dto.ProductResponse](), err
	}
	defer uow.Close()

	restored, err := domain.ExecuteTransactionResult(ctx, uow, func(ctx context.Context) (mo.Option[*domain.Product], error) {
		found, err := uow.Products().FirstOrDefault(ctx, specs.ProductByID(id, specs.IncludeDeleted(), specs.Tracked()))
		if err != nil {
			return mo.None[*domain.Product](), err
		}
		product, ok := found.Get()
		if !ok {
			return mo.None[*domain.Product](), nil
		}
		if err := product.Restore(); err != nil {
			return mo.None[*domain.Product](), err
		}
		if _, err := uow.Products().Update(product); err != nil {
			return mo.None[*domain.Product](), err
		}
		return mo.Some(product), nil
	})
	if err != nil {
		s.fail(ctx, span, "restore", "Failed to restore product", err)
		return mo.None[*dto.ProductResponse](), err
	}

	product, ok := restored.Get()
	if !ok {
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id.String()),
		)
		s.recordOperation(ctx, "restore", "not_found")
		return mo.None[*dto.ProductResponse](), nil
	}

	s.recordOperation(ctx, "restore", "success")

	s.logger.InfoContext(ctx, "Product restored successfully",
		slog.String("product_id", id.String()),
	)

	span.SetStatus(codes.Ok, "Product restored successfully")
	return mo.Some(dto.ToProductResponse(product)), nil
}

func normalizePage(skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	switch {
	case take <= 0:
		take = DefaultPageSize
	case take > MaxPageSize:
		take = MaxPageSize
	}
	return skip, take
}
