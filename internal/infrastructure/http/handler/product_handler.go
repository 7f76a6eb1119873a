package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/response"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the product endpoints
func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateProduct)
	r.Get("/", h.ListProducts)
	r.Get("/{id}", h.GetProduct)
	r.Put("/{id}", h.UpdateProduct)
	r.Delete("/{id}", h.DeleteProduct)
	r.Post("/{id}/restore", h.RestoreProduct)
}

// CreateProduct handles POST /api/product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, id, "Product created successfully")
}

// GetProduct handles GET /api/product/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	found, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	product, ok := found.Get()
	if !ok {
		response.Error(w, http.StatusNotFound, domain.ErrProductNotFound)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/product?skip=&take=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	skip, err := intQuery(r, "skip", 0)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	take, err := intQuery(r, "take", service.DefaultPageSize)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	page, err := h.service.ListProducts(r.Context(), skip, take)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, page, "")
}

// UpdateProduct handles PUT /api/product/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	product, ok := updated.Get()
	if !ok {
		response.Error(w, http.StatusNotFound, domain.ErrProductNotFound)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/product/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !deleted {
		response.Error(w, http.StatusNotFound, domain.ErrProductNotFound)
		return
	}

	response.OK(w, id, "Product deleted successfully")
}

// RestoreProduct handles POST /api/product/{id}/restore
func (h *ProductHandler) RestoreProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	restored, err := h.service.RestoreProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	product, ok := restored.Get()
	if !ok {
		response.Error(w, http.StatusNotFound, domain.ErrProductNotFound)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid product ID",
			slog.String("product_id", raw),
		)
		response.Fail(w, http.StatusBadRequest, "Invalid product ID", map[string][]string{
			"id": {fmt.Sprintf("%q is not a valid identifier", raw)},
		})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Fail(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}

func (h *ProductHandler) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		response.Fail(w, http.StatusBadRequest, "Validation failed", verr.Fields)
		return
	}
	if errors.Is(err, domain.ErrNotDeleted) {
		response.Error(w, http.StatusConflict, err)
		return
	}
	response.Error(w, http.StatusInternalServerError, err)
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", name)
	}
	return v, nil
}
