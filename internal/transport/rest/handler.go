// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	producterrors "github.com/autoflex/inventory/internal/errors"
	"github.com/autoflex/inventory/internal/service"
	"github.com/autoflex/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Error category labels used in the error envelope.
const (
	categoryNotFound   = "Resource Not Found"
	categoryBadRequest = "Bad Request"
	categoryValidation = "Validation Error"
	categoryInternal   = "Internal Server Error"
)

const healthMessage = "Product service is operational"

type Handler struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewHandler creates a new instance of the product API with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product catalog.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Post("/", h.Create)

		r.Get("/search", h.SearchByName)
		r.Get("/sorted/value-desc", h.ListSortedByValueDesc)
		r.Get("/filter/value-range", h.ListByValueRange)
		r.Get("/count", h.Count)
		r.Get("/stats/total-value", h.TotalValue)
		r.Get("/health", h.HealthCheck)
		r.Get("/code/{code}", h.GetByCode)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
		})
	})
}

// ListAll retrieves a list of all products.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request to list all products")
	list, err := h.service.ListAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// GetByID retrieves a product by its ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, producterrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, categoryNotFound, fmt.Sprintf("Product not found with id: %d", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Code", found.Code)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// GetByCode retrieves a product by its business code.
func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	code := r.PathValue("code")

	mLogger.DebugContext(r.Context(), "Received request to find product by code", "code", code)
	found, err := h.service.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, producterrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "code", code)
			web.RespondError(w, mLogger, http.StatusNotFound, categoryNotFound, fmt.Sprintf("Product not found with code: %s", code))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "code", code, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// SearchByName retrieves products whose name contains the search term.
func (h *Handler) SearchByName(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	term := r.URL.Query().Get("name")

	mLogger.DebugContext(r.Context(), "Received request to search products by name", "term", term)
	list, err := h.service.SearchByName(r.Context(), term)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error searching products", "term", term, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// ListSortedByValueDesc retrieves all products ordered by value descending.
func (h *Handler) ListSortedByValueDesc(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list, err := h.service.ListSortedByValueDesc(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving sorted product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// ListByValueRange retrieves products within the inclusive value range given
// by the min and max query parameters.
func (h *Handler) ListByValueRange(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	minValue, ok := web.ParseDecimal(r, w, mLogger, "min")
	if !ok {
		return
	}
	maxValue, ok := web.ParseDecimal(r, w, mLogger, "max")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to filter products by value range", "min", minValue, "max", maxValue)
	list, err := h.service.ListByValueRange(r.Context(), minValue, maxValue)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error filtering products by value range", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var request service.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, categoryBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create product", "code", request.Code)
	created, err := h.service.Create(r.Context(), request)
	if err != nil {
		h.respondWriteError(w, r, mLogger, err, request.Code)
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Code", created.Code)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update handles the full rewrite of an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var request service.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, categoryBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	updated, err := h.service.Update(r.Context(), id, request)
	if err != nil {
		if errors.Is(err, producterrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, categoryNotFound, fmt.Sprintf("Product not found with id: %d", id))
			return
		}
		h.respondWriteError(w, r, mLogger, err, request.Code)
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Code", updated.Code)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, producterrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, categoryNotFound, fmt.Sprintf("Product not found with id: %d", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// Count returns the total number of products as a bare integer.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	count, err := h.service.Count(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error counting products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, count)
}

// TotalValue returns the sum of all product values as a bare decimal.
func (h *Handler) TotalValue(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	total, err := h.service.TotalValue(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error computing total product value", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, total)
}

// HealthCheck is a simple liveness probe.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(healthMessage))
}

// respondWriteError maps create/update failures that are not NotFound:
// validation failures and duplicate codes are 400, everything else is 500.
func (h *Handler) respondWriteError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, code string) {
	var validationErr *producterrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
		web.RespondErrorDetails(w, mLogger, http.StatusBadRequest, categoryValidation, "Validation failed", validationErr.Fields)
	case errors.Is(err, producterrors.ErrProductCodeExists):
		mLogger.WarnContext(r.Context(), "Duplicate product code", "code", code)
		web.RespondError(w, mLogger, http.StatusBadRequest, categoryBadRequest, fmt.Sprintf("Product code already exists: %s", code))
	default:
		mLogger.ErrorContext(r.Context(), "Error writing product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, categoryInternal, "An unexpected error occurred")
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
