// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	perrors "github.com/autoflex/inventory/internal/errors"
	"github.com/autoflex/inventory/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func init() {
	// Monetary values are serialized as bare JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// ListAll returns every product in storage-native order.
	ListAll(ctx context.Context) ([]ProductResponse, error)

	// GetByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetByID(ctx context.Context, id int64) (*ProductResponse, error)

	// GetByCode retrieves a single product by its unique business code.
	// Returns ErrProductNotFound if no product has that exact code.
	GetByCode(ctx context.Context, code string) (*ProductResponse, error)

	// SearchByName returns products whose name contains the term, case-insensitively.
	// An empty term matches all products.
	SearchByName(ctx context.Context, term string) ([]ProductResponse, error)

	// ListSortedByValueDesc returns all products ordered by value descending.
	ListSortedByValueDesc(ctx context.Context) ([]ProductResponse, error)

	// ListByValueRange returns products within the inclusive [minValue, maxValue]
	// range. The bounds are passed through to storage unvalidated; an inverted
	// range yields an empty result.
	ListByValueRange(ctx context.Context, minValue, maxValue decimal.Decimal) ([]ProductResponse, error)

	// Create validates the request, enforces code uniqueness and persists a new
	// product. Returns a ValidationError on constraint violations and
	// ErrProductCodeExists when the code is already taken.
	Create(ctx context.Context, request ProductRequest) (*ProductResponse, error)

	// Update validates the request and rewrites all editable fields of the
	// product with the given ID, refreshing its updated timestamp. Code
	// uniqueness is re-checked only when the code actually changes.
	// Returns ErrProductNotFound or ErrProductCodeExists accordingly.
	Update(ctx context.Context, id int64, request ProductRequest) (*ProductResponse, error)

	// Delete removes the product with the given ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a product with the given ID exists, without raising.
	Exists(ctx context.Context, id int64) (bool, error)

	// Count returns the total number of live products.
	Count(ctx context.Context) (int64, error)

	// TotalValue returns the exact decimal sum of all product values,
	// zero when no products exist.
	TotalValue(ctx context.Context) (decimal.Decimal, error)
}

// ProductRequest represents the externally supplied fields for create and update.
// The value bound mirrors the NUMERIC(10,2) storage column.
type ProductRequest struct {
	Code  string          `json:"code"  validate:"required,min=3,max=50"`
	Name  string          `json:"name"  validate:"required,min=3,max=100"`
	Value decimal.Decimal `json:"value" validate:"required,gt=0,lte=99999999.99"`
}

// ProductResponse represents a product shaped for external consumption.
type ProductResponse struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Value     decimal.Decimal `json:"value"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	validate   *validator.Validate
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore) *Service {
	return &Service{
		repository: repo,
		validate:   newValidator(),
	}
}

// newValidator builds a validator that treats decimal.Decimal fields as
// float64 so numeric rules (gt, required) apply to monetary values.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// ListAll retrieves all products and returns them as responses.
func (s *Service) ListAll(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toResponseList(products), nil
}

// GetByID retrieves a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*ProductResponse, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toResponse(product), nil
}

// GetByCode retrieves a product by its business code.
// Returns ErrProductNotFound if no product has that exact code.
func (s *Service) GetByCode(ctx context.Context, code string) (*ProductResponse, error) {
	product, err := s.repository.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by code %s: %w", code, err)
	}
	return toResponse(product), nil
}

// SearchByName retrieves products matching the term case-insensitively.
// The term is passed through as-is; an empty term matches all products.
func (s *Service) SearchByName(ctx context.Context, term string) ([]ProductResponse, error) {
	products, err := s.repository.FindByNameContaining(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search products by name: %w", err)
	}
	return toResponseList(products), nil
}

// ListSortedByValueDesc retrieves all products ordered by value descending.
func (s *Service) ListSortedByValueDesc(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.repository.FindAllOrderByValueDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products sorted by value: %w", err)
	}
	return toResponseList(products), nil
}

// ListByValueRange retrieves products within the inclusive value range.
// The bounds are not validated against each other; an inverted range simply
// yields an empty result from storage.
func (s *Service) ListByValueRange(ctx context.Context, minValue, maxValue decimal.Decimal) ([]ProductResponse, error) {
	products, err := s.repository.FindByValueRange(ctx, minValue, maxValue)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products by value range: %w", err)
	}
	return toResponseList(products), nil
}

// Create validates the request and persists a new product.
func (s *Service) Create(ctx context.Context, request ProductRequest) (*ProductResponse, error) {
	if err := s.validateRequest(request); err != nil {
		return nil, err
	}
	value, err := normalizeValue(request.Value)
	if err != nil {
		return nil, err
	}
	product, err := s.repository.Create(ctx, request.Code, request.Name, value)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toResponse(product), nil
}

// Update validates the request and rewrites all three editable fields of the
// product, regardless of which ones changed.
func (s *Service) Update(ctx context.Context, id int64, request ProductRequest) (*ProductResponse, error) {
	if err := s.validateRequest(request); err != nil {
		return nil, err
	}
	value, err := normalizeValue(request.Value)
	if err != nil {
		return nil, err
	}
	product, err := s.repository.Update(ctx, id, request.Code, request.Name, value)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	return toResponse(product), nil
}

// Delete removes a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repository.DeleteByID(ctx, id)
}

// Exists reports whether a product with the given ID exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return true, nil
}

// Count returns the total number of live products.
func (s *Service) Count(ctx context.Context) (int64, error) {
	count, err := s.repository.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// TotalValue sums the values of all live products with exact decimal
// arithmetic. Returns decimal zero when no products exist.
func (s *Service) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch products: %w", err)
	}
	total := decimal.Zero
	for _, product := range products {
		total = total.Add(product.Value)
	}
	return total, nil
}

// validateRequest applies the field constraints programmatically and converts
// failures into a ValidationError carrying a per-field detail map.
func (s *Service) validateRequest(request ProductRequest) error {
	err := s.validate.Struct(request)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			// fieldErr.Tag() returns "required", "min", "max", "gt".
			fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		return &perrors.ValidationError{Fields: fields}
	}
	return fmt.Errorf("failed to validate product request: %w", err)
}

// normalizeValue rounds a monetary value to the stored 2-decimal scale.
// A value that collapses to zero under rounding (e.g. 0.004) would violate
// the positive-value rule at the database, so it is rejected here as a
// validation failure rather than surfacing as a storage error.
func normalizeValue(value decimal.Decimal) (decimal.Decimal, error) {
	rounded := value.Round(2)
	if !rounded.IsPositive() {
		return decimal.Decimal{}, &perrors.ValidationError{Fields: map[string]string{
			"Value": "failed on rule: gt",
		}}
	}
	return rounded, nil
}

// toResponse converts a store.Product to a ProductResponse.
func toResponse(product *store.Product) *ProductResponse {
	return &ProductResponse{
		ID:        product.ID,
		Code:      product.Code,
		Name:      product.Name,
		Value:     product.Value,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

func toResponseList(products []store.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, item := range products {
		responses[i] = *toResponse(&item)
	}
	return responses
}
