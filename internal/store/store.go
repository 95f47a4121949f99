// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the persisted product record. The identifier and both timestamps
// are assigned by the database and never taken from external input.
type Product struct {
	ID        int64
	Code      string
	Name      string
	Value     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindAll returns all available products in storage-native order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByCode retrieves a single product by its unique business code.
	// Returns ErrProductNotFound if no product exists with the given code.
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindByNameContaining returns products whose name contains the given term,
	// matched case-insensitively. An empty term matches all products.
	FindByNameContaining(ctx context.Context, name string) ([]Product, error)

	// FindByValueRange returns products whose value lies within the inclusive
	// [minValue, maxValue] range. An inverted range yields an empty slice.
	FindByValueRange(ctx context.Context, minValue, maxValue decimal.Decimal) ([]Product, error)

	// FindAllOrderByValueDesc returns all products ordered by value descending.
	FindAllOrderByValueDesc(ctx context.Context) ([]Product, error)

	// ExistsByCode reports whether any product owns the given code.
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// ExistsByCodeAndIDNot reports whether a product other than the one with
	// the given ID owns the given code.
	ExistsByCodeAndIDNot(ctx context.Context, code string, id int64) (bool, error)

	// Create adds a new product to the system. The uniqueness check and the
	// insert run in one transaction.
	// Returns ErrProductCodeExists if the code is already taken.
	Create(ctx context.Context, code, name string, value decimal.Decimal) (*Product, error)

	// Update rewrites the code, name and value of an existing product and
	// refreshes its updated_at timestamp. The uniqueness re-check (performed
	// only when the code changes) and the write run in one transaction.
	// Returns ErrProductNotFound if no product exists with the given ID and
	// ErrProductCodeExists if another product owns the new code.
	Update(ctx context.Context, id int64, code, name string, value decimal.Decimal) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// Count returns the total number of live products.
	Count(ctx context.Context) (int64, error)
}
