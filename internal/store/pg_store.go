package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/autoflex/inventory/internal/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const productColumns = "id, code, name, value, created_at, updated_at"

const (
	findByIDSQL      = "SELECT " + productColumns + " FROM product WHERE id = $1"
	findAllSQL       = "SELECT " + productColumns + " FROM product"
	findByCodeSQL    = "SELECT " + productColumns + " FROM product WHERE code = $1"
	findByNameSQL    = "SELECT " + productColumns + " FROM product WHERE name ILIKE '%' || $1 || '%'"
	findByRangeSQL   = "SELECT " + productColumns + " FROM product WHERE value BETWEEN $1 AND $2"
	findByValueSQL   = "SELECT " + productColumns + " FROM product ORDER BY value DESC"
	existsByCodeSQL  = "SELECT EXISTS (SELECT 1 FROM product WHERE code = $1)"
	existsByOtherSQL = "SELECT EXISTS (SELECT 1 FROM product WHERE code = $1 AND id <> $2)"
	lockByIDSQL      = "SELECT " + productColumns + " FROM product WHERE id = $1 FOR UPDATE"
	insertSQL        = "INSERT INTO product (code, name, value) VALUES ($1, $2, $3) RETURNING " + productColumns
	updateSQL        = "UPDATE product SET code = $2, name = $3, value = $4, updated_at = now() WHERE id = $1 RETURNING " + productColumns
	deleteSQL        = "DELETE FROM product WHERE id = $1"
	countSQL         = "SELECT count(*) FROM product"
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
	}
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, findByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindAll retrieves all available products in storage-native order.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	products, err := p.queryProducts(ctx, findAllSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindByCode retrieves a product by its unique business code.
// Returns ErrProductNotFound if no product exists with the given code.
func (p *PgStore) FindByCode(ctx context.Context, code string) (*Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, findByCodeSQL, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by code: %w", err)
	}
	return product, nil
}

// FindByNameContaining retrieves products whose name contains the given term, case-insensitively.
func (p *PgStore) FindByNameContaining(ctx context.Context, name string) ([]Product, error) {
	products, err := p.queryProducts(ctx, findByNameSQL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// FindByValueRange retrieves products whose value lies within the inclusive range.
func (p *PgStore) FindByValueRange(ctx context.Context, minValue, maxValue decimal.Decimal) ([]Product, error) {
	products, err := p.queryProducts(ctx, findByRangeSQL, minValue, maxValue)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by value range: %w", err)
	}
	return products, nil
}

// FindAllOrderByValueDesc retrieves all products ordered by value descending.
func (p *PgStore) FindAllOrderByValueDesc(ctx context.Context) ([]Product, error) {
	products, err := p.queryProducts(ctx, findByValueSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to find products ordered by value: %w", err)
	}
	return products, nil
}

// ExistsByCode reports whether any product owns the given code.
func (p *PgStore) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := p.db.QueryRow(ctx, existsByCodeSQL, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product code: %w", err)
	}
	return exists, nil
}

// ExistsByCodeAndIDNot reports whether a product other than the given one owns the code.
func (p *PgStore) ExistsByCodeAndIDNot(ctx context.Context, code string, id int64) (bool, error) {
	var exists bool
	if err := p.db.QueryRow(ctx, existsByOtherSQL, code, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product code: %w", err)
	}
	return exists, nil
}

// Create adds a new product to the system. The code uniqueness check and the
// insert run inside a single transaction; the unique constraint on the code
// column backstops writers racing past the check.
func (p *PgStore) Create(ctx context.Context, code, name string, value decimal.Decimal) (*Product, error) {
	var created *Product

	txErr := p.withTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, existsByCodeSQL, code).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product code: %w", err)
		}
		if exists {
			return perrors.ErrProductCodeExists
		}

		product, err := scanProduct(tx.QueryRow(ctx, insertSQL, code, name, value))
		if err != nil {
			if isUniqueViolation(err) {
				return perrors.ErrProductCodeExists
			}
			return fmt.Errorf("failed to create product: %w", err)
		}
		created = product
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}

// Update rewrites all editable fields of an existing product in one transaction.
// The current row is locked first; the code uniqueness re-check runs only when
// the incoming code differs from the stored one.
func (p *PgStore) Update(ctx context.Context, id int64, code, name string, value decimal.Decimal) (*Product, error) {
	var updated *Product

	txErr := p.withTx(ctx, func(tx pgx.Tx) error {
		current, err := scanProduct(tx.QueryRow(ctx, lockByIDSQL, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return perrors.ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product for update: %w", err)
		}

		if current.Code != code {
			var exists bool
			if err := tx.QueryRow(ctx, existsByOtherSQL, code, id).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check product code: %w", err)
			}
			if exists {
				return perrors.ErrProductCodeExists
			}
		}

		product, err := scanProduct(tx.QueryRow(ctx, updateSQL, id, code, name, value))
		if err != nil {
			if isUniqueViolation(err) {
				return perrors.ErrProductCodeExists
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated = product
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// DeleteByID removes a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// Count returns the total number of live products.
func (p *PgStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := p.db.QueryRow(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// queryProducts runs a query returning product rows and collects them.
func (p *PgStore) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.Code, &product.Name, &product.Value, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// withTx runs fn inside a transaction, rolling back on error.
func (p *PgStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var product Product
	if err := row.Scan(&product.ID, &product.Code, &product.Name, &product.Value, &product.CreatedAt, &product.UpdatedAt); err != nil {
		return nil, err
	}
	return &product, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
