package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when a product or order does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStockConflict is returned when a conditional stock adjustment would
	// take the counter below zero.
	ErrStockConflict = errors.New("stock conflict")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// WithinTx runs fn inside a single transaction: commit if fn returns nil,
// full rollback otherwise. The *sqlx.Tx handle is the transactional scope
// that binds order writes and stock adjustments into one unit of work.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetProductByID retrieves a product by ID.
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return getProduct(ctx, s.db, id)
}

// GetProductByIDTx retrieves a product within a transaction.
func (s *Store) GetProductByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Product, error) {
	return getProduct(ctx, tx, id)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Product, error) {
	var product models.Product
	err := sqlx.GetContext(ctx, q, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// productSortColumns is the allow-list for catalog sorting.
var productSortColumns = map[string]string{
	"name":  "name",
	"price": "price",
	"stock": "stock",
}

// ListProducts retrieves products with optional category/price filters and
// allow-listed sorting. Unknown sort fields fall back to name ascending.
func (s *Store) ListProducts(ctx context.Context, opts models.ProductQueryOptions) ([]models.Product, error) {
	var (
		clauses []string
		args    []interface{}
	)

	if opts.Category != "" {
		args = append(args, opts.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if opts.PriceGTE != nil {
		args = append(args, *opts.PriceGTE)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if opts.PriceLTE != nil {
		args = append(args, *opts.PriceLTE)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}

	query := "SELECT * FROM products"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY " + orderByClause(productSortColumns, opts.Sort, opts.Order, "name", "asc")

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

// AdjustStock applies a signed delta to a product's stock inside the given
// transaction. The update is conditional: it never takes stock below zero, so
// two concurrent decrements on the same product cannot oversell. Returns the
// product with its new stock value.
func (s *Store) AdjustStock(ctx context.Context, tx *sqlx.Tx, productID string, delta int) (*models.Product, error) {
	var product models.Product
	err := tx.GetContext(ctx, &product, `
		UPDATE products SET stock = stock + $1
		WHERE id = $2 AND stock + $1 >= 0
		RETURNING *`, delta, productID)
	if err == sql.ErrNoRows {
		// Distinguish a missing product from a floor violation.
		var exists bool
		if checkErr := tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", productID); checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrStockConflict
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// orderByClause builds a safe ORDER BY from an allow-list.
func orderByClause(allowed map[string]string, sortField, sortOrder, defaultField, defaultOrder string) string {
	column, ok := allowed[sortField]
	if !ok {
		column = allowed[defaultField]
		sortOrder = defaultOrder
	}
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}
	return column + " " + direction
}
