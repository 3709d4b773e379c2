package store

import (
	"context"
	"database/sql"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

// orderRow scans an order joined with its product, so the read path always
// hands the coordinator a resolved product reference rather than a bare id.
type orderRow struct {
	ID           string    `db:"id"`
	ProductID    string    `db:"product_id"`
	Quantity     int       `db:"quantity"`
	EmailID      string    `db:"email_id"`
	DeliveryDate time.Time `db:"delivery_date"`
	Status       string    `db:"status"`
	OrderDate    time.Time `db:"order_date"`

	Product models.Product `db:"product"`
}

func (r *orderRow) toOrder() *models.Order {
	product := r.Product
	return &models.Order{
		ID:           r.ID,
		ProductID:    r.ProductID,
		Quantity:     r.Quantity,
		EmailID:      r.EmailID,
		DeliveryDate: r.DeliveryDate,
		Status:       r.Status,
		OrderDate:    r.OrderDate,
		Product:      &product,
	}
}

const orderJoinColumns = `
	o.id, o.product_id, o.quantity, o.email_id, o.delivery_date, o.status, o.order_date,
	p.id AS "product.id", p.name AS "product.name", p.price AS "product.price",
	p.stock AS "product.stock", p.category AS "product.category", p.created_at AS "product.created_at"`

// CreateOrder inserts a new order within a transaction. The row is created
// Confirmed with the order date assigned by the database at insert time.
func (s *Store) CreateOrder(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (product_id, quantity, email_id, delivery_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_date`

	return tx.QueryRowxContext(ctx, query,
		order.ProductID, order.Quantity, order.EmailID, order.DeliveryDate, order.Status,
	).Scan(&order.ID, &order.OrderDate)
}

// GetOrderByID retrieves an order with its product resolved.
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	return getOrder(ctx, s.db, id, "")
}

// GetOrderByIDTx retrieves an order with its product resolved, locking the
// order row for the remainder of the transaction so a concurrent cancel of
// the same order serializes behind this one.
func (s *Store) GetOrderByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Order, error) {
	return getOrder(ctx, tx, id, " FOR UPDATE OF o")
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, id, locking string) (*models.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, q, &row, `
		SELECT`+orderJoinColumns+`
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.id = $1`+locking, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toOrder(), nil
}

// UpdateOrderStatus updates an order's status within a transaction.
func (s *Store) UpdateOrderStatus(ctx context.Context, tx *sqlx.Tx, orderID, status string) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// orderSortColumns is the allow-list for order listing.
var orderSortColumns = map[string]string{
	"orderDate":    "o.order_date",
	"emailId":      "o.email_id",
	"deliveryDate": "o.delivery_date",
	"status":       "o.status",
	"quantity":     "o.quantity",
}

// ListOrders retrieves all orders with products resolved, sorted by an
// allow-listed field. Default is most recent order date first.
func (s *Store) ListOrders(ctx context.Context, opts models.OrderQueryOptions) ([]models.Order, error) {
	query := `
		SELECT` + orderJoinColumns + `
		FROM orders o
		JOIN products p ON p.id = o.product_id
		ORDER BY ` + orderByClause(orderSortColumns, opts.Sort, opts.Order, "orderDate", "desc")

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].toOrder())
	}
	return orders, nil
}
