package order

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/db"
)

type Repository interface {
	// ListByCustomer returns the customer's orders in the order they were recorded.
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	// Record stores o unless an order with the same id exists. It reports whether a row was added.
	Record(ctx context.Context, o *Order) (bool, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, customer_id, total_amount, status, ordered_at
         FROM customer_orders WHERE customer_id = $1 ORDER BY position`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			o      Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &status, &o.OrderedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = Status(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}

func (r *repo) Record(ctx context.Context, o *Order) (bool, error) {
	if o.Status == "" {
		o.Status = StatusPending
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO customer_orders (order_id, customer_id, total_amount, status, ordered_at)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (order_id) DO NOTHING`,
		o.ID, o.CustomerID, o.TotalAmount, string(o.Status), o.OrderedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return false, ErrUnknownCustomer
		}
		return false, fmt.Errorf("insert order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *repo) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE customer_orders SET status = $1 WHERE order_id = $2`,
		string(status), orderID,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
