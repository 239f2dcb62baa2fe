package account

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
)

// Events receives notifications about committed account changes.
type Events interface {
	CustomerRegistered(ctx context.Context, c *customer.Customer) error
	CustomerDeleted(ctx context.Context, customerID int64) error
}

type nopEvents struct{}

func (nopEvents) CustomerRegistered(context.Context, *customer.Customer) error { return nil }
func (nopEvents) CustomerDeleted(context.Context, int64) error                 { return nil }
