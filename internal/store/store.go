package store

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
)

// Stores groups the repositories that take part in a unit of work.
type Stores struct {
	Customers customer.Repository
	Sessions  session.Repository
}

// UnitOfWork runs fn against stores that commit together. If fn returns an
// error nothing it wrote is kept.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
	// Read returns stores for queries outside a unit of work.
	Read() Stores
}
