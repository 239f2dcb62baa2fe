package order

import (
	"errors"
	"time"
)

var ErrUnknownCustomer = errors.New("order references unknown customer")

// Order is the customer-facing reference to an order placed through the order service.
type Order struct {
	ID          string    `json:"orderId"`
	CustomerID  int64     `json:"customerId"`
	TotalAmount float64   `json:"totalAmount"`
	Status      Status    `json:"status"`
	OrderedAt   time.Time `json:"orderedAt"`
}
