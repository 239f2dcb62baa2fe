package order

import (
	"context"
	"sync"
)

// MemoryRepository keeps order references in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders []Order
	byID   map[string]int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]int)}
}

func (r *MemoryRepository) ListByCustomer(_ context.Context, customerID int64) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Record(_ context.Context, o *Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[o.ID]; ok {
		return false, nil
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	r.byID[o.ID] = len(r.orders)
	r.orders = append(r.orders, *o)
	return true, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, orderID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.byID[orderID]; ok {
		r.orders[i].Status = status
	}
	return nil
}
