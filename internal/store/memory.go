package store

import (
	"context"
	"sync"

	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/customer-service-go/internal/session"
)

// Memory runs units of work one at a time against in-process repositories.
// Writes land in the shared repositories as they happen, so readers outside a
// unit of work may observe them before it finishes. A failed unit rolls back
// only the keys it wrote, leaving concurrent logins, logouts and sweeps intact.
type Memory struct {
	mu        sync.Mutex
	customers *customer.MemoryRepository
	sessions  *session.MemoryRepository
}

func NewMemory(customers *customer.MemoryRepository, sessions *session.MemoryRepository) *Memory {
	return &Memory{customers: customers, sessions: sessions}
}

func (m *Memory) Read() Stores {
	return Stores{Customers: m.customers, Sessions: m.sessions}
}

func (m *Memory) Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	customers := m.customers.Begin()
	sessions := m.sessions.Begin()
	defer func() {
		if r := recover(); r != nil {
			customers.Rollback()
			sessions.Rollback()
			panic(r)
		}
		if err != nil {
			customers.Rollback()
			sessions.Rollback()
		}
	}()

	return fn(ctx, Stores{Customers: customers, Sessions: sessions})
}
