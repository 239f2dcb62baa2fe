package customer

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps customers in process memory. Returned values are copies.
type MemoryRepository struct {
	mu            sync.RWMutex
	customers     map[int64]*Customer
	nextID        int64
	nextAddressID int64
	now           func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		customers: make(map[int64]*Customer),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryRepository) FindByMobile(_ context.Context, mobileNo string) (*Customer, error) {
	return r.findFirst(func(c *Customer) bool { return c.MobileNo == mobileNo })
}

func (r *MemoryRepository) FindByEmail(_ context.Context, emailID string) (*Customer, error) {
	return r.findFirst(func(c *Customer) bool { return c.EmailID == emailID })
}

func (r *MemoryRepository) FindByMobileOrEmail(_ context.Context, mobileNo, emailID string) (*Customer, error) {
	return r.findFirst(func(c *Customer) bool { return c.MobileNo == mobileNo || c.EmailID == emailID })
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Customer, 0, len(r.customers))
	for _, id := range r.sortedIDs() {
		out = append(out, *r.customers[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) findFirst(match func(*Customer) bool) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.sortedIDs() {
		if c := r.customers[id]; match(c) {
			return c.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.customers))
	for id := range r.customers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *MemoryRepository) Save(_ context.Context, c *Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.save(c)
	return err
}

// save stores a copy of c and returns it. r.mu must be held.
func (r *MemoryRepository) save(c *Customer) (*Customer, error) {
	for id, other := range r.customers {
		if id != c.ID && (other.MobileNo == c.MobileNo || other.EmailID == c.EmailID) {
			return nil, ErrDuplicate
		}
	}

	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
		c.CreatedOn = r.now()
		c.Cart = Cart{ID: c.ID, CustomerID: c.ID, CreatedAt: c.CreatedOn}
	} else if _, ok := r.customers[c.ID]; !ok {
		return nil, ErrNotFound
	}

	for i := range c.Addresses {
		if c.Addresses[i].ID == nil {
			r.nextAddressID++
			id := r.nextAddressID
			c.Addresses[i].ID = &id
		}
	}
	if c.Addresses == nil {
		c.Addresses = []Address{}
	}

	stored := c.Clone()
	stored.Orders = nil
	r.customers[c.ID] = stored
	return stored, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customers[id]; !ok {
		return ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

// MemoryTx is a view of a MemoryRepository that remembers the prior value of
// every customer it writes, so Rollback can undo those writes and nothing else.
// Ids handed out inside a rolled back transaction are not reused.
type MemoryTx struct {
	*MemoryRepository
	undo map[int64]customerUndo
}

type customerUndo struct {
	prior   *Customer // nil when the id was absent
	written *Customer // nil when the customer was deleted
}

func (r *MemoryRepository) Begin() *MemoryTx {
	return &MemoryTx{MemoryRepository: r, undo: make(map[int64]customerUndo)}
}

func (t *MemoryTx) record(id int64, prior, written *Customer) {
	if e, ok := t.undo[id]; ok {
		e.written = written
		t.undo[id] = e
		return
	}
	t.undo[id] = customerUndo{prior: prior, written: written}
}

func (t *MemoryTx) Save(_ context.Context, c *Customer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	prior := t.customers[c.ID]
	stored, err := t.save(c)
	if err != nil {
		return err
	}
	t.record(c.ID, prior, stored)
	return nil
}

func (t *MemoryTx) Delete(_ context.Context, id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	prior, ok := t.customers[id]
	if !ok {
		return ErrNotFound
	}
	t.record(id, prior, nil)
	delete(t.customers, id)
	return nil
}

// Rollback restores the customers this transaction wrote. A customer another
// writer changed in the meantime keeps that writer's value.
func (t *MemoryTx) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, e := range t.undo {
		if cur := t.customers[id]; cur != e.written {
			continue
		}
		if e.prior == nil {
			delete(t.customers, id)
		} else {
			t.customers[id] = e.prior
		}
	}
	t.undo = make(map[int64]customerUndo)
}
