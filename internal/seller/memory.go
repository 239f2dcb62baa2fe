package seller

import (
	"context"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	sellers map[int64]Seller
	nextID  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sellers: make(map[int64]Seller)}
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sellers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) FindByMobile(_ context.Context, mobileNo string) (*Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sellers {
		if s.MobileNo == mobileNo {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) Create(_ context.Context, s *Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.sellers {
		if other.MobileNo == s.MobileNo || other.EmailID == s.EmailID {
			return ErrDuplicate
		}
	}
	r.nextID++
	s.ID = r.nextID
	s.CreatedOn = time.Now().UTC()
	r.sellers[s.ID] = *s
	return nil
}
