package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps sessions in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]Session)}
}

func (r *MemoryRepository) FindByToken(_ context.Context, token string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) FindByUserID(_ context.Context, userID int64, role Role) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.UserID == userID && s.Role == role {
			return &s, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (r *MemoryRepository) Save(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, existing := range r.sessions {
		if existing.UserID == s.UserID && existing.Role == s.Role {
			delete(r.sessions, token)
		}
	}
	r.sessions[s.Token] = *s
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, token)
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

// MemoryTx is a view of a MemoryRepository that remembers the prior value of
// every token it writes, so Rollback can undo those writes and nothing else.
type MemoryTx struct {
	*MemoryRepository
	undo map[string]sessionUndo
}

type sessionUndo struct {
	prior   *Session // nil when the token was absent
	written *Session // nil when the token was deleted
}

func (r *MemoryRepository) Begin() *MemoryTx {
	return &MemoryTx{MemoryRepository: r, undo: make(map[string]sessionUndo)}
}

// record must be called with r.mu held, before the write to token.
func (t *MemoryTx) record(token string, written *Session) {
	if e, ok := t.undo[token]; ok {
		e.written = written
		t.undo[token] = e
		return
	}
	var prior *Session
	if s, ok := t.sessions[token]; ok {
		prior = &s
	}
	t.undo[token] = sessionUndo{prior: prior, written: written}
}

func (t *MemoryTx) Save(_ context.Context, s *Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for token, existing := range t.sessions {
		if token != s.Token && existing.UserID == s.UserID && existing.Role == s.Role {
			t.record(token, nil)
			delete(t.sessions, token)
		}
	}
	stored := *s
	t.record(s.Token, &stored)
	t.sessions[s.Token] = stored
	return nil
}

func (t *MemoryTx) Delete(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	t.record(token, nil)
	delete(t.sessions, token)
	return nil
}

func (t *MemoryTx) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for token, s := range t.sessions {
		if s.Expired(now) {
			t.record(token, nil)
			delete(t.sessions, token)
			n++
		}
	}
	return n, nil
}

// Rollback restores the tokens this transaction wrote. A token another writer
// changed in the meantime keeps that writer's value.
func (t *MemoryTx) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for token, e := range t.undo {
		cur, ok := t.sessions[token]
		if e.written == nil && ok || e.written != nil && (!ok || cur != *e.written) {
			continue
		}
		if e.prior == nil {
			delete(t.sessions, token)
		} else {
			t.sessions[token] = *e.prior
		}
	}
	t.undo = make(map[string]sessionUndo)
}
