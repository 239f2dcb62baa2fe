// Package dedup keeps per-partition sequence checkpoints so consumers can
// drop redelivered or out-of-order events.
package dedup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// Repository manages consumer-side deduplication checkpoints.
type Repository interface {
	// LastSequence returns the checkpoint of (consumerName, partitionKey) and
	// whether one exists.
	LastSequence(ctx context.Context, consumerName, partitionKey string) (int64, bool, error)
	// Advance moves the checkpoint of (consumerName, partitionKey) to seq and
	// reports true, or reports false when seq is not newer than the checkpoint.
	Advance(ctx context.Context, consumerName, partitionKey string, seq int64) (bool, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) LastSequence(ctx context.Context, consumerName, partitionKey string) (int64, bool, error) {
	var last int64
	err := r.db.QueryRowContext(ctx, `
		SELECT last_sequence
		FROM event_dedup_checkpoint
		WHERE consumer_name = $1 AND partition_key = $2
	`, consumerName, partitionKey).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get last sequence: %w", err)
	}
	return last, true, nil
}

func (r *repo) Advance(ctx context.Context, consumerName, partitionKey string, seq int64) (bool, error) {
	var last int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO event_dedup_checkpoint (consumer_name, partition_key, last_sequence, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (consumer_name, partition_key)
		DO UPDATE SET last_sequence = EXCLUDED.last_sequence, updated_at = NOW()
		WHERE event_dedup_checkpoint.last_sequence < EXCLUDED.last_sequence
		RETURNING last_sequence
	`, consumerName, partitionKey, seq).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("advance checkpoint: %w", err)
	}
	return true, nil
}

type checkpointKey struct {
	consumer  string
	partition string
}

type MemoryRepository struct {
	mu   sync.Mutex
	last map[checkpointKey]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{last: make(map[checkpointKey]int64)}
}

func (m *MemoryRepository) LastSequence(_ context.Context, consumerName, partitionKey string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.last[checkpointKey{consumerName, partitionKey}]
	return last, ok, nil
}

func (m *MemoryRepository) Advance(_ context.Context, consumerName, partitionKey string, seq int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := checkpointKey{consumerName, partitionKey}
	if last, ok := m.last[key]; ok && last >= seq {
		return false, nil
	}
	m.last[key] = seq
	return true, nil
}
