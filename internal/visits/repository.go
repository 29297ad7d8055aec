// Package visits counts unique site visitors and reports the running total.
package visits

import (
	"context"
	"strings"
	"sync"
)

// Repository persists named monotonically increasing counters.
type Repository interface {
	// Increment adds one to counterID, creating it at zero first, and returns the new value.
	Increment(ctx context.Context, counterID string) (int64, error)
	// Total returns the current value; a counter that was never incremented reads as zero.
	Total(ctx context.Context, counterID string) (int64, error)
}

func validCounterID(op, counterID string) (string, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return "", NewCounterError(op, CounterErrorInvalidInput, "counter id is required", nil)
	}
	return id, nil
}

// MemoryRepository keeps counters in process memory. Values are lost on restart.
type MemoryRepository struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{counters: make(map[string]int64)}
}

func (r *MemoryRepository) Increment(ctx context.Context, counterID string) (int64, error) {
	id, err := validCounterID("visits.memory.increment", counterID)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[id]++
	return r.counters[id], nil
}

func (r *MemoryRepository) Total(ctx context.Context, counterID string) (int64, error) {
	id, err := validCounterID("visits.memory.total", counterID)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[id], nil
}
