package checkout

import (
	"context"
	"fmt"
)

type counterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	CounterKey(name string) string
}

// OrderSequencer mints monotonically increasing order ids per calendar year,
// formatted ORDER-<year>-<nnnnn>.
type OrderSequencer struct {
	store counterStore
}

// NewOrderSequencer builds a sequencer on the shared redis client.
func NewOrderSequencer(store counterStore) (*OrderSequencer, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store required")
	}
	return &OrderSequencer{store: store}, nil
}

// Next returns the next order id for the year.
func (s *OrderSequencer) Next(ctx context.Context, year int) (string, error) {
	key := s.store.CounterKey(fmt.Sprintf("orders:%d", year))
	seq, err := s.store.Incr(ctx, key)
	if err != nil {
		return "", fmt.Errorf("increment order sequence: %w", err)
	}
	return fmt.Sprintf("ORDER-%d-%05d", year, seq), nil
}
