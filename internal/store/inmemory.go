package store

import (
	"context"
	"sync"

	"github.com/dvloznov/csv-importer/internal/domain"
)

// Memory is an in-memory implementation of TransactionStore. It is safe for
// concurrent use. Data is lost on process exit - use the BigQuery store for
// persistence.
type Memory struct {
	mu  sync.RWMutex
	txs []domain.Transaction
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Read implements TransactionStore. It returns a copy so callers cannot
// mutate the stored set.
func (s *Memory) Read(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

// Write implements TransactionStore.
func (s *Memory) Write(ctx context.Context, merged []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = make([]domain.Transaction, len(merged))
	copy(s.txs, merged)
	return nil
}

var _ TransactionStore = (*Memory)(nil)
