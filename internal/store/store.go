// Package store provides the transaction store consumed and produced by the
// import pipeline. The pipeline only requires read-after-write consistency
// for a single caller; serialization of concurrent merges is handled above
// this interface.
package store

import (
	"context"

	"github.com/dvloznov/csv-importer/internal/domain"
)

// TransactionStore exposes the persisted transaction set.
type TransactionStore interface {
	// Read returns all stored transactions.
	Read(ctx context.Context) ([]domain.Transaction, error)

	// Write replaces the stored set with the merged result of an import.
	Write(ctx context.Context, merged []domain.Transaction) error
}
