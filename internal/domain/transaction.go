package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CandidateTransaction is one row extracted from a CSV export, normalized
// but not yet categorized or persisted. Amount is signed: expenses are
// negative, income is positive, regardless of how the source file encoded
// the direction.
type CandidateTransaction struct {
	Date             time.Time
	Amount           decimal.Decimal
	Description      string
	CounterpartyHint string // secondary descriptive column, if the export has one
	SourceCategory   string // category string from the export, "" when absent
	SourceFile       string
}

// Transaction is a persisted, categorized transaction. Its identity for
// deduplication purposes is the (day, amount, description) tuple, not the ID;
// the ID only keys rows in durable stores.
type Transaction struct {
	ID               string
	Date             time.Time
	Amount           decimal.Decimal
	Description      string
	CounterpartyHint string
	SourceFile       string
	Category         Category
}
