package pipeline

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/csv-importer/internal/domain"
)

// duplicateEpsilon absorbs per-bank rounding differences when comparing
// amounts.
var duplicateEpsilon = decimal.RequireFromString("0.005")

// isDuplicate reports whether two transactions describe the same real-world
// event: dates under one calendar day apart, amounts within epsilon, and
// descriptions exactly equal.
//
// This is intentionally loose and cheap. It can merge two genuinely
// identical same-day purchases; that trade is deliberate, because a missed
// duplicate is a visible double entry the user can remove, while an
// over-eager match silently loses data.
func isDuplicate(a domain.Transaction, b domain.CandidateTransaction) bool {
	diff := a.Date.Sub(b.Date)
	if diff < 0 {
		diff = -diff
	}
	if diff >= 24*time.Hour {
		return false
	}
	if a.Amount.Sub(b.Amount).Abs().GreaterThanOrEqual(duplicateEpsilon) {
		return false
	}
	return a.Description == b.Description
}

// mergeTransactions folds a categorized batch into the existing set,
// rejecting near-duplicates against both the store and earlier rows of the
// same batch. The merged set comes back sorted by date descending - a
// presentation contract downstream consumers rely on.
func mergeTransactions(existing []domain.Transaction, cands []domain.CandidateTransaction, cats []domain.Category, result *ImportResult) []domain.Transaction {
	merged := make([]domain.Transaction, len(existing))
	copy(merged, existing)

	for i, c := range cands {
		dup := false
		for j := range merged {
			if isDuplicate(merged[j], c) {
				dup = true
				break
			}
		}
		if dup {
			result.DuplicatesRejected++
			continue
		}
		merged = append(merged, domain.Transaction{
			ID:               uuid.NewString(),
			Date:             c.Date,
			Amount:           c.Amount,
			Description:      c.Description,
			CounterpartyHint: c.CounterpartyHint,
			SourceFile:       c.SourceFile,
			Category:         cats[i],
		})
		result.TransactionsAdded++
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}
