package pipeline

import (
	"context"

	"github.com/shopspring/decimal"
)

// Classifier is the external categorization service consumed by the
// pipeline. All three calls are request/response, may fail or time out, and
// are never trusted to return values outside the literal inputs or the
// taxonomy - callers validate every response before it touches state.
// This interface enables mocking the service in tests.
type Classifier interface {
	// ClassifyColumns maps semantic role names (date, merchant, amount,
	// debit, credit, category) to header strings. Values must be taken
	// verbatim from headers; roles the service cannot place are omitted.
	ClassifyColumns(ctx context.Context, headers []string, sampleRow []string) (map[string]string, error)

	// StandardizeCategories maps each input category string onto the
	// taxonomy. Keys of the result are the input strings.
	StandardizeCategories(ctx context.Context, categories []string) (map[string]string, error)

	// CategorizeMerchants assigns a taxonomy category to each query,
	// keyed by the query's index in the batch.
	CategorizeMerchants(ctx context.Context, batch []MerchantQuery) (map[int]string, error)
}

// MerchantQuery is one item in a merchant categorization batch.
type MerchantQuery struct {
	Signature string
	Amount    decimal.Decimal

	// Recent holds recently resolved "merchant -> category" pairs supplied
	// as disambiguating context.
	Recent []string
}

// ProgressSink receives stage transitions and categorization progress.
// It is a notification interface only; nothing the sink does can alter
// pipeline behavior.
type ProgressSink interface {
	StageChanged(sourceFile string, stage Stage)
	CategorizeProgress(sourceFile string, done, total, fallbacks int)
}

// nopSink is the default sink when the caller does not install one.
type nopSink struct{}

func (nopSink) StageChanged(string, Stage)               {}
func (nopSink) CategorizeProgress(string, int, int, int) {}
