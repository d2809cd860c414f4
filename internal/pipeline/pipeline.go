// Package pipeline converts heterogeneous bank CSV exports into a
// deduplicated, categorized transaction set. Stages run strictly forward:
// tokenize, detect columns, extract rows, standardize source categories,
// categorize uncategorized merchants, merge into the store.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dvloznov/csv-importer/internal/cache"
	"github.com/dvloznov/csv-importer/internal/config"
	"github.com/dvloznov/csv-importer/internal/domain"
	"github.com/dvloznov/csv-importer/internal/logger"
	"github.com/dvloznov/csv-importer/internal/store"
)

// Importer orchestrates CSV imports. It owns no persistent state beyond the
// injected caches; the transaction store owns persisted transactions.
// Safe for concurrent use: earlier stages of concurrent imports overlap,
// merges serialize on mergeMu.
type Importer struct {
	cfg        *config.Config
	classifier Classifier
	store      store.TransactionStore

	categoryCache *cache.CategoryMappings
	merchantCache *cache.MerchantCategories

	sink ProgressSink

	// mergeMu makes read-merge-write one logical transaction against the
	// store. Held for the merge step only, never for the whole pipeline.
	mergeMu sync.Mutex

	recentMu sync.Mutex
	recent   []string
}

// NewImporter wires an importer. Caches are injected so tests and callers
// control their lifetime; pass freshly constructed ones for a cold start.
func NewImporter(cfg *config.Config, classifier Classifier, st store.TransactionStore, catCache *cache.CategoryMappings, merchCache *cache.MerchantCategories) *Importer {
	return &Importer{
		cfg:           cfg,
		classifier:    classifier,
		store:         st,
		categoryCache: catCache,
		merchantCache: merchCache,
		sink:          nopSink{},
	}
}

// SetProgressSink installs a progress sink. Must be called before imports
// start.
func (imp *Importer) SetProgressSink(s ProgressSink) {
	if s != nil {
		imp.sink = s
	}
}

// ImportFile runs the whole pipeline for one file. Only file-fatal
// conditions (empty file, unmappable columns) and cancellation return an
// error; row problems and service failures degrade into result counts.
//
// Cancellation is honored between stages. Once merging has begun the merge
// always completes, so the store is never left partially merged.
func (imp *Importer) ImportFile(ctx context.Context, rawText, sourceFile string) (*ImportResult, error) {
	log := logger.FromContext(ctx).With().Str("source_file", sourceFile).Logger()
	ctx = logger.WithContext(ctx, log)

	result := &ImportResult{
		SourceFile:  sourceFile,
		State:       StageIdle,
		SkipReasons: make(map[string]int),
	}

	// 1. Tokenize.
	imp.setStage(result, StageTokenizing)
	table, err := Tokenize(rawText)
	if err != nil {
		return imp.fail(result, ReasonEmptyFile, err)
	}
	if err := imp.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	// 2. Detect columns.
	imp.setStage(result, StageDetectingColumns)
	mapping, err := imp.detectColumns(ctx, table)
	if err != nil {
		return imp.fail(result, ReasonUnmappableColumns, err)
	}
	if err := imp.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	// 3. Extract rows. Row failures are counted, never fatal.
	imp.setStage(result, StageExtracting)
	result.RowsSeen = len(table.Rows)
	cands := extractRows(mapping, table, sourceFile, result)
	if err := imp.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	// 4. Standardize source-provided categories.
	imp.setStage(result, StageStandardizing)
	sourceCats := imp.standardizeCategories(ctx, cands)
	if err := imp.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	// 5. Categorize everything the source left uncategorized.
	imp.setStage(result, StageCategorizing)
	cats := make([]domain.Category, len(cands))
	var need []int
	for i, c := range cands {
		if c.SourceCategory != "" {
			key := strings.ToLower(strings.TrimSpace(c.SourceCategory))
			cats[i] = sourceCats[key]
			result.CategorizedFromSource++
			continue
		}
		need = append(need, i)
	}
	imp.categorizeMerchants(ctx, cands, need, cats, result)
	if err := imp.checkCancelled(ctx, result); err != nil {
		return result, err
	}

	// 6. Merge. Atomic once started; serialized across imports.
	imp.setStage(result, StageMerging)
	imp.mergeMu.Lock()
	err = imp.merge(ctx, cands, cats, result)
	imp.mergeMu.Unlock()
	if err != nil {
		return result, err
	}

	imp.setStage(result, StageDone)
	log.Info().
		Int("rows_seen", result.RowsSeen).
		Int("rows_skipped", result.RowsSkipped).
		Int("added", result.TransactionsAdded).
		Int("duplicates", result.DuplicatesRejected).
		Msg("import complete")
	return result, nil
}

// merge performs read-merge-write under mergeMu. Uses context.Background
// deliberately: a merge that has started must complete.
func (imp *Importer) merge(_ context.Context, cands []domain.CandidateTransaction, cats []domain.Category, result *ImportResult) error {
	ctx := context.Background()

	existing, err := imp.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("merge: reading store: %w", err)
	}
	merged := mergeTransactions(existing, cands, cats, result)
	if err := imp.store.Write(ctx, merged); err != nil {
		return fmt.Errorf("merge: writing store: %w", err)
	}
	return nil
}

func (imp *Importer) setStage(result *ImportResult, s Stage) {
	result.State = s
	imp.sink.StageChanged(result.SourceFile, s)
}

func (imp *Importer) fail(result *ImportResult, reason string, err error) (*ImportResult, error) {
	result.State = StageFailed
	result.FailureReason = reason
	imp.sink.StageChanged(result.SourceFile, StageFailed)
	return result, err
}

func (imp *Importer) checkCancelled(ctx context.Context, result *ImportResult) error {
	if err := ctx.Err(); err != nil {
		result.State = StageFailed
		result.FailureReason = "cancelled"
		return err
	}
	return nil
}
