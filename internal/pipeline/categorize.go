package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/dvloznov/csv-importer/internal/domain"
	"github.com/dvloznov/csv-importer/internal/logger"
)

// noisePrefixes are generic processor prefixes stripped when forming a
// merchant signature. Order matters: longer variants first.
var noisePrefixes = []string{
	"debit card purchase",
	"pos purchase",
	"pos debit",
	"card purchase",
	"purchase at",
	"online payment to",
	"payment to",
	"ach debit",
	"ach credit",
	"checkcard",
	"tst*",
	"sq *",
}

// merchantSignature normalizes a description (plus optional counterparty
// hint) into the cache key used for categorization: lowercased, noise
// prefixes stripped, long digit runs (card fragments, reference numbers)
// removed, whitespace collapsed.
func merchantSignature(description, hint string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	if s == "" {
		s = strings.ToLower(strings.TrimSpace(hint))
	}

	for _, p := range noisePrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}

	s = stripDigitRuns(s, 4)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		// Better an ugly key than an empty one shared by everything.
		s = strings.ToLower(strings.TrimSpace(description + hint))
	}
	return s
}

// stripDigitRuns removes runs of minRun or more consecutive digits.
func stripDigitRuns(s string, minRun int) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !unicode.IsDigit(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsDigit(runes[j]) {
			j++
		}
		if j-i < minRun {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

// categorizeMerchants assigns a category to every candidate index in need,
// writing into cats (indexed like cands). Cache hits are served directly;
// the rest are grouped into fixed-size batches sent to the classifier with
// bounded concurrency. A failed batch falls back to the keyword table, then
// Other, so every transaction leaves this stage categorized no matter what
// the service does.
func (imp *Importer) categorizeMerchants(ctx context.Context, cands []domain.CandidateTransaction, need []int, cats []domain.Category, result *ImportResult) {
	log := logger.FromContext(ctx)
	total := len(need)
	if total == 0 {
		return
	}

	var mu sync.Mutex // guards cats, result counts, done/fallbacks
	done := 0
	fallbacks := 0

	var pending []int
	for _, i := range need {
		sig := merchantSignature(cands[i].Description, cands[i].CounterpartyHint)
		if imp.cfg.MerchantCacheEnabled {
			if cat, ok := imp.merchantCache.Get(sig); ok {
				cats[i] = cat
				result.CategorizedFromCache++
				done++
				continue
			}
		}
		pending = append(pending, i)
	}
	imp.sink.CategorizeProgress(result.SourceFile, done, total, fallbacks)
	if len(pending) == 0 {
		return
	}

	// Bounded fan-out: at most MaxInflightBatches service calls at once.
	sem := make(chan struct{}, imp.cfg.MaxInflightBatches)
	var wg sync.WaitGroup

	for start := 0; start < len(pending); start += imp.cfg.CategorizeBatchSize {
		end := start + imp.cfg.CategorizeBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		wg.Add(1)
		sem <- struct{}{}
		go func(batch []int) {
			defer wg.Done()
			defer func() { <-sem }()

			assigned, usedFallback := imp.categorizeBatch(ctx, cands, batch)

			mu.Lock()
			for j, i := range batch {
				cats[i] = assigned[j].category
				switch {
				case assigned[j].fromAI:
					result.CategorizedByAI++
				case assigned[j].fromKeyword:
					result.CategorizedByKeyword++
				default:
					result.CategorizedAsFallback++
				}
			}
			done += len(batch)
			if usedFallback {
				fallbacks += len(batch)
			}
			d, f := done, fallbacks
			mu.Unlock()

			imp.sink.CategorizeProgress(result.SourceFile, d, total, f)
		}(batch)
	}
	wg.Wait()

	log.Debug().Int("total", total).Int("fallbacks", fallbacks).
		Msg("merchant categorization complete")
}

type merchantAssignment struct {
	category    domain.Category
	fromAI      bool
	fromKeyword bool
}

// categorizeBatch issues one classifier call for a batch of candidate
// indexes and resolves every item, via the keyword fallback when the call
// fails, times out, or returns an unusable value for an item.
func (imp *Importer) categorizeBatch(ctx context.Context, cands []domain.CandidateTransaction, batch []int) ([]merchantAssignment, bool) {
	log := logger.FromContext(ctx)

	queries := make([]MerchantQuery, len(batch))
	recent := imp.recentPairs()
	for j, i := range batch {
		queries[j] = MerchantQuery{
			Signature: merchantSignature(cands[i].Description, cands[i].CounterpartyHint),
			Amount:    cands[i].Amount,
			Recent:    recent,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, imp.cfg.BatchTimeout)
	defer cancel()

	resp, err := imp.classifier.CategorizeMerchants(callCtx, queries)
	if err != nil {
		log.Warn().Err(err).Int("batch", len(batch)).
			Msg("merchant categorization call failed, using keyword fallback")
		resp = nil
	}

	out := make([]merchantAssignment, len(batch))
	usedFallback := err != nil
	for j := range batch {
		sig := queries[j].Signature

		if raw, ok := resp[j]; ok {
			if cat, valid := domain.ParseCategory(raw); valid {
				out[j] = merchantAssignment{category: cat, fromAI: true}
				imp.rememberPair(sig, cat)
				imp.cacheMerchant(sig, cat)
				continue
			}
		}

		// Deterministic fallback; Other when nothing matches. Fallback
		// results are cached too so a flapping service is not re-asked
		// within the TTL.
		usedFallback = true
		if cat, ok := domain.KeywordCategory(sig); ok {
			out[j] = merchantAssignment{category: cat, fromKeyword: true}
			imp.cacheMerchant(sig, cat)
			continue
		}
		out[j] = merchantAssignment{category: domain.CategoryOther}
		imp.cacheMerchant(sig, domain.CategoryOther)
	}
	return out, usedFallback
}

func (imp *Importer) cacheMerchant(sig string, cat domain.Category) {
	if imp.cfg.MerchantCacheEnabled {
		imp.merchantCache.Put(sig, cat)
	}
}

// recentPairs snapshots the rolling window of resolved merchant/category
// pairs supplied as prompt context.
func (imp *Importer) recentPairs() []string {
	imp.recentMu.Lock()
	defer imp.recentMu.Unlock()

	out := make([]string, len(imp.recent))
	copy(out, imp.recent)
	return out
}

func (imp *Importer) rememberPair(sig string, cat domain.Category) {
	if imp.cfg.ContextWindow == 0 {
		return
	}

	imp.recentMu.Lock()
	defer imp.recentMu.Unlock()

	imp.recent = append(imp.recent, fmt.Sprintf("%s -> %s", sig, cat))
	if len(imp.recent) > imp.cfg.ContextWindow {
		imp.recent = imp.recent[len(imp.recent)-imp.cfg.ContextWindow:]
	}
}
