package pipeline

import (
	"context"
	"strings"

	"github.com/dvloznov/csv-importer/internal/domain"
	"github.com/dvloznov/csv-importer/internal/logger"
)

// standardizeCategories resolves every distinct source category string in
// the batch to a taxonomy value by the cheapest available means: the
// process-wide cache first, then one batched service call for the misses.
// Keys of the returned map are lowercase-normalized source strings.
//
// A total service failure degrades to Other for the unresolved strings and
// never fails the import. Failure results are not cached, so a later import
// gets another chance at the real mapping.
func (imp *Importer) standardizeCategories(ctx context.Context, cands []domain.CandidateTransaction) map[string]domain.Category {
	resolved := make(map[string]domain.Category)
	var misses []string

	for _, c := range cands {
		if c.SourceCategory == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(c.SourceCategory))
		if _, seen := resolved[key]; seen {
			continue
		}
		if cat, ok := imp.categoryCache.Get(c.SourceCategory); ok {
			resolved[key] = cat
			continue
		}
		// Placeholder so each distinct string is requested once; overwritten
		// below.
		resolved[key] = domain.CategoryOther
		misses = append(misses, c.SourceCategory)
	}

	if len(misses) == 0 {
		return resolved
	}

	log := logger.FromContext(ctx)

	callCtx, cancel := context.WithTimeout(ctx, imp.cfg.BatchTimeout)
	defer cancel()

	mapping, err := imp.classifier.StandardizeCategories(callCtx, misses)
	if err != nil {
		log.Warn().Err(err).Int("categories", len(misses)).
			Msg("category standardization failed, falling back to Other")
		return resolved
	}

	for _, source := range misses {
		key := strings.ToLower(strings.TrimSpace(source))
		raw, ok := mapping[source]
		if !ok {
			continue
		}
		cat, ok := domain.ParseCategory(raw)
		if !ok {
			log.Debug().Str("source", source).Str("returned", raw).
				Msg("standardizer returned a value outside the taxonomy")
			continue
		}
		resolved[key] = cat
		imp.categoryCache.Put(source, cat)
	}
	return resolved
}
