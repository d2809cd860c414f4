package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/csv-importer/internal/cache"
	"github.com/dvloznov/csv-importer/internal/config"
	"github.com/dvloznov/csv-importer/internal/store"
)

// mockClassifier is a test double for the categorization service.
type mockClassifier struct {
	ClassifyColumnsFunc       func(ctx context.Context, headers []string, sampleRow []string) (map[string]string, error)
	StandardizeCategoriesFunc func(ctx context.Context, categories []string) (map[string]string, error)
	CategorizeMerchantsFunc   func(ctx context.Context, batch []MerchantQuery) (map[int]string, error)

	classifyColumnsCalls       int
	standardizeCategoriesCalls int
	categorizeMerchantsCalls   int
}

func (m *mockClassifier) ClassifyColumns(ctx context.Context, headers []string, sampleRow []string) (map[string]string, error) {
	m.classifyColumnsCalls++
	if m.ClassifyColumnsFunc == nil {
		return map[string]string{}, nil
	}
	return m.ClassifyColumnsFunc(ctx, headers, sampleRow)
}

func (m *mockClassifier) StandardizeCategories(ctx context.Context, categories []string) (map[string]string, error) {
	m.standardizeCategoriesCalls++
	if m.StandardizeCategoriesFunc == nil {
		return map[string]string{}, nil
	}
	return m.StandardizeCategoriesFunc(ctx, categories)
}

func (m *mockClassifier) CategorizeMerchants(ctx context.Context, batch []MerchantQuery) (map[int]string, error) {
	m.categorizeMerchantsCalls++
	if m.CategorizeMerchantsFunc == nil {
		return map[int]string{}, nil
	}
	return m.CategorizeMerchantsFunc(ctx, batch)
}

var _ Classifier = (*mockClassifier)(nil)

// testConfig returns policy values sized for tests.
func testConfig() *config.Config {
	return &config.Config{
		GeminiModel:          "test-model",
		CategorizeBatchSize:  10,
		MaxInflightBatches:   2,
		BatchTimeout:         time.Second,
		MerchantCacheEnabled: true,
		MerchantCacheTTL:     time.Hour,
		ContextWindow:        5,
	}
}

// newTestImporter wires an importer with fresh caches and an empty
// in-memory store.
func newTestImporter(classifier Classifier) (*Importer, *store.Memory) {
	st := store.NewMemory()
	imp := NewImporter(
		testConfig(),
		classifier,
		st,
		cache.NewCategoryMappings(),
		cache.NewMerchantCategories(time.Hour),
	)
	return imp, st
}
