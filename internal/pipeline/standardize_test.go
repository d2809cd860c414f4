package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dvloznov/csv-importer/internal/domain"
)

func candsWithCategories(categories ...string) []domain.CandidateTransaction {
	out := make([]domain.CandidateTransaction, len(categories))
	for i, c := range categories {
		out[i] = domain.CandidateTransaction{Description: "x", SourceCategory: c}
	}
	return out
}

func TestStandardizeCategoriesBatchesDistinctStrings(t *testing.T) {
	var requested []string
	mock := &mockClassifier{
		StandardizeCategoriesFunc: func(_ context.Context, cats []string) (map[string]string, error) {
			requested = cats
			return map[string]string{
				"Dining Out": "Food",
				"Fuel":       "Transportation",
			}, nil
		},
	}
	imp, _ := newTestImporter(mock)

	cands := candsWithCategories("Dining Out", "Fuel", "Dining Out", "")
	got := imp.standardizeCategories(context.Background(), cands)

	if mock.standardizeCategoriesCalls != 1 {
		t.Fatalf("classifier calls = %d, want 1", mock.standardizeCategoriesCalls)
	}
	if !reflect.DeepEqual(requested, []string{"Dining Out", "Fuel"}) {
		t.Errorf("requested = %v, want distinct strings only", requested)
	}

	want := map[string]domain.Category{
		"dining out": domain.CategoryFood,
		"fuel":       domain.CategoryTransportation,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("resolved = %v, want %v", got, want)
	}
}

func TestStandardizeCategoriesCacheShortCircuits(t *testing.T) {
	mock := &mockClassifier{}
	imp, _ := newTestImporter(mock)
	imp.categoryCache.Put("Dining Out", domain.CategoryFood)

	got := imp.standardizeCategories(context.Background(), candsWithCategories("Dining Out", "dining out"))

	if mock.standardizeCategoriesCalls != 0 {
		t.Errorf("classifier calls = %d, want 0 on full cache hit", mock.standardizeCategoriesCalls)
	}
	if got["dining out"] != domain.CategoryFood {
		t.Errorf("resolved[dining out] = %v, want Food", got["dining out"])
	}
}

func TestStandardizeCategoriesServiceFailure(t *testing.T) {
	mock := &mockClassifier{
		StandardizeCategoriesFunc: func(context.Context, []string) (map[string]string, error) {
			return nil, errors.New("service unavailable")
		},
	}
	imp, _ := newTestImporter(mock)

	got := imp.standardizeCategories(context.Background(), candsWithCategories("Dining Out"))
	if got["dining out"] != domain.CategoryOther {
		t.Errorf("resolved = %v, want Other fallback", got["dining out"])
	}
	// Failure results must not poison the cache.
	if imp.categoryCache.Len() != 0 {
		t.Errorf("cache size = %d, want 0 after a failed call", imp.categoryCache.Len())
	}
}

func TestStandardizeCategoriesRejectsOffTaxonomy(t *testing.T) {
	mock := &mockClassifier{
		StandardizeCategoriesFunc: func(context.Context, []string) (map[string]string, error) {
			return map[string]string{"Dining Out": "Restaurants"}, nil
		},
	}
	imp, _ := newTestImporter(mock)

	got := imp.standardizeCategories(context.Background(), candsWithCategories("Dining Out"))
	if got["dining out"] != domain.CategoryOther {
		t.Errorf("resolved = %v, want Other for an off-taxonomy value", got["dining out"])
	}
	if imp.categoryCache.Len() != 0 {
		t.Errorf("cache size = %d, want 0", imp.categoryCache.Len())
	}
}
