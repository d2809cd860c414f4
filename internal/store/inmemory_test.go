package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/csv-importer/internal/domain"
)

func TestMemory_ReadAfterWrite(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	initial, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read on empty store failed: %v", err)
	}
	if len(initial) != 0 {
		t.Fatalf("expected empty store, got %d transactions", len(initial))
	}

	txs := []domain.Transaction{
		{
			ID:          "tx-1",
			Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.RequireFromString("-4.50"),
			Description: "Coffee Shop",
			Category:    domain.CategoryFood,
		},
	}
	if err := s.Write(ctx, txs); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "tx-1" {
		t.Fatalf("Read returned %+v, want the written transaction", got)
	}
}

func TestMemory_ReadReturnsCopy(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Write(ctx, []domain.Transaction{{ID: "tx-1", Description: "original"}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	first, _ := s.Read(ctx)
	first[0].Description = "mutated"

	second, _ := s.Read(ctx)
	if second[0].Description != "original" {
		t.Error("mutating a Read result must not affect the store")
	}
}
