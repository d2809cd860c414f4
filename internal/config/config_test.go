package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("GeminiModel = %q, want gemini-2.5-flash", cfg.GeminiModel)
	}
	if cfg.CategorizeBatchSize != 20 {
		t.Errorf("CategorizeBatchSize = %d, want 20", cfg.CategorizeBatchSize)
	}
	if cfg.MaxInflightBatches != 2 {
		t.Errorf("MaxInflightBatches = %d, want 2", cfg.MaxInflightBatches)
	}
	if cfg.BatchTimeout != 30*time.Second {
		t.Errorf("BatchTimeout = %s, want 30s", cfg.BatchTimeout)
	}
	if !cfg.MerchantCacheEnabled {
		t.Error("MerchantCacheEnabled should default to true")
	}
	if cfg.MerchantCacheTTL != 24*time.Hour {
		t.Errorf("MerchantCacheTTL = %s, want 24h", cfg.MerchantCacheTTL)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CSVIMP_CATEGORIZE_BATCH_SIZE", "50")
	t.Setenv("CSVIMP_BATCH_TIMEOUT", "5s")
	t.Setenv("CSVIMP_MERCHANT_CACHE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CategorizeBatchSize != 50 {
		t.Errorf("CategorizeBatchSize = %d, want 50", cfg.CategorizeBatchSize)
	}
	if cfg.BatchTimeout != 5*time.Second {
		t.Errorf("BatchTimeout = %s, want 5s", cfg.BatchTimeout)
	}
	if cfg.MerchantCacheEnabled {
		t.Error("MerchantCacheEnabled should be overridden to false")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CSVIMP_CATEGORIZE_BATCH_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for zero batch size")
	}
}
