// Package config loads runtime policy values. Everything has a default; any
// value can be overridden through CSVIMP_-prefixed environment variables
// (e.g. CSVIMP_CATEGORIZE_BATCH_SIZE=50).
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the policy values the pipeline consumes.
type Config struct {
	// GeminiModel is the model used for all classification calls.
	GeminiModel string

	// CategorizeBatchSize is the number of merchants per categorization
	// request.
	CategorizeBatchSize int

	// MaxInflightBatches bounds how many categorization requests may run
	// concurrently.
	MaxInflightBatches int

	// BatchTimeout bounds every individual service call; on expiry the
	// batch falls back to keyword matching.
	BatchTimeout time.Duration

	// MerchantCacheEnabled toggles the merchant-signature cache.
	MerchantCacheEnabled bool

	// MerchantCacheTTL is how long a cached merchant categorization stays
	// valid.
	MerchantCacheTTL time.Duration

	// ContextWindow is how many recently resolved (merchant, category)
	// pairs are supplied as disambiguating context.
	ContextWindow int

	// BigQuery store coordinates. Only used when the BigQuery backend is
	// selected.
	BigQueryProject string
	BigQueryDataset string
	BigQueryTable   string
}

// Load reads configuration from the environment with defaults applied.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("csvimp")
	v.AutomaticEnv()

	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("categorize_batch_size", 20)
	v.SetDefault("max_inflight_batches", 2)
	v.SetDefault("batch_timeout", "30s")
	v.SetDefault("merchant_cache_enabled", true)
	v.SetDefault("merchant_cache_ttl", "24h")
	v.SetDefault("context_window", 10)
	v.SetDefault("bigquery_project", "")
	v.SetDefault("bigquery_dataset", "finance")
	v.SetDefault("bigquery_table", "transactions")

	cfg := &Config{
		GeminiModel:          v.GetString("gemini_model"),
		CategorizeBatchSize:  v.GetInt("categorize_batch_size"),
		MaxInflightBatches:   v.GetInt("max_inflight_batches"),
		BatchTimeout:         v.GetDuration("batch_timeout"),
		MerchantCacheEnabled: v.GetBool("merchant_cache_enabled"),
		MerchantCacheTTL:     v.GetDuration("merchant_cache_ttl"),
		ContextWindow:        v.GetInt("context_window"),
		BigQueryProject:      v.GetString("bigquery_project"),
		BigQueryDataset:      v.GetString("bigquery_dataset"),
		BigQueryTable:        v.GetString("bigquery_table"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CategorizeBatchSize < 1 {
		return fmt.Errorf("config: categorize_batch_size must be >= 1, got %d", c.CategorizeBatchSize)
	}
	if c.MaxInflightBatches < 1 {
		return fmt.Errorf("config: max_inflight_batches must be >= 1, got %d", c.MaxInflightBatches)
	}
	if c.BatchTimeout <= 0 {
		return fmt.Errorf("config: batch_timeout must be positive, got %s", c.BatchTimeout)
	}
	if c.MerchantCacheTTL <= 0 {
		return fmt.Errorf("config: merchant_cache_ttl must be positive, got %s", c.MerchantCacheTTL)
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("config: context_window must be >= 0, got %d", c.ContextWindow)
	}
	return nil
}
