package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/csv-importer/internal/cache"
	"github.com/dvloznov/csv-importer/internal/config"
	"github.com/dvloznov/csv-importer/internal/gcs"
	"github.com/dvloznov/csv-importer/internal/logger"
	"github.com/dvloznov/csv-importer/internal/pipeline"
	"github.com/dvloznov/csv-importer/internal/store"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	source := flag.String("source", "", "CSV export to import: a local path or a gs:// URI")
	dryRun := flag.Bool("dry-run", false, "import into an in-memory store and only print the result counts")
	flag.Parse()

	if *source == "" {
		log.Fatal().Msg("Error: --source is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	rawText, sourceName, err := readSource(ctx, *source)
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Failed to read source")
	}

	txStore, cleanup, err := selectStore(ctx, cfg, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transaction store")
	}
	defer cleanup()

	importer := pipeline.NewImporter(
		cfg,
		pipeline.NewGeminiClassifier(cfg.GeminiModel),
		txStore,
		cache.NewCategoryMappings(),
		cache.NewMerchantCategories(cfg.MerchantCacheTTL),
	)

	log.Info().Str("source", *source).Msg("Starting import")

	result, err := importer.ImportFile(ctx, rawText, sourceName)
	if err != nil {
		log.Fatal().Err(err).Str("reason", result.FailureReason).Msg("Import failed")
	}

	fmt.Printf("Import completed: %d rows seen, %d skipped, %d added, %d duplicates rejected\n",
		result.RowsSeen, result.RowsSkipped, result.TransactionsAdded, result.DuplicatesRejected)
	if fb := result.CategorizedByKeyword + result.CategorizedAsFallback; fb > 0 {
		fmt.Printf("Note: %d transactions were categorized by fallback rules (service unavailable or unsure)\n", fb)
	}
}

// readSource loads the CSV text from a local path or a GCS URI.
func readSource(ctx context.Context, source string) (string, string, error) {
	if gcs.IsURI(source) {
		data, err := gcs.Fetch(ctx, source)
		if err != nil {
			return "", "", err
		}
		return string(data), gcs.Filename(source), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", "", err
	}
	return string(data), filepath.Base(source), nil
}

// selectStore picks the BigQuery store when configured, the in-memory one
// otherwise (and always for dry runs).
func selectStore(ctx context.Context, cfg *config.Config, dryRun bool) (store.TransactionStore, func(), error) {
	if dryRun || cfg.BigQueryProject == "" {
		return store.NewMemory(), func() {}, nil
	}

	bq, err := store.NewBigQuery(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable)
	if err != nil {
		return nil, nil, err
	}
	return bq, func() { _ = bq.Close() }, nil
}
