package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dvloznov/csv-importer/internal/cache"
	"github.com/dvloznov/csv-importer/internal/config"
	"github.com/dvloznov/csv-importer/internal/gcs"
	"github.com/dvloznov/csv-importer/internal/jobs"
	"github.com/dvloznov/csv-importer/internal/jobs/inmemory"
	"github.com/dvloznov/csv-importer/internal/logger"
	"github.com/dvloznov/csv-importer/internal/pipeline"
	"github.com/dvloznov/csv-importer/internal/store"
)

func main() {
	// Initialize logger
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize job store and queue
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 2, jobStore)

	log.Info().Msg("Starting import worker")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	txStore, cleanup, err := openStore(ctx, cfg)
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

	// Create job handler that runs the import pipeline
	handler := func(ctx context.Context, job jobs.Job) error {
		importJob, ok := job.(*jobs.ImportFileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", importJob.JobID).
			Str("source", importJob.Source).
			Msg("Processing import job")

		rawText, sourceName, err := readSource(ctx, importJob)
		if err != nil {
			return err
		}

		result, err := importer.ImportFile(ctx, rawText, sourceName)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", importJob.JobID).
				Str("reason", result.FailureReason).
				Msg("Import failed")
			return err
		}

		log.Info().
			Str("job_id", importJob.JobID).
			Int("added", result.TransactionsAdded).
			Int("duplicates", result.DuplicatesRejected).
			Msg("Import completed")
		return nil
	}

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker exited")
}

func readSource(ctx context.Context, job *jobs.ImportFileJob) (string, string, error) {
	name := job.SourceName

	if gcs.IsURI(job.Source) {
		data, err := gcs.Fetch(ctx, job.Source)
		if err != nil {
			return "", "", err
		}
		if name == "" {
			name = gcs.Filename(job.Source)
		}
		return string(data), name, nil
	}

	data, err := os.ReadFile(job.Source)
	if err != nil {
		return "", "", err
	}
	if name == "" {
		name = filepath.Base(job.Source)
	}
	return string(data), name, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.TransactionStore, func(), error) {
	if cfg.BigQueryProject == "" {
		return store.NewMemory(), func() {}, nil
	}

	bq, err := store.NewBigQuery(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable)
	if err != nil {
		return nil, nil, err
	}
	return bq, func() { _ = bq.Close() }, nil
}
