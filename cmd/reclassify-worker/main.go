package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"healthwatch/internal/amqp"
	"healthwatch/internal/classify"
	"healthwatch/internal/config"
	applog "healthwatch/internal/log"
	"healthwatch/internal/storage"
	"healthwatch/internal/worker"
)

func main() {
	_ = godotenv.Load()

	trigger := flag.Bool("trigger", false, "publish a reclassify request and exit")
	flag.Parse()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	classifier := buildClassifier(cfg, logger)

	if *trigger {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPReclassifyQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		taxonomy := classify.DefaultTaxonomy()
		if err := client.PublishReclassifyRequest(context.Background(), taxonomy.Version); err != nil {
			logger.Error("Failed to publish reclassify request", "error", err)
			os.Exit(1)
		}
		logger.Info("Reclassify request published", "taxonomy_version", taxonomy.Version)
		return
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	reclassifier := worker.NewReclassifier(repo, classifier, cfg.ReclassifyBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resweep once at startup to recover from missed messages.
	if resolved, err := reclassifier.Run(ctx); err != nil {
		logger.Error("Startup reclassification failed", "error", err)
	} else if resolved > 0 {
		logger.Info("Startup reclassification resolved records", "resolved", resolved)
	}

	ingestClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPIngestQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err, "queue", cfg.AMQPIngestQueue)
		os.Exit(1)
	}
	defer ingestClient.Close()

	reclassifyClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPReclassifyQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err, "queue", cfg.AMQPReclassifyQueue)
		os.Exit(1)
	}
	defer reclassifyClient.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ingestClient.ConsumeIngestionCompleted(gctx, func(msg *amqp.IngestionCompletedMessage) error {
			return reclassifier.HandleIngestionCompleted(gctx, msg)
		})
	})

	g.Go(func() error {
		return reclassifyClient.ConsumeReclassifyRequests(gctx, func(msg *amqp.ReclassifyRequestMessage) error {
			return reclassifier.HandleReclassifyRequest(gctx, msg)
		})
	})

	// Periodic backstop in case broker messages are lost.
	g.Go(func() error {
		return reclassifier.RunPeriodic(gctx, cfg.ReclassifyInterval)
	})

	logger.Info("Reclassify worker started",
		"ingest_queue", cfg.AMQPIngestQueue,
		"reclassify_queue", cfg.AMQPReclassifyQueue,
		"interval", cfg.ReclassifyInterval.String())

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// buildClassifier prefers the LLM strategy when an API key is configured and
// falls back to the keyword taxonomy otherwise.
func buildClassifier(cfg *config.Config, logger *applog.Logger) classify.Classifier {
	if cfg.GeminiAPIKey != "" {
		logger.Info("Using LLM classifier", "model", cfg.GeminiModel)
		return classify.NewLLM(classify.LLMConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
	}
	taxonomy := classify.DefaultTaxonomy()
	logger.Info("Using keyword classifier", "taxonomy_version", taxonomy.Version)
	return classify.NewKeyword(taxonomy)
}
