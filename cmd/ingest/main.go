package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"healthwatch/internal/amqp"
	"healthwatch/internal/classify"
	"healthwatch/internal/config"
	"healthwatch/internal/ingest"
	applog "healthwatch/internal/log"
	"healthwatch/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var (
		catalogMode = flag.String("catalog", "ckan", "source catalog: ckan or static")
		years       = flag.String("years", "", "comma-separated years to ingest (default: all resolved)")
		publish     = flag.Bool("publish", true, "publish ingestion-completed events to AMQP")
	)
	flag.Parse()

	logger := applog.New(applog.Config{Component: applog.ComponentIngest})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	pipeline := ingest.NewPipeline(
		ingest.NewHTTPFetcher(cfg.FetchTimeout),
		repo,
		classify.NewKeyword(classify.DefaultTaxonomy()),
		ingest.Config{BatchSize: cfg.IngestBatchSize},
	)

	if *publish && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPIngestQueue)
		if err != nil {
			// Events are best-effort; the run proceeds without them.
			logger.Warn("AMQP unavailable, continuing without events", "error", err)
		} else {
			defer client.Close()
			pipeline = pipeline.WithPublisher(client)
		}
	}

	var catalog ingest.SourceCatalog
	switch *catalogMode {
	case "static":
		catalog = ingest.StaticCatalog(ingest.FallbackURLs)
	default:
		catalog = ingest.NewCKANCatalog(cfg.CatalogBaseURL, cfg.CatalogQuery)
	}
	if *years != "" {
		filtered, err := filterCatalog(catalog, *years)
		if err != nil {
			logger.Error("Invalid -years flag", "error", err, "value", *years)
			os.Exit(1)
		}
		catalog = filtered
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := pipeline.RunAll(ctx, catalog)
	if err != nil {
		logger.Error("Ingestion run failed", "error", err)
		os.Exit(1)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.Info("Ingestion run completed", "years", len(results), "failed", failed)
	if failed == len(results) && failed > 0 {
		os.Exit(1)
	}
}

// filterCatalog narrows a catalog to the requested years, resolving lazily so
// the -years flag still works against the CKAN catalog.
func filterCatalog(catalog ingest.SourceCatalog, spec string) (ingest.SourceCatalog, error) {
	wanted := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		wanted[year] = true
	}
	return catalogFilterFunc(func(ctx context.Context) (map[int]string, error) {
		urls, err := catalog.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		filtered := make(map[int]string)
		for year, url := range urls {
			if wanted[year] {
				filtered[year] = url
			}
		}
		return filtered, nil
	}), nil
}

type catalogFilterFunc func(ctx context.Context) (map[int]string, error)

func (f catalogFilterFunc) Resolve(ctx context.Context) (map[int]string, error) { return f(ctx) }
