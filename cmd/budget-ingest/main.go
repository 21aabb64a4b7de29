package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"healthwatch/internal/budget"
	"healthwatch/internal/config"
	"healthwatch/internal/decode"
	"healthwatch/internal/ingest"
	applog "healthwatch/internal/log"
	"healthwatch/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var (
		year = flag.Int("year", 0, "fiscal year of the expenditure statement (required)")
		url  = flag.String("url", "", "download URL of the expenditure estimates CSV")
		file = flag.String("file", "", "local path of the expenditure estimates CSV")
	)
	flag.Parse()

	logger := applog.New(applog.Config{Component: applog.ComponentBudget})
	applog.SetDefault(logger)

	if *year == 0 || (*url == "" && *file == "") {
		logger.Error("Usage: budget-ingest -year YYYY (-url URL | -file PATH)")
		os.Exit(1)
	}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var raw []byte
	if *file != "" {
		raw, err = os.ReadFile(*file)
		if err != nil {
			logger.Error("Failed to read statement file", "error", err, "path", *file)
			os.Exit(1)
		}
	} else {
		raw, err = ingest.NewHTTPFetcher(cfg.FetchTimeout).Fetch(ctx, *url)
		if err != nil {
			logger.Error("Failed to download statement", "error", err, "url", *url)
			os.Exit(1)
		}
	}

	table, err := decode.Decode(raw)
	if err != nil {
		logger.Error("Failed to decode statement", "error", err, "year", *year)
		os.Exit(1)
	}

	if err := budget.NewReconciler().Run(ctx, *year, table, repo); err != nil {
		logger.Error("Budget reconciliation failed", "error", err, "year", *year)
		os.Exit(1)
	}

	logger.Info("Budget year reconciled", "year", *year)
}
