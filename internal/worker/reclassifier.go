// Package worker hosts the background reclassification pass. It resweeps
// records that the ingest-time classifier could not place, either on a
// broker trigger or on a periodic schedule.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"healthwatch/internal/amqp"
	"healthwatch/internal/classify"
	"healthwatch/internal/core"
)

// ReclassifyStore is the slice of storage the worker needs: page through
// unknown records by id cursor and update the ones a classifier can now
// place.
type ReclassifyStore interface {
	UnknownSalaries(ctx context.Context, afterID int64, limit int) ([]core.SalaryRecord, error)
	UpdateClassification(ctx context.Context, id int64, c core.Classification) error
}

// Reclassifier resweeps unknown salary records with the current classifier.
type Reclassifier struct {
	store      ReclassifyStore
	classifier classify.Classifier
	batchSize  int
}

func NewReclassifier(store ReclassifyStore, classifier classify.Classifier, batchSize int) *Reclassifier {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &Reclassifier{
		store:      store,
		classifier: classifier,
		batchSize:  batchSize,
	}
}

// Run scans every unknown record once, returning how many were resolved.
// Paging is keyset-based on the record id so batches of unresolvable titles
// never hide resolvable ones further down the table.
func (w *Reclassifier) Run(ctx context.Context) (int, error) {
	resolved := 0
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}

		records, err := w.store.UnknownSalaries(ctx, afterID, w.batchSize)
		if err != nil {
			return resolved, fmt.Errorf("load unknown records: %w", err)
		}
		if len(records) == 0 {
			break
		}
		afterID = records[len(records)-1].ID

		for _, record := range records {
			c := w.classifier.Classify(record.JobTitle)
			if c == core.Unknown {
				continue
			}
			if err := w.store.UpdateClassification(ctx, record.ID, c); err != nil {
				return resolved, fmt.Errorf("update record %d: %w", record.ID, err)
			}
			resolved++
		}
	}

	slog.InfoContext(ctx, "Reclassification pass completed", "resolved", resolved)
	return resolved, nil
}

// HandleReclassifyRequest processes a broker-triggered reclassification.
func (w *Reclassifier) HandleReclassifyRequest(ctx context.Context, msg *amqp.ReclassifyRequestMessage) error {
	slog.InfoContext(ctx, "Processing reclassify request",
		"taxonomy_version", msg.TaxonomyVersion)

	if _, err := w.Run(ctx); err != nil {
		return fmt.Errorf("reclassify pass: %w", err)
	}
	return nil
}

// HandleIngestionCompleted resweeps after new data lands.
func (w *Reclassifier) HandleIngestionCompleted(ctx context.Context, msg *amqp.IngestionCompletedMessage) error {
	slog.InfoContext(ctx, "Processing ingestion completed event",
		"year", msg.Year,
		"records", msg.Records)

	if _, err := w.Run(ctx); err != nil {
		return fmt.Errorf("reclassify pass: %w", err)
	}
	return nil
}

// RunPeriodic resweeps on a fixed interval until the context is cancelled.
// This is a backup mechanism in case broker messages are lost.
func (w *Reclassifier) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic reclassification failed", "error", err)
			}
		}
	}
}
