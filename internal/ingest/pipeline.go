// Package ingest orchestrates the per-year salary-disclosure pipeline:
// fetch raw bytes, decode with fallback encodings, resolve the source schema,
// clean and classify every row, and replace the year's persisted records.
package ingest

import (
	"context"
	"log/slog"
	"sort"

	"healthwatch/internal/classify"
	"healthwatch/internal/core"
	"healthwatch/internal/decode"
	"healthwatch/internal/normalize"
	"healthwatch/internal/schema"
)

// SalaryStore is the persistence surface the pipeline needs: a transactional
// full-year replace.
type SalaryStore interface {
	ReplaceYearSalaries(ctx context.Context, year int, records []core.SalaryRecord, batchSize int) error
}

// EventPublisher is notified after a year ingests successfully. Optional.
type EventPublisher interface {
	PublishIngestionCompleted(ctx context.Context, year int, records int) error
}

// Config tunes the pipeline. Zero values fall back to defaults.
type Config struct {
	BatchSize int // rows per insert batch; not correctness-relevant
}

// Pipeline is a stateless per-run transformation: raw bytes in, a fully
// replaced persisted year out. It holds no record state across runs.
type Pipeline struct {
	fetcher    Fetcher
	store      SalaryStore
	classifier classify.Classifier
	synonyms   schema.Synonyms
	publisher  EventPublisher
	batchSize  int
}

func NewPipeline(fetcher Fetcher, store SalaryStore, classifier classify.Classifier, cfg Config) *Pipeline {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 5000
	}
	return &Pipeline{
		fetcher:    fetcher,
		store:      store,
		classifier: classifier,
		synonyms:   schema.DefaultSynonyms(),
		batchSize:  batch,
	}
}

// WithPublisher attaches an event publisher for ingestion-completed events.
func (p *Pipeline) WithPublisher(pub EventPublisher) *Pipeline {
	p.publisher = pub
	return p
}

// RunYear executes fetch → decode → map+clean → persist for one year.
// Re-running with the same source yields the same final record set: the
// persist step is delete-then-insert within one transaction.
func (p *Pipeline) RunYear(ctx context.Context, year int, url string) (int, error) {
	raw, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, &FetchError{Year: year, URL: url, Err: err}
	}

	table, err := decode.Decode(raw)
	if err != nil {
		return 0, &DecodeError{Year: year, Err: err}
	}
	slog.InfoContext(ctx, "Decoded source file",
		"year", year, "encoding", table.Encoding, "rows", len(table.Rows))

	records, err := p.mapAndClean(year, table)
	if err != nil {
		return 0, err
	}

	if err := p.store.ReplaceYearSalaries(ctx, year, records, p.batchSize); err != nil {
		return 0, &PersistenceError{Year: year, Err: err}
	}

	if p.publisher != nil {
		if err := p.publisher.PublishIngestionCompleted(ctx, year, len(records)); err != nil {
			// Event delivery is best-effort; the year is already persisted.
			slog.WarnContext(ctx, "Failed to publish ingestion event", "year", year, "error", err)
		}
	}

	return len(records), nil
}

func (p *Pipeline) mapAndClean(year int, table *decode.Table) ([]core.SalaryRecord, error) {
	columns := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		columns[i] = normalize.Header(h)
	}

	mapping, err := schema.Resolve(columns, p.synonyms)
	if err != nil {
		return nil, err
	}

	idx := func(field string) int {
		for i, col := range columns {
			if col == mapping[field] {
				return i
			}
		}
		return -1
	}
	var (
		sectorIdx   = idx(schema.FieldSector)
		employerIdx = idx(schema.FieldEmployer)
		titleIdx    = idx(schema.FieldJobTitle)
		salaryIdx   = idx(schema.FieldSalary)
		benefitsIdx = idx(schema.FieldBenefits)
	)

	records := make([]core.SalaryRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		title := decode.Cell(row, titleIdx)
		records = append(records, core.SalaryRecord{
			Year:           year,
			Sector:         decode.Cell(row, sectorIdx),
			Employer:       decode.Cell(row, employerIdx),
			JobTitle:       title,
			Salary:         normalize.Currency(decode.Cell(row, salaryIdx)),
			Benefits:       normalize.Currency(decode.Cell(row, benefitsIdx)),
			Classification: p.classifier.Classify(title),
		})
	}
	return records, nil
}

// YearResult is the outcome of one year in a multi-year run.
type YearResult struct {
	Year    int
	Records int
	Err     error
}

// RunAll resolves the catalog and ingests every year sequentially, oldest
// first. Failures are isolated per year: the run logs and moves on, and no
// failure touches another year's data.
func (p *Pipeline) RunAll(ctx context.Context, catalog SourceCatalog) ([]YearResult, error) {
	urls, err := catalog.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	years := make([]int, 0, len(urls))
	for year := range urls {
		years = append(years, year)
	}
	sort.Ints(years)

	results := make([]YearResult, 0, len(years))
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		count, err := p.RunYear(ctx, year, urls[year])
		if err != nil {
			slog.ErrorContext(ctx, "Year ingestion failed, continuing",
				"year", year, "error", err)
		} else {
			slog.InfoContext(ctx, "Year ingested", "year", year, "records", count)
		}
		results = append(results, YearResult{Year: year, Records: count, Err: err})
	}
	return results, nil
}
