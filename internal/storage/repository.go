package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"healthwatch/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the record lifetime for salary disclosures and
// reconciled budget lines. Pipelines hold no state across runs; every write
// here is a full-year replace inside one transaction, so readers observe
// either the old complete year or the new complete year, never a mix.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceYearSalaries deletes every record for the year and inserts the new
// batch in chunks of batchSize rows, all within a single transaction.
func (r *SQLiteRepository) ReplaceYearSalaries(ctx context.Context, year int, records []core.SalaryRecord, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM salary_records WHERE year = ?`, year); err != nil {
		return fmt.Errorf("delete year %d: %w", year, err)
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := insertSalaryBatch(ctx, tx, records[start:end]); err != nil {
			return fmt.Errorf("insert batch at offset %d: %w", start, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit year %d: %w", year, err)
	}

	slog.InfoContext(ctx, "Replaced salary records for year",
		"year", year,
		"records", len(records),
		"batch_size", batchSize)
	return nil
}

func insertSalaryBatch(ctx context.Context, tx *sql.Tx, batch []core.SalaryRecord) error {
	if len(batch) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(batch)*7)
	)
	sb.WriteString(`INSERT INTO salary_records (year, sector, employer, job_title, salary, benefits, classification) VALUES `)
	for i, rec := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, rec.Year, rec.Sector, rec.Employer, rec.JobTitle, rec.Salary, rec.Benefits, string(rec.Classification))
	}

	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// ReplaceYearBudget atomically regenerates all budget line items for a year.
func (r *SQLiteRepository) ReplaceYearBudget(ctx context.Context, year int, items []core.BudgetLineItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_lines WHERE year = ?`, year); err != nil {
		return fmt.Errorf("delete budget year %d: %w", year, err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budget_lines (year, category, amount_billions, description) VALUES (?, ?, ?, ?)`,
			item.Year, item.Category, item.Amount, item.Description)
		if err != nil {
			return fmt.Errorf("insert budget line %q: %w", item.Category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit budget year %d: %w", year, err)
	}

	slog.InfoContext(ctx, "Replaced budget lines for year", "year", year, "lines", len(items))
	return nil
}

// SumSalariesByClassification sums salary for the year over the given
// classifications, restricted to sectors matching any of the LIKE patterns.
func (r *SQLiteRepository) SumSalariesByClassification(ctx context.Context, year int, classes []core.Classification, sectorPatterns []string) (float64, error) {
	if len(classes) == 0 {
		return 0, nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT COALESCE(SUM(salary), 0) FROM salary_records WHERE year = ?`)
	args = append(args, year)

	sb.WriteString(` AND classification IN (`)
	for i, c := range classes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, string(c))
	}
	sb.WriteString(`)`)

	appendSectorFilter(&sb, &args, sectorPatterns)

	var total float64
	if err := r.db.QueryRowContext(ctx, sb.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum salaries: %w", err)
	}
	return total, nil
}

// SalaryTotalsByYear returns (year, classification, sum) rows over all years,
// restricted to sectors matching any of the LIKE patterns, ordered by year.
func (r *SQLiteRepository) SalaryTotalsByYear(ctx context.Context, sectorPatterns []string) ([]core.YearlyClassTotal, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT year, classification, COALESCE(SUM(salary), 0) FROM salary_records WHERE 1=1`)
	appendSectorFilter(&sb, &args, sectorPatterns)
	sb.WriteString(` GROUP BY year, classification ORDER BY year`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query yearly totals: %w", err)
	}
	defer rows.Close()

	var totals []core.YearlyClassTotal
	for rows.Next() {
		var (
			t     core.YearlyClassTotal
			class string
		)
		if err := rows.Scan(&t.Year, &class, &t.Total); err != nil {
			return nil, fmt.Errorf("scan yearly total: %w", err)
		}
		t.Classification = core.Classification(class)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yearly totals: %w", err)
	}
	return totals, nil
}

// LatestSalaryYear returns the most recent year with data, or 0 when empty.
func (r *SQLiteRepository) LatestSalaryYear(ctx context.Context) (int, error) {
	var year sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(year) FROM salary_records`).Scan(&year); err != nil {
		return 0, fmt.Errorf("latest salary year: %w", err)
	}
	return int(year.Int64), nil
}

// SalaryCount returns the number of persisted records for a year.
func (r *SQLiteRepository) SalaryCount(ctx context.Context, year int) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM salary_records WHERE year = ?`, year).Scan(&n); err != nil {
		return 0, fmt.Errorf("count salaries: %w", err)
	}
	return n, nil
}

// BudgetLines returns all reconciled line items for a year.
func (r *SQLiteRepository) BudgetLines(ctx context.Context, year int) ([]core.BudgetLineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, year, category, amount_billions, description FROM budget_lines WHERE year = ? ORDER BY id`, year)
	if err != nil {
		return nil, fmt.Errorf("query budget lines: %w", err)
	}
	defer rows.Close()
	return scanBudgetLines(rows)
}

// AllBudgetLines returns every reconciled line item across years, ordered by year.
func (r *SQLiteRepository) AllBudgetLines(ctx context.Context) ([]core.BudgetLineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, year, category, amount_billions, description FROM budget_lines ORDER BY year, id`)
	if err != nil {
		return nil, fmt.Errorf("query all budget lines: %w", err)
	}
	defer rows.Close()
	return scanBudgetLines(rows)
}

// UnknownSalaries returns up to limit records still classified unknown with
// an id greater than afterID, so the re-classification pass can page through
// the whole table with a keyset cursor.
func (r *SQLiteRepository) UnknownSalaries(ctx context.Context, afterID int64, limit int) ([]core.SalaryRecord, error) {
	if limit <= 0 {
		limit = 5000
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, year, sector, employer, job_title, salary, benefits, classification
		 FROM salary_records WHERE classification = ? AND id > ? ORDER BY id LIMIT ?`,
		string(core.Unknown), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query unknown salaries: %w", err)
	}
	defer rows.Close()

	var records []core.SalaryRecord
	for rows.Next() {
		var (
			rec   core.SalaryRecord
			class string
		)
		if err := rows.Scan(&rec.ID, &rec.Year, &rec.Sector, &rec.Employer, &rec.JobTitle, &rec.Salary, &rec.Benefits, &class); err != nil {
			return nil, fmt.Errorf("scan salary record: %w", err)
		}
		rec.Classification = core.Classification(class)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unknown salaries: %w", err)
	}
	return records, nil
}

// UpdateClassification revises one record's classification in place. Used
// only by the re-classification pass, which resolves unknown records.
func (r *SQLiteRepository) UpdateClassification(ctx context.Context, id int64, c core.Classification) error {
	if !c.Valid() {
		return core.ErrInvalidClassification
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE salary_records SET classification = ? WHERE id = ?`, string(c), id); err != nil {
		return fmt.Errorf("update classification for %d: %w", id, err)
	}
	return nil
}

func appendSectorFilter(sb *strings.Builder, args *[]any, patterns []string) {
	if len(patterns) == 0 {
		return
	}
	sb.WriteString(` AND (`)
	for i, p := range patterns {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("LOWER(sector) LIKE ?")
		*args = append(*args, strings.ToLower(p))
	}
	sb.WriteString(`)`)
}

func scanBudgetLines(rows *sql.Rows) ([]core.BudgetLineItem, error) {
	var items []core.BudgetLineItem
	for rows.Next() {
		var item core.BudgetLineItem
		if err := rows.Scan(&item.ID, &item.Year, &item.Category, &item.Amount, &item.Description); err != nil {
			return nil, fmt.Errorf("scan budget line: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget lines: %w", err)
	}
	return items, nil
}
