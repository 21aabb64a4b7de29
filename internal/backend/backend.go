// Package backend selects and constructs the storage implementation from
// configuration, so binaries share one wiring path.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"healthwatch/internal/core"
	"healthwatch/internal/storage"
	"healthwatch/internal/storage/memory"
)

// Store is the full persistence surface shared by the SQLite repository and
// the in-memory store.
type Store interface {
	ReplaceYearSalaries(ctx context.Context, year int, records []core.SalaryRecord, batchSize int) error
	ReplaceYearBudget(ctx context.Context, year int, items []core.BudgetLineItem) error
	SumSalariesByClassification(ctx context.Context, year int, classes []core.Classification, sectorPatterns []string) (float64, error)
	SalaryTotalsByYear(ctx context.Context, sectorPatterns []string) ([]core.YearlyClassTotal, error)
	LatestSalaryYear(ctx context.Context) (int, error)
	SalaryCount(ctx context.Context, year int) (int64, error)
	BudgetLines(ctx context.Context, year int) ([]core.BudgetLineItem, error)
	AllBudgetLines(ctx context.Context) ([]core.BudgetLineItem, error)
	UnknownSalaries(ctx context.Context, afterID int64, limit int) ([]core.SalaryRecord, error)
	UpdateClassification(ctx context.Context, id int64, c core.Classification) error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result holds the constructed store and its cleanup function, which may be
// nil.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Type names a storage backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) IsValid() bool {
	return t == SQLiteBackend || t == MemoryBackend
}

// Open constructs the store named by backendType. The sqlitePath argument is
// only used for the sqlite backend.
func Open(backendType Type, sqlitePath string) (*Result, error) {
	switch backendType {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		slog.Info("Initialized sqlite backend", "path", sqlitePath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		slog.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil

	default:
		return nil, fmt.Errorf("invalid backend type: %s", backendType)
	}
}
