// Package memory implements the storage ports in process memory. It backs
// the `memory` data backend and the unit tests; semantics mirror the SQLite
// repository, including full-year replace and LIKE-style sector filtering.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"healthwatch/internal/core"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	salaries []core.SalaryRecord
	budget   []core.BudgetLineItem
}

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) ReplaceYearSalaries(_ context.Context, year int, records []core.SalaryRecord, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.salaries[:0]
	for _, r := range s.salaries {
		if r.Year != year {
			kept = append(kept, r)
		}
	}
	s.salaries = kept

	for _, r := range records {
		r.ID = s.nextID
		s.nextID++
		s.salaries = append(s.salaries, r)
	}
	return nil
}

func (s *Store) ReplaceYearBudget(_ context.Context, year int, items []core.BudgetLineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.budget[:0]
	for _, b := range s.budget {
		if b.Year != year {
			kept = append(kept, b)
		}
	}
	s.budget = kept

	for _, b := range items {
		b.ID = s.nextID
		s.nextID++
		s.budget = append(s.budget, b)
	}
	return nil
}

func (s *Store) SumSalariesByClassification(_ context.Context, year int, classes []core.Classification, sectorPatterns []string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	classSet := make(map[core.Classification]bool, len(classes))
	for _, c := range classes {
		classSet[c] = true
	}

	var total float64
	for _, r := range s.salaries {
		if r.Year != year || !classSet[r.Classification] {
			continue
		}
		if !sectorMatches(r.Sector, sectorPatterns) {
			continue
		}
		total += r.Salary
	}
	return total, nil
}

func (s *Store) SalaryTotalsByYear(_ context.Context, sectorPatterns []string) ([]core.YearlyClassTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		year  int
		class core.Classification
	}
	sums := make(map[key]float64)
	for _, r := range s.salaries {
		if !sectorMatches(r.Sector, sectorPatterns) {
			continue
		}
		sums[key{r.Year, r.Classification}] += r.Salary
	}

	totals := make([]core.YearlyClassTotal, 0, len(sums))
	for k, v := range sums {
		totals = append(totals, core.YearlyClassTotal{Year: k.year, Classification: k.class, Total: v})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Year != totals[j].Year {
			return totals[i].Year < totals[j].Year
		}
		return totals[i].Classification < totals[j].Classification
	})
	return totals, nil
}

func (s *Store) LatestSalaryYear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := 0
	for _, r := range s.salaries {
		if r.Year > latest {
			latest = r.Year
		}
	}
	return latest, nil
}

func (s *Store) SalaryCount(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, r := range s.salaries {
		if r.Year == year {
			n++
		}
	}
	return n, nil
}

func (s *Store) BudgetLines(_ context.Context, year int) ([]core.BudgetLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []core.BudgetLineItem
	for _, b := range s.budget {
		if b.Year == year {
			items = append(items, b)
		}
	}
	return items, nil
}

func (s *Store) AllBudgetLines(_ context.Context) ([]core.BudgetLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append([]core.BudgetLineItem(nil), s.budget...)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Year != items[j].Year {
			return items[i].Year < items[j].Year
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (s *Store) UnknownSalaries(_ context.Context, afterID int64, limit int) ([]core.SalaryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 5000
	}
	var records []core.SalaryRecord
	for _, r := range s.salaries {
		if r.Classification != core.Unknown || r.ID <= afterID {
			continue
		}
		records = append(records, r)
		if len(records) >= limit {
			break
		}
	}
	return records, nil
}

func (s *Store) UpdateClassification(_ context.Context, id int64, c core.Classification) error {
	if !c.Valid() {
		return core.ErrInvalidClassification
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.salaries {
		if s.salaries[i].ID == id {
			s.salaries[i].Classification = c
			return nil
		}
	}
	return nil
}

// sectorMatches emulates SQL LIKE over lower-cased input: each %-separated
// fragment of a pattern must appear in order.
func sectorMatches(sector string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	lower := strings.ToLower(sector)
	for _, p := range patterns {
		if likeMatch(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func likeMatch(s, pattern string) bool {
	frags := strings.Split(pattern, "%")
	pos := 0
	for i, frag := range frags {
		if frag == "" {
			continue
		}
		idx := strings.Index(s[pos:], frag)
		if idx < 0 {
			return false
		}
		if i == 0 && idx != 0 {
			// pattern did not start with %, must anchor at the beginning
			return false
		}
		pos += idx + len(frag)
	}
	if last := frags[len(frags)-1]; last != "" && !strings.HasSuffix(s, last) {
		return false
	}
	return true
}
