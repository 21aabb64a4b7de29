// Package analytics computes the derived spending metrics served by the API.
// Every operation is read-only over persisted aggregates; a query that
// matches nothing returns a zero-valued result with a note, never a fault.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"healthwatch/internal/core"
)

// SalaryReader is the aggregation surface the engine needs over salary data.
type SalaryReader interface {
	SumSalariesByClassification(ctx context.Context, year int, classes []core.Classification, sectorPatterns []string) (float64, error)
	SalaryTotalsByYear(ctx context.Context, sectorPatterns []string) ([]core.YearlyClassTotal, error)
	LatestSalaryYear(ctx context.Context) (int, error)
}

// BudgetReader reads persisted reconciled budget lines.
type BudgetReader interface {
	BudgetLines(ctx context.Context, year int) ([]core.BudgetLineItem, error)
	AllBudgetLines(ctx context.Context) ([]core.BudgetLineItem, error)
}

// HealthSectorPatterns are the bilingual LIKE patterns that identify
// health-sector records.
var HealthSectorPatterns = []string{
	"%hospital%",
	"%hôpitaux%",
	"%public health%",
	"%santé%",
	"%seconded%health%",
}

// budgetHistory and revenueHistory are the published provincial totals
// (billions of dollars, FAO/Public Accounts) used for context figures.
var (
	budgetHistory = map[int]float64{
		2014: 50.8, 2015: 51.9, 2016: 53.0, 2017: 55.2,
		2018: 59.3, 2019: 63.7, 2020: 71.5, 2021: 76.9,
		2022: 75.2, 2023: 85.5,
	}
	revenueHistory = map[int]float64{
		2014: 118.0, 2015: 128.0, 2016: 140.7, 2017: 150.6,
		2018: 153.7, 2019: 156.1, 2020: 164.9, 2021: 185.1,
		2022: 192.9, 2023: 204.4,
	}
)

const (
	defaultYear    = 2023
	defaultBudget  = 85.5
	defaultRevenue = 204.4
)

// AdminTaxResult is the single-year admin-tax payload.
type AdminTaxResult struct {
	Year                        int     `json:"year"`
	TotalClinical               float64 `json:"total_clinical"`
	TotalBureaucratic           float64 `json:"total_bureaucratic"`
	AdminTaxPercentage          float64 `json:"admin_tax_percentage"`
	TotalBudget                 float64 `json:"total_budget"`
	HealthcarePortionPercentage float64 `json:"healthcare_portion_percentage"`
	Note                        string  `json:"note,omitempty"`
}

// TrendPoint is one year in the historical admin-tax series, with growth
// measured against the earliest year with data.
type TrendPoint struct {
	Year                  int     `json:"year"`
	AdminTaxPercentage    float64 `json:"admin_tax_percentage"`
	TotalClinical         float64 `json:"total_clinical"`
	TotalBureaucratic     float64 `json:"total_bureaucratic"`
	BureaucraticGrowthPct float64 `json:"bureaucratic_growth_pct"`
	ClinicalGrowthPct     float64 `json:"clinical_growth_pct"`
}

// CategoryBreakdown is one category's slice of a year's budget.
type CategoryBreakdown struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// BudgetBreakdownResult is the per-year category map plus its total.
type BudgetBreakdownResult struct {
	Year                int                          `json:"year"`
	TotalBudgetBillions float64                      `json:"total_budget_billions"`
	Categories          map[string]CategoryBreakdown `json:"categories"`
}

// BudgetTrendPoint is one year in the frontline-vs-bureaucratic series.
type BudgetTrendPoint struct {
	Year                int     `json:"year"`
	TotalBudget         float64 `json:"total_budget"`
	FrontlineCare       float64 `json:"frontline_care"`
	BureaucraticExpense float64 `json:"bureaucratic_expense"`
	Ratio               float64 `json:"ratio"`
}

// Engine issues grouped aggregate queries and derives the analytics
// payloads. It holds no state beyond its readers.
type Engine struct {
	salaries SalaryReader
	budget   BudgetReader
}

func NewEngine(salaries SalaryReader, budget BudgetReader) *Engine {
	return &Engine{salaries: salaries, budget: budget}
}

// AdminTax computes the share of health-sector salary spend classified
// bureaucratic for the given year, or the latest year with data when year is
// nil. Unknown records count toward the bureaucratic side.
func (e *Engine) AdminTax(ctx context.Context, year *int) (*AdminTaxResult, error) {
	target := 0
	if year != nil {
		target = *year
	} else {
		latest, err := e.salaries.LatestSalaryYear(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve latest year: %w", err)
		}
		target = latest
		if target == 0 {
			target = defaultYear
		}
	}

	clinical, err := e.salaries.SumSalariesByClassification(ctx, target,
		[]core.Classification{core.Clinical}, HealthSectorPatterns)
	if err != nil {
		return nil, fmt.Errorf("sum clinical spend: %w", err)
	}

	bureaucratic, err := e.salaries.SumSalariesByClassification(ctx, target,
		[]core.Classification{core.Bureaucratic, core.Unknown}, HealthSectorPatterns)
	if err != nil {
		return nil, fmt.Errorf("sum bureaucratic spend: %w", err)
	}

	total := clinical + bureaucratic
	if total == 0 {
		return &AdminTaxResult{
			Year: target,
			Note: "No data found for this year or sector filter.",
		}, nil
	}

	budget := budgetHistory[target]
	if budget == 0 {
		budget = defaultBudget
	}
	revenue := revenueHistory[target]
	if revenue == 0 {
		revenue = defaultRevenue
	}

	return &AdminTaxResult{
		Year:                        target,
		TotalClinical:               clinical,
		TotalBureaucratic:           bureaucratic,
		AdminTaxPercentage:          round2(bureaucratic / total * 100),
		TotalBudget:                 budget * 1e9,
		HealthcarePortionPercentage: budget / revenue,
	}, nil
}

// HistoricalAdminTax computes the admin-tax ratio per year plus growth of
// both spend totals relative to the earliest year with data. The baseline
// year's growth values are 0 by definition.
func (e *Engine) HistoricalAdminTax(ctx context.Context) ([]TrendPoint, error) {
	totals, err := e.salaries.SalaryTotalsByYear(ctx, HealthSectorPatterns)
	if err != nil {
		return nil, fmt.Errorf("yearly totals: %w", err)
	}

	type yearTotals struct{ clinical, bureaucratic float64 }
	byYear := make(map[int]*yearTotals)
	for _, t := range totals {
		yt := byYear[t.Year]
		if yt == nil {
			yt = &yearTotals{}
			byYear[t.Year] = yt
		}
		switch t.Classification {
		case core.Clinical:
			yt.clinical += t.Total
		case core.Bureaucratic, core.Unknown:
			yt.bureaucratic += t.Total
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	var (
		history              []TrendPoint
		baselineSet          bool
		baselineBureaucratic float64
		baselineClinical     float64
	)
	for _, y := range years {
		yt := byYear[y]
		total := yt.clinical + yt.bureaucratic
		if total == 0 {
			continue
		}

		var bGrowth, cGrowth float64
		if !baselineSet {
			baselineSet = true
			baselineBureaucratic = yt.bureaucratic
			baselineClinical = yt.clinical
		} else {
			if baselineBureaucratic > 0 {
				bGrowth = (yt.bureaucratic - baselineBureaucratic) / baselineBureaucratic * 100
			}
			if baselineClinical > 0 {
				cGrowth = (yt.clinical - baselineClinical) / baselineClinical * 100
			}
		}

		history = append(history, TrendPoint{
			Year:                  y,
			AdminTaxPercentage:    round2(yt.bureaucratic / total * 100),
			TotalClinical:         yt.clinical,
			TotalBureaucratic:     yt.bureaucratic,
			BureaucraticGrowthPct: round1(bGrowth),
			ClinicalGrowthPct:     round1(cGrowth),
		})
	}
	return history, nil
}

// BudgetBreakdown returns the category map for one reconciled year, or nil
// when the year has no lines.
func (e *Engine) BudgetBreakdown(ctx context.Context, year int) (*BudgetBreakdownResult, error) {
	lines, err := e.budget.BudgetLines(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("budget lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	categories := make(map[string]CategoryBreakdown, len(lines))
	var total float64
	for _, line := range lines {
		categories[line.Category] = CategoryBreakdown{
			Amount:      line.Amount,
			Description: line.Description,
		}
		total += line.Amount
	}

	return &BudgetBreakdownResult{
		Year:                year,
		TotalBudgetBillions: round2(total),
		Categories:          categories,
	}, nil
}

// HistoricalBudgetTrends derives the frontline vs bureaucratic series from
// the reconciled budget lines.
func (e *Engine) HistoricalBudgetTrends(ctx context.Context) ([]BudgetTrendPoint, error) {
	lines, err := e.budget.AllBudgetLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("all budget lines: %w", err)
	}

	type yearAgg struct{ frontline, total float64 }
	byYear := make(map[int]*yearAgg)
	for _, line := range lines {
		agg := byYear[line.Year]
		if agg == nil {
			agg = &yearAgg{}
			byYear[line.Year] = agg
		}
		agg.total += line.Amount
		if line.Category == core.CategoryFrontline {
			agg.frontline += line.Amount
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	history := make([]BudgetTrendPoint, 0, len(years))
	for _, y := range years {
		agg := byYear[y]
		bureaucratic := agg.total - agg.frontline
		var ratio float64
		if agg.total > 0 {
			ratio = round1(bureaucratic / agg.total * 100)
		}
		history = append(history, BudgetTrendPoint{
			Year:                y,
			TotalBudget:         round2(agg.total),
			FrontlineCare:       round2(agg.frontline),
			BureaucraticExpense: round2(bureaucratic),
			Ratio:               ratio,
		})
	}
	return history, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
