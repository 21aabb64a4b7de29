// Package budget reconciles ministry-statement line items into a 3-tier
// spend taxonomy. Statements list thousands of heterogeneous items with no
// canonical total column, so the residual category absorbs the gap against
// an independently published authoritative total; the four categories always
// sum exactly to that target.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"healthwatch/internal/core"
	"healthwatch/internal/decode"
	"healthwatch/internal/normalize"
)

// BudgetStore persists one year's reconciled line items atomically.
type BudgetStore interface {
	ReplaceYearBudget(ctx context.Context, year int, items []core.BudgetLineItem) error
}

// Reconciler turns a decoded ministry statement into balanced line items.
type Reconciler struct {
	keywords   map[string][]string
	totals     map[int]float64
	ministries []string
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		keywords:   CategoryKeywords(),
		totals:     AuthoritativeTotals,
		ministries: []string{"Health", "Long-Term Care"},
	}
}

// detailColumnHints identify the statement columns that can carry a
// category-matchable label.
var detailColumnHints = []string{"Account", "Program", "Activity", "Item", "Detail"}

// Reconcile maps the statement's health-ministry rows into the 3-tier
// taxonomy plus the residual bucket. The residual amount is its own
// unmatched sum plus the adjustment (target − matched − unmatched), so the
// four categories sum to the authoritative total by construction.
func (r *Reconciler) Reconcile(ctx context.Context, year int, table *decode.Table) ([]core.BudgetLineItem, error) {
	ministryIdx, amountIdx, detailIdxs, err := locateColumns(table.Headers)
	if err != nil {
		return nil, err
	}

	// Filter to the health and long-term-care ministries.
	var rows [][]string
	for _, row := range table.Rows {
		ministry := decode.Cell(row, ministryIdx)
		for _, m := range r.ministries {
			if strings.Contains(ministry, m) {
				rows = append(rows, row)
				break
			}
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no health ministry rows for %d", year)
	}

	matched := make([]bool, len(rows))
	items := make([]core.BudgetLineItem, 0, 4)
	var matchedSum float64

	// Fixed category order keeps output and descriptions deterministic.
	for _, category := range []string{core.CategoryFrontline, core.CategoryOperations, core.CategoryAdmin} {
		keywords := keywordSet(r.keywords[category])

		var (
			sum   float64
			seen  = map[string]bool{}
			names []string
		)
		for i, row := range rows {
			if matched[i] || !rowMatches(row, detailIdxs, keywords) {
				continue
			}
			matched[i] = true
			sum += normalize.Amount(decode.Cell(row, amountIdx))
			if name := decode.Cell(row, detailIdxs[0]); name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		if sum == 0 && len(names) == 0 {
			continue
		}

		billions := roundBillions(sum / 1e9)
		matchedSum += billions
		items = append(items, core.BudgetLineItem{
			Year:        year,
			Category:    category,
			Amount:      billions,
			Description: describeItems(names),
		})
	}

	// Everything unmatched rolls into the residual bucket, adjusted so the
	// grand total reconciles to the authoritative figure.
	var unmatched float64
	for i, row := range rows {
		if !matched[i] {
			unmatched += normalize.Amount(decode.Cell(row, amountIdx))
		}
	}
	unmatchedBillions := unmatched / 1e9

	target, ok := r.totals[year]
	if !ok {
		target = matchedSum + unmatchedBillions
		slog.WarnContext(ctx, "No authoritative total for year, using computed sum",
			"year", year, "computed", target)
	}

	adjustment := target - matchedSum - unmatchedBillions
	items = append(items, core.BudgetLineItem{
		Year:        year,
		Category:    core.CategoryOther,
		Amount:      roundBillions(unmatchedBillions + adjustment),
		Description: "General operations, capital, one-time payments and other province-wide health flows.",
	})

	slog.InfoContext(ctx, "Reconciled budget year",
		"year", year,
		"categories", len(items),
		"target_billions", target)
	return items, nil
}

// Run reconciles and persists one year in a single delete-then-insert unit.
func (r *Reconciler) Run(ctx context.Context, year int, table *decode.Table, store BudgetStore) error {
	items, err := r.Reconcile(ctx, year, table)
	if err != nil {
		return err
	}
	return store.ReplaceYearBudget(ctx, year, items)
}

// Total returns the sum of all line amounts, for verifying the
// reconciliation invariant.
func Total(items []core.BudgetLineItem) float64 {
	var t float64
	for _, item := range items {
		t += item.Amount
	}
	return t
}

func locateColumns(headers []string) (ministry, amount int, details []int, err error) {
	ministry, amount = -1, -1
	for i, h := range headers {
		trimmed := strings.TrimSpace(h)
		if ministry < 0 && strings.Contains(trimmed, "Ministry") {
			ministry = i
			continue
		}
		// Detail headers are claimed before the amount heuristic runs:
		// "Account Details (Expense/Asset Details)" mentions "Expense" but
		// carries labels, not dollars.
		if isDetailHeader(trimmed) {
			details = append(details, i)
			continue
		}
		if amount < 0 && (strings.Contains(trimmed, "Amount") || strings.Contains(trimmed, "Total") || strings.Contains(trimmed, "Expense")) {
			amount = i
		}
	}
	if ministry < 0 {
		return 0, 0, nil, fmt.Errorf("no ministry column found")
	}
	if amount < 0 {
		return 0, 0, nil, fmt.Errorf("no amount column found")
	}
	if len(details) == 0 {
		return 0, 0, nil, fmt.Errorf("no account/program/activity columns found")
	}
	return ministry, amount, details, nil
}

func isDetailHeader(h string) bool {
	for _, hint := range detailColumnHints {
		if strings.Contains(h, hint) {
			return true
		}
	}
	return false
}

func keywordSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	return set
}

func rowMatches(row []string, detailIdxs []int, keywords map[string]bool) bool {
	for _, idx := range detailIdxs {
		if keywords[strings.TrimSpace(decode.Cell(row, idx))] {
			return true
		}
	}
	return false
}

func describeItems(names []string) string {
	if len(names) > 5 {
		names = names[:5]
	}
	return "Spending on: " + strings.Join(names, ", ") + "..."
}

func roundBillions(v float64) float64 {
	return math.Round(v*1000) / 1000
}
