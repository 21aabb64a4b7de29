package budget

import (
	"context"
	"math"
	"strings"
	"testing"

	"healthwatch/internal/core"
	"healthwatch/internal/decode"
	"healthwatch/internal/storage/memory"
)

func statementTable(rows ...string) *decode.Table {
	header := "Ministry Name,Program Name,Account Details (Expense/Asset Details),Amount $"
	all := append([]string{header}, rows...)
	table, err := decode.Decode([]byte(strings.Join(all, "\n") + "\n"))
	if err != nil {
		panic(err)
	}
	return table
}

func TestReconcileBalancesToAuthoritativeTotal(t *testing.T) {
	// Matched categories: 60B frontline, 0 others. Unmatched: 20B.
	table := statementTable(
		"Health,Hospitals,Operation of Hospitals,60000000000",
		"Health,Misc,Some Unmapped Line,20000000000",
		"Education,Schools,School Operation,999000000000", // filtered out
	)

	r := NewReconciler()
	items, err := r.Reconcile(context.Background(), 2023, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byCategory := map[string]core.BudgetLineItem{}
	for _, item := range items {
		byCategory[item.Category] = item
	}

	if got := byCategory[core.CategoryFrontline].Amount; got != 60.0 {
		t.Fatalf("expected frontline 60.0, got %v", got)
	}
	// Residual absorbs its own unmatched 20B plus the 5.5B gap to 85.5B.
	if got := byCategory[core.CategoryOther].Amount; math.Abs(got-25.5) > 0.001 {
		t.Fatalf("expected residual 25.5, got %v", got)
	}
	if total := Total(items); math.Abs(total-85.5) > 0.01 {
		t.Fatalf("categories must sum to the authoritative total: got %v", total)
	}
}

func TestReconcileInvariantAcrossYears(t *testing.T) {
	table := statementTable(
		"Health,Hospitals,Operation of Hospitals,40000000000",
		"Long-Term Care,Homes,Long-Term Care Homes (Operation),7000000000",
		"Health,Admin,Ministry Administration Program,1000000000",
		"Health,Misc,Untracked Flow,3000000000",
	)

	r := NewReconciler()
	for year, target := range AuthoritativeTotals {
		items, err := r.Reconcile(context.Background(), year, table)
		if err != nil {
			t.Fatalf("year %d: unexpected error: %v", year, err)
		}
		if total := Total(items); math.Abs(total-target) > 0.01 {
			t.Fatalf("year %d: expected total %v, got %v", year, target, total)
		}
	}
}

func TestReconcileCategoryAssignment(t *testing.T) {
	table := statementTable(
		"Health,Hospitals,Operation of Hospitals,10000000000",
		"Health,Agency,Canadian Blood Services,2000000000",
		"Health,Admin,Information Systems Program,1000000000",
	)

	r := NewReconciler()
	items, err := r.Reconcile(context.Background(), 2023, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 line items, got %d", len(items))
	}

	want := map[string]float64{
		core.CategoryFrontline:  10.0,
		core.CategoryOperations: 2.0,
		core.CategoryAdmin:      1.0,
	}
	for _, item := range items {
		if expected, ok := want[item.Category]; ok && item.Amount != expected {
			t.Fatalf("category %s: expected %v, got %v", item.Category, expected, item.Amount)
		}
	}
}

func TestReconcileSumsFromAmountColumn(t *testing.T) {
	// The detail column precedes the amount column and mentions "Expense" in
	// its header; sums must still come from "Amount $", never from labels.
	table := statementTable(
		"Health,Hospitals,Operation of Hospitals,60000000000",
	)

	r := NewReconciler()
	items, err := r.Reconcile(context.Background(), 2023, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range items {
		if item.Category == core.CategoryFrontline {
			if item.Amount != 60.0 {
				t.Fatalf("expected frontline 60.0 from the amount column, got %v", item.Amount)
			}
			return
		}
	}
	t.Fatal("expected a frontline line item")
}

func TestLocateColumnsSkipsDetailHeaders(t *testing.T) {
	ministry, amount, details, err := locateColumns([]string{
		"Ministry Name", "Program Name", "Account Details (Expense/Asset Details)", "Amount $",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ministry != 0 {
		t.Fatalf("expected ministry column 0, got %d", ministry)
	}
	if amount != 3 {
		t.Fatalf("expected amount column 3, got %d", amount)
	}
	if len(details) != 2 || details[0] != 1 || details[1] != 2 {
		t.Fatalf("expected detail columns [1 2], got %v", details)
	}
}

func TestReconcileNegativeAccountingAmounts(t *testing.T) {
	table := statementTable(
		"Health,Hospitals,Operation of Hospitals,\"50,000,000,000\"",
		"Health,Misc,Recovery Credit,\"(2,000,000,000)\"",
	)

	r := NewReconciler()
	items, err := r.Reconcile(context.Background(), 2023, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total := Total(items); math.Abs(total-85.5) > 0.01 {
		t.Fatalf("negative amounts must still reconcile to target, got %v", total)
	}
}

func TestReconcileNoHealthRows(t *testing.T) {
	table := statementTable("Education,Schools,School Operation,1000")
	r := NewReconciler()
	if _, err := r.Reconcile(context.Background(), 2023, table); err == nil {
		t.Fatal("expected error for statement without health ministry rows")
	}
}

func TestReconcileMissingColumns(t *testing.T) {
	table, err := decode.Decode([]byte("Foo,Bar\n1,2\n"))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	r := NewReconciler()
	if _, err := r.Reconcile(context.Background(), 2023, table); err == nil {
		t.Fatal("expected error for missing ministry/amount columns")
	}
}

func TestRunPersistsAtomically(t *testing.T) {
	store := memory.New()
	table := statementTable("Health,Hospitals,Operation of Hospitals,60000000000")

	r := NewReconciler()
	if err := r.Run(context.Background(), 2023, table, store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Re-running regenerates, never accumulates.
	if err := r.Run(context.Background(), 2023, table, store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines, err := store.BudgetLines(context.Background(), 2023)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 { // frontline + residual
		t.Fatalf("expected 2 lines after re-run, got %d", len(lines))
	}
	if total := Total(lines); math.Abs(total-85.5) > 0.01 {
		t.Fatalf("persisted lines must sum to target, got %v", total)
	}
}
