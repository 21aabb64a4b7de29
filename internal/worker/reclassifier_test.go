package worker

import (
	"context"
	"testing"

	"healthwatch/internal/amqp"
	"healthwatch/internal/classify"
	"healthwatch/internal/core"
	"healthwatch/internal/storage/memory"
)

func seedUnknowns(t *testing.T, store *memory.Store, titles ...string) {
	t.Helper()
	records := make([]core.SalaryRecord, 0, len(titles))
	for _, title := range titles {
		records = append(records, core.SalaryRecord{
			Year:           2023,
			Sector:         "Hospitals",
			Employer:       "General Hospital",
			JobTitle:       title,
			Salary:         100000,
			Classification: core.Unknown,
		})
	}
	if err := store.ReplaceYearSalaries(context.Background(), 2023, records, 100); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRunResolvesKnownTitles(t *testing.T) {
	store := memory.New()
	seedUnknowns(t, store,
		"Registered Nurse",   // clinical
		"Finance Director",   // bureaucratic
		"Groundskeeper",      // stays unknown
	)

	w := NewReclassifier(store, classify.NewKeyword(classify.DefaultTaxonomy()), 10)
	resolved, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != 2 {
		t.Fatalf("expected 2 resolved, got %d", resolved)
	}

	remaining, err := store.UnknownSalaries(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].JobTitle != "Groundskeeper" {
		t.Fatalf("expected only the unmatchable record to remain, got %+v", remaining)
	}

	clinical, _ := store.SumSalariesByClassification(context.Background(), 2023, []core.Classification{core.Clinical}, nil)
	if clinical != 100000 {
		t.Fatalf("expected resolved nurse to count as clinical, got %v", clinical)
	}
}

func TestRunTerminatesWhenNothingResolves(t *testing.T) {
	store := memory.New()
	seedUnknowns(t, store, "Groundskeeper", "Janitor")

	w := NewReclassifier(store, classify.NewKeyword(classify.DefaultTaxonomy()), 1)
	resolved, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != 0 {
		t.Fatalf("expected no resolutions, got %d", resolved)
	}
}

func TestRunScansPastUnresolvableRecords(t *testing.T) {
	store := memory.New()
	// The unresolvable title fills the first batch; the cursor must advance
	// past it so the nurse behind it still gets scanned.
	seedUnknowns(t, store, "Groundskeeper", "Registered Nurse")

	w := NewReclassifier(store, classify.NewKeyword(classify.DefaultTaxonomy()), 1)
	resolved, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("expected the nurse to be resolved, got %d resolutions", resolved)
	}

	clinical, _ := store.SumSalariesByClassification(context.Background(), 2023, []core.Classification{core.Clinical}, nil)
	if clinical != 100000 {
		t.Fatalf("expected the nurse to count as clinical, got %v", clinical)
	}
}

func TestRunPagesThroughBatches(t *testing.T) {
	store := memory.New()
	seedUnknowns(t, store, "Nurse A", "Nurse B", "Nurse C", "Nurse D", "Nurse E")

	// Batch size of 2 forces multiple passes.
	w := NewReclassifier(store, classify.NewKeyword(classify.DefaultTaxonomy()), 2)
	resolved, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != 5 {
		t.Fatalf("expected all 5 resolved, got %d", resolved)
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	store := memory.New()
	seedUnknowns(t, store, "Registered Nurse")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewReclassifier(store, classify.NewKeyword(classify.DefaultTaxonomy()), 10)
	if _, err := w.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHandleMessages(t *testing.T) {
	store := memory.New()
	seedUnknowns(t, store, "Registered Nurse")

	w := NewReclassifier(store, classify.NewKeyword(classify.DefaultTaxonomy()), 10)

	err := w.HandleIngestionCompleted(context.Background(), amqp.NewIngestionCompletedMessage(2023, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining, _ := store.UnknownSalaries(context.Background(), 0, 100)
	if len(remaining) != 0 {
		t.Fatalf("expected no unknowns after ingestion event, got %d", len(remaining))
	}

	err = w.HandleReclassifyRequest(context.Background(), amqp.NewReclassifyRequestMessage("v2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
