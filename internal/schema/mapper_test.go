package schema

import (
	"errors"
	"testing"

	"healthwatch/internal/normalize"
)

func normalized(headers ...string) []string {
	cols := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = normalize.Header(h)
	}
	return cols
}

func TestResolveEnglishHeaders(t *testing.T) {
	cols := normalized("Sector", "Last Name", "First Name", "Salary Paid", "Taxable Benefits", "Employer", "Job Title")
	m, err := Resolve(cols, DefaultSynonyms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Mapping{
		FieldSector:   "sector",
		FieldEmployer: "employer",
		FieldJobTitle: "job title",
		FieldSalary:   "salary paid",
		FieldBenefits: "taxable benefits",
	}
	for field, col := range want {
		if m[field] != col {
			t.Fatalf("field %s: expected %q, got %q", field, col, m[field])
		}
	}
}

func TestResolveFrenchHeaders(t *testing.T) {
	cols := normalized("Secteur", "Employeur", "Poste", "Traitement", "Avantages")
	m, err := Resolve(cols, DefaultSynonyms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m[FieldSector] != "secteur" || m[FieldEmployer] != "employeur" ||
		m[FieldJobTitle] != "poste" || m[FieldSalary] != "traitement" ||
		m[FieldBenefits] != "avantages" {
		t.Fatalf("french mapping incomplete: %v", m)
	}
}

func TestResolveSubstringFallback(t *testing.T) {
	// No exact synonym matches these, the substring phase must.
	cols := normalized("Sector Name", "Employer Name", "Position Title", "Annual Salary Paid ($)", "Taxable Benefits ($)")
	m, err := Resolve(cols, DefaultSynonyms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m[FieldSalary] != "annual salary paid ($)" {
		t.Fatalf("expected substring match for salary, got %q", m[FieldSalary])
	}
	if m[FieldJobTitle] != "position title" {
		t.Fatalf("expected substring match for job_title, got %q", m[FieldJobTitle])
	}
}

func TestResolveExactWinsOverSubstring(t *testing.T) {
	// "salary band" is a substring hit for the salary field but the exact
	// "salary" column further right must still win.
	cols := normalized("Sector", "Employer", "Job Title", "Salary Band", "Salary", "Taxable Benefits")
	m, err := Resolve(cols, DefaultSynonyms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m[FieldSalary] != "salary" {
		t.Fatalf("exact match should win, got %q", m[FieldSalary])
	}
}

func TestResolveMissingBenefits(t *testing.T) {
	cols := normalized("Sector", "Employer", "Job Title", "Salary Paid")
	_, err := Resolve(cols, DefaultSynonyms())
	if err == nil {
		t.Fatal("expected error for missing benefits column")
	}
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected *IncompleteError, got %T", err)
	}
	if len(incomplete.Missing) != 1 || incomplete.Missing[0] != FieldBenefits {
		t.Fatalf("expected missing [benefits], got %v", incomplete.Missing)
	}
}

func TestResolveEmptyColumns(t *testing.T) {
	_, err := Resolve(nil, DefaultSynonyms())
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected *IncompleteError, got %v", err)
	}
	if len(incomplete.Missing) != len(RequiredFields) {
		t.Fatalf("expected all %d fields missing, got %v", len(RequiredFields), incomplete.Missing)
	}
}
