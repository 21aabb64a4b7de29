package classify

import (
	"testing"

	"healthwatch/internal/core"
)

func TestKeywordClassify(t *testing.T) {
	c := NewKeyword(DefaultTaxonomy())

	cases := []struct {
		title string
		want  core.Classification
	}{
		{"Registered Nurse", core.Clinical},
		{"Staff Physician", core.Clinical},
		{"Pharmacist", core.Clinical},
		{"Chief Financial Officer", core.Bureaucratic},
		{"Director of Communications", core.Bureaucratic},
		{"Senior Policy Analyst", core.Bureaucratic},
		{"Professor", core.Unknown},
		{"Firefighter", core.Unknown},
		{"", core.Unknown},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.title); got != tc.want {
			t.Fatalf("Classify(%q) = %s, expected %s", tc.title, got, tc.want)
		}
	}
}

// Titles carrying both a bureaucratic and a clinical keyword must always
// resolve bureaucratic.
func TestKeywordPrecedence(t *testing.T) {
	c := NewKeyword(DefaultTaxonomy())

	titles := []string{
		"Chief Nursing Officer",
		"Clinical Manager",
		"Director of Patient Care",
		"Nurse Coordinator",
		"Manager, Clinical Services",
	}
	for _, title := range titles {
		if got := c.Classify(title); got != core.Bureaucratic {
			t.Fatalf("Classify(%q) = %s, expected bureaucratic", title, got)
		}
	}
}

func TestKeywordCaseInsensitive(t *testing.T) {
	c := NewKeyword(DefaultTaxonomy())
	if got := c.Classify("REGISTERED NURSE"); got != core.Clinical {
		t.Fatalf("expected clinical for upper-cased title, got %s", got)
	}
}

// A substituted taxonomy changes outcomes without touching the classifier.
func TestKeywordCustomTaxonomy(t *testing.T) {
	c := NewKeyword(Taxonomy{
		Version:      "test",
		Bureaucratic: []string{"overseer"},
		Clinical:     []string{"healer"},
	})
	if got := c.Classify("Chief Nursing Officer"); got != core.Unknown {
		t.Fatalf("default keywords must not leak into custom taxonomy, got %s", got)
	}
	if got := c.Classify("Village Healer"); got != core.Clinical {
		t.Fatalf("expected clinical, got %s", got)
	}
	if got := c.Classify("Overseer of Healers"); got != core.Bureaucratic {
		t.Fatalf("expected bureaucratic precedence, got %s", got)
	}
}
