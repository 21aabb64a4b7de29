// Package classify assigns a spend classification to free-text job titles.
//
// The keyword tables are an explicit, versioned configuration value rather
// than package-level constants: the taxonomy evolves, and the precedence rule
// (bureaucratic before clinical) is part of the contract, not an accident of
// source ordering.
package classify

import (
	"strings"

	"healthwatch/internal/core"
)

// Classifier maps a job title to a classification. Implementations must be
// deterministic for a fixed taxonomy.
type Classifier interface {
	Classify(title string) core.Classification
}

// Taxonomy is a versioned keyword configuration. Bureaucratic keywords are
// checked before clinical ones: a "Chief Nursing Officer" counts as
// bureaucratic because the management framing dominates the administrative
// overhead metric this system measures.
type Taxonomy struct {
	Version      string
	Bureaucratic []string
	Clinical     []string
}

// DefaultTaxonomy returns the keyword tables used for the published metric.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Version: "v2",
		Bureaucratic: []string{
			"director", "manager", "executive", "president", "vp", "chief",
			"officer", "supervisor", "coordinator", "consultant", "analyst",
			"strategy", "policy", "communications", "advisor", "lead",
			"head of", "chair", "board",
		},
		Clinical: []string{
			"nurse", "doctor", "physician", "surgeon", "rn", "rpn", "psw",
			"paramedic", "therapist", "psychologist", "pharmacist",
			"radiologist", "technologist", "clinical", "patient", "care",
			"practitioner", "midwife",
		},
	}
}

// Keyword classifies titles by ordered substring containment.
type Keyword struct {
	taxonomy Taxonomy
}

// NewKeyword builds a keyword classifier over the given taxonomy.
func NewKeyword(taxonomy Taxonomy) *Keyword {
	return &Keyword{taxonomy: taxonomy}
}

// Classify returns bureaucratic if any bureaucratic keyword appears in the
// title, otherwise clinical if any clinical keyword appears, otherwise
// unknown. Matching is case-insensitive substring containment.
func (k *Keyword) Classify(title string) core.Classification {
	lower := strings.ToLower(title)
	for _, kw := range k.taxonomy.Bureaucratic {
		if strings.Contains(lower, kw) {
			return core.Bureaucratic
		}
	}
	for _, kw := range k.taxonomy.Clinical {
		if strings.Contains(lower, kw) {
			return core.Clinical
		}
	}
	return core.Unknown
}

// TaxonomyVersion exposes the version of the configured taxonomy.
func (k *Keyword) TaxonomyVersion() string {
	return k.taxonomy.Version
}
