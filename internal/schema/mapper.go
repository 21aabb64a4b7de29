// Package schema maps the column names of one source file onto the canonical
// field set. The disclosure exports have no stable wire schema: headers drift
// across years and switch between English and French, so every file is
// resolved against a synonym table before any row is read.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical field names every salary source file must resolve to.
const (
	FieldSector   = "sector"
	FieldEmployer = "employer"
	FieldJobTitle = "job_title"
	FieldSalary   = "salary"
	FieldBenefits = "benefits"
)

// RequiredFields lists the canonical fields in a fixed order. A file missing
// any of them is skipped wholesale.
var RequiredFields = []string{FieldSector, FieldEmployer, FieldJobTitle, FieldSalary, FieldBenefits}

// Synonyms maps a canonical field to the header spellings seen in the wild,
// English and French. Exact spellings come first; the substring phase reuses
// the same list.
type Synonyms map[string][]string

// DefaultSynonyms covers every header variant observed in the 2014-2023
// compendium files.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		FieldSector:   {"sector", "secteur"},
		FieldEmployer: {"employer", "employeur"},
		FieldJobTitle: {"job title", "job_title", "position", "poste", "title"},
		FieldSalary:   {"salary", "salary paid", "paid", "traitement"},
		FieldBenefits: {"benefits", "taxable benefits", "taxable", "avantages"},
	}
}

// IncompleteError reports which canonical fields could not be resolved.
// A file that produces this error is skipped; it is never partially ingested.
type IncompleteError struct {
	Missing []string
	Columns []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("schema incomplete: missing %s (columns found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Columns, ", "))
}

// Mapping resolves canonical field names to source column names.
type Mapping map[string]string

// Resolve maps the canonical field set onto the given column names. Columns
// must already be lower-cased and trimmed. For each field an exact match
// against any synonym is attempted first, then a substring match; the first
// hit wins. Fields resolve independently, so iteration order across fields
// does not affect the result.
func Resolve(columns []string, syn Synonyms) (Mapping, error) {
	mapping := make(Mapping, len(RequiredFields))
	var missing []string

	for _, field := range RequiredFields {
		patterns := syn[field]
		col, ok := matchExact(columns, patterns)
		if !ok {
			col, ok = matchSubstring(columns, patterns)
		}
		if !ok {
			missing = append(missing, field)
			continue
		}
		mapping[field] = col
	}

	if len(missing) > 0 {
		cols := append([]string(nil), columns...)
		sort.Strings(cols)
		return nil, &IncompleteError{Missing: missing, Columns: cols}
	}
	return mapping, nil
}

func matchExact(columns, patterns []string) (string, bool) {
	for _, col := range columns {
		for _, p := range patterns {
			if col == p {
				return col, true
			}
		}
	}
	return "", false
}

func matchSubstring(columns, patterns []string) (string, bool) {
	for _, col := range columns {
		for _, p := range patterns {
			if strings.Contains(col, p) {
				return col, true
			}
		}
	}
	return "", false
}
