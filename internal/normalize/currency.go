// Package normalize cleans raw cell values from open-data exports into typed
// values. Source files mix currency symbols, thousands separators, placeholder
// dashes and stray whitespace; every function here degrades to a safe zero
// instead of failing, so one malformed cell never aborts a batch.
package normalize

import (
	"strconv"
	"strings"
)

// placeholders are the cell values the disclosure files use for "no amount".
var placeholders = map[string]bool{
	"":  true,
	"-": true,
	"–": true,
}

// Currency parses a disclosed salary or benefits cell into dollars.
// Missing, placeholder, unparsable or negative input yields 0.
func Currency(raw string) float64 {
	s := strings.TrimSpace(raw)
	if placeholders[s] {
		return 0
	}
	s = stripAmount(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// Amount parses a ministry-statement amount cell. Unlike Currency it keeps
// negative values: accounting negatives written as (1,234) become -1234.
func Amount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if placeholders[s] {
		return 0
	}
	s = strings.ReplaceAll(s, "(", "-")
	s = strings.ReplaceAll(s, ")", "")
	s = stripAmount(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Header canonicalizes a source column name for schema matching.
func Header(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func stripAmount(s string) string {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}
