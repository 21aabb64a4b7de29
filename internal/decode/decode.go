// Package decode turns raw export bytes into tabular data. Source files
// arrive in whatever encoding the publishing year happened to use, so an
// ordered list of encodings is attempted until one yields a structurally
// valid CSV.
package decode

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Table is one decoded tabular file: a header row and its data rows.
// Rows may be ragged; consumers index columns via the header.
type Table struct {
	Headers  []string
	Rows     [][]string
	Encoding string
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Encodings is the fallback order. First success wins.
var Encodings = []string{"utf-8-sig", "utf-8", "latin1", "cp1252"}

// Error reports that no encoding in the fallback list produced a valid table.
type Error struct {
	Attempts map[string]error
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, enc := range Encodings {
		if err, ok := e.Attempts[enc]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", enc, err))
		}
	}
	return "no encoding decoded the file: " + strings.Join(parts, "; ")
}

// Decode parses raw bytes into a Table, attempting each encoding in order.
func Decode(raw []byte) (*Table, error) {
	attempts := make(map[string]error, len(Encodings))
	for _, enc := range Encodings {
		text, err := decodeText(raw, enc)
		if err != nil {
			attempts[enc] = err
			continue
		}
		table, err := parseCSV(text)
		if err != nil {
			attempts[enc] = err
			continue
		}
		table.Encoding = enc
		return table, nil
	}
	return nil, &Error{Attempts: attempts}
}

func decodeText(raw []byte, enc string) (string, error) {
	switch enc {
	case "utf-8-sig":
		trimmed := bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(trimmed) {
			return "", fmt.Errorf("invalid UTF-8 byte sequence")
		}
		return string(trimmed), nil
	case "utf-8":
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid UTF-8 byte sequence")
		}
		return string(raw), nil
	case "latin1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("latin1 decode: %w", err)
		}
		return string(out), nil
	case "cp1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("cp1252 decode: %w", err)
		}
		return string(out), nil
	}
	return "", fmt.Errorf("unsupported encoding %q", enc)
}

func parseCSV(text string) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1 // header widths drift across years

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("file has no rows")
	}
	return &Table{Headers: all[0], Rows: all[1:]}, nil
}

// Column returns the index of the named header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns row[idx] or "" when the row is shorter than the header.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
