package decode

import "testing"

func TestDecodeUTF8WithBOM(t *testing.T) {
	raw := append([]byte{0xef, 0xbb, 0xbf}, []byte("Sector,Employer\nHospitals,General Hospital\n")...)
	table, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Encoding != "utf-8-sig" {
		t.Fatalf("expected utf-8-sig, got %s", table.Encoding)
	}
	if table.Headers[0] != "Sector" {
		t.Fatalf("BOM must be stripped from first header, got %q", table.Headers[0])
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
}

func TestDecodePlainUTF8(t *testing.T) {
	table, err := Decode([]byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Encoding != "utf-8-sig" {
		// utf-8-sig accepts BOM-less valid UTF-8 too, so it wins first.
		t.Fatalf("expected utf-8-sig, got %s", table.Encoding)
	}
}

func TestDecodeLatin1Fallback(t *testing.T) {
	// 0xe9 is é in latin1 but an invalid standalone byte in UTF-8.
	raw := []byte("Secteur,Employeur\nSant\xe9,H\xf4pital G\xe9n\xe9ral\n")
	table, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Encoding != "latin1" {
		t.Fatalf("expected latin1, got %s", table.Encoding)
	}
	if table.Rows[0][0] != "Santé" {
		t.Fatalf("expected latin1 decode of Santé, got %q", table.Rows[0][0])
	}
}

func TestDecodeRaggedRows(t *testing.T) {
	table, err := Decode([]byte("a,b,c\n1,2,3\n1,2\n"))
	if err != nil {
		t.Fatalf("ragged rows must not be a structural error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if Cell(table.Rows[1], 2) != "" {
		t.Fatalf("short row cell must read as empty, got %q", Cell(table.Rows[1], 2))
	}
}

func TestDecodeStructurallyBroken(t *testing.T) {
	// An unterminated quote fails CSV parsing under every encoding.
	_, err := Decode([]byte("a,b\n\"unterminated,2\n"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestColumnLookup(t *testing.T) {
	table := &Table{Headers: []string{"sector", "salary paid"}}
	if got := table.Column("salary paid"); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if got := table.Column("missing"); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
}
