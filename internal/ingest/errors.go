package ingest

import "fmt"

// Per-year failure taxonomy. Every error here aborts exactly one year's run;
// a multi-year run logs it and continues with the next year.

// FetchError is a network or HTTP status failure while obtaining raw bytes.
// No data is mutated for the year: the delete-then-insert only happens after
// decode succeeds.
type FetchError struct {
	Year int
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch year %d from %s: %v", e.Year, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError means no encoding in the fallback list produced a valid table.
type DecodeError struct {
	Year int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode year %d: %v", e.Year, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PersistenceError is a batch write failure. The repository's transactional
// replace guarantees the year is never left half-replaced.
type PersistenceError struct {
	Year int
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist year %d: %v", e.Year, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
