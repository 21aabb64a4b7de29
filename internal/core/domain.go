package core

import (
	"errors"
	"strings"
)

const (
	Clinical     Classification = "clinical"
	Bureaucratic Classification = "bureaucratic"
	Unknown      Classification = "unknown"
)

// Budget categories form a fixed 3-tier taxonomy plus a residual bucket that
// absorbs the reconciliation gap against the authoritative total.
const (
	CategoryFrontline  = "Frontline"
	CategoryOperations = "Operations & Agency"
	CategoryAdmin      = "Administrative & Opaque"
	CategoryOther      = "General Operations & Other"
)

type (
	// Classification buckets a job title by the kind of spend it represents.
	Classification string

	// SalaryRecord is one disclosed compensation line from the public-sector
	// salary disclosure (sunshine list) for a given year.
	SalaryRecord struct {
		ID             int64
		Year           int
		Sector         string
		Employer       string
		JobTitle       string
		Salary         float64
		Benefits       float64
		Classification Classification
	}

	// BudgetLineItem is one reconciled category of ministry spend for a year.
	// Amounts are expressed in billions of dollars.
	BudgetLineItem struct {
		ID          int64
		Year        int
		Category    string
		Amount      float64
		Description string
	}

	// YearlyClassTotal is one grouped aggregation row: the summed salary for
	// a (year, classification) pair.
	YearlyClassTotal struct {
		Year           int
		Classification Classification
		Total          float64
	}
)

var (
	ErrInvalidYear           = errors.New("invalid year")
	ErrNegativeAmount        = errors.New("negative amount")
	ErrEmptyJobTitle         = errors.New("empty job title")
	ErrInvalidClassification = errors.New("invalid classification")
	ErrInvalidCategory       = errors.New("invalid budget category")
)

// MinYear is the earliest disclosure year the system ingests.
const MinYear = 2014

// Valid reports whether c is one of the three known classifications.
func (c Classification) Valid() bool {
	switch c {
	case Clinical, Bureaucratic, Unknown:
		return true
	}
	return false
}

func (r SalaryRecord) Validate() error {
	if r.Year < MinYear {
		return ErrInvalidYear
	}
	if strings.TrimSpace(r.JobTitle) == "" {
		return ErrEmptyJobTitle
	}
	if r.Salary < 0 || r.Benefits < 0 {
		return ErrNegativeAmount
	}
	if !r.Classification.Valid() {
		return ErrInvalidClassification
	}
	return nil
}

func (b BudgetLineItem) Validate() error {
	if b.Year < MinYear {
		return ErrInvalidYear
	}
	switch b.Category {
	case CategoryFrontline, CategoryOperations, CategoryAdmin, CategoryOther:
	default:
		return ErrInvalidCategory
	}
	return nil
}

// Compensation is the full disclosed cost of the record (salary plus taxable
// benefits).
func (r SalaryRecord) Compensation() float64 {
	return r.Salary + r.Benefits
}
