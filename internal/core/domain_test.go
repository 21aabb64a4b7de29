package core

import "testing"

func TestSalaryRecordValidate(t *testing.T) {
	valid := SalaryRecord{
		Year:           2023,
		Sector:         "Hospitals and Boards of Public Health",
		Employer:       "Sample Hospital",
		JobTitle:       "Registered Nurse",
		Salary:         90000,
		Benefits:       10000,
		Classification: Clinical,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*SalaryRecord)
		want   error
	}{
		{"year below minimum", func(r *SalaryRecord) { r.Year = 2010 }, ErrInvalidYear},
		{"blank title", func(r *SalaryRecord) { r.JobTitle = "  " }, ErrEmptyJobTitle},
		{"negative salary", func(r *SalaryRecord) { r.Salary = -1 }, ErrNegativeAmount},
		{"negative benefits", func(r *SalaryRecord) { r.Benefits = -0.5 }, ErrNegativeAmount},
		{"bogus classification", func(r *SalaryRecord) { r.Classification = "support" }, ErrInvalidClassification},
		{"empty classification", func(r *SalaryRecord) { r.Classification = "" }, ErrInvalidClassification},
	}
	for _, tc := range cases {
		r := valid
		tc.mutate(&r)
		if err := r.Validate(); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestBudgetLineItemValidate(t *testing.T) {
	item := BudgetLineItem{Year: 2023, Category: CategoryFrontline, Amount: 60.0}
	if err := item.Validate(); err != nil {
		t.Fatalf("expected valid item, got %v", err)
	}

	item.Category = "Hospitals"
	if err := item.Validate(); err != ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	item.Category = CategoryOther
	item.Year = 1999
	if err := item.Validate(); err != ErrInvalidYear {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestCompensation(t *testing.T) {
	r := SalaryRecord{Salary: 200000, Benefits: 20000}
	if got := r.Compensation(); got != 220000 {
		t.Fatalf("expected 220000, got %v", got)
	}
}
