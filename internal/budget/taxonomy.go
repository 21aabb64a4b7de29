package budget

import "healthwatch/internal/core"

// CategoryKeywords maps each named spend category to the account-detail,
// program and activity labels that roll up into it. Matching is exact on the
// cell value; anything unmatched lands in the residual bucket.
func CategoryKeywords() map[string][]string {
	return map[string][]string{
		core.CategoryFrontline: {
			"Operation of Hospitals",
			"Payments made for services and care provided by physicians and practitioners",
			"Ontario Drug Programs",
			"Home Care",
			"Community Mental Health",
			"Payments for Ambulance and Related Emergency Services",
			"Municipal Ambulance",
			"Specialty Psychiatric Hospitals",
			"Community Support Services",
			"Community Health Centres",
			"Child and Youth Mental Health",
			"Assisted Living Services in Supportive Housing",
			"Midwifery Services",
			"Addiction Programs",
			"HIV/AIDS and Hepatitis C Programs",
			"Home Care and Community Services",
			"Long-Term Care Homes (Operation)",
			"Long-Term Care Homes - Operation",
		},
		core.CategoryOperations: {
			"Cancer Treatment Services",
			"Clinical Education",
			"Official Local Health Agencies",
			"Canadian Blood Services",
			"Renal Services",
			"Assistive Devices and Supplies Program",
			"Digital Health",
			"Ontario Agency for Health Protection and Promotion",
			"Organ and Tissue Donation and Transplantation Services",
			"Independent Health Facilities",
			"Quality Health Initiatives",
			"Long-Term Care Capital",
			"Long-Term Care - Capital",
		},
		core.CategoryAdmin: {
			"Regional Coordination Operations Support",
			"Health Infrastructure Renewal Fund",
			"Ministry Administration Program",
			"Information Systems Program",
			"Provincial Programs and Stewardship Program",
			"Health Policy and Research Program",
			"Digital Health and Information Management Program",
			"Ministry of Long-Term Care Administration",
		},
	}
}

// AuthoritativeTotals holds the independently published health budget totals
// (billions of dollars, FAO/Public Accounts) the reconciliation is forced to.
var AuthoritativeTotals = map[int]float64{
	2014: 50.8, 2015: 52.2, 2016: 53.8, 2017: 57.1, 2018: 61.3,
	2019: 63.7, 2020: 71.2, 2021: 75.3, 2022: 78.5, 2023: 85.5, 2024: 88.1,
}
