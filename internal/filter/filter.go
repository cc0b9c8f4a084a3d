// Package filter narrows and windows case lists for the outreach screens.
// Everything here is pure: inputs are never mutated and match order follows
// input order.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/felo/case-outreach/internal/crm"
)

// unknownCompanies are placeholder company values that never appear in the
// company dropdown.
var unknownCompanies = map[string]bool{
	"":        true,
	"unknown": true,
	"不明":      true,
	"-":       true,
}

// Cases returns the cases matching every criterion, in input order.
func Cases(cases []crm.Case, criteria crm.FilterCriteria) []crm.Case {
	tech := strings.ToLower(strings.TrimSpace(criteria.Tech))

	matched := make([]crm.Case, 0, len(cases))
	for _, c := range cases {
		if !matchCompany(c, criteria.Company) {
			continue
		}
		if tech != "" && !strings.Contains(strings.ToLower(c.KeyTechnologies), tech) {
			continue
		}
		if !matchStatus(c, criteria.Status) {
			continue
		}
		if !matchDate(c, criteria.DateFrom, criteria.DateTo) {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

func matchCompany(c crm.Case, company string) bool {
	if company == "" || company == crm.AllCompanies {
		return true
	}
	return strings.TrimSpace(c.Company) == strings.TrimSpace(company)
}

func matchStatus(c crm.Case, status string) bool {
	if status == "" || status == crm.AllStatuses {
		return true
	}
	return c.Status == status
}

func matchDate(c crm.Case, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	t := caseDate(c)
	if t.IsZero() {
		return false
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// caseDate is the registration date, or the creation date for records
// that were never registered.
func caseDate(c crm.Case) time.Time {
	if !c.RegisteredAt.IsZero() {
		return c.RegisteredAt
	}
	return c.CreatedAt
}

// WithKeyTechnologies returns a copy of cases where every empty key
// technologies field is filled from the case's skills.
func WithKeyTechnologies(cases []crm.Case) []crm.Case {
	out := make([]crm.Case, len(cases))
	for i, c := range cases {
		c.KeyTechnologies = c.TechnologyText()
		out[i] = c
	}
	return out
}

// Companies returns the distinct known company names, sorted.
func Companies(cases []crm.Case) []string {
	seen := make(map[string]bool)
	var companies []string
	for _, c := range cases {
		name := strings.TrimSpace(c.Company)
		if unknownCompanies[strings.ToLower(name)] || seen[name] {
			continue
		}
		seen[name] = true
		companies = append(companies, name)
	}
	sort.Strings(companies)
	return companies
}
