package filter

import (
	"testing"
	"time"

	"github.com/felo/case-outreach/internal/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCases() []crm.Case {
	day := func(d int) time.Time { return time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC) }
	return []crm.Case{
		{ID: "1", Company: "Acme", KeyTechnologies: "Go, Kubernetes", Status: crm.StatusRecruiting, RegisteredAt: day(1)},
		{ID: "2", Company: "", KeyTechnologies: "Java", Status: crm.StatusClosed, RegisteredAt: day(5)},
		{ID: "3", Company: "Globex", KeyTechnologies: "golang, AWS", Status: crm.StatusRecruiting, RegisteredAt: day(10)},
		{ID: "4", Company: "Acme", KeyTechnologies: "React", Status: "面談中", CreatedAt: day(20)},
		{ID: "5", Company: "不明", KeyTechnologies: "Go", Status: crm.StatusRecruiting},
	}
}

func ids(cases []crm.Case) []string {
	out := make([]string, len(cases))
	for i, c := range cases {
		out[i] = c.ID
	}
	return out
}

func TestCases(t *testing.T) {
	tests := []struct {
		name     string
		criteria crm.FilterCriteria
		want     []string
	}{
		{"all companies", crm.FilterCriteria{Company: crm.AllCompanies}, []string{"1", "2", "3", "4", "5"}},
		{"empty criteria", crm.FilterCriteria{}, []string{"1", "2", "3", "4", "5"}},
		{"exact company", crm.FilterCriteria{Company: "Acme"}, []string{"1", "4"}},
		{"company is not substring", crm.FilterCriteria{Company: "Acm"}, []string{}},
		{"tech case-insensitive substring", crm.FilterCriteria{Company: "all", Tech: "GO"}, []string{"1", "3", "5"}},
		{"tech and company", crm.FilterCriteria{Company: "Acme", Tech: "go"}, []string{"1"}},
		{"status", crm.FilterCriteria{Status: crm.StatusRecruiting}, []string{"1", "3", "5"}},
		{"free text status", crm.FilterCriteria{Status: "面談中"}, []string{"4"}},
		{
			name:     "date range drops undated",
			criteria: crm.FilterCriteria{DateFrom: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), DateTo: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)},
			want:     []string{"2", "3", "4"},
		},
		{
			name:     "open upper bound",
			criteria: crm.FilterCriteria{DateFrom: time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)},
			want:     []string{"3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Cases(testCases(), tt.criteria)))
		})
	}
}

func TestCasesIsIdempotent(t *testing.T) {
	criteria := crm.FilterCriteria{Company: "Acme", Tech: "go"}
	once := Cases(testCases(), criteria)
	twice := Cases(once, criteria)
	assert.Equal(t, once, twice)
}

func TestTechFilterIgnoresSkillsUntilFlattened(t *testing.T) {
	cases := []crm.Case{{ID: "1", Skills: []string{"Rust"}}}

	assert.Empty(t, Cases(cases, crm.FilterCriteria{Tech: "rust"}))
	assert.Equal(t, []string{"1"}, ids(Cases(WithKeyTechnologies(cases), crm.FilterCriteria{Tech: "rust"})))
	assert.Empty(t, cases[0].KeyTechnologies, "input must not be mutated")
}

func TestCompanies(t *testing.T) {
	assert.Equal(t, []string{"Acme", "Globex"}, Companies(testCases()))
	assert.Empty(t, Companies(nil))
}

func TestListedCompanyMatchesPaddedName(t *testing.T) {
	cases := []crm.Case{
		{ID: "1", Company: " Acme "},
		{ID: "2", Company: "Acme"},
		{ID: "3", Company: "Globex"},
	}
	companies := Companies(cases)
	require.Equal(t, []string{"Acme", "Globex"}, companies)

	assert.Equal(t, []string{"1", "2"}, ids(Cases(cases, crm.FilterCriteria{Company: companies[0]})))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	page, total := Paginate(items, 1, 3)
	assert.Equal(t, []int{1, 2, 3}, page)
	assert.Equal(t, 3, total)

	page, total = Paginate(items, 3, 3)
	assert.Equal(t, []int{7}, page)
	assert.Equal(t, 3, total)

	page, total = Paginate(items, 4, 3)
	assert.Empty(t, page)
	assert.Equal(t, 3, total)

	page, total = Paginate(items, 0, 3)
	assert.Empty(t, page)
	assert.Equal(t, 3, total)

	page, total = Paginate([]int{}, 1, 10)
	require.NotNil(t, page)
	assert.Empty(t, page)
	assert.Equal(t, 0, total)

	_, total = Paginate(items, 1, 0)
	assert.Equal(t, 0, total)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(1, 0))
	assert.Equal(t, 1, ClampPage(-2, 5))
	assert.Equal(t, 3, ClampPage(3, 5))
	assert.Equal(t, 5, ClampPage(9, 5))
}
