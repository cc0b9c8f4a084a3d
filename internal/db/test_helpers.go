package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/felo/case-outreach/internal/crm"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t testing.TB) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database
func CleanupTestDB(t testing.TB, db *DB) {
	t.Helper()

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close test database: %v", err)
	}
}

// CreateTestCase creates a test case with one sender
func CreateTestCase(owner, title, company string) *crm.Case {
	return &crm.Case{
		Owner:        owner,
		Title:        title,
		Company:      company,
		Skills:       []string{"Go", "SQL"},
		Location:     "東京",
		Budget:       "80万円",
		Status:       crm.StatusRecruiting,
		Description:  fmt.Sprintf("%s の詳細", title),
		Senders:      []crm.Sender{{Name: "担当 " + title, Email: fmt.Sprintf("%s@%s.example", title, company)}},
		RegisteredAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

// InsertTestCases inserts cases and fails the test on error
func InsertTestCases(t testing.TB, db *DB, cases ...*crm.Case) {
	t.Helper()

	for i, c := range cases {
		if _, err := db.CreateCase(c); err != nil {
			t.Fatalf("Failed to insert test case %d: %v", i, err)
		}
	}
}
