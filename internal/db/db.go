package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by deletes that matched no row
var ErrNotFound = errors.New("not found")

type DB struct {
	*sql.DB
}

// Open opens a connection to the SQLite database and initializes the schema
func Open(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// _time_format=sqlite stores time.Time values in a format SQLite's date
	// functions understand; foreign keys are needed for sender cascades.
	dsn := dbPath + "?_time_format=sqlite&_pragma=foreign_keys(1)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1) // SQLite works best with single connection
	sqlDB.SetMaxIdleConns(1)

	db := &DB{sqlDB}

	if err := db.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates all tables and indexes
func (db *DB) initSchema() error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// SetSetting sets or updates a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// Stats holds database statistics
type Stats struct {
	TotalCases     int    `json:"totalCases"`
	TotalEngineers int    `json:"totalEngineers"`
	TotalOutbox    int    `json:"totalOutbox"`
	LastImport     string `json:"lastImport,omitempty"`
}

// GetStats returns current database statistics for one owner
func (db *DB) GetStats(owner string) (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow("SELECT COUNT(*) FROM cases WHERE owner = ?", owner).Scan(&stats.TotalCases)
	if err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM engineers WHERE owner = ?", owner).Scan(&stats.TotalEngineers)
	if err != nil {
		return nil, fmt.Errorf("failed to count engineers: %w", err)
	}

	stats.TotalOutbox, err = db.CountOutbox(owner)
	if err != nil {
		return nil, err
	}

	stats.LastImport, err = db.GetSetting(SettingLastImport)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// SettingLastImport records when the importer last finished.
const SettingLastImport = "last_import_at"
