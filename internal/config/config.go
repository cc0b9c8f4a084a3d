package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/felo/case-outreach/internal/crm"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig   `toml:"server"`
	Data      DataConfig     `toml:"data"`
	Session   SessionConfig  `toml:"session"`
	Mail      MailConfig     `toml:"mail"`
	Templates []crm.Template `toml:"templates"`

	// Computed (not from config file)
	HomeDir string `toml:"-"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

// DataConfig holds storage settings
type DataConfig struct {
	DBPath     string `toml:"db_path"`
	ImportPath string `toml:"import_path"` // root directory of .eml job postings
}

// SessionConfig holds outreach screen settings
type SessionConfig struct {
	Owner    string `toml:"owner"` // tenant partition the session works in
	PageSize int    `toml:"page_size"`
}

// MailConfig holds settings for the simulated sender
type MailConfig struct {
	FromAddress   string   `toml:"from_address"`
	FromName      string   `toml:"from_name"`
	TestAddress   string   `toml:"test_address"` // empty sends tests to from_address
	SendDelay     Duration `toml:"send_delay"`
	RatePerSecond float64  `toml:"rate_per_second"` // 0 disables pacing
	Workers       int      `toml:"workers"`
}

// Duration decodes TOML strings such as "1500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultHome returns the data directory, honouring CASE_OUTREACH_HOME.
func DefaultHome() string {
	if h := os.Getenv("CASE_OUTREACH_HOME"); h != "" {
		return h
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".case-outreach")
}

// Default returns default configuration
func Default() *Config {
	dataDir := DefaultHome()

	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
		Data: DataConfig{
			DBPath:     filepath.Join(dataDir, "crm.db"),
			ImportPath: "./postings",
		},
		Session: SessionConfig{
			Owner:    "default",
			PageSize: 10,
		},
		Mail: MailConfig{
			FromAddress:   "sales@example.com",
			FromName:      "営業担当",
			SendDelay:     Duration{1500 * time.Millisecond},
			RatePerSecond: 0,
			Workers:       4,
		},
		HomeDir: dataDir,
	}
}

// Load reads the configuration file over the defaults.
// If path is empty, uses <home>/config.toml; a missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.HomeDir, "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	cfg.Data.DBPath = expandPath(cfg.Data.DBPath)
	cfg.Data.ImportPath = expandPath(cfg.Data.ImportPath)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Session.PageSize < 1 {
		return fmt.Errorf("session.page_size must be positive, got %d", c.Session.PageSize)
	}
	if c.Mail.Workers < 1 {
		return fmt.Errorf("mail.workers must be positive, got %d", c.Mail.Workers)
	}
	if c.Mail.RatePerSecond < 0 {
		return fmt.Errorf("mail.rate_per_second must not be negative")
	}
	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// expandPath expands a leading ~ to the user's home directory
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
