package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendXLSX   = "xlsx"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// StoreConfig selects and locates the registration store.
type StoreConfig struct {
	// Backend is one of "xlsx", "sheets" or "sqlite".
	Backend string `env:"BACKEND" envDefault:"xlsx"`

	// Path is the workbook or database file. Empty means the backend default.
	Path string `env:"PATH"`
}

// SheetsConfig is only read when the sheets backend is selected.
type SheetsConfig struct {
	SpreadsheetID            string `env:"GOOGLE_SHEETS_SPREADSHEET_ID"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	Sheet                    string `env:"GOOGLE_SHEETS_SHEET" envDefault:"Participants"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" and "error".
	Level string `env:"LEVEL" envDefault:"info"`

	// Format is one of "text", "json" and "logfmt".
	Format string `env:"FORMAT" envDefault:"text"`
}

type Config struct {
	EventName string `env:"EVENT_NAME" envDefault:"Hack4Bengal Season 4"`

	Store  StoreConfig `envPrefix:"STORE_"`
	Sheets SheetsConfig
	Log    LogConfig `envPrefix:"LOG_"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// TelegramToken enables the chat form when set.
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`

	MaxTeamMembers   int `env:"MAX_TEAM_MEMBERS" envDefault:"4"`
	SessionCacheSize int `env:"SESSION_CACHE_SIZE" envDefault:"1024"`
}

// FromEnv parses the environment into a Config and validates it.
func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendXLSX, BackendSQLite:
	case BackendSheets:
		if strings.TrimSpace(c.Sheets.SpreadsheetID) == "" {
			return fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is empty")
		}
		if strings.TrimSpace(c.Sheets.GoogleServiceAccountJSON) == "" {
			return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is empty")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
	if c.MaxTeamMembers < 1 {
		return fmt.Errorf("MAX_TEAM_MEMBERS must be positive, got %d", c.MaxTeamMembers)
	}
	if c.SessionCacheSize < 1 {
		return fmt.Errorf("SESSION_CACHE_SIZE must be positive, got %d", c.SessionCacheSize)
	}
	return nil
}
