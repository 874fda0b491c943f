/*
Package config loads the service configuration.

SOURCES (later wins):
  1. Built-in defaults
  2. Optional YAML/TOML/JSON file given with --config
  3. A .env file in the working directory, if present
  4. Environment variables prefixed STOCK_, with "." replaced by "_"
     (store.driver -> STOCK_STORE_DRIVER)

KEYS:
  app.env                  "dev" enables the development logger
  app.timezone             IANA zone used for sale stamps and cron
  http.addr                listen address
  http.allowed_origins     CORS origins, comma separated in env
  store.driver             memory | csv | sqlite | sheets
  store.dir                csv directory
  store.sqlite_path        sqlite database file
  sheets.credentials_path  service account key
  sheets.spreadsheet_id    target spreadsheet
  metrics.enabled          expose /metrics
  scheduler.export_cron    nightly export spec, empty disables
  scheduler.summary_cron   daily summary spec, empty disables
  scheduler.export_dir     where exports are written
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
	DriverSheets = "sheets"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr           string
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"http"`

	Store struct {
		Driver     string
		Dir        string
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"store"`

	Sheets struct {
		CredentialsPath string `mapstructure:"credentials_path"`
		SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	} `mapstructure:"sheets"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Scheduler struct {
		ExportCron  string `mapstructure:"export_cron"`
		SummaryCron string `mapstructure:"summary_cron"`
		ExportDir   string `mapstructure:"export_dir"`
	} `mapstructure:"scheduler"`
}

var defaults = map[string]any{
	"app.env":                 "prod",
	"app.timezone":            "Local",
	"http.addr":               ":8080",
	"http.allowed_origins":    []string{"http://localhost:5173", "http://localhost:8080"},
	"store.driver":            DriverCSV,
	"store.dir":               "data",
	"store.sqlite_path":       "stock.db",
	"sheets.credentials_path": "",
	"sheets.spreadsheet_id":   "",
	"metrics.enabled":         true,
	"scheduler.export_cron":   "0 23 * * *",
	"scheduler.summary_cron":  "0 20 * * *",
	"scheduler.export_dir":    "exports",
}

// Load reads the configuration. path may be empty.
func Load(path string) (Config, error) {
	// A missing .env is fine: configuration may come from the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed loading .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("STOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the fields the selected driver needs.
func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must be provided")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverCSV:
		if c.Store.Dir == "" {
			return errors.New("store.dir must be provided for the csv driver")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path must be provided for the sqlite driver")
		}
	case DriverSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("sheets.credentials_path must be provided for the sheets driver")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("sheets.spreadsheet_id must be provided for the sheets driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (use memory, csv, sqlite or sheets)", c.Store.Driver)
	}

	if c.Scheduler.ExportCron != "" && c.Scheduler.ExportDir == "" {
		return errors.New("scheduler.export_dir must be provided when scheduler.export_cron is set")
	}
	return nil
}

// Location resolves app.timezone.
func (c Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.App.Timezone)
}

// IsDev reports whether the development logger should be used.
func (c Config) IsDev() bool {
	return c.App.Env == "dev"
}
