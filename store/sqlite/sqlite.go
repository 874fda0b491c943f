/*
Package sqlite provides a SQLite-backed implementation of inventory.TxStore.

PURPOSE:
  Keeps every record store in one table, partitioned by store name, plus
  a single-row table for the running total. Because all stores live in
  one database, a whole transition commits in one SQL transaction.

KEY TABLES:
  records:  One row per record, keyed by (store, position)
  totals:   The running sales total (single row, id = 1)

ORDERING:
  Stores are ordered lists. Position is the index at save time and Load
  returns rows ordered by it, so a round trip preserves order.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single connection so that
  ":memory:" databases are shared by every query.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/stock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := inventory.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/stock-engine/inventory"
)

// Store implements inventory.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		store TEXT NOT NULL,
		position INTEGER NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		serial TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		box INTEGER NOT NULL DEFAULT 0,
		charger INTEGER NOT NULL DEFAULT 0,
		bought_price TEXT NOT NULL DEFAULT '',
		sell_price TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		customer_name TEXT NOT NULL DEFAULT '',
		customer_number TEXT NOT NULL DEFAULT '',
		sale_date TEXT NOT NULL DEFAULT '',
		sale_time TEXT NOT NULL DEFAULT '',
		service_price TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (store, position)
	);

	-- Serial lookups (edit, finish, move to inventory)
	CREATE INDEX IF NOT EXISTS idx_records_store_serial
		ON records(store, serial);

	CREATE TABLE IF NOT EXISTS totals (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// RECORD STORE (inventory.RecordStore interface)
// =============================================================================

// Load returns every record of a store in saved order.
func (s *Store) Load(ctx context.Context, name inventory.StoreName) ([]inventory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT brand, serial, model, box, charger, bought_price, sell_price,
		       category, notes, quantity, customer_name, customer_number,
		       sale_date, sale_time, service_price
		FROM records
		WHERE store = ?
		ORDER BY position ASC
	`, string(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []inventory.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (inventory.Record, error) {
	var (
		r        inventory.Record
		category string
	)
	err := rows.Scan(
		&r.Brand, &r.Serial, &r.Model, &r.Box, &r.Charger, &r.BoughtPrice, &r.SellPrice,
		&category, &r.Notes, &r.Quantity, &r.CustomerName, &r.CustomerNumber,
		&r.SaleDate, &r.SaleTime, &r.ServicePrice,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}
	r.Category = inventory.Category(category)
	return r, nil
}

// Save replaces a store.
func (s *Store) Save(ctx context.Context, name inventory.StoreName, records []inventory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := replaceStore(ctx, sqlTx, name, records); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func replaceStore(ctx context.Context, db execer, name inventory.StoreName, records []inventory.Record) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM records WHERE store = ?", string(name)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", name, err)
	}

	query := `
		INSERT INTO records
		(store, position, brand, serial, model, box, charger, bought_price, sell_price,
		 category, notes, quantity, customer_name, customer_number, sale_date, sale_time, service_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, r := range records {
		_, err := db.ExecContext(ctx, query,
			string(name), i,
			r.Brand, r.Serial, r.Model, r.Box, r.Charger, r.BoughtPrice, r.SellPrice,
			string(r.Category), r.Notes, r.Quantity, r.CustomerName, r.CustomerNumber,
			r.SaleDate, r.SaleTime, r.ServicePrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", name, err)
		}
	}
	return nil
}

// LoadTotal returns the running total, zero if never saved.
func (s *Store) LoadTotal(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM totals WHERE id = 1").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read total: %w", err)
	}
	return inventory.ParseTotal(value), nil
}

// SaveTotal replaces the running total.
func (s *Store) SaveTotal(ctx context.Context, total decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTotal(ctx, s.db, total)
}

func saveTotal(ctx context.Context, db execer, total decimal.Decimal) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO totals (id, value, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, total.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save total: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (inventory.TxStore interface)
// =============================================================================

// Commit writes a whole changeset in one database transaction.
func (s *Store) Commit(ctx context.Context, cs inventory.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, name := range cs.Names() {
		if err := replaceStore(ctx, sqlTx, name, cs.Stores[name]); err != nil {
			return err
		}
	}
	if cs.Total != nil {
		if err := saveTotal(ctx, sqlTx, *cs.Total); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"records", "totals"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
