/*
store.go - Persistence interface for record stores

PURPOSE:
  Defines the boundary between the lifecycle engine and persistence.
  A RecordStore reads and writes whole named lists of records; it knows
  nothing about variants, serials or states.

KEY INTERFACES:
  RecordStore: Load/Save one named store, plus the running total
  TxStore:     Commit several stores in one all-or-nothing step

CONTRACT:
  - Load returns the full list for a store (empty, never an error, when
    the store has no rows yet)
  - Save overwrites the full list
  - No partial-write guarantees are assumed from a plain RecordStore

ATOMIC COMMITS:
  A transition such as a sale touches the aggregate store, the unit
  register, the sold ledger and the running total. Backends that can write
  all of these at once implement TxStore. The Repository falls back to
  sequential saves with compensation for plain RecordStores.

IMPLEMENTATIONS:
  - inventory/store/memory.go: In-memory, for tests and dev
  - store/csvfile: CSV files in the original column layout
  - store/sqlite: SQLite, one table holding every store
  - store/sheets: Google Sheets, one tab per store

SEE ALSO:
  - repository.go: Staging and commit
  - columns.go: Column layout shared by file-based backends
*/
package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD STORE - Interface for named record lists
// =============================================================================

type RecordStore interface {
	// Load returns every record of the named store, in stored order.
	Load(ctx context.Context, name StoreName) ([]Record, error)

	// Save replaces the named store with records.
	Save(ctx context.Context, name StoreName, records []Record) error

	// LoadTotal returns the running sales total.
	LoadTotal(ctx context.Context) (decimal.Decimal, error)

	// SaveTotal replaces the running sales total.
	SaveTotal(ctx context.Context, total decimal.Decimal) error
}

// =============================================================================
// TRANSACTIONAL STORE - For one-shot multi-store writes
// =============================================================================

// Changeset is the staged output of one transition.
type Changeset struct {
	Stores map[StoreName][]Record
	Total  *decimal.Decimal // nil when the total did not change
}

// Names returns the changed store names in commit order.
func (c Changeset) Names() []StoreName {
	var names []StoreName
	for _, n := range AllStores {
		if _, ok := c.Stores[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Empty reports whether nothing was changed.
func (c Changeset) Empty() bool {
	return len(c.Stores) == 0 && c.Total == nil
}

// TxStore is a RecordStore that persists a whole Changeset in one call.
// Implementations should write every store or none; one that cannot must
// log what it left half-written.
type TxStore interface {
	RecordStore
	Commit(ctx context.Context, cs Changeset) error
}
