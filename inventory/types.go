/*
Package inventory provides the phone stock lifecycle engine.

PURPOSE:
  Tracks physical phones through the states Available, Service, Finished
  and Sold while keeping two views of stock consistent:
  - Aggregate view: one row per variant with a Quantity count
  - Individual view: one row per physical unit, identified by Serial

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: a single persisted row, shared by every store
  - Category: the lifecycle state a record is in
  - StoreName: the named stores the engine reads and writes

STORES:
  inventory    Aggregate rows (Serial "0") and units returned from service
  phones       Register of every unsold unit the shop owns
  services     Units currently being repaired
  finished     Units whose repair is done
  sold_phones  Append-only sales ledger
  total_sales  Running revenue total (not a record store)

SEE ALSO:
  - key.go: Variant identity
  - engine.go: Transition orchestration
  - repository.go: Transaction boundary
*/
package inventory

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY - Lifecycle state of a record
// =============================================================================

type Category string

const (
	CategoryAvailable Category = "available"
	CategoryService   Category = "service"
	CategoryFinished  Category = "finished"
	CategorySold      Category = "sold"
)

// PlaceholderSerial marks aggregate rows, which stand for many units.
const PlaceholderSerial = "0"

// =============================================================================
// STORE NAMES
// =============================================================================

type StoreName string

const (
	StoreAvailable StoreName = "inventory"
	StoreUnits     StoreName = "phones"
	StoreService   StoreName = "services"
	StoreFinished  StoreName = "finished"
	StoreSold      StoreName = "sold_phones"

	// StoreTotal names the running total in logs and errors.
	StoreTotal StoreName = "total_sales"
)

// StateStores are searched in this order when looking a record up by serial.
var StateStores = []StoreName{StoreAvailable, StoreService, StoreFinished}

// AllStores lists every record store, in commit order.
var AllStores = []StoreName{StoreAvailable, StoreUnits, StoreService, StoreFinished, StoreSold}

// =============================================================================
// RECORD - One persisted row
// =============================================================================

// Record is the superset row stored by every record store. Which fields are
// meaningful depends on the store:
//
//   - inventory: variant rows carry Quantity >= 1 and Serial "0"
//   - phones, services, finished: Quantity is always 1
//   - sold_phones: buyer and sale timestamp fields are set
//
// Prices are kept as the text that was entered. SellPrice is part of the
// variant identity, so "100" and "100.0" are different variants.
type Record struct {
	Brand       string
	Serial      string
	Model       string
	Box         bool
	Charger     bool
	BoughtPrice string
	SellPrice   string
	Category    Category
	Notes       string
	Quantity    int

	CustomerName   string
	CustomerNumber string
	SaleDate       string
	SaleTime       string
	ServicePrice   string
}

// Key returns the variant identity of the record.
func (r Record) Key() VariantKey { return KeyOf(r) }

// IsAggregate reports whether the record is a placeholder-serial variant row.
func (r Record) IsAggregate() bool { return r.Serial == PlaceholderSerial }

// HasSerial reports whether the record identifies one physical unit.
func (r Record) HasSerial() bool { return r.Serial != "" && r.Serial != PlaceholderSerial }

// SellPriceValue parses SellPrice. ok is false when the text is not a number.
func (r Record) SellPriceValue() (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(r.SellPrice)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// asUnit returns a single-unit copy of r with the given serial.
func (r Record) asUnit(serial string) Record {
	u := r
	u.Serial = serial
	u.Quantity = 1
	return u
}

func cloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	copy(out, in)
	return out
}
