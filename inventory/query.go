package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LISTINGS
// =============================================================================

// Listing is a snapshot of one store.
type Listing struct {
	Store         StoreName
	Records       []Record
	TotalQuantity int
}

func (e *Engine) list(ctx context.Context, name StoreName) (Listing, error) {
	var out Listing
	err := e.repo.View(ctx, func(tx *Tx) error {
		rows, err := tx.Records(name)
		if err != nil {
			return err
		}
		out = Listing{Store: name, Records: rows, TotalQuantity: sumQuantity(rows)}
		return nil
	})
	return out, err
}

// Inventory lists the aggregate stock.
func (e *Engine) Inventory(ctx context.Context) (Listing, error) {
	return e.list(ctx, StoreAvailable)
}

// Units lists the unit register.
func (e *Engine) Units(ctx context.Context) (Listing, error) {
	return e.list(ctx, StoreUnits)
}

// Service lists units under repair.
func (e *Engine) Service(ctx context.Context) (Listing, error) {
	return e.list(ctx, StoreService)
}

// Finished lists units whose repair is done.
func (e *Engine) Finished(ctx context.Context) (Listing, error) {
	return e.list(ctx, StoreFinished)
}

// Sellable lists aggregate rows whose model or brand equals search, ignoring
// case. An empty search returns every row.
func (e *Engine) Sellable(ctx context.Context, search string) (Listing, error) {
	l, err := e.Inventory(ctx)
	if err != nil {
		return Listing{}, err
	}
	q := strings.ToLower(canonicalText(search))
	if q == "" {
		return l, nil
	}
	var rows []Record
	for _, r := range l.Records {
		if strings.ToLower(r.Model) == q || strings.ToLower(r.Brand) == q {
			rows = append(rows, r)
		}
	}
	return Listing{Store: StoreAvailable, Records: rows, TotalQuantity: sumQuantity(rows)}, nil
}

// =============================================================================
// SALES
// =============================================================================

// SalesReport is the sold ledger with the running total.
type SalesReport struct {
	Records []Record
	Total   decimal.Decimal
}

// Sold returns the sold ledger and running total read under one lock.
func (e *Engine) Sold(ctx context.Context) (SalesReport, error) {
	var out SalesReport
	err := e.repo.View(ctx, func(tx *Tx) error {
		rows, err := tx.Records(StoreSold)
		if err != nil {
			return err
		}
		total, err := tx.Total()
		if err != nil {
			return err
		}
		out = SalesReport{Records: rows, Total: total}
		return nil
	})
	return out, err
}

// TotalSales returns the running revenue total.
func (e *Engine) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := e.repo.View(ctx, func(tx *Tx) error {
		t, err := tx.Total()
		total = t
		return err
	})
	return total, err
}

// =============================================================================
// LOOKUP
// =============================================================================

// Located is a record together with the store it was found in.
type Located struct {
	Record Record
	Store  StoreName
}

// FindBySerial returns the first record holding serial, searching Available,
// Service and Finished in that order.
func (e *Engine) FindBySerial(ctx context.Context, serial string) (Located, error) {
	serial = CanonicalSerial(serial)
	var out Located
	err := e.repo.View(ctx, func(tx *Tx) error {
		rec, store, err := findBySerial(tx, serial)
		if err != nil {
			return err
		}
		out = Located{Record: rec, Store: store}
		return nil
	})
	return out, err
}

// Catalog maps each brand in stock to its sorted, distinct models.
func (e *Engine) Catalog(ctx context.Context) (map[string][]string, error) {
	l, err := e.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]map[string]bool)
	for _, r := range l.Records {
		if seen[r.Brand] == nil {
			seen[r.Brand] = make(map[string]bool)
		}
		seen[r.Brand][r.Model] = true
	}
	out := make(map[string][]string, len(seen))
	for brand, models := range seen {
		list := make([]string, 0, len(models))
		for m := range models {
			list = append(list, m)
		}
		sort.Strings(list)
		out[brand] = list
	}
	return out, nil
}

// Snapshot reads every store and the total under one shared lock.
type Snapshot struct {
	Stores map[StoreName][]Record
	Total  decimal.Decimal
}

// Snapshot returns a consistent copy of the whole store set.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	out := Snapshot{Stores: make(map[StoreName][]Record, len(AllStores))}
	err := e.repo.View(ctx, func(tx *Tx) error {
		for _, name := range AllStores {
			rows, err := tx.Records(name)
			if err != nil {
				return err
			}
			out.Stores[name] = rows
		}
		t, err := tx.Total()
		out.Total = t
		return err
	})
	return out, err
}
