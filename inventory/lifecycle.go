/*
lifecycle.go - State transitions of the lifecycle engine

PURPOSE:
  Implements every transition as a single staged transaction. Each
  function follows the same shape:
  1. Canonicalize the request
  2. Load the stores it needs
  3. Validate everything (not found, stock, serial exclusivity)
  4. Mutate the staged copies
  5. Stage the changed stores; Repository.Update commits them

SERIAL EXCLUSIVITY:
  A real serial lives in at most one of Available, Service, Finished and
  the sold ledger. The unit register (phones) mirrors where each owned
  unit currently is. Intake and walk-in service refuse serials that are
  already tracked anywhere. Remove, send and sell only accept a serial
  that is an available unit of the variant being moved.

TRANSITIONS:
  Intake            ∅ → Available
  RemoveOne         Available → ∅ (one unit written off)
  SendToService     Available → Service
  WalkInService     ∅ → Service (customer-owned phone)
  FinishService     Service → Finished
  MoveToInventory   Finished → Available
  SellUnits         Available → Sold
  Edit              any of Available/Service/Finished → any of them
*/
package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// REQUESTS
// =============================================================================

// IntakeRequest adds new stock. One serial per physical unit.
type IntakeRequest struct {
	Brand       string
	Model       string
	Box         bool
	Charger     bool
	BoughtPrice string
	SellPrice   string
	Notes       string
	Serials     []string
}

// RemoveRequest writes off one unit of a variant. Serial, when set, also
// retires that unit from the register.
type RemoveRequest struct {
	Variant VariantKey
	Serial  string
}

// SendToServiceRequest moves one unit of a variant into service. Serial,
// when set, names the physical unit being sent.
type SendToServiceRequest struct {
	Variant VariantKey
	Serial  string
}

// WalkInRequest books a customer's phone in for repair.
type WalkInRequest struct {
	Brand          string
	Model          string
	Serial         string
	Notes          string
	CustomerName   string
	CustomerNumber string
	ServicePrice   string
}

// SellRequest sells len(Serials) units of one variant. The variant is
// located by Variant when set, otherwise by the real Serial of its row.
type SellRequest struct {
	Variant *VariantKey
	Serial  string
	Serials []string
	Buyer   Buyer
}

// EditRequest overwrites fields of the record holding Serial. Nil fields
// are left alone. Category, when set, moves the record to that state.
type EditRequest struct {
	Serial string

	Brand          *string
	Model          *string
	Box            *bool
	Charger        *bool
	BoughtPrice    *string
	SellPrice      *string
	Notes          *string
	Quantity       *int
	CustomerName   *string
	CustomerNumber *string
	ServicePrice   *string

	Category string
}

// =============================================================================
// INTAKE
// =============================================================================

// Intake merges the units into the matching variant row (or creates one)
// and registers one unit record per serial.
func (e *Engine) Intake(ctx context.Context, req IntakeRequest) (Result, error) {
	variant := Record{
		Brand:       canonicalText(req.Brand),
		Model:       CanonicalModel(req.Model),
		Box:         req.Box,
		Charger:     req.Charger,
		BoughtPrice: strings.TrimSpace(req.BoughtPrice),
		SellPrice:   strings.TrimSpace(req.SellPrice),
		Category:    CategoryAvailable,
		Notes:       req.Notes,
	}
	serials := canonicalSerials(req.Serials)
	if len(serials) == 0 {
		return Result{}, &InvalidQuantityError{Value: "0", Reason: "at least one serial is required"}
	}

	var res Result
	id, err := e.repo.Update(ctx, "intake", func(tx *Tx) error {
		if err := ensureSerialsFree(tx, serials); err != nil {
			return err
		}
		stock, err := loadStock(tx)
		if err != nil {
			return err
		}
		units, err := loadUnits(tx)
		if err != nil {
			return err
		}

		row, merged, err := stock.Intake(variant, len(serials))
		if err != nil {
			return err
		}
		added, err := units.AppendUnits(variant, serials)
		if err != nil {
			return err
		}
		tx.Set(StoreAvailable, stock.Records())
		tx.Set(StoreUnits, units.Records())

		if merged {
			res.Message = fmt.Sprintf("Quantity for %s updated to %d!", row.Model, row.Quantity)
		} else {
			res.Message = fmt.Sprintf("New product (%s) added successfully!", row.Model)
		}
		res.Records = append([]Record{row}, added...)
		return nil
	})
	res.CommitID = id
	return res, err
}

// =============================================================================
// REMOVE ONE
// =============================================================================

// RemoveOne writes off a single unit of a variant.
func (e *Engine) RemoveOne(ctx context.Context, req RemoveRequest) (Result, error) {
	serial := CanonicalSerial(req.Serial)

	var res Result
	id, err := e.repo.Update(ctx, "remove", func(tx *Tx) error {
		stock, err := loadStock(tx)
		if err != nil {
			return err
		}
		var units *UnitLedger
		if serial != "" {
			if units, err = loadUnits(tx); err != nil {
				return err
			}
			if !units.Contains(serial) {
				return &NotFoundError{What: "serial", Key: serial, Store: StoreUnits}
			}
			if err := ensureUnitOf(tx, units, stock, req.Variant, serial); err != nil {
				return err
			}
		}

		dec, err := stock.DecrementOne(req.Variant)
		if err != nil {
			return err
		}
		if serial != "" {
			releaseSerial(stock, req.Variant, serial)
		}
		tx.Set(StoreAvailable, stock.Records())
		if units != nil {
			if _, err := units.RemoveBySerial(serial); err != nil {
				return err
			}
			tx.Set(StoreUnits, units.Records())
		}

		if dec.Removed {
			res.Message = fmt.Sprintf("The last unit of %s has been deleted.", dec.Record.Model)
		} else {
			res.Message = fmt.Sprintf("One unit of %s has been removed.", dec.Record.Model)
		}
		res.Records = []Record{dec.Record}
		return nil
	})
	res.CommitID = id
	return res, err
}

// =============================================================================
// SERVICE
// =============================================================================

// SendToService takes one unit of a variant out of Available. If the row
// holds more than one unit a single-unit service record is split off;
// otherwise the whole row moves.
func (e *Engine) SendToService(ctx context.Context, req SendToServiceRequest) (Result, error) {
	serial := CanonicalSerial(req.Serial)

	var res Result
	id, err := e.repo.Update(ctx, "send_to_service", func(tx *Tx) error {
		stock, err := loadStock(tx)
		if err != nil {
			return err
		}
		i := stock.Find(req.Variant)
		if i < 0 {
			return &NotFoundError{What: "variant", Key: req.Variant.String(), Store: StoreAvailable}
		}
		units, err := loadUnits(tx)
		if err != nil {
			return err
		}
		if serial != "" {
			if err := ensureUnitOf(tx, units, stock, req.Variant, serial); err != nil {
				return err
			}
		}

		var moved Record
		if stock.rows[i].Quantity > 1 {
			dec, err := stock.decrementAt(i, 1)
			if err != nil {
				return err
			}
			moved = dec.Record.asUnit(dec.Record.Serial)
		} else {
			moved = stock.removeAt(i)
		}
		if serial != "" {
			moved.Serial = serial
		}
		moved.Quantity = 1
		moved.Category = CategoryService
		if moved.HasSerial() {
			releaseSerial(stock, req.Variant, moved.Serial)
		}

		service, err := tx.Records(StoreService)
		if err != nil {
			return err
		}
		tx.Set(StoreService, append(service, moved))
		tx.Set(StoreAvailable, stock.Records())
		if moved.HasSerial() && units.SetCategory(moved.Serial, CategoryService) {
			tx.Set(StoreUnits, units.Records())
		}

		res.Message = fmt.Sprintf("Phone %s has been sent to service.", moved.Model)
		res.Records = []Record{moved}
		return nil
	})
	res.CommitID = id
	return res, err
}

// WalkInService books a phone the shop does not own into service.
func (e *Engine) WalkInService(ctx context.Context, req WalkInRequest) (Result, error) {
	rec := Record{
		Brand:          canonicalText(req.Brand),
		Serial:         CanonicalSerial(req.Serial),
		Model:          CanonicalModel(req.Model),
		Category:       CategoryService,
		Notes:          req.Notes,
		Quantity:       1,
		CustomerName:   req.CustomerName,
		CustomerNumber: req.CustomerNumber,
		ServicePrice:   strings.TrimSpace(req.ServicePrice),
	}
	if !rec.HasSerial() {
		return Result{}, &InvalidQuantityError{Value: req.Serial, Reason: "a serial is required"}
	}

	var res Result
	id, err := e.repo.Update(ctx, "walk_in_service", func(tx *Tx) error {
		if err := ensureSerialsFree(tx, []string{rec.Serial}); err != nil {
			return err
		}
		service, err := tx.Records(StoreService)
		if err != nil {
			return err
		}
		tx.Set(StoreService, append(service, rec))
		res.Message = fmt.Sprintf("Phone (%s) added to service successfully!", rec.Model)
		res.Records = []Record{rec}
		return nil
	})
	res.CommitID = id
	return res, err
}

// FinishService moves the service record holding serial to Finished
// unchanged. The store it sits in, and the register, carry its state.
func (e *Engine) FinishService(ctx context.Context, serial string) (Result, error) {
	serial = CanonicalSerial(serial)

	var res Result
	id, err := e.repo.Update(ctx, "finish_service", func(tx *Tx) error {
		rec, err := moveBySerial(tx, serial, StoreService, StoreFinished)
		if err != nil {
			return err
		}
		if err := syncUnitCategory(tx, rec.Serial, CategoryFinished); err != nil {
			return err
		}
		res.Message = fmt.Sprintf("Service for %s has been marked as finished.", rec.Model)
		res.Records = []Record{rec}
		return nil
	})
	res.CommitID = id
	return res, err
}

// MoveToInventory returns a finished unit to Available, merging it into a
// matching variant row when one exists.
func (e *Engine) MoveToInventory(ctx context.Context, serial string) (Result, error) {
	serial = CanonicalSerial(serial)

	var res Result
	id, err := e.repo.Update(ctx, "move_to_inventory", func(tx *Tx) error {
		finished, err := tx.Records(StoreFinished)
		if err != nil {
			return err
		}
		i := indexBySerial(finished, serial)
		if i < 0 {
			return &NotFoundError{What: "serial", Key: serial, Store: StoreFinished}
		}
		rec := finished[i]
		rec.Category = CategoryAvailable

		stock, err := loadStock(tx)
		if err != nil {
			return err
		}
		qty := rec.Quantity
		if qty < 1 {
			qty = 1
		}
		row, _, err := stock.Intake(rec, qty)
		if err != nil {
			return err
		}

		tx.Set(StoreFinished, append(finished[:i:i], finished[i+1:]...))
		tx.Set(StoreAvailable, stock.Records())
		if rec.HasSerial() {
			units, err := loadUnits(tx)
			if err != nil {
				return err
			}
			units.Upsert(rec)
			tx.Set(StoreUnits, units.Records())
		}

		res.Message = fmt.Sprintf("Phone %s has been moved back to inventory.", rec.Model)
		res.Records = []Record{rec, row}
		return nil
	})
	res.CommitID = id
	return res, err
}

// =============================================================================
// SELL
// =============================================================================

// SellUnits sells one unit per buyer-supplied serial. The quantity check
// runs before anything is staged; on success the aggregate row, the unit
// register, the sold ledger and the running total are committed together.
func (e *Engine) SellUnits(ctx context.Context, req SellRequest) (Result, error) {
	serials := canonicalSerials(req.Serials)
	if len(serials) == 0 {
		return Result{}, &InvalidQuantityError{Value: "0", Reason: "at least one serial is required"}
	}
	lookup := CanonicalSerial(req.Serial)

	var res Result
	id, err := e.repo.Update(ctx, "sell", func(tx *Tx) error {
		stock, err := loadStock(tx)
		if err != nil {
			return err
		}
		i := -1
		switch {
		case req.Variant != nil:
			i = stock.Find(*req.Variant)
		case lookup != "" && lookup != PlaceholderSerial:
			i = stock.FindSerial(lookup)
		}
		if i < 0 {
			key := lookup
			if req.Variant != nil {
				key = req.Variant.String()
			}
			return &NotFoundError{What: "product", Key: key, Store: StoreAvailable}
		}
		row := stock.rows[i]
		if len(serials) > row.Quantity {
			return &InsufficientStockError{Variant: row.Key(), Available: row.Quantity, Requested: len(serials)}
		}

		units, err := loadUnits(tx)
		if err != nil {
			return err
		}
		if err := ensureSellable(tx, units, stock, row.Key(), serials); err != nil {
			return err
		}
		soldRows, err := tx.Records(StoreSold)
		if err != nil {
			return err
		}
		total, err := tx.Total()
		if err != nil {
			return err
		}

		if _, err := stock.decrementAt(i, len(serials)); err != nil {
			return err
		}
		releaseSerial(stock, row.Key(), serials...)
		ledger := NewSalesLedger(soldRows, total)
		out := ledger.Record(row, serials, req.Buyer, e.now())
		unitsChanged := false
		for _, s := range serials {
			if units.Contains(s) {
				if _, err := units.RemoveBySerial(s); err != nil {
					return err
				}
				unitsChanged = true
			}
		}

		tx.Set(StoreAvailable, stock.Records())
		tx.Set(StoreSold, ledger.Records())
		if unitsChanged {
			tx.Set(StoreUnits, units.Records())
		}
		tx.SetTotal(ledger.Total())

		if out.Skipped > 0 {
			e.logger.Warn("sell price not numeric, running total not increased",
				zap.String("model", row.Model),
				zap.String("sell_price", row.SellPrice),
				zap.Int("units", out.Skipped))
		}
		res.Message = fmt.Sprintf("Sale confirmed for %d phones to %s.", len(serials), req.Buyer.Name)
		res.Records = out.Sold
		res.Total = ledger.Total()
		return nil
	})
	res.CommitID = id
	return res, err
}

// =============================================================================
// EDIT
// =============================================================================

// Edit overwrites fields of the record holding serial and optionally moves
// it to another state. An unrecognised category is rejected before any
// change is staged.
func (e *Engine) Edit(ctx context.Context, req EditRequest) (Result, error) {
	serial := CanonicalSerial(req.Serial)
	var dest Category
	if strings.TrimSpace(req.Category) != "" {
		c, ok := ParseCategory(req.Category)
		if !ok {
			return Result{}, &UnknownCategoryError{Category: req.Category}
		}
		dest = c
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		return Result{}, &InvalidQuantityError{Value: strconv.Itoa(*req.Quantity), Reason: "must be positive"}
	}

	var res Result
	id, err := e.repo.Update(ctx, "edit", func(tx *Tx) error {
		rec, src, err := findBySerial(tx, serial)
		if err != nil {
			return err
		}
		applyEdit(&rec, req)
		if dest == "" {
			dest = categoryOf(src)
		}
		rec.Category = dest
		dst := storeFor(dest)

		rows, err := tx.Records(src)
		if err != nil {
			return err
		}
		i := indexBySerial(rows, serial)
		rows = append(rows[:i:i], rows[i+1:]...)

		var placed Record
		switch {
		case dst == StoreAvailable:
			if src != StoreAvailable {
				tx.Set(src, rows)
				if rows, err = tx.Records(StoreAvailable); err != nil {
					return err
				}
			}
			stock := NewAggregateStock(rows)
			if src == StoreAvailable && stock.Find(rec.Key()) < 0 {
				// No other row shares the new key: keep the row in place.
				stock.rows = insertAt(stock.rows, i, rec)
				placed = rec
			} else if placed, _, err = stock.Intake(rec, rec.Quantity); err != nil {
				return err
			}
			tx.Set(StoreAvailable, stock.Records())
		case dst == src:
			rows = insertAt(rows, i, rec)
			tx.Set(src, rows)
			placed = rec
		default:
			tx.Set(src, rows)
			target, err := tx.Records(dst)
			if err != nil {
				return err
			}
			tx.Set(dst, append(target, rec))
			placed = rec
		}

		if rec.HasSerial() {
			units, err := loadUnits(tx)
			if err != nil {
				return err
			}
			// Entering Available registers the unit, as MoveToInventory does.
			if units.Contains(rec.Serial) || (dst == StoreAvailable && src != StoreAvailable) {
				units.Upsert(rec)
				tx.Set(StoreUnits, units.Records())
			}
		}

		switch {
		case dst == src:
			res.Message = fmt.Sprintf("Phone %s updated.", rec.Model)
		case dst == StoreAvailable:
			res.Message = "Phone moved to Inventory."
		case dst == StoreService:
			res.Message = "Phone moved to Service."
		default:
			res.Message = "Phone marked as Finished."
		}
		res.Records = []Record{placed}
		return nil
	})
	res.CommitID = id
	return res, err
}

func applyEdit(rec *Record, req EditRequest) {
	if req.Brand != nil {
		rec.Brand = canonicalText(*req.Brand)
	}
	if req.Model != nil {
		rec.Model = CanonicalModel(*req.Model)
	}
	if req.Box != nil {
		rec.Box = *req.Box
	}
	if req.Charger != nil {
		rec.Charger = *req.Charger
	}
	if req.BoughtPrice != nil {
		rec.BoughtPrice = strings.TrimSpace(*req.BoughtPrice)
	}
	if req.SellPrice != nil {
		rec.SellPrice = strings.TrimSpace(*req.SellPrice)
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	if req.Quantity != nil {
		rec.Quantity = *req.Quantity
	}
	if req.CustomerName != nil {
		rec.CustomerName = *req.CustomerName
	}
	if req.CustomerNumber != nil {
		rec.CustomerNumber = *req.CustomerNumber
	}
	if req.ServicePrice != nil {
		rec.ServicePrice = strings.TrimSpace(*req.ServicePrice)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func loadStock(tx *Tx) (*AggregateStock, error) {
	rows, err := tx.Records(StoreAvailable)
	if err != nil {
		return nil, err
	}
	return NewAggregateStock(rows), nil
}

func loadUnits(tx *Tx) (*UnitLedger, error) {
	rows, err := tx.Records(StoreUnits)
	if err != nil {
		return nil, err
	}
	return NewUnitLedger(rows), nil
}

func canonicalSerials(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, CanonicalSerial(s))
	}
	return out
}

func indexBySerial(rows []Record, serial string) int {
	for i, r := range rows {
		if r.Serial == serial {
			return i
		}
	}
	return -1
}

func insertAt(rows []Record, i int, rec Record) []Record {
	out := make([]Record, 0, len(rows)+1)
	out = append(out, rows[:i]...)
	out = append(out, rec)
	return append(out, rows[i:]...)
}

func categoryOf(store StoreName) Category {
	switch store {
	case StoreService:
		return CategoryService
	case StoreFinished:
		return CategoryFinished
	case StoreSold:
		return CategorySold
	}
	return CategoryAvailable
}

// findBySerial searches Available, Service and Finished in that order and
// returns the first record carrying serial.
func findBySerial(tx *Tx, serial string) (Record, StoreName, error) {
	for _, name := range StateStores {
		rows, err := tx.Records(name)
		if err != nil {
			return Record{}, "", err
		}
		if i := indexBySerial(rows, serial); i >= 0 {
			return rows[i], name, nil
		}
	}
	return Record{}, "", &NotFoundError{What: "serial", Key: serial}
}

// moveBySerial removes the record holding serial from src and appends it
// to dst as is.
func moveBySerial(tx *Tx, serial string, src, dst StoreName) (Record, error) {
	rows, err := tx.Records(src)
	if err != nil {
		return Record{}, err
	}
	i := indexBySerial(rows, serial)
	if i < 0 {
		return Record{}, &NotFoundError{What: "serial", Key: serial, Store: src}
	}
	rec := rows[i]

	target, err := tx.Records(dst)
	if err != nil {
		return Record{}, err
	}
	tx.Set(src, append(rows[:i:i], rows[i+1:]...))
	tx.Set(dst, append(target, rec))
	return rec, nil
}

func syncUnitCategory(tx *Tx, serial string, c Category) error {
	if serial == "" || serial == PlaceholderSerial {
		return nil
	}
	units, err := loadUnits(tx)
	if err != nil {
		return err
	}
	if units.SetCategory(serial, c) {
		tx.Set(StoreUnits, units.Records())
	}
	return nil
}

// serialLocations maps every real serial currently tracked to the store
// holding it.
func serialLocations(tx *Tx) (map[string]StoreName, error) {
	where := make(map[string]StoreName)
	for _, name := range []StoreName{StoreUnits, StoreAvailable, StoreService, StoreFinished, StoreSold} {
		rows, err := tx.Records(name)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if !r.HasSerial() {
				continue
			}
			if _, seen := where[r.Serial]; !seen {
				where[r.Serial] = name
			}
		}
	}
	return where, nil
}

// ensureSerialsFree rejects empty serials, repeats inside the request and
// serials that are already tracked anywhere.
func ensureSerialsFree(tx *Tx, serials []string) error {
	where, err := serialLocations(tx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(serials))
	for i, s := range serials {
		if s == "" || s == PlaceholderSerial {
			return &InvalidQuantityError{Value: s, Reason: "serial #" + strconv.Itoa(i+1) + " is empty"}
		}
		if seen[s] {
			return &DuplicateSerialError{Serial: s}
		}
		seen[s] = true
		if store, ok := where[s]; ok {
			return &DuplicateSerialError{Serial: s, Store: store}
		}
	}
	return nil
}

// ensureOwnedAvailable checks that serial is not already in service,
// finished or sold.
func ensureOwnedAvailable(tx *Tx, units *UnitLedger, serial string) error {
	if u, ok := units.Get(serial); ok && u.Category != CategoryAvailable && u.Category != "" {
		return &DuplicateSerialError{Serial: serial, Store: storeFor(u.Category)}
	}
	for _, name := range []StoreName{StoreService, StoreFinished, StoreSold} {
		rows, err := tx.Records(name)
		if err != nil {
			return err
		}
		if indexBySerial(rows, serial) >= 0 {
			return &DuplicateSerialError{Serial: serial, Store: name}
		}
	}
	return nil
}

// ensureUnitOf checks that serial can leave Available as a unit of key.
// Besides the ensureOwnedAvailable checks, neither the register nor an
// Available row may hold it under another variant.
func ensureUnitOf(tx *Tx, units *UnitLedger, stock *AggregateStock, key VariantKey, serial string) error {
	if err := ensureOwnedAvailable(tx, units, serial); err != nil {
		return err
	}
	if u, ok := units.Get(serial); ok && u.Key() != key {
		return &SerialMismatchError{Serial: serial, Variant: key, Owner: u.Key()}
	}
	if j := stock.FindSerial(serial); j >= 0 && stock.rows[j].Key() != key {
		return &SerialMismatchError{Serial: serial, Variant: key, Owner: stock.rows[j].Key()}
	}
	return nil
}

// releaseSerial puts the placeholder back on the variant row when it still
// carries one of the serials that just left it.
func releaseSerial(stock *AggregateStock, key VariantKey, serials ...string) {
	i := stock.Find(key)
	if i < 0 {
		return
	}
	for _, s := range serials {
		if stock.rows[i].Serial == s {
			stock.rows[i].Serial = PlaceholderSerial
			return
		}
	}
}

// ensureSellable validates the buyer-supplied serials of a sale of key.
func ensureSellable(tx *Tx, units *UnitLedger, stock *AggregateStock, key VariantKey, serials []string) error {
	seen := make(map[string]bool, len(serials))
	for i, s := range serials {
		if s == "" || s == PlaceholderSerial {
			return &InvalidQuantityError{Value: s, Reason: "serial #" + strconv.Itoa(i+1) + " is empty"}
		}
		if seen[s] {
			return &DuplicateSerialError{Serial: s}
		}
		seen[s] = true
		if err := ensureUnitOf(tx, units, stock, key, s); err != nil {
			return err
		}
	}
	return nil
}
