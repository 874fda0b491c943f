/*
stock.go - Aggregate stock: one row per variant with a quantity

PURPOSE:
  Implements the quantity arithmetic on a list of variant rows. All methods
  mutate the in-memory list only; the caller decides when to persist.

INVARIANTS:
  1. At most one row per VariantKey
  2. Quantity >= 1 for every row (a row reaching zero is removed)
  3. Failed operations leave the list untouched

OPERATIONS:
  Intake:       find-or-create, Quantity += added
  DecrementOne: Quantity -= 1, remove at zero
  DecrementN:   Quantity -= n, InsufficientStockError if n > Quantity
  SplitOff:     DecrementN plus a new record for the destination store
*/
package inventory

import "strconv"

// AggregateStock wraps the rows of the aggregate store.
type AggregateStock struct {
	rows []Record
}

// NewAggregateStock takes ownership of rows.
func NewAggregateStock(rows []Record) *AggregateStock {
	return &AggregateStock{rows: rows}
}

// Records returns the current rows.
func (s *AggregateStock) Records() []Record { return s.rows }

// Find returns the index of the row for key, or -1.
func (s *AggregateStock) Find(key VariantKey) int {
	for i, r := range s.rows {
		if key.Matches(r) {
			return i
		}
	}
	return -1
}

// FindSerial returns the index of the first row carrying serial, or -1.
func (s *AggregateStock) FindSerial(serial string) int {
	for i, r := range s.rows {
		if r.Serial == serial {
			return i
		}
	}
	return -1
}

// Get returns the row for key.
func (s *AggregateStock) Get(key VariantKey) (Record, bool) {
	i := s.Find(key)
	if i < 0 {
		return Record{}, false
	}
	return s.rows[i], true
}

// Intake adds units of a variant. An existing row keeps its serial, prices
// and notes and only has its quantity raised. A new row gets the placeholder
// serial unless variant already carries a real one.
func (s *AggregateStock) Intake(variant Record, added int) (row Record, merged bool, err error) {
	if added <= 0 {
		return Record{}, false, &InvalidQuantityError{Value: strconv.Itoa(added), Reason: "must be positive"}
	}
	if i := s.Find(variant.Key()); i >= 0 {
		s.rows[i].Quantity += added
		return s.rows[i], true, nil
	}
	row = variant
	row.Quantity = added
	if row.Serial == "" {
		row.Serial = PlaceholderSerial
	}
	s.rows = append(s.rows, row)
	return row, false, nil
}

// DecrementResult reports what a decrement did to the row.
type DecrementResult struct {
	Record    Record // row state before removal, or after decrement
	Removed   bool   // row was deleted because it reached zero
	Remaining int
}

// Exhausted is an alias of Removed for n-unit decrements.
func (d DecrementResult) Exhausted() bool { return d.Removed }

// DecrementOne takes a single unit off the variant row.
func (s *AggregateStock) DecrementOne(key VariantKey) (DecrementResult, error) {
	return s.DecrementN(key, 1)
}

// DecrementN takes n units off the variant row. It fails without mutating
// when the row is missing or holds fewer than n units.
func (s *AggregateStock) DecrementN(key VariantKey, n int) (DecrementResult, error) {
	i := s.Find(key)
	if i < 0 {
		return DecrementResult{}, &NotFoundError{What: "variant", Key: key.String(), Store: StoreAvailable}
	}
	return s.decrementAt(i, n)
}

func (s *AggregateStock) decrementAt(i, n int) (DecrementResult, error) {
	if n <= 0 {
		return DecrementResult{}, &InvalidQuantityError{Value: strconv.Itoa(n), Reason: "must be positive"}
	}
	row := s.rows[i]
	if n > row.Quantity {
		return DecrementResult{}, &InsufficientStockError{Variant: row.Key(), Available: row.Quantity, Requested: n}
	}
	if n == row.Quantity {
		s.rows = append(s.rows[:i:i], s.rows[i+1:]...)
		return DecrementResult{Record: row, Removed: true}, nil
	}
	s.rows[i].Quantity -= n
	return DecrementResult{Record: s.rows[i], Remaining: s.rows[i].Quantity}, nil
}

// SplitOff moves n units of a variant out of the aggregate and returns the
// record to insert into the destination store. The destination write is the
// caller's job.
func (s *AggregateStock) SplitOff(key VariantKey, n int, dest Category) (Record, error) {
	res, err := s.DecrementN(key, n)
	if err != nil {
		return Record{}, err
	}
	out := res.Record
	out.Quantity = n
	out.Category = dest
	return out, nil
}

// removeAt deletes the row at index i.
func (s *AggregateStock) removeAt(i int) Record {
	row := s.rows[i]
	s.rows = append(s.rows[:i:i], s.rows[i+1:]...)
	return row
}

// TotalQuantity sums every row.
func (s *AggregateStock) TotalQuantity() int {
	return sumQuantity(s.rows)
}

func sumQuantity(rows []Record) int {
	total := 0
	for _, r := range rows {
		total += r.Quantity
	}
	return total
}
