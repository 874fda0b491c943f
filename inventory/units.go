package inventory

import "strconv"

// =============================================================================
// INDIVIDUAL UNIT LEDGER - One row per physical serial
// =============================================================================

// UnitLedger wraps the rows of the unit register. Every unsold unit the shop
// owns has exactly one row here; its Category follows the unit around.
type UnitLedger struct {
	rows  []Record
	index map[string]int
}

// NewUnitLedger takes ownership of rows.
func NewUnitLedger(rows []Record) *UnitLedger {
	l := &UnitLedger{rows: rows}
	l.reindex()
	return l
}

func (l *UnitLedger) reindex() {
	l.index = make(map[string]int, len(l.rows))
	for i, r := range l.rows {
		if _, seen := l.index[r.Serial]; !seen {
			l.index[r.Serial] = i
		}
	}
}

// Records returns the current rows.
func (l *UnitLedger) Records() []Record { return l.rows }

// Contains reports whether serial is registered.
func (l *UnitLedger) Contains(serial string) bool {
	_, ok := l.index[serial]
	return ok
}

// Get returns the unit registered under serial.
func (l *UnitLedger) Get(serial string) (Record, bool) {
	i, ok := l.index[serial]
	if !ok {
		return Record{}, false
	}
	return l.rows[i], true
}

// AppendUnits registers one unit per serial, cloned from variant. The whole
// batch is checked before anything is appended.
func (l *UnitLedger) AppendUnits(variant Record, serials []string) ([]Record, error) {
	if err := l.checkNew(serials); err != nil {
		return nil, err
	}
	added := make([]Record, 0, len(serials))
	for _, s := range serials {
		u := variant.asUnit(s)
		l.index[s] = len(l.rows)
		l.rows = append(l.rows, u)
		added = append(added, u)
	}
	return added, nil
}

func (l *UnitLedger) checkNew(serials []string) error {
	seen := make(map[string]bool, len(serials))
	for i, s := range serials {
		if s == "" || s == PlaceholderSerial {
			return &InvalidQuantityError{Value: s, Reason: "serial #" + strconv.Itoa(i+1) + " is empty"}
		}
		if seen[s] {
			return &DuplicateSerialError{Serial: s}
		}
		seen[s] = true
		if l.Contains(s) {
			return &DuplicateSerialError{Serial: s, Store: StoreUnits}
		}
	}
	return nil
}

// RemoveBySerial retires a unit from the register.
func (l *UnitLedger) RemoveBySerial(serial string) (Record, error) {
	i, ok := l.index[serial]
	if !ok {
		return Record{}, &NotFoundError{What: "serial", Key: serial, Store: StoreUnits}
	}
	u := l.rows[i]
	l.rows = append(l.rows[:i:i], l.rows[i+1:]...)
	l.reindex()
	return u, nil
}

// Upsert registers u, replacing any row with the same serial.
func (l *UnitLedger) Upsert(u Record) {
	u.Quantity = 1
	if i, ok := l.index[u.Serial]; ok {
		l.rows[i] = u
		return
	}
	l.index[u.Serial] = len(l.rows)
	l.rows = append(l.rows, u)
}

// SetCategory moves a registered unit to another state. It reports false
// when the serial is not registered.
func (l *UnitLedger) SetCategory(serial string, c Category) bool {
	i, ok := l.index[serial]
	if !ok {
		return false
	}
	l.rows[i].Category = c
	return true
}
