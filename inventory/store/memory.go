// Package store provides in-process RecordStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	stores map[inventory.StoreName][]inventory.Record
	total  decimal.Decimal
}

func NewMemory() *Memory {
	return &Memory{stores: make(map[inventory.StoreName][]inventory.Record)}
}

// Seed replaces the named store without going through a transition.
func (m *Memory) Seed(name inventory.StoreName, records ...inventory.Record) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[name] = copyRecords(records)
	return m
}

// Load returns a copy of the named store.
func (m *Memory) Load(_ context.Context, name inventory.StoreName) ([]inventory.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRecords(m.stores[name]), nil
}

// Save replaces the named store.
func (m *Memory) Save(_ context.Context, name inventory.StoreName, records []inventory.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[name] = copyRecords(records)
	return nil
}

func (m *Memory) LoadTotal(_ context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total, nil
}

func (m *Memory) SaveTotal(_ context.Context, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
	return nil
}

// Commit applies the whole changeset under one lock, so readers see either
// none or all of it.
func (m *Memory) Commit(_ context.Context, cs inventory.Changeset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.snapshot()
	for name, rows := range cs.Stores {
		next[name] = copyRecords(rows)
	}
	m.stores = next
	if cs.Total != nil {
		m.total = *cs.Total
	}
	return nil
}

func (m *Memory) snapshot() map[inventory.StoreName][]inventory.Record {
	out := make(map[inventory.StoreName][]inventory.Record, len(m.stores))
	for k, v := range m.stores {
		out[k] = v
	}
	return out
}

func copyRecords(in []inventory.Record) []inventory.Record {
	out := make([]inventory.Record, len(in))
	copy(out, in)
	return out
}

// =============================================================================
// PLAIN MEMORY STORE - Without Commit
// =============================================================================

// Plain hides Commit so the Repository falls back to sequential saves.
// FailOn makes Save fail for the named stores, which lets tests exercise
// the compensation path.
type Plain struct {
	mem    *Memory
	mu     sync.Mutex
	failOn map[inventory.StoreName]error
	saves  []inventory.StoreName
}

func NewPlain(m *Memory) *Plain {
	return &Plain{mem: m, failOn: make(map[inventory.StoreName]error)}
}

// FailOn makes the next saves of name return err until cleared with nil.
func (p *Plain) FailOn(name inventory.StoreName, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failOn, name)
		return
	}
	p.failOn[name] = err
}

// Saves returns the store names saved so far, in order.
func (p *Plain) Saves() []inventory.StoreName {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]inventory.StoreName(nil), p.saves...)
}

func (p *Plain) Save(ctx context.Context, name inventory.StoreName, records []inventory.Record) error {
	p.mu.Lock()
	err := p.failOn[name]
	p.saves = append(p.saves, name)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.mem.Save(ctx, name, records)
}

func (p *Plain) Load(ctx context.Context, name inventory.StoreName) ([]inventory.Record, error) {
	return p.mem.Load(ctx, name)
}

func (p *Plain) LoadTotal(ctx context.Context) (decimal.Decimal, error) {
	return p.mem.LoadTotal(ctx)
}

func (p *Plain) SaveTotal(ctx context.Context, total decimal.Decimal) error {
	p.mu.Lock()
	err := p.failOn[inventory.StoreTotal]
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return p.mem.SaveTotal(ctx, total)
}
