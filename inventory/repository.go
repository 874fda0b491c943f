/*
repository.go - Transaction boundary around a RecordStore

PURPOSE:
  Turns a set of independent load/save primitives into one transaction per
  lifecycle transition:
  1. Take the lock (exclusive for writes, shared for reads)
  2. Load each store the first time the transition asks for it
  3. Let the transition mutate in-memory copies and validate
  4. Commit every changed store, or none of them

LOCKING:
  A single sync.RWMutex guards the whole store set. Writers are serialized,
  so two sales of the same variant cannot both read Quantity=1. Readers run
  concurrently with each other and always see committed contents.

COMMIT STRATEGY:
  - TxStore backends: one Commit call. Memory, sqlite and sheets are
    atomic; csv stages temp files and logs a partial rename.
  - Plain RecordStores: sequential Save in AllStores order, total last.
    If a save fails, stores already written are restored from the values
    loaded at the start of the transaction. If the restore also fails the
    event is logged as a partial commit.

A transition that returns an error before commit never touches persistence,
which is what makes check-then-act hold: validation failures cannot leave a
half-applied change behind.

SEE ALSO:
  - store.go: RecordStore and TxStore
  - engine.go: Uses Update and View
*/
package inventory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// REPOSITORY
// =============================================================================

type Repository struct {
	store  RecordStore
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewRepository wraps store. A nil logger disables logging.
func NewRepository(store RecordStore, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, logger: logger}
}

// Store returns the underlying record store.
func (r *Repository) Store() RecordStore { return r.store }

// View runs fn with a read-only transaction under the shared lock.
func (r *Repository) View(ctx context.Context, fn func(tx *Tx) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(newTx(ctx, r.store, false))
}

// Update runs fn under the exclusive lock and commits what it staged.
// op names the transition in logs. The returned id identifies the commit;
// it is empty when fn failed or changed nothing.
func (r *Repository) Update(ctx context.Context, op string, fn func(tx *Tx) error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := newTx(ctx, r.store, true)
	if err := fn(tx); err != nil {
		return "", err
	}
	cs := tx.changeset()
	if cs.Empty() {
		return "", nil
	}

	id := uuid.Must(uuid.NewV7()).String()
	log := r.logger.With(zap.String("commit_id", id), zap.String("op", op))
	if err := r.commit(ctx, tx, cs, log); err != nil {
		return "", err
	}
	log.Info("transition committed", zap.Strings("stores", storeNames(cs)))
	return id, nil
}

func (r *Repository) commit(ctx context.Context, tx *Tx, cs Changeset, log *zap.Logger) error {
	if ts, ok := r.store.(TxStore); ok {
		if err := ts.Commit(ctx, cs); err != nil {
			log.Error("commit failed", zap.Error(err))
			return storeErr("changeset", "commit", err)
		}
		return nil
	}

	var written []StoreName
	for _, name := range cs.Names() {
		if err := r.store.Save(ctx, name, cs.Stores[name]); err != nil {
			r.compensate(ctx, tx, written, log)
			return storeErr(name, "save", err)
		}
		written = append(written, name)
	}
	if cs.Total != nil {
		if err := r.store.SaveTotal(ctx, *cs.Total); err != nil {
			r.compensate(ctx, tx, written, log)
			return storeErr(StoreTotal, "save", err)
		}
	}
	return nil
}

// compensate rewrites the stores in written with their pre-transaction
// contents, newest first. The total is saved last, so it never needs it.
func (r *Repository) compensate(ctx context.Context, tx *Tx, written []StoreName, log *zap.Logger) {
	var stuck []StoreName
	for i := len(written) - 1; i >= 0; i-- {
		name := written[i]
		orig, loaded := tx.original[name]
		if !loaded {
			stuck = append(stuck, name)
			continue
		}
		if err := r.store.Save(ctx, name, orig); err != nil {
			log.Error("restore failed", zap.String("store", string(name)), zap.Error(err))
			stuck = append(stuck, name)
		}
	}
	if len(stuck) > 0 {
		log.Error("partial commit: stores left with new contents",
			zap.Strings("stores", namesToStrings(stuck)))
		return
	}
	if len(written) > 0 {
		log.Warn("commit rolled back", zap.Strings("restored", namesToStrings(written)))
	}
}

func storeNames(cs Changeset) []string {
	names := namesToStrings(cs.Names())
	if cs.Total != nil {
		names = append(names, string(StoreTotal))
	}
	return names
}

func namesToStrings(in []StoreName) []string {
	out := make([]string, len(in))
	for i, n := range in {
		out[i] = string(n)
	}
	return out
}

// =============================================================================
// TX - Staged view of the store set
// =============================================================================

// Tx holds the stores loaded during one transition and the changes staged
// against them. It is not safe for concurrent use.
type Tx struct {
	ctx      context.Context
	store    RecordStore
	writable bool

	original map[StoreName][]Record
	staged   map[StoreName][]Record

	totalLoaded   bool
	originalTotal decimal.Decimal
	stagedTotal   *decimal.Decimal
}

func newTx(ctx context.Context, store RecordStore, writable bool) *Tx {
	return &Tx{
		ctx:      ctx,
		store:    store,
		writable: writable,
		original: make(map[StoreName][]Record),
		staged:   make(map[StoreName][]Record),
	}
}

// Records returns a private copy of the named store's current contents,
// including anything staged earlier in the transaction.
func (tx *Tx) Records(name StoreName) ([]Record, error) {
	if rows, ok := tx.staged[name]; ok {
		return cloneRecords(rows), nil
	}
	rows, ok := tx.original[name]
	if !ok {
		loaded, err := tx.store.Load(tx.ctx, name)
		if err != nil {
			return nil, storeErr(name, "load", err)
		}
		rows = cloneRecords(loaded)
		tx.original[name] = rows
	}
	return cloneRecords(rows), nil
}

// Set stages new contents for the named store.
func (tx *Tx) Set(name StoreName, rows []Record) {
	if !tx.writable {
		panic("inventory: Set on read-only transaction")
	}
	if rows == nil {
		rows = []Record{}
	}
	tx.staged[name] = rows
}

// Total returns the running total, including any staged change.
func (tx *Tx) Total() (decimal.Decimal, error) {
	if tx.stagedTotal != nil {
		return *tx.stagedTotal, nil
	}
	if !tx.totalLoaded {
		t, err := tx.store.LoadTotal(tx.ctx)
		if err != nil {
			return decimal.Zero, storeErr(StoreTotal, "load", err)
		}
		tx.originalTotal = t
		tx.totalLoaded = true
	}
	return tx.originalTotal, nil
}

// SetTotal stages a new running total.
func (tx *Tx) SetTotal(d decimal.Decimal) {
	if !tx.writable {
		panic("inventory: SetTotal on read-only transaction")
	}
	tx.stagedTotal = &d
}

func (tx *Tx) changeset() Changeset {
	cs := Changeset{Stores: make(map[StoreName][]Record, len(tx.staged)), Total: tx.stagedTotal}
	for name, rows := range tx.staged {
		cs.Stores[name] = rows
	}
	return cs
}
