/*
engine.go - Lifecycle engine: entry point for every stock transition

PURPOSE:
  The Engine is the boundary the presentation layer talks to. Every method
  takes a request struct and returns either a Result or a typed error.
  It performs no templating and keeps no session state.

STATE MACHINE:

    intake                 send to service        finish
  ────────▶ Available ─────────────────▶ Service ────────▶ Finished
                │  ▲                                          │
           sell │  └──────────────── move to inventory ◀──────┘
                ▼
              Sold (terminal)

  Edit can move a record found by serial between Available, Service and
  Finished directly. Sold is only reachable by selling.

TRANSACTIONS:
  Each mutating method is one Repository.Update call: loads, validation and
  mutation happen on staged copies, then every changed store is committed
  together. Read methods use Repository.View.

SEE ALSO:
  - lifecycle.go: Transition implementations
  - query.go: Read-only listings
  - repository.go: Locking and commit
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	repo   *Repository
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine and repository logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the time source used to stamp sales.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine over store.
func NewEngine(store RecordStore, opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.repo = NewRepository(store, e.logger.Named("repository"))
	return e
}

// Repository exposes the transaction boundary, e.g. for exports.
func (e *Engine) Repository() *Repository { return e.repo }

// =============================================================================
// RESULT - Successful outcome of a transition
// =============================================================================

type Result struct {
	Message  string
	Records  []Record        // records created or changed by the transition
	Total    decimal.Decimal // running total after a sale
	CommitID string
}
