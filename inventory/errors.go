/*
errors.go - Centralized error types for the lifecycle engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is on the sentinels, or errors.As on the
  structured types when they need the details.

ERROR KINDS:
  not_found           No matching variant or serial
  insufficient_stock  Requested quantity exceeds what is in stock
  invalid_quantity    Non-numeric, zero or negative quantity
  duplicate_serial    Serial already tracked somewhere
  serial_mismatch     Serial belongs to another variant
  unknown_category    Edit asked for a state that does not exist
  store_io            Underlying persistence failure

PROPAGATION:
  Validation errors are returned before any store is touched. Store errors
  are wrapped in StoreIOError with the store name and operation.
  Describe() converts any error into the Failure the boundary returns.

SEE ALSO:
  - engine.go: Returns these errors
  - api/handlers.go: Maps kinds to HTTP status codes
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when no variant or serial matches.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned when a decrement exceeds the quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidQuantity is returned for non-numeric or non-positive quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrDuplicateSerial is returned when a serial is already tracked.
	ErrDuplicateSerial = errors.New("duplicate serial")

	// ErrSerialMismatch is returned when a serial is an available unit of
	// a different variant than the one being moved.
	ErrSerialMismatch = errors.New("serial belongs to another variant")

	// ErrUnknownCategory is returned when an edit names no known state.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrStoreIO is returned when a store cannot be read or written.
	ErrStoreIO = errors.New("store i/o failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names what was looked up and where.
type NotFoundError struct {
	What  string // "variant", "serial"
	Key   string
	Store StoreName
}

func (e *NotFoundError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("%s %q not found in %s", e.What, e.Key, e.Store)
	}
	return fmt.Sprintf("%s %q not found", e.What, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports how many units could have been taken.
type InsufficientStockError struct {
	Variant   VariantKey
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("you can only sell up to %d of this phone (requested %d)", e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidQuantityError carries the offending value.
type InvalidQuantityError struct {
	Value  string
	Reason string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %q: %s", e.Value, e.Reason)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }

// DuplicateSerialError names the store that already holds the serial.
// Store is empty when the duplicate is inside the request itself.
type DuplicateSerialError struct {
	Serial string
	Store  StoreName
}

func (e *DuplicateSerialError) Error() string {
	if e.Store == "" {
		return fmt.Sprintf("serial %q given more than once", e.Serial)
	}
	return fmt.Sprintf("serial %q already exists in %s", e.Serial, e.Store)
}

func (e *DuplicateSerialError) Unwrap() error { return ErrDuplicateSerial }

// SerialMismatchError names the variant that actually owns the serial.
type SerialMismatchError struct {
	Serial  string
	Variant VariantKey // variant the caller asked for
	Owner   VariantKey
}

func (e *SerialMismatchError) Error() string {
	return fmt.Sprintf("serial %q belongs to %s, not %s", e.Serial, e.Owner, e.Variant)
}

func (e *SerialMismatchError) Unwrap() error { return ErrSerialMismatch }

// UnknownCategoryError is returned by Edit for an unrecognised destination.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q (use inventory, service or finished)", e.Category)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// StoreIOError wraps a persistence failure. Both ErrStoreIO and the cause
// are reachable through errors.Is.
type StoreIOError struct {
	Store StoreName
	Op    string // "load", "save", "commit"
	Err   error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Store, e.Err)
}

func (e *StoreIOError) Unwrap() []error { return []error{ErrStoreIO, e.Err} }

func storeErr(store StoreName, op string, err error) error {
	if err == nil {
		return nil
	}
	var sio *StoreIOError
	if errors.As(err, &sio) {
		return err
	}
	if errors.Is(err, ErrInvalidQuantity) {
		return err
	}
	return &StoreIOError{Store: store, Op: op, Err: err}
}

// =============================================================================
// FAILURE - What the boundary hands back to the presentation layer
// =============================================================================

type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindInvalidQuantity   ErrorKind = "invalid_quantity"
	KindDuplicateSerial   ErrorKind = "duplicate_serial"
	KindSerialMismatch    ErrorKind = "serial_mismatch"
	KindUnknownCategory   ErrorKind = "unknown_category"
	KindStoreIO           ErrorKind = "store_io"
	KindInternal          ErrorKind = "internal"
)

// Failure is the typed failure returned across the engine boundary.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Describe classifies err. It returns nil for a nil error.
func Describe(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{Kind: KindOf(err), Message: err.Error()}
}

// KindOf returns the error kind of err.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrInvalidQuantity):
		return KindInvalidQuantity
	case errors.Is(err, ErrDuplicateSerial):
		return KindDuplicateSerial
	case errors.Is(err, ErrSerialMismatch):
		return KindSerialMismatch
	case errors.Is(err, ErrUnknownCategory):
		return KindUnknownCategory
	case errors.Is(err, ErrStoreIO):
		return KindStoreIO
	}
	return KindInternal
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrDuplicateSerial) ||
		errors.Is(err, ErrSerialMismatch) ||
		errors.Is(err, ErrUnknownCategory)
}

// IsNotFound returns true if the error indicates a missing variant or serial.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
