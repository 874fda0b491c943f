package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// Reset empties every store and sets the running total to zero in one
// commit. Used by demo scenarios; there is no undo.
func (e *Engine) Reset(ctx context.Context) (Result, error) {
	var res Result
	id, err := e.repo.Update(ctx, "reset", func(tx *Tx) error {
		for _, name := range AllStores {
			// Loaded so a failed sequential commit can restore it.
			if _, err := tx.Records(name); err != nil {
				return err
			}
			tx.Set(name, nil)
		}
		tx.SetTotal(decimal.Zero)
		res.Message = "All stores cleared."
		return nil
	})
	res.CommitID = id
	return res, err
}
