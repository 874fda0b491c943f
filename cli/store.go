package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/stock-engine/config"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
	"github.com/warp/stock-engine/store/csvfile"
	"github.com/warp/stock-engine/store/sheets"
	"github.com/warp/stock-engine/store/sqlite"
	"go.uber.org/zap"
)

// openStore builds the record store selected by store.driver. close is
// never nil.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (inventory.RecordStore, func() error, error) {
	noop := func() error { return nil }
	log := logger.Named("store").With(zap.String("driver", cfg.Store.Driver))

	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store, nothing will be persisted")
		return store.NewMemory(), noop, nil
	case config.DriverCSV:
		s, err := csvfile.Open(cfg.Store.Dir, log)
		if err != nil {
			return nil, noop, err
		}
		log.Info("store opened", zap.String("dir", s.Dir()))
		return s, noop, nil
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		log.Info("store opened", zap.String("path", cfg.Store.SQLitePath))
		return s, s.Close, nil
	case config.DriverSheets:
		s, err := sheets.New(ctx, sheets.Config{
			CredentialsPath: cfg.Sheets.CredentialsPath,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		log.Info("store opened", zap.String("spreadsheet_id", cfg.Sheets.SpreadsheetID))
		return s, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// newEngine opens the store and builds an engine stamping sales in the
// configured timezone.
func newEngine(ctx context.Context, opts *RootOptions) (*inventory.Engine, func() error, error) {
	rs, closeFn, err := openStore(ctx, opts.Config, opts.Logger)
	if err != nil {
		return nil, closeFn, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	loc, err := opts.Config.Location()
	if err != nil {
		return nil, closeFn, WrapExitError(ExitCommandError, "invalid timezone", err)
	}
	eng := inventory.NewEngine(rs,
		inventory.WithLogger(opts.Logger.Named("engine")),
		inventory.WithClock(func() time.Time { return time.Now().In(loc) }))
	return eng, closeFn, nil
}
