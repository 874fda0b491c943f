/*
Package csvfile stores each record store as a CSV file in one directory.

PURPOSE:
  Keeps the file layout the shop's existing data already uses, so the
  engine can run directly on top of it:

    inventory.csv    aggregate stock (15 columns)
    phones.csv       unit register (first 10 columns)
    services.csv     units under repair
    finished.csv     units whose repair is done
    sold_phones.csv  sales ledger
    total_sales.csv  "Total Sales" header then one number

  Files are read by header name, so older files with fewer columns load.
  Missing files are created with their header on Open.

STAGED COMMITS:
  Commit is not atomic across files. It writes every changed store to a
  temp file in the same directory first. Only when all temp files are written are they renamed over the
  originals. A failure while writing leaves every original untouched. A
  failure while renaming is logged as a partial commit naming the stores
  already replaced.

SEE ALSO:
  - inventory/store.go: RecordStore and TxStore
  - inventory/columns.go: Column layout and cell encoding
*/
package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/stock-engine/inventory"
	"go.uber.org/zap"
)

const totalFile = "total_sales.csv"

// Store implements inventory.TxStore on a directory of CSV files.
type Store struct {
	dir    string
	logger *zap.Logger
	mu     sync.RWMutex
}

// Open prepares dir, creating it and any missing store files.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	s := &Store{dir: dir, logger: logger}
	if err := s.bootstrap(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) bootstrap() error {
	for _, name := range inventory.AllStores {
		p := s.path(name)
		if _, err := os.Stat(p); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		data, err := encode(name, nil)
		if err != nil {
			return err
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return fmt.Errorf("failed to create %s: %w", p, err)
		}
		s.logger.Info("created store file", zap.String("path", p))
	}
	p := filepath.Join(s.dir, totalFile)
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(p, encodeTotal(decimal.Zero), 0o644); err != nil {
			return fmt.Errorf("failed to create %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) path(name inventory.StoreName) string {
	return filepath.Join(s.dir, string(name)+".csv")
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (s *Store) Load(_ context.Context, name inventory.StoreName) ([]inventory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func (s *Store) Save(_ context.Context, name inventory.StoreName, records []inventory.Record) error {
	data, err := encode(name, records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path(name), data)
}

func (s *Store) LoadTotal(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(filepath.Join(s.dir, totalFile))
	if errors.Is(err, os.ErrNotExist) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		if line == 2 {
			return inventory.ParseTotal(sc.Text()), nil
		}
	}
	return decimal.Zero, sc.Err()
}

func (s *Store) SaveTotal(_ context.Context, total decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(filepath.Join(s.dir, totalFile), encodeTotal(total))
}

// =============================================================================
// COMMIT
// =============================================================================

type staged struct {
	name string
	tmp  string
	dst  string
}

// Commit writes the changeset through temp files and renames.
func (s *Store) Commit(_ context.Context, cs inventory.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var files []staged
	cleanup := func() {
		for _, f := range files {
			os.Remove(f.tmp)
		}
	}

	for _, name := range cs.Names() {
		data, err := encode(name, cs.Stores[name])
		if err != nil {
			cleanup()
			return err
		}
		tmp, err := writeTemp(s.dir, string(name), data)
		if err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", name, err)
		}
		files = append(files, staged{name: string(name), tmp: tmp, dst: s.path(name)})
	}
	if cs.Total != nil {
		tmp, err := writeTemp(s.dir, "total_sales", encodeTotal(*cs.Total))
		if err != nil {
			cleanup()
			return fmt.Errorf("stage total: %w", err)
		}
		files = append(files, staged{name: string(inventory.StoreTotal), tmp: tmp, dst: filepath.Join(s.dir, totalFile)})
	}

	for i, f := range files {
		if err := os.Rename(f.tmp, f.dst); err != nil {
			done := make([]string, 0, i)
			for _, d := range files[:i] {
				done = append(done, d.name)
			}
			for _, rest := range files[i:] {
				os.Remove(rest.tmp)
			}
			s.logger.Error("partial commit",
				zap.Strings("replaced", done),
				zap.String("failed", f.name),
				zap.Error(err))
			return fmt.Errorf("rename %s: %w", f.name, err)
		}
	}
	return nil
}

// =============================================================================
// ENCODING
// =============================================================================

func encode(name inventory.StoreName, records []inventory.Record) ([]byte, error) {
	cols := inventory.ColumnsFor(name)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := w.Write(r.Row(cols)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(r io.Reader) ([]inventory.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// Files saved by spreadsheet tools sometimes start with a BOM.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out []inventory.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if isBlank(row) {
			continue
		}
		rec, err := inventory.RecordFromRow(header, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func encodeTotal(d decimal.Decimal) []byte {
	return []byte(inventory.TotalHeader + "\n" + inventory.FormatTotal(d) + "\n")
}

func writeTemp(dir, prefix string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+prefix+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func writeAtomic(dst string, data []byte) error {
	tmp, err := writeTemp(filepath.Dir(dst), filepath.Base(dst), data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
