// Package export renders a consistent snapshot of every store as an
// Excel workbook: one sheet per store plus the running total.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/warp/stock-engine/inventory"
	"github.com/xuri/excelize/v2"
)

// FileLayout is the file name pattern used for scheduled exports.
const FileLayout = "stock-2006-01-02.xlsx"

// Workbook builds the workbook for snap. The caller closes it.
func Workbook(snap inventory.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	for i, name := range inventory.AllStores {
		sheet := string(name)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeStore(f, sheet, name, snap.Stores[name]); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}

	totalSheet := string(inventory.StoreTotal)
	if _, err := f.NewSheet(totalSheet); err != nil {
		f.Close()
		return nil, err
	}
	header := []interface{}{inventory.TotalHeader}
	if err := f.SetSheetRow(totalSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	total, _ := snap.Total.Float64()
	if err := f.SetCellValue(totalSheet, "A2", total); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeStore(f *excelize.File, sheet string, name inventory.StoreName, records []inventory.Record) error {
	cols := inventory.ColumnsFor(name)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range records {
		cells := r.Row(cols)
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
			if cols[j] == inventory.ColQuantity {
				row[j] = r.Quantity
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// Write streams the workbook for snap to w.
func Write(w io.Writer, snap inventory.Snapshot) error {
	f, err := Workbook(snap)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

// Snapshotter is the read side Export needs from the engine.
type Snapshotter interface {
	Snapshot(ctx context.Context) (inventory.Snapshot, error)
}

// ToDir writes a dated workbook into dir and returns its path.
func ToDir(ctx context.Context, src Snapshotter, dir string, now time.Time) (string, error) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, now.Format(FileLayout))

	f, err := Workbook(snap)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// Summary is a short description of a snapshot, used in logs and the CLI.
type Summary struct {
	Variants     int    `json:"variants"`
	UnitsInStock int    `json:"units_in_stock"`
	InService    int    `json:"in_service"`
	Finished     int    `json:"finished"`
	Sold         int    `json:"sold"`
	Total        string `json:"total"`
}

// Summarize counts what is in snap.
func Summarize(snap inventory.Snapshot) Summary {
	s := Summary{
		Variants:  len(snap.Stores[inventory.StoreAvailable]),
		InService: len(snap.Stores[inventory.StoreService]),
		Finished:  len(snap.Stores[inventory.StoreFinished]),
		Sold:      len(snap.Stores[inventory.StoreSold]),
		Total:     inventory.FormatTotal(snap.Total),
	}
	for _, r := range snap.Stores[inventory.StoreAvailable] {
		s.UnitsInStock += r.Quantity
	}
	return s
}

func (s Summary) String() string {
	return "variants=" + strconv.Itoa(s.Variants) +
		" units=" + strconv.Itoa(s.UnitsInStock) +
		" service=" + strconv.Itoa(s.InService) +
		" finished=" + strconv.Itoa(s.Finished) +
		" sold=" + strconv.Itoa(s.Sold) +
		" total=" + s.Total
}
