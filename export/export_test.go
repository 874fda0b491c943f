package export

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
	"github.com/xuri/excelize/v2"
)

func sampleSnapshot() inventory.Snapshot {
	return inventory.Snapshot{
		Stores: map[inventory.StoreName][]inventory.Record{
			inventory.StoreAvailable: {
				{Brand: "Acme", Serial: "0", Model: "X1", Box: true, SellPrice: "100", Category: inventory.CategoryAvailable, Quantity: 3},
			},
			inventory.StoreSold: {
				{Brand: "Acme", Serial: "S1", Model: "X1", SellPrice: "100", Category: inventory.CategorySold, Quantity: 1, CustomerName: "Jane"},
			},
		},
		Total: decimal.RequireFromString("100"),
	}
}

func TestWrite_OneSheetPerStore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSnapshot()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"inventory", "phones", "services", "finished", "sold_phones", "total_sales"}, f.GetSheetList())

	rows, err := f.GetRows("inventory")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, inventory.Columns[:10], rows[0][:10])
	assert.Equal(t, []string{"Acme", "0", "X1", "Yes", "No", "", "100", "available", "", "3"}, rows[1][:10])

	units, err := f.GetRows("phones")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Len(t, units[0], 10)

	sold, err := f.GetRows("sold_phones")
	require.NoError(t, err)
	require.Len(t, sold, 2)
	assert.Equal(t, "Jane", sold[1][10])

	total, err := f.GetCellValue("total_sales", "A2")
	require.NoError(t, err)
	assert.Equal(t, "100", total)
}

func TestToDir_UsesEngineSnapshot(t *testing.T) {
	eng := inventory.NewEngine(store.NewMemory())
	_, err := eng.Intake(context.Background(), inventory.IntakeRequest{Brand: "Acme", Model: "x1", SellPrice: "100", Serials: []string{"S1"}})
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := ToDir(context.Background(), eng, dir, time.Date(2025, time.May, 4, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "stock-2025-05-04.xlsx", path[len(dir)+1:])

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleSnapshot())
	assert.Equal(t, 1, s.Variants)
	assert.Equal(t, 3, s.UnitsInStock)
	assert.Equal(t, 1, s.Sold)
	assert.Equal(t, "variants=1 units=3 service=0 finished=0 sold=1 total=100.0", s.String())
}
