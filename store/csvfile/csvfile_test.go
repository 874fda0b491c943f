package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-engine/inventory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func readFile(t *testing.T, s *Store, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	return data
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

func TestOpen_CreatesMissingFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range inventory.AllStores {
		rows, err := s.Load(ctx, name)
		require.NoError(t, err)
		assert.Empty(t, rows, name)
	}
	assert.Equal(t, "Total Sales\n0.0\n", string(readFile(t, s, "total_sales.csv")))

	total, err := s.LoadTotal(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestOpen_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	legacy := "Brand,Serial,Model,Box,Charger,Bought Price,Sell Price,Category,Notes,Quantity\n" +
		"Acme,0,X1,yes,No,80,100,Available,,3\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inventory.csv"), []byte(legacy), 0o644))

	s, err := Open(dir, nil)
	require.NoError(t, err)

	rows, err := s.Load(context.Background(), inventory.StoreAvailable)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Box)
	assert.Equal(t, inventory.CategoryAvailable, rows[0].Category)
	assert.Equal(t, 3, rows[0].Quantity)
	assert.Empty(t, rows[0].CustomerName)
}

// =============================================================================
// FILE LAYOUT
// =============================================================================

func TestSave_InventoryLayout(t *testing.T) {
	s := newTestStore(t)
	rows := []inventory.Record{
		{Brand: "Acme", Serial: "0", Model: "X1", Box: true, BoughtPrice: "80", SellPrice: "100", Category: inventory.CategoryAvailable, Quantity: 2},
		{Brand: "Orbit", Serial: "R1", Model: "O2", Charger: true, BoughtPrice: "50", SellPrice: "70.5", Category: inventory.CategoryAvailable, Notes: "cracked, works", Quantity: 1},
	}

	require.NoError(t, s.Save(context.Background(), inventory.StoreAvailable, rows))

	golden(t).Assert(t, "inventory", readFile(t, s, "inventory.csv"))

	got, err := s.Load(context.Background(), inventory.StoreAvailable)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestEngine_IntakeWritesUnitRegister(t *testing.T) {
	s := newTestStore(t)
	eng := inventory.NewEngine(s)

	_, err := eng.Intake(context.Background(), inventory.IntakeRequest{
		Brand: "Acme", Model: "x1", Box: true, BoughtPrice: "80", SellPrice: "100",
		Serials: []string{"S1", "S2"},
	})
	require.NoError(t, err)

	golden(t).Assert(t, "phones", readFile(t, s, "phones.csv"))
}

func TestSaveTotal_Layout(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveTotal(context.Background(), decimal.NewFromInt(100)))

	golden(t).Assert(t, "total_sales", readFile(t, s, "total_sales.csv"))
}

// =============================================================================
// COMMIT
// =============================================================================

func TestCommit_SaleUpdatesAllFiles(t *testing.T) {
	// GIVEN: Two units on disk
	s := newTestStore(t)
	at := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	eng := inventory.NewEngine(s, inventory.WithClock(func() time.Time { return at }))
	ctx := context.Background()
	_, err := eng.Intake(ctx, inventory.IntakeRequest{Brand: "Acme", Model: "x1", SellPrice: "99.5", Serials: []string{"S1", "S2"}})
	require.NoError(t, err)

	// WHEN: Selling both
	key := inventory.VariantKey{Brand: "Acme", Model: "X1", SellPrice: "99.5"}
	_, err = eng.SellUnits(ctx, inventory.SellRequest{Variant: &key, Serials: []string{"S1", "S2"}, Buyer: inventory.Buyer{Name: "Jane"}})
	require.NoError(t, err)

	// THEN: Every file reflects the sale
	avail, err := s.Load(ctx, inventory.StoreAvailable)
	require.NoError(t, err)
	assert.Empty(t, avail)

	sold, err := s.Load(ctx, inventory.StoreSold)
	require.NoError(t, err)
	require.Len(t, sold, 2)
	assert.Equal(t, "2025-06-01", sold[0].SaleDate)

	assert.Equal(t, "Total Sales\n199.0\n", string(readFile(t, s, "total_sales.csv")))

	// AND: No temp files are left behind
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".tmp", filepath.Ext(e.Name()), e.Name())
	}
}

func TestCommit_WriteFailure_LeavesOriginals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, inventory.StoreAvailable, []inventory.Record{{Brand: "Acme", Serial: "0", Model: "X1", Quantity: 1}}))
	before := readFile(t, s, "inventory.csv")

	// Read-only dir: no temp file can be staged.
	require.NoError(t, os.Chmod(s.Dir(), 0o500))
	t.Cleanup(func() { os.Chmod(s.Dir(), 0o755) })
	if f, err := os.CreateTemp(s.Dir(), "probe"); err == nil {
		f.Close()
		os.Remove(f.Name())
		t.Skip("directory permissions not enforced")
	}

	err := s.Commit(ctx, inventory.Changeset{Stores: map[inventory.StoreName][]inventory.Record{
		inventory.StoreAvailable: nil,
		inventory.StoreUnits:     nil,
	}})
	require.Error(t, err)
	assert.Equal(t, before, readFile(t, s, "inventory.csv"))
}
