package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
)

var errDiskFull = errors.New("disk full")

// =============================================================================
// SEQUENTIAL COMMIT WITH COMPENSATION
// =============================================================================

func TestRepository_SaveFailure_RestoresEarlierStores(t *testing.T) {
	// GIVEN: A plain store holding one unit, with unit register writes failing
	mem := store.NewMemory()
	plain := store.NewPlain(mem)
	eng := inventory.NewEngine(plain)
	ctx := context.Background()
	_, err := eng.Intake(ctx, acmeIntake("S1"))
	require.NoError(t, err)
	before := load(t, mem, inventory.StoreAvailable)

	plain.FailOn(inventory.StoreUnits, errDiskFull)

	// WHEN: A second intake writes Available, then fails on the register
	_, err = eng.Intake(ctx, acmeIntake("S2"))

	// THEN: The error is a store failure carrying the cause
	require.ErrorIs(t, err, inventory.ErrStoreIO)
	require.ErrorIs(t, err, errDiskFull)
	var sio *inventory.StoreIOError
	require.ErrorAs(t, err, &sio)
	assert.Equal(t, inventory.StoreUnits, sio.Store)

	// AND: Available was put back
	assert.Equal(t, before, load(t, mem, inventory.StoreAvailable))
	assert.Len(t, load(t, mem, inventory.StoreUnits), 1)
}

func TestRepository_TotalFailure_RollsBackSale(t *testing.T) {
	mem := store.NewMemory()
	plain := store.NewPlain(mem)
	eng := inventory.NewEngine(plain)
	ctx := context.Background()
	_, err := eng.Intake(ctx, acmeIntake("S1", "S2"))
	require.NoError(t, err)

	plain.FailOn(inventory.StoreTotal, errDiskFull)
	key := acmeKey
	_, err = eng.SellUnits(ctx, inventory.SellRequest{Variant: &key, Serials: []string{"S1"}})
	require.ErrorIs(t, err, inventory.ErrStoreIO)

	assert.Equal(t, 2, load(t, mem, inventory.StoreAvailable)[0].Quantity)
	assert.Len(t, load(t, mem, inventory.StoreUnits), 2)
	assert.Empty(t, load(t, mem, inventory.StoreSold))

	// WHEN: The disk recovers, the same sale succeeds exactly once
	plain.FailOn(inventory.StoreTotal, nil)
	res, err := eng.SellUnits(ctx, inventory.SellRequest{Variant: &key, Serials: []string{"S1"}})
	require.NoError(t, err)
	assert.Equal(t, "100", res.Total.String())
}

func TestRepository_CommitOrder(t *testing.T) {
	mem := store.NewMemory()
	plain := store.NewPlain(mem)
	eng := inventory.NewEngine(plain)
	ctx := context.Background()

	_, err := eng.Intake(ctx, acmeIntake("S1"))
	require.NoError(t, err)

	assert.Equal(t, []inventory.StoreName{inventory.StoreAvailable, inventory.StoreUnits}, plain.Saves())
}

func TestRepository_ValidationFailure_WritesNothing(t *testing.T) {
	plain := store.NewPlain(store.NewMemory())
	eng := inventory.NewEngine(plain)

	key := acmeKey
	_, err := eng.SellUnits(context.Background(), inventory.SellRequest{Variant: &key, Serials: []string{"S1"}})
	require.Error(t, err)
	assert.Empty(t, plain.Saves())
}

// =============================================================================
// SERIALIZATION OF WRITERS
// =============================================================================

func TestRepository_ConcurrentSales_NeverOversell(t *testing.T) {
	// GIVEN: Five units of one variant
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	_, err := eng.Intake(ctx, acmeIntake("S1", "S2", "S3", "S4", "S5"))
	require.NoError(t, err)

	// WHEN: Twenty buyers race for one unit each
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		fail int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := acmeKey
			_, err := eng.SellUnits(ctx, inventory.SellRequest{
				Variant: &key,
				Serials: []string{fmt.Sprintf("B%02d", i)},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				fail++
			}
		}(i)
	}
	wg.Wait()

	// THEN: Exactly five sales went through
	assert.Equal(t, 5, ok)
	assert.Equal(t, 15, fail)
	assert.Empty(t, load(t, mem, inventory.StoreAvailable))
	assert.Len(t, load(t, mem, inventory.StoreSold), 5)

	total, err := eng.TotalSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "500", total.String())
}

func TestRepository_EmptyUpdate_NoCommitID(t *testing.T) {
	repo := inventory.NewRepository(store.NewMemory(), nil)
	id, err := repo.Update(context.Background(), "noop", func(tx *inventory.Tx) error {
		_, err := tx.Records(inventory.StoreAvailable)
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRepository_ViewIsReadOnly(t *testing.T) {
	repo := inventory.NewRepository(store.NewMemory(), nil)
	assert.Panics(t, func() {
		_ = repo.View(context.Background(), func(tx *inventory.Tx) error {
			tx.Set(inventory.StoreAvailable, nil)
			return nil
		})
	})
}
