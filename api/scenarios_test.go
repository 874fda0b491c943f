/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario leaves the stores in the expected state:
	- Stock quantities and unit register
	- Sales ledger and running total
	- Repair stores

Loading runs real transitions, so these double as integration tests.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(inventory.NewEngine(store.NewMemory()), nil, nil)
}

func TestScenario_EveryLoaderHasADefinition(t *testing.T) {
	require.Len(t, loaders, len(scenarios))
	for _, s := range scenarios {
		_, ok := loaders[s.ID]
		assert.True(t, ok, s.ID)
	}
}

func TestScenario_FreshStock(t *testing.T) {
	// GIVEN: The fresh stock scenario
	h := setupTestHandler(t)
	ctx := context.Background()

	// WHEN: Loading it
	require.NoError(t, h.Seed(ctx, "fresh-stock"))

	// THEN: Three variants, nine units, nothing sold
	inv, err := h.Engine.Inventory(ctx)
	require.NoError(t, err)
	assert.Len(t, inv.Records, 3)
	assert.Equal(t, 9, inv.TotalQuantity)

	units, err := h.Engine.Units(ctx)
	require.NoError(t, err)
	assert.Len(t, units.Records, 9)

	total, err := h.Engine.TotalSales(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestScenario_BusyDay(t *testing.T) {
	// GIVEN: The busy day scenario
	h := setupTestHandler(t)
	ctx := context.Background()

	// WHEN: Loading it
	require.NoError(t, h.Seed(ctx, "busy-day"))

	// THEN: Sales, repairs and remaining stock add up
	report, err := h.Engine.Sold(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Records, 3)
	assert.Equal(t, "790", report.Total.String()) // 450 + 2*170

	svc, err := h.Engine.Service(ctx)
	require.NoError(t, err)
	require.Len(t, svc.Records, 1)
	assert.Equal(t, "SMS21-002", svc.Records[0].Serial)

	fin, err := h.Engine.Finished(ctx)
	require.NoError(t, err)
	require.Len(t, fin.Records, 1)
	assert.Equal(t, "XRN10-003", fin.Records[0].Serial)

	inv, err := h.Engine.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, inv.TotalQuantity) // 9 - 3 sold - 2 in repair
}

func TestScenario_ReloadStartsClean(t *testing.T) {
	// GIVEN: A loaded scenario
	h := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, h.Seed(ctx, "busy-day"))

	// WHEN: Loading it again
	err := h.Seed(ctx, "busy-day")

	// THEN: The reset clears serials first, so no duplicate is reported
	require.NoError(t, err)
	report, err := h.Engine.Sold(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Records, 3)
}

func TestScenario_RepairDesk(t *testing.T) {
	h := setupTestHandler(t)
	ctx := context.Background()

	require.NoError(t, h.Seed(ctx, "repair-desk"))

	svc, err := h.Engine.Service(ctx)
	require.NoError(t, err)
	require.Len(t, svc.Records, 1)
	assert.Equal(t, "Lina M.", svc.Records[0].CustomerName)

	inv, err := h.Engine.Inventory(ctx)
	require.NoError(t, err)
	assert.Empty(t, inv.Records)
}

func TestScenario_ViaAPI(t *testing.T) {
	s := newTestServer(t)
	s.intakeAcme(t, "S1")

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "empty-shop"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	inv := decodeBody[ListingResponse](t, s.do(t, http.MethodGet, "/api/inventory", nil))
	assert.Empty(t, inv.Records)

	current := decodeBody[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "empty-shop", current.ID)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
