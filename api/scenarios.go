/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the stores with realistic
	stock for demos. Each scenario clears every store, then runs ordinary
	engine transitions (intake, sell, service) so the result obeys the
	same rules as real use.

AVAILABLE SCENARIOS:

	empty-shop:   Nothing in stock, total 0
	fresh-stock:  Three variants taken in, nothing sold yet
	busy-day:     Stock, two sales, one unit in repair, one repaired
	repair-desk:  Walk-in repairs only

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-day"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, engine)
 3. Add it to the loaders map

NOTE:

	Scenarios reset every store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Transition endpoints
  - inventory/reset.go: Reset
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "empty-shop",
		Name:        "Empty Shop",
		Description: "Every store empty, running total 0",
	},
	{
		ID:          "fresh-stock",
		Name:        "Fresh Stock",
		Description: "Three variants taken in, nothing sold",
	},
	{
		ID:          "busy-day",
		Name:        "Busy Day",
		Description: "Stock with two sales, one unit in repair and one repaired",
	},
	{
		ID:          "repair-desk",
		Name:        "Repair Desk",
		Description: "Customer phones booked in for repair",
	},
}

type scenarioLoader func(ctx context.Context, e *inventory.Engine) error

var loaders = map[string]scenarioLoader{
	"empty-shop":  func(context.Context, *inventory.Engine) error { return nil },
	"fresh-stock": loadFreshStockScenario,
	"busy-day":    loadBusyDayScenario,
	"repair-desk": loadRepairDeskScenario,
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets every store and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if _, ok := loaders[req.ScenarioID]; !ok {
		writeError(w, http.StatusNotFound, inventory.KindNotFound, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err := h.Seed(r.Context(), req.ScenarioID); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

// Seed resets the stores and loads the scenario id.
func (h *Handler) Seed(ctx context.Context, id string) error {
	load, ok := loaders[id]
	if !ok {
		return &inventory.NotFoundError{What: "scenario", Key: id}
	}
	if _, err := h.Engine.Reset(ctx); err != nil {
		return err
	}
	if err := load(ctx, h.Engine); err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	total, err := h.Engine.TotalSales(ctx)
	if err != nil {
		return err
	}
	h.Metrics.SetTotal(total)

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

var demoStock = []inventory.IntakeRequest{
	{Brand: "Samsung", Model: "galaxy s21", Box: true, Charger: true, BoughtPrice: "320", SellPrice: "450", Serials: []string{"SMS21-001", "SMS21-002", "SMS21-003"}},
	{Brand: "Apple", Model: "iphone 12", Box: true, BoughtPrice: "410", SellPrice: "560", Serials: []string{"APL12-001", "APL12-002"}},
	{Brand: "Xiaomi", Model: "redmi note 10", Charger: true, BoughtPrice: "110", SellPrice: "170", Notes: "screen protector fitted", Serials: []string{"XRN10-001", "XRN10-002", "XRN10-003", "XRN10-004"}},
}

func loadFreshStockScenario(ctx context.Context, e *inventory.Engine) error {
	for _, req := range demoStock {
		if _, err := e.Intake(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func loadBusyDayScenario(ctx context.Context, e *inventory.Engine) error {
	if err := loadFreshStockScenario(ctx, e); err != nil {
		return err
	}

	galaxy := inventory.VariantKey{Brand: "Samsung", Model: "GALAXY S21", Box: true, Charger: true, SellPrice: "450"}
	redmi := inventory.VariantKey{Brand: "Xiaomi", Model: "REDMI NOTE 10", Charger: true, SellPrice: "170"}

	if _, err := e.SellUnits(ctx, inventory.SellRequest{
		Variant: &galaxy,
		Serials: []string{"SMS21-001"},
		Buyer:   inventory.Buyer{Name: "Amira K.", Number: "0555 010 203"},
	}); err != nil {
		return err
	}
	if _, err := e.SellUnits(ctx, inventory.SellRequest{
		Variant: &redmi,
		Serials: []string{"XRN10-001", "XRN10-002"},
		Buyer:   inventory.Buyer{Name: "Youssef B.", Number: "0555 020 304"},
	}); err != nil {
		return err
	}

	if _, err := e.SendToService(ctx, inventory.SendToServiceRequest{Variant: galaxy, Serial: "SMS21-002"}); err != nil {
		return err
	}
	if _, err := e.SendToService(ctx, inventory.SendToServiceRequest{Variant: redmi, Serial: "XRN10-003"}); err != nil {
		return err
	}
	_, err := e.FinishService(ctx, "XRN10-003")
	return err
}

func loadRepairDeskScenario(ctx context.Context, e *inventory.Engine) error {
	walkIns := []inventory.WalkInRequest{
		{Brand: "Apple", Model: "iphone 11", Serial: "CUST-1101", Notes: "cracked screen", CustomerName: "Lina M.", CustomerNumber: "0555 111 222", ServicePrice: "60"},
		{Brand: "Huawei", Model: "p30", Serial: "CUST-3002", Notes: "battery swap", CustomerName: "Omar T.", CustomerNumber: "0555 333 444", ServicePrice: "35"},
	}
	for _, req := range walkIns {
		if _, err := e.WalkInService(ctx, req); err != nil {
			return err
		}
	}
	_, err := e.FinishService(ctx, "CUST-3002")
	return err
}
