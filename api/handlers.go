/*
handlers.go - HTTP API handlers for the stock lifecycle engine

PURPOSE:
  Exposes the inventory engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every transition to inventory.Engine.

ENDPOINTS:
  Stock:
    GET    /api/inventory              Aggregate stock + total quantity
    GET    /api/sellable?search=       Available rows, optional brand/model filter
    GET    /api/catalog                Brand -> models
    POST   /api/intake                 Add units of a variant
    POST   /api/remove                 Write off one unit
    POST   /api/sell                   Sell units to a buyer

  Units:
    GET    /api/units                  Unit register
    GET    /api/units/{serial}         Locate a unit
    PUT    /api/units/{serial}         Edit fields / move between states

  Service:
    GET    /api/service                Units under repair
    POST   /api/service                Walk-in repair
    POST   /api/service/send           Send a stock unit to repair
    POST   /api/service/{serial}/finish
    GET    /api/finished               Repaired units
    POST   /api/finished/{serial}/restock

  Sales:
    GET    /api/sales                  Sold ledger + running total
    GET    /api/export.xlsx            Workbook of every store

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    GET    /api/scenarios/current      Last loaded scenario
    POST   /api/scenarios/load         Reset and load a scenario

REQUEST FLOW:
  1. Decode the JSON body into a *Request DTO
  2. Convert to the engine request
  3. Call the engine (validation happens there)
  4. Serialize the Result or map the error kind to a status

ERROR HANDLING:
  Errors are returned as JSON with the engine's error kind:
  - 400: invalid_quantity, unknown_category, malformed body
  - 404: not_found
  - 409: insufficient_stock, duplicate_serial, serial_mismatch
  - 500: store_io, internal

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - metrics.go: Prometheus collectors
  - scenarios.go: Demo scenario loaders
*/
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/stock-engine/export"
	"github.com/warp/stock-engine/inventory"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the dependencies of every endpoint.
type Handler struct {
	Engine  *inventory.Engine
	Logger  *zap.Logger
	Metrics *Metrics

	now             func() time.Time
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler. A nil logger or metrics gets a no-op logger
// and a private registry.
func NewHandler(engine *inventory.Engine, logger *zap.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{Engine: engine, Logger: logger, Metrics: metrics, now: time.Now}
}

// =============================================================================
// LISTINGS
// =============================================================================

// ListInventory returns the aggregate stock.
// GET /api/inventory
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	l, err := h.Engine.Inventory(r.Context())
	h.writeListing(w, l, err)
}

// ListSellable returns the available rows matching ?search=.
// GET /api/sellable
func (h *Handler) ListSellable(w http.ResponseWriter, r *http.Request) {
	l, err := h.Engine.Sellable(r.Context(), r.URL.Query().Get("search"))
	h.writeListing(w, l, err)
}

// GetCatalog returns every brand with its distinct models.
// GET /api/catalog
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Engine.Catalog(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// ListUnits returns the unit register.
// GET /api/units
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	l, err := h.Engine.Units(r.Context())
	h.writeListing(w, l, err)
}

// GetUnit locates a record by serial in inventory, service or finished.
// GET /api/units/{serial}
func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	loc, err := h.Engine.FindBySerial(r.Context(), chi.URLParam(r, "serial"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LocatedDTO{Store: string(loc.Store), Record: toRecordDTO(loc.Record)})
}

// ListService returns units under repair.
// GET /api/service
func (h *Handler) ListService(w http.ResponseWriter, r *http.Request) {
	l, err := h.Engine.Service(r.Context())
	h.writeListing(w, l, err)
}

// ListFinished returns repaired units waiting to go back to stock.
// GET /api/finished
func (h *Handler) ListFinished(w http.ResponseWriter, r *http.Request) {
	l, err := h.Engine.Finished(r.Context())
	h.writeListing(w, l, err)
}

// ListSales returns the sold ledger and running total.
// GET /api/sales
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	report, err := h.Engine.Sold(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.Metrics.SetTotal(report.Total)
	writeJSON(w, http.StatusOK, SalesResponse{
		Records: toRecordDTOs(report.Records),
		Total:   inventory.FormatTotal(report.Total),
	})
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Intake adds units of a variant.
// POST /api/intake
func (h *Handler) Intake(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Engine.Intake(r.Context(), inventory.IntakeRequest{
		Brand:       req.Brand,
		Model:       req.Model,
		Box:         req.Box,
		Charger:     req.Charger,
		BoughtPrice: req.BoughtPrice,
		SellPrice:   req.SellPrice,
		Notes:       req.Notes,
		Serials:     req.Serials,
	})
	h.writeTransition(w, "intake", http.StatusCreated, res, err)
}

// Remove writes off one unit of a variant.
// POST /api/remove
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Engine.RemoveOne(r.Context(), inventory.RemoveRequest{
		Variant: req.Variant.key(),
		Serial:  req.Serial,
	})
	h.writeTransition(w, "remove", http.StatusOK, res, err)
}

// Sell sells units to a buyer and adds to the running total.
// POST /api/sell
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if !decode(w, r, &req) {
		return
	}
	sell := inventory.SellRequest{
		Serial:  req.Serial,
		Serials: req.Serials,
		Buyer:   inventory.Buyer{Name: req.CustomerName, Number: req.CustomerNumber},
	}
	if req.Variant != nil {
		key := req.Variant.key()
		sell.Variant = &key
	}
	res, err := h.Engine.SellUnits(r.Context(), sell)
	if err == nil {
		h.Metrics.Sold(len(res.Records), res.Total)
	}
	h.writeTransition(w, "sell", http.StatusOK, res, err)
}

// SendToService moves one stock unit into repair.
// POST /api/service/send
func (h *Handler) SendToService(w http.ResponseWriter, r *http.Request) {
	var req SendToServiceRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Engine.SendToService(r.Context(), inventory.SendToServiceRequest{
		Variant: req.Variant.key(),
		Serial:  req.Serial,
	})
	h.writeTransition(w, "send_to_service", http.StatusOK, res, err)
}

// WalkIn books a customer's phone directly into service.
// POST /api/service
func (h *Handler) WalkIn(w http.ResponseWriter, r *http.Request) {
	var req WalkInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Engine.WalkInService(r.Context(), inventory.WalkInRequest{
		Brand:          req.Brand,
		Model:          req.Model,
		Serial:         req.Serial,
		Notes:          req.Notes,
		CustomerName:   req.CustomerName,
		CustomerNumber: req.CustomerNumber,
		ServicePrice:   req.ServicePrice,
	})
	h.writeTransition(w, "walk_in_service", http.StatusCreated, res, err)
}

// FinishService marks a repair as done.
// POST /api/service/{serial}/finish
func (h *Handler) FinishService(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.FinishService(r.Context(), chi.URLParam(r, "serial"))
	h.writeTransition(w, "finish_service", http.StatusOK, res, err)
}

// Restock moves a repaired unit back into inventory.
// POST /api/finished/{serial}/restock
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.MoveToInventory(r.Context(), chi.URLParam(r, "serial"))
	h.writeTransition(w, "move_to_inventory", http.StatusOK, res, err)
}

// EditUnit overwrites fields of the record holding the serial.
// PUT /api/units/{serial}
func (h *Handler) EditUnit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Engine.Edit(r.Context(), inventory.EditRequest{
		Serial:         chi.URLParam(r, "serial"),
		Brand:          req.Brand,
		Model:          req.Model,
		Box:            req.Box,
		Charger:        req.Charger,
		BoughtPrice:    req.BoughtPrice,
		SellPrice:      req.SellPrice,
		Notes:          req.Notes,
		Quantity:       req.Quantity,
		CustomerName:   req.CustomerName,
		CustomerNumber: req.CustomerNumber,
		ServicePrice:   req.ServicePrice,
		Category:       req.Category,
	})
	h.writeTransition(w, "edit", http.StatusOK, res, err)
}

// =============================================================================
// EXPORT & HEALTH
// =============================================================================

// Export streams a workbook with one sheet per store.
// GET /api/export.xlsx
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Engine.Snapshot(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.now().Format(export.FileLayout)+`"`)
	if err := export.Write(w, snap); err != nil {
		// Headers are gone; all we can do is log.
		h.Logger.Error("export failed", zap.Error(err))
	}
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind inventory.ErrorKind, message string, err error) {
	resp := ErrorResponse{Error: message, Kind: string(kind)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

const kindBadRequest inventory.ErrorKind = "bad_request"

// statusFor maps an engine error kind to an HTTP status.
func statusFor(kind inventory.ErrorKind) int {
	switch kind {
	case inventory.KindNotFound:
		return http.StatusNotFound
	case inventory.KindInsufficientStock, inventory.KindDuplicateSerial, inventory.KindSerialMismatch:
		return http.StatusConflict
	case inventory.KindInvalidQuantity, inventory.KindUnknownCategory:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	f := inventory.Describe(err)
	status := statusFor(f.Kind)
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("kind", string(f.Kind)), zap.Error(err))
		writeError(w, status, f.Kind, "Internal error", err)
		return
	}
	writeError(w, status, f.Kind, f.Message, nil)
}

func (h *Handler) writeListing(w http.ResponseWriter, l inventory.Listing, err error) {
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (h *Handler) writeTransition(w http.ResponseWriter, op string, status int, res inventory.Result, err error) {
	h.Metrics.Observe(op, err)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	resp := TransitionResponse{
		Message:  res.Message,
		Records:  toRecordDTOs(res.Records),
		CommitID: res.CommitID,
	}
	if op == "sell" {
		resp.Total = inventory.FormatTotal(res.Total)
	}
	writeJSON(w, status, resp)
}
