/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the inventory records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Records:
    RecordDTO, VariantDTO, ListingResponse, LocatedDTO

  Transitions:
    IntakeRequest, RemoveRequest, SellRequest, SendToServiceRequest,
    WalkInRequest, EditRequest, TransitionResponse

  Sales:
    SalesResponse

VALIDATION:
  Validation is done by the engine, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/lifecycle.go: Engine request types
*/
package api

import (
	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// RECORDS
// =============================================================================

// RecordDTO is one row of any store.
type RecordDTO struct {
	Brand          string `json:"brand"`
	Serial         string `json:"serial"`
	Model          string `json:"model"`
	Box            bool   `json:"box"`
	Charger        bool   `json:"charger"`
	BoughtPrice    string `json:"bought_price,omitempty"`
	SellPrice      string `json:"sell_price,omitempty"`
	Category       string `json:"category"`
	Notes          string `json:"notes,omitempty"`
	Quantity       int    `json:"quantity"`
	CustomerName   string `json:"customer_name,omitempty"`
	CustomerNumber string `json:"customer_number,omitempty"`
	SaleDate       string `json:"sale_date,omitempty"`
	SaleTime       string `json:"sale_time,omitempty"`
	ServicePrice   string `json:"service_price,omitempty"`
}

// VariantDTO identifies an aggregate row.
type VariantDTO struct {
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Box       bool   `json:"box"`
	Charger   bool   `json:"charger"`
	SellPrice string `json:"sell_price"`
}

// ListingResponse is the body of every listing endpoint.
type ListingResponse struct {
	Store         string      `json:"store"`
	Records       []RecordDTO `json:"records"`
	TotalQuantity int         `json:"total_quantity"`
}

// LocatedDTO is a record found by serial and the store holding it.
type LocatedDTO struct {
	Store  string    `json:"store"`
	Record RecordDTO `json:"record"`
}

// SalesResponse lists the sold ledger with the running total.
type SalesResponse struct {
	Records []RecordDTO `json:"records"`
	Total   string      `json:"total"`
}

// =============================================================================
// TRANSITION REQUESTS
// =============================================================================

// IntakeRequest adds stock. One serial per unit.
type IntakeRequest struct {
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Box         bool     `json:"box"`
	Charger     bool     `json:"charger"`
	BoughtPrice string   `json:"bought_price"`
	SellPrice   string   `json:"sell_price"`
	Notes       string   `json:"notes"`
	Serials     []string `json:"serials"`
}

// RemoveRequest writes off one unit of a variant.
type RemoveRequest struct {
	Variant VariantDTO `json:"variant"`
	Serial  string     `json:"serial,omitempty"`
}

// SendToServiceRequest moves one unit of a variant into service.
type SendToServiceRequest struct {
	Variant VariantDTO `json:"variant"`
	Serial  string     `json:"serial,omitempty"`
}

// WalkInRequest books a customer's phone in for repair.
type WalkInRequest struct {
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	Serial         string `json:"serial"`
	Notes          string `json:"notes"`
	CustomerName   string `json:"customer_name"`
	CustomerNumber string `json:"customer_number"`
	ServicePrice   string `json:"service_price"`
}

// SellRequest sells the listed serials. The variant row is found by
// Variant when given, otherwise by Serial.
type SellRequest struct {
	Variant        *VariantDTO `json:"variant,omitempty"`
	Serial         string      `json:"serial,omitempty"`
	Serials        []string    `json:"serials"`
	CustomerName   string      `json:"customer_name"`
	CustomerNumber string      `json:"customer_number"`
}

// EditRequest overwrites the given fields. Absent fields are unchanged.
type EditRequest struct {
	Brand          *string `json:"brand,omitempty"`
	Model          *string `json:"model,omitempty"`
	Box            *bool   `json:"box,omitempty"`
	Charger        *bool   `json:"charger,omitempty"`
	BoughtPrice    *string `json:"bought_price,omitempty"`
	SellPrice      *string `json:"sell_price,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	Quantity       *int    `json:"quantity,omitempty"`
	CustomerName   *string `json:"customer_name,omitempty"`
	CustomerNumber *string `json:"customer_number,omitempty"`
	ServicePrice   *string `json:"service_price,omitempty"`
	Category       string  `json:"category,omitempty"`
}

// TransitionResponse is returned by every successful transition.
type TransitionResponse struct {
	Message  string      `json:"message"`
	Records  []RecordDTO `json:"records,omitempty"`
	Total    string      `json:"total,omitempty"`
	CommitID string      `json:"commit_id,omitempty"`
}

// ErrorResponse carries a failure kind and a human readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func toRecordDTO(r inventory.Record) RecordDTO {
	return RecordDTO{
		Brand:          r.Brand,
		Serial:         r.Serial,
		Model:          r.Model,
		Box:            r.Box,
		Charger:        r.Charger,
		BoughtPrice:    r.BoughtPrice,
		SellPrice:      r.SellPrice,
		Category:       string(r.Category),
		Notes:          r.Notes,
		Quantity:       r.Quantity,
		CustomerName:   r.CustomerName,
		CustomerNumber: r.CustomerNumber,
		SaleDate:       r.SaleDate,
		SaleTime:       r.SaleTime,
		ServicePrice:   r.ServicePrice,
	}
}

func toRecordDTOs(records []inventory.Record) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordDTO(r))
	}
	return out
}

func toListingResponse(l inventory.Listing) ListingResponse {
	return ListingResponse{
		Store:         string(l.Store),
		Records:       toRecordDTOs(l.Records),
		TotalQuantity: l.TotalQuantity,
	}
}

func (v VariantDTO) key() inventory.VariantKey {
	return inventory.VariantKey{
		Brand:     v.Brand,
		Model:     v.Model,
		Box:       v.Box,
		Charger:   v.Charger,
		SellPrice: v.SellPrice,
	}
}
