package inventory

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COLUMN LAYOUT - Persisted header names, in declared order
// =============================================================================

const (
	ColBrand          = "Brand"
	ColSerial         = "Serial"
	ColModel          = "Model"
	ColBox            = "Box"
	ColCharger        = "Charger"
	ColBoughtPrice    = "Bought Price"
	ColSellPrice      = "Sell Price"
	ColCategory       = "Category"
	ColNotes          = "Notes"
	ColQuantity       = "Quantity"
	ColCustomerName   = "Customer Name"
	ColCustomerNumber = "Customer Number"
	ColSaleDate       = "Sale Date"
	ColSaleTime       = "Sale Time"
	ColServicePrice   = "Service Price"

	// TotalHeader is the single header line of the running total store.
	TotalHeader = "Total Sales"
)

// Columns is the superset layout used by every store except the unit register.
var Columns = []string{
	ColBrand, ColSerial, ColModel, ColBox, ColCharger,
	ColBoughtPrice, ColSellPrice, ColCategory, ColNotes, ColQuantity,
	ColCustomerName, ColCustomerNumber, ColSaleDate, ColSaleTime, ColServicePrice,
}

// UnitColumns is the layout of the unit register.
var UnitColumns = Columns[:10]

// ColumnsFor returns the header of the named store.
func ColumnsFor(name StoreName) []string {
	if name == StoreUnits {
		return UnitColumns
	}
	return Columns
}

// FormatBool renders Box/Charger the way they are persisted.
func FormatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ParseBool accepts "Yes"/"No" in any case. Anything else is false.
func ParseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}

// FormatTotal renders the running total with at least one decimal place.
func FormatTotal(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}

// ParseTotal reads the running total value. Unreadable text counts as zero,
// matching how the store has always been read.
func ParseTotal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ROW CODEC
// =============================================================================

// Row renders r in the given column order.
func (r Record) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = r.field(c)
	}
	return row
}

func (r Record) field(col string) string {
	switch col {
	case ColBrand:
		return r.Brand
	case ColSerial:
		return r.Serial
	case ColModel:
		return r.Model
	case ColBox:
		return FormatBool(r.Box)
	case ColCharger:
		return FormatBool(r.Charger)
	case ColBoughtPrice:
		return r.BoughtPrice
	case ColSellPrice:
		return r.SellPrice
	case ColCategory:
		return string(r.Category)
	case ColNotes:
		return r.Notes
	case ColQuantity:
		return strconv.Itoa(r.Quantity)
	case ColCustomerName:
		return r.CustomerName
	case ColCustomerNumber:
		return r.CustomerNumber
	case ColSaleDate:
		return r.SaleDate
	case ColSaleTime:
		return r.SaleTime
	case ColServicePrice:
		return r.ServicePrice
	}
	return ""
}

// RecordFromRow decodes a row read under header. Columns are matched by
// name, so stores written with fewer or reordered columns still load.
// An empty Quantity reads as zero; any other value that is not a
// non-negative integer is an InvalidQuantityError.
func RecordFromRow(header, row []string) (Record, error) {
	var r Record
	for i, col := range header {
		if i >= len(row) {
			break
		}
		v := row[i]
		switch strings.TrimSpace(col) {
		case ColBrand:
			r.Brand = v
		case ColSerial:
			r.Serial = v
		case ColModel:
			r.Model = v
		case ColBox:
			r.Box = ParseBool(v)
		case ColCharger:
			r.Charger = ParseBool(v)
		case ColBoughtPrice:
			r.BoughtPrice = v
		case ColSellPrice:
			r.SellPrice = v
		case ColCategory:
			r.Category = Category(strings.ToLower(strings.TrimSpace(v)))
		case ColNotes:
			r.Notes = v
		case ColQuantity:
			if strings.TrimSpace(v) == "" {
				continue
			}
			q, err := ParseQuantity(v)
			if err != nil {
				return Record{}, err
			}
			r.Quantity = q
		case ColCustomerName:
			r.CustomerName = v
		case ColCustomerNumber:
			r.CustomerNumber = v
		case ColSaleDate:
			r.SaleDate = v
		case ColSaleTime:
			r.SaleTime = v
		case ColServicePrice:
			r.ServicePrice = v
		}
	}
	return r, nil
}

// ParseQuantity parses a stored quantity.
func ParseQuantity(s string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &InvalidQuantityError{Value: s, Reason: "not an integer"}
	}
	if q < 0 {
		return 0, &InvalidQuantityError{Value: s, Reason: "negative"}
	}
	return q, nil
}
