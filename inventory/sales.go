/*
sales.go - Sold ledger and running revenue total

PURPOSE:
  Records completed sales. The sold ledger is append-only: rows are never
  edited or removed. The running total only grows, and only when a sale
  commits.

PRICE PARSING:
  The total is the sum of SellPrice over sold units. A SellPrice that does
  not parse is skipped rather than failing the sale, so the total can
  under-count. Skipped addends are reported back to the caller so they can
  be logged.
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SaleDateLayout = "2006-01-02"
	SaleTimeLayout = "15:04:05"
)

// Buyer identifies who bought the units.
type Buyer struct {
	Name   string
	Number string
}

// SalesLedger wraps the sold ledger and running total of one transaction.
type SalesLedger struct {
	rows  []Record
	total decimal.Decimal
}

// NewSalesLedger takes ownership of rows.
func NewSalesLedger(rows []Record, total decimal.Decimal) *SalesLedger {
	return &SalesLedger{rows: rows, total: total}
}

func (l *SalesLedger) Records() []Record      { return l.rows }
func (l *SalesLedger) Total() decimal.Decimal { return l.total }

// Contains reports whether serial has already been sold.
func (l *SalesLedger) Contains(serial string) bool {
	for _, r := range l.rows {
		if r.Serial == serial {
			return true
		}
	}
	return false
}

// SaleOutcome summarises one recorded sale.
type SaleOutcome struct {
	Sold    []Record
	Revenue decimal.Decimal
	Skipped int // units whose SellPrice did not parse or was negative
}

// Record appends one SoldRecord per serial, cloned from variant and stamped
// with at, and adds each unit's price to the running total.
func (l *SalesLedger) Record(variant Record, serials []string, buyer Buyer, at time.Time) SaleOutcome {
	var out SaleOutcome
	price, ok := variant.SellPriceValue()
	ok = ok && !price.IsNegative()
	for _, s := range serials {
		sold := variant.asUnit(s)
		sold.Category = CategorySold
		sold.CustomerName = buyer.Name
		sold.CustomerNumber = buyer.Number
		sold.SaleDate = at.Format(SaleDateLayout)
		sold.SaleTime = at.Format(SaleTimeLayout)
		l.rows = append(l.rows, sold)
		out.Sold = append(out.Sold, sold)

		if !ok {
			out.Skipped++
			continue
		}
		out.Revenue = out.Revenue.Add(price)
	}
	l.total = l.total.Add(out.Revenue)
	return out
}
