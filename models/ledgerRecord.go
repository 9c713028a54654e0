package models

import (
	"github.com/shopspring/decimal"
)

// UnitPricePlaces is the fixed scale of the New Unit Selling Price column.
const UnitPricePlaces = 2

// LedgerRecord is one row of the reconciled sales ledger.
type LedgerRecord struct {
	SaleDay      SaleDay
	Facility     string
	ArmaID       string
	ProductID    string
	DisplayName  string
	NewUnitPrice decimal.NullDecimal
	Quantity     decimal.NullDecimal
	TotalSale    decimal.NullDecimal
	UnitCost     decimal.NullDecimal
	CostOfSale   decimal.NullDecimal
	Margin       decimal.NullDecimal
	SaleType     SaleType
	Tax          string
	IsMuttiSale  string
}

// Values renders the record in LedgerColumns order.
func (r LedgerRecord) Values() []string {
	return []string{
		r.SaleDay.Token,
		r.Facility,
		r.ArmaID,
		r.ProductID,
		r.DisplayName,
		FormatFixedNullDecimal(r.NewUnitPrice, UnitPricePlaces),
		FormatNullDecimal(r.Quantity),
		FormatNullDecimal(r.TotalSale),
		FormatNullDecimal(r.UnitCost),
		FormatNullDecimal(r.CostOfSale),
		FormatNullDecimal(r.Margin),
		string(r.SaleType),
		r.Tax,
		r.IsMuttiSale,
	}
}

// RejectedRecord is a ledger row dropped by the margin filter.
type RejectedRecord struct {
	Record LedgerRecord
	Reason RejectReason
}

func (r RejectedRecord) Values() []string {
	return append(r.Record.Values(), string(r.Reason))
}

// FormatNullDecimal prints plain decimal notation; null becomes an empty cell.
func FormatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// FormatFixedNullDecimal prints d with exactly places decimals; null becomes an empty cell.
func FormatFixedNullDecimal(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}

func NewNullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
