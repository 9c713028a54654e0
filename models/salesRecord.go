package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleDay keeps the parsed calendar date next to its display token.
type SaleDay struct {
	Date  time.Time
	Token string
}

// SalesRecord is one row of the sales feed after normalization.
// Row is the 1-based data row number in the uploaded sheet.
type SalesRecord struct {
	Row           int
	SaleDay       SaleDay
	Facility      string
	ArmaID        string
	CustomerType  string
	DrugID        string
	DisplayName   string
	SaleItemPrice string
	ProductSource string
	IsManual      string

	PosUnitPrice  string
	PosQuantity   string
	PosUnitCost   string
	PosCostOfSale string
	PosMargin     string
}

// CustomSale is a manual sale moving through remap, pricing and unit economics.
type CustomSale struct {
	Sales        SalesRecord
	ProductID    int64
	OriginalID   int64
	Remapped     bool
	Total        decimal.NullDecimal
	PriceColumn  string
	UnitPrice    decimal.NullDecimal
	UnitCost     decimal.NullDecimal
	Quantity     decimal.NullDecimal
	NewUnitPrice decimal.NullDecimal
	CostOfSale   decimal.NullDecimal
	Margin       decimal.NullDecimal
}
