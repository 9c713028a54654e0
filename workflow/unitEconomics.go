package workflow

import (
	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
	"github.com/shopspring/decimal"
)

var minQuantity = decimal.NewFromInt(1)

// UnitEconomics is the per-row derivation for a custom sale.
type UnitEconomics struct {
	Quantity     decimal.NullDecimal
	NewUnitPrice decimal.NullDecimal
	CostOfSale   decimal.NullDecimal
	Margin       decimal.NullDecimal
}

// ComputeUnitEconomics infers quantity from the total and the unit price,
// clamps it to at least one unit and derives price, cost and margin.
// Null inputs, or a zero unit price, give null outputs.
func ComputeUnitEconomics(total, unitPrice, unitCost decimal.NullDecimal) UnitEconomics {
	var ue UnitEconomics
	if !total.Valid || !unitPrice.Valid || unitPrice.Decimal.IsZero() {
		return ue
	}

	qty := total.Decimal.Div(unitPrice.Decimal).Floor()
	if qty.LessThan(minQuantity) {
		qty = minQuantity
	}
	ue.Quantity = models.NewNullDecimal(qty)
	ue.NewUnitPrice = models.NewNullDecimal(total.Decimal.Div(qty).Round(models.UnitPricePlaces))

	if !unitCost.Valid {
		return ue
	}
	cost := unitCost.Decimal.Mul(qty)
	ue.CostOfSale = models.NewNullDecimal(cost)
	ue.Margin = models.NewNullDecimal(total.Decimal.Sub(cost))
	return ue
}

// ApplyUnitEconomics parses each custom sale's total and fills its derived fields.
func ApplyUnitEconomics(sales []models.CustomSale) error {
	for i := range sales {
		s := &sales[i]
		total, err := utils.ParseDecimal(s.Sales.SaleItemPrice)
		if err != nil {
			return malformed(StageEconomics, models.TableSales, models.ColSaleItemPrice, s.Sales.Row, s.Sales.SaleItemPrice, err)
		}
		s.Total = total

		ue := ComputeUnitEconomics(total, s.UnitPrice, s.UnitCost)
		s.Quantity = ue.Quantity
		s.NewUnitPrice = ue.NewUnitPrice
		s.CostOfSale = ue.CostOfSale
		s.Margin = ue.Margin
	}
	return nil
}
