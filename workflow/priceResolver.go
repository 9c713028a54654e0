package workflow

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
)

// SegmentPriceColumns maps a customer segment to its price-list column.
// Segments not listed here use DefaultPriceColumn.
var SegmentPriceColumns = map[string]string{
	"guest": models.ColPricingTheaUnit,
}

const DefaultPriceColumn = models.ColPricingMuttiUnit

func PriceColumnForSegment(segment string) string {
	if col, ok := SegmentPriceColumns[strings.ToLower(strings.TrimSpace(segment))]; ok {
		return col
	}
	return DefaultPriceColumn
}

// ResolvePrices fills the unit price and reference unit cost of every custom sale.
// A product missing from the price list, or an empty price cell, leaves the
// price null and is reported as a LookupMiss warning.
func ResolvePrices(sales []models.CustomSale, pricing *PricingIndex, report *models.RunReport) error {
	for i := range sales {
		s := &sales[i]
		s.PriceColumn = PriceColumnForSegment(s.Sales.CustomerType)

		rec, found := pricing.Lookup(s.ProductID)
		if !found {
			report.LookupMisses++
			report.AddWarning(models.RunWarning{
				Kind:    models.WarningLookupMiss,
				Table:   models.TableSales,
				Column:  models.ColDrugID,
				Row:     s.Sales.Row,
				Value:   fmt.Sprint(s.ProductID),
				Message: "product id not found in price list",
			})
			continue
		}

		raw, _ := rec.PriceFor(s.PriceColumn)
		price, err := utils.ParseDecimal(raw)
		if err != nil {
			return malformed(StagePrice, models.TablePricing, s.PriceColumn, rec.Row, raw, err)
		}
		if !price.Valid {
			report.LookupMisses++
			report.AddWarning(models.RunWarning{
				Kind:    models.WarningLookupMiss,
				Table:   models.TablePricing,
				Column:  s.PriceColumn,
				Row:     rec.Row,
				Value:   fmt.Sprint(s.ProductID),
				Message: "price list cell is empty",
			})
		}
		s.UnitPrice = price

		cost, err := utils.ParseDecimal(rec.UnitCost)
		if err != nil {
			return malformed(StagePrice, models.TablePricing, models.ColPricingUnitCost, rec.Row, rec.UnitCost, err)
		}
		s.UnitCost = cost
	}
	return nil
}
