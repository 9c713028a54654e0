package workflow

import (
	"testing"

	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/shopspring/decimal"
)

type saleRow struct {
	day, facility, arma, customerType, drugID, name, total, source, manual string
	posUnitPrice, posQty, posUnitCost, posCost, posMargin                  string
}

func (r saleRow) cells() []string {
	return []string{
		r.day, r.facility, r.arma, r.customerType, r.drugID, r.name, r.total, r.source, r.manual,
		r.posUnitPrice, r.posQty, r.posUnitCost, r.posCost, r.posMargin,
	}
}

func salesTable(rows ...saleRow) *models.Table {
	t := models.NewTable(models.TableSales, append([]string{}, models.SalesRequiredColumns...))
	for _, r := range rows {
		t.AppendRow(r.cells())
	}
	return t
}

// pricingTable rows: id, name, pack, unit cost, mutti, thea
func pricingTable(rows ...[]string) *models.Table {
	t := models.NewTable(models.TablePricing, []string{
		models.ColPricingDrugID, models.ColPricingDrugName, models.ColPricingPackSize,
		models.ColPricingUnitCost, models.ColPricingMuttiUnit, models.ColPricingTheaUnit,
	})
	for _, r := range rows {
		t.AppendRow(r)
	}
	return t
}

// repoTable rows: product name, old, new
func repoTable(rows ...[]string) *models.Table {
	t := models.NewTable(models.TableRepo, []string{models.ColRepoProductName, models.ColRepoOld, models.ColRepoNew})
	for _, r := range rows {
		t.AppendRow(r)
	}
	return t
}

func customSale(day, customerType, drugID, total string) saleRow {
	return saleRow{
		day: day, facility: "Facility A", arma: "ARMA-" + drugID, customerType: customerType,
		drugID: drugID, name: "Drug " + drugID, total: total, source: "formulary", manual: "True",
	}
}

func posSale(day, drugID, total, margin string) saleRow {
	return saleRow{
		day: day, facility: "Facility B", arma: "POS-" + drugID, customerType: "member",
		drugID: drugID, name: "Drug " + drugID, total: total, source: "formulary", manual: "False",
		posUnitPrice: "10", posQty: "2", posUnitCost: "6", posCost: "12", posMargin: margin,
	}
}

func requireDecimal(t *testing.T, field string, got decimal.NullDecimal, want string) {
	t.Helper()
	if !got.Valid {
		t.Fatalf("%s: expected %s, got null", field, want)
	}
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", field, want, got.Decimal)
	}
}

func requireNull(t *testing.T, field string, got decimal.NullDecimal) {
	t.Helper()
	if got.Valid {
		t.Fatalf("%s: expected null, got %s", field, got.Decimal)
	}
}
