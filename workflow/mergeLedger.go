package workflow

import (
	"sort"
	"strconv"

	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
)

// CustomLedgerRecords reshapes priced custom sales into ledger rows.
func CustomLedgerRecords(sales []models.CustomSale) []models.LedgerRecord {
	records := make([]models.LedgerRecord, 0, len(sales))
	for _, s := range sales {
		records = append(records, models.LedgerRecord{
			SaleDay:      s.Sales.SaleDay,
			Facility:     s.Sales.Facility,
			ArmaID:       s.Sales.ArmaID,
			ProductID:    strconv.FormatInt(s.ProductID, 10),
			DisplayName:  s.Sales.DisplayName,
			NewUnitPrice: s.NewUnitPrice,
			Quantity:     s.Quantity,
			TotalSale:    s.Total,
			UnitCost:     s.UnitCost,
			CostOfSale:   s.CostOfSale,
			Margin:       s.Margin,
			SaleType:     models.SaleTypeCustom,
		})
	}
	return records
}

// PosLedgerRecords renames the POS feed's precomputed columns into ledger rows.
// Numeric cells that do not parse become null.
func PosLedgerRecords(pos []models.SalesRecord) []models.LedgerRecord {
	records := make([]models.LedgerRecord, 0, len(pos))
	for _, p := range pos {
		records = append(records, models.LedgerRecord{
			SaleDay:      p.SaleDay,
			Facility:     p.Facility,
			ArmaID:       p.ArmaID,
			ProductID:    p.DrugID,
			DisplayName:  p.DisplayName,
			NewUnitPrice: utils.ParseDecimalLenient(p.PosUnitPrice),
			Quantity:     utils.ParseDecimalLenient(p.PosQuantity),
			TotalSale:    utils.ParseDecimalLenient(p.SaleItemPrice),
			UnitCost:     utils.ParseDecimalLenient(p.PosUnitCost),
			CostOfSale:   utils.ParseDecimalLenient(p.PosCostOfSale),
			Margin:       utils.ParseDecimalLenient(p.PosMargin),
			SaleType:     models.SaleTypePOS,
		})
	}
	return records
}

// FilterByMargin keeps rows with a margin >= 0 and returns the rest as rejects.
func FilterByMargin(records []models.LedgerRecord) ([]models.LedgerRecord, []models.RejectedRecord) {
	kept := make([]models.LedgerRecord, 0, len(records))
	var rejected []models.RejectedRecord
	for _, r := range records {
		switch {
		case !r.Margin.Valid:
			rejected = append(rejected, models.RejectedRecord{Record: r, Reason: models.RejectNullMargin})
		case r.Margin.Decimal.IsNegative():
			rejected = append(rejected, models.RejectedRecord{Record: r, Reason: models.RejectNegativeMargin})
		default:
			kept = append(kept, r)
		}
	}
	return kept, rejected
}

// SortLedger orders rows by sale day. Both modes are stable.
func SortLedger(records []models.LedgerRecord, mode models.SortMode) {
	if mode == models.SortLexical {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].SaleDay.Token < records[j].SaleDay.Token
		})
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SaleDay.Date.Before(records[j].SaleDay.Date)
	})
}

// MergeLedger concatenates custom then POS rows, applies the margin filter and sorts.
func MergeLedger(custom, pos []models.LedgerRecord, mode models.SortMode) ([]models.LedgerRecord, []models.RejectedRecord) {
	all := make([]models.LedgerRecord, 0, len(custom)+len(pos))
	all = append(all, custom...)
	all = append(all, pos...)

	kept, rejected := FilterByMargin(all)
	SortLedger(kept, mode)
	return kept, rejected
}
