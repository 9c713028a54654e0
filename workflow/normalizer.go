package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/sales_ledger/models"
)

// accepted spellings of the sales export's "01 Apr, 2023" date cell
var saleDayLayouts = []string{
	"2 Jan, 2006",
	"2 Jan 2006",
	"2 January, 2006",
}

const saleDayTokenLayout = "2/Jan/2006"

var errUnparseableDate = errors.New("unparseable sale day")

// TrimTableHeaders strips surrounding whitespace and a leading BOM from every header.
func TrimTableHeaders(t *models.Table) {
	if t == nil {
		return
	}
	for i, h := range t.Headers {
		t.Headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
}

// RequireColumns fails with MalformedInput on the first missing column.
func RequireColumns(t *models.Table, cols ...string) error {
	for _, col := range cols {
		if !t.HasColumn(col) {
			return malformed(StageNormalize, t.Name, col, 0, "", errors.New("required column is missing"))
		}
	}
	return nil
}

// ConvertSaleDay parses "01 Apr, 2023" and formats it as "1/apr/2023".
func ConvertSaleDay(raw string) (models.SaleDay, error) {
	s := strings.Join(strings.Fields(raw), " ")
	for _, layout := range saleDayLayouts {
		d, err := time.Parse(layout, s)
		if err == nil {
			return models.SaleDay{Date: d, Token: FormatSaleDayToken(d)}, nil
		}
	}
	return models.SaleDay{}, errUnparseableDate
}

func FormatSaleDayToken(d time.Time) string {
	return fmt.Sprintf("%d/%s/%d", d.Day(), strings.ToLower(d.Format("Jan")), d.Year())
}

// ParseSaleDayToken reads a "1/apr/2023" token back into its calendar date.
func ParseSaleDayToken(token string) (time.Time, error) {
	d, err := time.Parse(saleDayTokenLayout, strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, errUnparseableDate
	}
	return d, nil
}

// NormalizeSales converts every sales row into a SalesRecord with its sale day
// reformatted. The table headers must already be trimmed and validated.
func NormalizeSales(t *models.Table) ([]models.SalesRecord, error) {
	cols := make(map[string]models.Column, len(models.SalesRequiredColumns))
	for _, name := range models.SalesRequiredColumns {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			return nil, malformed(StageNormalize, t.Name, name, 0, "", errors.New("required column is missing"))
		}
		cols[name] = models.Column{Name: name, Index: idx}
	}

	records := make([]models.SalesRecord, 0, t.Len())
	for i, row := range t.Rows {
		rawDay := cols[models.ColSaleDay].Get(row)
		day, err := ConvertSaleDay(rawDay)
		if err != nil {
			return nil, malformed(StageNormalize, t.Name, models.ColSaleDay, i+1, rawDay, err)
		}
		records = append(records, models.SalesRecord{
			Row:           i + 1,
			SaleDay:       day,
			Facility:      cols[models.ColSaleFacility].Get(row),
			ArmaID:        cols[models.ColArmaID].Get(row),
			CustomerType:  cols[models.ColCustomerType].Get(row),
			DrugID:        cols[models.ColDrugID].Get(row),
			DisplayName:   cols[models.ColDrugDisplayName].Get(row),
			SaleItemPrice: cols[models.ColSaleItemPrice].Get(row),
			ProductSource: cols[models.ColProductSource].Get(row),
			IsManual:      cols[models.ColIsManual].Get(row),
			PosUnitPrice:  cols[models.ColPosUnitPrice].Get(row),
			PosQuantity:   cols[models.ColPosQuantity].Get(row),
			PosUnitCost:   cols[models.ColPosUnitCost].Get(row),
			PosCostOfSale: cols[models.ColPosCostOfSale].Get(row),
			PosMargin:     cols[models.ColPosMargin].Get(row),
		})
	}
	return records, nil
}

// NormalizeInputs trims the headers of all three tables and checks their required columns.
func NormalizeInputs(in models.LedgerInputs) error {
	tables := []struct {
		table *models.Table
		cols  []string
	}{
		{in.Sales, models.SalesRequiredColumns},
		{in.Pricing, models.PricingRequiredColumns},
		{in.Repo, models.RepoRequiredColumns},
	}
	for _, tc := range tables {
		TrimTableHeaders(tc.table)
		if err := RequireColumns(tc.table, tc.cols...); err != nil {
			return err
		}
	}
	return nil
}
