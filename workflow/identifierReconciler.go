package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
)

// RemapIndex maps a deprecated product id to its terminal replacement.
type RemapIndex struct {
	next map[int64]int64
}

func (r *RemapIndex) Len() int {
	if r == nil {
		return 0
	}
	return len(r.next)
}

// Apply returns the replacement id, or id itself when it is not remapped.
// Applying it to its own output is a no-op.
func (r *RemapIndex) Apply(id int64) (int64, bool) {
	if r == nil {
		return id, false
	}
	if newId, ok := r.next[id]; ok {
		return newId, true
	}
	return id, false
}

// BuildRemapIndex reads the repo table into an old -> new index.
// The first row for an Old id wins; later rows are reported as warnings.
// Chains are collapsed to their terminal id (reported as a RemapChain warning)
// and a cycle is fatal.
func BuildRemapIndex(t *models.Table) (*RemapIndex, []models.RunWarning, error) {
	oldCol, _ := t.ColumnIndex(models.ColRepoOld)
	newCol, _ := t.ColumnIndex(models.ColRepoNew)
	oldC := models.Column{Name: models.ColRepoOld, Index: oldCol}
	newC := models.Column{Name: models.ColRepoNew, Index: newCol}

	var warnings []models.RunWarning
	direct := make(map[int64]int64, t.Len())
	firstRow := make(map[int64]int, t.Len())
	var order []int64
	for i, row := range t.Rows {
		rawOld, rawNew := oldC.Get(row), newC.Get(row)
		if rawOld == "" && rawNew == "" {
			continue
		}
		if rawOld == "" || rawNew == "" {
			warnings = append(warnings, models.RunWarning{
				Kind:    models.WarningSkippedRow,
				Table:   t.Name,
				Row:     i + 1,
				Message: "remap row without both Old and New ids is skipped",
			})
			continue
		}
		oldId, err := utils.ParseIdentifier(rawOld)
		if err != nil {
			return nil, nil, malformed(StageReconcile, t.Name, models.ColRepoOld, i+1, rawOld, err)
		}
		newId, err := utils.ParseIdentifier(rawNew)
		if err != nil {
			return nil, nil, malformed(StageReconcile, t.Name, models.ColRepoNew, i+1, rawNew, err)
		}
		if prev, exists := direct[oldId]; exists {
			if prev != newId {
				warnings = append(warnings, models.RunWarning{
					Kind:    models.WarningAmbiguousMapping,
					Table:   t.Name,
					Column:  models.ColRepoOld,
					Row:     i + 1,
					Value:   rawOld,
					Message: fmt.Sprintf("duplicate Old id, keeping row %d (-> %d)", firstRow[oldId], prev),
				})
			}
			continue
		}
		if oldId == newId {
			continue
		}
		direct[oldId] = newId
		firstRow[oldId] = i + 1
		order = append(order, oldId)
	}

	resolved := make(map[int64]int64, len(direct))
	for _, oldId := range order {
		terminal, err := resolveRemapChain(direct, oldId)
		if err != nil {
			return nil, nil, &StageError{
				Kind:   KindAmbiguousMapping,
				Stage:  StageReconcile,
				Table:  t.Name,
				Column: models.ColRepoOld,
				Row:    firstRow[oldId],
				Value:  fmt.Sprint(oldId),
				Err:    err,
			}
		}
		if terminal != direct[oldId] {
			warnings = append(warnings, models.RunWarning{
				Kind:    models.WarningRemapChain,
				Table:   t.Name,
				Column:  models.ColRepoOld,
				Row:     firstRow[oldId],
				Value:   fmt.Sprint(oldId),
				Message: fmt.Sprintf("remap chain %d -> %d collapsed to terminal id %d; priced as %d", oldId, direct[oldId], terminal, terminal),
			})
		}
		resolved[oldId] = terminal
	}
	return &RemapIndex{next: resolved}, warnings, nil
}

func resolveRemapChain(direct map[int64]int64, start int64) (int64, error) {
	seen := map[int64]bool{start: true}
	cur := start
	for {
		nxt, ok := direct[cur]
		if !ok {
			return cur, nil
		}
		if seen[nxt] {
			return 0, fmt.Errorf("remap cycle through id %d", nxt)
		}
		seen[nxt] = true
		cur = nxt
	}
}

// PricingIndex holds the first price-list row per product id.
type PricingIndex struct {
	rows map[int64]models.PricingRecord
}

func (p *PricingIndex) Len() int {
	if p == nil {
		return 0
	}
	return len(p.rows)
}

func (p *PricingIndex) Lookup(id int64) (models.PricingRecord, bool) {
	if p == nil {
		return models.PricingRecord{}, false
	}
	rec, ok := p.rows[id]
	return rec, ok
}

// StripPricingPrefix removes the literal "NG-" prefix and coerces the rest to an id.
func StripPricingPrefix(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, models.PricingIDPrefix)
	return utils.ParseIdentifier(s)
}

// BuildPricingIndex keys the price list by its stripped Drug ID.1.
// Duplicate ids keep the first row and are reported as warnings.
func BuildPricingIndex(t *models.Table) (*PricingIndex, []models.RunWarning, error) {
	col := func(name string) models.Column {
		idx, _ := t.ColumnIndex(name)
		return models.Column{Name: name, Index: idx}
	}
	idCol := col(models.ColPricingDrugID)
	nameCol := col(models.ColPricingDrugName)
	packCol := col(models.ColPricingPackSize)
	costCol := col(models.ColPricingUnitCost)
	muttiCol := col(models.ColPricingMuttiUnit)
	theaCol := col(models.ColPricingTheaUnit)

	var warnings []models.RunWarning
	rows := make(map[int64]models.PricingRecord, t.Len())
	for i, row := range t.Rows {
		rawId := idCol.Get(row)
		if rawId == "" {
			warnings = append(warnings, models.RunWarning{
				Kind:    models.WarningSkippedRow,
				Table:   t.Name,
				Column:  models.ColPricingDrugID,
				Row:     i + 1,
				Message: "price list row without a drug id is skipped",
			})
			continue
		}
		id, err := StripPricingPrefix(rawId)
		if err != nil {
			return nil, nil, malformed(StageReconcile, t.Name, models.ColPricingDrugID, i+1, rawId, err)
		}
		if first, exists := rows[id]; exists {
			warnings = append(warnings, models.RunWarning{
				Kind:    models.WarningAmbiguousMapping,
				Table:   t.Name,
				Column:  models.ColPricingDrugID,
				Row:     i + 1,
				Value:   rawId,
				Message: fmt.Sprintf("duplicate drug id, keeping row %d", first.Row),
			})
			continue
		}
		rows[id] = models.PricingRecord{
			Row:       i + 1,
			DrugName:  nameCol.Get(row),
			ProductID: id,
			PackSize:  packCol.Get(row),
			UnitCost:  costCol.Get(row),
			MuttiUnit: muttiCol.Get(row),
			TheaUnit:  theaCol.Get(row),
		}
	}
	return &PricingIndex{rows: rows}, warnings, nil
}

// SplitSales separates formulary rows into the manual (custom) and POS subsets.
// Rows with another product source, or a blank Is Manual flag, are ignored.
func SplitSales(records []models.SalesRecord) (custom []models.SalesRecord, pos []models.SalesRecord, ignored int, err error) {
	for _, rec := range records {
		if !strings.EqualFold(rec.ProductSource, models.ProductSourceFormulary) {
			ignored++
			continue
		}
		manual, ok, ferr := utils.ParseFlag(rec.IsManual)
		if ferr != nil {
			return nil, nil, 0, malformed(StageReconcile, models.TableSales, models.ColIsManual, rec.Row, rec.IsManual, ferr)
		}
		if !ok {
			ignored++
			continue
		}
		if manual {
			custom = append(custom, rec)
		} else {
			pos = append(pos, rec)
		}
	}
	return custom, pos, ignored, nil
}

var errBlankIdentifier = errors.New("blank product id")

// ReconcileCustomSales coerces the custom rows' drug ids and applies the remap.
func ReconcileCustomSales(custom []models.SalesRecord, remap *RemapIndex) ([]models.CustomSale, int, error) {
	sales := make([]models.CustomSale, 0, len(custom))
	remapped := 0
	for _, rec := range custom {
		if rec.DrugID == "" {
			return nil, 0, malformed(StageReconcile, models.TableSales, models.ColDrugID, rec.Row, rec.DrugID, errBlankIdentifier)
		}
		id, err := utils.ParseIdentifier(rec.DrugID)
		if err != nil {
			return nil, 0, malformed(StageReconcile, models.TableSales, models.ColDrugID, rec.Row, rec.DrugID, err)
		}
		productId, ok := remap.Apply(id)
		if ok {
			remapped++
		}
		sales = append(sales, models.CustomSale{
			Sales:      rec,
			ProductID:  productId,
			OriginalID: id,
			Remapped:   ok,
		})
	}
	return sales, remapped, nil
}
