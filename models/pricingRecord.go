package models

// PricingRecord is one price-list row with its identifier already stripped of
// the "NG-" prefix. Price cells stay raw until the resolver cleans them.
type PricingRecord struct {
	Row       int
	DrugName  string
	ProductID int64
	PackSize  string
	UnitCost  string
	MuttiUnit string
	TheaUnit  string
}

// PriceFor returns the raw cell for one of the segment price columns.
func (p PricingRecord) PriceFor(column string) (string, bool) {
	switch column {
	case ColPricingMuttiUnit:
		return p.MuttiUnit, true
	case ColPricingTheaUnit:
		return p.TheaUnit, true
	case ColPricingUnitCost:
		return p.UnitCost, true
	default:
		return "", false
	}
}
