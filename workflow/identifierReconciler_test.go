package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mmdatafocus/sales_ledger/models"
)

func TestBuildRemapIndex_ChainsAndIdempotence(t *testing.T) {
	repo := repoTable(
		[]string{"Paracetamol", "100", "200"},
		[]string{"Paracetamol", "200", "300.0"},
		[]string{"Ibuprofen", "400", "400"},
		[]string{"", "", ""},
	)
	remap, warnings, err := BuildRemapIndex(repo)
	if err != nil {
		t.Fatalf("BuildRemapIndex: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Kind != models.WarningRemapChain || warnings[0].Row != 1 || warnings[0].Value != "100" {
		t.Fatalf("expected one chain warning for row 1, got %+v", warnings)
	}
	if got, ok := remap.Apply(100); !ok || got != 300 {
		t.Fatalf("expected 100 -> 300 through the chain, got %d ok=%v", got, ok)
	}
	for _, id := range []int64{100, 200, 300, 400, 999} {
		once, _ := remap.Apply(id)
		twice, _ := remap.Apply(once)
		if once != twice {
			t.Fatalf("remap of %d is not idempotent: %d then %d", id, once, twice)
		}
	}
	if _, ok := remap.Apply(400); ok {
		t.Fatalf("self mapping must be ignored")
	}
}

func TestBuildRemapIndex_DuplicateOldKeepsFirst(t *testing.T) {
	repo := repoTable(
		[]string{"A", "100", "200"},
		[]string{"A", "100", "250"},
		[]string{"B", "101", ""},
	)
	remap, warnings, err := BuildRemapIndex(repo)
	if err != nil {
		t.Fatalf("BuildRemapIndex: %v", err)
	}
	if got, _ := remap.Apply(100); got != 200 {
		t.Fatalf("expected first mapping 100 -> 200, got %d", got)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected ambiguous + skipped warnings, got %+v", warnings)
	}
	if warnings[0].Kind != models.WarningAmbiguousMapping || warnings[0].Row != 2 {
		t.Fatalf("unexpected duplicate warning %+v", warnings[0])
	}
	if warnings[1].Kind != models.WarningSkippedRow || warnings[1].Row != 3 {
		t.Fatalf("unexpected skipped warning %+v", warnings[1])
	}
}

func TestBuildRemapIndex_CycleIsFatal(t *testing.T) {
	repo := repoTable(
		[]string{"A", "100", "200"},
		[]string{"B", "200", "100"},
	)
	_, _, err := BuildRemapIndex(repo)
	if !errors.Is(err, ErrAmbiguousMapping) {
		t.Fatalf("expected AmbiguousMapping, got %v", err)
	}
	se, _ := AsStageError(err)
	if se.Stage != StageReconcile || se.Table != models.TableRepo {
		t.Fatalf("unexpected diagnostic %+v", se)
	}
}

func TestBuildRemapIndex_NonNumericIsMalformed(t *testing.T) {
	_, _, err := BuildRemapIndex(repoTable([]string{"A", "abc", "200"}))
	se, ok := AsStageError(err)
	if !ok || se.Kind != KindMalformedInput || se.Column != models.ColRepoOld || se.Row != 1 {
		t.Fatalf("expected MalformedInput on Old row 1, got %v", err)
	}
}

func TestStripPricingPrefix(t *testing.T) {
	cases := map[string]int64{"NG-100": 100, "100": 100, " NG-42.0 ": 42}
	for raw, want := range cases {
		got, err := StripPricingPrefix(raw)
		if err != nil || got != want {
			t.Fatalf("StripPricingPrefix(%q) = %d, %v; want %d", raw, got, err, want)
		}
	}
	if _, err := StripPricingPrefix("GH-100"); err == nil {
		t.Fatalf("only the NG- prefix is stripped")
	}
}

func TestBuildPricingIndex_FirstMatchWins(t *testing.T) {
	pricing := pricingTable(
		[]string{"NG-200", "Paracetamol", "10", "12", "25", "20"},
		[]string{"", "Orphan", "", "", "", ""},
		[]string{"NG-200", "Paracetamol (dup)", "10", "99", "99", "99"},
	)
	idx, warnings, err := BuildPricingIndex(pricing)
	if err != nil {
		t.Fatalf("BuildPricingIndex: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected one id, got %d", idx.Len())
	}
	rec, ok := idx.Lookup(200)
	if !ok || rec.Row != 1 || rec.TheaUnit != "20" {
		t.Fatalf("expected first row to win, got %+v", rec)
	}
	if len(warnings) != 2 || warnings[0].Kind != models.WarningSkippedRow || warnings[1].Kind != models.WarningAmbiguousMapping {
		t.Fatalf("unexpected warnings %+v", warnings)
	}
}

func TestSplitSales(t *testing.T) {
	records, err := NormalizeSales(salesTable(
		customSale("01 Apr, 2023", "guest", "100", "100"),
		posSale("01 Apr, 2023", "101", "20", "8"),
		saleRow{day: "01 Apr, 2023", source: "Non-Formulary", manual: "True"},
		saleRow{day: "01 Apr, 2023", source: "FORMULARY", manual: ""},
	))
	if err != nil {
		t.Fatalf("NormalizeSales: %v", err)
	}
	custom, pos, ignored, err := SplitSales(records)
	if err != nil {
		t.Fatalf("SplitSales: %v", err)
	}
	if len(custom) != 1 || len(pos) != 1 || ignored != 2 {
		t.Fatalf("expected 1 custom, 1 pos, 2 ignored; got %d, %d, %d", len(custom), len(pos), ignored)
	}

	records[0].IsManual = "maybe"
	if _, _, _, err := SplitSales(records); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected MalformedInput for invalid flag, got %v", err)
	}
}

func TestReconcileCustomSales(t *testing.T) {
	remap, _, err := BuildRemapIndex(repoTable([]string{"A", "100", "200"}))
	if err != nil {
		t.Fatalf("BuildRemapIndex: %v", err)
	}
	records, err := NormalizeSales(salesTable(
		customSale("01 Apr, 2023", "guest", "100.0", "100"),
		customSale("01 Apr, 2023", "guest", "300", "100"),
	))
	if err != nil {
		t.Fatalf("NormalizeSales: %v", err)
	}
	sales, remapped, err := ReconcileCustomSales(records, remap)
	if err != nil {
		t.Fatalf("ReconcileCustomSales: %v", err)
	}
	if remapped != 1 || sales[0].ProductID != 200 || sales[0].OriginalID != 100 || !sales[0].Remapped {
		t.Fatalf("expected first sale remapped 100 -> 200, got %+v (remapped=%d)", sales[0], remapped)
	}
	if sales[1].ProductID != 300 || sales[1].Remapped {
		t.Fatalf("expected 300 untouched, got %+v", sales[1])
	}

	records[1].DrugID = "ABC"
	_, _, err = ReconcileCustomSales(records, remap)
	se, ok := AsStageError(err)
	if !ok || se.Column != models.ColDrugID || se.Row != 2 {
		t.Fatalf("expected MalformedInput on Vdl Drug ID row 2, got %v", err)
	}
}

func TestRunLedgerWorkflow_ChainResolvesToTerminalId(t *testing.T) {
	// only the intermediate id is priced: the terminal id wins, so the row misses
	in := models.LedgerInputs{
		Sales:   salesTable(customSale("01 Apr, 2023", "guest", "100", "100")),
		Pricing: pricingTable([]string{"NG-200", "Paracetamol", "10", "12", "25", "20"}),
		Repo:    repoTable([]string{"A", "100", "200"}, []string{"A", "200", "300"}),
	}
	result, err := RunLedgerWorkflow(context.Background(), in, models.LedgerOptions{})
	if err != nil {
		t.Fatalf("RunLedgerWorkflow: %v", err)
	}
	if len(result.Records) != 0 || len(result.Rejected) != 1 {
		t.Fatalf("expected the row rejected, got %d kept %d rejected", len(result.Records), len(result.Rejected))
	}
	rejected := result.Rejected[0]
	if rejected.Record.ProductID != "300" || rejected.Reason != models.RejectNullMargin {
		t.Fatalf("expected product 300 dropped as null_margin, got %+v", rejected)
	}
	var chain, miss bool
	for _, w := range result.Report.Warnings {
		switch w.Kind {
		case models.WarningRemapChain:
			chain = strings.Contains(w.Message, "terminal id 300")
		case models.WarningLookupMiss:
			miss = w.Value == "300"
		}
	}
	if !chain || !miss {
		t.Fatalf("expected chain and lookup miss warnings, got %+v", result.Report.Warnings)
	}
}
