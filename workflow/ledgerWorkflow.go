package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/sales_ledger/config"
	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("sales-ledger")

// LoadLedgerInputs reads the three uploaded byte streams into tables.
func LoadLedgerInputs(sales, pricing, repo []byte) (models.LedgerInputs, error) {
	var in models.LedgerInputs
	sources := []struct {
		name string
		data []byte
		dst  **models.Table
	}{
		{models.TableSales, sales, &in.Sales},
		{models.TablePricing, pricing, &in.Pricing},
		{models.TableRepo, repo, &in.Repo},
	}
	for _, src := range sources {
		t, err := utils.ReadTableSheet(src.name, src.data, config.LedgerXlsxSheet())
		if err != nil {
			return models.LedgerInputs{}, malformed(StageLoad, src.name, "", 0, "", err)
		}
		*src.dst = t
	}
	return in, nil
}

// RunLedgerWorkflow reconciles the sales, pricing and repo tables into the
// sales ledger. Any MalformedInput or remap cycle aborts the run with a
// *StageError and no partial result.
func RunLedgerWorkflow(ctx context.Context, in models.LedgerInputs, opts models.LedgerOptions) (*models.LedgerResult, error) {
	logger := config.GetLogger()
	if opts.RunId == "" {
		opts.RunId = uuid.NewString()
	}
	if opts.SortMode == "" {
		opts.SortMode = models.SortChronological
	}

	ctx, span := tracer.Start(ctx, "RunLedgerWorkflow", trace.WithAttributes(attribute.String("run_id", opts.RunId)))
	defer span.End()

	report := models.RunReport{
		RunId:       opts.RunId,
		SortMode:    opts.SortMode,
		StartedAt:   time.Now(),
		DroppedRows: map[models.RejectReason]int{},
	}
	result, err := runLedgerStages(ctx, logger, in, opts, &report)
	report.DurationMs = time.Since(report.StartedAt).Milliseconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		config.LogError(logger, "ledgerWorkflow.go", "RunLedgerWorkflow", opts.RunId, stageErrorFields(err), err)
		return nil, err
	}
	result.Report = report

	logger.WithFields(logrus.Fields{
		"run_id":        report.RunId,
		"sales_rows":    report.SalesRows,
		"custom_rows":   report.CustomRows,
		"pos_rows":      report.PosRows,
		"remapped_rows": report.RemappedRows,
		"lookup_misses": report.LookupMisses,
		"ledger_rows":   report.LedgerRows,
		"dropped_rows":  report.Dropped(),
		"warnings":      len(report.Warnings),
		"duration_ms":   report.DurationMs,
	}).Info("ledger run completed")
	span.SetAttributes(
		attribute.Int("ledger_rows", report.LedgerRows),
		attribute.Int("dropped_rows", report.Dropped()),
	)
	return result, nil
}

func runLedgerStages(ctx context.Context, logger *logrus.Logger, in models.LedgerInputs, opts models.LedgerOptions, report *models.RunReport) (*models.LedgerResult, error) {
	if in.Sales == nil || in.Pricing == nil || in.Repo == nil {
		return nil, malformed(StageLoad, "", "", 0, "", errors.New("sales, pricing and repo tables are all required"))
	}
	report.SalesRows = in.Sales.Len()
	report.PricingRows = in.Pricing.Len()
	report.RepoRows = in.Repo.Len()
	stageLog := logger.WithField("run_id", opts.RunId)

	// normalize
	_, span := tracer.Start(ctx, StageNormalize)
	if err := NormalizeInputs(in); err != nil {
		span.End()
		return nil, err
	}
	records, err := NormalizeSales(in.Sales)
	span.SetAttributes(attribute.Int("rows", len(records)))
	span.End()
	if err != nil {
		return nil, err
	}
	stageLog.WithFields(logrus.Fields{"stage": StageNormalize, "rows": len(records)}).Debug("sales normalized")

	// reconcile
	_, span = tracer.Start(ctx, StageReconcile)
	custom, pos, ignored, err := SplitSales(records)
	if err != nil {
		span.End()
		return nil, err
	}
	remap, remapWarnings, err := BuildRemapIndex(in.Repo)
	if err != nil {
		span.End()
		return nil, err
	}
	pricing, pricingWarnings, err := BuildPricingIndex(in.Pricing)
	if err != nil {
		span.End()
		return nil, err
	}
	sales, remapped, err := ReconcileCustomSales(custom, remap)
	span.SetAttributes(
		attribute.Int("custom_rows", len(custom)),
		attribute.Int("pos_rows", len(pos)),
		attribute.Int("remapped_rows", remapped),
	)
	span.End()
	if err != nil {
		return nil, err
	}
	report.CustomRows = len(custom)
	report.PosRows = len(pos)
	report.IgnoredRows = ignored
	report.RemappedRows = remapped
	for _, w := range append(remapWarnings, pricingWarnings...) {
		report.AddWarning(w)
	}
	stageLog.WithFields(logrus.Fields{
		"stage":         StageReconcile,
		"custom_rows":   len(custom),
		"pos_rows":      len(pos),
		"remap_ids":     remap.Len(),
		"pricing_ids":   pricing.Len(),
		"remapped_rows": remapped,
	}).Debug("identifiers reconciled")

	// price
	_, span = tracer.Start(ctx, StagePrice)
	err = ResolvePrices(sales, pricing, report)
	span.SetAttributes(attribute.Int("lookup_misses", report.LookupMisses))
	span.End()
	if err != nil {
		return nil, err
	}

	// economics
	_, span = tracer.Start(ctx, StageEconomics)
	err = ApplyUnitEconomics(sales)
	span.End()
	if err != nil {
		return nil, err
	}

	// merge
	_, span = tracer.Start(ctx, StageMerge)
	kept, rejected := MergeLedger(CustomLedgerRecords(sales), PosLedgerRecords(pos), opts.SortMode)
	for _, r := range rejected {
		report.DroppedRows[r.Reason]++
	}
	report.LedgerRows = len(kept)
	span.SetAttributes(attribute.Int("ledger_rows", len(kept)), attribute.Int("rejected_rows", len(rejected)))
	span.End()
	stageLog.WithFields(logrus.Fields{"stage": StageMerge, "ledger_rows": len(kept), "rejected_rows": len(rejected)}).Debug("ledger merged")

	return &models.LedgerResult{Records: kept, Rejected: rejected}, nil
}

func stageErrorFields(err error) any {
	se, ok := AsStageError(err)
	if !ok {
		return nil
	}
	return logrus.Fields{
		"kind":   se.Kind,
		"stage":  se.Stage,
		"table":  se.Table,
		"column": se.Column,
		"row":    se.Row,
		"value":  se.Value,
	}
}

// LedgerRows renders records in LedgerColumns order for the writers.
func LedgerRows(records []models.LedgerRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	return rows
}

// RejectRows renders rejected records in RejectColumns order.
func RejectRows(rejected []models.RejectedRecord) [][]string {
	rows := make([][]string, 0, len(rejected))
	for _, r := range rejected {
		rows = append(rows, r.Values())
	}
	return rows
}
