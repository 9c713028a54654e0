package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmdatafocus/sales_ledger/config"
	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/mmdatafocus/sales_ledger/utils"
	"github.com/mmdatafocus/sales_ledger/workflow"
)

type cliOptions struct {
	sales   string
	pricing string
	repo    string
	out     string
	format  string
	sort    string
	rejects string
}

func main() {
	var opts cliOptions
	flag.StringVar(&opts.sales, "sales", "", "Required: sales export (csv or xlsx)")
	flag.StringVar(&opts.pricing, "pricing", "", "Required: price list (csv or xlsx)")
	flag.StringVar(&opts.repo, "repo", "", "Required: product id remap table (csv or xlsx)")
	flag.StringVar(&opts.out, "out", "processed_data.csv", "Output ledger path")
	flag.StringVar(&opts.format, "format", "csv", "Output format (csv/xlsx/sqlite)")
	flag.StringVar(&opts.sort, "sort", "chronological", "Sort mode (chronological/lexical)")
	flag.StringVar(&opts.rejects, "rejects", "", "Optional: write rows dropped by the margin filter to this path")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	for flagName, v := range map[string]string{"--sales": opts.sales, "--pricing": opts.pricing, "--repo": opts.repo} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", flagName)
		}
	}
	format, err := models.ParseOutputFormat(opts.format)
	if err != nil {
		return fmt.Errorf("invalid --format %q", opts.format)
	}
	sortMode, err := models.ParseSortMode(opts.sort)
	if err != nil {
		return fmt.Errorf("invalid --sort %q", opts.sort)
	}

	sales, err := os.ReadFile(opts.sales)
	if err != nil {
		return err
	}
	pricing, err := os.ReadFile(opts.pricing)
	if err != nil {
		return err
	}
	repo, err := os.ReadFile(opts.repo)
	if err != nil {
		return err
	}

	in, err := workflow.LoadLedgerInputs(sales, pricing, repo)
	if err != nil {
		return err
	}
	result, err := workflow.RunLedgerWorkflow(ctx, in, models.LedgerOptions{SortMode: sortMode})
	if err != nil {
		return err
	}

	if err := utils.WriteLedgerFile(opts.out, format, models.LedgerColumns, workflow.LedgerRows(result.Records)); err != nil {
		config.LogError(config.GetLogger(), "reconcile-ledger", "run", "WriteLedgerFile", opts.out, err)
		return err
	}
	if opts.rejects != "" {
		if err := utils.WriteLedgerFile(opts.rejects, format, models.RejectColumns, workflow.RejectRows(result.Rejected)); err != nil {
			return err
		}
	}

	r := result.Report
	fmt.Fprintf(stdout, "run %s: %d ledger rows (%d custom, %d pos input), %d dropped, %d lookup misses, %d remapped, %d warnings -> %s\n",
		r.RunId, r.LedgerRows, r.CustomRows, r.PosRows, r.Dropped(), r.LookupMisses, r.RemappedRows, len(r.Warnings), opts.out)
	for _, w := range r.Warnings {
		fmt.Fprintf(stdout, "  warning %s %s row %d %s: %s\n", w.Kind, w.Table, w.Row, w.Value, w.Message)
	}
	return nil
}
