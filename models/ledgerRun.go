package models

import "time"

// LedgerInputs holds the three materialized tables of a single run.
type LedgerInputs struct {
	Sales   *Table
	Pricing *Table
	Repo    *Table
}

type LedgerOptions struct {
	RunId    string
	SortMode SortMode
}

type RunWarning struct {
	Kind    WarningKind `json:"kind"`
	Table   string      `json:"table"`
	Column  string      `json:"column,omitempty"`
	Row     int         `json:"row,omitempty"`
	Value   string      `json:"value,omitempty"`
	Message string      `json:"message"`
}

type RunReport struct {
	RunId        string               `json:"run_id"`
	SalesRows    int                  `json:"sales_rows"`
	PricingRows  int                  `json:"pricing_rows"`
	RepoRows     int                  `json:"repo_rows"`
	CustomRows   int                  `json:"custom_rows"`
	PosRows      int                  `json:"pos_rows"`
	IgnoredRows  int                  `json:"ignored_rows"`
	RemappedRows int                  `json:"remapped_rows"`
	LookupMisses int                  `json:"lookup_misses"`
	LedgerRows   int                  `json:"ledger_rows"`
	DroppedRows  map[RejectReason]int `json:"dropped_rows"`
	SortMode     SortMode             `json:"sort_mode"`
	Warnings     []RunWarning         `json:"warnings,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
	DurationMs   int64                `json:"duration_ms"`
}

func (r *RunReport) AddWarning(w RunWarning) {
	r.Warnings = append(r.Warnings, w)
}

func (r *RunReport) Dropped() int {
	total := 0
	for _, n := range r.DroppedRows {
		total += n
	}
	return total
}

type LedgerResult struct {
	Records  []LedgerRecord
	Rejected []RejectedRecord
	Report   RunReport
}
