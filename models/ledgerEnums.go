package models

import (
	"errors"
	"strings"
)

type SaleType string

const (
	SaleTypeCustom SaleType = "Custom Sale"
	SaleTypePOS    SaleType = "POS Sale"
)

// SortMode decides the final ledger ordering.
type SortMode string

const (
	// SortChronological orders by the parsed sale date.
	SortChronological SortMode = "chronological"
	// SortLexical orders by the display token ("1/apr/2023"), the legacy behaviour.
	SortLexical SortMode = "lexical"
)

func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SortChronological):
		return SortChronological, nil
	case string(SortLexical):
		return SortLexical, nil
	default:
		return "", errors.New("invalid sort mode")
	}
}

type OutputFormat string

const (
	OutputFormatCSV    OutputFormat = "csv"
	OutputFormatXLSX   OutputFormat = "xlsx"
	OutputFormatSQLite OutputFormat = "sqlite"
)

func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OutputFormatCSV):
		return OutputFormatCSV, nil
	case string(OutputFormatXLSX):
		return OutputFormatXLSX, nil
	case string(OutputFormatSQLite):
		return OutputFormatSQLite, nil
	default:
		return "", errors.New("invalid output format")
	}
}

func (f OutputFormat) Extension() string {
	switch f {
	case OutputFormatXLSX:
		return ".xlsx"
	case OutputFormatSQLite:
		return ".sqlite"
	default:
		return ".csv"
	}
}

func (f OutputFormat) ContentType() string {
	switch f {
	case OutputFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case OutputFormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "text/csv"
	}
}

type RejectReason string

const (
	RejectNullMargin     RejectReason = "null_margin"
	RejectNegativeMargin RejectReason = "negative_margin"
)

type WarningKind string

const (
	WarningLookupMiss       WarningKind = "LookupMiss"
	WarningAmbiguousMapping WarningKind = "AmbiguousMapping"
	WarningSkippedRow       WarningKind = "SkippedRow"
	WarningRemapChain       WarningKind = "RemapChain"
)
