package config

import (
	"os"
	"strconv"
	"strings"
)

// SerializeRuns makes the upload handler hold a cross-instance redis lock for
// the duration of each reconciliation run.
//
// Set via env:
// - SERIALIZE_RUNS=true
func SerializeRuns() bool {
	return envBool("SERIALIZE_RUNS")
}

// AuthRequired guards the /api routes with a bearer JWT signed with API_SECRET.
//
// Set via env:
// - AUTH_REQUIRED=true
func AuthRequired() bool {
	return envBool("AUTH_REQUIRED")
}

// LedgerXlsxSheet names the workbook sheet read from XLSX uploads.
// Empty means the first sheet.
//
// Set via env:
// - LEDGER_XLSX_SHEET="Sheet1"
func LedgerXlsxSheet() string {
	return strings.TrimSpace(os.Getenv("LEDGER_XLSX_SHEET"))
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
