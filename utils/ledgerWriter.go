package utils

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

const (
	LedgerSheetName = "Ledger"
	LedgerTableName = "sales_ledger"
)

// EncodeLedger renders rows in the requested format and returns the artifact bytes.
func EncodeLedger(format models.OutputFormat, headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case models.OutputFormatCSV:
		if err := WriteLedgerCSV(&buf, headers, rows); err != nil {
			return nil, err
		}
	case models.OutputFormatXLSX:
		if err := WriteLedgerXLSX(&buf, headers, rows); err != nil {
			return nil, err
		}
	case models.OutputFormatSQLite:
		// the sqlite driver needs a real file; use a per-call temp file
		tmp, err := os.CreateTemp("", "ledger-*.sqlite")
		if err != nil {
			return nil, err
		}
		path := tmp.Name()
		tmp.Close()
		defer os.Remove(path)
		if err := WriteLedgerSQLite(path, headers, rows); err != nil {
			return nil, err
		}
		return os.ReadFile(path)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return buf.Bytes(), nil
}

// WriteLedgerFile writes the artifact to path in the requested format.
func WriteLedgerFile(path string, format models.OutputFormat, headers []string, rows [][]string) error {
	if format == models.OutputFormatSQLite {
		return WriteLedgerSQLite(path, headers, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if format == models.OutputFormatXLSX {
		return WriteLedgerXLSX(f, headers, rows)
	}
	return WriteLedgerCSV(f, headers, rows)
}

func WriteLedgerCSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func WriteLedgerXLSX(w io.Writer, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LedgerSheetName); err != nil {
		return err
	}

	// Add headers
	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(LedgerSheetName, "A1", &headerCells); err != nil {
		return err
	}

	// Add data
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = typedCellValue(headers, j, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(LedgerSheetName, cell, &cells); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func typedCellValue(headers []string, col int, v string) interface{} {
	if col >= len(headers) || !models.LedgerNumericColumns[headers[col]] || v == "" {
		return v
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	return d.InexactFloat64()
}

func WriteLedgerSQLite(path string, headers []string, rows [][]string) error {
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	defs := make([]string, 0, len(headers))
	quoted := make([]string, 0, len(headers))
	for _, h := range headers {
		t := "TEXT"
		if models.LedgerNumericColumns[h] {
			t = "REAL"
		}
		defs = append(defs, fmt.Sprintf("%q %s", h, t))
		quoted = append(quoted, fmt.Sprintf("%q", h))
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`CREATE TABLE %q (%s)`, LedgerTableName, strings.Join(defs, ","))); err != nil {
		return err
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(headers)), ",")
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, LedgerTableName, strings.Join(quoted, ","), ph))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(headers))
		for i := range headers {
			var v string
			if i < len(row) {
				v = row[i]
			}
			args[i] = sqliteValue(headers[i], v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func sqliteValue(header, v string) any {
	if !models.LedgerNumericColumns[header] {
		return v
	}
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	return d.InexactFloat64()
}
