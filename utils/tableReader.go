package utils

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mmdatafocus/sales_ledger/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrEmptyTable = errors.New("empty file: no header row found")

	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	zipMagic   = []byte("PK\x03\x04")
)

// ReadTable materializes an uploaded sheet. XLSX workbooks are detected by
// their zip signature; anything else is read as CSV.
func ReadTable(name string, data []byte) (*models.Table, error) {
	return ReadTableSheet(name, data, "")
}

// ReadTableSheet is ReadTable with an explicit workbook sheet (ignored for CSV).
func ReadTableSheet(name string, data []byte, sheet string) (*models.Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyTable
	}
	if bytes.HasPrefix(data, zipMagic) {
		return readXLSXTable(name, data, sheet)
	}
	return readCSVTable(name, data)
}

func readCSVTable(name string, data []byte) (*models.Table, error) {
	decoded, err := DecodeToUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	table := models.NewTable(name, headers)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", table.Len()+1, err)
		}
		table.AppendRow(row)
	}
	return table, nil
}

func readXLSXTable(name string, data []byte, sheet string) (*models.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyTable
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	table := models.NewTable(name, rows[0])
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		table.AppendRow(row)
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// DecodeToUTF8 strips a byte-order mark and converts UTF-16 or Windows-1252
// exports to UTF-8.
func DecodeToUTF8(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		out, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), data)
		return out, err
	case bytes.HasPrefix(data, bomUTF16BE):
		out, _, err := transform.Bytes(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), data)
		return out, err
	case utf8.Valid(data):
		return data, nil
	default:
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		return out, err
	}
}
