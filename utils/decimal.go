package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidNumber = errors.New("invalid number")

// ParseDecimal accepts spreadsheet-formatted amounts like "20,000" or " 1,234.50 ".
// Blank cells and pandas-style "nan" come back as a null decimal.
func ParseDecimal(raw string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.NullDecimal{}, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	val, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, ErrInvalidNumber
	}
	return decimal.NullDecimal{Decimal: val, Valid: true}, nil
}

// ParseDecimalLenient is ParseDecimal with unparseable input coerced to null.
func ParseDecimalLenient(raw string) decimal.NullDecimal {
	d, err := ParseDecimal(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return d
}

// ParseIdentifier coerces a product id cell to an integer. Spreadsheet exports
// often write integer columns as "123.0", which is accepted.
func ParseIdentifier(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrInvalidNumber
	}
	if dot := strings.IndexByte(s, '.'); dot > 0 && strings.Trim(s[dot+1:], "0") == "" {
		s = s[:dot]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// ParseFlag reads boolean cells the way the sales export writes them.
// ok is false for blank cells.
func ParseFlag(raw string) (value bool, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return false, false, nil
	case "true", "t", "1", "yes", "y":
		return true, true, nil
	case "false", "f", "0", "no", "n":
		return false, true, nil
	default:
		return false, false, errors.New("invalid boolean")
	}
}
