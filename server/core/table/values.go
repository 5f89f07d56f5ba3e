package table

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zhukovaskychina/xflatdb/server/core/sqlparser"
)

// SplitValues splits a stored row on every comma and trims each value.
func SplitValues(row string) []string {
	parts := strings.Split(row, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// JoinValues is the inverse of SplitValues for values without commas.
func JoinValues(values []string) string {
	trimmed := make([]string, len(values))
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
	}
	return strings.Join(trimmed, ",")
}

// Unquote drops single quotes from a value before it is compared.
func Unquote(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), "'", "")
}

// ParseNumber reads v as a decimal after quotes are dropped.
func ParseNumber(v string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(Unquote(v))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// IsNumeric reports whether v is a valid literal for a column of type typ.
func IsNumeric(typ sqlparser.ColumnType, v string) bool {
	switch typ {
	case sqlparser.TypeInt:
		_, err := strconv.ParseInt(Unquote(v), 10, 64)
		return err == nil
	case sqlparser.TypeFloat:
		_, ok := ParseNumber(v)
		return ok
	}
	return true
}

// RowKey parses column 0 of row as an integer index key.
func RowKey(row string) (int64, bool) {
	first := row
	if idx := strings.Index(row, ","); idx >= 0 {
		first = row[:idx]
	}
	key, err := strconv.ParseInt(Unquote(first), 10, 64)
	if err != nil {
		return 0, false
	}
	return key, true
}
