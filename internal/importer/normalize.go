package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const csvDateLayout = "02.01.2006"

// headerDatePlaceholder is the literal date-column value of header rows.
const headerDatePlaceholder = "Datum"

// decimalReplacer strips currency markers, a stray encoding artifact and
// interior spaces before separator handling.
var decimalReplacer = strings.NewReplacer("€", "", "EUR", "", "Â", "", " ", "")

// NormalizeDecimal converts free-form numeric text into a decimal.
// German thousands/decimal conventions ("1.234,56") and plain dot-decimal
// input are both accepted. Unparseable input resolves to absent, not an error.
func NormalizeDecimal(raw string) (decimal.Decimal, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Decimal{}, false
	}

	value = decimalReplacer.Replace(value)

	hasComma := strings.Contains(value, ",")
	hasDot := strings.Contains(value, ".")

	switch {
	case hasComma && hasDot:
		// Dot is a thousands separator, comma the decimal separator.
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	case hasComma:
		value = strings.ReplaceAll(value, ",", ".")
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return parsed, true
}

// NormalizeDate parses a dd.MM.yyyy date. Header placeholders and anything
// unparseable resolve to absent so header rows are silently skipped.
func NormalizeDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.EqualFold(value, headerDatePlaceholder) {
		return time.Time{}, false
	}

	parsed, err := time.Parse(csvDateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// NormalizeInteger parses an integer, resolving to absent on failure.
func NormalizeInteger(raw string) (int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
