package document

import (
	"strings"
	"time"
	"unicode"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MaxCellRunes is the longest text a table cell shows before truncation
const MaxCellRunes = 34

const ellipsis = "..."

// Truncate shortens s to at most max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string(r[:max])
	}
	return string(r[:max-len(ellipsis)]) + ellipsis
}

// Formatter renders values the same way in every output format
type Formatter struct {
	Currency valueobject.Currency
}

// NewFormatter returns a formatter for the currency code, SLE when empty
func NewFormatter(currency string) Formatter {
	if currency == "" {
		return Formatter{Currency: valueobject.DefaultCurrency}
	}
	return Formatter{Currency: valueobject.Currency(strings.ToUpper(currency))}
}

// Money renders "SLE 1,250"
func (f Formatter) Money(v decimal.Decimal) string {
	currency := f.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return valueobject.MustMoney(v, currency).Format()
}

// Date renders "15 Oct 2026", empty for a zero time
func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

// Quantity renders a quantity without trailing zeros
func (f Formatter) Quantity(v decimal.Decimal) string {
	return v.String()
}

// SanitizeFilename keeps letters, digits, '-', '_' and '.', replacing
// anything else with '_'.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "document"
	}
	return out
}
