package valueobject

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	SLE Currency = "SLE" // Sierra Leonean Leone (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
)

// DefaultCurrency is the default currency for rendered documents
const DefaultCurrency = SLE

// groupSeparator is the thousands separator of the document locale
var groupSeparator = strings.Trim(message.NewPrinter(language.English).Sprintf("%d", 1000), "0123456789")

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney is NewMoney for call sites that already hold a valid currency
func MustMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Format renders the amount as an integer-grouped string prefixed with the
// currency code, e.g. "SLE 1,250".
func (m Money) Format() string {
	return FormatAmount(m.currency, m.amount)
}

// String implements fmt.Stringer
func (m Money) String() string {
	return m.Format()
}

// FormatAmount formats amount in whole units with thousands grouping.
func FormatAmount(currency Currency, amount decimal.Decimal) string {
	return string(currency) + " " + FormatGrouped(amount)
}

// FormatGrouped formats amount in whole units with thousands grouping and no
// code. Amounts are rounded half away from zero and may exceed int64.
func FormatGrouped(amount decimal.Decimal) string {
	digits := amount.Round(0).String()
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	b.Grow(len(sign) + len(digits) + len(digits)/3*len(groupSeparator))
	b.WriteString(sign)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(groupSeparator)
		}
		b.WriteByte(digits[i])
	}
	return b.String()
}
