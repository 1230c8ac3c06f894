package accounting

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the accounting system's home currency. All foreign
// amounts are converted to it for bookkeeping totals.
const BaseCurrency = "NOK"

var ErrInvalidAmount = errors.New("accounting: invalid monetary amount")

// exchangeRates is a static currency → NOK rate table. Live rates from
// Norges Bank are out of scope; unknown currencies convert at 1.0.
var exchangeRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromFloat(10.11),
	"EUR": decimal.NewFromFloat(11.2),
	"GBP": decimal.NewFromFloat(13.0),
}

var defaultRate = decimal.NewFromInt(1)

// ParseAmountMinor parses a decimal amount string ("50.00") into integer
// minor units (5000), rounding half away from zero. Monetary minor units
// are always whole integers.
func ParseAmountMinor(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// ConvertToBaseMinor converts an amount in minor units of the given currency
// into base-currency minor units using the static rate table. The base
// currency passes through unchanged.
func ConvertToBaseMinor(amountMinor int64, currency string) int64 {
	if currency == BaseCurrency {
		return amountMinor
	}
	rate, ok := exchangeRates[currency]
	if !ok {
		rate = defaultRate
	}
	return decimal.NewFromInt(amountMinor).Mul(rate).Round(0).IntPart()
}
