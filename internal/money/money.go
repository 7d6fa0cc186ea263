// Package money implements exact decimal conversion into the base reporting
// currency. All arithmetic uses shopspring decimals; the only rounding in the
// whole engine happens here, to two decimal places, half away from zero.
package money

import (
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
)

// Table maps a currency code to its exchange rate against the base currency
// (units of base currency per one unit of the listed currency).
type Table map[string]decimal.Decimal

// Rate returns the rate for the given currency code.
func (t Table) Rate(code string) (decimal.Decimal, error) {
	rate, ok := t[code]
	if !ok {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrUnknownCurrency, "no exchange rate for currency "+code)
	}
	return rate, nil
}

// Convert converts amount from the given currency into the base currency,
// rounding to two decimal places. It is side-effect-free: the table is only
// read, never modified.
func Convert(amount decimal.Decimal, code string, table Table) (decimal.Decimal, error) {
	rate, err := table.Rate(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return Round(amount.Mul(rate)), nil
}

// Round rounds a monetary value to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
