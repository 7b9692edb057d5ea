/*
Package money provides currency-tagged decimal amounts and explicit,
auditable conversion between currencies.

PURPOSE:
  Every monetary value in the engine carries its currency. Arithmetic
  across mismatched currencies is a programming error and is rejected,
  never silently coerced. Conversion happens only through a RateTable
  supplied by the caller with an as-of date - this package performs no
  rate lookups of its own.

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal throughout, never binary floating point.
     Tax liabilities are user-facing and auditable; cent-level drift
     across recomputation is unacceptable.
  2. Explicit conversion: the only way to change currency is
     RateTable.Convert, which records the pair and date used.
  3. Value semantics: Money is a small immutable value type.

USAGE:
  gbp := money.New("325000", money.GBP)
  zar, err := rates.Convert(gbp, money.ZAR)

SEE ALSO:
  - estate/valuation.go: multi-currency aggregation using RateTable
*/
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CURRENCY
// =============================================================================

type Currency string

const (
	GBP Currency = "GBP"
	ZAR Currency = "ZAR"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCurrencyMismatch is returned when arithmetic is attempted across
	// two different currencies without an explicit conversion.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrRateNotFound is returned when the rate table has no rate for the
	// requested currency pair.
	ErrRateNotFound = errors.New("exchange rate not found")

	// ErrInvalidAmount is returned when an amount string cannot be parsed.
	ErrInvalidAmount = errors.New("invalid monetary amount")
)

// =============================================================================
// MONEY - Amount with currency
// =============================================================================

type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// New creates a Money from a decimal string. Panics on malformed input;
// use Parse for untrusted input.
func New(amount string, currency Currency) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(fmt.Sprintf("money.New: %q: %v", amount, err))
	}
	return Money{Amount: d, Currency: currency}
}

// Parse creates a Money from an untrusted decimal string.
func Parse(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// FromDecimal wraps an existing decimal.
func FromDecimal(d decimal.Decimal, currency Currency) Money {
	return Money{Amount: d, Currency: currency}
}

// Zero returns a zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// Add returns m + other. The currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. The currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// MustAdd is Add for amounts already known to share a currency.
func (m Money) MustAdd(other Money) Money {
	r, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return r
}

// MustSub is Sub for amounts already known to share a currency.
func (m Money) MustSub(other Money) Money {
	r, err := m.Sub(other)
	if err != nil {
		panic(err)
	}
	return r
}

// Mul scales the amount by a dimensionless factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// FloorZero returns m, or zero if m is negative. Used for tax amounts
// that must never go below zero.
func (m Money) FloorZero() Money {
	if m.Amount.IsNegative() {
		return Zero(m.Currency)
	}
	return m
}

// Min returns the smaller of two same-currency amounts.
func (m Money) Min(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: min(%s, %s)", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	if m.Amount.LessThan(other.Amount) {
		return m, nil
	}
	return other, nil
}

func (m Money) GreaterThan(other Money) bool {
	return m.Currency == other.Currency && m.Amount.GreaterThan(other.Amount)
}

func (m Money) LessThan(other Money) bool {
	return m.Currency == other.Currency && m.Amount.LessThan(other.Amount)
}

// Round rounds to the given number of decimal places (bankers' rounding
// is deliberately NOT used; tax statements round half away from zero).
func (m Money) Round(places int32) Money {
	return Money{Amount: m.Amount.Round(places), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Amount.StringFixed(2))
}
