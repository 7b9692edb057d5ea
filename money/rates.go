package money

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE TABLE - Caller-supplied FX rates, as of a single date
// =============================================================================

// Pair identifies a directed currency pair, e.g. GBP -> ZAR.
type Pair struct {
	From Currency
	To   Currency
}

func (p Pair) String() string { return fmt.Sprintf("%s/%s", p.From, p.To) }

// RateTable holds exchange rates fetched by an external collaborator.
// The engine never fetches rates itself; a table is built at the request
// boundary and passed down into pure calculation code.
type RateTable struct {
	AsOf  time.Time
	rates map[Pair]decimal.Decimal
}

// NewRateTable creates an empty table stamped with the as-of date.
func NewRateTable(asOf time.Time) *RateTable {
	return &RateTable{AsOf: asOf, rates: make(map[Pair]decimal.Decimal)}
}

// Set records the rate for a pair and derives the inverse pair.
// A zero or negative rate is ignored (a zero rate would make the
// inverse undefined).
func (t *RateTable) Set(from, to Currency, r decimal.Decimal) {
	if !r.IsPositive() {
		return
	}
	t.rates[Pair{From: from, To: to}] = r
	t.rates[Pair{From: to, To: from}] = decimal.NewFromInt(1).Div(r)
}

// Rate returns the rate for a directed pair.
func (t *RateTable) Rate(from, to Currency) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	r, ok := t.rates[Pair{From: from, To: to}]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s as of %s", ErrRateNotFound,
			Pair{From: from, To: to}, t.AsOf.Format("2006-01-02"))
	}
	return r, nil
}

// Convert converts m into the target currency using the table's rate.
// Converting to the same currency is the identity.
func (t *RateTable) Convert(m Money, to Currency) (Money, error) {
	if m.Currency == to {
		return m, nil
	}
	r, err := t.Rate(m.Currency, to)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Mul(r), Currency: to}, nil
}
