/*
constants.go - Year-keyed statutory constants

PURPOSE:
  Holds the UK IHT and SA estate duty figures in force for each tax
  year. The tables are keyed by tax year so historical recalculation
  stays correct after new years are added. Values here are the compiled
  defaults; the factory package can override them from YAML.

SOURCES:
  UK: IHTA 1984 as amended; NRB frozen at 325,000 since 2009/10, RNRB
  175,000 and taper threshold 2,000,000 since 2020/21.
  SA: Estate Duty Act 45 of 1955; abatement R3.5m, 20% to R30m, 25%
  above, since 2018/19.
*/
package taxyear

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/money"
)

// =============================================================================
// UK CONSTANTS
// =============================================================================

// Constants are the UK IHT figures for one tax year. All amounts GBP.
type Constants struct {
	Year UKYear

	// Nil-rate band and residence nil-rate band
	NilRateBand          money.Money
	ResidenceNilRateBand money.Money
	// Gross estate value above which RNRB tapers away 1 for 2
	RNRBTaperThreshold money.Money

	// IHT rate on the chargeable estate (0.40 = 40%)
	IHTRate decimal.Decimal

	// Lifetime gift exemptions
	AnnualExemption          money.Money
	SmallGiftLimit           money.Money
	MarriageExemptionChild   money.Money
	MarriageExemptionGeneral money.Money
}

// SAConstants are the SA estate duty figures for one SA tax year. All
// amounts ZAR.
type SAConstants struct {
	Year SAYear

	// Section 4A abatement
	Abatement money.Money

	// Dutiable amount up to HigherRateThreshold is taxed at BaseRate,
	// the excess at HigherRate.
	BaseRate            decimal.Decimal
	HigherRate          decimal.Decimal
	HigherRateThreshold money.Money
}

// =============================================================================
// TABLES
// =============================================================================

// Table resolves constants per tax year. Lookups for years before the
// earliest entry fail; lookups after the latest entry fall back to the
// latest known year (current-law assumption for projections).
type Table struct {
	uk map[UKYear]Constants
	sa map[SAYear]SAConstants
}

// NewTable builds a table from explicit entries.
func NewTable(uk []Constants, sa []SAConstants) *Table {
	t := &Table{uk: make(map[UKYear]Constants), sa: make(map[SAYear]SAConstants)}
	for _, c := range uk {
		t.uk[c.Year] = c
	}
	for _, c := range sa {
		t.sa[c.Year] = c
	}
	return t
}

// DefaultTable returns the compiled-in statutory figures.
func DefaultTable() *Table {
	gbp := func(s string) money.Money { return money.New(s, money.GBP) }
	zar := func(s string) money.Money { return money.New(s, money.ZAR) }
	rate := decimal.RequireFromString

	var uk []Constants
	// NRB frozen since 2009/10; RNRB phased in from 2017/18, full and
	// frozen from 2020/21.
	rnrbByYear := map[UKYear]string{
		2017: "100000", 2018: "125000", 2019: "150000",
	}
	for y := UKYear(2017); y <= 2026; y++ {
		rnrb := "175000"
		if v, ok := rnrbByYear[y]; ok {
			rnrb = v
		}
		uk = append(uk, Constants{
			Year:                     y,
			NilRateBand:              gbp("325000"),
			ResidenceNilRateBand:     gbp(rnrb),
			RNRBTaperThreshold:       gbp("2000000"),
			IHTRate:                  rate("0.40"),
			AnnualExemption:          gbp("3000"),
			SmallGiftLimit:           gbp("250"),
			MarriageExemptionChild:   gbp("5000"),
			MarriageExemptionGeneral: gbp("1000"),
		})
	}

	var sa []SAConstants
	for y := SAYear(2019); y <= 2027; y++ {
		sa = append(sa, SAConstants{
			Year:                y,
			Abatement:           zar("3500000"),
			BaseRate:            rate("0.20"),
			HigherRate:          rate("0.25"),
			HigherRateThreshold: zar("30000000"),
		})
	}

	return NewTable(uk, sa)
}

// UK returns the constants for a UK tax year.
func (t *Table) UK(year UKYear) (Constants, error) {
	if c, ok := t.uk[year]; ok {
		return c, nil
	}
	// Project forward using the latest known year.
	var latest UKYear
	found := false
	for y := range t.uk {
		if !found || y > latest {
			latest, found = y, true
		}
	}
	if found && year > latest {
		c := t.uk[latest]
		c.Year = year
		return c, nil
	}
	return Constants{}, fmt.Errorf("no UK constants for tax year %s", year)
}

// SA returns the constants for an SA tax year.
func (t *Table) SA(year SAYear) (SAConstants, error) {
	if c, ok := t.sa[year]; ok {
		return c, nil
	}
	var latest SAYear
	found := false
	for y := range t.sa {
		if !found || y > latest {
			latest, found = y, true
		}
	}
	if found && year > latest {
		c := t.sa[latest]
		c.Year = year
		return c, nil
	}
	return SAConstants{}, fmt.Errorf("no SA constants for tax year %s", year)
}
