/*
taper.go - Taper relief schedule and the 7-year death window

PURPOSE:
  Taper relief reduces the IHT payable on a gift when the donor dies
  between 3 and 7 years after making it. The schedule is a fixed band
  table keyed by whole years survived:

    years survived   relief on the tax due
    0 - <3           0%
    3 - <4           20%
    4 - <5           40%
    5 - <6           60%
    6 - <7           80%
    >= 7             fully exempt (outside the estate)

  Relief applies to the TAX on the gift, never the gift's value.
  Band boundaries are exact: surviving exactly 3 years earns 20%,
  exactly 7 years is full exemption.
*/
package gift

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TAPER BANDS
// =============================================================================

// Relief is the taper outcome for one gift.
type Relief struct {
	YearsSurvived int
	// Percentage of the tax relieved, 0-100. Meaningless when Exempt.
	ReliefPercent decimal.Decimal
	// Exempt: donor survived the full 7 years; the gift drops out of
	// the estate entirely.
	Exempt bool
}

type taperBand struct {
	minYears int // inclusive
	relief   int64
}

// Ascending; the first band whose minYears exceeds the survived count
// ends the scan.
var taperBands = []taperBand{
	{minYears: 0, relief: 0},
	{minYears: 3, relief: 20},
	{minYears: 4, relief: 40},
	{minYears: 5, relief: 60},
	{minYears: 6, relief: 80},
}

const exemptAfterYears = 7

// TaperRelief returns the relief for a gift made on giftDate when the
// donor dies on deathDate. Years survived are whole anniversary years.
func TaperRelief(giftDate, deathDate time.Time) Relief {
	years := wholeYearsBetween(giftDate, deathDate)
	if years >= exemptAfterYears {
		return Relief{YearsSurvived: years, Exempt: true, ReliefPercent: decimal.NewFromInt(100)}
	}
	r := Relief{YearsSurvived: years}
	for _, band := range taperBands {
		if years >= band.minYears {
			r.ReliefPercent = decimal.NewFromInt(band.relief)
		}
	}
	return r
}

// WithinWindow filters chargeable gifts to those made within 7 years
// of death, preserving chronological (oldest-first) order - the order
// in which they consume the nil-rate band.
func WithinWindow(chargeable []ChargeableGift, deathDate time.Time) []ChargeableGift {
	var out []ChargeableGift
	for _, g := range chargeable {
		if g.Date.After(deathDate) {
			continue
		}
		if wholeYearsBetween(g.Date, deathDate) >= exemptAfterYears {
			continue
		}
		out = append(out, g)
	}
	return out
}

// wholeYearsBetween counts complete anniversary years from a to b.
func wholeYearsBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	years := b.Year() - a.Year()
	if years > 0 && a.AddDate(years, 0, 0).After(b) {
		years--
	}
	return years
}
