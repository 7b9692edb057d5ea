/*
Package taxyear maps calendar dates to UK and SA tax years and supplies
the year-scoped statutory constants (nil-rate bands, exemptions, rates).

PURPOSE:
  Tax rules are year-scoped: the UK tax year runs 6 April to 5 April,
  the SA tax year 1 March to end of February. Every band, allowance and
  exemption the engine applies is keyed by the tax year of the date in
  question, never hard-coded inline, so recalculating a past year stays
  correct after current-year constants change.

KEY CONCEPTS:
  - UKYear / SAYear: a tax year named by its starting calendar year
    (UKYear 2024 = 6 Apr 2024 - 5 Apr 2025).
  - Constants: the statutory figures in force for a given UK tax year.
  - SAConstants: the SA estate duty figures for a given SA tax year.

SEE ALSO:
  - constants.go: the year-keyed tables
  - factory/constants.go: loading table overrides from YAML
*/
package taxyear

import (
	"fmt"
	"time"
)

// =============================================================================
// UK TAX YEAR - 6 April to 5 April
// =============================================================================

// UKYear names a UK tax year by its starting calendar year.
// UKYear(2024) is the year 2024/25: 6 Apr 2024 - 5 Apr 2025.
type UKYear int

// UKYearOf returns the UK tax year containing the given date.
func UKYearOf(date time.Time) UKYear {
	y := date.Year()
	boundary := time.Date(y, time.April, 6, 0, 0, 0, 0, time.UTC)
	if date.Before(boundary) {
		return UKYear(y - 1)
	}
	return UKYear(y)
}

// Start returns 6 April of the starting year.
func (y UKYear) Start() time.Time {
	return time.Date(int(y), time.April, 6, 0, 0, 0, 0, time.UTC)
}

// End returns 5 April of the following year.
func (y UKYear) End() time.Time {
	return time.Date(int(y)+1, time.April, 5, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether the date falls in this tax year.
func (y UKYear) Contains(date time.Time) bool {
	return UKYearOf(date) == y
}

// Days returns the number of days in the tax year. A UK tax year spans
// 366 days exactly when it contains a 29 February (the following
// calendar year is a leap year, since Jan-Apr 5 fall in it).
func (y UKYear) Days() int {
	return int(y.End().AddDate(0, 0, 1).Sub(y.Start()).Hours() / 24)
}

func (y UKYear) String() string {
	return fmt.Sprintf("%d/%02d", int(y), (int(y)+1)%100)
}

// =============================================================================
// SA TAX YEAR - 1 March to end of February
// =============================================================================

// SAYear names an SA tax year of assessment by its ENDING calendar year,
// following SARS convention: SAYear(2025) is 1 Mar 2024 - 28 Feb 2025.
type SAYear int

// SAYearOf returns the SA tax year of assessment containing the date.
func SAYearOf(date time.Time) SAYear {
	y := date.Year()
	boundary := time.Date(y, time.March, 1, 0, 0, 0, 0, time.UTC)
	if date.Before(boundary) {
		return SAYear(y)
	}
	return SAYear(y + 1)
}

// Start returns 1 March of the preceding calendar year.
func (y SAYear) Start() time.Time {
	return time.Date(int(y)-1, time.March, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of February of the ending year.
func (y SAYear) End() time.Time {
	return time.Date(int(y), time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// Contains reports whether the date falls in this tax year.
func (y SAYear) Contains(date time.Time) bool {
	return SAYearOf(date) == y
}

// Days returns the number of days in the tax year (366 when the ending
// year is a leap year).
func (y SAYear) Days() int {
	return int(y.End().AddDate(0, 0, 1).Sub(y.Start()).Hours() / 24)
}

func (y SAYear) String() string {
	return fmt.Sprintf("%d/%02d", int(y)-1, int(y)%100)
}
