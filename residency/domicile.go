/*
domicile.go - Domicile classification and deemed-domicile tracking

PURPOSE:
  Domicile, not residency, governs whether UK IHT reaches worldwide
  assets or only UK-situs ones. Two distinct rules can deem a person
  UK domiciled for IHT:

  LONG-TERM RESIDENCE:
    UK resident for >= 15 of the last 20 tax years. Implemented as a
    sliding window scan over the residency history, not a running
    counter - gaps and returns must be handled, and leaving the UK
    does not automatically reset anything.

  FORMERLY-DOMICILED TAIL:
    A person who leaves the UK having been UK domiciled in at least 1
    of the 6 tax years before departure stays deemed domiciled for 3
    full tax years after ceasing residence. This is an explicit second
    rule, never folded into the window scan.

  The tracker also exposes YearsUntilDeemedDomicile and a progress
  percentage for UI consumption - pure derived values.
*/
package residency

import (
	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/taxyear"
)

// =============================================================================
// DOMICILE
// =============================================================================

type Domicile string

const (
	UKDomiciled      Domicile = "UK_DOMICILED"
	NonUKDomiciled   Domicile = "NON_UK_DOMICILED"
	DeemedUKDomicile Domicile = "DEEMED_UK_DOMICILE"
)

// DeemedRule names which rule produced a deemed-domicile finding.
type DeemedRule string

const (
	RuleLongTermResidence     DeemedRule = "long_term_residence"
	RuleFormerlyDomiciledTail DeemedRule = "formerly_domiciled_tail"
)

// Deemed-domicile thresholds.
const (
	deemedResidentYears = 15 // resident years required...
	deemedWindowYears   = 20 // ...within this window
	tailYears           = 3  // deemed years after departure
	tailLookbackYears   = 6  // domiciled in >=1 of these before departure
)

// YearStatus is one UK tax year of history consumed by the tracker.
type YearStatus struct {
	Year        taxyear.UKYear
	UKResident  bool
	UKDomiciled bool // legal domicile that year
}

// Assessment is the tracker's output for a single as-of year.
type Assessment struct {
	Domicile    Domicile
	DeemedUK    bool
	RuleApplied DeemedRule // empty when not deemed

	// Long-term residence progress, for UI consumption.
	ResidentYearsInWindow     int
	YearsUntilDeemedDomicile  int
	DeemedDomicileProgressPct decimal.Decimal // 0-100, capped
}

// =============================================================================
// TRACKER
// =============================================================================

// AssessDomicile classifies domicile for the asOf tax year given the
// residency/domicile history. History order does not matter; years
// after asOf are ignored. legallyUKDomiciled is the person's current
// legal domicile determination (origin or choice).
func AssessDomicile(history []YearStatus, asOf taxyear.UKYear, legallyUKDomiciled bool) Assessment {
	byYear := make(map[taxyear.UKYear]YearStatus, len(history))
	for _, ys := range history {
		if ys.Year <= asOf {
			byYear[ys.Year] = ys
		}
	}

	// Sliding 20-year window ending at asOf. Missing years count as
	// non-resident.
	resident := 0
	for y := asOf - deemedWindowYears + 1; y <= asOf; y++ {
		if byYear[y].UKResident {
			resident++
		}
	}

	a := Assessment{
		ResidentYearsInWindow:     resident,
		YearsUntilDeemedDomicile:  maxInt(0, deemedResidentYears-resident),
		DeemedDomicileProgressPct: progressPercent(resident),
	}

	switch {
	case legallyUKDomiciled:
		a.Domicile = UKDomiciled
	case resident >= deemedResidentYears:
		a.Domicile = DeemedUKDomicile
		a.DeemedUK = true
		a.RuleApplied = RuleLongTermResidence
	case formerlyDomiciledTail(byYear, asOf):
		a.Domicile = DeemedUKDomicile
		a.DeemedUK = true
		a.RuleApplied = RuleFormerlyDomiciledTail
	default:
		a.Domicile = NonUKDomiciled
	}
	return a
}

// formerlyDomiciledTail applies the departure tail rule: not currently
// resident, left within the last tailYears, and UK domiciled in at
// least one of the tailLookbackYears ending at the last resident year.
func formerlyDomiciledTail(byYear map[taxyear.UKYear]YearStatus, asOf taxyear.UKYear) bool {
	if byYear[asOf].UKResident {
		return false
	}

	// Find the most recent resident year before asOf.
	var lastResident taxyear.UKYear
	found := false
	for y := asOf - 1; y >= asOf-deemedWindowYears; y-- {
		if byYear[y].UKResident {
			lastResident, found = y, true
			break
		}
	}
	if !found {
		return false
	}
	if asOf-lastResident > tailYears {
		return false
	}

	for y := lastResident - tailLookbackYears + 1; y <= lastResident; y++ {
		if byYear[y].UKDomiciled {
			return true
		}
	}
	return false
}

func progressPercent(residentYears int) decimal.Decimal {
	pct := decimal.NewFromInt(int64(residentYears)).
		Div(decimal.NewFromInt(deemedResidentYears)).
		Mul(decimal.NewFromInt(100))
	hundred := decimal.NewFromInt(100)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
