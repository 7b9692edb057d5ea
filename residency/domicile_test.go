package residency_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/taxyear"
)

// residentYears builds a history of consecutive UK-resident years
// ending at end, with the given legal domicile flag.
func residentYears(from, to taxyear.UKYear, domiciled bool) []residency.YearStatus {
	var hs []residency.YearStatus
	for y := from; y <= to; y++ {
		hs = append(hs, residency.YearStatus{Year: y, UKResident: true, UKDomiciled: domiciled})
	}
	return hs
}

func TestDomicile_FifteenOfTwentyTriggersDeemed(t *testing.T) {
	// GIVEN: exactly 15 consecutive resident years ending 2024/25
	history := residentYears(2010, 2024, false)

	a := residency.AssessDomicile(history, 2024, false)
	if a.Domicile != residency.DeemedUKDomicile || !a.DeemedUK {
		t.Fatalf("expected deemed domicile, got %+v", a)
	}
	if a.RuleApplied != residency.RuleLongTermResidence {
		t.Errorf("rule = %v", a.RuleApplied)
	}
	if a.ResidentYearsInWindow != 15 {
		t.Errorf("resident years = %d", a.ResidentYearsInWindow)
	}
	if a.YearsUntilDeemedDomicile != 0 {
		t.Errorf("years until deemed = %d, want 0", a.YearsUntilDeemedDomicile)
	}
}

func TestDomicile_FourteenYearsNotYetDeemed(t *testing.T) {
	history := residentYears(2011, 2024, false) // 14 years

	a := residency.AssessDomicile(history, 2024, false)
	if a.Domicile != residency.NonUKDomiciled {
		t.Fatalf("expected non-UK domiciled, got %+v", a)
	}
	if a.YearsUntilDeemedDomicile != 1 {
		t.Errorf("years until deemed = %d, want 1", a.YearsUntilDeemedDomicile)
	}
	want := decimal.NewFromInt(14).Div(decimal.NewFromInt(15)).Mul(decimal.NewFromInt(100))
	if !a.DeemedDomicileProgressPct.Equal(want) {
		t.Errorf("progress = %v, want %v", a.DeemedDomicileProgressPct, want)
	}
}

func TestDomicile_ProgressMonotonicAndCapped(t *testing.T) {
	// Progress must not decrease while continuously resident, and must
	// cap at 100 once past 15 years.
	prev := decimal.Zero
	for end := taxyear.UKYear(2008); end <= 2027; end++ {
		history := residentYears(2008, end, false)
		a := residency.AssessDomicile(history, end, false)
		if a.DeemedDomicileProgressPct.LessThan(prev) {
			t.Fatalf("progress decreased at %v: %v < %v", end, a.DeemedDomicileProgressPct, prev)
		}
		if a.DeemedDomicileProgressPct.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("progress exceeds 100 at %v: %v", end, a.DeemedDomicileProgressPct)
		}
		prev = a.DeemedDomicileProgressPct
	}
}

func TestDomicile_WindowSlidesOverGaps(t *testing.T) {
	// 10 resident years, 5-year gap, 5 more resident years: the 20-year
	// window ending 2024 sees all 15.
	history := append(residentYears(2005, 2014, false), residentYears(2020, 2024, false)...)

	a := residency.AssessDomicile(history, 2024, false)
	if a.ResidentYearsInWindow != 15 {
		t.Fatalf("resident years in window = %d, want 15", a.ResidentYearsInWindow)
	}
	if a.Domicile != residency.DeemedUKDomicile {
		t.Errorf("expected deemed domicile, got %v", a.Domicile)
	}

	// Shift the as-of year forward: early years fall out of the window.
	a = residency.AssessDomicile(history, 2030, false)
	if a.ResidentYearsInWindow >= 15 {
		t.Errorf("window should have shed early years, got %d", a.ResidentYearsInWindow)
	}
}

func TestDomicile_LegalDomicileWins(t *testing.T) {
	a := residency.AssessDomicile(nil, 2024, true)
	if a.Domicile != residency.UKDomiciled {
		t.Errorf("expected UK domiciled, got %v", a.Domicile)
	}
	if a.DeemedUK {
		t.Error("legal domicile is not a deemed finding")
	}
}

func TestDomicile_FormerlyDomiciledTail(t *testing.T) {
	// GIVEN: UK domiciled and resident through 2021/22, departed after
	history := residentYears(2010, 2021, true)

	// 2 years after departure: still deemed via the tail rule.
	a := residency.AssessDomicile(history, 2023, false)
	if a.Domicile != residency.DeemedUKDomicile {
		t.Fatalf("expected deemed domicile, got %+v", a)
	}
	if a.RuleApplied != residency.RuleFormerlyDomiciledTail {
		t.Errorf("rule = %v, want formerly-domiciled tail (only 12 years in window)", a.RuleApplied)
	}

	// Well past the tail (and below 15-in-20): no longer deemed.
	a = residency.AssessDomicile(history, 2031, false)
	if a.Domicile != residency.NonUKDomiciled {
		t.Errorf("expected non-UK domiciled after tail lapses, got %+v", a)
	}
}

func TestDomicile_TailNeedsPriorDomicile(t *testing.T) {
	// Resident but never UK domiciled: departure leaves no tail (only
	// the long-term rule could apply, and 12 years is below 15).
	history := residentYears(2010, 2021, false)

	a := residency.AssessDomicile(history, 2023, false)
	if a.RuleApplied == residency.RuleFormerlyDomiciledTail {
		t.Errorf("tail rule must require prior UK domicile, got %+v", a)
	}
}
