/*
srt.go - UK Statutory Residence Test

PURPOSE:
  Decides UK tax residency for one tax year from day counts, prior
  residence and connecting ties. The test is an ordered chain:

    1. Automatic Overseas Test  -> non-resident, short-circuit
    2. Automatic UK Test        -> resident, short-circuit
    3. Sufficient Ties Test     -> resident iff tie count meets the
                                   day-band threshold

  The chain is a list of (predicate, outcome) entries evaluated
  first-match-wins so further jurisdictions' rules slot in as entries,
  not as deeper nesting. Exactly one entry always decides (the ties
  test is total), and the result reports which.

DAY BANDS (sufficient ties):
  Leavers (resident in >=1 of prior 3 years) need fewer ties than
  arrivers at the same day count:

    days in UK   leaver ties   arriver ties
    16-45        4             (automatically non-resident)
    46-90        3             4
    91-120       2             3
    121-182      1             2

  183+ days is always automatic UK residence, so the table stops there.
*/
package residency

// =============================================================================
// SRT ENGINE
// =============================================================================

// srtRule is one chain entry. decided=false means fall through.
type srtRule struct {
	name DecidingTest
	eval func(SRTInput) (decided bool, result SRTResult)
}

var srtChain = []srtRule{
	{name: TestAutomaticOverseas, eval: automaticOverseasTest},
	{name: TestAutomaticUK, eval: automaticUKTest},
	{name: TestSufficientTies, eval: sufficientTiesTest},
}

// EvaluateSRT runs the Statutory Residence Test for one tax year.
func EvaluateSRT(in SRTInput) (SRTResult, error) {
	if err := validateSRTInput(in); err != nil {
		return SRTResult{}, err
	}
	for _, rule := range srtChain {
		if decided, result := rule.eval(in); decided {
			return result, nil
		}
	}
	// Unreachable: sufficientTiesTest always decides.
	return SRTResult{}, &ValidationError{Field: "srt", Reason: "no rule decided residency"}
}

func validateSRTInput(in SRTInput) error {
	maxDays := in.Year.Days()
	if in.DaysInUK < 0 {
		return &ValidationError{Field: "daysInUK", Value: in.DaysInUK, Reason: "negative day count"}
	}
	if in.DaysInUK > maxDays {
		return &ValidationError{Field: "daysInUK", Value: in.DaysInUK,
			Reason: "exceeds days in tax year " + in.Year.String()}
	}
	if in.PriorYearsResident < 0 || in.PriorYearsResident > 3 {
		return &ValidationError{Field: "priorYearsResident", Value: in.PriorYearsResident,
			Reason: "must be between 0 and 3"}
	}
	if in.UKHomeDays < 0 || in.UKHomeDays > maxDays {
		return &ValidationError{Field: "ukHomeDays", Value: in.UKHomeDays,
			Reason: "outside tax year day range"}
	}
	return nil
}

// =============================================================================
// CHAIN ENTRIES
// =============================================================================

// automaticOverseasTest: few enough days means non-resident outright.
// Leavers get the stricter 16-day limit, arrivers 46.
func automaticOverseasTest(in SRTInput) (bool, SRTResult) {
	limit := 46
	if in.Leaver() {
		limit = 16
	}
	if in.DaysInUK < limit {
		return true, SRTResult{Resident: false, DecidedBy: TestAutomaticOverseas}
	}
	return false, SRTResult{}
}

// automaticUKTest: 183+ days, or an only home in the UK occupied for at
// least 91 days, is conclusive residence.
func automaticUKTest(in SRTInput) (bool, SRTResult) {
	if in.DaysInUK >= 183 {
		return true, SRTResult{Resident: true, DecidedBy: TestAutomaticUK}
	}
	if in.OnlyHomeInUK && in.UKHomeDays >= 91 {
		return true, SRTResult{Resident: true, DecidedBy: TestAutomaticUK}
	}
	return false, SRTResult{}
}

// tieBand maps an inclusive day range to the tie counts required.
// requiredArriver == 0 means an arriver in this band cannot be resident
// by ties (they are already automatically overseas below 46 days).
type tieBand struct {
	minDays, maxDays int
	requiredLeaver   int
	requiredArriver  int
}

var tieBands = []tieBand{
	{minDays: 16, maxDays: 45, requiredLeaver: 4, requiredArriver: 0},
	{minDays: 46, maxDays: 90, requiredLeaver: 3, requiredArriver: 4},
	{minDays: 91, maxDays: 120, requiredLeaver: 2, requiredArriver: 3},
	{minDays: 121, maxDays: 182, requiredLeaver: 1, requiredArriver: 2},
}

// sufficientTiesTest always decides: resident iff enough ties for the
// day band.
func sufficientTiesTest(in SRTInput) (bool, SRTResult) {
	present := in.TieCount()
	for _, band := range tieBands {
		if in.DaysInUK < band.minDays || in.DaysInUK > band.maxDays {
			continue
		}
		required := band.requiredArriver
		if in.Leaver() {
			required = band.requiredLeaver
		}
		resident := required > 0 && present >= required
		return true, SRTResult{
			Resident:     resident,
			DecidedBy:    TestSufficientTies,
			TiesPresent:  present,
			TiesRequired: required,
		}
	}
	// Below every band: non-resident by ties (the automatic overseas
	// test will normally have short-circuited already).
	return true, SRTResult{Resident: false, DecidedBy: TestSufficientTies, TiesPresent: present}
}
