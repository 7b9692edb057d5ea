/*
Package residency implements the rules deciding which country's tax
regime applies to a person: the UK Statutory Residence Test, the SA
physical-presence test, the UK/SA DTA tie-breaker for dual residents,
and deemed-domicile tracking.

PURPOSE:
  All evaluation here is pure: day counts and facts in, decisions out.
  No wall-clock reads, no I/O. Each test is an ordered rule chain
  evaluated first-match-wins, so the result always reports WHICH rule
  decided it (explainability is part of the contract, not a nicety).

KEY CONCEPTS IN THIS FILE (types.go):
  - SRTInput: one UK tax year of day counts and connecting ties
  - SAPresenceInput: current + 5 prior SA tax years of day counts
  - TieBreakFacts: user-supplied facts for the DTA tie-break
  - ValidationError: rejected input (never silently clamped)

SEE ALSO:
  - srt.go: UK Statutory Residence Test chain
  - sapresence.go: SA physical-presence test
  - tiebreak.go: DTA tie-breaker chain
  - domicile.go: deemed-domicile window scan
*/
package residency

import (
	"fmt"

	"github.com/warp/estate-engine/taxyear"
)

// =============================================================================
// UK SRT INPUT
// =============================================================================

// Tie is a UK connecting factor under the sufficient ties test.
type Tie string

const (
	TieFamily        Tie = "family"
	TieAccommodation Tie = "accommodation"
	TieWork          Tie = "work"
	TieNinetyDay     Tie = "ninety_day"
	TieCountry       Tie = "country"
)

// SRTInput is one UK tax year of facts for the Statutory Residence Test.
type SRTInput struct {
	Year     taxyear.UKYear
	DaysInUK int

	// Connecting ties present this year. The country tie only counts
	// for leavers; the chain handles that, callers just report facts.
	Ties map[Tie]bool

	// How many of the prior 3 tax years the person was UK resident
	// (0-3). One or more makes them a "leaver" for SRT purposes.
	PriorYearsResident int

	// Automatic UK second limb: the person's only home is in the UK
	// and they were present in it on enough days.
	OnlyHomeInUK bool
	UKHomeDays   int
}

// Leaver reports whether the person counts as a leaver (UK resident in
// at least one of the prior three tax years).
func (in SRTInput) Leaver() bool { return in.PriorYearsResident > 0 }

// TieCount returns the number of ties that count for this person.
// Arrivers cannot have the country tie.
func (in SRTInput) TieCount() int {
	n := 0
	for tie, present := range in.Ties {
		if !present {
			continue
		}
		if tie == TieCountry && !in.Leaver() {
			continue
		}
		n++
	}
	return n
}

// DecidingTest names the SRT stage that produced the result.
type DecidingTest string

const (
	TestAutomaticOverseas DecidingTest = "automatic_overseas"
	TestAutomaticUK       DecidingTest = "automatic_uk"
	TestSufficientTies    DecidingTest = "sufficient_ties"
)

// SRTResult is the outcome of the UK test with its explanation.
type SRTResult struct {
	Resident  bool
	DecidedBy DecidingTest

	// Populated when DecidedBy == TestSufficientTies.
	TiesPresent  int
	TiesRequired int
}

// =============================================================================
// SA PHYSICAL PRESENCE INPUT
// =============================================================================

// SAPresenceInput is the day-count evidence for the SA physical
// presence test.
type SAPresenceInput struct {
	Year              taxyear.SAYear
	DaysInCurrentYear int

	// Days present in each of the 5 preceding SA tax years, most
	// recent first: DaysInPriorYears[0] is Year-1.
	DaysInPriorYears [5]int

	// Ordinarily resident by other means; passed through unchanged.
	OrdinarilyResident bool
}

// SAPresenceResult is the outcome of the SA test with its explanation.
type SAPresenceResult struct {
	Resident bool

	// Which conjunct failed, empty when resident.
	FailedConjunct string
}

// Conjunct labels for SAPresenceResult.FailedConjunct.
const (
	SAConjunctCurrentYear = "current_year_91"
	SAConjunctEachPrior   = "each_prior_year_91"
	SAConjunctAggregate   = "aggregate_915"
)

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError reports out-of-range input. The engine never clamps.
type ValidationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%d): %s", e.Field, e.Value, e.Reason)
}
