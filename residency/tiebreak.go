/*
tiebreak.go - UK/SA Double Tax Agreement tie-breaker

PURPOSE:
  When both the SRT and the SA presence test return resident for the
  same period, the DTA decides which country wins. The tie-break is a
  strict ordered chain, each step short-circuiting:

    1. permanent home      - resident where the only permanent home is
    2. centre of vital interests
    3. habitual abode      - where more time is habitually spent
    4. nationality
    5. mutual agreement    - UNDETERMINED, surfaced for manual review

  Missing facts for a step fall through to the next step rather than
  erroring; only the terminal step surfaces the unresolved state. An
  undetermined outcome is a first-class result, never a guess.
*/
package residency

// Country codes used by the tie-break.
type Country string

const (
	CountryUK Country = "UK"
	CountrySA Country = "SA"
)

// TieBreakFacts are the user-supplied facts consumed by the chain.
// Nil pointers mean "not established" and make the step fall through.
type TieBreakFacts struct {
	// Where the person has a permanent home available.
	PermanentHomeUK *bool
	PermanentHomeSA *bool

	// Centre of vital interests, where establishable.
	VitalInterests *Country

	// Days habitually spent in each country over the comparison period.
	HabitualDaysUK *int
	HabitualDaysSA *int

	Nationality *Country
}

// TieBreakStep names the chain entry that decided the outcome.
type TieBreakStep string

const (
	StepPermanentHome   TieBreakStep = "permanent_home"
	StepVitalInterests  TieBreakStep = "centre_of_vital_interests"
	StepHabitualAbode   TieBreakStep = "habitual_abode"
	StepNationality     TieBreakStep = "nationality"
	StepMutualAgreement TieBreakStep = "mutual_agreement_procedure"
)

// TieBreakResult is the resolved residency, or undetermined.
type TieBreakResult string

const (
	TieBreakUK           TieBreakResult = "UK_RESIDENT"
	TieBreakSA           TieBreakResult = "SA_RESIDENT"
	TieBreakUndetermined TieBreakResult = "UNDETERMINED"
)

// TieBreakOutcome carries the result plus which step decided it.
type TieBreakOutcome struct {
	Result    TieBreakResult
	DecidedBy TieBreakStep
}

// Undetermined reports whether the chain exhausted without a decision.
func (o TieBreakOutcome) Undetermined() bool { return o.Result == TieBreakUndetermined }

// =============================================================================
// CHAIN
// =============================================================================

type tieBreakRule struct {
	step TieBreakStep
	eval func(TieBreakFacts) (decided bool, result TieBreakResult)
}

var tieBreakChain = []tieBreakRule{
	{step: StepPermanentHome, eval: permanentHomeStep},
	{step: StepVitalInterests, eval: vitalInterestsStep},
	{step: StepHabitualAbode, eval: habitualAbodeStep},
	{step: StepNationality, eval: nationalityStep},
}

// ResolveTieBreak applies the DTA chain. Callers invoke this only for
// periods where both residency tests returned true.
func ResolveTieBreak(facts TieBreakFacts) TieBreakOutcome {
	for _, rule := range tieBreakChain {
		if decided, result := rule.eval(facts); decided {
			return TieBreakOutcome{Result: result, DecidedBy: rule.step}
		}
	}
	return TieBreakOutcome{Result: TieBreakUndetermined, DecidedBy: StepMutualAgreement}
}

// permanentHomeStep decides when the person has a permanent home in
// exactly one country. Both or neither (or unknown) falls through.
func permanentHomeStep(f TieBreakFacts) (bool, TieBreakResult) {
	if f.PermanentHomeUK == nil || f.PermanentHomeSA == nil {
		return false, ""
	}
	switch {
	case *f.PermanentHomeUK && !*f.PermanentHomeSA:
		return true, TieBreakUK
	case *f.PermanentHomeSA && !*f.PermanentHomeUK:
		return true, TieBreakSA
	default:
		return false, ""
	}
}

func vitalInterestsStep(f TieBreakFacts) (bool, TieBreakResult) {
	if f.VitalInterests == nil {
		return false, ""
	}
	switch *f.VitalInterests {
	case CountryUK:
		return true, TieBreakUK
	case CountrySA:
		return true, TieBreakSA
	default:
		return false, ""
	}
}

// habitualAbodeStep compares day counts; an exact tie falls through.
func habitualAbodeStep(f TieBreakFacts) (bool, TieBreakResult) {
	if f.HabitualDaysUK == nil || f.HabitualDaysSA == nil {
		return false, ""
	}
	switch {
	case *f.HabitualDaysUK > *f.HabitualDaysSA:
		return true, TieBreakUK
	case *f.HabitualDaysSA > *f.HabitualDaysUK:
		return true, TieBreakSA
	default:
		return false, ""
	}
}

func nationalityStep(f TieBreakFacts) (bool, TieBreakResult) {
	if f.Nationality == nil {
		return false, ""
	}
	switch *f.Nationality {
	case CountryUK:
		return true, TieBreakUK
	case CountrySA:
		return true, TieBreakSA
	default:
		return false, ""
	}
}
