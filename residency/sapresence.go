/*
sapresence.go - SA physical presence test

PURPOSE:
  Decides SA tax residency from day counts. A person not ordinarily
  resident is resident by physical presence only if ALL of:

    1. present >= 91 days in the current year of assessment, AND
    2. present >= 91 days in EACH of the 5 preceding years, AND
    3. present >= 915 days in the 5 preceding years combined.

  Ordinary residence established by other means is passed through
  unchanged - this test never overrides it.

  Day counts are validated against the actual length of each SA tax
  year (366 when it ends in a leap year); out-of-range input is
  rejected, never clamped.
*/
package residency

import "github.com/warp/estate-engine/taxyear"

// Minimum day thresholds for the physical presence test.
const (
	saMinDaysCurrentYear = 91
	saMinDaysEachPrior   = 91
	saMinDaysAggregate   = 915
)

// EvaluateSAPresence runs the SA physical presence test.
func EvaluateSAPresence(in SAPresenceInput) (SAPresenceResult, error) {
	if err := validateSAPresenceInput(in); err != nil {
		return SAPresenceResult{}, err
	}

	// Ordinary residence short-circuits: the presence test neither
	// confirms nor revokes it.
	if in.OrdinarilyResident {
		return SAPresenceResult{Resident: true}, nil
	}

	if in.DaysInCurrentYear < saMinDaysCurrentYear {
		return SAPresenceResult{Resident: false, FailedConjunct: SAConjunctCurrentYear}, nil
	}

	total := 0
	for _, days := range in.DaysInPriorYears {
		if days < saMinDaysEachPrior {
			return SAPresenceResult{Resident: false, FailedConjunct: SAConjunctEachPrior}, nil
		}
		total += days
	}
	if total < saMinDaysAggregate {
		return SAPresenceResult{Resident: false, FailedConjunct: SAConjunctAggregate}, nil
	}

	return SAPresenceResult{Resident: true}, nil
}

func validateSAPresenceInput(in SAPresenceInput) error {
	if in.DaysInCurrentYear < 0 {
		return &ValidationError{Field: "daysInCurrentYear", Value: in.DaysInCurrentYear,
			Reason: "negative day count"}
	}
	if max := in.Year.Days(); in.DaysInCurrentYear > max {
		return &ValidationError{Field: "daysInCurrentYear", Value: in.DaysInCurrentYear,
			Reason: "exceeds days in tax year " + in.Year.String()}
	}
	for i, days := range in.DaysInPriorYears {
		year := in.Year - taxyear.SAYear(i+1)
		if days < 0 {
			return &ValidationError{Field: "daysInPriorYears", Value: days,
				Reason: "negative day count for year " + year.String()}
		}
		if max := year.Days(); days > max {
			return &ValidationError{Field: "daysInPriorYears", Value: days,
				Reason: "exceeds days in tax year " + year.String()}
		}
	}
	return nil
}
