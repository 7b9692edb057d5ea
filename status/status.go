/*
Package status stores effective-dated TaxStatus records per user.

PURPOSE:
  A user's records form a partition of time: no two ranges overlap and
  at most one record is open-ended (the current one). Creating a new
  current record closes the previous one at the day before the new
  effectiveFrom. History is append-with-supersession - records are
  never edited in place, and the invariants are enforced at write
  time, not read time.

KEY CONCEPTS IN THIS FILE (status.go):
  - Record: one effective period of resolved residency + domicile
  - BuildRecord: assembles a Record from the residency engine outputs

CRITICAL INVARIANTS:
  1. Ranges [EffectiveFrom, EffectiveTo] never overlap per user
  2. At most one open record (EffectiveTo == nil) per user
  3. Writes for one user are serialized; the loser of a race gets
     TemporalConflictError, never a merged history

SEE ALSO:
  - store.go: Store interface and in-memory implementation
  - store/sqlite: persistent implementation
*/
package status

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/estate-engine/residency"
)

// =============================================================================
// TAX STATUS RECORD
// =============================================================================

// Basis is the UK basis of taxation for a resident.
type Basis string

const (
	BasisArising    Basis = "ARISING"
	BasisRemittance Basis = "REMITTANCE"
)

// Record is one effective-dated tax status. Immutable once stored;
// supersession is the only mutation.
type Record struct {
	ID     string
	UserID string

	EffectiveFrom time.Time  // inclusive
	EffectiveTo   *time.Time // inclusive; nil = current/open-ended

	UKTaxResident      bool
	SATaxResident      bool
	UKResidenceBasis   Basis
	SplitYearTreatment bool

	SAOrdinarilyResident bool

	// Set only when DualResident(); empty otherwise.
	DTATieBreaker residency.TieBreakResult

	Domicile         residency.Domicile
	DomicileOfOrigin string // country code
	UKDeemedDomicile bool

	CreatedAt time.Time
}

// DualResident is derived: both tests returned resident.
func (r Record) DualResident() bool { return r.UKTaxResident && r.SATaxResident }

// Open reports whether this is the current open-ended record.
func (r Record) Open() bool { return r.EffectiveTo == nil }

// Contains reports whether the date falls in [EffectiveFrom, EffectiveTo].
func (r Record) Contains(date time.Time) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !date.After(*r.EffectiveTo)
}

// =============================================================================
// RECORD ASSEMBLY - From the residency engine outputs
// =============================================================================

// ResolverOutput bundles the engine results that a new status record is
// built from.
type ResolverOutput struct {
	UK        residency.SRTResult
	SA        residency.SAPresenceResult
	TieBreak  *residency.TieBreakOutcome // nil when not dual resident
	Domicile  residency.Assessment
	Basis     Basis
	SplitYear bool

	SAOrdinarilyResident bool
	DomicileOfOrigin     string
}

// BuildRecord assembles an (unstored) record effective from the given
// date. The tie-breaker is recorded only for dual residents; a missing
// tie-break for a dual resident surfaces as UNDETERMINED rather than a
// silent default.
func BuildRecord(userID string, effectiveFrom time.Time, out ResolverOutput) Record {
	r := Record{
		ID:                   uuid.NewString(),
		UserID:               userID,
		EffectiveFrom:        dateOnly(effectiveFrom),
		UKTaxResident:        out.UK.Resident,
		SATaxResident:        out.SA.Resident,
		UKResidenceBasis:     out.Basis,
		SplitYearTreatment:   out.SplitYear,
		SAOrdinarilyResident: out.SAOrdinarilyResident,
		Domicile:             out.Domicile.Domicile,
		DomicileOfOrigin:     out.DomicileOfOrigin,
		UKDeemedDomicile:     out.Domicile.DeemedUK,
	}
	if r.DualResident() {
		if out.TieBreak != nil {
			r.DTATieBreaker = out.TieBreak.Result
		} else {
			r.DTATieBreaker = residency.TieBreakUndetermined
		}
	}
	return r
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
