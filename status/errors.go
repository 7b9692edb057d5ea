/*
errors.go - Error types for the temporal status store

ERROR CATEGORIES:
  1. Temporal conflicts - overlapping or out-of-order writes
  2. Lookup misses - dates before the first record

USAGE:
  var conflict *status.TemporalConflictError
  if errors.As(err, &conflict) { ... }

  if errors.Is(err, status.ErrNoRecord) { ... }
*/
package status

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoRecord is returned by AtDate for dates before the user's
	// first record, and by Current when no record exists.
	ErrNoRecord = errors.New("no tax status record")

	// ErrConcurrentWrite is wrapped into TemporalConflictError when an
	// optimistic check loses a same-user write race.
	ErrConcurrentWrite = errors.New("concurrent status write")
)

// TemporalConflictError reports a write that would break the
// partition-of-time invariant. The caller must resolve it (typically
// by prompting the user to correct dates); the store never merges.
type TemporalConflictError struct {
	UserID        string
	EffectiveFrom time.Time
	Reason        string
}

func (e *TemporalConflictError) Error() string {
	return fmt.Sprintf("temporal conflict for user %s at %s: %s",
		e.UserID, e.EffectiveFrom.Format("2006-01-02"), e.Reason)
}
