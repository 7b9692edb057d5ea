/*
store.go - Temporal store interface and in-memory implementation

PURPOSE:
  Defines the persistence contract for TaxStatus history and provides
  the in-memory implementation used in tests and development. The
  SQLite implementation in store/sqlite follows the same contract.

SUPERSESSION CONTRACT:
  Create(userID, rec):
    - rec.EffectiveFrom must be after the open record's EffectiveFrom
      (no back-dated creation before the latest record date)
    - the prior open record is closed at rec.EffectiveFrom - 1 day
    - rec becomes the new open record
    - an EffectiveFrom inside any CLOSED record's range fails with
      TemporalConflictError: retroactive insertion mid-history is
      forbidden; corrections supersede the whole affected span via
      Rewrite, never a partial overlap.

CONCURRENCY:
  Writes to one user's history are serialized with a per-user lock.
  Readers take a snapshot copy; no torn reads.
*/
package status

import (
	"context"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

type Store interface {
	// Create appends a new current record, closing the prior open one.
	// Returns the stored record (with any store-assigned fields).
	Create(ctx context.Context, rec Record) (Record, error)

	// AtDate returns the record whose range contains the date, or
	// ErrNoRecord for dates before the first record.
	AtDate(ctx context.Context, userID string, date time.Time) (Record, error)

	// Current returns the open record, or ErrNoRecord.
	Current(ctx context.Context, userID string) (Record, error)

	// History returns all records oldest first. Finite, restartable.
	History(ctx context.Context, userID string) ([]Record, error)

	// Rewrite replaces the user's ENTIRE history with the given
	// records, used for explicit corrections (delete-and-recreate of
	// the affected span). The replacement must itself satisfy the
	// partition-of-time invariant.
	Rewrite(ctx context.Context, userID string, records []Record) error
}

// =============================================================================
// MEMORY STORE
// =============================================================================

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record // per user, ordered by EffectiveFrom

	// Per-user write locks: same-user writes serialize, different
	// users never contend.
	userMu map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]Record),
		userMu:  make(map[string]*sync.Mutex),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) lockUser(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.userMu[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userMu[userID] = mu
	}
	return mu
}

func (s *MemoryStore) Create(_ context.Context, rec Record) (Record, error) {
	userMu := s.lockUser(rec.UserID)
	userMu.Lock()
	defer userMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.records[rec.UserID]
	if err := validateCreate(history, rec); err != nil {
		return Record{}, err
	}

	// Close the prior open record at the day before the new start.
	for i := range history {
		if history[i].EffectiveTo == nil {
			closeAt := rec.EffectiveFrom.AddDate(0, 0, -1)
			history[i].EffectiveTo = &closeAt
		}
	}

	rec.EffectiveTo = nil
	rec.CreatedAt = time.Now().UTC()
	history = append(history, rec)
	sort.Slice(history, func(i, j int) bool {
		return history[i].EffectiveFrom.Before(history[j].EffectiveFrom)
	})
	s.records[rec.UserID] = history
	return rec, nil
}

// validateCreate enforces the supersession rules against the existing
// history. Caller holds the locks.
func validateCreate(history []Record, rec Record) error {
	for _, existing := range history {
		if existing.EffectiveTo != nil && existing.Contains(rec.EffectiveFrom) {
			return &TemporalConflictError{
				UserID:        rec.UserID,
				EffectiveFrom: rec.EffectiveFrom,
				Reason:        "effectiveFrom falls inside closed record " + existing.ID,
			}
		}
		if existing.EffectiveTo == nil && !rec.EffectiveFrom.After(existing.EffectiveFrom) {
			return &TemporalConflictError{
				UserID:        rec.UserID,
				EffectiveFrom: rec.EffectiveFrom,
				Reason:        "effectiveFrom not after current open record",
			}
		}
	}
	return nil
}

func (s *MemoryStore) AtDate(_ context.Context, userID string, date time.Time) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[userID] {
		if rec.Contains(date) {
			return rec, nil
		}
	}
	return Record{}, ErrNoRecord
}

func (s *MemoryStore) Current(_ context.Context, userID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[userID] {
		if rec.EffectiveTo == nil {
			return rec, nil
		}
	}
	return Record{}, ErrNoRecord
}

func (s *MemoryStore) History(_ context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records[userID]))
	copy(out, s.records[userID])
	return out, nil
}

func (s *MemoryStore) Rewrite(_ context.Context, userID string, records []Record) error {
	userMu := s.lockUser(userID)
	userMu.Lock()
	defer userMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})
	if err := ValidatePartition(userID, sorted); err != nil {
		return err
	}
	s.records[userID] = sorted
	return nil
}

// ValidatePartition checks the partition-of-time invariant over an
// ordered replacement history. Shared by every Store implementation.
func ValidatePartition(userID string, ordered []Record) error {
	openSeen := false
	for i, rec := range ordered {
		if rec.EffectiveTo == nil {
			if openSeen {
				return &TemporalConflictError{UserID: userID, EffectiveFrom: rec.EffectiveFrom,
					Reason: "more than one open record"}
			}
			if i != len(ordered)-1 {
				return &TemporalConflictError{UserID: userID, EffectiveFrom: rec.EffectiveFrom,
					Reason: "open record is not the latest"}
			}
			openSeen = true
			continue
		}
		if rec.EffectiveTo.Before(rec.EffectiveFrom) {
			return &TemporalConflictError{UserID: userID, EffectiveFrom: rec.EffectiveFrom,
				Reason: "effectiveTo before effectiveFrom"}
		}
		if i+1 < len(ordered) && !ordered[i+1].EffectiveFrom.After(*rec.EffectiveTo) {
			return &TemporalConflictError{UserID: userID, EffectiveFrom: ordered[i+1].EffectiveFrom,
				Reason: "overlapping records"}
		}
	}
	return nil
}
