package status_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/status"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func newRecord(userID string, from time.Time) status.Record {
	return status.BuildRecord(userID, from, status.ResolverOutput{
		UK:       residency.SRTResult{Resident: true, DecidedBy: residency.TestAutomaticUK},
		Domicile: residency.Assessment{Domicile: residency.NonUKDomiciled},
		Basis:    status.BasisArising,
	})
}

func TestCreate_FirstRecordOpens(t *testing.T) {
	store := status.NewMemoryStore()
	ctx := context.Background()

	rec, err := store.Create(ctx, newRecord("user-1", d(2020, time.April, 6)))
	require.NoError(t, err)
	assert.True(t, rec.Open())

	current, err := store.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, current.ID)
}

func TestCreate_SupersessionClosesPriorRecord(t *testing.T) {
	// GIVEN: an open record from 6 Apr 2020
	// WHEN: a new record effective 6 Apr 2023 is created
	// THEN: the prior record closes at 5 Apr 2023, ranges contiguous
	store := status.NewMemoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, newRecord("user-1", d(2020, time.April, 6)))
	require.NoError(t, err)

	_, err = store.Create(ctx, newRecord("user-1", d(2023, time.April, 6)))
	require.NoError(t, err)

	history, err := store.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	closed := history[0]
	assert.Equal(t, first.ID, closed.ID)
	require.NotNil(t, closed.EffectiveTo)
	assert.Equal(t, d(2023, time.April, 5), *closed.EffectiveTo)

	open := history[1]
	assert.Nil(t, open.EffectiveTo)

	// Contiguous: no gap, no overlap between the two ranges.
	assert.Equal(t, open.EffectiveFrom, closed.EffectiveTo.AddDate(0, 0, 1))
}

func TestCreate_BackdatedBeforeOpenRecordRejected(t *testing.T) {
	store := status.NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, newRecord("user-1", d(2023, time.April, 6)))
	require.NoError(t, err)

	_, err = store.Create(ctx, newRecord("user-1", d(2022, time.January, 1)))
	var conflict *status.TemporalConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreate_InsideClosedRecordRejected(t *testing.T) {
	store := status.NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, newRecord("user-1", d(2020, time.April, 6)))
	require.NoError(t, err)
	_, err = store.Create(ctx, newRecord("user-1", d(2023, time.April, 6)))
	require.NoError(t, err)

	// 2021 falls inside the now-closed first record.
	_, err = store.Create(ctx, newRecord("user-1", d(2021, time.June, 1)))
	var conflict *status.TemporalConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestAtDate(t *testing.T) {
	store := status.NewMemoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, newRecord("user-1", d(2020, time.April, 6)))
	require.NoError(t, err)
	second, err := store.Create(ctx, newRecord("user-1", d(2023, time.April, 6)))
	require.NoError(t, err)

	// Inside the closed record.
	got, err := store.AtDate(ctx, "user-1", d(2021, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	// Boundary day belongs to the closed record.
	got, err = store.AtDate(ctx, "user-1", d(2023, time.April, 5))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	// Next day belongs to the open record, as does the far future.
	got, err = store.AtDate(ctx, "user-1", d(2023, time.April, 6))
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	got, err = store.AtDate(ctx, "user-1", d(2040, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	// Before the first record: no record.
	_, err = store.AtDate(ctx, "user-1", d(2019, time.December, 31))
	assert.ErrorIs(t, err, status.ErrNoRecord)
}

func TestHistory_OrderedOldestFirst(t *testing.T) {
	store := status.NewMemoryStore()
	ctx := context.Background()

	for _, from := range []time.Time{
		d(2018, time.April, 6), d(2020, time.April, 6), d(2022, time.April, 6),
	} {
		_, err := store.Create(ctx, newRecord("user-1", from))
		require.NoError(t, err)
	}

	history, err := store.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].EffectiveFrom.Before(history[i].EffectiveFrom))
	}
}

func TestRewrite_ValidatesPartition(t *testing.T) {
	store := status.NewMemoryStore()
	ctx := context.Background()

	to1 := d(2022, time.December, 31)
	ok := []status.Record{
		{ID: "a", UserID: "user-1", EffectiveFrom: d(2020, time.January, 1), EffectiveTo: &to1},
		{ID: "b", UserID: "user-1", EffectiveFrom: d(2023, time.January, 1)},
	}
	require.NoError(t, store.Rewrite(ctx, "user-1", ok))

	// Overlapping replacement is rejected.
	overlapTo := d(2023, time.June, 30)
	bad := []status.Record{
		{ID: "a", UserID: "user-1", EffectiveFrom: d(2020, time.January, 1), EffectiveTo: &overlapTo},
		{ID: "b", UserID: "user-1", EffectiveFrom: d(2023, time.January, 1)},
	}
	var conflict *status.TemporalConflictError
	require.ErrorAs(t, store.Rewrite(ctx, "user-1", bad), &conflict)

	// Two open records are rejected.
	bad = []status.Record{
		{ID: "a", UserID: "user-1", EffectiveFrom: d(2020, time.January, 1)},
		{ID: "b", UserID: "user-1", EffectiveFrom: d(2023, time.January, 1)},
	}
	require.ErrorAs(t, store.Rewrite(ctx, "user-1", bad), &conflict)
}

func TestCreate_ConcurrentSameUserSerialized(t *testing.T) {
	// Two racing creates for the same user: exactly one wins, the
	// other gets a TemporalConflictError (same effectiveFrom is not
	// after the winner's).
	store := status.NewMemoryStore()
	ctx := context.Background()
	from := d(2024, time.April, 6)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Create(ctx, newRecord("user-1", from))
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			var conflict *status.TemporalConflictError
			require.True(t, errors.As(err, &conflict), "unexpected error type: %v", err)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one writer must lose")

	history, err := store.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestBuildRecord_DualResidentGetsUndeterminedWithoutTieBreak(t *testing.T) {
	rec := status.BuildRecord("user-1", d(2024, time.April, 6), status.ResolverOutput{
		UK:       residency.SRTResult{Resident: true},
		SA:       residency.SAPresenceResult{Resident: true},
		Domicile: residency.Assessment{Domicile: residency.NonUKDomiciled},
	})
	assert.True(t, rec.DualResident())
	assert.Equal(t, residency.TieBreakUndetermined, rec.DTATieBreaker)

	// Non-dual: tie-breaker stays empty.
	rec = status.BuildRecord("user-1", d(2024, time.April, 6), status.ResolverOutput{
		UK: residency.SRTResult{Resident: true},
	})
	assert.Empty(t, rec.DTATieBreaker)
}
