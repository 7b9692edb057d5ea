package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/status"
	"github.com/warp/estate-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func statusRecord(userID string, from time.Time) status.Record {
	return status.Record{
		UserID:        userID,
		EffectiveFrom: from,
		UKTaxResident: true,
		Domicile:      residency.NonUKDomiciled,
	}
}

func gbp(amount string) money.Money {
	return money.New(amount, money.GBP)
}

// =============================================================================
// TAX STATUS TESTS
// =============================================================================

func TestStatus_CreateAndCurrent(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Creating a status record
	// THEN: It is the open current record

	store := newTestStore(t)
	ctx := context.Background()

	from := time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC)
	created, err := store.Create(ctx, statusRecord("user-1", from))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "store should assign an ID")

	current, err := store.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, current.ID)
	assert.Nil(t, current.EffectiveTo, "new record should be open-ended")
	assert.True(t, current.UKTaxResident)
	assert.Equal(t, residency.NonUKDomiciled, current.Domicile)
}

func TestStatus_SupersessionClosesPriorRecord(t *testing.T) {
	// GIVEN: An open record starting 2022-04-06
	// WHEN: Creating a new record starting 2023-04-06
	// THEN: The prior record is closed at 2023-04-05

	store := newTestStore(t)
	ctx := context.Background()

	first := time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC)
	second := time.Date(2023, time.April, 6, 0, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, statusRecord("user-1", first))
	require.NoError(t, err)
	_, err = store.Create(ctx, statusRecord("user-1", second))
	require.NoError(t, err)

	history, err := store.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.NotNil(t, history[0].EffectiveTo)
	assert.Equal(t, "2023-04-05", history[0].EffectiveTo.Format("2006-01-02"))
	assert.Nil(t, history[1].EffectiveTo)
}

func TestStatus_BackdatedCreateRejected(t *testing.T) {
	// GIVEN: A closed record covering 2022-2023 and an open one from 2023
	// WHEN: Creating a record starting inside the closed range
	// THEN: TemporalConflictError

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, statusRecord("user-1", time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = store.Create(ctx, statusRecord("user-1", time.Date(2023, time.April, 6, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	_, err = store.Create(ctx, statusRecord("user-1", time.Date(2022, time.October, 1, 0, 0, 0, 0, time.UTC)))
	var conflict *status.TemporalConflictError
	assert.ErrorAs(t, err, &conflict, "backdated create should conflict")
}

func TestStatus_AtDate(t *testing.T) {
	// GIVEN: Two consecutive records
	// WHEN: Querying dates in each range and before the first
	// THEN: The covering record is returned; earlier dates get ErrNoRecord

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, statusRecord("user-1", time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	rec := statusRecord("user-1", time.Date(2023, time.April, 6, 0, 0, 0, 0, time.UTC))
	rec.UKDeemedDomicile = true
	rec.Domicile = residency.DeemedUKDomicile
	_, err = store.Create(ctx, rec)
	require.NoError(t, err)

	early, err := store.AtDate(ctx, "user-1", time.Date(2022, time.December, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, early.UKDeemedDomicile)

	late, err := store.AtDate(ctx, "user-1", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, late.UKDeemedDomicile)
	assert.Equal(t, residency.DeemedUKDomicile, late.Domicile)

	_, err = store.AtDate(ctx, "user-1", time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, status.ErrNoRecord)
}

func TestStatus_RewriteReplacesHistory(t *testing.T) {
	// GIVEN: A two-record history
	// WHEN: Rewriting with a corrected single record
	// THEN: Reads reflect only the replacement

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, statusRecord("user-1", time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = store.Create(ctx, statusRecord("user-1", time.Date(2023, time.April, 6, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	replacement := statusRecord("user-1", time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC))
	replacement.SATaxResident = true
	err = store.Rewrite(ctx, "user-1", []status.Record{replacement})
	require.NoError(t, err)

	history, err := store.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].SATaxResident)
}

func TestStatus_RewriteRejectsOverlap(t *testing.T) {
	// GIVEN: A replacement history with two open records
	// WHEN: Rewriting
	// THEN: TemporalConflictError and the old history survives

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, statusRecord("user-1", time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	err = store.Rewrite(ctx, "user-1", []status.Record{
		statusRecord("user-1", time.Date(2022, time.April, 6, 0, 0, 0, 0, time.UTC)),
		statusRecord("user-1", time.Date(2023, time.April, 6, 0, 0, 0, 0, time.UTC)),
	})
	var conflict *status.TemporalConflictError
	require.ErrorAs(t, err, &conflict)

	history, err := store.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, history, 1, "failed rewrite must not alter history")
}

// =============================================================================
// GIFT LEDGER TESTS
// =============================================================================

func TestGifts_RecordAndRoundTrip(t *testing.T) {
	// GIVEN: A recorded gift
	// WHEN: Reading it back
	// THEN: Dates and decimal amounts survive unchanged

	store := newTestStore(t)
	ctx := context.Background()

	g, err := store.Record(ctx, gift.Gift{
		UserID:                "user-1",
		Date:                  time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		Value:                 gbp("12345.67"),
		ExemptionType:         gift.PotentiallyExempt,
		RecipientRelationship: "child",
	})
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)

	active, err := store.Active(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "12345.67", active[0].Value.Amount.String())
	assert.Equal(t, money.GBP, active[0].Value.Currency)
	assert.Equal(t, "2024-06-15", active[0].Date.Format("2006-01-02"))
	assert.Equal(t, gift.PotentiallyExempt, active[0].ExemptionType)
	assert.Equal(t, "child", active[0].RecipientRelationship)
}

func TestGifts_CorrectVoidsOriginal(t *testing.T) {
	// GIVEN: A recorded gift
	// WHEN: Correcting it with a replacement value
	// THEN: Active shows only the replacement; All keeps the voided row
	//       with the void reason and supersession link

	store := newTestStore(t)
	ctx := context.Background()

	original, err := store.Record(ctx, gift.Gift{
		UserID:        "user-1",
		Date:          time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		Value:         gbp("500000"),
		ExemptionType: gift.PotentiallyExempt,
	})
	require.NoError(t, err)

	replacement, err := store.Correct(ctx, "user-1", original.ID, "amount entered with an extra zero", gift.Gift{
		Date:          original.Date,
		Value:         gbp("50000"),
		ExemptionType: gift.PotentiallyExempt,
	})
	require.NoError(t, err)

	active, err := store.Active(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, replacement.ID, active[0].ID)
	assert.Equal(t, "50000", active[0].Value.Amount.String())

	all, err := store.All(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NotNil(t, all[0].VoidedAt)
	assert.Equal(t, "amount entered with an extra zero", all[0].VoidReason)
	assert.Equal(t, replacement.ID, all[0].SupersededBy)
}

func TestGifts_DoubleCorrectRejected(t *testing.T) {
	// GIVEN: A gift that was already corrected
	// WHEN: Correcting it again
	// THEN: ErrGiftVoided

	store := newTestStore(t)
	ctx := context.Background()

	original, err := store.Record(ctx, gift.Gift{
		UserID:        "user-1",
		Date:          time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		Value:         gbp("1000"),
		ExemptionType: gift.PotentiallyExempt,
	})
	require.NoError(t, err)

	_, err = store.Correct(ctx, "user-1", original.ID, "typo", gift.Gift{
		Date: original.Date, Value: gbp("100"), ExemptionType: gift.PotentiallyExempt,
	})
	require.NoError(t, err)

	_, err = store.Correct(ctx, "user-1", original.ID, "again", gift.Gift{
		Date: original.Date, Value: gbp("10"), ExemptionType: gift.PotentiallyExempt,
	})
	assert.ErrorIs(t, err, gift.ErrGiftVoided)
}

func TestGifts_CorrectUnknownGift(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Correct(context.Background(), "user-1", "missing", "reason", gift.Gift{
		Date: time.Now(), Value: gbp("1"), ExemptionType: gift.PotentiallyExempt,
	})
	assert.ErrorIs(t, err, gift.ErrGiftNotFound)
}

// =============================================================================
// INVENTORY TESTS
// =============================================================================

func TestAssets_AddAndSoftDelete(t *testing.T) {
	// GIVEN: A stored asset
	// WHEN: Soft-deleting it
	// THEN: The row remains, flagged with DeletedAt

	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, estate.Asset{
		UserID:              "user-1",
		Description:         "London flat",
		Type:                estate.AssetProperty,
		CurrentValue:        gbp("450000"),
		UKIHTApplicable:     true,
		QualifyingResidence: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, asset.ID)

	err = store.DeleteAsset(ctx, "user-1", asset.ID)
	require.NoError(t, err)

	assets, err := store.Assets(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, assets, 1, "soft delete must keep the row")
	assert.True(t, assets[0].Deleted())
	assert.Equal(t, "450000", assets[0].CurrentValue.Amount.String())
	assert.True(t, assets[0].QualifyingResidence)

	// Deleting twice is an error: the row is no longer live.
	err = store.DeleteAsset(ctx, "user-1", asset.ID)
	assert.Error(t, err)
}

func TestLiabilities_AddAndRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	liab, err := store.AddLiability(ctx, estate.Liability{
		UserID:             "user-1",
		Description:        "Family trust loan",
		Type:               estate.LiabilityLoan,
		OutstandingBalance: money.New("1000000", money.ZAR),
		UKIHTDeductible:    false,
		ConnectedPerson:    true,
	})
	require.NoError(t, err)

	liabilities, err := store.Liabilities(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, liabilities, 1)
	assert.Equal(t, liab.ID, liabilities[0].ID)
	assert.Equal(t, money.ZAR, liabilities[0].OutstandingBalance.Currency)
	assert.False(t, liabilities[0].UKIHTDeductible)
	assert.True(t, liabilities[0].ConnectedPerson)
}

func TestDeleteAsset_WrongUser(t *testing.T) {
	// GIVEN: An asset owned by user-1
	// WHEN: user-2 tries to delete it
	// THEN: Not found

	store := newTestStore(t)
	ctx := context.Background()

	asset, err := store.AddAsset(ctx, estate.Asset{
		UserID:       "user-1",
		Type:         estate.AssetCash,
		CurrentValue: gbp("1000"),
	})
	require.NoError(t, err)

	err = store.DeleteAsset(ctx, "user-2", asset.ID)
	assert.Error(t, err)
}
