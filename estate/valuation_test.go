package estate_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/money"
)

func gbp(s string) money.Money { return money.New(s, money.GBP) }
func zar(s string) money.Money { return money.New(s, money.ZAR) }

// testRates: GBP/ZAR = 20 for easy arithmetic.
func testRates() *money.RateTable {
	rates := money.NewRateTable(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rates.Set(money.GBP, money.ZAR, decimal.NewFromInt(20))
	return rates
}

func TestAggregate_DualCurrencyTotals(t *testing.T) {
	assets := []estate.Asset{
		{ID: "a1", CurrentValue: gbp("500000"), UKIHTApplicable: true},
		{ID: "a2", CurrentValue: zar("2000000"), UKIHTApplicable: true}, // = GBP 100,000
	}
	liabilities := []estate.Liability{
		{ID: "l1", OutstandingBalance: gbp("100000"), UKIHTDeductible: true},
	}

	v, err := estate.Aggregate(assets, liabilities, testRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v.GrossEstate.GBP.Amount.String() != "600000" {
		t.Errorf("gross GBP = %v, want 600000", v.GrossEstate.GBP.Amount)
	}
	if v.GrossEstate.ZAR.Amount.String() != "12000000" {
		t.Errorf("gross ZAR = %v, want 12000000", v.GrossEstate.ZAR.Amount)
	}
	if v.NetEstate.GBP.Amount.String() != "500000" {
		t.Errorf("net GBP = %v, want 500000", v.NetEstate.GBP.Amount)
	}
}

func TestAggregate_SoftDeletedExcluded(t *testing.T) {
	now := time.Now()
	assets := []estate.Asset{
		{ID: "live", CurrentValue: gbp("100"), UKIHTApplicable: true},
		{ID: "gone", CurrentValue: gbp("900"), UKIHTApplicable: true, DeletedAt: &now},
	}

	v, err := estate.Aggregate(assets, nil, testRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.GrossEstate.GBP.Amount.String() != "100" {
		t.Errorf("gross = %v, want 100 (soft-deleted excluded)", v.GrossEstate.GBP.Amount)
	}
}

func TestAggregate_ExcludedPropertyStaysInNetWorth(t *testing.T) {
	// GIVEN: a non-UK asset outside IHT scope
	assets := []estate.Asset{
		{ID: "uk", CurrentValue: gbp("300000"), UKIHTApplicable: true},
		{ID: "excluded", CurrentValue: zar("4000000"), UKIHTApplicable: false}, // GBP 200,000
	}

	v, err := estate.Aggregate(assets, nil, testRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// In total net worth...
	if v.GrossEstate.GBP.Amount.String() != "500000" {
		t.Errorf("gross = %v, want 500000", v.GrossEstate.GBP.Amount)
	}
	// ...but not in the UK taxable estate.
	if v.UKTaxableAssets.GBP.Amount.String() != "300000" {
		t.Errorf("UK taxable = %v, want 300000", v.UKTaxableAssets.GBP.Amount)
	}
	if v.ExcludedProperty.GBP.Amount.String() != "200000" {
		t.Errorf("excluded = %v, want 200000", v.ExcludedProperty.GBP.Amount)
	}
}

func TestAggregate_NonDeductibleLiabilityIgnoredButFlagged(t *testing.T) {
	assets := []estate.Asset{{ID: "a", CurrentValue: gbp("100000"), UKIHTApplicable: true}}
	liabilities := []estate.Liability{
		{ID: "connected", OutstandingBalance: gbp("50000"), UKIHTDeductible: false, ConnectedPerson: true},
	}

	v, err := estate.Aggregate(assets, liabilities, testRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.TotalLiabilities.GBP.IsZero() {
		t.Errorf("non-deductible liability reduced the estate: %v", v.TotalLiabilities.GBP)
	}
	if len(v.FlaggedLiabilityIDs) != 1 || v.FlaggedLiabilityIDs[0] != "connected" {
		t.Errorf("flagged = %v, want [connected]", v.FlaggedLiabilityIDs)
	}
}

func TestAggregate_QualifyingResidence(t *testing.T) {
	assets := []estate.Asset{
		{ID: "home", CurrentValue: gbp("400000"), UKIHTApplicable: true,
			QualifyingResidence: true, PassesToDirectDescendants: true},
		{ID: "flat", CurrentValue: gbp("200000"), UKIHTApplicable: true,
			QualifyingResidence: true, PassesToDirectDescendants: false},
	}

	v, err := estate.Aggregate(assets, nil, testRates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.QualifyingResidenceValue.Amount.String() != "400000" {
		t.Errorf("qualifying residence = %v, want 400000", v.QualifyingResidenceValue.Amount)
	}
}
