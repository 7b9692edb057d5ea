package estate_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/taxyear"
)

func calculator() *estate.Calculator {
	return estate.NewCalculator(taxyear.DefaultTable())
}

func valuationOf(t *testing.T, assets []estate.Asset, liabilities []estate.Liability) estate.Valuation {
	t.Helper()
	v, err := estate.Aggregate(assets, liabilities, testRates())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	return v
}

func assertGBP(t *testing.T, got money.Money, want string, label string) {
	t.Helper()
	if !got.Amount.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got.Amount, want)
	}
}

// GIVEN: net estate 350,000, no residence, no transferable NRB, 2024/25
// WHEN:  IHT is calculated
// THEN:  chargeable estate 25,000, gross tax 10,000
func TestCalculate_BasicEstate(t *testing.T) {
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("350000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation: v,
		Domicile:  residency.UKDomiciled,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if out.TaxYear != 2024 {
		t.Errorf("tax year = %s, want 2024/25", out.TaxYear)
	}
	assertGBP(t, out.NilRateBand, "325000", "nil-rate band")
	assertGBP(t, out.ChargeableEstate, "25000", "chargeable estate")
	assertGBP(t, out.GrossTax, "10000", "gross tax")
	assertGBP(t, out.NetTax, "10000", "net tax")
	if !out.ResidenceNilRateBand.IsZero() {
		t.Errorf("RNRB = %s, want 0 with no qualifying residence", out.ResidenceNilRateBand)
	}
}

// GIVEN: gross 800,000, liabilities 100,000, full transferable NRB
// THEN:  NRB 650,000, chargeable 50,000, tax 20,000
func TestCalculate_TransferableNRB(t *testing.T) {
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("800000"), UKIHTApplicable: true},
	}, []estate.Liability{
		{ID: "l", OutstandingBalance: gbp("100000"), UKIHTDeductible: true},
	})

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate:              time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation:              v,
		Domicile:               residency.UKDomiciled,
		TransferableNRBPercent: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	assertGBP(t, out.TransferableNRB, "325000", "transferable NRB")
	assertGBP(t, out.NilRateBand, "650000", "nil-rate band")
	assertGBP(t, out.ChargeableEstate, "50000", "chargeable estate")
	assertGBP(t, out.GrossTax, "20000", "gross tax")
}

func TestCalculate_TransferablePercentOutOfRange(t *testing.T) {
	v := valuationOf(t, nil, nil)
	_, err := calculator().Calculate(estate.CalculationInput{
		DeathDate:              time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation:              v,
		Domicile:               residency.UKDomiciled,
		TransferableNRBPercent: decimal.NewFromInt(150),
	})
	if err == nil {
		t.Fatal("expected error for 150% transferable NRB")
	}
}

// A gift made 4.5 years before death gets 40% taper relief on the tax
// for its excess over the NRB; the relief never touches the estate tax.
func TestCalculate_GiftTaperRelief(t *testing.T) {
	death := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	gifts := []gift.ChargeableGift{{
		Gift:            gift.Gift{ID: "g1", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		ChargeableValue: gbp("425000"),
		ExemptionUsed:   money.Zero(money.GBP),
	}}
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("100000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate:       death,
		Valuation:       v,
		Domicile:        residency.UKDomiciled,
		ChargeableGifts: gifts,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if len(out.GiftTaxes) != 1 {
		t.Fatalf("gift taxes = %d, want 1", len(out.GiftTaxes))
	}
	gt := out.GiftTaxes[0]
	assertGBP(t, gt.NRBConsumed, "325000", "NRB consumed by gift")
	assertGBP(t, gt.TaxableAmount, "100000", "gift taxable amount")
	if !gt.TaperRelief.Equal(decimal.NewFromInt(40)) {
		t.Errorf("taper relief = %s%%, want 40%%", gt.TaperRelief)
	}
	// 100,000 x 40% x (1 - 40%) = 24,000
	assertGBP(t, gt.TaxDue, "24000", "gift tax due")
	assertGBP(t, out.TotalGiftTax, "24000", "total gift tax")

	// The gift exhausted the NRB, so the whole estate is chargeable at
	// the full rate with no relief.
	assertGBP(t, out.RemainingNRB, "0", "remaining NRB")
	assertGBP(t, out.GrossTax, "40000", "estate gross tax")
}

func TestCalculate_GiftWithinNRBNoTax(t *testing.T) {
	death := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	gifts := []gift.ChargeableGift{{
		Gift:            gift.Gift{ID: "g1", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		ChargeableValue: gbp("50000"),
		ExemptionUsed:   money.Zero(money.GBP),
	}}
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("100000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate:       death,
		Valuation:       v,
		Domicile:        residency.UKDomiciled,
		ChargeableGifts: gifts,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	assertGBP(t, out.GiftTaxes[0].TaxDue, "0", "gift tax due")
	assertGBP(t, out.NRBConsumedByGifts, "50000", "NRB consumed")
	assertGBP(t, out.RemainingNRB, "275000", "remaining NRB")
	if !out.GrossTax.IsZero() {
		t.Errorf("gross tax = %s, want 0 (estate under remaining NRB)", out.GrossTax)
	}
}

// A gift made more than 7 years before death is outside the window
// entirely: no NRB consumption, no tax.
func TestCalculate_GiftOutsideWindowIgnored(t *testing.T) {
	death := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	gifts := []gift.ChargeableGift{{
		Gift:            gift.Gift{ID: "old", Date: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)},
		ChargeableValue: gbp("500000"),
		ExemptionUsed:   money.Zero(money.GBP),
	}}
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("100000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate:       death,
		Valuation:       v,
		Domicile:        residency.UKDomiciled,
		ChargeableGifts: gifts,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if len(out.GiftTaxes) != 0 {
		t.Errorf("gift taxes = %d, want 0 for a gift beyond 7 years", len(out.GiftTaxes))
	}
	assertGBP(t, out.RemainingNRB, "325000", "remaining NRB")
}

func TestCalculate_RNRBTaper(t *testing.T) {
	tests := []struct {
		name     string
		gross    string
		wantRNRB string
	}{
		{"at threshold, full RNRB", "2000000", "175000"},
		{"100k over, reduced 50k", "2100000", "125000"},
		{"350k over, fully tapered", "2350000", "0"},
		{"far over, never negative", "5000000", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			residence := gbp("400000")
			other := money.New(tc.gross, money.GBP).MustSub(residence)
			v := valuationOf(t, []estate.Asset{
				{ID: "home", CurrentValue: residence, UKIHTApplicable: true,
					QualifyingResidence: true, PassesToDirectDescendants: true},
				{ID: "rest", CurrentValue: other, UKIHTApplicable: true},
			}, nil)

			out, err := calculator().Calculate(estate.CalculationInput{
				DeathDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				Valuation: v,
				Domicile:  residency.UKDomiciled,
			})
			if err != nil {
				t.Fatalf("calculate: %v", err)
			}
			assertGBP(t, out.ResidenceNilRateBand, tc.wantRNRB, "RNRB")
		})
	}
}

func TestCalculate_RNRBCappedAtResidenceValue(t *testing.T) {
	v := valuationOf(t, []estate.Asset{
		{ID: "home", CurrentValue: gbp("120000"), UKIHTApplicable: true,
			QualifyingResidence: true, PassesToDirectDescendants: true},
		{ID: "rest", CurrentValue: gbp("500000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation: v,
		Domicile:  residency.UKDomiciled,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	assertGBP(t, out.ResidenceNilRateBand, "120000", "RNRB capped at residence value")
}

// Non-UK domicile restricts the taxable estate to UK-situs assets.
func TestCalculate_DomicileScope(t *testing.T) {
	assets := []estate.Asset{
		{ID: "uk", CurrentValue: gbp("400000"), UKIHTApplicable: true},
		{ID: "sa", CurrentValue: zar("20000000"), UKIHTApplicable: false}, // GBP 1,000,000
	}
	v := valuationOf(t, assets, nil)

	ukOut, err := calculator().Calculate(estate.CalculationInput{
		DeathDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation: v,
		Domicile:  residency.DeemedUKDomicile,
	})
	if err != nil {
		t.Fatalf("calculate (deemed): %v", err)
	}
	if !ukOut.WorldwideScope {
		t.Error("deemed UK domicile should be worldwide scope")
	}
	assertGBP(t, ukOut.TaxableEstate, "1400000", "worldwide taxable estate")

	nonOut, err := calculator().Calculate(estate.CalculationInput{
		DeathDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation: v,
		Domicile:  residency.NonUKDomiciled,
	})
	if err != nil {
		t.Fatalf("calculate (non-UK): %v", err)
	}
	if nonOut.WorldwideScope {
		t.Error("non-UK domicile should be UK-situs scope")
	}
	assertGBP(t, nonOut.TaxableEstate, "400000", "UK-situs taxable estate")
}

// SA estate duty: worldwide net over the abatement at 20%, converted at
// the valuation's implied rate.
func TestCalculate_SAEstateDuty(t *testing.T) {
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("350000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation: v,
		Domicile:  residency.UKDomiciled,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// ZAR 7,000,000 - 3,500,000 abatement = 3,500,000 x 20% = 700,000
	// ZAR, which is GBP 35,000 at the implied 20:1 rate.
	assertGBP(t, out.SAEstateDuty, "35000", "SA estate duty")
	if !out.DTARelief.IsZero() {
		t.Errorf("DTA relief = %s, want 0 with no overlapping assets", out.DTARelief)
	}
}

// The DTA credit can never drive the UK liability below zero, however
// large the overlap or the SA duty.
func TestCalculate_NetTaxNeverNegative(t *testing.T) {
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("1000000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation:         v,
		Domicile:          residency.UKDomiciled,
		OverlappingAssets: gbp("1000000"),
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if out.NetTax.IsNegative() {
		t.Errorf("net tax = %s, must never be negative", out.NetTax)
	}
	if out.DTARelief.GreaterThan(out.GrossTax) {
		t.Errorf("DTA relief %s exceeds gross tax %s", out.DTARelief, out.GrossTax)
	}
}

func TestCalculate_DTACreditIsSmallerJurisdiction(t *testing.T) {
	v := valuationOf(t, []estate.Asset{
		{ID: "a", CurrentValue: gbp("1000000"), UKIHTApplicable: true},
	}, nil)

	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate:         time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation:         v,
		Domicile:          residency.UKDomiciled,
		OverlappingAssets: gbp("100000"),
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// UK tax on overlap: 100,000 x 40% = 40,000. SA duty on overlap:
	// 100,000 x 20% = 20,000. Credit is the smaller.
	assertGBP(t, out.DTARelief, "20000", "DTA relief")
	expected := out.GrossTax.MustSub(out.DTARelief)
	if !out.NetTax.Amount.Equal(expected.Amount) {
		t.Errorf("net tax = %s, want gross - relief = %s", out.NetTax, expected)
	}
}

func TestCalculate_EffectiveRateZeroEstate(t *testing.T) {
	v := valuationOf(t, nil, nil)
	out, err := calculator().Calculate(estate.CalculationInput{
		DeathDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Valuation: v,
		Domicile:  residency.UKDomiciled,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !out.EffectiveRate.IsZero() {
		t.Errorf("effective rate = %s, want 0 for an empty estate", out.EffectiveRate)
	}
}
