/*
iht.go - UK inheritance tax and SA estate duty calculation

PURPOSE:
  Applies the nil-rate band (with transferable uplift), the residence
  nil-rate band (tapered on the GROSS estate), pre-computed reliefs
  and the DTA credit to produce the net death-tax liability.

ALGORITHM:
  1. nilRateBand = baseNRB x (1 + transferable%)
  2. Chargeable gifts within 7 years consume the NRB oldest-first;
     tax on each gift's excess is tapered by years survived
  3. RNRB = min(full RNRB - (grossEstate - taperThreshold)/2, residence
     value), floored at zero; taper computed on GROSS estate, not net
  4. chargeableEstate = max(0, netEstate - remainingNRB - RNRB - reliefs)
  5. grossTax = chargeableEstate x statutory rate (constants table)
  6. dtaRelief = min(UK tax, SA duty) on the overlapping assets
  7. netTax = max(0, grossTax - dtaRelief); effectiveRate guarded for
     a zero gross estate

  Domicile decides exposure scope before this calculator runs: UK or
  deemed-UK domicile taxes the worldwide net estate, non-UK domicile
  only the UK-situs portion.
*/
package estate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/taxyear"
)

// =============================================================================
// INPUT
// =============================================================================

// CalculationInput is everything the IHT calculation needs. All
// monetary fields are GBP unless noted; the caller (service layer)
// converts via the valuation's rate table first.
type CalculationInput struct {
	DeathDate time.Time
	Valuation Valuation
	Domicile  residency.Domicile

	// 0-100: percentage of a full NRB transferred from a predeceased
	// spouse. Scenario input, user-editable.
	TransferableNRBPercent decimal.Decimal

	// Chargeable lifetime gifts, exemptions already allocated, still
	// in full-history order; the calculator applies the 7-year window.
	ChargeableGifts []gift.ChargeableGift

	// Pre-computed relief amounts (Business/Agricultural Property
	// Relief) on qualifying assets.
	BusinessPropertyRelief     money.Money
	AgriculturalPropertyRelief money.Money

	// Value of overlapping assets subject to both UK IHT and SA estate
	// duty. Zero when no overlap.
	OverlappingAssets money.Money
}

// GiftTax is the per-gift breakdown in the result.
type GiftTax struct {
	GiftID          string
	ChargeableValue money.Money
	NRBConsumed     money.Money
	TaxableAmount   money.Money
	TaperRelief     decimal.Decimal // percent
	TaxDue          money.Money
}

// Calculation is the full IHT breakdown.
type Calculation struct {
	TaxYear taxyear.UKYear

	// Scope decided by domicile.
	WorldwideScope bool
	TaxableEstate  money.Money // the net estate the calculation ran on

	NilRateBand        money.Money // base x (1 + transferable%)
	TransferableNRB    money.Money
	NRBConsumedByGifts money.Money
	RemainingNRB       money.Money

	ResidenceNilRateBand money.Money // after taper and residence cap

	TotalReliefs money.Money

	ChargeableEstate money.Money
	GrossTax         money.Money

	GiftTaxes    []GiftTax
	TotalGiftTax money.Money

	SAEstateDuty money.Money // GBP equivalent, informational
	DTARelief    money.Money

	NetTax        money.Money // estate tax after DTA relief
	EffectiveRate decimal.Decimal
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes IHT against the year-scoped constants table.
type Calculator struct {
	Table *taxyear.Table
}

func NewCalculator(table *taxyear.Table) *Calculator {
	return &Calculator{Table: table}
}

// Calculate runs the full IHT computation as of the death date.
func (c *Calculator) Calculate(in CalculationInput) (Calculation, error) {
	if in.TransferableNRBPercent.IsNegative() || in.TransferableNRBPercent.GreaterThan(decimal.NewFromInt(100)) {
		return Calculation{}, fmt.Errorf("transferable NRB percent out of range: %s", in.TransferableNRBPercent)
	}

	year := taxyear.UKYearOf(in.DeathDate)
	consts, err := c.Table.UK(year)
	if err != nil {
		return Calculation{}, err
	}

	out := Calculation{TaxYear: year}

	// Domicile decides exposure scope: worldwide for UK and deemed-UK
	// domicile, UK-situs only otherwise.
	out.WorldwideScope = in.Domicile == residency.UKDomiciled || in.Domicile == residency.DeemedUKDomicile
	if out.WorldwideScope {
		out.TaxableEstate = in.Valuation.NetEstate.GBP.FloorZero()
	} else {
		out.TaxableEstate = in.Valuation.UKNetEstate.GBP
	}

	// 1. Nil-rate band with transferable uplift.
	hundred := decimal.NewFromInt(100)
	out.TransferableNRB = consts.NilRateBand.Mul(in.TransferableNRBPercent.Div(hundred))
	out.NilRateBand = consts.NilRateBand.MustAdd(out.TransferableNRB)

	// 2. Gifts within 7 years of death consume NRB oldest-first.
	window := gift.WithinWindow(in.ChargeableGifts, in.DeathDate)
	remaining := out.NilRateBand
	out.NRBConsumedByGifts = money.Zero(money.GBP)
	out.TotalGiftTax = money.Zero(money.GBP)
	for _, g := range window {
		consumed, err := g.ChargeableValue.Min(remaining)
		if err != nil {
			return Calculation{}, err
		}
		taxable := g.ChargeableValue.MustSub(consumed)
		remaining = remaining.MustSub(consumed)
		out.NRBConsumedByGifts = out.NRBConsumedByGifts.MustAdd(consumed)

		relief := gift.TaperRelief(g.Date, in.DeathDate)
		taxDue := money.Zero(money.GBP)
		if taxable.IsPositive() && !relief.Exempt {
			reliefFactor := decimal.NewFromInt(1).Sub(relief.ReliefPercent.Div(hundred))
			taxDue = taxable.Mul(consts.IHTRate).Mul(reliefFactor)
		}
		out.GiftTaxes = append(out.GiftTaxes, GiftTax{
			GiftID:          g.ID,
			ChargeableValue: g.ChargeableValue,
			NRBConsumed:     consumed,
			TaxableAmount:   taxable,
			TaperRelief:     relief.ReliefPercent,
			TaxDue:          taxDue,
		})
		out.TotalGiftTax = out.TotalGiftTax.MustAdd(taxDue)
	}
	out.RemainingNRB = remaining

	// 3. Residence nil-rate band, tapered on the GROSS estate.
	out.ResidenceNilRateBand = taperedRNRB(consts, in.Valuation.GrossEstate.GBP, in.Valuation.QualifyingResidenceValue)

	// 4. Chargeable estate after bands and reliefs.
	out.TotalReliefs = in.BusinessPropertyRelief.MustAdd(in.AgriculturalPropertyRelief)
	out.ChargeableEstate = out.TaxableEstate.
		MustSub(out.RemainingNRB).
		MustSub(out.ResidenceNilRateBand).
		MustSub(out.TotalReliefs).
		FloorZero()

	// 5. Gross tax at the statutory rate.
	out.GrossTax = out.ChargeableEstate.Mul(consts.IHTRate)

	// 6. DTA credit: the smaller of the two jurisdictions' tax on the
	// overlapping assets, never producing a negative liability.
	saConsts, err := c.Table.SA(taxyear.SAYearOf(in.DeathDate))
	if err != nil {
		return Calculation{}, err
	}
	out.SAEstateDuty, out.DTARelief, err = dtaCredit(in, out, consts, saConsts)
	if err != nil {
		return Calculation{}, err
	}

	// 7. Net liability, floored at zero.
	out.NetTax = out.GrossTax.MustSub(out.DTARelief).FloorZero()

	// Effective rate with an explicit divide-by-zero guard.
	gross := in.Valuation.GrossEstate.GBP
	if !gross.IsPositive() {
		out.EffectiveRate = decimal.Zero
	} else {
		out.EffectiveRate = out.NetTax.Amount.Div(gross.Amount)
	}

	return out, nil
}

// taperedRNRB computes the available residence nil-rate band: reduced
// by 1 for every 2 the gross estate exceeds the taper threshold, never
// negative, and capped at the qualifying residence value.
func taperedRNRB(consts taxyear.Constants, grossEstate, residenceValue money.Money) money.Money {
	if !residenceValue.IsPositive() {
		return money.Zero(money.GBP)
	}
	available := consts.ResidenceNilRateBand
	if grossEstate.GreaterThan(consts.RNRBTaperThreshold) {
		excess := grossEstate.MustSub(consts.RNRBTaperThreshold)
		reduction := excess.Mul(decimal.RequireFromString("0.5"))
		available = available.MustSub(reduction).FloorZero()
	}
	capped, _ := available.Min(residenceValue)
	return capped
}

// dtaCredit computes the SA estate duty (informational, GBP) and the
// DTA credit against UK tax on the overlapping assets.
func dtaCredit(in CalculationInput, out Calculation, uk taxyear.Constants, sa taxyear.SAConstants) (saDuty, credit money.Money, err error) {
	saDuty = saEstateDutyGBP(in.Valuation, sa)
	credit = money.Zero(money.GBP)

	if !in.OverlappingAssets.IsPositive() || !out.GrossTax.IsPositive() {
		return saDuty, credit, nil
	}

	// UK tax attributable to the overlap: the overlap at the statutory
	// rate, capped at the total UK tax.
	ukOnOverlap := in.OverlappingAssets.Mul(uk.IHTRate)
	if ukOnOverlap.GreaterThan(out.GrossTax) {
		ukOnOverlap = out.GrossTax
	}

	// SA duty attributable to the overlap: capped at the total SA duty.
	saOnOverlap := saDutyOnAmount(in.OverlappingAssets, sa)
	if saOnOverlap.GreaterThan(saDuty) {
		saOnOverlap = saDuty
	}

	credit, err = ukOnOverlap.Min(saOnOverlap)
	return saDuty, credit, err
}

// saEstateDutyGBP computes SA estate duty on the worldwide net estate
// and converts the published ZAR figures' result into GBP using the
// valuation's implied rate (both totals describe the same estate).
func saEstateDutyGBP(v Valuation, sa taxyear.SAConstants) money.Money {
	netZAR := v.NetEstate.ZAR.FloorZero()
	dutiable := netZAR.MustSub(sa.Abatement).FloorZero()
	if dutiable.IsZero() {
		return money.Zero(money.GBP)
	}

	dutyZAR := money.Zero(money.ZAR)
	base, _ := dutiable.Min(sa.HigherRateThreshold)
	dutyZAR = dutyZAR.MustAdd(base.Mul(sa.BaseRate))
	if dutiable.GreaterThan(sa.HigherRateThreshold) {
		excess := dutiable.MustSub(sa.HigherRateThreshold)
		dutyZAR = dutyZAR.MustAdd(excess.Mul(sa.HigherRate))
	}

	// Implied GBP/ZAR rate from the dual-currency valuation.
	if v.NetEstate.ZAR.IsZero() || v.NetEstate.GBP.IsZero() {
		return money.Zero(money.GBP)
	}
	impliedRate := v.NetEstate.GBP.Amount.Div(v.NetEstate.ZAR.Amount)
	return money.FromDecimal(dutyZAR.Amount.Mul(impliedRate), money.GBP)
}

// saDutyOnAmount applies the SA duty rates to a GBP amount (marginal
// top-slice approximation for the overlap credit).
func saDutyOnAmount(amount money.Money, sa taxyear.SAConstants) money.Money {
	return amount.Mul(sa.BaseRate)
}
