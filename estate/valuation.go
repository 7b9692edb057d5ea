/*
valuation.go - Multi-currency estate aggregation

PURPOSE:
  Converts assets and liabilities into a single dual-currency view of
  the estate. Pure conversion: the FX rates are supplied by the
  caller, this component performs no rate lookup. Soft-deleted items
  are excluded; excluded property (UKIHTApplicable=false) counts in
  total net worth but not in the UK taxable estate.

OUTPUTS:
  GrossEstate, TotalLiabilities, NetEstate - each in both reporting
  currencies (GBP and ZAR) so the consuming UI never converts.
*/
package estate

import (
	"github.com/warp/estate-engine/money"
)

// =============================================================================
// DUAL-CURRENCY TOTALS
// =============================================================================

// Totals carries one figure in both reporting currencies.
type Totals struct {
	GBP money.Money
	ZAR money.Money
}

func zeroTotals() Totals {
	return Totals{GBP: money.Zero(money.GBP), ZAR: money.Zero(money.ZAR)}
}

func (t Totals) add(m money.Money, rates *money.RateTable) (Totals, error) {
	inGBP, err := rates.Convert(m, money.GBP)
	if err != nil {
		return Totals{}, err
	}
	inZAR, err := rates.Convert(m, money.ZAR)
	if err != nil {
		return Totals{}, err
	}
	return Totals{GBP: t.GBP.MustAdd(inGBP), ZAR: t.ZAR.MustAdd(inZAR)}, nil
}

func (t Totals) sub(other Totals) Totals {
	return Totals{GBP: t.GBP.MustSub(other.GBP), ZAR: t.ZAR.MustSub(other.ZAR)}
}

// =============================================================================
// VALUATION
// =============================================================================

// Valuation is the aggregated estate at a point in time.
type Valuation struct {
	// All live assets, worldwide - the net worth view.
	GrossEstate Totals

	// Only assets inside UK IHT scope.
	UKTaxableAssets Totals

	// Assets flagged out of UK IHT scope (excluded property).
	ExcludedProperty Totals

	// Deductible liabilities only.
	TotalLiabilities Totals

	// GrossEstate - TotalLiabilities (worldwide).
	NetEstate Totals

	// UKTaxableAssets - TotalLiabilities, floored at zero. The UK
	// death estate the IHT calculator starts from.
	UKNetEstate Totals

	// Value of qualifying residences passing to direct descendants
	// (RNRB eligibility), in GBP.
	QualifyingResidenceValue money.Money

	// Liability IDs flagged as connected-person debts, surfaced for
	// review regardless of deductibility.
	FlaggedLiabilityIDs []string
}

// Aggregate values the estate using the supplied rate table.
func Aggregate(assets []Asset, liabilities []Liability, rates *money.RateTable) (Valuation, error) {
	v := Valuation{
		GrossEstate:              zeroTotals(),
		UKTaxableAssets:          zeroTotals(),
		ExcludedProperty:         zeroTotals(),
		TotalLiabilities:         zeroTotals(),
		QualifyingResidenceValue: money.Zero(money.GBP),
	}

	var err error
	for _, a := range assets {
		if a.Deleted() {
			continue
		}
		if v.GrossEstate, err = v.GrossEstate.add(a.CurrentValue, rates); err != nil {
			return Valuation{}, err
		}
		if a.UKIHTApplicable {
			if v.UKTaxableAssets, err = v.UKTaxableAssets.add(a.CurrentValue, rates); err != nil {
				return Valuation{}, err
			}
		} else {
			if v.ExcludedProperty, err = v.ExcludedProperty.add(a.CurrentValue, rates); err != nil {
				return Valuation{}, err
			}
		}
		if a.QualifyingResidence && a.PassesToDirectDescendants && a.UKIHTApplicable {
			inGBP, err := rates.Convert(a.CurrentValue, money.GBP)
			if err != nil {
				return Valuation{}, err
			}
			v.QualifyingResidenceValue = v.QualifyingResidenceValue.MustAdd(inGBP)
		}
	}

	for _, l := range liabilities {
		if l.Deleted() {
			continue
		}
		if l.ConnectedPerson {
			v.FlaggedLiabilityIDs = append(v.FlaggedLiabilityIDs, l.ID)
		}
		if !l.UKIHTDeductible {
			continue
		}
		if v.TotalLiabilities, err = v.TotalLiabilities.add(l.OutstandingBalance, rates); err != nil {
			return Valuation{}, err
		}
	}

	v.NetEstate = v.GrossEstate.sub(v.TotalLiabilities)
	uk := v.UKTaxableAssets.sub(v.TotalLiabilities)
	v.UKNetEstate = Totals{GBP: uk.GBP.FloorZero(), ZAR: uk.ZAR.FloorZero()}
	return v, nil
}
