/*
recommend.go - Advisory planning recommendations

PURPOSE:
  Generates side-output suggestions by comparing the current liability
  against simple what-if deltas. Advisory only - nothing here is ever
  applied automatically.
*/
package estate

import (
	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/money"
)

// Recommendation is one advisory suggestion with its estimated saving.
type Recommendation struct {
	Code            string
	Message         string
	EstimatedSaving money.Money
}

// Recommendation codes.
const (
	RecLifetimeGifting  = "start_lifetime_gifting"
	RecTransferableNRB  = "claim_transferable_nrb"
	RecResidenceToHeirs = "pass_residence_to_descendants"
)

// Recommend compares the calculation against what-if deltas and
// returns the suggestions that would actually save tax.
func (c *Calculator) Recommend(in CalculationInput, current Calculation) ([]Recommendation, error) {
	var recs []Recommendation
	consts, err := c.Table.UK(current.TaxYear)
	if err != nil {
		return nil, err
	}

	if !current.NetTax.IsPositive() {
		return nil, nil
	}

	// What-if: estate reduced by one year's annual exemption.
	saving := consts.AnnualExemption.Mul(consts.IHTRate)
	recs = append(recs, Recommendation{
		Code: RecLifetimeGifting,
		Message: "Using the annual gift exemption every year moves value out of " +
			"the taxable estate immediately; larger gifts fall out after 7 years.",
		EstimatedSaving: saving,
	})

	// What-if: full transferable NRB claimed.
	if in.TransferableNRBPercent.LessThan(decimal.NewFromInt(100)) {
		whatIf := in
		whatIf.TransferableNRBPercent = decimal.NewFromInt(100)
		full, err := c.Calculate(whatIf)
		if err != nil {
			return nil, err
		}
		if delta := current.NetTax.MustSub(full.NetTax); delta.IsPositive() {
			recs = append(recs, Recommendation{
				Code: RecTransferableNRB,
				Message: "A predeceased spouse's unused nil-rate band can be " +
					"transferred; claiming the full 100% reduces the liability.",
				EstimatedSaving: delta,
			})
		}
	}

	// What-if: RNRB unlocked by passing a residence to descendants.
	if !in.Valuation.QualifyingResidenceValue.IsPositive() && current.ResidenceNilRateBand.IsZero() {
		potential := taperedRNRB(consts, in.Valuation.GrossEstate.GBP, consts.ResidenceNilRateBand)
		if saving := potential.Mul(consts.IHTRate); saving.IsPositive() {
			recs = append(recs, Recommendation{
				Code: RecResidenceToHeirs,
				Message: "Leaving a qualifying residence to direct descendants " +
					"unlocks the residence nil-rate band.",
				EstimatedSaving: saving,
			})
		}
	}

	return recs, nil
}
