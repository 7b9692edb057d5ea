/*
Package estate values a user's worldwide estate and computes the UK
inheritance tax and SA estate duty due on it.

PURPOSE:
  Assets and liabilities carry their own currency and IHT-scope flags.
  The aggregator folds them into a dual-currency valuation; the
  calculator applies nil-rate bands, reliefs and the DTA credit.

KEY CONCEPTS IN THIS FILE (asset.go):
  - Asset / Liability: owned by exactly one user, soft-deleted only
    (history retained for audit, never hard-deleted)
  - UKIHTApplicable: excluded property (e.g. non-UK assets of a
    non-UK-domiciled owner) stays in net worth but out of the UK
    taxable estate
  - UKIHTDeductible: only genuinely enforceable debts reduce the
    estate; debts to connected persons are flagged for review, the
    caller decides via the flag

SEE ALSO:
  - valuation.go: aggregation
  - iht.go: tax calculation
*/
package estate

import (
	"time"

	"github.com/warp/estate-engine/money"
)

// =============================================================================
// ASSET
// =============================================================================

type AssetType string

const (
	AssetProperty     AssetType = "property"
	AssetInvestment   AssetType = "investment"
	AssetCash         AssetType = "cash"
	AssetBusiness     AssetType = "business"
	AssetAgricultural AssetType = "agricultural"
	AssetPension      AssetType = "pension"
	AssetPersonal     AssetType = "personal"
)

type Asset struct {
	ID          string
	UserID      string
	Description string
	Type        AssetType

	CurrentValue money.Money

	// UK IHT scope. False = excluded property: counted in net worth,
	// excluded from the UK taxable estate.
	UKIHTApplicable bool

	// RNRB qualification: a residence passing to direct descendants.
	QualifyingResidence       bool
	PassesToDirectDescendants bool

	DeletedAt *time.Time
	CreatedAt time.Time
}

func (a Asset) Deleted() bool { return a.DeletedAt != nil }

// =============================================================================
// LIABILITY
// =============================================================================

type LiabilityType string

const (
	LiabilityMortgage   LiabilityType = "mortgage"
	LiabilityLoan       LiabilityType = "loan"
	LiabilityCreditCard LiabilityType = "credit_card"
	LiabilityTax        LiabilityType = "tax"
	LiabilityOther      LiabilityType = "other"
)

type Liability struct {
	ID          string
	UserID      string
	Description string
	Type        LiabilityType

	OutstandingBalance money.Money

	// Only enforceable debts reduce the UK estate.
	UKIHTDeductible bool

	// Debt to a connected person for no consideration: flagged but not
	// auto-excluded, the UKIHTDeductible flag decides.
	ConnectedPerson bool

	DeletedAt *time.Time
	CreatedAt time.Time
}

func (l Liability) Deleted() bool { return l.DeletedAt != nil }
