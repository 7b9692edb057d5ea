/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts travel as decimal strings with an explicit currency, never as
  JSON numbers. Floats would corrupt tax figures in transit.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - money/money.go: Money value type
*/
package api

import (
	"time"

	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/status"
)

// =============================================================================
// MONEY
// =============================================================================

// MoneyDTO carries an amount as a decimal string with its currency.
type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyDTO(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount.String(), Currency: string(m.Currency)}
}

func (d MoneyDTO) toMoney() (money.Money, error) {
	return money.Parse(d.Amount, money.Currency(d.Currency))
}

// TotalsDTO is one figure in both reporting currencies.
type TotalsDTO struct {
	GBP MoneyDTO `json:"gbp"`
	ZAR MoneyDTO `json:"zar"`
}

func toTotalsDTO(t estate.Totals) TotalsDTO {
	return TotalsDTO{GBP: toMoneyDTO(t.GBP), ZAR: toMoneyDTO(t.ZAR)}
}

// RateDTO is one FX rate supplied by the caller.
type RateDTO struct {
	From string `json:"from"`
	To   string `json:"to"`
	Rate string `json:"rate"`
}

// =============================================================================
// RESIDENCY EVALUATION
// =============================================================================

// EvaluateSRTRequest carries one UK tax year of SRT facts.
type EvaluateSRTRequest struct {
	Year               int             `json:"year"`
	DaysInUK           int             `json:"days_in_uk"`
	Ties               map[string]bool `json:"ties,omitempty"`
	PriorYearsResident int             `json:"prior_years_resident"`
	OnlyHomeInUK       bool            `json:"only_home_in_uk,omitempty"`
	UKHomeDays         int             `json:"uk_home_days,omitempty"`
}

// SRTResultDTO reports the outcome and which test decided it.
type SRTResultDTO struct {
	Resident     bool   `json:"resident"`
	DecidedBy    string `json:"decided_by"`
	TiesPresent  int    `json:"ties_present,omitempty"`
	TiesRequired int    `json:"ties_required,omitempty"`
}

// EvaluateSAPresenceRequest carries the SA physical presence day counts.
type EvaluateSAPresenceRequest struct {
	Year               int    `json:"year"`
	DaysInCurrentYear  int    `json:"days_in_current_year"`
	DaysInPriorYears   [5]int `json:"days_in_prior_years"`
	OrdinarilyResident bool   `json:"ordinarily_resident,omitempty"`
}

// SAPresenceResultDTO reports the outcome and the first failing conjunct.
type SAPresenceResultDTO struct {
	Resident       bool   `json:"resident"`
	FailedConjunct string `json:"failed_conjunct,omitempty"`
}

// TieBreakFactsDTO carries the DTA tie-break facts. Missing fields mean
// "not established" and make the step fall through.
type TieBreakFactsDTO struct {
	PermanentHomeUK *bool   `json:"permanent_home_uk,omitempty"`
	PermanentHomeSA *bool   `json:"permanent_home_sa,omitempty"`
	VitalInterests  *string `json:"vital_interests,omitempty"`
	HabitualDaysUK  *int    `json:"habitual_days_uk,omitempty"`
	HabitualDaysSA  *int    `json:"habitual_days_sa,omitempty"`
	Nationality     *string `json:"nationality,omitempty"`
}

func (d TieBreakFactsDTO) toFacts() residency.TieBreakFacts {
	f := residency.TieBreakFacts{
		PermanentHomeUK: d.PermanentHomeUK,
		PermanentHomeSA: d.PermanentHomeSA,
		HabitualDaysUK:  d.HabitualDaysUK,
		HabitualDaysSA:  d.HabitualDaysSA,
	}
	if d.VitalInterests != nil {
		c := residency.Country(*d.VitalInterests)
		f.VitalInterests = &c
	}
	if d.Nationality != nil {
		c := residency.Country(*d.Nationality)
		f.Nationality = &c
	}
	return f
}

// TieBreakOutcomeDTO reports the resolved residency and the deciding step.
type TieBreakOutcomeDTO struct {
	Result    string `json:"result"`
	DecidedBy string `json:"decided_by"`
}

// AssessDomicileRequest carries the residency/domicile history.
type AssessDomicileRequest struct {
	AsOfYear           int             `json:"as_of_year"`
	LegallyUKDomiciled bool            `json:"legally_uk_domiciled"`
	History            []YearStatusDTO `json:"history"`
}

// YearStatusDTO is one UK tax year of residency/domicile history.
type YearStatusDTO struct {
	Year        int  `json:"year"`
	UKResident  bool `json:"uk_resident"`
	UKDomiciled bool `json:"uk_domiciled,omitempty"`
}

// DomicileAssessmentDTO reports the classification and the progress
// figures the UI renders.
type DomicileAssessmentDTO struct {
	Domicile                  string `json:"domicile"`
	DeemedUK                  bool   `json:"deemed_uk"`
	RuleApplied               string `json:"rule_applied,omitempty"`
	ResidentYearsInWindow     int    `json:"resident_years_in_window"`
	YearsUntilDeemedDomicile  int    `json:"years_until_deemed_domicile"`
	DeemedDomicileProgressPct string `json:"deemed_domicile_progress_pct"`
}

// =============================================================================
// TAX STATUS
// =============================================================================

// CreateStatusRequest creates a new current status record, superseding
// the open one.
type CreateStatusRequest struct {
	EffectiveFrom        string `json:"effective_from"` // YYYY-MM-DD
	UKTaxResident        bool   `json:"uk_tax_resident"`
	SATaxResident        bool   `json:"sa_tax_resident"`
	UKResidenceBasis     string `json:"uk_residence_basis,omitempty"`
	SplitYearTreatment   bool   `json:"split_year_treatment,omitempty"`
	SAOrdinarilyResident bool   `json:"sa_ordinarily_resident,omitempty"`
	DTATieBreaker        string `json:"dta_tie_breaker,omitempty"`
	Domicile             string `json:"domicile"`
	DomicileOfOrigin     string `json:"domicile_of_origin,omitempty"`
	UKDeemedDomicile     bool   `json:"uk_deemed_domicile,omitempty"`
}

// StatusDTO represents one effective-dated tax status record.
type StatusDTO struct {
	ID                   string  `json:"id"`
	UserID               string  `json:"user_id"`
	EffectiveFrom        string  `json:"effective_from"`
	EffectiveTo          *string `json:"effective_to,omitempty"`
	UKTaxResident        bool    `json:"uk_tax_resident"`
	SATaxResident        bool    `json:"sa_tax_resident"`
	DualResident         bool    `json:"dual_resident"`
	UKResidenceBasis     string  `json:"uk_residence_basis,omitempty"`
	SplitYearTreatment   bool    `json:"split_year_treatment,omitempty"`
	SAOrdinarilyResident bool    `json:"sa_ordinarily_resident,omitempty"`
	DTATieBreaker        string  `json:"dta_tie_breaker,omitempty"`
	Domicile             string  `json:"domicile"`
	DomicileOfOrigin     string  `json:"domicile_of_origin,omitempty"`
	UKDeemedDomicile     bool    `json:"uk_deemed_domicile"`
	CreatedAt            string  `json:"created_at,omitempty"`
}

func toStatusDTO(r status.Record) StatusDTO {
	dto := StatusDTO{
		ID:                   r.ID,
		UserID:               r.UserID,
		EffectiveFrom:        r.EffectiveFrom.Format("2006-01-02"),
		UKTaxResident:        r.UKTaxResident,
		SATaxResident:        r.SATaxResident,
		DualResident:         r.DualResident(),
		UKResidenceBasis:     string(r.UKResidenceBasis),
		SplitYearTreatment:   r.SplitYearTreatment,
		SAOrdinarilyResident: r.SAOrdinarilyResident,
		DTATieBreaker:        string(r.DTATieBreaker),
		Domicile:             string(r.Domicile),
		DomicileOfOrigin:     r.DomicileOfOrigin,
		UKDeemedDomicile:     r.UKDeemedDomicile,
	}
	if r.EffectiveTo != nil {
		s := r.EffectiveTo.Format("2006-01-02")
		dto.EffectiveTo = &s
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// GIFTS
// =============================================================================

// RecordGiftRequest records a lifetime transfer.
type RecordGiftRequest struct {
	Date                  string   `json:"date"` // YYYY-MM-DD
	Value                 MoneyDTO `json:"value"`
	ExemptionType         string   `json:"exemption_type"`
	RecipientRelationship string   `json:"recipient_relationship,omitempty"`
}

// CorrectGiftRequest voids a gift and records its replacement.
type CorrectGiftRequest struct {
	Reason      string            `json:"reason"`
	Replacement RecordGiftRequest `json:"replacement"`
}

// GiftDTO represents a gift including its void bookkeeping.
type GiftDTO struct {
	ID                    string   `json:"id"`
	UserID                string   `json:"user_id"`
	Date                  string   `json:"date"`
	Value                 MoneyDTO `json:"value"`
	ExemptionType         string   `json:"exemption_type"`
	RecipientRelationship string   `json:"recipient_relationship,omitempty"`
	Voided                bool     `json:"voided"`
	VoidReason            string   `json:"void_reason,omitempty"`
	SupersededBy          string   `json:"superseded_by,omitempty"`
	CreatedAt             string   `json:"created_at,omitempty"`
}

func toGiftDTO(g gift.Gift) GiftDTO {
	dto := GiftDTO{
		ID:                    g.ID,
		UserID:                g.UserID,
		Date:                  g.Date.Format("2006-01-02"),
		Value:                 toMoneyDTO(g.Value),
		ExemptionType:         string(g.ExemptionType),
		RecipientRelationship: g.RecipientRelationship,
		Voided:                g.Voided(),
		VoidReason:            g.VoidReason,
		SupersededBy:          g.SupersededBy,
	}
	if !g.CreatedAt.IsZero() {
		dto.CreatedAt = g.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// ASSETS / LIABILITIES
// =============================================================================

// AddAssetRequest adds an asset to the user's inventory.
type AddAssetRequest struct {
	Description               string   `json:"description"`
	Type                      string   `json:"type"`
	CurrentValue              MoneyDTO `json:"current_value"`
	UKIHTApplicable           bool     `json:"uk_iht_applicable"`
	QualifyingResidence       bool     `json:"qualifying_residence,omitempty"`
	PassesToDirectDescendants bool     `json:"passes_to_direct_descendants,omitempty"`
}

// AssetDTO represents an asset.
type AssetDTO struct {
	ID                        string   `json:"id"`
	UserID                    string   `json:"user_id"`
	Description               string   `json:"description,omitempty"`
	Type                      string   `json:"type"`
	CurrentValue              MoneyDTO `json:"current_value"`
	UKIHTApplicable           bool     `json:"uk_iht_applicable"`
	QualifyingResidence       bool     `json:"qualifying_residence,omitempty"`
	PassesToDirectDescendants bool     `json:"passes_to_direct_descendants,omitempty"`
	Deleted                   bool     `json:"deleted"`
}

func toAssetDTO(a estate.Asset) AssetDTO {
	return AssetDTO{
		ID:                        a.ID,
		UserID:                    a.UserID,
		Description:               a.Description,
		Type:                      string(a.Type),
		CurrentValue:              toMoneyDTO(a.CurrentValue),
		UKIHTApplicable:           a.UKIHTApplicable,
		QualifyingResidence:       a.QualifyingResidence,
		PassesToDirectDescendants: a.PassesToDirectDescendants,
		Deleted:                   a.Deleted(),
	}
}

// AddLiabilityRequest adds a liability to the user's inventory.
type AddLiabilityRequest struct {
	Description        string   `json:"description"`
	Type               string   `json:"type"`
	OutstandingBalance MoneyDTO `json:"outstanding_balance"`
	UKIHTDeductible    bool     `json:"uk_iht_deductible"`
	ConnectedPerson    bool     `json:"connected_person,omitempty"`
}

// LiabilityDTO represents a liability.
type LiabilityDTO struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	Description        string   `json:"description,omitempty"`
	Type               string   `json:"type"`
	OutstandingBalance MoneyDTO `json:"outstanding_balance"`
	UKIHTDeductible    bool     `json:"uk_iht_deductible"`
	ConnectedPerson    bool     `json:"connected_person,omitempty"`
	Deleted            bool     `json:"deleted"`
}

func toLiabilityDTO(l estate.Liability) LiabilityDTO {
	return LiabilityDTO{
		ID:                 l.ID,
		UserID:             l.UserID,
		Description:        l.Description,
		Type:               string(l.Type),
		OutstandingBalance: toMoneyDTO(l.OutstandingBalance),
		UKIHTDeductible:    l.UKIHTDeductible,
		ConnectedPerson:    l.ConnectedPerson,
		Deleted:            l.Deleted(),
	}
}

// =============================================================================
// ESTATE CALCULATION
// =============================================================================

// CalculateEstateRequest asks for a point-in-time estate calculation.
// The FX rates are caller-supplied; the engine fetches nothing.
type CalculateEstateRequest struct {
	AsOf  string    `json:"as_of"` // YYYY-MM-DD
	Rates []RateDTO `json:"rates"`

	TransferableNRBPercent     string    `json:"transferable_nrb_percent,omitempty"`
	BusinessPropertyRelief     *MoneyDTO `json:"business_property_relief,omitempty"`
	AgriculturalPropertyRelief *MoneyDTO `json:"agricultural_property_relief,omitempty"`
	OverlappingAssets          *MoneyDTO `json:"overlapping_assets,omitempty"`
}

// GiftTaxDTO is the per-gift tax breakdown.
type GiftTaxDTO struct {
	GiftID          string   `json:"gift_id"`
	ChargeableValue MoneyDTO `json:"chargeable_value"`
	NRBConsumed     MoneyDTO `json:"nrb_consumed"`
	TaxableAmount   MoneyDTO `json:"taxable_amount"`
	TaperReliefPct  string   `json:"taper_relief_pct"`
	TaxDue          MoneyDTO `json:"tax_due"`
}

// CalculationDTO is the full IHT breakdown.
type CalculationDTO struct {
	TaxYear        string `json:"tax_year"`
	WorldwideScope bool   `json:"worldwide_scope"`

	TaxableEstate        MoneyDTO `json:"taxable_estate"`
	NilRateBand          MoneyDTO `json:"nil_rate_band"`
	TransferableNRB      MoneyDTO `json:"transferable_nrb"`
	NRBConsumedByGifts   MoneyDTO `json:"nrb_consumed_by_gifts"`
	RemainingNRB         MoneyDTO `json:"remaining_nrb"`
	ResidenceNilRateBand MoneyDTO `json:"residence_nil_rate_band"`
	TotalReliefs         MoneyDTO `json:"total_reliefs"`
	ChargeableEstate     MoneyDTO `json:"chargeable_estate"`
	GrossTax             MoneyDTO `json:"gross_tax"`

	GiftTaxes    []GiftTaxDTO `json:"gift_taxes,omitempty"`
	TotalGiftTax MoneyDTO     `json:"total_gift_tax"`

	SAEstateDuty MoneyDTO `json:"sa_estate_duty"`
	DTARelief    MoneyDTO `json:"dta_relief"`

	NetTax        MoneyDTO `json:"net_tax"`
	EffectiveRate string   `json:"effective_rate"`
}

// ValuationDTO is the aggregated estate view.
type ValuationDTO struct {
	GrossEstate              TotalsDTO `json:"gross_estate"`
	UKTaxableAssets          TotalsDTO `json:"uk_taxable_assets"`
	ExcludedProperty         TotalsDTO `json:"excluded_property"`
	TotalLiabilities         TotalsDTO `json:"total_liabilities"`
	NetEstate                TotalsDTO `json:"net_estate"`
	UKNetEstate              TotalsDTO `json:"uk_net_estate"`
	QualifyingResidenceValue MoneyDTO  `json:"qualifying_residence_value"`
	FlaggedLiabilityIDs      []string  `json:"flagged_liability_ids,omitempty"`
}

// RecommendationDTO is one advisory suggestion.
type RecommendationDTO struct {
	Code            string   `json:"code"`
	Message         string   `json:"message"`
	EstimatedSaving MoneyDTO `json:"estimated_saving"`
}

// EstateResultDTO is the complete calculation response.
type EstateResultDTO struct {
	UserID string `json:"user_id"`
	AsOf   string `json:"as_of"`

	Valuation        ValuationDTO   `json:"valuation"`
	UKInheritanceTax CalculationDTO `json:"uk_inheritance_tax"`

	TotalDeathTaxes   TotalsDTO `json:"total_death_taxes"`
	NetEstateAfterTax TotalsDTO `json:"net_estate_after_tax"`

	Recommendations []RecommendationDTO `json:"recommendations,omitempty"`
}

func toEstateResultDTO(r *estate.Result) EstateResultDTO {
	calc := r.UKInheritanceTax
	dto := EstateResultDTO{
		UserID: r.UserID,
		AsOf:   r.AsOf.Format("2006-01-02"),
		Valuation: ValuationDTO{
			GrossEstate:              toTotalsDTO(r.Valuation.GrossEstate),
			UKTaxableAssets:          toTotalsDTO(r.Valuation.UKTaxableAssets),
			ExcludedProperty:         toTotalsDTO(r.Valuation.ExcludedProperty),
			TotalLiabilities:         toTotalsDTO(r.Valuation.TotalLiabilities),
			NetEstate:                toTotalsDTO(r.Valuation.NetEstate),
			UKNetEstate:              toTotalsDTO(r.Valuation.UKNetEstate),
			QualifyingResidenceValue: toMoneyDTO(r.Valuation.QualifyingResidenceValue),
			FlaggedLiabilityIDs:      r.Valuation.FlaggedLiabilityIDs,
		},
		UKInheritanceTax: CalculationDTO{
			TaxYear:              calc.TaxYear.String(),
			WorldwideScope:       calc.WorldwideScope,
			TaxableEstate:        toMoneyDTO(calc.TaxableEstate),
			NilRateBand:          toMoneyDTO(calc.NilRateBand),
			TransferableNRB:      toMoneyDTO(calc.TransferableNRB),
			NRBConsumedByGifts:   toMoneyDTO(calc.NRBConsumedByGifts),
			RemainingNRB:         toMoneyDTO(calc.RemainingNRB),
			ResidenceNilRateBand: toMoneyDTO(calc.ResidenceNilRateBand),
			TotalReliefs:         toMoneyDTO(calc.TotalReliefs),
			ChargeableEstate:     toMoneyDTO(calc.ChargeableEstate),
			GrossTax:             toMoneyDTO(calc.GrossTax),
			TotalGiftTax:         toMoneyDTO(calc.TotalGiftTax),
			SAEstateDuty:         toMoneyDTO(calc.SAEstateDuty),
			DTARelief:            toMoneyDTO(calc.DTARelief),
			NetTax:               toMoneyDTO(calc.NetTax),
			EffectiveRate:        calc.EffectiveRate.String(),
		},
		TotalDeathTaxes:   toTotalsDTO(r.TotalDeathTaxes),
		NetEstateAfterTax: toTotalsDTO(r.NetEstateAfterTax),
	}
	for _, gt := range calc.GiftTaxes {
		dto.UKInheritanceTax.GiftTaxes = append(dto.UKInheritanceTax.GiftTaxes, GiftTaxDTO{
			GiftID:          gt.GiftID,
			ChargeableValue: toMoneyDTO(gt.ChargeableValue),
			NRBConsumed:     toMoneyDTO(gt.NRBConsumed),
			TaxableAmount:   toMoneyDTO(gt.TaxableAmount),
			TaperReliefPct:  gt.TaperRelief.String(),
			TaxDue:          toMoneyDTO(gt.TaxDue),
		})
	}
	for _, rec := range r.Recommendations {
		dto.Recommendations = append(dto.Recommendations, RecommendationDTO{
			Code:            rec.Code,
			Message:         rec.Message,
			EstimatedSaving: toMoneyDTO(rec.EstimatedSaving),
		})
	}
	return dto
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO describes one demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	UserID      string `json:"user_id,omitempty"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
