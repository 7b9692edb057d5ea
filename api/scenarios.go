/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the stores with realistic
	data for testing and demos. Each scenario creates one demo user with
	the status history, gifts, assets and liabilities that demonstrate a
	specific feature of the engine.

AVAILABLE SCENARIOS:

	uk-expat:           Dual resident, DTA tie-break to SA
	long-term-resident: 14 resident years, one short of deemed domicile
	gifting:            PETs across the taper bands, one corrected
	dual-estate:        UK + SA assets with overlapping DTA exposure

HOW SCENARIOS WORK:
 1. Pick a fixed demo user ID per scenario
 2. Create the status record(s)
 3. Record gifts / assets / liabilities
 4. Invalidate the calculation cache for that user

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "gifting"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description, user_id
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Loading a scenario twice re-appends records for the same demo user.
	Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ListScenarios, LoadScenario handlers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/status"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "uk-expat",
		Name:        "UK Expat in South Africa",
		Description: "Dual resident whose DTA tie-break resolves to SA on permanent home",
		Category:    "residency",
		UserID:      "demo-uk-expat",
	},
	{
		ID:          "long-term-resident",
		Name:        "Long-Term UK Resident",
		Description: "14 resident years of 20; one more year triggers deemed domicile",
		Category:    "domicile",
		UserID:      "demo-long-term",
	},
	{
		ID:          "gifting",
		Name:        "Lifetime Gifting",
		Description: "PETs across the taper bands plus an annual-exempt gift and a correction",
		Category:    "gifts",
		UserID:      "demo-gifting",
	},
	{
		ID:          "dual-estate",
		Name:        "Dual UK/SA Estate",
		Description: "Worldwide estate with overlapping assets and a DTA credit",
		Category:    "estate",
		UserID:      "demo-dual-estate",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a demo scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "uk-expat":
		err = loadUKExpatScenario(ctx, h)
	case "long-term-resident":
		err = loadLongTermResidentScenario(ctx, h)
	case "gifting":
		err = loadGiftingScenario(ctx, h)
	case "dual-estate":
		err = loadDualEstateScenario(ctx, h)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadUKExpatScenario: a UK national who moved to SA in 2022, dual
// resident for one year, tie-break resolved to SA on permanent home.
func loadUKExpatScenario(ctx context.Context, h *Handler) error {
	const userID = "demo-uk-expat"

	records := []status.Record{
		{
			UserID:        userID,
			EffectiveFrom: date(2018, 4, 6),
			UKTaxResident: true,
			Domicile:      residency.UKDomiciled,
		},
		{
			UserID:           userID,
			EffectiveFrom:    date(2022, 4, 6),
			UKTaxResident:    true,
			SATaxResident:    true,
			DTATieBreaker:    residency.TieBreakSA,
			Domicile:         residency.UKDomiciled,
			DomicileOfOrigin: "GB",
		},
		{
			UserID:               userID,
			EffectiveFrom:        date(2023, 4, 6),
			SATaxResident:        true,
			SAOrdinarilyResident: true,
			Domicile:             residency.DeemedUKDomicile,
			DomicileOfOrigin:     "GB",
			UKDeemedDomicile:     true,
		},
	}
	for _, rec := range records {
		if _, err := h.Status.Create(ctx, rec); err != nil {
			return err
		}
	}

	// A UK flat kept as a rental and an SA home.
	if _, err := h.Inventory.AddAsset(ctx, estate.Asset{
		UserID:          userID,
		Description:     "London flat (rented out)",
		Type:            estate.AssetProperty,
		CurrentValue:    money.New("450000", money.GBP),
		UKIHTApplicable: true,
	}); err != nil {
		return err
	}
	if _, err := h.Inventory.AddAsset(ctx, estate.Asset{
		UserID:          userID,
		Description:     "Cape Town house",
		Type:            estate.AssetProperty,
		CurrentValue:    money.New("6500000", money.ZAR),
		UKIHTApplicable: true,
	}); err != nil {
		return err
	}

	h.Estate.Invalidate(userID)
	return nil
}

// loadLongTermResidentScenario: an SA national resident in the UK since
// 2011/12, one year short of the 15-of-20 deemed-domicile trigger.
func loadLongTermResidentScenario(ctx context.Context, h *Handler) error {
	const userID = "demo-long-term"

	if _, err := h.Status.Create(ctx, status.Record{
		UserID:           userID,
		EffectiveFrom:    date(2011, 4, 6),
		UKTaxResident:    true,
		UKResidenceBasis: status.BasisRemittance,
		Domicile:         residency.NonUKDomiciled,
		DomicileOfOrigin: "ZA",
	}); err != nil {
		return err
	}
	if _, err := h.Status.Create(ctx, status.Record{
		UserID:           userID,
		EffectiveFrom:    date(2017, 4, 6),
		UKTaxResident:    true,
		UKResidenceBasis: status.BasisArising,
		Domicile:         residency.NonUKDomiciled,
		DomicileOfOrigin: "ZA",
	}); err != nil {
		return err
	}

	// Johannesburg investment portfolio stays excluded property while
	// non-UK domiciled.
	if _, err := h.Inventory.AddAsset(ctx, estate.Asset{
		UserID:          userID,
		Description:     "Johannesburg investment portfolio",
		Type:            estate.AssetInvestment,
		CurrentValue:    money.New("12000000", money.ZAR),
		UKIHTApplicable: false,
	}); err != nil {
		return err
	}
	if _, err := h.Inventory.AddAsset(ctx, estate.Asset{
		UserID:                    userID,
		Description:               "Manchester home",
		Type:                      estate.AssetProperty,
		CurrentValue:              money.New("380000", money.GBP),
		UKIHTApplicable:           true,
		QualifyingResidence:       true,
		PassesToDirectDescendants: true,
	}); err != nil {
		return err
	}

	h.Estate.Invalidate(userID)
	return nil
}

// loadGiftingScenario: PETs landing in different taper bands, an
// annual-exempt gift, and one corrected gift showing the audit trail.
func loadGiftingScenario(ctx context.Context, h *Handler) error {
	const userID = "demo-gifting"

	if _, err := h.Status.Create(ctx, status.Record{
		UserID:        userID,
		EffectiveFrom: date(2015, 4, 6),
		UKTaxResident: true,
		Domicile:      residency.UKDomiciled,
	}); err != nil {
		return err
	}

	gifts := []gift.Gift{
		{
			UserID:                userID,
			Date:                  date(2019, 6, 1),
			Value:                 money.New("150000", money.GBP),
			ExemptionType:         gift.PotentiallyExempt,
			RecipientRelationship: "daughter",
		},
		{
			UserID:                userID,
			Date:                  date(2021, 9, 15),
			Value:                 money.New("80000", money.GBP),
			ExemptionType:         gift.PotentiallyExempt,
			RecipientRelationship: "son",
		},
		{
			UserID:                userID,
			Date:                  date(2024, 1, 10),
			Value:                 money.New("3000", money.GBP),
			ExemptionType:         gift.AnnualExempt,
			RecipientRelationship: "grandchild",
		},
	}
	for _, g := range gifts {
		if _, err := h.Gifts.Record(ctx, g); err != nil {
			return err
		}
	}

	// A mistyped amount corrected through void + recreate.
	wrong, err := h.Gifts.Record(ctx, gift.Gift{
		UserID:        userID,
		Date:          date(2023, 5, 1),
		Value:         money.New("500000", money.GBP),
		ExemptionType: gift.PotentiallyExempt,
	})
	if err != nil {
		return err
	}
	if _, err := h.Gifts.Correct(ctx, userID, wrong.ID, "amount entered with an extra zero", gift.Gift{
		Date:          date(2023, 5, 1),
		Value:         money.New("50000", money.GBP),
		ExemptionType: gift.PotentiallyExempt,
	}); err != nil {
		return err
	}

	if _, err := h.Inventory.AddAsset(ctx, estate.Asset{
		UserID:          userID,
		Description:     "Savings and investments",
		Type:            estate.AssetInvestment,
		CurrentValue:    money.New("900000", money.GBP),
		UKIHTApplicable: true,
	}); err != nil {
		return err
	}

	h.Estate.Invalidate(userID)
	return nil
}

// loadDualEstateScenario: deemed-UK-domiciled with property in both
// countries, liabilities in both currencies, and an overlap exposed to
// both UK IHT and SA estate duty.
func loadDualEstateScenario(ctx context.Context, h *Handler) error {
	const userID = "demo-dual-estate"

	if _, err := h.Status.Create(ctx, status.Record{
		UserID:               userID,
		EffectiveFrom:        date(2010, 4, 6),
		UKTaxResident:        true,
		SATaxResident:        true,
		SAOrdinarilyResident: true,
		DTATieBreaker:        residency.TieBreakUK,
		Domicile:             residency.DeemedUKDomicile,
		DomicileOfOrigin:     "ZA",
		UKDeemedDomicile:     true,
	}); err != nil {
		return err
	}

	assets := []estate.Asset{
		{
			UserID:                    userID,
			Description:               "Surrey family home",
			Type:                      estate.AssetProperty,
			CurrentValue:              money.New("1200000", money.GBP),
			UKIHTApplicable:           true,
			QualifyingResidence:       true,
			PassesToDirectDescendants: true,
		},
		{
			UserID:          userID,
			Description:     "Stellenbosch wine farm",
			Type:            estate.AssetAgricultural,
			CurrentValue:    money.New("18000000", money.ZAR),
			UKIHTApplicable: true,
		},
		{
			UserID:          userID,
			Description:     "JSE share portfolio",
			Type:            estate.AssetInvestment,
			CurrentValue:    money.New("5000000", money.ZAR),
			UKIHTApplicable: true,
		},
	}
	for _, a := range assets {
		if _, err := h.Inventory.AddAsset(ctx, a); err != nil {
			return err
		}
	}

	liabilities := []estate.Liability{
		{
			UserID:             userID,
			Description:        "Surrey mortgage",
			Type:               estate.LiabilityMortgage,
			OutstandingBalance: money.New("300000", money.GBP),
			UKIHTDeductible:    true,
		},
		{
			UserID:             userID,
			Description:        "Loan from family trust",
			Type:               estate.LiabilityLoan,
			OutstandingBalance: money.New("1000000", money.ZAR),
			UKIHTDeductible:    false,
			ConnectedPerson:    true,
		},
	}
	for _, l := range liabilities {
		if _, err := h.Inventory.AddLiability(ctx, l); err != nil {
			return err
		}
	}

	h.Estate.Invalidate(userID)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
