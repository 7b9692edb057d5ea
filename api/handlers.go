/*
handlers.go - HTTP API handlers for the tax residency and estate engine

PURPOSE:
  Exposes the determination engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Residency (stateless evaluations):
    POST   /api/residency/srt               UK Statutory Residence Test
    POST   /api/residency/sa-presence       SA physical presence test
    POST   /api/residency/tie-break         DTA tie-breaker
    POST   /api/residency/domicile          Deemed-domicile assessment

  Tax status (temporal store):
    POST   /api/users/{id}/status           Create/supersede status record
    GET    /api/users/{id}/status/current   Current open record
    GET    /api/users/{id}/status/at/{date} Record in force on a date
    GET    /api/users/{id}/status/history   Full history, oldest first

  Gifts:
    POST   /api/users/{id}/gifts            Record a gift
    POST   /api/users/{id}/gifts/{gid}/correct  Void + recreate
    GET    /api/users/{id}/gifts            Active gifts
    GET    /api/users/{id}/gifts/all        Including voided, for audit

  Estate:
    POST   /api/users/{id}/assets           Add asset
    DELETE /api/users/{id}/assets/{aid}     Soft delete
    GET    /api/users/{id}/assets           List (including soft-deleted)
    POST   /api/users/{id}/liabilities      Add liability
    DELETE /api/users/{id}/liabilities/{lid}  Soft delete
    GET    /api/users/{id}/liabilities      List
    POST   /api/users/{id}/estate/calculate Point-in-time calculation

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: No record / gift not found
  - 409: Temporal conflict, gift already voided
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public;
  an upstream gateway is expected to terminate auth.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/status"
	"github.com/warp/estate-engine/taxyear"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// GiftLedger is the gift store surface the API writes through. Both the
// in-memory ledger and the SQLite store satisfy it.
type GiftLedger interface {
	Record(ctx context.Context, g gift.Gift) (gift.Gift, error)
	Correct(ctx context.Context, userID, giftID, reason string, replacement gift.Gift) (gift.Gift, error)
	Active(ctx context.Context, userID string) ([]gift.Gift, error)
	All(ctx context.Context, userID string) ([]gift.Gift, error)
}

// Inventory is the asset/liability store surface the API writes through.
type Inventory interface {
	estate.InventoryStore
	AddAsset(ctx context.Context, a estate.Asset) (estate.Asset, error)
	AddLiability(ctx context.Context, l estate.Liability) (estate.Liability, error)
	DeleteAsset(ctx context.Context, userID, assetID string) error
	DeleteLiability(ctx context.Context, userID, liabilityID string) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Status    status.Store
	Gifts     GiftLedger
	Inventory Inventory
	Estate    *estate.Service
	Metrics   *Metrics

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler over the given stores and service.
func NewHandler(st status.Store, gifts GiftLedger, inv Inventory, svc *estate.Service, metrics *Metrics) *Handler {
	return &Handler{Status: st, Gifts: gifts, Inventory: inv, Estate: svc, Metrics: metrics}
}

// =============================================================================
// RESIDENCY HANDLERS
// =============================================================================

// EvaluateSRT runs the UK Statutory Residence Test.
// POST /api/residency/srt
func (h *Handler) EvaluateSRT(w http.ResponseWriter, r *http.Request) {
	var req EvaluateSRTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ties := make(map[residency.Tie]bool, len(req.Ties))
	for name, present := range req.Ties {
		ties[residency.Tie(name)] = present
	}

	result, err := residency.EvaluateSRT(residency.SRTInput{
		Year:               taxyear.UKYear(req.Year),
		DaysInUK:           req.DaysInUK,
		Ties:               ties,
		PriorYearsResident: req.PriorYearsResident,
		OnlyHomeInUK:       req.OnlyHomeInUK,
		UKHomeDays:         req.UKHomeDays,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid SRT input", err)
		return
	}

	h.Metrics.IncrementEvaluation("srt", residentLabel(result.Resident))
	writeJSON(w, http.StatusOK, SRTResultDTO{
		Resident:     result.Resident,
		DecidedBy:    string(result.DecidedBy),
		TiesPresent:  result.TiesPresent,
		TiesRequired: result.TiesRequired,
	})
}

// EvaluateSAPresence runs the SA physical presence test.
// POST /api/residency/sa-presence
func (h *Handler) EvaluateSAPresence(w http.ResponseWriter, r *http.Request) {
	var req EvaluateSAPresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := residency.EvaluateSAPresence(residency.SAPresenceInput{
		Year:               taxyear.SAYear(req.Year),
		DaysInCurrentYear:  req.DaysInCurrentYear,
		DaysInPriorYears:   req.DaysInPriorYears,
		OrdinarilyResident: req.OrdinarilyResident,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid SA presence input", err)
		return
	}

	h.Metrics.IncrementEvaluation("sa_presence", residentLabel(result.Resident))
	writeJSON(w, http.StatusOK, SAPresenceResultDTO{
		Resident:       result.Resident,
		FailedConjunct: result.FailedConjunct,
	})
}

// ResolveTieBreak applies the DTA tie-breaker chain.
// POST /api/residency/tie-break
func (h *Handler) ResolveTieBreak(w http.ResponseWriter, r *http.Request) {
	var req TieBreakFactsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	outcome := residency.ResolveTieBreak(req.toFacts())
	h.Metrics.IncrementEvaluation("tie_break", string(outcome.Result))
	writeJSON(w, http.StatusOK, TieBreakOutcomeDTO{
		Result:    string(outcome.Result),
		DecidedBy: string(outcome.DecidedBy),
	})
}

// AssessDomicile classifies domicile for the as-of year.
// POST /api/residency/domicile
func (h *Handler) AssessDomicile(w http.ResponseWriter, r *http.Request) {
	var req AssessDomicileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	history := make([]residency.YearStatus, len(req.History))
	for i, ys := range req.History {
		history[i] = residency.YearStatus{
			Year:        taxyear.UKYear(ys.Year),
			UKResident:  ys.UKResident,
			UKDomiciled: ys.UKDomiciled,
		}
	}

	a := residency.AssessDomicile(history, taxyear.UKYear(req.AsOfYear), req.LegallyUKDomiciled)
	h.Metrics.IncrementEvaluation("domicile", string(a.Domicile))
	writeJSON(w, http.StatusOK, DomicileAssessmentDTO{
		Domicile:                  string(a.Domicile),
		DeemedUK:                  a.DeemedUK,
		RuleApplied:               string(a.RuleApplied),
		ResidentYearsInWindow:     a.ResidentYearsInWindow,
		YearsUntilDeemedDomicile:  a.YearsUntilDeemedDomicile,
		DeemedDomicileProgressPct: a.DeemedDomicileProgressPct.StringFixed(1),
	})
}

// =============================================================================
// TAX STATUS HANDLERS
// =============================================================================

// CreateStatus appends a new current status record, superseding the
// open one.
// POST /api/users/{id}/status
func (h *Handler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req CreateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_from (use YYYY-MM-DD)", err)
		return
	}

	rec := status.Record{
		UserID:               userID,
		EffectiveFrom:        effectiveFrom,
		UKTaxResident:        req.UKTaxResident,
		SATaxResident:        req.SATaxResident,
		UKResidenceBasis:     status.Basis(req.UKResidenceBasis),
		SplitYearTreatment:   req.SplitYearTreatment,
		SAOrdinarilyResident: req.SAOrdinarilyResident,
		DTATieBreaker:        residency.TieBreakResult(req.DTATieBreaker),
		Domicile:             residency.Domicile(req.Domicile),
		DomicileOfOrigin:     req.DomicileOfOrigin,
		UKDeemedDomicile:     req.UKDeemedDomicile,
	}

	stored, err := h.Status.Create(r.Context(), rec)
	if err != nil {
		writeDomainError(w, "Failed to create status record", err)
		return
	}

	h.Estate.Invalidate(userID)
	h.Metrics.IncrementStatusWrite("create")
	writeJSON(w, http.StatusCreated, toStatusDTO(stored))
}

// GetCurrentStatus returns the open record.
// GET /api/users/{id}/status/current
func (h *Handler) GetCurrentStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Status.Current(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get current status", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(rec))
}

// GetStatusAtDate returns the record in force on a date.
// GET /api/users/{id}/status/at/{date}
func (h *Handler) GetStatusAtDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Status.AtDate(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		writeDomainError(w, "Failed to get status at date", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(rec))
}

// GetStatusHistory returns the full history, oldest first.
// GET /api/users/{id}/status/history
func (h *Handler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.Status.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get status history", err)
		return
	}

	dtos := make([]StatusDTO, len(records))
	for i, rec := range records {
		dtos[i] = toStatusDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// GIFT HANDLERS
// =============================================================================

// RecordGift records a lifetime transfer.
// POST /api/users/{id}/gifts
func (h *Handler) RecordGift(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req RecordGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	g, err := giftFromRequest(userID, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gift", err)
		return
	}

	stored, err := h.Gifts.Record(r.Context(), g)
	if err != nil {
		writeDomainError(w, "Failed to record gift", err)
		return
	}

	h.Estate.Invalidate(userID)
	writeJSON(w, http.StatusCreated, toGiftDTO(stored))
}

// CorrectGift voids a gift and records its replacement in one step.
// POST /api/users/{id}/gifts/{gid}/correct
func (h *Handler) CorrectGift(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	giftID := chi.URLParam(r, "gid")

	var req CorrectGiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "Correction reason is required", nil)
		return
	}

	replacement, err := giftFromRequest(userID, req.Replacement)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid replacement gift", err)
		return
	}

	stored, err := h.Gifts.Correct(r.Context(), userID, giftID, req.Reason, replacement)
	if err != nil {
		writeDomainError(w, "Failed to correct gift", err)
		return
	}

	h.Estate.Invalidate(userID)
	writeJSON(w, http.StatusOK, toGiftDTO(stored))
}

// ListGifts returns the user's active gifts.
// GET /api/users/{id}/gifts
func (h *Handler) ListGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.Gifts.Active(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to list gifts", err)
		return
	}
	writeJSON(w, http.StatusOK, toGiftDTOs(gifts))
}

// ListAllGifts returns every gift including voided ones, for audit.
// GET /api/users/{id}/gifts/all
func (h *Handler) ListAllGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.Gifts.All(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to list gifts", err)
		return
	}
	writeJSON(w, http.StatusOK, toGiftDTOs(gifts))
}

func giftFromRequest(userID string, req RecordGiftRequest) (gift.Gift, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return gift.Gift{}, err
	}
	value, err := req.Value.toMoney()
	if err != nil {
		return gift.Gift{}, err
	}
	return gift.Gift{
		UserID:                userID,
		Date:                  date,
		Value:                 value,
		ExemptionType:         gift.ExemptionType(req.ExemptionType),
		RecipientRelationship: req.RecipientRelationship,
	}, nil
}

func toGiftDTOs(gifts []gift.Gift) []GiftDTO {
	dtos := make([]GiftDTO, len(gifts))
	for i, g := range gifts {
		dtos[i] = toGiftDTO(g)
	}
	return dtos
}

// =============================================================================
// ASSET / LIABILITY HANDLERS
// =============================================================================

// AddAsset adds an asset to the user's inventory.
// POST /api/users/{id}/assets
func (h *Handler) AddAsset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req AddAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	value, err := req.CurrentValue.toMoney()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid current_value", err)
		return
	}

	stored, err := h.Inventory.AddAsset(r.Context(), estate.Asset{
		UserID:                    userID,
		Description:               req.Description,
		Type:                      estate.AssetType(req.Type),
		CurrentValue:              value,
		UKIHTApplicable:           req.UKIHTApplicable,
		QualifyingResidence:       req.QualifyingResidence,
		PassesToDirectDescendants: req.PassesToDirectDescendants,
	})
	if err != nil {
		writeDomainError(w, "Failed to add asset", err)
		return
	}

	h.Estate.Invalidate(userID)
	writeJSON(w, http.StatusCreated, toAssetDTO(stored))
}

// DeleteAsset soft-deletes an asset.
// DELETE /api/users/{id}/assets/{aid}
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if err := h.Inventory.DeleteAsset(r.Context(), userID, chi.URLParam(r, "aid")); err != nil {
		writeError(w, http.StatusNotFound, "Asset not found", err)
		return
	}
	h.Estate.Invalidate(userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListAssets returns the user's assets including soft-deleted ones.
// GET /api/users/{id}/assets
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Inventory.Assets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to list assets", err)
		return
	}
	dtos := make([]AssetDTO, len(assets))
	for i, a := range assets {
		dtos[i] = toAssetDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddLiability adds a liability to the user's inventory.
// POST /api/users/{id}/liabilities
func (h *Handler) AddLiability(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req AddLiabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	balance, err := req.OutstandingBalance.toMoney()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid outstanding_balance", err)
		return
	}

	stored, err := h.Inventory.AddLiability(r.Context(), estate.Liability{
		UserID:             userID,
		Description:        req.Description,
		Type:               estate.LiabilityType(req.Type),
		OutstandingBalance: balance,
		UKIHTDeductible:    req.UKIHTDeductible,
		ConnectedPerson:    req.ConnectedPerson,
	})
	if err != nil {
		writeDomainError(w, "Failed to add liability", err)
		return
	}

	h.Estate.Invalidate(userID)
	writeJSON(w, http.StatusCreated, toLiabilityDTO(stored))
}

// DeleteLiability soft-deletes a liability.
// DELETE /api/users/{id}/liabilities/{lid}
func (h *Handler) DeleteLiability(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if err := h.Inventory.DeleteLiability(r.Context(), userID, chi.URLParam(r, "lid")); err != nil {
		writeError(w, http.StatusNotFound, "Liability not found", err)
		return
	}
	h.Estate.Invalidate(userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListLiabilities returns the user's liabilities.
// GET /api/users/{id}/liabilities
func (h *Handler) ListLiabilities(w http.ResponseWriter, r *http.Request) {
	liabilities, err := h.Inventory.Liabilities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to list liabilities", err)
		return
	}
	dtos := make([]LiabilityDTO, len(liabilities))
	for i, l := range liabilities {
		dtos[i] = toLiabilityDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ESTATE CALCULATION
// =============================================================================

// CalculateEstate runs the point-in-time estate calculation.
// POST /api/users/{id}/estate/calculate
func (h *Handler) CalculateEstate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req CalculateEstateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	asOf, err := time.Parse("2006-01-02", req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of (use YYYY-MM-DD)", err)
		return
	}

	rates := money.NewRateTable(asOf)
	for _, rd := range req.Rates {
		rate, err := decimal.NewFromString(rd.Rate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate "+rd.Rate, err)
			return
		}
		rates.Set(money.Currency(rd.From), money.Currency(rd.To), rate)
	}

	scenario, err := scenarioFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scenario overrides", err)
		return
	}

	start := time.Now()
	result, err := h.Estate.Calculate(r.Context(), estate.CalcRequest{
		UserID:   userID,
		AsOf:     asOf,
		Rates:    rates,
		Scenario: scenario,
	})
	if err != nil {
		writeDomainError(w, "Estate calculation failed", err)
		return
	}
	h.Metrics.ObserveCalculation(time.Since(start))

	writeJSON(w, http.StatusOK, toEstateResultDTO(result))
}

func scenarioFromRequest(req CalculateEstateRequest) (estate.ScenarioOverrides, error) {
	var s estate.ScenarioOverrides
	if req.TransferableNRBPercent != "" {
		pct, err := decimal.NewFromString(req.TransferableNRBPercent)
		if err != nil {
			return s, err
		}
		s.TransferableNRBPercent = pct
	}
	var err error
	if s.BusinessPropertyRelief, err = optionalMoney(req.BusinessPropertyRelief); err != nil {
		return s, err
	}
	if s.AgriculturalPropertyRelief, err = optionalMoney(req.AgriculturalPropertyRelief); err != nil {
		return s, err
	}
	if s.OverlappingAssets, err = optionalMoney(req.OverlappingAssets); err != nil {
		return s, err
	}
	return s, nil
}

func optionalMoney(d *MoneyDTO) (money.Money, error) {
	if d == nil {
		return money.Money{}, nil
	}
	return d.toMoney()
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var conflict *status.TemporalConflictError
	var invalid *residency.ValidationError

	switch {
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, gift.ErrGiftVoided):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, status.ErrNoRecord), errors.Is(err, gift.ErrGiftNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.As(err, &invalid), errors.Is(err, money.ErrInvalidAmount), errors.Is(err, money.ErrRateNotFound):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func residentLabel(resident bool) string {
	if resident {
		return "resident"
	}
	return "non_resident"
}
