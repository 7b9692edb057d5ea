/*
service.go - Estate calculation orchestration and result cache

PURPOSE:
  Pulls the user's assets, liabilities, gifts and current tax status
  together, runs the aggregator and the IHT calculator, and shapes the
  EstateCalculationResult the API returns. I/O (loading records,
  supplying FX rates) happens here at the boundary; the calculation
  itself is pure.

CACHING:
  Results are cached per (user, as-of date, scenario fingerprint) and
  invalidated whenever the user's underlying assets, liabilities,
  gifts or tax status change. The cache is a per-process derived-value
  cache; correctness never depends on it.
*/
package estate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/status"
)

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// InventoryStore supplies the user's assets and liabilities.
type InventoryStore interface {
	Assets(ctx context.Context, userID string) ([]Asset, error)
	Liabilities(ctx context.Context, userID string) ([]Liability, error)
}

// GiftSource supplies the user's active (unvoided) gifts.
type GiftSource interface {
	Active(ctx context.Context, userID string) ([]gift.Gift, error)
}

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// ScenarioOverrides are the user-editable what-if inputs.
type ScenarioOverrides struct {
	TransferableNRBPercent     decimal.Decimal
	BusinessPropertyRelief     money.Money
	AgriculturalPropertyRelief money.Money
	OverlappingAssets          money.Money
}

// CalcRequest asks for an estate calculation as of a date. The rate
// table is supplied by the caller - the engine fetches nothing.
type CalcRequest struct {
	UserID   string
	AsOf     time.Time
	Rates    *money.RateTable
	Scenario ScenarioOverrides
}

// Result is the point-in-time EstateCalculationResult. Derived, never
// stored as a mutable entity - recomputed (or served from cache) on
// demand.
type Result struct {
	UserID string
	AsOf   time.Time

	Valuation        Valuation
	UKInheritanceTax Calculation

	TotalDeathTaxes   Totals
	NetEstateAfterTax Totals

	Recommendations []Recommendation
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Status    status.Store
	Gifts     GiftSource
	Inventory InventoryStore
	Tracker   *gift.Tracker
	Calc      *Calculator

	cache resultCache
}

func NewService(st status.Store, gifts GiftSource, inv InventoryStore, tracker *gift.Tracker, calc *Calculator) *Service {
	return &Service{Status: st, Gifts: gifts, Inventory: inv, Tracker: tracker, Calc: calc}
}

// Calculate produces the estate result for a user as of a date.
func (s *Service) Calculate(ctx context.Context, req CalcRequest) (*Result, error) {
	key := cacheKey(req)
	if cached, ok := s.cache.get(key); ok {
		return cached, nil
	}

	assets, err := s.Inventory.Assets(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	liabilities, err := s.Inventory.Liabilities(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	gifts, err := s.Gifts.Active(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	// Domicile scope from the status record in force at the as-of
	// date; a user with no history is treated as non-UK domiciled
	// (UK-situs exposure only).
	domicile := residency.NonUKDomiciled
	rec, err := s.Status.AtDate(ctx, req.UserID, req.AsOf)
	switch {
	case err == nil:
		domicile = rec.Domicile
	case errors.Is(err, status.ErrNoRecord):
	default:
		return nil, err
	}

	valuation, err := Aggregate(assets, liabilities, req.Rates)
	if err != nil {
		return nil, err
	}

	chargeable, err := s.Tracker.Allocate(gifts, req.Rates)
	if err != nil {
		return nil, err
	}

	in := CalculationInput{
		DeathDate:                  req.AsOf,
		Valuation:                  valuation,
		Domicile:                   domicile,
		TransferableNRBPercent:     req.Scenario.TransferableNRBPercent,
		ChargeableGifts:            chargeable,
		BusinessPropertyRelief:     orZero(req.Scenario.BusinessPropertyRelief),
		AgriculturalPropertyRelief: orZero(req.Scenario.AgriculturalPropertyRelief),
		OverlappingAssets:          orZero(req.Scenario.OverlappingAssets),
	}
	calc, err := s.Calc.Calculate(in)
	if err != nil {
		return nil, err
	}

	recs, err := s.Calc.Recommend(in, calc)
	if err != nil {
		return nil, err
	}

	result := &Result{
		UserID:           req.UserID,
		AsOf:             req.AsOf,
		Valuation:        valuation,
		UKInheritanceTax: calc,
		Recommendations:  recs,
	}

	totalTaxGBP := calc.NetTax.MustAdd(calc.TotalGiftTax)
	result.TotalDeathTaxes, err = dualCurrency(totalTaxGBP, req.Rates)
	if err != nil {
		return nil, err
	}
	afterTaxGBP := valuation.NetEstate.GBP.MustSub(totalTaxGBP)
	result.NetEstateAfterTax, err = dualCurrency(afterTaxGBP, req.Rates)
	if err != nil {
		return nil, err
	}

	s.cache.put(key, result)
	return result, nil
}

// Invalidate drops all cached results for a user. Call on any write to
// the user's assets, liabilities, gifts or tax status.
func (s *Service) Invalidate(userID string) {
	s.cache.invalidate(userID)
}

func orZero(m money.Money) money.Money {
	if m.Currency == "" {
		return money.Zero(money.GBP)
	}
	return m
}

func dualCurrency(gbp money.Money, rates *money.RateTable) (Totals, error) {
	zar, err := rates.Convert(gbp, money.ZAR)
	if err != nil {
		return Totals{}, err
	}
	return Totals{GBP: gbp, ZAR: zar}, nil
}

// =============================================================================
// RESULT CACHE
// =============================================================================

type resultCache struct {
	mu      sync.RWMutex
	entries map[string]*Result
	byUser  map[string][]string
}

func cacheKey(req CalcRequest) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		req.UserID,
		req.AsOf.Format("2006-01-02"),
		req.Scenario.TransferableNRBPercent,
		req.Scenario.BusinessPropertyRelief,
		req.Scenario.AgriculturalPropertyRelief,
		req.Scenario.OverlappingAssets,
	)
}

func (c *resultCache) get(key string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *resultCache) put(key string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*Result)
		c.byUser = make(map[string][]string)
	}
	c.entries[key] = r
	c.byUser[r.UserID] = append(c.byUser[r.UserID], key)
}

func (c *resultCache) invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.byUser[userID] {
		delete(c.entries, key)
	}
	delete(c.byUser, userID)
}
