/*
Package gift tracks lifetime transfers against the 7-year IHT window.

PURPOSE:
  Records gifts immutably, allocates the yearly exemptions (annual,
  small gift, normal expenditure), and supplies the taper-relief
  schedule and the oldest-first chargeable list that the IHT
  calculator consumes against the nil-rate band.

KEY CONCEPTS IN THIS FILE (gift.go):
  - Gift: an immutable lifetime transfer. Corrections are void +
    recreate, never an edit - the audit trail keeps both.
  - Ledger: append-only per-user gift store.
  - Tracker.Allocate: applies exemptions per UK tax year, including
    the one-year carry-forward of unused annual exemption (current
    year's exemption is consumed before the brought-forward amount;
    two-year-old surplus lapses).

SEE ALSO:
  - taper.go: taper-relief band schedule and the 7-year window
*/
package gift

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/taxyear"
)

// =============================================================================
// GIFT
// =============================================================================

type ExemptionType string

const (
	AnnualExempt      ExemptionType = "ANNUAL_EXEMPT"
	SmallGift         ExemptionType = "SMALL_GIFT"
	NormalExpenditure ExemptionType = "NORMAL_EXPENDITURE"
	PotentiallyExempt ExemptionType = "POTENTIALLY_EXEMPT"
	Chargeable        ExemptionType = "CHARGEABLE"
)

// Gift is a lifetime transfer. Created once, immutable; superseded by a
// correction (new record + void of the old), never silently edited.
type Gift struct {
	ID                    string
	UserID                string
	Date                  time.Time
	Value                 money.Money
	ExemptionType         ExemptionType
	RecipientRelationship string

	// Void bookkeeping. A voided gift stays in the ledger.
	VoidedAt     *time.Time
	VoidReason   string
	SupersededBy string // ID of the correcting gift

	CreatedAt time.Time
}

// Voided reports whether this gift has been superseded.
func (g Gift) Voided() bool { return g.VoidedAt != nil }

// =============================================================================
// LEDGER - Append-only per-user gift store
// =============================================================================

var (
	ErrGiftNotFound = errors.New("gift not found")
	ErrGiftVoided   = errors.New("gift already voided")
)

type Ledger struct {
	mu    sync.RWMutex
	gifts map[string][]Gift // per user, append order
}

func NewLedger() *Ledger {
	return &Ledger{gifts: make(map[string][]Gift)}
}

// Record appends a new gift. The stored copy gets an ID and creation
// timestamp if missing.
func (l *Ledger) Record(_ context.Context, g Gift) (Gift, error) {
	if g.Value.IsNegative() {
		return Gift{}, fmt.Errorf("gift value must not be negative: %s", g.Value)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	l.gifts[g.UserID] = append(l.gifts[g.UserID], g)
	return g, nil
}

// Correct voids an existing gift and records its replacement in one
// step. This is the ONLY way to change a gift.
func (l *Ledger) Correct(ctx context.Context, userID, giftID, reason string, replacement Gift) (Gift, error) {
	l.mu.Lock()
	history := l.gifts[userID]
	idx := -1
	for i := range history {
		if history[i].ID == giftID {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return Gift{}, fmt.Errorf("%w: %s", ErrGiftNotFound, giftID)
	}
	if history[idx].Voided() {
		l.mu.Unlock()
		return Gift{}, fmt.Errorf("%w: %s", ErrGiftVoided, giftID)
	}

	replacement.UserID = userID
	if replacement.ID == "" {
		replacement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	history[idx].VoidedAt = &now
	history[idx].VoidReason = reason
	history[idx].SupersededBy = replacement.ID
	l.mu.Unlock()

	return l.Record(ctx, replacement)
}

// Active returns the user's unvoided gifts, oldest gift date first.
func (l *Ledger) Active(_ context.Context, userID string) ([]Gift, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Gift
	for _, g := range l.gifts[userID] {
		if !g.Voided() {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// All returns every gift including voided ones, for audit views.
func (l *Ledger) All(_ context.Context, userID string) ([]Gift, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Gift, len(l.gifts[userID]))
	copy(out, l.gifts[userID])
	return out, nil
}

// =============================================================================
// EXEMPTION ALLOCATION
// =============================================================================

// ChargeableGift is a gift with its exemption-adjusted chargeable value
// in GBP.
type ChargeableGift struct {
	Gift
	ChargeableValue money.Money // GBP
	ExemptionUsed   money.Money // GBP
}

// Tracker performs exemption allocation and window queries against the
// year-scoped constants table.
type Tracker struct {
	Table *taxyear.Table
}

func NewTracker(table *taxyear.Table) *Tracker {
	return &Tracker{Table: table}
}

// Allocate converts gifts to GBP and applies exemptions per UK tax
// year, chronologically:
//   - NORMAL_EXPENDITURE: fully exempt.
//   - SMALL_GIFT: exempt up to the small-gift limit; an over-limit
//     gift loses the exemption entirely and is chargeable in full.
//   - ANNUAL_EXEMPT: consumes the year's annual exemption, then any
//     amount carried forward from the single prior year; the excess is
//     chargeable (a PET in substance).
//   - POTENTIALLY_EXEMPT / CHARGEABLE: chargeable in full.
//
// The returned slice preserves chronological order and includes only
// gifts with a non-zero chargeable value.
func (t *Tracker) Allocate(gifts []Gift, rates *money.RateTable) ([]ChargeableGift, error) {
	ordered := make([]Gift, len(gifts))
	copy(ordered, gifts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	// Remaining annual exemption per tax year, created lazily.
	remaining := make(map[taxyear.UKYear]money.Money)
	yearExemption := func(y taxyear.UKYear) (money.Money, error) {
		if v, ok := remaining[y]; ok {
			return v, nil
		}
		c, err := t.Table.UK(y)
		if err != nil {
			return money.Money{}, err
		}
		remaining[y] = c.AnnualExemption
		return c.AnnualExemption, nil
	}

	var out []ChargeableGift
	for _, g := range ordered {
		value, err := rates.Convert(g.Value, money.GBP)
		if err != nil {
			return nil, err
		}
		year := taxyear.UKYearOf(g.Date)

		switch g.ExemptionType {
		case NormalExpenditure:
			continue

		case SmallGift:
			c, err := t.Table.UK(year)
			if err != nil {
				return nil, err
			}
			if !value.GreaterThan(c.SmallGiftLimit) {
				continue
			}
			// Over the limit the exemption fails entirely.
			out = append(out, ChargeableGift{Gift: g, ChargeableValue: value, ExemptionUsed: money.Zero(money.GBP)})

		case AnnualExempt:
			chargeable, used, err := t.consumeAnnualExemption(value, year, remaining, yearExemption)
			if err != nil {
				return nil, err
			}
			if chargeable.IsPositive() {
				out = append(out, ChargeableGift{Gift: g, ChargeableValue: chargeable, ExemptionUsed: used})
			}

		case PotentiallyExempt, Chargeable:
			if value.IsPositive() {
				out = append(out, ChargeableGift{Gift: g, ChargeableValue: value, ExemptionUsed: money.Zero(money.GBP)})
			}

		default:
			return nil, fmt.Errorf("unknown exemption type %q on gift %s", g.ExemptionType, g.ID)
		}
	}
	return out, nil
}

// consumeAnnualExemption draws the gift value down against the current
// year's exemption first, then the single prior year's unused amount.
func (t *Tracker) consumeAnnualExemption(
	value money.Money,
	year taxyear.UKYear,
	remaining map[taxyear.UKYear]money.Money,
	yearExemption func(taxyear.UKYear) (money.Money, error),
) (chargeable, used money.Money, err error) {
	used = money.Zero(money.GBP)
	left := value

	for _, y := range []taxyear.UKYear{year, year - 1} {
		avail, err := yearExemption(y)
		if err != nil {
			return money.Money{}, money.Money{}, err
		}
		draw, err := left.Min(avail)
		if err != nil {
			return money.Money{}, money.Money{}, err
		}
		remaining[y] = avail.MustSub(draw)
		used = used.MustAdd(draw)
		left = left.MustSub(draw)
		if left.IsZero() {
			break
		}
	}
	return left, used, nil
}
