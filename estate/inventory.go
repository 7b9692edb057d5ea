/*
inventory.go - In-memory asset/liability inventory

PURPOSE:
  The in-memory InventoryStore implementation used in tests and
  development. The SQLite store provides the persistent counterpart.
  Deletes are soft: the record stays for audit and is excluded from
  valuation.
*/
package estate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryInventory struct {
	mu          sync.RWMutex
	assets      map[string][]Asset
	liabilities map[string][]Liability
}

func NewMemoryInventory() *MemoryInventory {
	return &MemoryInventory{
		assets:      make(map[string][]Asset),
		liabilities: make(map[string][]Liability),
	}
}

var _ InventoryStore = (*MemoryInventory)(nil)

func (m *MemoryInventory) AddAsset(_ context.Context, a Asset) (Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.assets[a.UserID] = append(m.assets[a.UserID], a)
	return a, nil
}

func (m *MemoryInventory) AddLiability(_ context.Context, l Liability) (Liability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.liabilities[l.UserID] = append(m.liabilities[l.UserID], l)
	return l, nil
}

// DeleteAsset soft-deletes; the record remains for audit.
func (m *MemoryInventory) DeleteAsset(_ context.Context, userID, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.assets[userID] {
		if m.assets[userID][i].ID == assetID {
			now := time.Now().UTC()
			m.assets[userID][i].DeletedAt = &now
			return nil
		}
	}
	return fmt.Errorf("asset %s not found", assetID)
}

// DeleteLiability soft-deletes; the record remains for audit.
func (m *MemoryInventory) DeleteLiability(_ context.Context, userID, liabilityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.liabilities[userID] {
		if m.liabilities[userID][i].ID == liabilityID {
			now := time.Now().UTC()
			m.liabilities[userID][i].DeletedAt = &now
			return nil
		}
	}
	return fmt.Errorf("liability %s not found", liabilityID)
}

// Assets returns all assets including soft-deleted ones; the
// aggregator filters.
func (m *MemoryInventory) Assets(_ context.Context, userID string) ([]Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Asset, len(m.assets[userID]))
	copy(out, m.assets[userID])
	return out, nil
}

// Liabilities returns all liabilities including soft-deleted ones.
func (m *MemoryInventory) Liabilities(_ context.Context, userID string) ([]Liability, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Liability, len(m.liabilities[userID]))
	copy(out, m.liabilities[userID])
	return out, nil
}
