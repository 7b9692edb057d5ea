/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the persistence interfaces (status.Store, the gift ledger,
  the asset/liability inventory) using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  status.Store:          Temporal tax status history
  api.GiftLedger:        Append-only gift ledger with void bookkeeping
  api.Inventory:         Assets and liabilities with soft deletes

SUPERSESSION ENFORCEMENT:
  The tax_status table follows the same rules as the in-memory store:
  - Creating a record closes the prior open one at effectiveFrom - 1 day
  - An effectiveFrom inside a closed record's range is rejected with
    TemporalConflictError
  - Rewrite replaces the user's whole history inside one SQL transaction

AUDIT RETENTION:
  Gifts are never deleted: corrections void the old row and insert the
  replacement. Assets and liabilities are soft-deleted (deleted_at set),
  never removed.

KEY TABLES:
  tax_status:   Effective-dated residency/domicile records
  gifts:        Immutable lifetime transfers with void columns
  assets:       Estate assets with IHT scope flags
  liabilities:  Estate liabilities with deductibility flags

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/estate.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - status/store.go: Interface definition and in-memory implementation
  - gift/gift.go: Ledger semantics
  - estate/inventory.go: In-memory inventory
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/estate-engine/estate"
	"github.com/warp/estate-engine/gift"
	"github.com/warp/estate-engine/money"
	"github.com/warp/estate-engine/residency"
	"github.com/warp/estate-engine/status"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ status.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Effective-dated tax status records (partition of time per user)
	CREATE TABLE IF NOT EXISTS tax_status (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		uk_tax_resident BOOLEAN NOT NULL DEFAULT FALSE,
		sa_tax_resident BOOLEAN NOT NULL DEFAULT FALSE,
		uk_residence_basis TEXT,
		split_year_treatment BOOLEAN NOT NULL DEFAULT FALSE,
		sa_ordinarily_resident BOOLEAN NOT NULL DEFAULT FALSE,
		dta_tie_breaker TEXT,
		domicile TEXT NOT NULL,
		domicile_of_origin TEXT,
		uk_deemed_domicile BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_status_user
		ON tax_status(user_id, effective_from);
	-- At most one open record per user
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tax_status_open
		ON tax_status(user_id) WHERE effective_to IS NULL;

	-- Gifts (append-only; corrections void, never delete)
	CREATE TABLE IF NOT EXISTS gifts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		gift_date TEXT NOT NULL,
		value_amount TEXT NOT NULL,
		value_currency TEXT NOT NULL,
		exemption_type TEXT NOT NULL,
		recipient_relationship TEXT,
		voided_at TEXT,
		void_reason TEXT,
		superseded_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gifts_user
		ON gifts(user_id, gift_date);

	-- Assets (soft-deleted only)
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		description TEXT,
		asset_type TEXT NOT NULL,
		value_amount TEXT NOT NULL,
		value_currency TEXT NOT NULL,
		uk_iht_applicable BOOLEAN NOT NULL DEFAULT TRUE,
		qualifying_residence BOOLEAN NOT NULL DEFAULT FALSE,
		passes_to_descendants BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_user
		ON assets(user_id);

	-- Liabilities (soft-deleted only)
	CREATE TABLE IF NOT EXISTS liabilities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		description TEXT,
		liability_type TEXT NOT NULL,
		balance_amount TEXT NOT NULL,
		balance_currency TEXT NOT NULL,
		uk_iht_deductible BOOLEAN NOT NULL DEFAULT TRUE,
		connected_person BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_liabilities_user
		ON liabilities(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TAX STATUS (status.Store interface)
// =============================================================================

const dateFormat = "2006-01-02"

// Create appends a new current record, closing the prior open one. The
// supersession rules match the in-memory store exactly.
func (s *Store) Create(ctx context.Context, rec status.Record) (status.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return status.Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	history, err := s.loadHistory(ctx, tx, rec.UserID)
	if err != nil {
		return status.Record{}, err
	}
	for _, existing := range history {
		if existing.EffectiveTo != nil && existing.Contains(rec.EffectiveFrom) {
			return status.Record{}, &status.TemporalConflictError{
				UserID:        rec.UserID,
				EffectiveFrom: rec.EffectiveFrom,
				Reason:        "effectiveFrom falls inside closed record " + existing.ID,
			}
		}
		if existing.EffectiveTo == nil && !rec.EffectiveFrom.After(existing.EffectiveFrom) {
			return status.Record{}, &status.TemporalConflictError{
				UserID:        rec.UserID,
				EffectiveFrom: rec.EffectiveFrom,
				Reason:        "effectiveFrom not after current open record",
			}
		}
	}

	// Close the prior open record at the day before the new start.
	closeAt := rec.EffectiveFrom.AddDate(0, 0, -1).Format(dateFormat)
	if _, err := tx.ExecContext(ctx,
		`UPDATE tax_status SET effective_to = ? WHERE user_id = ? AND effective_to IS NULL`,
		closeAt, rec.UserID,
	); err != nil {
		return status.Record{}, fmt.Errorf("failed to close open record: %w", err)
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.EffectiveTo = nil
	rec.CreatedAt = time.Now().UTC()
	if err := s.insertStatus(ctx, tx, rec); err != nil {
		return status.Record{}, err
	}

	if err := tx.Commit(); err != nil {
		return status.Record{}, fmt.Errorf("failed to commit: %w", err)
	}
	return rec, nil
}

func (s *Store) insertStatus(ctx context.Context, tx *sql.Tx, rec status.Record) error {
	var effectiveTo any
	if rec.EffectiveTo != nil {
		effectiveTo = rec.EffectiveTo.Format(dateFormat)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO tax_status
		(id, user_id, effective_from, effective_to, uk_tax_resident, sa_tax_resident,
		 uk_residence_basis, split_year_treatment, sa_ordinarily_resident,
		 dta_tie_breaker, domicile, domicile_of_origin, uk_deemed_domicile, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.EffectiveFrom.Format(dateFormat),
		effectiveTo,
		rec.UKTaxResident,
		rec.SATaxResident,
		string(rec.UKResidenceBasis),
		rec.SplitYearTreatment,
		rec.SAOrdinarilyResident,
		string(rec.DTATieBreaker),
		string(rec.Domicile),
		rec.DomicileOfOrigin,
		rec.UKDeemedDomicile,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert status record: %w", err)
	}
	return nil
}

// AtDate returns the record whose range contains the date.
func (s *Store) AtDate(ctx context.Context, userID string, date time.Time) (status.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := date.Format(dateFormat)
	row := s.db.QueryRowContext(ctx, statusSelect+`
		WHERE user_id = ? AND effective_from <= ?
		  AND (effective_to IS NULL OR effective_to >= ?)
		LIMIT 1`, userID, d, d)
	return scanStatusRow(row)
}

// Current returns the open record.
func (s *Store) Current(ctx context.Context, userID string) (status.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, statusSelect+`
		WHERE user_id = ? AND effective_to IS NULL`, userID)
	return scanStatusRow(row)
}

// History returns all records oldest first.
func (s *Store) History(ctx context.Context, userID string) ([]status.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadHistory(ctx, s.db, userID)
}

// Rewrite replaces the user's entire history inside one transaction.
func (s *Store) Rewrite(ctx context.Context, userID string, records []status.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]status.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})
	if err := status.ValidatePartition(userID, sorted); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tax_status WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	for _, rec := range sorted {
		rec.UserID = userID
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		if err := s.insertStatus(ctx, tx, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const statusSelect = `
	SELECT id, user_id, effective_from, effective_to, uk_tax_resident, sa_tax_resident,
	       uk_residence_basis, split_year_treatment, sa_ordinarily_resident,
	       dta_tie_breaker, domicile, domicile_of_origin, uk_deemed_domicile, created_at
	FROM tax_status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatusRow(row rowScanner) (status.Record, error) {
	var (
		rec           status.Record
		effectiveFrom string
		effectiveTo   sql.NullString
		basis         sql.NullString
		tieBreaker    sql.NullString
		domicile      string
		origin        sql.NullString
		createdAt     string
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &effectiveFrom, &effectiveTo,
		&rec.UKTaxResident, &rec.SATaxResident,
		&basis, &rec.SplitYearTreatment, &rec.SAOrdinarilyResident,
		&tieBreaker, &domicile, &origin, &rec.UKDeemedDomicile, &createdAt,
	)
	if err == sql.ErrNoRows {
		return status.Record{}, status.ErrNoRecord
	}
	if err != nil {
		return status.Record{}, fmt.Errorf("failed to scan status record: %w", err)
	}

	rec.EffectiveFrom, _ = time.Parse(dateFormat, effectiveFrom)
	if effectiveTo.Valid {
		t, _ := time.Parse(dateFormat, effectiveTo.String)
		rec.EffectiveTo = &t
	}
	rec.UKResidenceBasis = status.Basis(basis.String)
	rec.DTATieBreaker = residency.TieBreakResult(tieBreaker.String)
	rec.Domicile = residency.Domicile(domicile)
	rec.DomicileOfOrigin = origin.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rec, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) loadHistory(ctx context.Context, db querier, userID string) ([]status.Record, error) {
	rows, err := db.QueryContext(ctx, statusSelect+`
		WHERE user_id = ? ORDER BY effective_from ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var records []status.Record
	for rows.Next() {
		rec, err := scanStatusRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// GIFTS (api.GiftLedger interface)
// =============================================================================

// Record appends a new gift.
func (s *Store) Record(ctx context.Context, g gift.Gift) (gift.Gift, error) {
	if g.Value.IsNegative() {
		return gift.Gift{}, fmt.Errorf("gift value must not be negative: %s", g.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	if err := s.insertGift(ctx, s.db, g); err != nil {
		return gift.Gift{}, err
	}
	return g, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertGift(ctx context.Context, db execer, g gift.Gift) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO gifts
		(id, user_id, gift_date, value_amount, value_currency, exemption_type,
		 recipient_relationship, voided_at, void_reason, superseded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
		g.ID,
		g.UserID,
		g.Date.Format(dateFormat),
		g.Value.Amount.String(),
		string(g.Value.Currency),
		string(g.ExemptionType),
		g.RecipientRelationship,
		g.VoidReason,
		g.SupersededBy,
		g.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert gift: %w", err)
	}
	return nil
}

// Correct voids an existing gift and records its replacement in one
// SQL transaction. This is the ONLY way to change a gift.
func (s *Store) Correct(ctx context.Context, userID, giftID, reason string, replacement gift.Gift) (gift.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return gift.Gift{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var voidedAt sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT voided_at FROM gifts WHERE id = ? AND user_id = ?`, giftID, userID,
	).Scan(&voidedAt)
	if err == sql.ErrNoRows {
		return gift.Gift{}, fmt.Errorf("%w: %s", gift.ErrGiftNotFound, giftID)
	}
	if err != nil {
		return gift.Gift{}, fmt.Errorf("failed to load gift: %w", err)
	}
	if voidedAt.Valid {
		return gift.Gift{}, fmt.Errorf("%w: %s", gift.ErrGiftVoided, giftID)
	}

	replacement.UserID = userID
	if replacement.ID == "" {
		replacement.ID = uuid.NewString()
	}
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = time.Now().UTC()
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`UPDATE gifts SET voided_at = ?, void_reason = ?, superseded_by = ? WHERE id = ?`,
		now, reason, replacement.ID, giftID,
	); err != nil {
		return gift.Gift{}, fmt.Errorf("failed to void gift: %w", err)
	}
	if err := s.insertGift(ctx, tx, replacement); err != nil {
		return gift.Gift{}, err
	}

	if err := tx.Commit(); err != nil {
		return gift.Gift{}, fmt.Errorf("failed to commit: %w", err)
	}
	return replacement, nil
}

// Active returns the user's unvoided gifts, oldest gift date first.
func (s *Store) Active(ctx context.Context, userID string) ([]gift.Gift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryGifts(ctx, giftSelect+`
		WHERE user_id = ? AND voided_at IS NULL ORDER BY gift_date ASC`, userID)
}

// All returns every gift including voided ones, for audit views.
func (s *Store) All(ctx context.Context, userID string) ([]gift.Gift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryGifts(ctx, giftSelect+`
		WHERE user_id = ? ORDER BY created_at ASC`, userID)
}

const giftSelect = `
	SELECT id, user_id, gift_date, value_amount, value_currency, exemption_type,
	       recipient_relationship, voided_at, void_reason, superseded_by, created_at
	FROM gifts`

func (s *Store) queryGifts(ctx context.Context, query string, args ...any) ([]gift.Gift, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gifts: %w", err)
	}
	defer rows.Close()

	var gifts []gift.Gift
	for rows.Next() {
		var (
			g            gift.Gift
			giftDate     string
			amount       string
			currency     string
			relationship sql.NullString
			voidedAt     sql.NullString
			voidReason   sql.NullString
			supersededBy sql.NullString
			createdAt    string
		)
		if err := rows.Scan(
			&g.ID, &g.UserID, &giftDate, &amount, &currency, &g.ExemptionType,
			&relationship, &voidedAt, &voidReason, &supersededBy, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan gift: %w", err)
		}

		g.Date, _ = time.Parse(dateFormat, giftDate)
		value, err := money.Parse(amount, money.Currency(currency))
		if err != nil {
			return nil, fmt.Errorf("corrupt gift amount for %s: %w", g.ID, err)
		}
		g.Value = value
		g.RecipientRelationship = relationship.String
		if voidedAt.Valid {
			t, _ := time.Parse(time.RFC3339, voidedAt.String)
			g.VoidedAt = &t
		}
		g.VoidReason = voidReason.String
		g.SupersededBy = supersededBy.String
		g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		gifts = append(gifts, g)
	}
	return gifts, rows.Err()
}

// =============================================================================
// ASSETS / LIABILITIES (api.Inventory interface)
// =============================================================================

// AddAsset inserts a new asset.
func (s *Store) AddAsset(ctx context.Context, a estate.Asset) (estate.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets
		(id, user_id, description, asset_type, value_amount, value_currency,
		 uk_iht_applicable, qualifying_residence, passes_to_descendants, deleted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		a.ID, a.UserID, a.Description, string(a.Type),
		a.CurrentValue.Amount.String(), string(a.CurrentValue.Currency),
		a.UKIHTApplicable, a.QualifyingResidence, a.PassesToDirectDescendants,
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return estate.Asset{}, fmt.Errorf("failed to insert asset: %w", err)
	}
	return a, nil
}

// AddLiability inserts a new liability.
func (s *Store) AddLiability(ctx context.Context, l estate.Liability) (estate.Liability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO liabilities
		(id, user_id, description, liability_type, balance_amount, balance_currency,
		 uk_iht_deductible, connected_person, deleted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		l.ID, l.UserID, l.Description, string(l.Type),
		l.OutstandingBalance.Amount.String(), string(l.OutstandingBalance.Currency),
		l.UKIHTDeductible, l.ConnectedPerson,
		l.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return estate.Liability{}, fmt.Errorf("failed to insert liability: %w", err)
	}
	return l, nil
}

// DeleteAsset soft-deletes; the row remains for audit.
func (s *Store) DeleteAsset(ctx context.Context, userID, assetID string) error {
	return s.softDelete(ctx, "assets", userID, assetID)
}

// DeleteLiability soft-deletes; the row remains for audit.
func (s *Store) DeleteLiability(ctx context.Context, userID, liabilityID string) error {
	return s.softDelete(ctx, "liabilities", userID, liabilityID)
}

func (s *Store) softDelete(ctx context.Context, table, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET deleted_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s record %s not found", table, id)
	}
	return nil
}

// Assets returns all assets including soft-deleted ones; the aggregator
// filters.
func (s *Store) Assets(ctx context.Context, userID string) ([]estate.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, asset_type, value_amount, value_currency,
		       uk_iht_applicable, qualifying_residence, passes_to_descendants,
		       deleted_at, created_at
		FROM assets WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []estate.Asset
	for rows.Next() {
		var (
			a           estate.Asset
			description sql.NullString
			amount      string
			currency    string
			deletedAt   sql.NullString
			createdAt   string
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &description, &a.Type, &amount, &currency,
			&a.UKIHTApplicable, &a.QualifyingResidence, &a.PassesToDirectDescendants,
			&deletedAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}

		a.Description = description.String
		value, err := money.Parse(amount, money.Currency(currency))
		if err != nil {
			return nil, fmt.Errorf("corrupt asset value for %s: %w", a.ID, err)
		}
		a.CurrentValue = value
		if deletedAt.Valid {
			t, _ := time.Parse(time.RFC3339, deletedAt.String)
			a.DeletedAt = &t
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Liabilities returns all liabilities including soft-deleted ones.
func (s *Store) Liabilities(ctx context.Context, userID string) ([]estate.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, description, liability_type, balance_amount, balance_currency,
		       uk_iht_deductible, connected_person, deleted_at, created_at
		FROM liabilities WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []estate.Liability
	for rows.Next() {
		var (
			l           estate.Liability
			description sql.NullString
			amount      string
			currency    string
			deletedAt   sql.NullString
			createdAt   string
		)
		if err := rows.Scan(
			&l.ID, &l.UserID, &description, &l.Type, &amount, &currency,
			&l.UKIHTDeductible, &l.ConnectedPerson, &deletedAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan liability: %w", err)
		}

		l.Description = description.String
		balance, err := money.Parse(amount, money.Currency(currency))
		if err != nil {
			return nil, fmt.Errorf("corrupt liability balance for %s: %w", l.ID, err)
		}
		l.OutstandingBalance = balance
		if deletedAt.Valid {
			t, _ := time.Parse(time.RFC3339, deletedAt.String)
			l.DeletedAt = &t
		}
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		liabilities = append(liabilities, l)
	}
	return liabilities, rows.Err()
}
