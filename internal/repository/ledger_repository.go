package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brightpath/coach-admin-api/internal/models"
)

// LedgerRepository handles persistence of withholding ledger entries.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InsertEntries writes the batch of withholding entries in one transaction
// and returns the generated IDs. IDs are assigned before any write so the
// caller can compensate without querying.
func (r *LedgerRepository) InsertEntries(ctx context.Context, entries []models.WithholdingEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger insert: %w", err)
	}
	now := time.Now().UTC()
	ids := make([]string, len(entries))
	const query = `INSERT INTO withholding_entries (id, payout_id, coach_id, amount, quarter, fiscal_year, deposited, deposited_at, created_at)
        VALUES (:id, :payout_id, :coach_id, :amount, :quarter, :fiscal_year, :deposited, :deposited_at, :created_at)`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		ids[i] = entries[i].ID
		if _, err := tx.NamedExecContext(ctx, query, entries[i]); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert withholding entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger insert: %w", err)
	}
	return ids, nil
}

// DeleteEntries removes ledger entries by ID. Used as the compensation step
// when a settlement fails after the ledger insert; deleting already-deleted
// IDs is a no-op, so the call is safe to repeat.
func (r *LedgerRepository) DeleteEntries(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM withholding_entries WHERE id IN (%s)", strings.Join(placeholders, ","))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete withholding entries: %w", err)
	}
	return nil
}

// ListByPeriod returns the entries for one fiscal quarter.
func (r *LedgerRepository) ListByPeriod(ctx context.Context, quarter, fiscalYear string) ([]models.WithholdingEntry, error) {
	const query = `SELECT id, payout_id, coach_id, amount, quarter, fiscal_year, deposited, deposited_at, created_at
        FROM withholding_entries WHERE quarter = $1 AND fiscal_year = $2 ORDER BY created_at`
	var entries []models.WithholdingEntry
	if err := r.db.SelectContext(ctx, &entries, query, quarter, fiscalYear); err != nil {
		return nil, fmt.Errorf("list withholding entries: %w", err)
	}
	return entries, nil
}

// Summary aggregates a fiscal quarter for compliance review.
func (r *LedgerRepository) Summary(ctx context.Context, quarter, fiscalYear string) (*models.WithholdingSummary, error) {
	const query = `SELECT
        COUNT(*) AS entry_count,
        COALESCE(SUM(amount), 0) AS total_amount,
        COUNT(*) FILTER (WHERE deposited) AS deposited_count,
        COALESCE(SUM(amount) FILTER (WHERE deposited), 0) AS deposited_amount
        FROM withholding_entries WHERE quarter = $1 AND fiscal_year = $2`
	var summary models.WithholdingSummary
	if err := r.db.GetContext(ctx, &summary, query, quarter, fiscalYear); err != nil {
		return nil, fmt.Errorf("summarise withholding entries: %w", err)
	}
	summary.Quarter = quarter
	summary.FiscalYear = fiscalYear
	return &summary, nil
}
