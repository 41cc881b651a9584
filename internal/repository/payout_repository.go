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

const payoutColumns = `id, coach_id, gross_amount, tds_amount, net_amount, status, scheduled_for,
        paid_at, payment_method, payment_reference, created_at, updated_at`

// PayoutRepository handles persistence of coach payouts. It is the only
// writer of the payouts table.
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository constructs the repository.
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// List returns payouts filtered by the provided criteria.
func (r *PayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]models.Payout, int, error) {
	base := "FROM payouts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CoachID != "" {
		conditions = append(conditions, fmt.Sprintf("coach_id = $%d", len(args)+1))
		args = append(args, filter.CoachID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"scheduled_for": true,
		"created_at":    true,
		"gross_amount":  true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "scheduled_for"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", payoutColumns, base, sortBy, order, size, offset)
	var payouts []models.Payout
	if err := r.db.SelectContext(ctx, &payouts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payouts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payouts: %w", err)
	}
	return payouts, total, nil
}

// FindByIDs resolves a batch of payout IDs. Missing IDs are simply absent
// from the result; the caller decides whether that is an error.
func (r *PayoutRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Payout, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM payouts WHERE id IN (%s)", payoutColumns, strings.Join(placeholders, ","))
	var payouts []models.Payout
	if err := r.db.SelectContext(ctx, &payouts, query, args...); err != nil {
		return nil, fmt.Errorf("find payouts: %w", err)
	}
	return payouts, nil
}

// Create persists a new scheduled payout.
func (r *PayoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	if payout.ID == "" {
		payout.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payout.CreatedAt.IsZero() {
		payout.CreatedAt = now
	}
	payout.UpdatedAt = now
	if payout.Status == "" {
		payout.Status = models.PayoutStatusScheduled
	}
	const query = `INSERT INTO payouts (id, coach_id, gross_amount, tds_amount, net_amount, status, scheduled_for, paid_at, payment_method, payment_reference, created_at, updated_at)
        VALUES (:id, :coach_id, :gross_amount, :tds_amount, :net_amount, :status, :scheduled_for, :paid_at, :payment_method, :payment_reference, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payout); err != nil {
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

// MarkPaid transitions the batch to paid with a status-guarded UPDATE. The
// update runs in a transaction that only commits when every requested payout
// was matched: a payout concurrently taken out of scheduled/processing by
// another batch shrinks the affected count, the transaction rolls back and
// none of the batch is paid. The caller detects the overlap by comparing the
// returned count against the batch size.
func (r *PayoutRepository) MarkPaid(ctx context.Context, ids []string, paidAt time.Time, method, reference string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := []interface{}{paidAt, method, reference, models.PayoutStatusPaid, models.PayoutStatusScheduled, models.PayoutStatusProcessing}
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, id)
	}
	query := fmt.Sprintf(`UPDATE payouts
        SET status = $4, paid_at = $1, payment_method = $2, payment_reference = $3, updated_at = $1
        WHERE id IN (%s) AND status IN ($5, $6)`, strings.Join(placeholders, ","))
	affected, err := r.guardedBatchUpdate(ctx, query, args, int64(len(ids)))
	if err != nil {
		return 0, fmt.Errorf("mark payouts paid: %w", err)
	}
	return affected, nil
}

// Cancel transitions scheduled payouts to cancelled with the same
// all-or-nothing guarded UPDATE semantics as MarkPaid.
func (r *PayoutRepository) Cancel(ctx context.Context, ids []string, cancelledAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := []interface{}{cancelledAt, models.PayoutStatusCancelled, models.PayoutStatusScheduled}
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, id)
	}
	query := fmt.Sprintf(`UPDATE payouts SET status = $2, updated_at = $1 WHERE id IN (%s) AND status = $3`, strings.Join(placeholders, ","))
	affected, err := r.guardedBatchUpdate(ctx, query, args, int64(len(ids)))
	if err != nil {
		return 0, fmt.Errorf("cancel payouts: %w", err)
	}
	return affected, nil
}

// guardedBatchUpdate executes a status-guarded batch UPDATE and commits only
// when the affected count equals expected. On a partial match it rolls back
// and returns the count, so a concurrent overlap never leaves a subset of
// the batch in a terminal state.
func (r *PayoutRepository) guardedBatchUpdate(ctx context.Context, query string, args []interface{}, expected int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("affected rows: %w", err)
	}
	if affected != expected {
		if err := tx.Rollback(); err != nil {
			return 0, fmt.Errorf("rollback partial match: %w", err)
		}
		return affected, nil
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return affected, nil
}
