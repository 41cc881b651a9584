package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/brightpath/coach-admin-api/internal/models"
	"github.com/brightpath/coach-admin-api/pkg/config"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
	"github.com/brightpath/coach-admin-api/pkg/fiscal"
)

type payoutRepository interface {
	List(ctx context.Context, filter models.PayoutFilter) ([]models.Payout, int, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Payout, error)
	Create(ctx context.Context, payout *models.Payout) error
	MarkPaid(ctx context.Context, ids []string, paidAt time.Time, method, reference string) (int64, error)
	Cancel(ctx context.Context, ids []string, cancelledAt time.Time) (int64, error)
}

type ledgerRepository interface {
	InsertEntries(ctx context.Context, entries []models.WithholdingEntry) ([]string, error)
	DeleteEntries(ctx context.Context, ids []string) error
}

type settlementMetricsRecorder interface {
	RecordSettlement(action string, count int, totalAmount int64)
	RecordLedgerCompensation()
}

// ProcessBatchRequest describes a settlement batch.
type ProcessBatchRequest struct {
	PayoutIDs        []string                `json:"payout_ids" validate:"required,min=1"`
	Action           models.SettlementAction `json:"action" validate:"required"`
	PaymentMethod    string                  `json:"payment_method"`
	PaymentReference string                  `json:"payment_reference"`
	IP               string                  `json:"-"`
	UserAgent        string                  `json:"-"`
}

// SettlementResult summarises an applied batch.
type SettlementResult struct {
	UpdatedCount         int   `json:"updated_count"`
	TotalAmount          int64 `json:"total_amount"`
	LedgerEntriesCreated int   `json:"ledger_entries_created"`
}

// SchedulePayoutRequest creates a scheduled payout from a gross amount; the
// withholding and net amounts are derived here, nowhere else.
type SchedulePayoutRequest struct {
	CoachID      string    `json:"coach_id" validate:"required"`
	GrossAmount  int64     `json:"gross_amount" validate:"required,gt=0"`
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
	IP           string    `json:"-"`
	UserAgent    string    `json:"-"`
}

// SettlementService moves payouts between states and keeps the withholding
// ledger consistent with them. It is the only writer of the payouts and
// withholding tables.
type SettlementService struct {
	payouts   payoutRepository
	ledger    ledgerRepository
	audit     auditWriter
	metrics   settlementMetricsRecorder
	cfg       config.SettlementConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettlementService constructs SettlementService.
func NewSettlementService(payouts payoutRepository, ledger ledgerRepository, audit auditWriter, metrics settlementMetricsRecorder, cfg config.SettlementConfig, validate *validator.Validate, logger *zap.Logger) *SettlementService {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 50
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{payouts: payouts, ledger: ledger, audit: audit, metrics: metrics, cfg: cfg, validator: validate, logger: logger, now: time.Now}
}

// WithholdingFor applies the configured TDS rate to a gross amount in paise,
// rounding half up to the nearest paisa.
func (s *SettlementService) WithholdingFor(gross int64) int64 {
	return (gross*int64(s.cfg.TDSRateBps) + 5000) / 10000
}

// SchedulePayout creates a payout in scheduled state with derived amounts.
func (s *SettlementService) SchedulePayout(ctx context.Context, actor string, req SchedulePayoutRequest) (*models.Payout, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payout payload")
	}

	withholding := s.WithholdingFor(req.GrossAmount)
	payout := &models.Payout{
		CoachID:      req.CoachID,
		GrossAmount:  req.GrossAmount,
		TDSAmount:    withholding,
		NetAmount:    req.GrossAmount - withholding,
		Status:       models.PayoutStatusScheduled,
		ScheduledFor: req.ScheduledFor,
	}
	if err := s.payouts.Create(ctx, payout); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create payout")
	}

	s.writeAudit(ctx, actor, models.AuditActionPayoutSchedule, []string{payout.ID}, map[string]interface{}{
		"gross": payout.GrossAmount, "tds": payout.TDSAmount, "net": payout.NetAmount,
	}, req.IP, req.UserAgent)

	return payout, nil
}

// List returns payouts with pagination metadata.
func (s *SettlementService) List(ctx context.Context, filter models.PayoutFilter) ([]models.Payout, *models.Pagination, error) {
	payouts, total, err := s.payouts.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payouts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return payouts, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ProcessBatch applies a terminal settlement action to a payout batch.
// Preconditions are validated against every member before any write, so a
// bad ID or status fails the whole batch with no partial effect.
func (s *SettlementService) ProcessBatch(ctx context.Context, actor string, req ProcessBatchRequest) (*SettlementResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settlement payload")
	}
	if req.Action != models.SettlementActionMarkPaid && req.Action != models.SettlementActionCancel {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown settlement action")
	}

	ids := dedupe(req.PayoutIDs)
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payout batch is empty")
	}
	if len(ids) > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payout batch exceeds maximum size")
	}

	payouts, err := s.payouts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve payout batch")
	}

	resolved := make(map[string]models.Payout, len(payouts))
	for _, p := range payouts {
		resolved[p.ID] = p
	}
	var missing []string
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.InvalidState("batch contains unknown payout ids", missing)
	}

	var offending []string
	for _, id := range ids {
		if !processable(resolved[id].Status, req.Action) {
			offending = append(offending, id)
		}
	}
	if len(offending) > 0 {
		return nil, appErrors.InvalidState("batch contains payouts not in a processable status", offending)
	}

	switch req.Action {
	case models.SettlementActionMarkPaid:
		return s.markPaid(ctx, actor, ids, resolved, req)
	default:
		return s.cancel(ctx, actor, ids, resolved, req)
	}
}

// markPaid runs the two-phase settlement write. The ledger insert goes
// first: an orphan withholding row pointing at a still-scheduled payout is a
// reconcilable nuisance, while a paid payout with no withholding row is a
// silent compliance gap. When the status update fails the inserted entries
// are deleted again and the original error is surfaced.
func (s *SettlementService) markPaid(ctx context.Context, actor string, ids []string, resolved map[string]models.Payout, req ProcessBatchRequest) (*SettlementResult, error) {
	now := s.now().UTC()
	period := fiscal.PeriodOf(now)

	var totalNet int64
	var mismatched []string
	entries := make([]models.WithholdingEntry, 0, len(ids))
	for _, id := range ids {
		p := resolved[id]
		if p.GrossAmount-p.TDSAmount != p.NetAmount {
			mismatched = append(mismatched, id)
			continue
		}
		totalNet += p.NetAmount
		if p.TDSAmount > 0 {
			entries = append(entries, models.WithholdingEntry{
				PayoutID:   p.ID,
				CoachID:    p.CoachID,
				Amount:     p.TDSAmount,
				Quarter:    period.Quarter,
				FiscalYear: period.Year,
				Deposited:  false,
			})
		}
	}
	if len(mismatched) > 0 {
		appErr := appErrors.Clone(appErrors.ErrValidation, "payout amounts violate gross - withholding = net")
		appErr.Details = map[string]interface{}{"offending_ids": mismatched}
		return nil, appErr
	}

	entryIDs, err := s.ledger.InsertEntries(ctx, entries)
	if err != nil {
		// Phase 1 failed before anything was written; no compensation needed.
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to write withholding ledger")
	}

	affected, err := s.payouts.MarkPaid(ctx, ids, now, req.PaymentMethod, req.PaymentReference)
	if err != nil {
		s.compensate(ctx, entryIDs)
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to mark payouts paid")
	}
	if affected != int64(len(ids)) {
		// A concurrent batch moved part of this one out of scheduled or
		// processing between validation and the guarded update. The
		// repository rolled the whole update back, so no payout in this
		// batch is paid and the phase-1 entries are all orphans.
		s.compensate(ctx, entryIDs)
		return nil, appErrors.InvalidState("payout batch changed concurrently, no payouts were settled", ids)
	}

	if s.metrics != nil {
		s.metrics.RecordSettlement(string(models.SettlementActionMarkPaid), len(ids), totalNet)
	}
	s.writeAudit(ctx, actor, models.AuditActionSettlementPaid, ids, map[string]interface{}{
		"total_net": totalNet, "ledger_entries": len(entryIDs), "payment_method": req.PaymentMethod, "payment_reference": req.PaymentReference,
	}, req.IP, req.UserAgent)

	return &SettlementResult{UpdatedCount: len(ids), TotalAmount: totalNet, LedgerEntriesCreated: len(entryIDs)}, nil
}

func (s *SettlementService) cancel(ctx context.Context, actor string, ids []string, resolved map[string]models.Payout, req ProcessBatchRequest) (*SettlementResult, error) {
	now := s.now().UTC()
	affected, err := s.payouts.Cancel(ctx, ids, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to cancel payouts")
	}
	if affected != int64(len(ids)) {
		return nil, appErrors.InvalidState("payout batch changed concurrently, no payouts were cancelled", ids)
	}

	var totalNet int64
	for _, id := range ids {
		totalNet += resolved[id].NetAmount
	}

	if s.metrics != nil {
		s.metrics.RecordSettlement(string(models.SettlementActionCancel), len(ids), totalNet)
	}
	s.writeAudit(ctx, actor, models.AuditActionSettlementCancel, ids, map[string]interface{}{"total_net": totalNet}, req.IP, req.UserAgent)

	return &SettlementResult{UpdatedCount: len(ids), TotalAmount: totalNet}, nil
}

// compensate deletes the ledger entries written in phase 1. The delete is
// keyed on the IDs generated before the insert, so repeating it is safe.
func (s *SettlementService) compensate(ctx context.Context, entryIDs []string) {
	if len(entryIDs) == 0 {
		return
	}
	if s.metrics != nil {
		s.metrics.RecordLedgerCompensation()
	}
	if err := s.ledger.DeleteEntries(ctx, entryIDs); err != nil {
		// Orphan ledger rows referencing unpaid payouts; flag loudly for
		// manual reconciliation.
		s.logger.Error("ledger compensation failed", zap.Strings("entry_ids", entryIDs), zap.Error(err))
		return
	}
	s.logger.Warn("settlement compensated, ledger entries rolled back", zap.Int("entries", len(entryIDs)))
}

func (s *SettlementService) writeAudit(ctx context.Context, actor, action string, targetIDs []string, amounts map[string]interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	ids, _ := json.Marshal(targetIDs)
	payload, _ := json.Marshal(amounts)
	if err := s.audit.Create(ctx, &models.AuditLog{
		Actor:     actor,
		Action:    action,
		Resource:  "payouts",
		TargetIDs: ids,
		Amounts:   payload,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		// The settlement is authoritative once committed; audit is
		// observability, not a correctness gate.
		s.logger.Warn("failed to record settlement audit log", zap.String("action", action), zap.Error(err))
	}
}

func processable(status models.PayoutStatus, action models.SettlementAction) bool {
	switch action {
	case models.SettlementActionMarkPaid:
		return status == models.PayoutStatusScheduled || status == models.PayoutStatusProcessing
	case models.SettlementActionCancel:
		return status == models.PayoutStatusScheduled
	default:
		return false
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
