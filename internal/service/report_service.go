package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brightpath/coach-admin-api/internal/models"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
	"github.com/brightpath/coach-admin-api/pkg/export"
)

type ledgerReader interface {
	ListByPeriod(ctx context.Context, quarter, fiscalYear string) ([]models.WithholdingEntry, error)
	Summary(ctx context.Context, quarter, fiscalYear string) (*models.WithholdingSummary, error)
}

type cacheMetricsRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// WithholdingReport is the compliance view of one fiscal quarter.
type WithholdingReport struct {
	Summary models.WithholdingSummary `json:"summary"`
	Entries []models.WithholdingEntry `json:"entries"`
}

// ReportService produces withholding compliance reports. Reports are cached
// briefly in Redis; risk classifications are deliberately never cached, but a
// ledger aggregate only changes when a settlement lands, so a short TTL is
// harmless here.
type ReportService struct {
	ledger   ledgerReader
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  cacheMetricsRecorder
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewReportService constructs ReportService. The cache client may be nil, in
// which case every call hits storage.
func NewReportService(ledger ledgerReader, cache *redis.Client, cacheTTL time.Duration, metrics cacheMetricsRecorder, logger *zap.Logger) *ReportService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		ledger:   ledger,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

var validQuarters = map[string]bool{"Q1": true, "Q2": true, "Q3": true, "Q4": true}

// Withholding returns the report for one fiscal quarter. The boolean reports
// whether the result was served from cache.
func (s *ReportService) Withholding(ctx context.Context, quarter, fiscalYear string) (*WithholdingReport, bool, error) {
	if !validQuarters[quarter] {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "quarter must be one of Q1..Q4")
	}
	if fiscalYear == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "fiscal year is required")
	}

	cacheKey := fmt.Sprintf("reports:withholding:%s:%s", fiscalYear, quarter)
	if s.cache != nil {
		start := time.Now()
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		hit := err == nil
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(hit, time.Since(start))
		}
		if hit {
			var report WithholdingReport
			if err := json.Unmarshal(raw, &report); err == nil {
				return &report, true, nil
			}
		}
	}

	summary, err := s.ledger.Summary(ctx, quarter, fiscalYear)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise withholding")
	}
	entries, err := s.ledger.ListByPeriod(ctx, quarter, fiscalYear)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load withholding entries")
	}

	report := &WithholdingReport{Summary: *summary, Entries: entries}

	if s.cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache withholding report", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}
	return report, false, nil
}

// WithholdingCSV renders the quarter report as CSV.
func (s *ReportService) WithholdingCSV(ctx context.Context, quarter, fiscalYear string) ([]byte, error) {
	report, _, err := s.Withholding(ctx, quarter, fiscalYear)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(reportDataset(report))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
	}
	return data, nil
}

// WithholdingPDF renders the quarter report as PDF.
func (s *ReportService) WithholdingPDF(ctx context.Context, quarter, fiscalYear string) ([]byte, error) {
	report, _, err := s.Withholding(ctx, quarter, fiscalYear)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("TDS Withholding %s %s", quarter, fiscalYear)
	data, err := s.pdf.Render(reportDataset(report), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
	}
	return data, nil
}

func reportDataset(report *WithholdingReport) export.Dataset {
	headers := []string{"Entry ID", "Payout ID", "Coach ID", "Amount (paise)", "Deposited", "Created"}
	rows := make([]map[string]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, map[string]string{
			"Entry ID":       e.ID,
			"Payout ID":      e.PayoutID,
			"Coach ID":       e.CoachID,
			"Amount (paise)": strconv.FormatInt(e.Amount, 10),
			"Deposited":      strconv.FormatBool(e.Deposited),
			"Created":        e.CreatedAt.Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows, RightAlign: []string{"Amount (paise)"}}
}
