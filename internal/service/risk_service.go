package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/brightpath/coach-admin-api/internal/models"
	"github.com/brightpath/coach-admin-api/pkg/config"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
)

type riskEnrollmentReader interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	ListAll(ctx context.Context, status models.EnrollmentStatus) ([]models.Enrollment, error)
}

type riskMetricsRecorder interface {
	RecordRiskSweep(category string, count int)
}

// RiskService derives enrollment health categories from stored facts. The
// category is never persisted or cached; every call recomputes it from the
// enrollment row and the supplied clock.
type RiskService struct {
	repo    riskEnrollmentReader
	cfg     config.RiskConfig
	metrics riskMetricsRecorder
	logger  *zap.Logger
}

// NewRiskService constructs RiskService.
func NewRiskService(repo riskEnrollmentReader, cfg config.RiskConfig, metrics riskMetricsRecorder, logger *zap.Logger) *RiskService {
	if cfg.AtRiskWindowDays <= 0 {
		cfg.AtRiskWindowDays = 7
	}
	if cfg.InactiveAfterDays <= 0 {
		cfg.InactiveAfterDays = 14
	}
	if cfg.DefaultTotalSessions <= 0 {
		cfg.DefaultTotalSessions = 9
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskService{repo: repo, cfg: cfg, metrics: metrics, logger: logger}
}

// Classify evaluates the ordered decision list for one enrollment. First
// match wins; completed is terminal and shadows everything else. The clock
// is injected so classification is a pure function of its inputs.
func (s *RiskService) Classify(enrollment models.Enrollment, now time.Time) (models.RiskAssessment, error) {
	if enrollment.EndDate.Before(enrollment.StartDate) {
		return models.RiskAssessment{}, appErrors.Clone(appErrors.ErrValidation, "enrollment end date precedes start date")
	}

	total := enrollment.TotalSessions
	if total <= 0 {
		total = s.cfg.DefaultTotalSessions
	}

	assessment := models.RiskAssessment{
		EnrollmentID:  enrollment.ID,
		DaysRemaining: daysBetween(now, enrollment.EndDate),
	}
	if enrollment.LastSessionAt != nil {
		since := daysBetween(*enrollment.LastSessionAt, now)
		assessment.DaysSinceLastSession = &since
	}

	switch {
	case enrollment.Status == models.EnrollmentStatusCompleted:
		assessment.Category = models.RiskCompleted
	case assessment.DaysRemaining < 0 && enrollment.SessionsCompleted < total:
		assessment.Category = models.RiskOverdue
	case assessment.DaysRemaining <= s.cfg.AtRiskWindowDays && assessment.DaysRemaining >= 0:
		assessment.Category = models.RiskAtRisk
	case assessment.DaysSinceLastSession != nil && *assessment.DaysSinceLastSession > s.cfg.InactiveAfterDays:
		assessment.Category = models.RiskInactive
	case enrollment.SessionsCompleted >= total:
		assessment.Category = models.RiskReady
	default:
		assessment.Category = models.RiskOnTrack
	}

	return assessment, nil
}

// Board classifies the filtered enrollments and sorts them for operator
// display: most time-critical category first, ties broken by ascending end
// date.
func (s *RiskService) Board(ctx context.Context, filter models.EnrollmentFilter, now time.Time) ([]models.RiskBoardRow, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	rows := make([]models.RiskBoardRow, 0, len(enrollments))
	for _, e := range enrollments {
		assessment, err := s.Classify(e, now)
		if err != nil {
			s.logger.Warn("skipping malformed enrollment", zap.String("enrollment_id", e.ID), zap.Error(err))
			continue
		}
		rows = append(rows, models.RiskBoardRow{Enrollment: e, Risk: assessment})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Risk.Category != rows[j].Risk.Category {
			return rows[i].Risk.Category.Rank() < rows[j].Risk.Category.Rank()
		}
		return rows[i].Enrollment.EndDate.Before(rows[j].Enrollment.EndDate)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// SweepResult summarises one classification pass.
type SweepResult struct {
	Scanned int                         `json:"scanned"`
	ByRisk  map[models.RiskCategory]int `json:"by_risk"`
	SweptAt time.Time                   `json:"swept_at"`
	Overdue []string                    `json:"overdue_ids,omitempty"`
	Skipped int                         `json:"skipped"`
}

// Sweep classifies every active enrollment, logs the time-critical ones for
// alerting and reports per-category counts. Runs on a schedule and on demand.
func (s *RiskService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	enrollments, err := s.repo.ListAll(ctx, models.EnrollmentStatusActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments for sweep")
	}

	result := &SweepResult{ByRisk: make(map[models.RiskCategory]int), SweptAt: now}
	for _, e := range enrollments {
		assessment, err := s.Classify(e, now)
		if err != nil {
			result.Skipped++
			s.logger.Warn("sweep skipped malformed enrollment", zap.String("enrollment_id", e.ID), zap.Error(err))
			continue
		}
		result.Scanned++
		result.ByRisk[assessment.Category]++
		switch assessment.Category {
		case models.RiskOverdue:
			result.Overdue = append(result.Overdue, e.ID)
			s.logger.Warn("enrollment overdue",
				zap.String("enrollment_id", e.ID),
				zap.Int("days_remaining", assessment.DaysRemaining),
				zap.Int("sessions_completed", e.SessionsCompleted))
		case models.RiskAtRisk:
			s.logger.Info("enrollment at risk",
				zap.String("enrollment_id", e.ID),
				zap.Int("days_remaining", assessment.DaysRemaining))
		}
	}

	if s.metrics != nil {
		for category, count := range result.ByRisk {
			s.metrics.RecordRiskSweep(string(category), count)
		}
	}
	return result, nil
}

// daysBetween returns the signed number of calendar days from a to b,
// ignoring the time-of-day component.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
