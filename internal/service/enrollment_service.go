package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightpath/coach-admin-api/internal/models"
	"github.com/brightpath/coach-admin-api/pkg/config"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Complete(ctx context.Context, id, certificateID string, completedAt time.Time, forced bool) (bool, error)
	UpdateEndDate(ctx context.Context, id string, endDate, updatedAt time.Time) error
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// CertificateGenerator produces the opaque certificate identifier issued on
// completion. Format and uniqueness belong to the downstream portal; the
// default implementation hands out UUIDs.
type CertificateGenerator interface {
	Generate(ctx context.Context, enrollment *models.Enrollment) (string, error)
}

type uuidCertificates struct{}

func (uuidCertificates) Generate(context.Context, *models.Enrollment) (string, error) {
	return "CERT-" + uuid.NewString(), nil
}

// NewUUIDCertificateGenerator returns the default certificate generator.
func NewUUIDCertificateGenerator() CertificateGenerator {
	return uuidCertificates{}
}

// CompleteEnrollmentRequest describes a completion attempt.
type CompleteEnrollmentRequest struct {
	Force     bool   `json:"force"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// CompleteEnrollmentResponse returns the issued certificate.
type CompleteEnrollmentResponse struct {
	CertificateID string    `json:"certificate_id"`
	CompletedAt   time.Time `json:"completed_at"`
	Forced        bool      `json:"forced"`
}

// ExtendEnrollmentRequest moves the program window end.
type ExtendEnrollmentRequest struct {
	NewEndDate time.Time `json:"new_end_date" validate:"required"`
	IP         string    `json:"-"`
	UserAgent  string    `json:"-"`
}

// EnrollmentService orchestrates enrollment lifecycle operations.
type EnrollmentService struct {
	repo         enrollmentRepository
	audit        auditWriter
	certificates CertificateGenerator
	cfg          config.RiskConfig
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, audit auditWriter, certificates CertificateGenerator, cfg config.RiskConfig, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if certificates == nil {
		certificates = NewUUIDCertificateGenerator()
	}
	return &EnrollmentService{repo: repo, audit: audit, certificates: certificates, cfg: cfg, validator: validate, logger: logger}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Complete transitions an enrollment to completed and issues a certificate.
// Below the contracted session count the call fails unless forced. The
// certificate is generated before the write and persisted in the same
// guarded UPDATE as the status flip, so a generator failure leaves no
// partial state.
func (s *EnrollmentService) Complete(ctx context.Context, actor, id string, req CompleteEnrollmentRequest) (*CompleteEnrollmentResponse, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already completed")
	}

	total := enrollment.TotalSessions
	if total <= 0 {
		total = s.cfg.DefaultTotalSessions
	}
	if enrollment.SessionsCompleted < total && !req.Force {
		return nil, appErrors.Clone(appErrors.ErrInsufficientSessions, "sessions completed below contract, reissue with force to override")
	}

	certificateID, err := s.certificates.Generate(ctx, enrollment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate certificate")
	}

	completedAt := time.Now().UTC()
	updated, err := s.repo.Complete(ctx, id, certificateID, completedAt, req.Force)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist completion")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment completed concurrently")
	}

	s.writeAudit(ctx, actor, models.AuditActionEnrollmentComplete, []string{id}, map[string]interface{}{"forced": req.Force, "certificate_id": certificateID}, req.IP, req.UserAgent)

	return &CompleteEnrollmentResponse{CertificateID: certificateID, CompletedAt: completedAt, Forced: req.Force}, nil
}

// ExtendProgram moves the enrollment end date forward, resolving at-risk and
// overdue states without forcing completion.
func (s *EnrollmentService) ExtendProgram(ctx context.Context, actor, id string, req ExtendEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extension payload")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already completed")
	}
	if req.NewEndDate.Before(enrollment.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new end date precedes program start")
	}

	if err := s.repo.UpdateEndDate(ctx, id, req.NewEndDate, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to extend enrollment")
	}

	s.writeAudit(ctx, actor, models.AuditActionEnrollmentExtend, []string{id}, map[string]interface{}{"new_end_date": req.NewEndDate.Format("2006-01-02")}, req.IP, req.UserAgent)

	enrollment.EndDate = req.NewEndDate
	return enrollment, nil
}

func (s *EnrollmentService) writeAudit(ctx context.Context, actor, action string, targetIDs []string, amounts map[string]interface{}, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	ids, _ := json.Marshal(targetIDs)
	payload, _ := json.Marshal(amounts)
	if err := s.audit.Create(ctx, &models.AuditLog{
		Actor:     actor,
		Action:    action,
		Resource:  "enrollments",
		TargetIDs: ids,
		Amounts:   payload,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
