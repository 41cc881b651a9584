package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/coach-admin-api/internal/models"
	appErrors "github.com/brightpath/coach-admin-api/pkg/errors"
)

type fakeEnrollmentRepo struct {
	enrollment *models.Enrollment
	findErr    error

	completeCalled  bool
	completeUpdated bool
	completeErr     error
	completedCert   string
	completedForced bool

	endDateUpdated time.Time
	updateErr      error
}

func (f *fakeEnrollmentRepo) List(context.Context, models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	if f.enrollment == nil {
		return nil, 0, nil
	}
	return []models.Enrollment{*f.enrollment}, 1, nil
}

func (f *fakeEnrollmentRepo) FindByID(context.Context, string) (*models.Enrollment, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	clone := *f.enrollment
	return &clone, nil
}

func (f *fakeEnrollmentRepo) Complete(_ context.Context, _, certificateID string, _ time.Time, forced bool) (bool, error) {
	f.completeCalled = true
	f.completedCert = certificateID
	f.completedForced = forced
	return f.completeUpdated, f.completeErr
}

func (f *fakeEnrollmentRepo) UpdateEndDate(_ context.Context, _ string, endDate, _ time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.endDateUpdated = endDate
	return nil
}

type fakeAuditWriter struct {
	logs []models.AuditLog
	err  error
}

func (f *fakeAuditWriter) Create(_ context.Context, log *models.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, *log)
	return nil
}

type fakeCertificates struct {
	id  string
	err error
}

func (f *fakeCertificates) Generate(context.Context, *models.Enrollment) (string, error) {
	return f.id, f.err
}

func activeEnrollment(sessionsCompleted int) *models.Enrollment {
	return &models.Enrollment{
		ID:                "enr-1",
		StudentName:       "Aarav",
		CoachID:           "coach-1",
		StartDate:         day(2026, time.January, 1),
		EndDate:           day(2026, time.June, 30),
		TotalSessions:     9,
		SessionsCompleted: sessionsCompleted,
		Status:            models.EnrollmentStatusActive,
	}
}

func TestCompleteIssuesCertificate(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(9), completeUpdated: true}
	audit := &fakeAuditWriter{}
	svc := NewEnrollmentService(repo, audit, &fakeCertificates{id: "CERT-123"}, riskTestConfig(), nil, nil)

	res, err := svc.Complete(context.Background(), "admin-1", "enr-1", CompleteEnrollmentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "CERT-123", res.CertificateID)
	assert.False(t, res.Forced)
	assert.True(t, repo.completeCalled)
	assert.Equal(t, "CERT-123", repo.completedCert)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEnrollmentComplete, audit.logs[0].Action)
}

func TestCompleteInsufficientSessionsWithoutForce(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(5)}
	svc := NewEnrollmentService(repo, nil, &fakeCertificates{id: "CERT-123"}, riskTestConfig(), nil, nil)

	_, err := svc.Complete(context.Background(), "admin-1", "enr-1", CompleteEnrollmentRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInsufficientSessions.Code, appErr.Code)
	assert.False(t, repo.completeCalled)
}

func TestCompleteForceOverridesSessionCount(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(5), completeUpdated: true}
	svc := NewEnrollmentService(repo, nil, &fakeCertificates{id: "CERT-123"}, riskTestConfig(), nil, nil)

	res, err := svc.Complete(context.Background(), "admin-1", "enr-1", CompleteEnrollmentRequest{Force: true})
	require.NoError(t, err)
	assert.True(t, res.Forced)
	assert.True(t, repo.completedForced)
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	enrollment := activeEnrollment(9)
	enrollment.Status = models.EnrollmentStatusCompleted
	repo := &fakeEnrollmentRepo{enrollment: enrollment}
	svc := NewEnrollmentService(repo, nil, nil, riskTestConfig(), nil, nil)

	_, err := svc.Complete(context.Background(), "admin-1", "enr-1", CompleteEnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.completeCalled)
}

func TestCompleteNotFound(t *testing.T) {
	repo := &fakeEnrollmentRepo{findErr: sql.ErrNoRows}
	svc := NewEnrollmentService(repo, nil, nil, riskTestConfig(), nil, nil)

	_, err := svc.Complete(context.Background(), "admin-1", "missing", CompleteEnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCompleteCertificateFailureWritesNothing(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(9)}
	svc := NewEnrollmentService(repo, nil, &fakeCertificates{err: errors.New("portal down")}, riskTestConfig(), nil, nil)

	_, err := svc.Complete(context.Background(), "admin-1", "enr-1", CompleteEnrollmentRequest{})
	require.Error(t, err)
	assert.False(t, repo.completeCalled)
}

func TestCompleteConcurrentCompletionConflicts(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(9), completeUpdated: false}
	svc := NewEnrollmentService(repo, nil, &fakeCertificates{id: "CERT-123"}, riskTestConfig(), nil, nil)

	_, err := svc.Complete(context.Background(), "admin-1", "enr-1", CompleteEnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCompleteAuditFailureIsNonFatal(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(9), completeUpdated: true}
	audit := &fakeAuditWriter{err: errors.New("audit store down")}
	svc := NewEnrollmentService(repo, audit, &fakeCertificates{id: "CERT-123"}, riskTestConfig(), nil, nil)

	res, err := svc.Complete(context.Background(), "admin-1", "enr-1", CompleteEnrollmentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "CERT-123", res.CertificateID)
}

func TestExtendProgramMovesEndDate(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(5)}
	audit := &fakeAuditWriter{}
	svc := NewEnrollmentService(repo, audit, nil, riskTestConfig(), nil, nil)

	newEnd := day(2026, time.August, 31)
	enrollment, err := svc.ExtendProgram(context.Background(), "ops-1", "enr-1", ExtendEnrollmentRequest{NewEndDate: newEnd})
	require.NoError(t, err)
	assert.Equal(t, newEnd, enrollment.EndDate)
	assert.Equal(t, newEnd, repo.endDateUpdated)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEnrollmentExtend, audit.logs[0].Action)
}

func TestExtendProgramRejectsDateBeforeStart(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: activeEnrollment(5)}
	svc := NewEnrollmentService(repo, nil, nil, riskTestConfig(), nil, nil)

	_, err := svc.ExtendProgram(context.Background(), "ops-1", "enr-1", ExtendEnrollmentRequest{NewEndDate: day(2025, time.December, 1)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.True(t, repo.endDateUpdated.IsZero())
}

func TestExtendProgramRejectsCompleted(t *testing.T) {
	enrollment := activeEnrollment(9)
	enrollment.Status = models.EnrollmentStatusCompleted
	repo := &fakeEnrollmentRepo{enrollment: enrollment}
	svc := NewEnrollmentService(repo, nil, nil, riskTestConfig(), nil, nil)

	_, err := svc.ExtendProgram(context.Background(), "ops-1", "enr-1", ExtendEnrollmentRequest{NewEndDate: day(2026, time.August, 31)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
