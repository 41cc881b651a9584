package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/coach-admin-api/internal/models"
)

func enrollmentRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "student_name", "coach_id", "start_date", "end_date", "total_sessions", "sessions_completed",
		"last_session_at", "has_initial_assessment", "has_final_assessment", "final_assessment_sent",
		"nps_submitted", "nps_score", "status", "completed_at", "certificate_id", "force_completed", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "Aarav", "coach-1", time.Now(), time.Now().AddDate(0, 3, 0), 9, 4,
			nil, true, false, false, false, nil, "ACTIVE", nil, nil, false, time.Now(), time.Now())
	}
	return rows
}

func TestEnrollmentRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_name, coach_id")).
		WithArgs("coach-1", string(models.EnrollmentStatusActive)).
		WillReturnRows(enrollmentRows("e1", "e2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("coach-1", string(models.EnrollmentStatusActive)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	enrollments, total, err := repo.List(context.Background(), models.EnrollmentFilter{
		CoachID: "coach-1",
		Status:  models.EnrollmentStatusActive,
	})
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCompleteGuardedUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	completedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments")).
		WithArgs("e1", string(models.EnrollmentStatusCompleted), completedAt, "CERT-1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.Complete(context.Background(), "e1", "CERT-1", completedAt, false)
	require.NoError(t, err)
	require.True(t, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCompleteAlreadyCompleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	completedAt := time.Now().UTC()
	// The status guard matches no row when the enrollment is already completed.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments")).
		WithArgs("e1", string(models.EnrollmentStatusCompleted), completedAt, "CERT-1", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.Complete(context.Background(), "e1", "CERT-1", completedAt, true)
	require.NoError(t, err)
	require.False(t, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateEndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	newEnd := time.Now().AddDate(0, 1, 0)
	updatedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET end_date =")).
		WithArgs("e1", newEnd, updatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateEndDate(context.Background(), "e1", newEnd, updatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}
