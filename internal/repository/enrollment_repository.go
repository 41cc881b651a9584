package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/brightpath/coach-admin-api/internal/models"
)

const enrollmentColumns = `id, student_name, coach_id, start_date, end_date, total_sessions, sessions_completed,
        last_session_at, has_initial_assessment, has_final_assessment, final_assessment_sent,
        nps_submitted, nps_score, status, completed_at, certificate_id, force_completed, created_at, updated_at`

// EnrollmentRepository handles persistence of coaching enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	base := "FROM enrollments WHERE 1=1"
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
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(student_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"end_date":   true,
		"start_date": true,
		"created_at": true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "end_date"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", enrollmentColumns, base, sortBy, order, size, offset)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ListAll returns every enrollment matching the filter without pagination,
// for classification sweeps.
func (r *EnrollmentRepository) ListAll(ctx context.Context, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments", enrollmentColumns)
	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list all enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Complete transitions an enrollment to completed, writing the status change,
// completion timestamp, certificate and forced marker in one guarded UPDATE
// so the pair can never diverge. Returns false when the enrollment was
// already completed (or vanished), leaving the row untouched.
func (r *EnrollmentRepository) Complete(ctx context.Context, id, certificateID string, completedAt time.Time, forced bool) (bool, error) {
	const query = `UPDATE enrollments
        SET status = $2, completed_at = $3, certificate_id = $4, force_completed = $5, updated_at = $3
        WHERE id = $1 AND status <> $2`
	res, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusCompleted, completedAt, certificateID, forced)
	if err != nil {
		return false, fmt.Errorf("complete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete enrollment rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateEndDate moves the program window end for an enrollment.
func (r *EnrollmentRepository) UpdateEndDate(ctx context.Context, id string, endDate, updatedAt time.Time) error {
	const query = `UPDATE enrollments SET end_date = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, endDate, updatedAt); err != nil {
		return fmt.Errorf("update enrollment end date: %w", err)
	}
	return nil
}
