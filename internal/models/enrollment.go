package models

import "time"

// EnrollmentStatus represents the lifecycle of a coaching enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment captures one child's coaching program: the contracted window,
// session progress, and the assessment trail. CompletedAt and CertificateID
// are set together or not at all.
type Enrollment struct {
	ID                   string           `db:"id" json:"id"`
	StudentName          string           `db:"student_name" json:"student_name"`
	CoachID              string           `db:"coach_id" json:"coach_id"`
	StartDate            time.Time        `db:"start_date" json:"start_date"`
	EndDate              time.Time        `db:"end_date" json:"end_date"`
	TotalSessions        int              `db:"total_sessions" json:"total_sessions"`
	SessionsCompleted    int              `db:"sessions_completed" json:"sessions_completed"`
	LastSessionAt        *time.Time       `db:"last_session_at" json:"last_session_at,omitempty"`
	HasInitialAssessment bool             `db:"has_initial_assessment" json:"has_initial_assessment"`
	HasFinalAssessment   bool             `db:"has_final_assessment" json:"has_final_assessment"`
	FinalAssessmentSent  bool             `db:"final_assessment_sent" json:"final_assessment_sent"`
	NPSSubmitted         bool             `db:"nps_submitted" json:"nps_submitted"`
	NPSScore             *int             `db:"nps_score" json:"nps_score,omitempty"`
	Status               EnrollmentStatus `db:"status" json:"status"`
	CompletedAt          *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CertificateID        *string          `db:"certificate_id" json:"certificate_id,omitempty"`
	ForceCompleted       bool             `db:"force_completed" json:"force_completed"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// RiskCategory labels an enrollment's health. It is derived on demand from
// program dates and session counts and never persisted.
type RiskCategory string

// Risk categories in display order, most time-critical first.
const (
	RiskOverdue   RiskCategory = "overdue"
	RiskAtRisk    RiskCategory = "at_risk"
	RiskInactive  RiskCategory = "inactive"
	RiskReady     RiskCategory = "ready"
	RiskOnTrack   RiskCategory = "on_track"
	RiskCompleted RiskCategory = "completed"
)

// riskRank orders categories for batch display.
var riskRank = map[RiskCategory]int{
	RiskOverdue:   0,
	RiskAtRisk:    1,
	RiskInactive:  2,
	RiskReady:     3,
	RiskOnTrack:   4,
	RiskCompleted: 5,
}

// Rank returns the display priority of a category, lower first.
func (c RiskCategory) Rank() int {
	if r, ok := riskRank[c]; ok {
		return r
	}
	return len(riskRank)
}

// RiskAssessment is the classifier output for one enrollment.
type RiskAssessment struct {
	EnrollmentID         string       `json:"enrollment_id"`
	Category             RiskCategory `json:"category"`
	DaysRemaining        int          `json:"days_remaining"`
	DaysSinceLastSession *int         `json:"days_since_last_session,omitempty"`
}

// RiskBoardRow pairs an enrollment with its derived assessment for display.
type RiskBoardRow struct {
	Enrollment Enrollment     `json:"enrollment"`
	Risk       RiskAssessment `json:"risk"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	CoachID   string
	Status    EnrollmentStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
