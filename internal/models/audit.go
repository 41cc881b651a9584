package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionEnrollmentComplete = "ENROLLMENT_COMPLETE"
	AuditActionEnrollmentExtend   = "ENROLLMENT_EXTEND"
	AuditActionPayoutSchedule     = "PAYOUT_SCHEDULE"
	AuditActionSettlementPaid     = "SETTLEMENT_MARK_PAID"
	AuditActionSettlementCancel   = "SETTLEMENT_CANCEL"
)

// AuditLog is one compliance-trail record. TargetIDs and Amounts are JSON
// encoded so a batch settlement fits in a single row.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	Actor     string    `db:"actor" json:"actor"`
	Action    string    `db:"action" json:"action"`
	Resource  string    `db:"resource" json:"resource"`
	TargetIDs []byte    `db:"target_ids" json:"target_ids,omitempty"`
	Amounts   []byte    `db:"amounts" json:"amounts,omitempty"`
	Detail    []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
