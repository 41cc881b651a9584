package models

import "time"

// PayoutStatus represents the state of a scheduled coach transfer.
type PayoutStatus string

// Valid payout statuses. scheduled → processing → paid, or
// scheduled → cancelled; no other transitions exist.
const (
	PayoutStatusScheduled  PayoutStatus = "SCHEDULED"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusPaid       PayoutStatus = "PAID"
	PayoutStatusCancelled  PayoutStatus = "CANCELLED"
)

// Payout is one scheduled transfer to a coach for a period of work. All
// amounts are integer paise; GrossAmount - TDSAmount = NetAmount always
// holds.
type Payout struct {
	ID               string       `db:"id" json:"id"`
	CoachID          string       `db:"coach_id" json:"coach_id"`
	GrossAmount      int64        `db:"gross_amount" json:"gross_amount"`
	TDSAmount        int64        `db:"tds_amount" json:"tds_amount"`
	NetAmount        int64        `db:"net_amount" json:"net_amount"`
	Status           PayoutStatus `db:"status" json:"status"`
	ScheduledFor     time.Time    `db:"scheduled_for" json:"scheduled_for"`
	PaidAt           *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
	PaymentMethod    *string      `db:"payment_method" json:"payment_method,omitempty"`
	PaymentReference *string      `db:"payment_reference" json:"payment_reference,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// PayoutFilter provides filters for listing payouts.
type PayoutFilter struct {
	CoachID   string
	Status    PayoutStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SettlementAction is the terminal operation applied to a payout batch.
type SettlementAction string

// Supported settlement actions.
const (
	SettlementActionMarkPaid SettlementAction = "mark_paid"
	SettlementActionCancel   SettlementAction = "cancel"
)
