package models

import "time"

// WithholdingEntry is one ledger row recording tax withheld at source from a
// paid payout. Exactly one entry exists per payout with non-zero withholding;
// zero-withholding payouts never produce an entry. Deposited starts false and
// is flipped by the external compliance process that remits to the tax
// authority.
type WithholdingEntry struct {
	ID          string    `db:"id" json:"id"`
	PayoutID    string    `db:"payout_id" json:"payout_id"`
	CoachID     string    `db:"coach_id" json:"coach_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Quarter     string    `db:"quarter" json:"quarter"`
	FiscalYear  string    `db:"fiscal_year" json:"fiscal_year"`
	Deposited   bool      `db:"deposited" json:"deposited"`
	DepositedAt *time.Time `db:"deposited_at" json:"deposited_at,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// WithholdingSummary aggregates ledger entries for a fiscal period.
type WithholdingSummary struct {
	Quarter         string `db:"quarter" json:"quarter"`
	FiscalYear      string `db:"fiscal_year" json:"fiscal_year"`
	EntryCount      int    `db:"entry_count" json:"entry_count"`
	TotalAmount     int64  `db:"total_amount" json:"total_amount"`
	DepositedCount  int    `db:"deposited_count" json:"deposited_count"`
	DepositedAmount int64  `db:"deposited_amount" json:"deposited_amount"`
}
