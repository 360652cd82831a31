package entities

import "time"

// NoAssignment is the sentinel for ledger lines not tied to an assignment.
// NoPeriod marks payments outside any payroll period.
const (
	NoAssignment int64 = -1
	NoPeriod     int64 = -1
)

// Payment is a general ledger line: one disbursed quantity to one
// recipient, optionally tied to a period and an assignment.
type Payment struct {
	ID           int64     `db:"id"`
	PaymentDate  time.Time `db:"payment_date"`
	PeriodID     int64     `db:"period_id"`
	AssignmentID int64     `db:"assignment_id"`
	Recipient    string    `db:"recipient"`
	Amount       Quantity  `db:"amount"`
	Memo         string    `db:"memo"`
}

// AssignmentPayment is the payroll idempotency record: at most one exists
// per (assignment, period) pair, which is the double-payment guard.
type AssignmentPayment struct {
	ID           int64      `db:"id"`
	AssignmentID int64      `db:"assignment_id"`
	PeriodID     int64      `db:"period_id"`
	Recipient    string     `db:"recipient"`
	PaymentDate  time.Time  `db:"payment_date"`
	Amounts      []Quantity `db:"amounts"`
}
