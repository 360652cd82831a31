package entities

import "time"

// Period is a fixed time bucket used to batch payroll. Immutable once
// created except for administrative bulk removal.
type Period struct {
	ID        int64     `db:"id"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

// Closed reports whether the period has fully elapsed. Payroll requires
// the end date to be strictly in the past.
func (p *Period) Closed(now time.Time) bool {
	return p.EndDate.Before(now)
}

// ProrationRatio is the fraction of the period's salary owed to an
// assignment created at createdAt. Full credit whenever the assignment is
// not created after the period start, down to zero at the period end.
func (p *Period) ProrationRatio(createdAt time.Time) float64 {
	if !createdAt.After(p.StartDate) {
		return 1.0
	}
	total := p.EndDate.Sub(p.StartDate).Seconds()
	if total <= 0 {
		return 0
	}
	remaining := p.EndDate.Sub(createdAt).Seconds()
	if remaining < 0 {
		return 0
	}
	return remaining / total
}
