package entities

import "time"

// Member is the membership registry entry. True membership is governed by
// token holdings; this list backs the idempotency guards.
type Member struct {
	Account             string    `db:"account"`
	CompletedChallenges []int64   `db:"completed_challenges"`
	CreatedAt           time.Time `db:"created_at"`
}

// HasCompleted reports whether the member already completed a challenge.
func (m *Member) HasCompleted(challengeID int64) bool {
	for _, id := range m.CompletedChallenges {
		if id == challengeID {
			return true
		}
	}
	return false
}

// Applicant is a pending membership application.
type Applicant struct {
	Account   string    `db:"account"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AuditNote is one line of the append-only domain note log.
type AuditNote struct {
	ID        int64     `db:"id"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
}
