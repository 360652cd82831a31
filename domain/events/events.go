package events

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeProposalOpened  EventType = "proposal_opened"
	EventTypeProposalClosed  EventType = "proposal_closed"
	EventTypeScopeMoved      EventType = "scope_moved"
	EventTypePaymentRecorded EventType = "payment_recorded"
	EventTypeMemberEnrolled  EventType = "member_enrolled"
	EventTypePeriodAdded     EventType = "period_added"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ProposalOpenedEvent fires when a proposal record is created and its poll
// is registered and opened.
type ProposalOpenedEvent struct {
	ProposalID   int64
	ProposalType string
	Owner        string
	BallotID     int64
}

func (e ProposalOpenedEvent) Type() EventType {
	return EventTypeProposalOpened
}

// ProposalClosedEvent fires when a proposal's poll is tallied and the
// record transitions out of the proposal scope.
type ProposalClosedEvent struct {
	ProposalID int64
	BallotID   int64
	Passed     bool
	PassVotes  int64
	FailVotes  int64
	RawWeight  int64
}

func (e ProposalClosedEvent) Type() EventType {
	return EventTypeProposalClosed
}

// ScopeMovedEvent fires when a record is relocated between scopes.
type ScopeMovedEvent struct {
	FromScope string
	FromID    int64
	ToScope   string
	ToID      int64
	Deleted   bool
}

func (e ScopeMovedEvent) Type() EventType {
	return EventTypeScopeMoved
}

// PaymentRecordedEvent fires after a ledger line is appended.
type PaymentRecordedEvent struct {
	PaymentID    int64
	PeriodID     int64
	AssignmentID int64
	Recipient    string
	Amount       int64
	Symbol       string
}

func (e PaymentRecordedEvent) Type() EventType {
	return EventTypePaymentRecorded
}

// MemberEnrolledEvent fires when an applicant becomes a member.
type MemberEnrolledEvent struct {
	Account  string
	Enroller string
}

func (e MemberEnrolledEvent) Type() EventType {
	return EventTypeMemberEnrolled
}

// PeriodAddedEvent fires when a payroll period is appended.
type PeriodAddedEvent struct {
	PeriodID int64
}

func (e PeriodAddedEvent) Type() EventType {
	return EventTypePeriodAdded
}
