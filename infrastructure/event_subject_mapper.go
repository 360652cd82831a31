package infrastructure

import (
	"fmt"

	"govpay/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeProposalOpened:
		return "governance.proposals.opened"
	case events.EventTypeProposalClosed:
		return "governance.proposals.closed"
	case events.EventTypeScopeMoved:
		return "governance.records.moved"
	case events.EventTypePaymentRecorded:
		return "payroll.payments.recorded"
	case events.EventTypeMemberEnrolled:
		return "membership.enrolled"
	case events.EventTypePeriodAdded:
		return "payroll.periods.added"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "governance.proposals.opened":
		return events.EventTypeProposalOpened
	case "governance.proposals.closed":
		return events.EventTypeProposalClosed
	case "governance.records.moved":
		return events.EventTypeScopeMoved
	case "payroll.payments.recorded":
		return events.EventTypePaymentRecorded
	case "membership.enrolled":
		return events.EventTypeMemberEnrolled
	case "payroll.periods.added":
		return events.EventTypePeriodAdded
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"governance.proposals.opened",
		"governance.proposals.closed",
		"governance.records.moved",
		"payroll.payments.recorded",
		"membership.enrolled",
		"payroll.periods.added",
	}
}
