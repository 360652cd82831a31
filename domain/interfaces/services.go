package interfaces

import (
	"context"
	"time"

	"govpay/domain/entities"
)

// ProposalService owns the proposal lifecycle: creation with type-specific
// validation, poll registration, closing, scope transition and deferred
// execution of approval effects.
type ProposalService interface {
	// CreateProposal validates and stores a record. For the proposal scope
	// it also registers, details and opens a poll, and stamps the deferred
	// approval action.
	CreateProposal(ctx context.Context, actor, scope string, attrs *entities.Record) (*entities.Record, error)

	// CloseProposal tallies the poll, computes quorum/majority and either
	// dispatches the approval action or archives the proposal as failed.
	CloseProposal(ctx context.Context, proposalID int64) error

	// ExecuteApproved enacts a passed proposal: runs the type finalizer and
	// relocates the record to its approved scope and the archive.
	ExecuteApproved(ctx context.Context, actor string, proposalID int64) error
}

// PayrollService owns payment creation.
type PayrollService interface {
	// PayAssignment computes and records one pro-rated, idempotent payment
	// for an (assignment, period) pair.
	PayAssignment(ctx context.Context, actor string, assignmentID, periodID int64) (*entities.AssignmentPayment, error)

	// MakePayment disburses one quantity and appends a ledger line.
	// Zero quantities are a no-op.
	MakePayment(ctx context.Context, periodID int64, recipient string, quantity entities.Quantity, memo string, assignmentID int64, bypassEscrow bool) error
}

// PeriodService owns the period/capacity ledger.
type PeriodService interface {
	// AddPeriod appends a period. Administrator-only; date ranges are not
	// checked for overlap.
	AddPeriod(ctx context.Context, actor string, start, end time.Time) (*entities.Period, error)

	// RemovePeriods deletes periods with id in [begin, end] inclusive.
	// Fails with ErrNotFound if begin does not exist; gaps are skipped.
	RemovePeriods(ctx context.Context, actor string, begin, end int64) error

	// ResetPeriods deletes every period. Administrator-only.
	ResetPeriods(ctx context.Context, actor string) error

	// CheckCapacity fails with ErrCapacityExceeded if committing the
	// requested time-share would exceed the role's full-time capacity.
	CheckCapacity(ctx context.Context, roleID, requestedTimeShare int64) error
}

// MembershipService owns the applicant/member registry.
type MembershipService interface {
	Apply(ctx context.Context, applicant, content string) error
	Enroll(ctx context.Context, enroller, applicant, content string) error
	AddMember(ctx context.Context, actor, account string) error
	RemoveMember(ctx context.Context, actor, account string) error
	RemoveApplicant(ctx context.Context, actor, account string) error

	// CompleteChallenge pays a one-time reward for a challenge record;
	// idempotent per (member, challenge).
	CompleteChallenge(ctx context.Context, completer string, challengeID int64) error
}

// ConfigService owns the domain configuration singleton. All mutation goes
// through these setters.
type ConfigService interface {
	Get(ctx context.Context) (*entities.ConfigState, error)
	SetConfig(ctx context.Context, actor string, cfg *entities.ConfigState) error
	TogglePause(ctx context.Context, actor string) error
	SetLastBallot(ctx context.Context, actor string, ballotID int64) error
	UpdateVersion(ctx context.Context, component, version string) error
}

// AdminService owns authorization-gated bulk maintenance.
type AdminService interface {
	EraseScope(ctx context.Context, actor, scope string) error
	EraseRecord(ctx context.Context, actor, scope string, id int64) error
	EraseRange(ctx context.Context, actor, scope string, begin, end int64) error
	ResetPayments(ctx context.Context, actor string) error

	// ClearAuditLog deletes one batch of notes and schedules a deferred
	// continuation for the remainder.
	ClearAuditLog(ctx context.Context, actor string, startingID, batchSize int64) error

	// Note appends a line to the domain audit log.
	Note(ctx context.Context, actor, message string) error
}
