package application

import (
	"context"
	"time"

	"govpay/domain/entities"
	"govpay/domain/interfaces"
	"govpay/domain/services"

	log "github.com/sirupsen/logrus"
)

// Engine is the external surface of the governance and payroll domain.
// Every method runs as one unit of work: a single database transaction
// whose buffered events flush only on commit.
type Engine struct {
	uowFactory       UnitOfWorkFactory
	publisherFactory func() interfaces.TransactionalEventPublisher
	pollService      interfaces.PollService
	ledgerService    interfaces.LedgerService
	scheduler        interfaces.Scheduler
}

// NewEngine creates a new engine facade
func NewEngine(
	uowFactory UnitOfWorkFactory,
	publisherFactory func() interfaces.TransactionalEventPublisher,
	pollService interfaces.PollService,
	ledgerService interfaces.LedgerService,
	scheduler interfaces.Scheduler,
) *Engine {
	return &Engine{
		uowFactory:       uowFactory,
		publisherFactory: publisherFactory,
		pollService:      pollService,
		ledgerService:    ledgerService,
		scheduler:        scheduler,
	}
}

// domainServices is the per-transaction service graph. Services are cheap
// to build and bound to one unit of work's repositories.
type domainServices struct {
	proposal   interfaces.ProposalService
	payroll    interfaces.PayrollService
	period     interfaces.PeriodService
	membership interfaces.MembershipService
	config     interfaces.ConfigService
	admin      interfaces.AdminService
}

func (e *Engine) buildServices(uow UnitOfWork) *domainServices {
	payroll := services.NewPayrollService(
		uow.RecordRepository(),
		uow.PeriodRepository(),
		uow.PaymentRepository(),
		uow.AssignmentPaymentRepository(),
		e.pollService,
		e.ledgerService,
		uow.AuditLogRepository(),
		uow.EventBus(),
	)
	period := services.NewPeriodService(
		uow.PeriodRepository(),
		uow.RecordRepository(),
		uow.EventBus(),
	)
	return &domainServices{
		proposal: services.NewProposalService(
			uow.RecordRepository(),
			uow.ConfigRepository(),
			uow.AuditLogRepository(),
			period,
			payroll,
			e.pollService,
			e.scheduler,
			uow.EventBus(),
		),
		payroll: payroll,
		period:  period,
		membership: services.NewMembershipService(
			uow.MemberRepository(),
			uow.ApplicantRepository(),
			uow.RecordRepository(),
			uow.ConfigRepository(),
			e.pollService,
			payroll,
			uow.EventBus(),
		),
		config: services.NewConfigService(uow.ConfigRepository()),
		admin: services.NewAdminService(
			uow.RecordRepository(),
			uow.PaymentRepository(),
			uow.AuditLogRepository(),
			uow.ConfigRepository(),
			e.scheduler,
		),
	}
}

// withUnitOfWork runs fn inside a fresh transaction, rolling back on error
func (e *Engine) withUnitOfWork(ctx context.Context, fn func(svcs *domainServices) error) error {
	uow := e.uowFactory.Create(e.publisherFactory())
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := fn(e.buildServices(uow)); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			log.WithError(rbErr).Error("Failed to rollback transaction")
		}
		return err
	}
	return uow.Commit()
}

// CreateProposal validates and stores a record, registering a poll when the
// record sits in the proposal scope.
func (e *Engine) CreateProposal(ctx context.Context, actor, scope string, attrs *entities.Record) (*entities.Record, error) {
	var created *entities.Record
	err := e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		var err error
		created, err = svcs.proposal.CreateProposal(ctx, actor, scope, attrs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CloseProposal tallies the proposal's poll and transitions the record.
func (e *Engine) CloseProposal(ctx context.Context, proposalID int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.proposal.CloseProposal(ctx, proposalID)
	})
}

// ExecuteApproved enacts a passed proposal.
func (e *Engine) ExecuteApproved(ctx context.Context, actor string, proposalID int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.proposal.ExecuteApproved(ctx, actor, proposalID)
	})
}

// PayAssignment records one pro-rated payment for an assignment and period.
func (e *Engine) PayAssignment(ctx context.Context, actor string, assignmentID, periodID int64) (*entities.AssignmentPayment, error) {
	var payment *entities.AssignmentPayment
	err := e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		var err error
		payment, err = svcs.payroll.PayAssignment(ctx, actor, assignmentID, periodID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// AddPeriod appends a payroll period.
func (e *Engine) AddPeriod(ctx context.Context, actor string, start, end time.Time) (*entities.Period, error) {
	var period *entities.Period
	err := e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		var err error
		period, err = svcs.period.AddPeriod(ctx, actor, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// RemovePeriods deletes periods with id in [begin, end] inclusive.
func (e *Engine) RemovePeriods(ctx context.Context, actor string, begin, end int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.period.RemovePeriods(ctx, actor, begin, end)
	})
}

// ResetPeriods deletes every period.
func (e *Engine) ResetPeriods(ctx context.Context, actor string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.period.ResetPeriods(ctx, actor)
	})
}

// Apply records a membership application.
func (e *Engine) Apply(ctx context.Context, applicant, content string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.membership.Apply(ctx, applicant, content)
	})
}

// Enroll promotes an applicant to member with the enrollment grants.
func (e *Engine) Enroll(ctx context.Context, enroller, applicant, content string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.membership.Enroll(ctx, enroller, applicant, content)
	})
}

// AddMember adds an account to the member registry directly.
func (e *Engine) AddMember(ctx context.Context, actor, account string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.membership.AddMember(ctx, actor, account)
	})
}

// RemoveMember removes an account from the member registry.
func (e *Engine) RemoveMember(ctx context.Context, actor, account string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.membership.RemoveMember(ctx, actor, account)
	})
}

// RemoveApplicant removes a pending application.
func (e *Engine) RemoveApplicant(ctx context.Context, actor, account string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.membership.RemoveApplicant(ctx, actor, account)
	})
}

// CompleteChallenge pays the one-time reward for a challenge.
func (e *Engine) CompleteChallenge(ctx context.Context, completer string, challengeID int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.membership.CompleteChallenge(ctx, completer, challengeID)
	})
}

// GetConfig loads the configuration singleton.
func (e *Engine) GetConfig(ctx context.Context) (*entities.ConfigState, error) {
	var cfg *entities.ConfigState
	err := e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		var err error
		cfg, err = svcs.config.Get(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetConfig replaces the configuration singleton.
func (e *Engine) SetConfig(ctx context.Context, actor string, cfg *entities.ConfigState) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.config.SetConfig(ctx, actor, cfg)
	})
}

// TogglePause flips the global paused flag.
func (e *Engine) TogglePause(ctx context.Context, actor string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.config.TogglePause(ctx, actor)
	})
}

// SetLastBallot overrides the ballot id counter.
func (e *Engine) SetLastBallot(ctx context.Context, actor string, ballotID int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.config.SetLastBallot(ctx, actor, ballotID)
	})
}

// UpdateVersion records a component version string.
func (e *Engine) UpdateVersion(ctx context.Context, component, version string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.config.UpdateVersion(ctx, component, version)
	})
}

// EraseScope removes every record in a scope.
func (e *Engine) EraseScope(ctx context.Context, actor, scope string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.admin.EraseScope(ctx, actor, scope)
	})
}

// EraseRecord removes a single record.
func (e *Engine) EraseRecord(ctx context.Context, actor, scope string, id int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.admin.EraseRecord(ctx, actor, scope, id)
	})
}

// EraseRange removes records with id in [begin, end] from a scope.
func (e *Engine) EraseRange(ctx context.Context, actor, scope string, begin, end int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.admin.EraseRange(ctx, actor, scope, begin, end)
	})
}

// ResetPayments removes every ledger line.
func (e *Engine) ResetPayments(ctx context.Context, actor string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.admin.ResetPayments(ctx, actor)
	})
}

// ClearAuditLog deletes one batch of audit notes and schedules the rest.
func (e *Engine) ClearAuditLog(ctx context.Context, actor string, startingID, batchSize int64) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.admin.ClearAuditLog(ctx, actor, startingID, batchSize)
	})
}

// Note appends a line to the audit log.
func (e *Engine) Note(ctx context.Context, actor, message string) error {
	return e.withUnitOfWork(ctx, func(svcs *domainServices) error {
		return svcs.admin.Note(ctx, actor, message)
	})
}
