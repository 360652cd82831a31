package services

import (
	"context"
	"fmt"
	"time"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/events"
	"govpay/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type payrollService struct {
	config          *config.Config
	recordRepo      interfaces.RecordRepository
	periodRepo      interfaces.PeriodRepository
	paymentRepo     interfaces.PaymentRepository
	assignPayRepo   interfaces.AssignmentPaymentRepository
	pollService     interfaces.PollService
	ledgerService   interfaces.LedgerService
	auditRepo       interfaces.AuditLogRepository
	eventPublisher  interfaces.EventPublisher
}

// NewPayrollService creates a new payroll engine service
func NewPayrollService(
	recordRepo interfaces.RecordRepository,
	periodRepo interfaces.PeriodRepository,
	paymentRepo interfaces.PaymentRepository,
	assignPayRepo interfaces.AssignmentPaymentRepository,
	pollService interfaces.PollService,
	ledgerService interfaces.LedgerService,
	auditRepo interfaces.AuditLogRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.PayrollService {
	return &payrollService{
		config:         config.Get(),
		recordRepo:     recordRepo,
		periodRepo:     periodRepo,
		paymentRepo:    paymentRepo,
		assignPayRepo:  assignPayRepo,
		pollService:    pollService,
		ledgerService:  ledgerService,
		auditRepo:      auditRepo,
		eventPublisher: eventPublisher,
	}
}

// PayAssignment computes and records one pro-rated payment for an
// (assignment, period) pair. The guards run in a fixed order; every
// failure aborts the whole call with no partial writes.
func (s *payrollService) PayAssignment(ctx context.Context, actor string, assignmentID, periodID int64) (*entities.AssignmentPayment, error) {
	assignment, err := s.recordRepo.Get(ctx, entities.ScopeAssignment, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %d: %w", assignmentID, err)
	}
	if assignment == nil {
		return nil, fmt.Errorf("%w: assignment id %d does not exist", entities.ErrNotFound, assignmentID)
	}
	recipient := assignment.Owner()
	if err := requireEither(actor, recipient, s.config.SystemAccount); err != nil {
		return nil, err
	}

	roleID, err := assignment.Int(entities.KeyRoleID)
	if err != nil {
		return nil, err
	}
	role, err := s.recordRepo.Get(ctx, entities.ScopeRole, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role %d: %w", roleID, err)
	}
	if role == nil {
		return nil, fmt.Errorf("%w: role id %d does not exist", entities.ErrNotFound, roleID)
	}

	period, err := s.periodRepo.Get(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to get period %d: %w", periodID, err)
	}
	if period == nil {
		return nil, fmt.Errorf("%w: period id %d does not exist", entities.ErrNotFound, periodID)
	}

	// Double-payment guard: scan the period-ordered index for this
	// assignment before inserting anything.
	existing, err := s.assignPayRepo.GetByPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment payments for period %d: %w", periodID, err)
	}
	for _, p := range existing {
		if p.AssignmentID == assignmentID {
			return nil, fmt.Errorf("%w: assignment %d was already paid for period %d (payment %d)", entities.ErrAlreadyPaid, assignmentID, periodID, p.ID)
		}
	}

	now := time.Now()
	if !period.Closed(now) {
		return nil, fmt.Errorf("%w: period %d ends at %s", entities.ErrPeriodNotClosed, periodID, period.EndDate)
	}
	if assignment.CreatedAt.After(period.EndDate) {
		return nil, fmt.Errorf("%w: assignment %d was created at %s, after period %d ended", entities.ErrNotApproved, assignmentID, assignment.CreatedAt, periodID)
	}
	if err := checkPeriodWindow(assignment, periodID); err != nil {
		return nil, err
	}
	if err := checkPeriodWindow(role, periodID); err != nil {
		return nil, err
	}

	// Partial credit for assignments starting mid-period; floats only at
	// payment time.
	ratio := period.ProrationRatio(assignment.CreatedAt)

	var amounts []entities.Quantity
	for _, key := range []string{entities.KeyWeeklyRewardSal, entities.KeyWeeklyVoteSal, entities.KeyWeeklyUSDSal} {
		weekly, ok := assignment.Assets[key]
		if !ok {
			weekly, ok = role.Assets[key]
		}
		if !ok {
			continue
		}
		amounts = append(amounts, weekly.Scale(ratio))
	}

	payment := &entities.AssignmentPayment{
		AssignmentID: assignmentID,
		PeriodID:     periodID,
		Recipient:    recipient,
		PaymentDate:  now,
		Amounts:      amounts,
	}
	if err := s.assignPayRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record assignment payment: %w", err)
	}

	memo := fmt.Sprintf("Payroll payment. Assignment ID: %d; Period ID: %d", assignmentID, periodID)
	for _, quantity := range amounts {
		if err := s.MakePayment(ctx, periodID, recipient, quantity, memo, assignmentID, false); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"assignmentID": assignmentID,
		"periodID":     periodID,
		"recipient":    recipient,
		"ratio":        ratio,
	}).Info("Assignment paid")

	return payment, nil
}

// checkPeriodWindow enforces a record's declared [start_period, end_period]
// window when it declares one.
func checkPeriodWindow(record *entities.Record, periodID int64) error {
	start, hasStart := record.Ints[entities.KeyStartPeriod]
	end, hasEnd := record.Ints[entities.KeyEndPeriod]
	if hasStart && periodID < start {
		return fmt.Errorf("%w: period %d precedes %s %d start period %d", entities.ErrOutOfRange, periodID, record.Scope, record.ID, start)
	}
	if hasEnd && periodID > end {
		return fmt.Errorf("%w: period %d exceeds %s %d end period %d", entities.ErrOutOfRange, periodID, record.Scope, record.ID, end)
	}
	return nil
}

// MakePayment disburses one quantity and appends a ledger line. Voting
// power is minted directly; every other denomination is issued to the
// engine's own account and then transferred, keeping the engine the
// issuer of record. The bypassEscrow flag is accepted for call-site
// symmetry; no escrow facility exists yet.
func (s *payrollService) MakePayment(ctx context.Context, periodID int64, recipient string, quantity entities.Quantity, memo string, assignmentID int64, bypassEscrow bool) error {
	if quantity.IsZero() {
		return nil
	}

	if quantity.IsVote() {
		if err := s.pollService.Mint(ctx, recipient, quantity, memo); err != nil {
			return fmt.Errorf("failed to mint %s to %s: %w", quantity, recipient, err)
		}
	} else {
		if err := s.ledgerService.Issue(ctx, quantity, memo); err != nil {
			return fmt.Errorf("failed to issue %s: %w", quantity, err)
		}
		if err := s.ledgerService.Transfer(ctx, recipient, quantity, memo); err != nil {
			return fmt.Errorf("failed to transfer %s to %s: %w", quantity, recipient, err)
		}
	}

	payment := &entities.Payment{
		PaymentDate:  time.Now(),
		PeriodID:     periodID,
		AssignmentID: assignmentID,
		Recipient:    recipient,
		Amount:       quantity,
		Memo:         memo,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return fmt.Errorf("failed to append payment ledger line: %w", err)
	}

	if err := s.auditRepo.Append(ctx, fmt.Sprintf("Payment to %s: %s (%s)", recipient, quantity, memo)); err != nil {
		log.WithError(err).Warn("Failed to append audit note")
	}

	if err := s.eventPublisher.Publish(events.PaymentRecordedEvent{
		PaymentID:    payment.ID,
		PeriodID:     periodID,
		AssignmentID: assignmentID,
		Recipient:    recipient,
		Amount:       quantity.Amount,
		Symbol:       quantity.Symbol,
	}); err != nil {
		return fmt.Errorf("failed to publish payment recorded event: %w", err)
	}
	return nil
}
