package repository

import (
	"context"
	"fmt"

	"govpay/application"
	"govpay/database"
	"govpay/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher

	recordRepo            interfaces.RecordRepository
	periodRepo            interfaces.PeriodRepository
	paymentRepo           interfaces.PaymentRepository
	assignmentPaymentRepo interfaces.AssignmentPaymentRepository
	configRepo            interfaces.ConfigRepository
	memberRepo            interfaces.MemberRepository
	applicantRepo         interfaces.ApplicantRepository
	auditLogRepo          interfaces.AuditLogRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// Create creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) Create(publisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: publisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.recordRepo = newRecordRepository(tx)
	u.periodRepo = newPeriodRepository(tx)
	u.paymentRepo = newPaymentRepository(tx)
	u.assignmentPaymentRepo = newAssignmentPaymentRepository(tx)
	u.configRepo = newConfigRepository(tx)
	u.memberRepo = newMemberRepository(tx)
	u.applicantRepo = newApplicantRepository(tx)
	u.auditLogRepo = newAuditLogRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// RecordRepository returns the record repository for this unit of work
func (u *unitOfWork) RecordRepository() interfaces.RecordRepository {
	if u.recordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.recordRepo
}

// PeriodRepository returns the period repository for this unit of work
func (u *unitOfWork) PeriodRepository() interfaces.PeriodRepository {
	if u.periodRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.periodRepo
}

// PaymentRepository returns the payment repository for this unit of work
func (u *unitOfWork) PaymentRepository() interfaces.PaymentRepository {
	if u.paymentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.paymentRepo
}

// AssignmentPaymentRepository returns the assignment payment repository for this unit of work
func (u *unitOfWork) AssignmentPaymentRepository() interfaces.AssignmentPaymentRepository {
	if u.assignmentPaymentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.assignmentPaymentRepo
}

// ConfigRepository returns the config repository for this unit of work
func (u *unitOfWork) ConfigRepository() interfaces.ConfigRepository {
	if u.configRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.configRepo
}

// MemberRepository returns the member repository for this unit of work
func (u *unitOfWork) MemberRepository() interfaces.MemberRepository {
	if u.memberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.memberRepo
}

// ApplicantRepository returns the applicant repository for this unit of work
func (u *unitOfWork) ApplicantRepository() interfaces.ApplicantRepository {
	if u.applicantRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.applicantRepo
}

// AuditLogRepository returns the audit log repository for this unit of work
func (u *unitOfWork) AuditLogRepository() interfaces.AuditLogRepository {
	if u.auditLogRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.auditLogRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
