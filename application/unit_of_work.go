package application

import (
	"context"

	"govpay/domain/interfaces"
)

// UnitOfWork bundles the repositories behind one database transaction.
// Every external operation runs inside exactly one unit of work; buffered
// events flush only after the transaction commits.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RecordRepository() interfaces.RecordRepository
	PeriodRepository() interfaces.PeriodRepository
	PaymentRepository() interfaces.PaymentRepository
	AssignmentPaymentRepository() interfaces.AssignmentPaymentRepository
	ConfigRepository() interfaces.ConfigRepository
	MemberRepository() interfaces.MemberRepository
	ApplicantRepository() interfaces.ApplicantRepository
	AuditLogRepository() interfaces.AuditLogRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory creates units of work bound to a transactional
// event publisher.
type UnitOfWorkFactory interface {
	Create(publisher interfaces.TransactionalEventPublisher) UnitOfWork
}
