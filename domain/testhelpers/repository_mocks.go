package testhelpers

import (
	"context"
	"time"

	"govpay/domain/entities"
	"govpay/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockRecordRepository is a mock implementation of RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Create(ctx context.Context, record *entities.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordRepository) Get(ctx context.Context, scope string, id int64) (*entities.Record, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByOwner(ctx context.Context, scope, owner string) ([]*entities.Record, error) {
	args := m.Called(ctx, scope, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByType(ctx context.Context, scope, typeName string) ([]*entities.Record, error) {
	args := m.Called(ctx, scope, typeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByFK(ctx context.Context, scope string, fk int64) ([]*entities.Record, error) {
	args := m.Called(ctx, scope, fk)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Record), args.Error(1)
}

func (m *MockRecordRepository) FindCreatedSince(ctx context.Context, scope string, since time.Time) ([]*entities.Record, error) {
	args := m.Called(ctx, scope, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Record), args.Error(1)
}

func (m *MockRecordRepository) FindUpdatedSince(ctx context.Context, scope string, since time.Time) ([]*entities.Record, error) {
	args := m.Called(ctx, scope, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Record), args.Error(1)
}

func (m *MockRecordRepository) Update(ctx context.Context, scope string, id int64, mutate func(*entities.Record) error) error {
	args := m.Called(ctx, scope, id, mutate)
	return args.Error(0)
}

func (m *MockRecordRepository) Move(ctx context.Context, fromScope string, id int64, toScope string, deleteOriginal bool) (int64, error) {
	args := m.Called(ctx, fromScope, id, toScope, deleteOriginal)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) Delete(ctx context.Context, scope string, id int64) error {
	args := m.Called(ctx, scope, id)
	return args.Error(0)
}

func (m *MockRecordRepository) DeleteRange(ctx context.Context, scope string, begin, end int64) (int64, error) {
	args := m.Called(ctx, scope, begin, end)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) DeleteAll(ctx context.Context, scope string) (int64, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(int64), args.Error(1)
}

// MockPeriodRepository is a mock implementation of PeriodRepository
type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) Create(ctx context.Context, start, end time.Time) (*entities.Period, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Period), args.Error(1)
}

func (m *MockPeriodRepository) Get(ctx context.Context, id int64) (*entities.Period, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Period), args.Error(1)
}

func (m *MockPeriodRepository) DeleteRange(ctx context.Context, begin, end int64) (int64, error) {
	args := m.Called(ctx, begin, end)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPeriodRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByPeriod(ctx context.Context, periodID int64) ([]*entities.Payment, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByRecipient(ctx context.Context, recipient string, limit int) ([]*entities.Payment, error) {
	args := m.Called(ctx, recipient, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByAssignment(ctx context.Context, assignmentID int64) ([]*entities.Payment, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Payment), args.Error(1)
}

func (m *MockPaymentRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAssignmentPaymentRepository is a mock implementation of AssignmentPaymentRepository
type MockAssignmentPaymentRepository struct {
	mock.Mock
}

func (m *MockAssignmentPaymentRepository) Create(ctx context.Context, payment *entities.AssignmentPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockAssignmentPaymentRepository) GetByPeriod(ctx context.Context, periodID int64) ([]*entities.AssignmentPayment, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AssignmentPayment), args.Error(1)
}

// MockConfigRepository is a mock implementation of ConfigRepository
type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) GetOrCreate(ctx context.Context) (*entities.ConfigState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ConfigState), args.Error(1)
}

func (m *MockConfigRepository) Set(ctx context.Context, cfg *entities.ConfigState) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Get(ctx context.Context, account string) (*entities.Member, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) Create(ctx context.Context, account string) (*entities.Member, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MockMemberRepository) Update(ctx context.Context, member *entities.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Delete(ctx context.Context, account string) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockApplicantRepository is a mock implementation of ApplicantRepository
type MockApplicantRepository struct {
	mock.Mock
}

func (m *MockApplicantRepository) Get(ctx context.Context, account string) (*entities.Applicant, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Applicant), args.Error(1)
}

func (m *MockApplicantRepository) Upsert(ctx context.Context, account, content string) (*entities.Applicant, error) {
	args := m.Called(ctx, account, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Applicant), args.Error(1)
}

func (m *MockApplicantRepository) Delete(ctx context.Context, account string) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockAuditLogRepository is a mock implementation of AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, notes string) error {
	args := m.Called(ctx, notes)
	return args.Error(0)
}

func (m *MockAuditLogRepository) DeleteBatch(ctx context.Context, startingID, batchSize int64) (int64, error) {
	args := m.Called(ctx, startingID, batchSize)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
