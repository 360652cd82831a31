package testhelpers

import (
	"context"
	"time"

	"govpay/domain/entities"

	"github.com/stretchr/testify/mock"
)

// MockPeriodService is a mock implementation of PeriodService
type MockPeriodService struct {
	mock.Mock
}

func (m *MockPeriodService) AddPeriod(ctx context.Context, actor string, start, end time.Time) (*entities.Period, error) {
	args := m.Called(ctx, actor, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Period), args.Error(1)
}

func (m *MockPeriodService) RemovePeriods(ctx context.Context, actor string, begin, end int64) error {
	args := m.Called(ctx, actor, begin, end)
	return args.Error(0)
}

func (m *MockPeriodService) ResetPeriods(ctx context.Context, actor string) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}

func (m *MockPeriodService) CheckCapacity(ctx context.Context, roleID, requestedTimeShare int64) error {
	args := m.Called(ctx, roleID, requestedTimeShare)
	return args.Error(0)
}

// MockPayrollService is a mock implementation of PayrollService
type MockPayrollService struct {
	mock.Mock
}

func (m *MockPayrollService) PayAssignment(ctx context.Context, actor string, assignmentID, periodID int64) (*entities.AssignmentPayment, error) {
	args := m.Called(ctx, actor, assignmentID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AssignmentPayment), args.Error(1)
}

func (m *MockPayrollService) MakePayment(ctx context.Context, periodID int64, recipient string, quantity entities.Quantity, memo string, assignmentID int64, bypassEscrow bool) error {
	args := m.Called(ctx, periodID, recipient, quantity, memo, assignmentID, bypassEscrow)
	return args.Error(0)
}
