package testhelpers

import (
	"context"
	"time"

	"govpay/domain/entities"
	"govpay/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockPollService is a mock implementation of PollService
type MockPollService struct {
	mock.Mock
}

func (m *MockPollService) Exists(ctx context.Context, ballotID int64) (bool, error) {
	args := m.Called(ctx, ballotID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPollService) RegisterPoll(ctx context.Context, ballotID int64, kind, publisher, denomination, scheme string, options []string) error {
	args := m.Called(ctx, ballotID, kind, publisher, denomination, scheme, options)
	return args.Error(0)
}

func (m *MockPollService) SetDetails(ctx context.Context, ballotID int64, title, description, content string) error {
	args := m.Called(ctx, ballotID, title, description, content)
	return args.Error(0)
}

func (m *MockPollService) Open(ctx context.Context, ballotID int64, expiration time.Time) error {
	args := m.Called(ctx, ballotID, expiration)
	return args.Error(0)
}

func (m *MockPollService) Close(ctx context.Context, ballotID int64, broadcast bool) error {
	args := m.Called(ctx, ballotID, broadcast)
	return args.Error(0)
}

func (m *MockPollService) Tally(ctx context.Context, ballotID int64) (*interfaces.BallotTally, error) {
	args := m.Called(ctx, ballotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.BallotTally), args.Error(1)
}

func (m *MockPollService) TreasurySupply(ctx context.Context, symbol string) (entities.Quantity, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(entities.Quantity), args.Error(1)
}

func (m *MockPollService) Mint(ctx context.Context, to string, quantity entities.Quantity, memo string) error {
	args := m.Called(ctx, to, quantity, memo)
	return args.Error(0)
}

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Issue(ctx context.Context, quantity entities.Quantity, memo string) error {
	args := m.Called(ctx, quantity, memo)
	return args.Error(0)
}

func (m *MockLedgerService) Transfer(ctx context.Context, to string, quantity entities.Quantity, memo string) error {
	args := m.Called(ctx, to, quantity, memo)
	return args.Error(0)
}

// MockScheduler is a mock implementation of Scheduler
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, senderID int64, action entities.DeferredAction) error {
	args := m.Called(ctx, senderID, action)
	return args.Error(0)
}
