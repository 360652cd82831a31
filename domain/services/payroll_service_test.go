package services

import (
	"context"
	"testing"
	"time"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/events"
	"govpay/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type payrollFixture struct {
	recordRepo    *testhelpers.MockRecordRepository
	periodRepo    *testhelpers.MockPeriodRepository
	paymentRepo   *testhelpers.MockPaymentRepository
	assignPayRepo *testhelpers.MockAssignmentPaymentRepository
	pollService   *testhelpers.MockPollService
	ledgerService *testhelpers.MockLedgerService
	auditRepo     *testhelpers.MockAuditLogRepository
	publisher     *testhelpers.MockEventPublisher
}

func newPayrollFixture() *payrollFixture {
	return &payrollFixture{
		recordRepo:    new(testhelpers.MockRecordRepository),
		periodRepo:    new(testhelpers.MockPeriodRepository),
		paymentRepo:   new(testhelpers.MockPaymentRepository),
		assignPayRepo: new(testhelpers.MockAssignmentPaymentRepository),
		pollService:   new(testhelpers.MockPollService),
		ledgerService: new(testhelpers.MockLedgerService),
		auditRepo:     new(testhelpers.MockAuditLogRepository),
		publisher:     new(testhelpers.MockEventPublisher),
	}
}

func (f *payrollFixture) service() *payrollService {
	return NewPayrollService(
		f.recordRepo, f.periodRepo, f.paymentRepo, f.assignPayRepo,
		f.pollService, f.ledgerService, f.auditRepo, f.publisher,
	).(*payrollService)
}

func (f *payrollFixture) assertExpectations(t *testing.T) {
	f.recordRepo.AssertExpectations(t)
	f.periodRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
	f.assignPayRepo.AssertExpectations(t)
	f.pollService.AssertExpectations(t)
	f.ledgerService.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

// closedPeriod returns a week-long period that ended well before now.
func closedPeriod(id int64) *entities.Period {
	end := time.Now().Add(-48 * time.Hour)
	return &entities.Period{ID: id, StartDate: end.Add(-7 * 24 * time.Hour), EndDate: end}
}

func payrollAssignment(period *entities.Period) *entities.Record {
	a := entities.NewRecord(entities.ScopeAssignment)
	a.ID = 7
	a.Names[entities.KeyOwner] = "alice"
	a.Ints[entities.KeyRoleID] = 3
	a.Ints[entities.KeyFK] = 3
	a.Assets[entities.KeyWeeklyRewardSal] = entities.NewQuantity(10000, entities.SymbolReward)
	a.Assets[entities.KeyWeeklyVoteSal] = entities.NewQuantity(10000, entities.SymbolVote)
	a.Assets[entities.KeyWeeklyUSDSal] = entities.NewQuantity(19230, entities.SymbolUSD)
	a.CreatedAt = period.StartDate.Add(-time.Hour)
	return a
}

func payrollRole() *entities.Record {
	r := entities.NewRecord(entities.ScopeRole)
	r.ID = 3
	r.Names[entities.KeyOwner] = "govpay"
	r.Ints[entities.KeyFulltimeCapX100] = 10000
	return r
}

func TestPayrollService_PayAssignment(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("full week pays salary in all three denominations", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)
		role := payrollRole()

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(role, nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{}, nil)
		f.assignPayRepo.On("Create", ctx, mock.MatchedBy(func(p *entities.AssignmentPayment) bool {
			return p.AssignmentID == 7 && p.PeriodID == 12 && p.Recipient == "alice" && len(p.Amounts) == 3
		})).Return(nil)

		// VOTE is minted; REWARD and USD are issued to the engine account
		// and transferred out.
		f.pollService.On("Mint", ctx, "alice", entities.NewQuantity(10000, entities.SymbolVote), mock.AnythingOfType("string")).Return(nil)
		f.ledgerService.On("Issue", ctx, entities.NewQuantity(10000, entities.SymbolReward), mock.AnythingOfType("string")).Return(nil)
		f.ledgerService.On("Issue", ctx, entities.NewQuantity(19230, entities.SymbolUSD), mock.AnythingOfType("string")).Return(nil)
		f.ledgerService.On("Transfer", ctx, "alice", entities.NewQuantity(10000, entities.SymbolReward), mock.AnythingOfType("string")).Return(nil)
		f.ledgerService.On("Transfer", ctx, "alice", entities.NewQuantity(19230, entities.SymbolUSD), mock.AnythingOfType("string")).Return(nil)

		f.paymentRepo.On("Create", ctx, mock.AnythingOfType("*entities.Payment")).Return(nil).Times(3)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil).Times(3)
		f.publisher.On("Publish", mock.AnythingOfType("events.PaymentRecordedEvent")).Return(nil).Times(3)

		payment, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		require.NoError(t, err)
		assert.Equal(t, []entities.Quantity{
			entities.NewQuantity(10000, entities.SymbolReward),
			entities.NewQuantity(10000, entities.SymbolVote),
			entities.NewQuantity(19230, entities.SymbolUSD),
		}, payment.Amounts)

		f.assertExpectations(t)
	})

	t.Run("falls back to role salary when assignment has none", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)
		assignment.Assets = map[string]entities.Quantity{}
		role := payrollRole()
		role.Assets[entities.KeyWeeklyRewardSal] = entities.NewQuantity(5000, entities.SymbolReward)
		role.Assets[entities.KeyWeeklyVoteSal] = entities.NewQuantity(5000, entities.SymbolVote)
		role.Assets[entities.KeyWeeklyUSDSal] = entities.NewQuantity(5000, entities.SymbolUSD)

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(role, nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{}, nil)
		f.assignPayRepo.On("Create", ctx, mock.AnythingOfType("*entities.AssignmentPayment")).Return(nil)
		f.pollService.On("Mint", ctx, "alice", entities.NewQuantity(5000, entities.SymbolVote), mock.AnythingOfType("string")).Return(nil)
		f.ledgerService.On("Issue", ctx, mock.AnythingOfType("entities.Quantity"), mock.AnythingOfType("string")).Return(nil).Times(2)
		f.ledgerService.On("Transfer", ctx, "alice", mock.AnythingOfType("entities.Quantity"), mock.AnythingOfType("string")).Return(nil).Times(2)
		f.paymentRepo.On("Create", ctx, mock.AnythingOfType("*entities.Payment")).Return(nil).Times(3)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil).Times(3)
		f.publisher.On("Publish", mock.AnythingOfType("events.PaymentRecordedEvent")).Return(nil).Times(3)

		payment, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		require.NoError(t, err)
		assert.Equal(t, entities.NewQuantity(5000, entities.SymbolReward), payment.Amounts[0])

		f.assertExpectations(t)
	})

	t.Run("skips denominations declared nowhere", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)
		assignment.Assets = map[string]entities.Quantity{
			entities.KeyWeeklyRewardSal: entities.NewQuantity(10000, entities.SymbolReward),
		}

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(payrollRole(), nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{}, nil)
		f.assignPayRepo.On("Create", ctx, mock.MatchedBy(func(p *entities.AssignmentPayment) bool {
			return len(p.Amounts) == 1
		})).Return(nil)
		f.ledgerService.On("Issue", ctx, entities.NewQuantity(10000, entities.SymbolReward), mock.AnythingOfType("string")).Return(nil)
		f.ledgerService.On("Transfer", ctx, "alice", entities.NewQuantity(10000, entities.SymbolReward), mock.AnythingOfType("string")).Return(nil)
		f.paymentRepo.On("Create", ctx, mock.AnythingOfType("*entities.Payment")).Return(nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.PaymentRecordedEvent")).Return(nil)

		payment, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		require.NoError(t, err)
		assert.Equal(t, []entities.Quantity{entities.NewQuantity(10000, entities.SymbolReward)}, payment.Amounts)
		f.pollService.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		f.assertExpectations(t)
	})

	t.Run("prorates an assignment created mid-period", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)
		halfway := period.StartDate.Add(period.EndDate.Sub(period.StartDate) / 2)
		assignment.CreatedAt = halfway

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(payrollRole(), nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{}, nil)
		f.assignPayRepo.On("Create", ctx, mock.AnythingOfType("*entities.AssignmentPayment")).Return(nil)
		f.pollService.On("Mint", ctx, "alice", entities.NewQuantity(5000, entities.SymbolVote), mock.AnythingOfType("string")).Return(nil)
		f.ledgerService.On("Issue", ctx, mock.AnythingOfType("entities.Quantity"), mock.AnythingOfType("string")).Return(nil).Times(2)
		f.ledgerService.On("Transfer", ctx, "alice", mock.AnythingOfType("entities.Quantity"), mock.AnythingOfType("string")).Return(nil).Times(2)
		f.paymentRepo.On("Create", ctx, mock.AnythingOfType("*entities.Payment")).Return(nil).Times(3)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil).Times(3)
		f.publisher.On("Publish", mock.AnythingOfType("events.PaymentRecordedEvent")).Return(nil).Times(3)

		payment, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), payment.Amounts[0].Amount)
		assert.Equal(t, int64(9615), payment.Amounts[2].Amount)

		f.assertExpectations(t)
	})

	t.Run("rejects a second payment for the same period", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(payrollRole(), nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{
			{ID: 99, AssignmentID: 7, PeriodID: 12},
		}, nil)

		_, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		assert.ErrorIs(t, err, entities.ErrAlreadyPaid)
		f.assignPayRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects an open period", func(t *testing.T) {
		f := newPayrollFixture()
		period := &entities.Period{
			ID:        12,
			StartDate: time.Now().Add(-24 * time.Hour),
			EndDate:   time.Now().Add(24 * time.Hour),
		}
		assignment := payrollAssignment(period)

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(payrollRole(), nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{}, nil)

		_, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		assert.ErrorIs(t, err, entities.ErrPeriodNotClosed)
	})

	t.Run("rejects an assignment created after the period ended", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)
		assignment.CreatedAt = period.EndDate.Add(time.Hour)

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(payrollRole(), nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{}, nil)

		_, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		assert.ErrorIs(t, err, entities.ErrNotApproved)
	})

	t.Run("enforces the assignment's declared period window", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)
		assignment.Ints[entities.KeyStartPeriod] = 20

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(payrollRole(), nil)
		f.periodRepo.On("Get", ctx, int64(12)).Return(period, nil)
		f.assignPayRepo.On("GetByPeriod", ctx, int64(12)).Return([]*entities.AssignmentPayment{}, nil)

		_, err := f.service().PayAssignment(ctx, "alice", 7, 12)
		assert.ErrorIs(t, err, entities.ErrOutOfRange)
	})

	t.Run("rejects an actor who is neither recipient nor system", func(t *testing.T) {
		f := newPayrollFixture()
		period := closedPeriod(12)
		assignment := payrollAssignment(period)

		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(7)).Return(assignment, nil)

		_, err := f.service().PayAssignment(ctx, "mallory", 7, 12)
		assert.ErrorIs(t, err, entities.ErrUnauthorized)
	})

	t.Run("unknown assignment fails", func(t *testing.T) {
		f := newPayrollFixture()
		f.recordRepo.On("Get", ctx, entities.ScopeAssignment, int64(404)).Return(nil, nil)

		_, err := f.service().PayAssignment(ctx, "alice", 404, 12)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestPayrollService_MakePayment(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("zero quantity is a no-op", func(t *testing.T) {
		f := newPayrollFixture()

		err := f.service().MakePayment(ctx, 12, "alice", entities.NewQuantity(0, entities.SymbolUSD), "memo", 7, false)
		require.NoError(t, err)

		f.pollService.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.ledgerService.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
		f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("voting power is minted, not issued", func(t *testing.T) {
		f := newPayrollFixture()
		quantity := entities.NewQuantity(100, entities.SymbolVote)

		f.pollService.On("Mint", ctx, "alice", quantity, "welcome").Return(nil)
		f.paymentRepo.On("Create", ctx, mock.MatchedBy(func(p *entities.Payment) bool {
			return p.Recipient == "alice" && p.Amount == quantity && p.AssignmentID == int64(-1)
		})).Return(nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)
		f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			evt, ok := e.(events.PaymentRecordedEvent)
			return ok && evt.Symbol == entities.SymbolVote && evt.Amount == int64(100)
		})).Return(nil)

		err := f.service().MakePayment(ctx, -1, "alice", quantity, "welcome", -1, false)
		require.NoError(t, err)

		f.ledgerService.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("audit append failure does not block the payment", func(t *testing.T) {
		f := newPayrollFixture()
		quantity := entities.NewQuantity(100, entities.SymbolUSD)

		f.ledgerService.On("Issue", ctx, quantity, "memo").Return(nil)
		f.ledgerService.On("Transfer", ctx, "alice", quantity, "memo").Return(nil)
		f.paymentRepo.On("Create", ctx, mock.AnythingOfType("*entities.Payment")).Return(nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(assert.AnError)
		f.publisher.On("Publish", mock.AnythingOfType("events.PaymentRecordedEvent")).Return(nil)

		err := f.service().MakePayment(ctx, 12, "alice", quantity, "memo", 7, false)
		require.NoError(t, err)
		f.assertExpectations(t)
	})
}
