package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	recordRepo  *testhelpers.MockRecordRepository
	paymentRepo *testhelpers.MockPaymentRepository
	auditRepo   *testhelpers.MockAuditLogRepository
	configRepo  *testhelpers.MockConfigRepository
	scheduler   *testhelpers.MockScheduler
}

func newAdminFixture() *adminFixture {
	return &adminFixture{
		recordRepo:  new(testhelpers.MockRecordRepository),
		paymentRepo: new(testhelpers.MockPaymentRepository),
		auditRepo:   new(testhelpers.MockAuditLogRepository),
		configRepo:  new(testhelpers.MockConfigRepository),
		scheduler:   new(testhelpers.MockScheduler),
	}
}

func (f *adminFixture) service() *adminService {
	return NewAdminService(f.recordRepo, f.paymentRepo, f.auditRepo, f.configRepo, f.scheduler).(*adminService)
}

func TestAdminService_Authorization(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	service := newAdminFixture().service()

	assert.ErrorIs(t, service.EraseScope(ctx, "alice", entities.ScopeProposal), entities.ErrUnauthorized)
	assert.ErrorIs(t, service.EraseRecord(ctx, "alice", entities.ScopeProposal, 1), entities.ErrUnauthorized)
	assert.ErrorIs(t, service.EraseRange(ctx, "alice", entities.ScopeProposal, 1, 5), entities.ErrUnauthorized)
	assert.ErrorIs(t, service.ResetPayments(ctx, "alice"), entities.ErrUnauthorized)
	assert.ErrorIs(t, service.ClearAuditLog(ctx, "alice", 0, 100), entities.ErrUnauthorized)
	assert.ErrorIs(t, service.Note(ctx, "alice", "hi"), entities.ErrUnauthorized)
}

func TestAdminService_EraseScope(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newAdminFixture()

	f.recordRepo.On("DeleteAll", ctx, entities.ScopeFailedProps).Return(int64(12), nil)

	require.NoError(t, f.service().EraseScope(ctx, "govpay", entities.ScopeFailedProps))
	f.recordRepo.AssertExpectations(t)
}

func TestAdminService_EraseRecord(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newAdminFixture()

	f.recordRepo.On("Delete", ctx, entities.ScopeRole, int64(3)).Return(nil)

	require.NoError(t, f.service().EraseRecord(ctx, "govpay", entities.ScopeRole, 3))
	f.recordRepo.AssertExpectations(t)
}

func TestAdminService_EraseRange(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("deletes the inclusive id range", func(t *testing.T) {
		f := newAdminFixture()

		f.recordRepo.On("DeleteRange", ctx, entities.ScopePropArchive, int64(4), int64(9)).Return(int64(5), nil)

		require.NoError(t, f.service().EraseRange(ctx, "govpay", entities.ScopePropArchive, 4, 9))
		f.recordRepo.AssertExpectations(t)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		f := newAdminFixture()

		err := f.service().EraseRange(ctx, "govpay", entities.ScopePropArchive, 9, 4)
		assert.ErrorIs(t, err, entities.ErrValidation)
		f.recordRepo.AssertNotCalled(t, "DeleteRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminService_ResetPayments(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newAdminFixture()

	f.paymentRepo.On("DeleteAll", ctx).Return(int64(40), nil)

	require.NoError(t, f.service().ResetPayments(ctx, "govpay"))
	f.paymentRepo.AssertExpectations(t)
}

func TestAdminService_ClearAuditLog(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("rejects a non-positive batch size", func(t *testing.T) {
		f := newAdminFixture()

		err := f.service().ClearAuditLog(ctx, "govpay", 0, 0)
		assert.ErrorIs(t, err, entities.ErrValidation)
		f.auditRepo.AssertNotCalled(t, "DeleteBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("drained log schedules nothing", func(t *testing.T) {
		f := newAdminFixture()

		f.auditRepo.On("DeleteBatch", ctx, int64(0), int64(100)).Return(int64(0), nil)

		require.NoError(t, f.service().ClearAuditLog(ctx, "govpay", 0, 100))
		f.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("remaining rows schedule a bounded continuation", func(t *testing.T) {
		f := newAdminFixture()
		cfg := runningConfig()

		f.auditRepo.On("DeleteBatch", ctx, int64(0), int64(100)).Return(int64(101), nil)
		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.configRepo.On("Set", ctx, cfg).Return(nil)

		before := time.Now()
		f.scheduler.On("Schedule", ctx, int64(1), mock.MatchedBy(func(a entities.DeferredAction) bool {
			if a.Action != entities.ActionClearAuditLog || a.Target != "govpay" {
				return false
			}
			var payload entities.ClearAuditLogPayload
			if err := json.Unmarshal(a.Payload, &payload); err != nil {
				return false
			}
			// The continuation window is an hour; stale replays are dropped.
			return payload.StartingID == 101 && payload.BatchSize == 100 &&
				a.NotValidAfter.After(before) && a.NotValidAfter.Before(before.Add(2*time.Hour))
		})).Return(nil)

		require.NoError(t, f.service().ClearAuditLog(ctx, "govpay", 0, 100))
		assert.Equal(t, int64(1), cfg.Ints[entities.CfgLastSenderID])
		f.scheduler.AssertExpectations(t)
	})
}

func TestAdminService_Note(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()
	f := newAdminFixture()

	f.auditRepo.On("Append", ctx, "quarterly review complete").Return(nil)

	require.NoError(t, f.service().Note(ctx, "govpay", "quarterly review complete"))
	f.auditRepo.AssertExpectations(t)
}
