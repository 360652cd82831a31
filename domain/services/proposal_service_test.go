package services

import (
	"context"
	"testing"
	"time"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/events"
	"govpay/domain/interfaces"
	"govpay/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type proposalFixture struct {
	recordRepo     *testhelpers.MockRecordRepository
	configRepo     *testhelpers.MockConfigRepository
	auditRepo      *testhelpers.MockAuditLogRepository
	periodService  *testhelpers.MockPeriodService
	payrollService *testhelpers.MockPayrollService
	pollService    *testhelpers.MockPollService
	scheduler      *testhelpers.MockScheduler
	publisher      *testhelpers.MockEventPublisher
}

func newProposalFixture() *proposalFixture {
	return &proposalFixture{
		recordRepo:     new(testhelpers.MockRecordRepository),
		configRepo:     new(testhelpers.MockConfigRepository),
		auditRepo:      new(testhelpers.MockAuditLogRepository),
		periodService:  new(testhelpers.MockPeriodService),
		payrollService: new(testhelpers.MockPayrollService),
		pollService:    new(testhelpers.MockPollService),
		scheduler:      new(testhelpers.MockScheduler),
		publisher:      new(testhelpers.MockEventPublisher),
	}
}

func (f *proposalFixture) service() interfaces.ProposalService {
	return NewProposalService(
		f.recordRepo, f.configRepo, f.auditRepo,
		f.periodService, f.payrollService, f.pollService,
		f.scheduler, f.publisher,
	)
}

// runningConfig returns an unpaused config with the required keys set.
func runningConfig() *entities.ConfigState {
	cfg := entities.NewConfigState()
	cfg.Names[entities.CfgPollServiceAccount] = "pollsvc"
	cfg.Names[entities.CfgLedgerServiceAccount] = "ledgersvc"
	cfg.Ints[entities.CfgVotingDurationSec] = 3600
	cfg.Ints[entities.CfgLastBallotID] = 0
	cfg.Ints[entities.CfgPaused] = 0
	return cfg
}

func payoutProposal(owner string) *entities.Record {
	p := entities.NewRecord(entities.ScopeProposal)
	p.Names[entities.KeyOwner] = owner
	p.Names[entities.KeyType] = entities.ScopePayout
	p.Strings[entities.KeyTitle] = "Bounty"
	p.Strings[entities.KeyDescription] = "A bounty payout"
	p.Strings[entities.KeyContent] = "details"
	return p
}

func TestProposalService_CreateProposal(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("registers and opens a pass/fail poll", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()
		attrs := payoutProposal("alice")

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.recordRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.Record) bool {
			return r.Scope == entities.ScopeProposal && r.Owner() == "alice"
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.Record).ID = 42
		})

		f.pollService.On("Exists", ctx, int64(1)).Return(false, nil)
		f.pollService.On("RegisterPoll", ctx, int64(1), interfaces.PollKind, "govpay",
			entities.SymbolVote, interfaces.PollScheme,
			[]string{interfaces.PollOptionPass, interfaces.PollOptionFail}).Return(nil)
		f.pollService.On("SetDetails", ctx, int64(1), "Bounty", "A bounty payout", "details").Return(nil)
		f.pollService.On("Open", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(nil)
		f.configRepo.On("Set", ctx, cfg).Return(nil)

		f.recordRepo.On("Update", ctx, entities.ScopeProposal, int64(42), mock.AnythingOfType("func(*entities.Record) error")).Return(nil)
		f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			evt, ok := e.(events.ProposalOpenedEvent)
			return ok && evt.ProposalID == 42 && evt.BallotID == 1 && evt.Owner == "alice"
		})).Return(nil)

		created, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, attrs)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Ints[entities.KeyBallotID])
		assert.Equal(t, int64(1), cfg.Ints[entities.CfgLastBallotID])

		action := created.Actions[entities.KeyExecOnApproval]
		assert.Equal(t, entities.ActionPassProposal, action.Action)
		assert.Equal(t, "govpay", action.Target)
		assert.False(t, action.NotValidAfter.IsZero())

		f.recordRepo.AssertExpectations(t)
		f.pollService.AssertExpectations(t)
		f.configRepo.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("non-proposal scopes skip the ballot machinery", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()

		attrs := entities.NewRecord("")
		attrs.Names[entities.KeyOwner] = "alice"

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.recordRepo.On("Create", ctx, mock.AnythingOfType("*entities.Record")).Return(nil)

		_, err := f.service().CreateProposal(ctx, "alice", entities.ScopeChallenge, attrs)
		require.NoError(t, err)
		f.pollService.AssertNotCalled(t, "RegisterPoll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects while paused", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()
		cfg.Ints[entities.CfgPaused] = 1

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)

		_, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, payoutProposal("alice"))
		assert.ErrorIs(t, err, entities.ErrPaused)
	})

	t.Run("rejects an actor creating for someone else", func(t *testing.T) {
		f := newProposalFixture()
		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)

		_, err := f.service().CreateProposal(ctx, "mallory", entities.ScopeProposal, payoutProposal("alice"))
		assert.ErrorIs(t, err, entities.ErrUnauthorized)
	})

	t.Run("system account may create for anyone", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()

		attrs := entities.NewRecord("")
		attrs.Names[entities.KeyOwner] = "alice"

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.recordRepo.On("Create", ctx, mock.AnythingOfType("*entities.Record")).Return(nil)

		_, err := f.service().CreateProposal(ctx, "govpay", entities.ScopeChallenge, attrs)
		require.NoError(t, err)
	})

	t.Run("rejects a role proposal without capacity or salary", func(t *testing.T) {
		f := newProposalFixture()
		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)

		attrs := payoutProposal("alice")
		attrs.Names[entities.KeyType] = entities.ScopeRole

		_, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, attrs)
		assert.ErrorIs(t, err, entities.ErrValidation)
	})

	t.Run("assignment proposal derives scaled weekly salaries", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()

		role := entities.NewRecord(entities.ScopeRole)
		role.ID = 3
		role.Names[entities.KeyOwner] = "govpay"
		role.Assets[entities.KeyWeeklyRewardSal] = entities.NewQuantity(10000, entities.SymbolReward)
		role.Assets[entities.KeyWeeklyVoteSal] = entities.NewQuantity(10000, entities.SymbolVote)
		role.Assets[entities.KeyWeeklyUSDSal] = entities.NewQuantity(19230, entities.SymbolUSD)

		attrs := payoutProposal("alice")
		attrs.Names[entities.KeyType] = entities.ScopeAssignment
		attrs.Ints[entities.KeyRoleID] = 3
		attrs.Ints[entities.KeyTimeShareX100] = 5000
		attrs.Ints[entities.KeyStartPeriod] = 1
		attrs.Ints[entities.KeyEndPeriod] = 52

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(role, nil)
		f.periodService.On("CheckCapacity", ctx, int64(3), int64(5000)).Return(nil)
		f.recordRepo.On("Create", ctx, mock.AnythingOfType("*entities.Record")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.Record).ID = 43
		})
		f.pollService.On("Exists", ctx, int64(1)).Return(false, nil)
		f.pollService.On("RegisterPoll", ctx, int64(1), mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.pollService.On("SetDetails", ctx, int64(1), mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.pollService.On("Open", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(nil)
		f.configRepo.On("Set", ctx, cfg).Return(nil)
		f.recordRepo.On("Update", ctx, entities.ScopeProposal, int64(43), mock.AnythingOfType("func(*entities.Record) error")).Return(nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ProposalOpenedEvent")).Return(nil)

		created, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, attrs)
		require.NoError(t, err)
		assert.Equal(t, entities.NewQuantity(5000, entities.SymbolReward), created.Assets[entities.KeyWeeklyRewardSal])
		assert.Equal(t, entities.NewQuantity(9615, entities.SymbolUSD), created.Assets[entities.KeyWeeklyUSDSal])
		// Capacity scans resolve committed assignments through the fk
		// index, so the record must carry its role id there.
		assert.Equal(t, int64(3), created.Ints[entities.KeyFK])

		f.periodService.AssertExpectations(t)
	})

	t.Run("assignment proposal over capacity fails", func(t *testing.T) {
		f := newProposalFixture()

		role := entities.NewRecord(entities.ScopeRole)
		role.ID = 3
		role.Names[entities.KeyOwner] = "govpay"

		attrs := payoutProposal("alice")
		attrs.Names[entities.KeyType] = entities.ScopeAssignment
		attrs.Ints[entities.KeyRoleID] = 3
		attrs.Ints[entities.KeyTimeShareX100] = 9000
		attrs.Ints[entities.KeyStartPeriod] = 1
		attrs.Ints[entities.KeyEndPeriod] = 52

		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)
		f.recordRepo.On("Get", ctx, entities.ScopeRole, int64(3)).Return(role, nil)
		f.periodService.On("CheckCapacity", ctx, int64(3), int64(9000)).Return(entities.ErrCapacityExceeded)

		_, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, attrs)
		assert.ErrorIs(t, err, entities.ErrCapacityExceeded)
		f.recordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects an engine-targeted action the dispatcher cannot route", func(t *testing.T) {
		f := newProposalFixture()
		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)

		attrs := payoutProposal("alice")
		attrs.Names[entities.KeyTrxActionName] = "burnitall"

		_, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, attrs)
		assert.ErrorIs(t, err, entities.ErrValidation)
		f.recordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("custom action names are allowed for external targets", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()

		attrs := payoutProposal("alice")
		attrs.Names[entities.KeyTrxActionTarget] = "othersvc"
		attrs.Names[entities.KeyTrxActionName] = "custom"

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.recordRepo.On("Create", ctx, mock.AnythingOfType("*entities.Record")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.Record).ID = 44
		})
		f.pollService.On("Exists", ctx, int64(1)).Return(false, nil)
		f.pollService.On("RegisterPoll", ctx, int64(1), mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.pollService.On("SetDetails", ctx, int64(1), mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.pollService.On("Open", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(nil)
		f.configRepo.On("Set", ctx, cfg).Return(nil)
		f.recordRepo.On("Update", ctx, entities.ScopeProposal, int64(44), mock.AnythingOfType("func(*entities.Record) error")).Return(nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ProposalOpenedEvent")).Return(nil)

		created, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, attrs)
		require.NoError(t, err)

		action := created.Actions[entities.KeyExecOnApproval]
		assert.Equal(t, "custom", action.Action)
		assert.Equal(t, "othersvc", action.Target)
	})

	t.Run("rejects a reused ballot id", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()
		cfg.Ints[entities.CfgLastBallotID] = 6

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.recordRepo.On("Create", ctx, mock.AnythingOfType("*entities.Record")).Return(nil)
		f.pollService.On("Exists", ctx, int64(7)).Return(true, nil)

		_, err := f.service().CreateProposal(ctx, "alice", entities.ScopeProposal, payoutProposal("alice"))
		assert.ErrorIs(t, err, entities.ErrDuplicateKey)
	})
}

func TestProposalService_CloseProposal(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	openProposal := func() *entities.Record {
		p := payoutProposal("alice")
		p.ID = 42
		p.Ints[entities.KeyBallotID] = 7
		p.Assets[entities.KeyChallengeUSD] = entities.NewQuantity(10000, entities.SymbolUSD)
		p.Actions[entities.KeyExecOnApproval] = entities.DeferredAction{
			Action:        entities.ActionPassProposal,
			Target:        "govpay",
			NotValidAfter: time.Now().Add(24 * time.Hour),
		}
		return p
	}

	tallyOf := func(pass, fail, raw int64) *interfaces.BallotTally {
		return &interfaces.BallotTally{
			TotalRawWeight: entities.NewQuantity(raw, entities.SymbolVote),
			Options: map[string]entities.Quantity{
				interfaces.PollOptionPass: entities.NewQuantity(pass, entities.SymbolVote),
				interfaces.PollOptionFail: entities.NewQuantity(fail, entities.SymbolVote),
			},
		}
	}

	t.Run("quorum and majority execute the approval inline", func(t *testing.T) {
		f := newProposalFixture()
		prop := openProposal()

		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)
		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		f.pollService.On("Tally", ctx, int64(7)).Return(tallyOf(2500, 500, 3000), nil)
		f.pollService.On("TreasurySupply", ctx, entities.SymbolVote).Return(entities.NewQuantity(10000, entities.SymbolVote), nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)

		// Inline pass: payout disbursed, record promoted, original archived.
		f.payrollService.On("MakePayment", ctx, entities.NoPeriod, "alice",
			entities.NewQuantity(10000, entities.SymbolUSD), mock.AnythingOfType("string"),
			entities.NoAssignment, true).Return(nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePayout, false).Return(int64(1), nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePropArchive, true).Return(int64(1), nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ScopeMovedEvent")).Return(nil)

		f.pollService.On("Close", ctx, int64(7), true).Return(nil)
		f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			evt, ok := e.(events.ProposalClosedEvent)
			return ok && evt.Passed && evt.PassVotes == 2500 && evt.FailVotes == 500
		})).Return(nil)

		require.NoError(t, f.service().CloseProposal(ctx, 42))

		f.pollService.AssertExpectations(t)
		f.payrollService.AssertExpectations(t)
		f.recordRepo.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("quorum threshold truncates toward zero", func(t *testing.T) {
		f := newProposalFixture()
		prop := openProposal()

		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)
		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		// 20% of a 10004 supply is 2000.8; the threshold truncates to 2000,
		// so a raw weight of exactly 2000 meets quorum.
		f.pollService.On("Tally", ctx, int64(7)).Return(tallyOf(1500, 500, 2000), nil)
		f.pollService.On("TreasurySupply", ctx, entities.SymbolVote).Return(entities.NewQuantity(10004, entities.SymbolVote), nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)

		f.payrollService.On("MakePayment", ctx, entities.NoPeriod, "alice",
			entities.NewQuantity(10000, entities.SymbolUSD), mock.AnythingOfType("string"),
			entities.NoAssignment, true).Return(nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePayout, false).Return(int64(1), nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePropArchive, true).Return(int64(1), nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ScopeMovedEvent")).Return(nil)
		f.pollService.On("Close", ctx, int64(7), true).Return(nil)
		f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			evt, ok := e.(events.ProposalClosedEvent)
			return ok && evt.Passed && evt.RawWeight == 2000
		})).Return(nil)

		require.NoError(t, f.service().CloseProposal(ctx, 42))
		f.payrollService.AssertExpectations(t)
	})

	t.Run("majority without quorum fails the proposal", func(t *testing.T) {
		f := newProposalFixture()
		prop := openProposal()

		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)
		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		// Raw weight 1500 is below the 2000 threshold on a 10000 supply.
		f.pollService.On("Tally", ctx, int64(7)).Return(tallyOf(1500, 0, 1500), nil)
		f.pollService.On("TreasurySupply", ctx, entities.SymbolVote).Return(entities.NewQuantity(10000, entities.SymbolVote), nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)

		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopeFailedProps, false).Return(int64(1), nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePropArchive, true).Return(int64(1), nil)
		f.pollService.On("Close", ctx, int64(7), true).Return(nil)
		f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			evt, ok := e.(events.ProposalClosedEvent)
			return ok && !evt.Passed
		})).Return(nil)

		require.NoError(t, f.service().CloseProposal(ctx, 42))
		f.payrollService.AssertNotCalled(t, "MakePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.recordRepo.AssertExpectations(t)
	})

	t.Run("tie between pass and fail does not pass", func(t *testing.T) {
		f := newProposalFixture()
		prop := openProposal()

		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)
		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		f.pollService.On("Tally", ctx, int64(7)).Return(tallyOf(1500, 1500, 3000), nil)
		f.pollService.On("TreasurySupply", ctx, entities.SymbolVote).Return(entities.NewQuantity(10000, entities.SymbolVote), nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)

		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopeFailedProps, false).Return(int64(1), nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePropArchive, true).Return(int64(1), nil)
		f.pollService.On("Close", ctx, int64(7), true).Return(nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ProposalClosedEvent")).Return(nil)

		require.NoError(t, f.service().CloseProposal(ctx, 42))
	})

	t.Run("external target goes through the scheduler", func(t *testing.T) {
		f := newProposalFixture()
		cfg := runningConfig()
		prop := openProposal()
		prop.Actions[entities.KeyExecOnApproval] = entities.DeferredAction{
			Action:        "custom",
			Target:        "othersvc",
			NotValidAfter: time.Now().Add(24 * time.Hour),
		}

		f.configRepo.On("GetOrCreate", ctx).Return(cfg, nil)
		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		f.pollService.On("Tally", ctx, int64(7)).Return(tallyOf(2500, 500, 3000), nil)
		f.pollService.On("TreasurySupply", ctx, entities.SymbolVote).Return(entities.NewQuantity(10000, entities.SymbolVote), nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)

		f.configRepo.On("Set", ctx, cfg).Return(nil)
		f.scheduler.On("Schedule", ctx, int64(1), mock.MatchedBy(func(a entities.DeferredAction) bool {
			return a.Action == "custom" && a.Target == "othersvc"
		})).Return(nil)

		f.pollService.On("Close", ctx, int64(7), true).Return(nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ProposalClosedEvent")).Return(nil)

		require.NoError(t, f.service().CloseProposal(ctx, 42))
		assert.Equal(t, int64(1), cfg.Ints[entities.CfgLastSenderID])
		f.scheduler.AssertExpectations(t)
	})

	t.Run("expired approval action aborts the close", func(t *testing.T) {
		f := newProposalFixture()
		prop := openProposal()
		prop.Actions[entities.KeyExecOnApproval] = entities.DeferredAction{
			Action:        entities.ActionPassProposal,
			Target:        "govpay",
			NotValidAfter: time.Now().Add(-time.Hour),
		}

		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)
		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		f.pollService.On("Tally", ctx, int64(7)).Return(tallyOf(2500, 500, 3000), nil)
		f.pollService.On("TreasurySupply", ctx, entities.SymbolVote).Return(entities.NewQuantity(10000, entities.SymbolVote), nil)
		f.auditRepo.On("Append", ctx, mock.AnythingOfType("string")).Return(nil)

		err := f.service().CloseProposal(ctx, 42)
		assert.ErrorIs(t, err, entities.ErrOutOfRange)
		f.pollService.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown proposal fails", func(t *testing.T) {
		f := newProposalFixture()
		f.configRepo.On("GetOrCreate", ctx).Return(runningConfig(), nil)
		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(404)).Return(nil, nil)

		err := f.service().CloseProposal(ctx, 404)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestProposalService_ExecuteApproved(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	defer config.ResetConfig()

	ctx := context.Background()

	t.Run("rejects non-system actors", func(t *testing.T) {
		f := newProposalFixture()

		err := f.service().ExecuteApproved(ctx, "alice", 42)
		assert.ErrorIs(t, err, entities.ErrUnauthorized)
	})

	t.Run("assignment finalizer rejects a duplicate holder", func(t *testing.T) {
		f := newProposalFixture()

		prop := payoutProposal("alice")
		prop.ID = 42
		prop.Names[entities.KeyType] = entities.ScopeAssignment
		prop.Ints[entities.KeyRoleID] = 3
		prop.Ints[entities.KeyTimeShareX100] = 5000

		held := entities.NewRecord(entities.ScopeAssignment)
		held.ID = 8
		held.Ints[entities.KeyRoleID] = 3

		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		f.recordRepo.On("FindByOwner", ctx, entities.ScopeAssignment, "alice").Return([]*entities.Record{held}, nil)

		err := f.service().ExecuteApproved(ctx, "govpay", 42)
		assert.ErrorIs(t, err, entities.ErrDuplicateKey)
		f.recordRepo.AssertNotCalled(t, "Move", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("assignment finalizer re-checks capacity before promoting", func(t *testing.T) {
		f := newProposalFixture()

		prop := payoutProposal("alice")
		prop.ID = 42
		prop.Names[entities.KeyType] = entities.ScopeAssignment
		prop.Ints[entities.KeyRoleID] = 3
		prop.Ints[entities.KeyTimeShareX100] = 5000

		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		f.recordRepo.On("FindByOwner", ctx, entities.ScopeAssignment, "alice").Return([]*entities.Record{}, nil)
		f.periodService.On("CheckCapacity", ctx, int64(3), int64(5000)).Return(nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopeAssignment, false).Return(int64(2), nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePropArchive, true).Return(int64(5), nil)
		f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			evt, ok := e.(events.ScopeMovedEvent)
			return ok && evt.ToScope == entities.ScopeAssignment && evt.ToID == 2
		})).Return(nil)

		require.NoError(t, f.service().ExecuteApproved(ctx, "govpay", 42))
		f.recordRepo.AssertExpectations(t)
		f.periodService.AssertExpectations(t)
	})

	t.Run("payout finalizer skips absent denominations", func(t *testing.T) {
		f := newProposalFixture()

		prop := payoutProposal("alice")
		prop.ID = 42
		prop.Assets[entities.KeyChallengeReward] = entities.NewQuantity(500, entities.SymbolReward)

		f.recordRepo.On("Get", ctx, entities.ScopeProposal, int64(42)).Return(prop, nil)
		f.payrollService.On("MakePayment", ctx, entities.NoPeriod, "alice",
			entities.NewQuantity(500, entities.SymbolReward), mock.AnythingOfType("string"),
			entities.NoAssignment, true).Return(nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePayout, false).Return(int64(1), nil)
		f.recordRepo.On("Move", ctx, entities.ScopeProposal, int64(42), entities.ScopePropArchive, true).Return(int64(1), nil)
		f.publisher.On("Publish", mock.AnythingOfType("events.ScopeMovedEvent")).Return(nil)

		require.NoError(t, f.service().ExecuteApproved(ctx, "govpay", 42))
		f.payrollService.AssertNumberOfCalls(t, "MakePayment", 1)
	})
}
