package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/events"
	"govpay/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// quorumRatio is the fraction of total voting-power supply that must have
// voted for a proposal to close as passed. The threshold is computed by
// float scaling of the integer supply, truncating toward zero.
const quorumRatio = 0.20

// approvalWindow bounds deferred approval execution: the execution layer
// will not accept a replay after this long.
const approvalWindow = 35 * 24 * time.Hour

type proposalService struct {
	config         *config.Config
	recordRepo     interfaces.RecordRepository
	configRepo     interfaces.ConfigRepository
	auditRepo      interfaces.AuditLogRepository
	periodService  interfaces.PeriodService
	payrollService interfaces.PayrollService
	pollService    interfaces.PollService
	scheduler      interfaces.Scheduler
	eventPublisher interfaces.EventPublisher
}

// NewProposalService creates a new proposal lifecycle service
func NewProposalService(
	recordRepo interfaces.RecordRepository,
	configRepo interfaces.ConfigRepository,
	auditRepo interfaces.AuditLogRepository,
	periodService interfaces.PeriodService,
	payrollService interfaces.PayrollService,
	pollService interfaces.PollService,
	scheduler interfaces.Scheduler,
	eventPublisher interfaces.EventPublisher,
) interfaces.ProposalService {
	return &proposalService{
		config:         config.Get(),
		recordRepo:     recordRepo,
		configRepo:     configRepo,
		auditRepo:      auditRepo,
		periodService:  periodService,
		payrollService: payrollService,
		pollService:    pollService,
		scheduler:      scheduler,
		eventPublisher: eventPublisher,
	}
}

// CreateProposal validates and stores a record. Records in the proposal
// scope additionally get a registered, opened poll and a deferred
// approval action addressed at the configured target.
func (s *proposalService) CreateProposal(ctx context.Context, actor, scope string, attrs *entities.Record) (*entities.Record, error) {
	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if paused, err := cfg.Paused(); err != nil {
		return nil, err
	} else if paused {
		return nil, fmt.Errorf("%w: try again later", entities.ErrPaused)
	}

	attrs.EnsureMaps()
	attrs.Scope = scope
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	owner := attrs.Owner()
	if err := requireEither(actor, owner, s.config.SystemAccount); err != nil {
		return nil, err
	}

	// Stamp the versions active at creation time.
	attrs.Strings[entities.KeyClientVersion] = cfg.Strings[entities.KeyClientVersion]
	attrs.Strings[entities.KeyContractVersion] = cfg.Strings[entities.KeyContractVersion]

	// Deferred approval action: replayed as a fresh top-level call, so the
	// handler revalidates everything.
	target := attrs.Names[entities.KeyTrxActionTarget]
	if target == "" {
		target = s.config.SystemAccount
	}
	actionName := attrs.Names[entities.KeyTrxActionName]
	if actionName == "" {
		actionName = entities.ActionPassProposal
	}

	if scope == entities.ScopeProposal {
		// Actions addressed at this engine replay through the dispatcher,
		// which routes a closed set of action names. Anything else would be
		// accepted now and die undeliverable after the vote.
		if target == s.config.SystemAccount {
			switch actionName {
			case entities.ActionPassProposal, entities.ActionClearAuditLog:
			default:
				return nil, fmt.Errorf("%w: action %q is not dispatchable by this engine", entities.ErrValidation, actionName)
			}
		}
		if err := s.validateProposalType(ctx, attrs); err != nil {
			return nil, err
		}
	}

	if err := s.recordRepo.Create(ctx, attrs); err != nil {
		return nil, fmt.Errorf("failed to create record in scope %s: %w", scope, err)
	}

	if scope != entities.ScopeProposal {
		return attrs, nil
	}

	ballotID, err := s.registerBallot(ctx, cfg, attrs)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(entities.PassProposalPayload{ProposalID: attrs.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal approval payload: %w", err)
	}
	approval := entities.DeferredAction{
		Action:        actionName,
		Target:        target,
		Payload:       payload,
		NotValidAfter: time.Now().Add(approvalWindow),
	}

	err = s.recordRepo.Update(ctx, scope, attrs.ID, func(r *entities.Record) error {
		r.Ints[entities.KeyBallotID] = ballotID
		r.Names[entities.KeyTrxActionTarget] = target
		r.Actions[entities.KeyExecOnApproval] = approval
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stamp proposal %d: %w", attrs.ID, err)
	}
	attrs.Ints[entities.KeyBallotID] = ballotID
	attrs.Names[entities.KeyTrxActionTarget] = target
	attrs.Actions[entities.KeyExecOnApproval] = approval

	if err := s.eventPublisher.Publish(events.ProposalOpenedEvent{
		ProposalID:   attrs.ID,
		ProposalType: attrs.Type(),
		Owner:        owner,
		BallotID:     ballotID,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish proposal opened event: %w", err)
	}

	log.WithFields(log.Fields{
		"proposalID": attrs.ID,
		"type":       attrs.Type(),
		"owner":      owner,
		"ballotID":   ballotID,
	}).Info("Proposal created and poll opened")

	return attrs, nil
}

// validateProposalType runs the business rules for the proposal's declared
// type before anything is committed.
func (s *proposalService) validateProposalType(ctx context.Context, attrs *entities.Record) error {
	switch attrs.Type() {
	case entities.ScopeRole:
		return s.validateRole(attrs)
	case entities.ScopeAssignment:
		return s.validateAssignment(ctx, attrs)
	case entities.ScopePayout:
		// Assets are taken verbatim from the request.
		return nil
	default:
		return fmt.Errorf("%w: unknown proposal type %q", entities.ErrValidation, attrs.Type())
	}
}

func (s *proposalService) validateRole(attrs *entities.Record) error {
	capacity, ok := attrs.Ints[entities.KeyFulltimeCapX100]
	if !ok || capacity <= 0 {
		return fmt.Errorf("%w: role requires positive fulltime_capacity_x100, got %d", entities.ErrValidation, capacity)
	}
	salary, ok := attrs.Assets[entities.KeyAnnualUSDSalary]
	if !ok || salary.Amount <= 0 {
		return fmt.Errorf("%w: role requires positive annual_usd_salary, got %s", entities.ErrValidation, salary)
	}
	return nil
}

func (s *proposalService) validateAssignment(ctx context.Context, attrs *entities.Record) error {
	roleID, ok := attrs.Ints[entities.KeyRoleID]
	if !ok {
		return fmt.Errorf("%w: assignment requires role_id", entities.ErrValidation)
	}
	timeShare, ok := attrs.Ints[entities.KeyTimeShareX100]
	if !ok || timeShare <= 0 || timeShare > 10000 {
		return fmt.Errorf("%w: time_share_x100 must be in (0, 10000], got %d", entities.ErrValidation, timeShare)
	}
	for _, key := range []string{entities.KeyStartPeriod, entities.KeyEndPeriod} {
		if _, ok := attrs.Ints[key]; !ok {
			return fmt.Errorf("%w: assignment requires %s", entities.ErrValidation, key)
		}
	}

	role, err := s.recordRepo.Get(ctx, entities.ScopeRole, roleID)
	if err != nil {
		return fmt.Errorf("failed to get role %d: %w", roleID, err)
	}
	if role == nil {
		return fmt.Errorf("%w: role id %d does not exist", entities.ErrNotFound, roleID)
	}

	// Capacity scans find committed assignments through the fk index, so
	// the record must carry its role id there as well.
	attrs.Ints[entities.KeyFK] = roleID

	if err := s.periodService.CheckCapacity(ctx, roleID, timeShare); err != nil {
		return err
	}

	if minShare, ok := role.Ints[entities.KeyMinTimeShareX100]; ok && timeShare < minShare {
		return fmt.Errorf("%w: time_share_x100 %d is below role minimum %d", entities.ErrValidation, timeShare, minShare)
	}

	// Weekly salaries: the role's weekly figures scaled by the committed
	// time share, truncating toward zero.
	ratio := float64(timeShare) / 10000.0
	for _, key := range []string{entities.KeyWeeklyRewardSal, entities.KeyWeeklyVoteSal, entities.KeyWeeklyUSDSal} {
		weekly, err := role.Asset(key)
		if err != nil {
			return err
		}
		attrs.Assets[key] = weekly.Scale(ratio)
	}
	return nil
}

// registerBallot allocates the next ballot id, registers a binary
// pass/fail poll weighted by voting power, attaches the details and opens
// voting until now + voting_duration_sec.
func (s *proposalService) registerBallot(ctx context.Context, cfg *entities.ConfigState, attrs *entities.Record) (int64, error) {
	for _, key := range []string{entities.KeyTitle, entities.KeyDescription, entities.KeyContent} {
		if _, ok := attrs.Strings[key]; !ok {
			return 0, fmt.Errorf("%w: proposal requires string attribute %q", entities.ErrValidation, key)
		}
	}

	ballotID := cfg.NextBallotID()
	used, err := s.pollService.Exists(ctx, ballotID)
	if err != nil {
		return 0, fmt.Errorf("failed to check ballot id %d: %w", ballotID, err)
	}
	if used {
		return 0, fmt.Errorf("%w: ballot id %d has already been used", entities.ErrDuplicateKey, ballotID)
	}

	options := []string{interfaces.PollOptionPass, interfaces.PollOptionFail}
	if err := s.pollService.RegisterPoll(ctx, ballotID, interfaces.PollKind, s.config.SystemAccount, entities.SymbolVote, interfaces.PollScheme, options); err != nil {
		return 0, fmt.Errorf("failed to register poll %d: %w", ballotID, err)
	}
	if err := s.pollService.SetDetails(ctx, ballotID,
		attrs.Strings[entities.KeyTitle],
		attrs.Strings[entities.KeyDescription],
		attrs.Strings[entities.KeyContent],
	); err != nil {
		return 0, fmt.Errorf("failed to set poll details %d: %w", ballotID, err)
	}
	expiration := time.Now().Add(cfg.VotingDuration())
	if err := s.pollService.Open(ctx, ballotID, expiration); err != nil {
		return 0, fmt.Errorf("failed to open poll %d: %w", ballotID, err)
	}

	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return 0, fmt.Errorf("failed to persist ballot counter: %w", err)
	}
	return ballotID, nil
}

// CloseProposal reads the poll tallies, applies quorum and majority, and
// transitions the proposal out of the proposal scope. Callers must ensure
// closing happens at most once; a second close on an archived proposal
// fails with ErrNotFound.
func (s *proposalService) CloseProposal(ctx context.Context, proposalID int64) error {
	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if paused, err := cfg.Paused(); err != nil {
		return err
	} else if paused {
		return fmt.Errorf("%w: try again later", entities.ErrPaused)
	}

	prop, err := s.recordRepo.Get(ctx, entities.ScopeProposal, proposalID)
	if err != nil {
		return fmt.Errorf("failed to get proposal %d: %w", proposalID, err)
	}
	if prop == nil {
		return fmt.Errorf("%w: scope %s, object id %d does not exist", entities.ErrNotFound, entities.ScopeProposal, proposalID)
	}
	ballotID, err := prop.Int(entities.KeyBallotID)
	if err != nil {
		return err
	}

	tally, err := s.pollService.Tally(ctx, ballotID)
	if err != nil {
		return fmt.Errorf("failed to read tally for ballot %d: %w", ballotID, err)
	}
	supply, err := s.pollService.TreasurySupply(ctx, entities.SymbolVote)
	if err != nil {
		return fmt.Errorf("failed to read treasury supply for %s: %w", entities.SymbolVote, err)
	}

	quorumThreshold := supply.Scale(quorumRatio)
	votesPass := tally.Options[interfaces.PollOptionPass]
	votesFail := tally.Options[interfaces.PollOptionFail]
	passed := tally.TotalRawWeight.GreaterOrEqual(quorumThreshold) && votesPass.GreaterThan(votesFail)

	s.note(ctx, fmt.Sprintf(
		"Closing proposal %d. Total vote weight: %s; total supply: %s; quorum threshold: %s; votes passing: %s; votes failing: %s; passed: %t",
		proposalID, tally.TotalRawWeight, supply, quorumThreshold, votesPass, votesFail, passed))

	if passed {
		if err := s.dispatchApproval(ctx, cfg, prop); err != nil {
			return err
		}
	} else {
		// Failed proposals leave a two-hop trail: a kept copy under
		// failedprops, the archived copy under proparchive.
		if _, err := s.recordRepo.Move(ctx, entities.ScopeProposal, proposalID, entities.ScopeFailedProps, false); err != nil {
			return fmt.Errorf("failed to move proposal %d to %s: %w", proposalID, entities.ScopeFailedProps, err)
		}
		if _, err := s.recordRepo.Move(ctx, entities.ScopeProposal, proposalID, entities.ScopePropArchive, true); err != nil {
			return fmt.Errorf("failed to archive proposal %d: %w", proposalID, err)
		}
	}

	// The poll is finalized whatever the outcome.
	if err := s.pollService.Close(ctx, ballotID, true); err != nil {
		return fmt.Errorf("failed to close ballot %d: %w", ballotID, err)
	}

	if err := s.eventPublisher.Publish(events.ProposalClosedEvent{
		ProposalID: proposalID,
		BallotID:   ballotID,
		Passed:     passed,
		PassVotes:  votesPass.Amount,
		FailVotes:  votesFail.Amount,
		RawWeight:  tally.TotalRawWeight.Amount,
	}); err != nil {
		return fmt.Errorf("failed to publish proposal closed event: %w", err)
	}

	log.WithFields(log.Fields{
		"proposalID": proposalID,
		"ballotID":   ballotID,
		"passed":     passed,
	}).Info("Proposal closed")

	return nil
}

// dispatchApproval runs the proposal's exec_on_approval action. When the
// action targets this engine's default handler it is dispatched
// synchronously; anything else goes through the scheduler.
func (s *proposalService) dispatchApproval(ctx context.Context, cfg *entities.ConfigState, prop *entities.Record) error {
	action, err := prop.Action(entities.KeyExecOnApproval)
	if err != nil {
		return err
	}
	if action.Expired(time.Now()) {
		return fmt.Errorf("%w: approval action for proposal %d expired at %s", entities.ErrOutOfRange, prop.ID, action.NotValidAfter)
	}

	if action.Target == s.config.SystemAccount && action.Action == entities.ActionPassProposal {
		return s.ExecuteApproved(ctx, s.config.SystemAccount, prop.ID)
	}

	senderID := cfg.NextSenderID()
	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return fmt.Errorf("failed to persist sender counter: %w", err)
	}
	if err := s.scheduler.Schedule(ctx, senderID, action); err != nil {
		return fmt.Errorf("failed to schedule approval action for proposal %d: %w", prop.ID, err)
	}
	return nil
}

// ExecuteApproved promotes a passed proposal: runs the type finalizer,
// copies the record into its approved scope and archives the original.
// Re-entries from the scheduler land here as fresh calls, so every
// invariant is re-validated.
func (s *proposalService) ExecuteApproved(ctx context.Context, actor string, proposalID int64) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}

	prop, err := s.recordRepo.Get(ctx, entities.ScopeProposal, proposalID)
	if err != nil {
		return fmt.Errorf("failed to get proposal %d: %w", proposalID, err)
	}
	if prop == nil {
		return fmt.Errorf("%w: proposal id does not exist: %d", entities.ErrNotFound, proposalID)
	}
	typeName := prop.Type()
	if typeName == "" {
		return fmt.Errorf("%w: proposal %d has no type to promote to", entities.ErrValidation, proposalID)
	}

	switch typeName {
	case entities.ScopeRole:
		// Nothing beyond the creation-time validation.
	case entities.ScopeAssignment:
		if err := s.finalizeAssignment(ctx, prop); err != nil {
			return err
		}
	case entities.ScopePayout:
		if err := s.finalizePayout(ctx, prop); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown proposal type %q on proposal %d", entities.ErrValidation, typeName, proposalID)
	}

	newID, err := s.recordRepo.Move(ctx, entities.ScopeProposal, proposalID, typeName, false)
	if err != nil {
		return fmt.Errorf("failed to promote proposal %d to %s: %w", proposalID, typeName, err)
	}
	if _, err := s.recordRepo.Move(ctx, entities.ScopeProposal, proposalID, entities.ScopePropArchive, true); err != nil {
		return fmt.Errorf("failed to archive proposal %d: %w", proposalID, err)
	}

	if err := s.eventPublisher.Publish(events.ScopeMovedEvent{
		FromScope: entities.ScopeProposal,
		FromID:    proposalID,
		ToScope:   typeName,
		ToID:      newID,
		Deleted:   true,
	}); err != nil {
		return fmt.Errorf("failed to publish scope moved event: %w", err)
	}

	log.WithFields(log.Fields{
		"proposalID": proposalID,
		"type":       typeName,
		"newID":      newID,
	}).Info("Approved proposal executed")

	return nil
}

// finalizeAssignment re-checks the duplicate-assignment guard and capacity
// before the record enters the assignment scope. Creation-time checks do
// not carry across the deferred boundary.
func (s *proposalService) finalizeAssignment(ctx context.Context, prop *entities.Record) error {
	roleID, err := prop.Int(entities.KeyRoleID)
	if err != nil {
		return err
	}
	timeShare, err := prop.Int(entities.KeyTimeShareX100)
	if err != nil {
		return err
	}

	owned, err := s.recordRepo.FindByOwner(ctx, entities.ScopeAssignment, prop.Owner())
	if err != nil {
		return fmt.Errorf("failed to scan assignments for %s: %w", prop.Owner(), err)
	}
	for _, a := range owned {
		if a.Ints[entities.KeyRoleID] == roleID {
			return fmt.Errorf("%w: %s already holds assignment %d for role %d", entities.ErrDuplicateKey, prop.Owner(), a.ID, roleID)
		}
	}

	return s.periodService.CheckCapacity(ctx, roleID, timeShare)
}

// finalizePayout disburses the payout's declared amounts to the owner.
func (s *proposalService) finalizePayout(ctx context.Context, prop *entities.Record) error {
	memo := fmt.Sprintf("Approved payout. Proposal ID: %d; Title: %s", prop.ID, prop.Strings[entities.KeyTitle])
	for _, key := range []string{entities.KeyChallengeReward, entities.KeyChallengeUSD, entities.KeyChallengeVote} {
		quantity, ok := prop.Assets[key]
		if !ok {
			continue
		}
		if err := s.payrollService.MakePayment(ctx, entities.NoPeriod, prop.Owner(), quantity, memo, entities.NoAssignment, true); err != nil {
			return fmt.Errorf("failed to pay out %s for proposal %d: %w", quantity, prop.ID, err)
		}
	}
	return nil
}

// note appends to the domain audit log, tolerating failures: the note log
// never blocks the operation it describes.
func (s *proposalService) note(ctx context.Context, message string) {
	if err := s.auditRepo.Append(ctx, message); err != nil {
		log.WithError(err).Warn("Failed to append audit note")
	}
}
