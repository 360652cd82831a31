package services

import (
	"context"
	"fmt"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/events"
	"govpay/domain/interfaces"
)

// enrollment grants: one vote and a token reward for joining.
var (
	enrollVoteGrant   = entities.NewQuantity(100, entities.SymbolVote)
	enrollRewardGrant = entities.NewQuantity(1, entities.SymbolReward)
)

type membershipService struct {
	config         *config.Config
	memberRepo     interfaces.MemberRepository
	applicantRepo  interfaces.ApplicantRepository
	recordRepo     interfaces.RecordRepository
	configRepo     interfaces.ConfigRepository
	pollService    interfaces.PollService
	payrollService interfaces.PayrollService
	eventPublisher interfaces.EventPublisher
}

// NewMembershipService creates a new membership registry service
func NewMembershipService(
	memberRepo interfaces.MemberRepository,
	applicantRepo interfaces.ApplicantRepository,
	recordRepo interfaces.RecordRepository,
	configRepo interfaces.ConfigRepository,
	pollService interfaces.PollService,
	payrollService interfaces.PayrollService,
	eventPublisher interfaces.EventPublisher,
) interfaces.MembershipService {
	return &membershipService{
		config:         config.Get(),
		memberRepo:     memberRepo,
		applicantRepo:  applicantRepo,
		recordRepo:     recordRepo,
		configRepo:     configRepo,
		pollService:    pollService,
		payrollService: payrollService,
		eventPublisher: eventPublisher,
	}
}

func (s *membershipService) pausedGate(ctx context.Context) error {
	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if paused, err := cfg.Paused(); err != nil {
		return err
	} else if paused {
		return fmt.Errorf("%w: try again later", entities.ErrPaused)
	}
	return nil
}

// Apply files or refreshes a membership application. Existing members
// cannot re-apply.
func (s *membershipService) Apply(ctx context.Context, applicant, content string) error {
	if err := s.pausedGate(ctx); err != nil {
		return err
	}

	member, err := s.memberRepo.Get(ctx, applicant)
	if err != nil {
		return fmt.Errorf("failed to get member %s: %w", applicant, err)
	}
	if member != nil {
		return fmt.Errorf("%w: applicant is already a member: %s", entities.ErrDuplicateKey, applicant)
	}

	if _, err := s.applicantRepo.Upsert(ctx, applicant, content); err != nil {
		return fmt.Errorf("failed to save application for %s: %w", applicant, err)
	}
	return nil
}

// Enroll promotes an applicant to member, granting one vote and a welcome
// reward. Idempotency is guarded by the member registry.
func (s *membershipService) Enroll(ctx context.Context, enroller, applicant, content string) error {
	if err := s.pausedGate(ctx); err != nil {
		return err
	}

	application, err := s.applicantRepo.Get(ctx, applicant)
	if err != nil {
		return fmt.Errorf("failed to get applicant %s: %w", applicant, err)
	}
	if application == nil {
		return fmt.Errorf("%w: applicant not found: %s", entities.ErrNotFound, applicant)
	}

	member, err := s.memberRepo.Get(ctx, applicant)
	if err != nil {
		return fmt.Errorf("failed to get member %s: %w", applicant, err)
	}
	if member != nil {
		return fmt.Errorf("%w: account is already a member: %s", entities.ErrDuplicateKey, applicant)
	}

	memo := "Welcome to the DAO!"
	if err := s.pollService.Mint(ctx, applicant, enrollVoteGrant, memo); err != nil {
		return fmt.Errorf("failed to mint enrollment vote for %s: %w", applicant, err)
	}
	if err := s.payrollService.MakePayment(ctx, entities.NoPeriod, applicant, enrollRewardGrant, memo, entities.NoAssignment, true); err != nil {
		return err
	}

	if _, err := s.memberRepo.Create(ctx, applicant); err != nil {
		return fmt.Errorf("failed to create member %s: %w", applicant, err)
	}
	if err := s.applicantRepo.Delete(ctx, applicant); err != nil {
		return fmt.Errorf("failed to remove application for %s: %w", applicant, err)
	}

	if err := s.eventPublisher.Publish(events.MemberEnrolledEvent{Account: applicant, Enroller: enroller}); err != nil {
		return fmt.Errorf("failed to publish member enrolled event: %w", err)
	}
	return nil
}

// AddMember adds an account to the registry directly.
func (s *membershipService) AddMember(ctx context.Context, actor, account string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if _, err := s.memberRepo.Create(ctx, account); err != nil {
		return fmt.Errorf("failed to add member %s: %w", account, err)
	}
	return nil
}

// RemoveMember removes an account from the registry.
func (s *membershipService) RemoveMember(ctx context.Context, actor, account string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if err := s.memberRepo.Delete(ctx, account); err != nil {
		return fmt.Errorf("failed to remove member %s: %w", account, err)
	}
	return nil
}

// RemoveApplicant discards a pending application.
func (s *membershipService) RemoveApplicant(ctx context.Context, actor, account string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if err := s.applicantRepo.Delete(ctx, account); err != nil {
		return fmt.Errorf("failed to remove applicant %s: %w", account, err)
	}
	return nil
}

// CompleteChallenge pays the one-time reward for a challenge record.
// Idempotent per (member, challenge).
func (s *membershipService) CompleteChallenge(ctx context.Context, completer string, challengeID int64) error {
	if err := s.pausedGate(ctx); err != nil {
		return err
	}

	challenge, err := s.recordRepo.Get(ctx, entities.ScopeChallenge, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge %d: %w", challengeID, err)
	}
	if challenge == nil {
		return fmt.Errorf("%w: challenge does not exist: %d", entities.ErrNotFound, challengeID)
	}

	member, err := s.memberRepo.Get(ctx, completer)
	if err != nil {
		return fmt.Errorf("failed to get member %s: %w", completer, err)
	}
	if member == nil {
		return fmt.Errorf("%w: challenge completer is not a member: %s", entities.ErrNotFound, completer)
	}
	if member.HasCompleted(challengeID) {
		return fmt.Errorf("%w: member %s has already completed challenge %d", entities.ErrDuplicateKey, completer, challengeID)
	}

	member.CompletedChallenges = append(member.CompletedChallenges, challengeID)
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return fmt.Errorf("failed to update member %s: %w", completer, err)
	}

	memo := fmt.Sprintf("One-time challenge reward. Challenge ID: %d", challengeID)
	for _, key := range []string{entities.KeyChallengeReward, entities.KeyChallengeUSD, entities.KeyChallengeVote} {
		quantity, ok := challenge.Assets[key]
		if !ok {
			continue
		}
		if err := s.payrollService.MakePayment(ctx, entities.NoPeriod, completer, quantity, memo, challengeID, true); err != nil {
			return err
		}
	}
	return nil
}
