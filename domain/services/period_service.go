package services

import (
	"context"
	"fmt"
	"time"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/events"
	"govpay/domain/interfaces"
)

type periodService struct {
	config         *config.Config
	periodRepo     interfaces.PeriodRepository
	recordRepo     interfaces.RecordRepository
	eventPublisher interfaces.EventPublisher
}

// NewPeriodService creates a new period/capacity ledger service
func NewPeriodService(
	periodRepo interfaces.PeriodRepository,
	recordRepo interfaces.RecordRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.PeriodService {
	return &periodService{
		config:         config.Get(),
		periodRepo:     periodRepo,
		recordRepo:     recordRepo,
		eventPublisher: eventPublisher,
	}
}

// AddPeriod appends a new payroll period. No uniqueness check on date
// ranges; overlapping periods are the administrator's responsibility.
func (s *periodService) AddPeriod(ctx context.Context, actor string, start, end time.Time) (*entities.Period, error) {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: period end %s must be after start %s", entities.ErrValidation, end, start)
	}

	period, err := s.periodRepo.Create(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to create period: %w", err)
	}

	if err := s.eventPublisher.Publish(events.PeriodAddedEvent{PeriodID: period.ID}); err != nil {
		return nil, fmt.Errorf("failed to publish period added event: %w", err)
	}
	return period, nil
}

// RemovePeriods deletes periods with id in [begin, end] inclusive. The
// begin id must exist; gaps inside the range are skipped.
func (s *periodService) RemovePeriods(ctx context.Context, actor string, begin, end int64) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if end < begin {
		return fmt.Errorf("%w: end period id %d precedes begin period id %d", entities.ErrValidation, end, begin)
	}

	first, err := s.periodRepo.Get(ctx, begin)
	if err != nil {
		return fmt.Errorf("failed to get period %d: %w", begin, err)
	}
	if first == nil {
		return fmt.Errorf("%w: begin period id not found: %d", entities.ErrNotFound, begin)
	}

	if _, err := s.periodRepo.DeleteRange(ctx, begin, end); err != nil {
		return fmt.Errorf("failed to delete periods [%d, %d]: %w", begin, end, err)
	}
	return nil
}

// ResetPeriods deletes every period.
func (s *periodService) ResetPeriods(ctx context.Context, actor string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if _, err := s.periodRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to reset periods: %w", err)
	}
	return nil
}

// CheckCapacity sums the committed time-share across the role's existing
// assignments and fails if the requested share would overflow the role's
// full-time capacity. All capacity arithmetic is integer.
func (s *periodService) CheckCapacity(ctx context.Context, roleID, requestedTimeShare int64) error {
	role, err := s.recordRepo.Get(ctx, entities.ScopeRole, roleID)
	if err != nil {
		return fmt.Errorf("failed to get role %d: %w", roleID, err)
	}
	if role == nil {
		return fmt.Errorf("%w: role id %d does not exist", entities.ErrNotFound, roleID)
	}
	capacity, err := role.Int(entities.KeyFulltimeCapX100)
	if err != nil {
		return err
	}

	assignments, err := s.recordRepo.FindByFK(ctx, entities.ScopeAssignment, roleID)
	if err != nil {
		return fmt.Errorf("failed to scan assignments for role %d: %w", roleID, err)
	}
	var committed int64
	for _, a := range assignments {
		committed += a.Ints[entities.KeyTimeShareX100]
	}

	if committed+requestedTimeShare > capacity {
		return fmt.Errorf("%w: role %d capacity %d would be exceeded: committed %d + requested %d",
			entities.ErrCapacityExceeded, roleID, capacity, committed, requestedTimeShare)
	}
	return nil
}
