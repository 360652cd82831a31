package services

import (
	"context"
	"fmt"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/interfaces"
)

type configService struct {
	config     *config.Config
	configRepo interfaces.ConfigRepository
}

// NewConfigService creates a new domain configuration service
func NewConfigService(configRepo interfaces.ConfigRepository) interfaces.ConfigService {
	return &configService{
		config:     config.Get(),
		configRepo: configRepo,
	}
}

func (s *configService) Get(ctx context.Context) (*entities.ConfigState, error) {
	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// SetConfig replaces the configuration wholesale, retaining the ballot and
// sender counters when the new maps omit them. Required keys are validated
// on every write.
func (s *configService) SetConfig(ctx context.Context, actor string, cfg *entities.ConfigState) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}

	current, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, counter := range []string{entities.CfgLastBallotID, entities.CfgLastSenderID} {
		if _, ok := cfg.Ints[counter]; !ok {
			if v, ok := current.Ints[counter]; ok {
				cfg.Ints[counter] = v
			}
		}
	}
	cfg.Version = current.Version

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}
	return nil
}

// TogglePause flips the global paused flag.
func (s *configService) TogglePause(ctx context.Context, actor string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}

	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Ints[entities.CfgPaused] == 0 {
		cfg.Ints[entities.CfgPaused] = 1
	} else {
		cfg.Ints[entities.CfgPaused] = 0
	}
	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return fmt.Errorf("failed to persist pause flag: %w", err)
	}
	return nil
}

// SetLastBallot overrides the ballot counter.
func (s *configService) SetLastBallot(ctx context.Context, actor string, ballotID int64) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}

	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Ints[entities.CfgLastBallotID] = ballotID
	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return fmt.Errorf("failed to persist ballot counter: %w", err)
	}
	return nil
}

// UpdateVersion records a component's deployed version string.
func (s *configService) UpdateVersion(ctx context.Context, component, version string) error {
	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Strings[component] = version
	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return fmt.Errorf("failed to persist version for %s: %w", component, err)
	}
	return nil
}
