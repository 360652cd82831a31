package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"govpay/config"
	"govpay/domain/entities"
	"govpay/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// continuationWindow bounds a deferred deletion continuation. Stale
// continuations are dropped rather than replayed.
const continuationWindow = time.Hour

type adminService struct {
	config      *config.Config
	recordRepo  interfaces.RecordRepository
	paymentRepo interfaces.PaymentRepository
	auditRepo   interfaces.AuditLogRepository
	configRepo  interfaces.ConfigRepository
	scheduler   interfaces.Scheduler
}

// NewAdminService creates a new administrative maintenance service
func NewAdminService(
	recordRepo interfaces.RecordRepository,
	paymentRepo interfaces.PaymentRepository,
	auditRepo interfaces.AuditLogRepository,
	configRepo interfaces.ConfigRepository,
	scheduler interfaces.Scheduler,
) interfaces.AdminService {
	return &adminService{
		config:      config.Get(),
		recordRepo:  recordRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		configRepo:  configRepo,
		scheduler:   scheduler,
	}
}

// EraseScope removes every record in a scope, row by row. Idempotent and
// retriable; a crash mid-range leaves a partially-cleared scope.
func (s *adminService) EraseScope(ctx context.Context, actor, scope string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	removed, err := s.recordRepo.DeleteAll(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to erase scope %s: %w", scope, err)
	}
	log.WithFields(log.Fields{"scope": scope, "removed": removed}).Info("Scope erased")
	return nil
}

// EraseRecord removes a single record.
func (s *adminService) EraseRecord(ctx context.Context, actor, scope string, id int64) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if err := s.recordRepo.Delete(ctx, scope, id); err != nil {
		return fmt.Errorf("failed to erase record %s/%d: %w", scope, id, err)
	}
	return nil
}

// EraseRange removes records with id in [begin, end] inclusive, skipping
// gaps. Idempotent and retriable.
func (s *adminService) EraseRange(ctx context.Context, actor, scope string, begin, end int64) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if end < begin {
		return fmt.Errorf("%w: end id %d precedes begin id %d", entities.ErrValidation, end, begin)
	}
	removed, err := s.recordRepo.DeleteRange(ctx, scope, begin, end)
	if err != nil {
		return fmt.Errorf("failed to erase records %s/[%d,%d]: %w", scope, begin, end, err)
	}
	log.WithFields(log.Fields{"scope": scope, "begin": begin, "end": end, "removed": removed}).Info("Record range erased")
	return nil
}

// ResetPayments clears the general payment ledger.
func (s *adminService) ResetPayments(ctx context.Context, actor string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if _, err := s.paymentRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to reset payments: %w", err)
	}
	return nil
}

// ClearAuditLog deletes one batch of notes and, when more remain,
// schedules a continuation that re-enters as a fresh call.
func (s *adminService) ClearAuditLog(ctx context.Context, actor string, startingID, batchSize int64) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", entities.ErrValidation, batchSize)
	}

	nextID, err := s.auditRepo.DeleteBatch(ctx, startingID, batchSize)
	if err != nil {
		return fmt.Errorf("failed to clear audit log batch at %d: %w", startingID, err)
	}
	if nextID == 0 {
		return nil
	}

	payload, err := json.Marshal(entities.ClearAuditLogPayload{StartingID: nextID, BatchSize: batchSize})
	if err != nil {
		return fmt.Errorf("failed to marshal continuation payload: %w", err)
	}

	cfg, err := s.configRepo.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	senderID := cfg.NextSenderID()
	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return fmt.Errorf("failed to persist sender counter: %w", err)
	}

	continuation := entities.DeferredAction{
		Action:        entities.ActionClearAuditLog,
		Target:        s.config.SystemAccount,
		Payload:       payload,
		NotValidAfter: time.Now().Add(continuationWindow),
	}
	if err := s.scheduler.Schedule(ctx, senderID, continuation); err != nil {
		return fmt.Errorf("failed to schedule audit log continuation: %w", err)
	}
	return nil
}

// Note appends a line to the domain audit log.
func (s *adminService) Note(ctx context.Context, actor, message string) error {
	if err := requireSystem(actor, s.config.SystemAccount); err != nil {
		return err
	}
	if err := s.auditRepo.Append(ctx, message); err != nil {
		return fmt.Errorf("failed to append audit note: %w", err)
	}
	return nil
}
