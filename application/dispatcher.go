package application

import (
	"context"
	"encoding/json"
	"fmt"

	"govpay/config"
	"govpay/domain/entities"

	log "github.com/sirupsen/logrus"
)

// Dispatcher replays deferred actions as fresh top-level engine calls.
// Nothing carries over from the scheduling call; every re-entry runs the
// full authorization and validation path again.
type Dispatcher struct {
	engine *Engine
	config *config.Config
}

// NewDispatcher creates a new deferred-action dispatcher
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{
		engine: engine,
		config: config.Get(),
	}
}

// Dispatch routes a replayed deferred action to its engine operation
func (d *Dispatcher) Dispatch(ctx context.Context, senderID int64, action entities.DeferredAction) error {
	log.WithFields(log.Fields{
		"senderId": senderID,
		"action":   action.Action,
		"target":   action.Target,
	}).Info("Dispatching deferred action")

	switch action.Action {
	case entities.ActionPassProposal:
		var payload entities.PassProposalPayload
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal pass-proposal payload: %w", err)
		}
		return d.engine.ExecuteApproved(ctx, d.config.SystemAccount, payload.ProposalID)

	case entities.ActionClearAuditLog:
		var payload entities.ClearAuditLogPayload
		if err := json.Unmarshal(action.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal clear-audit-log payload: %w", err)
		}
		return d.engine.ClearAuditLog(ctx, d.config.SystemAccount, payload.StartingID, payload.BatchSize)

	default:
		return fmt.Errorf("unknown deferred action %q", action.Action)
	}
}
