package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"govpay/domain/entities"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const deferredSubject = "governance.deferred.requests"

// deferredEnvelope wraps a scheduled action with its sender id so the
// re-entry path can trace the request back to the originating call.
type deferredEnvelope struct {
	RequestID string                  `json:"request_id"`
	SenderID  int64                   `json:"sender_id"`
	Action    entities.DeferredAction `json:"action"`
}

// NATSScheduler implements the Scheduler interface over a JetStream
// stream. Delivery back into the engine happens through StartDispatch;
// actions whose window has closed are acknowledged and dropped.
type NATSScheduler struct {
	natsClient *NATSClient
}

// NewNATSScheduler creates a new NATS-backed scheduler
func NewNATSScheduler(natsClient *NATSClient) *NATSScheduler {
	return &NATSScheduler{natsClient: natsClient}
}

// EnsureDeferredStream ensures the deferred_requests stream exists
func (s *NATSScheduler) EnsureDeferredStream() error {
	return s.natsClient.ensureStream("deferred_requests", "Deferred action requests", []string{deferredSubject})
}

// Schedule hands a deferred action to the stream for later redelivery
func (s *NATSScheduler) Schedule(ctx context.Context, senderID int64, action entities.DeferredAction) error {
	envelope := deferredEnvelope{
		RequestID: uuid.New().String(),
		SenderID:  senderID,
		Action:    action,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal deferred request: %w", err)
	}

	if err := s.natsClient.Publish(ctx, deferredSubject, data); err != nil {
		return fmt.Errorf("failed to schedule deferred request: %w", err)
	}

	log.WithFields(log.Fields{
		"requestId": envelope.RequestID,
		"senderId":  senderID,
		"action":    action.Action,
	}).Info("Scheduled deferred request")
	return nil
}

// StartDispatch subscribes to the deferred stream and replays each action
// through the handler as a fresh top-level call. Expired actions are
// dropped without invoking the handler.
func (s *NATSScheduler) StartDispatch(handler func(ctx context.Context, senderID int64, action entities.DeferredAction) error) error {
	return s.natsClient.Subscribe(deferredSubject, func(data []byte) error {
		var envelope deferredEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			log.WithError(err).Error("Failed to unmarshal deferred request; dropping")
			return nil
		}

		if envelope.Action.Expired(time.Now()) {
			log.WithFields(log.Fields{
				"requestId": envelope.RequestID,
				"action":    envelope.Action.Action,
			}).Warn("Dropping expired deferred request")
			return nil
		}

		return handler(context.Background(), envelope.SenderID, envelope.Action)
	})
}
