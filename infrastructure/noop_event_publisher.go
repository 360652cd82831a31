package infrastructure

import (
	"context"

	"govpay/domain/events"
)

// NoopEventPublisher is an event publisher that does nothing
// Useful for testing and admin commands where events should not be processed
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish does nothing with the event
func (n *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}

// Flush does nothing
func (n *NoopEventPublisher) Flush(ctx context.Context) error {
	return nil
}

// Discard does nothing
func (n *NoopEventPublisher) Discard() {}
