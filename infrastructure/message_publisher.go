package infrastructure

import (
	"context"
)

// MessagePublisher defines the interface for publishing messages to a message bus
type MessagePublisher interface {
	// Publish publishes a message to the specified subject. msgID deduplicates redeliveries.
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}
