package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"archedvibes/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sourceService = "archedvibes"

// EventEnvelope wraps a bus event on the wire
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventForwarder republishes in-process bus events to a message bus
type EventForwarder struct {
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	now           func() time.Time
	onPublished   func(events.EventType)
}

// NewEventForwarder creates a forwarder publishing through publisher
func NewEventForwarder(publisher MessagePublisher, subjectMapper *EventSubjectMapper) *EventForwarder {
	return &EventForwarder{
		publisher:     publisher,
		subjectMapper: subjectMapper,
		now:           time.Now,
	}
}

// OnPublished registers a callback run after each successful publish
func (f *EventForwarder) OnPublished(fn func(events.EventType)) {
	f.onPublished = fn
}

// Register subscribes the forwarder to every event type on the bus
func (f *EventForwarder) Register(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := f.Forward(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event")
		}
	})
	log.Info("Event forwarder registered for all event types")
}

// Envelope builds the wire envelope for an event
func (f *EventForwarder) Envelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}, nil
}

// Forward publishes one event
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	envelope, err := f.Envelope(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := f.subjectMapper.MapEventToSubject(event)
	if err := f.publisher.Publish(ctx, subject, envelope.EventID, data); err != nil {
		// No stream bound to the subject; the event is simply not retained.
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if f.onPublished != nil {
		f.onPublished(event.Type())
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event to NATS")
	return nil
}
