package events

import (
	"context"
	"sync"

	"archedvibes/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeWagerSettled     EventType = "wager_settled"
	EventTypeGiveawayStarted  EventType = "giveaway_started"
	EventTypeGiveawayEnded    EventType = "giveaway_ended"
	EventTypeGiveawayRerolled EventType = "giveaway_rerolled"
	EventTypeTicketOpened     EventType = "ticket_opened"
	EventTypeTicketClosed     EventType = "ticket_closed"
)

// AllEventTypes lists every event type the bus can carry
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeWagerSettled,
	EventTypeGiveawayStarted,
	EventTypeGiveawayEnded,
	EventTypeGiveawayRerolled,
	EventTypeTicketOpened,
	EventTypeTicketClosed,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// Emitter publishes events. Implemented by Bus.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                  `json:"user_id"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// WagerSettledEvent represents a completed wager
type WagerSettledEvent struct {
	UserID    int64           `json:"user_id"`
	Game      models.GameKind `json:"game"`
	Stake     int64           `json:"stake"`
	Won       bool            `json:"won"`
	NetChange int64           `json:"net_change"`
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// GiveawayStartedEvent is emitted when a giveaway opens
type GiveawayStartedEvent struct {
	Token     string `json:"token"`
	Prize     string `json:"prize"`
	ChannelID int64  `json:"channel_id"`
	HostID    int64  `json:"host_id"`
	EndsAt    int64  `json:"ends_at"` // unix seconds
}

func (e GiveawayStartedEvent) Type() EventType {
	return EventTypeGiveawayStarted
}

// GiveawayEndedEvent is emitted once per giveaway when it reaches a terminal state.
// WinnerID is nil when nobody eligible entered or the giveaway was force-ended.
type GiveawayEndedEvent struct {
	Token     string                `json:"token"`
	Prize     string                `json:"prize"`
	ChannelID int64                 `json:"channel_id"`
	MessageID *int64                `json:"message_id,omitempty"`
	Status    models.GiveawayStatus `json:"status"`
	WinnerID  *int64                `json:"winner_id,omitempty"`
}

func (e GiveawayEndedEvent) Type() EventType {
	return EventTypeGiveawayEnded
}

// GiveawayRerolledEvent is emitted when a new winner is drawn
type GiveawayRerolledEvent struct {
	Token     string `json:"token"`
	Prize     string `json:"prize"`
	ChannelID int64  `json:"channel_id"`
	WinnerID  int64  `json:"winner_id"`
}

func (e GiveawayRerolledEvent) Type() EventType {
	return EventTypeGiveawayRerolled
}

// TicketOpenedEvent is emitted after a ticket channel has been created
type TicketOpenedEvent struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	ChannelID string `json:"channel_id"`
}

func (e TicketOpenedEvent) Type() EventType {
	return EventTypeTicketOpened
}

// TicketClosedEvent is emitted when a ticket is closed
type TicketClosedEvent struct {
	UserID    int64  `json:"user_id"`
	ChannelID string `json:"channel_id"`
}

func (e TicketClosedEvent) Type() EventType {
	return EventTypeTicketClosed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll registers the handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range AllEventTypes {
		b.Subscribe(t, handler)
	}
}

// Emit publishes an event to all registered handlers.
// Handlers run on their own goroutines; a panicking handler is logged and dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Batch collects events raised while a lock is held and releases them
// to the underlying emitter once the caller has unlocked.
type Batch struct {
	target  Emitter
	pending []Event
}

// NewBatch creates a batch flushing into target. A nil target discards everything.
func NewBatch(target Emitter) *Batch {
	return &Batch{target: target}
}

// Add stashes an event until Flush
func (b *Batch) Add(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits the pending events in order and clears the batch
func (b *Batch) Flush(ctx context.Context) {
	if b.target != nil {
		for _, ev := range b.pending {
			b.target.Emit(ctx, ev)
		}
	}
	b.pending = nil
}
