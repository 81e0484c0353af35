package service

import (
	"context"
	"fmt"
	"sync"

	"archedvibes/events"
	"archedvibes/models"
	log "github.com/sirupsen/logrus"
)

type ticketState struct {
	ticket  models.Ticket
	pending bool // channel creation in flight
}

type ticketManager struct {
	creator ChannelCreator
	clock   Clock
	emitter events.Emitter

	mu        sync.Mutex
	tickets   map[int64]*ticketState
	byChannel map[string]int64
}

// NewTicketManager creates a ticket manager. emitter may be nil.
func NewTicketManager(creator ChannelCreator, clock Clock, emitter events.Emitter) TicketManager {
	return &ticketManager{
		creator:   creator,
		clock:     clock,
		emitter:   emitter,
		tickets:   make(map[int64]*ticketState),
		byChannel: make(map[string]int64),
	}
}

func (m *ticketManager) OpenTicket(ctx context.Context, userID int64, username string) (*models.Ticket, error) {
	// Reserve the user first; the channel is created without the lock held
	m.mu.Lock()
	previous, exists := m.tickets[userID]
	if exists && (previous.pending || previous.ticket.Status == models.TicketStatusOpen) {
		m.mu.Unlock()
		return nil, ErrTicketAlreadyOpen
	}
	m.tickets[userID] = &ticketState{
		ticket:  models.Ticket{UserID: userID, Username: username},
		pending: true,
	}
	m.mu.Unlock()

	channelID, err := m.creator.CreateTicketChannel(ctx, userID, username)

	m.mu.Lock()
	if err != nil {
		if exists {
			m.tickets[userID] = previous
		} else {
			delete(m.tickets, userID)
		}
		m.mu.Unlock()
		log.WithError(err).WithField("userID", userID).Error("Failed to create ticket channel")
		return nil, fmt.Errorf("failed to create ticket channel: %w", err)
	}

	state := m.tickets[userID]
	state.pending = false
	state.ticket.ChannelID = channelID
	state.ticket.Status = models.TicketStatusOpen
	state.ticket.OpenedAt = m.clock.Now()
	m.byChannel[channelID] = userID
	ticket := state.ticket
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"userID":    userID,
		"channelID": channelID,
	}).Info("Ticket opened")

	if m.emitter != nil {
		m.emitter.Emit(ctx, events.TicketOpenedEvent{
			UserID:    userID,
			Username:  username,
			ChannelID: channelID,
		})
	}
	return &ticket, nil
}

func (m *ticketManager) CloseTicket(ctx context.Context, userID int64) (*models.Ticket, error) {
	m.mu.Lock()
	state, ok := m.tickets[userID]
	if !ok || state.pending || state.ticket.Status != models.TicketStatusOpen {
		m.mu.Unlock()
		return nil, ErrTicketNotFound
	}
	now := m.clock.Now()
	state.ticket.Status = models.TicketStatusClosed
	state.ticket.ClosedAt = &now
	delete(m.byChannel, state.ticket.ChannelID)
	ticket := state.ticket
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"userID":    userID,
		"channelID": ticket.ChannelID,
	}).Info("Ticket closed")

	if m.emitter != nil {
		m.emitter.Emit(ctx, events.TicketClosedEvent{
			UserID:    userID,
			ChannelID: ticket.ChannelID,
		})
	}
	return &ticket, nil
}

func (m *ticketManager) FindByChannel(channelID string) (*models.Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.byChannel[channelID]
	if !ok {
		return nil, false
	}
	ticket := m.tickets[userID].ticket
	return &ticket, true
}

func (m *ticketManager) Get(userID int64) (*models.Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.tickets[userID]
	if !ok || state.pending {
		return nil, false
	}
	ticket := state.ticket
	return &ticket, true
}
