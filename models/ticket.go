package models

import "time"

// TicketStatus represents the state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// Ticket is a private support channel bound to one user
type Ticket struct {
	UserID    int64
	Username  string
	ChannelID string
	Status    TicketStatus
	OpenedAt  time.Time
	ClosedAt  *time.Time
}
