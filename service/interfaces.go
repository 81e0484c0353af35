package service

import (
	"context"
	"time"

	"archedvibes/models"
)

// LedgerStore owns every balance and cooldown entry
type LedgerStore interface {
	// GetBalance returns the user's balance, 0 for users never seen
	GetBalance(userID int64) int64

	// Credit adds amount to the user's balance and returns the new balance
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)

	// Debit removes amount from the user's balance and returns the new balance.
	// Unless allowNegative is set the balance may not drop below zero.
	Debit(ctx context.Context, userID int64, amount int64, allowNegative bool) (int64, error)

	// Transfer moves amount between two users as a single atomic step.
	// A privileged sender may overdraw.
	Transfer(ctx context.Context, fromID, toID int64, amount int64, fromIsPrivileged bool) error

	// SettleWager runs the cooldown check, funds check, resolution and
	// balance update for one wager while holding the user's lock
	SettleWager(ctx context.Context, req WagerSettlement) (*SettlementResult, error)

	// CooldownRemaining returns how long until the user may play game again
	CooldownRemaining(userID int64, game models.GameKind) time.Duration

	// Snapshot returns every known account ordered by user ID
	Snapshot() []models.Account

	// Restore replaces the balances of the given accounts
	Restore(accounts []models.Account)
}

// WagerEngine runs the wager games on top of the ledger
type WagerEngine interface {
	// PlaceWager plays one round of game for the user
	PlaceWager(ctx context.Context, userID int64, game models.GameKind, stake int64) (*models.WagerOutcome, error)

	// Wins returns the user's win count
	Wins(userID int64) int64

	// WinCounts returns a copy of every win counter
	WinCounts() map[int64]int64

	// RestoreWins seeds the win counters, e.g. after a restart
	RestoreWins(wins map[int64]int64)

	// TopWinners returns the n users with the most wins
	TopWinners(n int) []models.LeaderboardEntry

	// Richest returns the n users with the highest balances
	Richest(n int) []models.LeaderboardEntry

	// Luck rolls a number between 1 and 100
	Luck(userID int64) int
}

// GiveawayRequest describes a giveaway to start
type GiveawayRequest struct {
	Prize        string
	DurationText string
	ChannelID    int64
	HostID       int64
}

// GiveawayScheduler owns every giveaway and its timer
type GiveawayScheduler interface {
	// Start opens a giveaway and schedules its resolution
	Start(ctx context.Context, req GiveawayRequest) (*models.Giveaway, error)

	// AttachMessage binds the announcement message to a giveaway
	AttachMessage(token string, messageID int64) error

	// FindByMessage resolves an announcement message to its giveaway token
	FindByMessage(messageID int64) (string, bool)

	// AddEntrant enters a user. It returns false when the user was already
	// entered or the giveaway no longer accepts entries.
	AddEntrant(token string, entrant models.Entrant) (bool, error)

	// ForceEnd closes an open giveaway without drawing a winner
	ForceEnd(ctx context.Context, token string) (*models.Giveaway, error)

	// Reroll draws a new winner regardless of status
	Reroll(ctx context.Context, token string) (*models.Giveaway, error)

	// Get returns a copy of the giveaway
	Get(token string) (*models.Giveaway, error)

	// Active returns the open giveaways ordered by end time
	Active() []*models.Giveaway

	// All returns every giveaway the scheduler knows about
	All() []*models.Giveaway

	// Restore registers a giveaway loaded from storage, re-arming its timer if open
	Restore(g *models.Giveaway) error

	// Stop cancels every pending timer
	Stop()
}

// ChannelCreator creates the private channel backing a ticket
type ChannelCreator interface {
	CreateTicketChannel(ctx context.Context, userID int64, username string) (string, error)
}

// TicketManager tracks at most one open ticket per user
type TicketManager interface {
	// OpenTicket creates the ticket channel for the user
	OpenTicket(ctx context.Context, userID int64, username string) (*models.Ticket, error)

	// CloseTicket closes the user's open ticket
	CloseTicket(ctx context.Context, userID int64) (*models.Ticket, error)

	// FindByChannel returns the open ticket backed by the channel
	FindByChannel(channelID string) (*models.Ticket, bool)

	// Get returns the user's ticket, open or closed
	Get(userID int64) (*models.Ticket, bool)
}

// AccountRepository persists ledger balances and win counters
type AccountRepository interface {
	// SaveAll upserts every account
	SaveAll(ctx context.Context, accounts []models.Account) error

	// GetAll returns every stored account
	GetAll(ctx context.Context) ([]models.Account, error)
}

// GiveawayRepository persists giveaways and their entrants
type GiveawayRepository interface {
	// Save upserts a giveaway together with its entrant list
	Save(ctx context.Context, g *models.Giveaway) error

	// GetRestorable returns open giveaways and those that ended after since
	GetRestorable(ctx context.Context, since time.Time) ([]*models.Giveaway, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent entries for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}
