package models

import "time"

// GiveawayStatus represents the lifecycle state of a giveaway
type GiveawayStatus string

const (
	GiveawayStatusOpen       GiveawayStatus = "open"
	GiveawayStatusResolved   GiveawayStatus = "resolved"
	GiveawayStatusForceEnded GiveawayStatus = "force_ended"
)

// Entrant is a user who entered a giveaway
type Entrant struct {
	UserID int64 `db:"user_id"`
	IsBot  bool  `db:"is_bot"`
}

// Giveaway is a timed prize drawing
type Giveaway struct {
	Token     string         `db:"token"`
	Prize     string         `db:"prize"`
	ChannelID int64          `db:"channel_id"`
	MessageID *int64         `db:"message_id"`
	HostID    int64          `db:"host_id"`
	Duration  time.Duration  `db:"duration"`
	StartedAt time.Time      `db:"started_at"`
	EndsAt    time.Time      `db:"ends_at"`
	Status    GiveawayStatus `db:"status"`
	WinnerID  *int64         `db:"winner_id"`
	Entrants  []Entrant      `db:"-"`
}

// IsOpen returns true while the giveaway still accepts entrants
func (g *Giveaway) IsOpen() bool {
	return g.Status == GiveawayStatusOpen
}

// HasWinner returns true if a winner has been drawn
func (g *Giveaway) HasWinner() bool {
	return g.WinnerID != nil
}

// EligibleEntrants returns the entrants that count towards the drawing
func (g *Giveaway) EligibleEntrants() []int64 {
	eligible := make([]int64, 0, len(g.Entrants))
	for _, e := range g.Entrants {
		if !e.IsBot {
			eligible = append(eligible, e.UserID)
		}
	}
	return eligible
}
