package models

import "time"

// GameKind identifies a wager command. Cooldowns are tracked per kind.
type GameKind string

const (
	GameCoinFlip  GameKind = "coinflip"
	GameSlots     GameKind = "slots"
	GameTicTacToe GameKind = "tictactoe"
	GameRPS       GameKind = "rps"
)

// ParseGameKind resolves a command name or alias to a game kind
func ParseGameKind(name string) (GameKind, bool) {
	switch name {
	case "coinflip", "cf":
		return GameCoinFlip, true
	case "slots":
		return GameSlots, true
	case "tictactoe", "ttt":
		return GameTicTacToe, true
	case "rps":
		return GameRPS, true
	}
	return "", false
}

// WagerOutcome is the result of a single wager, returned to the user
type WagerOutcome struct {
	UserID        int64
	Game          GameKind
	Stake         int64
	Available     bool // false for games that are not implemented yet
	Won           bool
	NetChange     int64 // signed change applied to the balance
	NewBalance    int64
	Symbols       []string // slots reels, empty for other games
	CooldownUntil time.Time
}
