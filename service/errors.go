package service

import (
	"errors"
	"fmt"
	"time"

	"archedvibes/models"
)

// Expected failures. Callers surface these to the user as-is.
var (
	ErrInvalidAmount     = errors.New("amount must be a positive whole number")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOnCooldown        = errors.New("command is on cooldown")
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrGiveawayNotFound  = errors.New("giveaway not found")
	ErrGiveawayClosed    = errors.New("giveaway has already ended")
	ErrNoEntrants        = errors.New("giveaway has no eligible entrants")
	ErrTicketAlreadyOpen = errors.New("ticket already open")
	ErrTicketNotFound    = errors.New("no open ticket")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")
	ErrUnknownGame       = errors.New("unknown game")
)

// OnCooldownError carries the time left before a game can be played again.
// errors.Is(err, ErrOnCooldown) holds for it.
type OnCooldownError struct {
	Game      models.GameKind
	Remaining time.Duration
}

func (e *OnCooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for another %s", e.Game, e.Remaining.Round(time.Second))
}

func (e *OnCooldownError) Is(target error) bool {
	return target == ErrOnCooldown
}
