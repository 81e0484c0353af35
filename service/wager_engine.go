package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"archedvibes/events"
	"archedvibes/models"
	log "github.com/sirupsen/logrus"
)

// SlotSymbols is the reel alphabet
var SlotSymbols = []string{"🍒", "🍋", "🍊"}

// DefaultWagerCooldown applies to every game kind
const DefaultWagerCooldown = 600 * time.Second

type wagerEngine struct {
	ledger   LedgerStore
	rng      RandomSource
	cooldown time.Duration
	emitter  events.Emitter

	mu   sync.Mutex
	wins map[int64]int64
}

// NewWagerEngine creates a wager engine. emitter may be nil.
func NewWagerEngine(ledger LedgerStore, rng RandomSource, cooldown time.Duration, emitter events.Emitter) WagerEngine {
	return &wagerEngine{
		ledger:   ledger,
		rng:      rng,
		cooldown: cooldown,
		emitter:  emitter,
		wins:     make(map[int64]int64),
	}
}

func (e *wagerEngine) PlaceWager(ctx context.Context, userID int64, game models.GameKind, stake int64) (*models.WagerOutcome, error) {
	outcome := &models.WagerOutcome{
		UserID:    userID,
		Game:      game,
		Available: true,
	}

	var (
		resolve   func() int64
		maxPayout int64
	)
	switch game {
	case models.GameCoinFlip:
		if stake <= 0 {
			return nil, ErrInvalidAmount
		}
		maxPayout = stake
		resolve = func() int64 {
			outcome.Won = e.rng.Intn(2) == 0
			return e.payout(userID, outcome.Won, stake, stake)
		}
	case models.GameSlots:
		if stake <= 0 || stake > math.MaxInt64/2 {
			return nil, ErrInvalidAmount
		}
		maxPayout = 2 * stake
		resolve = func() int64 {
			outcome.Symbols = make([]string, 3)
			for i := range outcome.Symbols {
				outcome.Symbols[i] = SlotSymbols[e.rng.Intn(len(SlotSymbols))]
			}
			outcome.Won = outcome.Symbols[0] == outcome.Symbols[1] && outcome.Symbols[1] == outcome.Symbols[2]
			return e.payout(userID, outcome.Won, 2*stake, stake)
		}
	case models.GameTicTacToe, models.GameRPS:
		// Not playable yet, but still occupies the cooldown slot
		outcome.Available = false
		stake = 0
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, game)
	}
	outcome.Stake = stake

	result, err := e.ledger.SettleWager(ctx, WagerSettlement{
		UserID:    userID,
		Game:      game,
		Stake:     stake,
		Cooldown:  e.cooldown,
		MaxPayout: maxPayout,
		Resolve:   resolve,
	})
	if err != nil {
		return nil, err
	}

	outcome.NetChange = result.NetChange
	outcome.NewBalance = result.NewBalance
	outcome.CooldownUntil = result.CooldownUntil

	log.WithFields(log.Fields{
		"userID":    userID,
		"game":      game,
		"stake":     stake,
		"won":       outcome.Won,
		"netChange": outcome.NetChange,
	}).Info("Wager settled")

	if e.emitter != nil && outcome.Available {
		e.emitter.Emit(ctx, events.WagerSettledEvent{
			UserID:    userID,
			Game:      game,
			Stake:     stake,
			Won:       outcome.Won,
			NetChange: outcome.NetChange,
		})
	}
	return outcome, nil
}

// payout records a win and returns the signed balance change.
// Called under the ledger's account lock; the wins mutex nests inside it.
func (e *wagerEngine) payout(userID int64, won bool, winAmount, lossAmount int64) int64 {
	if !won {
		return -lossAmount
	}
	e.mu.Lock()
	e.wins[userID]++
	e.mu.Unlock()
	return winAmount
}

func (e *wagerEngine) Wins(userID int64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wins[userID]
}

func (e *wagerEngine) WinCounts() map[int64]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[int64]int64, len(e.wins))
	for id, w := range e.wins {
		out[id] = w
	}
	return out
}

func (e *wagerEngine) RestoreWins(wins map[int64]int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, w := range wins {
		if w > 0 {
			e.wins[id] = w
		}
	}
}

func (e *wagerEngine) TopWinners(n int) []models.LeaderboardEntry {
	return rank(e.WinCounts(), n)
}

func (e *wagerEngine) Richest(n int) []models.LeaderboardEntry {
	balances := make(map[int64]int64)
	for _, acct := range e.ledger.Snapshot() {
		balances[acct.UserID] = acct.Balance
	}
	return rank(balances, n)
}

func (e *wagerEngine) Luck(userID int64) int {
	return e.rng.Intn(100) + 1
}

// rank orders values descending, ties broken by user ID
func rank(values map[int64]int64, n int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(values))
	for id, v := range values {
		entries = append(entries, models.LeaderboardEntry{UserID: id, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UserID < entries[j].UserID
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
