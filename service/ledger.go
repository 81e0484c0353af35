package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"archedvibes/events"
	"archedvibes/models"
	log "github.com/sirupsen/logrus"
)

// WagerSettlement is one wager applied to the ledger by SettleWager
type WagerSettlement struct {
	UserID   int64
	Game     models.GameKind
	Stake    int64         // 0 skips the funds check
	Cooldown time.Duration // set on success

	// MaxPayout is the largest credit Resolve can return. Settlement is
	// refused up front if it could push the balance past math.MaxInt64.
	MaxPayout int64

	// Resolve decides the outcome and returns the signed balance change.
	// It runs under the user's lock and must not block. Nil means no change.
	Resolve func() int64
}

// SettlementResult is what SettleWager applied
type SettlementResult struct {
	OldBalance    int64
	NewBalance    int64
	NetChange     int64
	CooldownUntil time.Time
}

type account struct {
	mu        sync.Mutex
	balance   int64
	cooldowns map[models.GameKind]time.Time
}

type ledgerStore struct {
	mu       sync.RWMutex
	accounts map[int64]*account
	clock    Clock
	emitter  events.Emitter
}

// NewLedgerStore creates an empty ledger. emitter may be nil.
func NewLedgerStore(clock Clock, emitter events.Emitter) LedgerStore {
	return &ledgerStore{
		accounts: make(map[int64]*account),
		clock:    clock,
		emitter:  emitter,
	}
}

func (l *ledgerStore) lookup(userID int64) (*account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[userID]
	return acct, ok
}

// account returns the user's account, creating it with a zero balance
func (l *ledgerStore) account(userID int64) *account {
	if acct, ok := l.lookup(userID); ok {
		return acct
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[userID]; ok {
		return acct
	}
	acct := &account{cooldowns: make(map[models.GameKind]time.Time)}
	l.accounts[userID] = acct
	return acct
}

func (l *ledgerStore) GetBalance(userID int64) int64 {
	acct, ok := l.lookup(userID)
	if !ok {
		return 0
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.balance
}

func (l *ledgerStore) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	acct := l.account(userID)
	acct.mu.Lock()
	if addOverflows(acct.balance, amount) {
		acct.mu.Unlock()
		return 0, ErrInvalidAmount
	}
	old := acct.balance
	acct.balance += amount
	newBalance := acct.balance
	acct.mu.Unlock()

	l.emit(ctx, events.BalanceChangeEvent{
		UserID:          userID,
		OldBalance:      old,
		NewBalance:      newBalance,
		TransactionType: models.TransactionTypeCredit,
		ChangeAmount:    amount,
	})
	return newBalance, nil
}

func (l *ledgerStore) Debit(ctx context.Context, userID int64, amount int64, allowNegative bool) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	acct := l.account(userID)
	acct.mu.Lock()
	if !allowNegative && acct.balance < amount {
		acct.mu.Unlock()
		return 0, ErrInsufficientFunds
	}
	if addOverflows(acct.balance, -amount) {
		acct.mu.Unlock()
		return 0, ErrInvalidAmount
	}
	old := acct.balance
	acct.balance -= amount
	newBalance := acct.balance
	acct.mu.Unlock()

	l.emit(ctx, events.BalanceChangeEvent{
		UserID:          userID,
		OldBalance:      old,
		NewBalance:      newBalance,
		TransactionType: models.TransactionTypeDebit,
		ChangeAmount:    -amount,
	})
	return newBalance, nil
}

func (l *ledgerStore) Transfer(ctx context.Context, fromID, toID int64, amount int64, fromIsPrivileged bool) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}

	from := l.account(fromID)
	to := l.account(toID)

	// Lock in ascending user ID order so opposing transfers can't deadlock
	first, second := from, to
	if toID < fromID {
		first, second = to, from
	}
	first.mu.Lock()
	second.mu.Lock()

	if !fromIsPrivileged && from.balance < amount {
		second.mu.Unlock()
		first.mu.Unlock()
		return ErrInsufficientFunds
	}
	if addOverflows(from.balance, -amount) || addOverflows(to.balance, amount) {
		second.mu.Unlock()
		first.mu.Unlock()
		return ErrInvalidAmount
	}

	batch := events.NewBatch(l.emitter)
	batch.Add(events.BalanceChangeEvent{
		UserID:          fromID,
		OldBalance:      from.balance,
		NewBalance:      from.balance - amount,
		TransactionType: models.TransactionTypeTransferOut,
		ChangeAmount:    -amount,
	})
	batch.Add(events.BalanceChangeEvent{
		UserID:          toID,
		OldBalance:      to.balance,
		NewBalance:      to.balance + amount,
		TransactionType: models.TransactionTypeTransferIn,
		ChangeAmount:    amount,
	})
	from.balance -= amount
	to.balance += amount

	second.mu.Unlock()
	first.mu.Unlock()

	log.WithFields(log.Fields{
		"from":       fromID,
		"to":         toID,
		"amount":     amount,
		"privileged": fromIsPrivileged,
	}).Debug("Transfer applied")

	batch.Flush(ctx)
	return nil
}

func (l *ledgerStore) SettleWager(ctx context.Context, req WagerSettlement) (*SettlementResult, error) {
	if req.Stake < 0 {
		return nil, ErrInvalidAmount
	}

	acct := l.account(req.UserID)
	acct.mu.Lock()

	now := l.clock.Now()
	if expiry, ok := acct.cooldowns[req.Game]; ok && now.Before(expiry) {
		acct.mu.Unlock()
		return nil, &OnCooldownError{Game: req.Game, Remaining: expiry.Sub(now)}
	}
	if req.Stake > 0 && req.Stake > acct.balance {
		acct.mu.Unlock()
		return nil, ErrInsufficientFunds
	}
	if addOverflows(acct.balance, req.MaxPayout) {
		acct.mu.Unlock()
		return nil, ErrInvalidAmount
	}

	var delta int64
	if req.Resolve != nil {
		delta = req.Resolve()
	}

	result := &SettlementResult{
		OldBalance:    acct.balance,
		NetChange:     delta,
		CooldownUntil: now.Add(req.Cooldown),
	}
	acct.balance += delta
	acct.cooldowns[req.Game] = result.CooldownUntil
	result.NewBalance = acct.balance
	acct.mu.Unlock()

	if delta != 0 {
		txType := models.TransactionTypeWagerWin
		if delta < 0 {
			txType = models.TransactionTypeWagerLoss
		}
		l.emit(ctx, events.BalanceChangeEvent{
			UserID:          req.UserID,
			OldBalance:      result.OldBalance,
			NewBalance:      result.NewBalance,
			TransactionType: txType,
			ChangeAmount:    delta,
		})
	}
	return result, nil
}

func (l *ledgerStore) CooldownRemaining(userID int64, game models.GameKind) time.Duration {
	acct, ok := l.lookup(userID)
	if !ok {
		return 0
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	expiry, ok := acct.cooldowns[game]
	if !ok {
		return 0
	}
	if remaining := expiry.Sub(l.clock.Now()); remaining > 0 {
		return remaining
	}
	return 0
}

func (l *ledgerStore) Snapshot() []models.Account {
	l.mu.RLock()
	ids := make([]int64, 0, len(l.accounts))
	accts := make(map[int64]*account, len(l.accounts))
	for id, acct := range l.accounts {
		ids = append(ids, id)
		accts[id] = acct
	}
	l.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		acct := accts[id]
		acct.mu.Lock()
		out = append(out, models.Account{UserID: id, Balance: acct.balance})
		acct.mu.Unlock()
	}
	return out
}

func (l *ledgerStore) Restore(accounts []models.Account) {
	for _, a := range accounts {
		acct := l.account(a.UserID)
		acct.mu.Lock()
		acct.balance = a.Balance
		acct.mu.Unlock()
	}
	log.WithField("accounts", len(accounts)).Info("Ledger restored")
}

func (l *ledgerStore) emit(ctx context.Context, event events.Event) {
	if l.emitter != nil {
		l.emitter.Emit(ctx, event)
	}
}

// addOverflows reports whether a+b falls outside the int64 range
func addOverflows(a, b int64) bool {
	if b > 0 {
		return a > math.MaxInt64-b
	}
	return a < math.MinInt64-b
}
