package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"archedvibes/events"
	"archedvibes/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEmitter captures emitted events synchronously
type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(ctx context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

func newTestLedger() (LedgerStore, *FakeClock, *recordingEmitter) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	emitter := &recordingEmitter{}
	return NewLedgerStore(clock, emitter), clock, emitter
}

func TestLedger_UnknownUserHasZeroBalance(t *testing.T) {
	ledger, _, _ := newTestLedger()
	assert.Equal(t, int64(0), ledger.GetBalance(42))
	assert.Empty(t, ledger.Snapshot())
}

func TestLedger_CreditAndDebit(t *testing.T) {
	ctx := context.Background()
	ledger, _, emitter := newTestLedger()

	balance, err := ledger.Credit(ctx, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	balance, err = ledger.Debit(ctx, 1, 200, false)
	require.NoError(t, err)
	assert.Equal(t, int64(300), balance)
	assert.Equal(t, int64(300), ledger.GetBalance(1))

	changes := emitter.ofType(events.EventTypeBalanceChange)
	require.Len(t, changes, 2)
	debit := changes[1].(events.BalanceChangeEvent)
	assert.Equal(t, int64(500), debit.OldBalance)
	assert.Equal(t, int64(300), debit.NewBalance)
	assert.Equal(t, int64(-200), debit.ChangeAmount)
	assert.Equal(t, models.TransactionTypeDebit, debit.TransactionType)
}

func TestLedger_InvalidAmounts(t *testing.T) {
	ctx := context.Background()
	ledger, _, emitter := newTestLedger()

	tests := []struct {
		name string
		call func() error
	}{
		{"credit zero", func() error { _, err := ledger.Credit(ctx, 1, 0); return err }},
		{"credit negative", func() error { _, err := ledger.Credit(ctx, 1, -5); return err }},
		{"debit zero", func() error { _, err := ledger.Debit(ctx, 1, 0, true); return err }},
		{"transfer negative", func() error { return ledger.Transfer(ctx, 1, 2, -1, true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrInvalidAmount)
		})
	}
	assert.Empty(t, emitter.ofType(events.EventTypeBalanceChange))
}

func TestLedger_DebitInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger()

	_, err := ledger.Credit(ctx, 1, 100)
	require.NoError(t, err)

	_, err = ledger.Debit(ctx, 1, 101, false)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(100), ledger.GetBalance(1))

	balance, err := ledger.Debit(ctx, 1, 150, true)
	require.NoError(t, err)
	assert.Equal(t, int64(-50), balance)
}

func TestLedger_DebitCreditRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger()

	_, err := ledger.Credit(ctx, 7, 1234)
	require.NoError(t, err)
	original := ledger.GetBalance(7)

	_, err = ledger.Debit(ctx, 7, 1000, false)
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, 7, 1000)
	require.NoError(t, err)

	assert.Equal(t, original, ledger.GetBalance(7))
}

func TestLedger_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds", func(t *testing.T) {
		ledger, _, emitter := newTestLedger()
		_, err := ledger.Credit(ctx, 1, 100)
		require.NoError(t, err)

		require.NoError(t, ledger.Transfer(ctx, 1, 2, 60, false))
		assert.Equal(t, int64(40), ledger.GetBalance(1))
		assert.Equal(t, int64(60), ledger.GetBalance(2))

		changes := emitter.ofType(events.EventTypeBalanceChange)
		require.Len(t, changes, 3)
		assert.Equal(t, models.TransactionTypeTransferOut, changes[1].(events.BalanceChangeEvent).TransactionType)
		assert.Equal(t, models.TransactionTypeTransferIn, changes[2].(events.BalanceChangeEvent).TransactionType)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		_, err := ledger.Credit(ctx, 1, 50)
		require.NoError(t, err)

		err = ledger.Transfer(ctx, 1, 2, 51, false)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, int64(50), ledger.GetBalance(1))
		assert.Equal(t, int64(0), ledger.GetBalance(2))
	})

	t.Run("privileged sender may overdraw", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		require.NoError(t, ledger.Transfer(ctx, 1, 2, 1_000_000, true))
		assert.Equal(t, int64(-1_000_000), ledger.GetBalance(1))
		assert.Equal(t, int64(1_000_000), ledger.GetBalance(2))
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		_, err := ledger.Credit(ctx, 1, 50)
		require.NoError(t, err)
		assert.ErrorIs(t, ledger.Transfer(ctx, 1, 1, 10, false), ErrSelfTransfer)
		assert.Equal(t, int64(50), ledger.GetBalance(1))
	})
}

func TestLedger_ConcurrentTransfersNeverOverspend(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger()

	const (
		sender    = int64(1)
		startBal  = int64(1000)
		amount    = int64(30)
		attempts  = 200
		receivers = 5
	)
	_, err := ledger.Credit(ctx, sender, startBal)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := int64(100 + i%receivers)
			if err := ledger.Transfer(ctx, sender, to, amount, false); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrInsufficientFunds)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int(startBal/amount), succeeded)
	assert.GreaterOrEqual(t, ledger.GetBalance(sender), int64(0))

	var total int64
	for _, acct := range ledger.Snapshot() {
		total += acct.Balance
	}
	assert.Equal(t, startBal, total)
}

func TestLedger_OpposingTransfersDoNotDeadlock(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger()

	_, err := ledger.Credit(ctx, 1, 10_000)
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, 2, 10_000)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = ledger.Transfer(ctx, 1, 2, 7, false)
		}()
		go func() {
			defer wg.Done()
			_ = ledger.Transfer(ctx, 2, 1, 7, false)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	assert.Equal(t, int64(20_000), ledger.GetBalance(1)+ledger.GetBalance(2))
}

func TestLedger_SettleWager(t *testing.T) {
	ctx := context.Background()

	t.Run("applies delta and cooldown together", func(t *testing.T) {
		ledger, clock, _ := newTestLedger()
		_, err := ledger.Credit(ctx, 1, 100)
		require.NoError(t, err)

		result, err := ledger.SettleWager(ctx, WagerSettlement{
			UserID:   1,
			Game:     models.GameCoinFlip,
			Stake:    40,
			Cooldown: time.Minute,
			Resolve:  func() int64 { return 40 },
		})
		require.NoError(t, err)
		assert.Equal(t, int64(100), result.OldBalance)
		assert.Equal(t, int64(140), result.NewBalance)
		assert.Equal(t, clock.Now().Add(time.Minute), result.CooldownUntil)
		assert.Equal(t, time.Minute, ledger.CooldownRemaining(1, models.GameCoinFlip))
		assert.Equal(t, time.Duration(0), ledger.CooldownRemaining(1, models.GameSlots))
	})

	t.Run("cooldown rejects without resolving", func(t *testing.T) {
		ledger, clock, _ := newTestLedger()
		_, err := ledger.Credit(ctx, 1, 100)
		require.NoError(t, err)

		req := WagerSettlement{UserID: 1, Game: models.GameSlots, Stake: 10, Cooldown: time.Minute, Resolve: func() int64 { return -10 }}
		_, err = ledger.SettleWager(ctx, req)
		require.NoError(t, err)

		clock.Advance(20 * time.Second)
		resolved := false
		req.Resolve = func() int64 { resolved = true; return -10 }
		_, err = ledger.SettleWager(ctx, req)

		var cooldownErr *OnCooldownError
		require.ErrorAs(t, err, &cooldownErr)
		assert.ErrorIs(t, err, ErrOnCooldown)
		assert.Equal(t, 40*time.Second, cooldownErr.Remaining)
		assert.False(t, resolved)
		assert.Equal(t, int64(90), ledger.GetBalance(1))

		clock.Advance(40 * time.Second)
		_, err = ledger.SettleWager(ctx, req)
		require.NoError(t, err)
		assert.True(t, resolved)
	})

	t.Run("funds check happens before resolving", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		resolved := false
		_, err := ledger.SettleWager(ctx, WagerSettlement{
			UserID:   1,
			Game:     models.GameCoinFlip,
			Stake:    1,
			Cooldown: time.Minute,
			Resolve:  func() int64 { resolved = true; return 1 },
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.False(t, resolved)
		assert.Equal(t, time.Duration(0), ledger.CooldownRemaining(1, models.GameCoinFlip))
	})
}

func TestLedger_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger()

	_, err := ledger.Credit(ctx, 3, 30)
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, 1, 10)
	require.NoError(t, err)

	snapshot := ledger.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, int64(1), snapshot[0].UserID)
	assert.Equal(t, int64(3), snapshot[1].UserID)

	restored, _, _ := newTestLedger()
	restored.Restore(snapshot)
	assert.Equal(t, int64(10), restored.GetBalance(1))
	assert.Equal(t, int64(30), restored.GetBalance(3))
}

func TestLedger_RejectsOverflow(t *testing.T) {
	ctx := context.Background()

	t.Run("credit past max", func(t *testing.T) {
		ledger, _, emitter := newTestLedger()
		_, err := ledger.Credit(ctx, 1, math.MaxInt64)
		require.NoError(t, err)

		_, err = ledger.Credit(ctx, 1, 1)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, int64(math.MaxInt64), ledger.GetBalance(1))
		assert.Len(t, emitter.ofType(events.EventTypeBalanceChange), 1)
	})

	t.Run("debit past min", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		_, err := ledger.Debit(ctx, 1, math.MaxInt64, true)
		require.NoError(t, err)

		_, err = ledger.Debit(ctx, 1, math.MaxInt64, true)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, int64(-math.MaxInt64), ledger.GetBalance(1))
	})

	t.Run("privileged transfers cannot wrap the recipient", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		require.NoError(t, ledger.Transfer(ctx, 1, 2, math.MaxInt64, true))

		err := ledger.Transfer(ctx, 1, 2, math.MaxInt64, true)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, int64(math.MaxInt64), ledger.GetBalance(2))
		assert.Equal(t, int64(-math.MaxInt64), ledger.GetBalance(1))
	})

	t.Run("settlement checks the largest payout before resolving", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		_, err := ledger.Credit(ctx, 1, math.MaxInt64)
		require.NoError(t, err)

		resolved := false
		_, err = ledger.SettleWager(ctx, WagerSettlement{
			UserID:    1,
			Game:      models.GameCoinFlip,
			Stake:     1,
			Cooldown:  time.Minute,
			MaxPayout: 1,
			Resolve:   func() int64 { resolved = true; return 1 },
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.False(t, resolved)
		assert.Equal(t, time.Duration(0), ledger.CooldownRemaining(1, models.GameCoinFlip))
	})
}

func TestLedger_ZeroStakeSkipsFundsCheck(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger()

	// privileged transfers can leave a sender below zero
	require.NoError(t, ledger.Transfer(ctx, 1, 2, 100, true))
	require.Equal(t, int64(-100), ledger.GetBalance(1))

	result, err := ledger.SettleWager(ctx, WagerSettlement{
		UserID:   1,
		Game:     models.GameRPS,
		Cooldown: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.NetChange)
	assert.Equal(t, int64(-100), result.NewBalance)
	assert.Equal(t, time.Minute, ledger.CooldownRemaining(1, models.GameRPS))
}
