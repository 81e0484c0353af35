package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"archedvibes/events"
	"archedvibes/models"
	"archedvibes/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type snapshotFixture struct {
	clock        *service.FakeClock
	ledger       service.LedgerStore
	wagers       service.WagerEngine
	giveaways    service.GiveawayScheduler
	accountRepo  *service.MockAccountRepository
	giveawayRepo *service.MockGiveawayRepository
	worker       *SnapshotWorker
}

func newSnapshotFixture(interval time.Duration) *snapshotFixture {
	f := &snapshotFixture{
		clock:        service.NewFakeClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
		accountRepo:  new(service.MockAccountRepository),
		giveawayRepo: new(service.MockGiveawayRepository),
	}
	rng := service.NewSequenceRandom(0)
	f.ledger = service.NewLedgerStore(f.clock, nil)
	f.wagers = service.NewWagerEngine(f.ledger, rng, service.DefaultWagerCooldown, nil)
	f.giveaways = service.NewGiveawayScheduler(f.clock, rng, nil)
	f.worker = NewSnapshotWorker(f.ledger, f.wagers, f.giveaways, f.accountRepo, f.giveawayRepo, f.clock, interval)
	return f
}

func TestSnapshotWorker_Restore(t *testing.T) {
	f := newSnapshotFixture(time.Minute)
	ctx := context.Background()

	f.accountRepo.On("GetAll", ctx).Return([]models.Account{
		{UserID: 1, Balance: 500, Wins: 3},
		{UserID: 2, Balance: -20, Wins: 0},
	}, nil)

	open := &models.Giveaway{
		Token:    "open",
		EndsAt:   f.clock.Now().Add(time.Minute),
		Status:   models.GiveawayStatusOpen,
		Entrants: []models.Entrant{{UserID: 1}},
	}
	f.giveawayRepo.On("GetRestorable", ctx, f.clock.Now().Add(-DefaultRerollWindow)).
		Return([]*models.Giveaway{open}, nil)

	require.NoError(t, f.worker.Restore(ctx))

	assert.Equal(t, int64(500), f.ledger.GetBalance(1))
	assert.Equal(t, int64(-20), f.ledger.GetBalance(2))
	assert.Equal(t, int64(3), f.wagers.Wins(1))

	restored, err := f.giveaways.Get("open")
	require.NoError(t, err)
	assert.Len(t, restored.Entrants, 1)

	f.clock.Advance(time.Minute)
	resolved, err := f.giveaways.Get("open")
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusResolved, resolved.Status)

	f.accountRepo.AssertExpectations(t)
	f.giveawayRepo.AssertExpectations(t)
}

func TestSnapshotWorker_RestoreAnnouncesOverdueGiveaways(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()

	// subscribers go in before Restore, the same order the bot starts in
	ended := make(chan events.GiveawayEndedEvent, 1)
	bus.Subscribe(events.EventTypeGiveawayEnded, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.GiveawayEndedEvent); ok {
			ended <- ev
		}
	})

	clock := service.SystemClock{}
	rng := service.NewSequenceRandom(0)
	ledger := service.NewLedgerStore(clock, bus)
	wagers := service.NewWagerEngine(ledger, rng, service.DefaultWagerCooldown, bus)
	giveaways := service.NewGiveawayScheduler(clock, rng, bus)
	accountRepo := new(service.MockAccountRepository)
	giveawayRepo := new(service.MockGiveawayRepository)
	worker := NewSnapshotWorker(ledger, wagers, giveaways, accountRepo, giveawayRepo, clock, time.Minute)

	messageID := int64(900)
	overdue := &models.Giveaway{
		Token:     "overdue",
		Prize:     "Nitro",
		ChannelID: 100,
		MessageID: &messageID,
		EndsAt:    time.Now().Add(-time.Hour),
		Status:    models.GiveawayStatusOpen,
		Entrants:  []models.Entrant{{UserID: 5}},
	}
	accountRepo.On("GetAll", ctx).Return([]models.Account{}, nil)
	giveawayRepo.On("GetRestorable", ctx, mock.AnythingOfType("time.Time")).
		Return([]*models.Giveaway{overdue}, nil)

	require.NoError(t, worker.Restore(ctx))

	select {
	case ev := <-ended:
		assert.Equal(t, "overdue", ev.Token)
		assert.Equal(t, models.GiveawayStatusResolved, ev.Status)
		require.NotNil(t, ev.WinnerID)
		assert.Equal(t, int64(5), *ev.WinnerID)
		require.NotNil(t, ev.MessageID)
		assert.Equal(t, messageID, *ev.MessageID)
	case <-time.After(2 * time.Second):
		t.Fatal("overdue giveaway resolved without an ended event reaching the subscriber")
	}
}

func TestSnapshotWorker_RestoreFailsOnRepositoryError(t *testing.T) {
	f := newSnapshotFixture(time.Minute)
	ctx := context.Background()

	f.accountRepo.On("GetAll", ctx).Return(nil, errors.New("connection refused"))

	err := f.worker.Restore(ctx)
	assert.ErrorContains(t, err, "connection refused")
	f.giveawayRepo.AssertNotCalled(t, "GetRestorable", mock.Anything, mock.Anything)
}

func TestSnapshotWorker_SnapshotSavesChangedState(t *testing.T) {
	f := newSnapshotFixture(time.Minute)
	ctx := context.Background()

	_, err := f.ledger.Credit(ctx, 1, 100)
	require.NoError(t, err)
	f.wagers.RestoreWins(map[int64]int64{1: 2, 9: 1})

	g, err := f.giveaways.Start(ctx, service.GiveawayRequest{Prize: "X", DurationText: "1h"})
	require.NoError(t, err)

	f.accountRepo.On("SaveAll", ctx, []models.Account{
		{UserID: 1, Balance: 100, Wins: 2},
		{UserID: 9, Balance: 0, Wins: 1},
	}).Return(nil)
	f.giveawayRepo.On("Save", ctx, mock.MatchedBy(func(saved *models.Giveaway) bool {
		return saved.Token == g.Token
	})).Return(nil).Once()

	require.NoError(t, f.worker.Snapshot(ctx))

	// unchanged giveaways are not written again
	require.NoError(t, f.worker.Snapshot(ctx))
	f.giveawayRepo.AssertNumberOfCalls(t, "Save", 1)

	// a new entrant marks it dirty
	_, err = f.giveaways.AddEntrant(g.Token, models.Entrant{UserID: 5})
	require.NoError(t, err)
	f.giveawayRepo.On("Save", ctx, mock.Anything).Return(nil).Once()
	require.NoError(t, f.worker.Snapshot(ctx))
	f.giveawayRepo.AssertNumberOfCalls(t, "Save", 2)
}

func TestSnapshotWorker_SnapshotPropagatesErrors(t *testing.T) {
	f := newSnapshotFixture(time.Minute)
	ctx := context.Background()

	f.accountRepo.On("SaveAll", ctx, mock.Anything).Return(errors.New("disk full"))
	err := f.worker.Snapshot(ctx)
	assert.ErrorContains(t, err, "disk full")
}

func TestSnapshotWorker_StopTakesFinalSnapshot(t *testing.T) {
	f := newSnapshotFixture(time.Hour)

	saved := make(chan struct{}, 1)
	f.accountRepo.On("SaveAll", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved <- struct{}{}
	}).Return(nil).Once()

	stop := f.worker.Start(context.Background())
	stop()

	select {
	case <-saved:
	default:
		t.Fatal("stop returned before the final snapshot")
	}
	f.accountRepo.AssertExpectations(t)
}

func TestSnapshotWorker_PeriodicSnapshot(t *testing.T) {
	f := newSnapshotFixture(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	var saves atomic.Int32
	f.accountRepo.On("SaveAll", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saves.Add(1)
	}).Return(nil)

	stop := f.worker.Start(ctx)
	assert.Eventually(t, func() bool {
		return saves.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	stop()
}
