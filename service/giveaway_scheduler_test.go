package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"archedvibes/events"
	"archedvibes/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(rng RandomSource) (GiveawayScheduler, *FakeClock, *recordingEmitter) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	emitter := &recordingEmitter{}
	return NewGiveawayScheduler(clock, rng, emitter), clock, emitter
}

func startGiveaway(t *testing.T, s GiveawayScheduler, duration string) *models.Giveaway {
	t.Helper()
	g, err := s.Start(context.Background(), GiveawayRequest{
		Prize:        "X",
		DurationText: duration,
		ChannelID:    10,
		HostID:       99,
	})
	require.NoError(t, err)
	return g
}

func TestGiveaway_StartRejectsBadDuration(t *testing.T) {
	s, clock, _ := newTestScheduler(NewSequenceRandom(0))
	_, err := s.Start(context.Background(), GiveawayRequest{Prize: "X", DurationText: "soon"})
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Empty(t, s.All())
	assert.Equal(t, 0, clock.PendingTimers())
}

func TestGiveaway_ResolvesToOneOfThreeEntrants(t *testing.T) {
	s, clock, emitter := newTestScheduler(NewSeededRandom(1))
	g := startGiveaway(t, s, "1m")
	assert.Equal(t, models.GiveawayStatusOpen, g.Status)
	assert.Equal(t, time.Minute, g.EndsAt.Sub(g.StartedAt))

	for _, user := range []int64{101, 102, 103} {
		added, err := s.AddEntrant(g.Token, models.Entrant{UserID: user})
		require.NoError(t, err)
		assert.True(t, added)
	}

	clock.Advance(59 * time.Second)
	current, err := s.Get(g.Token)
	require.NoError(t, err)
	assert.True(t, current.IsOpen())

	clock.Advance(time.Second)
	resolved, err := s.Get(g.Token)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusResolved, resolved.Status)
	require.NotNil(t, resolved.WinnerID)
	assert.Contains(t, []int64{101, 102, 103}, *resolved.WinnerID)

	added, err := s.AddEntrant(g.Token, models.Entrant{UserID: 104})
	require.NoError(t, err)
	assert.False(t, added)

	after, err := s.Get(g.Token)
	require.NoError(t, err)
	assert.Len(t, after.Entrants, 3)

	ended := emitter.ofType(events.EventTypeGiveawayEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, *resolved.WinnerID, *ended[0].(events.GiveawayEndedEvent).WinnerID)
}

func TestGiveaway_DuplicateAndBotEntrants(t *testing.T) {
	s, clock, _ := newTestScheduler(NewSequenceRandom(0))
	g := startGiveaway(t, s, "5m")

	added, err := s.AddEntrant(g.Token, models.Entrant{UserID: 500, IsBot: true})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddEntrant(g.Token, models.Entrant{UserID: 7})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddEntrant(g.Token, models.Entrant{UserID: 7})
	require.NoError(t, err)
	assert.False(t, added)

	clock.Advance(5 * time.Minute)
	resolved, err := s.Get(g.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved.WinnerID)
	assert.Equal(t, int64(7), *resolved.WinnerID)
}

func TestGiveaway_ResolvesWithNoWinnerWhenEmpty(t *testing.T) {
	s, clock, emitter := newTestScheduler(NewSequenceRandom(0))
	g := startGiveaway(t, s, "1m")

	clock.Advance(time.Minute)
	resolved, err := s.Get(g.Token)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusResolved, resolved.Status)
	assert.Nil(t, resolved.WinnerID)
	require.Len(t, emitter.ofType(events.EventTypeGiveawayEnded), 1)
}

func TestGiveaway_UnknownToken(t *testing.T) {
	s, _, _ := newTestScheduler(NewSequenceRandom(0))
	ctx := context.Background()

	_, err := s.AddEntrant("missing", models.Entrant{UserID: 1})
	assert.ErrorIs(t, err, ErrGiveawayNotFound)
	_, err = s.ForceEnd(ctx, "missing")
	assert.ErrorIs(t, err, ErrGiveawayNotFound)
	_, err = s.Reroll(ctx, "missing")
	assert.ErrorIs(t, err, ErrGiveawayNotFound)
	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrGiveawayNotFound)
	assert.ErrorIs(t, s.AttachMessage("missing", 1), ErrGiveawayNotFound)
}

func TestGiveaway_ForceEndCancelsTimer(t *testing.T) {
	s, clock, emitter := newTestScheduler(NewSequenceRandom(0))
	ctx := context.Background()
	g := startGiveaway(t, s, "1h")

	_, err := s.AddEntrant(g.Token, models.Entrant{UserID: 1})
	require.NoError(t, err)

	ended, err := s.ForceEnd(ctx, g.Token)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusForceEnded, ended.Status)
	assert.Nil(t, ended.WinnerID)
	assert.Equal(t, 0, clock.PendingTimers())

	clock.Advance(2 * time.Hour)
	after, err := s.Get(g.Token)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusForceEnded, after.Status)
	assert.Nil(t, after.WinnerID)

	_, err = s.ForceEnd(ctx, g.Token)
	assert.ErrorIs(t, err, ErrGiveawayClosed)
	assert.Len(t, emitter.ofType(events.EventTypeGiveawayEnded), 1)
}

func TestGiveaway_ForceEndRacesExpiry(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, clock, emitter := newTestScheduler(NewSeededRandom(int64(i)))
		g := startGiveaway(t, s, "1m")
		_, err := s.AddEntrant(g.Token, models.Entrant{UserID: 1})
		require.NoError(t, err)

		var wg sync.WaitGroup
		var forceErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			clock.Advance(time.Minute)
		}()
		go func() {
			defer wg.Done()
			_, forceErr = s.ForceEnd(context.Background(), g.Token)
		}()
		wg.Wait()

		final, err := s.Get(g.Token)
		require.NoError(t, err)
		require.Len(t, emitter.ofType(events.EventTypeGiveawayEnded), 1)

		switch final.Status {
		case models.GiveawayStatusForceEnded:
			assert.NoError(t, forceErr)
			assert.Nil(t, final.WinnerID)
		case models.GiveawayStatusResolved:
			assert.ErrorIs(t, forceErr, ErrGiveawayClosed)
			require.NotNil(t, final.WinnerID)
		default:
			t.Fatalf("unexpected status %s", final.Status)
		}
	}
}

func TestGiveaway_ConcurrentEntrants(t *testing.T) {
	s, clock, _ := newTestScheduler(NewSeededRandom(3))
	g := startGiveaway(t, s, "1m")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			_, _ = s.AddEntrant(g.Token, models.Entrant{UserID: id})
		}(int64(i))
		go func(id int64) {
			defer wg.Done()
			_, _ = s.AddEntrant(g.Token, models.Entrant{UserID: id})
		}(int64(i))
	}
	wg.Wait()

	current, err := s.Get(g.Token)
	require.NoError(t, err)
	assert.Len(t, current.Entrants, 100)

	clock.Advance(time.Minute)
	resolved, err := s.Get(g.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved.WinnerID)
}

func TestGiveaway_Reroll(t *testing.T) {
	ctx := context.Background()

	t.Run("no entrants keeps previous winner", func(t *testing.T) {
		s, clock, _ := newTestScheduler(NewSequenceRandom(0))
		g := startGiveaway(t, s, "1m")
		clock.Advance(time.Minute)

		_, err := s.Reroll(ctx, g.Token)
		assert.ErrorIs(t, err, ErrNoEntrants)

		after, err := s.Get(g.Token)
		require.NoError(t, err)
		assert.Nil(t, after.WinnerID)
	})

	t.Run("bots only counts as no entrants", func(t *testing.T) {
		s, clock, _ := newTestScheduler(NewSequenceRandom(0))
		g := startGiveaway(t, s, "1m")
		_, err := s.AddEntrant(g.Token, models.Entrant{UserID: 5, IsBot: true})
		require.NoError(t, err)
		clock.Advance(time.Minute)

		_, err = s.Reroll(ctx, g.Token)
		assert.ErrorIs(t, err, ErrNoEntrants)
	})

	t.Run("draws a new winner without changing status", func(t *testing.T) {
		s, clock, emitter := newTestScheduler(NewSequenceRandom(0, 1))
		g := startGiveaway(t, s, "1m")
		for _, user := range []int64{11, 22} {
			_, err := s.AddEntrant(g.Token, models.Entrant{UserID: user})
			require.NoError(t, err)
		}
		clock.Advance(time.Minute)

		resolved, err := s.Get(g.Token)
		require.NoError(t, err)
		require.NotNil(t, resolved.WinnerID)
		assert.Equal(t, int64(11), *resolved.WinnerID)

		rerolled, err := s.Reroll(ctx, g.Token)
		require.NoError(t, err)
		assert.Equal(t, models.GiveawayStatusResolved, rerolled.Status)
		require.NotNil(t, rerolled.WinnerID)
		assert.Equal(t, int64(22), *rerolled.WinnerID)
		assert.Len(t, emitter.ofType(events.EventTypeGiveawayRerolled), 1)
	})

	t.Run("works on force ended giveaways", func(t *testing.T) {
		s, _, _ := newTestScheduler(NewSequenceRandom(0))
		g := startGiveaway(t, s, "1m")
		_, err := s.AddEntrant(g.Token, models.Entrant{UserID: 33})
		require.NoError(t, err)
		_, err = s.ForceEnd(ctx, g.Token)
		require.NoError(t, err)

		rerolled, err := s.Reroll(ctx, g.Token)
		require.NoError(t, err)
		assert.Equal(t, models.GiveawayStatusForceEnded, rerolled.Status)
		assert.Equal(t, int64(33), *rerolled.WinnerID)
	})
}

func TestGiveaway_MessageIndex(t *testing.T) {
	s, _, _ := newTestScheduler(NewSequenceRandom(0))
	g := startGiveaway(t, s, "1m")

	_, ok := s.FindByMessage(555)
	assert.False(t, ok)

	require.NoError(t, s.AttachMessage(g.Token, 555))
	token, ok := s.FindByMessage(555)
	require.True(t, ok)
	assert.Equal(t, g.Token, token)

	current, err := s.Get(g.Token)
	require.NoError(t, err)
	require.NotNil(t, current.MessageID)
	assert.Equal(t, int64(555), *current.MessageID)
}

func TestGiveaway_ActiveAndAll(t *testing.T) {
	s, clock, _ := newTestScheduler(NewSequenceRandom(0))
	short := startGiveaway(t, s, "1m")
	long := startGiveaway(t, s, "1h")

	active := s.Active()
	require.Len(t, active, 2)
	assert.Equal(t, short.Token, active[0].Token)
	assert.Equal(t, long.Token, active[1].Token)

	clock.Advance(time.Minute)
	active = s.Active()
	require.Len(t, active, 1)
	assert.Equal(t, long.Token, active[0].Token)
	assert.Len(t, s.All(), 2)
}

func TestGiveaway_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("re-arms the remaining time", func(t *testing.T) {
		s, clock, _ := newTestScheduler(NewSequenceRandom(0))
		msg := int64(77)
		g := &models.Giveaway{
			Token:     "restored",
			Prize:     "Y",
			MessageID: &msg,
			StartedAt: clock.Now().Add(-30 * time.Second),
			EndsAt:    clock.Now().Add(30 * time.Second),
			Duration:  time.Minute,
			Status:    models.GiveawayStatusOpen,
			Entrants:  []models.Entrant{{UserID: 8}, {UserID: 8}},
		}
		require.NoError(t, s.Restore(g))
		assert.ErrorContains(t, s.Restore(g), "already registered")

		token, ok := s.FindByMessage(77)
		require.True(t, ok)
		assert.Equal(t, "restored", token)

		added, err := s.AddEntrant("restored", models.Entrant{UserID: 8})
		require.NoError(t, err)
		assert.False(t, added)

		clock.Advance(30 * time.Second)
		resolved, err := s.Get("restored")
		require.NoError(t, err)
		assert.Equal(t, models.GiveawayStatusResolved, resolved.Status)
		require.NotNil(t, resolved.WinnerID)
		assert.Equal(t, int64(8), *resolved.WinnerID)
	})

	t.Run("overdue giveaways resolve right away", func(t *testing.T) {
		s, clock, _ := newTestScheduler(NewSequenceRandom(0))
		require.NoError(t, s.Restore(&models.Giveaway{
			Token:    "late",
			EndsAt:   clock.Now().Add(-time.Hour),
			Status:   models.GiveawayStatusOpen,
			Entrants: []models.Entrant{{UserID: 9}},
		}))

		assert.Eventually(t, func() bool {
			g, err := s.Get("late")
			return err == nil && g.Status == models.GiveawayStatusResolved
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("terminal giveaways are kept for reroll", func(t *testing.T) {
		s, clock, _ := newTestScheduler(NewSequenceRandom(0))
		require.NoError(t, s.Restore(&models.Giveaway{
			Token:    "done",
			Status:   models.GiveawayStatusResolved,
			Entrants: []models.Entrant{{UserID: 4}},
		}))
		assert.Equal(t, 0, clock.PendingTimers())

		rerolled, err := s.Reroll(ctx, "done")
		require.NoError(t, err)
		assert.Equal(t, int64(4), *rerolled.WinnerID)
	})
}

func TestGiveaway_StopCancelsTimers(t *testing.T) {
	s, clock, _ := newTestScheduler(NewSequenceRandom(0))
	g := startGiveaway(t, s, "1m")
	s.Stop()
	assert.Equal(t, 0, clock.PendingTimers())

	clock.Advance(time.Hour)
	current, err := s.Get(g.Token)
	require.NoError(t, err)
	assert.True(t, current.IsOpen())
}
