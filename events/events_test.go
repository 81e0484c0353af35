package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"archedvibes/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	received := make(chan BalanceChangeEvent, 1)
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if e, ok := event.(BalanceChangeEvent); ok {
			received <- e
		}
	})

	bus.Emit(context.Background(), BalanceChangeEvent{
		UserID:          123456,
		OldBalance:      1000,
		NewBalance:      1500,
		TransactionType: models.TransactionTypeCredit,
		ChangeAmount:    500,
	})

	select {
	case e := <-received:
		assert.Equal(t, int64(123456), e.UserID)
		assert.Equal(t, int64(500), e.ChangeAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBusIgnoresOtherTypes(t *testing.T) {
	bus := NewBus()

	called := make(chan struct{}, 1)
	bus.Subscribe(EventTypeTicketOpened, func(ctx context.Context, event Event) {
		called <- struct{}{}
	})

	bus.Emit(context.Background(), TicketClosedEvent{UserID: 1, ChannelID: "c"})

	select {
	case <-called:
		t.Fatal("handler for a different type was called")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe(EventTypeTicketOpened, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeTicketOpened, func(ctx context.Context, event Event) {
		wg.Done()
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), TicketOpenedEvent{UserID: 1})
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run")
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	seen := map[EventType]bool{}
	var wg sync.WaitGroup
	wg.Add(2)
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		mu.Lock()
		seen[event.Type()] = true
		mu.Unlock()
		wg.Done()
	})

	bus.Emit(context.Background(), GiveawayStartedEvent{Token: "a"})
	bus.Emit(context.Background(), WagerSettledEvent{UserID: 1})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen[EventTypeGiveawayStarted])
	assert.True(t, seen[EventTypeWagerSettled])
}

type recordingEmitter struct {
	events []Event
}

func (r *recordingEmitter) Emit(ctx context.Context, event Event) {
	r.events = append(r.events, event)
}

func TestBatchFlushPreservesOrder(t *testing.T) {
	target := &recordingEmitter{}
	batch := NewBatch(target)

	batch.Add(BalanceChangeEvent{UserID: 1})
	batch.Add(BalanceChangeEvent{UserID: 2})
	assert.Empty(t, target.events)

	batch.Flush(context.Background())

	require.Len(t, target.events, 2)
	assert.Equal(t, int64(1), target.events[0].(BalanceChangeEvent).UserID)
	assert.Equal(t, int64(2), target.events[1].(BalanceChangeEvent).UserID)

	// flushed events are not sent twice
	batch.Flush(context.Background())
	assert.Len(t, target.events, 2)
}

func TestBatchNilTarget(t *testing.T) {
	batch := NewBatch(nil)
	batch.Add(TicketOpenedEvent{UserID: 1})
	assert.NotPanics(t, func() { batch.Flush(context.Background()) })
}
