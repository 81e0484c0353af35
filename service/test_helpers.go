package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// FakeClock is a manually advanced Clock for tests
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	at      time.Time
	fn      func()
	done    bool
	stopped bool
}

// NewFakeClock returns a clock frozen at start
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run when the clock is advanced past d.
// A non-positive d runs f on its own goroutine right away, like time.AfterFunc.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	if d <= 0 {
		t.done = true
		go f()
		return t
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and runs every due timer in deadline order
// on the calling goroutine
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.at.After(c.now):
			t.done = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// PendingTimers returns the number of armed timers
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.done {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// SequenceRandom replays fixed values, each reduced modulo n.
// It wraps around when exhausted.
type SequenceRandom struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequenceRandom creates a source that returns values in order
func NewSequenceRandom(values ...int) *SequenceRandom {
	return &SequenceRandom{values: values}
}

func (r *SequenceRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.next%len(r.values)]
	r.next++
	return v % n
}

// MockChannelCreator is a mock implementation of ChannelCreator
type MockChannelCreator struct {
	mock.Mock
}

func (m *MockChannelCreator) CreateTicketChannel(ctx context.Context, userID int64, username string) (string, error) {
	args := m.Called(ctx, userID, username)
	return args.String(0), args.Error(1)
}
