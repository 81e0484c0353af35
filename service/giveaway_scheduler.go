package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"archedvibes/events"
	"archedvibes/models"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync"
	log "github.com/sirupsen/logrus"
)

type giveawayEntry struct {
	mu       sync.Mutex
	giveaway models.Giveaway
	entered  map[int64]struct{}
	timer    Timer
}

// snapshot copies the giveaway. Caller holds mu.
func (e *giveawayEntry) snapshot() *models.Giveaway {
	g := e.giveaway
	g.Entrants = append([]models.Entrant(nil), e.giveaway.Entrants...)
	if e.giveaway.WinnerID != nil {
		w := *e.giveaway.WinnerID
		g.WinnerID = &w
	}
	if e.giveaway.MessageID != nil {
		m := *e.giveaway.MessageID
		g.MessageID = &m
	}
	return &g
}

type giveawayScheduler struct {
	clock   Clock
	rng     RandomSource
	emitter events.Emitter

	giveaways *xsync.MapOf[string, *giveawayEntry]
	messages  *xsync.MapOf[string, string] // announcement message ID -> token
}

// NewGiveawayScheduler creates a scheduler. emitter may be nil.
func NewGiveawayScheduler(clock Clock, rng RandomSource, emitter events.Emitter) GiveawayScheduler {
	return &giveawayScheduler{
		clock:     clock,
		rng:       rng,
		emitter:   emitter,
		giveaways: xsync.NewMapOf[*giveawayEntry](),
		messages:  xsync.NewMapOf[string](),
	}
}

func (s *giveawayScheduler) Start(ctx context.Context, req GiveawayRequest) (*models.Giveaway, error) {
	duration, err := ParseGiveawayDuration(req.DurationText)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	token := uuid.NewString()
	entry := &giveawayEntry{
		giveaway: models.Giveaway{
			Token:     token,
			Prize:     req.Prize,
			ChannelID: req.ChannelID,
			HostID:    req.HostID,
			Duration:  duration,
			StartedAt: now,
			EndsAt:    now.Add(duration),
			Status:    models.GiveawayStatusOpen,
		},
		entered: make(map[int64]struct{}),
	}

	// Hold the entry lock until the timer handle is stored so an early
	// fire waits for setup to finish.
	entry.mu.Lock()
	s.giveaways.Store(token, entry)
	entry.timer = s.clock.AfterFunc(duration, s.expire(token))
	snapshot := entry.snapshot()
	entry.mu.Unlock()

	log.WithFields(log.Fields{
		"token":     token,
		"prize":     req.Prize,
		"channelID": req.ChannelID,
		"duration":  duration,
	}).Info("Giveaway started")

	s.emit(ctx, events.GiveawayStartedEvent{
		Token:     token,
		Prize:     req.Prize,
		ChannelID: req.ChannelID,
		HostID:    req.HostID,
		EndsAt:    snapshot.EndsAt.Unix(),
	})
	return snapshot, nil
}

// expire is the timer callback for a giveaway
func (s *giveawayScheduler) expire(token string) func() {
	return func() {
		if _, err := s.finish(context.Background(), token, models.GiveawayStatusResolved); err != nil {
			log.WithError(err).WithField("token", token).Debug("Giveaway timer fired after giveaway ended")
		}
	}
}

// finish moves an open giveaway to a terminal status. The timer and
// ForceEnd both come through here; whichever takes the lock first wins.
func (s *giveawayScheduler) finish(ctx context.Context, token string, status models.GiveawayStatus) (*models.Giveaway, error) {
	entry, ok := s.giveaways.Load(token)
	if !ok {
		return nil, ErrGiveawayNotFound
	}

	entry.mu.Lock()
	if !entry.giveaway.IsOpen() {
		entry.mu.Unlock()
		return nil, ErrGiveawayClosed
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	entry.giveaway.Status = status
	if status == models.GiveawayStatusResolved {
		if winner, ok := s.draw(entry.giveaway.EligibleEntrants()); ok {
			entry.giveaway.WinnerID = &winner
		}
	}
	snapshot := entry.snapshot()
	entry.mu.Unlock()

	log.WithFields(log.Fields{
		"token":    token,
		"status":   status,
		"entrants": len(snapshot.Entrants),
		"winner":   snapshot.WinnerID,
	}).Info("Giveaway ended")

	s.emit(ctx, events.GiveawayEndedEvent{
		Token:     token,
		Prize:     snapshot.Prize,
		ChannelID: snapshot.ChannelID,
		MessageID: snapshot.MessageID,
		Status:    status,
		WinnerID:  snapshot.WinnerID,
	})
	return snapshot, nil
}

func (s *giveawayScheduler) draw(eligible []int64) (int64, bool) {
	if len(eligible) == 0 {
		return 0, false
	}
	return eligible[s.rng.Intn(len(eligible))], true
}

func (s *giveawayScheduler) AttachMessage(token string, messageID int64) error {
	entry, ok := s.giveaways.Load(token)
	if !ok {
		return ErrGiveawayNotFound
	}

	entry.mu.Lock()
	entry.giveaway.MessageID = &messageID
	entry.mu.Unlock()

	s.messages.Store(strconv.FormatInt(messageID, 10), token)
	return nil
}

func (s *giveawayScheduler) FindByMessage(messageID int64) (string, bool) {
	return s.messages.Load(strconv.FormatInt(messageID, 10))
}

func (s *giveawayScheduler) AddEntrant(token string, entrant models.Entrant) (bool, error) {
	entry, ok := s.giveaways.Load(token)
	if !ok {
		return false, ErrGiveawayNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.giveaway.IsOpen() {
		return false, nil
	}
	if _, dup := entry.entered[entrant.UserID]; dup {
		return false, nil
	}
	entry.entered[entrant.UserID] = struct{}{}
	entry.giveaway.Entrants = append(entry.giveaway.Entrants, entrant)
	return true, nil
}

func (s *giveawayScheduler) ForceEnd(ctx context.Context, token string) (*models.Giveaway, error) {
	return s.finish(ctx, token, models.GiveawayStatusForceEnded)
}

func (s *giveawayScheduler) Reroll(ctx context.Context, token string) (*models.Giveaway, error) {
	entry, ok := s.giveaways.Load(token)
	if !ok {
		return nil, ErrGiveawayNotFound
	}

	entry.mu.Lock()
	winner, ok := s.draw(entry.giveaway.EligibleEntrants())
	if !ok {
		entry.mu.Unlock()
		return nil, ErrNoEntrants
	}
	entry.giveaway.WinnerID = &winner
	snapshot := entry.snapshot()
	entry.mu.Unlock()

	log.WithFields(log.Fields{
		"token":  token,
		"winner": winner,
	}).Info("Giveaway rerolled")

	s.emit(ctx, events.GiveawayRerolledEvent{
		Token:     token,
		Prize:     snapshot.Prize,
		ChannelID: snapshot.ChannelID,
		WinnerID:  winner,
	})
	return snapshot, nil
}

func (s *giveawayScheduler) Get(token string) (*models.Giveaway, error) {
	entry, ok := s.giveaways.Load(token)
	if !ok {
		return nil, ErrGiveawayNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot(), nil
}

func (s *giveawayScheduler) Active() []*models.Giveaway {
	var active []*models.Giveaway
	for _, g := range s.All() {
		if g.IsOpen() {
			active = append(active, g)
		}
	}
	return active
}

func (s *giveawayScheduler) All() []*models.Giveaway {
	var all []*models.Giveaway
	s.giveaways.Range(func(_ string, entry *giveawayEntry) bool {
		entry.mu.Lock()
		all = append(all, entry.snapshot())
		entry.mu.Unlock()
		return true
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].EndsAt.Equal(all[j].EndsAt) {
			return all[i].EndsAt.Before(all[j].EndsAt)
		}
		return all[i].Token < all[j].Token
	})
	return all
}

func (s *giveawayScheduler) Restore(g *models.Giveaway) error {
	entry := &giveawayEntry{
		giveaway: *g,
		entered:  make(map[int64]struct{}),
	}
	entry.giveaway.Entrants = nil
	for _, e := range g.Entrants {
		if _, dup := entry.entered[e.UserID]; dup {
			continue
		}
		entry.entered[e.UserID] = struct{}{}
		entry.giveaway.Entrants = append(entry.giveaway.Entrants, e)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if _, loaded := s.giveaways.LoadOrStore(g.Token, entry); loaded {
		return fmt.Errorf("giveaway %s is already registered", g.Token)
	}
	if g.MessageID != nil {
		s.messages.Store(strconv.FormatInt(*g.MessageID, 10), g.Token)
	}
	if entry.giveaway.IsOpen() {
		remaining := g.EndsAt.Sub(s.clock.Now())
		if remaining < 0 {
			remaining = 0
		}
		entry.timer = s.clock.AfterFunc(remaining, s.expire(g.Token))
	}

	log.WithFields(log.Fields{
		"token":    g.Token,
		"status":   g.Status,
		"entrants": len(entry.giveaway.Entrants),
	}).Info("Giveaway restored")
	return nil
}

func (s *giveawayScheduler) Stop() {
	s.giveaways.Range(func(_ string, entry *giveawayEntry) bool {
		entry.mu.Lock()
		if entry.timer != nil {
			entry.timer.Stop()
		}
		entry.mu.Unlock()
		return true
	})
}

func (s *giveawayScheduler) emit(ctx context.Context, event events.Event) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, event)
	}
}
