package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"archedvibes/models"
	"archedvibes/service"

	log "github.com/sirupsen/logrus"
)

// DefaultRerollWindow is how long ended giveaways stay restorable after a restart
const DefaultRerollWindow = 24 * time.Hour

// SnapshotWorker restores in-memory state at startup and periodically
// writes it back to the database
type SnapshotWorker struct {
	ledger       service.LedgerStore
	wagers       service.WagerEngine
	giveaways    service.GiveawayScheduler
	accountRepo  service.AccountRepository
	giveawayRepo service.GiveawayRepository
	clock        service.Clock
	interval     time.Duration
	rerollWindow time.Duration

	mu    sync.Mutex
	saved map[string]string // giveaway token -> fingerprint of the last saved state
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(
	ledger service.LedgerStore,
	wagers service.WagerEngine,
	giveaways service.GiveawayScheduler,
	accountRepo service.AccountRepository,
	giveawayRepo service.GiveawayRepository,
	clock service.Clock,
	interval time.Duration,
) *SnapshotWorker {
	return &SnapshotWorker{
		ledger:       ledger,
		wagers:       wagers,
		giveaways:    giveaways,
		accountRepo:  accountRepo,
		giveawayRepo: giveawayRepo,
		clock:        clock,
		interval:     interval,
		rerollWindow: DefaultRerollWindow,
		saved:        make(map[string]string),
	}
}

// Restore loads balances, win counters and giveaways into memory
func (w *SnapshotWorker) Restore(ctx context.Context) error {
	accounts, err := w.accountRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	w.ledger.Restore(accounts)

	wins := make(map[int64]int64, len(accounts))
	for _, a := range accounts {
		wins[a.UserID] = a.Wins
	}
	w.wagers.RestoreWins(wins)

	giveaways, err := w.giveawayRepo.GetRestorable(ctx, w.clock.Now().Add(-w.rerollWindow))
	if err != nil {
		return fmt.Errorf("failed to load giveaways: %w", err)
	}

	restored := 0
	for _, g := range giveaways {
		if err := w.giveaways.Restore(g); err != nil {
			log.WithError(err).WithField("token", g.Token).Warn("Failed to restore giveaway")
			continue
		}
		w.markSaved(g)
		restored++
	}

	log.WithFields(log.Fields{
		"accounts":  len(accounts),
		"giveaways": restored,
	}).Info("Restored state from database")
	return nil
}

// Snapshot writes the current state to the database
func (w *SnapshotWorker) Snapshot(ctx context.Context) error {
	if err := w.accountRepo.SaveAll(ctx, w.accounts()); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}

	saved := 0
	for _, g := range w.giveaways.All() {
		if !w.changed(g) {
			continue
		}
		if err := w.giveawayRepo.Save(ctx, g); err != nil {
			return fmt.Errorf("failed to save giveaway %s: %w", g.Token, err)
		}
		w.markSaved(g)
		saved++
	}

	log.WithField("giveaways", saved).Debug("Snapshot saved")
	return nil
}

// accounts merges ledger balances with win counters
func (w *SnapshotWorker) accounts() []models.Account {
	accounts := w.ledger.Snapshot()
	wins := w.wagers.WinCounts()

	seen := make(map[int64]struct{}, len(accounts))
	for i := range accounts {
		accounts[i].Wins = wins[accounts[i].UserID]
		seen[accounts[i].UserID] = struct{}{}
	}
	for userID, count := range wins {
		if _, ok := seen[userID]; !ok {
			accounts = append(accounts, models.Account{UserID: userID, Wins: count})
		}
	}
	return accounts
}

func fingerprint(g *models.Giveaway) string {
	var winner, message int64
	if g.WinnerID != nil {
		winner = *g.WinnerID
	}
	if g.MessageID != nil {
		message = *g.MessageID
	}
	return fmt.Sprintf("%s/%d/%d/%d", g.Status, len(g.Entrants), winner, message)
}

func (w *SnapshotWorker) changed(g *models.Giveaway) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saved[g.Token] != fingerprint(g)
}

func (w *SnapshotWorker) markSaved(g *models.Giveaway) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saved[g.Token] = fingerprint(g)
}

// Start runs periodic snapshots until ctx is cancelled or the returned
// stop function is called. A final snapshot is taken on the way out and
// the stop function blocks until it has been written.
func (w *SnapshotWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.WithField("interval", w.interval).Info("Snapshot worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Snapshot worker shutting down (context cancelled)...")
				w.finalSnapshot()
				return
			case <-stopChan:
				log.Info("Snapshot worker shutting down (stop requested)...")
				w.finalSnapshot()
				return
			case <-time.After(w.interval):
				if err := w.Snapshot(ctx); err != nil {
					log.WithError(err).Error("Periodic snapshot failed")
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopChan) })
		<-done
	}
}

func (w *SnapshotWorker) finalSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Snapshot(ctx); err != nil {
		log.WithError(err).Error("Final snapshot failed")
		return
	}
	log.Info("Final snapshot saved")
}
