package application

import (
	"context"
	"time"

	"archedvibes/events"
	"archedvibes/models"
	"archedvibes/service"

	log "github.com/sirupsen/logrus"
)

// HistoryRecorder writes every balance change to the balance history table
type HistoryRecorder struct {
	repo service.BalanceHistoryRepository
}

// NewHistoryRecorder creates a new history recorder
func NewHistoryRecorder(repo service.BalanceHistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Register subscribes the recorder to balance change events
func (h *HistoryRecorder) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, h.HandleBalanceChange)
}

// HandleBalanceChange records a single balance change event
func (h *HistoryRecorder) HandleBalanceChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.BalanceChangeEvent)
	if !ok {
		return
	}

	// The emitting request may already be finished
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	history := &models.BalanceHistory{
		UserID:          e.UserID,
		BalanceBefore:   e.OldBalance,
		BalanceAfter:    e.NewBalance,
		ChangeAmount:    e.ChangeAmount,
		TransactionType: e.TransactionType,
	}
	if err := h.repo.Record(recordCtx, history); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"userID": e.UserID,
			"change": e.ChangeAmount,
		}).Error("Failed to record balance history")
	}
}
