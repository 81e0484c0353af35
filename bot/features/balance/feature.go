package balance

import (
	"context"

	"archedvibes/models"
	"archedvibes/service"

	"github.com/bwmarrin/discordgo"
)

// HistoryLimit is the number of entries /history shows
const HistoryLimit = 10

// HistoryReader reads recorded balance changes
type HistoryReader interface {
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// Feature answers /balance and /history
type Feature struct {
	ledger  service.LedgerStore
	history HistoryReader
}

// New creates the feature. history may be nil when persistence is disabled.
func New(ledger service.LedgerStore, history HistoryReader) *Feature {
	return &Feature{
		ledger:  ledger,
		history: history,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "balance":
		f.handleBalance(s, i)
	case "history":
		f.handleHistory(s, i)
	}
}
