package testutil

import (
	"time"

	"archedvibes/models"
)

// CreateTestGiveaway creates an open giveaway ending an hour after start
func CreateTestGiveaway(token string, start time.Time, entrants ...int64) *models.Giveaway {
	g := &models.Giveaway{
		Token:     token,
		Prize:     "Test Prize",
		ChannelID: 1000,
		HostID:    2000,
		Duration:  time.Hour,
		StartedAt: start.UTC().Truncate(time.Microsecond),
		EndsAt:    start.Add(time.Hour).UTC().Truncate(time.Microsecond),
		Status:    models.GiveawayStatusOpen,
	}
	for _, id := range entrants {
		g.Entrants = append(g.Entrants, models.Entrant{UserID: id})
	}
	return g
}

// CreateTestBalanceHistory creates a balance history entry for a user
func CreateTestBalanceHistory(userID int64, before, after int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    after - before,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
