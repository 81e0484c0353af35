package balance

import (
	"testing"
	"time"

	"archedvibes/models"

	"github.com/stretchr/testify/assert"
)

func TestHistoryDescription(t *testing.T) {
	at := time.Unix(1700000000, 0)

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "No balance changes recorded yet.", HistoryDescription(nil))
	})

	t.Run("lists each change", func(t *testing.T) {
		entries := []*models.BalanceHistory{
			{ChangeAmount: 2500, BalanceAfter: 3500, TransactionType: models.TransactionTypeTransferIn, CreatedAt: at},
			{ChangeAmount: -100, BalanceAfter: 1000, TransactionType: models.TransactionTypeWagerLoss, CreatedAt: at},
		}

		assert.Equal(t,
			"<t:1700000000:R> **+2,500** received → 3,500\n"+
				"<t:1700000000:R> **-100** wager lost → 1,000",
			HistoryDescription(entries))
	})

	t.Run("unknown types fall back to the raw value", func(t *testing.T) {
		entries := []*models.BalanceHistory{
			{ChangeAmount: 5, BalanceAfter: 5, TransactionType: "bonus", CreatedAt: at},
		}
		assert.Equal(t, "<t:1700000000:R> **+5** bonus → 5", HistoryDescription(entries))
	})
}
