package repository

import (
	"context"
	"testing"

	"archedvibes/models"
	"archedvibes/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceHistoryRepository_RecordAndGetByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()

	first := testutil.CreateTestBalanceHistory(1, 0, 100, models.TransactionTypeCredit)
	require.NoError(t, repo.Record(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := testutil.CreateTestBalanceHistory(1, 100, 50, models.TransactionTypeWagerLoss)
	second.TransactionMetadata = nil
	require.NoError(t, repo.Record(ctx, second))

	other := testutil.CreateTestBalanceHistory(2, 0, 10, models.TransactionTypeTransferIn)
	require.NoError(t, repo.Record(ctx, other))

	history, err := repo.GetByUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, int64(-50), history[0].ChangeAmount)
	assert.Equal(t, models.TransactionTypeWagerLoss, history[0].TransactionType)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, true, history[1].TransactionMetadata["test"])

	limited, err := repo.GetByUser(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
