package repository

import (
	"context"
	"fmt"

	"archedvibes/database"
	"archedvibes/models"
	"github.com/jackc/pgx/v5"
)

// AccountRepository persists ledger balances and win counters
type AccountRepository struct {
	db *database.DB
	q  queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db, q: db.Pool}
}

// SaveAll upserts every account in a single transaction
func (r *AccountRepository) SaveAll(ctx context.Context, accounts []models.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	query := `
		INSERT INTO accounts (user_id, balance, wins, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    wins = EXCLUDED.wins,
		    updated_at = NOW()
		WHERE accounts.balance <> EXCLUDED.balance OR accounts.wins <> EXCLUDED.wins
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range accounts {
			batch.Queue(query, a.UserID, a.Balance, a.Wins)
		}

		results := tx.SendBatch(ctx, batch)
		for _, a := range accounts {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to save account %d: %w", a.UserID, err)
			}
		}
		return results.Close()
	})
}

// GetAll returns every stored account ordered by user ID
func (r *AccountRepository) GetAll(ctx context.Context) ([]models.Account, error) {
	query := `
		SELECT user_id, balance, wins
		FROM accounts
		ORDER BY user_id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	accounts, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %w", err)
	}
	return accounts, nil
}
