package repository

import (
	"context"
	"fmt"
	"time"

	"archedvibes/database"
	"archedvibes/models"
	"github.com/jackc/pgx/v5"
)

// GiveawayRepository persists giveaways and their entrants
type GiveawayRepository struct {
	db *database.DB
	q  queryable
}

// NewGiveawayRepository creates a new giveaway repository
func NewGiveawayRepository(db *database.DB) *GiveawayRepository {
	return &GiveawayRepository{db: db, q: db.Pool}
}

// Save upserts a giveaway and replaces its entrant list atomically
func (r *GiveawayRepository) Save(ctx context.Context, g *models.Giveaway) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO giveaways
			(token, prize, channel_id, message_id, host_id, duration_seconds, started_at, ends_at, status, winner_id, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
			ON CONFLICT (token) DO UPDATE
			SET message_id = EXCLUDED.message_id,
			    status = EXCLUDED.status,
			    winner_id = EXCLUDED.winner_id,
			    updated_at = NOW()
		`
		_, err := tx.Exec(ctx, query,
			g.Token,
			g.Prize,
			g.ChannelID,
			g.MessageID,
			g.HostID,
			int64(g.Duration/time.Second),
			g.StartedAt,
			g.EndsAt,
			g.Status,
			g.WinnerID,
		)
		if err != nil {
			return fmt.Errorf("failed to save giveaway %s: %w", g.Token, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM giveaway_entrants WHERE token = $1`, g.Token); err != nil {
			return fmt.Errorf("failed to clear entrants for giveaway %s: %w", g.Token, err)
		}
		if len(g.Entrants) == 0 {
			return nil
		}

		rows := make([][]any, len(g.Entrants))
		for i, e := range g.Entrants {
			rows[i] = []any{g.Token, e.UserID, e.IsBot, i}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"giveaway_entrants"},
			[]string{"token", "user_id", "is_bot", "position"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("failed to save entrants for giveaway %s: %w", g.Token, err)
		}
		return nil
	})
}

// GetRestorable returns open giveaways plus those that ended after since,
// so recent drawings can still be rerolled after a restart
func (r *GiveawayRepository) GetRestorable(ctx context.Context, since time.Time) ([]*models.Giveaway, error) {
	return r.query(ctx, `WHERE status = 'open' OR ends_at >= $1`, since)
}

func (r *GiveawayRepository) query(ctx context.Context, where string, args ...any) ([]*models.Giveaway, error) {
	query := `
		SELECT token, prize, channel_id, message_id, host_id, duration_seconds, started_at, ends_at, status, winner_id
		FROM giveaways
	` + where + `
		ORDER BY ends_at, token
	`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaways: %w", err)
	}
	defer rows.Close()

	var giveaways []*models.Giveaway
	byToken := make(map[string]*models.Giveaway)
	for rows.Next() {
		var g models.Giveaway
		var durationSeconds int64
		err := rows.Scan(
			&g.Token,
			&g.Prize,
			&g.ChannelID,
			&g.MessageID,
			&g.HostID,
			&durationSeconds,
			&g.StartedAt,
			&g.EndsAt,
			&g.Status,
			&g.WinnerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		g.Duration = time.Duration(durationSeconds) * time.Second
		giveaways = append(giveaways, &g)
		byToken[g.Token] = &g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate giveaways: %w", err)
	}
	if len(giveaways) == 0 {
		return nil, nil
	}

	tokens := make([]string, 0, len(giveaways))
	for _, g := range giveaways {
		tokens = append(tokens, g.Token)
	}
	if err := r.loadEntrants(ctx, tokens, byToken); err != nil {
		return nil, err
	}
	return giveaways, nil
}

func (r *GiveawayRepository) loadEntrants(ctx context.Context, tokens []string, byToken map[string]*models.Giveaway) error {
	query := `
		SELECT token, user_id, is_bot
		FROM giveaway_entrants
		WHERE token = ANY($1)
		ORDER BY token, position
	`

	rows, err := r.q.Query(ctx, query, tokens)
	if err != nil {
		return fmt.Errorf("failed to get giveaway entrants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var token string
		var e models.Entrant
		if err := rows.Scan(&token, &e.UserID, &e.IsBot); err != nil {
			return fmt.Errorf("failed to scan giveaway entrant: %w", err)
		}
		if g, ok := byToken[token]; ok {
			g.Entrants = append(g.Entrants, e)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate giveaway entrants: %w", err)
	}
	return nil
}
