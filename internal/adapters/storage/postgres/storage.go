package postgres

import (
	"context"
	"fmt"
	"time"

	"gorilla-voice-bot/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS voice_plays (
	id         BIGSERIAL PRIMARY KEY,
	guild_id   TEXT        NOT NULL,
	channel_id TEXT        NOT NULL,
	user_id    TEXT        NOT NULL DEFAULT '',
	trigger    TEXT        NOT NULL,
	status     TEXT        NOT NULL,
	error      TEXT        NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS voice_plays_guild_started_idx ON voice_plays (guild_id, started_at DESC);
`

const insertPlay = `
INSERT INTO voice_plays (guild_id, channel_id, user_id, trigger, status, error, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const selectRecentPlays = `
SELECT guild_id, channel_id, user_id, trigger, status, error, started_at
FROM voice_plays
WHERE guild_id = $1
ORDER BY started_at DESC
LIMIT $2`

type PostgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{pool: pool, db: pool}
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) RecordPlay(ctx context.Context, play domain.Play) error {
	_, err := s.db.Exec(ctx, insertPlay,
		play.GuildID,
		play.ChannelID,
		play.UserID,
		string(play.Trigger),
		string(play.Status),
		play.Error,
		play.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.Play, error) {
	rows, err := s.db.Query(ctx, selectRecentPlays, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent plays: %w", err)
	}
	defer rows.Close()

	var result []domain.Play
	for rows.Next() {
		var (
			play            domain.Play
			trigger, status string
			startedAt       time.Time
		)
		if err := rows.Scan(&play.GuildID, &play.ChannelID, &play.UserID, &trigger, &status, &play.Error, &startedAt); err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		play.Trigger = domain.Trigger(trigger)
		play.Status = domain.PlayStatus(status)
		play.StartedAt = startedAt
		result = append(result, play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plays: %w", err)
	}
	return result, nil
}
