package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists game state in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initPostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worlds (
			world_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS campaigns (
			campaign_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			world_id BIGINT NOT NULL REFERENCES worlds(world_id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS players (
			player_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			campaign_id BIGINT NOT NULL REFERENCES campaigns(campaign_id),
			name TEXT NOT NULL,
			character_name TEXT NOT NULL,
			race TEXT NOT NULL DEFAULT '',
			class TEXT NOT NULL DEFAULT '',
			level INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			campaign_id BIGINT NOT NULL REFERENCES campaigns(campaign_id),
			session_log TEXT NOT NULL DEFAULT '',
			recap TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			ended_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_campaign ON sessions (campaign_id, session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_players_campaign ON players (campaign_id, player_id);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateWorld(ctx context.Context, w World) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO worlds (name, description) VALUES ($1, $2) RETURNING world_id`,
		w.Name, w.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create world: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetWorld(ctx context.Context, id int64) (World, error) {
	var w World
	err := s.pool.QueryRow(ctx,
		`SELECT world_id, name, description, created_at FROM worlds WHERE world_id = $1`, id).
		Scan(&w.WorldID, &w.Name, &w.Description, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return World{}, ErrNotFound
	}
	if err != nil {
		return World{}, fmt.Errorf("get world: %w", err)
	}
	return w, nil
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, c Campaign) (int64, error) {
	if _, err := s.GetWorld(ctx, c.WorldID); err != nil {
		return 0, err
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO campaigns (title, description, world_id) VALUES ($1, $2, $3) RETURNING campaign_id`,
		c.Title, c.Description, c.WorldID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create campaign: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetCampaign(ctx context.Context, id int64) (Campaign, error) {
	var c Campaign
	err := s.pool.QueryRow(ctx,
		`SELECT campaign_id, title, description, world_id, created_at FROM campaigns WHERE campaign_id = $1`, id).
		Scan(&c.CampaignID, &c.Title, &c.Description, &c.WorldID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT campaign_id, title, description, world_id, created_at FROM campaigns ORDER BY campaign_id`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.CampaignID, &c.Title, &c.Description, &c.WorldID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddPlayer(ctx context.Context, p Player) (int64, error) {
	if _, err := s.GetCampaign(ctx, p.CampaignID); err != nil {
		return 0, err
	}
	if p.Level <= 0 {
		p.Level = 1
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (campaign_id, name, character_name, race, class, level)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING player_id`,
		p.CampaignID, p.Name, p.CharacterName, p.Race, p.Class, p.Level).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add player: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context, campaignID int64) ([]Player, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT player_id, campaign_id, name, character_name, race, class, level, created_at
		 FROM players WHERE campaign_id = $1 ORDER BY player_id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.PlayerID, &p.CampaignID, &p.Name, &p.CharacterName, &p.Race, &p.Class, &p.Level, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateSession(ctx context.Context, campaignID int64) (int64, error) {
	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return 0, err
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (campaign_id) VALUES ($1) RETURNING session_id`, campaignID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id int64) (GameSession, error) {
	var sess GameSession
	err := s.pool.QueryRow(ctx,
		`SELECT session_id, campaign_id, session_log, recap, created_at, ended_at
		 FROM sessions WHERE session_id = $1`, id).
		Scan(&sess.SessionID, &sess.CampaignID, &sess.Log, &sess.Recap, &sess.CreatedAt, &sess.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return GameSession{}, ErrNotFound
	}
	if err != nil {
		return GameSession{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, campaignID int64) ([]GameSession, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, campaign_id, session_log, recap, created_at, ended_at
		 FROM sessions WHERE campaign_id = $1 ORDER BY session_id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []GameSession
	for rows.Next() {
		var sess GameSession
		if err := rows.Scan(&sess.SessionID, &sess.CampaignID, &sess.Log, &sess.Recap, &sess.CreatedAt, &sess.EndedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendSessionLog(ctx context.Context, id int64, entry string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET session_log = session_log || $1 WHERE session_id = $2`, entry, id)
	if err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) EndSession(ctx context.Context, id int64, recap *string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET recap = $1, ended_at = $2 WHERE session_id = $3`,
		recap, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
