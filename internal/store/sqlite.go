package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists game state in a local SQLite file. It is the default
// backend when no database URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	// WAL mode allows concurrent readers while a turn is being written.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite handles a single writer; one connection keeps writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worlds (
			world_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS campaigns (
			campaign_id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			world_id INTEGER NOT NULL REFERENCES worlds(world_id),
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS players (
			player_id INTEGER PRIMARY KEY AUTOINCREMENT,
			campaign_id INTEGER NOT NULL REFERENCES campaigns(campaign_id),
			name TEXT NOT NULL,
			character_name TEXT NOT NULL,
			race TEXT NOT NULL DEFAULT '',
			class TEXT NOT NULL DEFAULT '',
			level INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id INTEGER PRIMARY KEY AUTOINCREMENT,
			campaign_id INTEGER NOT NULL REFERENCES campaigns(campaign_id),
			session_log TEXT NOT NULL DEFAULT '',
			recap TEXT,
			created_at TEXT NOT NULL,
			ended_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_campaign ON sessions (campaign_id, session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_players_campaign ON players (campaign_id, player_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init sqlite schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateWorld(ctx context.Context, w World) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO worlds (name, description, created_at) VALUES (?, ?, ?)`,
		w.Name, w.Description, formatTime(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("create world: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetWorld(ctx context.Context, id int64) (World, error) {
	var w World
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT world_id, name, description, created_at FROM worlds WHERE world_id = ?`, id).
		Scan(&w.WorldID, &w.Name, &w.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return World{}, ErrNotFound
	}
	if err != nil {
		return World{}, fmt.Errorf("get world: %w", err)
	}
	w.CreatedAt = parseTime(createdAt)
	return w, nil
}

func (s *SQLiteStore) CreateCampaign(ctx context.Context, c Campaign) (int64, error) {
	if _, err := s.GetWorld(ctx, c.WorldID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (title, description, world_id, created_at) VALUES (?, ?, ?, ?)`,
		c.Title, c.Description, c.WorldID, formatTime(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("create campaign: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, id int64) (Campaign, error) {
	var c Campaign
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT campaign_id, title, description, world_id, created_at FROM campaigns WHERE campaign_id = ?`, id).
		Scan(&c.CampaignID, &c.Title, &c.Description, &c.WorldID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT campaign_id, title, description, world_id, created_at FROM campaigns ORDER BY campaign_id`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		var c Campaign
		var createdAt string
		if err := rows.Scan(&c.CampaignID, &c.Title, &c.Description, &c.WorldID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddPlayer(ctx context.Context, p Player) (int64, error) {
	if _, err := s.GetCampaign(ctx, p.CampaignID); err != nil {
		return 0, err
	}
	if p.Level <= 0 {
		p.Level = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (campaign_id, name, character_name, race, class, level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.CampaignID, p.Name, p.CharacterName, p.Race, p.Class, p.Level, formatTime(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("add player: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) ListPlayers(ctx context.Context, campaignID int64) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, campaign_id, name, character_name, race, class, level, created_at
		 FROM players WHERE campaign_id = ? ORDER BY player_id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		var createdAt string
		if err := rows.Scan(&p.PlayerID, &p.CampaignID, &p.Name, &p.CharacterName, &p.Race, &p.Class, &p.Level, &createdAt); err != nil {
			return nil, fmt.Errorf("scan player row: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, campaignID int64) (int64, error) {
	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (campaign_id, created_at) VALUES (?, ?)`,
		campaignID, formatTime(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (GameSession, error) {
	var sess GameSession
	var createdAt string
	var recap, endedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, campaign_id, session_log, recap, created_at, ended_at
		 FROM sessions WHERE session_id = ?`, id).
		Scan(&sess.SessionID, &sess.CampaignID, &sess.Log, &recap, &createdAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return GameSession{}, ErrNotFound
	}
	if err != nil {
		return GameSession{}, fmt.Errorf("get session: %w", err)
	}
	sess.CreatedAt = parseTime(createdAt)
	if recap.Valid {
		sess.Recap = &recap.String
	}
	if endedAt.Valid {
		t := parseTime(endedAt.String)
		sess.EndedAt = &t
	}
	return sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, campaignID int64) ([]GameSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, campaign_id, session_log, recap, created_at, ended_at
		 FROM sessions WHERE campaign_id = ? ORDER BY session_id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []GameSession
	for rows.Next() {
		var sess GameSession
		var createdAt string
		var recap, endedAt sql.NullString
		if err := rows.Scan(&sess.SessionID, &sess.CampaignID, &sess.Log, &recap, &createdAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sess.CreatedAt = parseTime(createdAt)
		if recap.Valid {
			sess.Recap = &recap.String
		}
		if endedAt.Valid {
			t := parseTime(endedAt.String)
			sess.EndedAt = &t
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendSessionLog(ctx context.Context, id int64, entry string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET session_log = session_log || ? WHERE session_id = ?`, entry, id)
	if err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) EndSession(ctx context.Context, id int64, recap *string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET recap = ?, ended_at = ? WHERE session_id = ?`,
		recapValue(recap), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func recapValue(recap *string) any {
	if recap == nil {
		return nil
	}
	return *recap
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
