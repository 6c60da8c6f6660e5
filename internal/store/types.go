package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// World is a setting configuration campaigns belong to.
type World struct {
	WorldID     int64     `json:"world_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Campaign is a persistent container of play state inside a world.
type Campaign struct {
	CampaignID  int64     `json:"campaign_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	WorldID     int64     `json:"world_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Player is one party member of a campaign.
type Player struct {
	PlayerID      int64     `json:"player_id"`
	CampaignID    int64     `json:"campaign_id"`
	Name          string    `json:"name"`
	CharacterName string    `json:"character_name"`
	Race          string    `json:"race,omitempty"`
	Class         string    `json:"class,omitempty"`
	Level         int       `json:"level"`
	CreatedAt     time.Time `json:"created_at"`
}

// GameSession is one continuous play interaction within a campaign.
// Recap and EndedAt stay nil until the session is ended.
type GameSession struct {
	SessionID  int64      `json:"session_id"`
	CampaignID int64      `json:"campaign_id"`
	Log        string     `json:"-"`
	Recap      *string    `json:"recap,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// Ended reports whether the session has been closed.
func (s GameSession) Ended() bool { return s.EndedAt != nil }

// Store persists worlds, campaigns, players and game sessions.
type Store interface {
	CreateWorld(ctx context.Context, w World) (int64, error)
	GetWorld(ctx context.Context, id int64) (World, error)

	CreateCampaign(ctx context.Context, c Campaign) (int64, error)
	GetCampaign(ctx context.Context, id int64) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)

	AddPlayer(ctx context.Context, p Player) (int64, error)
	ListPlayers(ctx context.Context, campaignID int64) ([]Player, error)

	CreateSession(ctx context.Context, campaignID int64) (int64, error)
	GetSession(ctx context.Context, id int64) (GameSession, error)
	ListSessions(ctx context.Context, campaignID int64) ([]GameSession, error)
	AppendSessionLog(ctx context.Context, id int64, entry string) error
	EndSession(ctx context.Context, id int64, recap *string) error

	Close() error
}
