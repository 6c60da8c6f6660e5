package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a simple in-process store for local/dev use and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	worlds    map[int64]World
	campaigns map[int64]Campaign
	players   map[int64]Player
	sessions  map[int64]GameSession
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		worlds:    make(map[int64]World),
		campaigns: make(map[int64]Campaign),
		players:   make(map[int64]Player),
		sessions:  make(map[int64]GameSession),
	}
}

func (s *MemoryStore) allocate() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) CreateWorld(_ context.Context, w World) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.WorldID = s.allocate()
	w.CreatedAt = time.Now().UTC()
	s.worlds[w.WorldID] = w
	return w.WorldID, nil
}

func (s *MemoryStore) GetWorld(_ context.Context, id int64) (World, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.worlds[id]
	if !ok {
		return World{}, ErrNotFound
	}
	return w, nil
}

func (s *MemoryStore) CreateCampaign(_ context.Context, c Campaign) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.worlds[c.WorldID]; !ok {
		return 0, ErrNotFound
	}
	c.CampaignID = s.allocate()
	c.CreatedAt = time.Now().UTC()
	s.campaigns[c.CampaignID] = c
	return c.CampaignID, nil
}

func (s *MemoryStore) GetCampaign(_ context.Context, id int64) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListCampaigns(_ context.Context) ([]Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CampaignID < out[j].CampaignID })
	return out, nil
}

func (s *MemoryStore) AddPlayer(_ context.Context, p Player) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[p.CampaignID]; !ok {
		return 0, ErrNotFound
	}
	p.PlayerID = s.allocate()
	p.CreatedAt = time.Now().UTC()
	if p.Level <= 0 {
		p.Level = 1
	}
	s.players[p.PlayerID] = p
	return p.PlayerID, nil
}

func (s *MemoryStore) ListPlayers(_ context.Context, campaignID int64) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Player
	for _, p := range s.players {
		if p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, campaignID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[campaignID]; !ok {
		return 0, ErrNotFound
	}
	sess := GameSession{
		SessionID:  s.allocate(),
		CampaignID: campaignID,
		CreatedAt:  time.Now().UTC(),
	}
	s.sessions[sess.SessionID] = sess
	return sess.SessionID, nil
}

func (s *MemoryStore) GetSession(_ context.Context, id int64) (GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return GameSession{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, campaignID int64) ([]GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []GameSession
	for _, sess := range s.sessions {
		if sess.CampaignID == campaignID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (s *MemoryStore) AppendSessionLog(_ context.Context, id int64, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Log += entry
	s.sessions[id] = sess
	return nil
}

func (s *MemoryStore) EndSession(_ context.Context, id int64, recap *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	sess.EndedAt = &now
	sess.Recap = recap
	s.sessions[id] = sess
	return nil
}

func (s *MemoryStore) Close() error { return nil }
