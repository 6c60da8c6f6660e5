package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/avezina/dmhub/internal/store"
)

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		WorldID     int64  `json:"world_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.WorldID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "title and world_id are required")
		return
	}

	id, err := s.store.CreateCampaign(r.Context(), store.Campaign{
		Title:       req.Title,
		Description: req.Description,
		WorldID:     req.WorldID,
	})
	if err != nil {
		respondStoreError(w, err, "world_not_found")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"campaign_id": id})
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.store.ListCampaigns(r.Context())
	if err != nil {
		respondStoreError(w, err, "campaign_not_found")
		return
	}
	if campaigns == nil {
		campaigns = []store.Campaign{}
	}
	respondJSON(w, http.StatusOK, campaigns)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	campaign, err := s.store.GetCampaign(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "campaign_not_found")
		return
	}
	respondJSON(w, http.StatusOK, campaign)
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	campaignID, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	var req struct {
		Name          string `json:"name"`
		CharacterName string `json:"character_name"`
		Race          string `json:"race"`
		Class         string `json:"class"`
		Level         int    `json:"level"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.CharacterName) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name and character_name are required")
		return
	}

	id, err := s.store.AddPlayer(r.Context(), store.Player{
		CampaignID:    campaignID,
		Name:          req.Name,
		CharacterName: req.CharacterName,
		Race:          req.Race,
		Class:         req.Class,
		Level:         req.Level,
	})
	if err != nil {
		respondStoreError(w, err, "campaign_not_found")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"player_id": id})
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	campaignID, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	players, err := s.store.ListPlayers(r.Context(), campaignID)
	if err != nil {
		respondStoreError(w, err, "campaign_not_found")
		return
	}
	if players == nil {
		players = []store.Player{}
	}
	respondJSON(w, http.StatusOK, players)
}

type sessionSummary struct {
	SessionID  int64      `json:"session_id"`
	CampaignID int64      `json:"campaign_id"`
	CreatedAt  time.Time  `json:"created_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	campaignID, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sessions, err := s.store.ListSessions(r.Context(), campaignID)
	if err != nil {
		respondStoreError(w, err, "campaign_not_found")
		return
	}

	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionSummary{
			SessionID:  sess.SessionID,
			CampaignID: sess.CampaignID,
			CreatedAt:  sess.CreatedAt,
			EndedAt:    sess.EndedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
