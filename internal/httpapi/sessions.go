package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avezina/dmhub/internal/narrator"
	"github.com/avezina/dmhub/internal/protocol"
)

// The wire encodes newlines in narrative text as a literal <br> marker;
// clients normalize it back.
const lineBreakMarker = "<br>"

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CampaignID int64 `json:"campaign_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.CampaignID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "campaign_id is required")
		return
	}

	id, err := s.store.CreateSession(r.Context(), req.CampaignID)
	if err != nil {
		respondStoreError(w, err, "campaign_not_found")
		return
	}

	s.metrics.ActiveSessions.Inc()
	s.metrics.SessionEvents.WithLabelValues("created").Inc()
	s.hub.Broadcast(id, protocol.SessionEvent{
		Type:      protocol.TypeSessionEvent,
		SessionID: id,
		Event:     protocol.EventSessionStarted,
	})

	respondJSON(w, http.StatusCreated, map[string]int64{"session_id": id})
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	var req struct {
		UserInput  string `json:"user_input"`
		CampaignID int64  `json:"campaign_id"`
		WorldID    int64  `json:"world_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_input is required")
		return
	}

	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "session_not_found")
		return
	}
	if sess.CampaignID != req.CampaignID {
		s.metrics.Turns.WithLabelValues("rejected").Inc()
		respondError(w, http.StatusConflict, "campaign_mismatch",
			fmt.Sprintf("session %d belongs to campaign %d", id, sess.CampaignID))
		return
	}
	if sess.Ended() {
		s.metrics.Turns.WithLabelValues("rejected").Inc()
		respondError(w, http.StatusConflict, "session_ended", "session has already ended")
		return
	}

	if !s.beginTurn(id) {
		s.metrics.Turns.WithLabelValues("rejected").Inc()
		respondError(w, http.StatusConflict, "turn_in_progress", "another turn is already in progress")
		return
	}
	defer s.endTurn(id)

	gameContext := s.buildGameContext(r.Context(), sess, req.WorldID)
	start := time.Now()
	text, err := s.narrator.Narrate(r.Context(), narrator.Request{
		Context:   gameContext,
		UserInput: req.UserInput,
	})
	s.metrics.ObserveNarratorLatency(time.Since(start))
	if err != nil {
		s.metrics.NarratorErrors.WithLabelValues("narrate").Inc()
		s.metrics.Turns.WithLabelValues("narrator_error").Inc()
		s.logger.Error("narrator failed", "session_id", id, "err", err)
		respondError(w, http.StatusBadGateway, "narrator_error", "the narrator could not respond")
		return
	}

	entry := fmt.Sprintf("\nPlayer: %s\nDM: %s\n", req.UserInput, text)
	if err := s.store.AppendSessionLog(r.Context(), id, entry); err != nil {
		respondStoreError(w, err, "session_not_found")
		return
	}

	s.hub.Broadcast(id, protocol.Turn{
		Type:        protocol.TypeTurn,
		SessionID:   id,
		TurnID:      uuid.NewString(),
		PlayerInput: req.UserInput,
		DMResponse:  text,
		CreatedAt:   time.Now().UTC(),
	})
	s.metrics.Turns.WithLabelValues("ok").Inc()

	respondJSON(w, http.StatusOK, map[string]string{
		"dm_response": strings.ReplaceAll(text, "\n", lineBreakMarker),
	})
}

type recapResponse struct {
	Recap *string `json:"recap"`
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "session_not_found")
		return
	}
	if sess.Ended() {
		// Ending twice is a no-op that replays the stored recap.
		respondJSON(w, http.StatusOK, recapResponse{Recap: sess.Recap})
		return
	}

	// The recap is optional by contract: a narrator failure still ends the
	// session, it just yields a null recap.
	var recap *string
	text, err := s.narrator.Recap(r.Context(), sess.Log)
	if err != nil {
		s.metrics.NarratorErrors.WithLabelValues("recap").Inc()
		s.logger.Error("recap failed", "session_id", id, "err", err)
	} else {
		recap = &text
	}

	if err := s.store.EndSession(r.Context(), id, recap); err != nil {
		respondStoreError(w, err, "session_not_found")
		return
	}

	s.metrics.ActiveSessions.Dec()
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	s.hub.Broadcast(id, protocol.SessionEvent{
		Type:      protocol.TypeSessionEvent,
		SessionID: id,
		Event:     protocol.EventSessionEnded,
		HasRecap:  recap != nil,
	})

	respondJSON(w, http.StatusOK, recapResponse{Recap: recap})
}

func (s *Server) handleGetRecap(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "session_not_found")
		return
	}
	if !sess.Ended() || sess.Recap == nil {
		respondError(w, http.StatusNotFound, "recap_not_found", "no recap available for this session")
		return
	}
	respondJSON(w, http.StatusOK, recapResponse{Recap: sess.Recap})
}
