package httpapi

import (
	"net/http"
	"strings"

	"github.com/avezina/dmhub/internal/store"
)

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	id, err := s.store.CreateWorld(r.Context(), store.World{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondStoreError(w, err, "world_not_found")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"world_id": id})
}

func (s *Server) handleGetWorld(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	world, err := s.store.GetWorld(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "world_not_found")
		return
	}
	respondJSON(w, http.StatusOK, world)
}
