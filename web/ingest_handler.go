package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleIngestMatch 按需抓取并入库一场比赛
func (s *Server) handleIngestMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]

	details, err := s.fotmob.GetMatchDetails(matchID)
	if err != nil {
		s.log.Errorf("[Web] ❌ Failed to fetch match %s: %v", matchID, err)
		s.writeError(w, http.StatusBadGateway, "failed to fetch match data")
		return
	}

	if err := s.ingest.IngestMatch(matchID, details); err != nil {
		s.log.Errorf("[Web] ❌ Failed to ingest match %s: %v", matchID, err)
		s.writeError(w, http.StatusInternalServerError, "failed to ingest match")
		return
	}

	s.cache.Clear()
	s.wsHub.BroadcastUpdate("match_updated", map[string]interface{}{
		"match_id": matchID,
	})

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": matchID,
		"status":   "ingested",
	})
}
