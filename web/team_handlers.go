package web

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"arg-stats/services"
)

// handleTeams 联赛球队列表
func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.TeamNames()
	if err != nil {
		s.log.Errorf("[Web] ❌ Teams query failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "teams query failed")
		return
	}

	type teamInfo struct {
		TeamID string `json:"team_id"`
		Name   string `json:"name"`
	}

	teams := make([]teamInfo, 0, len(names))
	for id, name := range names {
		teams = append(teams, teamInfo{TeamID: id, Name: name})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
	})
}

// handleTeamSummary 球队画像:各类别排名与比赛列表
func (s *Server) handleTeamSummary(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["team_id"]

	summary, err := s.teams.Summary(teamID)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			s.writeError(w, http.StatusNotFound, "team not found")
			return
		}
		s.log.Errorf("[Web] ❌ Team summary failed for %s: %v", teamID, err)
		s.writeError(w, http.StatusInternalServerError, "team summary failed")
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}
