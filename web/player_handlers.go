package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"arg-stats/services"
)

// handlePlayerSummary 球员画像:分窗口数据汇总与榜单位置
// match_id 非空时追加该场比赛的单场汇总
func (s *Server) handlePlayerSummary(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]
	matchID := r.URL.Query().Get("match_id")

	summary, err := s.players.Summary(playerID, matchID)
	if err != nil {
		if errors.Is(err, services.ErrPlayerNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.log.Errorf("[Web] ❌ Player summary failed for %s: %v", playerID, err)
		s.writeError(w, http.StatusInternalServerError, "player summary failed")
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handlePlayerSearch 按名字搜索球员
// q 必填,team_id 非空时限定球队
func (s *Server) handlePlayerSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := query.Get("q")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "missing search query")
		return
	}

	results, err := s.players.Search(name, query.Get("team_id"))
	if err != nil {
		s.log.Errorf("[Web] ❌ Player search failed for %q: %v", name, err)
		s.writeError(w, http.StatusInternalServerError, "player search failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   name,
		"results": results,
	})
}
