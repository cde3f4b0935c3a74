package web

import (
	"net/http"
	"strconv"

	"arg-stats/services"
)

// handleTeamRankings 球队榜单查询
// 查询参数: category, direction(made|against), order(total|average), window(最近N场)
func (s *Server) handleTeamRankings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cat, err := services.ParseCategory(queryOr(query.Get("category"), "shots"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dir, err := services.ParseDirection(queryOr(query.Get("direction"), "made"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := services.ParseSortOrder(queryOr(query.Get("order"), "total"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	window, err := parseWindow(query.Get("window"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := services.CacheKey("team-rankings", cat.String(), dir.String(), order.String(), strconv.Itoa(window))
	if cached, ok := s.cache.Get(key); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	entries, err := s.rankings.TeamRankings(cat, dir, order, window)
	if err != nil {
		s.log.Errorf("[Web] ❌ Team rankings query failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "rankings query failed")
		return
	}

	response := map[string]interface{}{
		"category":  cat.String(),
		"direction": dir.String(),
		"order":     order.String(),
		"window":    window,
		"rankings":  entries,
	}
	s.cache.Set(key, response)
	s.writeJSON(w, http.StatusOK, response)
}

// handlePlayerRankings 球员榜单查询
// team_id 非空时返回队内榜单,否则返回联赛榜单
func (s *Server) handlePlayerRankings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cat, err := services.ParseCategory(queryOr(query.Get("category"), "shots"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := services.ParseSortOrder(queryOr(query.Get("order"), "total"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	window, err := parseWindow(query.Get("window"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if teamID := query.Get("team_id"); teamID != "" {
		entries, err := s.rankings.TeamPlayerRankings(teamID, cat, window)
		if err != nil {
			s.log.Errorf("[Web] ❌ Team player rankings query failed: %v", err)
			s.writeError(w, http.StatusInternalServerError, "rankings query failed")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"category": cat.String(),
			"team_id":  teamID,
			"window":   window,
			"rankings": entries,
		})
		return
	}

	var entries []services.LeaguePlayerEntry
	if window > 0 {
		entries, err = s.rankings.LeaguePlayerStatsWindowed(cat, order, window)
	} else {
		limit, _ := strconv.Atoi(query.Get("limit"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		entries, err = s.rankings.LeaguePlayerStats(cat, order, limit)
	}
	if err != nil {
		s.log.Errorf("[Web] ❌ League player rankings query failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "rankings query failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"category": cat.String(),
		"order":    order.String(),
		"window":   window,
		"rankings": entries,
	})
}

// handleRefereeRankings 裁判榜单(红黄牌与犯规)
func (s *Server) handleRefereeRankings(w http.ResponseWriter, r *http.Request) {
	cards, fouls, err := s.referees.Tops()
	if err != nil {
		s.log.Errorf("[Web] ❌ Referee rankings query failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "rankings query failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards": cards,
		"fouls": fouls,
	})
}

// queryOr 返回参数值,为空时使用默认值
func queryOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// parseWindow 解析 window 参数,空值表示不限定窗口
func parseWindow(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	window, err := strconv.Atoi(raw)
	if err != nil || window < 0 {
		return 0, &badParamError{param: "window", value: raw}
	}
	return window, nil
}

type badParamError struct {
	param string
	value string
}

func (e *badParamError) Error() string {
	return "invalid " + e.param + ": " + e.value
}
