package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"arg-stats/services"
)

// handleMatch 单场比赛详情
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]

	match, err := s.store.GetMatch(matchID)
	if err != nil {
		if errors.Is(err, services.ErrMatchNotFound) {
			s.writeError(w, http.StatusNotFound, "match not found")
			return
		}
		s.log.Errorf("[Web] ❌ Match query failed for %s: %v", matchID, err)
		s.writeError(w, http.StatusInternalServerError, "match query failed")
		return
	}

	s.writeJSON(w, http.StatusOK, match)
}

// handleMatchPrediction 赛前预测
// category 非空时只返回该类别,否则返回全部预测类别
// referee=false 时跳过裁判因子,默认在比赛已指派裁判时参与计算
func (s *Server) handleMatchPrediction(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]
	query := r.URL.Query()

	match, err := s.store.GetMatch(matchID)
	if err != nil {
		if errors.Is(err, services.ErrMatchNotFound) {
			s.writeError(w, http.StatusNotFound, "match not found")
			return
		}
		s.log.Errorf("[Web] ❌ Match query failed for %s: %v", matchID, err)
		s.writeError(w, http.StatusInternalServerError, "match query failed")
		return
	}

	referee := match.Referee
	if query.Get("referee") == "false" {
		referee = nil
	}

	response := map[string]interface{}{
		"match_id":  match.ID,
		"home_team": match.HomeTeam,
		"away_team": match.AwayTeam,
	}
	if referee != nil {
		response["referee"] = *referee
	}

	if raw := query.Get("category"); raw != "" {
		cat, err := services.ParseCategory(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		refName := ""
		if referee != nil {
			refName = *referee
		}
		result, err := s.predictions.Predict(match.HomeTeamID, match.AwayTeamID, cat, refName)
		if err != nil {
			s.log.Errorf("[Web] ❌ Prediction failed for match %s: %v", matchID, err)
			s.writeError(w, http.StatusInternalServerError, "prediction failed")
			return
		}
		response["predictions"] = map[string]*services.PredictionResult{cat.String(): result}
		s.writeJSON(w, http.StatusOK, response)
		return
	}

	results, err := s.predictions.MatchPredictions(match.HomeTeamID, match.AwayTeamID, referee)
	if err != nil {
		s.log.Errorf("[Web] ❌ Prediction failed for match %s: %v", matchID, err)
		s.writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	response["predictions"] = results
	s.writeJSON(w, http.StatusOK, response)
}
