package services

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"
)

const (
	// 按场均/90分钟排序时的最小分钟数门槛
	minMinutesSeason = 300
	minMinutesWindow = 150
)

// PlayerRankingEntry 球队范围的球员排行条目
type PlayerRankingEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Total    int    `json:"total"`
	Matches  int    `json:"matches_played"`

	// IsTransferred 球员最近一次出场已不在该队,名单信息过期但仍保留
	IsTransferred bool `json:"is_transferred"`
}

// LeaguePlayerEntry 联赛范围的球员统计条目
type LeaguePlayerEntry struct {
	PlayerID string  `json:"id"`
	Name     string  `json:"name"`
	TeamID   string  `json:"team_id"`
	TeamName string  `json:"team_name"`
	Total    int     `json:"total"`
	Matches  int     `json:"matches_played"`
	Minutes  int     `json:"minutes_played"`
	Per90    float64 `json:"per90"`
}

// currentTeamSubquery 求球员最近一次出场所属球队的相关子查询
const currentTeamSubquery = `(
	SELECT a2.team_id FROM player_match_appearances a2
	JOIN matches m2 ON a2.match_id = m2.id
	WHERE a2.player_id = a.player_id
	ORDER BY m2.date DESC LIMIT 1
)`

// TeamPlayerRankings 计算一支球队内部的球员排行
// 只统计有效出场(上场分钟数 > 0);window > 0 时限定在球队最近 N 场
func (s *RankingService) TeamPlayerRankings(teamID string, cat Category, window int) ([]PlayerRankingEntry, error) {
	spec, err := cat.spec()
	if err != nil {
		return nil, err
	}

	args := []interface{}{teamID}
	windowFilter := ""
	if window > 0 {
		matchIDs, err := s.store.LastFinishedMatchIDs(teamID, window)
		if err != nil {
			return nil, fmt.Errorf("failed to load window for team %s: %w", teamID, err)
		}
		if len(matchIDs) == 0 {
			return nil, nil
		}
		windowFilter = "AND a.match_id = ANY($2)"
		args = append(args, pq.Array(matchIDs))
	}

	var query string
	if spec.eventBased() {
		query = fmt.Sprintf(`
			SELECT a.player_id, a.player_name, a.position,
			       COUNT(e.id) AS total,
			       COUNT(DISTINCT a.match_id) AS matches,
			       %s AS current_team
			FROM player_match_appearances a
			LEFT JOIN %s e ON e.player_id = a.player_id AND e.match_id = a.match_id %s
			WHERE a.team_id = $1 AND a.minutes_played > 0 %s
			GROUP BY a.player_id, a.player_name, a.position
			HAVING COUNT(e.id) > 0
			ORDER BY total DESC, a.player_id ASC
		`, currentTeamSubquery, spec.table, spec.filter, windowFilter)
	} else {
		query = fmt.Sprintf(`
			SELECT a.player_id, a.player_name, a.position,
			       COALESCE(SUM(a.%s), 0) AS total,
			       COUNT(DISTINCT a.match_id) AS matches,
			       %s AS current_team
			FROM player_match_appearances a
			WHERE a.team_id = $1 AND a.minutes_played > 0 %s
			GROUP BY a.player_id, a.player_name, a.position
			HAVING COALESCE(SUM(a.%s), 0) > 0
			ORDER BY total DESC, a.player_id ASC
		`, spec.madeExpr, currentTeamSubquery, windowFilter, spec.madeExpr)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("team player ranking query failed: %w", err)
	}
	defer rows.Close()

	var entries []PlayerRankingEntry
	for rows.Next() {
		var e PlayerRankingEntry
		var currentTeam sql.NullString
		if err := rows.Scan(&e.PlayerID, &e.Name, &e.Position, &e.Total, &e.Matches, &currentTeam); err != nil {
			return nil, err
		}
		e.IsTransferred = currentTeam.Valid && currentTeam.String != teamID
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LeaguePlayerStats 联赛范围球员榜,场均值按每 90 分钟折算
func (s *RankingService) LeaguePlayerStats(cat Category, order SortOrder, limit int) ([]LeaguePlayerEntry, error) {
	spec, err := cat.spec()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	teamNameSubquery := `(
		SELECT CASE WHEN a2.team_id = m2.home_team_id THEN m2.home_team ELSE m2.away_team END
		FROM player_match_appearances a2
		JOIN matches m2 ON a2.match_id = m2.id
		WHERE a2.player_id = a.player_id
		ORDER BY m2.date DESC LIMIT 1
	)`

	var totalExpr, joinClause, havingExpr string
	if spec.eventBased() {
		totalExpr = "COUNT(e.id)"
		joinClause = fmt.Sprintf("LEFT JOIN %s e ON e.player_id = a.player_id AND e.match_id = a.match_id %s", spec.table, spec.filter)
		havingExpr = "COUNT(e.id) > 0"
	} else {
		totalExpr = fmt.Sprintf("COALESCE(SUM(a.%s), 0)", spec.madeExpr)
		havingExpr = fmt.Sprintf("COALESCE(SUM(a.%s), 0) > 0", spec.madeExpr)
	}

	orderClause := "ORDER BY total DESC, a.player_id ASC"
	if order == OrderByAverage {
		orderClause = "ORDER BY qualifies DESC, per90 DESC, a.player_id ASC"
	}

	query := fmt.Sprintf(`
		WITH played AS (
			SELECT player_id, COUNT(DISTINCT match_id) AS matches, SUM(minutes_played) AS minutes
			FROM player_match_appearances
			WHERE minutes_played > 0
			GROUP BY player_id
		)
		SELECT a.player_id, a.player_name,
		       COALESCE(%s, '') AS team_id,
		       COALESCE(%s, '') AS team_name,
		       %s AS total,
		       COALESCE(MAX(p.matches), 0) AS matches,
		       COALESCE(MAX(p.minutes), 0) AS minutes,
		       CASE WHEN COALESCE(MAX(p.minutes), 0) > 0
		            THEN %s::float / MAX(p.minutes) * 90
		            ELSE 0 END AS per90,
		       (COALESCE(MAX(p.minutes), 0) >= %d) AS qualifies
		FROM player_match_appearances a
		%s
		LEFT JOIN played p ON p.player_id = a.player_id
		GROUP BY a.player_id, a.player_name
		HAVING %s
		%s
		LIMIT $1
	`, currentTeamSubquery, teamNameSubquery, totalExpr, totalExpr, minMinutesSeason, joinClause, havingExpr, orderClause)

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("league player stats query failed: %w", err)
	}
	defer rows.Close()

	var entries []LeaguePlayerEntry
	for rows.Next() {
		var e LeaguePlayerEntry
		var qualifies bool
		if err := rows.Scan(&e.PlayerID, &e.Name, &e.TeamID, &e.TeamName, &e.Total, &e.Matches, &e.Minutes, &e.Per90, &qualifies); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LeaguePlayerStatsWindowed 按每支球队最近 window 场比赛统计联赛球员榜
// 逐队取窗口再按球员聚合,转会球员会累计多支球队窗口内的产出
func (s *RankingService) LeaguePlayerStatsWindowed(cat Category, order SortOrder, window int) ([]LeaguePlayerEntry, error) {
	spec, err := cat.spec()
	if err != nil {
		return nil, err
	}

	teamIDs, err := s.store.TeamIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to load team ids: %w", err)
	}
	names, err := s.store.TeamNames()
	if err != nil {
		return nil, fmt.Errorf("failed to load team names: %w", err)
	}

	totals := make(map[string]*LeaguePlayerEntry)
	for _, teamID := range teamIDs {
		matchIDs, err := s.store.LastFinishedMatchIDs(teamID, window)
		if err != nil {
			return nil, fmt.Errorf("failed to load window for team %s: %w", teamID, err)
		}
		if len(matchIDs) == 0 {
			continue
		}

		if err := s.accumulateWindowTotals(spec, teamID, matchIDs, names, totals); err != nil {
			return nil, err
		}
		if err := s.accumulateWindowPlaytime(teamID, matchIDs, totals); err != nil {
			return nil, err
		}
	}

	entries := make([]LeaguePlayerEntry, 0, len(totals))
	for _, e := range totals {
		if e.Matches == 0 {
			continue
		}
		if e.Minutes > 0 {
			e.Per90 = float64(e.Total) / float64(e.Minutes) * 90
		}
		entries = append(entries, *e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if order == OrderByAverage {
			qi, qj := entries[i].Minutes >= minMinutesWindow, entries[j].Minutes >= minMinutesWindow
			if qi != qj {
				return qi
			}
			if entries[i].Per90 != entries[j].Per90 {
				return entries[i].Per90 > entries[j].Per90
			}
		} else if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	return entries, nil
}

// accumulateWindowTotals 累加球队窗口内每名球员的类别总量
func (s *RankingService) accumulateWindowTotals(spec categorySpec, teamID string, matchIDs []string, names map[string]string, totals map[string]*LeaguePlayerEntry) error {
	var query string
	if spec.eventBased() {
		query = fmt.Sprintf(`
			SELECT e.player_id, e.player_name, COUNT(*)
			FROM %s e
			WHERE e.team_id = $1 AND e.match_id = ANY($2) %s
			GROUP BY e.player_id, e.player_name
		`, spec.table, spec.filter)
	} else {
		query = fmt.Sprintf(`
			SELECT a.player_id, a.player_name, COALESCE(SUM(a.%s), 0)
			FROM player_match_appearances a
			WHERE a.team_id = $1 AND a.match_id = ANY($2)
			GROUP BY a.player_id, a.player_name
		`, spec.madeExpr)
	}

	rows, err := s.db.Query(query, teamID, pq.Array(matchIDs))
	if err != nil {
		return fmt.Errorf("window totals query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var playerID, playerName string
		var total int
		if err := rows.Scan(&playerID, &playerName, &total); err != nil {
			return err
		}
		if total == 0 {
			continue
		}

		entry, ok := totals[playerID]
		if !ok {
			entry = &LeaguePlayerEntry{
				PlayerID: playerID,
				Name:     playerName,
				TeamID:   teamID,
				TeamName: names[teamID],
			}
			totals[playerID] = entry
		}
		entry.Total += total
	}
	return rows.Err()
}

// accumulateWindowPlaytime 累加球队窗口内每名球员的有效出场与分钟数
func (s *RankingService) accumulateWindowPlaytime(teamID string, matchIDs []string, totals map[string]*LeaguePlayerEntry) error {
	query := `
		SELECT a.player_id, COUNT(DISTINCT a.match_id), COALESCE(SUM(a.minutes_played), 0)
		FROM player_match_appearances a
		WHERE a.team_id = $1 AND a.match_id = ANY($2) AND a.minutes_played > 0
		GROUP BY a.player_id
	`

	rows, err := s.db.Query(query, teamID, pq.Array(matchIDs))
	if err != nil {
		return fmt.Errorf("window playtime query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var playerID string
		var matches, minutes int
		if err := rows.Scan(&playerID, &matches, &minutes); err != nil {
			return err
		}
		if entry, ok := totals[playerID]; ok {
			entry.Matches += matches
			entry.Minutes += minutes
		}
	}
	return rows.Err()
}
