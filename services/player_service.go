package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// topPlacementLimit 球员画像只展示进入前 20 的榜单位置
const topPlacementLimit = 20

// PlayerStatLine 一个统计窗口内的球员数据汇总
type PlayerStatLine struct {
	Matches        int `json:"matches_played"`
	Minutes        int `json:"minutes_played"`
	FoulsCommitted int `json:"fouls_committed"`
	FoulsReceived  int `json:"fouls_received"`
	Shots          int `json:"shots"`
	ShotsOnTarget  int `json:"shots_on_target"`
	LongShots      int `json:"long_shots"`
	Headers        int `json:"headers"`
	Cards          int `json:"cards"`
}

// RankPlacement 球员在某个榜单中的位置
type RankPlacement struct {
	Label string `json:"label"`
	Rank  int    `json:"rank"`
	Total int    `json:"total"`
}

// PlayerSummary 球员画像:身份信息、分窗口汇总、榜单位置
type PlayerSummary struct {
	PlayerID    string                     `json:"player_id"`
	Name        string                     `json:"name"`
	TeamID      string                     `json:"team_id"`
	TeamName    string                     `json:"team_name"`
	Position    string                     `json:"position"`
	ShirtNumber string                     `json:"shirt_number"`
	Stats       map[string]PlayerStatLine  `json:"stats"`
	Placements  map[string][]RankPlacement `json:"placements"`
}

// PlayerService 球员画像服务
type PlayerService struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewPlayerService 创建球员画像服务
func NewPlayerService(db *sql.DB, log *logrus.Logger) *PlayerService {
	return &PlayerService{db: db, log: log}
}

// placementMetrics 球员榜单位置使用的指标集合
var placementMetrics = []struct {
	cat   Category
	label string
}{
	{CategoryShots, "Tiros Totales"},
	{CategoryShotsOnTarget, "Tiros al Arco"},
	{CategoryLongShots, "Tiros Lejanos"},
	{CategoryHeaders, "Cabezazos"},
	{CategoryCards, "Tarjetas"},
	{CategoryFoulsCommitted, "Faltas Cometidas"},
	{CategoryFoulsReceived, "Faltas Recibidas"},
}

// Summary 构建球员画像
// matchID 非空时额外汇总该场数据
func (s *PlayerService) Summary(playerID, matchID string) (*PlayerSummary, error) {
	summary, err := s.loadIdentity(playerID)
	if err != nil {
		return nil, err
	}

	summary.Stats = make(map[string]PlayerStatLine)

	if matchID != "" {
		line, err := s.statLine(playerID, []string{matchID})
		if err != nil {
			return nil, fmt.Errorf("match stats failed: %w", err)
		}
		summary.Stats["match"] = line
	}

	last5, err := s.recentMatchIDs(playerID, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent matches: %w", err)
	}
	if len(last5) > 0 {
		line, err := s.statLine(playerID, last5)
		if err != nil {
			return nil, fmt.Errorf("last-5 stats failed: %w", err)
		}
		summary.Stats["last5"] = line
	}

	all, err := s.recentMatchIDs(playerID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	if len(all) > 0 {
		line, err := s.statLine(playerID, all)
		if err != nil {
			return nil, fmt.Errorf("overall stats failed: %w", err)
		}
		summary.Stats["overall"] = line
	}

	placements, err := s.topPlacements(playerID, summary.TeamID, summary.Position)
	if err != nil {
		return nil, fmt.Errorf("placements failed: %w", err)
	}
	summary.Placements = placements

	return summary, nil
}

// loadIdentity 以最近一次出场为准解析球员身份信息
func (s *PlayerService) loadIdentity(playerID string) (*PlayerSummary, error) {
	query := `
		SELECT a.player_id, a.player_name, a.team_id, a.position, a.shirt_number,
		       CASE WHEN a.team_id = m.home_team_id THEN m.home_team ELSE m.away_team END AS team_name
		FROM player_match_appearances a
		JOIN matches m ON a.match_id = m.id
		WHERE a.player_id = $1
		ORDER BY m.date DESC
		LIMIT 1
	`

	var summary PlayerSummary
	err := s.db.QueryRow(query, playerID).Scan(
		&summary.PlayerID, &summary.Name, &summary.TeamID,
		&summary.Position, &summary.ShirtNumber, &summary.TeamName,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrPlayerNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// recentMatchIDs 返回球员最近出场的比赛 ID,limit <= 0 时返回全部
func (s *PlayerService) recentMatchIDs(playerID string, limit int) ([]string, error) {
	query := `
		SELECT a.match_id
		FROM player_match_appearances a
		JOIN matches m ON a.match_id = m.id
		WHERE a.player_id = $1
		ORDER BY m.date DESC
	`
	args := []interface{}{playerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// statLine 汇总球员在给定比赛集合内的全部指标
func (s *PlayerService) statLine(playerID string, matchIDs []string) (PlayerStatLine, error) {
	query := `
		SELECT COUNT(*) AS matches,
		       COALESCE(SUM(a.minutes_played), 0) AS minutes,
		       COALESCE(SUM(a.fouls_committed), 0) AS fouls_committed,
		       COALESCE(SUM(a.fouls_received), 0) AS fouls_received,
		       (SELECT COUNT(*) FROM shots WHERE player_id = $1 AND match_id = ANY($2)) AS shots,
		       (SELECT COUNT(*) FROM shots WHERE player_id = $1 AND match_id = ANY($2) AND on_target) AS shots_on_target,
		       (SELECT COUNT(*) FROM shots WHERE player_id = $1 AND match_id = ANY($2) AND NOT inside_box) AS long_shots,
		       (SELECT COUNT(*) FROM shots WHERE player_id = $1 AND match_id = ANY($2) AND shot_type = 'Header') AS headers,
		       (SELECT COUNT(*) FROM cards WHERE player_id = $1 AND match_id = ANY($2)) AS cards
		FROM player_match_appearances a
		WHERE a.player_id = $1 AND a.match_id = ANY($2)
	`

	var line PlayerStatLine
	err := s.db.QueryRow(query, playerID, pq.Array(matchIDs)).Scan(
		&line.Matches, &line.Minutes, &line.FoulsCommitted, &line.FoulsReceived,
		&line.Shots, &line.ShotsOnTarget, &line.LongShots, &line.Headers, &line.Cards,
	)
	return line, err
}

// topPlacements 计算球员在联赛/球队/同位置三个范围内进入前 20 的榜单位置
func (s *PlayerService) topPlacements(playerID, teamID, position string) (map[string][]RankPlacement, error) {
	scopes := []struct {
		name   string
		filter string
		args   []interface{}
	}{
		{"league", "TRUE", nil},
		{"team", "a.team_id = $1", []interface{}{teamID}},
		{"position", "a.position = $1", []interface{}{position}},
	}

	results := make(map[string][]RankPlacement)
	for _, scope := range scopes {
		var placements []RankPlacement
		for _, metric := range placementMetrics {
			placement, found, err := s.findPlacement(playerID, metric.cat, metric.label, scope.filter, scope.args)
			if err != nil {
				return nil, err
			}
			if found {
				placements = append(placements, placement)
			}
		}
		results[scope.name] = placements
	}
	return results, nil
}

// findPlacement 在一个指标榜单中查找球员位置,超过前 20 视为缺席
func (s *PlayerService) findPlacement(playerID string, cat Category, label, scopeFilter string, args []interface{}) (RankPlacement, bool, error) {
	spec, err := cat.spec()
	if err != nil {
		return RankPlacement{}, false, err
	}

	var query string
	if spec.eventBased() {
		query = fmt.Sprintf(`
			SELECT a.player_id, COUNT(e.id) AS val
			FROM player_match_appearances a
			JOIN %s e ON e.player_id = a.player_id AND e.match_id = a.match_id %s
			WHERE %s
			GROUP BY a.player_id
			HAVING COUNT(e.id) > 0
			ORDER BY val DESC, a.player_id ASC
			LIMIT %d
		`, spec.table, spec.filter, scopeFilter, topPlacementLimit)
	} else {
		query = fmt.Sprintf(`
			SELECT a.player_id, COALESCE(SUM(a.%s), 0) AS val
			FROM player_match_appearances a
			WHERE %s
			GROUP BY a.player_id
			HAVING COALESCE(SUM(a.%s), 0) > 0
			ORDER BY val DESC, a.player_id ASC
			LIMIT %d
		`, spec.madeExpr, scopeFilter, spec.madeExpr, topPlacementLimit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return RankPlacement{}, false, fmt.Errorf("placement query for %s failed: %w", cat, err)
	}
	defer rows.Close()

	pos := 0
	for rows.Next() {
		var id string
		var val int
		if err := rows.Scan(&id, &val); err != nil {
			return RankPlacement{}, false, err
		}
		pos++
		if id == playerID {
			return RankPlacement{Label: label, Rank: pos, Total: val}, true, nil
		}
	}
	return RankPlacement{}, false, rows.Err()
}

// searchResultLimit 名字搜索最多返回的球员数
const searchResultLimit = 20

// PlayerSearchResult 名字搜索结果条目
type PlayerSearchResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
	Position string `json:"position"`
}

// Search 按名字模糊搜索球员,teamID 非空时限定在该队出场记录内
// 每名球员取最近一次出场的身份信息
func (s *PlayerService) Search(name, teamID string) ([]PlayerSearchResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty search query")
	}

	query := `
		SELECT DISTINCT ON (a.player_id)
		       a.player_id, a.player_name, a.team_id, a.position,
		       CASE WHEN a.team_id = m.home_team_id THEN m.home_team ELSE m.away_team END AS team_name
		FROM player_match_appearances a
		JOIN matches m ON a.match_id = m.id
		WHERE a.player_name ILIKE $1
	`
	args := []interface{}{"%" + name + "%"}
	if teamID != "" {
		query += " AND a.team_id = $2"
		args = append(args, teamID)
	}
	query += fmt.Sprintf(" ORDER BY a.player_id, m.date DESC LIMIT %d", searchResultLimit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("player search failed: %w", err)
	}
	defer rows.Close()

	var results []PlayerSearchResult
	for rows.Next() {
		var r PlayerSearchResult
		if err := rows.Scan(&r.PlayerID, &r.Name, &r.TeamID, &r.Position, &r.TeamName); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
