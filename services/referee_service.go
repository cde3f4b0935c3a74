package services

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RefereeEntry 裁判排行条目
type RefereeEntry struct {
	Name    string  `json:"name"`
	Total   int     `json:"total"`
	Matches int     `json:"matches_played"`
	Average float64 `json:"average"`
	Rank    int     `json:"rank"`
}

// RefereeService 裁判尺度排行,仅统计执法过已结束比赛的裁判
type RefereeService struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewRefereeService 创建裁判排行服务
func NewRefereeService(db *sql.DB, log *logrus.Logger) *RefereeService {
	return &RefereeService{db: db, log: log}
}

// refereeCardsQuery 按出牌总量统计
const refereeCardsQuery = `
	SELECT m.referee, COUNT(c.id) AS total, COUNT(DISTINCT m.id) AS matches
	FROM matches m
	LEFT JOIN cards c ON c.match_id = m.id
	WHERE m.finished AND m.referee IS NOT NULL
	GROUP BY m.referee
	ORDER BY total DESC, m.referee ASC
`

// refereeFoulsQuery 按其执法比赛中的犯规总量统计
const refereeFoulsQuery = `
	SELECT m.referee, COALESCE(SUM(a.fouls_committed), 0) AS total, COUNT(DISTINCT m.id) AS matches
	FROM matches m
	LEFT JOIN player_match_appearances a ON a.match_id = m.id
	WHERE m.finished AND m.referee IS NOT NULL
	GROUP BY m.referee
	ORDER BY total DESC, m.referee ASC
`

// RankMaps 返回 {裁判: 名次} 的两个映射,分别按出牌量和犯规量排序
func (s *RefereeService) RankMaps() (cards map[string]int, fouls map[string]int, err error) {
	cards, err = s.rankMap(refereeCardsQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("referee cards ranking failed: %w", err)
	}
	fouls, err = s.rankMap(refereeFoulsQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("referee fouls ranking failed: %w", err)
	}
	return cards, fouls, nil
}

func (s *RefereeService) rankMap(query string) (map[string]int, error) {
	entries, err := s.listEntries(query)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int, len(entries))
	for _, e := range entries {
		ranks[e.Name] = e.Rank
	}
	return ranks, nil
}

// Tops 返回裁判详细榜单(总量/场次/场均),供统计页展示
func (s *RefereeService) Tops() (cards []RefereeEntry, fouls []RefereeEntry, err error) {
	cards, err = s.listEntries(refereeCardsQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("referee cards tops failed: %w", err)
	}
	fouls, err = s.listEntries(refereeFoulsQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("referee fouls tops failed: %w", err)
	}
	return cards, fouls, nil
}

func (s *RefereeService) listEntries(query string) ([]RefereeEntry, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []RefereeEntry
	for rows.Next() {
		var e RefereeEntry
		if err := rows.Scan(&e.Name, &e.Total, &e.Matches); err != nil {
			return nil, err
		}
		if e.Matches > 0 {
			e.Average = float64(e.Total) / float64(e.Matches)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
