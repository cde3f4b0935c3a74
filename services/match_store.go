package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"arg-stats/database"
)

var (
	// ErrMatchNotFound 比赛不存在
	ErrMatchNotFound = errors.New("match not found")

	// ErrTeamNotFound 球队不存在
	ErrTeamNotFound = errors.New("team not found")

	// ErrPlayerNotFound 球员不存在
	ErrPlayerNotFound = errors.New("player not found")
)

// MatchStore 事件存储访问层
type MatchStore struct {
	db *sql.DB
}

// NewMatchStore 创建事件存储
func NewMatchStore(db *sql.DB) *MatchStore {
	return &MatchStore{db: db}
}

// UpsertMatch 写入或更新比赛记录
func (s *MatchStore) UpsertMatch(m *database.Match) error {
	query := `
		INSERT INTO matches (id, date, finished, tournament, gameweek, home_team_id, home_team, away_team_id, away_team, score, referee, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id)
		DO UPDATE SET
			date = EXCLUDED.date,
			finished = EXCLUDED.finished,
			tournament = EXCLUDED.tournament,
			gameweek = EXCLUDED.gameweek,
			home_team_id = EXCLUDED.home_team_id,
			home_team = EXCLUDED.home_team,
			away_team_id = EXCLUDED.away_team_id,
			away_team = EXCLUDED.away_team,
			score = EXCLUDED.score,
			referee = EXCLUDED.referee,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.Exec(query,
		m.ID, m.Date, m.Finished, m.Tournament, m.Gameweek,
		m.HomeTeamID, m.HomeTeam, m.AwayTeamID, m.AwayTeam,
		m.Score, m.Referee, time.Now(),
	)
	return err
}

// ReplaceAppearances 整体替换一场比赛的球员出场记录
// 先删后插保证同一场比赛重复摄取不会产生重复行
func (s *MatchStore) ReplaceAppearances(matchID string, rows []database.PlayerMatchAppearance) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM player_match_appearances WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to clear appearances: %w", err)
	}

	query := `
		INSERT INTO player_match_appearances
			(match_id, player_id, team_id, player_name, position, shirt_number, is_starter, minutes_played, rating, role_x, role_y, fouls_committed, fouls_received)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	for _, r := range rows {
		if _, err := tx.Exec(query,
			r.MatchID, r.PlayerID, r.TeamID, r.PlayerName, r.Position, r.ShirtNumber,
			r.IsStarter, r.MinutesPlayed, r.Rating, r.RoleX, r.RoleY,
			r.FoulsCommitted, r.FoulsReceived,
		); err != nil {
			return fmt.Errorf("failed to insert appearance for player %s: %w", r.PlayerID, err)
		}
	}

	return tx.Commit()
}

// ReplaceShots 整体替换一场比赛的射门事件
func (s *MatchStore) ReplaceShots(matchID string, rows []database.Shot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM shots WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to clear shots: %w", err)
	}

	query := `
		INSERT INTO shots (match_id, player_id, player_name, team_id, minute, on_target, shot_type, situation, outcome, inside_box)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, r := range rows {
		if _, err := tx.Exec(query,
			r.MatchID, r.PlayerID, r.PlayerName, r.TeamID, r.Minute,
			r.OnTarget, r.ShotType, r.Situation, r.Outcome, r.InsideBox,
		); err != nil {
			return fmt.Errorf("failed to insert shot: %w", err)
		}
	}

	return tx.Commit()
}

// ReplaceCards 整体替换一场比赛的红黄牌事件
func (s *MatchStore) ReplaceCards(matchID string, rows []database.Card) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to clear cards: %w", err)
	}

	query := `
		INSERT INTO cards (match_id, player_id, player_name, team_id, card_type, minute)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, r := range rows {
		if _, err := tx.Exec(query,
			r.MatchID, r.PlayerID, r.PlayerName, r.TeamID, r.CardType, r.Minute,
		); err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
	}

	return tx.Commit()
}

// GetMatch 按 ID 获取比赛
func (s *MatchStore) GetMatch(matchID string) (*database.Match, error) {
	query := `
		SELECT id, date, finished, tournament, gameweek, home_team_id, home_team, away_team_id, away_team, score, referee
		FROM matches WHERE id = $1
	`

	var m database.Match
	var date sql.NullTime
	err := s.db.QueryRow(query, matchID).Scan(
		&m.ID, &date, &m.Finished, &m.Tournament, &m.Gameweek,
		&m.HomeTeamID, &m.HomeTeam, &m.AwayTeamID, &m.AwayTeam,
		&m.Score, &m.Referee,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	if date.Valid {
		m.Date = date.Time
	}
	return &m, nil
}

// LastFinishedMatchIDs 返回某支球队最近 n 场已结束比赛的 ID,按日期倒序
// 窗口统计的唯一入口,"made" 与 "against" 两个方向共用
func (s *MatchStore) LastFinishedMatchIDs(teamID string, n int) ([]string, error) {
	query := `
		SELECT id FROM matches
		WHERE (home_team_id = $1 OR away_team_id = $1) AND finished
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := s.db.Query(query, teamID, n)
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

// TeamIDs 返回联赛中出现过的所有球队 ID
func (s *MatchStore) TeamIDs() ([]string, error) {
	query := `
		SELECT DISTINCT home_team_id FROM matches WHERE home_team_id IS NOT NULL
		UNION
		SELECT DISTINCT away_team_id FROM matches WHERE away_team_id IS NOT NULL
	`

	rows, err := s.db.Query(query)
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

// TeamNames 返回球队 ID 到展示名的映射
func (s *MatchStore) TeamNames() (map[string]string, error) {
	query := `
		SELECT DISTINCT home_team_id, home_team FROM matches WHERE home_team_id IS NOT NULL
		UNION
		SELECT DISTINCT away_team_id, away_team FROM matches WHERE away_team_id IS NOT NULL
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// TeamMatches 返回一支球队的全部比赛,按日期倒序
func (s *MatchStore) TeamMatches(teamID string) ([]database.Match, error) {
	query := `
		SELECT id, date, finished, tournament, gameweek, home_team_id, home_team, away_team_id, away_team, score, referee
		FROM matches
		WHERE home_team_id = $1 OR away_team_id = $1
		ORDER BY date DESC
	`

	rows, err := s.db.Query(query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []database.Match
	for rows.Next() {
		var m database.Match
		var date sql.NullTime
		if err := rows.Scan(
			&m.ID, &date, &m.Finished, &m.Tournament, &m.Gameweek,
			&m.HomeTeamID, &m.HomeTeam, &m.AwayTeamID, &m.AwayTeam,
			&m.Score, &m.Referee,
		); err != nil {
			return nil, err
		}
		if date.Valid {
			m.Date = date.Time
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// LatestFinishedGameweek 返回最近一场已结束比赛所在的轮次,没有数据时返回 1
func (s *MatchStore) LatestFinishedGameweek() (int, error) {
	query := `
		SELECT gameweek FROM matches
		WHERE finished
		ORDER BY date DESC
		LIMIT 1
	`

	var gw string
	err := s.db.QueryRow(query).Scan(&gw)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(gw)
	if err != nil {
		return 1, nil
	}
	return n, nil
}

// PendingMatchIDs 返回给定轮次中尚未结束的比赛 ID
func (s *MatchStore) PendingMatchIDs(gameweeks []string) ([]string, error) {
	query := `
		SELECT id FROM matches
		WHERE gameweek = ANY($1) AND NOT finished
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, pq.Array(gameweeks))
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
