package database

import (
	"time"
)

// 球员场上位置分类
const (
	PositionGoalkeeper = "ARQ"
	PositionDefender   = "DF"
	PositionMidfielder = "M"
	PositionForward    = "DL"
	PositionUnknown    = "N/A"
)

// Match 比赛记录
// 所有 ID 保持字符串类型,避免上游异构编码带来的精度/格式问题
type Match struct {
	ID         string    `json:"id" db:"id"`
	Date       time.Time `json:"date" db:"date"`
	Finished   bool      `json:"finished" db:"finished"`
	Tournament string    `json:"tournament" db:"tournament"`
	Gameweek   string    `json:"gameweek" db:"gameweek"`
	HomeTeamID string    `json:"home_team_id" db:"home_team_id"`
	HomeTeam   string    `json:"home_team" db:"home_team"`
	AwayTeamID string    `json:"away_team_id" db:"away_team_id"`
	AwayTeam   string    `json:"away_team" db:"away_team"`
	Score      *string   `json:"score,omitempty" db:"score"`
	Referee    *string   `json:"referee,omitempty" db:"referee"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// PlayerMatchAppearance 球员单场出场记录
type PlayerMatchAppearance struct {
	MatchID        string  `json:"match_id" db:"match_id"`
	PlayerID       string  `json:"player_id" db:"player_id"`
	TeamID         string  `json:"team_id" db:"team_id"`
	PlayerName     string  `json:"player_name" db:"player_name"`
	Position       string  `json:"position" db:"position"`
	ShirtNumber    string  `json:"shirt_number" db:"shirt_number"`
	IsStarter      bool    `json:"is_starter" db:"is_starter"`
	MinutesPlayed  int     `json:"minutes_played" db:"minutes_played"`
	Rating         float64 `json:"rating" db:"rating"`
	RoleX          float64 `json:"role_x" db:"role_x"`
	RoleY          float64 `json:"role_y" db:"role_y"`
	FoulsCommitted int     `json:"fouls_committed" db:"fouls_committed"`
	FoulsReceived  int     `json:"fouls_received" db:"fouls_received"`
}

// Shot 射门事件
type Shot struct {
	ID         int64  `json:"id" db:"id"`
	MatchID    string `json:"match_id" db:"match_id"`
	PlayerID   string `json:"player_id" db:"player_id"`
	PlayerName string `json:"player_name" db:"player_name"`
	TeamID     string `json:"team_id" db:"team_id"`
	Minute     string `json:"minute" db:"minute"`
	OnTarget   bool   `json:"on_target" db:"on_target"`
	ShotType   string `json:"shot_type" db:"shot_type"`
	Situation  string `json:"situation" db:"situation"`
	Outcome    string `json:"outcome" db:"outcome"`
	InsideBox  bool   `json:"inside_box" db:"inside_box"`
}

// Card 红黄牌事件
type Card struct {
	ID         int64  `json:"id" db:"id"`
	MatchID    string `json:"match_id" db:"match_id"`
	PlayerID   string `json:"player_id" db:"player_id"`
	PlayerName string `json:"player_name" db:"player_name"`
	TeamID     string `json:"team_id" db:"team_id"`
	CardType   string `json:"card_type" db:"card_type"`
	Minute     string `json:"minute" db:"minute"`
}
