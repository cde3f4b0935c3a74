package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"arg-stats/database"
	"arg-stats/fotmob"
)

const (
	// 联赛本地时间与 UTC 的固定偏移,部署环境时区不可依赖
	kickoffUTCOffset = -3 * time.Hour

	// 首发球员缺少分钟数时的默认值
	fullMatchMinutes = 90
)

// knockoutRounds 淘汰赛轮次名到联赛轮次序号的固定映射,未知轮次原样保留
var knockoutRounds = map[string]string{
	"1/8":        "17",
	"1/4":        "18",
	"1/2":        "19",
	"Semi-final": "19",
	"Final":      "20",
}

// positionNames FotMob 位置编号到位置分类的映射
var positionNames = map[int]string{
	0: database.PositionGoalkeeper,
	1: database.PositionDefender,
	2: database.PositionMidfielder,
	3: database.PositionForward,
}

// MatchWriter 摄取所需的存储写入接口
type MatchWriter interface {
	UpsertMatch(m *database.Match) error
	ReplaceAppearances(matchID string, rows []database.PlayerMatchAppearance) error
	ReplaceShots(matchID string, rows []database.Shot) error
	ReplaceCards(matchID string, rows []database.Card) error
}

// IngestService 摄取归一化服务
// 将上游比赛详情负载转换为事件存储中的行,对同一场比赛幂等
type IngestService struct {
	store MatchWriter
	log   *logrus.Logger
}

// NewIngestService 创建摄取服务
func NewIngestService(store MatchWriter, log *logrus.Logger) *IngestService {
	return &IngestService{store: store, log: log}
}

// IngestMatch 摄取一场比赛
// 比赛主记录无条件更新;只有已结束的比赛才会写入子事件,
// 子类别各自独立落库,单个类别失败不影响其他类别
func (s *IngestService) IngestMatch(matchID string, payload *fotmob.MatchDetails) error {
	if payload == nil || (payload.General.HomeTeam.ID == "" && payload.General.AwayTeam.ID == "") {
		s.log.Warnf("[Ingest] match %s: empty or malformed payload, skipping", matchID)
		return fmt.Errorf("match %s: empty payload", matchID)
	}

	general := payload.General
	status := payload.Header.Status
	content := payload.Content
	infoBox := content.MatchFacts.InfoBox

	match := &database.Match{
		ID:         matchID,
		Date:       adjustUTCToLocal(general.MatchTimeUTCDate),
		Finished:   status.Finished,
		Tournament: infoBox.Tournament.LeagueName,
		Gameweek:   convertRoundToGameweek(general.LeagueRoundName.String()),
		HomeTeamID: general.HomeTeam.ID.String(),
		HomeTeam:   general.HomeTeam.Name,
		AwayTeamID: general.AwayTeam.ID.String(),
		AwayTeam:   general.AwayTeam.Name,
		Score:      optional(status.ScoreStr),
		Referee:    optional(infoBox.Referee.Text),
	}

	if err := s.store.UpsertMatch(match); err != nil {
		s.log.Errorf("[Ingest] ❌ match %s: failed to upsert match: %v", matchID, err)
		return fmt.Errorf("match %s: upsert failed: %w", matchID, err)
	}

	if !status.Finished {
		s.log.Infof("[Ingest] match %s: updated (pending)", matchID)
		return nil
	}

	// 即使某个类别这次为空也要替换,保证子事件集被整体覆盖
	appearances := s.buildAppearances(matchID, content)
	if err := s.store.ReplaceAppearances(matchID, appearances); err != nil {
		s.log.Errorf("[Ingest] ❌ match %s: failed to store appearances: %v", matchID, err)
	} else {
		s.log.Infof("[Ingest] match %s: stored %d player appearances", matchID, len(appearances))
	}

	shots := buildShots(matchID, content.Shotmap)
	if err := s.store.ReplaceShots(matchID, shots); err != nil {
		s.log.Errorf("[Ingest] ❌ match %s: failed to store shots: %v", matchID, err)
	} else {
		s.log.Infof("[Ingest] match %s: stored %d shots", matchID, len(shots))
	}

	cards := buildCards(matchID, general, content.MatchFacts.Events.Events)
	if err := s.store.ReplaceCards(matchID, cards); err != nil {
		s.log.Errorf("[Ingest] ❌ match %s: failed to store cards: %v", matchID, err)
	} else {
		s.log.Infof("[Ingest] match %s: stored %d cards", matchID, len(cards))
	}

	s.log.Infof("[Ingest] ✅ match %s: update complete", matchID)
	return nil
}

// buildAppearances 展平两边阵容,每名球员一行
func (s *IngestService) buildAppearances(matchID string, content fotmob.Content) []database.PlayerMatchAppearance {
	var rows []database.PlayerMatchAppearance

	sides := []fotmob.LineupTeam{content.Lineup.HomeTeam, content.Lineup.AwayTeam}
	for _, side := range sides {
		teamID := side.ID.String()

		sections := []struct {
			players []fotmob.LineupPlayer
			starter bool
		}{
			{side.Starters, true},
			{side.Subs, false},
		}

		for _, section := range sections {
			for _, p := range section.players {
				pid := p.ID.String()
				stats := fotmob.FlattenPlayerStats(content.PlayerStats[pid])

				minutes := 0
				if v, ok := stats["minutes_played"]; ok {
					minutes = int(v)
				} else if section.starter {
					minutes = fullMatchMinutes
				}
				if minutes < 0 {
					minutes = 0
				}

				position := database.PositionUnknown
				if p.UsualPlayingPositionID != nil {
					if name, ok := positionNames[*p.UsualPlayingPositionID]; ok {
						position = name
					}
				}

				rows = append(rows, database.PlayerMatchAppearance{
					MatchID:        matchID,
					PlayerID:       pid,
					TeamID:         teamID,
					PlayerName:     p.Name,
					Position:       position,
					ShirtNumber:    p.ShirtNumber.String(),
					IsStarter:      section.starter,
					MinutesPlayed:  minutes,
					Rating:         p.Performance.Rating,
					RoleX:          normalizeCoord(p.VerticalLayout.Y),
					RoleY:          normalizeCoord(p.VerticalLayout.X),
					FoulsCommitted: int(stats["fouls"]),
					FoulsReceived:  int(stats["was_fouled"]),
				})
			}
		}
	}

	return rows
}

// buildShots 从射门列表构建射门事件行
func buildShots(matchID string, shotmap fotmob.Shotmap) []database.Shot {
	rows := make([]database.Shot, 0, len(shotmap.Shots))
	for _, sh := range shotmap.Shots {
		rows = append(rows, database.Shot{
			MatchID:    matchID,
			PlayerID:   sh.PlayerID.String(),
			PlayerName: sh.PlayerName,
			TeamID:     sh.TeamID.String(),
			Minute:     sh.Min.String(),
			OnTarget:   sh.IsOnTarget && !sh.IsBlocked,
			ShotType:   sh.ShotType,
			Situation:  sh.Situation,
			Outcome:    sh.EventType,
			InsideBox:  sh.IsFromInsideBox,
		})
	}
	return rows
}

// buildCards 从比赛事件时间线构建红黄牌行
// 球员不在场上吃到的牌(教练席等)不计入
func buildCards(matchID string, general fotmob.General, events []fotmob.MatchEvent) []database.Card {
	homeID := general.HomeTeam.ID.String()
	awayID := general.AwayTeam.ID.String()

	var rows []database.Card
	for _, ev := range events {
		if ev.Card == "" {
			continue
		}
		if ev.CardDescription != nil && ev.CardDescription.LocalizedKey == "not_on_pitch" {
			continue
		}

		teamID := awayID
		if ev.IsHome {
			teamID = homeID
		}

		rows = append(rows, database.Card{
			MatchID:    matchID,
			PlayerID:   ev.Player.ID.String(),
			PlayerName: ev.Player.Name,
			TeamID:     teamID,
			CardType:   ev.Card,
			Minute:     ev.TimeStr.String(),
		})
	}
	return rows
}

// adjustUTCToLocal 把上游 UTC 时间换算成联赛本地时间
// 解析失败时返回零值时间
func adjustUTCToLocal(utcStr string) time.Time {
	if utcStr == "" {
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, utcStr); err == nil {
			return t.Add(kickoffUTCOffset)
		}
	}
	return time.Time{}
}

// convertRoundToGameweek 映射淘汰赛轮次名,常规轮次原样返回
func convertRoundToGameweek(round string) string {
	if mapped, ok := knockoutRounds[round]; ok {
		return mapped
	}
	return round
}

// normalizeCoord 把百分比坐标归一化到 [0,1] 区间
func normalizeCoord(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	if v < 0 {
		return 0
	}
	return v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
