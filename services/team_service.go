package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"arg-stats/database"
)

// CategoryRank 一个类别中某支球队的位置与数据
type CategoryRank struct {
	Label   string `json:"label"`
	Rank    int    `json:"rank"` // 0 表示该队未进入榜单
	Total   int    `json:"total"`
	Matches int    `json:"matches_played"`
}

// TeamRankPair 某一类别的攻防两端位置
type TeamRankPair struct {
	Made    CategoryRank `json:"made"`
	Against CategoryRank `json:"against"`
}

// TeamSummary 球队画像:各类别攻防排名与比赛历史
type TeamSummary struct {
	TeamID   string           `json:"team_id"`
	Name     string           `json:"name"`
	Rankings []TeamRankPair   `json:"rankings"`
	Matches  []database.Match `json:"matches"`
}

// TeamService 球队画像服务
type TeamService struct {
	rankings *RankingService
	store    *MatchStore
	log      *logrus.Logger
}

// NewTeamService 创建球队画像服务
func NewTeamService(rankings *RankingService, store *MatchStore, log *logrus.Logger) *TeamService {
	return &TeamService{rankings: rankings, store: store, log: log}
}

// summaryCategories 球队画像展示的类别及标签
var summaryCategories = []struct {
	cat          Category
	madeLabel    string
	againstLabel string
}{
	{CategoryShots, "Tiros", "Tiros Recibidos"},
	{CategoryShotsOnTarget, "Tiros al Arco", "Tiros al Arco Recibidos"},
	{CategoryLongShots, "Tiros Lejanos", "Tiros Lejanos Recibidos"},
	{CategoryHeaders, "Cabezazos", "Cabezazos Recibidos"},
	{CategoryCards, "Tarjetas", "Tarjetas Generadas"},
	{CategoryFoulsCommitted, "Faltas", "Faltas Recibidas"},
}

// Summary 构建球队画像
func (s *TeamService) Summary(teamID string) (*TeamSummary, error) {
	names, err := s.store.TeamNames()
	if err != nil {
		return nil, fmt.Errorf("failed to load team names: %w", err)
	}
	name, ok := names[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}

	summary := &TeamSummary{TeamID: teamID, Name: name}

	for _, sc := range summaryCategories {
		made, err := s.rankings.TeamRankings(sc.cat, DirectionMade, OrderByTotal, 0)
		if err != nil {
			return nil, fmt.Errorf("made ranking for %s failed: %w", sc.cat, err)
		}
		against, err := s.rankings.TeamRankings(sc.cat, DirectionAgainst, OrderByTotal, 0)
		if err != nil {
			return nil, fmt.Errorf("against ranking for %s failed: %w", sc.cat, err)
		}

		summary.Rankings = append(summary.Rankings, TeamRankPair{
			Made:    findCategoryRank(made, teamID, sc.madeLabel),
			Against: findCategoryRank(against, teamID, sc.againstLabel),
		})
	}

	matches, err := s.store.TeamMatches(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team matches: %w", err)
	}
	summary.Matches = matches

	return summary, nil
}

// findCategoryRank 在榜单中定位球队,缺席时返回零值条目
func findCategoryRank(entries []RankingEntry, teamID, label string) CategoryRank {
	for _, e := range entries {
		if e.EntityID == teamID {
			return CategoryRank{Label: label, Rank: e.Rank, Total: e.Total, Matches: e.Matches}
		}
	}
	return CategoryRank{Label: label}
}
