package services

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// PredictionResult 单场单类别的对位预测结果
// 分数是排名混合的启发式百分比,不是校准过的概率
type PredictionResult struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
	Combined  int `json:"combined_score"`

	HomeMadeRank    int  `json:"home_made_rank"`
	HomeAgainstRank int  `json:"home_against_rank"`
	AwayMadeRank    int  `json:"away_made_rank"`
	AwayAgainstRank int  `json:"away_against_rank"`
	RefereeRank     *int `json:"referee_rank,omitempty"`
}

// PredictionService 预测引擎
// 将双方的攻防排名(以及受裁判尺度影响类别的裁判排名)折算为 0-100 分
type PredictionService struct {
	rankings     *RankingService
	referees     *RefereeService
	leagueSize   int
	fallbackRank int
	log          *logrus.Logger
}

// NewPredictionService 创建预测引擎
// leagueSize 为名义联赛规模 L,fallbackRank 为实体缺席排行榜时的兜底名次
func NewPredictionService(rankings *RankingService, referees *RefereeService, leagueSize, fallbackRank int, log *logrus.Logger) *PredictionService {
	if leagueSize < 2 {
		leagueSize = 2
	}
	if fallbackRank <= 0 {
		fallbackRank = leagueSize/2 + 1
	}
	return &PredictionService{
		rankings:     rankings,
		referees:     referees,
		leagueSize:   leagueSize,
		fallbackRank: fallbackRank,
		log:          log,
	}
}

// Predict 计算一场对位的预测分
// referee 为空或类别不受裁判影响时仅使用四个攻防排名
func (s *PredictionService) Predict(homeID, awayID string, cat Category, referee string) (*PredictionResult, error) {
	madeRanks, err := s.rankings.TeamRankMap(cat, DirectionMade)
	if err != nil {
		return nil, fmt.Errorf("failed to build made ranking: %w", err)
	}
	againstRanks, err := s.rankings.TeamRankMap(cat, DirectionAgainst)
	if err != nil {
		return nil, fmt.Errorf("failed to build against ranking: %w", err)
	}

	var refereeRanks map[string]int
	if referee != "" && cat.RefereeSensitive() {
		cards, fouls, err := s.referees.RankMaps()
		if err != nil {
			return nil, fmt.Errorf("failed to build referee ranking: %w", err)
		}
		refereeRanks = cards
		if cat == CategoryFoulsCommitted {
			refereeRanks = fouls
		}
	}

	return s.PredictWithRanks(homeID, awayID, cat, referee, madeRanks, againstRanks, refereeRanks), nil
}

// PredictWithRanks 用预先计算好的排名映射计算预测分
// 主页等需要批量预测的调用方复用同一组排名,避免重复聚合
func (s *PredictionService) PredictWithRanks(homeID, awayID string, cat Category, referee string, madeRanks, againstRanks, refereeRanks map[string]int) *PredictionResult {
	result := &PredictionResult{
		HomeMadeRank:    s.rankOr(madeRanks, homeID),
		HomeAgainstRank: s.rankOr(againstRanks, homeID),
		AwayMadeRank:    s.rankOr(madeRanks, awayID),
		AwayAgainstRank: s.rankOr(againstRanks, awayID),
	}

	l := s.leagueSize
	inv := func(rank int) int { return l - rank }

	if referee != "" && cat.RefereeSensitive() && refereeRanks != nil {
		refRank := s.fallbackRank
		if r, ok := refereeRanks[referee]; ok {
			refRank = r
		}
		result.RefereeRank = &refRank

		// 裁判排名作为第三项折入,分母相应放大
		result.HomeScore = roundedShare(inv(result.HomeMadeRank)+inv(result.AwayAgainstRank)+inv(refRank), 3*l-3)
		result.AwayScore = roundedShare(inv(result.AwayMadeRank)+inv(result.HomeAgainstRank)+inv(refRank), 3*l-3)
		result.Combined = roundedShare(
			inv(result.HomeMadeRank)+inv(result.HomeAgainstRank)+inv(result.AwayMadeRank)+inv(result.AwayAgainstRank)+inv(refRank),
			5*l-5,
		)
		return result
	}

	result.HomeScore = roundedShare(inv(result.HomeMadeRank)+inv(result.AwayAgainstRank), 2*l-2)
	result.AwayScore = roundedShare(inv(result.AwayMadeRank)+inv(result.HomeAgainstRank), 2*l-2)
	result.Combined = (result.HomeScore + result.AwayScore) / 2
	return result
}

// MatchPredictions 为一场比赛生成四个类别的完整预测
// 红黄牌与犯规两个类别折入该场裁判的尺度排名
func (s *PredictionService) MatchPredictions(homeID, awayID string, referee *string) (map[string]*PredictionResult, error) {
	ref := ""
	if referee != nil {
		ref = *referee
	}

	categories := []Category{CategoryShots, CategoryHeaders, CategoryCards, CategoryFoulsCommitted}
	results := make(map[string]*PredictionResult, len(categories))
	for _, cat := range categories {
		p, err := s.Predict(homeID, awayID, cat, ref)
		if err != nil {
			return nil, fmt.Errorf("prediction for %s failed: %w", cat, err)
		}
		results[cat.String()] = p
	}
	return results, nil
}

// rankOr 查排名,缺席实体使用兜底名次
func (s *PredictionService) rankOr(ranks map[string]int, entityID string) int {
	if r, ok := ranks[entityID]; ok {
		return r
	}
	return s.fallbackRank
}

// roundedShare 按比例折算为 0-100 的整数分
func roundedShare(numerator, denominator int) int {
	if denominator <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(numerator) / float64(denominator)))
}
