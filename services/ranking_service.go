package services

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Direction 统计归属方向
// made 统计实体自身产出,against 统计对手在与该实体交手时的同类产出
type Direction int

const (
	DirectionMade Direction = iota
	DirectionAgainst
)

// ParseDirection 解析方向参数
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "made":
		return DirectionMade, nil
	case "against":
		return DirectionAgainst, nil
	}
	return 0, fmt.Errorf("unknown direction: %q", s)
}

func (d Direction) String() string {
	if d == DirectionAgainst {
		return "against"
	}
	return "made"
}

// SortOrder 排序指标
type SortOrder int

const (
	OrderByTotal SortOrder = iota
	OrderByAverage
)

// ParseSortOrder 解析排序参数
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "total":
		return OrderByTotal, nil
	case "average", "avg":
		return OrderByAverage, nil
	}
	return 0, fmt.Errorf("unknown sort order: %q", s)
}

func (o SortOrder) String() string {
	if o == OrderByAverage {
		return "average"
	}
	return "total"
}

// Category 排行榜统计类别,封闭枚举
// 每个类别在 categorySpecs 中声明数据来源表/聚合列/过滤条件,
// 不支持的类别在构造期即报错,不会落到运行期字符串比较
type Category int

const (
	CategoryShots Category = iota
	CategoryShotsOnTarget
	CategoryLongShots
	CategoryHeaders
	CategoryCards
	CategoryFoulsCommitted
	CategoryFoulsReceived
)

// categorySpec 类别到数据表/聚合方式的映射
type categorySpec struct {
	name        string
	table       string // 事件来源表
	filter      string // 事件表的附加过滤条件(含前导 AND)
	madeExpr    string // 出场表类别的 made 聚合列
	againstExpr string // 出场表类别的 against 聚合列(镜像列)
}

var categorySpecs = map[Category]categorySpec{
	CategoryShots:          {name: "shots", table: "shots"},
	CategoryShotsOnTarget:  {name: "shots-on-target", table: "shots", filter: "AND e.on_target"},
	CategoryLongShots:      {name: "long-shots", table: "shots", filter: "AND NOT e.inside_box"},
	CategoryHeaders:        {name: "headers", table: "shots", filter: "AND e.shot_type = 'Header'"},
	CategoryCards:          {name: "cards", table: "cards"},
	CategoryFoulsCommitted: {name: "fouls-committed", table: "player_match_appearances", madeExpr: "fouls_committed", againstExpr: "fouls_received"},
	CategoryFoulsReceived:  {name: "fouls-received", table: "player_match_appearances", madeExpr: "fouls_received", againstExpr: "fouls_committed"},
}

// ParseCategory 解析类别参数
func ParseCategory(s string) (Category, error) {
	for c, spec := range categorySpecs {
		if spec.name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category: %q", s)
}

func (c Category) String() string {
	if spec, ok := categorySpecs[c]; ok {
		return spec.name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// spec 返回类别的聚合声明,未注册的类别直接报错
func (c Category) spec() (categorySpec, error) {
	spec, ok := categorySpecs[c]
	if !ok {
		return categorySpec{}, fmt.Errorf("unsupported category: %d", int(c))
	}
	return spec, nil
}

// eventBased 类别是否基于事件表(否则基于出场表聚合列)
func (s categorySpec) eventBased() bool {
	return s.madeExpr == ""
}

// RefereeSensitive 该类别的预测是否受裁判尺度影响
func (c Category) RefereeSensitive() bool {
	return c == CategoryCards || c == CategoryFoulsCommitted
}

// RankingEntry 排行榜条目,按查询即时生成,不落库
type RankingEntry struct {
	EntityID string  `json:"id"`
	Name     string  `json:"name"`
	Total    int     `json:"total"`
	Matches  int     `json:"matches_played"`
	Average  float64 `json:"average"`
	Rank     int     `json:"rank"`
}

// rankingStore 排行榜引擎依赖的存储查询
type rankingStore interface {
	TeamIDs() ([]string, error)
	TeamNames() (map[string]string, error)
	LastFinishedMatchIDs(teamID string, n int) ([]string, error)
}

// RankingService 排行榜引擎,只读聚合查询
type RankingService struct {
	db    *sql.DB
	store rankingStore
	log   *logrus.Logger

	// windowTotals 窗口总量计算,默认走 SQL 聚合,测试中可替换
	windowTotals func(spec categorySpec, dir Direction, teamID string, matchIDs []string) (int, error)
}

// NewRankingService 创建排行榜引擎
func NewRankingService(db *sql.DB, store rankingStore, log *logrus.Logger) *RankingService {
	s := &RankingService{db: db, store: store, log: log}
	s.windowTotals = s.windowTotal
	return s
}

// TeamRankings 计算球队排行榜
// window > 0 时按每支球队各自最近 window 场已结束比赛统计,
// 两支被比较的球队的窗口可能覆盖不同的日期区间
func (s *RankingService) TeamRankings(cat Category, dir Direction, order SortOrder, window int) ([]RankingEntry, error) {
	spec, err := cat.spec()
	if err != nil {
		return nil, err
	}

	names, err := s.store.TeamNames()
	if err != nil {
		return nil, fmt.Errorf("failed to load team names: %w", err)
	}

	var entries []RankingEntry
	if window > 0 {
		entries, err = s.windowedTeamEntries(spec, dir, window)
	} else {
		entries, err = s.globalTeamEntries(spec, dir)
	}
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if name, ok := names[entries[i].EntityID]; ok {
			entries[i].Name = name
		}
	}

	sortAndRank(entries, order)
	return entries, nil
}

// TeamRankMap 返回 {球队ID: 名次} 映射,供预测引擎使用
func (s *RankingService) TeamRankMap(cat Category, dir Direction) (map[string]int, error) {
	entries, err := s.TeamRankings(cat, dir, OrderByTotal, 0)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int, len(entries))
	for _, e := range entries {
		ranks[e.EntityID] = e.Rank
	}
	return ranks, nil
}

// globalTeamEntries 全量统计,单条聚合查询
func (s *RankingService) globalTeamEntries(spec categorySpec, dir Direction) ([]RankingEntry, error) {
	var query string
	if spec.eventBased() {
		if dir == DirectionMade {
			query = fmt.Sprintf(`
				SELECT e.team_id, COUNT(*) AS total, COUNT(DISTINCT e.match_id) AS matches
				FROM %s e
				WHERE e.team_id IS NOT NULL %s
				GROUP BY e.team_id
			`, spec.table, spec.filter)
		} else {
			query = fmt.Sprintf(`
				SELECT CASE WHEN e.team_id = m.home_team_id THEN m.away_team_id ELSE m.home_team_id END AS team_id,
				       COUNT(*) AS total, COUNT(DISTINCT e.match_id) AS matches
				FROM %s e
				JOIN matches m ON e.match_id = m.id
				WHERE e.team_id IS NOT NULL %s
				GROUP BY 1
			`, spec.table, spec.filter)
		}
	} else {
		expr := spec.madeExpr
		if dir == DirectionAgainst {
			expr = spec.againstExpr
		}
		query = fmt.Sprintf(`
			SELECT team_id, COALESCE(SUM(%s), 0) AS total, COUNT(DISTINCT match_id) AS matches
			FROM %s
			WHERE team_id IS NOT NULL
			GROUP BY team_id
		`, expr, spec.table)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("ranking query failed: %w", err)
	}
	defer rows.Close()

	var entries []RankingEntry
	for rows.Next() {
		var e RankingEntry
		if err := rows.Scan(&e.EntityID, &e.Total, &e.Matches); err != nil {
			return nil, err
		}
		if e.Matches > 0 {
			e.Average = float64(e.Total) / float64(e.Matches)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// windowedTeamEntries 按球队各自的最近 N 场比赛统计
// 窗口为空的球队保留零值条目
func (s *RankingService) windowedTeamEntries(spec categorySpec, dir Direction, window int) ([]RankingEntry, error) {
	teamIDs, err := s.store.TeamIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to load team ids: %w", err)
	}

	entries := make([]RankingEntry, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		matchIDs, err := s.store.LastFinishedMatchIDs(teamID, window)
		if err != nil {
			return nil, fmt.Errorf("failed to load window for team %s: %w", teamID, err)
		}

		entry := RankingEntry{EntityID: teamID, Matches: len(matchIDs)}
		if len(matchIDs) > 0 {
			total, err := s.windowTotals(spec, dir, teamID, matchIDs)
			if err != nil {
				return nil, err
			}
			entry.Total = total
			entry.Average = float64(total) / float64(len(matchIDs))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// windowTotal 统计一支球队在给定比赛集合内的类别总量
func (s *RankingService) windowTotal(spec categorySpec, dir Direction, teamID string, matchIDs []string) (int, error) {
	var query string
	if spec.eventBased() {
		if dir == DirectionMade {
			query = fmt.Sprintf(`
				SELECT COUNT(*) FROM %s e
				WHERE e.team_id = $1 AND e.match_id = ANY($2) %s
			`, spec.table, spec.filter)
		} else {
			query = fmt.Sprintf(`
				SELECT COUNT(*) FROM %s e
				JOIN matches m ON e.match_id = m.id
				WHERE (CASE WHEN e.team_id = m.home_team_id THEN m.away_team_id ELSE m.home_team_id END) = $1
				  AND e.match_id = ANY($2) %s
			`, spec.table, spec.filter)
		}
	} else {
		expr := spec.madeExpr
		if dir == DirectionAgainst {
			expr = spec.againstExpr
		}
		query = fmt.Sprintf(`
			SELECT COALESCE(SUM(%s), 0) FROM %s
			WHERE team_id = $1 AND match_id = ANY($2)
		`, expr, spec.table)
	}

	var total int
	if err := s.db.QueryRow(query, teamID, pq.Array(matchIDs)).Scan(&total); err != nil {
		return 0, fmt.Errorf("window total query failed: %w", err)
	}
	return total, nil
}

// sortAndRank 按指定指标降序排序并赋予 1 起始名次
// 指标相同的条目按实体 ID 升序保证结果可复现
func sortAndRank(entries []RankingEntry, order SortOrder) {
	metric := func(e RankingEntry) float64 { return float64(e.Total) }
	if order == OrderByAverage {
		metric = func(e RankingEntry) float64 { return e.Average }
	}

	sort.SliceStable(entries, func(i, j int) bool {
		mi, mj := metric(entries[i]), metric(entries[j])
		if mi != mj {
			return mi > mj
		}
		return entries[i].EntityID < entries[j].EntityID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
}
