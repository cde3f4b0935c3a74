package services

import (
	"sort"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"shots":           CategoryShots,
		"shots-on-target": CategoryShotsOnTarget,
		"long-shots":      CategoryLongShots,
		"headers":         CategoryHeaders,
		"cards":           CategoryCards,
		"fouls-committed": CategoryFoulsCommitted,
		"fouls-received":  CategoryFoulsReceived,
	}

	for input, want := range cases {
		got, err := ParseCategory(input)
		if err != nil {
			t.Errorf("ParseCategory(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseCategory(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseCategory("goals"); err == nil {
		t.Error("Expected error for unknown category")
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection(""); err != nil || d != DirectionMade {
		t.Errorf("Expected empty direction to default to made, got %v, %v", d, err)
	}
	if d, err := ParseDirection("against"); err != nil || d != DirectionAgainst {
		t.Errorf("Expected against, got %v, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("Expected error for unknown direction")
	}
}

func TestParseSortOrder(t *testing.T) {
	if o, err := ParseSortOrder("total"); err != nil || o != OrderByTotal {
		t.Errorf("Expected total, got %v, %v", o, err)
	}
	if o, err := ParseSortOrder("avg"); err != nil || o != OrderByAverage {
		t.Errorf("Expected average for 'avg', got %v, %v", o, err)
	}
	if _, err := ParseSortOrder("median"); err == nil {
		t.Error("Expected error for unknown sort order")
	}
}

func TestCategorySpecsComplete(t *testing.T) {
	categories := []Category{
		CategoryShots, CategoryShotsOnTarget, CategoryLongShots,
		CategoryHeaders, CategoryCards, CategoryFoulsCommitted, CategoryFoulsReceived,
	}

	for _, cat := range categories {
		spec, err := cat.spec()
		if err != nil {
			t.Errorf("Missing spec for category %s: %v", cat, err)
			continue
		}
		if spec.table == "" {
			t.Errorf("Category %s has no source table", cat)
		}
		if !spec.eventBased() && spec.againstExpr == "" {
			t.Errorf("Appearance-backed category %s has no mirror column", cat)
		}
	}
}

func TestRefereeSensitive(t *testing.T) {
	if !CategoryCards.RefereeSensitive() {
		t.Error("Expected cards to be referee sensitive")
	}
	if !CategoryFoulsCommitted.RefereeSensitive() {
		t.Error("Expected fouls to be referee sensitive")
	}
	if CategoryShots.RefereeSensitive() {
		t.Error("Expected shots not to be referee sensitive")
	}
}

func TestSortAndRankByTotal(t *testing.T) {
	entries := []RankingEntry{
		{EntityID: "c", Total: 10, Average: 2.0},
		{EntityID: "a", Total: 30, Average: 1.5},
		{EntityID: "b", Total: 20, Average: 4.0},
	}

	sortAndRank(entries, OrderByTotal)

	if entries[0].EntityID != "a" || entries[0].Rank != 1 {
		t.Errorf("Expected 'a' at rank 1, got %+v", entries[0])
	}
	if entries[1].EntityID != "b" || entries[1].Rank != 2 {
		t.Errorf("Expected 'b' at rank 2, got %+v", entries[1])
	}
	if entries[2].EntityID != "c" || entries[2].Rank != 3 {
		t.Errorf("Expected 'c' at rank 3, got %+v", entries[2])
	}
}

func TestSortAndRankByAverage(t *testing.T) {
	entries := []RankingEntry{
		{EntityID: "c", Total: 10, Average: 2.0},
		{EntityID: "a", Total: 30, Average: 1.5},
		{EntityID: "b", Total: 20, Average: 4.0},
	}

	sortAndRank(entries, OrderByAverage)

	if entries[0].EntityID != "b" {
		t.Errorf("Expected 'b' first by average, got %+v", entries[0])
	}
	if entries[2].EntityID != "a" {
		t.Errorf("Expected 'a' last by average, got %+v", entries[2])
	}
}

func TestSortAndRankTieBreak(t *testing.T) {
	entries := []RankingEntry{
		{EntityID: "z", Total: 10},
		{EntityID: "a", Total: 10},
		{EntityID: "m", Total: 10},
	}

	sortAndRank(entries, OrderByTotal)

	// 指标相同时按实体 ID 升序,保证榜单可复现
	want := []string{"a", "m", "z"}
	for i, id := range want {
		if entries[i].EntityID != id {
			t.Errorf("Expected %s at position %d, got %s", id, i, entries[i].EntityID)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("Expected rank %d, got %d", i+1, entries[i].Rank)
		}
	}
}

// fakeRankingStore 内存实现,每支球队持有自己的窗口比赛集合
type fakeRankingStore struct {
	names   map[string]string
	windows map[string][]string
}

func (f *fakeRankingStore) TeamIDs() ([]string, error) {
	ids := make([]string, 0, len(f.windows))
	for id := range f.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeRankingStore) TeamNames() (map[string]string, error) {
	return f.names, nil
}

func (f *fakeRankingStore) LastFinishedMatchIDs(teamID string, n int) ([]string, error) {
	window := f.windows[teamID]
	if len(window) > n {
		window = window[:n]
	}
	return window, nil
}

func TestTeamRankingsWindowIsolation(t *testing.T) {
	store := &fakeRankingStore{
		names: map[string]string{"boca": "Boca Juniors", "river": "River Plate", "velez": "Velez"},
		windows: map[string][]string{
			"boca":  {"m1", "m2"},
			"river": {"m3", "m4"},
			"velez": {},
		},
	}
	matchTotals := map[string]int{"m1": 3, "m2": 2, "m3": 7, "m4": 1}

	svc := NewRankingService(nil, store, testLogger())
	svc.windowTotals = func(spec categorySpec, dir Direction, teamID string, matchIDs []string) (int, error) {
		// 每次统计只允许使用该队自己窗口内的比赛
		for _, id := range matchIDs {
			found := false
			for _, own := range store.windows[teamID] {
				if id == own {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Window for team %s leaked foreign match %s", teamID, id)
			}
		}

		total := 0
		for _, id := range matchIDs {
			total += matchTotals[id]
		}
		return total, nil
	}

	entries, err := svc.TeamRankings(CategoryShots, DirectionMade, OrderByTotal, 2)
	if err != nil {
		t.Fatalf("TeamRankings failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	byID := make(map[string]RankingEntry)
	for _, e := range entries {
		byID[e.EntityID] = e
	}

	// 各队总量只来自自己的窗口
	if byID["boca"].Total != 5 || byID["boca"].Matches != 2 {
		t.Errorf("Unexpected boca window stats: %+v", byID["boca"])
	}
	if byID["river"].Total != 8 || byID["river"].Matches != 2 {
		t.Errorf("Unexpected river window stats: %+v", byID["river"])
	}
	if byID["boca"].Average != 2.5 {
		t.Errorf("Expected boca average 2.5, got %v", byID["boca"].Average)
	}

	// 窗口为空的球队保留零值条目,排在榜尾
	if byID["velez"].Total != 0 || byID["velez"].Matches != 0 {
		t.Errorf("Expected zero entry for velez, got %+v", byID["velez"])
	}
	if byID["velez"].Rank != 3 {
		t.Errorf("Expected velez at rank 3, got %d", byID["velez"].Rank)
	}

	if byID["river"].Rank != 1 || byID["boca"].Rank != 2 {
		t.Errorf("Unexpected ranks: river=%d boca=%d", byID["river"].Rank, byID["boca"].Rank)
	}
	if byID["boca"].Name != "Boca Juniors" {
		t.Errorf("Expected team name fill, got '%s'", byID["boca"].Name)
	}
}

func TestTeamRankingsWindowShorterThanRequested(t *testing.T) {
	store := &fakeRankingStore{
		names:   map[string]string{"boca": "Boca Juniors"},
		windows: map[string][]string{"boca": {"m1"}},
	}

	svc := NewRankingService(nil, store, testLogger())
	svc.windowTotals = func(spec categorySpec, dir Direction, teamID string, matchIDs []string) (int, error) {
		if len(matchIDs) != 1 {
			t.Errorf("Expected 1 match in window, got %d", len(matchIDs))
		}
		return 4, nil
	}

	entries, err := svc.TeamRankings(CategoryShots, DirectionMade, OrderByAverage, 5)
	if err != nil {
		t.Fatalf("TeamRankings failed: %v", err)
	}

	// 不足 N 场时使用现有场次计算场均
	if len(entries) != 1 || entries[0].Matches != 1 || entries[0].Average != 4 {
		t.Errorf("Unexpected short-window entry: %+v", entries[0])
	}
}
