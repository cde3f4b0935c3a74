package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"arg-stats/database"
	"arg-stats/fotmob"
)

// fakeMatchWriter 内存实现,记录每次写入
type fakeMatchWriter struct {
	matches     map[string]*database.Match
	appearances map[string][]database.PlayerMatchAppearance
	shots       map[string][]database.Shot
	cards       map[string][]database.Card
}

func newFakeMatchWriter() *fakeMatchWriter {
	return &fakeMatchWriter{
		matches:     make(map[string]*database.Match),
		appearances: make(map[string][]database.PlayerMatchAppearance),
		shots:       make(map[string][]database.Shot),
		cards:       make(map[string][]database.Card),
	}
}

func (f *fakeMatchWriter) UpsertMatch(m *database.Match) error {
	f.matches[m.ID] = m
	return nil
}

func (f *fakeMatchWriter) ReplaceAppearances(matchID string, rows []database.PlayerMatchAppearance) error {
	f.appearances[matchID] = rows
	return nil
}

func (f *fakeMatchWriter) ReplaceShots(matchID string, rows []database.Shot) error {
	f.shots[matchID] = rows
	return nil
}

func (f *fakeMatchWriter) ReplaceCards(matchID string, rows []database.Card) error {
	f.cards[matchID] = rows
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func finishedMatchPayload(t *testing.T) *fotmob.MatchDetails {
	t.Helper()

	data := []byte(`{
		"general": {
			"matchId": 4174673,
			"matchTimeUTCDate": "2025-03-16T22:00:00.000Z",
			"leagueRoundName": "Round 10",
			"homeTeam": {"id": 10012, "name": "Boca Juniors"},
			"awayTeam": {"id": 9987, "name": "River Plate"}
		},
		"header": {
			"status": {"finished": true, "started": true, "scoreStr": "2 - 1"}
		},
		"content": {
			"matchFacts": {
				"infoBox": {
					"Tournament": {"leagueName": "Liga Profesional"},
					"Referee": {"text": "Dario Herrera"}
				},
				"events": {
					"events": [
						{"card": "Yellow", "player": {"id": 201, "name": "Visitante Uno"}, "isHome": false, "timeStr": 34},
						{"card": "Yellow", "cardDescription": {"localizedKey": "not_on_pitch"}, "player": {"id": 999, "name": "Entrenador"}, "isHome": true, "timeStr": 60},
						{"card": "", "player": {"id": 101, "name": "Local Uno"}, "isHome": true, "timeStr": 12}
					]
				}
			},
			"lineup": {
				"homeTeam": {
					"id": 10012,
					"starters": [
						{"id": 101, "name": "Local Uno", "shirtNumber": 9, "usualPlayingPositionId": 3,
						 "performance": {"rating": 7.8}, "verticalLayout": {"x": 50, "y": 80}},
						{"id": 102, "name": "Local Dos", "shirtNumber": 1, "usualPlayingPositionId": 0,
						 "performance": {"rating": 6.4}, "verticalLayout": {"x": 0.5, "y": 0.05}}
					],
					"subs": [
						{"id": 103, "name": "Local Tres", "shirtNumber": 17}
					]
				},
				"awayTeam": {
					"id": 9987,
					"starters": [
						{"id": 201, "name": "Visitante Uno", "shirtNumber": 5, "usualPlayingPositionId": 1,
						 "performance": {"rating": 6.9}, "verticalLayout": {"x": 30, "y": 20}}
					],
					"subs": []
				}
			},
			"playerStats": {
				"101": {"stats": [{"title": "Top stats", "stats": {
					"Minutes played": {"key": "minutes_played", "stat": {"value": 78}},
					"Fouls committed": {"key": "fouls", "stat": {"value": 2}},
					"Was fouled": {"key": "was_fouled", "stat": {"value": 3}}
				}}]}
			},
			"shotmap": {
				"shots": [
					{"playerId": 101, "playerName": "Local Uno", "teamId": 10012, "min": 12,
					 "isOnTarget": true, "isBlocked": false, "shotType": "RightFoot",
					 "situation": "RegularPlay", "eventType": "Goal", "isFromInsideBox": true},
					{"playerId": 101, "playerName": "Local Uno", "teamId": 10012, "min": "45+2",
					 "isOnTarget": true, "isBlocked": true, "shotType": "Header",
					 "situation": "FromCorner", "eventType": "AttemptSaved", "isFromInsideBox": false}
				]
			}
		}
	}`)

	var details fotmob.MatchDetails
	if err := json.Unmarshal(data, &details); err != nil {
		t.Fatalf("Failed to decode fixture payload: %v", err)
	}
	return &details
}

func TestIngestMatchFinished(t *testing.T) {
	store := newFakeMatchWriter()
	svc := NewIngestService(store, testLogger())

	payload := finishedMatchPayload(t)
	if err := svc.IngestMatch("4174673", payload); err != nil {
		t.Fatalf("IngestMatch failed: %v", err)
	}

	match := store.matches["4174673"]
	if match == nil {
		t.Fatal("Expected match to be stored")
	}
	if !match.Finished {
		t.Error("Expected match to be finished")
	}
	if match.HomeTeamID != "10012" || match.AwayTeamID != "9987" {
		t.Errorf("Unexpected team ids: %s / %s", match.HomeTeamID, match.AwayTeamID)
	}
	if match.Referee == nil || *match.Referee != "Dario Herrera" {
		t.Errorf("Unexpected referee: %v", match.Referee)
	}
	if match.Gameweek != "Round 10" {
		t.Errorf("Expected gameweek 'Round 10', got '%s'", match.Gameweek)
	}

	// 开球时间换算为联赛本地时间 (UTC-3)
	want := time.Date(2025, 3, 16, 19, 0, 0, 0, time.UTC)
	if !match.Date.Equal(want) {
		t.Errorf("Expected kickoff %v, got %v", want, match.Date)
	}

	// 3 首发 + 1 替补
	rows := store.appearances["4174673"]
	if len(rows) != 4 {
		t.Fatalf("Expected 4 appearances, got %d", len(rows))
	}

	byID := make(map[string]database.PlayerMatchAppearance)
	for _, r := range rows {
		byID[r.PlayerID] = r
	}

	// 有分钟数统计的首发使用统计值
	if byID["101"].MinutesPlayed != 78 {
		t.Errorf("Expected 78 minutes for player 101, got %d", byID["101"].MinutesPlayed)
	}
	if byID["101"].FoulsCommitted != 2 || byID["101"].FoulsReceived != 3 {
		t.Errorf("Unexpected fouls for player 101: %d/%d", byID["101"].FoulsCommitted, byID["101"].FoulsReceived)
	}
	if byID["101"].Position != database.PositionForward {
		t.Errorf("Expected position %s, got %s", database.PositionForward, byID["101"].Position)
	}

	// 无统计的首发默认打满全场,替补默认 0 分钟
	if byID["102"].MinutesPlayed != 90 {
		t.Errorf("Expected 90 minutes for starter without stats, got %d", byID["102"].MinutesPlayed)
	}
	if byID["103"].MinutesPlayed != 0 {
		t.Errorf("Expected 0 minutes for sub without stats, got %d", byID["103"].MinutesPlayed)
	}
	if !byID["102"].IsStarter || byID["103"].IsStarter {
		t.Error("Starter flags are wrong")
	}
	if byID["103"].Position != database.PositionUnknown {
		t.Errorf("Expected unknown position for sub, got %s", byID["103"].Position)
	}

	// 百分比坐标归一化并交换轴向
	if byID["101"].RoleX != 0.8 || byID["101"].RoleY != 0.5 {
		t.Errorf("Unexpected role coords for 101: %v/%v", byID["101"].RoleX, byID["101"].RoleY)
	}
	if byID["102"].RoleX != 0.05 || byID["102"].RoleY != 0.5 {
		t.Errorf("Unexpected role coords for 102: %v/%v", byID["102"].RoleX, byID["102"].RoleY)
	}

	// 被封堵的射正不算射正
	shots := store.shots["4174673"]
	if len(shots) != 2 {
		t.Fatalf("Expected 2 shots, got %d", len(shots))
	}
	if !shots[0].OnTarget {
		t.Error("Expected unblocked on-target shot to count as on target")
	}
	if shots[1].OnTarget {
		t.Error("Expected blocked shot not to count as on target")
	}
	if shots[1].Minute != "45+2" {
		t.Errorf("Expected stoppage-time minute label, got '%s'", shots[1].Minute)
	}
	if shots[1].InsideBox {
		t.Error("Expected second shot to be from outside the box")
	}

	// 不在场上的牌被过滤,非牌事件被忽略
	cards := store.cards["4174673"]
	if len(cards) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(cards))
	}
	if cards[0].PlayerID != "201" || cards[0].TeamID != "9987" {
		t.Errorf("Unexpected card attribution: %+v", cards[0])
	}
	if cards[0].CardType != "Yellow" || cards[0].Minute != "34" {
		t.Errorf("Unexpected card contents: %+v", cards[0])
	}
}

func TestIngestMatchIdempotent(t *testing.T) {
	store := newFakeMatchWriter()
	svc := NewIngestService(store, testLogger())

	payload := finishedMatchPayload(t)
	if err := svc.IngestMatch("4174673", payload); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}
	first := len(store.appearances["4174673"])

	if err := svc.IngestMatch("4174673", payload); err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}

	if len(store.appearances["4174673"]) != first {
		t.Errorf("Expected %d appearances after re-ingest, got %d", first, len(store.appearances["4174673"]))
	}
	if len(store.matches) != 1 {
		t.Errorf("Expected a single match record, got %d", len(store.matches))
	}
}

func TestIngestMatchPending(t *testing.T) {
	store := newFakeMatchWriter()
	svc := NewIngestService(store, testLogger())

	payload := finishedMatchPayload(t)
	payload.Header.Status.Finished = false

	if err := svc.IngestMatch("4174673", payload); err != nil {
		t.Fatalf("IngestMatch failed: %v", err)
	}

	if store.matches["4174673"] == nil {
		t.Fatal("Expected pending match to be stored")
	}
	if len(store.appearances["4174673"]) != 0 || len(store.shots["4174673"]) != 0 || len(store.cards["4174673"]) != 0 {
		t.Error("Expected no child events for unfinished match")
	}
}

func TestIngestMatchMalformedPayload(t *testing.T) {
	store := newFakeMatchWriter()
	svc := NewIngestService(store, testLogger())

	if err := svc.IngestMatch("1", nil); err == nil {
		t.Error("Expected error for nil payload")
	}

	if err := svc.IngestMatch("2", &fotmob.MatchDetails{}); err == nil {
		t.Error("Expected error for payload without teams")
	}

	if len(store.matches) != 0 {
		t.Errorf("Expected no matches stored, got %d", len(store.matches))
	}
}

func TestConvertRoundToGameweek(t *testing.T) {
	cases := map[string]string{
		"1/8":        "17",
		"1/4":        "18",
		"1/2":        "19",
		"Semi-final": "19",
		"Final":      "20",
		"Round 7":    "Round 7",
	}

	for input, want := range cases {
		if got := convertRoundToGameweek(input); got != want {
			t.Errorf("convertRoundToGameweek(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAdjustUTCToLocal(t *testing.T) {
	got := adjustUTCToLocal("2025-03-16T22:00:00.000Z")
	want := time.Date(2025, 3, 16, 19, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if !adjustUTCToLocal("garbage").IsZero() {
		t.Error("Expected zero time for unparseable input")
	}
	if !adjustUTCToLocal("").IsZero() {
		t.Error("Expected zero time for empty input")
	}
}

func TestNormalizeCoord(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{80, 0.8},
		{0.35, 0.35},
		{-5, 0},
		{1, 1},
	}

	for _, c := range cases {
		if got := normalizeCoord(c.in); got != c.want {
			t.Errorf("normalizeCoord(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIngestMatchReplacesEmptiedSections(t *testing.T) {
	store := newFakeMatchWriter()
	svc := NewIngestService(store, testLogger())

	payload := finishedMatchPayload(t)
	if err := svc.IngestMatch("4174673", payload); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}
	if len(store.cards["4174673"]) == 0 || len(store.shots["4174673"]) == 0 {
		t.Fatal("Expected first ingest to store child events")
	}

	// 修正后的负载不再包含牌和射门,子事件集应被整体覆盖
	payload.Content.MatchFacts.Events.Events = nil
	payload.Content.Shotmap.Shots = nil

	if err := svc.IngestMatch("4174673", payload); err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}

	if len(store.cards["4174673"]) != 0 {
		t.Errorf("Expected stale cards to be wiped, got %d", len(store.cards["4174673"]))
	}
	if len(store.shots["4174673"]) != 0 {
		t.Errorf("Expected stale shots to be wiped, got %d", len(store.shots["4174673"]))
	}
	if len(store.appearances["4174673"]) == 0 {
		t.Error("Expected appearances to remain populated")
	}
}
