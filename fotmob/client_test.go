package fotmob

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient()

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected baseURL to be '%s', got '%s'", DefaultBaseURL, client.baseURL)
	}

	if client.requestDelay != DefaultRequestDelay {
		t.Errorf("Expected requestDelay to be %v, got %v", DefaultRequestDelay, client.requestDelay)
	}
}

func TestNewClientWithConfig(t *testing.T) {
	config := Config{
		BaseURL:      "https://custom.api.com",
		Timeout:      60 * time.Second,
		RequestDelay: 2 * time.Second,
	}

	client := NewClientWithConfig(config)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != "https://custom.api.com" {
		t.Errorf("Expected baseURL to be 'https://custom.api.com', got '%s'", client.baseURL)
	}

	if client.httpClient.Timeout != 60*time.Second {
		t.Errorf("Expected timeout to be 60s, got %v", client.httpClient.Timeout)
	}

	if client.requestDelay != 2*time.Second {
		t.Errorf("Expected requestDelay to be 2s, got %v", client.requestDelay)
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{
		Code:    404,
		Message: "Not found",
		Status:  "error",
	}

	expected := "API error 404: Not found"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}

func TestFlexStringUnmarshal(t *testing.T) {
	var payload struct {
		AsString FlexString `json:"as_string"`
		AsNumber FlexString `json:"as_number"`
		AsNull   FlexString `json:"as_null"`
	}

	data := []byte(`{"as_string": "45+2", "as_number": 4174673, "as_null": null}`)
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if payload.AsString != "45+2" {
		t.Errorf("Expected '45+2', got '%s'", payload.AsString)
	}
	if payload.AsNumber != "4174673" {
		t.Errorf("Expected '4174673', got '%s'", payload.AsNumber)
	}
	if payload.AsNull != "" {
		t.Errorf("Expected empty string, got '%s'", payload.AsNull)
	}
}

func TestFlexFloatUnmarshal(t *testing.T) {
	var payload struct {
		AsNumber FlexFloat `json:"as_number"`
		AsString FlexFloat `json:"as_string"`
		AsJunk   FlexFloat `json:"as_junk"`
	}

	data := []byte(`{"as_number": 7.5, "as_string": "90", "as_junk": "-"}`)
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if payload.AsNumber != 7.5 {
		t.Errorf("Expected 7.5, got %v", payload.AsNumber)
	}
	if payload.AsString != 90 {
		t.Errorf("Expected 90, got %v", payload.AsString)
	}
	if payload.AsJunk != 0 {
		t.Errorf("Expected 0 for unparseable value, got %v", payload.AsJunk)
	}
}

func TestMatchDetailsDecode(t *testing.T) {
	data := []byte(`{
		"general": {
			"matchId": 4174673,
			"matchTimeUTCDate": "2025-03-16T22:00:00.000Z",
			"leagueRoundName": "Round 10",
			"homeTeam": {"id": 10012, "name": "Boca Juniors"},
			"awayTeam": {"id": "9987", "name": "River Plate"}
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
						{"card": "Yellow", "player": {"id": 111, "name": "Test Player"}, "isHome": true, "timeStr": 34}
					]
				}
			},
			"shotmap": {
				"shots": [
					{"playerId": 111, "playerName": "Test Player", "teamId": 10012, "min": 12, "isOnTarget": true, "isBlocked": false, "shotType": "Header", "isFromInsideBox": true}
				]
			}
		}
	}`)

	var details MatchDetails
	if err := json.Unmarshal(data, &details); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if details.General.MatchID != "4174673" {
		t.Errorf("Expected matchId '4174673', got '%s'", details.General.MatchID)
	}
	if details.General.HomeTeam.ID != "10012" {
		t.Errorf("Expected home team id '10012', got '%s'", details.General.HomeTeam.ID)
	}
	if details.General.AwayTeam.ID != "9987" {
		t.Errorf("Expected away team id '9987', got '%s'", details.General.AwayTeam.ID)
	}
	if !details.Header.Status.Finished {
		t.Error("Expected match to be finished")
	}
	if details.Content.MatchFacts.InfoBox.Referee.Text != "Dario Herrera" {
		t.Errorf("Expected referee 'Dario Herrera', got '%s'", details.Content.MatchFacts.InfoBox.Referee.Text)
	}

	events := details.Content.MatchFacts.Events.Events
	if len(events) != 1 || events[0].Card != "Yellow" {
		t.Fatalf("Expected one yellow card event, got %+v", events)
	}
	if events[0].TimeStr != "34" {
		t.Errorf("Expected timeStr '34', got '%s'", events[0].TimeStr)
	}

	shots := details.Content.Shotmap.Shots
	if len(shots) != 1 {
		t.Fatalf("Expected one shot, got %d", len(shots))
	}
	if shots[0].PlayerID != "111" || !shots[0].IsOnTarget || !shots[0].IsFromInsideBox {
		t.Errorf("Unexpected shot decode: %+v", shots[0])
	}
}

func TestFlattenPlayerStats(t *testing.T) {
	data := []byte(`{
		"stats": [
			{
				"title": "Top stats",
				"stats": {
					"Minutes played": {"key": "minutes_played", "stat": {"value": 90}},
					"Unnamed": {"key": "", "stat": {"value": 5}}
				}
			},
			{
				"title": "Duels",
				"stats": {
					"Fouls committed": {"key": "fouls", "stat": {"value": "2"}}
				}
			}
		]
	}`)

	var entry PlayerStatEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	flat := FlattenPlayerStats(entry)

	if flat["minutes_played"] != 90 {
		t.Errorf("Expected minutes_played 90, got %v", flat["minutes_played"])
	}
	if flat["fouls"] != 2 {
		t.Errorf("Expected fouls 2, got %v", flat["fouls"])
	}
	if _, ok := flat[""]; ok {
		t.Error("Expected keyless entries to be dropped")
	}
	if len(flat) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(flat))
	}
}

func TestGetMatchDetailsGzipUpstream(t *testing.T) {
	payload := []byte(`{
		"general": {
			"matchId": 4174673,
			"homeTeam": {"id": 10012, "name": "Boca Juniors"},
			"awayTeam": {"id": 9987, "name": "River Plate"}
		},
		"header": {"status": {"finished": true}}
	}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/matchDetails" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("matchId") != "4174673" {
			t.Errorf("Unexpected matchId: %s", r.URL.Query().Get("matchId"))
		}

		// 上游在客户端声明支持 gzip 时返回压缩体
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			gz.Write(payload)
			gz.Close()
			return
		}
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClientWithConfig(Config{
		BaseURL:      server.URL,
		RequestDelay: time.Millisecond,
	})

	details, err := client.GetMatchDetails("4174673")
	if err != nil {
		t.Fatalf("GetMatchDetails failed against gzip-capable upstream: %v", err)
	}

	if details.General.MatchID != "4174673" {
		t.Errorf("Expected matchId '4174673', got '%s'", details.General.MatchID)
	}
	if !details.Header.Status.Finished {
		t.Error("Expected match to be finished")
	}
}

func TestGetMatchDetailsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithConfig(Config{
		BaseURL:      server.URL,
		RequestDelay: time.Millisecond,
	})

	_, err := client.GetMatchDetails("999")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Code != http.StatusNotFound {
		t.Errorf("Expected code 404, got %d", apiErr.Code)
	}
}
